// internal/utils/identifier_test.go
package utils

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/shoplane/ecommerce-backend/internal/models"
)

func TestSlugify(t *testing.T) {
	assert.Equal(t, "running-shoes", Slugify("Running Shoes"))
	assert.Equal(t, "mens-t-shirt", Slugify("Men's T-Shirt"))
	assert.Equal(t, "a-b-c", Slugify("  A  -  B  -  C  "))
	assert.Equal(t, "", Slugify("!!!"))
}

func TestMakeSlugAppendsSuffix(t *testing.T) {
	slug := MakeSlug("Running Shoes")
	assert.Regexp(t, regexp.MustCompile(`^running-shoes-\d{5}$`), slug)
}

func TestMakeSKU(t *testing.T) {
	assert.Equal(t, "ELE-SHO-007", MakeSKU("Electronics", "Shoes", 7))
	assert.Equal(t, "ELE-SHO-042", MakeSKU("electronics", "shoes", 42))

	// Root categories have no parent segment.
	assert.Equal(t, "SHO-007", MakeSKU("", "Shoes", 7))

	// The id is padded to three digits but never truncated.
	assert.Equal(t, "ELE-SHO-12345", MakeSKU("Electronics", "Shoes", 12345))

	// Short category names contribute what they have.
	assert.Equal(t, "TV-SHO-001", MakeSKU("TV", "Shoes", 1))
}

func TestMakeVariantSKU(t *testing.T) {
	base := "ELE-SHO-007"

	sku := MakeVariantSKU(base, map[models.OptionName]string{
		models.OptionColor: "Deep Blue",
		models.OptionSize:  "42",
	})
	assert.Equal(t, "ELE-SHO-007-DEEPBLUE-42", sku)

	// Color always precedes size regardless of map iteration order.
	sku = MakeVariantSKU(base, map[models.OptionName]string{
		models.OptionSize:  "xl",
		models.OptionColor: "red",
	})
	assert.Equal(t, "ELE-SHO-007-RED-XL", sku)

	// An options-less variant reuses the product SKU.
	assert.Equal(t, base, MakeVariantSKU(base, nil))

	sku = MakeVariantSKU(base, map[models.OptionName]string{
		models.OptionSize: "One Size Fits All",
	})
	assert.Equal(t, "ELE-SHO-007-ONESIZEFITSALL", sku)
}
