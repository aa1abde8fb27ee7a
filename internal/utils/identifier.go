// internal/utils/identifier.go
package utils

import (
	"fmt"
	"strings"
	"time"

	"github.com/shoplane/ecommerce-backend/internal/models"
)

const skuSeparator = "-"

// MakeSlug builds a URL-safe slug from a product title and appends a
// short time-based suffix so identical titles submitted in quick
// succession still produce distinct slugs. The suffix makes collisions
// practically impossible, not impossible: callers still treat a
// unique-constraint violation on the slug column as a conflict.
func MakeSlug(title string) string {
	suffix := time.Now().UnixMilli() % 100000
	return fmt.Sprintf("%s-%05d", Slugify(title), suffix)
}

// Slugify lowercases, hyphenates, and strips a string down to
// [a-z0-9-]. Categories use it directly; product slugs go through
// MakeSlug for the uniqueness suffix.
func Slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, " ", "-")

	var b strings.Builder
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-' {
			b.WriteRune(r)
		}
	}

	// Collapse runs of hyphens left behind by stripped characters.
	slug := b.String()
	for strings.Contains(slug, "--") {
		slug = strings.ReplaceAll(slug, "--", "-")
	}
	return strings.Trim(slug, "-")
}

// MakeSKU composes a product SKU from category-name prefixes and the
// numeric product id: Electronics/Shoes/7 -> "ELE-SHO-007". A missing
// category name (a root subcategory has no parent) drops its segment.
// The id is zero-padded to width 3 and never truncated.
func MakeSKU(mainCategoryName, subCategoryName string, productID uint) string {
	var parts []string

	if code := categoryCode(mainCategoryName); code != "" {
		parts = append(parts, code)
	}
	if code := categoryCode(subCategoryName); code != "" {
		parts = append(parts, code)
	}
	parts = append(parts, fmt.Sprintf("%03d", productID))

	return strings.Join(parts, skuSeparator)
}

func categoryCode(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	if len(name) > 3 {
		name = name[:3]
	}
	return strings.ToUpper(name)
}

// MakeVariantSKU appends present option values to the product SKU in
// the fixed option order (color before size), whitespace stripped and
// uppercased: ("ELE-SHO-007", color=Red, size=M) -> "ELE-SHO-007-RED-M".
// A variant with no options reuses the product SKU unchanged.
func MakeVariantSKU(productSKU string, options map[models.OptionName]string) string {
	sku := productSKU
	for _, name := range models.VariantOptionNames {
		value, ok := options[name]
		if !ok {
			continue
		}
		value = strings.Join(strings.Fields(value), "")
		if value == "" {
			continue
		}
		sku += skuSeparator + strings.ToUpper(value)
	}
	return sku
}
