// internal/services/product_service_test.go
package services

import (
	"testing"

	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"

	"github.com/shoplane/ecommerce-backend/internal/models"
)

type ProductServiceSuite struct {
	suite.Suite
	db         *gorm.DB
	store      *fakeImageStore
	products   *ProductService
	categoryID uint
}

func (s *ProductServiceSuite) SetupTest() {
	s.db = newTestDB(s.T())
	s.store = newFakeImageStore()
	s.products = NewProductService(s.db, NewCategoryService(s.db), s.store)
	s.categoryID = seedCategoryTree(s.T(), s.db)
}

func TestProductServiceSuite(t *testing.T) {
	suite.Run(t, new(ProductServiceSuite))
}

func (s *ProductServiceSuite) validRequest() *CreateProductRequest {
	modifier := 5.0
	return &CreateProductRequest{
		Title:      "Running Shoes",
		BasePrice:  99.99,
		CategoryID: s.categoryID,
		Variants: []VariantSpec{
			{Color: "Red", Size: "42", Quantity: 10},
			{Color: "Blue", Size: "43", Quantity: 3, PriceModifier: &modifier},
		},
		Images: []ImagePayload{
			{Data: []byte("image-a"), MimeType: "image/png"},
			{Data: []byte("image-b"), MimeType: "image/png"},
		},
		MainImageIndex: 1,
	}
}

func (s *ProductServiceSuite) TestCreateProduct() {
	result, err := s.products.CreateProduct(s.validRequest())
	s.Require().NoError(err)
	s.Equal("Running Shoes", result.Title)
	s.Len(result.VariantSKUs, 2)

	var product models.Product
	s.Require().NoError(s.db.Preload("Variants.Options").Preload("Variants.Inventory").
		Preload("Images").First(&product, result.ProductID).Error)

	s.Equal("ELE-SHO-001", product.SKU)
	s.Regexp(`^running-shoes-\d{5}$`, product.Slug)

	s.Require().Len(product.Variants, 2)
	s.Equal("ELE-SHO-001-RED-42", product.Variants[0].SKU)
	s.Equal("ELE-SHO-001-BLUE-43", product.Variants[1].SKU)
	s.Equal(5.0, product.Variants[1].PriceModifier)
	s.Require().NotNil(product.Variants[0].Inventory)
	s.Equal(10, product.Variants[0].Inventory.Quantity)
	s.Len(product.Variants[0].Options, 2)

	s.Require().Len(product.Images, 2)
	mainCount := 0
	for _, img := range product.Images {
		if img.IsMain {
			mainCount++
		}
	}
	s.Equal(1, mainCount)
	s.Len(s.store.storedKeys(), 2)
}

func (s *ProductServiceSuite) TestCreateProductOptionlessVariant() {
	req := s.validRequest()
	req.Images = nil
	req.MainImageIndex = 0
	req.Variants = []VariantSpec{{Quantity: 7}}

	result, err := s.products.CreateProduct(req)
	s.Require().NoError(err)

	// With no options the variant SKU falls back to the product SKU.
	s.Equal([]string{"ELE-SHO-001"}, result.VariantSKUs)
}

func (s *ProductServiceSuite) TestCreateProductUploadFailureRollsBack() {
	req := s.validRequest()
	req.Images = []ImagePayload{
		{Data: []byte("image-a"), MimeType: "image/png"},
		{Data: failMarker, MimeType: "image/png"},
		{Data: []byte("image-c"), MimeType: "image/png"},
	}

	_, err := s.products.CreateProduct(req)
	s.Require().Error(err)
	s.ErrorIs(err, ErrUpstream)

	// Every relational row is gone.
	var count int64
	s.db.Model(&models.Product{}).Count(&count)
	s.Zero(count)
	s.db.Model(&models.ProductVariant{}).Count(&count)
	s.Zero(count)
	s.db.Model(&models.ProductImage{}).Count(&count)
	s.Zero(count)

	// Both uploads that did succeed were compensated.
	s.Empty(s.store.storedKeys())
	s.Len(s.store.deleted, 2)
}

func (s *ProductServiceSuite) TestCreateProductUnknownCategory() {
	req := s.validRequest()
	req.CategoryID = 999

	_, err := s.products.CreateProduct(req)
	s.ErrorIs(err, ErrCategoryNotFound)
}

func (s *ProductServiceSuite) TestCreateProductValidation() {
	req := s.validRequest()
	req.Title = ""

	_, err := s.products.CreateProduct(req)
	s.ErrorIs(err, ErrValidation)

	req = s.validRequest()
	req.MainImageIndex = 5
	_, err = s.products.CreateProduct(req)
	s.ErrorIs(err, ErrValidation)
}

func (s *ProductServiceSuite) TestReplaceMainImage() {
	result, err := s.products.CreateProduct(s.validRequest())
	s.Require().NoError(err)

	var before models.ProductImage
	s.Require().NoError(s.db.Where("product_id = ? AND is_main = ?", result.ProductID, true).
		First(&before).Error)

	err = s.products.ReplaceMainImage(result.ProductID, ImagePayload{
		Data: []byte("image-c"), MimeType: "image/png",
	})
	s.Require().NoError(err)

	var after models.ProductImage
	s.Require().NoError(s.db.Where("product_id = ? AND is_main = ?", result.ProductID, true).
		First(&after).Error)
	s.Equal(before.ID, after.ID)
	s.NotEqual(before.StorageKey, after.StorageKey)

	// The superseded blob was deleted only after the row settled.
	s.Contains(s.store.deleted, before.StorageKey)
	s.NotContains(s.store.storedKeys(), before.StorageKey)
}

func (s *ProductServiceSuite) TestReplaceMainImageUnknownProduct() {
	err := s.products.ReplaceMainImage(42, ImagePayload{
		Data: []byte("image-c"), MimeType: "image/png",
	})
	s.ErrorIs(err, ErrProductNotFound)

	// The fresh upload became an orphan and was compensated.
	s.Empty(s.store.storedKeys())
}

func (s *ProductServiceSuite) TestReplaceMainImageUploadFailure() {
	result, err := s.products.CreateProduct(s.validRequest())
	s.Require().NoError(err)

	err = s.products.ReplaceMainImage(result.ProductID, ImagePayload{Data: failMarker})
	s.ErrorIs(err, ErrUpstream)

	// The existing main image is untouched.
	var img models.ProductImage
	s.Require().NoError(s.db.Where("product_id = ? AND is_main = ?", result.ProductID, true).
		First(&img).Error)
	s.Contains(s.store.storedKeys(), img.StorageKey)
}

func (s *ProductServiceSuite) TestDeleteProduct() {
	result, err := s.products.CreateProduct(s.validRequest())
	s.Require().NoError(err)

	s.Require().NoError(s.products.DeleteProduct(result.ProductID))

	var count int64
	s.db.Model(&models.Product{}).Count(&count)
	s.Zero(count)
	s.db.Model(&models.ProductVariant{}).Count(&count)
	s.Zero(count)
	s.db.Model(&models.VariantOption{}).Count(&count)
	s.Zero(count)
	s.db.Model(&models.Inventory{}).Count(&count)
	s.Zero(count)
	s.db.Model(&models.ProductImage{}).Count(&count)
	s.Zero(count)
	s.Empty(s.store.storedKeys())

	// A second deletion reports the product as gone.
	s.ErrorIs(s.products.DeleteProduct(result.ProductID), ErrProductNotFound)
}

func (s *ProductServiceSuite) TestDeleteProductRecordsFailedCleanup() {
	result, err := s.products.CreateProduct(s.validRequest())
	s.Require().NoError(err)

	var images []models.ProductImage
	s.Require().NoError(s.db.Where("product_id = ?", result.ProductID).Find(&images).Error)
	s.Require().Len(images, 2)
	s.store.failDelete[images[0].StorageKey] = true

	// Blob deletion is best-effort; the operation still succeeds.
	s.Require().NoError(s.products.DeleteProduct(result.ProductID))

	var count int64
	s.db.Model(&models.Product{}).Count(&count)
	s.Zero(count)

	var entry models.CleanupLog
	s.Require().NoError(s.db.First(&entry).Error)
	s.Equal("delete_product", entry.Operation)
	s.Equal([]string{images[0].StorageKey}, []string(entry.AssetKeys))
}

func (s *ProductServiceSuite) TestUpdateGeneralInfo() {
	result, err := s.products.CreateProduct(s.validRequest())
	s.Require().NoError(err)

	err = s.products.UpdateGeneralInfo(result.ProductID, map[string]interface{}{
		"title":      "Trail Shoes",
		"base_price": 120.0,
	})
	s.Require().NoError(err)

	var product models.Product
	s.Require().NoError(s.db.First(&product, result.ProductID).Error)
	s.Equal("Trail Shoes", product.Title)
	s.Equal(120.0, product.BasePrice)
	s.Regexp(`^trail-shoes-\d{5}$`, product.Slug)

	// The SKU is generated and can never be patched directly.
	err = s.products.UpdateGeneralInfo(result.ProductID, map[string]interface{}{
		"sku": "CUSTOM-001",
	})
	s.ErrorIs(err, ErrValidation)

	err = s.products.UpdateGeneralInfo(result.ProductID, map[string]interface{}{
		"discount_percent": 150.0,
	})
	s.ErrorIs(err, ErrValidation)

	err = s.products.UpdateGeneralInfo(999, map[string]interface{}{"title": "Nope"})
	s.ErrorIs(err, ErrProductNotFound)
}

func (s *ProductServiceSuite) TestUpdateQuantity() {
	result, err := s.products.CreateProduct(s.validRequest())
	s.Require().NoError(err)

	var variant models.ProductVariant
	s.Require().NoError(s.db.Where("product_id = ?", result.ProductID).First(&variant).Error)

	s.Require().NoError(s.products.UpdateQuantity(variant.ID, 25))

	var inv models.Inventory
	s.Require().NoError(s.db.Where("product_variant_id = ?", variant.ID).First(&inv).Error)
	s.Equal(25, inv.Quantity)

	s.ErrorIs(s.products.UpdateQuantity(variant.ID, -1), ErrValidation)
	s.ErrorIs(s.products.UpdateQuantity(999, 5), ErrVariantNotFound)
}

func (s *ProductServiceSuite) TestGetProductBySlug() {
	result, err := s.products.CreateProduct(s.validRequest())
	s.Require().NoError(err)

	var product models.Product
	s.Require().NoError(s.db.First(&product, result.ProductID).Error)

	detail, err := s.products.GetProductBySlug(product.Slug)
	s.Require().NoError(err)
	s.Equal(product.ID, detail.ID)
	s.Len(detail.Variants, 2)
	s.Len(detail.Images, 2)

	// Breadcrumb reads root first.
	s.Require().Len(detail.Breadcrumb, 2)
	s.Equal("Electronics", detail.Breadcrumb[0].Name)
	s.Equal("Shoes", detail.Breadcrumb[1].Name)

	_, err = s.products.GetProductBySlug("missing-slug")
	s.ErrorIs(err, ErrProductNotFound)
}
