// internal/services/product_service.go
package services

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/lib/pq"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/shoplane/ecommerce-backend/internal/models"
	"github.com/shoplane/ecommerce-backend/internal/utils"
)

type ProductService struct {
	db              *gorm.DB
	categoryService *CategoryService
	store           ImageStore
}

func NewProductService(db *gorm.DB, categoryService *CategoryService, store ImageStore) *ProductService {
	return &ProductService{
		db:              db,
		categoryService: categoryService,
		store:           store,
	}
}

// ImagePayload is a raw image ready for upload. Handlers read the
// multipart file into memory and sniff the MIME type before the
// orchestrator ever sees it.
type ImagePayload struct {
	Data     []byte
	MimeType string
}

type VariantSpec struct {
	PriceModifier *float64 `json:"price_modifier" validate:"omitempty,gte=0"`
	Quantity      int      `json:"quantity" validate:"gte=0"`
	Color         string   `json:"color" validate:"omitempty,max=100"`
	Size          string   `json:"size" validate:"omitempty,max=100"`
}

func (v VariantSpec) options() map[models.OptionName]string {
	opts := make(map[models.OptionName]string)
	if strings.TrimSpace(v.Color) != "" {
		opts[models.OptionColor] = v.Color
	}
	if strings.TrimSpace(v.Size) != "" {
		opts[models.OptionSize] = v.Size
	}
	return opts
}

type CreateProductRequest struct {
	Title           string        `json:"title" validate:"required,min=3,max=200"`
	Description     string        `json:"description" validate:"omitempty,max=5000"`
	BasePrice       float64       `json:"base_price" validate:"required,gt=0"`
	DiscountPercent float64       `json:"discount_percent"`
	CategoryID      uint          `json:"category_id" validate:"required"`
	Variants        []VariantSpec `json:"variants" validate:"required,min=1,dive"`
	Images          []ImagePayload
	MainImageIndex  int
}

type CreateProductResult struct {
	ProductID   uint     `json:"product_id"`
	Title       string   `json:"title"`
	VariantSKUs []string `json:"variant_skus"`
}

// CreateProduct persists a product aggregate and its images as a unit.
// The relational rows live in one transaction; image uploads fan out
// concurrently to the blob store before the commit decision, so a
// committed row never references an unconfirmed blob and an upload
// failure discards every row. Blobs uploaded before a failure are
// deleted best-effort afterwards.
func (s *ProductService) CreateProduct(req *CreateProductRequest) (*CreateProductResult, error) {
	lineage, err := s.categoryService.ResolveLineage(req.CategoryID)
	if err != nil {
		return nil, err
	}

	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if req.MainImageIndex < 0 || (len(req.Images) > 0 && req.MainImageIndex >= len(req.Images)) {
		return nil, fmt.Errorf("%w: main image index %d out of range", ErrValidation, req.MainImageIndex)
	}
	if req.DiscountPercent < 0 || req.DiscountPercent > 100 {
		req.DiscountPercent = 0
	}

	var (
		result  CreateProductResult
		uploads []uploadOutcome
	)

	txErr := s.db.Transaction(func(tx *gorm.DB) error {
		// SKU embeds the generated id, so the product is inserted
		// first and the SKU written in a second statement.
		product := &models.Product{
			Title:           req.Title,
			Slug:            utils.MakeSlug(req.Title),
			Description:     req.Description,
			BasePrice:       req.BasePrice,
			DiscountPercent: req.DiscountPercent,
			CategoryID:      req.CategoryID,
		}
		if err := tx.Create(product).Error; err != nil {
			return fmt.Errorf("failed to create product: %w", err)
		}

		sku := utils.MakeSKU(lineage.ParentName, lineage.LeafName, product.ID)
		if err := tx.Model(product).Update("sku", sku).Error; err != nil {
			return fmt.Errorf("failed to set product sku: %w", err)
		}

		for _, spec := range req.Variants {
			modifier := 0.0
			if spec.PriceModifier != nil && *spec.PriceModifier > 0 {
				modifier = *spec.PriceModifier
			}

			variant := &models.ProductVariant{
				ProductID:     product.ID,
				PriceModifier: modifier,
				SKU:           utils.MakeVariantSKU(sku, spec.options()),
			}
			if err := tx.Create(variant).Error; err != nil {
				return fmt.Errorf("failed to create product variant: %w", err)
			}

			opts := spec.options()
			for _, name := range models.VariantOptionNames {
				value, ok := opts[name]
				if !ok {
					continue
				}
				option := &models.VariantOption{
					ProductVariantID: variant.ID,
					OptionName:       string(name),
					OptionValue:      value,
				}
				if err := tx.Create(option).Error; err != nil {
					return fmt.Errorf("failed to create variant option: %w", err)
				}
			}

			inventory := &models.Inventory{
				ProductVariantID: variant.ID,
				Quantity:         spec.Quantity,
			}
			if err := tx.Create(inventory).Error; err != nil {
				return fmt.Errorf("failed to create inventory record: %w", err)
			}

			result.VariantSKUs = append(result.VariantSKUs, variant.SKU)
		}

		// Fan out every upload and wait for all of them to settle;
		// the commit decision needs the complete outcome.
		uploads = s.uploadAll(req.Images)

		imageRows := make([]models.ProductImage, 0, len(uploads))
		var failed []UploadFailure
		for i, outcome := range uploads {
			if outcome.Err != nil {
				failed = append(failed, UploadFailure{Index: i, Err: outcome.Err})
				continue
			}
			imageRows = append(imageRows, models.ProductImage{
				ProductID:  product.ID,
				ImageURL:   outcome.Result.URL,
				StorageKey: outcome.Result.Key,
				IsMain:     i == req.MainImageIndex,
			})
		}

		if len(imageRows) > 0 {
			if err := tx.Create(&imageRows).Error; err != nil {
				return fmt.Errorf("failed to create product images: %w", err)
			}
		}

		if len(failed) > 0 {
			return &PartialUploadError{Failed: failed, Uploaded: len(imageRows)}
		}

		result.ProductID = product.ID
		result.Title = product.Title
		return nil
	})

	if txErr != nil {
		// The transaction is rolled back; any blob that made it to the
		// store is now orphaned and gets deleted best-effort.
		s.compensateUploads("create_product", nil, uploads)

		if errors.Is(txErr, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("%w: product slug or sku already exists", ErrConflict)
		}
		return nil, txErr
	}

	return &result, nil
}

// ReplaceMainImage swaps a product's main image. The new blob is
// uploaded before anything is mutated, the row is updated in a
// transaction, and only after commit is the superseded blob deleted.
// If the database update fails the fresh upload is deleted instead.
func (s *ProductService) ReplaceMainImage(productID uint, image ImagePayload) error {
	uploaded, err := s.store.UploadImage(image.Data, image.MimeType)
	if err != nil {
		return err
	}

	var oldKey string
	txErr := s.db.Transaction(func(tx *gorm.DB) error {
		var existing models.ProductImage
		if err := tx.Where("product_id = ? AND is_main = ?", productID, true).First(&existing).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: id %d has no main image", ErrProductNotFound, productID)
			}
			return fmt.Errorf("failed to read main image: %w", err)
		}
		oldKey = existing.StorageKey

		res := tx.Model(&models.ProductImage{}).
			Where("product_id = ? AND is_main = ?", productID, true).
			Updates(map[string]interface{}{
				"image_url":   uploaded.URL,
				"storage_key": uploaded.Key,
			})
		if res.Error != nil {
			return fmt.Errorf("failed to update main image: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: id %d has no main image", ErrProductNotFound, productID)
		}
		return nil
	})

	if txErr != nil {
		// The database kept the previous image; the fresh upload is
		// the orphan to clean up.
		s.deleteAssets("replace_main_image", &productID, []string{uploaded.Key})
		return txErr
	}

	// The commit settled ownership; the superseded blob is only now
	// safe to delete. Failure leaves an orphan, never an error.
	s.deleteAssets("replace_main_image", &productID, []string{oldKey})
	return nil
}

// DeleteProduct removes the product aggregate in one transaction and
// then deletes the associated blobs best-effort. The relational
// deletion is authoritative: blob deletion failures are logged and
// recorded but the operation still succeeds.
func (s *ProductService) DeleteProduct(productID uint) error {
	var images []models.ProductImage

	txErr := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("product_id = ?", productID).Find(&images).Error; err != nil {
			return fmt.Errorf("failed to read product images: %w", err)
		}

		// Children first; explicit deletes keep aggregate removal
		// independent of foreign-key cascade support.
		variantIDs := tx.Model(&models.ProductVariant{}).Select("id").Where("product_id = ?", productID)
		if err := tx.Where("product_variant_id IN (?)", variantIDs).Delete(&models.VariantOption{}).Error; err != nil {
			return fmt.Errorf("failed to delete variant options: %w", err)
		}
		if err := tx.Where("product_variant_id IN (?)", variantIDs).Delete(&models.Inventory{}).Error; err != nil {
			return fmt.Errorf("failed to delete inventory records: %w", err)
		}
		if err := tx.Where("product_id = ?", productID).Delete(&models.ProductVariant{}).Error; err != nil {
			return fmt.Errorf("failed to delete product variants: %w", err)
		}
		if err := tx.Where("product_id = ?", productID).Delete(&models.ProductImage{}).Error; err != nil {
			return fmt.Errorf("failed to delete product images: %w", err)
		}

		res := tx.Delete(&models.Product{}, productID)
		if res.Error != nil {
			return fmt.Errorf("failed to delete product: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: id %d", ErrProductNotFound, productID)
		}
		return nil
	})
	if txErr != nil {
		return txErr
	}

	keys := make([]string, 0, len(images))
	for _, img := range images {
		keys = append(keys, img.StorageKey)
	}
	s.deleteAssets("delete_product", &productID, keys)

	return nil
}

type ProductSummary struct {
	ID               uint    `json:"id"`
	Title            string  `json:"title"`
	Slug             string  `json:"slug"`
	BasePrice        float64 `json:"base_price"`
	DiscountPercent  float64 `json:"discount_percent"`
	CategoryName     string  `json:"category_name"`
	MainImageURL     string  `json:"main_image_url"`
	MinPriceModifier float64 `json:"min_price_modifier"`
	SoldCount        int64   `json:"sold_count"`
}

type OptionDetail struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type VariantDetail struct {
	ID            uint           `json:"id"`
	SKU           string         `json:"sku"`
	PriceModifier float64        `json:"price_modifier"`
	StockQuantity int            `json:"stock_quantity"`
	Options       []OptionDetail `json:"options"`
}

type BreadcrumbEntry struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

type ProductDetail struct {
	ID              uint                  `json:"id"`
	Title           string                `json:"title"`
	Slug            string                `json:"slug"`
	SKU             string                `json:"sku"`
	Description     string                `json:"description"`
	BasePrice       float64               `json:"base_price"`
	DiscountPercent float64               `json:"discount_percent"`
	SoldCount       int64                 `json:"sold_count"`
	ViewCount       int64                 `json:"view_count"`
	Images          []models.ProductImage `json:"images"`
	Variants        []VariantDetail       `json:"variants"`
	Breadcrumb      []BreadcrumbEntry     `json:"breadcrumb"`
}

var productSortFields = []string{"created_at", "title", "base_price", "sold_count", "view_count"}

func (s *ProductService) GetProducts(params utils.PaginationParams) (*utils.PaginationResult, error) {
	query := s.db.Model(&models.Product{})
	if params.Search != "" {
		search := "%" + strings.ToLower(params.Search) + "%"
		query = query.Where("LOWER(title) LIKE ?", search)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count products: %w", err)
	}

	query = utils.ApplySort(query, params, productSortFields)
	query = utils.ApplyPagination(query, params)

	var products []models.Product
	err := query.
		Preload("Category").
		Preload("Variants").
		Preload("Images", "is_main = ?", true).
		Find(&products).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch products: %w", err)
	}

	summaries := make([]ProductSummary, 0, len(products))
	for _, p := range products {
		summary := ProductSummary{
			ID:              p.ID,
			Title:           p.Title,
			Slug:            p.Slug,
			BasePrice:       p.BasePrice,
			DiscountPercent: p.DiscountPercent,
			CategoryName:    p.Category.Name,
			SoldCount:       p.SoldCount,
		}
		if len(p.Images) > 0 {
			summary.MainImageURL = p.Images[0].ImageURL
		}
		for i, v := range p.Variants {
			if i == 0 || v.PriceModifier < summary.MinPriceModifier {
				summary.MinPriceModifier = v.PriceModifier
			}
		}
		summaries = append(summaries, summary)
	}

	result := utils.CreatePaginationResult(summaries, total, params)
	return &result, nil
}

// GetProductBySlug loads the full product aggregate for a detail page
// and bumps the view counter in the background.
func (s *ProductService) GetProductBySlug(slug string) (*ProductDetail, error) {
	var product models.Product
	err := s.db.
		Preload("Images", func(db *gorm.DB) *gorm.DB {
			return db.Order("is_main DESC, id ASC")
		}).
		Preload("Variants").
		Preload("Variants.Options").
		Preload("Variants.Inventory").
		Where("slug = ?", slug).
		First(&product).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: slug %s", ErrProductNotFound, slug)
		}
		return nil, fmt.Errorf("failed to fetch product: %w", err)
	}

	breadcrumb, err := s.buildBreadcrumb(product.CategoryID)
	if err != nil {
		return nil, err
	}

	detail := &ProductDetail{
		ID:              product.ID,
		Title:           product.Title,
		Slug:            product.Slug,
		SKU:             product.SKU,
		Description:     product.Description,
		BasePrice:       product.BasePrice,
		DiscountPercent: product.DiscountPercent,
		SoldCount:       product.SoldCount,
		ViewCount:       product.ViewCount,
		Images:          product.Images,
		Breadcrumb:      breadcrumb,
	}

	for _, v := range product.Variants {
		variant := VariantDetail{
			ID:            v.ID,
			SKU:           v.SKU,
			PriceModifier: v.PriceModifier,
		}
		if v.Inventory != nil {
			variant.StockQuantity = v.Inventory.Quantity
		}
		for _, opt := range v.Options {
			variant.Options = append(variant.Options, OptionDetail{Name: opt.OptionName, Value: opt.OptionValue})
		}
		detail.Variants = append(detail.Variants, variant)
	}

	go s.incrementViewCount(product.ID)

	return detail, nil
}

func (s *ProductService) buildBreadcrumb(categoryID uint) ([]BreadcrumbEntry, error) {
	lineage, err := s.categoryService.ResolveLineage(categoryID)
	if err != nil {
		return nil, err
	}
	// Chain is leaf-first; the breadcrumb reads root-first.
	breadcrumb := make([]BreadcrumbEntry, 0, len(lineage.Chain))
	for i := len(lineage.Chain) - 1; i >= 0; i-- {
		c := lineage.Chain[i]
		breadcrumb = append(breadcrumb, BreadcrumbEntry{Name: c.Name, Slug: c.Slug})
	}
	return breadcrumb, nil
}

func (s *ProductService) incrementViewCount(productID uint) {
	err := s.db.Model(&models.Product{}).
		Where("id = ?", productID).
		UpdateColumn("view_count", gorm.Expr("view_count + 1")).Error
	if err != nil {
		logrus.WithField("product_id", productID).WithError(err).Warn("Failed to increment view count")
	}
}

// UpdateGeneralInfo applies a partial update to a product's scalar
// fields. Only allow-listed keys translate into column writes; a key
// outside the list rejects the whole request, which keeps generated
// columns like the sku out of reach.
func (s *ProductService) UpdateGeneralInfo(productID uint, fields map[string]interface{}) error {
	if len(fields) == 0 {
		return fmt.Errorf("%w: no fields to update", ErrValidation)
	}

	updates := make(map[string]interface{}, len(fields))
	for key, raw := range fields {
		switch key {
		case "title":
			title, ok := raw.(string)
			if !ok || strings.TrimSpace(title) == "" {
				return fmt.Errorf("%w: title must be a non-empty string", ErrValidation)
			}
			updates["title"] = title
			updates["slug"] = utils.MakeSlug(title)
		case "description":
			desc, ok := raw.(string)
			if !ok {
				return fmt.Errorf("%w: description must be a string", ErrValidation)
			}
			updates["description"] = desc
		case "base_price":
			price, ok := toFloat(raw)
			if !ok || price <= 0 {
				return fmt.Errorf("%w: base_price must be a positive number", ErrValidation)
			}
			updates["base_price"] = price
		case "discount_percent":
			discount, ok := toFloat(raw)
			if !ok || discount < 0 || discount > 100 {
				return fmt.Errorf("%w: discount_percent must be between 0 and 100", ErrValidation)
			}
			updates["discount_percent"] = discount
		case "category_id":
			id, ok := toFloat(raw)
			if !ok || id <= 0 || id != float64(uint(id)) {
				return fmt.Errorf("%w: category_id must be a positive integer", ErrValidation)
			}
			if _, err := s.categoryService.GetCategory(uint(id)); err != nil {
				return err
			}
			updates["category_id"] = uint(id)
		default:
			return fmt.Errorf("%w: field %q cannot be updated", ErrValidation, key)
		}
	}

	res := s.db.Model(&models.Product{}).Where("id = ?", productID).Updates(updates)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("%w: product slug already exists", ErrConflict)
		}
		return fmt.Errorf("failed to update product: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: id %d", ErrProductNotFound, productID)
	}
	return nil
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	}
	return 0, false
}

// UpdateQuantity sets the absolute stock level of a variant.
func (s *ProductService) UpdateQuantity(variantID uint, quantity int) error {
	if quantity < 0 {
		return fmt.Errorf("%w: quantity cannot be negative", ErrValidation)
	}

	res := s.db.Model(&models.Inventory{}).
		Where("product_variant_id = ?", variantID).
		Update("quantity", quantity)
	if res.Error != nil {
		return fmt.Errorf("failed to update inventory: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: variant id %d", ErrVariantNotFound, variantID)
	}
	return nil
}

type uploadOutcome struct {
	Result *UploadResult
	Err    error
}

// uploadAll issues every upload concurrently and waits for all of them
// to settle. There is no fail-fast and no cancellation: a partially
// settled batch cannot be compensated correctly.
func (s *ProductService) uploadAll(images []ImagePayload) []uploadOutcome {
	outcomes := make([]uploadOutcome, len(images))

	var wg sync.WaitGroup
	for i, img := range images {
		wg.Add(1)
		go func(i int, img ImagePayload) {
			defer wg.Done()
			res, err := s.store.UploadImage(img.Data, img.MimeType)
			outcomes[i] = uploadOutcome{Result: res, Err: err}
		}(i, img)
	}
	wg.Wait()

	return outcomes
}

// compensateUploads deletes the blobs of every successful outcome in a
// settled batch.
func (s *ProductService) compensateUploads(operation string, productID *uint, outcomes []uploadOutcome) {
	var keys []string
	for _, outcome := range outcomes {
		if outcome.Err == nil && outcome.Result != nil {
			keys = append(keys, outcome.Result.Key)
		}
	}
	s.deleteAssets(operation, productID, keys)
}

// deleteAssets removes blobs from the external store, each attempt
// independent of the others. Failures are logged and recorded in the
// cleanup log; they never propagate to the caller because the
// database state is already settled by the time this runs.
func (s *ProductService) deleteAssets(operation string, productID *uint, keys []string) {
	if len(keys) == 0 {
		return
	}

	failedKeys := make([]string, len(keys))
	var wg sync.WaitGroup
	for i, key := range keys {
		wg.Add(1)
		go func(i int, key string) {
			defer wg.Done()
			if err := s.store.DeleteImage(key); err != nil {
				logrus.WithFields(logrus.Fields{
					"operation": operation,
					"key":       key,
				}).WithError(err).Error("Failed to delete external asset")
				failedKeys[i] = key
			}
		}(i, key)
	}
	wg.Wait()

	var failed []string
	for _, key := range failedKeys {
		if key != "" {
			failed = append(failed, key)
		}
	}
	if len(failed) == 0 {
		return
	}

	entry := &models.CleanupLog{
		Operation: operation,
		ProductID: productID,
		AssetKeys: pq.StringArray(failed),
		Reason:    "external asset deletion failed",
	}
	if err := s.db.Create(entry).Error; err != nil {
		logrus.WithField("operation", operation).WithError(err).Error("Failed to record cleanup log entry")
	}
}
