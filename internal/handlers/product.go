// internal/handlers/product.go
package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/shoplane/ecommerce-backend/internal/config"
	"github.com/shoplane/ecommerce-backend/internal/services"
	"github.com/shoplane/ecommerce-backend/internal/utils"
)

type ProductHandler struct {
	products *services.ProductService
	cfg      *config.Config
}

func NewProductHandler(products *services.ProductService, cfg *config.Config) *ProductHandler {
	return &ProductHandler{products: products, cfg: cfg}
}

// CreateProduct accepts a multipart form carrying the product fields,
// a JSON-encoded variants array, and the image files.
func (h *ProductHandler) CreateProduct(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		utils.BadRequestResponse(c, "Invalid multipart form", err.Error())
		return
	}

	basePrice, err := strconv.ParseFloat(c.PostForm("base_price"), 64)
	if err != nil {
		utils.UnprocessableEntityResponse(c, "base_price must be a number", nil)
		return
	}
	categoryID, err := strconv.ParseUint(c.PostForm("category_id"), 10, 32)
	if err != nil {
		utils.UnprocessableEntityResponse(c, "category_id must be a positive integer", nil)
		return
	}
	// A missing or malformed discount falls back to zero.
	discount, err := strconv.ParseFloat(c.PostForm("discount_percent"), 64)
	if err != nil {
		discount = 0
	}
	mainImageIndex, err := strconv.Atoi(c.DefaultPostForm("main_image_index", "0"))
	if err != nil {
		utils.UnprocessableEntityResponse(c, "main_image_index must be an integer", nil)
		return
	}

	var variants []services.VariantSpec
	if raw := c.PostForm("variants"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &variants); err != nil {
			utils.UnprocessableEntityResponse(c, "variants must be a JSON array", err.Error())
			return
		}
	}
	if len(variants) == 0 {
		// A product with no explicit variants still gets one
		// options-less variant carrying its stock.
		variants = []services.VariantSpec{{}}
	}

	files := form.File["images"]
	if len(files) > h.cfg.Upload.MaxImages {
		utils.UnprocessableEntityResponse(c,
			fmt.Sprintf("at most %d images allowed", h.cfg.Upload.MaxImages), nil)
		return
	}

	images := make([]services.ImagePayload, 0, len(files))
	for _, file := range files {
		payload, err := h.readImageFile(file)
		if err != nil {
			utils.UnprocessableEntityResponse(c, err.Error(), nil)
			return
		}
		images = append(images, *payload)
	}

	req := &services.CreateProductRequest{
		Title:           c.PostForm("title"),
		Description:     c.PostForm("description"),
		BasePrice:       basePrice,
		DiscountPercent: discount,
		CategoryID:      uint(categoryID),
		Variants:        variants,
		Images:          images,
		MainImageIndex:  mainImageIndex,
	}

	result, err := h.products.CreateProduct(req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.CreatedResponse(c, result)
}

func (h *ProductHandler) GetProducts(c *gin.Context) {
	params := utils.GetPaginationParams(c)

	result, err := h.products.GetProducts(params)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.PaginatedResponse(c, *result)
}

func (h *ProductHandler) GetProductBySlug(c *gin.Context) {
	detail, err := h.products.GetProductBySlug(c.Param("slug"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.SuccessResponse(c, detail)
}

func (h *ProductHandler) UpdateGeneralInfo(c *gin.Context) {
	productID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var fields map[string]interface{}
	if err := c.ShouldBindJSON(&fields); err != nil {
		utils.BadRequestResponse(c, "Invalid request body", err.Error())
		return
	}

	if err := h.products.UpdateGeneralInfo(productID, fields); err != nil {
		respondServiceError(c, err)
		return
	}
	utils.SuccessResponse(c, gin.H{"message": "Product updated"})
}

func (h *ProductHandler) ReplaceMainImage(c *gin.Context) {
	productID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	file, err := c.FormFile("image")
	if err != nil {
		utils.BadRequestResponse(c, "image file is required", nil)
		return
	}
	payload, err := h.readImageFile(file)
	if err != nil {
		utils.UnprocessableEntityResponse(c, err.Error(), nil)
		return
	}

	if err := h.products.ReplaceMainImage(productID, *payload); err != nil {
		respondServiceError(c, err)
		return
	}
	utils.SuccessResponse(c, gin.H{"message": "Main image replaced"})
}

func (h *ProductHandler) UpdateQuantity(c *gin.Context) {
	variantID, ok := parseIDParam(c, "variantId")
	if !ok {
		return
	}

	var body struct {
		Quantity *int `json:"quantity"`
	}
	if err := c.ShouldBindJSON(&body); err != nil || body.Quantity == nil {
		utils.BadRequestResponse(c, "quantity is required", nil)
		return
	}

	if err := h.products.UpdateQuantity(variantID, *body.Quantity); err != nil {
		respondServiceError(c, err)
		return
	}
	utils.SuccessResponse(c, gin.H{"message": "Quantity updated"})
}

func (h *ProductHandler) DeleteProduct(c *gin.Context) {
	productID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.products.DeleteProduct(productID); err != nil {
		respondServiceError(c, err)
		return
	}
	utils.SuccessResponse(c, gin.H{"message": "Product deleted"})
}

// readImageFile enforces the upload constraints and reads the file
// into memory for the storage fan-out.
func (h *ProductHandler) readImageFile(file *multipart.FileHeader) (*services.ImagePayload, error) {
	if file.Size > h.cfg.Upload.MaxFileSize {
		return nil, fmt.Errorf("file %s exceeds the %d byte limit", file.Filename, h.cfg.Upload.MaxFileSize)
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	allowed := false
	for _, t := range h.cfg.Upload.AllowedTypes {
		if ext == t {
			allowed = true
			break
		}
	}
	if !allowed {
		return nil, fmt.Errorf("file type %s is not allowed", ext)
	}

	src, err := file.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		return nil, fmt.Errorf("failed to read uploaded file: %w", err)
	}

	if err := services.ValidateImageBytes(data); err != nil {
		return nil, fmt.Errorf("file %s is not a valid image", file.Filename)
	}

	return &services.ImagePayload{
		Data:     data,
		MimeType: http.DetectContentType(data),
	}, nil
}

func parseIDParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		utils.BadRequestResponse(c, fmt.Sprintf("invalid %s parameter", name), nil)
		return 0, false
	}
	return uint(id), true
}
