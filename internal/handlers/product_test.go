// internal/handlers/product_test.go
package handlers

import (
	"bytes"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/shoplane/ecommerce-backend/internal/config"
	"github.com/shoplane/ecommerce-backend/internal/models"
	"github.com/shoplane/ecommerce-backend/internal/services"
)

// pngStub is the smallest payload that passes image sniffing.
var pngStub = []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}

type stubStore struct {
	mu      sync.Mutex
	uploads int
}

func (s *stubStore) UploadImage(data []byte, mimeType string) (*services.UploadResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.uploads++
	key := fmt.Sprintf("stub-%d", s.uploads)
	return &services.UploadResult{URL: "https://cdn.example.com/" + key, Key: key}, nil
}

func (s *stubStore) DeleteImage(key string) error { return nil }

func setupTestRouter(t *testing.T) (*gin.Engine, uint) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.Category{}, &models.Product{}, &models.ProductVariant{},
		&models.VariantOption{}, &models.Inventory{}, &models.ProductImage{},
		&models.CleanupLog{},
	))

	parent := models.Category{Name: "Electronics", Slug: "electronics"}
	require.NoError(t, db.Create(&parent).Error)
	leaf := models.Category{Name: "Shoes", Slug: "shoes", ParentID: &parent.ID}
	require.NoError(t, db.Create(&leaf).Error)

	cfg := &config.Config{
		Upload: config.UploadConfig{
			MaxFileSize:  1 << 20,
			MaxImages:    5,
			AllowedTypes: []string{".png", ".jpg"},
		},
	}

	categoryService := services.NewCategoryService(db)
	productService := services.NewProductService(db, categoryService, &stubStore{})
	handler := NewProductHandler(productService, cfg)

	r := gin.New()
	r.POST("/products", handler.CreateProduct)
	r.GET("/products/:slug", handler.GetProductBySlug)

	return r, leaf.ID
}

func buildCreateForm(t *testing.T, categoryID uint, fileNames []string) (*bytes.Buffer, string) {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	require.NoError(t, writer.WriteField("title", "Running Shoes"))
	require.NoError(t, writer.WriteField("base_price", "99.99"))
	require.NoError(t, writer.WriteField("category_id", fmt.Sprintf("%d", categoryID)))
	require.NoError(t, writer.WriteField("variants", `[{"color":"Red","size":"42","quantity":5}]`))
	for _, name := range fileNames {
		part, err := writer.CreateFormFile("images", name)
		require.NoError(t, err)
		_, err = part.Write(pngStub)
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())

	return body, writer.FormDataContentType()
}

func TestCreateProductEndpoint(t *testing.T) {
	r, categoryID := setupTestRouter(t)

	body, contentType := buildCreateForm(t, categoryID, []string{"a.png", "b.png"})
	req := httptest.NewRequest(http.MethodPost, "/products", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), "ELE-SHO-001-RED-42")
}

func TestCreateProductEndpointRejectsBadExtension(t *testing.T) {
	r, categoryID := setupTestRouter(t)

	body, contentType := buildCreateForm(t, categoryID, []string{"script.exe"})
	req := httptest.NewRequest(http.MethodPost, "/products", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestCreateProductEndpointUnknownCategory(t *testing.T) {
	r, _ := setupTestRouter(t)

	body, contentType := buildCreateForm(t, 999, []string{"a.png"})
	req := httptest.NewRequest(http.MethodPost, "/products", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetProductBySlugEndpoint(t *testing.T) {
	r, categoryID := setupTestRouter(t)

	body, contentType := buildCreateForm(t, categoryID, []string{"a.png"})
	req := httptest.NewRequest(http.MethodPost, "/products", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/products/missing", nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
