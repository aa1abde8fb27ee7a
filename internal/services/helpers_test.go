// internal/services/helpers_test.go
package services

import (
	"bytes"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/shoplane/ecommerce-backend/internal/models"
)

// newTestDB opens a per-test in-memory database with the full schema.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&models.User{},
		&models.Category{},
		&models.Product{},
		&models.ProductVariant{},
		&models.VariantOption{},
		&models.Inventory{},
		&models.ProductImage{},
		&models.CleanupLog{},
	)
	require.NoError(t, err)

	return db
}

// failMarker in an image payload makes the fake store reject its
// upload, so tests control which member of a concurrent batch fails.
var failMarker = []byte("upload-must-fail")

type fakeImageStore struct {
	mu         sync.Mutex
	uploads    int
	stored     map[string]bool
	deleted    []string
	failDelete map[string]bool
}

func newFakeImageStore() *fakeImageStore {
	return &fakeImageStore{
		stored:     make(map[string]bool),
		failDelete: make(map[string]bool),
	}
}

func (f *fakeImageStore) UploadImage(data []byte, mimeType string) (*UploadResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if bytes.Equal(data, failMarker) {
		return nil, fmt.Errorf("%w: simulated upload failure", ErrUpstream)
	}

	f.uploads++
	key := fmt.Sprintf("key-%d", f.uploads)
	f.stored[key] = true
	return &UploadResult{
		URL: "https://cdn.example.com/" + key,
		Key: key,
	}, nil
}

func (f *fakeImageStore) DeleteImage(key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.failDelete[key] {
		return fmt.Errorf("%w: simulated delete failure", ErrUpstream)
	}
	delete(f.stored, key)
	f.deleted = append(f.deleted, key)
	return nil
}

func (f *fakeImageStore) storedKeys() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	keys := make([]string, 0, len(f.stored))
	for key := range f.stored {
		keys = append(keys, key)
	}
	return keys
}

// seedCategoryTree inserts Electronics -> Shoes and returns the leaf id.
func seedCategoryTree(t *testing.T, db *gorm.DB) uint {
	t.Helper()

	parent := models.Category{Name: "Electronics", Slug: "electronics"}
	require.NoError(t, db.Create(&parent).Error)

	leaf := models.Category{Name: "Shoes", Slug: "shoes", ParentID: &parent.ID}
	require.NoError(t, db.Create(&leaf).Error)

	return leaf.ID
}
