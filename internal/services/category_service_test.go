// internal/services/category_service_test.go
package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shoplane/ecommerce-backend/internal/models"
)

func TestCreateCategory(t *testing.T) {
	db := newTestDB(t)
	svc := NewCategoryService(db)

	root, err := svc.CreateCategory(&CreateCategoryRequest{Name: "Electronics"})
	require.NoError(t, err)
	assert.Equal(t, "electronics", root.Slug)

	child, err := svc.CreateCategory(&CreateCategoryRequest{Name: "Shoes", ParentID: &root.ID})
	require.NoError(t, err)
	assert.Equal(t, root.ID, *child.ParentID)

	// Duplicate names collide on the slug column.
	_, err = svc.CreateCategory(&CreateCategoryRequest{Name: "Electronics"})
	assert.ErrorIs(t, err, ErrConflict)

	missing := uint(99)
	_, err = svc.CreateCategory(&CreateCategoryRequest{Name: "Orphan", ParentID: &missing})
	assert.ErrorIs(t, err, ErrCategoryNotFound)
}

func TestDeleteCategoryGuards(t *testing.T) {
	db := newTestDB(t)
	svc := NewCategoryService(db)

	root, err := svc.CreateCategory(&CreateCategoryRequest{Name: "Electronics"})
	require.NoError(t, err)
	child, err := svc.CreateCategory(&CreateCategoryRequest{Name: "Shoes", ParentID: &root.ID})
	require.NoError(t, err)

	// A category with children cannot be removed.
	assert.ErrorIs(t, svc.DeleteCategory(root.Slug), ErrConflict)

	// A category with products cannot be removed either.
	require.NoError(t, db.Create(&models.Product{
		Title: "Runner", Slug: "runner-00001", BasePrice: 10, CategoryID: child.ID,
	}).Error)
	assert.ErrorIs(t, svc.DeleteCategory(child.Slug), ErrConflict)

	require.NoError(t, db.Delete(&models.Product{}, "category_id = ?", child.ID).Error)
	require.NoError(t, svc.DeleteCategory(child.Slug))
	require.NoError(t, svc.DeleteCategory(root.Slug))

	assert.ErrorIs(t, svc.DeleteCategory(root.Slug), ErrCategoryNotFound)
}

func TestResolveLineage(t *testing.T) {
	db := newTestDB(t)
	svc := NewCategoryService(db)

	root, err := svc.CreateCategory(&CreateCategoryRequest{Name: "Apparel"})
	require.NoError(t, err)
	mid, err := svc.CreateCategory(&CreateCategoryRequest{Name: "Footwear", ParentID: &root.ID})
	require.NoError(t, err)
	leaf, err := svc.CreateCategory(&CreateCategoryRequest{Name: "Sneakers", ParentID: &mid.ID})
	require.NoError(t, err)

	lineage, err := svc.ResolveLineage(leaf.ID)
	require.NoError(t, err)
	assert.Equal(t, "Sneakers", lineage.LeafName)
	// ParentName is the immediate parent, used for the SKU prefix.
	assert.Equal(t, "Footwear", lineage.ParentName)
	require.Len(t, lineage.Chain, 3)
	assert.Equal(t, "Sneakers", lineage.Chain[0].Name)
	assert.Equal(t, "Apparel", lineage.Chain[2].Name)

	// A root category has no parent segment.
	lineage, err = svc.ResolveLineage(root.ID)
	require.NoError(t, err)
	assert.Equal(t, "Apparel", lineage.LeafName)
	assert.Empty(t, lineage.ParentName)
	assert.Len(t, lineage.Chain, 1)

	_, err = svc.ResolveLineage(999)
	assert.ErrorIs(t, err, ErrCategoryNotFound)
}

func TestResolveLineageCycleSafety(t *testing.T) {
	db := newTestDB(t)
	svc := NewCategoryService(db)

	a, err := svc.CreateCategory(&CreateCategoryRequest{Name: "Outdoor"})
	require.NoError(t, err)
	b, err := svc.CreateCategory(&CreateCategoryRequest{Name: "Camping", ParentID: &a.ID})
	require.NoError(t, err)

	// Corrupt the tree into a cycle; the walk must still terminate.
	require.NoError(t, db.Model(&models.Category{}).Where("id = ?", a.ID).
		Update("parent_id", b.ID).Error)

	_, err = svc.ResolveLineage(b.ID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "lineage exceeds")
}
