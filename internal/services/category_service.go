// internal/services/category_service.go
package services

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/shoplane/ecommerce-backend/internal/models"
	"github.com/shoplane/ecommerce-backend/internal/utils"
)

// maxLineageDepth bounds the parent-pointer walk so a cyclic or
// corrupted tree cannot loop forever.
const maxLineageDepth = 32

type CategoryService struct {
	db *gorm.DB
}

type CreateCategoryRequest struct {
	Name     string `json:"name" validate:"required,min=2,max=100"`
	ParentID *uint  `json:"parent_id"`
}

type UpdateCategoryRequest struct {
	Name     string `json:"name" validate:"required,min=2,max=100"`
	ParentID *uint  `json:"parent_id"`
}

// CategoryLineage describes a leaf category's ancestry. ParentName is
// only the immediate parent (the "main category" used for SKU
// prefixing); Chain is the full leaf-to-root path used for display
// breadcrumbs.
type CategoryLineage struct {
	LeafName   string
	ParentName string
	Chain      []models.Category
}

func NewCategoryService(db *gorm.DB) *CategoryService {
	return &CategoryService{db: db}
}

func (s *CategoryService) CreateCategory(req *CreateCategoryRequest) (*models.Category, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	if req.ParentID != nil {
		var parent models.Category
		if err := s.db.First(&parent, *req.ParentID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("%w: parent category %d", ErrCategoryNotFound, *req.ParentID)
			}
			return nil, fmt.Errorf("failed to verify parent category: %w", err)
		}
	}

	category := &models.Category{
		Name:     req.Name,
		Slug:     utils.Slugify(req.Name),
		ParentID: req.ParentID,
	}

	if err := s.db.Create(category).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("%w: category slug %q already exists", ErrConflict, category.Slug)
		}
		return nil, fmt.Errorf("failed to create category: %w", err)
	}

	return category, nil
}

func (s *CategoryService) GetCategories() ([]models.Category, error) {
	var categories []models.Category
	if err := s.db.Order("parent_id NULLS FIRST, name").Find(&categories).Error; err != nil {
		return nil, fmt.Errorf("failed to get categories: %w", err)
	}
	return categories, nil
}

func (s *CategoryService) GetCategory(id uint) (*models.Category, error) {
	var category models.Category
	if err := s.db.First(&category, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCategoryNotFound
		}
		return nil, fmt.Errorf("failed to get category: %w", err)
	}
	return &category, nil
}

func (s *CategoryService) GetCategoryBySlug(slug string) (*models.Category, error) {
	var category models.Category
	if err := s.db.Where("slug = ?", slug).First(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCategoryNotFound
		}
		return nil, fmt.Errorf("failed to get category: %w", err)
	}
	return &category, nil
}

func (s *CategoryService) UpdateCategory(slug string, req *UpdateCategoryRequest) (*models.Category, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	var category models.Category
	if err := s.db.Where("slug = ?", slug).First(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCategoryNotFound
		}
		return nil, fmt.Errorf("failed to get category: %w", err)
	}

	category.Name = req.Name
	category.Slug = utils.Slugify(req.Name)
	if req.ParentID != nil {
		if *req.ParentID == category.ID {
			return nil, fmt.Errorf("%w: category cannot be its own parent", ErrValidation)
		}
		category.ParentID = req.ParentID
	}

	if err := s.db.Save(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("%w: category slug %q already exists", ErrConflict, category.Slug)
		}
		return nil, fmt.Errorf("failed to update category: %w", err)
	}

	return &category, nil
}

func (s *CategoryService) DeleteCategory(slug string) error {
	var category models.Category
	if err := s.db.Where("slug = ?", slug).First(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCategoryNotFound
		}
		return fmt.Errorf("failed to get category: %w", err)
	}

	// Refuse to orphan children or products.
	var childCount int64
	if err := s.db.Model(&models.Category{}).Where("parent_id = ?", category.ID).Count(&childCount).Error; err != nil {
		return fmt.Errorf("failed to check subcategories: %w", err)
	}
	if childCount > 0 {
		return fmt.Errorf("%w: category has %d subcategories", ErrConflict, childCount)
	}

	var productCount int64
	if err := s.db.Model(&models.Product{}).Where("category_id = ?", category.ID).Count(&productCount).Error; err != nil {
		return fmt.Errorf("failed to check category products: %w", err)
	}
	if productCount > 0 {
		return fmt.Errorf("%w: category still has %d products", ErrConflict, productCount)
	}

	if err := s.db.Delete(&category).Error; err != nil {
		return fmt.Errorf("failed to delete category: %w", err)
	}

	return nil
}

// ResolveLineage walks parent pointers from the leaf category upward.
// An iterative walk keeps the logic portable across storage engines;
// no recursive SQL is involved.
func (s *CategoryService) ResolveLineage(categoryID uint) (*CategoryLineage, error) {
	var leaf models.Category
	if err := s.db.First(&leaf, categoryID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: id %d", ErrCategoryNotFound, categoryID)
		}
		return nil, fmt.Errorf("failed to get category: %w", err)
	}

	lineage := &CategoryLineage{
		LeafName: leaf.Name,
		Chain:    []models.Category{leaf},
	}

	current := leaf
	for depth := 0; current.ParentID != nil; depth++ {
		if depth >= maxLineageDepth {
			return nil, fmt.Errorf("category lineage exceeds %d levels starting at id %d", maxLineageDepth, categoryID)
		}

		var parent models.Category
		if err := s.db.First(&parent, *current.ParentID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				// Dangling parent pointer: treat the walk as complete.
				break
			}
			return nil, fmt.Errorf("failed to get parent category: %w", err)
		}

		if lineage.ParentName == "" {
			lineage.ParentName = parent.Name
		}
		lineage.Chain = append(lineage.Chain, parent)
		current = parent
	}

	return lineage, nil
}
