// internal/handlers/category.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/shoplane/ecommerce-backend/internal/services"
	"github.com/shoplane/ecommerce-backend/internal/utils"
)

type CategoryHandler struct {
	categories *services.CategoryService
}

func NewCategoryHandler(categories *services.CategoryService) *CategoryHandler {
	return &CategoryHandler{categories: categories}
}

func (h *CategoryHandler) CreateCategory(c *gin.Context) {
	var req services.CreateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body", err.Error())
		return
	}

	category, err := h.categories.CreateCategory(&req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.CreatedResponse(c, category)
}

func (h *CategoryHandler) GetCategories(c *gin.Context) {
	categories, err := h.categories.GetCategories()
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.SuccessResponse(c, categories)
}

func (h *CategoryHandler) GetCategoryBySlug(c *gin.Context) {
	category, err := h.categories.GetCategoryBySlug(c.Param("slug"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.SuccessResponse(c, category)
}

func (h *CategoryHandler) UpdateCategory(c *gin.Context) {
	var req services.UpdateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body", err.Error())
		return
	}

	category, err := h.categories.UpdateCategory(c.Param("slug"), &req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.SuccessResponse(c, category)
}

func (h *CategoryHandler) DeleteCategory(c *gin.Context) {
	if err := h.categories.DeleteCategory(c.Param("slug")); err != nil {
		respondServiceError(c, err)
		return
	}
	utils.SuccessResponse(c, gin.H{"message": "Category deleted"})
}
