// internal/handlers/user.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/shoplane/ecommerce-backend/internal/services"
	"github.com/shoplane/ecommerce-backend/internal/utils"
)

type UserHandler struct {
	users *services.UserService
}

func NewUserHandler(users *services.UserService) *UserHandler {
	return &UserHandler{users: users}
}

func (h *UserHandler) ListUsers(c *gin.Context) {
	params := utils.GetPaginationParams(c)

	result, err := h.users.ListUsers(params)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.PaginatedResponse(c, *result)
}

func (h *UserHandler) GetUser(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	user, err := h.users.GetUser(id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.SuccessResponse(c, user)
}

func (h *UserHandler) DeleteUser(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if callerID, exists := utils.GetUserIDFromContext(c); exists && callerID == id {
		utils.BadRequestResponse(c, "Cannot delete your own account", nil)
		return
	}

	if err := h.users.DeleteUser(id); err != nil {
		respondServiceError(c, err)
		return
	}
	utils.SuccessResponse(c, gin.H{"message": "User deleted"})
}

func (h *UserHandler) SetBanned(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var body struct {
		Banned *bool `json:"banned"`
	}
	if err := c.ShouldBindJSON(&body); err != nil || body.Banned == nil {
		utils.BadRequestResponse(c, "banned is required", nil)
		return
	}

	if callerID, exists := utils.GetUserIDFromContext(c); exists && callerID == id {
		utils.BadRequestResponse(c, "Cannot ban your own account", nil)
		return
	}

	if err := h.users.SetBanned(id, *body.Banned); err != nil {
		respondServiceError(c, err)
		return
	}
	utils.SuccessResponse(c, gin.H{"message": "User updated"})
}

func (h *UserHandler) UpdatePassword(c *gin.Context) {
	userID, ok := utils.GetUserIDFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "Authentication required")
		return
	}

	var body struct {
		CurrentPassword string `json:"current_password" binding:"required"`
		NewPassword     string `json:"new_password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.BadRequestResponse(c, "current_password and new_password are required", nil)
		return
	}

	if err := h.users.UpdatePassword(userID, body.CurrentPassword, body.NewPassword); err != nil {
		respondServiceError(c, err)
		return
	}
	utils.SuccessResponse(c, gin.H{"message": "Password updated"})
}
