// internal/handlers/common.go
package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/shoplane/ecommerce-backend/internal/services"
	"github.com/shoplane/ecommerce-backend/internal/utils"
)

// respondServiceError translates service sentinel errors into HTTP
// responses. Anything unrecognized is a 500 with the detail kept out
// of the response body.
func respondServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrCategoryNotFound),
		errors.Is(err, services.ErrProductNotFound),
		errors.Is(err, services.ErrVariantNotFound),
		errors.Is(err, services.ErrUserNotFound):
		utils.NotFoundResponse(c, err.Error())
	case errors.Is(err, services.ErrConflict):
		utils.ConflictResponse(c, err.Error())
	case errors.Is(err, services.ErrValidation):
		utils.UnprocessableEntityResponse(c, err.Error(), nil)
	case errors.Is(err, services.ErrInvalidCredentials):
		utils.UnauthorizedResponse(c, "Invalid credentials")
	case errors.Is(err, services.ErrUserBanned):
		utils.ForbiddenResponse(c, "Account is banned")
	case errors.Is(err, services.ErrUpstream):
		utils.UpstreamErrorResponse(c, err.Error())
	default:
		utils.InternalErrorResponse(c, "Internal server error")
	}
}
