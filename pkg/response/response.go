// Package response writes the uniform JSON error body used by every endpoint.
package response

import (
	"errors"
	"net/http"

	"shoplist-service/internal/auth"
	"shoplist-service/internal/models"
	"shoplist-service/internal/services"

	"github.com/gin-gonic/gin"
)

// Error aborts the request with status and a models.ErrorResponse body.
func Error(c *gin.Context, status int, details string) {
	c.AbortWithStatusJSON(status, models.ErrorResponse{
		Code:    status,
		Message: StatusMessage(status),
		Details: details,
	})
}

// BadRequest reports a binding or validation failure.
func BadRequest(c *gin.Context, err error) {
	details := "Invalid input request"
	if err != nil {
		details = err.Error()
	}
	Error(c, http.StatusBadRequest, details)
}

// FromError maps a domain error to its status. Unknown errors become a 500
// without leaking their text.
func FromError(c *gin.Context, err error) {
	status := Status(err)
	details := err.Error()
	if status == http.StatusInternalServerError {
		details = "An unexpected error occurred."
	}
	Error(c, status, details)
}

// Status classifies err.
func Status(err error) int {
	switch {
	case errors.Is(err, services.ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrInvalidCredentials),
		errors.Is(err, auth.ErrMissingCredential),
		errors.Is(err, auth.ErrInvalidCredential):
		return http.StatusUnauthorized
	case errors.Is(err, services.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, services.ErrListNotFound),
		errors.Is(err, services.ErrItemNotFound),
		errors.Is(err, services.ErrRecipeNotFound),
		errors.Is(err, services.ErrUserNotFound),
		errors.Is(err, services.ErrNotCollaborator):
		return http.StatusNotFound
	case errors.Is(err, services.ErrUserAlreadyExists),
		errors.Is(err, services.ErrCollaboratorExists):
		return http.StatusConflict
	case errors.Is(err, services.ErrImagesDisabled):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
