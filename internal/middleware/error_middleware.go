package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cagri/classroom/internal/app/models/dto"
	"github.com/cagri/classroom/internal/pkg/apperrors"
)

// HandleAPIError maps service-layer errors onto HTTP responses. Rejections
// carry the complete field error list; conflicts and missing records get
// their own statuses; anything unexpected is a 500 with no internals leaked.
func HandleAPIError(c *gin.Context, err error) {
	var validationErr *apperrors.ValidationError
	var conflictErr *apperrors.ConflictError

	switch {
	case errors.As(err, &validationErr):
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Validation failed").
			WithFieldErrors(validationErr.Errors)
		c.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))

	case errors.As(err, &conflictErr):
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeResourceConflict, conflictErr.Error()).
			WithField(conflictErr.Field)
		c.JSON(http.StatusConflict, dto.NewErrorResponse(errorDetail))

	case errors.Is(err, apperrors.ErrNotFound):
		c.JSON(http.StatusNotFound, dto.NewErrorResponse(
			dto.NewErrorDetail(dto.ErrorCodeResourceNotFound, "Resource not found")))

	case errors.Is(err, apperrors.ErrUnknownKind):
		c.JSON(http.StatusNotFound, dto.NewErrorResponse(
			dto.NewErrorDetail(dto.ErrorCodeResourceNotFound, "Unknown resource")))

	case errors.Is(err, apperrors.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, dto.NewErrorResponse(
			dto.NewErrorDetail(dto.ErrorCodeInvalidCredentials, "Invalid credentials")))

	case errors.Is(err, apperrors.ErrTokenExpired):
		c.JSON(http.StatusUnauthorized, dto.NewErrorResponse(
			dto.NewErrorDetail(dto.ErrorCodeExpiredToken, "Token expired")))

	case errors.Is(err, apperrors.ErrTokenInvalid):
		c.JSON(http.StatusUnauthorized, dto.NewErrorResponse(
			dto.NewErrorDetail(dto.ErrorCodeInvalidToken, "Invalid token")))

	default:
		c.JSON(http.StatusInternalServerError, dto.NewErrorResponse(
			dto.NewErrorDetail(dto.ErrorCodeInternalServer, "Internal server error")))
	}
}
