package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/cagri/classroom/internal/app/models/dto"
)

var validate = validator.New()

// ValidateBody binds the JSON request body into obj and runs its validate
// tags. On failure the request is aborted with a 400 enumerating every
// failed field; on success the bound value is stored under "validatedBody".
func ValidateBody(obj func() interface{}) gin.HandlerFunc {
	return func(c *gin.Context) {
		body := obj()
		if err := c.ShouldBindJSON(body); err != nil {
			errorDetail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Invalid request format").
				WithDetails(err.Error())
			c.AbortWithStatusJSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
			return
		}

		if err := validate.Struct(body); err != nil {
			errorDetail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Validation failed").
				WithDetails(formatValidationErrors(err))
			c.AbortWithStatusJSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
			return
		}

		c.Set("validatedBody", body)
		c.Next()
	}
}

// formatValidationErrors creates human-readable messages per failed field.
func formatValidationErrors(err error) []string {
	ve, ok := err.(validator.ValidationErrors)
	if !ok {
		return []string{err.Error()}
	}
	messages := make([]string, 0, len(ve))
	for _, fe := range ve {
		messages = append(messages, formatValidationError(fe))
	}
	return messages
}

func formatValidationError(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return e.Field() + " is required"
	case "min":
		return e.Field() + " must be at least " + e.Param()
	case "max":
		return e.Field() + " must be at most " + e.Param()
	case "email":
		return e.Field() + " must be a valid email address"
	case "oneof":
		return e.Field() + " must be one of: " + e.Param()
	default:
		return e.Field() + " validation failed: " + e.Tag()
	}
}
