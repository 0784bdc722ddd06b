package apperrors

import (
	"errors"
	"fmt"
	"strings"
)

// Common errors
var (
	// Resource errors
	ErrNotFound    = errors.New("resource not found")
	ErrConflict    = errors.New("conflict")
	ErrUnknownKind = errors.New("unknown record kind")

	// Validation errors
	ErrValidationFailed = errors.New("validation failed")

	// Authentication errors
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTokenExpired       = errors.New("token expired")
	ErrTokenInvalid       = errors.New("invalid token")

	// Storage errors. Anything wrapped in ErrStorageFault is non-recoverable
	// at this layer and surfaces as a generic failure.
	ErrStorageFault = errors.New("storage fault")
)

// FieldError is a named reason why one field value was rejected. Rule is one
// of the validation rule names, "missing_required" or "unknown_field".
type FieldError struct {
	Field  string `json:"field"`
	Rule   string `json:"rule"`
	Reason string `json:"reason"`
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// Rule names owned by the schema layer rather than a single field validator.
const (
	RuleMissingRequired = "missing_required"
	RuleUnknownField    = "unknown_field"
	RuleUniqueness      = "uniqueness"
	RuleForeignKey      = "foreign_key"
)

// NewMissingRequired reports a required field absent from the candidate
// bundle. Kept distinct from invalid-field errors for clearer messaging.
func NewMissingRequired(field string) FieldError {
	return FieldError{Field: field, Rule: RuleMissingRequired, Reason: "is required"}
}

// NewInvalidField reports one field failing one rule.
func NewInvalidField(field, rule, reason string) FieldError {
	return FieldError{Field: field, Rule: rule, Reason: reason}
}

// ValidationError aggregates every field error found in one validation pass.
// A rejection never reports fewer errors than actually present.
type ValidationError struct {
	Errors []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Errors))
	for _, fe := range e.Errors {
		parts = append(parts, fe.Error())
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Unwrap lets errors.Is(err, ErrValidationFailed) match.
func (e *ValidationError) Unwrap() error {
	return ErrValidationFailed
}

// NewValidationError wraps the aggregated field errors.
func NewValidationError(fieldErrors []FieldError) *ValidationError {
	return &ValidationError{Errors: fieldErrors}
}

// ConflictError reports a storage-level uniqueness or foreign-key violation
// discovered at commit time, after application-level checks passed. It is
// recoverable: the caller can retry with different data.
type ConflictError struct {
	Field   string
	Message string
}

func (e *ConflictError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "conflict"
}

func (e *ConflictError) Unwrap() error {
	return ErrConflict
}

// NewConflictError creates a conflict error for the given field (field may be
// empty when the violated constraint cannot be attributed to one).
func NewConflictError(field, message string) *ConflictError {
	return &ConflictError{Field: field, Message: message}
}

// StorageFault wraps an unexpected storage collaborator failure so it can be
// passed upward unchanged but still matched with errors.Is.
func StorageFault(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %v", ErrStorageFault, err)
}

// Is returns whether target matches err or any error in errList.
func Is(err, target error, errList ...error) bool {
	if errors.Is(err, target) {
		return true
	}
	for _, e := range errList {
		if errors.Is(err, e) {
			return true
		}
	}
	return false
}
