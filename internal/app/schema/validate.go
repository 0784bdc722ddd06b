package schema

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cagri/classroom/internal/app/models"
	"github.com/cagri/classroom/internal/pkg/apperrors"
	"github.com/cagri/classroom/internal/pkg/helpers"
	"github.com/cagri/classroom/internal/pkg/validation"
)

// Validator runs the declared rules of a record kind over a candidate field
// bundle. It is stateless between calls; the clock and the storage-facing
// checkers are the only injected collaborators.
type Validator struct {
	clock      func() time.Time
	uniqueness UniquenessChecker
	existence  ExistenceChecker
}

// NewValidator creates a schema validator. The clock is injected for
// testability; production wiring passes time.Now.
func NewValidator(clock func() time.Time, uniqueness UniquenessChecker, existence ExistenceChecker) *Validator {
	return &Validator{
		clock:      clock,
		uniqueness: uniqueness,
		existence:  existence,
	}
}

// Validate runs full schema validation: every required field must be
// present and every present field must pass its rules. All failures are
// aggregated into a single *apperrors.ValidationError; the operation never
// stops at the first bad field, so callers can fix every problem in one
// round-trip. A checker fault aborts validation and surfaces as a storage
// fault instead of a rejection.
func (v *Validator) Validate(ctx context.Context, kind models.Kind, fields models.Fields) (models.Fields, error) {
	return v.run(ctx, kind, 0, fields, false)
}

// ValidatePartial validates only the fields present in the bundle; absent
// required fields are not reported. Used on update, where untouched fields
// keep their stored values. id is the record under update, excluded from
// uniqueness collisions.
func (v *Validator) ValidatePartial(ctx context.Context, kind models.Kind, id int64, fields models.Fields) (models.Fields, error) {
	return v.run(ctx, kind, id, fields, true)
}

func (v *Validator) run(ctx context.Context, kind models.Kind, id int64, fields models.Fields, partial bool) (models.Fields, error) {
	def, ok := Lookup(kind)
	if !ok {
		return nil, fmt.Errorf("%w: %q", apperrors.ErrUnknownKind, kind)
	}

	now := v.clock()
	candidate := fields.Clone()
	normalized := make(models.Fields, len(def.Fields))
	var fieldErrors []apperrors.FieldError

	for i := range def.Fields {
		field := &def.Fields[i]
		raw, present := candidate[field.Name]
		delete(candidate, field.Name)

		if !present {
			switch {
			case !partial && field.DefaultNow:
				normalized[field.Name] = now
			case partial && field.TouchOnUpdate:
				normalized[field.Name] = now
			case !partial && field.Required:
				fieldErrors = append(fieldErrors, apperrors.NewMissingRequired(field.Name))
			}
			continue
		}

		value, fe, err := v.checkField(ctx, def.Kind, id, field, raw, now)
		if err != nil {
			return nil, apperrors.StorageFault(err)
		}
		if fe != nil {
			fieldErrors = append(fieldErrors, *fe)
			continue
		}
		normalized[field.Name] = value
	}

	// Anything left in the candidate bundle names a field the kind does
	// not declare.
	for name := range candidate {
		fieldErrors = append(fieldErrors, apperrors.NewInvalidField(name, apperrors.RuleUnknownField, "is not a known field"))
	}

	if len(fieldErrors) > 0 {
		sortFieldErrors(def, fieldErrors)
		return nil, apperrors.NewValidationError(fieldErrors)
	}
	return normalized, nil
}

// checkField applies the boundary coercion, the declared rules and the
// cross-record checks for one field. The returned error reports a checker
// fault at the storage boundary, never an invalid value.
func (v *Validator) checkField(ctx context.Context, kind models.Kind, excludeID int64, field *Field, raw interface{}, now time.Time) (interface{}, *apperrors.FieldError, error) {
	value := raw

	if field.Temporal {
		coerced, err := coerceTimestamp(raw)
		if err != nil {
			fe := apperrors.NewInvalidField(field.Name, validation.RuleDatetimeNotFuture, err.Error())
			return nil, &fe, nil
		}
		value = coerced
	}

	if field.Ref != "" {
		id, err := validation.IntMin(1)(value, now)
		if err != nil {
			fe := fieldError(field.Name, err)
			return nil, &fe, nil
		}
		exists, err := v.existence.Exists(ctx, field.Ref, id.(int64))
		if err != nil {
			return nil, nil, err
		}
		if !exists {
			fe := apperrors.NewInvalidField(field.Name, apperrors.RuleForeignKey,
				fmt.Sprintf("must reference an existing %s", field.Ref))
			return nil, &fe, nil
		}
		return id, nil, nil
	}

	for _, rule := range field.Rules {
		out, err := rule(value, now)
		if err != nil {
			fe := fieldError(field.Name, err)
			return nil, &fe, nil
		}
		value = out
	}

	if field.Unique {
		taken, err := v.uniqueness.IsTaken(ctx, kind, field.Name, value, excludeID)
		if err != nil {
			return nil, nil, err
		}
		if taken {
			fe := apperrors.NewInvalidField(field.Name, apperrors.RuleUniqueness, "is already in use")
			return nil, &fe, nil
		}
	}

	return value, nil, nil
}

func coerceTimestamp(raw interface{}) (time.Time, error) {
	switch t := raw.(type) {
	case time.Time:
		return t, nil
	case string:
		return helpers.ParseTimestamp(t)
	default:
		return time.Time{}, errors.New("must be a valid datetime")
	}
}

func fieldError(name string, err error) apperrors.FieldError {
	var re *validation.RuleError
	if errors.As(err, &re) {
		return apperrors.NewInvalidField(name, re.Rule, re.Reason)
	}
	return apperrors.NewInvalidField(name, "invalid", err.Error())
}

// sortFieldErrors orders errors by schema declaration order so rejections
// are stable across calls; unknown fields sort last.
func sortFieldErrors(def *Definition, errs []apperrors.FieldError) {
	rank := make(map[string]int, len(def.Fields))
	for i := range def.Fields {
		rank[def.Fields[i].Name] = i
	}
	position := func(name string) int {
		if p, ok := rank[name]; ok {
			return p
		}
		return len(rank)
	}
	for i := 1; i < len(errs); i++ {
		for j := i; j > 0 && position(errs[j].Field) < position(errs[j-1].Field); j-- {
			errs[j], errs[j-1] = errs[j-1], errs[j]
		}
	}
}
