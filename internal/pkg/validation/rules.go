package validation

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// Rule names reported inside RuleError. Schema code and controllers use
// these to tell which rule a field failed.
const (
	RuleNonEmptyString    = "non_empty_string"
	RuleBoundedInteger    = "bounded_integer"
	RuleEnum              = "enum"
	RuleDatetimeNotFuture = "datetime_not_future"
	RuleSchedule          = "schedule"
	RuleURL               = "url"
	RuleEmail             = "email"
)

// RuleError describes why a single value failed a single rule. Rules never
// panic for invalid input; every failure is reported through this type.
type RuleError struct {
	Rule   string
	Reason string
}

func (e *RuleError) Error() string {
	return e.Reason
}

func fail(rule, format string, args ...interface{}) (interface{}, error) {
	return nil, &RuleError{Rule: rule, Reason: fmt.Sprintf(format, args...)}
}

// Rule validates one value against one semantic rule. On success it returns
// the (possibly normalized) value; on failure a *RuleError. The current time
// is injected so temporal rules stay deterministic under test.
type Rule func(value interface{}, now time.Time) (interface{}, error)

// NonEmpty requires a string that is not empty after trimming whitespace.
func NonEmpty() Rule {
	return func(value interface{}, _ time.Time) (interface{}, error) {
		s, ok := value.(string)
		if !ok {
			return fail(RuleNonEmptyString, "must be a string")
		}
		if strings.TrimSpace(s) == "" {
			return fail(RuleNonEmptyString, "must be a non-empty string")
		}
		return s, nil
	}
}

// Length requires a string whose length lies within [min, max].
func Length(min, max int) Rule {
	return func(value interface{}, _ time.Time) (interface{}, error) {
		s, ok := value.(string)
		if !ok {
			return fail(RuleNonEmptyString, "must be a string")
		}
		if len(s) < min || len(s) > max {
			return fail(RuleNonEmptyString, "must be between %d and %d characters", min, max)
		}
		return s, nil
	}
}

// Unbounded marks the upper limit of IntRange as open.
const Unbounded = int64(math.MaxInt64)

// IntRange requires an integer within [min, max]. JSON numbers arrive as
// float64, so whole-valued floats are accepted and normalized to int64;
// anything fractional or non-numeric is rejected. Both bounds are inclusive
// and max may be Unbounded.
func IntRange(min, max int64) Rule {
	return func(value interface{}, _ time.Time) (interface{}, error) {
		n, ok := toInt64(value)
		if !ok {
			return fail(RuleBoundedInteger, "must be an integer")
		}
		if n < min {
			return fail(RuleBoundedInteger, "must be >= %d", min)
		}
		if max != Unbounded && n > max {
			return fail(RuleBoundedInteger, "must be <= %d", max)
		}
		return n, nil
	}
}

// IntMin is IntRange with an open upper bound.
func IntMin(min int64) Rule {
	return IntRange(min, Unbounded)
}

func toInt64(value interface{}) (int64, bool) {
	switch v := value.(type) {
	case int:
		return int64(v), true
	case int32:
		return int64(v), true
	case int64:
		return v, true
	case float64:
		if v != math.Trunc(v) {
			return 0, false
		}
		return int64(v), true
	default:
		return 0, false
	}
}

// OneOf requires a string member of the allowed set. Comparison is
// case-sensitive.
func OneOf(allowed ...string) Rule {
	return oneOf(allowed, false)
}

// OneOfFold is OneOf with the value lowercased and trimmed before
// comparison. Attendance status uses this variant.
func OneOfFold(allowed ...string) Rule {
	return oneOf(allowed, true)
}

func oneOf(allowed []string, fold bool) Rule {
	return func(value interface{}, _ time.Time) (interface{}, error) {
		s, ok := value.(string)
		if !ok {
			return fail(RuleEnum, "must be a string")
		}
		if fold {
			s = strings.ToLower(strings.TrimSpace(s))
		}
		for _, a := range allowed {
			if s == a {
				return s, nil
			}
		}
		return fail(RuleEnum, "must be one of: %s", strings.Join(allowed, ", "))
	}
}

// NotFuture requires a time.Time that is not strictly later than now. The
// boundary is inclusive: a value equal to now passes.
func NotFuture() Rule {
	return func(value interface{}, now time.Time) (interface{}, error) {
		t, ok := value.(time.Time)
		if !ok {
			return fail(RuleDatetimeNotFuture, "must be a valid datetime")
		}
		if t.After(now) {
			return fail(RuleDatetimeNotFuture, "cannot be in the future")
		}
		return t, nil
	}
}

// ScheduleList requires a list of entries where every entry is an object
// containing the keys "day", "start" and "end".
func ScheduleList() Rule {
	return func(value interface{}, _ time.Time) (interface{}, error) {
		entries, ok := toEntryList(value)
		if !ok {
			return fail(RuleSchedule, "must be a list of entries")
		}
		for _, entry := range entries {
			for _, key := range []string{"day", "start", "end"} {
				if _, present := entry[key]; !present {
					return fail(RuleSchedule, "each entry must contain 'day', 'start' and 'end'")
				}
			}
		}
		return entries, nil
	}
}

func toEntryList(value interface{}) ([]map[string]interface{}, bool) {
	switch v := value.(type) {
	case []map[string]interface{}:
		return v, true
	case []interface{}:
		entries := make([]map[string]interface{}, 0, len(v))
		for _, raw := range v {
			entry, ok := raw.(map[string]interface{})
			if !ok {
				return nil, false
			}
			entries = append(entries, entry)
		}
		return entries, true
	default:
		return nil, false
	}
}

// EmailShaped requires a string containing an @ sign. The storage-level
// uniqueness constraint, not this rule, is what keeps addresses meaningful.
func EmailShaped() Rule {
	return func(value interface{}, _ time.Time) (interface{}, error) {
		s, ok := value.(string)
		if !ok {
			return fail(RuleEmail, "must be a string")
		}
		if !strings.Contains(s, "@") {
			return fail(RuleEmail, "must be a valid email address")
		}
		return s, nil
	}
}

// URLLike requires a string beginning with http:// or https://.
func URLLike() Rule {
	return func(value interface{}, _ time.Time) (interface{}, error) {
		s, ok := value.(string)
		if !ok {
			return fail(RuleURL, "must be a string")
		}
		if !strings.HasPrefix(s, "http://") && !strings.HasPrefix(s, "https://") {
			return fail(RuleURL, "must be a valid URL")
		}
		return s, nil
	}
}
