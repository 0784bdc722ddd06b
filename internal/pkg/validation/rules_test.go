package validation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

func ruleError(t *testing.T, err error) *RuleError {
	t.Helper()
	require.Error(t, err)
	re, ok := err.(*RuleError)
	require.True(t, ok, "expected *RuleError, got %T", err)
	return re
}

func TestNonEmpty(t *testing.T) {
	rule := NonEmpty()

	v, err := rule("hello", now)
	require.NoError(t, err)
	assert.Equal(t, "hello", v)

	_, err = rule("", now)
	assert.Equal(t, RuleNonEmptyString, ruleError(t, err).Rule)

	_, err = rule("   ", now)
	assert.Error(t, err, "whitespace-only strings are empty")

	_, err = rule(42, now)
	assert.Error(t, err)
}

func TestLength(t *testing.T) {
	rule := Length(5, 20)

	_, err := rule("abcd", now)
	assert.Error(t, err, "4 characters is below the minimum")

	v, err := rule("abcde", now)
	require.NoError(t, err)
	assert.Equal(t, "abcde", v)

	twenty := "abcdefghijklmnopqrst"
	_, err = rule(twenty, now)
	assert.NoError(t, err, "20 characters is exactly the maximum")

	_, err = rule(twenty+"u", now)
	assert.Error(t, err)
}

func TestIntRangeBoundaries(t *testing.T) {
	grade := IntRange(1, 100)

	cases := []struct {
		value int64
		ok    bool
	}{
		{0, false},
		{1, true},
		{50, true},
		{100, true},
		{101, false},
	}
	for _, tc := range cases {
		_, err := grade(tc.value, now)
		if tc.ok {
			assert.NoError(t, err, "value %d", tc.value)
		} else {
			assert.Error(t, err, "value %d", tc.value)
		}
	}
}

func TestIntRangeCoercesJSONNumbers(t *testing.T) {
	rule := IntRange(1, 100)

	v, err := rule(float64(42), now)
	require.NoError(t, err)
	assert.Equal(t, int64(42), v, "whole floats normalize to int64")

	_, err = rule(42.5, now)
	assert.Error(t, err, "fractional values are not integers")

	_, err = rule("42", now)
	assert.Error(t, err, "numeric strings are not integers")
}

func TestIntMin(t *testing.T) {
	points := IntMin(0)

	_, err := points(int64(-1), now)
	assert.Error(t, err)

	v, err := points(int64(0), now)
	require.NoError(t, err)
	assert.Equal(t, int64(0), v, "zero points is allowed")

	_, err = points(int64(1_000_000), now)
	assert.NoError(t, err, "no upper bound")
}

func TestOneOfIsCaseSensitive(t *testing.T) {
	rule := OneOf("enrolled", "pending", "dropped")

	v, err := rule("pending", now)
	require.NoError(t, err)
	assert.Equal(t, "pending", v)

	_, err = rule("Pending", now)
	assert.Equal(t, RuleEnum, ruleError(t, err).Rule)

	_, err = rule("waitlisted", now)
	assert.Error(t, err)
}

func TestOneOfFoldNormalizes(t *testing.T) {
	rule := OneOfFold("present", "absent")

	v, err := rule("PRESENT", now)
	require.NoError(t, err)
	assert.Equal(t, "present", v, "input folds to the canonical form")

	v, err = rule("  Absent  ", now)
	require.NoError(t, err)
	assert.Equal(t, "absent", v)

	_, err = rule("late", now)
	assert.Error(t, err)
}

func TestNotFuture(t *testing.T) {
	rule := NotFuture()

	_, err := rule(now.Add(time.Second), now)
	assert.Error(t, err)

	v, err := rule(now, now)
	require.NoError(t, err)
	assert.Equal(t, now, v, "a value equal to now passes")

	_, err = rule(now.Add(-24*time.Hour), now)
	assert.NoError(t, err)

	_, err = rule("2024-06-15", now)
	assert.Error(t, err, "non-time values are rejected")
}

func TestScheduleList(t *testing.T) {
	rule := ScheduleList()

	valid := []interface{}{
		map[string]interface{}{"day": "Monday", "start": "09:00", "end": "10:30"},
		map[string]interface{}{"day": "Wednesday", "start": "09:00", "end": "10:30"},
	}
	v, err := rule(valid, now)
	require.NoError(t, err)
	assert.Len(t, v, 2)

	_, err = rule([]interface{}{
		map[string]interface{}{"day": "Monday", "start": "09:00"},
	}, now)
	assert.Equal(t, RuleSchedule, ruleError(t, err).Rule, "missing 'end' key")

	_, err = rule("Monday 09:00-10:30", now)
	assert.Error(t, err)

	_, err = rule([]interface{}{"Monday"}, now)
	assert.Error(t, err, "entries must be objects")

	v, err = rule([]interface{}{}, now)
	require.NoError(t, err)
	assert.Empty(t, v, "an empty schedule is allowed")
}

func TestEmailShaped(t *testing.T) {
	rule := EmailShaped()

	_, err := rule("user@example.com", now)
	assert.NoError(t, err)

	_, err = rule("userexample.com", now)
	assert.Equal(t, RuleEmail, ruleError(t, err).Rule)
}

func TestURLLike(t *testing.T) {
	rule := URLLike()

	for _, ok := range []string{"http://example.com/a.png", "https://example.com/a.png"} {
		_, err := rule(ok, now)
		assert.NoError(t, err, ok)
	}

	for _, bad := range []string{"ftp://example.com/a.png", "example.com/a.png", ""} {
		_, err := rule(bad, now)
		assert.Error(t, err, bad)
	}
}
