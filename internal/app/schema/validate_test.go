package schema

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cagri/classroom/internal/app/models"
	"github.com/cagri/classroom/internal/pkg/apperrors"
)

var testNow = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

// fakeChecker satisfies both checker interfaces with canned answers.
type fakeChecker struct {
	taken    map[string]bool // "<kind>.<field>.<value>" -> taken
	existing map[models.Kind]map[int64]bool
	err      error
}

func (c *fakeChecker) IsTaken(_ context.Context, kind models.Kind, field string, value interface{}, _ int64) (bool, error) {
	if c.err != nil {
		return false, c.err
	}
	s, _ := value.(string)
	return c.taken[string(kind)+"."+field+"."+s], nil
}

func (c *fakeChecker) Exists(_ context.Context, kind models.Kind, id int64) (bool, error) {
	if c.err != nil {
		return false, c.err
	}
	return c.existing[kind][id], nil
}

func newTestValidator(checker *fakeChecker) *Validator {
	return NewValidator(func() time.Time { return testNow }, checker, checker)
}

func validStudentFields() models.Fields {
	return models.Fields{
		"username":        "jsmith22",
		"first_name":      "Jane",
		"last_name":       "Smith",
		"email":           "jane@example.com",
		"password":        "hunter2hunter2",
		"profile_picture": "https://example.com/jane.png",
	}
}

func requireValidationError(t *testing.T, err error) *apperrors.ValidationError {
	t.Helper()
	require.Error(t, err)
	var ve *apperrors.ValidationError
	require.True(t, errors.As(err, &ve), "expected *apperrors.ValidationError, got %T", err)
	return ve
}

func fieldsOf(ve *apperrors.ValidationError) []string {
	names := make([]string, 0, len(ve.Errors))
	for _, fe := range ve.Errors {
		names = append(names, fe.Field)
	}
	return names
}

func TestValidateAcceptsCompleteStudent(t *testing.T) {
	v := newTestValidator(&fakeChecker{})

	normalized, err := v.Validate(context.Background(), models.KindStudent, validStudentFields())
	require.NoError(t, err)
	assert.Equal(t, "jsmith22", normalized["username"])
	assert.Equal(t, "hunter2hunter2", normalized["password"], "hashing happens later, not here")
}

func TestValidateUnknownKind(t *testing.T) {
	v := newTestValidator(&fakeChecker{})

	_, err := v.Validate(context.Background(), models.Kind("classrooms"), models.Fields{})
	assert.ErrorIs(t, err, apperrors.ErrUnknownKind)
}

func TestValidateAggregatesEveryFailure(t *testing.T) {
	v := newTestValidator(&fakeChecker{})

	fields := validStudentFields()
	fields["username"] = "abc"              // too short
	fields["email"] = "not-an-email"        // no @
	fields["profile_picture"] = "ftp://x/y" // wrong scheme
	delete(fields, "password")              // missing required

	_, err := v.Validate(context.Background(), models.KindStudent, fields)
	ve := requireValidationError(t, err)
	assert.Len(t, ve.Errors, 4, "all failures are reported together")
	assert.Equal(t, []string{"username", "email", "password", "profile_picture"}, fieldsOf(ve),
		"errors come back in declaration order")
}

func TestValidateReportsMissingRequiredFields(t *testing.T) {
	v := newTestValidator(&fakeChecker{})

	_, err := v.Validate(context.Background(), models.KindStudent, models.Fields{})
	ve := requireValidationError(t, err)
	assert.Len(t, ve.Errors, 6, "every required field is named")
	for _, fe := range ve.Errors {
		assert.Equal(t, apperrors.RuleMissingRequired, fe.Rule)
	}
}

func TestValidateRejectsUnknownFields(t *testing.T) {
	v := newTestValidator(&fakeChecker{})

	fields := validStudentFields()
	fields["nickname"] = "jay"

	_, err := v.Validate(context.Background(), models.KindStudent, fields)
	ve := requireValidationError(t, err)
	require.Len(t, ve.Errors, 1)
	assert.Equal(t, "nickname", ve.Errors[0].Field)
	assert.Equal(t, apperrors.RuleUnknownField, ve.Errors[0].Rule)
}

func TestValidateUniquenessRejection(t *testing.T) {
	checker := &fakeChecker{taken: map[string]bool{
		"student.email.jane@example.com": true,
	}}
	v := newTestValidator(checker)

	_, err := v.Validate(context.Background(), models.KindStudent, validStudentFields())
	ve := requireValidationError(t, err)
	require.Len(t, ve.Errors, 1)
	assert.Equal(t, "email", ve.Errors[0].Field)
	assert.Equal(t, apperrors.RuleUniqueness, ve.Errors[0].Rule)
}

func TestValidateCheckerFaultIsStorageFault(t *testing.T) {
	checker := &fakeChecker{err: errors.New("connection refused")}
	v := newTestValidator(checker)

	_, err := v.Validate(context.Background(), models.KindStudent, validStudentFields())
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrStorageFault, "a checker fault is not a rejection")
	var ve *apperrors.ValidationError
	assert.False(t, errors.As(err, &ve))
}

func TestValidateForeignKeyChecks(t *testing.T) {
	checker := &fakeChecker{existing: map[models.Kind]map[int64]bool{
		models.KindStudent: {1: true},
		models.KindCourse:  {7: true},
	}}
	v := newTestValidator(checker)

	fields := models.Fields{
		"course_id":  float64(7), // JSON numbers arrive as float64
		"student_id": float64(1),
		"status":     "enrolled",
	}
	normalized, err := v.Validate(context.Background(), models.KindEnrollment, fields)
	require.NoError(t, err)
	assert.Equal(t, int64(7), normalized["course_id"], "ids normalize to int64")

	fields["student_id"] = float64(99)
	_, err = v.Validate(context.Background(), models.KindEnrollment, fields)
	ve := requireValidationError(t, err)
	require.Len(t, ve.Errors, 1)
	assert.Equal(t, "student_id", ve.Errors[0].Field)
	assert.Equal(t, apperrors.RuleForeignKey, ve.Errors[0].Rule)
}

func TestValidateNormalizesAttendanceStatus(t *testing.T) {
	checker := &fakeChecker{existing: map[models.Kind]map[int64]bool{
		models.KindStudent:    {1: true},
		models.KindLecture:    {2: true},
		models.KindInstructor: {3: true},
	}}
	v := newTestValidator(checker)

	fields := models.Fields{
		"student_id":        float64(1),
		"lecture_id":        float64(2),
		"instructor_id":     float64(3),
		"attendance_status": "  PRESENT ",
		"date":              "2024-06-01T10:00:00Z",
	}
	normalized, err := v.Validate(context.Background(), models.KindAttendance, fields)
	require.NoError(t, err)
	assert.Equal(t, models.AttendancePresent, normalized["attendance_status"])
	assert.IsType(t, time.Time{}, normalized["date"], "timestamps coerce from strings")
}

func TestValidateTemporalCoercionAndBoundary(t *testing.T) {
	checker := &fakeChecker{existing: map[models.Kind]map[int64]bool{
		models.KindCourse: {1: true},
	}}
	v := newTestValidator(checker)

	base := models.Fields{
		"title":        "Problem set 3",
		"description":  "Chapters 5 through 7.",
		"course_id":    float64(1),
		"total_points": float64(100),
	}

	// Equal to the injected clock: the boundary is inclusive.
	fields := base.Clone()
	fields["due_date"] = testNow.Format(time.RFC3339)
	_, err := v.Validate(context.Background(), models.KindAssignment, fields)
	assert.NoError(t, err)

	fields = base.Clone()
	fields["due_date"] = testNow.Add(time.Hour).Format(time.RFC3339)
	ve := requireValidationError(t, err2(v, models.KindAssignment, fields))
	require.Len(t, ve.Errors, 1)
	assert.Equal(t, "due_date", ve.Errors[0].Field)

	fields = base.Clone()
	fields["due_date"] = "yesterday"
	ve = requireValidationError(t, err2(v, models.KindAssignment, fields))
	require.Len(t, ve.Errors, 1)
	assert.Equal(t, "due_date", ve.Errors[0].Field, "unparseable datetimes are field errors")
}

func err2(v *Validator, kind models.Kind, fields models.Fields) error {
	_, err := v.Validate(context.Background(), kind, fields)
	return err
}

func TestValidateDefaultsTimestampsOnCreate(t *testing.T) {
	checker := &fakeChecker{existing: map[models.Kind]map[int64]bool{
		models.KindInstructor: {1: true},
	}}
	v := newTestValidator(checker)

	fields := models.Fields{
		"lecture_info":  "Week 4: recursion",
		"instructor_id": float64(1),
		"schedule": []interface{}{
			map[string]interface{}{"day": "Tuesday", "start": "09:00", "end": "10:30"},
		},
	}
	normalized, err := v.Validate(context.Background(), models.KindLecture, fields)
	require.NoError(t, err)
	assert.Equal(t, testNow, normalized["created_at"])
	assert.Equal(t, testNow, normalized["updated_at"])
}

func TestValidatePartialSkipsAbsentFields(t *testing.T) {
	v := newTestValidator(&fakeChecker{})

	normalized, err := v.ValidatePartial(context.Background(), models.KindStudent, 1, models.Fields{
		"first_name": "Janet",
	})
	require.NoError(t, err)
	assert.Equal(t, models.Fields{"first_name": "Janet"}, normalized,
		"absent required fields are not reported on update")
}

func TestValidatePartialStillRejectsBadValues(t *testing.T) {
	v := newTestValidator(&fakeChecker{})

	_, err := v.ValidatePartial(context.Background(), models.KindStudent, 1, models.Fields{
		"username": "abc",
	})
	ve := requireValidationError(t, err)
	require.Len(t, ve.Errors, 1)
	assert.Equal(t, "username", ve.Errors[0].Field)
}

func TestValidatePartialExcludesSelfFromUniqueness(t *testing.T) {
	// The checker reports jane@example.com as taken, but the validator passes
	// the record's own id through; a real store would not count the record
	// against itself. Here we just assert the excludeID reaches the checker.
	var gotExclude int64
	checker := &excludeCapture{inner: &fakeChecker{}, got: &gotExclude}
	v := NewValidator(func() time.Time { return testNow }, checker, checker)

	_, err := v.ValidatePartial(context.Background(), models.KindStudent, 42, models.Fields{
		"email": "jane@example.com",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(42), gotExclude)
}

type excludeCapture struct {
	inner *fakeChecker
	got   *int64
}

func (c *excludeCapture) IsTaken(ctx context.Context, kind models.Kind, field string, value interface{}, excludeID int64) (bool, error) {
	*c.got = excludeID
	return c.inner.IsTaken(ctx, kind, field, value, excludeID)
}

func (c *excludeCapture) Exists(ctx context.Context, kind models.Kind, id int64) (bool, error) {
	return c.inner.Exists(ctx, kind, id)
}

func TestValidatePartialTouchesUpdatedAt(t *testing.T) {
	v := newTestValidator(&fakeChecker{})

	normalized, err := v.ValidatePartial(context.Background(), models.KindDiscussion, 5, models.Fields{
		"title": "Renamed thread",
	})
	require.NoError(t, err)
	assert.Equal(t, testNow, normalized["updated_at"])
	_, hasCreated := normalized["created_at"]
	assert.False(t, hasCreated, "created_at is never touched on update")
}

func TestValidateIsIdempotent(t *testing.T) {
	v := newTestValidator(&fakeChecker{})
	fields := validStudentFields()

	first, err := v.Validate(context.Background(), models.KindStudent, fields)
	require.NoError(t, err)
	second, err := v.Validate(context.Background(), models.KindStudent, first)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestValidateDoesNotMutateInput(t *testing.T) {
	v := newTestValidator(&fakeChecker{})

	fields := validStudentFields()
	fields["attendance_status"] = "PRESENT" // unknown for students
	_, _ = v.Validate(context.Background(), models.KindStudent, fields)
	assert.Equal(t, "PRESENT", fields["attendance_status"], "caller's bundle is untouched")
}

func TestEveryKindHasADefinition(t *testing.T) {
	for _, kind := range models.Kinds {
		def, ok := Lookup(kind)
		require.True(t, ok, "kind %s", kind)
		assert.Equal(t, kind, def.Kind)
		assert.NotEmpty(t, def.Table)
		assert.NotEmpty(t, def.Fields)
	}
	assert.Len(t, Definitions(), len(models.Kinds))
}
