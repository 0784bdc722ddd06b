package schema

import (
	"github.com/cagri/classroom/internal/app/models"
	"github.com/cagri/classroom/internal/pkg/validation"
)

// definitions holds the schema of every record kind. One rule, declared
// once, applies to every kind that lists it; there is no per-entity
// validator hierarchy.
var definitions = []Definition{
	{
		Kind:  models.KindStudent,
		Table: "students",
		Path:  "students",
		Fields: []Field{
			{Name: "username", Required: true, Unique: true, Rules: []validation.Rule{validation.NonEmpty(), validation.Length(5, 20)}},
			{Name: "first_name", Required: true, Rules: []validation.Rule{validation.NonEmpty()}},
			{Name: "last_name", Required: true, Rules: []validation.Rule{validation.NonEmpty()}},
			{Name: "email", Required: true, Unique: true, Rules: []validation.Rule{validation.NonEmpty(), validation.EmailShaped()}},
			{Name: "password", Required: true, Secret: true, StoreAs: "password_hash", Rules: []validation.Rule{validation.NonEmpty()}},
			{Name: "profile_picture", Required: true, Rules: []validation.Rule{validation.URLLike()}},
		},
	},
	{
		Kind:  models.KindInstructor,
		Table: "instructors",
		Path:  "instructors",
		Fields: []Field{
			{Name: "name", Required: true, Rules: []validation.Rule{validation.NonEmpty(), validation.Length(5, 20)}},
			{Name: "email", Required: true, Unique: true, Rules: []validation.Rule{validation.NonEmpty(), validation.EmailShaped()}},
			{Name: "password", Required: true, Secret: true, StoreAs: "password_hash", Rules: []validation.Rule{validation.NonEmpty()}},
			{Name: "department", Required: true, Rules: []validation.Rule{validation.NonEmpty()}},
			{Name: "bio", Required: true, Rules: []validation.Rule{validation.NonEmpty()}},
			{Name: "profile_picture", Rules: []validation.Rule{validation.URLLike()}},
		},
	},
	{
		Kind:  models.KindCourse,
		Table: "courses",
		Path:  "courses",
		Fields: []Field{
			{Name: "course_info", Required: true, Rules: []validation.Rule{validation.NonEmpty()}},
			{Name: "instructor_id", Required: true, Ref: models.KindInstructor},
			{Name: "schedule", Required: true, Rules: []validation.Rule{validation.ScheduleList()}},
		},
	},
	{
		Kind:  models.KindLecture,
		Table: "lectures",
		Path:  "lectures",
		Fields: []Field{
			{Name: "lecture_info", Required: true, Rules: []validation.Rule{validation.NonEmpty()}},
			{Name: "instructor_id", Required: true, Ref: models.KindInstructor},
			{Name: "schedule", Required: true, Rules: []validation.Rule{validation.ScheduleList()}},
			{Name: "created_at", Temporal: true, DefaultNow: true, Rules: []validation.Rule{validation.NotFuture()}},
			{Name: "updated_at", Temporal: true, DefaultNow: true, TouchOnUpdate: true, Rules: []validation.Rule{validation.NotFuture()}},
		},
	},
	{
		Kind:  models.KindAssignment,
		Table: "assignments",
		Path:  "assignments",
		Fields: []Field{
			{Name: "title", Required: true, Rules: []validation.Rule{validation.NonEmpty()}},
			{Name: "description", Required: true, Rules: []validation.Rule{validation.NonEmpty()}},
			{Name: "course_id", Required: true, Ref: models.KindCourse},
			{Name: "due_date", Required: true, Temporal: true, Rules: []validation.Rule{validation.NotFuture()}},
			{Name: "total_points", Required: true, Rules: []validation.Rule{validation.IntMin(0)}},
		},
	},
	{
		Kind:  models.KindSubmission,
		Table: "submissions",
		Path:  "submissions",
		Fields: []Field{
			{Name: "assignment_id", Required: true, Ref: models.KindAssignment},
			{Name: "student_id", Required: true, Ref: models.KindStudent},
			{Name: "submission_info", Required: true, Rules: []validation.Rule{validation.NonEmpty()}},
			{Name: "grade_id", Required: true, Ref: models.KindGrade},
			{Name: "date", Required: true, Temporal: true, Rules: []validation.Rule{validation.NotFuture()}},
		},
	},
	{
		Kind:  models.KindGrade,
		Table: "grades",
		Path:  "grades",
		Fields: []Field{
			{Name: "student_id", Required: true, Ref: models.KindStudent},
			{Name: "course_id", Required: true, Ref: models.KindCourse},
			{Name: "grade", Required: true, Rules: []validation.Rule{validation.IntRange(1, 100)}},
			{Name: "date_posted", Required: true, Temporal: true, Rules: []validation.Rule{validation.NotFuture()}},
		},
	},
	{
		Kind:  models.KindAttendance,
		Table: "attendances",
		Path:  "attendances",
		Fields: []Field{
			{Name: "student_id", Required: true, Ref: models.KindStudent},
			{Name: "lecture_id", Required: true, Ref: models.KindLecture},
			{Name: "instructor_id", Required: true, Ref: models.KindInstructor},
			{Name: "attendance_status", Required: true, Rules: []validation.Rule{validation.OneOfFold(models.AttendancePresent, models.AttendanceAbsent)}},
			{Name: "date", Required: true, Temporal: true, Rules: []validation.Rule{validation.NotFuture()}},
		},
	},
	{
		Kind:  models.KindDiscussion,
		Table: "discussions",
		Path:  "discussions",
		Fields: []Field{
			{Name: "title", Required: true, Rules: []validation.Rule{validation.NonEmpty()}},
			{Name: "description", Required: true, Rules: []validation.Rule{validation.NonEmpty()}},
			{Name: "course_id", Required: true, Ref: models.KindCourse},
			{Name: "created_at", Temporal: true, DefaultNow: true, Rules: []validation.Rule{validation.NotFuture()}},
			{Name: "updated_at", Temporal: true, DefaultNow: true, TouchOnUpdate: true, Rules: []validation.Rule{validation.NotFuture()}},
		},
	},
	{
		Kind:  models.KindComment,
		Table: "comments",
		Path:  "comments",
		Fields: []Field{
			{Name: "discussion_id", Required: true, Ref: models.KindDiscussion},
			{Name: "student_id", Required: true, Ref: models.KindStudent},
			{Name: "instructor_id", Required: true, Ref: models.KindInstructor},
			{Name: "content", Required: true, Rules: []validation.Rule{validation.NonEmpty()}},
			{Name: "posted_at", Required: true, Temporal: true, Rules: []validation.Rule{validation.NotFuture()}},
			{Name: "edited_at", Required: true, Temporal: true, Rules: []validation.Rule{validation.NotFuture()}},
		},
	},
	{
		Kind:  models.KindEnrollment,
		Table: "enrollments",
		Path:  "enrollments",
		Fields: []Field{
			{Name: "course_id", Required: true, Ref: models.KindCourse},
			{Name: "student_id", Required: true, Ref: models.KindStudent},
			{Name: "status", Required: true, Rules: []validation.Rule{validation.OneOf(models.EnrollmentEnrolled, models.EnrollmentPending, models.EnrollmentDropped)}},
		},
	},
	{
		Kind:  models.KindNotification,
		Table: "notifications",
		Path:  "notifications",
		Fields: []Field{
			{Name: "title", Required: true, Rules: []validation.Rule{validation.NonEmpty()}},
			{Name: "message_body", Required: true, Rules: []validation.Rule{validation.NonEmpty()}},
			{Name: "student_id", Required: true, Ref: models.KindStudent},
			{Name: "instructor_id", Required: true, Ref: models.KindInstructor},
			{Name: "read_status", Required: true, Rules: []validation.Rule{validation.OneOf(models.NotificationRead, models.NotificationUnread)}},
			{Name: "sent_date", Required: true, Temporal: true, Rules: []validation.Rule{validation.NotFuture()}},
			{Name: "read_date", Required: true, Temporal: true, Rules: []validation.Rule{validation.NotFuture()}},
		},
	},
	{
		Kind:  models.KindFile,
		Table: "files",
		Path:  "files",
		Fields: []Field{
			{Name: "file_info", Required: true, Rules: []validation.Rule{validation.NonEmpty()}},
			{Name: "related_to", Required: true, Rules: []validation.Rule{validation.NonEmpty()}},
			{Name: "upload_date", Required: true, Temporal: true, Rules: []validation.Rule{validation.NotFuture()}},
		},
	},
}

var definitionsByKind = func() map[models.Kind]*Definition {
	byKind := make(map[models.Kind]*Definition, len(definitions))
	for i := range definitions {
		byKind[definitions[i].Kind] = &definitions[i]
	}
	return byKind
}()

// Lookup returns the schema definition for kind.
func Lookup(kind models.Kind) (*Definition, bool) {
	def, ok := definitionsByKind[kind]
	return def, ok
}

// Definitions returns every schema definition in registration order.
func Definitions() []*Definition {
	defs := make([]*Definition, 0, len(definitions))
	for i := range definitions {
		defs = append(defs, &definitions[i])
	}
	return defs
}
