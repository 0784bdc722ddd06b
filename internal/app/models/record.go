package models

// Kind identifies one of the thirteen record kinds the API manages.
type Kind string

const (
	KindStudent      Kind = "student"
	KindInstructor   Kind = "instructor"
	KindCourse       Kind = "course"
	KindLecture      Kind = "lecture"
	KindAssignment   Kind = "assignment"
	KindSubmission   Kind = "submission"
	KindGrade        Kind = "grade"
	KindAttendance   Kind = "attendance"
	KindDiscussion   Kind = "discussion"
	KindComment      Kind = "comment"
	KindEnrollment   Kind = "enrollment"
	KindNotification Kind = "notification"
	KindFile         Kind = "file"
)

// Kinds lists every record kind in route-registration order.
var Kinds = []Kind{
	KindStudent,
	KindInstructor,
	KindCourse,
	KindLecture,
	KindAssignment,
	KindSubmission,
	KindGrade,
	KindAttendance,
	KindDiscussion,
	KindComment,
	KindEnrollment,
	KindNotification,
	KindFile,
}

// Record is a stored row keyed by column name. Records only exist fully
// validated; the lifecycle layer never hands a partially valid bundle to
// storage.
type Record map[string]interface{}

// ID returns the record identifier, or 0 when absent.
func (r Record) ID() int64 {
	switch v := r["id"].(type) {
	case int64:
		return v
	case int:
		return int64(v)
	case int32:
		return int64(v)
	default:
		return 0
	}
}

// Fields is an unvalidated field bundle as decoded from a request body.
type Fields map[string]interface{}

// Clone returns a shallow copy so validation never mutates caller input.
func (f Fields) Clone() Fields {
	out := make(Fields, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}
