package models

// AttendanceStatus values. Input is lowercased and trimmed before the
// membership check, so "PRESENT " normalizes to AttendancePresent.
const (
	AttendancePresent = "present"
	AttendanceAbsent  = "absent"
)

// EnrollmentStatus values. Membership is case-sensitive.
const (
	EnrollmentEnrolled = "enrolled"
	EnrollmentPending  = "pending"
	EnrollmentDropped  = "dropped"
)

// ReadStatus values for notifications.
const (
	NotificationRead   = "read"
	NotificationUnread = "unread"
)
