package models

import "time"

// AttendanceStatus is the stored attendance state. StatusMadeUp is only ever
// derived when reading.
type AttendanceStatus string

const (
	AttendanceMissed   AttendanceStatus = "missed"
	AttendanceAttended AttendanceStatus = "attended"
	AttendanceMadeUp   AttendanceStatus = "made-up"
	AttendanceMakeup   AttendanceStatus = "makeup"
)

// Valid returns true when the status is a supported value.
func (s AttendanceStatus) Valid() bool {
	switch s {
	case AttendanceMissed, AttendanceAttended, AttendanceMadeUp, AttendanceMakeup:
		return true
	default:
		return false
	}
}

// Attendance is one record per student, class and date.
type Attendance struct {
	ID        string           `db:"id" json:"id"`
	StudentID string           `db:"student_id" json:"student_id"`
	ClassID   *string          `db:"class_id" json:"class_id,omitempty"`
	Date      time.Time        `db:"date" json:"date"`
	Status    AttendanceStatus `db:"status" json:"status"`
	Notes     *string          `db:"notes" json:"notes,omitempty"`
	CreatedAt time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt time.Time        `db:"updated_at" json:"updated_at"`
}

// RecordAttendanceRequest stores an attendance row.
type RecordAttendanceRequest struct {
	StudentID string  `json:"student_id" validate:"required"`
	ClassID   *string `json:"class_id"`
	Date      string  `json:"date" validate:"required,datetime=2006-01-02"`
	Status    string  `json:"status" validate:"required,attendance_status"`
	Notes     *string `json:"notes" validate:"omitempty,max=1000"`
}

// UpdateAttendanceRequest changes a stored status.
type UpdateAttendanceRequest struct {
	Status string  `json:"status" validate:"required,attendance_status"`
	Notes  *string `json:"notes" validate:"omitempty,max=1000"`
}
