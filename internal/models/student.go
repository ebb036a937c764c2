package models

import (
	"strings"
	"time"
)

// StudentLevel is the stored skill tier. The lowercase storage values are
// canonical; labels are a presentation concern.
type StudentLevel string

const (
	LevelBeginner     StudentLevel = "beginner"
	LevelIntermediate StudentLevel = "intermediate"
	LevelAdvanced     StudentLevel = "advanced"
)

// ParseStudentLevel accepts any casing of a stored level value.
func ParseStudentLevel(raw string) (StudentLevel, bool) {
	level := StudentLevel(strings.ToLower(strings.TrimSpace(raw)))
	switch level {
	case LevelBeginner, LevelIntermediate, LevelAdvanced:
		return level, true
	}
	return "", false
}

// RecordStatus is the moderation state shared by student and instructor records.
type RecordStatus string

const (
	StatusPending  RecordStatus = "pending"
	StatusActive   RecordStatus = "active"
	StatusInactive RecordStatus = "inactive"
	StatusDeclined RecordStatus = "declined"
)

// Valid reports whether s is a known status.
func (s RecordStatus) Valid() bool {
	switch s {
	case StatusPending, StatusActive, StatusInactive, StatusDeclined:
		return true
	}
	return false
}

// StatusAction is an admin moderation action.
type StatusAction string

const (
	ActionApprove    StatusAction = "approve"
	ActionDecline    StatusAction = "decline"
	ActionActivate   StatusAction = "activate"
	ActionDeactivate StatusAction = "deactivate"
)

// statusTransitions lists, per action, the states it may start from and the
// state it produces.
var statusTransitions = map[StatusAction]struct {
	from []RecordStatus
	to   RecordStatus
}{
	ActionApprove:    {from: []RecordStatus{StatusPending}, to: StatusActive},
	ActionDecline:    {from: []RecordStatus{StatusPending}, to: StatusDeclined},
	ActionActivate:   {from: []RecordStatus{StatusInactive, StatusDeclined}, to: StatusActive},
	ActionDeactivate: {from: []RecordStatus{StatusActive}, to: StatusInactive},
}

// Transition returns the target status of action and the statuses it may be
// applied to. ok is false for unknown actions.
func (a StatusAction) Transition() (to RecordStatus, from []RecordStatus, ok bool) {
	t, ok := statusTransitions[a]
	if !ok {
		return "", nil, false
	}
	return t.to, t.from, true
}

// StudentRecord extends a Profile one-to-one. It is never hard deleted.
type StudentRecord struct {
	ID               string       `db:"id" json:"id"`
	Level            StudentLevel `db:"level" json:"level"`
	EnrollmentStatus RecordStatus `db:"enrollment_status" json:"enrollment_status"`
	Notes            *string      `db:"notes" json:"notes,omitempty"`
	CreatedAt        time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time    `db:"updated_at" json:"updated_at"`
}

// StudentSelfUpdate holds the fields a student edits on their own record.
type StudentSelfUpdate struct {
	Level *string `json:"level" validate:"omitempty,student_level"`
	Notes *string `json:"notes" validate:"omitempty,max=4000"`
}

// DemoStudentRequest creates a pending student account without signup.
type DemoStudentRequest struct {
	Email     string `json:"email" validate:"required,email"`
	FirstName string `json:"first_name" validate:"required,max=100"`
	LastName  string `json:"last_name" validate:"required,max=100"`
	Level     string `json:"level" validate:"omitempty,student_level"`
	Password  string `json:"password"`
}
