package models

import (
	"time"

	"github.com/noah-isme/djschool-api/pkg/join"
)

// EnrollmentStatus tracks whether an enrollment is current.
type EnrollmentStatus string

const (
	EnrollmentStatusActive   EnrollmentStatus = "active"
	EnrollmentStatusInactive EnrollmentStatus = "inactive"
)

// Enrollment links a student to a class, an instructor, or both. A student
// holds at most one active enrollment per instructor.
type Enrollment struct {
	ID             string           `db:"id" json:"id"`
	StudentID      string           `db:"student_id" json:"student_id"`
	ClassID        *string          `db:"class_id" json:"class_id,omitempty"`
	InstructorID   *string          `db:"instructor_id" json:"instructor_id,omitempty"`
	Status         EnrollmentStatus `db:"status" json:"status"`
	EnrollmentDate time.Time        `db:"enrollment_date" json:"enrollment_date"`
}

// EnrollmentWithClass is an enrollment read together with its class, which
// arrives as a nested JSON relationship.
type EnrollmentWithClass struct {
	Enrollment
	Class join.One[ClassSession] `db:"class" json:"class"`
}

// EnrollRequest enrolls a student.
type EnrollRequest struct {
	StudentID    string  `json:"student_id" validate:"required"`
	ClassID      *string `json:"class_id"`
	InstructorID *string `json:"instructor_id"`
}
