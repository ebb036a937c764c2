package models

import (
	"time"

	"github.com/lib/pq"
)

// InstructorRecord extends a Profile one-to-one.
type InstructorRecord struct {
	ID              string         `db:"id" json:"id"`
	Status          RecordStatus   `db:"status" json:"status"`
	Specialties     pq.StringArray `db:"specialties" json:"specialties"`
	Bio             *string        `db:"bio" json:"bio,omitempty"`
	HourlyRate      float64        `db:"hourly_rate" json:"hourly_rate"`
	YearsExperience int            `db:"years_experience" json:"years_experience"`
	CreatedAt       time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time      `db:"updated_at" json:"updated_at"`
}

// InstructorDetails are the instructor-specific fields shared by create,
// convert and update payloads.
type InstructorDetails struct {
	Specialties     []string `json:"specialties" validate:"omitempty,max=20,dive,min=1,max=64"`
	Bio             *string  `json:"bio" validate:"omitempty,max=4000"`
	HourlyRate      float64  `json:"hourly_rate" validate:"gte=0"`
	YearsExperience int      `json:"years_experience" validate:"gte=0,lte=80"`
}

// InstructorUpdate is a partial edit of an instructor record. Nil fields keep
// their stored value; an empty specialties list clears it. Rate and
// experience are admin-only.
type InstructorUpdate struct {
	Specialties     []string `json:"specialties" validate:"omitempty,max=20,dive,min=1,max=64"`
	Bio             *string  `json:"bio" validate:"omitempty,max=4000"`
	HourlyRate      *float64 `json:"hourly_rate" validate:"omitempty,gte=0"`
	YearsExperience *int     `json:"years_experience" validate:"omitempty,gte=0,lte=80"`
}

// TouchesPay reports whether the edit changes admin-only fields.
func (u InstructorUpdate) TouchesPay() bool {
	return u.HourlyRate != nil || u.YearsExperience != nil
}

// CreateInstructorRequest creates a profile and its instructor record together.
type CreateInstructorRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required"`
	FirstName string `json:"first_name" validate:"required,max=100"`
	LastName  string `json:"last_name" validate:"required,max=100"`
	InstructorDetails
}

// ConvertInstructorRequest turns an existing profile into an instructor.
type ConvertInstructorRequest struct {
	ProfileID string `json:"profile_id" validate:"required"`
	InstructorDetails
}

// AvailabilitySlot is one weekly window an instructor can teach.
type AvailabilitySlot struct {
	ID           string `db:"id" json:"id"`
	InstructorID string `db:"instructor_id" json:"instructor_id"`
	DayOfWeek    int    `db:"day_of_week" json:"day_of_week" validate:"gte=0,lte=6"`
	StartTime    string `db:"start_time" json:"start_time" validate:"required,clock"`
	EndTime      string `db:"end_time" json:"end_time" validate:"required,clock"`
}

// ReplaceAvailabilityRequest swaps an instructor's whole weekly schedule.
type ReplaceAvailabilityRequest struct {
	Slots []AvailabilitySlot `json:"slots" validate:"max=100,dive"`
}
