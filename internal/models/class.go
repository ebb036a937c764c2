package models

import "time"

// ClassSession is a scheduled teaching session. InstructorID and CourseID are
// optional and may reference rows that no longer exist.
type ClassSession struct {
	ID           string    `db:"id" json:"id"`
	Title        string    `db:"title" json:"title"`
	Location     *string   `db:"location" json:"location,omitempty"`
	StartTime    time.Time `db:"start_time" json:"start_time"`
	EndTime      time.Time `db:"end_time" json:"end_time"`
	InstructorID *string   `db:"instructor_id" json:"instructor_id,omitempty"`
	CourseID     *string   `db:"course_id" json:"course_id,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// ClassFilter selects sessions by time window and instructor.
type ClassFilter struct {
	From         *time.Time
	To           *time.Time
	InstructorID string
	Search       string
	Limit        int
}

// ClassInput is the payload for creating or replacing a session.
type ClassInput struct {
	Title        string    `json:"title" validate:"required,max=200"`
	Location     *string   `json:"location" validate:"omitempty,max=200"`
	StartTime    time.Time `json:"start_time" validate:"required"`
	EndTime      time.Time `json:"end_time" validate:"required,gtfield=StartTime"`
	InstructorID *string   `json:"instructor_id"`
	CourseID     *string   `json:"course_id"`
}
