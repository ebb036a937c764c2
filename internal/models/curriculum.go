package models

import "time"

// CurriculumModule is an ordered unit within a level. OrderIndex is unique
// per level.
type CurriculumModule struct {
	ID          string       `db:"id" json:"id"`
	Title       string       `db:"title" json:"title"`
	Description *string      `db:"description" json:"description,omitempty"`
	Level       StudentLevel `db:"level" json:"level"`
	OrderIndex  int          `db:"order_index" json:"order_index"`
	CreatedAt   time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time    `db:"updated_at" json:"updated_at"`
}

// CurriculumLesson is an ordered unit within a module. OrderIndex is unique
// per module.
type CurriculumLesson struct {
	ID         string    `db:"id" json:"id"`
	ModuleID   string    `db:"module_id" json:"module_id"`
	Title      string    `db:"title" json:"title"`
	Content    *string   `db:"content" json:"content,omitempty"`
	OrderIndex int       `db:"order_index" json:"order_index"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// ModuleInput creates or edits a module.
type ModuleInput struct {
	Title       string  `json:"title" validate:"required,max=200"`
	Description *string `json:"description" validate:"omitempty,max=4000"`
	Level       string  `json:"level" validate:"required,student_level"`
}

// LessonInput creates a lesson.
type LessonInput struct {
	Title   string  `json:"title" validate:"required,max=200"`
	Content *string `json:"content" validate:"omitempty,max=20000"`
}
