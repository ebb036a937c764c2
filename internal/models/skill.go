package models

import "time"

// StudentSkill is a proficiency score between 0 and 100 for one skill.
type StudentSkill struct {
	ID          string    `db:"id" json:"id"`
	StudentID   string    `db:"student_id" json:"student_id"`
	Skill       string    `db:"skill" json:"skill"`
	Proficiency int       `db:"proficiency" json:"proficiency"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// StudentProgress marks a completed lesson.
type StudentProgress struct {
	ID          string    `db:"id" json:"id"`
	StudentID   string    `db:"student_id" json:"student_id"`
	LessonID    string    `db:"lesson_id" json:"lesson_id"`
	CompletedAt time.Time `db:"completed_at" json:"completed_at"`
}

// UpsertSkillRequest sets a skill score.
type UpsertSkillRequest struct {
	Skill       string `json:"skill" validate:"required,max=100"`
	Proficiency int    `json:"proficiency" validate:"gte=0,lte=100"`
}

// RecordProgressRequest marks a lesson done.
type RecordProgressRequest struct {
	LessonID string `json:"lesson_id" validate:"required"`
}
