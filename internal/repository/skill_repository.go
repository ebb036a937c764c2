package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/djschool-api/internal/models"
)

// SkillRepository stores proficiency scores and lesson progress.
type SkillRepository struct {
	db *sqlx.DB
}

// NewSkillRepository creates a SkillRepository.
func NewSkillRepository(db *sqlx.DB) *SkillRepository {
	return &SkillRepository{db: db}
}

// Upsert sets the score of one skill for a student.
func (r *SkillRepository) Upsert(ctx context.Context, studentID, skill string, proficiency int) (*models.StudentSkill, error) {
	const query = `INSERT INTO student_skills (id, student_id, skill, proficiency, updated_at)
        VALUES ($1, $2, $3, $4, $5)
        ON CONFLICT (student_id, skill) DO UPDATE SET proficiency = EXCLUDED.proficiency, updated_at = EXCLUDED.updated_at
        RETURNING *`
	var out models.StudentSkill
	if err := r.db.GetContext(ctx, &out, query, uuid.NewString(), studentID, skill, proficiency, time.Now().UTC()); err != nil {
		return nil, storeErr(err, "save skill")
	}
	return &out, nil
}

// RecordProgress marks a lesson completed. Repeating it refreshes the time.
func (r *SkillRepository) RecordProgress(ctx context.Context, studentID, lessonID string) (*models.StudentProgress, error) {
	const query = `INSERT INTO student_progress (id, student_id, lesson_id, completed_at)
        VALUES ($1, $2, $3, $4)
        ON CONFLICT (student_id, lesson_id) DO UPDATE SET completed_at = EXCLUDED.completed_at
        RETURNING *`
	var out models.StudentProgress
	if err := r.db.GetContext(ctx, &out, query, uuid.NewString(), studentID, lessonID, time.Now().UTC()); err != nil {
		return nil, storeErr(err, "record progress")
	}
	return &out, nil
}
