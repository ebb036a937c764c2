package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/djschool-api/internal/models"
)

// ClassRepository writes class sessions.
type ClassRepository struct {
	db *sqlx.DB
}

// NewClassRepository creates a ClassRepository.
func NewClassRepository(db *sqlx.DB) *ClassRepository {
	return &ClassRepository{db: db}
}

// Create inserts a session built from in.
func (r *ClassRepository) Create(ctx context.Context, in models.ClassInput) (*models.ClassSession, error) {
	now := time.Now().UTC()
	class := &models.ClassSession{
		ID:           uuid.NewString(),
		Title:        in.Title,
		Location:     in.Location,
		StartTime:    in.StartTime.UTC(),
		EndTime:      in.EndTime.UTC(),
		InstructorID: in.InstructorID,
		CourseID:     in.CourseID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	const query = `INSERT INTO classes (id, title, location, start_time, end_time, instructor_id, course_id, created_at, updated_at)
        VALUES (:id, :title, :location, :start_time, :end_time, :instructor_id, :course_id, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, class); err != nil {
		return nil, storeErr(err, "create class")
	}
	return class, nil
}

// Update replaces every editable field of a session.
func (r *ClassRepository) Update(ctx context.Context, id string, in models.ClassInput) (*models.ClassSession, error) {
	const query = `UPDATE classes SET title = $2, location = $3, start_time = $4, end_time = $5, instructor_id = $6, course_id = $7, updated_at = $8
        WHERE id = $1 RETURNING *`
	var class models.ClassSession
	err := r.db.GetContext(ctx, &class, query, id, in.Title, in.Location, in.StartTime.UTC(), in.EndTime.UTC(), in.InstructorID, in.CourseID, time.Now().UTC())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFound("class")
		}
		return nil, storeErr(err, "update class")
	}
	return &class, nil
}

// Delete removes a session. Enrollments and attendance keep their dangling ids.
func (r *ClassRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM classes WHERE id = $1`, id)
	if err != nil {
		return storeErr(err, "delete class")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return notFound("class")
	}
	return nil
}
