package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/djschool-api/internal/models"
)

// StudentRepository writes student records. Reads go through collections.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository creates a StudentRepository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// CreateTx inserts rec, leaving an existing record untouched.
func (r *StudentRepository) CreateTx(ctx context.Context, ext sqlx.ExtContext, rec *models.StudentRecord) error {
	now := time.Now().UTC()
	rec.CreatedAt, rec.UpdatedAt = now, now
	if rec.Level == "" {
		rec.Level = models.LevelBeginner
	}
	if rec.EnrollmentStatus == "" {
		rec.EnrollmentStatus = models.StatusPending
	}
	const query = `INSERT INTO students (id, level, enrollment_status, notes, created_at, updated_at)
        VALUES (:id, :level, :enrollment_status, :notes, :created_at, :updated_at)
        ON CONFLICT (id) DO NOTHING`
	if _, err := sqlx.NamedExecContext(ctx, ext, query, rec); err != nil {
		return storeErr(err, "create student")
	}
	return nil
}

// RetireTx moves a student record to inactive when its profile stops being a
// student. A profile without a student record is left alone.
func (r *StudentRepository) RetireTx(ctx context.Context, ext sqlx.ExtContext, id string) error {
	const query = `UPDATE students SET enrollment_status = $2, updated_at = $3
        WHERE id = $1 AND enrollment_status <> $2`
	if _, err := ext.ExecContext(ctx, query, id, models.StatusInactive, time.Now().UTC()); err != nil {
		return storeErr(err, "retire student")
	}
	return nil
}

// Ensure creates a pending record for id when none exists and returns the
// stored row.
func (r *StudentRepository) Ensure(ctx context.Context, id string) (*models.StudentRecord, error) {
	if err := r.CreateTx(ctx, r.db, &models.StudentRecord{ID: id}); err != nil {
		return nil, err
	}
	var rec models.StudentRecord
	if err := r.db.GetContext(ctx, &rec, `SELECT * FROM students WHERE id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFound("student")
		}
		return nil, storeErr(err, "find student")
	}
	return &rec, nil
}

// UpdateSelf changes level and notes. Nil arguments keep the stored value.
func (r *StudentRepository) UpdateSelf(ctx context.Context, id string, level *models.StudentLevel, notes *string) (*models.StudentRecord, error) {
	const query = `UPDATE students SET level = COALESCE($2, level), notes = COALESCE($3, notes), updated_at = $4
        WHERE id = $1 RETURNING *`
	var rec models.StudentRecord
	if err := r.db.GetContext(ctx, &rec, query, id, level, notes, time.Now().UTC()); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFound("student")
		}
		return nil, storeErr(err, "update student")
	}
	return &rec, nil
}

// TransitionStatus moves a student from one of from to to.
func (r *StudentRepository) TransitionStatus(ctx context.Context, id string, from []models.RecordStatus, to models.RecordStatus) (*models.StudentRecord, error) {
	var rec models.StudentRecord
	if err := transitionStatus(ctx, r.db, "students", "enrollment_status", "student", id, from, to, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}
