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

// AttendanceRepository writes attendance rows.
type AttendanceRepository struct {
	db *sqlx.DB
}

// NewAttendanceRepository creates an AttendanceRepository.
func NewAttendanceRepository(db *sqlx.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

// Create stores a record. A second record for the same student, class and
// date is a conflict.
func (r *AttendanceRepository) Create(ctx context.Context, record *models.Attendance) error {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	record.CreatedAt, record.UpdatedAt = now, now
	const query = `INSERT INTO attendance (id, student_id, class_id, date, status, notes, created_at, updated_at)
        VALUES (:id, :student_id, :class_id, :date, :status, :notes, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, record); err != nil {
		return storeErr(err, "record attendance")
	}
	return nil
}

// UpdateStatus overwrites the stored status and, when given, the notes.
func (r *AttendanceRepository) UpdateStatus(ctx context.Context, id string, status models.AttendanceStatus, notes *string) (*models.Attendance, error) {
	const query = `UPDATE attendance SET status = $2, notes = COALESCE($3, notes), updated_at = $4 WHERE id = $1 RETURNING *`
	var record models.Attendance
	if err := r.db.GetContext(ctx, &record, query, id, status, notes, time.Now().UTC()); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFound("attendance record")
		}
		return nil, storeErr(err, "update attendance")
	}
	return &record, nil
}
