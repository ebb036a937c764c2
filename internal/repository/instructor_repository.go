package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/djschool-api/internal/models"
)

// InstructorRepository writes instructor records.
type InstructorRepository struct {
	db *sqlx.DB
}

// NewInstructorRepository creates an InstructorRepository.
func NewInstructorRepository(db *sqlx.DB) *InstructorRepository {
	return &InstructorRepository{db: db}
}

// DB exposes the handle so callers can open a transaction spanning profiles.
func (r *InstructorRepository) DB() *sqlx.DB { return r.db }

// CreateTx inserts rec using ext.
func (r *InstructorRepository) CreateTx(ctx context.Context, ext sqlx.ExtContext, rec *models.InstructorRecord) error {
	now := time.Now().UTC()
	rec.CreatedAt, rec.UpdatedAt = now, now
	if rec.Status == "" {
		rec.Status = models.StatusPending
	}
	if rec.Specialties == nil {
		rec.Specialties = pq.StringArray{}
	}
	const query = `INSERT INTO instructors (id, status, specialties, bio, hourly_rate, years_experience, created_at, updated_at)
        VALUES (:id, :status, :specialties, :bio, :hourly_rate, :years_experience, :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, ext, query, rec); err != nil {
		return storeErr(err, "create instructor")
	}
	return nil
}

// Update replaces the instructor-specific fields.
func (r *InstructorRepository) Update(ctx context.Context, id string, in models.InstructorUpdate) (*models.InstructorRecord, error) {
	const query = `UPDATE instructors SET specialties = COALESCE($2, specialties), bio = COALESCE($3, bio),
        hourly_rate = COALESCE($4, hourly_rate), years_experience = COALESCE($5, years_experience), updated_at = $6
        WHERE id = $1 RETURNING *`
	var specialties interface{}
	if in.Specialties != nil {
		specialties = pq.StringArray(in.Specialties)
	}
	var rec models.InstructorRecord
	if err := r.db.GetContext(ctx, &rec, query, id, specialties, in.Bio, in.HourlyRate, in.YearsExperience, time.Now().UTC()); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFound("instructor")
		}
		return nil, storeErr(err, "update instructor")
	}
	return &rec, nil
}

// FindByID returns one instructor record.
func (r *InstructorRepository) FindByID(ctx context.Context, id string) (*models.InstructorRecord, error) {
	var rec models.InstructorRecord
	if err := r.db.GetContext(ctx, &rec, `SELECT * FROM instructors WHERE id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFound("instructor")
		}
		return nil, storeErr(err, "find instructor")
	}
	return &rec, nil
}

// TransitionStatus moves an instructor from one of from to to.
func (r *InstructorRepository) TransitionStatus(ctx context.Context, id string, from []models.RecordStatus, to models.RecordStatus) (*models.InstructorRecord, error) {
	var rec models.InstructorRecord
	if err := transitionStatus(ctx, r.db, "instructors", "status", "instructor", id, from, to, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}
