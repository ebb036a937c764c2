package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/djschool-api/internal/models"
	"github.com/noah-isme/djschool-api/pkg/database"
	appErrors "github.com/noah-isme/djschool-api/pkg/errors"
)

// ErrDuplicateEnrollment is returned when a student already has an active
// enrollment with the requested instructor.
var ErrDuplicateEnrollment = appErrors.Clone(appErrors.ErrConflict, "student already has an active enrollment with this instructor")

// EnrollmentRepository writes enrollments and reads them with their class.
type EnrollmentRepository struct {
	db *sqlx.DB
}

// NewEnrollmentRepository creates an EnrollmentRepository.
func NewEnrollmentRepository(db *sqlx.DB) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

// Enroll stores an active enrollment. When an instructor is given, the check
// for an existing active enrollment and the insert share one locked
// transaction.
func (r *EnrollmentRepository) Enroll(ctx context.Context, req models.EnrollRequest) (*models.Enrollment, error) {
	enrollment := &models.Enrollment{
		ID:             uuid.NewString(),
		StudentID:      req.StudentID,
		ClassID:        req.ClassID,
		InstructorID:   req.InstructorID,
		Status:         models.EnrollmentStatusActive,
		EnrollmentDate: time.Now().UTC(),
	}

	err := database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if req.InstructorID != nil {
			if err := database.LockScope(ctx, tx, "enrollment:"+req.StudentID+":"+*req.InstructorID); err != nil {
				return err
			}
			var exists bool
			const check = `SELECT EXISTS (SELECT 1 FROM enrollments WHERE student_id = $1 AND instructor_id = $2 AND status = 'active')`
			if err := tx.GetContext(ctx, &exists, check, req.StudentID, *req.InstructorID); err != nil {
				return err
			}
			if exists {
				return ErrDuplicateEnrollment
			}
		}
		const insert = `INSERT INTO enrollments (id, student_id, class_id, instructor_id, status, enrollment_date)
            VALUES (:id, :student_id, :class_id, :instructor_id, :status, :enrollment_date)`
		_, err := tx.NamedExecContext(ctx, insert, enrollment)
		return err
	})
	if err != nil {
		if errors.Is(err, ErrDuplicateEnrollment) {
			return nil, ErrDuplicateEnrollment
		}
		return nil, storeErr(err, "create enrollment")
	}
	return enrollment, nil
}

// Deactivate marks an enrollment inactive.
func (r *EnrollmentRepository) Deactivate(ctx context.Context, id string) (*models.Enrollment, error) {
	var enrollment models.Enrollment
	err := r.db.GetContext(ctx, &enrollment, `UPDATE enrollments SET status = 'inactive' WHERE id = $1 RETURNING *`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFound("enrollment")
		}
		return nil, storeErr(err, "deactivate enrollment")
	}
	return &enrollment, nil
}

// ListForStudentWithClass returns a student's enrollments with the related
// class embedded as a nested JSON value.
func (r *EnrollmentRepository) ListForStudentWithClass(ctx context.Context, studentID string) ([]models.EnrollmentWithClass, error) {
	const query = `SELECT e.id, e.student_id, e.class_id, e.instructor_id, e.status, e.enrollment_date,
            (SELECT json_agg(c) FROM classes c WHERE c.id = e.class_id) AS class
        FROM enrollments e
        WHERE e.student_id = $1
        ORDER BY e.enrollment_date DESC`
	var rows []models.EnrollmentWithClass
	if err := r.db.SelectContext(ctx, &rows, query, studentID); err != nil {
		return nil, storeErr(err, "list enrollments")
	}
	return rows, nil
}
