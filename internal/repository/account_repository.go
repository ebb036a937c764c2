package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/djschool-api/internal/models"
	"github.com/noah-isme/djschool-api/pkg/database"
	appErrors "github.com/noah-isme/djschool-api/pkg/errors"
)

// AccountRepository creates a profile together with its role record so an
// account never exists half made.
type AccountRepository struct {
	db          *sqlx.DB
	profiles    *ProfileRepository
	students    *StudentRepository
	instructors *InstructorRepository
}

// NewAccountRepository creates an AccountRepository.
func NewAccountRepository(db *sqlx.DB) *AccountRepository {
	return &AccountRepository{
		db:          db,
		profiles:    NewProfileRepository(db),
		students:    NewStudentRepository(db),
		instructors: NewInstructorRepository(db),
	}
}

// CreateStudentAccount inserts profile and student in one transaction.
func (r *AccountRepository) CreateStudentAccount(ctx context.Context, profile *models.Profile, student *models.StudentRecord) error {
	profile.Role = models.RoleStudent
	return r.inTx(ctx, "create student account", func(tx *sqlx.Tx) error {
		if err := r.profiles.CreateTx(ctx, tx, profile); err != nil {
			return err
		}
		student.ID = profile.ID
		return r.students.CreateTx(ctx, tx, student)
	})
}

// CreateInstructorAccount inserts profile and instructor in one transaction.
func (r *AccountRepository) CreateInstructorAccount(ctx context.Context, profile *models.Profile, instructor *models.InstructorRecord) error {
	profile.Role = models.RoleInstructor
	return r.inTx(ctx, "create instructor account", func(tx *sqlx.Tx) error {
		if err := r.profiles.CreateTx(ctx, tx, profile); err != nil {
			return err
		}
		instructor.ID = profile.ID
		return r.instructors.CreateTx(ctx, tx, instructor)
	})
}

// ConvertToInstructor gives an existing student profile an instructor record
// and role. The old student record is retired to inactive in the same
// transaction so it drops out of active student lists.
func (r *AccountRepository) ConvertToInstructor(ctx context.Context, instructor *models.InstructorRecord) error {
	return r.inTx(ctx, "convert to instructor", func(tx *sqlx.Tx) error {
		if err := r.profiles.SetRoleTx(ctx, tx, instructor.ID, models.RoleInstructor); err != nil {
			return err
		}
		if err := r.students.RetireTx(ctx, tx, instructor.ID); err != nil {
			return err
		}
		return r.instructors.CreateTx(ctx, tx, instructor)
	})
}

func (r *AccountRepository) inTx(ctx context.Context, op string, fn func(tx *sqlx.Tx) error) error {
	if err := database.WithTx(ctx, r.db, fn); err != nil {
		if appErrors.KindOf(err) != appErrors.KindUnknown {
			return err
		}
		return storeErr(err, op)
	}
	return nil
}
