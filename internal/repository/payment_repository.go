package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/djschool-api/internal/models"
	appErrors "github.com/noah-isme/djschool-api/pkg/errors"
)

// PaymentRepository persists the instructor payment ledger.
type PaymentRepository struct {
	db *sqlx.DB
}

// NewPaymentRepository creates a PaymentRepository.
func NewPaymentRepository(db *sqlx.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

// Create inserts a pending payment.
func (r *PaymentRepository) Create(ctx context.Context, p *models.InstructorPayment) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	p.CreatedAt, p.UpdatedAt = now, now
	if p.Status == "" {
		p.Status = models.PaymentPending
	}
	const query = `INSERT INTO instructor_payments (id, instructor_id, amount, status, hours_worked, hourly_rate, period_start, period_end, paid_at, notes, created_at, updated_at)
        VALUES (:id, :instructor_id, :amount, :status, :hours_worked, :hourly_rate, :period_start, :period_end, :paid_at, :notes, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, p); err != nil {
		return storeErr(err, "create payment")
	}
	return nil
}

// FindByID returns one payment.
func (r *PaymentRepository) FindByID(ctx context.Context, id string) (*models.InstructorPayment, error) {
	var p models.InstructorPayment
	if err := r.db.GetContext(ctx, &p, `SELECT * FROM instructor_payments WHERE id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFound("payment")
		}
		return nil, storeErr(err, "find payment")
	}
	return &p, nil
}

// UpdateWork stores new hours, rate, amount and notes of a pending payment.
func (r *PaymentRepository) UpdateWork(ctx context.Context, p *models.InstructorPayment) (*models.InstructorPayment, error) {
	const query = `UPDATE instructor_payments SET hours_worked = $2, hourly_rate = $3, amount = $4, notes = $5, updated_at = $6
        WHERE id = $1 AND status = 'pending' RETURNING *`
	var out models.InstructorPayment
	err := r.db.GetContext(ctx, &out, query, p.ID, p.HoursWorked, p.HourlyRate, p.Amount, p.Notes, time.Now().UTC())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, r.notPending(ctx, p.ID)
		}
		return nil, storeErr(err, "update payment")
	}
	return &out, nil
}

// MarkPaid settles a pending payment.
func (r *PaymentRepository) MarkPaid(ctx context.Context, id string, paidAt time.Time) (*models.InstructorPayment, error) {
	const query = `UPDATE instructor_payments SET status = 'paid', paid_at = $2, updated_at = $2
        WHERE id = $1 AND status = 'pending' RETURNING *`
	var out models.InstructorPayment
	if err := r.db.GetContext(ctx, &out, query, id, paidAt.UTC()); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, r.notPending(ctx, id)
		}
		return nil, storeErr(err, "mark payment paid")
	}
	return &out, nil
}

func (r *PaymentRepository) notPending(ctx context.Context, id string) error {
	if _, err := r.FindByID(ctx, id); err != nil {
		return err
	}
	return appErrors.Clone(appErrors.ErrPreconditionFailed, "payment is already paid")
}
