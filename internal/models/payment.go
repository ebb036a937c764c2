package models

import "time"

// PaymentStatus is the ledger state of an instructor payment.
type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentPaid    PaymentStatus = "paid"
)

// InstructorPayment is a ledger row. Amount is hours_worked * hourly_rate,
// recomputed on every edit.
type InstructorPayment struct {
	ID           string        `db:"id" json:"id"`
	InstructorID string        `db:"instructor_id" json:"instructor_id"`
	Amount       float64       `db:"amount" json:"amount"`
	Status       PaymentStatus `db:"status" json:"status"`
	HoursWorked  float64       `db:"hours_worked" json:"hours_worked"`
	HourlyRate   float64       `db:"hourly_rate" json:"hourly_rate"`
	PeriodStart  time.Time     `db:"period_start" json:"period_start"`
	PeriodEnd    time.Time     `db:"period_end" json:"period_end"`
	PaidAt       *time.Time    `db:"paid_at" json:"paid_at,omitempty"`
	Notes        *string       `db:"notes" json:"notes,omitempty"`
	CreatedAt    time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time     `db:"updated_at" json:"updated_at"`
}

// CreatePaymentRequest records work to be paid.
type CreatePaymentRequest struct {
	InstructorID string   `json:"instructor_id" validate:"required"`
	HoursWorked  float64  `json:"hours_worked" validate:"gt=0,lte=1000"`
	HourlyRate   *float64 `json:"hourly_rate" validate:"omitempty,gte=0"`
	PeriodStart  string   `json:"period_start" validate:"required,datetime=2006-01-02"`
	PeriodEnd    string   `json:"period_end" validate:"required,datetime=2006-01-02"`
	Notes        *string  `json:"notes" validate:"omitempty,max=1000"`
}

// UpdatePaymentRequest edits hours or rate of a pending payment.
type UpdatePaymentRequest struct {
	HoursWorked *float64 `json:"hours_worked" validate:"omitempty,gt=0,lte=1000"`
	HourlyRate  *float64 `json:"hourly_rate" validate:"omitempty,gte=0"`
	Notes       *string  `json:"notes" validate:"omitempty,max=1000"`
}

// PaymentFilter narrows payment listings.
type PaymentFilter struct {
	InstructorID string
	Status       PaymentStatus
}
