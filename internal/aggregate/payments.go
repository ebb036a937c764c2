package aggregate

import (
	"math"

	"github.com/noah-isme/djschool-api/internal/models"
)

// PaymentTotals summarises a set of payments by ledger state.
type PaymentTotals struct {
	PendingAmount float64 `json:"pending_amount"`
	PaidAmount    float64 `json:"paid_amount"`
	PendingCount  int     `json:"pending_count"`
	PaidCount     int     `json:"paid_count"`
	PendingHours  float64 `json:"pending_hours"`
	PaidHours     float64 `json:"paid_hours"`
}

// RoundCents rounds a non-negative amount to two decimals, halves up.
func RoundCents(x float64) float64 {
	return math.Floor(x*100+0.5) / 100
}

// PaymentAmount is hours * rate rounded to cents.
func PaymentAmount(hours, rate float64) float64 {
	return RoundCents(hours * rate)
}

// PaymentSummary totals pending and paid payments.
func PaymentSummary(payments []models.InstructorPayment) PaymentTotals {
	var t PaymentTotals
	for _, p := range payments {
		switch p.Status {
		case models.PaymentPaid:
			t.PaidAmount += p.Amount
			t.PaidHours += p.HoursWorked
			t.PaidCount++
		default:
			t.PendingAmount += p.Amount
			t.PendingHours += p.HoursWorked
			t.PendingCount++
		}
	}
	t.PendingAmount = RoundCents(t.PendingAmount)
	t.PaidAmount = RoundCents(t.PaidAmount)
	t.PendingHours = RoundCents(t.PendingHours)
	t.PaidHours = RoundCents(t.PaidHours)
	return t
}

// SplitPayments separates pending payments from paid history, keeping order.
// status reads the ledger state of one item.
func SplitPayments[T any](items []T, status func(T) models.PaymentStatus) (pending, history []T) {
	pending = make([]T, 0)
	history = make([]T, 0)
	for _, item := range items {
		if status(item) == models.PaymentPaid {
			history = append(history, item)
			continue
		}
		pending = append(pending, item)
	}
	return pending, history
}
