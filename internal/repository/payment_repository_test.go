package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/djschool-api/pkg/errors"
)

var paymentColumns = []string{"id", "instructor_id", "amount", "status", "hours_worked", "hourly_rate", "period_start", "period_end", "paid_at", "notes", "created_at", "updated_at"}

func TestMarkPaidAlreadyPaid(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewPaymentRepository(db)

	now := time.Now()
	mock.ExpectQuery("UPDATE instructor_payments SET status = 'paid'").
		WillReturnRows(sqlmock.NewRows(paymentColumns))
	mock.ExpectQuery("SELECT \\* FROM instructor_payments WHERE id = \\$1").
		WithArgs("p1").
		WillReturnRows(sqlmock.NewRows(paymentColumns).AddRow("p1", "i1", 100.0, "paid", 2.0, 50.0, now, now, now, nil, now, now))

	_, err := repo.MarkPaid(context.Background(), "p1", now)
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrPreconditionFailed))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkPaidSettlesPending(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewPaymentRepository(db)

	now := time.Now()
	mock.ExpectQuery("UPDATE instructor_payments SET status = 'paid'").
		WithArgs("p1", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows(paymentColumns).AddRow("p1", "i1", 100.0, "paid", 2.0, 50.0, now, now, now, nil, now, now))

	p, err := repo.MarkPaid(context.Background(), "p1", now)
	require.NoError(t, err)
	assert.NotNil(t, p.PaidAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}
