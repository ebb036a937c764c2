package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/djschool-api/internal/models"
	appErrors "github.com/noah-isme/djschool-api/pkg/errors"
)

type fakePaymentRepo struct {
	rows    map[string]*models.InstructorPayment
	updated *models.InstructorPayment
}

func newFakePaymentRepo(rows ...models.InstructorPayment) *fakePaymentRepo {
	r := &fakePaymentRepo{rows: make(map[string]*models.InstructorPayment)}
	for i := range rows {
		p := rows[i]
		r.rows[p.ID] = &p
	}
	return r
}

func (r *fakePaymentRepo) Create(_ context.Context, p *models.InstructorPayment) error {
	p.ID = "pay-new"
	r.rows[p.ID] = p
	return nil
}

func (r *fakePaymentRepo) FindByID(_ context.Context, id string) (*models.InstructorPayment, error) {
	p, ok := r.rows[id]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "payment not found")
	}
	cp := *p
	return &cp, nil
}

func (r *fakePaymentRepo) UpdateWork(_ context.Context, p *models.InstructorPayment) (*models.InstructorPayment, error) {
	r.updated = p
	r.rows[p.ID] = p
	return p, nil
}

func (r *fakePaymentRepo) MarkPaid(_ context.Context, id string, paidAt time.Time) (*models.InstructorPayment, error) {
	p := r.rows[id]
	if p.Status == models.PaymentPaid {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "payment is already paid")
	}
	p.Status = models.PaymentPaid
	p.PaidAt = &paidAt
	return p, nil
}

func paymentFixture(repo *fakePaymentRepo) *PaymentService {
	collections := &Collections{
		Instructors: staticCollection(TagInstructors, []models.InstructorRecord{{ID: "i1", Status: models.StatusActive, HourlyRate: 42.5}}, nil),
	}
	return NewPaymentService(collections, repo, NewRefreshCoordinator(RefreshCoordinatorConfig{}), nil, nil)
}

func TestCreatePaymentDefaultsToInstructorRate(t *testing.T) {
	repo := newFakePaymentRepo()
	svc := paymentFixture(repo)
	ctx := asUser(context.Background(), "admin-1", models.RoleAdmin)

	res, err := svc.Create(ctx, models.CreatePaymentRequest{
		InstructorID: "i1",
		HoursWorked:  3.5,
		PeriodStart:  "2024-03-01",
		PeriodEnd:    "2024-03-31",
	})
	require.NoError(t, err)
	assert.Equal(t, 42.5, res.Value.HourlyRate)
	assert.Equal(t, 148.75, res.Value.Amount)
	assert.Equal(t, models.PaymentPending, res.Value.Status)
	assert.Equal(t, "Payment recorded", res.Notice)
}

func TestCreatePaymentRejectsInvertedPeriod(t *testing.T) {
	svc := paymentFixture(newFakePaymentRepo())
	ctx := asUser(context.Background(), "admin-1", models.RoleAdmin)

	_, err := svc.Create(ctx, models.CreatePaymentRequest{
		InstructorID: "i1",
		HoursWorked:  1,
		PeriodStart:  "2024-03-31",
		PeriodEnd:    "2024-03-01",
	})
	assert.True(t, appErrors.IsKind(err, appErrors.KindValidation))
}

func TestUpdatePaymentRecomputesAmount(t *testing.T) {
	repo := newFakePaymentRepo(models.InstructorPayment{ID: "p1", InstructorID: "i1", Status: models.PaymentPending, HoursWorked: 2, HourlyRate: 50, Amount: 100})
	svc := paymentFixture(repo)
	ctx := asUser(context.Background(), "admin-1", models.RoleAdmin)

	hours := 3.333
	res, err := svc.Update(ctx, "p1", models.UpdatePaymentRequest{HoursWorked: &hours})
	require.NoError(t, err)
	assert.Equal(t, 166.65, res.Value.Amount)
	assert.Equal(t, 50.0, res.Value.HourlyRate)

	rate := 10.0
	res, err = svc.Update(ctx, "p1", models.UpdatePaymentRequest{HourlyRate: &rate})
	require.NoError(t, err)
	assert.Equal(t, 33.33, res.Value.Amount)
}

func TestUpdatePaidPaymentIsPreconditionFailure(t *testing.T) {
	repo := newFakePaymentRepo(models.InstructorPayment{ID: "p1", Status: models.PaymentPaid, HoursWorked: 2, HourlyRate: 50, Amount: 100})
	svc := paymentFixture(repo)
	ctx := asUser(context.Background(), "admin-1", models.RoleAdmin)

	hours := 5.0
	res, err := svc.Update(ctx, "p1", models.UpdatePaymentRequest{HoursWorked: &hours})
	assert.ErrorIs(t, err, appErrors.ErrPreconditionFailed)
	assert.Equal(t, "payment is already paid", res.Notice)
	assert.Nil(t, repo.updated)

	_, err = svc.MarkPaid(ctx, "p1")
	assert.ErrorIs(t, err, appErrors.ErrPreconditionFailed)
}

func TestSummariseSplitsLedger(t *testing.T) {
	paid := time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC)
	views := summarise(nil)
	assert.Empty(t, views.Pending)
	assert.Empty(t, views.History)
	assert.Zero(t, views.Totals.PendingAmount)

	svc := paymentFixture(newFakePaymentRepo())
	svc.collections.Payments = staticCollection(TagPayments, []models.InstructorPayment{
		{ID: "p1", InstructorID: "i1", Status: models.PaymentPending, Amount: 10.005, HoursWorked: 1},
		{ID: "p2", InstructorID: "i1", Status: models.PaymentPaid, Amount: 20, HoursWorked: 2, PaidAt: &paid},
	}, nil)
	svc.collections.Profiles = staticCollection(TagProfiles, []models.Profile{{ID: "i1", FirstName: "Ada", LastName: "Lovelace"}}, nil)

	out, err := svc.Summary(asUser(context.Background(), "i1", models.RoleInstructor), models.PaymentFilter{})
	require.NoError(t, err)
	require.Len(t, out.Pending, 1)
	require.Len(t, out.History, 1)
	assert.Equal(t, "Ada Lovelace", out.Pending[0].InstructorName)
	assert.Equal(t, 20.0, out.Totals.PaidAmount)
	assert.Equal(t, 1, out.Totals.PendingCount)
}
