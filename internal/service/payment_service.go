package service

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/djschool-api/internal/aggregate"
	"github.com/noah-isme/djschool-api/internal/dto"
	"github.com/noah-isme/djschool-api/internal/models"
	"github.com/noah-isme/djschool-api/internal/schema"
	appErrors "github.com/noah-isme/djschool-api/pkg/errors"
	"github.com/noah-isme/djschool-api/pkg/join"
	"github.com/noah-isme/djschool-api/pkg/query"
)

type paymentRepository interface {
	Create(ctx context.Context, p *models.InstructorPayment) error
	FindByID(ctx context.Context, id string) (*models.InstructorPayment, error)
	UpdateWork(ctx context.Context, p *models.InstructorPayment) (*models.InstructorPayment, error)
	MarkPaid(ctx context.Context, id string, paidAt time.Time) (*models.InstructorPayment, error)
}

// PaymentService keeps the instructor payment ledger. Amounts are always
// derived from hours and rate.
type PaymentService struct {
	collections *Collections
	repo        paymentRepository
	coordinator *RefreshCoordinator
	validator   *validator.Validate
	logger      *zap.Logger
	now         func() time.Time
}

// NewPaymentService constructs a PaymentService.
func NewPaymentService(collections *Collections, repo paymentRepository, coordinator *RefreshCoordinator, validate *validator.Validate, logger *zap.Logger) *PaymentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PaymentService{collections: collections, repo: repo, coordinator: coordinator, validator: ensureValidator(validate), logger: logger, now: time.Now}
}

// List returns payments matching filter with instructor names. Instructors
// only ever see their own rows.
func (s *PaymentService) List(ctx context.Context, filter models.PaymentFilter) ([]dto.PaymentView, error) {
	if claims := ClaimsFrom(ctx); claims != nil && claims.Role == models.RoleInstructor {
		filter.InstructorID = claims.UserID
	}
	var where []query.Condition
	if filter.InstructorID != "" {
		where = append(where, schema.Payments.InstructorID.Eq(filter.InstructorID))
	}
	if filter.Status != "" {
		where = append(where, schema.Payments.Status.Eq(filter.Status))
	}
	payments, err := s.collections.Payments.Fetch(ctx, where...).Unwrap()
	if err != nil {
		return nil, err
	}
	ids := join.Keys(payments, func(p models.InstructorPayment) (string, bool) { return join.Required(p.InstructorID) })
	profiles, err := fetchProfiles(ctx, s.collections, ids)
	if err != nil {
		return nil, err
	}
	index := profileIndex(profiles)
	views := make([]dto.PaymentView, len(payments))
	for i, p := range payments {
		views[i] = dto.PaymentView{InstructorPayment: p}
	}
	return join.Attach(views, index,
		func(v dto.PaymentView) (string, bool) { return join.Required(v.InstructorID) },
		func(v *dto.PaymentView, p *models.Profile) { v.InstructorName = displayName(p) }), nil
}

// Summary splits the filtered ledger into pending and paid with totals.
func (s *PaymentService) Summary(ctx context.Context, filter models.PaymentFilter) (*dto.PaymentSummary, error) {
	views, err := s.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	return summarise(views), nil
}

func summarise(views []dto.PaymentView) *dto.PaymentSummary {
	raw := make([]models.InstructorPayment, len(views))
	for i, v := range views {
		raw[i] = v.InstructorPayment
	}
	pending, history := aggregate.SplitPayments(views, func(v dto.PaymentView) models.PaymentStatus { return v.Status })
	return &dto.PaymentSummary{Pending: pending, History: history, Totals: aggregate.PaymentSummary(raw)}
}

// Create records pending work. The rate defaults to the instructor's
// hourly rate.
func (s *PaymentService) Create(ctx context.Context, req models.CreatePaymentRequest) (Result[*models.InstructorPayment], error) {
	var (
		start, end time.Time
		rate       float64
	)
	return RunMutation(ctx, s.coordinator, Mutation[*models.InstructorPayment]{
		Name:          "payments.create",
		RequireActor:  true,
		TargetID:      req.InstructorID,
		RequireTarget: true,
		Check: func(ctx context.Context) error {
			if err := s.validator.Struct(req); err != nil {
				return validationError(err)
			}
			start, _ = time.Parse("2006-01-02", req.PeriodStart)
			end, _ = time.Parse("2006-01-02", req.PeriodEnd)
			if end.Before(start) {
				return appErrors.Clone(appErrors.ErrValidation, "period_end must not be before period_start")
			}
			instructor, err := s.collections.Instructors.MaybeOne(ctx, schema.Instructors.ID.Eq(req.InstructorID))
			if err != nil {
				return err
			}
			if instructor == nil {
				return appErrors.Clone(appErrors.ErrNotFound, "instructor not found")
			}
			rate = instructor.HourlyRate
			if req.HourlyRate != nil {
				rate = *req.HourlyRate
			}
			return nil
		},
		Write: func(ctx context.Context) (*models.InstructorPayment, error) {
			p := &models.InstructorPayment{
				InstructorID: req.InstructorID,
				Status:       models.PaymentPending,
				HoursWorked:  req.HoursWorked,
				HourlyRate:   rate,
				Amount:       aggregate.PaymentAmount(req.HoursWorked, rate),
				PeriodStart:  start,
				PeriodEnd:    end,
				Notes:        plainPtr(req.Notes),
			}
			if err := s.repo.Create(ctx, p); err != nil {
				return nil, err
			}
			return p, nil
		},
		Success:    "Payment recorded",
		Invalidate: []string{TagPayments},
	})
}

// Update edits hours or rate of a pending payment and recomputes the amount.
func (s *PaymentService) Update(ctx context.Context, id string, req models.UpdatePaymentRequest) (Result[*models.InstructorPayment], error) {
	var current *models.InstructorPayment
	return RunMutation(ctx, s.coordinator, Mutation[*models.InstructorPayment]{
		Name:          "payments.update",
		RequireActor:  true,
		TargetID:      id,
		RequireTarget: true,
		Check: func(ctx context.Context) error {
			if err := s.validator.Struct(req); err != nil {
				return validationError(err)
			}
			p, err := s.repo.FindByID(ctx, id)
			if err != nil {
				return err
			}
			if p.Status != models.PaymentPending {
				return appErrors.Clone(appErrors.ErrPreconditionFailed, "payment is already paid")
			}
			current = p
			return nil
		},
		Write: func(ctx context.Context) (*models.InstructorPayment, error) {
			next := *current
			if req.HoursWorked != nil {
				next.HoursWorked = *req.HoursWorked
			}
			if req.HourlyRate != nil {
				next.HourlyRate = *req.HourlyRate
			}
			if req.Notes != nil {
				next.Notes = plainPtr(req.Notes)
			}
			next.Amount = aggregate.PaymentAmount(next.HoursWorked, next.HourlyRate)
			return s.repo.UpdateWork(ctx, &next)
		},
		Success:    "Payment updated",
		Invalidate: []string{TagPayments},
	})
}

// MarkPaid settles a pending payment.
func (s *PaymentService) MarkPaid(ctx context.Context, id string) (Result[*models.InstructorPayment], error) {
	return RunMutation(ctx, s.coordinator, Mutation[*models.InstructorPayment]{
		Name:          "payments.paid",
		RequireActor:  true,
		TargetID:      id,
		RequireTarget: true,
		Write: func(ctx context.Context) (*models.InstructorPayment, error) {
			return s.repo.MarkPaid(ctx, id, s.now().UTC())
		},
		Success:    "Payment marked as paid",
		Invalidate: []string{TagPayments},
	})
}
