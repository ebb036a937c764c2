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
)

type attendanceRepository interface {
	Create(ctx context.Context, record *models.Attendance) error
	UpdateStatus(ctx context.Context, id string, status models.AttendanceStatus, notes *string) (*models.Attendance, error)
}

// AttendanceService records attendance and derives display statuses.
type AttendanceService struct {
	collections *Collections
	repo        attendanceRepository
	coordinator *RefreshCoordinator
	validator   *validator.Validate
	logger      *zap.Logger
	now         func() time.Time
}

// NewAttendanceService constructs an AttendanceService.
func NewAttendanceService(collections *Collections, repo attendanceRepository, coordinator *RefreshCoordinator, validate *validator.Validate, logger *zap.Logger) *AttendanceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AttendanceService{collections: collections, repo: repo, coordinator: coordinator, validator: ensureValidator(validate), logger: logger, now: time.Now}
}

// ListForStudent returns every record of studentID with its display status
// and the current week's attendance rate.
func (s *AttendanceService) ListForStudent(ctx context.Context, studentID string) (*dto.AttendanceList, error) {
	records, err := s.collections.Attendance.Fetch(ctx, schema.Attendance.StudentID.Eq(studentID)).Unwrap()
	if err != nil {
		return nil, err
	}
	classIDs := join.Keys(records, func(a models.Attendance) (string, bool) { return join.Present(a.ClassID) })
	var classes []models.ClassSession
	if len(classIDs) > 0 {
		if classes, err = s.collections.Classes.Fetch(ctx, schema.Classes.ID.In(classIDs...)).Unwrap(); err != nil {
			return nil, err
		}
	}
	now := s.now()
	views := attendanceViews(records, classes, now)
	return &dto.AttendanceList{Records: views, WeekRate: weekRate(records, now)}, nil
}

// WeekRate returns the attendance rate of studentID for the current week.
func (s *AttendanceService) WeekRate(ctx context.Context, studentID string) (int, error) {
	records, err := s.collections.Attendance.Fetch(ctx, schema.Attendance.StudentID.Eq(studentID)).Unwrap()
	if err != nil {
		return 0, err
	}
	return weekRate(records, s.now()), nil
}

// Record stores one attendance row.
func (s *AttendanceService) Record(ctx context.Context, req models.RecordAttendanceRequest) (Result[*models.Attendance], error) {
	var date time.Time
	return RunMutation(ctx, s.coordinator, Mutation[*models.Attendance]{
		Name:          "attendance.record",
		RequireActor:  true,
		TargetID:      req.StudentID,
		RequireTarget: true,
		Check: func(context.Context) error {
			if err := s.validator.Struct(req); err != nil {
				return validationError(err)
			}
			if models.AttendanceStatus(req.Status) == models.AttendanceMadeUp {
				return appErrors.Clone(appErrors.ErrValidation, "made-up is derived and cannot be stored")
			}
			date, _ = time.Parse("2006-01-02", req.Date)
			return nil
		},
		Write: func(ctx context.Context) (*models.Attendance, error) {
			record := &models.Attendance{
				StudentID: req.StudentID,
				ClassID:   req.ClassID,
				Date:      date,
				Status:    models.AttendanceStatus(req.Status),
				Notes:     plainPtr(req.Notes),
			}
			if err := s.repo.Create(ctx, record); err != nil {
				if appErrors.IsKind(err, appErrors.KindConflict) {
					return nil, appErrors.Clone(appErrors.ErrConflict, "attendance already recorded for this date")
				}
				return nil, err
			}
			return record, nil
		},
		Success:    "Attendance recorded",
		Invalidate: []string{TagAttendance},
	})
}

// UpdateStatus overwrites a stored status.
func (s *AttendanceService) UpdateStatus(ctx context.Context, id string, req models.UpdateAttendanceRequest) (Result[*models.Attendance], error) {
	return RunMutation(ctx, s.coordinator, Mutation[*models.Attendance]{
		Name:          "attendance.update",
		RequireActor:  true,
		TargetID:      id,
		RequireTarget: true,
		Check: func(context.Context) error {
			if err := s.validator.Struct(req); err != nil {
				return validationError(err)
			}
			if models.AttendanceStatus(req.Status) == models.AttendanceMadeUp {
				return appErrors.Clone(appErrors.ErrValidation, "made-up is derived and cannot be stored")
			}
			return nil
		},
		Write: func(ctx context.Context) (*models.Attendance, error) {
			return s.repo.UpdateStatus(ctx, id, models.AttendanceStatus(req.Status), plainPtr(req.Notes))
		},
		Success:    "Attendance updated",
		Invalidate: []string{TagAttendance},
	})
}

func attendanceViews(records []models.Attendance, classes []models.ClassSession, now time.Time) []dto.AttendanceView {
	displayed := aggregate.WithDisplayStatus(records, now)
	titles := join.Index(classes, func(c models.ClassSession) string { return c.ID })
	views := make([]dto.AttendanceView, len(records))
	for i, r := range records {
		views[i] = dto.AttendanceView{Attendance: r, DisplayStatus: displayed[i].Status}
	}
	return join.Attach(views, titles,
		func(v dto.AttendanceView) (string, bool) { return join.Present(v.ClassID) },
		func(v *dto.AttendanceView, c *models.ClassSession) {
			v.ClassTitle = ""
			if c != nil {
				v.ClassTitle = c.Title
			}
		})
}

func weekRate(records []models.Attendance, now time.Time) int {
	displayed := aggregate.WithDisplayStatus(records, now)
	return aggregate.AttendanceRate(aggregate.WeekRecords(displayed, aggregate.WeekStart(now)))
}
