package service

import (
	"context"
	"sort"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/djschool-api/internal/aggregate"
	"github.com/noah-isme/djschool-api/internal/dto"
	"github.com/noah-isme/djschool-api/internal/models"
	"github.com/noah-isme/djschool-api/internal/schema"
	appErrors "github.com/noah-isme/djschool-api/pkg/errors"
	"github.com/noah-isme/djschool-api/pkg/join"
)

// DashboardServiceConfig tunes dashboard behaviour.
type DashboardServiceConfig struct {
	CacheTTL      time.Duration
	UpcomingLimit int
	RecentLimit   int
}

// DashboardServiceParams groups constructor dependencies.
type DashboardServiceParams struct {
	Collections   *Collections
	Students      *StudentService
	Instructors   *InstructorService
	Classes       *ClassService
	Enrollments   *EnrollmentService
	Attendance    *AttendanceService
	Skills        *SkillService
	Announcements *AnnouncementService
	Payments      *PaymentService
	Sessions      *SessionService
	Cache         *CacheService
	Logger        *zap.Logger
	Config        DashboardServiceConfig
}

// DashboardService composes the per-role landing pages from concurrent
// collection reads.
type DashboardService struct {
	p      DashboardServiceParams
	cfg    DashboardServiceConfig
	logger *zap.Logger
	now    func() time.Time
}

// NewDashboardService constructs a DashboardService with sane defaults.
func NewDashboardService(params DashboardServiceParams) *DashboardService {
	cfg := params.Config
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 5 * time.Minute
	}
	if cfg.UpcomingLimit <= 0 {
		cfg.UpcomingLimit = 5
	}
	if cfg.RecentLimit <= 0 {
		cfg.RecentLimit = 5
	}
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardService{p: params, cfg: cfg, logger: logger, now: time.Now}
}

func dashboardKey(role models.UserRole, id string) string {
	return "dash:" + string(role) + ":" + id
}

// ForgetSessions drops a user's cached dashboards when they sign out. The
// returned function unsubscribes.
func (s *DashboardService) ForgetSessions(sessions *SessionService) func() {
	return sessions.OnSessionChange(func(evt SessionEvent) {
		if evt.Type != SessionSignedOut || evt.UserID == "" || s.p.Cache == nil {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := s.p.Cache.Invalidate(ctx, "dash:*:"+evt.UserID); err != nil {
			s.logger.Warn("drop dashboard cache failed", zap.String("user_id", evt.UserID), zap.Error(err))
		}
	})
}

func (s *DashboardService) cached(ctx context.Context, key string, dest interface{}) bool {
	return s.p.Cache != nil && s.p.Cache.Get(ctx, key, dest)
}

func (s *DashboardService) store(ctx context.Context, key string, value interface{}) {
	if s.p.Cache != nil {
		s.p.Cache.Set(ctx, key, value, s.cfg.CacheTTL)
	}
}

// Mine returns the dashboard for the caller's role.
func (s *DashboardService) Mine(ctx context.Context) (interface{}, bool, error) {
	role, err := s.p.Sessions.CurrentRole(ctx)
	if err != nil {
		return nil, false, err
	}
	switch role {
	case models.RoleAdmin:
		out, hit, err := s.Admin(ctx)
		return out, hit, err
	case models.RoleInstructor:
		out, hit, err := s.Instructor(ctx)
		return out, hit, err
	default:
		out, hit, err := s.Student(ctx)
		return out, hit, err
	}
}

// Student returns the caller's dashboard, creating their student record on
// first visit. The bool reports a cache hit.
func (s *DashboardService) Student(ctx context.Context) (*dto.StudentDashboard, bool, error) {
	claims := ClaimsFrom(ctx)
	if claims == nil {
		return nil, false, appErrors.ErrUnauthorized
	}
	key := dashboardKey(models.RoleStudent, claims.UserID)
	var out dto.StudentDashboard
	if s.cached(ctx, key, &out) {
		return &out, true, nil
	}
	if _, err := s.p.Students.EnsureRecord(ctx); err != nil {
		return nil, false, err
	}

	id := claims.UserID
	now := s.now()
	var (
		student    *dto.StudentView
		enrolled   []dto.EnrollmentView
		attendance *dto.AttendanceList
		skills     *dto.SkillSummary
		progress   []models.StudentProgress
		notices    []dto.AnnouncementView
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) { student, err = s.p.Students.Get(gctx, id); return })
	g.Go(func() (err error) { enrolled, err = s.p.Enrollments.ListForStudent(gctx, id); return })
	g.Go(func() (err error) { attendance, err = s.p.Attendance.ListForStudent(gctx, id); return })
	g.Go(func() (err error) { skills, err = s.p.Skills.Summary(gctx, id); return })
	g.Go(func() (err error) { progress, err = s.p.Skills.Progress(gctx, id); return })
	g.Go(func() (err error) { notices, err = s.p.Announcements.List(gctx); return })
	if err := g.Wait(); err != nil {
		return nil, false, err
	}

	upcoming := upcomingFromEnrollments(enrolled, now, s.cfg.UpcomingLimit)
	out = dto.StudentDashboard{
		Student:            *student,
		UpcomingClasses:    upcoming,
		Enrollments:        enrolled,
		RecentAttendance:   recent(attendance.Records, s.cfg.RecentLimit),
		WeekAttendanceRate: attendance.WeekRate,
		AverageProficiency: skills.AverageProficiency,
		CompletedLessons:   len(progress),
		IsFirstTimeUser:    aggregate.IsFirstTimeUser(len(upcoming), len(progress)),
		Announcements:      notices,
	}
	s.store(ctx, key, out)
	return &out, false, nil
}

// Instructor returns the caller's dashboard.
func (s *DashboardService) Instructor(ctx context.Context) (*dto.InstructorDashboard, bool, error) {
	claims := ClaimsFrom(ctx)
	if claims == nil {
		return nil, false, appErrors.ErrUnauthorized
	}
	key := dashboardKey(models.RoleInstructor, claims.UserID)
	var out dto.InstructorDashboard
	if s.cached(ctx, key, &out) {
		return &out, true, nil
	}

	id := claims.UserID
	now := s.now()
	from := startOfDay(now)
	var (
		instructor *dto.InstructorView
		classes    []dto.ClassView
		enrolled   []dto.EnrollmentView
		payments   *dto.PaymentSummary
		notices    []dto.AnnouncementView
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) { instructor, err = s.p.Instructors.Get(gctx, id); return })
	g.Go(func() (err error) {
		classes, err = s.p.Classes.List(gctx, models.ClassFilter{From: &from, InstructorID: id})
		return
	})
	g.Go(func() (err error) { enrolled, err = s.p.Enrollments.ListForInstructor(gctx, id); return })
	g.Go(func() (err error) {
		payments, err = s.p.Payments.Summary(gctx, models.PaymentFilter{InstructorID: id})
		return
	})
	g.Go(func() (err error) { notices, err = s.p.Announcements.List(gctx); return })
	if err := g.Wait(); err != nil {
		return nil, false, err
	}

	students, err := s.studentsOf(ctx, enrolled)
	if err != nil {
		return nil, false, err
	}
	out = dto.InstructorDashboard{
		Instructor:      *instructor,
		UpcomingClasses: upcoming(classes, now, s.cfg.UpcomingLimit),
		Students:        students,
		Payments:        payments.Totals,
		Announcements:   notices,
		UnreadCount:     UnreadCount(notices),
	}
	s.store(ctx, key, out)
	return &out, false, nil
}

// Admin returns the school-wide overview.
func (s *DashboardService) Admin(ctx context.Context) (*dto.AdminDashboard, bool, error) {
	claims := ClaimsFrom(ctx)
	if claims == nil {
		return nil, false, appErrors.ErrUnauthorized
	}
	key := dashboardKey(models.RoleAdmin, "overview")
	var out dto.AdminDashboard
	if s.cached(ctx, key, &out) {
		return &out, true, nil
	}

	now := s.now()
	from := startOfDay(now)
	weekStart := aggregate.WeekStart(now)
	var (
		students       []models.StudentRecord
		instructors    []models.InstructorRecord
		pendingStudent []dto.StudentView
		pendingInstr   []dto.InstructorView
		classes        []dto.ClassView
		attendance     []models.Attendance
		payments       *dto.PaymentSummary
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) { students, err = s.p.Collections.Students.Fetch(gctx).Unwrap(); return })
	g.Go(func() (err error) { instructors, err = s.p.Collections.Instructors.Fetch(gctx).Unwrap(); return })
	g.Go(func() (err error) {
		pendingStudent, err = s.p.Students.ListByStatus(gctx, models.StatusPending, "")
		return
	})
	g.Go(func() (err error) {
		pendingInstr, err = s.p.Instructors.List(gctx, InstructorFilter{Status: models.StatusPending})
		return
	})
	g.Go(func() (err error) {
		classes, err = s.p.Classes.List(gctx, models.ClassFilter{From: &from})
		return
	})
	g.Go(func() (err error) {
		attendance, err = s.p.Collections.Attendance.Fetch(gctx, schema.Attendance.Date.Gte(weekStart)).Unwrap()
		return
	})
	g.Go(func() (err error) { payments, err = s.p.Payments.Summary(gctx, models.PaymentFilter{}); return })
	if err := g.Wait(); err != nil {
		return nil, false, err
	}

	displayed := aggregate.WithDisplayStatus(attendance, now)
	out = dto.AdminDashboard{
		StudentsByStatus:    aggregate.CountByStatus(students, func(r models.StudentRecord) string { return string(r.EnrollmentStatus) }),
		InstructorsByStatus: aggregate.CountByStatus(instructors, func(r models.InstructorRecord) string { return string(r.Status) }),
		PendingStudents:     pendingStudent,
		PendingInstructors:  pendingInstr,
		UpcomingClasses:     upcoming(classes, now, s.cfg.UpcomingLimit),
		WeekAttendanceRate:  aggregate.AttendanceRate(aggregate.WeekRecords(displayed, weekStart)),
		Payments:            payments.Totals,
	}
	s.store(ctx, key, out)
	return &out, false, nil
}

func (s *DashboardService) studentsOf(ctx context.Context, enrolled []dto.EnrollmentView) ([]dto.StudentView, error) {
	ids := join.Keys(enrolled, func(e dto.EnrollmentView) (string, bool) {
		return join.Required(e.StudentID)
	})
	if len(ids) == 0 {
		return []dto.StudentView{}, nil
	}
	records, err := s.p.Collections.Students.Fetch(ctx, schema.Students.ID.In(ids...)).Unwrap()
	if err != nil {
		return nil, err
	}
	return s.p.Students.join(ctx, records)
}

func upcoming(classes []dto.ClassView, now time.Time, limit int) []dto.ClassView {
	out := make([]dto.ClassView, 0, limit)
	for _, c := range classes {
		if c.StartTime.Before(now) {
			continue
		}
		out = append(out, c)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

func upcomingFromEnrollments(enrolled []dto.EnrollmentView, now time.Time, limit int) []dto.ClassView {
	classes := make([]dto.ClassView, 0, len(enrolled))
	seen := make(map[string]struct{}, len(enrolled))
	for _, e := range enrolled {
		if e.Class == nil || e.Status != models.EnrollmentStatusActive {
			continue
		}
		if _, ok := seen[e.Class.ID]; ok {
			continue
		}
		seen[e.Class.ID] = struct{}{}
		classes = append(classes, *e.Class)
	}
	return upcoming(classes, now, limit)
}

// recent returns the last n records, newest first.
func recent(records []dto.AttendanceView, n int) []dto.AttendanceView {
	out := make([]dto.AttendanceView, 0, n)
	for i := len(records) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, records[i])
	}
	return out
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
