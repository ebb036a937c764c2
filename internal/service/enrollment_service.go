package service

import (
	"context"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/djschool-api/internal/dto"
	"github.com/noah-isme/djschool-api/internal/models"
	"github.com/noah-isme/djschool-api/internal/schema"
	appErrors "github.com/noah-isme/djschool-api/pkg/errors"
	"github.com/noah-isme/djschool-api/pkg/join"
	"github.com/noah-isme/djschool-api/pkg/query"
)

type enrollmentRepository interface {
	Enroll(ctx context.Context, req models.EnrollRequest) (*models.Enrollment, error)
	Deactivate(ctx context.Context, id string) (*models.Enrollment, error)
	ListForStudentWithClass(ctx context.Context, studentID string) ([]models.EnrollmentWithClass, error)
}

// EnrollmentService links students to classes and instructors.
type EnrollmentService struct {
	collections *Collections
	repo        enrollmentRepository
	coordinator *RefreshCoordinator
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewEnrollmentService constructs an EnrollmentService.
func NewEnrollmentService(collections *Collections, repo enrollmentRepository, coordinator *RefreshCoordinator, validate *validator.Validate, logger *zap.Logger) *EnrollmentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EnrollmentService{collections: collections, repo: repo, coordinator: coordinator, validator: ensureValidator(validate), logger: logger}
}

// ListForStudent resolves enrollment -> class -> instructor -> profile. The
// class arrives nested with the enrollment; the remaining hops are joined
// from independently fetched collections.
func (s *EnrollmentService) ListForStudent(ctx context.Context, studentID string) ([]dto.EnrollmentView, error) {
	rows, err := s.repo.ListForStudentWithClass(ctx, studentID)
	if err != nil {
		return nil, err
	}

	enrollments := make([]models.Enrollment, len(rows))
	var classes []models.ClassSession
	for i, row := range rows {
		enrollments[i] = row.Enrollment
		if class := row.Class.Get(); class != nil {
			classes = append(classes, *class)
		}
	}

	instructorIDs := join.Keys(enrollments, func(e models.Enrollment) (string, bool) { return join.Present(e.InstructorID) })
	instructorIDs = append(instructorIDs, join.Keys(classes, func(c models.ClassSession) (string, bool) { return join.Present(c.InstructorID) })...)
	classList, names, err := classViewsWith(ctx, s.collections, classes, dedupe(instructorIDs))
	if err != nil {
		return nil, err
	}
	return joinEnrollments(enrollments, classList, names), nil
}

// ListForInstructor returns enrollments taught by instructorID, directly or
// through one of their classes, joined with student names.
func (s *EnrollmentService) ListForInstructor(ctx context.Context, instructorID string) ([]dto.EnrollmentView, error) {
	classes, err := s.collections.Classes.Fetch(ctx, schema.Classes.InstructorID.Eq(instructorID)).Unwrap()
	if err != nil {
		return nil, err
	}
	classIDs := join.Keys(classes, func(c models.ClassSession) (string, bool) { return join.Required(c.ID) })
	cond := schema.Enrollments.InstructorID.Eq(instructorID)
	if len(classIDs) > 0 {
		cond = query.Or(cond, schema.Enrollments.ClassID.In(classIDs...))
	}
	enrollments, err := s.collections.Enrollments.Fetch(ctx, cond).Unwrap()
	if err != nil {
		return nil, err
	}

	classList, names, err := classViewsWith(ctx, s.collections, classes, []string{instructorID})
	if err != nil {
		return nil, err
	}
	views := joinEnrollments(enrollments, classList, names)

	profiles, err := fetchProfiles(ctx, s.collections, join.Keys(views, func(v dto.EnrollmentView) (string, bool) { return join.Required(v.StudentID) }))
	if err != nil {
		return nil, err
	}
	return join.Attach(views, profileIndex(profiles),
		func(v dto.EnrollmentView) (string, bool) { return join.Required(v.StudentID) },
		func(v *dto.EnrollmentView, p *models.Profile) { v.StudentName = displayName(p) }), nil
}

// Enroll creates an active enrollment. A second active enrollment with the
// same instructor is rejected.
func (s *EnrollmentService) Enroll(ctx context.Context, req models.EnrollRequest) (Result[*models.Enrollment], error) {
	return RunMutation(ctx, s.coordinator, Mutation[*models.Enrollment]{
		Name:          "enrollment.create",
		RequireActor:  true,
		TargetID:      req.StudentID,
		RequireTarget: true,
		Check: func(ctx context.Context) error {
			if err := s.validator.Struct(req); err != nil {
				return validationError(err)
			}
			if _, ok := join.Present(req.ClassID); !ok {
				req.ClassID = nil
			}
			if _, ok := join.Present(req.InstructorID); !ok {
				req.InstructorID = nil
			}
			if req.ClassID == nil && req.InstructorID == nil {
				return appErrors.Clone(appErrors.ErrValidation, "class_id or instructor_id is required")
			}
			if err := requireSelfOrAdmin(ctx, req.StudentID); err != nil {
				return err
			}
			student, err := s.collections.Students.MaybeOne(ctx, schema.Students.ID.Eq(req.StudentID))
			if err != nil {
				return err
			}
			if student == nil {
				return appErrors.Clone(appErrors.ErrNotFound, "student not found")
			}
			if student.EnrollmentStatus != models.StatusActive {
				return appErrors.Clone(appErrors.ErrPreconditionFailed, "student is "+string(student.EnrollmentStatus))
			}
			if req.ClassID != nil && req.InstructorID == nil {
				class, err := s.collections.Classes.MaybeOne(ctx, schema.Classes.ID.Eq(*req.ClassID))
				if err != nil {
					return err
				}
				if class == nil {
					return appErrors.Clone(appErrors.ErrNotFound, "class not found")
				}
				req.InstructorID = class.InstructorID
			}
			return nil
		},
		Write: func(ctx context.Context) (*models.Enrollment, error) {
			return s.repo.Enroll(ctx, req)
		},
		Success:    "Enrolled",
		Invalidate: []string{TagEnrollments},
	})
}

// Deactivate ends an enrollment.
func (s *EnrollmentService) Deactivate(ctx context.Context, id string) (Result[*models.Enrollment], error) {
	return RunMutation(ctx, s.coordinator, Mutation[*models.Enrollment]{
		Name:          "enrollment.deactivate",
		RequireActor:  true,
		TargetID:      id,
		RequireTarget: true,
		Write: func(ctx context.Context) (*models.Enrollment, error) {
			return s.repo.Deactivate(ctx, id)
		},
		Success:    "Enrollment ended",
		Invalidate: []string{TagEnrollments},
	})
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
