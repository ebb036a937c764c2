package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/djschool-api/internal/dto"
	"github.com/noah-isme/djschool-api/internal/models"
	"github.com/noah-isme/djschool-api/internal/schema"
	appErrors "github.com/noah-isme/djschool-api/pkg/errors"
	"github.com/noah-isme/djschool-api/pkg/htmlsanitize"
	"github.com/noah-isme/djschool-api/pkg/join"
	"github.com/noah-isme/djschool-api/pkg/query"
)

type studentRepository interface {
	Ensure(ctx context.Context, id string) (*models.StudentRecord, error)
	UpdateSelf(ctx context.Context, id string, level *models.StudentLevel, notes *string) (*models.StudentRecord, error)
	TransitionStatus(ctx context.Context, id string, from []models.RecordStatus, to models.RecordStatus) (*models.StudentRecord, error)
}

var errNotStudent = appErrors.Clone(appErrors.ErrForbidden, "only students have a student record")

type studentAccountRepository interface {
	CreateStudentAccount(ctx context.Context, profile *models.Profile, student *models.StudentRecord) error
}

// StudentService manages student records and their moderation.
type StudentService struct {
	collections *Collections
	repo        studentRepository
	accounts    studentAccountRepository
	coordinator *RefreshCoordinator
	validator   *validator.Validate
	logger      *zap.Logger
	minPassword int
}

// NewStudentService constructs a StudentService.
func NewStudentService(collections *Collections, repo studentRepository, accounts studentAccountRepository, coordinator *RefreshCoordinator, validate *validator.Validate, logger *zap.Logger, minPassword int) *StudentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{
		collections: collections,
		repo:        repo,
		accounts:    accounts,
		coordinator: coordinator,
		validator:   ensureValidator(validate),
		logger:      logger,
		minPassword: minPassword,
	}
}

// ListByStatus returns students in status joined with their profiles. An
// empty status lists every student. search matches name or email.
func (s *StudentService) ListByStatus(ctx context.Context, status models.RecordStatus, search string) ([]dto.StudentView, error) {
	if status != "" && !status.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown status "+string(status))
	}
	var where []query.Condition
	if status != "" {
		where = append(where, schema.Students.Status.Eq(status))
	}
	students, err := s.collections.Students.Fetch(ctx, where...).Unwrap()
	if err != nil {
		return nil, err
	}
	views, err := s.join(ctx, students)
	if err != nil {
		return nil, err
	}
	return filterByName(views, search, func(v dto.StudentView) string { return v.Name + " " + v.Email }), nil
}

// Get returns one student joined with its profile.
func (s *StudentService) Get(ctx context.Context, id string) (*dto.StudentView, error) {
	rec, err := s.collections.Students.MaybeOne(ctx, schema.Students.ID.Eq(id))
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
	}
	views, err := s.join(ctx, []models.StudentRecord{*rec})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// EnsureRecord returns the caller's student record, creating a pending one
// the first time. Only student profiles own a student record.
func (s *StudentService) EnsureRecord(ctx context.Context) (*models.StudentRecord, error) {
	claims := ClaimsFrom(ctx)
	if claims == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if claims.Role != models.RoleStudent {
		return nil, errNotStudent
	}
	rec, err := s.collections.Students.MaybeOne(ctx, schema.Students.ID.Eq(claims.UserID))
	if err != nil {
		return nil, err
	}
	if rec != nil {
		return rec, nil
	}
	rec, err = s.repo.Ensure(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}
	s.logger.Info("created student record", zap.String("student_id", claims.UserID))
	s.coordinator.InvalidateTags(ctx, TagStudents)
	return rec, nil
}

// UpdateSelf edits the caller's level and notes.
func (s *StudentService) UpdateSelf(ctx context.Context, req models.StudentSelfUpdate) (Result[*models.StudentRecord], error) {
	var level *models.StudentLevel
	return RunMutation(ctx, s.coordinator, Mutation[*models.StudentRecord]{
		Name:         "student.update_self",
		RequireActor: true,
		Check: func(ctx context.Context) error {
			if ClaimsFrom(ctx).Role != models.RoleStudent {
				return errNotStudent
			}
			if err := s.validator.Struct(req); err != nil {
				return validationError(err)
			}
			if req.Level != nil {
				parsed, _ := models.ParseStudentLevel(*req.Level)
				level = &parsed
			}
			return nil
		},
		Write: func(ctx context.Context) (*models.StudentRecord, error) {
			var notes *string
			if req.Notes != nil {
				clean := htmlsanitize.PlainText(*req.Notes)
				notes = &clean
			}
			return s.repo.UpdateSelf(ctx, ClaimsFrom(ctx).UserID, level, notes)
		},
		Success:    "Profile updated",
		Invalidate: []string{TagStudents},
	})
}

// Transition applies an admin moderation action to a student.
func (s *StudentService) Transition(ctx context.Context, id string, action models.StatusAction) (Result[*models.StudentRecord], error) {
	to, from, ok := action.Transition()
	return RunMutation(ctx, s.coordinator, Mutation[*models.StudentRecord]{
		Name:          "student." + string(action),
		RequireActor:  true,
		TargetID:      id,
		RequireTarget: true,
		Check: func(context.Context) error {
			if !ok {
				return appErrors.Clone(appErrors.ErrValidation, "unknown action "+string(action))
			}
			return nil
		},
		Write: func(ctx context.Context) (*models.StudentRecord, error) {
			return s.repo.TransitionStatus(ctx, id, from, to)
		},
		Success:    "Student " + string(to),
		Invalidate: []string{TagStudents},
	})
}

// CreateDemo creates a pending student account for a walk-in. Without a
// password the account cannot sign in until an admin resets it.
func (s *StudentService) CreateDemo(ctx context.Context, req models.DemoStudentRequest) (Result[*dto.StudentView], error) {
	return RunMutation(ctx, s.coordinator, Mutation[*dto.StudentView]{
		Name:         "student.create_demo",
		RequireActor: true,
		Check: func(context.Context) error {
			if err := s.validator.Struct(req); err != nil {
				return validationError(err)
			}
			if req.Password != "" {
				return checkPassword(req.Password, s.minPassword)
			}
			return nil
		},
		Write: func(ctx context.Context) (*dto.StudentView, error) {
			profile := &models.Profile{
				ID:        uuid.NewString(),
				Email:     req.Email,
				FirstName: strings.TrimSpace(req.FirstName),
				LastName:  strings.TrimSpace(req.LastName),
			}
			if req.Password != "" {
				hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
				if err != nil {
					return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
				}
				profile.PasswordHash = string(hash)
			}
			student := &models.StudentRecord{Level: models.LevelBeginner}
			if level, ok := models.ParseStudentLevel(req.Level); ok {
				student.Level = level
			}
			if err := s.accounts.CreateStudentAccount(ctx, profile, student); err != nil {
				return nil, err
			}
			view := joinStudents([]models.StudentRecord{*student}, map[string]models.Profile{profile.ID: *profile})[0]
			return &view, nil
		},
		Success:    "Demo student created",
		Invalidate: []string{TagStudents, TagProfiles},
	})
}

func (s *StudentService) join(ctx context.Context, students []models.StudentRecord) ([]dto.StudentView, error) {
	profiles, err := fetchProfiles(ctx, s.collections, join.Keys(students, func(st models.StudentRecord) (string, bool) { return join.Required(st.ID) }))
	if err != nil {
		return nil, err
	}
	return joinStudents(students, profileIndex(profiles)), nil
}

// filterByName keeps items whose text contains term, case-insensitively.
func filterByName[T any](items []T, term string, text func(T) string) []T {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return items
	}
	out := make([]T, 0, len(items))
	for _, it := range items {
		if strings.Contains(strings.ToLower(text(it)), term) {
			out = append(out, it)
		}
	}
	return out
}
