package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/lib/pq"
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

type instructorRepository interface {
	Update(ctx context.Context, id string, in models.InstructorUpdate) (*models.InstructorRecord, error)
	TransitionStatus(ctx context.Context, id string, from []models.RecordStatus, to models.RecordStatus) (*models.InstructorRecord, error)
}

type instructorAccountRepository interface {
	CreateInstructorAccount(ctx context.Context, profile *models.Profile, instructor *models.InstructorRecord) error
	ConvertToInstructor(ctx context.Context, instructor *models.InstructorRecord) error
}

// InstructorService manages instructor records.
type InstructorService struct {
	collections *Collections
	repo        instructorRepository
	accounts    instructorAccountRepository
	coordinator *RefreshCoordinator
	validator   *validator.Validate
	logger      *zap.Logger
	minPassword int
}

// NewInstructorService constructs an InstructorService.
func NewInstructorService(collections *Collections, repo instructorRepository, accounts instructorAccountRepository, coordinator *RefreshCoordinator, validate *validator.Validate, logger *zap.Logger, minPassword int) *InstructorService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InstructorService{
		collections: collections,
		repo:        repo,
		accounts:    accounts,
		coordinator: coordinator,
		validator:   ensureValidator(validate),
		logger:      logger,
		minPassword: minPassword,
	}
}

// InstructorFilter narrows instructor listings.
type InstructorFilter struct {
	Status    models.RecordStatus
	Specialty string
	Search    string
}

// List returns instructors joined with their profiles.
func (s *InstructorService) List(ctx context.Context, filter InstructorFilter) ([]dto.InstructorView, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown status "+string(filter.Status))
	}
	var where []query.Condition
	if filter.Status != "" {
		where = append(where, schema.Instructors.Status.Eq(filter.Status))
	}
	if specialty := strings.TrimSpace(filter.Specialty); specialty != "" {
		where = append(where, schema.Instructors.Specialties.Contains(specialty))
	}
	instructors, err := s.collections.Instructors.Fetch(ctx, where...).Unwrap()
	if err != nil {
		return nil, err
	}
	views, err := s.join(ctx, instructors)
	if err != nil {
		return nil, err
	}
	return filterByName(views, filter.Search, func(v dto.InstructorView) string { return v.Name + " " + v.Email }), nil
}

// Get returns one instructor joined with its profile.
func (s *InstructorService) Get(ctx context.Context, id string) (*dto.InstructorView, error) {
	rec, err := s.collections.Instructors.MaybeOne(ctx, schema.Instructors.ID.Eq(id))
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "instructor not found")
	}
	views, err := s.join(ctx, []models.InstructorRecord{*rec})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// Create registers a new account with an active instructor record.
func (s *InstructorService) Create(ctx context.Context, req models.CreateInstructorRequest) (Result[*dto.InstructorView], error) {
	return RunMutation(ctx, s.coordinator, Mutation[*dto.InstructorView]{
		Name:         "instructor.create",
		RequireActor: true,
		Check: func(context.Context) error {
			if err := s.validator.Struct(req); err != nil {
				return validationError(err)
			}
			return checkPassword(req.Password, s.minPassword)
		},
		Write: func(ctx context.Context) (*dto.InstructorView, error) {
			hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
			if err != nil {
				return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
			}
			profile := &models.Profile{
				ID:           uuid.NewString(),
				Email:        req.Email,
				PasswordHash: string(hash),
				FirstName:    strings.TrimSpace(req.FirstName),
				LastName:     strings.TrimSpace(req.LastName),
			}
			rec := instructorRecord(req.InstructorDetails)
			rec.Status = models.StatusActive
			if err := s.accounts.CreateInstructorAccount(ctx, profile, rec); err != nil {
				if appErrors.IsKind(err, appErrors.KindConflict) {
					return nil, appErrors.Clone(appErrors.ErrConflict, "email is already registered")
				}
				return nil, err
			}
			view := joinInstructors([]models.InstructorRecord{*rec}, map[string]models.Profile{profile.ID: *profile})[0]
			return &view, nil
		},
		Success:    "Instructor created",
		Invalidate: []string{TagInstructors, TagProfiles},
	})
}

// Convert turns an existing non-admin profile into an active instructor.
func (s *InstructorService) Convert(ctx context.Context, req models.ConvertInstructorRequest) (Result[*dto.InstructorView], error) {
	var profile *models.Profile
	return RunMutation(ctx, s.coordinator, Mutation[*dto.InstructorView]{
		Name:          "instructor.convert",
		RequireActor:  true,
		TargetID:      req.ProfileID,
		RequireTarget: true,
		Check: func(ctx context.Context) error {
			if err := s.validator.Struct(req); err != nil {
				return validationError(err)
			}
			var err error
			profile, err = s.collections.Profiles.MaybeOne(ctx, schema.Profiles.ID.Eq(req.ProfileID))
			if err != nil {
				return err
			}
			if profile == nil {
				return appErrors.Clone(appErrors.ErrNotFound, "profile not found")
			}
			if profile.Role != models.RoleStudent {
				return appErrors.Clone(appErrors.ErrPreconditionFailed, "only student profiles can be converted")
			}
			return nil
		},
		Write: func(ctx context.Context) (*dto.InstructorView, error) {
			rec := instructorRecord(req.InstructorDetails)
			rec.ID = profile.ID
			rec.Status = models.StatusActive
			if err := s.accounts.ConvertToInstructor(ctx, rec); err != nil {
				if appErrors.IsKind(err, appErrors.KindConflict) {
					return nil, appErrors.Clone(appErrors.ErrConflict, "profile is already an instructor")
				}
				return nil, err
			}
			converted := *profile
			converted.Role = models.RoleInstructor
			view := joinInstructors([]models.InstructorRecord{*rec}, map[string]models.Profile{converted.ID: converted})[0]
			return &view, nil
		},
		Success:    "Profile converted to instructor",
		Invalidate: []string{TagInstructors, TagProfiles, TagStudents},
	})
}

// Update edits an instructor's details. Instructors may edit their own
// profile fields; the hourly rate and experience stay with admins.
func (s *InstructorService) Update(ctx context.Context, id string, details models.InstructorUpdate) (Result[*models.InstructorRecord], error) {
	return RunMutation(ctx, s.coordinator, Mutation[*models.InstructorRecord]{
		Name:          "instructor.update",
		RequireActor:  true,
		TargetID:      id,
		RequireTarget: true,
		Check: func(ctx context.Context) error {
			if err := s.validator.Struct(details); err != nil {
				return validationError(err)
			}
			if err := requireSelfOrAdmin(ctx, id); err != nil {
				return err
			}
			if details.TouchesPay() && ClaimsFrom(ctx).Role != models.RoleAdmin {
				return appErrors.Clone(appErrors.ErrForbidden, "only admins can change hourly rate or experience")
			}
			return nil
		},
		Write: func(ctx context.Context) (*models.InstructorRecord, error) {
			if details.Specialties != nil {
				details.Specialties = normaliseSpecialties(details.Specialties)
			}
			if details.Bio != nil {
				clean := htmlsanitize.Sanitize(*details.Bio)
				details.Bio = &clean
			}
			return s.repo.Update(ctx, id, details)
		},
		Success:    "Instructor updated",
		Invalidate: []string{TagInstructors},
	})
}

// Transition applies an admin moderation action to an instructor.
func (s *InstructorService) Transition(ctx context.Context, id string, action models.StatusAction) (Result[*models.InstructorRecord], error) {
	to, from, ok := action.Transition()
	return RunMutation(ctx, s.coordinator, Mutation[*models.InstructorRecord]{
		Name:          "instructor." + string(action),
		RequireActor:  true,
		TargetID:      id,
		RequireTarget: true,
		Check: func(context.Context) error {
			if !ok {
				return appErrors.Clone(appErrors.ErrValidation, "unknown action "+string(action))
			}
			return nil
		},
		Write: func(ctx context.Context) (*models.InstructorRecord, error) {
			return s.repo.TransitionStatus(ctx, id, from, to)
		},
		Success:    "Instructor " + string(to),
		Invalidate: []string{TagInstructors, TagClasses},
	})
}

func (s *InstructorService) join(ctx context.Context, instructors []models.InstructorRecord) ([]dto.InstructorView, error) {
	profiles, err := fetchProfiles(ctx, s.collections, join.Keys(instructors, func(in models.InstructorRecord) (string, bool) { return join.Required(in.ID) }))
	if err != nil {
		return nil, err
	}
	return joinInstructors(instructors, profileIndex(profiles)), nil
}

func instructorRecord(d models.InstructorDetails) *models.InstructorRecord {
	rec := &models.InstructorRecord{
		Specialties:     pq.StringArray(normaliseSpecialties(d.Specialties)),
		HourlyRate:      d.HourlyRate,
		YearsExperience: d.YearsExperience,
	}
	if d.Bio != nil {
		clean := htmlsanitize.Sanitize(*d.Bio)
		rec.Bio = &clean
	}
	return rec
}

// normaliseSpecialties trims, drops blanks and removes case-insensitive duplicates.
func normaliseSpecialties(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		key := strings.ToLower(s)
		if s == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, s)
	}
	return out
}

// requireSelfOrAdmin allows the caller to act on their own id, or any id
// when they are an admin.
func requireSelfOrAdmin(ctx context.Context, id string) error {
	claims := ClaimsFrom(ctx)
	if claims == nil {
		return appErrors.ErrUnauthorized
	}
	if claims.Role == models.RoleAdmin || claims.UserID == id {
		return nil
	}
	return appErrors.ErrForbidden
}
