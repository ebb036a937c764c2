package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/djschool-api/internal/models"
	"github.com/noah-isme/djschool-api/pkg/htmlsanitize"
)

type profileRepository interface {
	Update(ctx context.Context, id string, in models.ProfileUpdate) (*models.Profile, error)
}

type profileEnsurer interface {
	EnsureProfile(ctx context.Context, claims *models.JWTClaims) (*models.Profile, error)
}

// ProfileService reads and edits the caller's own profile.
type ProfileService struct {
	repo        profileRepository
	ensurer     profileEnsurer
	sessions    *SessionService
	coordinator *RefreshCoordinator
	validator   *validator.Validate
}

// NewProfileService constructs a ProfileService.
func NewProfileService(repo profileRepository, ensurer profileEnsurer, sessions *SessionService, coordinator *RefreshCoordinator, validate *validator.Validate) *ProfileService {
	return &ProfileService{repo: repo, ensurer: ensurer, sessions: sessions, coordinator: coordinator, validator: ensureValidator(validate)}
}

// Get returns the caller's profile, synthesizing it when missing.
func (s *ProfileService) Get(ctx context.Context) (*models.Profile, error) {
	claims, err := s.sessions.CurrentUser(ctx)
	if err != nil {
		return nil, err
	}
	return s.ensurer.EnsureProfile(ctx, claims)
}

// Update edits the caller's profile. The role is never changed here.
func (s *ProfileService) Update(ctx context.Context, in models.ProfileUpdate) (Result[*models.Profile], error) {
	return RunMutation(ctx, s.coordinator, Mutation[*models.Profile]{
		Name:         "profile.update",
		RequireActor: true,
		Check: func(context.Context) error {
			if err := s.validator.Struct(in); err != nil {
				return validationError(err)
			}
			return nil
		},
		Write: func(ctx context.Context) (*models.Profile, error) {
			in.FirstName = plainPtr(in.FirstName)
			in.LastName = plainPtr(in.LastName)
			in.Phone = plainPtr(in.Phone)
			if in.Bio != nil {
				clean := htmlsanitize.Sanitize(*in.Bio)
				in.Bio = &clean
			}
			return s.repo.Update(ctx, ClaimsFrom(ctx).UserID, in)
		},
		Success:    "Profile saved",
		Invalidate: []string{TagProfiles},
	})
}

func plainPtr(v *string) *string {
	if v == nil {
		return nil
	}
	clean := strings.TrimSpace(htmlsanitize.PlainText(*v))
	return &clean
}
