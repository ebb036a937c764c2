package service

import (
	"context"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/djschool-api/internal/dto"
	"github.com/noah-isme/djschool-api/internal/models"
	"github.com/noah-isme/djschool-api/internal/schema"
	appErrors "github.com/noah-isme/djschool-api/pkg/errors"
	"github.com/noah-isme/djschool-api/pkg/htmlsanitize"
	"github.com/noah-isme/djschool-api/pkg/query"
)

type classRepository interface {
	Create(ctx context.Context, in models.ClassInput) (*models.ClassSession, error)
	Update(ctx context.Context, id string, in models.ClassInput) (*models.ClassSession, error)
	Delete(ctx context.Context, id string) error
}

// ClassService schedules class sessions.
type ClassService struct {
	collections *Collections
	repo        classRepository
	coordinator *RefreshCoordinator
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewClassService constructs a ClassService.
func NewClassService(collections *Collections, repo classRepository, coordinator *RefreshCoordinator, validate *validator.Validate, logger *zap.Logger) *ClassService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ClassService{collections: collections, repo: repo, coordinator: coordinator, validator: ensureValidator(validate), logger: logger}
}

// List returns sessions in the filter window joined to their instructor's
// name. Sessions without a resolvable instructor show "Not assigned".
func (s *ClassService) List(ctx context.Context, filter models.ClassFilter) ([]dto.ClassView, error) {
	classes, err := s.fetch(ctx, filter)
	if err != nil {
		return nil, err
	}
	views, _, err := classViews(ctx, s.collections, classes)
	return views, err
}

func (s *ClassService) fetch(ctx context.Context, filter models.ClassFilter) ([]models.ClassSession, error) {
	where := []query.Condition{query.Search(schema.Classes.Title, filter.Search)}
	if filter.From != nil {
		where = append(where, schema.Classes.StartTime.Gte(filter.From.UTC()))
	}
	if filter.To != nil {
		where = append(where, schema.Classes.StartTime.Lte(filter.To.UTC()))
	}
	if filter.InstructorID != "" {
		where = append(where, schema.Classes.InstructorID.Eq(filter.InstructorID))
	}
	spec := s.collections.Classes.Spec(where...)
	if filter.Limit > 0 {
		spec.Limit = filter.Limit
	}
	return s.collections.Classes.FetchSpec(ctx, spec).Unwrap()
}

// Get returns one session with its instructor resolved.
func (s *ClassService) Get(ctx context.Context, id string) (*dto.ClassView, error) {
	class, err := s.collections.Classes.MaybeOne(ctx, schema.Classes.ID.Eq(id))
	if err != nil {
		return nil, err
	}
	if class == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
	}
	views, _, err := classViews(ctx, s.collections, []models.ClassSession{*class})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// Create schedules a session.
func (s *ClassService) Create(ctx context.Context, in models.ClassInput) (Result[*models.ClassSession], error) {
	return RunMutation(ctx, s.coordinator, Mutation[*models.ClassSession]{
		Name:         "class.create",
		RequireActor: true,
		Check:        s.checkInput(&in),
		Write: func(ctx context.Context) (*models.ClassSession, error) {
			return s.repo.Create(ctx, in)
		},
		Success:    "Class scheduled",
		Invalidate: []string{TagClasses},
	})
}

// Update replaces a session.
func (s *ClassService) Update(ctx context.Context, id string, in models.ClassInput) (Result[*models.ClassSession], error) {
	return RunMutation(ctx, s.coordinator, Mutation[*models.ClassSession]{
		Name:          "class.update",
		RequireActor:  true,
		TargetID:      id,
		RequireTarget: true,
		Check:         s.checkInput(&in),
		Write: func(ctx context.Context) (*models.ClassSession, error) {
			return s.repo.Update(ctx, id, in)
		},
		Success:    "Class updated",
		Invalidate: []string{TagClasses, TagEnrollments},
	})
}

// Delete removes a session.
func (s *ClassService) Delete(ctx context.Context, id string) (Result[struct{}], error) {
	return RunMutation(ctx, s.coordinator, Mutation[struct{}]{
		Name:          "class.delete",
		RequireActor:  true,
		TargetID:      id,
		RequireTarget: true,
		Write: func(ctx context.Context) (struct{}, error) {
			return struct{}{}, s.repo.Delete(ctx, id)
		},
		Success:    "Class deleted",
		Invalidate: []string{TagClasses, TagEnrollments},
	})
}

func (s *ClassService) checkInput(in *models.ClassInput) func(context.Context) error {
	return func(ctx context.Context) error {
		if err := s.validator.Struct(in); err != nil {
			return validationError(err)
		}
		in.Title = htmlsanitize.PlainText(in.Title)
		if in.InstructorID == nil || *in.InstructorID == "" {
			in.InstructorID = nil
			return nil
		}
		instructor, err := s.collections.Instructors.MaybeOne(ctx, schema.Instructors.ID.Eq(*in.InstructorID))
		if err != nil {
			return err
		}
		if instructor == nil {
			return appErrors.Clone(appErrors.ErrNotFound, "instructor not found")
		}
		return nil
	}
}
