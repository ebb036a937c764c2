package service

import (
	"context"

	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/djschool-api/internal/dto"
	"github.com/noah-isme/djschool-api/internal/models"
	"github.com/noah-isme/djschool-api/internal/schema"
	appErrors "github.com/noah-isme/djschool-api/pkg/errors"
	"github.com/noah-isme/djschool-api/pkg/htmlsanitize"
	"github.com/noah-isme/djschool-api/pkg/join"
	"github.com/noah-isme/djschool-api/pkg/query"
)

type curriculumRepository interface {
	CreateModule(ctx context.Context, m *models.CurriculumModule) error
	UpdateModule(ctx context.Context, id string, in models.CurriculumModule) (*models.CurriculumModule, error)
	DeleteModule(ctx context.Context, id string) error
	CreateLesson(ctx context.Context, l *models.CurriculumLesson) error
	DeleteLesson(ctx context.Context, id string) error
}

// CurriculumService manages ordered modules and lessons per level.
type CurriculumService struct {
	collections *Collections
	repo        curriculumRepository
	coordinator *RefreshCoordinator
	validator   *validator.Validate
}

// NewCurriculumService constructs a CurriculumService.
func NewCurriculumService(collections *Collections, repo curriculumRepository, coordinator *RefreshCoordinator, validate *validator.Validate) *CurriculumService {
	return &CurriculumService{collections: collections, repo: repo, coordinator: coordinator, validator: ensureValidator(validate)}
}

// Modules lists modules of level (all levels when empty) with their lessons
// in order.
func (s *CurriculumService) Modules(ctx context.Context, level string) ([]dto.ModuleView, error) {
	var where []query.Condition
	if level != "" {
		lvl, ok := models.ParseStudentLevel(level)
		if !ok {
			return nil, appErrors.Clone(appErrors.ErrValidation, "unknown level "+level)
		}
		where = append(where, schema.Modules.Level.Eq(lvl))
	}
	modules, err := s.collections.Modules.Fetch(ctx, where...).Unwrap()
	if err != nil {
		return nil, err
	}
	views := make([]dto.ModuleView, len(modules))
	if len(modules) == 0 {
		return views, nil
	}
	ids := join.Keys(modules, func(m models.CurriculumModule) (string, bool) { return join.Required(m.ID) })
	lessons, err := s.collections.Lessons.Fetch(ctx, schema.Lessons.ModuleID.In(ids...)).Unwrap()
	if err != nil {
		return nil, err
	}
	byModule := join.Group(lessons, func(l models.CurriculumLesson) string { return l.ModuleID })
	for i, m := range modules {
		views[i] = dto.ModuleView{CurriculumModule: m, Lessons: byModule[m.ID]}
		if views[i].Lessons == nil {
			views[i].Lessons = []models.CurriculumLesson{}
		}
	}
	return views, nil
}

// CreateModule appends a module to its level.
func (s *CurriculumService) CreateModule(ctx context.Context, in models.ModuleInput) (Result[*models.CurriculumModule], error) {
	var module models.CurriculumModule
	return RunMutation(ctx, s.coordinator, Mutation[*models.CurriculumModule]{
		Name:         "curriculum.module.create",
		RequireActor: true,
		Check:        func(context.Context) error { return s.moduleInput(in, &module) },
		Write: func(ctx context.Context) (*models.CurriculumModule, error) {
			if err := s.repo.CreateModule(ctx, &module); err != nil {
				return nil, err
			}
			return &module, nil
		},
		Success:    "Module created",
		Invalidate: []string{TagCurriculum},
	})
}

// UpdateModule edits a module. A level change appends it to the new level.
func (s *CurriculumService) UpdateModule(ctx context.Context, id string, in models.ModuleInput) (Result[*models.CurriculumModule], error) {
	var module models.CurriculumModule
	return RunMutation(ctx, s.coordinator, Mutation[*models.CurriculumModule]{
		Name:          "curriculum.module.update",
		RequireActor:  true,
		TargetID:      id,
		RequireTarget: true,
		Check:         func(context.Context) error { return s.moduleInput(in, &module) },
		Write: func(ctx context.Context) (*models.CurriculumModule, error) {
			return s.repo.UpdateModule(ctx, id, module)
		},
		Success:    "Module updated",
		Invalidate: []string{TagCurriculum},
	})
}

// DeleteModule removes a module and its lessons.
func (s *CurriculumService) DeleteModule(ctx context.Context, id string) (Result[struct{}], error) {
	return RunMutation(ctx, s.coordinator, Mutation[struct{}]{
		Name:          "curriculum.module.delete",
		RequireActor:  true,
		TargetID:      id,
		RequireTarget: true,
		Write: func(ctx context.Context) (struct{}, error) {
			return struct{}{}, s.repo.DeleteModule(ctx, id)
		},
		Success:    "Module deleted",
		Invalidate: []string{TagCurriculum, TagProgress},
	})
}

// CreateLesson appends a lesson to moduleID.
func (s *CurriculumService) CreateLesson(ctx context.Context, moduleID string, in models.LessonInput) (Result[*models.CurriculumLesson], error) {
	return RunMutation(ctx, s.coordinator, Mutation[*models.CurriculumLesson]{
		Name:          "curriculum.lesson.create",
		RequireActor:  true,
		TargetID:      moduleID,
		RequireTarget: true,
		Check: func(context.Context) error {
			if err := s.validator.Struct(in); err != nil {
				return validationError(err)
			}
			return nil
		},
		Write: func(ctx context.Context) (*models.CurriculumLesson, error) {
			lesson := &models.CurriculumLesson{
				ModuleID: moduleID,
				Title:    htmlsanitize.PlainText(in.Title),
			}
			if in.Content != nil {
				content := htmlsanitize.Sanitize(*in.Content)
				lesson.Content = &content
			}
			if err := s.repo.CreateLesson(ctx, lesson); err != nil {
				return nil, err
			}
			return lesson, nil
		},
		Success:    "Lesson created",
		Invalidate: []string{TagCurriculum},
	})
}

// DeleteLesson removes a lesson.
func (s *CurriculumService) DeleteLesson(ctx context.Context, id string) (Result[struct{}], error) {
	return RunMutation(ctx, s.coordinator, Mutation[struct{}]{
		Name:          "curriculum.lesson.delete",
		RequireActor:  true,
		TargetID:      id,
		RequireTarget: true,
		Write: func(ctx context.Context) (struct{}, error) {
			return struct{}{}, s.repo.DeleteLesson(ctx, id)
		},
		Success:    "Lesson deleted",
		Invalidate: []string{TagCurriculum, TagProgress},
	})
}

func (s *CurriculumService) moduleInput(in models.ModuleInput, out *models.CurriculumModule) error {
	if err := s.validator.Struct(in); err != nil {
		return validationError(err)
	}
	level, _ := models.ParseStudentLevel(in.Level)
	*out = models.CurriculumModule{
		Title:       htmlsanitize.PlainText(in.Title),
		Description: plainPtr(in.Description),
		Level:       level,
	}
	return nil
}
