package service

import (
	"context"

	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/djschool-api/internal/aggregate"
	"github.com/noah-isme/djschool-api/internal/dto"
	"github.com/noah-isme/djschool-api/internal/models"
	"github.com/noah-isme/djschool-api/internal/schema"
	appErrors "github.com/noah-isme/djschool-api/pkg/errors"
	"github.com/noah-isme/djschool-api/pkg/htmlsanitize"
)

type skillRepository interface {
	Upsert(ctx context.Context, studentID, skill string, proficiency int) (*models.StudentSkill, error)
	RecordProgress(ctx context.Context, studentID, lessonID string) (*models.StudentProgress, error)
}

// SkillService tracks skill scores and completed lessons.
type SkillService struct {
	collections *Collections
	repo        skillRepository
	coordinator *RefreshCoordinator
	validator   *validator.Validate
}

// NewSkillService constructs a SkillService.
func NewSkillService(collections *Collections, repo skillRepository, coordinator *RefreshCoordinator, validate *validator.Validate) *SkillService {
	return &SkillService{collections: collections, repo: repo, coordinator: coordinator, validator: ensureValidator(validate)}
}

// Summary returns the skills of studentID and their rounded mean.
func (s *SkillService) Summary(ctx context.Context, studentID string) (*dto.SkillSummary, error) {
	skills, err := s.collections.Skills.Fetch(ctx, schema.Skills.StudentID.Eq(studentID)).Unwrap()
	if err != nil {
		return nil, err
	}
	if skills == nil {
		skills = []models.StudentSkill{}
	}
	return &dto.SkillSummary{Skills: skills, AverageProficiency: aggregate.AverageProficiency(skills)}, nil
}

// Progress returns the lessons studentID has completed.
func (s *SkillService) Progress(ctx context.Context, studentID string) ([]models.StudentProgress, error) {
	return s.collections.Progress.Fetch(ctx, schema.Progress.StudentID.Eq(studentID)).Unwrap()
}

// UpsertSkill sets one skill score.
func (s *SkillService) UpsertSkill(ctx context.Context, studentID string, req models.UpsertSkillRequest) (Result[*models.StudentSkill], error) {
	skill := htmlsanitize.PlainText(req.Skill)
	return RunMutation(ctx, s.coordinator, Mutation[*models.StudentSkill]{
		Name:          "skills.upsert",
		RequireActor:  true,
		TargetID:      studentID,
		RequireTarget: true,
		Check: func(context.Context) error {
			if err := s.validator.Struct(req); err != nil {
				return validationError(err)
			}
			if skill == "" {
				return appErrors.Clone(appErrors.ErrValidation, "skill name is required")
			}
			return nil
		},
		Write: func(ctx context.Context) (*models.StudentSkill, error) {
			return s.repo.Upsert(ctx, studentID, skill, req.Proficiency)
		},
		Success:    "Skill updated",
		Invalidate: []string{TagSkills},
	})
}

// RecordProgress marks a lesson completed. Students may only record their
// own progress.
func (s *SkillService) RecordProgress(ctx context.Context, studentID string, req models.RecordProgressRequest) (Result[*models.StudentProgress], error) {
	return RunMutation(ctx, s.coordinator, Mutation[*models.StudentProgress]{
		Name:          "progress.record",
		RequireActor:  true,
		TargetID:      studentID,
		RequireTarget: true,
		Check: func(ctx context.Context) error {
			if err := s.validator.Struct(req); err != nil {
				return validationError(err)
			}
			if claims := ClaimsFrom(ctx); claims != nil && claims.Role == models.RoleStudent && claims.UserID != studentID {
				return appErrors.ErrForbidden
			}
			lesson, err := s.collections.Lessons.MaybeOne(ctx, schema.Lessons.ID.Eq(req.LessonID))
			if err != nil {
				return err
			}
			if lesson == nil {
				return appErrors.Clone(appErrors.ErrNotFound, "lesson not found")
			}
			return nil
		},
		Write: func(ctx context.Context) (*models.StudentProgress, error) {
			return s.repo.RecordProgress(ctx, studentID, req.LessonID)
		},
		Success:    "Lesson completed",
		Invalidate: []string{TagProgress},
	})
}
