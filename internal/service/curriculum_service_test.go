package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/djschool-api/internal/models"
	appErrors "github.com/noah-isme/djschool-api/pkg/errors"
)

type fakeCurriculumRepo struct {
	created *models.CurriculumModule
	lesson  *models.CurriculumLesson
}

func (f *fakeCurriculumRepo) CreateModule(_ context.Context, m *models.CurriculumModule) error {
	m.ID, m.OrderIndex = "m-new", 3
	f.created = m
	return nil
}

func (f *fakeCurriculumRepo) UpdateModule(_ context.Context, id string, in models.CurriculumModule) (*models.CurriculumModule, error) {
	in.ID = id
	return &in, nil
}

func (f *fakeCurriculumRepo) DeleteModule(context.Context, string) error { return nil }

func (f *fakeCurriculumRepo) CreateLesson(_ context.Context, l *models.CurriculumLesson) error {
	f.lesson = l
	return nil
}

func (f *fakeCurriculumRepo) DeleteLesson(context.Context, string) error { return nil }

func TestModulesGroupsLessons(t *testing.T) {
	collections := &Collections{
		Modules: staticCollection(TagCurriculum, []models.CurriculumModule{
			{ID: "m1", Level: models.LevelBeginner, OrderIndex: 1},
			{ID: "m2", Level: models.LevelBeginner, OrderIndex: 2},
		}, nil),
		Lessons: staticCollection(TagCurriculum, []models.CurriculumLesson{
			{ID: "l1", ModuleID: "m1", OrderIndex: 1},
			{ID: "l2", ModuleID: "m1", OrderIndex: 2},
		}, nil),
	}
	svc := NewCurriculumService(collections, &fakeCurriculumRepo{}, NewRefreshCoordinator(RefreshCoordinatorConfig{}), nil)

	views, err := svc.Modules(context.Background(), "Beginner")
	require.NoError(t, err)
	require.Len(t, views, 2)
	assert.Len(t, views[0].Lessons, 2)
	assert.Equal(t, "l1", views[0].Lessons[0].ID)
	assert.NotNil(t, views[1].Lessons)
	assert.Empty(t, views[1].Lessons)

	_, err = svc.Modules(context.Background(), "expert")
	assert.True(t, appErrors.IsKind(err, appErrors.KindValidation))
}

func TestCreateModuleNormalisesLevel(t *testing.T) {
	repo := &fakeCurriculumRepo{}
	svc := NewCurriculumService(&Collections{}, repo, NewRefreshCoordinator(RefreshCoordinatorConfig{}), nil)
	ctx := asUser(context.Background(), "admin-1", models.RoleAdmin)

	res, err := svc.CreateModule(ctx, models.ModuleInput{Title: "<i>Mixing</i>", Level: "ADVANCED"})
	require.NoError(t, err)
	assert.Equal(t, models.LevelAdvanced, res.Value.Level)
	assert.Equal(t, "Mixing", res.Value.Title)
	assert.Equal(t, 3, res.Value.OrderIndex)

	lesson, err := svc.CreateLesson(ctx, "m1", models.LessonInput{Title: "EQ basics"})
	require.NoError(t, err)
	assert.Equal(t, "m1", lesson.Value.ModuleID)

	_, err = svc.CreateLesson(ctx, "", models.LessonInput{Title: "x"})
	assert.True(t, appErrors.IsKind(err, appErrors.KindValidation))
}
