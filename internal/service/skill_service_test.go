package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/djschool-api/internal/models"
	appErrors "github.com/noah-isme/djschool-api/pkg/errors"
)

type fakeSkillRepo struct {
	progress []string
	skills   []string
}

func (f *fakeSkillRepo) Upsert(_ context.Context, studentID, skill string, proficiency int) (*models.StudentSkill, error) {
	f.skills = append(f.skills, skill)
	return &models.StudentSkill{StudentID: studentID, Skill: skill, Proficiency: proficiency}, nil
}

func (f *fakeSkillRepo) RecordProgress(_ context.Context, studentID, lessonID string) (*models.StudentProgress, error) {
	f.progress = append(f.progress, studentID+"/"+lessonID)
	return &models.StudentProgress{StudentID: studentID, LessonID: lessonID}, nil
}

func skillFixture(lessons []models.CurriculumLesson) (*SkillService, *fakeSkillRepo) {
	repo := &fakeSkillRepo{}
	collections := &Collections{Lessons: staticCollection[models.CurriculumLesson](TagCurriculum, lessons, nil)}
	return NewSkillService(collections, repo, nil, nil), repo
}

func TestRecordProgressUnknownLesson(t *testing.T) {
	svc, repo := skillFixture(nil)
	ctx := asUser(context.Background(), "s1", models.RoleStudent)

	res, err := svc.RecordProgress(ctx, "s1", models.RecordProgressRequest{LessonID: "missing"})
	require.Error(t, err)
	assert.True(t, appErrors.IsKind(err, appErrors.KindNotFound))
	assert.Equal(t, "lesson not found", res.Notice)
	assert.Empty(t, repo.progress)
}

func TestRecordProgressForOtherStudent(t *testing.T) {
	svc, repo := skillFixture([]models.CurriculumLesson{{ID: "l1"}})

	_, err := svc.RecordProgress(asUser(context.Background(), "s2", models.RoleStudent), "s1", models.RecordProgressRequest{LessonID: "l1"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Status, appErrors.FromError(err).Status)
	assert.Empty(t, repo.progress)

	_, err = svc.RecordProgress(asUser(context.Background(), "inst-1", models.RoleInstructor), "s1", models.RecordProgressRequest{LessonID: "l1"})
	require.NoError(t, err)
	_, err = svc.RecordProgress(asUser(context.Background(), "s1", models.RoleStudent), "s1", models.RecordProgressRequest{LessonID: "l1"})
	require.NoError(t, err)
	assert.Equal(t, []string{"s1/l1", "s1/l1"}, repo.progress)
}

func TestUpsertSkillStripsMarkup(t *testing.T) {
	svc, repo := skillFixture(nil)
	ctx := asUser(context.Background(), "inst-1", models.RoleInstructor)

	_, err := svc.UpsertSkill(ctx, "s1", models.UpsertSkillRequest{Skill: "<b></b>", Proficiency: 50})
	assert.True(t, appErrors.IsKind(err, appErrors.KindValidation))
	_, err = svc.UpsertSkill(ctx, "s1", models.UpsertSkillRequest{Skill: "Phrasing", Proficiency: 101})
	assert.True(t, appErrors.IsKind(err, appErrors.KindValidation))

	res, err := svc.UpsertSkill(ctx, "s1", models.UpsertSkillRequest{Skill: "Phrasing", Proficiency: 70})
	require.NoError(t, err)
	assert.Equal(t, 70, res.Value.Proficiency)
	assert.Equal(t, []string{"Phrasing"}, repo.skills)
}
