package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/djschool-api/internal/models"
	appErrors "github.com/noah-isme/djschool-api/pkg/errors"
	"github.com/noah-isme/djschool-api/pkg/join"
)

type fakeClassRepo struct {
	created []models.ClassInput
}

func (f *fakeClassRepo) Create(_ context.Context, in models.ClassInput) (*models.ClassSession, error) {
	f.created = append(f.created, in)
	return &models.ClassSession{ID: "c-new", Title: in.Title, InstructorID: in.InstructorID}, nil
}

func (f *fakeClassRepo) Update(_ context.Context, id string, in models.ClassInput) (*models.ClassSession, error) {
	return &models.ClassSession{ID: id, Title: in.Title}, nil
}

func (f *fakeClassRepo) Delete(context.Context, string) error { return nil }

func TestClassListNamesInstructors(t *testing.T) {
	start := time.Date(2024, 5, 1, 18, 0, 0, 0, time.UTC)
	collections := &Collections{
		Classes: staticCollection[models.ClassSession](TagClasses, []models.ClassSession{
			{ID: "c1", Title: "Beatmatching", StartTime: start, InstructorID: strPtr("inst-1")},
			{ID: "c2", Title: "Open deck", StartTime: start},
			{ID: "c3", Title: "Scratch", StartTime: start, InstructorID: strPtr("ghost")},
		}, nil),
		Instructors: staticCollection[models.InstructorRecord](TagInstructors, []models.InstructorRecord{{ID: "inst-1"}}, nil),
		Profiles:    staticCollection[models.Profile](TagProfiles, []models.Profile{{ID: "inst-1", FirstName: "Kai", LastName: "Moreno"}}, nil),
	}
	svc := NewClassService(collections, &fakeClassRepo{}, nil, nil, nil)

	views, err := svc.List(context.Background(), models.ClassFilter{})
	require.NoError(t, err)
	require.Len(t, views, 3)
	assert.Equal(t, "Kai Moreno", views[0].InstructorName)
	assert.Equal(t, join.NotAssigned, views[1].InstructorName)
	assert.Equal(t, join.NotAssigned, views[2].InstructorName)
}

func TestClassCreateUnknownInstructor(t *testing.T) {
	repo := &fakeClassRepo{}
	collections := &Collections{Instructors: staticCollection[models.InstructorRecord](TagInstructors, nil, nil)}
	svc := NewClassService(collections, repo, nil, nil, nil)
	ctx := asUser(context.Background(), "admin-1", models.RoleAdmin)
	start := time.Now().Add(time.Hour)

	_, err := svc.Create(ctx, models.ClassInput{Title: "Mixing", StartTime: start, EndTime: start.Add(time.Hour), InstructorID: strPtr("ghost")})
	require.Error(t, err)
	assert.True(t, appErrors.IsKind(err, appErrors.KindNotFound))
	assert.Empty(t, repo.created)

	res, err := svc.Create(ctx, models.ClassInput{Title: "Mixing", StartTime: start, EndTime: start.Add(time.Hour), InstructorID: strPtr("")})
	require.NoError(t, err)
	assert.Nil(t, res.Value.InstructorID)
	require.Len(t, repo.created, 1)
}
