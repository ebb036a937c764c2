package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/djschool-api/internal/models"
	appErrors "github.com/noah-isme/djschool-api/pkg/errors"
	"github.com/noah-isme/djschool-api/pkg/join"
)

type fakeEnrollmentRepo struct {
	rows     []models.EnrollmentWithClass
	enrolled []models.EnrollRequest
}

func (f *fakeEnrollmentRepo) Enroll(_ context.Context, req models.EnrollRequest) (*models.Enrollment, error) {
	f.enrolled = append(f.enrolled, req)
	return &models.Enrollment{ID: "e-new", StudentID: req.StudentID, ClassID: req.ClassID, InstructorID: req.InstructorID, Status: models.EnrollmentStatusActive}, nil
}

func (f *fakeEnrollmentRepo) Deactivate(_ context.Context, id string) (*models.Enrollment, error) {
	return &models.Enrollment{ID: id, Status: models.EnrollmentStatusInactive}, nil
}

func (f *fakeEnrollmentRepo) ListForStudentWithClass(context.Context, string) ([]models.EnrollmentWithClass, error) {
	return f.rows, nil
}

func strPtr(s string) *string { return &s }

func TestListForStudentResolvesThreeHops(t *testing.T) {
	repo := &fakeEnrollmentRepo{rows: []models.EnrollmentWithClass{
		{
			Enrollment: models.Enrollment{ID: "e1", StudentID: "s1", ClassID: strPtr("c1"), Status: models.EnrollmentStatusActive},
			Class:      join.One[models.ClassSession]{Value: &models.ClassSession{ID: "c1", Title: "Scratching", InstructorID: strPtr("i1")}},
		},
		{
			Enrollment: models.Enrollment{ID: "e2", StudentID: "s1", InstructorID: strPtr("i-gone"), Status: models.EnrollmentStatusActive},
		},
		{
			Enrollment: models.Enrollment{ID: "e3", StudentID: "s1", ClassID: strPtr("c-deleted"), Status: models.EnrollmentStatusActive},
		},
	}}
	collections := &Collections{
		Instructors: staticCollection(TagInstructors, []models.InstructorRecord{{ID: "i1"}}, nil),
		Profiles:    staticCollection(TagProfiles, []models.Profile{{ID: "i1", FirstName: "Grand", LastName: "Master"}}, nil),
	}
	svc := NewEnrollmentService(collections, repo, NewRefreshCoordinator(RefreshCoordinatorConfig{}), nil, nil)

	views, err := svc.ListForStudent(context.Background(), "s1")
	require.NoError(t, err)
	require.Len(t, views, 3)

	require.NotNil(t, views[0].Class)
	assert.Equal(t, "Scratching", views[0].Class.Title)
	assert.Equal(t, "Grand Master", views[0].Class.InstructorName)
	assert.Equal(t, "Grand Master", views[0].InstructorName)

	assert.Nil(t, views[1].Class)
	assert.Equal(t, join.NotAssigned, views[1].InstructorName)

	assert.Nil(t, views[2].Class)
	assert.Equal(t, join.NotAssigned, views[2].InstructorName)
}

func TestJoinEnrollmentsIsIdempotent(t *testing.T) {
	enrollments := []models.Enrollment{
		{ID: "e1", ClassID: strPtr("c1")},
		{ID: "e2", InstructorID: strPtr("i2")},
	}
	classes := joinClasses([]models.ClassSession{{ID: "c1", InstructorID: strPtr("i1")}},
		[]models.InstructorRecord{{ID: "i1"}, {ID: "i2"}},
		profileIndex([]models.Profile{{ID: "i1", FirstName: "A"}, {ID: "i2", FirstName: "B"}}))
	names := map[string]string{"i1": "A", "i2": "B"}

	first := joinEnrollments(enrollments, classes, names)
	second := joinEnrollments(enrollments, classes, names)
	assert.Equal(t, first, second)
	assert.Equal(t, "A", first[0].InstructorName)
	assert.Equal(t, "B", first[1].InstructorName)
}

func TestEnrollRequiresTarget(t *testing.T) {
	svc := NewEnrollmentService(&Collections{}, &fakeEnrollmentRepo{}, NewRefreshCoordinator(RefreshCoordinatorConfig{}), nil, nil)
	ctx := asUser(context.Background(), "s1", models.RoleStudent)

	_, err := svc.Enroll(ctx, models.EnrollRequest{StudentID: "s1"})
	assert.True(t, appErrors.IsKind(err, appErrors.KindValidation))
}
