package service

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/djschool-api/internal/models"
	"github.com/noah-isme/djschool-api/internal/repository"
	appErrors "github.com/noah-isme/djschool-api/pkg/errors"
	"github.com/noah-isme/djschool-api/pkg/join"
)

var (
	studentCols = []string{"id", "level", "enrollment_status", "notes", "created_at", "updated_at"}
	profileCols = []string{"id", "email", "first_name", "last_name", "role", "avatar_url", "phone", "bio", "created_at", "updated_at"}
)

const (
	studentsByStatusSQL = "SELECT * FROM students WHERE enrollment_status = $1 ORDER BY created_at DESC"
	profilesByIDSQL     = "SELECT id, email, first_name, last_name, role, avatar_url, phone, bio, created_at, updated_at FROM profiles WHERE id IN ($1)"
)

func TestApproveMovesStudentBetweenLists(t *testing.T) {
	db, mock := newSQLMock(t)
	cache := newMemoryCache()
	collections, cacheSvc := testCollections(db, cache)
	coordinator := NewRefreshCoordinator(RefreshCoordinatorConfig{Cache: cacheSvc})
	svc := NewStudentService(collections, repository.NewStudentRepository(db), nil, coordinator, nil, nil, 6)
	ctx := asUser(context.Background(), "admin-1", models.RoleAdmin)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta(studentsByStatusSQL)).
		WithArgs(models.StatusPending).
		WillReturnRows(sqlmock.NewRows(studentCols).AddRow("s1", "beginner", "pending", nil, now, now))
	mock.ExpectQuery(regexp.QuoteMeta(profilesByIDSQL)).
		WithArgs("s1").
		WillReturnRows(sqlmock.NewRows(profileCols).AddRow("s1", "jane@example.com", "Jane", "Doe", "student", nil, nil, nil, now, now))

	pending, err := svc.ListByStatus(ctx, models.StatusPending, "")
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "Jane Doe", pending[0].Name)

	// Served from cache: no query expected.
	_, err = svc.ListByStatus(ctx, models.StatusPending, "")
	require.NoError(t, err)

	mock.ExpectQuery(regexp.QuoteMeta("UPDATE students SET enrollment_status = $2")).
		WithArgs("s1", models.StatusActive, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows(studentCols).AddRow("s1", "beginner", "active", nil, now, now))

	result, err := svc.Transition(ctx, "s1", models.ActionApprove)
	require.NoError(t, err)
	assert.Equal(t, models.StatusActive, result.Value.EnrollmentStatus)
	assert.Equal(t, "Student active", result.Notice)
	assert.False(t, cache.has("coll:students:"))

	mock.ExpectQuery(regexp.QuoteMeta(studentsByStatusSQL)).
		WithArgs(models.StatusPending).
		WillReturnRows(sqlmock.NewRows(studentCols))
	pending, err = svc.ListByStatus(ctx, models.StatusPending, "")
	require.NoError(t, err)
	assert.Empty(t, pending)

	mock.ExpectQuery(regexp.QuoteMeta(studentsByStatusSQL)).
		WithArgs(models.StatusActive).
		WillReturnRows(sqlmock.NewRows(studentCols).AddRow("s1", "beginner", "active", nil, now, now))
	active, err := svc.ListByStatus(ctx, models.StatusActive, "")
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "s1", active[0].ID)
	assert.Equal(t, models.StatusActive, active[0].EnrollmentStatus)
	require.NotNil(t, active[0].Profile)
	assert.Equal(t, "Jane", active[0].Profile.FirstName)
	assert.Equal(t, "Doe", active[0].Profile.LastName)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApproveRejectsNonPendingAndKeepsCache(t *testing.T) {
	db, mock := newSQLMock(t)
	cache := newMemoryCache()
	collections, cacheSvc := testCollections(db, cache)
	coordinator := NewRefreshCoordinator(RefreshCoordinatorConfig{Cache: cacheSvc})
	svc := NewStudentService(collections, repository.NewStudentRepository(db), nil, coordinator, nil, nil, 6)
	ctx := asUser(context.Background(), "admin-1", models.RoleAdmin)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta(studentsByStatusSQL)).
		WithArgs(models.StatusActive).
		WillReturnRows(sqlmock.NewRows(studentCols).AddRow("s1", "beginner", "active", nil, now, now))
	mock.ExpectQuery(regexp.QuoteMeta(profilesByIDSQL)).
		WillReturnRows(sqlmock.NewRows(profileCols))
	active, err := svc.ListByStatus(ctx, models.StatusActive, "")
	require.NoError(t, err)
	assert.Equal(t, join.NotAssigned, active[0].Name)

	mock.ExpectQuery("UPDATE students SET enrollment_status").WillReturnRows(sqlmock.NewRows(studentCols))
	mock.ExpectQuery("SELECT enrollment_status FROM students").
		WillReturnRows(sqlmock.NewRows([]string{"enrollment_status"}).AddRow("active"))

	result, err := svc.Transition(ctx, "s1", models.ActionApprove)
	require.Error(t, err)
	assert.Equal(t, appErrors.KindValidation, appErrors.KindOf(err))
	assert.Equal(t, "student is active", result.Notice)
	assert.True(t, cache.has("coll:students:"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransitionPreconditions(t *testing.T) {
	svc := NewStudentService(&Collections{}, nil, nil, NewRefreshCoordinator(RefreshCoordinatorConfig{}), nil, nil, 6)

	_, err := svc.Transition(context.Background(), "s1", models.ActionApprove)
	assert.True(t, appErrors.IsKind(err, appErrors.KindUnauthorized))

	ctx := asUser(context.Background(), "admin-1", models.RoleAdmin)
	_, err = svc.Transition(ctx, "", models.ActionApprove)
	assert.True(t, appErrors.IsKind(err, appErrors.KindValidation))

	_, err = svc.Transition(ctx, "s1", models.StatusAction("promote"))
	assert.True(t, appErrors.IsKind(err, appErrors.KindValidation))
}

func TestListByStatusRejectsUnknownStatus(t *testing.T) {
	svc := NewStudentService(&Collections{}, nil, nil, nil, nil, nil, 6)
	_, err := svc.ListByStatus(context.Background(), models.RecordStatus("archived"), "")
	assert.True(t, appErrors.IsKind(err, appErrors.KindValidation))
}

type recordingStudentRepo struct {
	ensured []string
	updated []string
}

func (r *recordingStudentRepo) Ensure(_ context.Context, id string) (*models.StudentRecord, error) {
	r.ensured = append(r.ensured, id)
	return &models.StudentRecord{ID: id, EnrollmentStatus: models.StatusPending}, nil
}

func (r *recordingStudentRepo) UpdateSelf(_ context.Context, id string, _ *models.StudentLevel, _ *string) (*models.StudentRecord, error) {
	r.updated = append(r.updated, id)
	return &models.StudentRecord{ID: id}, nil
}

func (r *recordingStudentRepo) TransitionStatus(context.Context, string, []models.RecordStatus, models.RecordStatus) (*models.StudentRecord, error) {
	return nil, errBoom
}

func TestEnsureRecordOnlyForStudents(t *testing.T) {
	repo := &recordingStudentRepo{}
	collections := &Collections{Students: staticCollection[models.StudentRecord](TagStudents, nil, nil)}
	svc := NewStudentService(collections, repo, nil, NewRefreshCoordinator(RefreshCoordinatorConfig{}), nil, nil, 6)

	for _, role := range []models.UserRole{models.RoleInstructor, models.RoleAdmin} {
		_, err := svc.EnsureRecord(asUser(context.Background(), "u-"+string(role), role))
		require.Error(t, err)
		assert.Equal(t, appErrors.ErrForbidden.Status, appErrors.FromError(err).Status)
	}
	assert.Empty(t, repo.ensured)

	rec, err := svc.EnsureRecord(asUser(context.Background(), "s1", models.RoleStudent))
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, rec.EnrollmentStatus)
	assert.Equal(t, []string{"s1"}, repo.ensured)
}

func TestUpdateSelfRejectsNonStudents(t *testing.T) {
	repo := &recordingStudentRepo{}
	svc := NewStudentService(&Collections{}, repo, nil, NewRefreshCoordinator(RefreshCoordinatorConfig{}), nil, nil, 6)

	notes := "scratching drills"
	_, err := svc.UpdateSelf(asUser(context.Background(), "inst-1", models.RoleInstructor), models.StudentSelfUpdate{Notes: &notes})
	require.Error(t, err)
	assert.Empty(t, repo.updated)

	_, err = svc.UpdateSelf(asUser(context.Background(), "s1", models.RoleStudent), models.StudentSelfUpdate{Notes: &notes})
	require.NoError(t, err)
	assert.Equal(t, []string{"s1"}, repo.updated)
}
