package repository

import (
	"context"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/djschool-api/internal/models"
	"github.com/noah-isme/djschool-api/pkg/database"
	appErrors "github.com/noah-isme/djschool-api/pkg/errors"
)

func TestCreateModuleAssignsNextIndexUnderLock(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewCurriculumRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("SELECT pg_advisory_xact_lock($1)")).
		WithArgs(database.ScopeKey("curriculum:level:beginner")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COALESCE(MAX(order_index), 0) + 1 FROM curriculum_modules WHERE level = $1")).
		WithArgs(models.LevelBeginner).
		WillReturnRows(sqlmock.NewRows([]string{"next"}).AddRow(4))
	mock.ExpectExec("INSERT INTO curriculum_modules").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	m := &models.CurriculumModule{Title: "Beatmatching", Level: models.LevelBeginner}
	require.NoError(t, repo.CreateModule(context.Background(), m))
	assert.Equal(t, 4, m.OrderIndex)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateLessonUnknownModule(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewCurriculumRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("m404").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectRollback()

	err := repo.CreateLesson(context.Background(), &models.CurriculumLesson{ModuleID: "m404", Title: "Intro"})
	assert.True(t, appErrors.IsKind(err, appErrors.KindNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}
