package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/djschool-api/internal/models"
)

func TestAvailabilityReplaceCommits(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAvailabilityRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM instructor_availability WHERE instructor_id = $1")).
		WithArgs("i1").
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec("INSERT INTO instructor_availability").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO instructor_availability").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	slots, err := repo.Replace(context.Background(), "i1", []models.AvailabilitySlot{
		{DayOfWeek: 1, StartTime: "10:00", EndTime: "12:00"},
		{DayOfWeek: 3, StartTime: "14:00", EndTime: "16:00"},
	})
	require.NoError(t, err)
	require.Len(t, slots, 2)
	assert.Equal(t, "i1", slots[1].InstructorID)
	assert.NotEmpty(t, slots[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAvailabilityReplaceRollsBackOnFailedInsert(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAvailabilityRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM instructor_availability").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO instructor_availability").WillReturnError(errors.New("boom"))
	mock.ExpectRollback()

	_, err := repo.Replace(context.Background(), "i1", []models.AvailabilitySlot{{DayOfWeek: 1, StartTime: "10:00", EndTime: "12:00"}})
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
