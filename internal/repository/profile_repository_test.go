package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/djschool-api/internal/models"
	appErrors "github.com/noah-isme/djschool-api/pkg/errors"
)

func newMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	sqlxdb := sqlx.NewDb(db, "sqlmock")
	return sqlxdb, mock, func() {
		db.Close()
	}
}

var profileRowColumns = []string{"id", "email", "password_hash", "first_name", "last_name", "role", "avatar_url", "phone", "bio", "created_at", "updated_at"}

func TestProfileFindByEmail(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewProfileRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows(profileRowColumns).
		AddRow("p1", "jane@example.com", "hash", "Jane", "Doe", string(models.RoleStudent), nil, nil, nil, now, now)
	mock.ExpectQuery(regexp.QuoteMeta("FROM profiles WHERE LOWER(email) = LOWER($1) LIMIT 1")).
		WithArgs("jane@example.com").
		WillReturnRows(rows)

	profile, err := repo.FindByEmail(context.Background(), " jane@example.com ")
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", profile.FullName())
	assert.Equal(t, "hash", profile.PasswordHash)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProfileFindByIDNotFound(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewProfileRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM profiles WHERE id = $1")).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows(profileRowColumns))

	_, err := repo.FindByID(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.KindNotFound, appErrors.KindOf(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProfileCreateLowercasesEmail(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewProfileRepository(db)

	mock.ExpectExec("INSERT INTO profiles").WillReturnResult(sqlmock.NewResult(1, 1))

	p := &models.Profile{Email: " Jane@Example.com", FirstName: "Jane", LastName: "Doe", Role: models.RoleStudent}
	require.NoError(t, repo.Create(context.Background(), p))
	assert.NotEmpty(t, p.ID)
	assert.Equal(t, "jane@example.com", p.Email)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProfileUpdatePasswordMissing(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewProfileRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE profiles SET password_hash = $2")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdatePassword(context.Background(), "p1", "hash")
	assert.True(t, appErrors.IsKind(err, appErrors.KindNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTokenRevokeAllForUser(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewTokenRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE refresh_tokens SET revoked_at = $2 WHERE user_id = $1 AND revoked_at IS NULL")).
		WithArgs("u1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 2))

	require.NoError(t, repo.RevokeAllForUser(context.Background(), "u1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
