package query

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/djschool-api/pkg/errors"
)

type studentRow struct {
	ID     string `db:"id"`
	Status string `db:"enrollment_status"`
}

var (
	colID     = Col[string]("id")
	colStatus = Col[string]("enrollment_status")
	colStart  = Col[time.Time]("start_time")
	colRoles  = ArrayCol[string]("target_roles")
)

func newMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return sqlx.NewDb(db, "sqlmock"), mock
}

func TestSpecBuildNumbersPlaceholders(t *testing.T) {
	from := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 7)
	spec := Spec{
		Table:   "classes",
		Columns: []string{"id", "title"},
		Where:   []Condition{colStart.Gte(from), colStart.Lte(to), colID.In("a", "b")},
		OrderBy: []Order{Asc("start_time")},
		Limit:   10,
	}

	stmt, args := spec.Build()
	assert.Equal(t, "SELECT id, title FROM classes WHERE start_time >= $1 AND start_time <= $2 AND id IN ($3, $4) ORDER BY start_time ASC LIMIT 10", stmt)
	assert.Equal(t, []interface{}{from, to, "a", "b"}, args)
}

func TestSpecBuildSkipsBlankSearchAndRendersArrays(t *testing.T) {
	spec := Spec{Table: "announcements", Where: []Condition{Search(Col[string]("title"), "  "), colRoles.Contains("student")}}
	stmt, args := spec.Build()
	assert.Equal(t, "SELECT * FROM announcements WHERE $1 = ANY(target_roles)", stmt)
	assert.Equal(t, []interface{}{"student"}, args)
}

func TestEmptyInMatchesNothing(t *testing.T) {
	stmt, args := Spec{Table: "profiles", Where: []Condition{colID.In()}}.Build()
	assert.Equal(t, "SELECT * FROM profiles WHERE FALSE", stmt)
	assert.Empty(t, args)
}

func TestOrGroupsConditions(t *testing.T) {
	stmt, args := Spec{Table: "students", Where: []Condition{Or(colStatus.Eq("active"), colStatus.Eq("pending"))}}.Build()
	assert.Equal(t, "SELECT * FROM students WHERE (enrollment_status = $1 OR enrollment_status = $2)", stmt)
	assert.Len(t, args, 2)
}

func TestSpecKeyIsOrderIndependent(t *testing.T) {
	a := Spec{Table: "t", Where: []Condition{colStatus.Eq("active"), colID.In("b", "a")}}
	b := Spec{Table: "t", Where: []Condition{colID.In("a", "b"), colStatus.Eq("active")}}
	assert.Equal(t, a.Key(), b.Key())
	assert.NotEqual(t, a.Key(), Spec{Table: "t", Where: []Condition{colStatus.Eq("pending")}}.Key())
	assert.Equal(t, "t|all", Spec{Table: "t"}.Key())
}

func TestSpecKeySeparatesTables(t *testing.T) {
	where := []Condition{colID.Eq("x")}
	modules := Spec{Table: "curriculum_modules", Where: where}
	lessons := Spec{Table: "curriculum_lessons", Where: where}
	assert.NotEqual(t, modules.Key(), lessons.Key())
	assert.NotEqual(t, Spec{Table: "curriculum_modules"}.Key(), Spec{Table: "curriculum_lessons"}.Key())
}

func TestSelectScansRows(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, enrollment_status FROM students WHERE enrollment_status = $1")).
		WithArgs("pending").
		WillReturnRows(sqlmock.NewRows([]string{"id", "enrollment_status"}).AddRow("s1", "pending"))

	rows, err := Select[studentRow](context.Background(), db, Spec{
		Table:   "students",
		Columns: []string{"id", "enrollment_status"},
		Where:   []Condition{colStatus.Eq("pending")},
	})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "s1", rows[0].ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMaybeOneReturnsNilWhenNoRows(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM students WHERE id = $1 LIMIT 1")).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"id", "enrollment_status"}))

	row, err := MaybeOne[studentRow](context.Background(), db, Spec{Table: "students", Where: []Condition{colID.Eq("missing")}})
	require.NoError(t, err)
	assert.Nil(t, row)
}

func TestSelectClassifiesStoreErrors(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery("SELECT").WillReturnError(&pq.Error{Code: "42501"})

	_, err := Select[studentRow](context.Background(), db, Spec{Table: "students"})
	require.Error(t, err)
	assert.Equal(t, appErrors.KindUnauthorized, appErrors.KindOf(err))

	mock.ExpectQuery("SELECT").WillReturnError(errors.New("boom"))
	_, err = Select[studentRow](context.Background(), db, Spec{Table: "students"})
	assert.Equal(t, appErrors.KindUnknown, appErrors.KindOf(err))
}
