package aggregate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/djschool-api/internal/models"
)

func TestFindMakeupPicksEarliestLater(t *testing.T) {
	d := day(2024, time.May, 1)
	missed := models.Attendance{ID: "m", StudentID: "s1", Date: d, Status: models.AttendanceMissed}
	records := []models.Attendance{
		missed,
		{ID: "early", StudentID: "s1", Date: d.AddDate(0, 0, -3), Status: models.AttendanceMakeup},
		{ID: "other", StudentID: "s2", Date: d.AddDate(0, 0, 2), Status: models.AttendanceMakeup},
		{ID: "late", StudentID: "s1", Date: d.AddDate(0, 0, 14), Status: models.AttendanceMakeup},
		{ID: "next", StudentID: "s1", Date: d.AddDate(0, 0, 7), Status: models.AttendanceMakeup},
	}

	got := FindMakeup(records, missed)
	require.NotNil(t, got)
	assert.Equal(t, "next", got.ID)

	assert.Nil(t, FindMakeup(records[:2], missed))
}

func TestDisplayStatusWaitsForMakeupDate(t *testing.T) {
	d := day(2024, time.May, 1)
	makeupDate := d.AddDate(0, 0, 7)
	missed := models.Attendance{StudentID: "s1", Date: d, Status: models.AttendanceMissed}
	makeup := &models.Attendance{StudentID: "s1", Date: makeupDate, Status: models.AttendanceMakeup}
	attended := &models.Attendance{StudentID: "s1", Date: makeupDate, Status: models.AttendanceAttended}

	// makeup still in the future
	assert.Equal(t, models.AttendanceMissed, DisplayStatus(missed, makeup, attended, d.AddDate(0, 0, 3)))
	// makeup is today, not yet passed
	assert.Equal(t, models.AttendanceMissed, DisplayStatus(missed, makeup, attended, makeupDate.Add(20*time.Hour)))
	// makeup passed and attended on exactly that date
	assert.Equal(t, models.AttendanceMadeUp, DisplayStatus(missed, makeup, attended, d.AddDate(0, 0, 8)))
}

func TestDisplayStatusRequiresAttendedOnExactDate(t *testing.T) {
	d := day(2024, time.May, 1)
	makeupDate := d.AddDate(0, 0, 7)
	now := d.AddDate(0, 0, 10)
	missed := models.Attendance{StudentID: "s1", Date: d, Status: models.AttendanceMissed}
	makeup := &models.Attendance{StudentID: "s1", Date: makeupDate, Status: models.AttendanceMakeup}

	wrongDay := &models.Attendance{StudentID: "s1", Date: makeupDate.AddDate(0, 0, -1), Status: models.AttendanceAttended}
	assert.Equal(t, models.AttendanceMissed, DisplayStatus(missed, makeup, wrongDay, now))

	notAttended := &models.Attendance{StudentID: "s1", Date: makeupDate, Status: models.AttendanceMissed}
	assert.Equal(t, models.AttendanceMissed, DisplayStatus(missed, makeup, notAttended, now))

	assert.Equal(t, models.AttendanceMissed, DisplayStatus(missed, makeup, nil, now))
	assert.Equal(t, models.AttendanceMissed, DisplayStatus(missed, nil, nil, now))

	attended := models.Attendance{Status: models.AttendanceAttended}
	assert.Equal(t, models.AttendanceAttended, DisplayStatus(attended, makeup, nil, now))
}

func TestWithDisplayStatusResolvesCollection(t *testing.T) {
	d := day(2024, time.May, 1)
	makeupDate := d.AddDate(0, 0, 7)
	records := []models.Attendance{
		{ID: "a", StudentID: "s1", Date: d, Status: models.AttendanceMissed},
		{ID: "b", StudentID: "s1", Date: makeupDate, Status: models.AttendanceMakeup},
		{ID: "c", StudentID: "s1", Date: makeupDate, Status: models.AttendanceAttended},
	}

	before := WithDisplayStatus(records, d.AddDate(0, 0, 2))
	assert.Equal(t, models.AttendanceMissed, before[0].Status)

	after := WithDisplayStatus(records, d.AddDate(0, 0, 9))
	assert.Equal(t, models.AttendanceMadeUp, after[0].Status)
	assert.Equal(t, models.AttendanceMissed, records[0].Status, "input untouched")
	assert.Equal(t, 67, AttendanceRate(after))
}
