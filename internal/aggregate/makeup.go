package aggregate

import (
	"time"

	"github.com/noah-isme/djschool-api/internal/models"
)

// FindMakeup returns the earliest record after missed for the same student
// with status makeup, or nil.
func FindMakeup(records []models.Attendance, missed models.Attendance) *models.Attendance {
	var best *models.Attendance
	for i := range records {
		r := records[i]
		if r.StudentID != missed.StudentID || r.Status != models.AttendanceMakeup {
			continue
		}
		if !r.Date.After(missed.Date) {
			continue
		}
		if best == nil || r.Date.Before(best.Date) {
			best = &records[i]
		}
	}
	if best == nil {
		return nil
	}
	found := *best
	return &found
}

// AttendanceOn returns the student's record on exactly date, preferring an
// attended one when several exist.
func AttendanceOn(records []models.Attendance, studentID string, date time.Time) *models.Attendance {
	var match *models.Attendance
	for i := range records {
		r := records[i]
		if r.StudentID != studentID || !sameDay(r.Date, date) {
			continue
		}
		if r.Status == models.AttendanceAttended {
			found := r
			return &found
		}
		if match == nil {
			found := r
			match = &found
		}
	}
	return match
}

// DisplayStatus derives the status shown for record. A missed record is shown
// as made-up only when its makeup date is strictly before today and the
// student's record on exactly that date is attended. Every other record keeps
// its stored status.
func DisplayStatus(record models.Attendance, makeup, onMakeupDate *models.Attendance, now time.Time) models.AttendanceStatus {
	if record.Status != models.AttendanceMissed || makeup == nil {
		return record.Status
	}
	today := startOfDay(now.In(makeup.Date.Location()))
	if !startOfDay(makeup.Date).Before(today) {
		return record.Status
	}
	if onMakeupDate == nil || !sameDay(onMakeupDate.Date, makeup.Date) || onMakeupDate.Status != models.AttendanceAttended {
		return record.Status
	}
	return models.AttendanceMadeUp
}

// WithDisplayStatus returns a copy of records where every missed record has
// been resolved against the rest of the collection.
func WithDisplayStatus(records []models.Attendance, now time.Time) []models.Attendance {
	out := make([]models.Attendance, len(records))
	copy(out, records)
	for i, r := range records {
		if r.Status != models.AttendanceMissed {
			continue
		}
		makeup := FindMakeup(records, r)
		if makeup == nil {
			continue
		}
		out[i].Status = DisplayStatus(r, makeup, AttendanceOn(records, r.StudentID, makeup.Date), now)
	}
	return out
}
