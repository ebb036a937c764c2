// Package aggregate computes derived values from joined records. Every
// function is pure: no I/O, no clock reads except through arguments, and
// empty input yields zero values rather than NaN or errors.
package aggregate

import (
	"math"
	"time"

	"github.com/noah-isme/djschool-api/internal/models"
)

// RoundHalfUp rounds x to the nearest integer with halves going up.
func RoundHalfUp(x float64) int {
	return int(math.Floor(x + 0.5))
}

// Percent returns num/den as a rounded percentage, 0 when den is 0.
func Percent(num, den int) int {
	if den <= 0 {
		return 0
	}
	return RoundHalfUp(float64(num) / float64(den) * 100)
}

// AttendanceRate is the share of records whose status counts as present.
// Callers pass records already carrying their display status.
func AttendanceRate(records []models.Attendance) int {
	present := 0
	for _, r := range records {
		if r.Status == models.AttendanceAttended || r.Status == models.AttendanceMadeUp {
			present++
		}
	}
	return Percent(present, len(records))
}

// WeekStart returns Monday 00:00 of the week containing t, in t's location.
func WeekStart(t time.Time) time.Time {
	day := startOfDay(t)
	offset := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -offset)
}

// WeekRecords keeps records dated within [weekStart, weekStart+7 days).
func WeekRecords(records []models.Attendance, weekStart time.Time) []models.Attendance {
	end := weekStart.AddDate(0, 0, 7)
	out := make([]models.Attendance, 0, len(records))
	for _, r := range records {
		if !r.Date.Before(weekStart) && r.Date.Before(end) {
			out = append(out, r)
		}
	}
	return out
}

// AverageProficiency is the rounded mean proficiency, 0 when there are no skills.
func AverageProficiency(skills []models.StudentSkill) int {
	if len(skills) == 0 {
		return 0
	}
	total := 0
	for _, s := range skills {
		total += s.Proficiency
	}
	return RoundHalfUp(float64(total) / float64(len(skills)))
}

// IsFirstTimeUser selects onboarding copy only. It carries no authority.
func IsFirstTimeUser(upcomingClasses, progressRecords int) bool {
	return upcomingClasses == 0 && progressRecords == 0
}

// CountByStatus tallies items per status value.
func CountByStatus[T any](items []T, status func(T) string) map[string]int {
	counts := make(map[string]int)
	for _, it := range items {
		counts[status(it)]++
	}
	return counts
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
