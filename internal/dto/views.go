package dto

import (
	"time"

	"github.com/noah-isme/djschool-api/internal/aggregate"
	"github.com/noah-isme/djschool-api/internal/models"
)

// StudentView is a student record joined with its profile. Name is the
// "Not assigned" sentinel when the profile is missing.
type StudentView struct {
	models.StudentRecord
	Name    string          `json:"name"`
	Email   string          `json:"email,omitempty"`
	Profile *models.Profile `json:"profile"`
}

// InstructorView is an instructor record joined with its profile.
type InstructorView struct {
	models.InstructorRecord
	Name    string          `json:"name"`
	Email   string          `json:"email,omitempty"`
	Profile *models.Profile `json:"profile"`
}

// ClassView is a session joined through its instructor to a display name.
type ClassView struct {
	models.ClassSession
	InstructorName string                   `json:"instructor_name"`
	Instructor     *models.InstructorRecord `json:"instructor,omitempty"`
}

// EnrollmentView is an enrollment with its class and the instructor name
// resolved from the class or the enrollment itself.
type EnrollmentView struct {
	models.Enrollment
	Class          *ClassView `json:"class"`
	InstructorName string     `json:"instructor_name"`
	StudentName    string     `json:"student_name,omitempty"`
}

// AttendanceView carries the stored status and the derived display status.
type AttendanceView struct {
	models.Attendance
	DisplayStatus models.AttendanceStatus `json:"display_status"`
	ClassTitle    string                  `json:"class_title,omitempty"`
}

// AttendanceList is a student's attendance with the current week's rate.
type AttendanceList struct {
	Records  []AttendanceView `json:"records"`
	WeekRate int              `json:"week_rate"`
}

// AnnouncementView adds the caller's read state.
type AnnouncementView struct {
	models.Announcement
	Read   bool       `json:"read"`
	ReadAt *time.Time `json:"read_at,omitempty"`
	IsNew  bool       `json:"is_new"`
}

// PaymentSummary splits payments into pending and history with totals.
type PaymentSummary struct {
	Pending []PaymentView           `json:"pending"`
	History []PaymentView           `json:"history"`
	Totals  aggregate.PaymentTotals `json:"totals"`
}

// PaymentView is a payment joined with its instructor's name.
type PaymentView struct {
	models.InstructorPayment
	InstructorName string `json:"instructor_name"`
}

// ModuleView is a module with its ordered lessons.
type ModuleView struct {
	models.CurriculumModule
	Lessons []models.CurriculumLesson `json:"lessons"`
}

// SkillSummary is a student's skills with the rounded average.
type SkillSummary struct {
	Skills             []models.StudentSkill `json:"skills"`
	AverageProficiency int                   `json:"average_proficiency"`
}

// MediaObject describes a stored background video.
type MediaObject struct {
	Path      string    `json:"path"`
	Size      int64     `json:"size"`
	UpdatedAt time.Time `json:"updated_at"`
	URL       string    `json:"url,omitempty"`
}
