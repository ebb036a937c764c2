package dto

import "github.com/noah-isme/djschool-api/internal/aggregate"

// StudentDashboard is the student landing page payload.
type StudentDashboard struct {
	Student            StudentView        `json:"student"`
	UpcomingClasses    []ClassView        `json:"upcoming_classes"`
	Enrollments        []EnrollmentView   `json:"enrollments"`
	RecentAttendance   []AttendanceView   `json:"recent_attendance"`
	WeekAttendanceRate int                `json:"week_attendance_rate"`
	AverageProficiency int                `json:"average_proficiency"`
	CompletedLessons   int                `json:"completed_lessons"`
	IsFirstTimeUser    bool               `json:"is_first_time_user"`
	Announcements      []AnnouncementView `json:"announcements"`
}

// InstructorDashboard is the instructor landing page payload.
type InstructorDashboard struct {
	Instructor      InstructorView          `json:"instructor"`
	UpcomingClasses []ClassView             `json:"upcoming_classes"`
	Students        []StudentView           `json:"students"`
	Payments        aggregate.PaymentTotals `json:"payments"`
	Announcements   []AnnouncementView      `json:"announcements"`
	UnreadCount     int                     `json:"unread_count"`
}

// AdminDashboard is the admin overview payload.
type AdminDashboard struct {
	StudentsByStatus    map[string]int          `json:"students_by_status"`
	InstructorsByStatus map[string]int          `json:"instructors_by_status"`
	PendingStudents     []StudentView           `json:"pending_students"`
	PendingInstructors  []InstructorView        `json:"pending_instructors"`
	UpcomingClasses     []ClassView             `json:"upcoming_classes"`
	WeekAttendanceRate  int                     `json:"week_attendance_rate"`
	Payments            aggregate.PaymentTotals `json:"payments"`
}
