// Package schema declares every table's typed columns and base read spec.
package schema

import (
	"time"

	"github.com/noah-isme/djschool-api/internal/models"
	"github.com/noah-isme/djschool-api/pkg/query"
)

// Profiles columns. The password hash is never selected through here.
var Profiles = struct {
	ID    query.Column[string]
	Email query.Column[string]
	Role  query.Column[models.UserRole]
	First query.Column[string]
	Last  query.Column[string]
}{
	ID:    query.Col[string]("id"),
	Email: query.Col[string]("email"),
	Role:  query.Col[models.UserRole]("role"),
	First: query.Col[string]("first_name"),
	Last:  query.Col[string]("last_name"),
}

// ProfilesSpec selects public profile columns.
var ProfilesSpec = query.Spec{
	Table:   "profiles",
	Columns: []string{"id", "email", "first_name", "last_name", "role", "avatar_url", "phone", "bio", "created_at", "updated_at"},
	OrderBy: []query.Order{query.Asc("last_name"), query.Asc("first_name")},
}

var Students = struct {
	ID     query.Column[string]
	Status query.Column[models.RecordStatus]
	Level  query.Column[models.StudentLevel]
}{
	ID:     query.Col[string]("id"),
	Status: query.Col[models.RecordStatus]("enrollment_status"),
	Level:  query.Col[models.StudentLevel]("level"),
}

var StudentsSpec = query.Spec{
	Table:   "students",
	OrderBy: []query.Order{query.Desc("created_at")},
}

var Instructors = struct {
	ID          query.Column[string]
	Status      query.Column[models.RecordStatus]
	Specialties query.ArrayColumn[string]
}{
	ID:          query.Col[string]("id"),
	Status:      query.Col[models.RecordStatus]("status"),
	Specialties: query.ArrayCol[string]("specialties"),
}

var InstructorsSpec = query.Spec{
	Table:   "instructors",
	OrderBy: []query.Order{query.Desc("created_at")},
}

var Availability = struct {
	InstructorID query.Column[string]
}{
	InstructorID: query.Col[string]("instructor_id"),
}

var AvailabilitySpec = query.Spec{
	Table:   "instructor_availability",
	Columns: []string{"id", "instructor_id", "day_of_week", "to_char(start_time, 'HH24:MI') AS start_time", "to_char(end_time, 'HH24:MI') AS end_time"},
	OrderBy: []query.Order{query.Asc("day_of_week"), query.Asc("start_time")},
}

var Classes = struct {
	ID           query.Column[string]
	InstructorID query.Column[string]
	StartTime    query.Column[time.Time]
	Title        query.Column[string]
}{
	ID:           query.Col[string]("id"),
	InstructorID: query.Col[string]("instructor_id"),
	StartTime:    query.Col[time.Time]("start_time"),
	Title:        query.Col[string]("title"),
}

var ClassesSpec = query.Spec{
	Table:   "classes",
	OrderBy: []query.Order{query.Asc("start_time")},
}

var Enrollments = struct {
	ID           query.Column[string]
	StudentID    query.Column[string]
	ClassID      query.Column[string]
	InstructorID query.Column[string]
	Status       query.Column[models.EnrollmentStatus]
}{
	ID:           query.Col[string]("id"),
	StudentID:    query.Col[string]("student_id"),
	ClassID:      query.Col[string]("class_id"),
	InstructorID: query.Col[string]("instructor_id"),
	Status:       query.Col[models.EnrollmentStatus]("status"),
}

var EnrollmentsSpec = query.Spec{
	Table:   "enrollments",
	OrderBy: []query.Order{query.Desc("enrollment_date")},
}

var Attendance = struct {
	ID        query.Column[string]
	StudentID query.Column[string]
	ClassID   query.Column[string]
	Date      query.Column[time.Time]
	Status    query.Column[models.AttendanceStatus]
}{
	ID:        query.Col[string]("id"),
	StudentID: query.Col[string]("student_id"),
	ClassID:   query.Col[string]("class_id"),
	Date:      query.Col[time.Time]("date"),
	Status:    query.Col[models.AttendanceStatus]("status"),
}

var AttendanceSpec = query.Spec{
	Table:   "attendance",
	OrderBy: []query.Order{query.Asc("date")},
}

var Skills = struct {
	StudentID query.Column[string]
}{
	StudentID: query.Col[string]("student_id"),
}

var SkillsSpec = query.Spec{
	Table:   "student_skills",
	OrderBy: []query.Order{query.Asc("skill")},
}

var Progress = struct {
	StudentID query.Column[string]
	LessonID  query.Column[string]
}{
	StudentID: query.Col[string]("student_id"),
	LessonID:  query.Col[string]("lesson_id"),
}

var ProgressSpec = query.Spec{
	Table:   "student_progress",
	OrderBy: []query.Order{query.Desc("completed_at")},
}

var Announcements = struct {
	ID          query.Column[string]
	TargetRoles query.ArrayColumn[string]
	PublishedAt query.Column[time.Time]
}{
	ID:          query.Col[string]("id"),
	TargetRoles: query.ArrayCol[string]("target_roles"),
	PublishedAt: query.Col[time.Time]("published_at"),
}

var AnnouncementsSpec = query.Spec{
	Table:   "announcements",
	OrderBy: []query.Order{query.Desc("published_at")},
}

var Reads = struct {
	UserID         query.Column[string]
	AnnouncementID query.Column[string]
}{
	UserID:         query.Col[string]("user_id"),
	AnnouncementID: query.Col[string]("announcement_id"),
}

var ReadsSpec = query.Spec{Table: "announcement_reads"}

var Payments = struct {
	ID           query.Column[string]
	InstructorID query.Column[string]
	Status       query.Column[models.PaymentStatus]
	PeriodStart  query.Column[time.Time]
}{
	ID:           query.Col[string]("id"),
	InstructorID: query.Col[string]("instructor_id"),
	Status:       query.Col[models.PaymentStatus]("status"),
	PeriodStart:  query.Col[time.Time]("period_start"),
}

var PaymentsSpec = query.Spec{
	Table:   "instructor_payments",
	OrderBy: []query.Order{query.Desc("period_start")},
}

var Modules = struct {
	ID    query.Column[string]
	Level query.Column[models.StudentLevel]
}{
	ID:    query.Col[string]("id"),
	Level: query.Col[models.StudentLevel]("level"),
}

var ModulesSpec = query.Spec{
	Table:   "curriculum_modules",
	OrderBy: []query.Order{query.Asc("level"), query.Asc("order_index")},
}

var Lessons = struct {
	ID       query.Column[string]
	ModuleID query.Column[string]
}{
	ID:       query.Col[string]("id"),
	ModuleID: query.Col[string]("module_id"),
}

var LessonsSpec = query.Spec{
	Table:   "curriculum_lessons",
	OrderBy: []query.Order{query.Asc("module_id"), query.Asc("order_index")},
}
