package service

import (
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/djschool-api/internal/models"
	"github.com/noah-isme/djschool-api/internal/schema"
)

// Collections is the set of cached table reads shared by every service.
type Collections struct {
	Profiles      *Collection[models.Profile]
	Students      *Collection[models.StudentRecord]
	Instructors   *Collection[models.InstructorRecord]
	Availability  *Collection[models.AvailabilitySlot]
	Classes       *Collection[models.ClassSession]
	Enrollments   *Collection[models.Enrollment]
	Attendance    *Collection[models.Attendance]
	Skills        *Collection[models.StudentSkill]
	Progress      *Collection[models.StudentProgress]
	Announcements *Collection[models.Announcement]
	Reads         *Collection[models.AnnouncementRead]
	Payments      *Collection[models.InstructorPayment]
	Modules       *Collection[models.CurriculumModule]
	Lessons       *Collection[models.CurriculumLesson]
}

// NewCollections wires every collection to db.
func NewCollections(db sqlx.QueryerContext, opts CollectionOptions) *Collections {
	return &Collections{
		Profiles:      NewCollection[models.Profile](TagProfiles, db, schema.ProfilesSpec, opts),
		Students:      NewCollection[models.StudentRecord](TagStudents, db, schema.StudentsSpec, opts),
		Instructors:   NewCollection[models.InstructorRecord](TagInstructors, db, schema.InstructorsSpec, opts),
		Availability:  NewCollection[models.AvailabilitySlot](TagAvailability, db, schema.AvailabilitySpec, opts),
		Classes:       NewCollection[models.ClassSession](TagClasses, db, schema.ClassesSpec, opts),
		Enrollments:   NewCollection[models.Enrollment](TagEnrollments, db, schema.EnrollmentsSpec, opts),
		Attendance:    NewCollection[models.Attendance](TagAttendance, db, schema.AttendanceSpec, opts),
		Skills:        NewCollection[models.StudentSkill](TagSkills, db, schema.SkillsSpec, opts),
		Progress:      NewCollection[models.StudentProgress](TagProgress, db, schema.ProgressSpec, opts),
		Announcements: NewCollection[models.Announcement](TagAnnouncements, db, schema.AnnouncementsSpec, opts),
		Reads:         NewCollection[models.AnnouncementRead](TagReads, db, schema.ReadsSpec, opts),
		Payments:      NewCollection[models.InstructorPayment](TagPayments, db, schema.PaymentsSpec, opts),
		Modules:       NewCollection[models.CurriculumModule](TagCurriculum, db, schema.ModulesSpec, opts),
		Lessons:       NewCollection[models.CurriculumLesson](TagCurriculum, db, schema.LessonsSpec, opts),
	}
}
