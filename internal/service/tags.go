package service

// Collection tags. Writes invalidate by tag, so a tag should cover every
// cached read a write to its table could change.
const (
	TagProfiles      = "profiles"
	TagStudents      = "students"
	TagInstructors   = "instructors"
	TagAvailability  = "availability"
	TagClasses       = "classes"
	TagEnrollments   = "enrollments"
	TagAttendance    = "attendance"
	TagSkills        = "skills"
	TagProgress      = "progress"
	TagAnnouncements = "announcements"
	TagReads         = "announcement-reads"
	TagPayments      = "payments"
	TagCurriculum    = "curriculum"
)

const dashboardPattern = "dash:*"

func collectionPattern(tag string) string {
	return "coll:" + tag + ":*"
}
