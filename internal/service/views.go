package service

import (
	"context"

	"github.com/noah-isme/djschool-api/internal/dto"
	"github.com/noah-isme/djschool-api/internal/models"
	"github.com/noah-isme/djschool-api/internal/schema"
	"github.com/noah-isme/djschool-api/pkg/join"
)

func profileIndex(profiles []models.Profile) map[string]models.Profile {
	return join.Index(profiles, func(p models.Profile) string { return p.ID })
}

func displayName(p *models.Profile) string {
	if p == nil {
		return join.NotAssigned
	}
	return join.NameOr(p.FullName())
}

// joinStudents attaches profiles to students.
func joinStudents(students []models.StudentRecord, profiles map[string]models.Profile) []dto.StudentView {
	views := make([]dto.StudentView, len(students))
	for i, s := range students {
		views[i] = dto.StudentView{StudentRecord: s}
	}
	return join.Attach(views, profiles,
		func(v dto.StudentView) (string, bool) { return join.Required(v.ID) },
		func(v *dto.StudentView, p *models.Profile) {
			v.Profile = p
			v.Name = displayName(p)
			if p != nil {
				v.Email = p.Email
			}
		})
}

// joinInstructors attaches profiles to instructors.
func joinInstructors(instructors []models.InstructorRecord, profiles map[string]models.Profile) []dto.InstructorView {
	views := make([]dto.InstructorView, len(instructors))
	for i, in := range instructors {
		views[i] = dto.InstructorView{InstructorRecord: in}
	}
	return join.Attach(views, profiles,
		func(v dto.InstructorView) (string, bool) { return join.Required(v.ID) },
		func(v *dto.InstructorView, p *models.Profile) {
			v.Profile = p
			v.Name = displayName(p)
			if p != nil {
				v.Email = p.Email
			}
		})
}

// joinClasses resolves class -> instructor -> profile, hop by hop.
func joinClasses(classes []models.ClassSession, instructors []models.InstructorRecord, profiles map[string]models.Profile) []dto.ClassView {
	names := instructorNames(instructors, profiles)
	views := make([]dto.ClassView, len(classes))
	for i, c := range classes {
		views[i] = dto.ClassView{ClassSession: c}
	}
	views = join.Attach(views, join.Index(instructors, func(in models.InstructorRecord) string { return in.ID }),
		func(v dto.ClassView) (string, bool) { return join.Present(v.InstructorID) },
		func(v *dto.ClassView, in *models.InstructorRecord) { v.Instructor = in })
	return join.Attach(views, names,
		func(v dto.ClassView) (string, bool) {
			if v.Instructor == nil {
				return "", false
			}
			return v.Instructor.ID, true
		},
		func(v *dto.ClassView, name *string) {
			v.InstructorName = join.NotAssigned
			if name != nil {
				v.InstructorName = *name
			}
		})
}

// instructorNames maps instructor id to the display name of its profile.
func instructorNames(instructors []models.InstructorRecord, profiles map[string]models.Profile) map[string]string {
	names := make(map[string]string, len(instructors))
	for _, v := range joinInstructors(instructors, profiles) {
		names[v.ID] = v.Name
	}
	return names
}

// joinEnrollments attaches classes and the instructor name. The name comes
// from the enrollment's own instructor or, failing that, the class's.
func joinEnrollments(enrollments []models.Enrollment, classes []dto.ClassView, names map[string]string) []dto.EnrollmentView {
	views := make([]dto.EnrollmentView, len(enrollments))
	for i, e := range enrollments {
		views[i] = dto.EnrollmentView{Enrollment: e}
	}
	views = join.Attach(views, join.Index(classes, func(c dto.ClassView) string { return c.ID }),
		func(v dto.EnrollmentView) (string, bool) { return join.Present(v.ClassID) },
		func(v *dto.EnrollmentView, c *dto.ClassView) { v.Class = c })
	return join.Attach(views, names,
		func(v dto.EnrollmentView) (string, bool) {
			if id, ok := join.Present(v.InstructorID); ok {
				return id, true
			}
			if v.Class != nil {
				return join.Present(v.Class.InstructorID)
			}
			return "", false
		},
		func(v *dto.EnrollmentView, name *string) {
			v.InstructorName = join.NotAssigned
			if name != nil {
				v.InstructorName = *name
			}
		})
}

// fetchProfiles reads the profiles referenced by ids.
func fetchProfiles(ctx context.Context, c *Collections, ids []string) ([]models.Profile, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return c.Profiles.Fetch(ctx, schema.Profiles.ID.In(ids...)).Unwrap()
}

// classViews reads the instructors and profiles behind classes and joins them.
func classViews(ctx context.Context, c *Collections, classes []models.ClassSession) ([]dto.ClassView, map[string]string, error) {
	instructorIDs := join.Keys(classes, func(cl models.ClassSession) (string, bool) { return join.Present(cl.InstructorID) })
	return classViewsWith(ctx, c, classes, instructorIDs)
}

func classViewsWith(ctx context.Context, c *Collections, classes []models.ClassSession, instructorIDs []string) ([]dto.ClassView, map[string]string, error) {
	var instructors []models.InstructorRecord
	if len(instructorIDs) > 0 {
		var err error
		instructors, err = c.Instructors.Fetch(ctx, schema.Instructors.ID.In(instructorIDs...)).Unwrap()
		if err != nil {
			return nil, nil, err
		}
	}
	profiles, err := fetchProfiles(ctx, c, join.Keys(instructors, func(in models.InstructorRecord) (string, bool) { return join.Required(in.ID) }))
	if err != nil {
		return nil, nil, err
	}
	idx := profileIndex(profiles)
	return joinClasses(classes, instructors, idx), instructorNames(instructors, idx), nil
}
