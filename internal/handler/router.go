package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/djschool-api/internal/middleware"
	"github.com/noah-isme/djschool-api/internal/models"
)

// Handlers bundles every HTTP handler mounted under the API prefix.
type Handlers struct {
	Auth          *AuthHandler
	Profile       *ProfileHandler
	Students      *StudentHandler
	Instructors   *InstructorHandler
	Classes       *ClassHandler
	Enrollments   *EnrollmentHandler
	Attendance    *AttendanceHandler
	Skills        *SkillHandler
	Announcements *AnnouncementHandler
	Payments      *PaymentHandler
	Curriculum    *CurriculumHandler
	Media         *MediaHandler
	Dashboard     *DashboardHandler
	Metrics       *MetricsHandler
}

// RouteDeps are the middlewares shared by protected routes.
type RouteDeps struct {
	Tokens middleware.TokenValidator
	Audit  middleware.AuditWriter
}

var statusActions = []models.StatusAction{
	models.ActionApprove,
	models.ActionDecline,
	models.ActionActivate,
	models.ActionDeactivate,
}

// Register mounts every route on api.
func Register(api *gin.RouterGroup, h Handlers, deps RouteDeps) {
	admin := middleware.RequireRoles(models.RoleAdmin)
	staff := middleware.RequireRoles(models.RoleAdmin, models.RoleInstructor)
	staffOrSelf := middleware.RBAC(string(models.RoleAdmin), string(models.RoleInstructor), middleware.Self)
	adminOrSelf := middleware.RBAC(string(models.RoleAdmin), middleware.Self)
	audit := func(action, resource string) gin.HandlerFunc {
		return middleware.Audit(deps.Audit, nil, action, resource)
	}

	auth := api.Group("/auth")
	auth.POST("/signup", h.Auth.Signup)
	auth.POST("/login", h.Auth.Login)
	auth.POST("/refresh", h.Auth.Refresh)

	api.GET("/media/public/:token", h.Media.Download)

	protected := api.Group("")
	protected.Use(middleware.JWT(deps.Tokens))

	protected.POST("/auth/logout", h.Auth.Logout)
	protected.GET("/auth/me", h.Auth.Me)
	protected.POST("/auth/change-password", h.Auth.ChangePassword)
	protected.PUT("/users/:id/password", admin, audit(models.AuditActionPasswordReset, "user"), h.Auth.ResetPassword)

	protected.GET("/profile", h.Profile.Get)
	protected.PUT("/profile", h.Profile.Update)

	students := protected.Group("/students")
	students.GET("", admin, h.Students.List)
	students.POST("/demo", admin, h.Students.CreateDemo)
	studentOnly := middleware.RequireRoles(models.RoleStudent)
	students.GET("/me", studentOnly, h.Students.Me)
	students.PATCH("/me", studentOnly, h.Students.UpdateSelf)
	students.GET("/:id", staffOrSelf, h.Students.Get)
	students.GET("/:id/enrollments", staffOrSelf, h.Enrollments.ForStudent)
	students.GET("/:id/attendance", staffOrSelf, h.Attendance.ForStudent)
	students.GET("/:id/attendance/week-rate", staffOrSelf, h.Attendance.WeekRate)
	students.GET("/:id/skills", staffOrSelf, h.Skills.Summary)
	students.PUT("/:id/skills", staff, h.Skills.Upsert)
	students.GET("/:id/progress", staffOrSelf, h.Skills.Progress)
	students.POST("/:id/progress", adminOrSelf, h.Skills.RecordProgress)
	for _, action := range statusActions {
		students.POST("/:id/"+string(action), admin, audit(models.AuditActionStatusChange, "student"), h.Students.Transition(action))
	}

	instructors := protected.Group("/instructors")
	instructors.GET("", h.Instructors.List)
	instructors.POST("", admin, audit(models.AuditActionInstructorCreate, "instructor"), h.Instructors.Create)
	instructors.POST("/convert", admin, audit(models.AuditActionInstructorCreate, "instructor"), h.Instructors.Convert)
	instructors.GET("/:id", h.Instructors.Get)
	instructors.PUT("/:id", adminOrSelf, h.Instructors.Update)
	instructors.GET("/:id/availability", h.Instructors.Availability)
	instructors.PUT("/:id/availability", adminOrSelf, h.Instructors.ReplaceAvailability)
	instructors.GET("/:id/enrollments", adminOrSelf, h.Enrollments.ForInstructor)
	for _, action := range statusActions {
		instructors.POST("/:id/"+string(action), admin, audit(models.AuditActionStatusChange, "instructor"), h.Instructors.Transition(action))
	}

	classes := protected.Group("/classes")
	classes.GET("", h.Classes.List)
	classes.GET("/:id", h.Classes.Get)
	classes.POST("", admin, h.Classes.Create)
	classes.PUT("/:id", admin, h.Classes.Update)
	classes.DELETE("/:id", admin, h.Classes.Delete)

	protected.POST("/enrollments", admin, h.Enrollments.Enroll)
	protected.POST("/enrollments/:id/deactivate", admin, h.Enrollments.Deactivate)

	protected.POST("/attendance", staff, h.Attendance.Record)
	protected.PATCH("/attendance/:id", admin, h.Attendance.UpdateStatus)

	announcements := protected.Group("/announcements")
	announcements.GET("", h.Announcements.List)
	announcements.POST("", admin, h.Announcements.Create)
	announcements.DELETE("/:id", admin, h.Announcements.Delete)
	announcements.POST("/:id/read", h.Announcements.MarkRead)

	payments := protected.Group("/payments")
	payments.Use(staff)
	payments.GET("", h.Payments.List)
	payments.GET("/summary", h.Payments.Summary)
	payments.GET("/export", h.Payments.Export)
	payments.POST("", admin, h.Payments.Create)
	payments.PATCH("/:id", admin, h.Payments.Update)
	payments.POST("/:id/paid", admin, h.Payments.MarkPaid)

	curriculum := protected.Group("/curriculum")
	curriculum.GET("/modules", h.Curriculum.Modules)
	curriculum.POST("/modules", admin, h.Curriculum.CreateModule)
	curriculum.PUT("/modules/:id", admin, h.Curriculum.UpdateModule)
	curriculum.DELETE("/modules/:id", admin, h.Curriculum.DeleteModule)
	curriculum.POST("/modules/:id/lessons", admin, h.Curriculum.CreateLesson)
	curriculum.DELETE("/lessons/:id", admin, h.Curriculum.DeleteLesson)

	protected.GET("/media", h.Media.List)
	protected.POST("/media", admin, h.Media.Upload)

	dashboard := protected.Group("/dashboard")
	dashboard.GET("", h.Dashboard.Mine)
	dashboard.GET("/student", middleware.RequireRoles(models.RoleStudent), h.Dashboard.Student)
	dashboard.GET("/instructor", middleware.RequireRoles(models.RoleInstructor), h.Dashboard.Instructor)
	dashboard.GET("/admin", admin, h.Dashboard.Admin)

	protected.GET("/metrics/summary", admin, h.Metrics.Snapshot)
}
