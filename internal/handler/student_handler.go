package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/djschool-api/internal/models"
	"github.com/noah-isme/djschool-api/internal/service"
	"github.com/noah-isme/djschool-api/pkg/response"
)

// StudentHandler exposes student endpoints.
type StudentHandler struct {
	students *service.StudentService
}

// NewStudentHandler constructs StudentHandler.
func NewStudentHandler(students *service.StudentService) *StudentHandler {
	return &StudentHandler{students: students}
}

// List godoc
// @Summary List students by status
// @Tags Students
// @Produce json
// @Param status query string false "pending, active, inactive or declined"
// @Param q query string false "Search by name or email"
// @Success 200 {object} response.Envelope
// @Router /students [get]
func (h *StudentHandler) List(c *gin.Context) {
	status := models.RecordStatus(strings.ToLower(strings.TrimSpace(c.Query("status"))))
	students, err := h.students.ListByStatus(c.Request.Context(), status, strings.TrimSpace(c.Query("q")))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, students, nil)
}

// Get godoc
// @Summary Get student
// @Tags Students
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /students/{id} [get]
func (h *StudentHandler) Get(c *gin.Context) {
	student, err := h.students.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, student, nil)
}

// Me godoc
// @Summary Own student record
// @Description Creates a pending record on first access
// @Tags Students
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /students/me [get]
func (h *StudentHandler) Me(c *gin.Context) {
	rec, err := h.students.EnsureRecord(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rec, nil)
}

// UpdateSelf godoc
// @Summary Update own level and notes
// @Tags Students
// @Accept json
// @Produce json
// @Param payload body models.StudentSelfUpdate true "Student fields"
// @Success 200 {object} response.Envelope
// @Router /students/me [patch]
func (h *StudentHandler) UpdateSelf(c *gin.Context) {
	var req models.StudentSelfUpdate
	if !bindJSON(c, &req, "invalid student payload") {
		return
	}
	res, err := h.students.UpdateSelf(c.Request.Context(), req)
	respond(c, http.StatusOK, res, err)
}

// Transition returns the handler applying a moderation action.
// @Summary Approve, decline, activate or deactivate a student
// @Tags Students
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /students/{id}/approve [post]
// @Router /students/{id}/decline [post]
// @Router /students/{id}/activate [post]
// @Router /students/{id}/deactivate [post]
func (h *StudentHandler) Transition(action models.StatusAction) gin.HandlerFunc {
	return func(c *gin.Context) {
		res, err := h.students.Transition(c.Request.Context(), c.Param("id"), action)
		respond(c, http.StatusOK, res, err)
	}
}

// CreateDemo godoc
// @Summary Create a demo student account
// @Tags Students
// @Accept json
// @Produce json
// @Param payload body models.DemoStudentRequest true "Demo student"
// @Success 201 {object} response.Envelope
// @Router /students/demo [post]
func (h *StudentHandler) CreateDemo(c *gin.Context) {
	var req models.DemoStudentRequest
	if !bindJSON(c, &req, "invalid student payload") {
		return
	}
	res, err := h.students.CreateDemo(c.Request.Context(), req)
	respond(c, http.StatusCreated, res, err)
}
