package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/djschool-api/internal/models"
	"github.com/noah-isme/djschool-api/internal/service"
	"github.com/noah-isme/djschool-api/pkg/response"
)

// EnrollmentHandler wires enrollment endpoints.
type EnrollmentHandler struct {
	enrollments *service.EnrollmentService
}

// NewEnrollmentHandler constructs the handler.
func NewEnrollmentHandler(enrollments *service.EnrollmentService) *EnrollmentHandler {
	return &EnrollmentHandler{enrollments: enrollments}
}

// ForStudent godoc
// @Summary Enrollments of a student
// @Tags Enrollments
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/enrollments [get]
func (h *EnrollmentHandler) ForStudent(c *gin.Context) {
	items, err := h.enrollments.ListForStudent(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// ForInstructor godoc
// @Summary Students enrolled with an instructor
// @Tags Enrollments
// @Produce json
// @Param id path string true "Instructor ID"
// @Success 200 {object} response.Envelope
// @Router /instructors/{id}/enrollments [get]
func (h *EnrollmentHandler) ForInstructor(c *gin.Context) {
	items, err := h.enrollments.ListForInstructor(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// Enroll godoc
// @Summary Enroll a student
// @Tags Enrollments
// @Accept json
// @Produce json
// @Param payload body models.EnrollRequest true "Enrollment"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /enrollments [post]
func (h *EnrollmentHandler) Enroll(c *gin.Context) {
	var req models.EnrollRequest
	if !bindJSON(c, &req, "invalid enrollment payload") {
		return
	}
	res, err := h.enrollments.Enroll(c.Request.Context(), req)
	respond(c, http.StatusCreated, res, err)
}

// Deactivate godoc
// @Summary End an enrollment
// @Tags Enrollments
// @Produce json
// @Param id path string true "Enrollment ID"
// @Success 200 {object} response.Envelope
// @Router /enrollments/{id}/deactivate [post]
func (h *EnrollmentHandler) Deactivate(c *gin.Context) {
	res, err := h.enrollments.Deactivate(c.Request.Context(), c.Param("id"))
	respond(c, http.StatusOK, res, err)
}
