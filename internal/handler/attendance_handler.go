package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/djschool-api/internal/models"
	"github.com/noah-isme/djschool-api/internal/service"
	"github.com/noah-isme/djschool-api/pkg/response"
)

// AttendanceHandler exposes attendance endpoints.
type AttendanceHandler struct {
	attendance *service.AttendanceService
}

// NewAttendanceHandler constructs the handler.
func NewAttendanceHandler(attendance *service.AttendanceService) *AttendanceHandler {
	return &AttendanceHandler{attendance: attendance}
}

// ForStudent godoc
// @Summary Attendance of a student
// @Description Records carry a display status; missed lessons made up a week later show as made-up
// @Tags Attendance
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/attendance [get]
func (h *AttendanceHandler) ForStudent(c *gin.Context) {
	list, err := h.attendance.ListForStudent(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, list, nil)
}

// WeekRate godoc
// @Summary Attendance rate for the current week
// @Tags Attendance
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/attendance/week-rate [get]
func (h *AttendanceHandler) WeekRate(c *gin.Context) {
	rate, err := h.attendance.WeekRate(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"week_rate": rate}, nil)
}

// Record godoc
// @Summary Record attendance
// @Tags Attendance
// @Accept json
// @Produce json
// @Param payload body models.RecordAttendanceRequest true "Attendance"
// @Success 201 {object} response.Envelope
// @Router /attendance [post]
func (h *AttendanceHandler) Record(c *gin.Context) {
	var req models.RecordAttendanceRequest
	if !bindJSON(c, &req, "invalid attendance payload") {
		return
	}
	res, err := h.attendance.Record(c.Request.Context(), req)
	respond(c, http.StatusCreated, res, err)
}

// UpdateStatus godoc
// @Summary Change a stored attendance status
// @Tags Attendance
// @Accept json
// @Produce json
// @Param id path string true "Attendance ID"
// @Param payload body models.UpdateAttendanceRequest true "Status"
// @Success 200 {object} response.Envelope
// @Router /attendance/{id} [patch]
func (h *AttendanceHandler) UpdateStatus(c *gin.Context) {
	var req models.UpdateAttendanceRequest
	if !bindJSON(c, &req, "invalid attendance payload") {
		return
	}
	res, err := h.attendance.UpdateStatus(c.Request.Context(), c.Param("id"), req)
	respond(c, http.StatusOK, res, err)
}
