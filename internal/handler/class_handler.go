package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/djschool-api/internal/models"
	"github.com/noah-isme/djschool-api/internal/service"
	"github.com/noah-isme/djschool-api/pkg/response"
)

// ClassHandler manages class session endpoints.
type ClassHandler struct {
	classes *service.ClassService
}

// NewClassHandler constructs the handler.
func NewClassHandler(classes *service.ClassService) *ClassHandler {
	return &ClassHandler{classes: classes}
}

// List godoc
// @Summary List class sessions
// @Tags Classes
// @Produce json
// @Param from query string false "Start date (YYYY-MM-DD)"
// @Param to query string false "End date, inclusive (YYYY-MM-DD)"
// @Param instructor_id query string false "Instructor ID"
// @Param q query string false "Search by title"
// @Param limit query int false "Maximum rows"
// @Success 200 {object} response.Envelope
// @Router /classes [get]
func (h *ClassHandler) List(c *gin.Context) {
	from, ok := optionalDate(c, "from")
	if !ok {
		return
	}
	to, ok := optionalDate(c, "to")
	if !ok {
		return
	}
	if to != nil {
		end := to.Add(24*time.Hour - time.Nanosecond)
		to = &end
	}
	filter := models.ClassFilter{
		From:         from,
		To:           to,
		InstructorID: strings.TrimSpace(c.Query("instructor_id")),
		Search:       strings.TrimSpace(c.Query("q")),
	}
	if limit, err := strconv.Atoi(c.Query("limit")); err == nil && limit > 0 {
		filter.Limit = limit
	}

	classes, err := h.classes.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, classes, nil)
}

// Get godoc
// @Summary Get class session
// @Tags Classes
// @Produce json
// @Param id path string true "Class ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /classes/{id} [get]
func (h *ClassHandler) Get(c *gin.Context) {
	class, err := h.classes.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, class, nil)
}

// Create godoc
// @Summary Schedule a class session
// @Tags Classes
// @Accept json
// @Produce json
// @Param payload body models.ClassInput true "Class payload"
// @Success 201 {object} response.Envelope
// @Router /classes [post]
func (h *ClassHandler) Create(c *gin.Context) {
	var in models.ClassInput
	if !bindJSON(c, &in, "invalid class payload") {
		return
	}
	res, err := h.classes.Create(c.Request.Context(), in)
	respond(c, http.StatusCreated, res, err)
}

// Update godoc
// @Summary Replace a class session
// @Tags Classes
// @Accept json
// @Produce json
// @Param id path string true "Class ID"
// @Param payload body models.ClassInput true "Class payload"
// @Success 200 {object} response.Envelope
// @Router /classes/{id} [put]
func (h *ClassHandler) Update(c *gin.Context) {
	var in models.ClassInput
	if !bindJSON(c, &in, "invalid class payload") {
		return
	}
	res, err := h.classes.Update(c.Request.Context(), c.Param("id"), in)
	respond(c, http.StatusOK, res, err)
}

// Delete godoc
// @Summary Delete a class session
// @Tags Classes
// @Param id path string true "Class ID"
// @Success 200 {object} response.Envelope
// @Router /classes/{id} [delete]
func (h *ClassHandler) Delete(c *gin.Context) {
	res, err := h.classes.Delete(c.Request.Context(), c.Param("id"))
	respond(c, http.StatusOK, res, err)
}
