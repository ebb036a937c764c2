package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/djschool-api/internal/models"
	"github.com/noah-isme/djschool-api/internal/service"
	"github.com/noah-isme/djschool-api/pkg/response"
)

// InstructorHandler exposes instructor and availability endpoints.
type InstructorHandler struct {
	instructors  *service.InstructorService
	availability *service.AvailabilityService
}

// NewInstructorHandler constructs InstructorHandler.
func NewInstructorHandler(instructors *service.InstructorService, availability *service.AvailabilityService) *InstructorHandler {
	return &InstructorHandler{instructors: instructors, availability: availability}
}

// List godoc
// @Summary List instructors
// @Tags Instructors
// @Produce json
// @Param status query string false "Record status"
// @Param specialty query string false "Specialty"
// @Param q query string false "Search by name"
// @Success 200 {object} response.Envelope
// @Router /instructors [get]
func (h *InstructorHandler) List(c *gin.Context) {
	filter := service.InstructorFilter{
		Status:    models.RecordStatus(strings.ToLower(strings.TrimSpace(c.Query("status")))),
		Specialty: strings.TrimSpace(c.Query("specialty")),
		Search:    strings.TrimSpace(c.Query("q")),
	}
	items, err := h.instructors.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// Get godoc
// @Summary Get instructor
// @Tags Instructors
// @Produce json
// @Param id path string true "Instructor ID"
// @Success 200 {object} response.Envelope
// @Router /instructors/{id} [get]
func (h *InstructorHandler) Get(c *gin.Context) {
	item, err := h.instructors.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

// Create godoc
// @Summary Create instructor account
// @Tags Instructors
// @Accept json
// @Produce json
// @Param payload body models.CreateInstructorRequest true "Instructor"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /instructors [post]
func (h *InstructorHandler) Create(c *gin.Context) {
	var req models.CreateInstructorRequest
	if !bindJSON(c, &req, "invalid instructor payload") {
		return
	}
	res, err := h.instructors.Create(c.Request.Context(), req)
	respond(c, http.StatusCreated, res, err)
}

// Convert godoc
// @Summary Convert an existing profile into an instructor
// @Tags Instructors
// @Accept json
// @Produce json
// @Param payload body models.ConvertInstructorRequest true "Profile and details"
// @Success 201 {object} response.Envelope
// @Router /instructors/convert [post]
func (h *InstructorHandler) Convert(c *gin.Context) {
	var req models.ConvertInstructorRequest
	if !bindJSON(c, &req, "invalid instructor payload") {
		return
	}
	res, err := h.instructors.Convert(c.Request.Context(), req)
	respond(c, http.StatusCreated, res, err)
}

// Update godoc
// @Summary Update instructor details
// @Tags Instructors
// @Accept json
// @Produce json
// @Param id path string true "Instructor ID"
// @Param payload body models.InstructorUpdate true "Changed fields"
// @Success 200 {object} response.Envelope
// @Router /instructors/{id} [put]
func (h *InstructorHandler) Update(c *gin.Context) {
	var details models.InstructorUpdate
	if !bindJSON(c, &details, "invalid instructor payload") {
		return
	}
	res, err := h.instructors.Update(c.Request.Context(), c.Param("id"), details)
	respond(c, http.StatusOK, res, err)
}

// Transition returns the handler applying a moderation action.
// @Summary Approve, decline, activate or deactivate an instructor
// @Tags Instructors
// @Produce json
// @Param id path string true "Instructor ID"
// @Success 200 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /instructors/{id}/approve [post]
// @Router /instructors/{id}/decline [post]
// @Router /instructors/{id}/activate [post]
// @Router /instructors/{id}/deactivate [post]
func (h *InstructorHandler) Transition(action models.StatusAction) gin.HandlerFunc {
	return func(c *gin.Context) {
		res, err := h.instructors.Transition(c.Request.Context(), c.Param("id"), action)
		respond(c, http.StatusOK, res, err)
	}
}

// Availability godoc
// @Summary Weekly availability
// @Tags Instructors
// @Produce json
// @Param id path string true "Instructor ID"
// @Success 200 {object} response.Envelope
// @Router /instructors/{id}/availability [get]
func (h *InstructorHandler) Availability(c *gin.Context) {
	slots, err := h.availability.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, slots, nil)
}

// ReplaceAvailability godoc
// @Summary Replace weekly availability
// @Tags Instructors
// @Accept json
// @Produce json
// @Param id path string true "Instructor ID"
// @Param payload body models.ReplaceAvailabilityRequest true "Slots"
// @Success 200 {object} response.Envelope
// @Router /instructors/{id}/availability [put]
func (h *InstructorHandler) ReplaceAvailability(c *gin.Context) {
	var req models.ReplaceAvailabilityRequest
	if !bindJSON(c, &req, "invalid availability payload") {
		return
	}
	res, err := h.availability.Replace(c.Request.Context(), c.Param("id"), req)
	respond(c, http.StatusOK, res, err)
}
