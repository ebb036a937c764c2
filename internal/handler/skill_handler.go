package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/djschool-api/internal/models"
	"github.com/noah-isme/djschool-api/internal/service"
	"github.com/noah-isme/djschool-api/pkg/response"
)

// SkillHandler exposes skill scores and lesson progress.
type SkillHandler struct {
	skills *service.SkillService
}

// NewSkillHandler constructs the handler.
func NewSkillHandler(skills *service.SkillService) *SkillHandler {
	return &SkillHandler{skills: skills}
}

// Summary godoc
// @Summary Skills of a student with average proficiency
// @Tags Skills
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/skills [get]
func (h *SkillHandler) Summary(c *gin.Context) {
	summary, err := h.skills.Summary(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil)
}

// Upsert godoc
// @Summary Set a skill score
// @Tags Skills
// @Accept json
// @Produce json
// @Param id path string true "Student ID"
// @Param payload body models.UpsertSkillRequest true "Skill"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/skills [put]
func (h *SkillHandler) Upsert(c *gin.Context) {
	var req models.UpsertSkillRequest
	if !bindJSON(c, &req, "invalid skill payload") {
		return
	}
	res, err := h.skills.UpsertSkill(c.Request.Context(), c.Param("id"), req)
	respond(c, http.StatusOK, res, err)
}

// Progress godoc
// @Summary Completed lessons of a student
// @Tags Skills
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/progress [get]
func (h *SkillHandler) Progress(c *gin.Context) {
	items, err := h.skills.Progress(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// RecordProgress godoc
// @Summary Mark a lesson completed
// @Tags Skills
// @Accept json
// @Produce json
// @Param id path string true "Student ID"
// @Param payload body models.RecordProgressRequest true "Lesson"
// @Success 201 {object} response.Envelope
// @Router /students/{id}/progress [post]
func (h *SkillHandler) RecordProgress(c *gin.Context) {
	var req models.RecordProgressRequest
	if !bindJSON(c, &req, "invalid progress payload") {
		return
	}
	res, err := h.skills.RecordProgress(c.Request.Context(), c.Param("id"), req)
	respond(c, http.StatusCreated, res, err)
}
