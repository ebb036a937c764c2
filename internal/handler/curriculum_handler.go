package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/djschool-api/internal/models"
	"github.com/noah-isme/djschool-api/internal/service"
	"github.com/noah-isme/djschool-api/pkg/response"
)

// CurriculumHandler exposes modules and lessons.
type CurriculumHandler struct {
	curriculum *service.CurriculumService
}

// NewCurriculumHandler constructs the handler.
func NewCurriculumHandler(curriculum *service.CurriculumService) *CurriculumHandler {
	return &CurriculumHandler{curriculum: curriculum}
}

// Modules godoc
// @Summary Modules of a level with their lessons
// @Tags Curriculum
// @Produce json
// @Param level query string true "beginner, intermediate or advanced"
// @Success 200 {object} response.Envelope
// @Router /curriculum/modules [get]
func (h *CurriculumHandler) Modules(c *gin.Context) {
	modules, err := h.curriculum.Modules(c.Request.Context(), c.Query("level"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, modules, nil)
}

// CreateModule godoc
// @Summary Create a module
// @Tags Curriculum
// @Accept json
// @Produce json
// @Param payload body models.ModuleInput true "Module"
// @Success 201 {object} response.Envelope
// @Router /curriculum/modules [post]
func (h *CurriculumHandler) CreateModule(c *gin.Context) {
	var in models.ModuleInput
	if !bindJSON(c, &in, "invalid module payload") {
		return
	}
	res, err := h.curriculum.CreateModule(c.Request.Context(), in)
	respond(c, http.StatusCreated, res, err)
}

// UpdateModule godoc
// @Summary Edit a module
// @Tags Curriculum
// @Accept json
// @Produce json
// @Param id path string true "Module ID"
// @Param payload body models.ModuleInput true "Module"
// @Success 200 {object} response.Envelope
// @Router /curriculum/modules/{id} [put]
func (h *CurriculumHandler) UpdateModule(c *gin.Context) {
	var in models.ModuleInput
	if !bindJSON(c, &in, "invalid module payload") {
		return
	}
	res, err := h.curriculum.UpdateModule(c.Request.Context(), c.Param("id"), in)
	respond(c, http.StatusOK, res, err)
}

// DeleteModule godoc
// @Summary Delete a module and its lessons
// @Tags Curriculum
// @Param id path string true "Module ID"
// @Success 200 {object} response.Envelope
// @Router /curriculum/modules/{id} [delete]
func (h *CurriculumHandler) DeleteModule(c *gin.Context) {
	res, err := h.curriculum.DeleteModule(c.Request.Context(), c.Param("id"))
	respond(c, http.StatusOK, res, err)
}

// CreateLesson godoc
// @Summary Append a lesson to a module
// @Tags Curriculum
// @Accept json
// @Produce json
// @Param id path string true "Module ID"
// @Param payload body models.LessonInput true "Lesson"
// @Success 201 {object} response.Envelope
// @Router /curriculum/modules/{id}/lessons [post]
func (h *CurriculumHandler) CreateLesson(c *gin.Context) {
	var in models.LessonInput
	if !bindJSON(c, &in, "invalid lesson payload") {
		return
	}
	res, err := h.curriculum.CreateLesson(c.Request.Context(), c.Param("id"), in)
	respond(c, http.StatusCreated, res, err)
}

// DeleteLesson godoc
// @Summary Delete a lesson
// @Tags Curriculum
// @Param id path string true "Lesson ID"
// @Success 200 {object} response.Envelope
// @Router /curriculum/lessons/{id} [delete]
func (h *CurriculumHandler) DeleteLesson(c *gin.Context) {
	res, err := h.curriculum.DeleteLesson(c.Request.Context(), c.Param("id"))
	respond(c, http.StatusOK, res, err)
}
