package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/djschool-api/internal/dto"
	"github.com/noah-isme/djschool-api/internal/models"
	"github.com/noah-isme/djschool-api/internal/service"
	"github.com/noah-isme/djschool-api/pkg/response"
)

type announcementService interface {
	List(ctx context.Context) ([]dto.AnnouncementView, error)
	Create(ctx context.Context, req models.CreateAnnouncementRequest) (service.Result[*models.Announcement], error)
	Delete(ctx context.Context, id string) (service.Result[struct{}], error)
	MarkRead(ctx context.Context, id string) (service.Result[*models.AnnouncementRead], error)
}

// AnnouncementHandler exposes announcement endpoints.
type AnnouncementHandler struct {
	service announcementService
}

// NewAnnouncementHandler constructs the handler.
func NewAnnouncementHandler(svc announcementService) *AnnouncementHandler {
	return &AnnouncementHandler{service: svc}
}

// List godoc
// @Summary Announcements visible to the caller
// @Tags Announcements
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /announcements [get]
func (h *AnnouncementHandler) List(c *gin.Context) {
	items, err := h.service.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil, map[string]interface{}{"unread": service.UnreadCount(items)})
}

// Create godoc
// @Summary Publish an announcement
// @Tags Announcements
// @Accept json
// @Produce json
// @Param payload body models.CreateAnnouncementRequest true "Announcement"
// @Success 201 {object} response.Envelope
// @Router /announcements [post]
func (h *AnnouncementHandler) Create(c *gin.Context) {
	var req models.CreateAnnouncementRequest
	if !bindJSON(c, &req, "invalid announcement payload") {
		return
	}
	res, err := h.service.Create(c.Request.Context(), req)
	respond(c, http.StatusCreated, res, err)
}

// Delete godoc
// @Summary Delete an announcement
// @Tags Announcements
// @Param id path string true "Announcement ID"
// @Success 200 {object} response.Envelope
// @Router /announcements/{id} [delete]
func (h *AnnouncementHandler) Delete(c *gin.Context) {
	res, err := h.service.Delete(c.Request.Context(), c.Param("id"))
	respond(c, http.StatusOK, res, err)
}

// MarkRead godoc
// @Summary Mark an announcement read
// @Tags Announcements
// @Param id path string true "Announcement ID"
// @Success 200 {object} response.Envelope
// @Router /announcements/{id}/read [post]
func (h *AnnouncementHandler) MarkRead(c *gin.Context) {
	res, err := h.service.MarkRead(c.Request.Context(), c.Param("id"))
	respond(c, http.StatusOK, res, err)
}
