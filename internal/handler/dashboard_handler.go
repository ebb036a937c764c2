package handler

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/djschool-api/internal/dto"
	appErrors "github.com/noah-isme/djschool-api/pkg/errors"
	"github.com/noah-isme/djschool-api/pkg/response"
)

type dashboardService interface {
	Mine(ctx context.Context) (interface{}, bool, error)
	Student(ctx context.Context) (*dto.StudentDashboard, bool, error)
	Instructor(ctx context.Context) (*dto.InstructorDashboard, bool, error)
	Admin(ctx context.Context) (*dto.AdminDashboard, bool, error)
}

// DashboardHandler wires dashboard service to HTTP endpoints.
type DashboardHandler struct {
	service dashboardService
}

// NewDashboardHandler constructs the handler.
func NewDashboardHandler(service dashboardService) *DashboardHandler {
	return &DashboardHandler{service: service}
}

// Mine godoc
// @Summary Dashboard for the caller's role
// @Tags Dashboard
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /dashboard [get]
func (h *DashboardHandler) Mine(c *gin.Context) {
	start := time.Now()
	data, hit, err := h.service.Mine(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	withCacheMeta(c, data, hit, start)
}

// Student godoc
// @Summary Student dashboard
// @Tags Dashboard
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /dashboard/student [get]
func (h *DashboardHandler) Student(c *gin.Context) {
	start := time.Now()
	data, hit, err := h.service.Student(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	withCacheMeta(c, data, hit, start)
}

// Instructor godoc
// @Summary Instructor dashboard
// @Tags Dashboard
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /dashboard/instructor [get]
func (h *DashboardHandler) Instructor(c *gin.Context) {
	start := time.Now()
	data, hit, err := h.service.Instructor(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	withCacheMeta(c, data, hit, start)
}

// Admin godoc
// @Summary Admin overview
// @Tags Dashboard
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /dashboard/admin [get]
func (h *DashboardHandler) Admin(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	start := time.Now()
	data, hit, err := h.service.Admin(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	withCacheMeta(c, data, hit, start)
}
