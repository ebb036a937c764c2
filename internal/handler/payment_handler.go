package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/djschool-api/internal/dto"
	"github.com/noah-isme/djschool-api/internal/models"
	"github.com/noah-isme/djschool-api/internal/service"
	appErrors "github.com/noah-isme/djschool-api/pkg/errors"
	"github.com/noah-isme/djschool-api/pkg/response"
)

type paymentService interface {
	List(ctx context.Context, filter models.PaymentFilter) ([]dto.PaymentView, error)
	Summary(ctx context.Context, filter models.PaymentFilter) (*dto.PaymentSummary, error)
	Create(ctx context.Context, req models.CreatePaymentRequest) (service.Result[*models.InstructorPayment], error)
	Update(ctx context.Context, id string, req models.UpdatePaymentRequest) (service.Result[*models.InstructorPayment], error)
	MarkPaid(ctx context.Context, id string) (service.Result[*models.InstructorPayment], error)
}

type paymentExporter interface {
	Payments(ctx context.Context, filter models.PaymentFilter, format service.ExportFormat) (*service.ExportFile, error)
}

// PaymentHandler exposes instructor payment endpoints.
type PaymentHandler struct {
	payments paymentService
	exports  paymentExporter
}

// NewPaymentHandler constructs the handler.
func NewPaymentHandler(payments paymentService, exports paymentExporter) *PaymentHandler {
	return &PaymentHandler{payments: payments, exports: exports}
}

func paymentFilter(c *gin.Context) (models.PaymentFilter, bool) {
	filter := models.PaymentFilter{
		InstructorID: strings.TrimSpace(c.Query("instructor_id")),
		Status:       models.PaymentStatus(strings.ToLower(strings.TrimSpace(c.Query("status")))),
	}
	switch filter.Status {
	case "", models.PaymentPending, models.PaymentPaid:
		return filter, true
	}
	response.Error(c, appErrors.Clone(appErrors.ErrValidation, "status must be pending or paid"))
	return filter, false
}

// List godoc
// @Summary List payments
// @Description Instructors only see their own payments
// @Tags Payments
// @Produce json
// @Param instructor_id query string false "Instructor ID"
// @Param status query string false "pending or paid"
// @Success 200 {object} response.Envelope
// @Router /payments [get]
func (h *PaymentHandler) List(c *gin.Context) {
	filter, ok := paymentFilter(c)
	if !ok {
		return
	}
	items, err := h.payments.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// Summary godoc
// @Summary Pending payments, history and totals
// @Tags Payments
// @Produce json
// @Param instructor_id query string false "Instructor ID"
// @Success 200 {object} response.Envelope
// @Router /payments/summary [get]
func (h *PaymentHandler) Summary(c *gin.Context) {
	filter, ok := paymentFilter(c)
	if !ok {
		return
	}
	summary, err := h.payments.Summary(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil)
}

// Create godoc
// @Summary Record a payment period
// @Tags Payments
// @Accept json
// @Produce json
// @Param payload body models.CreatePaymentRequest true "Payment"
// @Success 201 {object} response.Envelope
// @Router /payments [post]
func (h *PaymentHandler) Create(c *gin.Context) {
	var req models.CreatePaymentRequest
	if !bindJSON(c, &req, "invalid payment payload") {
		return
	}
	res, err := h.payments.Create(c.Request.Context(), req)
	respond(c, http.StatusCreated, res, err)
}

// Update godoc
// @Summary Edit hours or rate of a pending payment
// @Tags Payments
// @Accept json
// @Produce json
// @Param id path string true "Payment ID"
// @Param payload body models.UpdatePaymentRequest true "Changes"
// @Success 200 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /payments/{id} [patch]
func (h *PaymentHandler) Update(c *gin.Context) {
	var req models.UpdatePaymentRequest
	if !bindJSON(c, &req, "invalid payment payload") {
		return
	}
	res, err := h.payments.Update(c.Request.Context(), c.Param("id"), req)
	respond(c, http.StatusOK, res, err)
}

// MarkPaid godoc
// @Summary Mark a payment paid
// @Tags Payments
// @Param id path string true "Payment ID"
// @Success 200 {object} response.Envelope
// @Router /payments/{id}/paid [post]
func (h *PaymentHandler) MarkPaid(c *gin.Context) {
	res, err := h.payments.MarkPaid(c.Request.Context(), c.Param("id"))
	respond(c, http.StatusOK, res, err)
}

// Export godoc
// @Summary Download a payment statement
// @Tags Payments
// @Produce text/csv
// @Produce application/pdf
// @Param format query string false "csv (default) or pdf"
// @Param instructor_id query string false "Instructor ID"
// @Param status query string false "pending or paid"
// @Success 200 {file} file
// @Router /payments/export [get]
func (h *PaymentHandler) Export(c *gin.Context) {
	filter, ok := paymentFilter(c)
	if !ok {
		return
	}
	format := service.ExportFormat(strings.ToLower(c.DefaultQuery("format", string(service.ExportCSV))))
	file, err := h.exports.Payments(c.Request.Context(), filter, format)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", "attachment; filename="+strconv.Quote(file.Filename))
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, file.ContentType, file.Data)
}
