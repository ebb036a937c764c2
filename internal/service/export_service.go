package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/djschool-api/internal/dto"
	"github.com/noah-isme/djschool-api/internal/models"
	appErrors "github.com/noah-isme/djschool-api/pkg/errors"
	"github.com/noah-isme/djschool-api/pkg/export"
)

// ExportFormat selects the rendered statement type.
type ExportFormat string

const (
	ExportCSV ExportFormat = "csv"
	ExportPDF ExportFormat = "pdf"
)

type renderer interface {
	Render(data export.Dataset) ([]byte, error)
	ContentType() string
}

type paymentLister interface {
	List(ctx context.Context, filter models.PaymentFilter) ([]dto.PaymentView, error)
}

// ExportFile is a rendered statement ready to be served.
type ExportFile struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ExportService renders payment statements.
type ExportService struct {
	payments  paymentLister
	renderers map[ExportFormat]renderer
	logger    *zap.Logger
	now       func() time.Time
}

// NewExportService constructs an ExportService. Nil renderers fall back to
// the package defaults.
func NewExportService(payments paymentLister, logger *zap.Logger, csv, pdf renderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{
		payments:  payments,
		renderers: map[ExportFormat]renderer{ExportCSV: csv, ExportPDF: pdf},
		logger:    logger,
		now:       time.Now,
	}
}

// Payments renders the filtered ledger with a totals footer.
func (s *ExportService) Payments(ctx context.Context, filter models.PaymentFilter, format ExportFormat) (*ExportFile, error) {
	r, ok := s.renderers[ExportFormat(strings.ToLower(string(format)))]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported format %s", format))
	}
	views, err := s.payments.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	data, err := r.Render(paymentDataset(views))
	if err != nil {
		s.logger.Error("render payment statement", zap.String("format", string(format)), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render statement")
	}
	return &ExportFile{
		Filename:    fmt.Sprintf("payments_%s.%s", s.now().UTC().Format("20060102_150405"), strings.ToLower(string(format))),
		ContentType: r.ContentType(),
		Data:        data,
	}, nil
}

func paymentDataset(views []dto.PaymentView) export.Dataset {
	summary := summarise(views)
	ds := export.Dataset{
		Title:   "Instructor payments",
		Headers: []string{"Instructor", "Period", "Hours", "Rate", "Amount", "Status", "Paid at"},
		Rows:    make([]map[string]string, 0, len(views)),
	}
	for _, v := range views {
		paidAt := ""
		if v.PaidAt != nil {
			paidAt = v.PaidAt.UTC().Format("2006-01-02")
		}
		ds.Rows = append(ds.Rows, map[string]string{
			"Instructor": v.InstructorName,
			"Period":     v.PeriodStart.Format("2006-01-02") + " - " + v.PeriodEnd.Format("2006-01-02"),
			"Hours":      money(v.HoursWorked),
			"Rate":       money(v.HourlyRate),
			"Amount":     money(v.Amount),
			"Status":     string(v.Status),
			"Paid at":    paidAt,
		})
	}
	t := summary.Totals
	ds.Footer = []map[string]string{
		{"Instructor": "Pending", "Hours": money(t.PendingHours), "Amount": money(t.PendingAmount), "Status": fmt.Sprintf("%d", t.PendingCount)},
		{"Instructor": "Paid", "Hours": money(t.PaidHours), "Amount": money(t.PaidAmount), "Status": fmt.Sprintf("%d", t.PaidCount)},
	}
	return ds
}

func money(v float64) string {
	return fmt.Sprintf("%.2f", v)
}
