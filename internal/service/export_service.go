package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Alnumo/IEP-Management-System-sub012/internal/models"
	appErrors "github.com/Alnumo/IEP-Management-System-sub012/pkg/errors"
	"github.com/Alnumo/IEP-Management-System-sub012/pkg/export"
)

// Export formats accepted by the sessions export endpoint.
const (
	ExportFormatCSV = "csv"
	ExportFormatPDF = "pdf"
)

var sessionExportHeaders = []string{"Date", "Start", "End", "Therapist", "Category", "Status"}

type studentSessionLister interface {
	ListByStudent(ctx context.Context, studentID string) ([]models.ScheduledSession, error)
}

// ExportService renders a student's session calendar as CSV or PDF.
type ExportService struct {
	sessions studentSessionLister
	csv      *export.CSVExporter
	pdf      *export.PDFExporter
	enabled  bool
	logger   *zap.Logger
}

// NewExportService wires the exporters.
func NewExportService(sessions studentSessionLister, enabled bool, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		sessions: sessions,
		csv:      export.NewCSVExporter(),
		pdf:      export.NewPDFExporter(),
		enabled:  enabled,
		logger:   logger,
	}
}

// ExportSessions returns the rendered document and its content type.
func (s *ExportService) ExportSessions(ctx context.Context, studentID, format string) ([]byte, string, error) {
	if !s.enabled {
		return nil, "", appErrors.Clone(appErrors.ErrNotFound,
			"session exports are disabled", "تصدير الجلسات معطل")
	}
	if studentID == "" {
		return nil, "", appErrors.Clone(appErrors.ErrValidation,
			"studentId is required", "معرف الطالب مطلوب")
	}

	sessions, err := s.sessions.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrProcessing, "failed to load sessions for export")
	}
	dataset := sessionDataset(sessions)

	switch format {
	case ExportFormatCSV, "":
		payload, err := s.csv.Render(dataset)
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrProcessing, "failed to render csv export")
		}
		return payload, "text/csv", nil
	case ExportFormatPDF:
		payload, err := s.pdf.Render(dataset, fmt.Sprintf("Session Calendar %s", time.Now().UTC().Format("2006-01-02")))
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrProcessing, "failed to render pdf export")
		}
		return payload, "application/pdf", nil
	default:
		return nil, "", appErrors.Clone(appErrors.ErrValidation,
			"format must be csv or pdf", "يجب أن تكون الصيغة csv أو pdf")
	}
}

func sessionDataset(sessions []models.ScheduledSession) export.Dataset {
	rows := make([]map[string]string, 0, len(sessions))
	for _, session := range sessions {
		rows = append(rows, map[string]string{
			"Date":      dateKey(session.Date),
			"Start":     session.StartTime,
			"End":       session.EndTime,
			"Therapist": session.TherapistID,
			"Category":  session.Category,
			"Status":    string(session.Status),
		})
	}
	return export.Dataset{Headers: sessionExportHeaders, Rows: rows}
}
