package service

import (
	"context"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/amly-app/daily-digest-api/internal/models"
	appErrors "github.com/amly-app/daily-digest-api/pkg/errors"
	"github.com/amly-app/daily-digest-api/pkg/export"
)

// DigestExportService renders a composed daily update batch as CSV or PDF
// for teachers who want an offline copy of the day.
type DigestExportService struct {
	composer *DailyUpdateService
	csv      *export.CSVExporter
	pdf      *export.PDFExporter
	enabled  bool
	logger   *zap.Logger
}

// NewDigestExportService builds the service.
func NewDigestExportService(composer *DailyUpdateService, enabled bool, logger *zap.Logger) *DigestExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DigestExportService{
		composer: composer,
		csv:      export.NewCSVExporter(),
		pdf:      export.NewPDFExporter(),
		enabled:  enabled,
		logger:   logger,
	}
}

// Enabled reports whether export endpoints should be served.
func (s *DigestExportService) Enabled() bool {
	return s != nil && s.enabled
}

// ExportCSV composes the batch for the date and renders it as CSV bytes.
func (s *DigestExportService) ExportCSV(ctx context.Context, teacherID, date string) ([]byte, string, error) {
	dataset, err := s.dataset(ctx, teacherID, date)
	if err != nil {
		return nil, "", err
	}
	payload, err := s.csv.Render(*dataset)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv export")
	}
	return payload, fmt.Sprintf("daily-digest-%s.csv", date), nil
}

// ExportPDF composes the batch for the date and renders it as a PDF table.
func (s *DigestExportService) ExportPDF(ctx context.Context, teacherID, date string) ([]byte, string, error) {
	dataset, err := s.dataset(ctx, teacherID, date)
	if err != nil {
		return nil, "", err
	}
	payload, err := s.pdf.Render(*dataset, fmt.Sprintf("Daily Digest %s", date))
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf export")
	}
	return payload, fmt.Sprintf("daily-digest-%s.pdf", date), nil
}

func (s *DigestExportService) dataset(ctx context.Context, teacherID, date string) (*export.Dataset, error) {
	batch, err := s.composer.Compose(ctx, teacherID, date, models.AudienceParent)
	if err != nil {
		return nil, err
	}

	headers := []string{"Student", "Attendance", "Attendance Rate", "Overall Grade", "New Grades", "Behavior Entries", "Upcoming Assignments"}
	rows := make([]map[string]string, 0, len(batch.Updates))
	for _, update := range batch.Updates {
		rows = append(rows, map[string]string{
			"Student":              update.StudentName,
			"Attendance":           update.Attendance.Status,
			"Attendance Rate":      strconv.Itoa(update.AttendanceRate) + "%",
			"Overall Grade":        formatGrade(update.OverallGrade),
			"New Grades":           strconv.Itoa(len(update.Grades)),
			"Behavior Entries":     strconv.Itoa(len(update.Behavior)),
			"Upcoming Assignments": strconv.Itoa(len(update.UpcomingAssignments)),
		})
	}
	return &export.Dataset{Headers: headers, Rows: rows}, nil
}

func formatGrade(grade *int) string {
	if grade == nil {
		return "N/A"
	}
	return strconv.Itoa(*grade) + "%"
}
