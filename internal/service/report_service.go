package service

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/oliveandembers/backoffice-api/internal/dto"
	"github.com/oliveandembers/backoffice-api/internal/models"
	appErrors "github.com/oliveandembers/backoffice-api/pkg/errors"
	"github.com/oliveandembers/backoffice-api/pkg/export"
)

// ReportHistorySource reads sync runs for history reports.
type ReportHistorySource interface {
	List(ctx context.Context, filter models.SyncHistoryFilter) ([]models.SyncHistoryEntry, int, error)
}

// ReportVariableSource reads the full variable set for snapshot reports.
type ReportVariableSource interface {
	List(ctx context.Context) ([]models.ConfigVariable, error)
}

// ReportStorage persists generated report files.
type ReportStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
}

// ReportSigner issues and validates download tokens.
type ReportSigner interface {
	Generate(reportID, relPath string) (string, time.Time, error)
	Parse(token string, allowExpired bool) (reportID, relPath string, expiresAt time.Time, err error)
}

// historyReportPageSize caps exported rows so one report stays bounded.
const historyReportPageSize = 200

// ReportService renders sync history and variable snapshots into CSV or PDF
// files and hands out signed download links.
type ReportService struct {
	history   ReportHistorySource
	variables ReportVariableSource
	storage   ReportStorage
	signer    ReportSigner
	csv       *export.CSVExporter
	pdf       *export.PDFExporter
	logger    *zap.Logger
}

// NewReportService constructs the report service.
func NewReportService(history ReportHistorySource, variables ReportVariableSource, storage ReportStorage, signer ReportSigner, logger *zap.Logger) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportService{
		history:   history,
		variables: variables,
		storage:   storage,
		signer:    signer,
		csv:       export.NewCSVExporter(),
		pdf:       export.NewPDFExporter(),
		logger:    logger,
	}
}

// GenerateSyncHistory renders recent sync runs into a downloadable report.
func (s *ReportService) GenerateSyncHistory(ctx context.Context, format string, filter models.SyncHistoryFilter) (*dto.ReportLink, error) {
	filter.Page = 1
	filter.PageSize = historyReportPageSize
	entries, _, err := s.history.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "load sync history")
	}

	data := export.Dataset{
		Headers: []string{"source", "type", "outcome", "started_at", "finished_at", "added", "changed", "removed", "error"},
	}
	for _, e := range entries {
		row := map[string]string{
			"source":      e.Source,
			"type":        string(e.SyncType),
			"outcome":     string(e.Outcome),
			"started_at":  e.StartedAt.UTC().Format(time.RFC3339),
			"finished_at": e.FinishedAt.UTC().Format(time.RFC3339),
			"added":       strconv.Itoa(e.AddedCount),
			"changed":     strconv.Itoa(e.ChangedCount),
			"removed":     strconv.Itoa(e.RemovedCount),
		}
		if e.Error != nil {
			row["error"] = *e.Error
		}
		data.Rows = append(data.Rows, row)
	}

	return s.store(data, "sync-history", "Sync History", format)
}

// GenerateVariables renders the current config snapshot into a downloadable
// report.
func (s *ReportService) GenerateVariables(ctx context.Context, format string) (*dto.ReportLink, error) {
	vars, err := s.variables.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "load config variables")
	}

	data := export.Dataset{
		Headers: []string{"category", "key", "value", "type", "priority", "updated_by", "updated_at"},
	}
	for _, v := range vars {
		row := map[string]string{
			"category":   string(v.Category),
			"key":        v.Key,
			"value":      v.Value,
			"type":       string(v.Type),
			"priority":   string(models.PriorityFor(v.Category)),
			"updated_at": v.UpdatedAt.UTC().Format(time.RFC3339),
		}
		if v.UpdatedBy != nil {
			row["updated_by"] = *v.UpdatedBy
		}
		data.Rows = append(data.Rows, row)
	}

	return s.store(data, "variables", "Config Variables", format)
}

// Open resolves a download token to the stored report file.
func (s *ReportService) Open(token string) (*os.File, error) {
	_, relPath, _, err := s.signer.Parse(token, false)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid or expired download token")
	}
	file, err := s.storage.Open(relPath)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "report file not found")
	}
	return file, nil
}

func (s *ReportService) store(data export.Dataset, kind, title, format string) (*dto.ReportLink, error) {
	var (
		payload []byte
		err     error
	)
	switch format {
	case "", "csv":
		format = "csv"
		payload, err = s.csv.Render(data)
	case "pdf":
		payload, err = s.pdf.Render(data, title)
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported format: %s", format))
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "render report")
	}

	reportID := uuid.NewString()
	filename := fmt.Sprintf("%s/%s.%s", kind, reportID, format)
	if _, err := s.storage.Save(filename, payload); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "store report")
	}

	token, expiresAt, err := s.signer.Generate(reportID, filename)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "sign report link")
	}

	s.logger.Info("report generated",
		zap.String("report_id", reportID),
		zap.String("kind", kind),
		zap.String("format", format),
		zap.Int("rows", len(data.Rows)))

	return &dto.ReportLink{
		ReportID:  reportID,
		Format:    format,
		File:      filename,
		Token:     token,
		ExpiresAt: expiresAt.UTC().Format(time.RFC3339),
	}, nil
}
