package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"mediasov/internal/dataset"
	"mediasov/internal/exporter"
	"mediasov/internal/reports"
)

// ExportFilename is the download name of the report workbook.
const ExportFilename = "All_Dataframes.xlsx"

// ErrUnknownSummary indicates a summary name that no builder produces.
var ErrUnknownSummary = errors.New("unknown summary table")

// ReportService turns a merged workbook into summary tables and the styled
// export workbook.
type ReportService struct {
	generator *reports.Generator
	logger    *slog.Logger
}

// NewReportService creates a new report service
func NewReportService(logger *slog.Logger) *ReportService {
	return &ReportService{
		generator: reports.NewGenerator(logger),
		logger:    logger.With(slog.String("service", "report")),
	}
}

// Preview builds all summary tables from the uploaded merged workbook and
// returns the one with the given name.
func (s *ReportService) Preview(ctx context.Context, data []byte, name string) (*dataset.Table, error) {
	t, err := dataset.ReadWorkbook(data)
	if err != nil {
		return nil, err
	}

	bundle, err := s.generator.Generate(ctx, t, reports.DefaultEntityInfo)
	if err != nil {
		return nil, err
	}

	table, ok := bundle.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSummary, name)
	}

	s.logger.InfoContext(ctx, "preview generated",
		slog.String("summary", name),
		slog.Int("rows", table.NumRows()),
	)
	return table, nil
}

// Export builds all summary tables and assembles the styled single-sheet
// workbook with the entity info block on top.
func (s *ReportService) Export(ctx context.Context, data []byte, entityInfo string) ([]byte, error) {
	t, err := dataset.ReadWorkbook(data)
	if err != nil {
		return nil, err
	}

	if entityInfo == "" {
		entityInfo = reports.DefaultEntityInfo
	}

	bundle, err := s.generator.Generate(ctx, t, entityInfo)
	if err != nil {
		return nil, err
	}

	out, err := exporter.WriteBundle(bundle)
	if err != nil {
		return nil, fmt.Errorf("write report workbook: %w", err)
	}

	s.logger.InfoContext(ctx, "report exported",
		slog.Int("tables", len(bundle.Sections)),
		slog.Int("bytes", len(out)),
	)
	return out, nil
}
