// Package services contains the business logic behind the HTTP handlers:
// merging uploaded workbooks and generating summary reports.
package services

import (
	"context"
	"fmt"
	"log/slog"

	"mediasov/internal/dataset"
	apperrors "mediasov/internal/errors"
)

// MergedSheetName is the sheet carrying the concatenated rows.
const MergedSheetName = "Combined Data"

// MergedFilename is the download name of the merged workbook.
const MergedFilename = "combined_data.xlsx"

// Upload is a single uploaded workbook.
type Upload struct {
	Filename string
	Data     []byte
}

// MergeService concatenates uploaded workbooks into one entity-tagged table.
type MergeService struct {
	logger *slog.Logger
}

// NewMergeService creates a new merge service
func NewMergeService(logger *slog.Logger) *MergeService {
	return &MergeService{
		logger: logger.With(slog.String("service", "merge")),
	}
}

// Combine parses every upload, tags each table with the entity derived from
// its filename and concatenates them in upload order. Any unparseable file
// aborts the whole operation.
func (s *MergeService) Combine(ctx context.Context, uploads []Upload) (*dataset.Table, error) {
	if len(uploads) == 0 {
		return nil, apperrors.ErrMissingParameter
	}

	tables := make([]*dataset.Table, 0, len(uploads))
	for _, u := range uploads {
		t, err := dataset.ReadWorkbook(u.Data)
		if err != nil {
			s.logger.ErrorContext(ctx, "upload rejected",
				slog.String("filename", u.Filename),
				slog.String("error", err.Error()),
			)
			return nil, apperrors.UploadParseError(u.Filename, err)
		}

		entity := dataset.EntityFromFilename(u.Filename)
		tables = append(tables, t.WithEntity(entity))

		s.logger.InfoContext(ctx, "upload parsed",
			slog.String("filename", u.Filename),
			slog.String("entity", entity),
			slog.Int("rows", t.NumRows()),
		)
	}

	merged := dataset.Concat(tables...)
	s.logger.InfoContext(ctx, "uploads merged",
		slog.Int("files", len(uploads)),
		slog.Int("rows", merged.NumRows()),
	)
	return merged, nil
}

// CombineToWorkbook merges the uploads and serializes the result as an xlsx
// workbook ready for download.
func (s *MergeService) CombineToWorkbook(ctx context.Context, uploads []Upload) ([]byte, error) {
	merged, err := s.Combine(ctx, uploads)
	if err != nil {
		return nil, err
	}

	data, err := dataset.WriteWorkbook(merged, MergedSheetName)
	if err != nil {
		return nil, fmt.Errorf("write merged workbook: %w", err)
	}
	return data, nil
}
