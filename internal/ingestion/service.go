package ingestion

import (
	"context"
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"

	"salesinsight/internal/domain"
	"salesinsight/internal/repository"
)

// Service runs the ingestion pipeline: parse, validate, derive, dedup,
// persist. One call handles one uploaded file.
type Service struct {
	recordRepo repository.SalesRecordRepository
	logRepo    repository.IngestionLogRepository
	logger     *zap.Logger
}

// NewService creates a new ingestion service.
func NewService(recordRepo repository.SalesRecordRepository, logRepo repository.IngestionLogRepository, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		recordRepo: recordRepo,
		logRepo:    logRepo,
		logger:     logger,
	}
}

// Request describes the ingestion input.
type Request struct {
	FileName string
	Data     io.Reader
}

// Ingest processes one uploaded file and returns its report. Fatal errors
// (unreadable file, header mismatch, store failure) abort the pipeline;
// per-row problems are accumulated in the report instead.
func (s *Service) Ingest(ctx context.Context, req Request) (domain.IngestionReport, error) {
	report := domain.NewIngestionReport(req.FileName)

	if req.Data == nil {
		return report, fmt.Errorf("%w: data reader is required", domain.ErrFileFormat)
	}
	payload, err := io.ReadAll(req.Data)
	if err != nil {
		return report, fmt.Errorf("%w: failed to read upload: %v", domain.ErrFileFormat, err)
	}

	table, err := ParseTable(req.FileName, payload)
	if err != nil {
		return report, err
	}
	report.TotalRows = len(table.Rows)

	if err := ValidateHeader(table.Headers); err != nil {
		return report, err
	}

	records := make([]domain.SalesRecord, 0, len(table.Rows))
	for i, row := range table.Rows {
		rowNumber := i + 2 // 1-based, counting the header row
		validated, rowErr := ValidateRow(table.Headers, row, rowNumber)
		if rowErr != nil {
			report.Rejected = append(report.Rejected, *rowErr)
			s.logRowError(ctx, req.FileName, rowErr.Row, rowErr.Reason)
			continue
		}

		record := domain.NewSalesRecord(
			validated.OrderID, validated.ProductID, validated.Date,
			validated.ProductName, validated.Category, validated.Region,
			validated.Quantity, validated.UnitPrice, validated.UnitCost,
		)
		record.Location = validated.Location
		record.Site = validated.Site
		records = append(records, record)
	}

	partition, err := Deduplicate(ctx, s.recordRepo, records)
	if err != nil {
		return report, fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}
	report.Duplicates = append(report.Duplicates, partition.Duplicates...)

	inserted, conflicts, err := s.recordRepo.InsertBatch(ctx, partition.New)
	if err != nil {
		return report, fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}

	// Conflicts surface when a concurrent upload wins the race after the
	// bulk check; the constraint makes them duplicates, not failures.
	report.Duplicates = append(report.Duplicates, conflicts...)
	report.Accepted = inserted

	s.logger.Info("ingestion completed",
		zap.String("file", req.FileName),
		zap.Int("total_rows", report.TotalRows),
		zap.Int("accepted", report.Accepted),
		zap.Int("rejected", len(report.Rejected)),
		zap.Int("duplicates", len(report.Duplicates)),
	)

	return report, nil
}

// IsFatalClientError reports whether an ingestion failure was caused by the
// uploaded file rather than the store.
func IsFatalClientError(err error) bool {
	var schemaErr *domain.SchemaError
	return errors.Is(err, domain.ErrFileFormat) || errors.As(err, &schemaErr)
}

func (s *Service) logRowError(ctx context.Context, fileName string, rowNumber int, reason string) {
	if s.logRepo == nil {
		return
	}
	entry := domain.IngestionLogEntry{
		FileName:     fileName,
		RowNumber:    &rowNumber,
		ErrorMessage: reason,
	}
	if err := s.logRepo.Record(ctx, entry); err != nil {
		s.logger.Warn("failed to record ingestion log", zap.Error(err))
	}
}
