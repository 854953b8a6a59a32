package repository

import (
	"context"

	"salesinsight/internal/domain"
)

// SalesRecordRepository defines the store operations the core depends on:
// bulk natural-key lookup, atomic batch insert and filtered/grouped reads.
type SalesRecordRepository interface {
	// ExistingKeys returns which of the given natural keys are already
	// persisted, in a single round trip.
	ExistingKeys(ctx context.Context, keys []domain.NaturalKey) (map[domain.NaturalKey]struct{}, error)

	// InsertBatch persists records in one transaction. Rows whose natural
	// key already exists are skipped by the store and returned as
	// conflicts; any other failure rolls back the whole batch.
	InsertBatch(ctx context.Context, records []domain.SalesRecord) (inserted int, conflicts []domain.NaturalKey, err error)

	// Aggregate runs a grouped sum over the filtered record set.
	Aggregate(ctx context.Context, filter domain.RecordFilter, groupBy domain.GroupBy) ([]domain.AggregateRow, error)

	// Summary returns KPI totals for the filtered record set.
	Summary(ctx context.Context, filter domain.RecordFilter) (domain.Summary, error)

	// List returns one page of filtered records, newest date first, plus
	// the total matching count.
	List(ctx context.Context, filter domain.RecordFilter, limit, offset int) ([]domain.SalesRecord, int64, error)

	// Options returns the distinct filter values present in the store.
	Options(ctx context.Context) (domain.FilterOptions, error)
}

// IngestionLogRepository stores ingestion errors for observability.
type IngestionLogRepository interface {
	Record(ctx context.Context, entry domain.IngestionLogEntry) error
	List(ctx context.Context, fileName string, limit int, offset int) ([]domain.IngestionLogEntry, error)
}
