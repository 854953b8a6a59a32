package domain

import (
	"time"

	"github.com/google/uuid"
)

// IngestionReport summarizes one upload. It lives for the duration of the
// request and is never persisted.
type IngestionReport struct {
	FileName   string       `json:"file_name"`
	TotalRows  int          `json:"total_rows"`
	Accepted   int          `json:"accepted"`
	Rejected   []RowError   `json:"rejected"`
	Duplicates []NaturalKey `json:"duplicates"`
}

// NewIngestionReport returns an empty report with initialized slices so the
// JSON rendering always carries arrays rather than nulls.
func NewIngestionReport(fileName string) IngestionReport {
	return IngestionReport{
		FileName:   fileName,
		Rejected:   []RowError{},
		Duplicates: []NaturalKey{},
	}
}

// IngestionLogEntry captures row level issues that occur during ingestion.
type IngestionLogEntry struct {
	ID           uuid.UUID `json:"id"`
	FileName     string    `json:"file_name"`
	RowNumber    *int      `json:"row_number,omitempty"`
	ErrorMessage string    `json:"error_message"`
	CreatedAt    time.Time `json:"created_at"`
}
