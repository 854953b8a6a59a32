package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrFileFormat marks unreadable, empty or headerless uploads. Fatal,
	// raised before any row is evaluated.
	ErrFileFormat = errors.New("invalid file format")

	// ErrPersistence marks a store write failure. The whole batch rolls
	// back when it occurs.
	ErrPersistence = errors.New("persistence failure")
)

// SchemaError reports a header that does not match the required column
// contract. Fatal to the whole upload.
type SchemaError struct {
	Missing    []string
	Unexpected []string
}

func (e *SchemaError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, "missing required columns: "+strings.Join(e.Missing, ", "))
	}
	if len(e.Unexpected) > 0 {
		parts = append(parts, "unexpected columns: "+strings.Join(e.Unexpected, ", "))
	}
	if len(parts) == 0 {
		return "schema error"
	}
	return strings.Join(parts, "; ")
}

// RowError records a single row that failed validation. Non-fatal; the row
// is excluded and the error accumulated in the ingestion report.
type RowError struct {
	Row    int    `json:"row"`
	Reason string `json:"reason"`
}

func (e RowError) Error() string {
	return fmt.Sprintf("row %d: %s", e.Row, e.Reason)
}
