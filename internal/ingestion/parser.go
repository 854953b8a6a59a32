package ingestion

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"salesinsight/internal/domain"
)

var byteOrderMark = []byte{0xEF, 0xBB, 0xBF}

// Table is the normalized form of an uploaded spreadsheet: one header row
// plus the non-empty data rows, each padded to the header width.
type Table struct {
	Headers    []string
	RawHeaders []string
	Rows       [][]string
}

// ParseTable reads an uploaded file into a Table. The format is chosen by
// file extension; unreadable, empty or headerless input fails with
// domain.ErrFileFormat before any row is evaluated.
func ParseTable(fileName string, payload []byte) (Table, error) {
	if len(payload) == 0 {
		return Table{}, fmt.Errorf("%w: file is empty", domain.ErrFileFormat)
	}

	ext := strings.ToLower(filepath.Ext(fileName))
	switch ext {
	case ".csv":
		return parseCSV(payload)
	case ".xlsx":
		return parseExcel(payload)
	default:
		return Table{}, fmt.Errorf("%w: unsupported extension %q", domain.ErrFileFormat, ext)
	}
}

func parseCSV(payload []byte) (Table, error) {
	reader := bufio.NewReader(bytes.NewReader(payload))
	if prefix, err := reader.Peek(len(byteOrderMark)); err == nil && bytes.Equal(prefix, byteOrderMark) {
		_, _ = reader.Discard(len(byteOrderMark))
	}

	csvReader := csv.NewReader(reader)
	csvReader.TrimLeadingSpace = true
	csvReader.FieldsPerRecord = -1

	records, err := csvReader.ReadAll()
	if err != nil {
		return Table{}, fmt.Errorf("%w: failed to read csv: %v", domain.ErrFileFormat, err)
	}

	return normalizeTable(records)
}

func parseExcel(payload []byte) (Table, error) {
	f, err := excelize.OpenReader(bytes.NewReader(payload))
	if err != nil {
		return Table{}, fmt.Errorf("%w: failed to open xlsx: %v", domain.ErrFileFormat, err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return Table{}, fmt.Errorf("%w: excel file has no sheets", domain.ErrFileFormat)
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return Table{}, fmt.Errorf("%w: failed to read rows from xlsx: %v", domain.ErrFileFormat, err)
	}

	return normalizeTable(rows)
}

func normalizeTable(records [][]string) (Table, error) {
	var headerRow []string
	var dataRows [][]string

	for _, row := range records {
		if isEmptyRow(row) {
			continue
		}
		if headerRow == nil {
			headerRow = row
			continue
		}
		dataRows = append(dataRows, row)
	}

	if headerRow == nil {
		return Table{}, fmt.Errorf("%w: header row could not be detected", domain.ErrFileFormat)
	}

	headers := make([]string, len(headerRow))
	rawHeaders := make([]string, len(headerRow))
	for i, value := range headerRow {
		rawHeaders[i] = strings.TrimSpace(value)
		headers[i] = normalizeHeader(value)
	}

	for i := range dataRows {
		dataRows[i] = padRow(dataRows[i], len(headers))
	}

	return Table{
		Headers:    headers,
		RawHeaders: rawHeaders,
		Rows:       dataRows,
	}, nil
}

// normalizeHeader makes column matching tolerant of case, spacing and
// dashes, the way the original sheets vary between exports.
func normalizeHeader(value string) string {
	name := strings.ToLower(strings.TrimSpace(value))
	name = strings.ReplaceAll(name, " ", "_")
	name = strings.ReplaceAll(name, "-", "_")
	return strings.Trim(name, "_")
}

func isEmptyRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

func padRow(row []string, length int) []string {
	if len(row) >= length {
		return row[:length]
	}
	padded := make([]string, length)
	copy(padded, row)
	return padded
}
