package ingestion

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"salesinsight/internal/domain"
)

// requiredColumns is the column contract every upload must satisfy.
var requiredColumns = []string{
	"date",
	"order_id",
	"product_id",
	"product_name",
	"category",
	"region",
	"quantity",
	"unit_price",
	"unit_cost",
}

// optionalColumns arrived with later sheet revisions; absence is tolerated
// and stored as null.
var optionalColumns = map[string]bool{
	"location": true,
	"site":     true,
}

var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"01/02/2006",
	"02/01/2006",
	"2006-01-02 15:04:05",
	time.RFC3339,
}

// ValidatedRow is one row that passed the schema checks, with typed values.
type ValidatedRow struct {
	Date        time.Time
	OrderID     string
	ProductID   string
	ProductName string
	Category    string
	Region      string
	Quantity    int
	UnitPrice   float64
	UnitCost    float64
	Location    *string
	Site        *string
}

// ValidateHeader checks the normalized header against the column contract.
// Missing required columns and unexpected extras are both schema errors.
func ValidateHeader(headers []string) error {
	present := make(map[string]bool, len(headers))
	for _, header := range headers {
		present[header] = true
	}

	schemaErr := &domain.SchemaError{}
	for _, required := range requiredColumns {
		if !present[required] {
			schemaErr.Missing = append(schemaErr.Missing, required)
		}
	}

	known := make(map[string]bool, len(requiredColumns)+len(optionalColumns))
	for _, required := range requiredColumns {
		known[required] = true
	}
	for optional := range optionalColumns {
		known[optional] = true
	}
	for _, header := range headers {
		if !known[header] {
			schemaErr.Unexpected = append(schemaErr.Unexpected, header)
		}
	}

	if len(schemaErr.Missing) > 0 || len(schemaErr.Unexpected) > 0 {
		return schemaErr
	}
	return nil
}

// ValidateRow checks one data row against the per-cell rules. rowNumber is
// the 1-based position in the file including the header, used for reporting.
func ValidateRow(headers []string, row []string, rowNumber int) (ValidatedRow, *domain.RowError) {
	cells := make(map[string]string, len(headers))
	for i, header := range headers {
		if i < len(row) {
			cells[header] = strings.TrimSpace(row[i])
		}
	}

	fail := func(format string, args ...any) (ValidatedRow, *domain.RowError) {
		return ValidatedRow{}, &domain.RowError{Row: rowNumber, Reason: fmt.Sprintf(format, args...)}
	}

	date, err := parseDate(cells["date"])
	if err != nil {
		return fail("date: %v", err)
	}

	validated := ValidatedRow{Date: date}
	for _, field := range []struct {
		name string
		dest *string
	}{
		{"order_id", &validated.OrderID},
		{"product_id", &validated.ProductID},
		{"product_name", &validated.ProductName},
		{"category", &validated.Category},
		{"region", &validated.Region},
	} {
		value := cells[field.name]
		if value == "" {
			return fail("%s must be a non-empty string", field.name)
		}
		*field.dest = value
	}

	quantity, err := strconv.Atoi(cells["quantity"])
	if err != nil {
		return fail("quantity: %q is not an integer", cells["quantity"])
	}
	if quantity < 0 {
		return fail("quantity must not be negative, got %d", quantity)
	}
	validated.Quantity = quantity

	for _, field := range []struct {
		name string
		dest *float64
	}{
		{"unit_price", &validated.UnitPrice},
		{"unit_cost", &validated.UnitCost},
	} {
		value, err := strconv.ParseFloat(cells[field.name], 64)
		if err != nil {
			return fail("%s: %q is not a decimal", field.name, cells[field.name])
		}
		if value < 0 {
			return fail("%s must not be negative, got %v", field.name, value)
		}
		*field.dest = value
	}

	if value := cells["location"]; value != "" {
		validated.Location = &value
	}
	if value := cells["site"]; value != "" {
		validated.Site = &value
	}

	return validated, nil
}

func parseDate(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, fmt.Errorf("value is empty")
	}
	for _, layout := range dateLayouts {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts.Truncate(24 * time.Hour), nil
		}
	}
	return time.Time{}, fmt.Errorf("%q is not a recognized calendar date", raw)
}
