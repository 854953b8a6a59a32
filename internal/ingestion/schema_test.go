package ingestion

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salesinsight/internal/domain"
)

var validHeaders = []string{
	"date", "order_id", "product_id", "product_name",
	"category", "region", "quantity", "unit_price", "unit_cost",
}

func TestValidateHeaderAcceptsContract(t *testing.T) {
	assert.NoError(t, ValidateHeader(validHeaders))
}

func TestValidateHeaderToleratesOptionalColumns(t *testing.T) {
	headers := append(append([]string{}, validHeaders...), "location", "site")
	assert.NoError(t, ValidateHeader(headers))
}

func TestValidateHeaderMissingColumn(t *testing.T) {
	headers := []string{}
	for _, h := range validHeaders {
		if h != "region" {
			headers = append(headers, h)
		}
	}

	err := ValidateHeader(headers)
	require.Error(t, err)

	var schemaErr *domain.SchemaError
	require.ErrorAs(t, err, &schemaErr)
	assert.Equal(t, []string{"region"}, schemaErr.Missing)
	assert.Contains(t, err.Error(), "region")
}

func TestValidateHeaderUnexpectedColumn(t *testing.T) {
	headers := append(append([]string{}, validHeaders...), "discount")

	var schemaErr *domain.SchemaError
	require.ErrorAs(t, ValidateHeader(headers), &schemaErr)
	assert.Equal(t, []string{"discount"}, schemaErr.Unexpected)
}

func validRow() []string {
	return []string{"2024-02-10", "ORD-1", "P-1", "Widget", "Hardware", "East", "3", "19.99", "12.50"}
}

func TestValidateRowAccepts(t *testing.T) {
	validated, rowErr := ValidateRow(validHeaders, validRow(), 2)
	require.Nil(t, rowErr)

	assert.Equal(t, "ORD-1", validated.OrderID)
	assert.Equal(t, 3, validated.Quantity)
	assert.InDelta(t, 19.99, validated.UnitPrice, 1e-9)
	assert.Equal(t, "2024-02-10", validated.Date.Format(domain.DateLayout))
	assert.Nil(t, validated.Location)
}

func TestValidateRowOptionalColumns(t *testing.T) {
	headers := append(append([]string{}, validHeaders...), "location", "site")
	row := append(validRow(), "London", "")

	validated, rowErr := ValidateRow(headers, row, 2)
	require.Nil(t, rowErr)
	require.NotNil(t, validated.Location)
	assert.Equal(t, "London", *validated.Location)
	assert.Nil(t, validated.Site)
}

func TestValidateRowRejections(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(row []string)
		reason string
	}{
		{"bad date", func(row []string) { row[0] = "not-a-date" }, "date"},
		{"empty order id", func(row []string) { row[1] = "" }, "order_id"},
		{"empty region", func(row []string) { row[5] = "   " }, "region"},
		{"fractional quantity", func(row []string) { row[6] = "2.5" }, "quantity"},
		{"negative quantity", func(row []string) { row[6] = "-1" }, "quantity"},
		{"bad unit price", func(row []string) { row[7] = "free" }, "unit_price"},
		{"negative unit cost", func(row []string) { row[8] = "-0.01" }, "unit_cost"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			row := validRow()
			tc.mutate(row)

			_, rowErr := ValidateRow(validHeaders, row, 7)
			require.NotNil(t, rowErr)
			assert.Equal(t, 7, rowErr.Row)
			assert.Contains(t, rowErr.Reason, tc.reason)
		})
	}
}

func TestValidateRowZeroQuantityAllowed(t *testing.T) {
	row := validRow()
	row[6] = "0"

	validated, rowErr := ValidateRow(validHeaders, row, 2)
	require.Nil(t, rowErr)
	assert.Zero(t, validated.Quantity)
}
