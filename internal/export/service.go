package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"salesinsight/internal/domain"
	"salesinsight/internal/repository"
)

// pageSize bounds how many records are held in memory while streaming.
const pageSize = 1000

var csvHeader = []string{
	"order_id", "product_id", "date", "product_name", "category", "region",
	"location", "site", "quantity", "unit_price", "unit_cost",
	"sales", "cost", "profit", "profit_margin",
}

// Service streams filtered record sets as CSV.
type Service struct {
	repo repository.SalesRecordRepository
}

// NewService creates a new export service.
func NewService(repo repository.SalesRecordRepository) *Service {
	return &Service{repo: repo}
}

// WriteCSV streams all records matching the filter to w, page by page.
func (s *Service) WriteCSV(ctx context.Context, w io.Writer, filter domain.RecordFilter) error {
	csvWriter := csv.NewWriter(w)
	if err := csvWriter.Write(csvHeader); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}

	offset := 0
	for {
		records, _, err := s.repo.List(ctx, filter, pageSize, offset)
		if err != nil {
			return fmt.Errorf("failed to read records for export: %w", err)
		}

		for _, record := range records {
			if err := csvWriter.Write(recordRow(record)); err != nil {
				return fmt.Errorf("failed to write csv row: %w", err)
			}
		}

		if len(records) < pageSize {
			break
		}
		offset += pageSize
	}

	csvWriter.Flush()
	if err := csvWriter.Error(); err != nil {
		return fmt.Errorf("failed to flush csv: %w", err)
	}
	return nil
}

func recordRow(record domain.SalesRecord) []string {
	return []string{
		record.OrderID,
		record.ProductID,
		record.Date.Format(domain.DateLayout),
		record.ProductName,
		record.Category,
		record.Region,
		optional(record.Location),
		optional(record.Site),
		strconv.Itoa(record.Quantity),
		formatFloat(record.UnitPrice),
		formatFloat(record.UnitCost),
		formatFloat(record.Sales),
		formatFloat(record.Cost),
		formatFloat(record.Profit),
		formatFloat(record.ProfitMargin),
	}
}

func optional(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}

func formatFloat(value float64) string {
	return strconv.FormatFloat(value, 'f', -1, 64)
}
