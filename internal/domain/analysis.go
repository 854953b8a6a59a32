package domain

import "time"

// GroupBy is the aggregation dimension requested for an analysis query.
type GroupBy string

const (
	GroupByDate     GroupBy = "date"
	GroupByRegion   GroupBy = "region"
	GroupByCategory GroupBy = "category"
	GroupByProduct  GroupBy = "product"
)

// RecordFilter narrows the record set. All supplied filters are combined
// with AND; zero values mean unrestricted.
type RecordFilter struct {
	DateFrom *time.Time
	DateTo   *time.Time
	Region   string
	Category string
	Product  string
}

// AnalysisQuery describes one aggregation request.
type AnalysisQuery struct {
	Filter  RecordFilter
	GroupBy GroupBy
}

// AggregateRow is one group in an aggregated view.
type AggregateRow struct {
	DimensionValue      string  `json:"dimension_value"`
	TotalSales          float64 `json:"total_sales"`
	TotalCost           float64 `json:"total_cost"`
	TotalProfit         float64 `json:"total_profit"`
	AverageProfitMargin float64 `json:"average_profit_margin"`
	RecordCount         int64   `json:"record_count"`
}

// Summary carries the dashboard KPI totals for a filtered record set.
type Summary struct {
	TotalSales   float64 `json:"total_sales"`
	TotalCost    float64 `json:"total_cost"`
	TotalProfit  float64 `json:"total_profit"`
	ProfitMargin float64 `json:"profit_margin"`
	RecordCount  int64   `json:"record_count"`
}

// FilterOptions lists the distinct values the dashboard offers as filters.
type FilterOptions struct {
	Regions    []string `json:"regions"`
	Categories []string `json:"categories"`
	Products   []string `json:"products"`
	DateMin    *string  `json:"date_min"`
	DateMax    *string  `json:"date_max"`
}

// RecordPage is one page of a filtered record listing.
type RecordPage struct {
	Records    []SalesRecord `json:"records"`
	TotalCount int64         `json:"total_count"`
	Limit      int           `json:"limit"`
	Offset     int           `json:"offset"`
}
