package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"salesinsight/internal/domain"
)

const salesRecordColumns = `id, order_id, product_id, date, product_name, category, region,
	location, site, quantity, unit_price, unit_cost, sales, cost, profit, profit_margin, created_at`

// salesRecordRepository implements SalesRecordRepository on pgx.
type salesRecordRepository struct {
	pool *pgxpool.Pool
}

// NewSalesRecordRepository wires a repository backed by pgxpool.
func NewSalesRecordRepository(pool *pgxpool.Pool) SalesRecordRepository {
	return &salesRecordRepository{pool: pool}
}

// ExistingKeys checks which natural keys are already stored using a single
// tuple-IN query, so dedup cost stays bounded by the batch size.
func (r *salesRecordRepository) ExistingKeys(ctx context.Context, keys []domain.NaturalKey) (map[domain.NaturalKey]struct{}, error) {
	existing := make(map[domain.NaturalKey]struct{}, len(keys))
	if len(keys) == 0 {
		return existing, nil
	}

	placeholders := make([]string, len(keys))
	args := make([]any, 0, len(keys)*3)
	for i, key := range keys {
		placeholders[i] = fmt.Sprintf("($%d, $%d, $%d::date)", len(args)+1, len(args)+2, len(args)+3)
		args = append(args, key.OrderID, key.ProductID, key.Date)
	}

	query := fmt.Sprintf(
		`SELECT order_id, product_id, to_char(date, 'YYYY-MM-DD')
		 FROM sales_records
		 WHERE (order_id, product_id, date) IN (%s)`,
		strings.Join(placeholders, ", "),
	)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to look up existing keys: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var key domain.NaturalKey
		if err := rows.Scan(&key.OrderID, &key.ProductID, &key.Date); err != nil {
			return nil, fmt.Errorf("failed to scan existing key: %w", err)
		}
		existing[key] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate existing keys: %w", err)
	}

	return existing, nil
}

// InsertBatch writes all records in one transaction. ON CONFLICT DO NOTHING
// on the natural-key constraint turns concurrent double-inserts into
// reported conflicts instead of errors; any other failure rolls the whole
// batch back.
func (r *salesRecordRepository) InsertBatch(ctx context.Context, records []domain.SalesRecord) (int, []domain.NaturalKey, error) {
	if len(records) == 0 {
		return 0, nil, nil
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	placeholders := make([]string, len(records))
	args := make([]any, 0, len(records)*16)
	for i, record := range records {
		base := len(args)
		marks := make([]string, 16)
		for j := range marks {
			marks[j] = fmt.Sprintf("$%d", base+j+1)
		}
		placeholders[i] = "(" + strings.Join(marks, ", ") + ")"
		args = append(args,
			record.ID, record.OrderID, record.ProductID, record.Date,
			record.ProductName, record.Category, record.Region,
			record.Location, record.Site,
			record.Quantity, record.UnitPrice, record.UnitCost,
			record.Sales, record.Cost, record.Profit, record.ProfitMargin,
		)
	}

	query := fmt.Sprintf(
		`INSERT INTO sales_records
		 (id, order_id, product_id, date, product_name, category, region,
		  location, site, quantity, unit_price, unit_cost, sales, cost, profit, profit_margin)
		 VALUES %s
		 ON CONFLICT ON CONSTRAINT uq_sales_natural_key DO NOTHING
		 RETURNING order_id, product_id, to_char(date, 'YYYY-MM-DD')`,
		strings.Join(placeholders, ", "),
	)

	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to insert batch: %w", err)
	}

	inserted := make(map[domain.NaturalKey]struct{}, len(records))
	for rows.Next() {
		var key domain.NaturalKey
		if err := rows.Scan(&key.OrderID, &key.ProductID, &key.Date); err != nil {
			rows.Close()
			return 0, nil, fmt.Errorf("failed to scan inserted key: %w", err)
		}
		inserted[key] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return 0, nil, fmt.Errorf("failed to iterate inserted keys: %w", err)
	}
	rows.Close()

	var conflicts []domain.NaturalKey
	for _, record := range records {
		if _, ok := inserted[record.Key()]; !ok {
			conflicts = append(conflicts, record.Key())
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, nil, fmt.Errorf("failed to commit batch: %w", err)
	}

	return len(inserted), conflicts, nil
}

// Aggregate pushes the grouped reduce into the store so memory use stays
// bounded as the record volume grows. Margin computation and final ordering
// belong to the analysis service.
func (r *salesRecordRepository) Aggregate(ctx context.Context, filter domain.RecordFilter, groupBy domain.GroupBy) ([]domain.AggregateRow, error) {
	dimension, err := dimensionExpression(groupBy)
	if err != nil {
		return nil, err
	}

	where, args := filterClause(filter)
	query := fmt.Sprintf(
		`SELECT %s AS dimension_value,
		        COALESCE(SUM(sales), 0),
		        COALESCE(SUM(cost), 0),
		        COALESCE(SUM(profit), 0),
		        COUNT(*)
		 FROM sales_records
		 %s
		 GROUP BY 1`,
		dimension, where,
	)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate records: %w", err)
	}
	defer rows.Close()

	groups := []domain.AggregateRow{}
	for rows.Next() {
		var row domain.AggregateRow
		if err := rows.Scan(&row.DimensionValue, &row.TotalSales, &row.TotalCost, &row.TotalProfit, &row.RecordCount); err != nil {
			return nil, fmt.Errorf("failed to scan aggregate row: %w", err)
		}
		groups = append(groups, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate aggregate rows: %w", err)
	}

	return groups, nil
}

// Summary returns KPI totals for the filtered record set.
func (r *salesRecordRepository) Summary(ctx context.Context, filter domain.RecordFilter) (domain.Summary, error) {
	where, args := filterClause(filter)
	query := fmt.Sprintf(
		`SELECT COALESCE(SUM(sales), 0),
		        COALESCE(SUM(cost), 0),
		        COALESCE(SUM(profit), 0),
		        COUNT(*)
		 FROM sales_records
		 %s`,
		where,
	)

	var summary domain.Summary
	err := r.pool.QueryRow(ctx, query, args...).Scan(
		&summary.TotalSales, &summary.TotalCost, &summary.TotalProfit, &summary.RecordCount,
	)
	if err != nil {
		return domain.Summary{}, fmt.Errorf("failed to compute summary: %w", err)
	}

	if summary.TotalSales != 0 {
		summary.ProfitMargin = summary.TotalProfit / summary.TotalSales
	}
	return summary, nil
}

// List returns one page of filtered records, newest date first.
func (r *salesRecordRepository) List(ctx context.Context, filter domain.RecordFilter, limit, offset int) ([]domain.SalesRecord, int64, error) {
	where, args := filterClause(filter)
	args = append(args, limit, offset)
	query := fmt.Sprintf(
		`SELECT %s, COUNT(*) OVER() AS total_count
		 FROM sales_records
		 %s
		 ORDER BY date DESC, created_at DESC
		 LIMIT $%d OFFSET $%d`,
		salesRecordColumns, where, len(args)-1, len(args),
	)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list records: %w", err)
	}
	defer rows.Close()

	records := []domain.SalesRecord{}
	var totalCount int64
	for rows.Next() {
		record, count, err := scanSalesRecordWithCount(rows)
		if err != nil {
			return nil, 0, err
		}
		records = append(records, record)
		totalCount = count
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate records: %w", err)
	}

	return records, totalCount, nil
}

// Options lists the distinct filter values present in the store.
func (r *salesRecordRepository) Options(ctx context.Context) (domain.FilterOptions, error) {
	options := domain.FilterOptions{
		Regions:    []string{},
		Categories: []string{},
		Products:   []string{},
	}

	for _, q := range []struct {
		query string
		dest  *[]string
	}{
		{`SELECT DISTINCT region FROM sales_records ORDER BY region`, &options.Regions},
		{`SELECT DISTINCT category FROM sales_records ORDER BY category`, &options.Categories},
		{`SELECT DISTINCT product_name FROM sales_records ORDER BY product_name`, &options.Products},
	} {
		values, err := r.queryStrings(ctx, q.query)
		if err != nil {
			return domain.FilterOptions{}, err
		}
		*q.dest = values
	}

	var dateMin, dateMax pgtype.Text
	err := r.pool.QueryRow(ctx,
		`SELECT to_char(MIN(date), 'YYYY-MM-DD'), to_char(MAX(date), 'YYYY-MM-DD') FROM sales_records`,
	).Scan(&dateMin, &dateMax)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return domain.FilterOptions{}, fmt.Errorf("failed to read date bounds: %w", err)
	}
	if dateMin.Valid {
		options.DateMin = &dateMin.String
	}
	if dateMax.Valid {
		options.DateMax = &dateMax.String
	}

	return options, nil
}

func (r *salesRecordRepository) queryStrings(ctx context.Context, query string) ([]string, error) {
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query filter options: %w", err)
	}
	defer rows.Close()

	values := []string{}
	for rows.Next() {
		var value string
		if err := rows.Scan(&value); err != nil {
			return nil, fmt.Errorf("failed to scan filter option: %w", err)
		}
		values = append(values, value)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate filter options: %w", err)
	}
	return values, nil
}

func dimensionExpression(groupBy domain.GroupBy) (string, error) {
	switch groupBy {
	case domain.GroupByDate:
		return "to_char(date, 'YYYY-MM-DD')", nil
	case domain.GroupByRegion:
		return "region", nil
	case domain.GroupByCategory:
		return "category", nil
	case domain.GroupByProduct:
		return "product_name", nil
	default:
		return "", fmt.Errorf("unsupported aggregation dimension %q", groupBy)
	}
}

// filterClause renders the conjunctive WHERE clause for a record filter.
func filterClause(filter domain.RecordFilter) (string, []any) {
	var conditions []string
	var args []any

	add := func(condition string, value any) {
		args = append(args, value)
		conditions = append(conditions, fmt.Sprintf(condition, len(args)))
	}

	if filter.DateFrom != nil {
		add("date >= $%d", *filter.DateFrom)
	}
	if filter.DateTo != nil {
		add("date <= $%d", *filter.DateTo)
	}
	if filter.Region != "" {
		add("region = $%d", filter.Region)
	}
	if filter.Category != "" {
		add("category = $%d", filter.Category)
	}
	if filter.Product != "" {
		add("product_name = $%d", filter.Product)
	}

	if len(conditions) == 0 {
		return "", nil
	}
	return "WHERE " + strings.Join(conditions, " AND "), args
}

func scanSalesRecordWithCount(rows pgx.Rows) (domain.SalesRecord, int64, error) {
	var (
		record     domain.SalesRecord
		location   pgtype.Text
		site       pgtype.Text
		totalCount int64
	)
	err := rows.Scan(
		&record.ID, &record.OrderID, &record.ProductID, &record.Date,
		&record.ProductName, &record.Category, &record.Region,
		&location, &site,
		&record.Quantity, &record.UnitPrice, &record.UnitCost,
		&record.Sales, &record.Cost, &record.Profit, &record.ProfitMargin,
		&record.CreatedAt, &totalCount,
	)
	if err != nil {
		return domain.SalesRecord{}, 0, fmt.Errorf("failed to scan sales record: %w", err)
	}
	if location.Valid {
		record.Location = &location.String
	}
	if site.Valid {
		record.Site = &site.String
	}
	return record, totalCount, nil
}
