package analysis

import (
	"context"
	"fmt"
	"math"
	"sort"

	"go.uber.org/zap"

	"salesinsight/internal/domain"
	"salesinsight/internal/repository"
)

const (
	defaultPageSize = 50
	maxPageSize     = 500
)

// Service produces aggregated views over persisted sales records. It is
// read-only and safe for concurrent use.
type Service struct {
	repo   repository.SalesRecordRepository
	logger *zap.Logger
}

// NewService creates a new analysis service.
func NewService(repo repository.SalesRecordRepository, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{repo: repo, logger: logger}
}

// Aggregate returns one row per group of the requested dimension. The store
// performs the grouped sum; margin and ordering are applied here.
//
// The group margin is total_profit / total_sales, not the mean of per-row
// margins, so zero-sales rows cannot distort it.
func (s *Service) Aggregate(ctx context.Context, query domain.AnalysisQuery) ([]domain.AggregateRow, error) {
	groups, err := s.repo.Aggregate(ctx, query.Filter, query.GroupBy)
	if err != nil {
		return nil, fmt.Errorf("aggregate query failed: %w", err)
	}

	for i := range groups {
		if groups[i].TotalSales == 0 {
			groups[i].AverageProfitMargin = 0
		} else {
			groups[i].AverageProfitMargin = round4(groups[i].TotalProfit / groups[i].TotalSales)
		}
	}

	if query.GroupBy == domain.GroupByDate {
		// Dimension values are YYYY-MM-DD, so lexicographic order is
		// chronological.
		sort.Slice(groups, func(i, j int) bool {
			return groups[i].DimensionValue < groups[j].DimensionValue
		})
	} else {
		sort.Slice(groups, func(i, j int) bool {
			if groups[i].TotalSales != groups[j].TotalSales {
				return groups[i].TotalSales > groups[j].TotalSales
			}
			return groups[i].DimensionValue < groups[j].DimensionValue
		})
	}

	return groups, nil
}

// Summary returns the dashboard KPI totals for the filtered record set.
func (s *Service) Summary(ctx context.Context, filter domain.RecordFilter) (domain.Summary, error) {
	summary, err := s.repo.Summary(ctx, filter)
	if err != nil {
		return domain.Summary{}, fmt.Errorf("summary query failed: %w", err)
	}
	summary.ProfitMargin = round4(summary.ProfitMargin)
	return summary, nil
}

// Records returns one page of filtered records, newest date first.
func (s *Service) Records(ctx context.Context, filter domain.RecordFilter, limit, offset int) (domain.RecordPage, error) {
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	if offset < 0 {
		offset = 0
	}

	records, totalCount, err := s.repo.List(ctx, filter, limit, offset)
	if err != nil {
		return domain.RecordPage{}, fmt.Errorf("record listing failed: %w", err)
	}

	return domain.RecordPage{
		Records:    records,
		TotalCount: totalCount,
		Limit:      limit,
		Offset:     offset,
	}, nil
}

// Options returns the distinct filter values the dashboard can offer.
func (s *Service) Options(ctx context.Context) (domain.FilterOptions, error) {
	options, err := s.repo.Options(ctx)
	if err != nil {
		return domain.FilterOptions{}, fmt.Errorf("options query failed: %w", err)
	}
	return options, nil
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
