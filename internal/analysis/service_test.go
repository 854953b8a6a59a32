package analysis

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"salesinsight/internal/domain"
)

type stubRecordRepo struct {
	groups     []domain.AggregateRow
	summary    domain.Summary
	records    []domain.SalesRecord
	totalCount int64
	options    domain.FilterOptions
	err        error

	lastFilter  domain.RecordFilter
	lastGroupBy domain.GroupBy
	lastLimit   int
	lastOffset  int
}

func (s *stubRecordRepo) ExistingKeys(context.Context, []domain.NaturalKey) (map[domain.NaturalKey]struct{}, error) {
	return nil, nil
}

func (s *stubRecordRepo) InsertBatch(context.Context, []domain.SalesRecord) (int, []domain.NaturalKey, error) {
	return 0, nil, nil
}

func (s *stubRecordRepo) Aggregate(_ context.Context, filter domain.RecordFilter, groupBy domain.GroupBy) ([]domain.AggregateRow, error) {
	s.lastFilter = filter
	s.lastGroupBy = groupBy
	return s.groups, s.err
}

func (s *stubRecordRepo) Summary(_ context.Context, filter domain.RecordFilter) (domain.Summary, error) {
	s.lastFilter = filter
	return s.summary, s.err
}

func (s *stubRecordRepo) List(_ context.Context, filter domain.RecordFilter, limit, offset int) ([]domain.SalesRecord, int64, error) {
	s.lastFilter = filter
	s.lastLimit = limit
	s.lastOffset = offset
	return s.records, s.totalCount, s.err
}

func (s *stubRecordRepo) Options(context.Context) (domain.FilterOptions, error) {
	return s.options, s.err
}

func TestAggregateByRegionOrdering(t *testing.T) {
	// Records (East,100,60), (West,50,50), (East,20,10) grouped by region.
	repo := &stubRecordRepo{groups: []domain.AggregateRow{
		{DimensionValue: "West", TotalSales: 50, TotalCost: 50, TotalProfit: 0, RecordCount: 1},
		{DimensionValue: "East", TotalSales: 120, TotalCost: 70, TotalProfit: 50, RecordCount: 2},
	}}
	service := NewService(repo, zaptest.NewLogger(t))

	groups, err := service.Aggregate(context.Background(), domain.AnalysisQuery{GroupBy: domain.GroupByRegion})
	require.NoError(t, err)

	require.Len(t, groups, 2)
	assert.Equal(t, "East", groups[0].DimensionValue)
	assert.InDelta(t, 120.0, groups[0].TotalSales, 1e-9)
	assert.InDelta(t, 70.0, groups[0].TotalCost, 1e-9)
	assert.InDelta(t, 50.0, groups[0].TotalProfit, 1e-9)
	assert.InDelta(t, 50.0/120.0, groups[0].AverageProfitMargin, 1e-4)

	assert.Equal(t, "West", groups[1].DimensionValue)
	assert.Zero(t, groups[1].AverageProfitMargin)
}

func TestAggregateTiesBreakLexicographically(t *testing.T) {
	repo := &stubRecordRepo{groups: []domain.AggregateRow{
		{DimensionValue: "Toys", TotalSales: 100},
		{DimensionValue: "Books", TotalSales: 100},
		{DimensionValue: "Games", TotalSales: 200},
	}}
	service := NewService(repo, zaptest.NewLogger(t))

	groups, err := service.Aggregate(context.Background(), domain.AnalysisQuery{GroupBy: domain.GroupByCategory})
	require.NoError(t, err)

	values := []string{groups[0].DimensionValue, groups[1].DimensionValue, groups[2].DimensionValue}
	assert.Equal(t, []string{"Games", "Books", "Toys"}, values)
}

func TestAggregateByDateIsChronological(t *testing.T) {
	repo := &stubRecordRepo{groups: []domain.AggregateRow{
		{DimensionValue: "2024-02-01", TotalSales: 10},
		{DimensionValue: "2023-12-31", TotalSales: 500},
		{DimensionValue: "2024-01-15", TotalSales: 300},
	}}
	service := NewService(repo, zaptest.NewLogger(t))

	groups, err := service.Aggregate(context.Background(), domain.AnalysisQuery{GroupBy: domain.GroupByDate})
	require.NoError(t, err)

	values := []string{groups[0].DimensionValue, groups[1].DimensionValue, groups[2].DimensionValue}
	assert.Equal(t, []string{"2023-12-31", "2024-01-15", "2024-02-01"}, values)
}

func TestAggregateZeroSalesGroupHasZeroMargin(t *testing.T) {
	repo := &stubRecordRepo{groups: []domain.AggregateRow{
		{DimensionValue: "North", TotalSales: 0, TotalProfit: -25, RecordCount: 3},
	}}
	service := NewService(repo, zaptest.NewLogger(t))

	groups, err := service.Aggregate(context.Background(), domain.AnalysisQuery{GroupBy: domain.GroupByRegion})
	require.NoError(t, err)
	assert.Zero(t, groups[0].AverageProfitMargin)
}

func TestAggregateEmptyResult(t *testing.T) {
	repo := &stubRecordRepo{groups: []domain.AggregateRow{}}
	service := NewService(repo, zaptest.NewLogger(t))

	groups, err := service.Aggregate(context.Background(), domain.AnalysisQuery{
		Filter:  domain.RecordFilter{Region: "Atlantis"},
		GroupBy: domain.GroupByRegion,
	})
	require.NoError(t, err)
	assert.NotNil(t, groups)
	assert.Empty(t, groups)
	assert.Equal(t, "Atlantis", repo.lastFilter.Region)
}

func TestAggregateRepositoryError(t *testing.T) {
	repo := &stubRecordRepo{err: errors.New("boom")}
	service := NewService(repo, zaptest.NewLogger(t))

	_, err := service.Aggregate(context.Background(), domain.AnalysisQuery{GroupBy: domain.GroupByRegion})
	assert.Error(t, err)
}

func TestSummaryRoundsMargin(t *testing.T) {
	repo := &stubRecordRepo{summary: domain.Summary{
		TotalSales:   300,
		TotalCost:    200,
		TotalProfit:  100,
		ProfitMargin: 100.0 / 300.0,
		RecordCount:  7,
	}}
	service := NewService(repo, zaptest.NewLogger(t))

	summary, err := service.Summary(context.Background(), domain.RecordFilter{})
	require.NoError(t, err)
	assert.InDelta(t, 0.3333, summary.ProfitMargin, 1e-9)
	assert.Equal(t, int64(7), summary.RecordCount)
}

func TestRecordsClampsPaging(t *testing.T) {
	repo := &stubRecordRepo{totalCount: 10}
	service := NewService(repo, zaptest.NewLogger(t))

	page, err := service.Records(context.Background(), domain.RecordFilter{}, 0, -5)
	require.NoError(t, err)
	assert.Equal(t, defaultPageSize, repo.lastLimit)
	assert.Zero(t, repo.lastOffset)
	assert.Equal(t, int64(10), page.TotalCount)

	_, err = service.Records(context.Background(), domain.RecordFilter{}, 99999, 20)
	require.NoError(t, err)
	assert.Equal(t, maxPageSize, repo.lastLimit)
	assert.Equal(t, 20, repo.lastOffset)
}
