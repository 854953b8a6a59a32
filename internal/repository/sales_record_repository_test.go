package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salesinsight/internal/domain"
)

func TestFilterClauseEmpty(t *testing.T) {
	where, args := filterClause(domain.RecordFilter{})
	assert.Empty(t, where)
	assert.Empty(t, args)
}

func TestFilterClauseIsConjunctive(t *testing.T) {
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)

	where, args := filterClause(domain.RecordFilter{
		DateFrom: &from,
		DateTo:   &to,
		Region:   "East",
		Category: "Hardware",
		Product:  "Widget",
	})

	assert.Equal(t, "WHERE date >= $1 AND date <= $2 AND region = $3 AND category = $4 AND product_name = $5", where)
	require.Len(t, args, 5)
	assert.Equal(t, from, args[0])
	assert.Equal(t, "East", args[2])
	assert.Equal(t, "Widget", args[4])
}

func TestFilterClausePartial(t *testing.T) {
	where, args := filterClause(domain.RecordFilter{Region: "West"})
	assert.Equal(t, "WHERE region = $1", where)
	assert.Equal(t, []any{"West"}, args)
}

func TestDimensionExpression(t *testing.T) {
	cases := map[domain.GroupBy]string{
		domain.GroupByDate:     "to_char(date, 'YYYY-MM-DD')",
		domain.GroupByRegion:   "region",
		domain.GroupByCategory: "category",
		domain.GroupByProduct:  "product_name",
	}
	for groupBy, expected := range cases {
		expr, err := dimensionExpression(groupBy)
		require.NoError(t, err)
		assert.Equal(t, expected, expr)
	}

	_, err := dimensionExpression(domain.GroupBy("salesperson"))
	assert.Error(t, err)
}
