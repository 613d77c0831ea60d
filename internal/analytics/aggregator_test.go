package analytics

import (
	"testing"
	"time"

	"fintrack/internal/core"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rec(user string, typ core.TxType, cat, amount string, date time.Time) core.TransactionRecord {
	return core.TransactionRecord{
		UserID:   user,
		Type:     typ,
		Category: cat,
		Amount:   decimal.RequireFromString(amount),
		Date:     date,
	}
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 12, 0, 0, 0, time.UTC)
}

func fixture() []core.TransactionRecord {
	return []core.TransactionRecord{
		rec("u1", core.Expense, "Food", "100", day(2024, 5, 2)),
		rec("u1", core.Expense, "Food", "300", day(2024, 5, 20)),
		rec("u1", core.Expense, "Transport", "50", day(2024, 5, 21)),
		rec("u1", core.Income, "Salary", "9000", day(2024, 5, 1)),
		rec("u1", core.Expense, "Food", "70", day(2024, 4, 30)),
		rec("u2", core.Expense, "Food", "999", day(2024, 5, 3)),
	}
}

func TestAggregateByCategory(t *testing.T) {
	q := Query{
		UserID:  "u1",
		Type:    core.Expense,
		Metric:  Sum,
		GroupBy: ByCategory,
		Window:  core.CalendarMonth(core.Month{Year: 2024, Month: time.May}),
	}
	got := Aggregate(fixture(), q)

	require.Len(t, got, 2)
	assert.True(t, got[GroupKey{Category: "Food"}].Equal(decimal.NewFromInt(400)))
	assert.True(t, got[GroupKey{Category: "Transport"}].Equal(decimal.NewFromInt(50)))
	_, ok := got[GroupKey{Category: "Salary"}]
	assert.False(t, ok, "income must not leak into an expense query")
}

func TestAggregateMetrics(t *testing.T) {
	base := Query{UserID: "u1", Type: core.Expense, Category: "Food", GroupBy: ByCategory}

	cases := []struct {
		metric Metric
		want   string
	}{
		{Sum, "470"},
		{Count, "3"},
		{Avg, "156.6667"},
	}
	for _, tc := range cases {
		q := base
		q.Metric = tc.metric
		got := Aggregate(fixture(), q)[GroupKey{Category: "Food"}]
		assert.Equal(t, tc.want, got.Round(4).String(), "metric %d", tc.metric)
	}
}

func TestAggregateMissingWindowIsAllTime(t *testing.T) {
	got := Aggregate(fixture(), Query{UserID: "u1", Metric: Sum, GroupBy: ByType})
	assert.True(t, got[GroupKey{Type: core.Expense}].Equal(decimal.NewFromInt(520)))
	assert.True(t, got[GroupKey{Type: core.Income}].Equal(decimal.NewFromInt(9000)))
}

func TestAggregateByMonthTypeUsesRecordDate(t *testing.T) {
	got := Aggregate(fixture(), Query{UserID: "u1", Metric: Sum, GroupBy: ByMonthType})

	keys := SortedKeys(got)
	require.Equal(t, []GroupKey{
		{Type: core.Expense, Year: 2024, Month: time.April},
		{Type: core.Expense, Year: 2024, Month: time.May},
		{Type: core.Income, Year: 2024, Month: time.May},
	}, keys)
	assert.True(t, got[keys[0]].Equal(decimal.NewFromInt(70)))
	assert.True(t, got[keys[1]].Equal(decimal.NewFromInt(450)))
}

func TestAggregateEmptyGroupsAbsent(t *testing.T) {
	q := Query{
		UserID:  "u1",
		Type:    core.Expense,
		GroupBy: ByCategory,
		Window:  core.CalendarMonth(core.Month{Year: 2023, Month: time.January}),
	}
	assert.Empty(t, Aggregate(fixture(), q))
	assert.True(t, Total(fixture(), q).IsZero())
}

func TestWindowBoundaries(t *testing.T) {
	start := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	records := []core.TransactionRecord{
		rec("u1", core.Expense, "Food", "10", start),
		rec("u1", core.Expense, "Food", "20", end),
	}

	halfOpen := Query{Window: core.Window{Since: start, Until: end}}
	assert.Equal(t, "10", Total(records, halfOpen).String())

	closed := Query{Window: core.Window{Since: start, Until: end, InclusiveEnd: true}}
	assert.Equal(t, "30", Total(records, closed).String())
}
