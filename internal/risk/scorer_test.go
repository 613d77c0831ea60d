package risk

import (
	"context"
	"errors"
	"testing"
	"time"

	"fintrack/internal/budget"
	"fintrack/internal/core"
	"fintrack/internal/records"
	"fintrack/internal/records/memory"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func spend(t *testing.T, s *memory.Store, cat string, amount int64, d time.Time) {
	t.Helper()
	_, err := s.AddTransaction(context.Background(), core.TransactionRecord{
		UserID: "u1", Type: core.Expense, Category: cat, Amount: decimal.NewFromInt(amount), Date: d,
	})
	require.NoError(t, err)
}

func newScorer(s *memory.Store) *Scorer {
	return NewScorer(budget.NewTracker(s, s), s, DefaultConfig())
}

func TestAssessCombinesSignals(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	tr := budget.NewTracker(s, s)
	_, err := tr.SetBudget(ctx, "u1", "Food", "2024-05", decimal.NewFromInt(5000))
	require.NoError(t, err)
	_, err = tr.SetBudget(ctx, "u1", "Transport", "2024-05", decimal.NewFromInt(1000))
	require.NoError(t, err)

	for d := 1; d <= 4; d++ {
		spend(t, s, "Food", 1000, time.Date(2024, 5, d, 9, 0, 0, 0, time.UTC))
	}
	spend(t, s, "Transport", 100, time.Date(2024, 5, 6, 9, 0, 0, 0, time.UTC))
	// Previous month is ignored.
	spend(t, s, "Food", 9000, time.Date(2024, 4, 30, 9, 0, 0, 0, time.UTC))

	now := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)
	got, err := newScorer(s).Assess(ctx, "u1", now)
	require.NoError(t, err)

	// Food is at 80%: 40 points. Four Food expenses: 12 points.
	// 4100 over 10 days projects to 12710 against 6000: capped at 20.
	assert.Equal(t, core.RiskAssessment{
		Score:   72,
		Level:   core.RiskHigh,
		Signals: core.RiskSignals{BudgetUsage: 40, RepeatSpending: 12, Velocity: 20},
	}, got)
}

func TestAssessWithoutBudgets(t *testing.T) {
	s := memory.New()
	for i := 0; i < 3; i++ {
		spend(t, s, "Food", 50, time.Date(2024, 5, 2, 9, 0, 0, 0, time.UTC))
	}
	got, err := newScorer(s).Assess(context.Background(), "u1", time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, core.RiskAssessment{Score: 0, Level: core.RiskLow}, got)
}

func TestAssessMonthEndIsMidnightOfLastDay(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	_, err := budget.NewTracker(s, s).SetBudget(ctx, "u1", "Food", "2024-05", decimal.NewFromInt(100))
	require.NoError(t, err)

	spend(t, s, "Food", 100, time.Date(2024, 5, 31, 0, 0, 0, 0, time.UTC))
	spend(t, s, "Food", 100, time.Date(2024, 5, 31, 18, 0, 0, 0, time.UTC))

	in, err := newScorer(s).Inputs(ctx, "u1", time.Date(2024, 5, 31, 20, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.True(t, in.MaxUsage.Equal(decimal.NewFromInt(100)), in.MaxUsage.String())
}

type flakyTxs struct{ *memory.Store }

func (flakyTxs) FindTransactions(context.Context, string, records.TxFilter) ([]core.TransactionRecord, error) {
	return nil, errors.New("read timeout")
}

func TestAssessDoesNotTreatFailureAsZeroSpend(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	_, err := budget.NewTracker(s, s).SetBudget(ctx, "u1", "Food", "2024-05", decimal.NewFromInt(100))
	require.NoError(t, err)

	broken := flakyTxs{s}
	sc := NewScorer(budget.NewTracker(s, broken), broken, DefaultConfig())
	_, err = sc.Assess(ctx, "u1", time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC))
	require.Error(t, err)
	assert.True(t, core.IsDependency(err))
}
