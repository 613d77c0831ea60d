package risk

import (
	"context"
	"time"

	"fintrack/internal/analytics"
	"fintrack/internal/budget"
	"fintrack/internal/core"
	"fintrack/internal/records"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

type Scorer struct {
	tracker *budget.Tracker
	txs     records.TransactionFinder
	cfg     Config
}

func NewScorer(tracker *budget.Tracker, txs records.TransactionFinder, cfg Config) *Scorer {
	return &Scorer{tracker: tracker, txs: txs, cfg: cfg}
}

// Assess scores the user for the month containing now. It is recomputed
// on every call. Budget usage is measured against all of the user's
// budgets over the month-to-date window, which ends at midnight of the
// month's last day.
func (s *Scorer) Assess(ctx context.Context, userID string, now time.Time) (core.RiskAssessment, error) {
	in, err := s.Inputs(ctx, userID, now)
	if err != nil {
		return core.RiskAssessment{}, err
	}
	return Score(in, s.cfg), nil
}

// Inputs gathers the raw signals for Assess.
func (s *Scorer) Inputs(ctx context.Context, userID string, now time.Time) (Inputs, error) {
	w := core.MonthToDate(now)

	var (
		budgets  []core.BudgetRecord
		expenses []core.TransactionRecord
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		budgets, err = s.tracker.Budgets(gctx, userID, records.BudgetFilter{})
		return err
	})
	g.Go(func() error {
		var err error
		expenses, err = s.txs.FindTransactions(gctx, userID, records.TxFilter{Type: core.Expense, Window: w})
		return core.Dependency("find transactions", err)
	})
	if err := g.Wait(); err != nil {
		return Inputs{}, err
	}

	var cats []string
	seen := map[string]struct{}{}
	for _, b := range budgets {
		if _, ok := seen[b.Category]; !ok {
			seen[b.Category] = struct{}{}
			cats = append(cats, b.Category)
		}
	}
	spent, err := s.tracker.Spent(ctx, userID, cats, w)
	if err != nil {
		return Inputs{}, err
	}

	in := Inputs{MaxUsage: decimal.Zero, TotalBudget: budget.TotalLimit(budgets)}
	for _, b := range budgets {
		if !b.Limit.IsPositive() {
			continue
		}
		if pct := core.Percent(spent[b.Category], b.Limit); pct.GreaterThan(in.MaxUsage) {
			in.MaxUsage = pct
		}
	}

	q := analytics.Query{UserID: userID, Type: core.Expense, Window: w, GroupBy: analytics.ByCategory}
	for _, bucket := range analytics.Group(expenses, q) {
		if bucket.Count >= s.cfg.RepeatThreshold {
			in.RepeatCount += bucket.Count
		}
	}

	total := analytics.Total(expenses, q)
	in.ProjectedSpend = Project(total, DaysPassed(w.Since, now), core.MonthOf(now).Days())
	return in, nil
}
