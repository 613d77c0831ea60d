// Package budget tracks per-category monthly limits against actual spend.
package budget

import (
	"context"
	"strings"
	"sync"

	"fintrack/internal/analytics"
	"fintrack/internal/core"
	"fintrack/internal/records"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// Thresholds are the percent-used cutoffs for warning and exceeded.
type Thresholds struct {
	WarningAt  int64
	ExceededAt int64
}

func DefaultThresholds() Thresholds {
	return Thresholds{WarningAt: 80, ExceededAt: 100}
}

// Classify maps a rounded percent-used to a status.
func (th Thresholds) Classify(percentUsed int64) core.BudgetState {
	switch {
	case percentUsed >= th.ExceededAt:
		return core.StatusExceeded
	case percentUsed >= th.WarningAt:
		return core.StatusWarning
	default:
		return core.StatusOK
	}
}

// PercentUsed is round(spent/limit*100), or 0 when limit is not positive.
func PercentUsed(spent, limit decimal.Decimal) int64 {
	if !limit.IsPositive() {
		return 0
	}
	return core.RoundInt(core.Percent(spent, limit))
}

type Store interface {
	records.BudgetFinder
	records.BudgetUpserter
}

type Tracker struct {
	budgets     Store
	txs         records.TransactionFinder
	thresholds  Thresholds
	concurrency int
}

type Option func(*Tracker)

func WithThresholds(th Thresholds) Option {
	return func(t *Tracker) { t.thresholds = th }
}

// WithConcurrency bounds the number of parallel per-category spend lookups.
func WithConcurrency(n int) Option {
	return func(t *Tracker) {
		if n > 0 {
			t.concurrency = n
		}
	}
}

func NewTracker(budgets Store, txs records.TransactionFinder, opts ...Option) *Tracker {
	t := &Tracker{
		budgets:     budgets,
		txs:         txs,
		thresholds:  DefaultThresholds(),
		concurrency: 4,
	}
	for _, o := range opts {
		o(t)
	}
	return t
}

// SetBudget validates and upserts the limit for (user, category, month).
// Calling it again with the same arguments leaves a single record.
func (t *Tracker) SetBudget(ctx context.Context, userID, category, month string, limit decimal.Decimal) (core.BudgetRecord, error) {
	b := core.BudgetRecord{
		UserID:   userID,
		Category: strings.TrimSpace(category),
		Month:    strings.TrimSpace(month),
		Limit:    limit,
	}
	if err := b.Validate(); err != nil {
		return core.BudgetRecord{}, err
	}
	saved, err := t.budgets.UpsertBudget(ctx, b)
	if err != nil {
		return core.BudgetRecord{}, core.Dependency("upsert budget", err)
	}
	return saved, nil
}

// Status reports every budget of the month against expenses over
// [first of month, first of next month) in UTC. No budgets yields an empty
// slice.
func (t *Tracker) Status(ctx context.Context, userID, month string) ([]core.BudgetStatus, error) {
	m, err := core.ParseMonth(month)
	if err != nil {
		return nil, &core.ValidationError{Field: "month", Err: err}
	}
	budgets, err := t.budgets.FindBudgets(ctx, userID, records.BudgetFilter{Month: m.String()})
	if err != nil {
		return nil, core.Dependency("find budgets", err)
	}
	out := make([]core.BudgetStatus, 0, len(budgets))
	if len(budgets) == 0 {
		return out, nil
	}

	spent, err := t.Spent(ctx, userID, categoriesOf(budgets), core.CalendarMonth(m))
	if err != nil {
		return nil, err
	}
	for _, b := range budgets {
		s := spent[b.Category]
		pct := PercentUsed(s, b.Limit)
		out = append(out, core.BudgetStatus{
			Category:    b.Category,
			Limit:       b.Limit,
			Spent:       s,
			PercentUsed: pct,
			Status:      t.thresholds.Classify(pct),
		})
	}
	return out, nil
}

// Budgets returns the user's budgets matching f.
func (t *Tracker) Budgets(ctx context.Context, userID string, f records.BudgetFilter) ([]core.BudgetRecord, error) {
	budgets, err := t.budgets.FindBudgets(ctx, userID, f)
	if err != nil {
		return nil, core.Dependency("find budgets", err)
	}
	return budgets, nil
}

// Spent sums expenses per category over w. Each category is looked up
// independently and in parallel; any failed lookup fails the whole call.
// Categories with no expenses map to zero.
func (t *Tracker) Spent(ctx context.Context, userID string, categories []string, w core.Window) (map[string]decimal.Decimal, error) {
	var (
		mu  sync.Mutex
		out = make(map[string]decimal.Decimal, len(categories))
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(t.concurrency)
	for _, cat := range categories {
		g.Go(func() error {
			f := records.TxFilter{Type: core.Expense, Category: cat, Window: w}
			txs, err := t.txs.FindTransactions(gctx, userID, f)
			if err != nil {
				return core.Dependency("find transactions", err)
			}
			total := analytics.Total(txs, analytics.Query{
				UserID:   userID,
				Type:     core.Expense,
				Category: cat,
				Window:   w,
			})
			mu.Lock()
			out[cat] = total
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func categoriesOf(budgets []core.BudgetRecord) []string {
	seen := make(map[string]struct{}, len(budgets))
	var cats []string
	for _, b := range budgets {
		if _, ok := seen[b.Category]; ok {
			continue
		}
		seen[b.Category] = struct{}{}
		cats = append(cats, b.Category)
	}
	return cats
}
