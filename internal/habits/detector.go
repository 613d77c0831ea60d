// Package habits flags categories spent in repeatedly within the current
// month.
package habits

import (
	"context"
	"sort"
	"time"

	"fintrack/internal/analytics"
	"fintrack/internal/core"
	"fintrack/internal/records"
)

// Config keeps the qualifying threshold separate from the tier cutoffs.
type Config struct {
	// Threshold is the minimum count for a category to be reported.
	Threshold int
	MediumAt  int
	HighAt    int
}

func DefaultConfig() Config {
	return Config{Threshold: 3, MediumAt: 4, HighAt: 8}
}

type Detector struct {
	txs   records.TransactionFinder
	cfg   Config
	tiers Tiers
}

func NewDetector(txs records.TransactionFinder, cfg Config) *Detector {
	return &Detector{txs: txs, cfg: cfg, tiers: DefaultTiers(cfg.MediumAt, cfg.HighAt)}
}

// Detect reports the user's repeat-spending categories for the month
// containing now.
func (d *Detector) Detect(ctx context.Context, userID string, now time.Time) ([]core.RepeatSpendingEntry, error) {
	w := core.CurrentMonth(now)
	txs, err := d.txs.FindTransactions(ctx, userID, records.TxFilter{Type: core.Expense, Window: w})
	if err != nil {
		return nil, core.Dependency("find transactions", err)
	}
	return Detect(txs, analytics.Query{UserID: userID, Window: w}, d.cfg.Threshold, d.tiers), nil
}

// Detect groups the expenses matching q by category and keeps those with
// at least threshold records, ordered by count then category.
func Detect(txs []core.TransactionRecord, q analytics.Query, threshold int, tiers Tiers) []core.RepeatSpendingEntry {
	q.Type = core.Expense
	q.GroupBy = analytics.ByCategory

	out := []core.RepeatSpendingEntry{}
	for k, b := range analytics.Group(txs, q) {
		if b.Count < threshold {
			continue
		}
		tier := tiers.For(b.Count)
		out = append(out, core.RepeatSpendingEntry{
			Category:    k.Category,
			Count:       b.Count,
			TotalAmount: b.Sum,
			AvgAmount:   b.Value(analytics.Avg),
			Severity:    tier.Severity,
			Label:       tier.Label,
			Message:     tier.Message,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Category < out[j].Category
	})
	return out
}
