// Package risk combines budget usage, repeat spending and spend velocity
// into a single 0-100 score.
package risk

import (
	"math"
	"time"

	"fintrack/internal/core"

	"github.com/shopspring/decimal"
)

// Config holds the caps, weights and cutoffs of the score. Each signal is
// bounded by its own cap and the composite by 100.
type Config struct {
	BudgetCap    int64
	BudgetWeight float64

	// RepeatThreshold is the per-category count at which every expense in
	// that category starts counting towards the repeat signal.
	RepeatThreshold int
	RepeatCap       int64
	RepeatPerTx     int64

	VelocityCap    int64
	VelocityWeight float64

	MediumAt int64
	HighAt   int64
}

func DefaultConfig() Config {
	return Config{
		BudgetCap:       50,
		BudgetWeight:    0.5,
		RepeatThreshold: 4,
		RepeatCap:       30,
		RepeatPerTx:     3,
		VelocityCap:     20,
		VelocityWeight:  0.2,
		MediumAt:        40,
		HighAt:          70,
	}
}

// Inputs are the raw signals for one user and month.
type Inputs struct {
	// MaxUsage is the highest unrounded percent used across budgets.
	MaxUsage decimal.Decimal
	// RepeatCount sums the counts of every qualifying category.
	RepeatCount    int
	ProjectedSpend decimal.Decimal
	TotalBudget    decimal.Decimal
}

// Score turns inputs into an assessment. It is monotonic in MaxUsage,
// RepeatCount and ProjectedSpend.
func Score(in Inputs, cfg Config) core.RiskAssessment {
	budgetScore := capped(core.RoundInt(in.MaxUsage.Mul(decimal.NewFromFloat(cfg.BudgetWeight))), cfg.BudgetCap)
	repeatScore := capped(int64(in.RepeatCount)*cfg.RepeatPerTx, cfg.RepeatCap)
	velocity := core.Percent(in.ProjectedSpend, in.TotalBudget)
	velocityScore := capped(core.RoundInt(velocity.Mul(decimal.NewFromFloat(cfg.VelocityWeight))), cfg.VelocityCap)

	score := capped(budgetScore+repeatScore+velocityScore, 100)
	return core.RiskAssessment{
		Score: score,
		Level: cfg.Level(score),
		Signals: core.RiskSignals{
			BudgetUsage:    budgetScore,
			RepeatSpending: repeatScore,
			Velocity:       velocityScore,
		},
	}
}

func (cfg Config) Level(score int64) core.RiskLevel {
	switch {
	case score >= cfg.HighAt:
		return core.RiskHigh
	case score >= cfg.MediumAt:
		return core.RiskMedium
	default:
		return core.RiskLow
	}
}

// DaysPassed is the number of started days since monthStart, at least 1.
func DaysPassed(monthStart, now time.Time) int64 {
	days := math.Ceil(now.Sub(monthStart).Hours() / 24)
	if days < 1 {
		return 1
	}
	return int64(days)
}

// Project extrapolates spend so far to the whole month at the current
// daily average.
func Project(spent decimal.Decimal, daysPassed int64, totalDays int) decimal.Decimal {
	if daysPassed < 1 {
		daysPassed = 1
	}
	daily := spent.Div(decimal.NewFromInt(daysPassed))
	return daily.Mul(decimal.NewFromInt(int64(totalDays)))
}

func capped(v, max int64) int64 {
	if v < 0 {
		return 0
	}
	if v > max {
		return max
	}
	return v
}
