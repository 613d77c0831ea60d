package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"fintrack/internal/budget"
	"fintrack/internal/habits"
	"fintrack/internal/risk"

	"github.com/BurntSushi/toml"
)

// Scoring holds the tunable thresholds of the analytics engine.
type Scoring struct {
	Budget BudgetScoring `toml:"budget"`
	Habits HabitScoring  `toml:"habits"`
	Risk   RiskScoring   `toml:"risk"`
}

type BudgetScoring struct {
	WarningAt  int64 `toml:"warning_at"`
	ExceededAt int64 `toml:"exceeded_at"`
}

// HabitScoring keeps the qualifying threshold apart from the tier cutoffs.
type HabitScoring struct {
	Threshold int `toml:"threshold"`
	MediumAt  int `toml:"medium_at"`
	HighAt    int `toml:"high_at"`
}

type RiskScoring struct {
	BudgetCap       int64   `toml:"budget_cap"`
	BudgetWeight    float64 `toml:"budget_weight"`
	RepeatThreshold int     `toml:"repeat_threshold"`
	RepeatCap       int64   `toml:"repeat_cap"`
	RepeatPerTx     int64   `toml:"repeat_per_tx"`
	VelocityCap     int64   `toml:"velocity_cap"`
	VelocityWeight  float64 `toml:"velocity_weight"`
	MediumAt        int64   `toml:"medium_at"`
	HighAt          int64   `toml:"high_at"`
}

func DefaultScoring() Scoring {
	th := budget.DefaultThresholds()
	hb := habits.DefaultConfig()
	rk := risk.DefaultConfig()
	return Scoring{
		Budget: BudgetScoring{WarningAt: th.WarningAt, ExceededAt: th.ExceededAt},
		Habits: HabitScoring{Threshold: hb.Threshold, MediumAt: hb.MediumAt, HighAt: hb.HighAt},
		Risk: RiskScoring{
			BudgetCap:       rk.BudgetCap,
			BudgetWeight:    rk.BudgetWeight,
			RepeatThreshold: rk.RepeatThreshold,
			RepeatCap:       rk.RepeatCap,
			RepeatPerTx:     rk.RepeatPerTx,
			VelocityCap:     rk.VelocityCap,
			VelocityWeight:  rk.VelocityWeight,
			MediumAt:        rk.MediumAt,
			HighAt:          rk.HighAt,
		},
	}
}

// LoadScoring reads a TOML file over the defaults. An empty path or a
// missing file yields the defaults.
func LoadScoring(path string) (Scoring, error) {
	cfg := DefaultScoring()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading scoring config: %w", err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing scoring config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (s Scoring) Validate() error {
	var errs []string
	if s.Budget.WarningAt <= 0 || s.Budget.ExceededAt <= s.Budget.WarningAt {
		errs = append(errs, fmt.Sprintf("budget: need 0 < warning_at (%d) < exceeded_at (%d)", s.Budget.WarningAt, s.Budget.ExceededAt))
	}
	if s.Habits.Threshold < 1 {
		errs = append(errs, fmt.Sprintf("habits: threshold %d must be at least 1", s.Habits.Threshold))
	}
	if s.Habits.MediumAt < 1 || s.Habits.HighAt <= s.Habits.MediumAt {
		errs = append(errs, fmt.Sprintf("habits: need 0 < medium_at (%d) < high_at (%d)", s.Habits.MediumAt, s.Habits.HighAt))
	}
	r := s.Risk
	if r.BudgetCap < 0 || r.RepeatCap < 0 || r.VelocityCap < 0 {
		errs = append(errs, "risk: caps cannot be negative")
	}
	if r.BudgetWeight < 0 || r.VelocityWeight < 0 || r.RepeatPerTx < 0 {
		errs = append(errs, "risk: weights cannot be negative")
	}
	if r.RepeatThreshold < 1 {
		errs = append(errs, fmt.Sprintf("risk: repeat_threshold %d must be at least 1", r.RepeatThreshold))
	}
	if r.MediumAt < 1 || r.HighAt <= r.MediumAt || r.HighAt > 100 {
		errs = append(errs, fmt.Sprintf("risk: need 0 < medium_at (%d) < high_at (%d) <= 100", r.MediumAt, r.HighAt))
	}
	if len(errs) > 0 {
		return errors.New("scoring validation failed:\n- " + strings.Join(errs, "\n- "))
	}
	return nil
}

func (s Scoring) BudgetThresholds() budget.Thresholds {
	return budget.Thresholds{WarningAt: s.Budget.WarningAt, ExceededAt: s.Budget.ExceededAt}
}

func (s Scoring) HabitConfig() habits.Config {
	return habits.Config{Threshold: s.Habits.Threshold, MediumAt: s.Habits.MediumAt, HighAt: s.Habits.HighAt}
}

func (s Scoring) RiskConfig() risk.Config {
	r := s.Risk
	return risk.Config{
		BudgetCap:       r.BudgetCap,
		BudgetWeight:    r.BudgetWeight,
		RepeatThreshold: r.RepeatThreshold,
		RepeatCap:       r.RepeatCap,
		RepeatPerTx:     r.RepeatPerTx,
		VelocityCap:     r.VelocityCap,
		VelocityWeight:  r.VelocityWeight,
		MediumAt:        r.MediumAt,
		HighAt:          r.HighAt,
	}
}
