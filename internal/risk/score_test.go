package risk

import (
	"testing"
	"time"

	"fintrack/internal/core"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestScoreSubScores(t *testing.T) {
	cfg := DefaultConfig()
	cases := []struct {
		name string
		in   Inputs
		want core.RiskAssessment
	}{
		{
			name: "nothing",
			in:   Inputs{},
			want: core.RiskAssessment{Score: 0, Level: core.RiskLow},
		},
		{
			name: "budget only",
			in:   Inputs{MaxUsage: decimal.NewFromInt(84)},
			want: core.RiskAssessment{Score: 42, Level: core.RiskMedium, Signals: core.RiskSignals{BudgetUsage: 42}},
		},
		{
			name: "budget capped",
			in:   Inputs{MaxUsage: decimal.NewFromInt(400)},
			want: core.RiskAssessment{Score: 50, Level: core.RiskMedium, Signals: core.RiskSignals{BudgetUsage: 50}},
		},
		{
			name: "repeat capped",
			in:   Inputs{RepeatCount: 11},
			want: core.RiskAssessment{Score: 30, Level: core.RiskLow, Signals: core.RiskSignals{RepeatSpending: 30}},
		},
		{
			name: "velocity without budget is zero",
			in:   Inputs{ProjectedSpend: decimal.NewFromInt(10000)},
			want: core.RiskAssessment{Score: 0, Level: core.RiskLow},
		},
		{
			name: "velocity",
			in:   Inputs{ProjectedSpend: decimal.NewFromInt(5000), TotalBudget: decimal.NewFromInt(10000)},
			want: core.RiskAssessment{Score: 10, Level: core.RiskLow, Signals: core.RiskSignals{Velocity: 10}},
		},
		{
			name: "all saturated",
			in: Inputs{
				MaxUsage:       decimal.NewFromInt(1000),
				RepeatCount:    50,
				ProjectedSpend: decimal.NewFromInt(1000000),
				TotalBudget:    decimal.NewFromInt(1),
			},
			want: core.RiskAssessment{Score: 100, Level: core.RiskHigh, Signals: core.RiskSignals{BudgetUsage: 50, RepeatSpending: 30, Velocity: 20}},
		},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Score(tc.in, cfg), tc.name)
	}
}

func TestScoreIsMonotonicAndClamped(t *testing.T) {
	cfg := DefaultConfig()
	base := Inputs{
		MaxUsage:       decimal.NewFromInt(30),
		RepeatCount:    2,
		ProjectedSpend: decimal.NewFromInt(500),
		TotalBudget:    decimal.NewFromInt(1000),
	}

	prev := Score(base, cfg).Score
	for usage := int64(30); usage <= 300; usage += 7 {
		in := base
		in.MaxUsage = decimal.NewFromInt(usage)
		s := Score(in, cfg).Score
		assert.GreaterOrEqual(t, s, prev, "usage %d", usage)
		assert.True(t, s >= 0 && s <= 100)
		prev = s
	}

	prev = Score(base, cfg).Score
	for n := 3; n < 40; n++ {
		in := base
		in.RepeatCount = n
		s := Score(in, cfg).Score
		assert.GreaterOrEqual(t, s, prev, "repeat %d", n)
		assert.LessOrEqual(t, s, int64(100))
		prev = s
	}

	prev = Score(base, cfg).Score
	for p := int64(600); p < 20000; p += 250 {
		in := base
		in.ProjectedSpend = decimal.NewFromInt(p)
		s := Score(in, cfg).Score
		assert.GreaterOrEqual(t, s, prev, "projected %d", p)
		assert.LessOrEqual(t, s, int64(100))
		prev = s
	}
}

func TestLevelCutoffs(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, core.RiskLow, cfg.Level(39))
	assert.Equal(t, core.RiskMedium, cfg.Level(40))
	assert.Equal(t, core.RiskMedium, cfg.Level(69))
	assert.Equal(t, core.RiskHigh, cfg.Level(70))
}

func TestDaysPassed(t *testing.T) {
	start := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, int64(1), DaysPassed(start, start))
	assert.Equal(t, int64(1), DaysPassed(start, start.Add(time.Hour)))
	assert.Equal(t, int64(1), DaysPassed(start, start.Add(24*time.Hour)))
	assert.Equal(t, int64(2), DaysPassed(start, start.Add(25*time.Hour)))
	assert.Equal(t, int64(10), DaysPassed(start, time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)))
}

func TestProject(t *testing.T) {
	got := Project(decimal.NewFromInt(4100), 10, 31)
	assert.True(t, got.Equal(decimal.NewFromInt(12710)), got.String())
}
