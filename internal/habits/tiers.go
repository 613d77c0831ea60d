package habits

import "fintrack/internal/core"

// Tier is a presentation band for a repeat-spending count.
type Tier struct {
	Severity core.Severity
	Label    string
	Message  string
	// MinCount is the smallest count that lands in this tier.
	MinCount int
}

// Tiers is ordered from the highest MinCount down; the first tier whose
// MinCount is reached wins. The last tier should have MinCount 0.
type Tiers []Tier

// DefaultTiers builds the leakage, habit forming and stable bands.
func DefaultTiers(mediumAt, highAt int) Tiers {
	return Tiers{
		{Severity: core.SeverityHigh, Label: "Budget leakage", Message: "This is draining your money", MinCount: highAt},
		{Severity: core.SeverityMedium, Label: "Habit forming", Message: "This is becoming expensive", MinCount: mediumAt},
		{Severity: core.SeverityStable, Label: "Stable", Message: "Spending is under control", MinCount: 0},
	}
}

// For returns the tier for count. Counts below every tier get the last one.
func (ts Tiers) For(count int) Tier {
	for _, t := range ts {
		if count >= t.MinCount {
			return t
		}
	}
	if len(ts) == 0 {
		return Tier{Severity: core.SeverityStable}
	}
	return ts[len(ts)-1]
}
