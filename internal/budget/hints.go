package budget

import (
	"fmt"

	"fintrack/internal/core"

	"github.com/shopspring/decimal"
)

// TotalLimit sums the limits of the given budgets.
func TotalLimit(budgets []core.BudgetRecord) decimal.Decimal {
	total := decimal.Zero
	for _, b := range budgets {
		total = total.Add(b.Limit)
	}
	return total
}

// NextAction picks the most used budget at or above warningAt percent and
// returns a short suggestion for it. ok is false when nothing qualifies.
func NextAction(statuses []core.BudgetStatus, warningAt int64) (hint string, ok bool) {
	var top *core.BudgetStatus
	for i := range statuses {
		s := &statuses[i]
		if s.PercentUsed < warningAt {
			continue
		}
		if top == nil || s.PercentUsed > top.PercentUsed {
			top = s
		}
	}
	if top == nil {
		return "", false
	}
	return fmt.Sprintf("Pause %s spending for the next 3 days", top.Category), true
}
