package core

import "github.com/shopspring/decimal"

const (
	StatusOK       BudgetState = "ok"
	StatusWarning  BudgetState = "warning"
	StatusExceeded BudgetState = "exceeded"

	RiskLow    RiskLevel = "LOW"
	RiskMedium RiskLevel = "MEDIUM"
	RiskHigh   RiskLevel = "HIGH"

	SeverityStable Severity = "stable"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

type (
	BudgetState string
	RiskLevel   string
	Severity    string
)

// BudgetStatus is the spend position of one budget in one month.
type BudgetStatus struct {
	Category    string          `json:"category"`
	Limit       decimal.Decimal `json:"limit"`
	Spent       decimal.Decimal `json:"spent"`
	PercentUsed int64           `json:"percentUsed"`
	Status      BudgetState     `json:"status"`
}

// RepeatSpendingEntry describes a category spent in often enough to look
// like a habit.
type RepeatSpendingEntry struct {
	Category    string          `json:"category"`
	Count       int             `json:"count"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
	AvgAmount   decimal.Decimal `json:"avgAmount"`
	Severity    Severity        `json:"severity"`
	Label       string          `json:"label"`
	Message     string          `json:"message"`
}

type RiskSignals struct {
	BudgetUsage    int64 `json:"budgetUsage"`
	RepeatSpending int64 `json:"repeatSpending"`
	Velocity       int64 `json:"velocity"`
}

type RiskAssessment struct {
	Score   int64       `json:"score"`
	Level   RiskLevel   `json:"level"`
	Signals RiskSignals `json:"signals"`
}

// ReceiptExtraction holds best-effort guesses. Nil fields were not found.
type ReceiptExtraction struct {
	Amount   *decimal.Decimal `json:"amount"`
	Date     *string          `json:"date"`
	Merchant *string          `json:"merchant"`
	Category string           `json:"category"`
}

// MonthTypeTotal is one (year, month, type) row of the monthly summary.
type MonthTypeTotal struct {
	Year  int             `json:"year"`
	Month int             `json:"month"`
	Type  TxType          `json:"type"`
	Total decimal.Decimal `json:"total"`
}

type CategoryTotal struct {
	Category string          `json:"category"`
	Total    decimal.Decimal `json:"total"`
}

type TypeTotal struct {
	Type  TxType          `json:"type"`
	Total decimal.Decimal `json:"total"`
}

// MonthSpend is the current month's expense total against the month's
// combined budget. PercentUsed is capped at 100.
type MonthSpend struct {
	Month       string          `json:"month"`
	Spent       decimal.Decimal `json:"spent"`
	Budget      decimal.Decimal `json:"budget"`
	PercentUsed int64           `json:"percentUsed"`
}
