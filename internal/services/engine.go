// Package services exposes the finance engine used by the CLI and the
// monitor worker.
package services

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"fintrack/internal/analytics"
	"fintrack/internal/budget"
	"fintrack/internal/config"
	"fintrack/internal/core"
	"fintrack/internal/habits"
	"fintrack/internal/log"
	"fintrack/internal/receipt"
	"fintrack/internal/records"
	"fintrack/internal/risk"

	"github.com/shopspring/decimal"
)

var ErrScannerUnavailable = errors.New("receipt scanning is not configured")

// Engine answers budget, habit, risk and receipt queries for one record
// store. It holds no per-user state.
type Engine struct {
	store      records.Store
	thresholds budget.Thresholds
	tracker    *budget.Tracker
	detector   *habits.Detector
	scorer     *risk.Scorer
	extractor  *receipt.Extractor
	scanner    *receipt.Scanner
	logger     *log.Logger
}

type Option func(*Engine)

func WithLogger(l *log.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l.WithComponent(log.ComponentEngine)
		}
	}
}

func WithScanner(s *receipt.Scanner) Option {
	return func(e *Engine) { e.scanner = s }
}

func WithExtractor(x *receipt.Extractor) Option {
	return func(e *Engine) {
		if x != nil {
			e.extractor = x
		}
	}
}

func NewEngine(store records.Store, scoring config.Scoring, opts ...Option) *Engine {
	th := scoring.BudgetThresholds()
	tracker := budget.NewTracker(store, store, budget.WithThresholds(th))
	e := &Engine{
		store:      store,
		thresholds: th,
		tracker:    tracker,
		detector:   habits.NewDetector(store, scoring.HabitConfig()),
		scorer:     risk.NewScorer(tracker, store, scoring.RiskConfig()),
		extractor:  receipt.NewExtractor(),
		logger:     log.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func requireUser(userID string) error {
	if strings.TrimSpace(userID) == "" {
		return &core.ValidationError{Field: "userId", Err: core.ErrEmptyUser}
	}
	return nil
}

// ComputeBudgetStatus reports every budget of month for the user.
func (e *Engine) ComputeBudgetStatus(ctx context.Context, userID, month string) ([]core.BudgetStatus, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	start := time.Now()
	out, err := e.tracker.Status(ctx, userID, month)
	if err != nil {
		e.fail(ctx, log.OpBudgetStatus, userID, err)
		return nil, err
	}
	e.logger.DebugContext(ctx, "budget status computed",
		log.FieldUserID, userID,
		log.FieldMonth, month,
		log.FieldCount, len(out),
		log.FieldDuration, time.Since(start).Milliseconds())
	return out, nil
}

func (e *Engine) ComputeRiskAssessment(ctx context.Context, userID string, now time.Time) (core.RiskAssessment, error) {
	if err := requireUser(userID); err != nil {
		return core.RiskAssessment{}, err
	}
	a, err := e.scorer.Assess(ctx, userID, now)
	if err != nil {
		e.fail(ctx, log.OpRiskAssessment, userID, err)
		return core.RiskAssessment{}, err
	}
	e.logger.DebugContext(ctx, "risk assessed",
		log.FieldUserID, userID,
		log.FieldScore, a.Score,
		log.FieldLevel, a.Level)
	return a, nil
}

func (e *Engine) ComputeRepeatSpending(ctx context.Context, userID string, now time.Time) ([]core.RepeatSpendingEntry, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	out, err := e.detector.Detect(ctx, userID, now)
	if err != nil {
		e.fail(ctx, log.OpRepeatSpending, userID, err)
		return nil, err
	}
	return out, nil
}

// ExtractReceiptFields never fails. Fields that cannot be found are nil.
func (e *Engine) ExtractReceiptFields(text string) core.ReceiptExtraction {
	return e.extractor.Extract(text)
}

// ScanReceipt reads the image at ref (a local path or gs:// URI) and
// extracts suggested fields from its text. Nothing is saved.
func (e *Engine) ScanReceipt(ctx context.Context, ref string) (receipt.Scan, error) {
	if e.scanner == nil {
		return receipt.Scan{}, ErrScannerUnavailable
	}
	s, err := e.scanner.Scan(ctx, ref)
	if err != nil {
		e.fail(ctx, log.OpScanReceipt, "", err)
		return receipt.Scan{}, err
	}
	return s, nil
}

func (e *Engine) SetBudget(ctx context.Context, userID, category, month string, limit decimal.Decimal) (core.BudgetRecord, error) {
	b, err := e.tracker.SetBudget(ctx, userID, category, month, limit)
	if err != nil {
		e.fail(ctx, log.OpSetBudget, userID, err)
		return core.BudgetRecord{}, err
	}
	e.logger.InfoContext(ctx, "budget set",
		log.FieldUserID, userID,
		log.FieldCategory, b.Category,
		log.FieldMonth, b.Month,
		log.FieldLimit, b.Limit.StringFixed(2))
	return b, nil
}

// TotalBudget sums the user's limits for month.
func (e *Engine) TotalBudget(ctx context.Context, userID, month string) (decimal.Decimal, error) {
	if err := requireUser(userID); err != nil {
		return decimal.Zero, err
	}
	m, err := core.ParseMonth(month)
	if err != nil {
		return decimal.Zero, &core.ValidationError{Field: "month", Err: err}
	}
	budgets, err := e.tracker.Budgets(ctx, userID, records.BudgetFilter{Month: m.String()})
	if err != nil {
		return decimal.Zero, err
	}
	return budget.TotalLimit(budgets), nil
}

// NextAction suggests pausing the most used budget at or above the
// warning threshold.
func (e *Engine) NextAction(statuses []core.BudgetStatus) (string, bool) {
	return budget.NextAction(statuses, e.thresholds.WarningAt)
}

// AddTransaction validates r and stores it.
func (e *Engine) AddTransaction(ctx context.Context, r core.TransactionRecord) (core.TransactionRecord, error) {
	r.Category = strings.TrimSpace(r.Category)
	r.Description = strings.TrimSpace(r.Description)
	if err := r.Validate(); err != nil {
		return core.TransactionRecord{}, err
	}
	saved, err := e.store.AddTransaction(ctx, r)
	if err != nil {
		err = core.Dependency("add transaction", err)
		e.fail(ctx, log.OpAddTransaction, r.UserID, err)
		return core.TransactionRecord{}, err
	}
	e.logger.InfoContext(ctx, "transaction added",
		log.FieldUserID, saved.UserID,
		log.FieldCategory, saved.Category,
		log.FieldAmount, saved.Amount.StringFixed(2))
	return saved, nil
}

// Users lists everyone with at least one transaction or budget.
func (e *Engine) Users(ctx context.Context) ([]string, error) {
	users, err := e.store.ListUsers(ctx)
	if err != nil {
		return nil, core.Dependency("list users", err)
	}
	return users, nil
}

// MonthlySummary totals every transaction by (year, month, type), oldest
// first.
func (e *Engine) MonthlySummary(ctx context.Context, userID string) ([]core.MonthTypeTotal, error) {
	txs, err := e.transactions(ctx, userID, records.TxFilter{})
	if err != nil {
		return nil, err
	}
	sums := analytics.Aggregate(txs, analytics.Query{UserID: userID, GroupBy: analytics.ByMonthType})
	out := make([]core.MonthTypeTotal, 0, len(sums))
	for _, k := range analytics.SortedKeys(sums) {
		out = append(out, core.MonthTypeTotal{Year: k.Year, Month: int(k.Month), Type: k.Type, Total: sums[k]})
	}
	return out, nil
}

// CategorySummary totals expenses by category, largest first.
func (e *Engine) CategorySummary(ctx context.Context, userID string) ([]core.CategoryTotal, error) {
	txs, err := e.transactions(ctx, userID, records.TxFilter{Type: core.Expense})
	if err != nil {
		return nil, err
	}
	sums := analytics.Aggregate(txs, analytics.Query{UserID: userID, Type: core.Expense, GroupBy: analytics.ByCategory})
	out := make([]core.CategoryTotal, 0, len(sums))
	for k, v := range sums {
		out = append(out, core.CategoryTotal{Category: k.Category, Total: v})
	}
	sort.Slice(out, func(i, j int) bool {
		if c := out[i].Total.Cmp(out[j].Total); c != 0 {
			return c > 0
		}
		return out[i].Category < out[j].Category
	})
	return out, nil
}

// IncomeExpenseSummary totals all transactions by type.
func (e *Engine) IncomeExpenseSummary(ctx context.Context, userID string) ([]core.TypeTotal, error) {
	txs, err := e.transactions(ctx, userID, records.TxFilter{})
	if err != nil {
		return nil, err
	}
	sums := analytics.Aggregate(txs, analytics.Query{UserID: userID, GroupBy: analytics.ByType})
	out := make([]core.TypeTotal, 0, len(sums))
	for _, k := range analytics.SortedKeys(sums) {
		out = append(out, core.TypeTotal{Type: k.Type, Total: sums[k]})
	}
	return out, nil
}

// MonthSpend compares this month's expenses with the month's combined
// budget. PercentUsed is capped at 100.
func (e *Engine) MonthSpend(ctx context.Context, userID string, now time.Time) (core.MonthSpend, error) {
	w := core.CurrentMonth(now)
	txs, err := e.transactions(ctx, userID, records.TxFilter{Type: core.Expense, Window: w})
	if err != nil {
		return core.MonthSpend{}, err
	}
	month := core.MonthOf(now).String()
	total, err := e.TotalBudget(ctx, userID, month)
	if err != nil {
		return core.MonthSpend{}, err
	}
	spent := analytics.Total(txs, analytics.Query{UserID: userID, Type: core.Expense, Window: w})
	pct := core.RoundInt(core.Percent(spent, total))
	if pct > 100 {
		pct = 100
	}
	return core.MonthSpend{Month: month, Spent: spent, Budget: total, PercentUsed: pct}, nil
}

func (e *Engine) transactions(ctx context.Context, userID string, f records.TxFilter) ([]core.TransactionRecord, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	txs, err := e.store.FindTransactions(ctx, userID, f)
	if err != nil {
		err = core.Dependency("find transactions", err)
		e.fail(ctx, log.OpSummary, userID, err)
		return nil, err
	}
	return txs, nil
}

func (e *Engine) fail(ctx context.Context, op, userID string, err error) {
	errType := log.ErrorTypeInternal
	switch {
	case core.IsValidation(err):
		errType = log.ErrorTypeValidation
	case core.IsDependency(err):
		errType = log.ErrorTypeDependency
	}
	fields := log.NewFields().WithOperation(op).WithError(err, errType)
	if userID != "" {
		fields.WithUser(userID)
	}
	if errType == log.ErrorTypeValidation {
		e.logger.DebugContext(ctx, "request rejected", fields.ToSlice()...)
		return
	}
	e.logger.ErrorContext(ctx, "operation failed", fields.ToSlice()...)
}
