// Package records declares the record-store ports the engine reads from.
package records

import (
	"context"
	"strings"

	"fintrack/internal/core"
)

type (
	// TxFilter narrows a transaction lookup. Empty fields match everything.
	TxFilter struct {
		Type     core.TxType
		Category string
		Window   core.Window
	}

	// BudgetFilter narrows a budget lookup. Empty fields match everything.
	BudgetFilter struct {
		Month    string
		Category string
	}
)

// Ports for outbound adapters.
type (
	TransactionFinder interface {
		FindTransactions(ctx context.Context, userID string, f TxFilter) ([]core.TransactionRecord, error)
	}

	TransactionWriter interface {
		AddTransaction(ctx context.Context, r core.TransactionRecord) (core.TransactionRecord, error)
	}

	BudgetFinder interface {
		FindBudgets(ctx context.Context, userID string, f BudgetFilter) ([]core.BudgetRecord, error)
	}

	// BudgetUpserter creates or replaces the budget keyed by
	// (UserID, Category, Month).
	BudgetUpserter interface {
		UpsertBudget(ctx context.Context, b core.BudgetRecord) (core.BudgetRecord, error)
	}

	// UserLister returns every user that owns at least one record.
	UserLister interface {
		ListUsers(ctx context.Context) ([]string, error)
	}

	Store interface {
		TransactionFinder
		TransactionWriter
		BudgetFinder
		BudgetUpserter
		UserLister
	}
)

func (f TxFilter) Match(r core.TransactionRecord) bool {
	if f.Type != "" && r.Type != f.Type {
		return false
	}
	if f.Category != "" && strings.TrimSpace(r.Category) != f.Category {
		return false
	}
	return f.Window.Contains(r.Date)
}

func (f BudgetFilter) Match(b core.BudgetRecord) bool {
	if f.Month != "" && b.Month != f.Month {
		return false
	}
	if f.Category != "" && b.Category != f.Category {
		return false
	}
	return true
}
