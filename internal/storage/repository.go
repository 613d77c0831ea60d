// Package storage persists transactions and budgets in SQLite.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/records"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"
)

type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
}

var _ records.Store = (*SQLiteRepository)(nil)

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db, queries: New(db)}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteRepository) AddTransaction(ctx context.Context, t core.TransactionRecord) (core.TransactionRecord, error) {
	t.Category = strings.TrimSpace(t.Category)
	if err := t.Validate(); err != nil {
		return core.TransactionRecord{}, err
	}
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	err := r.queries.InsertTransaction(ctx, Transaction{
		ID:          t.ID,
		UserID:      t.UserID,
		Type:        string(t.Type),
		Amount:      t.Amount.String(),
		Category:    t.Category,
		Description: t.Description,
		DateMs:      t.Date.UnixMilli(),
		ReceiptURL:  t.ReceiptURL,
	})
	if err != nil {
		return core.TransactionRecord{}, fmt.Errorf("insert transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction saved to SQLite",
		"id", t.ID,
		"user_id", t.UserID,
		"type", t.Type,
		"category", t.Category,
		"amount", t.Amount.String())
	return t, nil
}

func (r *SQLiteRepository) FindTransactions(ctx context.Context, userID string, f records.TxFilter) ([]core.TransactionRecord, error) {
	p := ListTransactionsParams{
		UserID:       userID,
		Type:         string(f.Type),
		Category:     f.Category,
		InclusiveEnd: f.Window.InclusiveEnd,
	}
	if !f.Window.Since.IsZero() {
		ms := f.Window.Since.UnixMilli()
		p.SinceMs = &ms
	}
	if !f.Window.Until.IsZero() {
		ms := f.Window.Until.UnixMilli()
		p.UntilMs = &ms
	}

	rows, err := r.queries.ListTransactions(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	out := make([]core.TransactionRecord, 0, len(rows))
	for _, row := range rows {
		amount, err := decimal.NewFromString(row.Amount)
		if err != nil {
			return nil, fmt.Errorf("transaction %s: parse amount %q: %w", row.ID, row.Amount, err)
		}
		out = append(out, core.TransactionRecord{
			ID:          row.ID,
			UserID:      row.UserID,
			Type:        core.TxType(row.Type),
			Amount:      amount,
			Category:    row.Category,
			Description: row.Description,
			Date:        time.UnixMilli(row.DateMs).UTC(),
			ReceiptURL:  row.ReceiptURL,
		})
	}
	return out, nil
}

func (r *SQLiteRepository) FindBudgets(ctx context.Context, userID string, f records.BudgetFilter) ([]core.BudgetRecord, error) {
	rows, err := r.queries.ListBudgets(ctx, ListBudgetsParams{UserID: userID, Month: f.Month, Category: f.Category})
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	out := make([]core.BudgetRecord, 0, len(rows))
	for _, row := range rows {
		b, err := toBudgetRecord(row)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, nil
}

// UpsertBudget relies on the (user_id, category, month) unique constraint.
func (r *SQLiteRepository) UpsertBudget(ctx context.Context, b core.BudgetRecord) (core.BudgetRecord, error) {
	b.Category = strings.TrimSpace(b.Category)
	if err := b.Validate(); err != nil {
		return core.BudgetRecord{}, err
	}
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	row, err := r.queries.UpsertBudget(ctx, Budget{
		ID:       b.ID,
		UserID:   b.UserID,
		Category: b.Category,
		Month:    b.Month,
		Limit:    b.Limit.String(),
	})
	if err != nil {
		return core.BudgetRecord{}, fmt.Errorf("upsert budget: %w", err)
	}

	slog.InfoContext(ctx, "Budget saved to SQLite",
		"id", row.ID,
		"user_id", row.UserID,
		"category", row.Category,
		"month", row.Month,
		"limit", row.Limit)
	return toBudgetRecord(row)
}

func (r *SQLiteRepository) ListUsers(ctx context.Context) ([]string, error) {
	users, err := r.queries.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

func toBudgetRecord(row Budget) (core.BudgetRecord, error) {
	limit, err := decimal.NewFromString(row.Limit)
	if err != nil {
		return core.BudgetRecord{}, fmt.Errorf("budget %s: parse limit %q: %w", row.ID, row.Limit, err)
	}
	return core.BudgetRecord{
		ID:       row.ID,
		UserID:   row.UserID,
		Category: row.Category,
		Month:    row.Month,
		Limit:    limit,
	}, nil
}
