package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/records"

	"github.com/shopspring/decimal"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "data", "fintrack.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestMigrationsAreIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fintrack.db")
	if v, _, err := SchemaVersion(path); err != nil || v != 0 {
		t.Fatalf("expected empty schema, got version %d (%v)", v, err)
	}
	for i := 0; i < 2; i++ {
		if err := RunMigrations(path); err != nil {
			t.Fatalf("run %d: %v", i, err)
		}
	}
	v, dirty, err := SchemaVersion(path)
	if err != nil {
		t.Fatalf("schema version: %v", err)
	}
	if v != 1 || dirty {
		t.Fatalf("expected clean version 1, got %d dirty=%v", v, dirty)
	}
}

func TestUpsertBudgetKeepsOneRow(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	b := core.BudgetRecord{UserID: "u1", Category: "Food ", Month: "2024-05", Limit: decimal.NewFromInt(5000)}
	first, err := repo.UpsertBudget(ctx, b)
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	b.Limit = decimal.RequireFromString("5500.50")
	second, err := repo.UpsertBudget(ctx, b)
	if err != nil {
		t.Fatalf("upsert again: %v", err)
	}
	if first.ID != second.ID {
		t.Fatalf("expected the same row, got %s and %s", first.ID, second.ID)
	}

	got, err := repo.FindBudgets(ctx, "u1", records.BudgetFilter{Month: "2024-05"})
	if err != nil {
		t.Fatalf("find budgets: %v", err)
	}
	if len(got) != 1 || got[0].Category != "Food" || !got[0].Limit.Equal(decimal.RequireFromString("5500.5")) {
		t.Fatalf("unexpected budgets %+v", got)
	}
}

func TestFindTransactionsWindow(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	start := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	for _, d := range []time.Time{start, start.Add(48 * time.Hour), end} {
		_, err := repo.AddTransaction(ctx, core.TransactionRecord{
			UserID: "u1", Type: core.Expense, Category: "Food", Amount: decimal.RequireFromString("10.25"), Date: d,
		})
		if err != nil {
			t.Fatalf("add: %v", err)
		}
	}
	if _, err := repo.AddTransaction(ctx, core.TransactionRecord{
		UserID: "u2", Type: core.Income, Category: "Salary", Amount: decimal.NewFromInt(1), Date: start,
	}); err != nil {
		t.Fatalf("add: %v", err)
	}

	cases := []struct {
		name string
		f    records.TxFilter
		want int
	}{
		{"half open", records.TxFilter{Window: core.Window{Since: start, Until: end}}, 2},
		{"inclusive end", records.TxFilter{Window: core.Window{Since: start, Until: end, InclusiveEnd: true}}, 3},
		{"all time", records.TxFilter{}, 3},
		{"other type", records.TxFilter{Type: core.Income}, 0},
		{"category", records.TxFilter{Category: "Food", Type: core.Expense}, 3},
	}
	for _, tc := range cases {
		got, err := repo.FindTransactions(ctx, "u1", tc.f)
		if err != nil {
			t.Fatalf("%s: %v", tc.name, err)
		}
		if len(got) != tc.want {
			t.Fatalf("%s: expected %d, got %d", tc.name, tc.want, len(got))
		}
	}

	got, _ := repo.FindTransactions(ctx, "u1", records.TxFilter{})
	if !got[0].Date.Equal(end) || !got[0].Amount.Equal(decimal.RequireFromString("10.25")) {
		t.Fatalf("expected newest first with exact amount, got %+v", got[0])
	}

	users, err := repo.ListUsers(ctx)
	if err != nil || len(users) != 2 {
		t.Fatalf("expected two users, got %v (err=%v)", users, err)
	}
}

func TestAddTransactionValidates(t *testing.T) {
	repo := newTestRepo(t)
	_, err := repo.AddTransaction(context.Background(), core.TransactionRecord{UserID: "u1", Type: core.Expense, Category: "Food"})
	if !core.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
