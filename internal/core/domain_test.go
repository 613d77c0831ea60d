package core

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestParseMonth(t *testing.T) {
	cases := []struct {
		in   string
		want Month
		ok   bool
	}{
		{"2024-05", Month{2024, time.May}, true},
		{" 2023-12 ", Month{2023, time.December}, true},
		{"2024-13", Month{}, false},
		{"2024-00", Month{}, false},
		{"2024-5", Month{}, false},
		{"24-05", Month{}, false},
		{"2024/05", Month{}, false},
		{"", Month{}, false},
	}
	for _, tc := range cases {
		got, err := ParseMonth(tc.in)
		if tc.ok {
			if err != nil || got != tc.want {
				t.Fatalf("%q expected %v, got %v (err=%v)", tc.in, tc.want, got, err)
			}
			continue
		}
		if !errors.Is(err, ErrInvalidMonth) {
			t.Fatalf("%q expected ErrInvalidMonth, got %v", tc.in, err)
		}
	}
}

func TestMonthArithmetic(t *testing.T) {
	m := Month{2024, time.December}
	if got := m.Next().String(); got != "2025-01" {
		t.Fatalf("next of 2024-12 = %s", got)
	}
	if d := (Month{2024, time.February}).Days(); d != 29 {
		t.Fatalf("feb 2024 has 29 days, got %d", d)
	}
	if d := (Month{2023, time.February}).Days(); d != 28 {
		t.Fatalf("feb 2023 has 28 days, got %d", d)
	}
}

func TestBudgetRecordValidate(t *testing.T) {
	valid := BudgetRecord{UserID: "u1", Category: "Food", Month: "2024-05", Limit: decimal.NewFromInt(5000)}
	if err := valid.Validate(); err != nil {
		t.Fatalf("expected valid budget, got %v", err)
	}

	cases := []struct {
		name  string
		mut   func(*BudgetRecord)
		field string
		err   error
	}{
		{"empty category", func(b *BudgetRecord) { b.Category = "  " }, "category", ErrEmptyCategory},
		{"zero limit", func(b *BudgetRecord) { b.Limit = decimal.Zero }, "limit", ErrInvalidLimit},
		{"negative limit", func(b *BudgetRecord) { b.Limit = decimal.NewFromInt(-1) }, "limit", ErrInvalidLimit},
		{"bad month", func(b *BudgetRecord) { b.Month = "May 2024" }, "month", ErrInvalidMonth},
		{"no user", func(b *BudgetRecord) { b.UserID = "" }, "userId", ErrEmptyUser},
	}
	for _, tc := range cases {
		b := valid
		tc.mut(&b)
		err := b.Validate()
		var ve *ValidationError
		if !errors.As(err, &ve) {
			t.Fatalf("%s: expected ValidationError, got %v", tc.name, err)
		}
		if ve.Field != tc.field || !errors.Is(err, tc.err) {
			t.Fatalf("%s: got field=%s err=%v", tc.name, ve.Field, err)
		}
	}
}

func TestTransactionRecordValidate(t *testing.T) {
	rec := TransactionRecord{
		UserID:   "u1",
		Type:     Expense,
		Amount:   decimal.RequireFromString("12.50"),
		Category: "Food",
		Date:     time.Date(2024, 5, 3, 0, 0, 0, 0, time.UTC),
	}
	if err := rec.Validate(); err != nil {
		t.Fatalf("expected valid record, got %v", err)
	}
	bad := rec
	bad.Type = "transfer"
	if err := bad.Validate(); !errors.Is(err, ErrInvalidType) {
		t.Fatalf("expected ErrInvalidType, got %v", err)
	}
	bad = rec
	bad.Amount = decimal.Zero
	if err := bad.Validate(); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
	bad = rec
	bad.Date = time.Time{}
	if err := bad.Validate(); !errors.Is(err, ErrInvalidDate) {
		t.Fatalf("expected ErrInvalidDate, got %v", err)
	}
}

func TestDependencyWrapping(t *testing.T) {
	cause := errors.New("connection refused")
	err := Dependency("find budgets", cause)
	if !IsDependency(err) || !errors.Is(err, cause) {
		t.Fatalf("expected dependency error wrapping cause, got %v", err)
	}
	if again := Dependency("outer", err); again != err {
		t.Fatalf("expected existing DependencyError to pass through")
	}
	if Dependency("noop", nil) != nil {
		t.Fatalf("nil error must stay nil")
	}
	if IsValidation(err) {
		t.Fatalf("dependency error must not be a validation error")
	}
}
