package core

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	Income  TxType = "income"
	Expense TxType = "expense"
)

type (
	TxType string

	// Month is a calendar month addressed by its "YYYY-MM" token.
	Month struct {
		Year  int
		Month time.Month
	}

	TransactionRecord struct {
		ID          string          `json:"id"`
		UserID      string          `json:"userId"`
		Type        TxType          `json:"type"`
		Amount      decimal.Decimal `json:"amount"`
		Category    string          `json:"category"`
		Description string          `json:"description,omitempty"`
		Date        time.Time       `json:"date"`
		ReceiptURL  string          `json:"receiptUrl,omitempty"`
	}

	// BudgetRecord is unique per (UserID, Category, Month).
	BudgetRecord struct {
		ID       string          `json:"id"`
		UserID   string          `json:"userId"`
		Category string          `json:"category"`
		Month    string          `json:"month"`
		Limit    decimal.Decimal `json:"limit"`
	}
)

var monthToken = regexp.MustCompile(`^(\d{4})-(\d{2})$`)

// ParseMonth parses a strict "YYYY-MM" token.
func ParseMonth(s string) (Month, error) {
	m := monthToken.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return Month{}, ErrInvalidMonth
	}
	year, _ := strconv.Atoi(m[1])
	mon, _ := strconv.Atoi(m[2])
	if mon < 1 || mon > 12 {
		return Month{}, ErrInvalidMonth
	}
	return Month{Year: year, Month: time.Month(mon)}, nil
}

// MonthOf returns the month containing t, in t's location.
func MonthOf(t time.Time) Month {
	return Month{Year: t.Year(), Month: t.Month()}
}

func (m Month) String() string {
	return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month))
}

// Start returns midnight of the first day of the month in loc.
func (m Month) Start(loc *time.Location) time.Time {
	return time.Date(m.Year, m.Month, 1, 0, 0, 0, 0, loc)
}

// Next returns the following calendar month.
func (m Month) Next() Month {
	return MonthOf(m.Start(time.UTC).AddDate(0, 1, 0))
}

// Days returns the number of days in the month.
func (m Month) Days() int {
	return time.Date(m.Year, m.Month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func (t TxType) Validate() error {
	switch t {
	case Income, Expense:
		return nil
	default:
		return ErrInvalidType
	}
}

// ParseTxType accepts "income" or "expense" in any case.
func ParseTxType(s string) (TxType, error) {
	t := TxType(strings.ToLower(strings.TrimSpace(s)))
	if err := t.Validate(); err != nil {
		return "", err
	}
	return t, nil
}

func (r TransactionRecord) Validate() error {
	if strings.TrimSpace(r.UserID) == "" {
		return &ValidationError{Field: "userId", Err: ErrEmptyUser}
	}
	if err := r.Type.Validate(); err != nil {
		return &ValidationError{Field: "type", Err: err}
	}
	if !r.Amount.IsPositive() {
		return &ValidationError{Field: "amount", Err: ErrInvalidAmount}
	}
	if strings.TrimSpace(r.Category) == "" {
		return &ValidationError{Field: "category", Err: ErrEmptyCategory}
	}
	if r.Date.IsZero() {
		return &ValidationError{Field: "date", Err: ErrInvalidDate}
	}
	if len(r.Description) > 200 {
		return &ValidationError{Field: "description", Err: ErrDescriptionTooLong}
	}
	return nil
}

func (b BudgetRecord) Validate() error {
	if strings.TrimSpace(b.UserID) == "" {
		return &ValidationError{Field: "userId", Err: ErrEmptyUser}
	}
	if strings.TrimSpace(b.Category) == "" {
		return &ValidationError{Field: "category", Err: ErrEmptyCategory}
	}
	if _, err := ParseMonth(b.Month); err != nil {
		return &ValidationError{Field: "month", Err: err}
	}
	if !b.Limit.IsPositive() {
		return &ValidationError{Field: "limit", Err: ErrInvalidLimit}
	}
	return nil
}
