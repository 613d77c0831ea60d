package storage

import (
	"context"
	"database/sql"
	"strings"
)

// DBTX is satisfied by *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

type Transaction struct {
	ID          string
	UserID      string
	Type        string
	Amount      string
	Category    string
	Description string
	DateMs      int64
	ReceiptURL  string
}

type Budget struct {
	ID       string
	UserID   string
	Category string
	Month    string
	Limit    string
}

const insertTransaction = `INSERT INTO transactions (id, user_id, type, amount, category, description, date_ms, receipt_url)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

func (q *Queries) InsertTransaction(ctx context.Context, t Transaction) error {
	_, err := q.db.ExecContext(ctx, insertTransaction,
		t.ID, t.UserID, t.Type, t.Amount, t.Category, t.Description, t.DateMs, t.ReceiptURL)
	return err
}

type ListTransactionsParams struct {
	UserID       string
	Type         string
	Category     string
	SinceMs      *int64
	UntilMs      *int64
	InclusiveEnd bool
}

func (q *Queries) ListTransactions(ctx context.Context, p ListTransactionsParams) ([]Transaction, error) {
	var (
		sb   strings.Builder
		args = []any{p.UserID}
	)
	sb.WriteString(`SELECT id, user_id, type, amount, category, description, date_ms, receipt_url
FROM transactions WHERE user_id = ?`)
	if p.Type != "" {
		sb.WriteString(` AND type = ?`)
		args = append(args, p.Type)
	}
	if p.Category != "" {
		sb.WriteString(` AND category = ?`)
		args = append(args, p.Category)
	}
	if p.SinceMs != nil {
		sb.WriteString(` AND date_ms >= ?`)
		args = append(args, *p.SinceMs)
	}
	if p.UntilMs != nil {
		if p.InclusiveEnd {
			sb.WriteString(` AND date_ms <= ?`)
		} else {
			sb.WriteString(` AND date_ms < ?`)
		}
		args = append(args, *p.UntilMs)
	}
	sb.WriteString(` ORDER BY date_ms DESC, id`)

	rows, err := q.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Transaction
	for rows.Next() {
		var t Transaction
		if err := rows.Scan(&t.ID, &t.UserID, &t.Type, &t.Amount, &t.Category, &t.Description, &t.DateMs, &t.ReceiptURL); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

const upsertBudget = `INSERT INTO budgets (id, user_id, category, month, limit_amt)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT (user_id, category, month) DO UPDATE SET
    limit_amt = excluded.limit_amt,
    updated_at = CURRENT_TIMESTAMP
RETURNING id, user_id, category, month, limit_amt`

func (q *Queries) UpsertBudget(ctx context.Context, b Budget) (Budget, error) {
	var out Budget
	err := q.db.QueryRowContext(ctx, upsertBudget, b.ID, b.UserID, b.Category, b.Month, b.Limit).
		Scan(&out.ID, &out.UserID, &out.Category, &out.Month, &out.Limit)
	return out, err
}

type ListBudgetsParams struct {
	UserID   string
	Month    string
	Category string
}

func (q *Queries) ListBudgets(ctx context.Context, p ListBudgetsParams) ([]Budget, error) {
	query := `SELECT id, user_id, category, month, limit_amt FROM budgets WHERE user_id = ?`
	args := []any{p.UserID}
	if p.Month != "" {
		query += ` AND month = ?`
		args = append(args, p.Month)
	}
	if p.Category != "" {
		query += ` AND category = ?`
		args = append(args, p.Category)
	}
	query += ` ORDER BY month, category`

	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Budget
	for rows.Next() {
		var b Budget
		if err := rows.Scan(&b.ID, &b.UserID, &b.Category, &b.Month, &b.Limit); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

const listUsers = `SELECT user_id FROM transactions
UNION
SELECT user_id FROM budgets
ORDER BY user_id`

func (q *Queries) ListUsers(ctx context.Context) ([]string, error) {
	rows, err := q.db.QueryContext(ctx, listUsers)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var u string
		if err := rows.Scan(&u); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}
