// Package sheets stores transactions and budgets in a Google Sheets
// spreadsheet, one row per record.
//
// Transactions sheet, columns A:H: ID, User, Type, Category, Amount, Date
// (RFC 3339; plain YYYY-MM-DD rows are read as UTC midnight), Description,
// ReceiptURL.
// Budgets sheet, columns A:E: ID, User, Category, Month (YYYY-MM), Limit.
// The first row of each sheet is a header and is ignored.
package sheets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/records"

	"github.com/google/uuid"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

const (
	timestampLayout = time.RFC3339
	dateLayout      = "2006-01-02"
)

// values is the subset of the Sheets values API the store needs.
type values interface {
	Get(ctx context.Context, rng string) ([][]any, error)
	Update(ctx context.Context, rng string, rows [][]any) error
	Append(ctx context.Context, rng string, rows [][]any) error
}

type Options struct {
	SpreadsheetID      string
	TransactionsSheet  string
	BudgetsSheet       string
	ServiceAccountJSON string
	ServiceAccountFile string
}

type Client struct {
	vals              values
	transactionsSheet string
	budgetsSheet      string
}

var _ records.Store = (*Client)(nil)

// New creates a Sheets-backed store authenticated with a service account.
// When neither JSON nor file is set GOOGLE_APPLICATION_CREDENTIALS is used.
func New(ctx context.Context, opts Options) (*Client, error) {
	if strings.TrimSpace(opts.SpreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	svc, err := newSheetsService(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return newClient(&serviceValues{svc: svc, spreadsheetID: opts.SpreadsheetID}, opts), nil
}

func newClient(v values, opts Options) *Client {
	tx := strings.TrimSpace(opts.TransactionsSheet)
	if tx == "" {
		tx = "Transactions"
	}
	bs := strings.TrimSpace(opts.BudgetsSheet)
	if bs == "" {
		bs = "Budgets"
	}
	return &Client{vals: v, transactionsSheet: tx, budgetsSheet: bs}
}

func newSheetsService(ctx context.Context, opts Options) (*gsheet.Service, error) {
	serviceAccountJSON := strings.TrimSpace(opts.ServiceAccountJSON)
	serviceAccountFile := strings.TrimSpace(opts.ServiceAccountFile)
	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentialsJSON []byte
	switch {
	case serviceAccountJSON != "":
		credentialsJSON = []byte(serviceAccountJSON)
	case serviceAccountFile != "":
		b, err := os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		credentialsJSON = b
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	slog.InfoContext(ctx, "Creating Google Sheets service", "scope", gsheet.SpreadsheetsScope)
	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return svc, nil
}

type serviceValues struct {
	svc           *gsheet.Service
	spreadsheetID string
}

func (s *serviceValues) Get(ctx context.Context, rng string) ([][]any, error) {
	resp, err := s.svc.Spreadsheets.Values.Get(s.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rng, err)
	}
	return resp.Values, nil
}

func (s *serviceValues) Update(ctx context.Context, rng string, rows [][]any) error {
	vr := &gsheet.ValueRange{Values: rows}
	_, err := s.svc.Spreadsheets.Values.Update(s.spreadsheetID, rng, vr).
		ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("update %s: %w", rng, err)
	}
	return nil
}

func (s *serviceValues) Append(ctx context.Context, rng string, rows [][]any) error {
	vr := &gsheet.ValueRange{Values: rows}
	_, err := s.svc.Spreadsheets.Values.Append(s.spreadsheetID, rng, vr).
		ValueInputOption("RAW").InsertDataOption("INSERT_ROWS").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("append %s: %w", rng, err)
	}
	return nil
}

func (c *Client) AddTransaction(ctx context.Context, r core.TransactionRecord) (core.TransactionRecord, error) {
	r.Category = strings.TrimSpace(r.Category)
	if err := r.Validate(); err != nil {
		return core.TransactionRecord{}, err
	}
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	row := []any{r.ID, r.UserID, string(r.Type), r.Category, r.Amount.String(), r.Date.Format(timestampLayout), r.Description, r.ReceiptURL}
	if err := c.vals.Append(ctx, c.transactionsSheet+"!A:H", [][]any{row}); err != nil {
		return core.TransactionRecord{}, err
	}
	return r, nil
}

func (c *Client) FindTransactions(ctx context.Context, userID string, f records.TxFilter) ([]core.TransactionRecord, error) {
	rows, err := c.vals.Get(ctx, c.transactionsSheet+"!A2:H")
	if err != nil {
		return nil, err
	}
	var out []core.TransactionRecord
	for _, row := range rows {
		r, ok := parseTransaction(toStrings(row))
		if !ok || r.UserID != userID || !f.Match(r) {
			continue
		}
		out = append(out, r)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out, nil
}

func (c *Client) FindBudgets(ctx context.Context, userID string, f records.BudgetFilter) ([]core.BudgetRecord, error) {
	rows, err := c.vals.Get(ctx, c.budgetsSheet+"!A2:E")
	if err != nil {
		return nil, err
	}
	var out []core.BudgetRecord
	for _, row := range rows {
		b, ok := parseBudget(toStrings(row))
		if !ok || b.UserID != userID || !f.Match(b) {
			continue
		}
		out = append(out, b)
	}
	return out, nil
}

// UpsertBudget rewrites the limit cell of an existing (user, category, month)
// row or appends a new row.
func (c *Client) UpsertBudget(ctx context.Context, b core.BudgetRecord) (core.BudgetRecord, error) {
	b.Category = strings.TrimSpace(b.Category)
	if err := b.Validate(); err != nil {
		return core.BudgetRecord{}, err
	}
	rows, err := c.vals.Get(ctx, c.budgetsSheet+"!A2:E")
	if err != nil {
		return core.BudgetRecord{}, err
	}
	for i, row := range rows {
		existing, ok := parseBudget(toStrings(row))
		if !ok || existing.UserID != b.UserID || existing.Category != b.Category || existing.Month != b.Month {
			continue
		}
		// Data starts at row 2.
		rng := fmt.Sprintf("%s!E%d", c.budgetsSheet, i+2)
		if err := c.vals.Update(ctx, rng, [][]any{{b.Limit.String()}}); err != nil {
			return core.BudgetRecord{}, err
		}
		existing.Limit = b.Limit
		return existing, nil
	}

	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	row := []any{b.ID, b.UserID, b.Category, b.Month, b.Limit.String()}
	if err := c.vals.Append(ctx, c.budgetsSheet+"!A:E", [][]any{row}); err != nil {
		return core.BudgetRecord{}, err
	}
	return b, nil
}

func (c *Client) ListUsers(ctx context.Context) ([]string, error) {
	seen := map[string]struct{}{}
	for _, rng := range []string{c.transactionsSheet + "!B2:B", c.budgetsSheet + "!B2:B"} {
		rows, err := c.vals.Get(ctx, rng)
		if err != nil {
			return nil, err
		}
		for _, row := range rows {
			if len(row) == 0 {
				continue
			}
			if u := strings.TrimSpace(fmt.Sprint(row[0])); u != "" {
				seen[u] = struct{}{}
			}
		}
	}
	users := make([]string, 0, len(seen))
	for u := range seen {
		users = append(users, u)
	}
	sort.Strings(users)
	return users, nil
}

func parseTransaction(cols []string) (core.TransactionRecord, bool) {
	if len(cols) < 6 {
		return core.TransactionRecord{}, false
	}
	typ, err := core.ParseTxType(cols[2])
	if err != nil {
		return core.TransactionRecord{}, false
	}
	amount, err := core.ParseAmount(cols[4])
	if err != nil {
		return core.TransactionRecord{}, false
	}
	date, err := parseDate(cols[5])
	if err != nil {
		return core.TransactionRecord{}, false
	}
	r := core.TransactionRecord{
		ID:       cols[0],
		UserID:   cols[1],
		Type:     typ,
		Category: cols[3],
		Amount:   amount,
		Date:     date,
	}
	if len(cols) > 6 {
		r.Description = cols[6]
	}
	if len(cols) > 7 {
		r.ReceiptURL = cols[7]
	}
	return r, true
}

func parseBudget(cols []string) (core.BudgetRecord, bool) {
	if len(cols) < 5 {
		return core.BudgetRecord{}, false
	}
	limit, err := core.ParseAmount(cols[4])
	if err != nil {
		return core.BudgetRecord{}, false
	}
	b := core.BudgetRecord{ID: cols[0], UserID: cols[1], Category: cols[2], Month: cols[3], Limit: limit}
	if _, err := core.ParseMonth(b.Month); err != nil {
		return core.BudgetRecord{}, false
	}
	return b, true
}

func toStrings(in []any) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}

func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse(timestampLayout, s); err == nil {
		return t, nil
	}
	return time.Parse(dateLayout, s)
}
