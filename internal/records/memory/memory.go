// Package memory is an in-process record store used for demos and tests.
package memory

import (
	"context"
	"encoding/csv"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/records"

	"github.com/google/uuid"
)

type budgetKey struct {
	user, category, month string
}

type Store struct {
	mu      sync.RWMutex
	txs     []core.TransactionRecord
	budgets map[budgetKey]core.BudgetRecord
	order   []budgetKey
}

var _ records.Store = (*Store)(nil)

func New() *Store {
	return &Store{budgets: make(map[budgetKey]core.BudgetRecord)}
}

// NewFromFiles seeds a store from transactions.csv and budgets.csv in base.
// Missing files leave the store empty. Malformed rows are skipped.
//
//	transactions.csv: user,type,category,amount,date(YYYY-MM-DD),description
//	budgets.csv:      user,category,month(YYYY-MM),limit
func NewFromFiles(base string) (*Store, error) {
	s := New()
	ctx := context.Background()

	for _, row := range readRows(filepath.Join(base, "transactions.csv")) {
		if len(row) < 5 {
			continue
		}
		typ, err := core.ParseTxType(row[1])
		if err != nil {
			continue
		}
		amount, err := core.ParseAmount(row[3])
		if err != nil {
			continue
		}
		date, err := time.Parse("2006-01-02", strings.TrimSpace(row[4]))
		if err != nil {
			continue
		}
		r := core.TransactionRecord{UserID: row[0], Type: typ, Category: row[2], Amount: amount, Date: date}
		if len(row) > 5 {
			r.Description = row[5]
		}
		if _, err := s.AddTransaction(ctx, r); err != nil {
			return nil, err
		}
	}

	for _, row := range readRows(filepath.Join(base, "budgets.csv")) {
		if len(row) < 4 {
			continue
		}
		limit, err := core.ParseAmount(row[3])
		if err != nil {
			continue
		}
		b := core.BudgetRecord{UserID: row[0], Category: row[1], Month: row[2], Limit: limit}
		if _, err := s.UpsertBudget(ctx, b); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// AddTransaction validates and stores r, assigning an ID when absent.
func (s *Store) AddTransaction(_ context.Context, r core.TransactionRecord) (core.TransactionRecord, error) {
	r.Category = strings.TrimSpace(r.Category)
	if err := r.Validate(); err != nil {
		return core.TransactionRecord{}, err
	}
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.txs = append(s.txs, r)
	return r, nil
}

// FindTransactions returns matching records, newest first.
func (s *Store) FindTransactions(_ context.Context, userID string, f records.TxFilter) ([]core.TransactionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []core.TransactionRecord
	for _, r := range s.txs {
		if r.UserID == userID && f.Match(r) {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out, nil
}

// FindBudgets returns matching budgets in creation order.
func (s *Store) FindBudgets(_ context.Context, userID string, f records.BudgetFilter) ([]core.BudgetRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []core.BudgetRecord
	for _, k := range s.order {
		b := s.budgets[k]
		if b.UserID == userID && f.Match(b) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (s *Store) UpsertBudget(_ context.Context, b core.BudgetRecord) (core.BudgetRecord, error) {
	b.Category = strings.TrimSpace(b.Category)
	if err := b.Validate(); err != nil {
		return core.BudgetRecord{}, err
	}
	k := budgetKey{b.UserID, b.Category, b.Month}

	s.mu.Lock()
	defer s.mu.Unlock()
	if prev, ok := s.budgets[k]; ok {
		prev.Limit = b.Limit
		s.budgets[k] = prev
		return prev, nil
	}
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	s.budgets[k] = b
	s.order = append(s.order, k)
	return b, nil
}

// ListUsers returns the users with any transaction or budget, sorted.
func (s *Store) ListUsers(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seen := map[string]struct{}{}
	for _, r := range s.txs {
		seen[r.UserID] = struct{}{}
	}
	for k := range s.budgets {
		seen[k.user] = struct{}{}
	}
	users := make([]string, 0, len(seen))
	for u := range seen {
		users = append(users, u)
	}
	sort.Strings(users)
	return users, nil
}

// Len returns the number of stored transactions and budgets.
func (s *Store) Len() (txs, budgets int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.txs), len(s.budgets)
}

func readRows(path string) [][]string {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.Comment = '#'
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	var out [][]string
	for {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			continue
		}
		for i := range row {
			row[i] = strings.TrimSpace(row[i])
		}
		if len(row) > 0 && strings.EqualFold(row[0], "user") {
			continue
		}
		out = append(out, row)
	}
	return out
}
