// Package analytics computes windowed sums, counts and averages over
// transaction records. Everything here is a pure function of its inputs.
package analytics

import (
	"sort"
	"strings"
	"time"

	"fintrack/internal/core"

	"github.com/shopspring/decimal"
)

// Metric selects the value produced per group.
type Metric int

const (
	Sum Metric = iota
	Count
	Avg
)

// GroupBy selects the grouping key.
type GroupBy int

const (
	ByCategory GroupBy = iota
	ByType
	ByMonthType
	// ByNone folds every matching record into a single group.
	ByNone
)

// Query scopes an aggregation. Empty UserID, Type and Category match all
// records; a zero Window means all time.
type Query struct {
	UserID   string
	Type     core.TxType
	Category string
	Metric   Metric
	GroupBy  GroupBy
	Window   core.Window
}

// GroupKey identifies one group. Only the fields relevant to the GroupBy
// are set. Year and Month come from the record's own date in UTC.
type GroupKey struct {
	Category string
	Type     core.TxType
	Year     int
	Month    time.Month
}

// Bucket accumulates one group.
type Bucket struct {
	Count int
	Sum   decimal.Decimal
}

// Value returns the bucket's metric. Avg of an empty bucket is zero.
func (b Bucket) Value(m Metric) decimal.Decimal {
	switch m {
	case Count:
		return decimal.NewFromInt(int64(b.Count))
	case Avg:
		if b.Count == 0 {
			return decimal.Zero
		}
		return b.Sum.Div(decimal.NewFromInt(int64(b.Count)))
	default:
		return b.Sum
	}
}

// Filter returns the records matching q's user, type, category and window.
func Filter(records []core.TransactionRecord, q Query) []core.TransactionRecord {
	var out []core.TransactionRecord
	for _, r := range records {
		if matches(r, q) {
			out = append(out, r)
		}
	}
	return out
}

func matches(r core.TransactionRecord, q Query) bool {
	if q.UserID != "" && r.UserID != q.UserID {
		return false
	}
	if q.Type != "" && r.Type != q.Type {
		return false
	}
	if q.Category != "" && strings.TrimSpace(r.Category) != q.Category {
		return false
	}
	return q.Window.Contains(r.Date)
}

// Group buckets the matching records. Groups without records are absent.
func Group(records []core.TransactionRecord, q Query) map[GroupKey]Bucket {
	groups := make(map[GroupKey]Bucket)
	for _, r := range records {
		if !matches(r, q) {
			continue
		}
		k := keyOf(r, q.GroupBy)
		b := groups[k]
		b.Count++
		b.Sum = b.Sum.Add(r.Amount)
		groups[k] = b
	}
	return groups
}

// Aggregate maps each non-empty group to q's metric. Callers default
// missing keys to zero.
func Aggregate(records []core.TransactionRecord, q Query) map[GroupKey]decimal.Decimal {
	groups := Group(records, q)
	out := make(map[GroupKey]decimal.Decimal, len(groups))
	for k, b := range groups {
		out[k] = b.Value(q.Metric)
	}
	return out
}

// Total sums every matching record regardless of grouping.
func Total(records []core.TransactionRecord, q Query) decimal.Decimal {
	q.GroupBy = ByNone
	return Group(records, q)[GroupKey{}].Sum
}

func keyOf(r core.TransactionRecord, by GroupBy) GroupKey {
	switch by {
	case ByCategory:
		return GroupKey{Category: strings.TrimSpace(r.Category)}
	case ByType:
		return GroupKey{Type: r.Type}
	case ByMonthType:
		d := r.Date.UTC()
		return GroupKey{Type: r.Type, Year: d.Year(), Month: d.Month()}
	default:
		return GroupKey{}
	}
}

// SortedKeys returns the keys ordered by year, month, type, then category.
func SortedKeys[V any](m map[GroupKey]V) []GroupKey {
	keys := make([]GroupKey, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, b := keys[i], keys[j]
		if a.Year != b.Year {
			return a.Year < b.Year
		}
		if a.Month != b.Month {
			return a.Month < b.Month
		}
		if a.Type != b.Type {
			return a.Type < b.Type
		}
		return a.Category < b.Category
	})
	return keys
}
