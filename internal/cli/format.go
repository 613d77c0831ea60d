package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// FormatNumber adds comma separators to an integer.
// e.g., 1234567 -> "1,234,567"
func FormatNumber(n int64) string {
	if n < 0 {
		return "-" + FormatNumber(-n)
	}
	s := strconv.FormatInt(n, 10)
	if len(s) <= 3 {
		return s
	}

	var b strings.Builder
	head := len(s) % 3
	if head > 0 {
		b.WriteString(s[:head])
	}
	for i := head; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}

// FormatMoney renders d with two decimals and grouped thousands.
// e.g., 1234.5 -> "1,234.50"
func FormatMoney(d decimal.Decimal) string {
	neg := d.IsNegative()
	fixed := d.Abs().StringFixed(2)
	whole, frac, _ := strings.Cut(fixed, ".")
	n, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return d.StringFixed(2)
	}
	out := FormatNumber(n) + "." + frac
	if neg {
		return "-" + out
	}
	return out
}

// FormatOptionalMoney renders nil as "-".
func FormatOptionalMoney(d *decimal.Decimal) string {
	if d == nil {
		return "-"
	}
	return FormatMoney(*d)
}

func FormatOptional(s *string) string {
	if s == nil || *s == "" {
		return "-"
	}
	return *s
}

func FormatPercent(pct int64) string {
	return fmt.Sprintf("%d%%", pct)
}
