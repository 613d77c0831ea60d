// Package receipt turns recognized receipt text into suggested transaction
// fields. Every field is advisory and meant to be confirmed by a person.
package receipt

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"fintrack/internal/core"

	"github.com/shopspring/decimal"
)

const OtherCategory = "Other"

var (
	amountPattern = regexp.MustCompile(`\b\d{1,5}(\.\d{2})\b`)
	datePattern   = regexp.MustCompile(`(\d{2}[/\-]\d{2}[/\-]\d{2,4})`)
)

// Rule maps merchants matching Pattern to Category.
type Rule struct {
	Pattern  *regexp.Regexp
	Category string
}

// DefaultRules is checked in order; the first match wins.
func DefaultRules() []Rule {
	return []Rule{
		{Pattern: regexp.MustCompile(`ZOMATO|SWIGGY|CAFE|RESTAURANT`), Category: "Food"},
		{Pattern: regexp.MustCompile(`UBER|OLA|TAXI`), Category: "Transport"},
		{Pattern: regexp.MustCompile(`AMAZON|FLIPKART`), Category: "Shopping"},
	}
}

type Extractor struct {
	rules []Rule
}

// NewExtractor uses DefaultRules followed by extra.
func NewExtractor(extra ...Rule) *Extractor {
	return &Extractor{rules: append(DefaultRules(), extra...)}
}

// Extract never fails. Fields that cannot be found are nil and the
// category falls back to Other.
func (e *Extractor) Extract(text string) core.ReceiptExtraction {
	lines := splitLines(text)
	out := core.ReceiptExtraction{
		Amount:   largestAmount(lines),
		Date:     firstDate(lines),
		Merchant: firstMerchant(lines),
	}
	out.Category = OtherCategory
	if out.Merchant != nil {
		out.Category = e.Categorize(*out.Merchant)
	}
	return out
}

// Categorize applies the rules to a merchant name.
func (e *Extractor) Categorize(merchant string) string {
	for _, r := range e.rules {
		if r.Pattern.MatchString(merchant) {
			return r.Category
		}
	}
	return OtherCategory
}

func splitLines(text string) []string {
	var out []string
	for _, l := range strings.Split(text, "\n") {
		if l = strings.TrimSpace(l); l != "" {
			out = append(out, l)
		}
	}
	return out
}

// The total is usually the largest figure printed on a receipt.
func largestAmount(lines []string) *decimal.Decimal {
	var best *decimal.Decimal
	for _, l := range lines {
		for _, m := range amountPattern.FindAllString(l, -1) {
			d, err := decimal.NewFromString(m)
			if err != nil {
				continue
			}
			if best == nil || d.GreaterThan(*best) {
				best = &d
			}
		}
	}
	return best
}

func firstDate(lines []string) *string {
	for _, l := range lines {
		if m := datePattern.FindStringSubmatch(l); m != nil {
			return &m[1]
		}
	}
	return nil
}

func firstMerchant(lines []string) *string {
	for _, l := range lines {
		if utf8.RuneCountInString(l) > 3 && l == strings.ToUpper(l) {
			return &l
		}
	}
	return nil
}
