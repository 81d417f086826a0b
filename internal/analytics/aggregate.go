package analytics

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"pennywise/internal/core"
)

type (
	// Entry is the minimal expense-like record the aggregation core works
	// on. Personal expenses and group expenses both reduce to this shape.
	Entry struct {
		Amount   decimal.Decimal
		Category core.Category
		Date     time.Time
	}

	// CategoryShare is one category's slice of a Summary.
	CategoryShare struct {
		Category   core.Category   `json:"category"`
		Amount     decimal.Decimal `json:"amount"`
		Percentage float64         `json:"percentage"`
	}

	// Summary is the per-period aggregate of a set of entries.
	Summary struct {
		Total      decimal.Decimal `json:"total"`
		Count      int             `json:"count"`
		ByCategory []CategoryShare `json:"by_category"`
	}
)

// FromExpenses converts personal expenses to aggregation entries.
func FromExpenses(expenses []core.Expense) []Entry {
	entries := make([]Entry, len(expenses))
	for i, e := range expenses {
		entries[i] = Entry{Amount: e.Amount, Category: e.Category, Date: e.Date}
	}
	return entries
}

// FromGroupExpenses converts group expenses to aggregation entries.
// Only approved expenses count against pooled funds.
func FromGroupExpenses(expenses []core.GroupExpense) []Entry {
	var entries []Entry
	for _, e := range expenses {
		if e.Status != core.StatusApproved {
			continue
		}
		entries = append(entries, Entry{Amount: e.Amount, Category: e.Category, Date: e.Date})
	}
	return entries
}

// Aggregate filters entries to the period containing now, then sums them
// overall and per category.
//
// Shares are ordered by amount descending; ties keep the order in which
// the categories were first encountered in the input (stable sort), which
// makes the "top category" deterministic for identical inputs.
// Percentages are 0 when the filtered total is 0.
func Aggregate(entries []Entry, now time.Time, period core.Period) Summary {
	var filtered []Entry
	for _, e := range entries {
		if InPeriod(e.Date, now, period) {
			filtered = append(filtered, e)
		}
	}
	return Summarize(filtered)
}

// Summarize sums every entry with no period filter. Range-scoped reports
// use it once the storage query has already bounded the dates. Ordering
// and percentage rules match Aggregate.
func Summarize(entries []Entry) Summary {
	total := decimal.Zero
	count := 0
	sums := make(map[core.Category]decimal.Decimal)
	var order []core.Category

	for _, e := range entries {
		count++
		total = total.Add(e.Amount)
		if _, seen := sums[e.Category]; !seen {
			order = append(order, e.Category)
		}
		sums[e.Category] = sums[e.Category].Add(e.Amount)
	}

	shares := make([]CategoryShare, 0, len(order))
	for _, c := range order {
		shares = append(shares, CategoryShare{Category: c, Amount: sums[c]})
	}
	sort.SliceStable(shares, func(i, j int) bool {
		return shares[i].Amount.GreaterThan(shares[j].Amount)
	})
	if total.Sign() > 0 {
		for i := range shares {
			shares[i].Percentage = percentOf(shares[i].Amount, total)
		}
	}

	return Summary{Total: total, Count: count, ByCategory: shares}
}

// TopCategory returns the largest share of a summary, if any.
func (s Summary) TopCategory() (CategoryShare, bool) {
	if len(s.ByCategory) == 0 {
		return CategoryShare{}, false
	}
	return s.ByCategory[0], true
}

// percentOf returns part/whole*100 as a float for display. Callers must
// guard against a zero whole.
func percentOf(part, whole decimal.Decimal) float64 {
	f, _ := part.Div(whole).Mul(decimal.NewFromInt(100)).Round(4).Float64()
	return f
}
