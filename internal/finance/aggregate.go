package finance

import (
	"slices"
	"sort"
	"time"

	"github.com/Veraticus/sheetbooks/internal/codec"
	"github.com/Veraticus/sheetbooks/internal/model"
	"github.com/shopspring/decimal"
)

// Group is one bucket of an aggregation.
type Group struct {
	Key   string          `json:"key"`
	Total decimal.Decimal `json:"total"`
}

// Totals maps a group key to its summed amount.
type Totals map[string]decimal.Decimal

// Sorted returns the groups ordered by key.
func (t Totals) Sorted() []Group {
	groups := make([]Group, 0, len(t))
	for k, v := range t {
		groups = append(groups, Group{Key: k, Total: v})
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].Key < groups[j].Key })
	return groups
}

// Aggregate sums valueColumn grouped by the by column. Rows whose amount
// does not parse are left out of the sum instead of failing the whole
// aggregation; an empty group key is kept as its own bucket.
func Aggregate(frame model.Frame, by, valueColumn string) Totals {
	totals := make(Totals)
	for _, rec := range frame.Records {
		amount, ok := codec.ParseDecimal(rec[valueColumn])
		if !ok {
			continue
		}
		key := rec[by]
		totals[key] = totals[key].Add(amount)
	}
	return totals
}

// Sum totals valueColumn over frame, skipping unparseable amounts.
func Sum(frame model.Frame, valueColumn string) decimal.Decimal {
	total := decimal.Zero
	for _, rec := range frame.Records {
		if amount, ok := codec.ParseDecimal(rec[valueColumn]); ok {
			total = total.Add(amount)
		}
	}
	return total
}

// Summary holds the dashboard totals.
type Summary struct {
	Revenue decimal.Decimal `json:"revenue"`
	Expense decimal.Decimal `json:"expense"`
	Balance decimal.Decimal `json:"balance"`
}

// Summarize totals revenues and expenses and derives the balance.
func Summarize(revenues, expenses model.Frame) Summary {
	in := Sum(revenues, model.ColTotal)
	out := Sum(expenses, model.ColTotal)
	return Summary{Revenue: in, Expense: out, Balance: in.Sub(out)}
}

// Period restricts rows to the listed months and years. An empty list does
// not restrict that component.
type Period struct {
	Months []time.Month
	Years  []int
}

// IsZero reports whether the period filters nothing.
func (p Period) IsZero() bool {
	return len(p.Months) == 0 && len(p.Years) == 0
}

// Contains reports whether t falls inside the period.
func (p Period) Contains(t time.Time) bool {
	if len(p.Months) > 0 && !slices.Contains(p.Months, t.Month()) {
		return false
	}
	if len(p.Years) > 0 && !slices.Contains(p.Years, t.Year()) {
		return false
	}
	return true
}

// FilterByPeriod keeps the rows whose dateColumn falls inside period. When
// period filters anything, rows with an unparseable date are dropped.
func FilterByPeriod(frame model.Frame, dateColumn string, period Period) model.Frame {
	if period.IsZero() {
		return frame
	}
	return frame.Filter(func(rec model.Record) bool {
		t, ok := codec.ParseDate(rec[dateColumn])
		return ok && period.Contains(t)
	})
}

// MonthlySeries sums valueColumn per calendar month of dateColumn, keyed
// "YYYY-MM" and sorted chronologically. Rows with an unparseable date or
// amount are skipped.
func MonthlySeries(frame model.Frame, dateColumn, valueColumn string) []Group {
	totals := make(Totals)
	for _, rec := range frame.Records {
		t, ok := codec.ParseDate(rec[dateColumn])
		if !ok {
			continue
		}
		amount, ok := codec.ParseDecimal(rec[valueColumn])
		if !ok {
			continue
		}
		key := t.Format("2006-01")
		totals[key] = totals[key].Add(amount)
	}
	return totals.Sorted()
}
