// Package finance holds the domain services the dashboard runs on top of the
// synced tables: installment expansion, productivity, and groupby-sum
// aggregation.
package finance

import (
	"context"
	"fmt"
	"time"

	"github.com/Veraticus/sheetbooks/internal/common"
	"github.com/Veraticus/sheetbooks/internal/model"
	"github.com/shopspring/decimal"
)

// Appender adds one row to a table.
type Appender interface {
	Append(ctx context.Context, table string, values model.Values) error
}

// ExpandInstallments splits expense into n monthly rows. Every row carries
// the total divided by n rounded to cents, with no remainder redistribution,
// so 100.00 over 3 yields three rows of 33.33. Row i is dated i months after
// the expense's date, clamped to the end of shorter months, and labeled
// "i/n" (1-based).
func ExpandInstallments(expense model.Expense, n int) ([]model.Expense, error) {
	if n < 1 {
		return nil, common.NewUserError(fmt.Sprintf("installment count must be at least 1, got %d", n), nil)
	}
	if !expense.Amount.Valid {
		return nil, common.NewUserError("expense amount is required", nil)
	}
	if expense.PaidOn.IsZero() {
		return nil, common.NewUserError("expense date is required", nil)
	}

	share := expense.Amount.Decimal.Div(decimal.NewFromInt(int64(n))).Round(2)

	rows := make([]model.Expense, n)
	for i := range n {
		row := expense
		row.PaidOn = AddMonths(expense.PaidOn, i)
		row.Amount = decimal.NewNullDecimal(share)
		row.Installment = fmt.Sprintf("%d/%d", i+1, n)
		row.Extra = cloneExtra(expense.Extra)
		rows[i] = row
	}
	return rows, nil
}

// AppendInstallments expands expense and appends every installment to the
// expenses table in order. A failure partway returns a
// *common.PartialWriteError; rows already appended stay in place.
func AppendInstallments(ctx context.Context, appender Appender, expense model.Expense, n int) ([]model.Expense, error) {
	rows, err := ExpandInstallments(expense, n)
	if err != nil {
		return nil, err
	}

	for i, row := range rows {
		if err := appender.Append(ctx, model.TableExpenses, row.Values()); err != nil {
			return rows[:i], &common.PartialWriteError{Err: err, Written: i, Total: n}
		}
	}
	return rows, nil
}

// AddMonths moves t forward by months calendar months, keeping the day of
// month where it exists and clamping to the month's last day otherwise
// (Jan 31 + 1 month is Feb 29 in a leap year).
func AddMonths(t time.Time, months int) time.Time {
	year, month, day := t.Date()
	first := time.Date(year, month+time.Month(months), 1, 0, 0, 0, 0, t.Location())
	last := first.AddDate(0, 1, -1).Day()
	hour, minute, sec := t.Clock()
	return time.Date(first.Year(), first.Month(), min(day, last), hour, minute, sec, t.Nanosecond(), t.Location())
}

func cloneExtra(extra map[string]string) map[string]string {
	if extra == nil {
		return nil
	}
	out := make(map[string]string, len(extra))
	for k, v := range extra {
		out[k] = v
	}
	return out
}
