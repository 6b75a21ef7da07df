// Package codec converts row values to and from the string-only wire form
// stored in the remote spreadsheet.
package codec

import (
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the persisted date format (DD/MM/YYYY).
const DateLayout = "02/01/2006"

// Layouts tried after DateLayout when parsing hand-entered dates.
var fallbackLayouts = []string{
	"2006-01-02",
	"02-01-2006",
	"01/02/2006",
	"2006/01/02",
}

// ToWire serializes values into exactly one string per column, in column
// order. Columns absent from values become "".
func ToWire(values map[string]any, columns []string) []string {
	row := make([]string, len(columns))
	for i, col := range columns {
		row[i] = FormatValue(values[col])
	}
	return row
}

// FromWire zips a wire row with its header. Missing trailing cells become ""
// and cells beyond the header are ignored.
func FromWire(row []string, columns []string) map[string]string {
	record := make(map[string]string, len(columns))
	for i, col := range columns {
		if i < len(row) {
			record[col] = row[i]
		} else {
			record[col] = ""
		}
	}
	return record
}

// FormatValue converts a single value to its wire string. It never fails:
// anything it does not recognize goes through fmt.Sprint.
func FormatValue(v any) string {
	if v == nil {
		return ""
	}

	switch x := v.(type) {
	case string:
		return x
	case time.Time:
		return FormatDate(x)
	case decimal.Decimal:
		return x.String()
	case decimal.NullDecimal:
		if !x.Valid {
			return ""
		}
		return x.Decimal.String()
	case float64:
		return formatFloat(x, 64)
	case float32:
		return formatFloat(float64(x), 32)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case int32:
		return strconv.FormatInt(int64(x), 10)
	case uint:
		return strconv.FormatUint(uint64(x), 10)
	case uint64:
		return strconv.FormatUint(x, 10)
	case bool:
		return strconv.FormatBool(x)
	case []byte:
		return string(x)
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return ""
		}
		return FormatValue(rv.Elem().Interface())
	}

	if s, ok := v.(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprint(v)
}

// formatFloat keeps non-finite values visible rather
// than collapsing them into the empty cell that means absent.
func formatFloat(f float64, bits int) string {
	switch {
	case math.IsNaN(f):
		return "nan"
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	}
	return strconv.FormatFloat(f, 'f', -1, bits)
}

// FormatDate renders t as DD/MM/YYYY; the zero time renders as "".
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(DateLayout)
}

// ParseDate parses a persisted date. Empty or unparseable input reports false.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(DateLayout, s); err == nil {
		return t, true
	}
	for _, layout := range fallbackLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ParseDecimal parses a monetary or area value. Plain decimal strings are
// tried first; hand-typed Brazilian formats ("R$ 1.234,56") are accepted as
// a fallback.
func ParseDecimal(s string) (decimal.Decimal, bool) {
	s = strings.TrimSpace(s)
	s = strings.TrimSpace(strings.TrimPrefix(s, "R$"))
	if s == "" {
		return decimal.Zero, false
	}
	if d, err := decimal.NewFromString(s); err == nil {
		return d, true
	}
	if strings.Contains(s, ",") {
		normalized := strings.ReplaceAll(strings.ReplaceAll(s, ".", ""), ",", ".")
		if d, err := decimal.NewFromString(normalized); err == nil {
			return d, true
		}
	}
	return decimal.Zero, false
}

// ParseNullDecimal is ParseDecimal returning an invalid NullDecimal on failure.
func ParseNullDecimal(s string) decimal.NullDecimal {
	d, ok := ParseDecimal(s)
	return decimal.NullDecimal{Decimal: d, Valid: ok}
}

// ParseInt parses a whole number, tolerating a trailing ".0" left by
// spreadsheet number formatting.
func ParseInt(s string) (int, bool) {
	d, ok := ParseDecimal(s)
	if !ok || !d.IsInteger() {
		return 0, false
	}
	return int(d.IntPart()), true
}
