package schema

import (
	"slices"

	"github.com/Veraticus/sheetbooks/internal/model"
)

// Missing returns the expected columns absent from header, in expected order.
func Missing(expected, header []string) []string {
	var missing []string
	for _, col := range expected {
		if !slices.Contains(header, col) {
			missing = append(missing, col)
		}
	}
	return missing
}

// Unknown returns the header columns that are not expected, in header order.
// An empty expected list means the table is unregistered and nothing is unknown.
func Unknown(expected, header []string) []string {
	if len(expected) == 0 {
		return nil
	}
	var unknown []string
	for _, col := range header {
		if !slices.Contains(expected, col) {
			unknown = append(unknown, col)
		}
	}
	return unknown
}

// FillMissing appends every missing expected column to the frame with an
// empty value in each row. Existing columns and their order are untouched.
func FillMissing(expected []string, frame model.Frame) model.Frame {
	missing := Missing(expected, frame.Columns)
	if len(missing) == 0 {
		return frame
	}

	frame.Columns = append(slices.Clone(frame.Columns), missing...)
	for _, rec := range frame.Records {
		for _, col := range missing {
			rec[col] = ""
		}
	}
	return frame
}

// Repair builds a frame with exactly the expected columns, in expected order,
// copying values of columns that already exist by name. Columns outside the
// expected set are not carried over; callers report them via Unknown.
func Repair(expected []string, frame model.Frame) model.Frame {
	out := model.Frame{
		Columns: slices.Clone(expected),
		Records: make([]model.Record, len(frame.Records)),
	}
	for i, rec := range frame.Records {
		repaired := make(model.Record, len(expected))
		for _, col := range expected {
			repaired[col] = rec[col]
		}
		out.Records[i] = repaired
	}
	return out
}
