package backup

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

// WriteDriftCSV saves the raw contents of a worksheet (header first) to
// dir/<table>_before_<timestamp>.csv before its header is overwritten, and
// returns the written path. Nothing is written for an empty worksheet.
func WriteDriftCSV(dir, table string, rows [][]string, at time.Time) (string, error) {
	if len(rows) == 0 {
		return "", nil
	}

	records := rectangular(rows)
	df := dataframe.LoadRecords(records,
		dataframe.HasHeader(true),
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
	)
	if df.Err != nil {
		return "", fmt.Errorf("failed to build drift snapshot for %s: %w", table, df.Err)
	}

	if err := os.MkdirAll(dir, 0750); err != nil {
		return "", fmt.Errorf("failed to create drift directory: %w", err)
	}

	path := filepath.Join(dir, fmt.Sprintf("%s_before_%s.csv", table, at.Format(timestampLayout)))
	f, err := os.Create(path) // #nosec G304
	if err != nil {
		return "", fmt.Errorf("failed to create drift snapshot: %w", err)
	}
	defer func() { _ = f.Close() }()

	if err := df.WriteCSV(f); err != nil {
		return "", fmt.Errorf("failed to write drift snapshot: %w", err)
	}
	return path, nil
}

// rectangular pads every row to the widest one and gives blank or missing
// header cells a positional name.
func rectangular(rows [][]string) [][]string {
	width := 0
	for _, row := range rows {
		width = max(width, len(row))
	}

	out := make([][]string, len(rows))
	for i, row := range rows {
		padded := make([]string, width)
		copy(padded, row)
		out[i] = padded
	}

	seen := make(map[string]bool, width)
	for j, name := range out[0] {
		if name == "" || seen[name] {
			name = "col_" + strconv.Itoa(j+1)
		}
		seen[name] = true
		out[0][j] = name
	}
	return out
}
