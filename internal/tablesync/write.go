package tablesync

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sort"

	"github.com/Veraticus/sheetbooks/internal/backup"
	"github.com/Veraticus/sheetbooks/internal/codec"
	"github.com/Veraticus/sheetbooks/internal/model"
	"github.com/Veraticus/sheetbooks/internal/schema"
	"github.com/Veraticus/sheetbooks/internal/sheets"
)

// WriteReplace rewrites the whole of table with rows. The live header is
// kept when it already matches the expected columns and rewritten otherwise.
// The body goes out as one bulk range write; if it fails, the contents read
// just before the write are put back and the error is returned. An empty
// rows slice is a successful no-op. The cache entry is dropped only on
// success.
func (s *SyncContext) WriteReplace(ctx context.Context, table string, rows []model.Values) error {
	if len(rows) == 0 {
		return nil
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.replace(ctx, table, nil, rows)
}

// replace writes rows under columns (or the columns derived for table when
// nil). Callers hold writeMu.
func (s *SyncContext) replace(ctx context.Context, table string, columns []string, rows []model.Values) error {
	store, ws, err := s.target(ctx, table)
	if err != nil {
		return opError("write", table, err)
	}

	snapshot, err := store.ReadAll(ctx, ws)
	if err != nil {
		s.forgetOnMiss(table, err)
		return opError("write", table, fmt.Errorf("taking pre-write snapshot: %w", err))
	}

	live := headerOf(snapshot)
	if columns == nil {
		columns = s.columnsFor(table, live, rows)
	}

	var dropped []string
	if len(live) > 0 {
		dropped = schema.Unknown(columns, nonBlank(live))
	}
	dropped = appendUnique(dropped, unknownKeys(columns, rows))

	body := make([][]string, len(rows))
	for i, row := range rows {
		body[i] = codec.ToWire(row, columns)
	}

	startRow := 2
	values := body
	if !slices.Equal(live, columns) {
		startRow = 1
		values = append([][]string{columns}, body...)
		s.snapshotDrift(table, snapshot)
		s.logger.Warn("Rewriting table header",
			"table", table,
			"live_header", live,
			"columns", columns)
	}
	if len(dropped) > 0 {
		s.logger.Warn("Schema drift: dropping unknown columns on write",
			"table", table,
			"dropped", dropped)
	}

	if err := s.apply(ctx, store, ws, startRow, values, snapshot); err != nil {
		if restoreErr := s.restore(context.WithoutCancel(ctx), store, ws, snapshot); restoreErr != nil {
			s.logger.Error("Failed to restore table after failed write",
				"table", table,
				"error", restoreErr)
			err = errors.Join(err, fmt.Errorf("restoring snapshot: %w", restoreErr))
		}
		s.forgetOnMiss(table, err)
		return opError("write", table, err)
	}

	s.cache.Invalidate(table)
	s.logger.Debug("Replaced table", "table", table, "rows", len(rows))
	return nil
}

// apply writes values starting at startRow, blanking cells of the previous
// contents that the new block does not cover and trimming leftover rows.
func (s *SyncContext) apply(ctx context.Context, store sheets.Store, ws sheets.Worksheet, startRow int, values [][]string, previous [][]string) error {
	width := max(widest(values), widest(previous))
	padded := make([][]string, len(values))
	for i, row := range values {
		padded[i] = padRow(row, width)
	}

	if len(padded) > 0 {
		if err := store.UpdateRange(ctx, ws, startRow, padded); err != nil {
			return err
		}
	}

	lastRow := startRow - 1 + len(padded)
	if leftover := len(previous) - max(lastRow, 1); leftover > 0 {
		if err := store.DeleteRows(ctx, ws, max(lastRow, 1)+1, leftover); err != nil {
			return err
		}
	}
	return nil
}

// restore puts a worksheet back to the rows captured before a write.
func (s *SyncContext) restore(ctx context.Context, store sheets.Store, ws sheets.Worksheet, snapshot [][]string) error {
	if err := store.Clear(ctx, ws); err != nil {
		return err
	}
	if len(snapshot) == 0 {
		return nil
	}
	return store.UpdateRange(ctx, ws, 1, snapshot)
}

func (s *SyncContext) snapshotDrift(table string, snapshot [][]string) {
	if s.driftDir == "" || len(snapshot) == 0 {
		return
	}
	path, err := backup.WriteDriftCSV(s.driftDir, table, snapshot, s.now())
	if err != nil {
		s.logger.Warn("Failed to save table before header rewrite", "table", table, "error", err)
		return
	}
	s.logger.Info("Saved table before header rewrite", "table", table, "path", path)
}

// columnsFor picks the column order for a write: the registry's for known
// tables, otherwise the live header extended by any new keys in sorted order.
func (s *SyncContext) columnsFor(table string, live []string, rows []model.Values) []string {
	if expected := s.registry.Columns(table); len(expected) > 0 {
		return expected
	}
	columns := nonBlank(live)
	return append(columns, unknownKeys(columns, rows)...)
}

// Append adds one row at the end of table, serialized against the live
// header order so hand-reordered worksheets stay aligned. An entirely empty
// worksheet first receives a header: the expected columns, or the record's
// keys in sorted order for unregistered tables.
func (s *SyncContext) Append(ctx context.Context, table string, values model.Values) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	store, ws, err := s.target(ctx, table)
	if err != nil {
		return opError("append", table, err)
	}

	rows, err := store.ReadAll(ctx, ws)
	if err != nil {
		s.forgetOnMiss(table, err)
		return opError("append", table, fmt.Errorf("reading header: %w", err))
	}

	header := headerOf(rows)
	if len(header) == 0 {
		columns := s.registry.Columns(table)
		if len(columns) == 0 {
			columns = unknownKeys(nil, []model.Values{values})
		}
		err = store.UpdateRange(ctx, ws, 1, [][]string{columns, codec.ToWire(values, columns)})
	} else {
		if missing := schema.Missing(s.registry.Columns(table), header); len(missing) > 0 {
			s.logger.Warn("Appending to a table with missing columns", "table", table, "missing", missing)
		}
		if extra := unknownKeys(header, []model.Values{values}); len(extra) > 0 {
			s.logger.Warn("Schema drift: values for columns absent from the header were dropped",
				"table", table,
				"dropped", extra)
		}
		err = store.AppendRow(ctx, ws, codec.ToWire(values, header))
	}
	if err != nil {
		s.forgetOnMiss(table, err)
		return opError("append", table, err)
	}

	s.cache.Invalidate(table)
	return nil
}

// Delete removes the rows at the given zero-based indices of the cached
// frame and rewrites the table with the remainder. Indices that do not exist
// are ignored; deleting nothing is a successful no-op.
func (s *SyncContext) Delete(ctx context.Context, table string, indices []int) error {
	frame, err := s.Read(ctx, table, false)
	if err != nil {
		return err
	}

	drop := make(map[int]bool, len(indices))
	for _, i := range indices {
		drop[i] = true
	}

	keep := make([]model.Values, 0, frame.Len())
	for i, rec := range frame.Records {
		if !drop[i] {
			keep = append(keep, rec.Values())
		}
	}
	if len(keep) == frame.Len() {
		return nil
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.replace(ctx, table, nil, keep)
}

// unknownKeys returns the keys of rows absent from columns, sorted.
func unknownKeys(columns []string, rows []model.Values) []string {
	seen := make(map[string]bool)
	var keys []string
	for _, row := range rows {
		for k := range row {
			if k == "" || seen[k] || slices.Contains(columns, k) {
				continue
			}
			seen[k] = true
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

func appendUnique(dst, src []string) []string {
	for _, v := range src {
		if !slices.Contains(dst, v) {
			dst = append(dst, v)
		}
	}
	return dst
}

func nonBlank(header []string) []string {
	out := make([]string, 0, len(header))
	for _, name := range header {
		if name != "" {
			out = append(out, name)
		}
	}
	return out
}

func widest(rows [][]string) int {
	width := 0
	for _, row := range rows {
		width = max(width, len(row))
	}
	return width
}

func padRow(row []string, width int) []string {
	if len(row) >= width {
		return row
	}
	out := make([]string, width)
	copy(out, row)
	return out
}
