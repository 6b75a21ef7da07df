package tablesync

import (
	"context"

	"github.com/Veraticus/sheetbooks/internal/codec"
	"github.com/Veraticus/sheetbooks/internal/model"
	"github.com/Veraticus/sheetbooks/internal/schema"
)

// Read returns the contents of table, from the cache unless force is set.
// Missing expected columns are filled with empty values. On failure Read
// still returns a usable empty frame with the expected columns, together
// with the error to surface as a warning; nothing is cached in that case.
// A fetch that overlapped a write is returned but not cached.
func (s *SyncContext) Read(ctx context.Context, table string, force bool) (model.Frame, error) {
	if !force {
		if frame, ok := s.cache.Get(table); ok {
			return frame, nil
		}
	}

	gen := s.cache.Generation(table)
	expected := s.registry.Columns(table)
	raw, err := s.fetch(ctx, table)
	if err != nil {
		s.logger.Warn("Failed to read table", "table", table, "error", err)
		return model.NewFrame(expected), opError("read", table, err)
	}

	frame := schema.FillMissing(expected, toFrame(raw))
	if !s.cache.PutIfGeneration(table, frame, gen) {
		s.logger.Debug("Discarding read that overlapped a write", "table", table)
	}
	return frame, nil
}

// fetch reads the raw rows of table, header first.
func (s *SyncContext) fetch(ctx context.Context, table string) ([][]string, error) {
	store, ws, err := s.target(ctx, table)
	if err != nil {
		return nil, err
	}
	rows, err := store.ReadAll(ctx, ws)
	if err != nil {
		s.forgetOnMiss(table, err)
		return nil, err
	}
	return rows, nil
}

// toFrame zips raw rows into records keyed by the header row. Blank header
// cells carry no column.
func toFrame(rows [][]string) model.Frame {
	if len(rows) == 0 {
		return model.Frame{}
	}

	header := rows[0]
	var columns []string
	for _, name := range header {
		if name != "" {
			columns = append(columns, name)
		}
	}

	out := model.Frame{Columns: columns}
	for _, row := range rows[1:] {
		rec := model.Record(codec.FromWire(row, header))
		delete(rec, "")
		out.Records = append(out.Records, rec)
	}
	return out
}

// headerOf returns the live header row, or nil for an empty worksheet.
func headerOf(rows [][]string) []string {
	if len(rows) == 0 {
		return nil
	}
	return rows[0]
}
