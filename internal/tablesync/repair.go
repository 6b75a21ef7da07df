package tablesync

import (
	"context"
	"errors"
	"fmt"

	"github.com/Veraticus/sheetbooks/internal/codec"
	"github.com/Veraticus/sheetbooks/internal/common"
	"github.com/Veraticus/sheetbooks/internal/model"
	"github.com/Veraticus/sheetbooks/internal/schema"
)

// VerifyAndRepair checks that table's live header holds every expected
// column. A conforming table is left alone. An empty worksheet receives the
// expected header. Otherwise the table is rewritten with exactly the expected
// columns in registry order, carrying over the values of columns that exist
// by name. Running it twice in a row is a no-op the second time.
func (s *SyncContext) VerifyAndRepair(ctx context.Context, table string) error {
	expected := s.registry.Columns(table)
	if len(expected) == 0 {
		return fmt.Errorf("verify %s: %w: table is not registered", table, common.ErrNotFound)
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	raw, err := s.fetch(ctx, table)
	if err != nil {
		return opError("verify", table, err)
	}

	current := toFrame(raw)
	missing := schema.Missing(expected, current.Columns)
	if len(current.Columns) > 0 && len(missing) == 0 {
		return nil
	}

	s.logger.Warn("Repairing table schema", "table", table, "missing", missing)

	repaired := schema.Repair(expected, current)
	if err := s.replace(ctx, table, expected, repaired.Values()); err != nil {
		return fmt.Errorf("%w: %w", common.ErrSchemaDrift, err)
	}
	return nil
}

// VerifyAll runs VerifyAndRepair over every registered table. With create
// set, tables without a worksheet are created first. Failures are joined.
func (s *SyncContext) VerifyAll(ctx context.Context, create bool) error {
	var errs []error
	for _, table := range s.registry.Names() {
		err := s.VerifyAndRepair(ctx, table)
		if err != nil && create && errors.Is(err, common.ErrResolution) {
			if _, err = s.EnsureTable(ctx, table); err == nil {
				err = s.VerifyAndRepair(ctx, table)
			}
		}
		if err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// EnsureTable creates the worksheet for table when none resolves, writing
// the expected header and any seed rows. It reports whether it created one.
func (s *SyncContext) EnsureTable(ctx context.Context, table string) (bool, error) {
	_, _, err := s.target(ctx, table)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, common.ErrResolution) {
		return false, opError("ensure", table, err)
	}

	def := s.table(table)
	if len(def.Columns) == 0 {
		return false, fmt.Errorf("ensure %s: %w: no columns configured", table, common.ErrInvalidConfig)
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	store, err := s.connector.Connect(ctx, false)
	if err != nil {
		return false, opError("ensure", table, err)
	}

	ws, err := store.AddWorksheet(ctx, def.Name)
	if err != nil {
		return false, opError("ensure", table, err)
	}

	rows := [][]string{def.Columns}
	for _, seed := range def.Seed {
		rows = append(rows, codec.ToWire(seed, def.Columns))
	}
	if err := store.UpdateRange(ctx, ws, 1, rows); err != nil {
		return true, opError("ensure", table, fmt.Errorf("writing header: %w", err))
	}

	s.remember(table, ws)
	s.cache.Invalidate(table)
	s.logger.Info("Created table", "table", table, "worksheet_id", ws.ID, "seed_rows", len(def.Seed))
	return true, nil
}

// RepairFrame returns frame with exactly table's expected columns, without
// touching the store. Unregistered tables are returned as is.
func (s *SyncContext) RepairFrame(table string, frame model.Frame) model.Frame {
	expected := s.registry.Columns(table)
	if len(expected) == 0 {
		return frame
	}
	return schema.Repair(expected, frame)
}
