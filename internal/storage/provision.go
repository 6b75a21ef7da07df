package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/Veraticus/sheetbooks/internal/codec"
	"github.com/Veraticus/sheetbooks/internal/common"
	"github.com/Veraticus/sheetbooks/internal/schema"
	"github.com/Veraticus/sheetbooks/internal/sheets"
)

// Provision creates a worksheet for every table that exists neither by id nor
// by name, keeping the table's configured id so the database mirrors the
// remote spreadsheet. New worksheets get the expected header and seed rows.
// It returns the names of the tables it created.
func (s *SQLiteStore) Provision(ctx context.Context, tables []schema.Table) ([]string, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	var created []string
	for _, table := range tables {
		exists, err := s.hasWorksheet(ctx, table)
		if err != nil {
			return created, err
		}
		if exists || len(table.Columns) == 0 {
			continue
		}

		var ws sheets.Worksheet
		if id, ok := table.StableID(); ok {
			ws, err = s.AddWorksheetWithID(ctx, id, table.Name)
		} else {
			ws, err = s.AddWorksheet(ctx, table.Name)
		}
		if err != nil {
			return created, fmt.Errorf("provision %s: %w", table.Name, err)
		}

		rows := [][]string{table.Columns}
		for _, seed := range table.Seed {
			rows = append(rows, codec.ToWire(seed, table.Columns))
		}
		if err := s.UpdateRange(ctx, ws, 1, rows); err != nil {
			return created, fmt.Errorf("provision %s: %w", table.Name, err)
		}
		created = append(created, table.Name)
	}
	return created, nil
}

func (s *SQLiteStore) hasWorksheet(ctx context.Context, table schema.Table) (bool, error) {
	if id, ok := table.StableID(); ok {
		_, err := s.WorksheetByID(ctx, id)
		if err == nil {
			return true, nil
		}
		if !errors.Is(err, common.ErrNotFound) {
			return false, err
		}
	}
	_, err := s.WorksheetByName(ctx, table.Name)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, common.ErrNotFound) {
		return false, nil
	}
	return false, err
}
