package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Veraticus/sheetbooks/internal/common"
	"github.com/Veraticus/sheetbooks/internal/sheets"
)

var _ sheets.Store = (*SQLiteStore)(nil)

// ListWorksheets implements sheets.Store.
func (s *SQLiteStore) ListWorksheets(ctx context.Context) ([]sheets.Worksheet, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT w.sheet_id, w.title, COALESCE(MAX(r.row_num), 0)
		FROM worksheets w
		LEFT JOIN worksheet_rows r ON r.sheet_id = w.sheet_id
		GROUP BY w.seq, w.sheet_id, w.title
		ORDER BY w.seq
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query worksheets: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var list []sheets.Worksheet
	for rows.Next() {
		var ws sheets.Worksheet
		if err := rows.Scan(&ws.ID, &ws.Title, &ws.RowCount); err != nil {
			return nil, fmt.Errorf("failed to scan worksheet: %w", err)
		}
		list = append(list, ws)
	}
	return list, rows.Err()
}

// WorksheetByID implements sheets.Store.
func (s *SQLiteStore) WorksheetByID(ctx context.Context, id int64) (sheets.Worksheet, error) {
	ws := sheets.Worksheet{ID: id}
	err := s.db.QueryRowContext(ctx, `SELECT title FROM worksheets WHERE sheet_id = ?`, id).Scan(&ws.Title)
	if errors.Is(err, sql.ErrNoRows) {
		return sheets.Worksheet{}, fmt.Errorf("worksheet id %d: %w", id, common.ErrNotFound)
	}
	if err != nil {
		return sheets.Worksheet{}, fmt.Errorf("failed to get worksheet %d: %w", id, err)
	}
	return ws, nil
}

// WorksheetByName implements sheets.Store.
func (s *SQLiteStore) WorksheetByName(ctx context.Context, name string) (sheets.Worksheet, error) {
	ws := sheets.Worksheet{Title: name}
	err := s.db.QueryRowContext(ctx, `SELECT sheet_id FROM worksheets WHERE title = ?`, name).Scan(&ws.ID)
	if errors.Is(err, sql.ErrNoRows) {
		return sheets.Worksheet{}, fmt.Errorf("worksheet %q: %w", name, common.ErrNotFound)
	}
	if err != nil {
		return sheets.Worksheet{}, fmt.Errorf("failed to get worksheet %q: %w", name, err)
	}
	return ws, nil
}

// AddWorksheet implements sheets.Store.
func (s *SQLiteStore) AddWorksheet(ctx context.Context, title string) (sheets.Worksheet, error) {
	if err := validateString(title, "title"); err != nil {
		return sheets.Worksheet{}, err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if _, err := s.WorksheetByName(ctx, title); err == nil {
		return sheets.Worksheet{}, fmt.Errorf("worksheet %q: %w", title, common.ErrDuplicateEntry)
	}

	var nextID int64
	if err := s.db.QueryRowContext(ctx, `SELECT COALESCE(MAX(sheet_id), 0) + 1 FROM worksheets`).Scan(&nextID); err != nil {
		return sheets.Worksheet{}, fmt.Errorf("failed to allocate worksheet id: %w", err)
	}
	return s.insertWorksheet(ctx, nextID, title)
}

// AddWorksheetWithID creates a worksheet under a caller-chosen id, so a local
// database can mirror the remote spreadsheet's stable ids.
func (s *SQLiteStore) AddWorksheetWithID(ctx context.Context, id int64, title string) (sheets.Worksheet, error) {
	if err := validateString(title, "title"); err != nil {
		return sheets.Worksheet{}, err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if _, err := s.WorksheetByID(ctx, id); err == nil {
		return sheets.Worksheet{}, fmt.Errorf("worksheet id %d: %w", id, common.ErrDuplicateEntry)
	}
	if _, err := s.WorksheetByName(ctx, title); err == nil {
		return sheets.Worksheet{}, fmt.Errorf("worksheet %q: %w", title, common.ErrDuplicateEntry)
	}
	return s.insertWorksheet(ctx, id, title)
}

func (s *SQLiteStore) insertWorksheet(ctx context.Context, id int64, title string) (sheets.Worksheet, error) {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO worksheets (sheet_id, title, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
	`, id, title)
	if err != nil {
		return sheets.Worksheet{}, fmt.Errorf("failed to create worksheet %q: %w", title, err)
	}
	return sheets.Worksheet{ID: id, Title: title}, nil
}

// ReadAll implements sheets.Store.
func (s *SQLiteStore) ReadAll(ctx context.Context, ws sheets.Worksheet) ([][]string, error) {
	if _, err := s.WorksheetByID(ctx, ws.ID); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT row_num, cells FROM worksheet_rows WHERE sheet_id = ? ORDER BY row_num
	`, ws.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to read worksheet %q: %w", ws.Title, err)
	}
	defer func() { _ = rows.Close() }()

	var values [][]string
	for rows.Next() {
		var (
			rowNum int
			raw    string
		)
		if err := rows.Scan(&rowNum, &raw); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		cells, err := decodeCells(raw)
		if err != nil {
			return nil, fmt.Errorf("row %d of %q: %w", rowNum, ws.Title, err)
		}
		for len(values) < rowNum-1 {
			values = append(values, []string{})
		}
		values = append(values, cells)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return usedRange(values), nil
}

// UpdateRange implements sheets.Store.
func (s *SQLiteStore) UpdateRange(ctx context.Context, ws sheets.Worksheet, startRow int, values [][]string) error {
	if err := validateRow(startRow, "startRow"); err != nil {
		return err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	return s.withTx(ctx, ws, func(tx *sql.Tx) error {
		for i, row := range values {
			rowNum := startRow + i
			existing, err := rowCells(ctx, tx, ws.ID, rowNum)
			if err != nil {
				return err
			}
			if len(existing) < len(row) {
				existing = append(existing, make([]string, len(row)-len(existing))...)
			}
			copy(existing, row)
			if err := putRow(ctx, tx, ws.ID, rowNum, existing); err != nil {
				return err
			}
		}
		return nil
	})
}

// AppendRow implements sheets.Store.
func (s *SQLiteStore) AppendRow(ctx context.Context, ws sheets.Worksheet, row []string) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	return s.withTx(ctx, ws, func(tx *sql.Tx) error {
		last, err := lastUsedRow(ctx, tx, ws.ID)
		if err != nil {
			return err
		}
		return putRow(ctx, tx, ws.ID, last+1, row)
	})
}

// Clear implements sheets.Store.
func (s *SQLiteStore) Clear(ctx context.Context, ws sheets.Worksheet) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	return s.withTx(ctx, ws, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `DELETE FROM worksheet_rows WHERE sheet_id = ?`, ws.ID)
		return err
	})
}

// DeleteRows implements sheets.Store.
func (s *SQLiteStore) DeleteRows(ctx context.Context, ws sheets.Worksheet, startRow, count int) error {
	if err := validateRow(startRow, "startRow"); err != nil {
		return err
	}
	if count <= 0 {
		return nil
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	end := startRow + count
	return s.withTx(ctx, ws, func(tx *sql.Tx) error {
		queries := []struct {
			query string
			args  []any
		}{
			{`DELETE FROM worksheet_rows WHERE sheet_id = ? AND row_num >= ? AND row_num < ?`, []any{ws.ID, startRow, end}},
			// Shift through negative numbers so the primary key never collides mid-update.
			{`UPDATE worksheet_rows SET row_num = -(row_num - ?) WHERE sheet_id = ? AND row_num >= ?`, []any{count, ws.ID, end}},
			{`UPDATE worksheet_rows SET row_num = -row_num WHERE sheet_id = ? AND row_num < 0`, []any{ws.ID}},
		}
		for _, q := range queries {
			if _, err := tx.ExecContext(ctx, q.query, q.args...); err != nil {
				return fmt.Errorf("failed to delete rows: %w", err)
			}
		}
		return nil
	})
}

// withTx runs fn in a transaction after checking the worksheet exists, and
// stamps the worksheet's modification time on success.
func (s *SQLiteStore) withTx(ctx context.Context, ws sheets.Worksheet, fn func(*sql.Tx) error) error {
	if _, err := s.WorksheetByID(ctx, ws.ID); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}

	if _, err := tx.ExecContext(ctx, `UPDATE worksheets SET updated_at = CURRENT_TIMESTAMP WHERE sheet_id = ?`, ws.ID); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("failed to touch worksheet: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func rowCells(ctx context.Context, tx *sql.Tx, sheetID int64, rowNum int) ([]string, error) {
	var raw string
	err := tx.QueryRowContext(ctx, `SELECT cells FROM worksheet_rows WHERE sheet_id = ? AND row_num = ?`, sheetID, rowNum).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read row %d: %w", rowNum, err)
	}
	return decodeCells(raw)
}

func putRow(ctx context.Context, tx *sql.Tx, sheetID int64, rowNum int, cells []string) error {
	raw, err := json.Marshal(cells)
	if err != nil {
		return fmt.Errorf("failed to encode row %d: %w", rowNum, err)
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO worksheet_rows (sheet_id, row_num, cells) VALUES (?, ?, ?)
		ON CONFLICT(sheet_id, row_num) DO UPDATE SET cells = excluded.cells
	`, sheetID, rowNum, string(raw))
	if err != nil {
		return fmt.Errorf("failed to write row %d: %w", rowNum, err)
	}
	return nil
}

// lastUsedRow returns the highest row number holding a non-empty cell.
func lastUsedRow(ctx context.Context, tx *sql.Tx, sheetID int64) (int, error) {
	rows, err := tx.QueryContext(ctx, `
		SELECT row_num, cells FROM worksheet_rows WHERE sheet_id = ? ORDER BY row_num DESC
	`, sheetID)
	if err != nil {
		return 0, fmt.Errorf("failed to scan rows: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var (
			rowNum int
			raw    string
		)
		if err := rows.Scan(&rowNum, &raw); err != nil {
			return 0, err
		}
		cells, err := decodeCells(raw)
		if err != nil {
			return 0, err
		}
		for _, c := range cells {
			if c != "" {
				return rowNum, nil
			}
		}
	}
	return 0, rows.Err()
}

func decodeCells(raw string) ([]string, error) {
	var cells []string
	if err := json.Unmarshal([]byte(raw), &cells); err != nil {
		return nil, fmt.Errorf("corrupt row cells: %w", err)
	}
	return cells, nil
}

// usedRange drops trailing empty cells and trailing empty rows, matching how
// the remote store reports values.
func usedRange(rows [][]string) [][]string {
	out := make([][]string, 0, len(rows))
	for _, row := range rows {
		end := len(row)
		for end > 0 && row[end-1] == "" {
			end--
		}
		out = append(out, row[:end])
	}
	for len(out) > 0 && len(out[len(out)-1]) == 0 {
		out = out[:len(out)-1]
	}
	return out
}
