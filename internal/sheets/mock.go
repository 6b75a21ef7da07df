package sheets

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/Veraticus/sheetbooks/internal/common"
)

// Operation names reported to a MemoryStore fault hook.
const (
	OpList     = "list"
	OpByID     = "by_id"
	OpByName   = "by_name"
	OpRead     = "read"
	OpUpdate   = "update"
	OpAppend   = "append"
	OpClear    = "clear"
	OpDelete   = "delete"
	OpAddSheet = "add_sheet"
)

// FaultFunc decides whether the call-th invocation (1-based) of op fails.
type FaultFunc func(op string, call int) error

type memSheet struct {
	rows [][]string
	ws   Worksheet
}

// MemoryStore is an in-process Store for tests and offline demos.
type MemoryStore struct {
	calls  map[string]int
	fault  FaultFunc
	sheets []*memSheet
	nextID int64
	mu     sync.Mutex
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		calls:  make(map[string]int),
		nextID: 1000,
	}
}

// Seed adds a worksheet with the given id, title and rows.
func (m *MemoryStore) Seed(id int64, title string, rows ...[]string) Worksheet {
	m.mu.Lock()
	defer m.mu.Unlock()

	sheet := &memSheet{ws: Worksheet{ID: id, Title: title}, rows: cloneRows(rows)}
	m.sheets = append(m.sheets, sheet)
	if id >= m.nextID {
		m.nextID = id + 1
	}
	return sheet.ws
}

// Rows returns the used range of the titled worksheet.
func (m *MemoryStore) Rows(title string) [][]string {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, s := range m.sheets {
		if s.ws.Title == title {
			return usedRange(s.rows)
		}
	}
	return nil
}

// Rename changes a worksheet's title, keeping its id.
func (m *MemoryStore) Rename(id int64, title string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, s := range m.sheets {
		if s.ws.ID == id {
			s.ws.Title = title
		}
	}
}

// SetFault installs a fault hook. Nil removes it.
func (m *MemoryStore) SetFault(fault FaultFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fault = fault
}

// Calls returns how many times op was invoked.
func (m *MemoryStore) Calls(op string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[op]
}

// FailAlways returns a FaultFunc failing every call of op.
func FailAlways(op string, err error) FaultFunc {
	return func(gotOp string, _ int) error {
		if gotOp == op {
			return err
		}
		return nil
	}
}

// FailFrom returns a FaultFunc failing op from its nth call onwards.
func FailFrom(op string, n int, err error) FaultFunc {
	return func(gotOp string, call int) error {
		if gotOp == op && call >= n {
			return err
		}
		return nil
	}
}

// enter records a call and consults the fault hook. Callers hold m.mu.
func (m *MemoryStore) enter(op string) error {
	m.calls[op]++
	if m.fault != nil {
		return m.fault(op, m.calls[op])
	}
	return nil
}

func (m *MemoryStore) sheet(ws Worksheet) (*memSheet, error) {
	for _, s := range m.sheets {
		if s.ws.ID == ws.ID {
			return s, nil
		}
	}
	return nil, fmt.Errorf("worksheet id %d: %w", ws.ID, common.ErrNotFound)
}

// ListWorksheets implements Store.
func (m *MemoryStore) ListWorksheets(_ context.Context) ([]Worksheet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.enter(OpList); err != nil {
		return nil, err
	}
	list := make([]Worksheet, len(m.sheets))
	for i, s := range m.sheets {
		list[i] = s.ws
	}
	return list, nil
}

// WorksheetByID implements Store.
func (m *MemoryStore) WorksheetByID(_ context.Context, id int64) (Worksheet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.enter(OpByID); err != nil {
		return Worksheet{}, err
	}
	s, err := m.sheet(Worksheet{ID: id})
	if err != nil {
		return Worksheet{}, err
	}
	return s.ws, nil
}

// WorksheetByName implements Store.
func (m *MemoryStore) WorksheetByName(_ context.Context, name string) (Worksheet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.enter(OpByName); err != nil {
		return Worksheet{}, err
	}
	for _, s := range m.sheets {
		if s.ws.Title == name {
			return s.ws, nil
		}
	}
	return Worksheet{}, fmt.Errorf("worksheet %q: %w", name, common.ErrNotFound)
}

// ReadAll implements Store.
func (m *MemoryStore) ReadAll(_ context.Context, ws Worksheet) ([][]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.enter(OpRead); err != nil {
		return nil, err
	}
	s, err := m.sheet(ws)
	if err != nil {
		return nil, err
	}
	return usedRange(s.rows), nil
}

// UpdateRange implements Store.
func (m *MemoryStore) UpdateRange(_ context.Context, ws Worksheet, startRow int, values [][]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.enter(OpUpdate); err != nil {
		return err
	}
	if startRow < 1 {
		return fmt.Errorf("invalid start row %d", startRow)
	}
	s, err := m.sheet(ws)
	if err != nil {
		return err
	}

	for i, row := range values {
		idx := startRow - 1 + i
		for len(s.rows) <= idx {
			s.rows = append(s.rows, nil)
		}
		target := s.rows[idx]
		if len(target) < len(row) {
			target = append(target, make([]string, len(row)-len(target))...)
		}
		copy(target, row)
		s.rows[idx] = target
	}
	return nil
}

// AppendRow implements Store.
func (m *MemoryStore) AppendRow(_ context.Context, ws Worksheet, row []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.enter(OpAppend); err != nil {
		return err
	}
	s, err := m.sheet(ws)
	if err != nil {
		return err
	}
	s.rows = append(usedRange(s.rows), slices.Clone(row))
	return nil
}

// Clear implements Store.
func (m *MemoryStore) Clear(_ context.Context, ws Worksheet) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.enter(OpClear); err != nil {
		return err
	}
	s, err := m.sheet(ws)
	if err != nil {
		return err
	}
	s.rows = nil
	return nil
}

// DeleteRows implements Store.
func (m *MemoryStore) DeleteRows(_ context.Context, ws Worksheet, startRow, count int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.enter(OpDelete); err != nil {
		return err
	}
	s, err := m.sheet(ws)
	if err != nil {
		return err
	}
	from := startRow - 1
	if from < 0 || from >= len(s.rows) || count <= 0 {
		return nil
	}
	to := min(from+count, len(s.rows))
	s.rows = slices.Delete(s.rows, from, to)
	return nil
}

// AddWorksheet implements Store.
func (m *MemoryStore) AddWorksheet(_ context.Context, title string) (Worksheet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.enter(OpAddSheet); err != nil {
		return Worksheet{}, err
	}
	for _, s := range m.sheets {
		if s.ws.Title == title {
			return Worksheet{}, fmt.Errorf("worksheet %q: %w", title, common.ErrDuplicateEntry)
		}
	}
	sheet := &memSheet{ws: Worksheet{ID: m.nextID, Title: title}}
	m.nextID++
	m.sheets = append(m.sheets, sheet)
	return sheet.ws, nil
}

// usedRange copies rows, dropping trailing empty cells and trailing empty rows
// the way the remote API reports values.
func usedRange(rows [][]string) [][]string {
	out := make([][]string, 0, len(rows))
	for _, row := range rows {
		end := len(row)
		for end > 0 && row[end-1] == "" {
			end--
		}
		out = append(out, slices.Clone(row[:end]))
	}
	for len(out) > 0 && len(out[len(out)-1]) == 0 {
		out = out[:len(out)-1]
	}
	return out
}

func cloneRows(rows [][]string) [][]string {
	out := make([][]string, len(rows))
	for i, row := range rows {
		out[i] = slices.Clone(row)
	}
	return out
}
