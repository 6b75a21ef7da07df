// Package schema holds the expected column layout of every logical table and
// the helpers that detect and repair drift against it.
package schema

import (
	"slices"
	"strconv"
	"sync"

	"github.com/Veraticus/sheetbooks/internal/model"
)

// Table describes one logical table.
type Table struct {
	Name string
	// GID is the worksheet's stable id; empty when only the name is known.
	GID     string
	Columns []string
	// Seed rows are written when the table is created from scratch.
	Seed []model.Values
}

// StableID parses GID. It reports false when no usable id is configured.
func (t Table) StableID() (int64, bool) {
	if t.GID == "" {
		return 0, false
	}
	id, err := strconv.ParseInt(t.GID, 10, 64)
	if err != nil || id < 0 {
		return 0, false
	}
	return id, true
}

// Registry maps logical table names to their expected layout.
type Registry struct {
	tables map[string]Table
	order  []string
	mu     sync.RWMutex
}

// NewRegistry builds a registry from the given tables, preserving their order.
func NewRegistry(tables ...Table) *Registry {
	r := &Registry{tables: make(map[string]Table, len(tables))}
	for _, t := range tables {
		r.Register(t)
	}
	return r
}

// Register adds or replaces a table definition.
func (r *Registry) Register(t Table) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t.Columns = slices.Clone(t.Columns)
	if _, exists := r.tables[t.Name]; !exists {
		r.order = append(r.order, t.Name)
	}
	r.tables[t.Name] = t
}

// Lookup returns the definition of a table.
func (r *Registry) Lookup(name string) (Table, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tables[name]
	return t, ok
}

// Columns returns the expected columns of a table, or nil if unregistered.
func (r *Registry) Columns(name string) []string {
	t, ok := r.Lookup(name)
	if !ok {
		return nil
	}
	return slices.Clone(t.Columns)
}

// Names returns every registered table in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.order)
}

// Conforms reports whether header contains every expected column of table.
// Unregistered tables always conform.
func (r *Registry) Conforms(name string, header []string) bool {
	return len(Missing(r.Columns(name), header)) == 0
}

// DefaultRegistry returns the tables of the original deployment.
func DefaultRegistry() *Registry {
	return NewRegistry(DefaultTables()...)
}

// DefaultTables lists the built-in table definitions.
func DefaultTables() []Table {
	return []Table{
		{Name: model.TableRevenues, GID: "0", Columns: model.RevenueColumns},
		{Name: model.TableExpenses, GID: "2095402559", Columns: model.ExpenseColumns},
		{Name: model.TableProjects, GID: "1967040877", Columns: model.ProjectColumns},
		{Name: model.TableClients, GID: "1538370660", Columns: model.ClientColumns},
		{Name: model.TableEmployees, GID: "1993815508", Columns: model.EmployeeColumns},
		{
			Name:    model.TableRevenueCategories,
			GID:     "689806911",
			Columns: model.CategoryColumns,
			Seed:    vocabulary(model.ColCategory, "Pró-Labore", "Investimentos", "Freelance", "Outros"),
		},
		{
			Name:    model.TableExpenseCategories,
			GID:     "1610275753",
			Columns: model.CategoryColumns,
			Seed: vocabulary(model.ColCategory,
				"Alimentação", "Transporte", "Moradia", "Saúde", "Educação", "Lazer", "Outros"),
		},
		{
			Name:    model.TableSuppliers,
			GID:     "1183581777",
			Columns: model.SupplierColumns,
			Seed:    vocabulary(model.ColSupplier, "Outros"),
		},
	}
}

func vocabulary(column string, values ...string) []model.Values {
	rows := make([]model.Values, len(values))
	for i, v := range values {
		rows[i] = model.Values{column: v}
	}
	return rows
}
