package schema

import (
	"testing"

	"github.com/Veraticus/sheetbooks/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultRegistry(t *testing.T) {
	r := DefaultRegistry()

	assert.Equal(t, []string{
		model.TableRevenues, model.TableExpenses, model.TableProjects, model.TableClients,
		model.TableEmployees, model.TableRevenueCategories, model.TableExpenseCategories, model.TableSuppliers,
	}, r.Names())

	assert.Equal(t, model.RevenueColumns, r.Columns(model.TableRevenues))
	assert.Nil(t, r.Columns("Desconhecida"))

	revenues, ok := r.Lookup(model.TableRevenues)
	require.True(t, ok)
	id, ok := revenues.StableID()
	require.True(t, ok)
	assert.Equal(t, int64(0), id)

	suppliers, ok := r.Lookup(model.TableSuppliers)
	require.True(t, ok)
	assert.Equal(t, []model.Values{{model.ColSupplier: "Outros"}}, suppliers.Seed)
}

func TestRegistry_ColumnsIsACopy(t *testing.T) {
	r := NewRegistry(Table{Name: "T", Columns: []string{"A", "B"}})
	cols := r.Columns("T")
	cols[0] = "Z"
	assert.Equal(t, []string{"A", "B"}, r.Columns("T"))
}

func TestRegistry_RegisterReplaces(t *testing.T) {
	r := NewRegistry(Table{Name: "T", Columns: []string{"A"}})
	r.Register(Table{Name: "T", GID: "12", Columns: []string{"A", "B"}})

	assert.Equal(t, []string{"T"}, r.Names())
	assert.Equal(t, []string{"A", "B"}, r.Columns("T"))
}

func TestTable_StableID(t *testing.T) {
	tests := []struct {
		gid  string
		want int64
		ok   bool
	}{
		{gid: "0", want: 0, ok: true},
		{gid: "2095402559", want: 2095402559, ok: true},
		{gid: "", ok: false},
		{gid: "abc", ok: false},
	}
	for _, tt := range tests {
		id, ok := Table{GID: tt.gid}.StableID()
		assert.Equal(t, tt.ok, ok, tt.gid)
		assert.Equal(t, tt.want, id, tt.gid)
	}
}

func TestMissingAndUnknown(t *testing.T) {
	expected := []string{"A", "B", "C"}

	assert.Equal(t, []string{"B"}, Missing(expected, []string{"C", "A"}))
	assert.Empty(t, Missing(expected, []string{"C", "B", "A", "X"}))
	assert.Equal(t, []string{"X"}, Unknown(expected, []string{"A", "X", "B"}))
	assert.Nil(t, Unknown(nil, []string{"anything"}))

	r := NewRegistry(Table{Name: "T", Columns: expected})
	assert.False(t, r.Conforms("T", []string{"A", "C"}))
	assert.True(t, r.Conforms("T", []string{"C", "B", "A"}))
	assert.True(t, r.Conforms("unregistered", nil))
}

func TestRepair(t *testing.T) {
	frame := model.Frame{
		Columns: []string{"A", "C", "X"},
		Records: []model.Record{
			{"A": "a1", "C": "c1", "X": "x1"},
			{"A": "a2", "C": "c2", "X": "x2"},
		},
	}

	repaired := Repair([]string{"A", "B", "C"}, frame)

	assert.Equal(t, []string{"A", "B", "C"}, repaired.Columns)
	assert.Equal(t, []model.Record{
		{"A": "a1", "B": "", "C": "c1"},
		{"A": "a2", "B": "", "C": "c2"},
	}, repaired.Records)
	// Source frame is not modified.
	assert.Equal(t, "x1", frame.Records[0]["X"])
}

func TestFillMissing(t *testing.T) {
	frame := model.Frame{
		Columns: []string{"C", "A"},
		Records: []model.Record{{"C": "c", "A": "a"}},
	}

	filled := FillMissing([]string{"A", "B", "C"}, frame)

	assert.Equal(t, []string{"C", "A", "B"}, filled.Columns)
	assert.Equal(t, model.Record{"C": "c", "A": "a", "B": ""}, filled.Records[0])
}
