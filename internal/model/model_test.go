package model

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpenseFromRecord(t *testing.T) {
	rec := Record{
		ColPaidOn:        "10/02/2024",
		ColDescription:   "Cimento",
		ColCategory:      "Material",
		ColTotal:         "89.9",
		ColInstallments:  "1/3",
		ColPaymentMethod: "Pix",
		ColResponsible:   "Bruno",
		ColSupplier:      "Outros",
		ColProject:       "P-001",
		ColInvoice:       "Sim",
		"Observação":     "entregue",
	}

	e := ExpenseFromRecord(rec)

	assert.True(t, e.PaidOn.Equal(time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC)))
	require.True(t, e.Amount.Valid)
	assert.True(t, e.Amount.Decimal.Equal(decimal.RequireFromString("89.9")))
	assert.Equal(t, "1/3", e.Installment)
	assert.Equal(t, map[string]string{"Observação": "entregue"}, e.Extra)

	v := e.Values()
	assert.Equal(t, "entregue", v["Observação"])
	assert.Equal(t, "Bruno", v[ColResponsible])
}

func TestProjectFromRecord_Lenient(t *testing.T) {
	p := ProjectFromRecord(Record{
		ColProject:      "P-7",
		ColStartDate:    "não sei",
		ColArea:         "",
		ColInstallments: "4.0",
		ColStatus:       "Em Andamento",
	})

	assert.Equal(t, "P-7", p.ID)
	assert.True(t, p.StartDate.IsZero())
	assert.False(t, p.Area.Valid)
	require.NotNil(t, p.Installments)
	assert.Equal(t, 4, *p.Installments)
	assert.True(t, p.Status.Valid())
	assert.Nil(t, p.Extra)
}

func TestFrame(t *testing.T) {
	f := Frame{
		Columns: []string{"A", "B"},
		Records: []Record{{"A": "1", "B": "x"}, {"A": "2", "B": "y"}},
	}

	assert.Equal(t, 2, f.Len())
	assert.True(t, f.HasColumn("B"))
	assert.False(t, f.HasColumn("C"))
	assert.Equal(t, []string{"1", "2"}, f.Column("A"))

	clone := f.Clone()
	clone.Records[0]["A"] = "changed"
	assert.Equal(t, "1", f.Records[0]["A"])

	only := f.Filter(func(r Record) bool { return r["B"] == "y" })
	require.Equal(t, 1, only.Len())
	assert.Equal(t, "2", only.Records[0]["A"])
}

func TestCategoryTypeTable(t *testing.T) {
	assert.Equal(t, TableRevenueCategories, CategoryTypeRevenue.Table())
	assert.Equal(t, TableExpenseCategories, CategoryTypeExpense.Table())
}
