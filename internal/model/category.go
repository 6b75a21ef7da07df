package model

// CategoryType indicates whether a category applies to revenues or expenses.
type CategoryType string

const (
	// CategoryTypeRevenue represents categories for revenue rows.
	CategoryTypeRevenue CategoryType = "revenue"
	// CategoryTypeExpense represents categories for expense rows.
	CategoryTypeExpense CategoryType = "expense"
)

// Table returns the controlled-vocabulary table holding categories of this type.
func (t CategoryType) Table() string {
	if t == CategoryTypeRevenue {
		return TableRevenueCategories
	}
	return TableExpenseCategories
}

// Category is a row of Categorias_Receitas or Categorias_Despesas.
type Category struct {
	Name string
	Type CategoryType
}

// Values implements the serializer input for a category row.
func (c Category) Values() Values {
	return Values{ColCategory: c.Name}
}

// Supplier is a row of Fornecedor_Despesas.
type Supplier struct {
	Name string
}

// Values implements the serializer input for a supplier row.
func (s Supplier) Values() Values {
	return Values{ColSupplier: s.Name}
}

// Valuer is implemented by every typed record.
type Valuer interface {
	Values() Values
}
