package model

import (
	"time"

	"github.com/Veraticus/sheetbooks/internal/codec"
	"github.com/shopspring/decimal"
)

// Revenue is a row of the Receitas table.
type Revenue struct {
	ReceivedOn    time.Time
	Amount        decimal.NullDecimal
	Extra         map[string]string
	Description   string
	Project       string
	Category      string
	PaymentMethod string
	Invoice       string
}

// Values implements the serializer input for a revenue row.
func (r Revenue) Values() Values {
	v := extraValues(r.Extra)
	v[ColReceivedOn] = r.ReceivedOn
	v[ColDescription] = r.Description
	v[ColProject] = r.Project
	v[ColCategory] = r.Category
	v[ColTotal] = r.Amount
	v[ColPaymentMethod] = r.PaymentMethod
	v[ColInvoice] = r.Invoice
	return v
}

// RevenueFromRecord parses a wire record. Unparseable dates and amounts
// become absent values.
func RevenueFromRecord(rec Record) Revenue {
	received, _ := codec.ParseDate(rec[ColReceivedOn])
	return Revenue{
		ReceivedOn:    received,
		Description:   rec[ColDescription],
		Project:       rec[ColProject],
		Category:      rec[ColCategory],
		Amount:        codec.ParseNullDecimal(rec[ColTotal]),
		PaymentMethod: rec[ColPaymentMethod],
		Invoice:       rec[ColInvoice],
		Extra:         extraColumns(rec, RevenueColumns),
	}
}

// Expense is a row of the Despesas table.
type Expense struct {
	PaidOn        time.Time
	Amount        decimal.NullDecimal
	Extra         map[string]string
	Description   string
	Category      string
	Installment   string // "i/N", derived by installment expansion
	PaymentMethod string
	Responsible   string
	Supplier      string
	Project       string
	Invoice       string
}

// Values implements the serializer input for an expense row.
func (e Expense) Values() Values {
	v := extraValues(e.Extra)
	v[ColPaidOn] = e.PaidOn
	v[ColDescription] = e.Description
	v[ColCategory] = e.Category
	v[ColTotal] = e.Amount
	v[ColInstallments] = e.Installment
	v[ColPaymentMethod] = e.PaymentMethod
	v[ColResponsible] = e.Responsible
	v[ColSupplier] = e.Supplier
	v[ColProject] = e.Project
	v[ColInvoice] = e.Invoice
	return v
}

// ExpenseFromRecord parses a wire record.
func ExpenseFromRecord(rec Record) Expense {
	paid, _ := codec.ParseDate(rec[ColPaidOn])
	return Expense{
		PaidOn:        paid,
		Description:   rec[ColDescription],
		Category:      rec[ColCategory],
		Amount:        codec.ParseNullDecimal(rec[ColTotal]),
		Installment:   rec[ColInstallments],
		PaymentMethod: rec[ColPaymentMethod],
		Responsible:   rec[ColResponsible],
		Supplier:      rec[ColSupplier],
		Project:       rec[ColProject],
		Invoice:       rec[ColInvoice],
		Extra:         extraColumns(rec, ExpenseColumns),
	}
}

func extraValues(extra map[string]string) Values {
	v := make(Values, len(extra)+8)
	for k, s := range extra {
		v[k] = s
	}
	return v
}

func extraColumns(rec Record, known []string) map[string]string {
	var extra map[string]string
	for k, v := range rec {
		if contains(known, k) {
			continue
		}
		if extra == nil {
			extra = make(map[string]string)
		}
		extra[k] = v
	}
	return extra
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
