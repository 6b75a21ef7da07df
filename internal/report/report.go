// Package report renders the financial tables into an Excel workbook.
package report

import (
	"fmt"
	"io"

	"github.com/Veraticus/sheetbooks/internal/codec"
	"github.com/Veraticus/sheetbooks/internal/finance"
	"github.com/Veraticus/sheetbooks/internal/model"
	"github.com/xuri/excelize/v2"
)

// Sheet names of the generated workbook.
const (
	SheetRevenues = "Receitas"
	SheetExpenses = "Despesas"
	SheetSummary  = "Resumo"
)

// Summary row labels.
const (
	LabelRevenue = "Receita Total"
	LabelExpense = "Despesa Total"
	LabelBalance = "Saldo"
)

// Build creates a workbook with one sheet per table and a summary sheet.
// Rows are limited to period when it filters anything. The caller closes
// the returned file.
func Build(revenues, expenses model.Frame, period finance.Period) (*excelize.File, error) {
	revenues = finance.FilterByPeriod(revenues, model.ColReceivedOn, period)
	expenses = finance.FilterByPeriod(expenses, model.ColPaidOn, period)

	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", SheetRevenues); err != nil {
		f.Close()
		return nil, fmt.Errorf("renaming default sheet: %w", err)
	}
	if err := writeFrame(f, SheetRevenues, revenues); err != nil {
		f.Close()
		return nil, err
	}

	for _, sheet := range []string{SheetExpenses, SheetSummary} {
		if _, err := f.NewSheet(sheet); err != nil {
			f.Close()
			return nil, fmt.Errorf("creating sheet %s: %w", sheet, err)
		}
	}
	if err := writeFrame(f, SheetExpenses, expenses); err != nil {
		f.Close()
		return nil, err
	}

	summary := finance.Summarize(revenues, expenses)
	rows := [][]any{
		{"Métrica", "Valor"},
		{LabelRevenue, summary.Revenue.InexactFloat64()},
		{LabelExpense, summary.Expense.InexactFloat64()},
		{LabelBalance, summary.Balance.InexactFloat64()},
	}
	if err := writeRows(f, SheetSummary, rows); err != nil {
		f.Close()
		return nil, err
	}

	f.SetActiveSheet(0)
	return f, nil
}

// Write builds the workbook and writes it to w.
func Write(w io.Writer, revenues, expenses model.Frame, period finance.Period) error {
	f, err := Build(revenues, expenses, period)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}

// writeFrame writes the header and records of frame. Amounts that parse are
// stored as numbers so the workbook can sum them.
func writeFrame(f *excelize.File, sheet string, frame model.Frame) error {
	rows := make([][]any, 0, frame.Len()+1)

	header := make([]any, len(frame.Columns))
	for i, col := range frame.Columns {
		header[i] = col
	}
	rows = append(rows, header)

	for _, rec := range frame.Records {
		row := make([]any, len(frame.Columns))
		for i, col := range frame.Columns {
			row[i] = rec[col]
			if col == model.ColTotal {
				if d, ok := codec.ParseDecimal(rec[col]); ok {
					row[i] = d.InexactFloat64()
				}
			}
		}
		rows = append(rows, row)
	}
	return writeRows(f, sheet, rows)
}

func writeRows(f *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("writing %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}
