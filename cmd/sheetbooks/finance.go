package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Veraticus/sheetbooks/internal/cli"
	"github.com/Veraticus/sheetbooks/internal/codec"
	"github.com/Veraticus/sheetbooks/internal/common"
	"github.com/Veraticus/sheetbooks/internal/finance"
	"github.com/Veraticus/sheetbooks/internal/model"
	"github.com/Veraticus/sheetbooks/internal/report"
	"github.com/spf13/cobra"
)

func installmentsCmd() *cobra.Command {
	var (
		date         string
		total        string
		installments int
		expense      model.Expense
	)

	cmd := &cobra.Command{
		Use:   "installments",
		Short: "Record an expense split into monthly installments",
		Long: `Splits the total into equal installments rounded to cents, one per month
starting at --date, and appends each to Despesas labeled "i/N". If a row
fails, the rows already written stay and the command reports how many.`,
		Example: `  sheetbooks installments --date 31/01/2024 --total 1200 --count 3 \
    --description Notebook --category Equipamentos --supplier Outros`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			paid, ok := codec.ParseDate(date)
			if !ok {
				return common.NewUserError(fmt.Sprintf("invalid date %q, expected DD/MM/YYYY", date), nil)
			}
			amount, ok := codec.ParseDecimal(total)
			if !ok {
				return common.NewUserError(fmt.Sprintf("invalid total %q", total), nil)
			}
			expense.PaidOn = paid
			expense.Amount.Decimal, expense.Amount.Valid = amount, true

			s, err := openSession(cmd.Context())
			if err != nil {
				return err
			}
			defer s.close()

			rows, err := finance.AppendInstallments(cmd.Context(), s.tables, expense, installments)
			for _, row := range rows {
				fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("%s  %s  %s",
					row.Installment, codec.FormatValue(row.PaidOn), cli.FormatMoney(row.Amount.Decimal))))
			}

			var partial *common.PartialWriteError
			if errors.As(err, &partial) {
				cmd.PrintErrln(cli.FormatError(fmt.Sprintf("Only %d of %d installments were recorded", partial.Written, partial.Total)))
			}
			return err
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "payment date of the first installment (DD/MM/YYYY)")
	cmd.Flags().StringVar(&total, "total", "", "total amount")
	cmd.Flags().IntVar(&installments, "count", 1, "number of installments")
	cmd.Flags().StringVar(&expense.Description, "description", "", "description")
	cmd.Flags().StringVar(&expense.Category, "category", "", "expense category")
	cmd.Flags().StringVar(&expense.PaymentMethod, "payment-method", "", "payment method")
	cmd.Flags().StringVar(&expense.Responsible, "responsible", "", "who paid")
	cmd.Flags().StringVar(&expense.Supplier, "supplier", "", "supplier")
	cmd.Flags().StringVar(&expense.Project, "project", "", "project id")
	cmd.Flags().StringVar(&expense.Invoice, "invoice", "", "invoice (NF)")
	_ = cmd.MarkFlagRequired("date")
	_ = cmd.MarkFlagRequired("total")

	return cmd
}

func summaryCmd() *cobra.Command {
	var months, years []int

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Show total revenue, expense and balance",
		RunE: func(cmd *cobra.Command, _ []string) error {
			period, err := parsePeriod(months, years)
			if err != nil {
				return err
			}

			s, err := openSession(cmd.Context())
			if err != nil {
				return err
			}
			defer s.close()

			revenues, expenses, readErr := readLedger(cmd, s)
			revenues = finance.FilterByPeriod(revenues, model.ColReceivedOn, period)
			expenses = finance.FilterByPeriod(expenses, model.ColPaidOn, period)
			summary := finance.Summarize(revenues, expenses)

			content := fmt.Sprintf("Receita Total  %s\nDespesa Total  %s\nSaldo          %s",
				cli.FormatMoney(summary.Revenue), cli.FormatMoney(summary.Expense), cli.FormatBalance(summary.Balance))
			fmt.Fprintln(cmd.OutOrStdout(), cli.RenderBox("Resumo", content))

			series := finance.MonthlySeries(revenues, model.ColReceivedOn, model.ColTotal)
			if len(series) > 0 {
				rows := make([][]string, len(series))
				for i, g := range series {
					rows[i] = []string{g.Key, cli.FormatMoney(g.Total)}
				}
				fmt.Fprintln(cmd.OutOrStdout(), cli.RenderTable([]string{"MesAno", "Receita"}, rows))
			}
			return readErr
		},
	}

	cmd.Flags().IntSliceVar(&months, "month", nil, "months to include (1-12, repeatable)")
	cmd.Flags().IntSliceVar(&years, "year", nil, "years to include (repeatable)")
	return cmd
}

func productivityCmd() *cobra.Command {
	var month, year int

	cmd := &cobra.Command{
		Use:   "productivity",
		Short: "Show modeled and detailed area per employee for a month",
		RunE: func(cmd *cobra.Command, _ []string) error {
			now := time.Now()
			if month == 0 {
				month = int(now.Month())
			}
			if year == 0 {
				year = now.Year()
			}
			period, err := parsePeriod([]int{month}, []int{year})
			if err != nil {
				return err
			}

			s, err := openSession(cmd.Context())
			if err != nil {
				return err
			}
			defer s.close()

			frame, readErr := s.tables.Read(cmd.Context(), model.TableProjects, false)
			if readErr != nil {
				cmd.PrintErrln(cli.FormatWarning(readErr.Error()))
			}

			result := finance.Productivity(finance.ProjectsFromFrame(frame), period.Months[0], period.Years[0], s.roster)
			rows := make([][]string, len(result))
			for i, p := range result {
				rows[i] = []string{p.Name, p.Area.String(), cli.FormatMoney(p.Rate), cli.FormatMoney(p.Payout)}
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatTitle(fmt.Sprintf("Produtividade %02d/%d", month, year)))
			fmt.Fprintln(cmd.OutOrStdout(), cli.RenderTable([]string{"Funcionário", "m2", "R$/m2", "Total"}, rows))
			return readErr
		},
	}

	cmd.Flags().IntVar(&month, "month", 0, "month (default: current)")
	cmd.Flags().IntVar(&year, "year", 0, "year (default: current)")
	return cmd
}

func reportCmd() *cobra.Command {
	var (
		output        string
		months, years []int
	)

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Export revenues, expenses and a summary to an Excel workbook",
		RunE: func(cmd *cobra.Command, _ []string) error {
			period, err := parsePeriod(months, years)
			if err != nil {
				return err
			}
			if output == "" {
				output = fmt.Sprintf("relatorio_%s.xlsx", time.Now().Format("20060102_150405"))
			}

			s, err := openSession(cmd.Context())
			if err != nil {
				return err
			}
			defer s.close()

			revenues, expenses, readErr := readLedger(cmd, s)

			f, err := report.Build(revenues, expenses, period)
			if err != nil {
				return err
			}
			defer func() { _ = f.Close() }()

			if dir := filepath.Dir(output); dir != "." {
				if err := os.MkdirAll(dir, 0750); err != nil {
					return fmt.Errorf("failed to create output directory: %w", err)
				}
			}
			if err := f.SaveAs(output); err != nil {
				return fmt.Errorf("failed to save report: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("Report written to " + output))
			return readErr
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: relatorio_<timestamp>.xlsx)")
	cmd.Flags().IntSliceVar(&months, "month", nil, "months to include (1-12, repeatable)")
	cmd.Flags().IntSliceVar(&years, "year", nil, "years to include (repeatable)")
	return cmd
}

// readLedger reads both ledgers, printing a warning for each that failed.
// The returned error is the joined read failures.
func readLedger(cmd *cobra.Command, s *session) (model.Frame, model.Frame, error) {
	revenues, revErr := s.tables.Read(cmd.Context(), model.TableRevenues, false)
	expenses, expErr := s.tables.Read(cmd.Context(), model.TableExpenses, false)
	err := errors.Join(revErr, expErr)
	if err != nil {
		cmd.PrintErrln(cli.FormatWarning("Some data could not be loaded: " + err.Error()))
	}
	return revenues, expenses, err
}
