package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/Veraticus/sheetbooks/internal/cli"
	"github.com/Veraticus/sheetbooks/internal/common"
	"github.com/spf13/cobra"
)

func tablesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tables",
		Short: "Read and edit the spreadsheet tables",
	}

	cmd.AddCommand(tablesListCmd())
	cmd.AddCommand(tablesReadCmd())
	cmd.AddCommand(tablesAddCmd())
	cmd.AddCommand(tablesDeleteCmd())
	cmd.AddCommand(tablesVerifyCmd())
	cmd.AddCommand(tablesVocabularyCmd())
	cmd.AddCommand(tablesWarmCmd())

	return cmd
}

func tablesListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the configured tables",
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := openSession(cmd.Context())
			if err != nil {
				return err
			}
			defer s.close()

			registry := s.tables.Registry()
			rows := make([][]string, 0, len(registry.Names()))
			for _, name := range registry.Names() {
				def, _ := registry.Lookup(name)
				rows = append(rows, []string{name, def.GID, strings.Join(def.Columns, ", ")})
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatTitle("Tables"))
			fmt.Fprintln(cmd.OutOrStdout(), cli.RenderTable([]string{"Table", "GID", "Columns"}, rows))
			return nil
		},
	}
}

func tablesReadCmd() *cobra.Command {
	var refresh bool

	cmd := &cobra.Command{
		Use:   "read <table>",
		Short: "Print the rows of a table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd.Context())
			if err != nil {
				return err
			}
			defer s.close()

			frame, err := s.tables.Read(cmd.Context(), args[0], refresh)
			if err != nil {
				// Reads degrade to an empty table; show what we have.
				cmd.PrintErrln(cli.FormatWarning(err.Error()))
			}

			columns := append([]string{"#"}, frame.Columns...)
			rows := make([][]string, len(frame.Records))
			for i, rec := range frame.Records {
				row := make([]string, 0, len(columns))
				row = append(row, strconv.Itoa(i+1))
				for _, col := range frame.Columns {
					row = append(row, rec[col])
				}
				rows[i] = row
			}

			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatTitle(fmt.Sprintf("%s (%d rows)", args[0], frame.Len())))
			fmt.Fprintln(cmd.OutOrStdout(), cli.RenderTable(columns, rows))
			return nil
		},
	}

	cmd.Flags().BoolVar(&refresh, "refresh", false, "bypass the cache")
	return cmd
}

func tablesAddCmd() *cobra.Command {
	var set []string

	cmd := &cobra.Command{
		Use:   "add <table>",
		Short: "Append one row to a table",
		Example: `  sheetbooks tables add Clientes --set Nome="Maria Silva" --set Contato=11999999999
  sheetbooks tables add Receitas --set DataRecebimento=05/03/2024 --set ValorTotal=1500`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			values, err := parseAssignments(set)
			if err != nil {
				return err
			}
			if len(values) == 0 {
				return common.NewUserError("at least one --set Column=Value is required", nil)
			}

			s, err := openSession(cmd.Context())
			if err != nil {
				return err
			}
			defer s.close()

			if err := s.tables.Append(cmd.Context(), args[0], values); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("Row added to " + args[0]))
			return nil
		},
	}

	cmd.Flags().StringArrayVar(&set, "set", nil, "column value as Column=Value (repeatable)")
	return cmd
}

func tablesDeleteCmd() *cobra.Command {
	var (
		rows string
		yes  bool
	)

	cmd := &cobra.Command{
		Use:   "delete <table>",
		Short: "Delete rows by their number in 'tables read'",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			indices, err := parseRows(rows)
			if err != nil {
				return err
			}
			if len(indices) == 0 {
				return common.NewUserError("--rows is required", nil)
			}

			if !yes {
				ok, err := cli.Confirm(cmd.Context(), cli.NewNonBlockingReader(os.Stdin), cmd.OutOrStdout(),
					fmt.Sprintf("Delete %d row(s) from %s?", len(indices), args[0]))
				if err != nil || !ok {
					fmt.Fprintln(cmd.OutOrStdout(), cli.FormatInfo("Nothing deleted"))
					return ignoreCancel(err)
				}
			}

			s, err := openSession(cmd.Context())
			if err != nil {
				return err
			}
			defer s.close()

			if err := s.tables.Delete(cmd.Context(), args[0], indices); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Deleted %d row(s) from %s", len(indices), args[0])))
			return nil
		},
	}

	cmd.Flags().StringVar(&rows, "rows", "", "comma-separated row numbers, starting at 1")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")
	return cmd
}

func tablesVerifyCmd() *cobra.Command {
	var create bool

	cmd := &cobra.Command{
		Use:   "verify [table...]",
		Short: "Check table headers and add missing columns",
		Long: `Checks that every table's header holds the expected columns and appends any
that are missing. Existing data is never moved. With --create, tables
without a worksheet are created with their header and seed rows.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd.Context())
			if err != nil {
				return err
			}
			defer s.close()

			tables := args
			if len(tables) == 0 {
				tables = s.tables.Registry().Names()
			}

			bar := newProgressBar(cmd.ErrOrStderr(), len(tables), "Verifying tables...")
			var errs []error
			for _, table := range tables {
				err := s.tables.VerifyAndRepair(cmd.Context(), table)
				if err != nil && create && errors.Is(err, common.ErrResolution) {
					if _, err = s.tables.EnsureTable(cmd.Context(), table); err == nil {
						err = s.tables.VerifyAndRepair(cmd.Context(), table)
					}
				}
				if err != nil {
					errs = append(errs, err)
				}
				_ = bar.Add(1)
			}

			for _, err := range errs {
				cmd.PrintErrln(cli.FormatError(err.Error()))
			}
			if len(errs) > 0 {
				return fmt.Errorf("%d of %d tables failed verification", len(errs), len(tables))
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("%d tables verified", len(tables))))
			return nil
		},
	}

	cmd.Flags().BoolVar(&create, "create", false, "create tables that have no worksheet")
	return cmd
}

func tablesVocabularyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "vocabulary",
		Short: "Manage categories and suppliers",
	}

	cmd.AddCommand(&cobra.Command{
		Use:     "add <table> <value>",
		Short:   "Add a value to a category or supplier table",
		Example: `  sheetbooks tables vocabulary add Categorias_Despesas "Material de Escritório"`,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd.Context())
			if err != nil {
				return err
			}
			defer s.close()

			if err := s.tables.AddVocabulary(cmd.Context(), args[0], args[1]); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Added %q to %s", args[1], args[0])))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "list <table>",
		Short: "List the values of a category or supplier table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd.Context())
			if err != nil {
				return err
			}
			defer s.close()

			values, err := s.tables.Vocabulary(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			for _, v := range values {
				fmt.Fprintln(cmd.OutOrStdout(), v)
			}
			return nil
		},
	})

	return cmd
}

func tablesWarmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "warm",
		Short: "Load the main and lookup tables and report failures",
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := openSession(cmd.Context())
			if err != nil {
				return err
			}
			defer s.close()

			err = errors.Join(s.tables.LoadInitial(cmd.Context()), s.tables.Prewarm(cmd.Context()))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("All tables loaded"))
			return nil
		},
	}
}

func ignoreCancel(err error) error {
	if errors.Is(err, cli.ErrInputCancelled) {
		return nil
	}
	return err
}
