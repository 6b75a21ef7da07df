package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/Veraticus/sheetbooks/internal/backup"
	"github.com/Veraticus/sheetbooks/internal/cli"
	"github.com/Veraticus/sheetbooks/internal/common"
	"github.com/Veraticus/sheetbooks/internal/config"
	"github.com/spf13/cobra"
)

func backupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Create, list, restore and prune table backups",
		RunE:  runBackupCreate,
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "create",
		Short: "Snapshot every table to a JSON file",
		RunE:  runBackupCreate,
	})
	cmd.AddCommand(backupListCmd())
	cmd.AddCommand(backupRestoreCmd())
	cmd.AddCommand(backupPruneCmd())

	return cmd
}

func runBackupCreate(cmd *cobra.Command, _ []string) error {
	s, err := openSession(cmd.Context())
	if err != nil {
		return err
	}
	defer s.close()

	result, err := backup.Create(cmd.Context(), s.tables, s.tables.Registry().Names(), s.backup.Dir, time.Now())
	if err != nil {
		return err
	}

	tables := make([]string, 0, len(result.Rows))
	for table := range result.Rows {
		tables = append(tables, table)
	}
	sort.Strings(tables)
	rows := make([][]string, len(tables))
	for i, table := range tables {
		rows[i] = []string{table, strconv.Itoa(result.Rows[table])}
	}
	fmt.Fprintln(cmd.OutOrStdout(), cli.RenderTable([]string{"Table", "Rows"}, rows))

	for table, skipErr := range result.Skipped {
		cmd.PrintErrln(cli.FormatWarning(fmt.Sprintf("Skipped %s: %v", table, skipErr)))
	}
	fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("Backup written to " + result.Path))
	return nil
}

func backupListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List backups, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadBackupDir()
			if err != nil {
				return err
			}
			infos, err := backup.List(cfg)
			if err != nil {
				return err
			}
			if len(infos) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), cli.FormatInfo("No backups in " + cfg))
				return nil
			}

			rows := make([][]string, len(infos))
			for i, info := range infos {
				rows[i] = []string{info.Name, info.CreatedAt.Format("02/01/2006 15:04:05"), strconv.FormatInt(info.Size, 10)}
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.RenderTable([]string{"Backup", "Created", "Bytes"}, rows))
			return nil
		},
	}
}

func backupRestoreCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "restore <backup>",
		Short: "Replace every table with the contents of a backup",
		Long: `Replaces the tables found in the backup file. Tables are restored one by
one; a failure on one table does not stop the others. The argument is a
file name from 'backup list' or a path.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd.Context())
			if err != nil {
				return err
			}
			defer s.close()

			path := args[0]
			if _, ok := backup.ParseFileName(path); ok {
				path = filepath.Join(s.backup.Dir, path)
			}
			snapshot, err := backup.Restore(path)
			if err != nil {
				return err
			}

			if !yes {
				ok, err := cli.Confirm(cmd.Context(), cli.NewNonBlockingReader(os.Stdin), cmd.OutOrStdout(),
					fmt.Sprintf("Overwrite %d table(s) with %s?", len(snapshot), filepath.Base(path)))
				if err != nil || !ok {
					fmt.Fprintln(cmd.OutOrStdout(), cli.FormatInfo("Nothing restored"))
					return ignoreCancel(err)
				}
			}

			tables := snapshot.Tables()
			bar := newProgressBar(cmd.ErrOrStderr(), len(tables), "Restoring tables...")
			failed := 0
			for _, table := range tables {
				if err := s.tables.WriteReplace(cmd.Context(), table, snapshot[table].Values()); err != nil {
					failed++
					cmd.PrintErrln(cli.FormatError(fmt.Sprintf("%s: %v", table, err)))
				}
				_ = bar.Add(1)
			}

			if failed > 0 {
				return fmt.Errorf("%d of %d tables could not be restored", failed, len(tables))
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Restored %d tables", len(tables))))
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")
	return cmd
}

func backupPruneCmd() *cobra.Command {
	var keep int

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete all but the newest backups",
		RunE: func(cmd *cobra.Command, _ []string) error {
			dir, err := loadBackupDir()
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("keep") {
				cfg, err := config.LoadBackupConfig()
				if err != nil {
					return err
				}
				keep = cfg.Keep
			}
			if keep <= 0 {
				return common.NewUserError("--keep must be positive", nil)
			}

			removed, err := backup.Prune(dir, keep)
			for _, path := range removed {
				fmt.Fprintln(cmd.OutOrStdout(), cli.FormatInfo("Removed " + filepath.Base(path)))
			}
			return err
		},
	}

	cmd.Flags().IntVar(&keep, "keep", 0, "number of backups to keep (default: backup.keep)")
	return cmd
}

func loadBackupDir() (string, error) {
	cfg, err := config.LoadBackupConfig()
	if err != nil {
		return "", err
	}
	return cfg.Dir, nil
}
