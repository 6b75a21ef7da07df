package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/Veraticus/sheetbooks/internal/common"
	"github.com/Veraticus/sheetbooks/internal/config"
	"github.com/Veraticus/sheetbooks/internal/finance"
	"github.com/Veraticus/sheetbooks/internal/model"
	"github.com/Veraticus/sheetbooks/internal/schema"
	"github.com/Veraticus/sheetbooks/internal/sheets"
	"github.com/Veraticus/sheetbooks/internal/storage"
	"github.com/Veraticus/sheetbooks/internal/tablesync"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/viper"
)

// session bundles what every command needs to reach the tables.
type session struct {
	tables *tablesync.SyncContext
	backup *config.BackupConfig
	roster finance.Roster
	close  func()
}

// openSession builds the sync context for the configured backend. The
// remote connection itself is opened lazily by the first operation.
func openSession(ctx context.Context) (*session, error) {
	storeCfg, err := config.LoadStoreConfig()
	if err != nil {
		return nil, err
	}
	registry, err := config.LoadRegistry()
	if err != nil {
		return nil, err
	}
	backupCfg, err := config.LoadBackupConfig()
	if err != nil {
		return nil, err
	}
	roster, err := config.LoadRoster()
	if err != nil {
		return nil, err
	}

	s := &session{backup: backupCfg, roster: roster, close: func() {}}

	var dial sheets.Dialer
	switch storeCfg.Backend {
	case config.BackendSQLite:
		store, err := storage.Open(ctx, storeCfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		defs := make([]schema.Table, 0, len(registry.Names()))
		for _, name := range registry.Names() {
			def, _ := registry.Lookup(name)
			defs = append(defs, def)
		}
		created, err := store.Provision(ctx, defs)
		if err != nil {
			_ = store.Close()
			return nil, err
		}
		if len(created) > 0 {
			slog.Info("Created local tables", "tables", created, "path", store.Path())
		}
		dial = sheets.StaticDialer(store)
		s.close = func() {
			if err := store.Close(); err != nil {
				slog.Warn("Failed to close database", "error", err)
			}
		}
	default:
		dial = sheets.Dial(*storeCfg.Sheets, slog.Default())
	}

	s.tables = tablesync.New(
		sheets.NewConnector(dial),
		registry,
		tablesync.WithDriftDir(backupCfg.DriftDir),
	)
	return s, nil
}

// saveConfig writes viper's current settings back to the config file in use,
// or to the default location.
func saveConfig() error {
	configFile := viper.ConfigFileUsed()
	if configFile == "" {
		configFile = filepath.Join(config.ConfigDir(), "config.yaml")
	}
	if err := os.MkdirAll(filepath.Dir(configFile), 0750); err != nil {
		return err
	}
	return viper.WriteConfigAs(configFile)
}

// openBrowser tries to open the URL in the default browser.
func openBrowser(url string) {
	var err error
	switch runtime.GOOS {
	case "linux":
		err = exec.Command("xdg-open", url).Start() //nolint:gosec,forbidigo
	case "windows":
		err = exec.Command("rundll32", "url.dll,FileProtocolHandler", url).Start() //nolint:gosec,forbidigo
	case "darwin":
		err = exec.Command("open", url).Start() //nolint:gosec,forbidigo
	}
	if err != nil {
		slog.Debug("Failed to open browser", "error", err)
	}
}

func newProgressBar(w io.Writer, total int, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(30),
		progressbar.OptionSetDescription("[cyan]"+description+"[reset]"),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionOnCompletion(func() {
			_, _ = fmt.Fprintln(w)
		}),
	)
}

// parseAssignments turns Column=Value pairs into row values.
func parseAssignments(pairs []string) (model.Values, error) {
	values := make(model.Values, len(pairs))
	for _, pair := range pairs {
		col, val, ok := strings.Cut(pair, "=")
		col = strings.TrimSpace(col)
		if !ok || col == "" {
			return nil, common.NewUserError(fmt.Sprintf("expected Column=Value, got %q", pair), nil)
		}
		values[col] = val
	}
	return values, nil
}

// parseRows converts 1-based data row numbers, as shown by "tables read",
// into 0-based indices.
func parseRows(list string) ([]int, error) {
	var indices []int
	for _, part := range strings.Split(list, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil || n < 1 {
			return nil, common.NewUserError(fmt.Sprintf("invalid row number %q", part), nil)
		}
		indices = append(indices, n-1)
	}
	return indices, nil
}

// parsePeriod builds a period filter from month and year flags; zero values
// mean no filter on that component.
func parsePeriod(months []int, years []int) (finance.Period, error) {
	var period finance.Period
	for _, m := range months {
		if m < 1 || m > 12 {
			return finance.Period{}, common.NewUserError(fmt.Sprintf("invalid month %d", m), nil)
		}
		period.Months = append(period.Months, time.Month(m))
	}
	for _, y := range years {
		if y < 1900 {
			return finance.Period{}, common.NewUserError(fmt.Sprintf("invalid year %d", y), nil)
		}
		period.Years = append(period.Years, y)
	}
	return period, nil
}
