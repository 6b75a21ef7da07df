package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Veraticus/sheetbooks/internal/backup"
	"github.com/Veraticus/sheetbooks/internal/common"
	"github.com/Veraticus/sheetbooks/internal/model"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resetViper(t *testing.T) {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)
	for _, key := range []string{
		"GOOGLE_SHEETS_SERVICE_ACCOUNT_PATH", "GOOGLE_SHEETS_CREDENTIALS_JSON", "GOOGLE_SHEETS_CLIENT_ID",
		"GOOGLE_SHEETS_CLIENT_SECRET", "GOOGLE_SHEETS_REFRESH_TOKEN", "GOOGLE_SHEETS_SPREADSHEET_ID",
	} {
		t.Setenv(key, "")
	}
}

func loadYAML(t *testing.T, content string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	viper.SetConfigFile(path)
	require.NoError(t, viper.ReadInConfig())
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)
	t.Setenv("SHEETBOOKS_TEST_DIR", "/srv/data")

	assert.Equal(t, "", ExpandPath(""))
	assert.Equal(t, home, ExpandPath("~"))
	assert.Equal(t, filepath.Join(home, "books.db"), ExpandPath("~/books.db"))
	assert.Equal(t, "/srv/data/books.db", ExpandPath("$SHEETBOOKS_TEST_DIR/books.db"))
	assert.Equal(t, "/abs/path", ExpandPath("/abs/path"))
}

func TestDataDir_XDG(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", "/xdg/data")
	t.Setenv("XDG_CONFIG_HOME", "/xdg/config")
	assert.Equal(t, "/xdg/data/sheetbooks", DataDir())
	assert.Equal(t, "/xdg/config/sheetbooks", ConfigDir())
}

func TestLoadSheetsConfig(t *testing.T) {
	t.Run("viper wins over environment", func(t *testing.T) {
		resetViper(t)
		t.Setenv("GOOGLE_SHEETS_SPREADSHEET_ID", "from-env")
		viper.Set("sheets.spreadsheet_id", "from-config")
		viper.Set("sheets.credentials_json", `{"type":"service_account"}`)
		viper.Set("sheets.retry_attempts", 4)
		viper.Set("sheets.retry_delay", "2s")

		cfg, err := LoadSheetsConfig()
		require.NoError(t, err)
		assert.Equal(t, "from-config", cfg.SpreadsheetID)
		assert.Equal(t, 4, cfg.RetryAttempts)
		assert.Equal(t, 2*time.Second, cfg.RetryDelay)
		assert.True(t, cfg.HasServiceAccount())
	})

	t.Run("environment fallback", func(t *testing.T) {
		resetViper(t)
		t.Setenv("GOOGLE_SHEETS_SPREADSHEET_ID", "sheet-1")
		t.Setenv("GOOGLE_SHEETS_CLIENT_ID", "id")
		t.Setenv("GOOGLE_SHEETS_CLIENT_SECRET", "secret")
		t.Setenv("GOOGLE_SHEETS_REFRESH_TOKEN", "refresh")

		cfg, err := LoadSheetsConfig()
		require.NoError(t, err)
		assert.True(t, cfg.HasOAuth())
		assert.Equal(t, 2, cfg.RetryAttempts)
	})

	t.Run("missing credentials", func(t *testing.T) {
		resetViper(t)
		viper.Set("sheets.spreadsheet_id", "sheet-1")

		_, err := LoadSheetsConfig()
		assert.ErrorIs(t, err, common.ErrMissingConfig)
	})
}

func TestLoadStoreConfig(t *testing.T) {
	resetViper(t)
	viper.Set("store.backend", "sqlite")
	viper.Set("sqlite.path", "/tmp/books.db")

	cfg, err := LoadStoreConfig()
	require.NoError(t, err)
	assert.Equal(t, BackendSQLite, cfg.Backend)
	assert.Equal(t, "/tmp/books.db", cfg.SQLitePath)

	viper.Set("store.backend", "postgres")
	_, err = LoadStoreConfig()
	assert.ErrorIs(t, err, common.ErrInvalidConfig)
}

func TestLoadRegistry(t *testing.T) {
	resetViper(t)
	loadYAML(t, `
tables:
  - name: Despesas
    gid: "42"
  - name: Notas
    columns: [Data, Texto]
`)

	registry, err := LoadRegistry()
	require.NoError(t, err)

	expenses, ok := registry.Lookup(model.TableExpenses)
	require.True(t, ok)
	assert.Equal(t, "42", expenses.GID)
	assert.Equal(t, model.ExpenseColumns, expenses.Columns)

	assert.Equal(t, []string{"Data", "Texto"}, registry.Columns("Notas"))
	assert.Contains(t, registry.Names(), model.TableSuppliers)
}

func TestLoadRegistry_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{name: "new table without columns", yaml: "tables:\n  - name: Notas\n"},
		{name: "bad gid", yaml: "tables:\n  - name: Receitas\n    gid: abc\n"},
		{name: "missing name", yaml: "tables:\n  - gid: \"1\"\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetViper(t)
			loadYAML(t, tt.yaml)
			_, err := LoadRegistry()
			assert.ErrorIs(t, err, common.ErrInvalidConfig)
		})
	}
}

func TestLoadRoster(t *testing.T) {
	resetViper(t)
	roster, err := LoadRoster()
	require.NoError(t, err)
	assert.Len(t, roster, 3)
	assert.True(t, roster["Bruno"].Equal(decimal.RequireFromString("0.5")))

	loadYAML(t, `
roster:
  - name: Ana
    rate: 0.75
  - name: Caio
    rate: "1,25"
`)
	roster, err = LoadRoster()
	require.NoError(t, err)
	require.Len(t, roster, 2)
	assert.True(t, roster["Ana"].Equal(decimal.RequireFromString("0.75")))
	assert.True(t, roster["Caio"].Equal(decimal.RequireFromString("1.25")))
}

func TestLoadRoster_InvalidRate(t *testing.T) {
	resetViper(t)
	loadYAML(t, "roster:\n  - name: Ana\n    rate: lots\n")
	_, err := LoadRoster()
	assert.ErrorIs(t, err, common.ErrInvalidConfig)
}

func TestLoadBackupConfig(t *testing.T) {
	resetViper(t)
	cfg, err := LoadBackupConfig()
	require.NoError(t, err)
	assert.Equal(t, backup.Daily, cfg.Frequency)
	assert.Equal(t, 30, cfg.Keep)

	viper.Set("backup.dir", "/var/backups/books")
	viper.Set("backup.frequency", "semanal")
	viper.Set("backup.keep", 5)
	cfg, err = LoadBackupConfig()
	require.NoError(t, err)
	assert.Equal(t, "/var/backups/books", cfg.Dir)
	assert.Equal(t, backup.Weekly, cfg.Frequency)
	assert.Equal(t, 5, cfg.Keep)

	viper.Set("backup.frequency", "hourly")
	_, err = LoadBackupConfig()
	assert.ErrorIs(t, err, common.ErrInvalidConfig)
}
