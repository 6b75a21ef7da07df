package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/Veraticus/sheetbooks/internal/common"
	"github.com/Veraticus/sheetbooks/internal/sheets"
	"github.com/spf13/viper"
)

// Store backends.
const (
	BackendSheets = "sheets"
	BackendSQLite = "sqlite"
)

// StoreConfig selects and configures the table store.
type StoreConfig struct {
	Sheets     *sheets.Config
	Backend    string
	SQLitePath string
}

// LoadStoreConfig reads store.backend and the settings of that backend.
func LoadStoreConfig() (*StoreConfig, error) {
	backend := viper.GetString("store.backend")
	if backend == "" {
		backend = BackendSheets
	}

	switch backend {
	case BackendSheets:
		cfg, err := LoadSheetsConfig()
		if err != nil {
			return nil, err
		}
		return &StoreConfig{Backend: backend, Sheets: cfg}, nil
	case BackendSQLite:
		path := viper.GetString("sqlite.path")
		if path == "" {
			path = filepath.Join(DataDir(), "sheetbooks.db")
		}
		return &StoreConfig{Backend: backend, SQLitePath: ExpandPath(path)}, nil
	}
	return nil, fmt.Errorf("%w: unknown store backend %q", common.ErrInvalidConfig, backend)
}

// LoadSheetsConfig loads Google Sheets configuration with this precedence:
// viper (config file or SHEETBOOKS_ env vars), then the plain GOOGLE_SHEETS_*
// environment variables, then defaults.
func LoadSheetsConfig() (*sheets.Config, error) {
	config := sheets.DefaultConfig()

	config.ServiceAccountPath = ExpandPath(firstNonEmpty(
		viper.GetString("sheets.service_account_path"),
		os.Getenv("GOOGLE_SHEETS_SERVICE_ACCOUNT_PATH")))
	config.CredentialsJSON = firstNonEmpty(
		viper.GetString("sheets.credentials_json"),
		os.Getenv("GOOGLE_SHEETS_CREDENTIALS_JSON"))
	config.ClientID = firstNonEmpty(
		viper.GetString("sheets.client_id"),
		os.Getenv("GOOGLE_SHEETS_CLIENT_ID"))
	config.ClientSecret = firstNonEmpty(
		viper.GetString("sheets.client_secret"),
		os.Getenv("GOOGLE_SHEETS_CLIENT_SECRET"))
	config.RefreshToken = firstNonEmpty(
		viper.GetString("sheets.refresh_token"),
		os.Getenv("GOOGLE_SHEETS_REFRESH_TOKEN"))
	config.SpreadsheetID = firstNonEmpty(
		viper.GetString("sheets.spreadsheet_id"),
		os.Getenv("GOOGLE_SHEETS_SPREADSHEET_ID"))
	config.Endpoint = viper.GetString("sheets.endpoint")

	if viper.IsSet("sheets.retry_attempts") {
		config.RetryAttempts = viper.GetInt("sheets.retry_attempts")
	}
	if viper.IsSet("sheets.retry_delay") {
		config.RetryDelay = viper.GetDuration("sheets.retry_delay")
	}
	if viper.IsSet("sheets.requests_per_minute") {
		config.RequestsPerMinute = viper.GetInt("sheets.requests_per_minute")
	}
	if viper.IsSet("sheets.timeout") {
		config.Timeout = viper.GetDuration("sheets.timeout")
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
