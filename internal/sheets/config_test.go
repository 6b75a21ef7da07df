package sheets

import (
	"errors"
	"testing"
	"time"

	"github.com/Veraticus/sheetbooks/internal/common"
	"github.com/stretchr/testify/assert"
)

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		wantIs  error
		name    string
		errMsg  string
		config  Config
		wantErr bool
	}{
		{
			name: "service account path",
			config: Config{
				SpreadsheetID:      "sheet-123",
				ServiceAccountPath: "/path/to/key.json",
				RetryAttempts:      2,
				RetryDelay:         time.Second,
			},
		},
		{
			name: "inline credentials",
			config: Config{
				SpreadsheetID:   "sheet-123",
				CredentialsJSON: `{"type":"service_account"}`,
			},
		},
		{
			name: "oauth refresh token",
			config: Config{
				SpreadsheetID: "sheet-123",
				ClientID:      "client",
				ClientSecret:  "secret",
				RefreshToken:  "token",
			},
		},
		{
			name:    "missing spreadsheet id",
			config:  Config{ServiceAccountPath: "/path/to/key.json"},
			wantErr: true,
			wantIs:  common.ErrMissingConfig,
			errMsg:  "spreadsheet id is required",
		},
		{
			name: "partial oauth credentials",
			config: Config{
				SpreadsheetID: "sheet-123",
				ClientID:      "test-client",
				RefreshToken:  "test-token",
			},
			wantErr: true,
			wantIs:  common.ErrMissingConfig,
			errMsg:  "no authentication method configured",
		},
		{
			name: "both auth methods",
			config: Config{
				SpreadsheetID:      "sheet-123",
				ServiceAccountPath: "/path/to/key.json",
				ClientID:           "client",
				ClientSecret:       "secret",
				RefreshToken:       "token",
			},
			wantErr: true,
			wantIs:  common.ErrInvalidConfig,
			errMsg:  "multiple authentication methods",
		},
		{
			name: "path and inline credentials",
			config: Config{
				SpreadsheetID:      "sheet-123",
				ServiceAccountPath: "/path/to/key.json",
				CredentialsJSON:    "{}",
			},
			wantErr: true,
			wantIs:  common.ErrInvalidConfig,
		},
		{
			name: "negative retry delay",
			config: Config{
				SpreadsheetID:      "sheet-123",
				ServiceAccountPath: "/path/to/key.json",
				RetryDelay:         -1 * time.Second,
			},
			wantErr: true,
			errMsg:  "retry delay cannot be negative",
		},
		{
			name: "negative retry attempts",
			config: Config{
				SpreadsheetID:      "sheet-123",
				ServiceAccountPath: "/path/to/key.json",
				RetryAttempts:      -1,
			},
			wantErr: true,
			errMsg:  "retry attempts cannot be negative",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			assert.Error(t, err)
			if tt.errMsg != "" {
				assert.Contains(t, err.Error(), tt.errMsg)
			}
			if tt.wantIs != nil {
				assert.True(t, errors.Is(err, tt.wantIs))
			}
		})
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 2, cfg.RetryAttempts)
	assert.Equal(t, 2, cfg.retryOptions().MaxAttempts)

	cfg.RetryAttempts = 0
	assert.Equal(t, 1, cfg.retryOptions().MaxAttempts)
}
