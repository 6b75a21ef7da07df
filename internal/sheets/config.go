package sheets

import (
	"fmt"
	"time"

	"github.com/Veraticus/sheetbooks/internal/common"
)

// Config holds the configuration for the Google Sheets client.
type Config struct {
	ClientID           string
	ClientSecret       string
	RefreshToken       string
	ServiceAccountPath string
	// CredentialsJSON is an inline service account key, used instead of a file.
	CredentialsJSON string
	SpreadsheetID   string
	Endpoint        string
	RetryAttempts   int
	RetryDelay      time.Duration
	Timeout         time.Duration

	// RequestsPerMinute throttles API calls; zero disables throttling.
	RequestsPerMinute int
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		RetryAttempts: 2,
		RetryDelay:    500 * time.Millisecond,
		Timeout:       30 * time.Second,

		// Sheets API per-user read quota.
		RequestsPerMinute: 60,
	}
}

// HasServiceAccount reports whether service account credentials are configured.
func (c *Config) HasServiceAccount() bool {
	return c.ServiceAccountPath != "" || c.CredentialsJSON != ""
}

// HasOAuth reports whether a complete OAuth2 refresh-token set is configured.
func (c *Config) HasOAuth() bool {
	return c.ClientID != "" && c.ClientSecret != "" && c.RefreshToken != ""
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.SpreadsheetID == "" {
		return fmt.Errorf("%w: spreadsheet id is required", common.ErrMissingConfig)
	}

	hasOAuth := c.HasOAuth()
	hasServiceAccount := c.HasServiceAccount()

	if !hasOAuth && !hasServiceAccount {
		return fmt.Errorf("%w: no authentication method configured", common.ErrMissingConfig)
	}

	if hasOAuth && hasServiceAccount {
		return fmt.Errorf("%w: multiple authentication methods configured; use either OAuth2 or service account", common.ErrInvalidConfig)
	}

	if c.ServiceAccountPath != "" && c.CredentialsJSON != "" {
		return fmt.Errorf("%w: set either a service account path or inline credentials, not both", common.ErrInvalidConfig)
	}

	if c.RetryAttempts < 0 {
		return fmt.Errorf("%w: retry attempts cannot be negative", common.ErrInvalidConfig)
	}

	if c.RetryDelay < 0 {
		return fmt.Errorf("%w: retry delay cannot be negative", common.ErrInvalidConfig)
	}

	if c.RequestsPerMinute < 0 {
		return fmt.Errorf("%w: requests per minute cannot be negative", common.ErrInvalidConfig)
	}

	if c.Timeout < 0 {
		return fmt.Errorf("%w: timeout cannot be negative", common.ErrInvalidConfig)
	}

	return nil
}

func (c *Config) retryOptions() common.RetryOptions {
	attempts := c.RetryAttempts
	if attempts <= 0 {
		attempts = 1
	}
	return common.RetryOptions{
		MaxAttempts:  attempts,
		InitialDelay: c.RetryDelay,
		MaxDelay:     10 * time.Second,
		Multiplier:   2.0,
		Jitter:       0.5,
	}
}
