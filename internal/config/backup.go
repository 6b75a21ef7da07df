package config

import (
	"fmt"
	"path/filepath"

	"github.com/Veraticus/sheetbooks/internal/backup"
	"github.com/Veraticus/sheetbooks/internal/common"
	"github.com/spf13/viper"
)

// BackupConfig controls snapshot location, schedule and retention.
type BackupConfig struct {
	Dir       string
	DriftDir  string
	Frequency backup.Frequency
	Keep      int
}

// LoadBackupConfig reads the backup.* keys.
func LoadBackupConfig() (*BackupConfig, error) {
	cfg := &BackupConfig{
		Dir:       filepath.Join(DataDir(), "backups"),
		DriftDir:  filepath.Join(DataDir(), "drift"),
		Frequency: backup.Daily,
		Keep:      30,
	}

	if v := viper.GetString("backup.dir"); v != "" {
		cfg.Dir = ExpandPath(v)
	}
	if v := viper.GetString("backup.drift_dir"); v != "" {
		cfg.DriftDir = ExpandPath(v)
	}
	if v := viper.GetString("backup.frequency"); v != "" {
		freq, err := backup.ParseFrequency(v)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", common.ErrInvalidConfig, err)
		}
		cfg.Frequency = freq
	}
	if viper.IsSet("backup.keep") {
		cfg.Keep = viper.GetInt("backup.keep")
		if cfg.Keep < 0 {
			return nil, fmt.Errorf("%w: backup.keep cannot be negative", common.ErrInvalidConfig)
		}
	}
	return cfg, nil
}
