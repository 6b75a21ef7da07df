package config

import (
	"fmt"
	"strings"

	"github.com/Veraticus/sheetbooks/internal/codec"
	"github.com/Veraticus/sheetbooks/internal/common"
	"github.com/Veraticus/sheetbooks/internal/finance"
	"github.com/spf13/viper"
)

// RosterEntry is one employee of the productivity roster.
type RosterEntry struct {
	Name string `mapstructure:"name"`
	Rate string `mapstructure:"rate"`
}

// LoadRoster reads the productivity roster, falling back to the default
// one when none is configured.
func LoadRoster() (finance.Roster, error) {
	var entries []RosterEntry
	if err := viper.UnmarshalKey("roster", &entries); err != nil {
		return nil, fmt.Errorf("%w: roster: %w", common.ErrInvalidConfig, err)
	}
	if len(entries) == 0 {
		return finance.DefaultRoster(), nil
	}

	roster := make(finance.Roster, len(entries))
	for _, e := range entries {
		name := strings.TrimSpace(e.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: roster entry without a name", common.ErrInvalidConfig)
		}
		rate, ok := codec.ParseDecimal(e.Rate)
		if !ok || rate.IsNegative() {
			return nil, fmt.Errorf("%w: roster %s: invalid rate %q", common.ErrInvalidConfig, name, e.Rate)
		}
		roster[name] = rate
	}
	return roster, nil
}
