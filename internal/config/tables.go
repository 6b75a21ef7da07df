package config

import (
	"fmt"
	"strings"

	"github.com/Veraticus/sheetbooks/internal/common"
	"github.com/Veraticus/sheetbooks/internal/schema"
	"github.com/spf13/viper"
)

// TableOverride changes or adds one table definition. It is read from a
// list so table names keep their case:
//
//	tables:
//	  - name: Despesas
//	    gid: "2095402559"
//	  - name: Notas
//	    columns: [Data, Texto]
type TableOverride struct {
	Name    string   `mapstructure:"name"`
	GID     string   `mapstructure:"gid"`
	Columns []string `mapstructure:"columns"`
}

// LoadRegistry returns the default registry with the configured overrides
// applied. An override without columns keeps the default columns; a new
// table must list its columns.
func LoadRegistry() (*schema.Registry, error) {
	registry := schema.DefaultRegistry()

	var overrides []TableOverride
	if err := viper.UnmarshalKey("tables", &overrides); err != nil {
		return nil, fmt.Errorf("%w: tables: %w", common.ErrInvalidConfig, err)
	}

	for _, o := range overrides {
		name := strings.TrimSpace(o.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: table override without a name", common.ErrInvalidConfig)
		}

		def, known := registry.Lookup(name)
		def.Name = name
		if o.GID != "" {
			def.GID = o.GID
			if _, ok := def.StableID(); !ok {
				return nil, fmt.Errorf("%w: table %s: gid %q is not a worksheet id", common.ErrInvalidConfig, name, o.GID)
			}
		}
		if len(o.Columns) > 0 {
			def.Columns = o.Columns
		}
		if !known && len(def.Columns) == 0 {
			return nil, fmt.Errorf("%w: table %s: columns are required for a new table", common.ErrInvalidConfig, name)
		}
		registry.Register(def)
	}
	return registry, nil
}
