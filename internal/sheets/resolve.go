package sheets

import (
	"context"
	"errors"
	"fmt"

	"github.com/Veraticus/sheetbooks/internal/common"
	"github.com/Veraticus/sheetbooks/internal/schema"
)

// Resolve maps a logical table to its worksheet. The stable id is tried
// first; the name is consulted only when the id is unset or unknown to the
// store. A miss on both wraps common.ErrResolution.
func Resolve(ctx context.Context, store Store, table schema.Table) (Worksheet, error) {
	if id, ok := table.StableID(); ok {
		ws, err := store.WorksheetByID(ctx, id)
		if err == nil {
			return ws, nil
		}
		if !errors.Is(err, common.ErrNotFound) {
			return Worksheet{}, fmt.Errorf("resolving %s by id: %w", table.Name, err)
		}
	}

	ws, err := store.WorksheetByName(ctx, table.Name)
	if err == nil {
		return ws, nil
	}
	if !errors.Is(err, common.ErrNotFound) {
		return Worksheet{}, fmt.Errorf("resolving %s by name: %w", table.Name, err)
	}

	return Worksheet{}, fmt.Errorf("%w: table %q (gid %q)", common.ErrResolution, table.Name, table.GID)
}
