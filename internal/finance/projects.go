package finance

import (
	"fmt"
	"strings"

	"github.com/Veraticus/sheetbooks/internal/common"
	"github.com/Veraticus/sheetbooks/internal/model"
)

// FindProject returns the index and parsed row of the project with id.
func FindProject(frame model.Frame, id string) (int, model.Project, error) {
	id = strings.TrimSpace(id)
	for i, rec := range frame.Records {
		if strings.TrimSpace(rec[model.ColProject]) == id && id != "" {
			return i, model.ProjectFromRecord(rec), nil
		}
	}
	return -1, model.Project{}, fmt.Errorf("project %q: %w", id, common.ErrNotFound)
}

// ValidateProjectIDs checks that every project row has a non-empty id and
// that no id repeats. Edits join on the id, so both must hold before a
// table rewrite.
func ValidateProjectIDs(frame model.Frame) error {
	seen := make(map[string]int, frame.Len())
	for i, rec := range frame.Records {
		id := strings.TrimSpace(rec[model.ColProject])
		if id == "" {
			return common.NewUserError(fmt.Sprintf("project at row %d has no id", i+1), nil)
		}
		if first, dup := seen[id]; dup {
			return common.NewUserError(
				fmt.Sprintf("project id %q is used by rows %d and %d", id, first+1, i+1),
				common.ErrDuplicateEntry)
		}
		seen[id] = i
	}
	return nil
}

// UpdateProject replaces the project with the same id and returns the rows
// to write back, ready for a full-table replace.
func UpdateProject(frame model.Frame, project model.Project) ([]model.Values, error) {
	if err := ValidateProjectIDs(frame); err != nil {
		return nil, err
	}
	i, _, err := FindProject(frame, project.ID)
	if err != nil {
		return nil, err
	}

	rows := frame.Values()
	rows[i] = project.Values()
	return rows, nil
}
