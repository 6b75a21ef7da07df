package tablesync

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Veraticus/sheetbooks/internal/common"
	"github.com/Veraticus/sheetbooks/internal/model"
	"golang.org/x/sync/errgroup"
)

// InitialTables are loaded when a session starts.
var InitialTables = []string{model.TableRevenues, model.TableExpenses, model.TableProjects}

// PrewarmTables are loaded in the background after a session starts.
var PrewarmTables = []string{
	model.TableRevenueCategories,
	model.TableExpenseCategories,
	model.TableSuppliers,
	model.TableClients,
}

// LoadInitial reads the main tables into the cache. Every table is
// attempted; failures are joined.
func (s *SyncContext) LoadInitial(ctx context.Context) error {
	var errs []error
	for _, table := range InitialTables {
		if _, err := s.Read(ctx, table, false); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Prewarm loads the lookup tables concurrently. It only populates the cache,
// so it is safe to run alongside foreground work. A failing table does not
// stop the others; every failure is reported.
func (s *SyncContext) Prewarm(ctx context.Context) error {
	var g errgroup.Group
	errs := make([]error, len(PrewarmTables))
	for i, table := range PrewarmTables {
		g.Go(func() error {
			_, err := s.Read(ctx, table, false)
			errs[i] = err
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return errors.Join(errs...)
	}
	return nil
}

// AddVocabulary appends value to a single-column lookup table (categories,
// suppliers) unless it is already present, compared case-insensitively.
func (s *SyncContext) AddVocabulary(ctx context.Context, table, value string) error {
	value = strings.TrimSpace(value)
	if value == "" {
		return common.NewUserError("value cannot be empty", nil)
	}

	columns := s.registry.Columns(table)
	if len(columns) != 1 {
		return fmt.Errorf("add to %s: %w: not a single-column lookup table", table, common.ErrInvalidConfig)
	}
	column := columns[0]

	frame, err := s.Read(ctx, table, true)
	if err != nil {
		return err
	}
	for _, existing := range frame.Column(column) {
		if strings.EqualFold(strings.TrimSpace(existing), value) {
			return fmt.Errorf("add to %s: %w: %q", table, common.ErrDuplicateEntry, value)
		}
	}

	return s.Append(ctx, table, model.Values{column: value})
}

// Vocabulary returns the distinct non-empty values of a lookup table.
func (s *SyncContext) Vocabulary(ctx context.Context, table string) ([]string, error) {
	columns := s.registry.Columns(table)
	if len(columns) == 0 {
		return nil, fmt.Errorf("vocabulary %s: %w", table, common.ErrNotFound)
	}

	frame, err := s.Read(ctx, table, false)
	seen := make(map[string]bool)
	var values []string
	for _, v := range frame.Column(columns[0]) {
		v = strings.TrimSpace(v)
		if v != "" && !seen[v] {
			seen[v] = true
			values = append(values, v)
		}
	}
	return values, err
}
