// Package backup writes full snapshots of every logical table to local JSON
// files and restores them.
package backup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Veraticus/sheetbooks/internal/codec"
	"github.com/Veraticus/sheetbooks/internal/model"
	"golang.org/x/sync/errgroup"
)

const (
	timestampLayout = "20060102_150405"
	filePrefix      = "backup_"
	fileSuffix      = ".json"
)

// ErrNoBackup is returned when a backup file does not exist.
var ErrNoBackup = errors.New("backup not found")

// Reader loads the current contents of a logical table.
type Reader interface {
	Read(ctx context.Context, table string, force bool) (model.Frame, error)
}

// Writer replaces the contents of a logical table.
type Writer interface {
	WriteReplace(ctx context.Context, table string, rows []model.Values) error
}

// Info describes one backup file.
type Info struct {
	CreatedAt time.Time `json:"created_at"`
	Path      string    `json:"path"`
	Name      string    `json:"name"`
	Size      int64     `json:"size"`
}

// Result reports what a backup run wrote.
type Result struct {
	Rows    map[string]int
	Skipped map[string]error
	Path    string
}

// Snapshot maps logical table names to their restored contents.
type Snapshot map[string]model.Frame

// Tables returns the snapshot's table names, sorted.
func (s Snapshot) Tables() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// FileName returns the backup file name for a point in time.
func FileName(at time.Time) string {
	return filePrefix + at.Format(timestampLayout) + fileSuffix
}

// ParseFileName extracts the timestamp embedded in a backup file name.
func ParseFileName(name string) (time.Time, bool) {
	if !strings.HasPrefix(name, filePrefix) || !strings.HasSuffix(name, fileSuffix) {
		return time.Time{}, false
	}
	stamp := strings.TrimSuffix(strings.TrimPrefix(name, filePrefix), fileSuffix)
	at, err := time.ParseInLocation(timestampLayout, stamp, time.Local)
	if err != nil {
		return time.Time{}, false
	}
	return at, true
}

// Create reads every table freshly from the remote store and writes them to
// one file in dir. Tables that cannot be read are skipped and reported; the
// run fails only when no table could be read.
func Create(ctx context.Context, reader Reader, tables []string, dir string, at time.Time) (*Result, error) {
	if len(tables) == 0 {
		return nil, errors.New("no tables to back up")
	}

	var (
		mu      sync.Mutex
		data    = make(map[string][]model.Record, len(tables))
		skipped = make(map[string]error)
	)

	var g errgroup.Group
	g.SetLimit(4)
	for _, table := range tables {
		g.Go(func() error {
			frame, err := reader.Read(ctx, table, true)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				slog.Warn("Skipping table in backup", "table", table, "error", err)
				skipped[table] = err
				return nil
			}
			records := frame.Records
			if records == nil {
				records = []model.Record{}
			}
			data[table] = records
			return nil
		})
	}
	_ = g.Wait()

	if len(data) == 0 {
		return nil, fmt.Errorf("backup failed: no table could be read: %w", joinSkipped(skipped))
	}

	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create backup directory: %w", err)
	}

	path := filepath.Join(dir, FileName(at))
	raw, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode backup: %w", err)
	}
	if err := os.WriteFile(path, raw, 0600); err != nil {
		return nil, fmt.Errorf("failed to write backup: %w", err)
	}

	result := &Result{Path: path, Rows: make(map[string]int, len(data)), Skipped: skipped}
	for table, records := range data {
		result.Rows[table] = len(records)
	}

	slog.Info("Backup created", "path", path, "tables", len(data), "skipped", len(skipped))
	return result, nil
}

// List returns the backups in dir, newest first. A missing directory has no
// backups.
func List(dir string) ([]Info, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list backups: %w", err)
	}

	var infos []Info
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		at, ok := ParseFileName(entry.Name())
		if !ok {
			continue
		}
		info := Info{Name: entry.Name(), Path: filepath.Join(dir, entry.Name()), CreatedAt: at}
		if fi, err := entry.Info(); err == nil {
			info.Size = fi.Size()
		}
		infos = append(infos, info)
	}

	slices.SortFunc(infos, func(a, b Info) int {
		return strings.Compare(b.Name, a.Name)
	})
	return infos, nil
}

// Restore loads a backup file. Cell values are normalized to their wire
// form, so files holding numbers or nulls load the same as string ones.
func Restore(path string) (Snapshot, error) {
	raw, err := os.ReadFile(path) // #nosec G304
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNoBackup, path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read backup: %w", err)
	}

	var data map[string][]map[string]any
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("failed to decode backup %s: %w", filepath.Base(path), err)
	}

	snapshot := make(Snapshot, len(data))
	for table, rows := range data {
		frame := model.Frame{Records: make([]model.Record, 0, len(rows))}
		var columns []string
		for _, row := range rows {
			rec := make(model.Record, len(row))
			for col, v := range row {
				rec[col] = codec.FormatValue(v)
				if !slices.Contains(columns, col) {
					columns = append(columns, col)
				}
			}
			frame.Records = append(frame.Records, rec)
		}
		sort.Strings(columns)
		frame.Columns = columns
		snapshot[table] = frame
	}
	return snapshot, nil
}

// Apply feeds every table of a snapshot into a full-table replace. Tables
// are independent: a failure on one does not stop the others.
func Apply(ctx context.Context, writer Writer, snapshot Snapshot) (int, error) {
	var (
		restored int
		errs     []error
	)
	for _, table := range snapshot.Tables() {
		frame := snapshot[table]
		if err := writer.WriteReplace(ctx, table, frame.Values()); err != nil {
			errs = append(errs, fmt.Errorf("restore %s: %w", table, err))
			continue
		}
		restored++
	}
	return restored, errors.Join(errs...)
}

// Prune deletes all but the newest keep backups in dir.
func Prune(dir string, keep int) ([]string, error) {
	if keep <= 0 {
		return nil, nil
	}
	infos, err := List(dir)
	if err != nil {
		return nil, err
	}

	var removed []string
	for _, info := range infos[min(keep, len(infos)):] {
		if err := os.Remove(info.Path); err != nil {
			return removed, fmt.Errorf("failed to remove %s: %w", info.Name, err)
		}
		removed = append(removed, info.Path)
	}
	return removed, nil
}

func joinSkipped(skipped map[string]error) error {
	names := make([]string, 0, len(skipped))
	for name := range skipped {
		names = append(names, name)
	}
	sort.Strings(names)

	errs := make([]error, 0, len(names))
	for _, name := range names {
		errs = append(errs, fmt.Errorf("%s: %w", name, skipped[name]))
	}
	return errors.Join(errs...)
}
