// Package tablesync keeps a session's table cache coherent with the remote
// spreadsheet: reads through the cache, full-table replace, schema-aware
// append, row deletion and schema drift repair.
package tablesync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Veraticus/sheetbooks/internal/cache"
	"github.com/Veraticus/sheetbooks/internal/common"
	"github.com/Veraticus/sheetbooks/internal/schema"
	"github.com/Veraticus/sheetbooks/internal/sheets"
)

// SyncContext is the per-session state shared by every operation: the store
// connection, the table cache and the resolved worksheet handles. Writes are
// serialized; reads may run concurrently.
type SyncContext struct {
	connector  *sheets.Connector
	registry   *schema.Registry
	cache      *cache.Tables
	logger     *slog.Logger
	now        func() time.Time
	worksheets map[string]sheets.Worksheet
	driftDir   string
	wsMu       sync.Mutex
	writeMu    sync.Mutex
}

// Option configures a SyncContext.
type Option func(*SyncContext)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *SyncContext) { s.logger = logger }
}

// WithCache replaces the default unbounded cache.
func WithCache(c *cache.Tables) Option {
	return func(s *SyncContext) { s.cache = c }
}

// WithDriftDir enables CSV snapshots of a worksheet's contents before its
// header is rewritten.
func WithDriftDir(dir string) Option {
	return func(s *SyncContext) { s.driftDir = dir }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *SyncContext) { s.now = now }
}

// New creates a SyncContext.
func New(connector *sheets.Connector, registry *schema.Registry, opts ...Option) *SyncContext {
	s := &SyncContext{
		connector:  connector,
		registry:   registry,
		cache:      cache.New(),
		logger:     slog.Default(),
		now:        time.Now,
		worksheets: make(map[string]sheets.Worksheet),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Registry returns the schema registry in use.
func (s *SyncContext) Registry() *schema.Registry {
	return s.registry
}

// Cache returns the table cache.
func (s *SyncContext) Cache() *cache.Tables {
	return s.cache
}

// Invalidate drops the cached frame of table.
func (s *SyncContext) Invalidate(table string) {
	s.cache.Invalidate(table)
}

// Reconnect forces a new connection and forgets every resolved worksheet.
func (s *SyncContext) Reconnect(ctx context.Context) error {
	s.wsMu.Lock()
	s.worksheets = make(map[string]sheets.Worksheet)
	s.wsMu.Unlock()

	_, err := s.connector.Connect(ctx, true)
	return err
}

// table returns the registered definition, or a bare one for tables the
// registry does not know.
func (s *SyncContext) table(name string) schema.Table {
	if def, ok := s.registry.Lookup(name); ok {
		return def
	}
	return schema.Table{Name: name}
}

// target connects and resolves the worksheet backing table.
func (s *SyncContext) target(ctx context.Context, table string) (sheets.Store, sheets.Worksheet, error) {
	store, err := s.connector.Connect(ctx, false)
	if err != nil {
		return nil, sheets.Worksheet{}, err
	}

	s.wsMu.Lock()
	ws, ok := s.worksheets[table]
	s.wsMu.Unlock()
	if ok {
		return store, ws, nil
	}

	ws, err = sheets.Resolve(ctx, store, s.table(table))
	if err != nil {
		return nil, sheets.Worksheet{}, err
	}

	s.wsMu.Lock()
	s.worksheets[table] = ws
	s.wsMu.Unlock()
	return store, ws, nil
}

func (s *SyncContext) remember(table string, ws sheets.Worksheet) {
	s.wsMu.Lock()
	defer s.wsMu.Unlock()
	s.worksheets[table] = ws
}

// forgetOnMiss drops a cached handle whose worksheet has disappeared.
func (s *SyncContext) forgetOnMiss(table string, err error) {
	if !errors.Is(err, common.ErrNotFound) {
		return
	}
	s.wsMu.Lock()
	defer s.wsMu.Unlock()
	delete(s.worksheets, table)
}

func opError(op, table string, err error) error {
	return fmt.Errorf("%s %s: %w", op, table, err)
}
