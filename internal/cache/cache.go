// Package cache holds the most recently read frame of each logical table for
// the lifetime of a session.
package cache

import (
	"slices"
	"sync"
	"time"

	"github.com/Veraticus/sheetbooks/internal/model"
)

type entry struct {
	loaded time.Time
	frame  model.Frame
}

// Tables maps logical table names to their cached frame. A table that was
// loaded and found empty is a hit; only absence is a miss.
//
// Every table also carries a generation that Invalidate and Clear advance.
// A reader that fetched remotely stores its result with PutIfGeneration, so
// a fetch that overlapped a write cannot bring back pre-write contents.
type Tables struct {
	entries map[string]entry
	gens    map[string]uint64
	now     func() time.Time
	ttl     time.Duration
	version uint64
	cleared uint64
	mu      sync.RWMutex
}

// Option configures a Tables cache.
type Option func(*Tables)

// WithTTL expires entries after ttl. Zero keeps entries until invalidated.
func WithTTL(ttl time.Duration) Option {
	return func(t *Tables) { t.ttl = ttl }
}

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(t *Tables) { t.now = now }
}

// New creates an empty cache.
func New(opts ...Option) *Tables {
	t := &Tables{
		entries: make(map[string]entry),
		gens:    make(map[string]uint64),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Get returns a copy of the cached frame for table.
func (t *Tables) Get(table string) (model.Frame, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	e, ok := t.entries[table]
	if !ok {
		return model.Frame{}, false
	}
	if t.ttl > 0 && t.now().Sub(e.loaded) > t.ttl {
		return model.Frame{}, false
	}
	return e.frame.Clone(), true
}

// Put stores a copy of frame as the current contents of table.
func (t *Tables) Put(table string, frame model.Frame) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.entries[table] = entry{frame: frame.Clone(), loaded: t.now()}
}

// Generation returns the current generation of table. Record it before a
// remote fetch and hand it to PutIfGeneration afterwards.
func (t *Tables) Generation(table string) uint64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.generation(table)
}

func (t *Tables) generation(table string) uint64 {
	return max(t.gens[table], t.cleared)
}

// PutIfGeneration stores frame only if table has not been invalidated since
// gen was taken. It reports whether the frame was stored.
func (t *Tables) PutIfGeneration(table string, frame model.Frame, gen uint64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.generation(table) != gen {
		return false
	}
	t.entries[table] = entry{frame: frame.Clone(), loaded: t.now()}
	return true
}

// Invalidate drops the entry for table so the next read goes remote.
func (t *Tables) Invalidate(table string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	delete(t.entries, table)
	t.version++
	t.gens[table] = t.version
}

// Clear drops every entry.
func (t *Tables) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.entries = make(map[string]entry)
	t.gens = make(map[string]uint64)
	t.version++
	t.cleared = t.version
}

// Tables returns the names of the cached tables, sorted.
func (t *Tables) Tables() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	names := make([]string, 0, len(t.entries))
	for name := range t.entries {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
