package backup

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// Frequency is how often scheduled backups run.
type Frequency string

// Supported frequencies.
const (
	Daily   Frequency = "daily"
	Weekly  Frequency = "weekly"
	Monthly Frequency = "monthly"
)

// ParseFrequency accepts the English names and the Portuguese ones used by
// the admin page (diária, semanal, mensal).
func ParseFrequency(s string) (Frequency, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "daily", "diaria", "diária":
		return Daily, nil
	case "weekly", "semanal":
		return Weekly, nil
	case "monthly", "mensal":
		return Monthly, nil
	}
	return "", fmt.Errorf("unknown backup frequency %q", s)
}

// Next returns the first run time after t.
func (f Frequency) Next(t time.Time) time.Time {
	switch f {
	case Weekly:
		return t.AddDate(0, 0, 7)
	case Monthly:
		return t.AddDate(0, 1, 0)
	default:
		return t.AddDate(0, 0, 1)
	}
}

// Scheduler takes a backup at a fixed frequency until its context ends.
type Scheduler struct {
	reader    Reader
	now       func() time.Time
	logger    *slog.Logger
	onBackup  func(*Result, error)
	dir       string
	frequency Frequency
	tables    []string
	keep      int
}

// SchedulerOption configures a Scheduler.
type SchedulerOption func(*Scheduler)

// WithRetention keeps only the newest keep backups after each run.
func WithRetention(keep int) SchedulerOption {
	return func(s *Scheduler) { s.keep = keep }
}

// WithSchedulerClock overrides the time source.
func WithSchedulerClock(now func() time.Time) SchedulerOption {
	return func(s *Scheduler) { s.now = now }
}

// WithBackupHook is called after every scheduled run.
func WithBackupHook(fn func(*Result, error)) SchedulerOption {
	return func(s *Scheduler) { s.onBackup = fn }
}

// NewScheduler creates a scheduler for the given tables.
func NewScheduler(reader Reader, tables []string, dir string, frequency Frequency, opts ...SchedulerOption) *Scheduler {
	s := &Scheduler{
		reader:    reader,
		tables:    tables,
		dir:       dir,
		frequency: frequency,
		now:       time.Now,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RunOnce takes a backup now and applies retention.
func (s *Scheduler) RunOnce(ctx context.Context) (*Result, error) {
	result, err := Create(ctx, s.reader, s.tables, s.dir, s.now())
	if err == nil && s.keep > 0 {
		removed, pruneErr := Prune(s.dir, s.keep)
		if pruneErr != nil {
			s.logger.Warn("Failed to prune old backups", "error", pruneErr)
		} else if len(removed) > 0 {
			s.logger.Info("Pruned old backups", "removed", len(removed))
		}
	}
	if s.onBackup != nil {
		s.onBackup(result, err)
	}
	return result, err
}

// Run blocks, taking one backup per period, until ctx is done.
func (s *Scheduler) Run(ctx context.Context) error {
	next := s.frequency.Next(s.now())
	s.logger.Info("Backup scheduler started", "frequency", s.frequency, "next", next.Format(time.RFC3339))

	for {
		timer := time.NewTimer(max(next.Sub(s.now()), 0))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		if _, err := s.RunOnce(ctx); err != nil {
			s.logger.Warn("Scheduled backup failed", "error", err)
		}
		next = s.frequency.Next(next)
	}
}
