// Package api exposes the table and finance operations over a JSON HTTP API.
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/Veraticus/sheetbooks/internal/finance"
	"github.com/Veraticus/sheetbooks/internal/model"
	"github.com/Veraticus/sheetbooks/internal/schema"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Tables is the sync layer the API drives.
type Tables interface {
	Read(ctx context.Context, table string, force bool) (model.Frame, error)
	WriteReplace(ctx context.Context, table string, rows []model.Values) error
	Append(ctx context.Context, table string, values model.Values) error
	Delete(ctx context.Context, table string, indices []int) error
	VerifyAndRepair(ctx context.Context, table string) error
	AddVocabulary(ctx context.Context, table, value string) error
	Registry() *schema.Registry
}

// Server holds the handler dependencies.
type Server struct {
	tables    Tables
	roster    finance.Roster
	logger    *slog.Logger
	now       func() time.Time
	backupDir string
	version   string
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) { s.logger = logger }
}

// WithRoster sets the productivity roster.
func WithRoster(roster finance.Roster) Option {
	return func(s *Server) { s.roster = roster }
}

// WithBackupDir enables the backup endpoints.
func WithBackupDir(dir string) Option {
	return func(s *Server) { s.backupDir = dir }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

// WithVersion sets the version reported by the health check.
func WithVersion(version string) Option {
	return func(s *Server) { s.version = version }
}

// New creates a Server.
func New(tables Tables, opts ...Option) *Server {
	s := &Server{
		tables:  tables,
		roster:  finance.DefaultRoster(),
		logger:  slog.Default(),
		now:     time.Now,
		version: "dev",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Route("/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		r.Route("/tables", func(r chi.Router) {
			r.Get("/", s.handleListTables)
			r.Route("/{table}", func(r chi.Router) {
				r.Use(s.requireTable)
				r.Get("/", s.handleReadTable)
				r.Put("/", s.handleReplaceTable)
				r.Post("/rows", s.handleAppendRow)
				r.Delete("/rows", s.handleDeleteRows)
				r.Post("/verify", s.handleVerifyTable)
				r.Post("/vocabulary", s.handleAddVocabulary)
				r.Get("/aggregate", s.handleAggregate)
			})
		})

		r.Post("/expenses/installments", s.handleInstallments)
		r.Get("/summary", s.handleSummary)
		r.Get("/series", s.handleMonthlySeries)
		r.Get("/productivity", s.handleProductivity)
		r.Get("/projects/{id}", s.handleGetProject)
		r.Put("/projects/{id}", s.handleUpdateProject)
		r.Get("/reports/xlsx", s.handleReport)

		r.Route("/backups", func(r chi.Router) {
			r.Use(s.requireBackups)
			r.Get("/", s.handleListBackups)
			r.Post("/", s.handleCreateBackup)
			r.Post("/{name}/restore", s.handleRestoreBackup)
		})
	})

	return r
}

// Run serves on addr until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		WriteTimeout: 120 * time.Second,
		ReadTimeout:  40 * time.Second,
		IdleTimeout:  time.Minute,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Server started", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server stopped: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down server: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("Request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()))
	})
}

func (s *Server) requireTable(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		table := chi.URLParam(r, "table")
		if _, ok := s.tables.Registry().Lookup(table); !ok {
			writeJSONError(w, http.StatusNotFound, fmt.Sprintf("unknown table %q", table))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) requireBackups(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.backupDir == "" {
			writeJSONError(w, http.StatusNotImplemented, "backups are not configured")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeData(w, http.StatusOK, map[string]string{
		"status":  "available",
		"version": s.version,
	}, "")
}
