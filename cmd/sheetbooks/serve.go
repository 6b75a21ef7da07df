package main

import (
	"context"
	"errors"
	"log/slog"

	"github.com/Veraticus/sheetbooks/internal/api"
	"github.com/Veraticus/sheetbooks/internal/backup"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"
)

func serveCmd() *cobra.Command {
	var (
		verify    bool
		noBackups bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the JSON API",
		Long: `Loads the main tables, warms the lookup tables in the background and
serves the JSON API under /v1. Scheduled backups run alongside the server
unless --no-backups is given.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := openSession(cmd.Context())
			if err != nil {
				return err
			}
			defer s.close()

			g, ctx := errgroup.WithContext(cmd.Context())

			if verify {
				if err := s.tables.VerifyAll(ctx, true); err != nil {
					slog.Warn("Some tables failed verification", "error", err)
				}
			}
			if err := s.tables.LoadInitial(ctx); err != nil {
				slog.Warn("Starting with partially loaded tables", "error", err)
			}
			go func() {
				if err := s.tables.Prewarm(ctx); err != nil {
					slog.Warn("Background table load failed", "error", err)
				}
			}()

			if !noBackups {
				scheduler := backup.NewScheduler(s.tables, s.tables.Registry().Names(), s.backup.Dir, s.backup.Frequency,
					backup.WithRetention(s.backup.Keep))
				g.Go(func() error {
					if err := scheduler.Run(ctx); !errors.Is(err, context.Canceled) {
						return err
					}
					return nil
				})
			}

			server := api.New(s.tables,
				api.WithRoster(s.roster),
				api.WithBackupDir(s.backup.Dir),
				api.WithVersion(version),
			)
			g.Go(func() error {
				return server.Run(ctx, viper.GetString("server.addr"))
			})

			return g.Wait()
		},
	}

	cmd.Flags().String("addr", ":8080", "listen address")
	cmd.Flags().BoolVar(&verify, "verify", false, "verify and create tables before serving")
	cmd.Flags().BoolVar(&noBackups, "no-backups", false, "disable scheduled backups")
	_ = viper.BindPFlag("server.addr", cmd.Flags().Lookup("addr"))

	return cmd
}
