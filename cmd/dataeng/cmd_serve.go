package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/dpx190/data-eng-hw/internal/config"
	"github.com/dpx190/data-eng-hw/internal/db"
	httpapi "github.com/dpx190/data-eng-hw/internal/http"
	"github.com/dpx190/data-eng-hw/internal/report"
)

func newServeCmd(cfg config.Config, stdout io.Writer) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the analytics reports over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			dsn := dsnFlag(cmd)
			logger := newLogger(stdout)

			if cfg.RunMigrations {
				if err := db.RunMigrations(dsn, logger); err != nil {
					return fmt.Errorf("migrate: %w", err)
				}
			}

			pool, err := db.NewPool(ctx, dsn)
			if err != nil {
				return fmt.Errorf("db connect: %w", err)
			}
			defer pool.Close()

			h := httpapi.NewHandler(report.NewPostgresRepository(pool))
			r := httpapi.NewRouter(h)

			httpServer := &http.Server{
				Addr:              addr,
				Handler:           r,
				ReadHeaderTimeout: 5 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				logger.Printf("http listening on %s", addr)
				if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
			}()

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

			select {
			case sig := <-sigCh:
				logger.Printf("shutdown signal: %s", sig)
			case err := <-errCh:
				return fmt.Errorf("http server: %w", err)
			case <-ctx.Done():
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			if err := httpServer.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("shutdown: %w", err)
			}
			logger.Printf("shutdown complete")
			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "addr", cfg.HTTPAddr, "HTTP listen address")
	return cmd
}
