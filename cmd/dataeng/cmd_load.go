package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/dpx190/data-eng-hw/internal/config"
	"github.com/dpx190/data-eng-hw/internal/db"
	"github.com/dpx190/data-eng-hw/internal/events"
	"github.com/dpx190/data-eng-hw/internal/ingest"
	"github.com/dpx190/data-eng-hw/internal/sequence"
)

func newLoadCmd(cfg config.Config, stdout io.Writer) *cobra.Command {
	var (
		datasetDir string
		force      bool
	)

	cmd := &cobra.Command{
		Use:   "load",
		Short: "Preprocess the CSV dataset and bulk-load it into Postgres",
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

			var pub ingest.Publisher
			if cfg.AMQPURL != "" {
				conn, err := events.Dial(cfg.AMQPURL)
				if err != nil {
					return fmt.Errorf("amqp connect: %w", err)
				}
				defer conn.Close()

				p, err := events.NewPublisher(conn, sequence.NewRepository(pool))
				if err != nil {
					return fmt.Errorf("amqp publisher: %w", err)
				}
				defer p.Close()
				pub = p
			}

			repo := ingest.NewPostgresRepository(pool)
			svc := ingest.NewService(repo, pub, logger)

			sum, err := svc.Run(ctx, datasetDir, force)
			if err != nil {
				return err
			}

			fmt.Fprintf(stdout, "run %s: loaded %d files (%d rows), skipped %d, dropped %d malformed rows\n",
				sum.RunID, sum.FilesLoaded, sum.RowsLoaded, sum.FilesSkipped, sum.RowsDropped)
			return nil
		},
	}

	cmd.Flags().StringVar(&datasetDir, "dataset", cfg.DatasetDir, "Directory holding the CSV data files")
	cmd.Flags().BoolVar(&force, "force", false, "Truncate the data tables and reload everything")
	return cmd
}
