package main

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/dpx190/data-eng-hw/internal/db"
)

func newMigrateCmd(stdout io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the embedded schema migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return db.RunMigrations(dsnFlag(cmd), newLogger(stdout))
		},
	}
}
