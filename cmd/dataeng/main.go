// dataeng loads the homework CSV dataset into Postgres and answers the six
// analytics questions over it.
package main

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/dpx190/data-eng-hw/internal/config"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run executes the dataeng CLI with the given args.
func run(args []string, stdout, stderr io.Writer) int {
	root := newRootCmd(stdout, stderr)
	if args == nil {
		args = []string{}
	}
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	if err := root.Execute(); err != nil {
		fmt.Fprintf(stderr, "dataeng: %v\n", err)
		return 1
	}
	return 0
}

// newRootCmd creates the root cobra command with all subcommands.
func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	cfg := config.Load()

	root := &cobra.Command{
		Use:           "dataeng",
		Short:         "CSV-to-Postgres ETL and analytics for the marketing events dataset",
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	root.PersistentFlags().String("dsn", cfg.DatabaseDSN, "Postgres DSN")

	root.AddCommand(
		newMigrateCmd(stdout),
		newLoadCmd(cfg, stdout),
		newReportCmd(stdout),
		newServeCmd(cfg, stdout),
	)
	return root
}

func newLogger(w io.Writer) *log.Logger {
	return log.New(w, "", log.LstdFlags|log.Lmicroseconds)
}

func dsnFlag(cmd *cobra.Command) string {
	dsn, _ := cmd.Flags().GetString("dsn")
	return dsn
}
