package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dpx190/data-eng-hw/internal/db"
	"github.com/dpx190/data-eng-hw/internal/report"
)

// reportParams carries the flag-tunable inputs for the six questions.
type reportParams struct {
	provider string
	date     string
	property string
	value    string
	limit    int
}

var reportNames = []string{
	"unique-users",
	"providers",
	"top-property",
	"impressions",
	"top-ad",
	"top-ads",
}

func newReportCmd(stdout io.Writer) *cobra.Command {
	params := reportParams{}

	cmd := &cobra.Command{
		Use:       "report [name]",
		Short:     "Answer the analytics questions; runs all of them without a name",
		ValidArgs: reportNames,
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			pool, err := db.NewPool(ctx, dsnFlag(cmd))
			if err != nil {
				return fmt.Errorf("db connect: %w", err)
			}
			defer pool.Close()

			repo := report.NewPostgresRepository(pool)

			names := reportNames
			if len(args) == 1 {
				names = args
			}
			for _, name := range names {
				if err := runReport(ctx, repo, name, params, stdout); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&params.provider, "provider", report.DefaultProvider, "Ad provider for the impressions report")
	cmd.Flags().StringVar(&params.date, "date", report.DefaultDate, "Calendar date (YYYY-MM-DD) for the impressions report")
	cmd.Flags().StringVar(&params.property, "property", report.DefaultProperty, "User property for the top-ad report")
	cmd.Flags().StringVar(&params.value, "value", report.DefaultValue, "Property value for the top-ad report")
	cmd.Flags().IntVar(&params.limit, "limit", report.DefaultTopAds, "Number of ads for the top-ads report")
	return cmd
}

func runReport(ctx context.Context, repo report.Repository, name string, params reportParams, stdout io.Writer) error {
	switch name {
	case "unique-users":
		n, err := repo.UniqueUsers(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "There are %d unique users\n", n)

	case "providers":
		providers, err := repo.DistinctProviders(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "The distinct ad providers are [%s]\n", strings.Join(providers, ", "))

	case "top-property":
		pc, err := repo.MostChangedProperty(ctx)
		if err != nil {
			return noDataHint(err)
		}
		fmt.Fprintf(stdout, "The most changed property is %s (%d changes)\n", pc.Property, pc.Count)

	case "impressions":
		n, err := repo.ImpressionCount(ctx, params.provider, params.date)
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "%d users were shown a %s ad on %s\n", n, params.provider, params.date)

	case "top-ad":
		ac, err := repo.TopAdForSegment(ctx, params.property, params.value)
		if err != nil {
			return noDataHint(err)
		}
		fmt.Fprintf(stdout, "The most shown ad to %s=%s users is %s (%d impressions)\n",
			params.property, params.value, ac.AdID, ac.Count)

	case "top-ads":
		ads, err := repo.TopAdsByReach(ctx, params.limit)
		if err != nil {
			return err
		}
		ids := make([]string, 0, len(ads))
		for _, a := range ads {
			ids = append(ids, a.AdID)
		}
		fmt.Fprintf(stdout, "The %d most successful ads are [%s]\n", params.limit, strings.Join(ids, ", "))

	default:
		return fmt.Errorf("unknown report %q", name)
	}
	return nil
}

func noDataHint(err error) error {
	if errors.Is(err, report.ErrNoData) {
		return errors.New("no data loaded yet; run `dataeng load` first")
	}
	return err
}
