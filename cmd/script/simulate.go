package main

import (
	"context"
	"fmt"
	"os"
	"portfoliobacktest/cmd"
	"portfoliobacktest/internal/domain"
	"portfoliobacktest/internal/export"
	"portfoliobacktest/internal/logger"
	"time"

	"github.com/spf13/cobra"
)

func newSimulateCmd(loadDeps func() (*cmd.Dependencies, error)) *cobra.Command {
	var (
		flags       backtestFlags
		csvPath     string
		holdingsCsv string
		chartPath   string
	)

	c := &cobra.Command{
		Use:   "simulate",
		Short: "run a backtest and print the summary",
		RunE: func(c *cobra.Command, args []string) error {
			deps, err := loadDeps()
			if err != nil {
				return err
			}
			defer cmd.CloseDependencies(deps)

			if err := flags.apply(c.Flags(), deps.Config); err != nil {
				return err
			}
			in, err := backtestInputFromConfig(*deps.Config, time.Now())
			if err != nil {
				return err
			}

			profile, endProfile := domain.NewProfile()
			ctx := domain.NewCtxWithProfile(context.Background(), profile)
			ctx = logger.NewContext(ctx, deps.ApiHandler.Logger)

			result, err := deps.BacktestService.Run(ctx, *in)
			if err != nil {
				return fmt.Errorf("failed to run backtest: %w", err)
			}
			endProfile()

			out := c.OutOrStdout()
			if err := export.RenderSummary(out, result); err != nil {
				return err
			}
			fmt.Fprintln(out)
			if err := export.RenderMonthlyTable(out, result.Metrics.MonthlyReturns); err != nil {
				return err
			}

			if csvPath != "" {
				if err := writeFile(csvPath, func(f *os.File) error {
					return export.WriteRecordsCSV(f, result.Records)
				}); err != nil {
					return err
				}
			}
			if holdingsCsv != "" {
				if err := writeFile(holdingsCsv, func(f *os.File) error {
					return export.WriteHoldingsCSV(f, result.Records)
				}); err != nil {
					return err
				}
			}
			if chartPath != "" {
				png, err := export.RenderValueChart(result)
				if err != nil {
					return err
				}
				if err := os.WriteFile(chartPath, png, 0644); err != nil {
					return fmt.Errorf("failed to write chart: %w", err)
				}
			}

			deps.ApiHandler.Logger.Infow("finished backtest",
				"runID", result.RunID.String(),
				"records", len(result.Records),
				"rebalances", len(result.RebalanceDates),
				"totalMs", *profile.TotalMs,
			)
			return nil
		},
	}

	flags.register(c.Flags())
	c.Flags().StringVar(&csvPath, "csv", "", "write daily records to this csv file")
	c.Flags().StringVar(&holdingsCsv, "holdings-csv", "", "write per-ticker holdings to this csv file")
	c.Flags().StringVar(&chartPath, "chart", "", "write a png value chart to this file")
	return c
}

func writeFile(path string, write func(f *os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()
	if err := write(f); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
