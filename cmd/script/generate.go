package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"portfoliobacktest/cmd"
	"portfoliobacktest/internal/export"
	"portfoliobacktest/internal/logger"
	"time"

	"github.com/spf13/cobra"
)

// chartFileName sits next to the json files of the static site
const chartFileName = "portfolio.png"

func newGenerateCmd(loadDeps func() (*cmd.Dependencies, error)) *cobra.Command {
	var (
		flags  backtestFlags
		outDir string
	)

	c := &cobra.Command{
		Use:   "generate",
		Short: "run a backtest and write the static dashboard data",
		RunE: func(c *cobra.Command, args []string) error {
			deps, err := loadDeps()
			if err != nil {
				return err
			}
			defer cmd.CloseDependencies(deps)

			if err := flags.apply(c.Flags(), deps.Config); err != nil {
				return err
			}
			if outDir == "" {
				outDir = filepath.Join(deps.Config.DataDir, "site")
			}

			now := time.Now()
			in, err := backtestInputFromConfig(*deps.Config, now)
			if err != nil {
				return err
			}
			ctx := logger.NewContext(context.Background(), deps.ApiHandler.Logger)
			result, err := deps.BacktestService.Run(ctx, *in)
			if err != nil {
				return fmt.Errorf("failed to run backtest: %w", err)
			}

			if err := export.WriteStaticSite(outDir, result, now); err != nil {
				return err
			}
			png, err := export.RenderValueChart(result)
			if err != nil {
				return err
			}
			if err := os.WriteFile(filepath.Join(outDir, chartFileName), png, 0644); err != nil {
				return fmt.Errorf("failed to write chart: %w", err)
			}

			deps.ApiHandler.Logger.Infow("generated static site", "dir", outDir, "runID", result.RunID.String())
			return nil
		},
	}

	flags.register(c.Flags())
	c.Flags().StringVarP(&outDir, "out", "o", "", "output directory (defaults to <data_dir>/site)")
	return c
}
