package main

import (
	"context"
	"fmt"
	"portfoliobacktest/cmd"
	"portfoliobacktest/internal/logger"
	"sort"
	"time"

	"github.com/spf13/cobra"
)

func newFetchCmd(loadDeps func() (*cmd.Dependencies, error)) *cobra.Command {
	var (
		flags backtestFlags
		store bool
	)

	c := &cobra.Command{
		Use:   "fetch [symbols...]",
		Short: "download prices into the local cache, and optionally the database",
		RunE: func(c *cobra.Command, args []string) error {
			deps, err := loadDeps()
			if err != nil {
				return err
			}
			defer cmd.CloseDependencies(deps)

			if err := flags.apply(c.Flags(), deps.Config); err != nil {
				return err
			}
			allocation, err := deps.Config.Allocation(time.Now())
			if err != nil {
				return err
			}

			symbols := args
			if len(symbols) == 0 {
				symbols = configuredSymbols(deps.Config.Backtest.Weights, deps.Config.Backtest.Benchmarks)
			}
			if store && deps.PriceStore == nil {
				return fmt.Errorf("--store requires db.host to be set")
			}

			lg := deps.ApiHandler.Logger
			ctx := logger.NewContext(context.Background(), lg)

			prices, err := deps.PriceService.LoadPrices(ctx, symbols, allocation.Start, allocation.End)
			if err != nil {
				return fmt.Errorf("failed to load prices: %w", err)
			}
			for _, symbol := range symbols {
				lg.Infow("cached prices", "symbol", symbol, "count", len(prices[symbol]))
			}

			if !store {
				return nil
			}
			for _, symbol := range symbols {
				fetched, err := deps.YahooPrices.List(ctx, symbol, allocation.Start, allocation.End)
				if err != nil {
					return fmt.Errorf("failed to fetch %s: %w", symbol, err)
				}
				if err := deps.PriceStore.Add(ctx, fetched); err != nil {
					return fmt.Errorf("failed to store %s: %w", symbol, err)
				}
				lg.Infow("stored prices", "symbol", symbol, "count", len(fetched))
			}
			return nil
		},
	}

	flags.register(c.Flags())
	c.Flags().BoolVar(&store, "store", false, "also write the downloaded prices to the adjusted_price table")
	return c
}

// configuredSymbols is every ticker and benchmark, sorted and deduped
func configuredSymbols(weights map[string]float64, benchmarks []string) []string {
	set := map[string]struct{}{}
	for ticker := range weights {
		set[ticker] = struct{}{}
	}
	for _, b := range benchmarks {
		set[b] = struct{}{}
	}
	out := make([]string, 0, len(set))
	for s := range set {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}
