package main

import (
	"fmt"
	"portfoliobacktest/internal/config"
	"portfoliobacktest/internal/domain"
	l3_service "portfoliobacktest/internal/service/l3"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
)

// backtestFlags override the backtest section of the config
type backtestFlags struct {
	weights           map[string]string
	start             string
	end               string
	rebalance         string
	initialInvestment float64
	benchmarks        []string
	riskFreeRate      float64
	wholeShares       bool
	normalizeWeights  bool
}

func (f *backtestFlags) register(flags *pflag.FlagSet) {
	flags.StringToStringVarP(&f.weights, "weights", "w", nil, "ticker weights, e.g. VTI=0.6,BND=0.4")
	flags.StringVar(&f.start, "start", "", "start date (YYYY-MM-DD)")
	flags.StringVar(&f.end, "end", "", "end date (YYYY-MM-DD)")
	flags.StringVarP(&f.rebalance, "rebalance", "r", "", "none | monthly | quarterly | annual")
	flags.Float64Var(&f.initialInvestment, "initial", 0, "initial investment")
	flags.StringSliceVar(&f.benchmarks, "benchmarks", nil, "benchmark symbols")
	flags.Float64Var(&f.riskFreeRate, "risk-free-rate", 0, "annual risk-free rate, e.g. 0.02")
	flags.BoolVar(&f.wholeShares, "whole-shares", false, "only buy whole shares")
	flags.BoolVar(&f.normalizeWeights, "normalize-weights", false, "rescale weights that do not sum to 1")
}

func parseWeights(in map[string]string) (map[string]float64, error) {
	out := map[string]float64{}
	for ticker, raw := range in {
		w, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return nil, domain.ConfigError{Field: "weights", Reason: fmt.Sprintf("invalid weight %q for %s", raw, ticker)}
		}
		out[strings.ToUpper(strings.TrimSpace(ticker))] = w
	}
	return out, nil
}

// apply copies the flags that were set onto cfg
func (f backtestFlags) apply(flags *pflag.FlagSet, cfg *config.Config) error {
	if flags.Changed("weights") {
		weights, err := parseWeights(f.weights)
		if err != nil {
			return err
		}
		cfg.Backtest.Weights = weights
	}
	if flags.Changed("start") {
		cfg.Backtest.Start = f.start
	}
	if flags.Changed("end") {
		cfg.Backtest.End = f.end
	}
	if flags.Changed("rebalance") {
		cfg.Backtest.Rebalance = f.rebalance
	}
	if flags.Changed("initial") {
		cfg.Backtest.InitialInvestment = f.initialInvestment
	}
	if flags.Changed("benchmarks") {
		cfg.Backtest.Benchmarks = f.benchmarks
	}
	if flags.Changed("risk-free-rate") {
		rate := f.riskFreeRate
		cfg.Backtest.RiskFreeRate = &rate
	}
	if flags.Changed("whole-shares") {
		cfg.Backtest.WholeShares = f.wholeShares
	}
	if flags.Changed("normalize-weights") {
		cfg.Backtest.NormalizeWeights = f.normalizeWeights
	}
	return nil
}

func backtestInputFromConfig(cfg config.Config, now time.Time) (*l3_service.BacktestInput, error) {
	allocation, err := cfg.Allocation(now)
	if err != nil {
		return nil, err
	}
	return &l3_service.BacktestInput{
		Allocation:   *allocation,
		Benchmarks:   cfg.Backtest.Benchmarks,
		Blends:       l3_service.DefaultBenchmarkBlends(cfg.Backtest.Benchmarks),
		RiskFreeRate: cfg.Backtest.RiskFreeRate,
	}, nil
}
