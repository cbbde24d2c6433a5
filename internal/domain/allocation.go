package domain

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"
)

type RebalanceFrequency string

const (
	RebalanceFrequency_None      RebalanceFrequency = "none"
	RebalanceFrequency_Monthly   RebalanceFrequency = "monthly"
	RebalanceFrequency_Quarterly RebalanceFrequency = "quarterly"
	RebalanceFrequency_Annual    RebalanceFrequency = "annual"
)

// WeightTolerance is how far the weights may sum away from 1
const WeightTolerance = 1e-6

// NewRebalanceFrequency accepts the long names plus the pandas-style
// period aliases the dashboard used (M, ME, Q, QE, A, Y, YE, N)
func NewRebalanceFrequency(s string) (RebalanceFrequency, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "none", "never", "n":
		return RebalanceFrequency_None, nil
	case "monthly", "month", "m", "me":
		return RebalanceFrequency_Monthly, nil
	case "quarterly", "quarter", "q", "qe":
		return RebalanceFrequency_Quarterly, nil
	case "annual", "annually", "yearly", "year", "a", "y", "ye":
		return RebalanceFrequency_Annual, nil
	}
	return "", ConfigError{
		Field:  "rebalanceFrequency",
		Reason: fmt.Sprintf("unknown rebalance frequency %q", s),
	}
}

func (f RebalanceFrequency) String() string {
	return string(f)
}

type AllocationConfig struct {
	Weights           map[string]float64
	InitialInvestment float64
	Frequency         RebalanceFrequency
	Start             time.Time
	End               time.Time

	// NormalizeWeights rescales weights that do not sum to 1 instead
	// of rejecting them
	NormalizeWeights bool
	// WholeShares buys integer share counts and keeps the remainder
	// as cash
	WholeShares bool
}

// Tickers returns the configured tickers in sorted order
func (c AllocationConfig) Tickers() []string {
	tickers := []string{}
	for ticker := range c.Weights {
		tickers = append(tickers, ticker)
	}
	sort.Strings(tickers)
	return tickers
}

// Validate checks the config and returns a copy whose weights are
// guaranteed to sum to 1
func (c AllocationConfig) Validate() (*AllocationConfig, error) {
	if len(c.Weights) == 0 {
		return nil, ConfigError{Field: "weights", Reason: "ticker set is empty"}
	}
	if !(c.InitialInvestment > 0) || math.IsInf(c.InitialInvestment, 0) {
		return nil, ConfigError{Field: "initialInvestment", Reason: fmt.Sprintf("must be positive, got %f", c.InitialInvestment)}
	}
	if _, err := NewRebalanceFrequency(string(c.Frequency)); err != nil {
		return nil, err
	}
	if !c.Start.IsZero() && !c.End.IsZero() && c.End.Before(c.Start) {
		return nil, ConfigError{Field: "end", Reason: "end date cannot be before start date"}
	}

	sum := 0.0
	for ticker, w := range c.Weights {
		if strings.TrimSpace(ticker) == "" {
			return nil, ConfigError{Field: "weights", Reason: "empty ticker"}
		}
		if math.IsNaN(w) || math.IsInf(w, 0) || w < 0 {
			return nil, ConfigError{Field: "weights", Reason: fmt.Sprintf("invalid weight %f for %s", w, ticker)}
		}
		sum += w
	}
	if sum == 0 {
		return nil, ConfigError{Field: "weights", Reason: "weights sum to 0"}
	}

	frequency, _ := NewRebalanceFrequency(string(c.Frequency))
	out := c
	out.Frequency = frequency
	out.Weights = map[string]float64{}
	for ticker, w := range c.Weights {
		out.Weights[ticker] = w
	}

	if math.Abs(sum-1) > WeightTolerance {
		if !c.NormalizeWeights {
			return nil, ConfigError{Field: "weights", Reason: fmt.Sprintf("weights should sum to 1, got %f", sum)}
		}
		for ticker, w := range out.Weights {
			out.Weights[ticker] = w / sum
		}
	}

	return &out, nil
}
