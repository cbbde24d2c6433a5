package domain

import (
	"fmt"
	"time"
)

// ConfigError is returned before any simulation work starts when the
// allocation config cannot be used
type ConfigError struct {
	Field  string
	Reason string
}

func (e ConfigError) Error() string {
	return fmt.Sprintf("invalid config %s: %s", e.Field, e.Reason)
}

// DataGapError means a ticker has no observation that can be used
// for the given date
type DataGapError struct {
	Ticker string
	Date   time.Time
	Reason string
}

func (e DataGapError) Error() string {
	msg := fmt.Sprintf("no price for %s on or before %s", e.Ticker, e.Date.Format(time.DateOnly))
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

type InvalidPriceError struct {
	Ticker string
	Date   time.Time
	Price  float64
	// Missing is set when the panel has no price at all
	Missing bool
}

func (e InvalidPriceError) Error() string {
	if e.Missing {
		return fmt.Sprintf("missing price for %s on %s", e.Ticker, e.Date.Format(time.DateOnly))
	}
	return fmt.Sprintf("invalid price %f for %s on %s", e.Price, e.Ticker, e.Date.Format(time.DateOnly))
}
