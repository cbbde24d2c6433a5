package domain

import (
	"fmt"
	"sort"
	"time"
)

type AssetPrice struct {
	Symbol string
	Price  float64
	Date   time.Time
}

// PricePanel is a rectangular table of prices, one row per trading
// date and one column per ticker. it is built once by the normalizer
// and only read afterwards
type PricePanel struct {
	dates   []time.Time
	tickers []string
	// ticker -> prices aligned with dates
	columns map[string][]float64
}

// NewPricePanel validates that dates are strictly increasing and every
// column covers every date
func NewPricePanel(dates []time.Time, columns map[string][]float64) (*PricePanel, error) {
	for i := 1; i < len(dates); i++ {
		if !dates[i].After(dates[i-1]) {
			return nil, fmt.Errorf("panel dates must be strictly increasing, got %s after %s", dates[i].Format(time.DateOnly), dates[i-1].Format(time.DateOnly))
		}
	}

	tickers := []string{}
	copied := map[string][]float64{}
	for ticker, column := range columns {
		if len(column) != len(dates) {
			return nil, fmt.Errorf("column %s has %d prices for %d dates", ticker, len(column), len(dates))
		}
		tickers = append(tickers, ticker)
		copied[ticker] = append([]float64{}, column...)
	}
	sort.Strings(tickers)

	return &PricePanel{
		dates:   append([]time.Time{}, dates...),
		tickers: tickers,
		columns: copied,
	}, nil
}

func (p PricePanel) Len() int {
	return len(p.dates)
}

func (p PricePanel) Dates() []time.Time {
	return append([]time.Time{}, p.dates...)
}

func (p PricePanel) Date(i int) time.Time {
	return p.dates[i]
}

func (p PricePanel) Tickers() []string {
	return append([]string{}, p.tickers...)
}

func (p PricePanel) HasTicker(ticker string) bool {
	_, ok := p.columns[ticker]
	return ok
}

// Price returns the price of ticker on the i-th date
func (p PricePanel) Price(ticker string, i int) (float64, bool) {
	column, ok := p.columns[ticker]
	if !ok || i < 0 || i >= len(column) {
		return 0, false
	}
	return column[i], true
}

// Column returns a copy of the ticker's aligned prices
func (p PricePanel) Column(ticker string) []float64 {
	return append([]float64{}, p.columns[ticker]...)
}
