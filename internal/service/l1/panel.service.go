package l1_service

import (
	"fmt"
	"math"
	"portfoliobacktest/internal/domain"
	"portfoliobacktest/internal/util"
	"sort"
	"time"
)

type CalendarPolicy string

const (
	// CalendarPolicy_Reference uses the dates of the ticker with the
	// most observations in range, so no non-trading days are invented
	CalendarPolicy_Reference    CalendarPolicy = "reference"
	CalendarPolicy_Union        CalendarPolicy = "union"
	CalendarPolicy_Intersection CalendarPolicy = "intersection"
	// CalendarPolicy_Explicit uses NormalizePanelInput.Calendar
	CalendarPolicy_Explicit CalendarPolicy = "explicit"
)

type NormalizePanelInput struct {
	Prices map[string][]domain.AssetPrice
	Start  time.Time
	End    time.Time
	Policy CalendarPolicy
	// only read with CalendarPolicy_Explicit
	Calendar []time.Time
}

type observation struct {
	date  time.Time
	price float64
}

// NormalizePanel aligns raw per-ticker price series onto one calendar,
// forward filling each ticker from its most recent observation
func NormalizePanel(in NormalizePanelInput) (*domain.PricePanel, error) {
	if len(in.Prices) == 0 {
		return nil, domain.ConfigError{Field: "tickers", Reason: "no price series provided"}
	}

	series := map[string][]observation{}
	for ticker, prices := range in.Prices {
		series[ticker] = cleanSeries(prices)
	}

	calendar, err := chooseCalendar(in, series)
	if err != nil {
		return nil, err
	}
	if len(calendar) == 0 {
		return nil, domain.DataGapError{
			Ticker: calendarLabel(in.Policy),
			Date:   in.Start,
			Reason: "no trading dates in range",
		}
	}

	columns := map[string][]float64{}
	for ticker, obs := range series {
		column, err := forwardFill(ticker, obs, calendar)
		if err != nil {
			return nil, err
		}
		columns[ticker] = column
	}

	panel, err := domain.NewPricePanel(calendar, columns)
	if err != nil {
		return nil, fmt.Errorf("failed to build price panel: %w", err)
	}
	return panel, nil
}

// cleanSeries sorts observations, drops unusable prices and keeps the
// last observation for duplicated dates
func cleanSeries(prices []domain.AssetPrice) []observation {
	byDate := map[time.Time]float64{}
	for _, p := range prices {
		if math.IsNaN(p.Price) || math.IsInf(p.Price, 0) {
			continue
		}
		byDate[util.ToDate(p.Date)] = p.Price
	}

	out := make([]observation, 0, len(byDate))
	for date, price := range byDate {
		out = append(out, observation{date: date, price: price})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].date.Before(out[j].date)
	})
	return out
}

func chooseCalendar(in NormalizePanelInput, series map[string][]observation) ([]time.Time, error) {
	inRange := func(obs []observation) []time.Time {
		out := []time.Time{}
		for _, o := range obs {
			if util.InRange(o.date, in.Start, in.End) {
				out = append(out, o.date)
			}
		}
		return out
	}

	tickers := []string{}
	for ticker := range series {
		tickers = append(tickers, ticker)
	}
	sort.Strings(tickers)

	switch in.Policy {
	case CalendarPolicy_Reference, "":
		var best []time.Time
		for _, ticker := range tickers {
			dates := inRange(series[ticker])
			if len(dates) > len(best) {
				best = dates
			}
		}
		return best, nil
	case CalendarPolicy_Union, CalendarPolicy_Intersection:
		counts := map[time.Time]int{}
		for _, ticker := range tickers {
			for _, d := range inRange(series[ticker]) {
				counts[d]++
			}
		}
		out := []time.Time{}
		for d, c := range counts {
			if in.Policy == CalendarPolicy_Union || c == len(tickers) {
				out = append(out, d)
			}
		}
		sort.Slice(out, func(i, j int) bool {
			return out[i].Before(out[j])
		})
		return out, nil
	case CalendarPolicy_Explicit:
		seen := map[time.Time]bool{}
		out := []time.Time{}
		for _, d := range in.Calendar {
			d = util.ToDate(d)
			if !seen[d] && util.InRange(d, in.Start, in.End) {
				seen[d] = true
				out = append(out, d)
			}
		}
		sort.Slice(out, func(i, j int) bool {
			return out[i].Before(out[j])
		})
		return out, nil
	}

	return nil, domain.ConfigError{Field: "calendarPolicy", Reason: fmt.Sprintf("unknown calendar policy %q", in.Policy)}
}

// forwardFill walks the calendar and the ticker's observations together,
// carrying the latest price forward. observations before the calendar
// start are allowed to seed the first date
func forwardFill(ticker string, obs []observation, calendar []time.Time) ([]float64, error) {
	out := make([]float64, len(calendar))
	j := 0
	found := false
	last := 0.0
	for i, date := range calendar {
		for j < len(obs) && !obs[j].date.After(date) {
			last = obs[j].price
			found = true
			j++
		}
		if !found {
			return nil, domain.DataGapError{
				Ticker: ticker,
				Date:   date,
				Reason: "no observation at or before the first panel date",
			}
		}
		out[i] = last
	}
	return out, nil
}

func calendarLabel(policy CalendarPolicy) string {
	if policy == "" {
		return string(CalendarPolicy_Reference) + " calendar"
	}
	return string(policy) + " calendar"
}
