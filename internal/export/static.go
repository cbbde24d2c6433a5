package export

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"portfoliobacktest/internal/domain"
	l3_service "portfoliobacktest/internal/service/l3"
	"sort"
	"strconv"
	"time"
)

type portfolioPoint struct {
	Date       string             `json:"date"`
	TotalValue float64            `json:"total_value"`
	Cash       float64            `json:"cash"`
	Values     map[string]float64 `json:"values"`
	Weights    map[string]float64 `json:"weights"`
	Rebalanced bool               `json:"rebalanced"`
}

type returnPoint struct {
	Date  string  `json:"date"`
	Value float64 `json:"value"`
}

type drawdownJson struct {
	Peak     string  `json:"peak"`
	Trough   string  `json:"trough"`
	Recovery *string `json:"recovery"`
	Loss     float64 `json:"loss"`
}

type metricsJson struct {
	Returns     map[string][]returnPoint `json:"returns"`
	Performance map[string]*float64      `json:"performance"`
	Comparison  map[string]*float64      `json:"comparison"`
	Drawdowns   []drawdownJson           `json:"drawdowns"`
}

type monthlyReturnsRow struct {
	Year   int                `json:"year"`
	Months map[string]float64 `json:"months"`
	YTD    float64            `json:"ytd"`
}

type configJson struct {
	RunID             string             `json:"run_id"`
	Tickers           []string           `json:"tickers"`
	Weights           map[string]float64 `json:"weights"`
	RebalancePeriod   string             `json:"rebalance_period"`
	InitialInvestment float64            `json:"initial_investment"`
	StartDate         string             `json:"start_date"`
	EndDate           string             `json:"end_date"`
	RiskFreeRate      float64            `json:"risk_free_rate"`
	LastUpdated       string             `json:"last_updated"`
}

// StaticSiteFiles are the file names WriteStaticSite produces
var StaticSiteFiles = []string{
	"portfolio.json",
	"benchmarks.json",
	"metrics.json",
	"monthly_returns.json",
	"config.json",
}

// WriteStaticSite writes the json files the static dashboard reads
func WriteStaticSite(dir string, result *l3_service.BacktestResult, lastUpdated time.Time) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output dir: %w", err)
	}

	files := map[string]interface{}{
		"portfolio.json":       portfolioJson(result.Records),
		"benchmarks.json":      benchmarksJson(result.Benchmarks),
		"metrics.json":         buildMetricsJson(result.Metrics),
		"monthly_returns.json": monthlyReturnsJson(result.Metrics.MonthlyReturns),
		"config.json": configJson{
			RunID:             result.RunID.String(),
			Tickers:           result.Allocation.Tickers(),
			Weights:           result.Allocation.Weights,
			RebalancePeriod:   result.Allocation.Frequency.String(),
			InitialInvestment: result.Allocation.InitialInvestment,
			StartDate:         result.Allocation.Start.Format(time.DateOnly),
			EndDate:           result.Allocation.End.Format(time.DateOnly),
			RiskFreeRate:      result.RiskFreeRate,
			LastUpdated:       lastUpdated.Format(time.DateTime),
		},
	}

	for _, name := range StaticSiteFiles {
		bytes, err := json.Marshal(files[name])
		if err != nil {
			return fmt.Errorf("failed to marshal %s: %w", name, err)
		}
		if err := os.WriteFile(filepath.Join(dir, name), bytes, 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", name, err)
		}
	}
	return nil
}

func portfolioJson(records []domain.DailyRecord) []portfolioPoint {
	out := []portfolioPoint{}
	for _, r := range records {
		out = append(out, portfolioPoint{
			Date:       r.Date.Format(time.DateOnly),
			TotalValue: r.TotalValue,
			Cash:       r.Cash,
			Values:     r.Values,
			Weights:    r.Weights,
			Rebalanced: r.Rebalanced,
		})
	}
	return out
}

// benchmarksJson is one row per date with a column per benchmark
func benchmarksJson(benchmarks []l3_service.BenchmarkSeries) []map[string]interface{} {
	out := []map[string]interface{}{}
	if len(benchmarks) == 0 {
		return out
	}
	for i, p := range benchmarks[0].Values {
		row := map[string]interface{}{
			"date": p.Date.Format(time.DateOnly),
		}
		for _, b := range benchmarks {
			if i < len(b.Values) {
				row[b.Symbol] = b.Values[i].Value
			}
		}
		out = append(out, row)
	}
	return out
}

func buildMetricsJson(metrics *domain.MetricsResult) metricsJson {
	out := metricsJson{
		Returns: map[string][]returnPoint{
			"daily":   {},
			"monthly": {},
			"annual":  {},
		},
		Performance: metrics.AsMap(),
		Comparison:  map[string]*float64{},
		Drawdowns:   []drawdownJson{},
	}

	for _, p := range metrics.DailyReturns {
		out.Returns["daily"] = append(out.Returns["daily"], returnPoint{
			Date:  p.Date.Format(time.DateOnly),
			Value: p.Value,
		})
	}
	for _, year := range metrics.MonthlyReturns.Years {
		for month := time.January; month <= time.December; month++ {
			pct, ok := metrics.MonthlyReturns.Get(year, month)
			if !ok {
				continue
			}
			out.Returns["monthly"] = append(out.Returns["monthly"], returnPoint{
				Date:  fmt.Sprintf("%04d-%02d", year, month),
				Value: pct / 100,
			})
		}
		out.Returns["annual"] = append(out.Returns["annual"], returnPoint{
			Date:  strconv.Itoa(year),
			Value: metrics.MonthlyReturns.YTD[year] / 100,
		})
	}

	if metrics.Benchmark != nil {
		out.Comparison = map[string]*float64{
			"beta":                        metrics.Benchmark.Beta,
			"alpha":                       metrics.Benchmark.Alpha,
			"tracking_error":              metrics.Benchmark.TrackingError,
			"information_ratio":           metrics.Benchmark.InformationRatio,
			"correlation":                 metrics.Benchmark.Correlation,
			"benchmark_annualized_return": metrics.Benchmark.AnnualizedReturn,
		}
	}

	for _, d := range metrics.Drawdowns {
		row := drawdownJson{
			Peak:   d.Peak.Format(time.DateOnly),
			Trough: d.Trough.Format(time.DateOnly),
			Loss:   d.Loss,
		}
		if d.Recovery != nil {
			recovery := d.Recovery.Format(time.DateOnly)
			row.Recovery = &recovery
		}
		out.Drawdowns = append(out.Drawdowns, row)
	}

	return out
}

func monthlyReturnsJson(table domain.MonthlyReturnsTable) []monthlyReturnsRow {
	out := []monthlyReturnsRow{}
	years := append([]int{}, table.Years...)
	sort.Ints(years)
	for _, year := range years {
		row := monthlyReturnsRow{
			Year:   year,
			Months: map[string]float64{},
			YTD:    table.YTD[year],
		}
		for month, pct := range table.Returns[year] {
			row.Months[strconv.Itoa(int(month))] = pct
		}
		out = append(out, row)
	}
	return out
}
