package l3_service

import (
	"context"
	"fmt"
	"portfoliobacktest/internal/domain"
	"portfoliobacktest/internal/logger"
	l1_service "portfoliobacktest/internal/service/l1"
	l2_service "portfoliobacktest/internal/service/l2"
	"portfoliobacktest/internal/util"
	interestrate "portfoliobacktest/pkg/interest_rate"
	"sort"
	"time"

	"github.com/google/uuid"
)

// priceSeedWindow is how far before the start date prices are loaded so
// the first panel date can be forward filled
const priceSeedWindow = 7 * 24 * time.Hour

// riskFreeMaturityMonths picks the point on the yield curve used as
// the risk-free rate
const riskFreeMaturityMonths = 12

// BenchmarkBlend is a fixed-weight mix of other benchmarks, e.g. 60/40
type BenchmarkBlend struct {
	Name    string
	Weights map[string]float64
}

// DefaultBenchmarkBlends adds the 60/40 stock/bond blend when both legs
// are requested
func DefaultBenchmarkBlends(symbols []string) []BenchmarkBlend {
	hasStocks, hasBonds := false, false
	for _, s := range symbols {
		hasStocks = hasStocks || s == "^GSPC"
		hasBonds = hasBonds || s == "BND"
	}
	if !hasStocks || !hasBonds {
		return nil
	}
	return []BenchmarkBlend{
		{
			Name:    "60/40",
			Weights: map[string]float64{"^GSPC": 0.6, "BND": 0.4},
		},
	}
}

type BacktestInput struct {
	Allocation domain.AllocationConfig
	// Benchmarks are compared in order, the first one feeds the
	// beta/alpha statistics
	Benchmarks []string
	Blends     []BenchmarkBlend
	// RiskFreeRate overrides the treasury lookup when set
	RiskFreeRate *float64
	TargetReturn float64
}

type BenchmarkSeries struct {
	Symbol string
	Values []domain.ValuePoint
}

type BacktestResult struct {
	RunID          uuid.UUID
	Allocation     domain.AllocationConfig
	Records        []domain.DailyRecord
	RebalanceDates []time.Time
	Benchmarks     []BenchmarkSeries
	Metrics        *domain.MetricsResult
	RiskFreeRate   float64
}

type BacktestService interface {
	Run(ctx context.Context, in BacktestInput) (*BacktestResult, error)
}

type backtestServiceHandler struct {
	PriceService     l1_service.PriceService
	YieldCurveClient interestrate.YieldCurveClient
	Now              func() time.Time
}

// NewBacktestService wires the backtest pipeline. yieldCurveClient may
// be nil, in which case the risk-free rate defaults to 0
func NewBacktestService(priceService l1_service.PriceService, yieldCurveClient interestrate.YieldCurveClient) BacktestService {
	return backtestServiceHandler{
		PriceService:     priceService,
		YieldCurveClient: yieldCurveClient,
		Now:              time.Now,
	}
}

func (h backtestServiceHandler) Run(ctx context.Context, in BacktestInput) (*BacktestResult, error) {
	profile := domain.GetProfile(ctx)
	runID := uuid.New()
	log := logger.FromContext(ctx).With("runID", runID.String())

	allocation, err := h.resolveAllocation(in.Allocation)
	if err != nil {
		return nil, err
	}
	benchmarks := uniqueSymbols(in.Benchmarks)
	for _, blend := range in.Blends {
		for symbol := range blend.Weights {
			if !contains(benchmarks, symbol) {
				return nil, domain.ConfigError{
					Field:  "blends",
					Reason: fmt.Sprintf("blend %s uses %s which is not a requested benchmark", blend.Name, symbol),
				}
			}
		}
	}

	log.Infow("starting backtest",
		"tickers", allocation.Tickers(),
		"start", allocation.Start.Format(time.DateOnly),
		"end", allocation.End.Format(time.DateOnly),
		"frequency", allocation.Frequency,
	)

	_, endSpan := profile.StartNewSpan("loading prices")
	symbols := append(allocation.Tickers(), benchmarks...)
	prices, err := h.PriceService.LoadPrices(ctx, symbols, allocation.Start.Add(-priceSeedWindow), allocation.End)
	endSpan()
	if err != nil {
		return nil, fmt.Errorf("failed to load prices: %w", err)
	}

	_, endSpan = profile.StartNewSpan("normalizing price panel")
	portfolioPrices := map[string][]domain.AssetPrice{}
	for _, ticker := range allocation.Tickers() {
		portfolioPrices[ticker] = prices[ticker]
	}
	panel, err := l1_service.NormalizePanel(l1_service.NormalizePanelInput{
		Prices: portfolioPrices,
		Start:  allocation.Start,
		End:    allocation.End,
		Policy: l1_service.CalendarPolicy_Reference,
	})
	endSpan()
	if err != nil {
		return nil, fmt.Errorf("failed to normalize prices: %w", err)
	}

	_, endSpan = profile.StartNewSpan("simulating")
	simulation, err := l2_service.Simulate(l2_service.SimulateInput{
		Panel:      panel,
		Allocation: *allocation,
	})
	endSpan()
	if err != nil {
		return nil, err
	}

	_, endSpan = profile.StartNewSpan("aligning benchmarks")
	benchmarkSeries, err := alignBenchmarks(prices, benchmarks, in.Blends, panel.Dates(), allocation.InitialInvestment)
	endSpan()
	if err != nil {
		return nil, err
	}

	riskFreeRate := h.resolveRiskFreeRate(ctx, in.RiskFreeRate, allocation.Start)

	_, endSpan = profile.StartNewSpan("calculating metrics")
	metricsInput := CalculateMetricsInput{
		Records:      simulation.Records,
		RiskFreeRate: riskFreeRate,
		TargetReturn: in.TargetReturn,
	}
	if len(benchmarkSeries) > 0 {
		metricsInput.Benchmark = benchmarkSeries[0].Values
		metricsInput.BenchmarkSymbol = benchmarkSeries[0].Symbol
	}
	metrics, err := CalculateMetrics(metricsInput)
	endSpan()
	if err != nil {
		return nil, fmt.Errorf("failed to calculate metrics: %w", err)
	}

	log.Infow("finished backtest",
		"records", len(simulation.Records),
		"rebalances", len(simulation.RebalanceDates),
	)

	return &BacktestResult{
		RunID:          runID,
		Allocation:     *allocation,
		Records:        simulation.Records,
		RebalanceDates: simulation.RebalanceDates,
		Benchmarks:     benchmarkSeries,
		Metrics:        metrics,
		RiskFreeRate:   riskFreeRate,
	}, nil
}

func (h backtestServiceHandler) resolveAllocation(in domain.AllocationConfig) (*domain.AllocationConfig, error) {
	if in.Start.IsZero() {
		return nil, domain.ConfigError{Field: "start", Reason: "start date is required"}
	}
	in.Start = util.ToDate(in.Start)
	if in.End.IsZero() {
		in.End = h.Now()
	}
	in.End = util.ToDate(in.End)
	return in.Validate()
}

func (h backtestServiceHandler) resolveRiskFreeRate(ctx context.Context, explicit *float64, date time.Time) float64 {
	if explicit != nil {
		return *explicit
	}
	if h.YieldCurveClient == nil {
		return 0
	}

	log := logger.FromContext(ctx)
	curve, err := h.YieldCurveClient.GetYieldCurve(ctx, date)
	if err != nil {
		log.Warnw("failed to get yield curve, using 0 risk-free rate", "date", date.Format(time.DateOnly), "error", err)
		return 0
	}
	rate, err := curve.GetRate(riskFreeMaturityMonths)
	if err != nil {
		log.Warnw("failed to read risk-free rate from yield curve", "error", err)
		return 0
	}
	return rate
}

// alignBenchmarks puts each benchmark on the portfolio's calendar and
// scales it to start at the initial investment
func alignBenchmarks(
	prices map[string][]domain.AssetPrice,
	benchmarks []string,
	blends []BenchmarkBlend,
	calendar []time.Time,
	initialInvestment float64,
) ([]BenchmarkSeries, error) {
	out := []BenchmarkSeries{}
	if len(benchmarks) == 0 || len(calendar) == 0 {
		return out, nil
	}

	bySymbol := map[string][]float64{}
	for _, symbol := range benchmarks {
		panel, err := l1_service.NormalizePanel(l1_service.NormalizePanelInput{
			Prices:   map[string][]domain.AssetPrice{symbol: prices[symbol]},
			Start:    calendar[0],
			End:      calendar[len(calendar)-1],
			Policy:   l1_service.CalendarPolicy_Explicit,
			Calendar: calendar,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to align benchmark %s: %w", symbol, err)
		}
		column := panel.Column(symbol)
		if !(column[0] > 0) {
			return nil, domain.InvalidPriceError{Ticker: symbol, Date: calendar[0], Price: column[0]}
		}

		scaled := make([]float64, len(column))
		for i, price := range column {
			scaled[i] = initialInvestment * price / column[0]
		}
		bySymbol[symbol] = scaled
		out = append(out, toBenchmarkSeries(symbol, calendar, scaled))
	}

	for _, blend := range blends {
		legs := []string{}
		for symbol := range blend.Weights {
			legs = append(legs, symbol)
		}
		sort.Strings(legs)

		values := make([]float64, len(calendar))
		for _, symbol := range legs {
			for i, v := range bySymbol[symbol] {
				values[i] += blend.Weights[symbol] * v
			}
		}
		out = append(out, toBenchmarkSeries(blend.Name, calendar, values))
	}

	return out, nil
}

func toBenchmarkSeries(symbol string, calendar []time.Time, values []float64) BenchmarkSeries {
	points := make([]domain.ValuePoint, len(calendar))
	for i, date := range calendar {
		points[i] = domain.ValuePoint{Date: date, Value: values[i]}
	}
	return BenchmarkSeries{Symbol: symbol, Values: points}
}

func uniqueSymbols(symbols []string) []string {
	out := []string{}
	for _, s := range symbols {
		if s != "" && !contains(out, s) {
			out = append(out, s)
		}
	}
	return out
}

func contains(list []string, s string) bool {
	for _, x := range list {
		if x == s {
			return true
		}
	}
	return false
}
