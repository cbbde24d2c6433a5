package l3_service

import (
	"fmt"
	"math"
	"portfoliobacktest/internal/domain"
	"sort"
	"time"

	"github.com/montanaflynn/stats"
)

const (
	TradingDaysPerYear = 252
	DaysPerYear        = 365.25
	MaxDrawdownPeriods = 10

	// volatilities below this are treated as zero
	zeroTolerance = 1e-12
)

type CalculateMetricsInput struct {
	Records []domain.DailyRecord
	// Benchmark is optional. it is matched to the records by date
	Benchmark       []domain.ValuePoint
	BenchmarkSymbol string
	// RiskFreeRate is annual, e.g. 0.02
	RiskFreeRate float64
	// TargetReturn is the daily return below which a day counts as
	// downside for Sortino
	TargetReturn float64
}

// CalculateMetrics derives the performance statistics of a simulated
// run. statistics that are undefined for the input are left nil
func CalculateMetrics(in CalculateMetricsInput) (*domain.MetricsResult, error) {
	if len(in.Records) == 0 {
		return nil, domain.DataGapError{
			Ticker: "portfolio",
			Reason: "cannot calculate metrics without records",
		}
	}

	series := domain.TotalValueSeries(in.Records)
	for _, p := range series {
		if !(p.Value > 0) || math.IsInf(p.Value, 0) {
			return nil, domain.InvalidPriceError{Ticker: "portfolio", Date: p.Date, Price: p.Value}
		}
	}

	dailyReturns := DailyReturns(series)
	returns := valuesOf(dailyReturns)

	result := &domain.MetricsResult{
		TotalReturn:          domain.FloatPointer(TotalReturn(series)),
		AnnualizedReturn:     AnnualizedReturn(series),
		AnnualizedVolatility: AnnualizedVolatility(returns),
		ValueAtRisk95:        ValueAtRisk(returns, 0.95),
		DailyReturns:         dailyReturns,
		Drawdowns:            Drawdowns(series, MaxDrawdownPeriods),
		MonthlyReturns:       MonthlyReturns(series),
	}
	result.MaxDrawdown = domain.FloatPointer(MaxDrawdown(series))
	excessReturn := ExcessAnnualizedReturn(series, in.RiskFreeRate)
	result.SharpeRatio = SharpeRatio(excessReturn, result.AnnualizedVolatility)
	result.SortinoRatio = SortinoRatio(excessReturn, returns, in.TargetReturn)
	result.AverageWeightDeviation = averageWeightDeviation(in.Records)

	if len(in.Benchmark) > 0 {
		comparison, err := CompareToBenchmark(series, in.Benchmark)
		if err != nil {
			return nil, fmt.Errorf("failed to compare to benchmark %s: %w", in.BenchmarkSymbol, err)
		}
		comparison.Symbol = in.BenchmarkSymbol
		result.Benchmark = comparison
	}

	return result, nil
}

func valuesOf(points []domain.ValuePoint) []float64 {
	out := make([]float64, len(points))
	for i, p := range points {
		out[i] = p.Value
	}
	return out
}

// DailyReturns returns one point per value after the first, dated on
// the later day
func DailyReturns(series []domain.ValuePoint) []domain.ValuePoint {
	out := []domain.ValuePoint{}
	for i := 1; i < len(series); i++ {
		out = append(out, domain.ValuePoint{
			Date:  series[i].Date,
			Value: series[i].Value/series[i-1].Value - 1,
		})
	}
	return out
}

func TotalReturn(series []domain.ValuePoint) float64 {
	if len(series) == 0 {
		return 0
	}
	return series[len(series)-1].Value/series[0].Value - 1
}

func elapsedDays(start, end time.Time) float64 {
	return end.Sub(start).Hours() / 24
}

// AnnualizedReturn compounds the total return over calendar time. nil
// when the series spans no time
func AnnualizedReturn(series []domain.ValuePoint) *float64 {
	if len(series) < 2 {
		return nil
	}
	days := elapsedDays(series[0].Date, series[len(series)-1].Date)
	if days <= 0 {
		return nil
	}
	out := math.Pow(1+TotalReturn(series), DaysPerYear/days) - 1
	if math.IsNaN(out) || math.IsInf(out, 0) {
		return nil
	}
	return &out
}

// ExcessAnnualizedReturn takes the risk-free growth over the same
// elapsed time out of the total return, then annualizes what is left.
// riskFreeRate is an annual rate
func ExcessAnnualizedReturn(series []domain.ValuePoint, riskFreeRate float64) *float64 {
	if len(series) < 2 {
		return nil
	}
	days := elapsedDays(series[0].Date, series[len(series)-1].Date)
	if days <= 0 {
		return nil
	}
	periodRiskFree := math.Pow(1+riskFreeRate, days/DaysPerYear) - 1
	excess := TotalReturn(series) - periodRiskFree
	out := math.Pow(1+excess, DaysPerYear/days) - 1
	if math.IsNaN(out) || math.IsInf(out, 0) {
		return nil
	}
	return &out
}

// stdev is the sample standard deviation, falling back to population
// for a single observation
func stdev(values []float64) (float64, bool) {
	switch len(values) {
	case 0:
		return 0, false
	case 1:
		return 0, true
	}
	out, err := stats.StandardDeviationSample(values)
	if err != nil || math.IsNaN(out) {
		return 0, false
	}
	return out, true
}

func AnnualizedVolatility(returns []float64) *float64 {
	sd, ok := stdev(returns)
	if !ok {
		return nil
	}
	return domain.FloatPointer(sd * math.Sqrt(TradingDaysPerYear))
}

func isZero(f float64) bool {
	return math.Abs(f) < zeroTolerance
}

// SharpeRatio divides the excess return from ExcessAnnualizedReturn
// (risk-free already subtracted before annualizing) by annualized
// volatility
func SharpeRatio(excessReturn, annualizedVolatility *float64) *float64 {
	if excessReturn == nil || annualizedVolatility == nil || isZero(*annualizedVolatility) {
		return nil
	}
	return domain.FloatPointer(*excessReturn / *annualizedVolatility)
}

// SortinoRatio only counts daily returns below targetReturn as risk
func SortinoRatio(excessReturn *float64, returns []float64, targetReturn float64) *float64 {
	if excessReturn == nil {
		return nil
	}
	downside := []float64{}
	for _, r := range returns {
		if r < targetReturn {
			downside = append(downside, r)
		}
	}
	if len(downside) < 2 {
		return nil
	}
	sd, ok := stdev(downside)
	if !ok || isZero(sd) {
		return nil
	}
	return domain.FloatPointer(*excessReturn / (sd * math.Sqrt(TradingDaysPerYear)))
}

// MaxDrawdown is the worst fall from a running peak, as a fraction <= 0
func MaxDrawdown(series []domain.ValuePoint) float64 {
	maxDrawdown := 0.0
	runningMax := math.Inf(-1)
	for _, p := range series {
		runningMax = math.Max(runningMax, p.Value)
		maxDrawdown = math.Min(maxDrawdown, p.Value/runningMax-1)
	}
	return maxDrawdown
}

// Drawdowns lists peak-to-recovery declines, worst first, capped at
// limit. a decline still open at the end has no recovery date
func Drawdowns(series []domain.ValuePoint, limit int) []domain.DrawdownPeriod {
	out := []domain.DrawdownPeriod{}
	if len(series) == 0 {
		return out
	}

	peak := series[0]
	var current *domain.DrawdownPeriod
	for _, p := range series[1:] {
		if p.Value >= peak.Value {
			if current != nil {
				recovery := p.Date
				current.Recovery = &recovery
				out = append(out, *current)
				current = nil
			}
			peak = p
			continue
		}

		loss := p.Value/peak.Value - 1
		if current == nil {
			current = &domain.DrawdownPeriod{
				Peak:   peak.Date,
				Trough: p.Date,
				Loss:   loss,
			}
		} else if loss < current.Loss {
			current.Trough = p.Date
			current.Loss = loss
		}
	}
	if current != nil {
		out = append(out, *current)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Loss < out[j].Loss
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// ValueAtRisk is the parametric (normal) one-day loss threshold at the
// given confidence, expressed as a return
func ValueAtRisk(returns []float64, confidence float64) *float64 {
	if len(returns) < 2 {
		return nil
	}
	sd, ok := stdev(returns)
	if !ok || isZero(sd) {
		return nil
	}
	mean, err := stats.Mean(returns)
	if err != nil {
		return nil
	}
	return domain.FloatPointer(stats.NormPpf(1-confidence, mean, sd))
}

func averageWeightDeviation(records []domain.DailyRecord) *float64 {
	if len(records) == 0 {
		return nil
	}
	sum := 0.0
	for _, r := range records {
		sum += r.MeanWeightDeviation
	}
	return domain.FloatPointer(sum / float64(len(records)))
}

type monthKey struct {
	year  int
	month time.Month
}

// MonthlyReturns compounds each calendar month from the prior month's
// last value (or the first value of the series) to its own last value.
// YTD compounds whichever months a year has
func MonthlyReturns(series []domain.ValuePoint) domain.MonthlyReturnsTable {
	table := domain.NewMonthlyReturnsTable()
	if len(series) == 0 {
		return table
	}

	months := []monthKey{}
	lastValue := map[monthKey]float64{}
	for _, p := range series {
		key := monthKey{year: p.Date.Year(), month: p.Date.Month()}
		if _, ok := lastValue[key]; !ok {
			months = append(months, key)
		}
		lastValue[key] = p.Value
	}

	growth := map[int]float64{}
	base := series[0].Value
	for _, key := range months {
		end := lastValue[key]
		ret := end/base - 1
		table.Set(key.year, key.month, ret*100)

		if _, ok := growth[key.year]; !ok {
			growth[key.year] = 1
		}
		growth[key.year] *= 1 + ret
		base = end
	}
	for year, g := range growth {
		table.YTD[year] = (g - 1) * 100
	}

	return table
}

// alignReturns pairs portfolio and benchmark returns over consecutive
// portfolio dates where both sides have a value
func alignReturns(series, benchmark []domain.ValuePoint) ([]float64, []float64, []domain.ValuePoint, []domain.ValuePoint) {
	benchmarkByDate := map[time.Time]float64{}
	for _, p := range benchmark {
		benchmarkByDate[p.Date] = p.Value
	}

	portfolioReturns := []float64{}
	benchmarkReturns := []float64{}
	matchedPortfolio := []domain.ValuePoint{}
	matchedBenchmark := []domain.ValuePoint{}
	for i, p := range series {
		b, ok := benchmarkByDate[p.Date]
		if !ok || !(b > 0) {
			continue
		}
		matchedPortfolio = append(matchedPortfolio, p)
		matchedBenchmark = append(matchedBenchmark, domain.ValuePoint{Date: p.Date, Value: b})

		if i == 0 {
			continue
		}
		prevB, ok := benchmarkByDate[series[i-1].Date]
		if !ok || !(prevB > 0) {
			continue
		}
		portfolioReturns = append(portfolioReturns, p.Value/series[i-1].Value-1)
		benchmarkReturns = append(benchmarkReturns, b/prevB-1)
	}
	return portfolioReturns, benchmarkReturns, matchedPortfolio, matchedBenchmark
}

// CompareToBenchmark computes beta, alpha, tracking error, information
// ratio and correlation against a benchmark value series
func CompareToBenchmark(series, benchmark []domain.ValuePoint) (*domain.BenchmarkComparison, error) {
	rp, rb, matchedPortfolio, matchedBenchmark := alignReturns(series, benchmark)
	out := &domain.BenchmarkComparison{
		AnnualizedReturn: AnnualizedReturn(matchedBenchmark),
	}
	if len(rp) < 2 {
		return out, nil
	}

	benchmarkVariance, err := stats.SampleVariance(rb)
	if err != nil {
		return nil, fmt.Errorf("failed to compute benchmark variance: %w", err)
	}
	if !isZero(benchmarkVariance) {
		covariance, err := stats.Covariance(rp, rb)
		if err != nil {
			return nil, fmt.Errorf("failed to compute covariance: %w", err)
		}
		beta := covariance / benchmarkVariance
		out.Beta = &beta

		portfolioAnnualized := AnnualizedReturn(matchedPortfolio)
		if portfolioAnnualized != nil && out.AnnualizedReturn != nil {
			out.Alpha = domain.FloatPointer(*portfolioAnnualized - beta**out.AnnualizedReturn)
		}

		portfolioSd, _ := stdev(rp)
		if !isZero(portfolioSd) {
			correlation, err := stats.Correlation(rp, rb)
			if err != nil {
				return nil, fmt.Errorf("failed to compute correlation: %w", err)
			}
			out.Correlation = &correlation
		}
	}

	active := make([]float64, len(rp))
	for i := range rp {
		active[i] = rp[i] - rb[i]
	}
	activeSd, ok := stdev(active)
	if ok {
		trackingError := activeSd * math.Sqrt(TradingDaysPerYear)
		out.TrackingError = &trackingError
		if !isZero(trackingError) {
			meanActive, err := stats.Mean(active)
			if err != nil {
				return nil, err
			}
			out.InformationRatio = domain.FloatPointer(meanActive * TradingDaysPerYear / trackingError)
		}
	}

	return out, nil
}
