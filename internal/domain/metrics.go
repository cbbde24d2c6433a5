package domain

import (
	"sort"
	"time"
)

// MetricsResult holds the performance statistics of a run. a nil
// pointer means the statistic is undefined for the input (zero
// volatility, single data point, ...), it is never replaced by 0
type MetricsResult struct {
	TotalReturn            *float64
	AnnualizedReturn       *float64
	AnnualizedVolatility   *float64
	SharpeRatio            *float64
	SortinoRatio           *float64
	MaxDrawdown            *float64
	ValueAtRisk95          *float64
	AverageWeightDeviation *float64

	Benchmark *BenchmarkComparison
	Drawdowns []DrawdownPeriod

	DailyReturns   []ValuePoint
	MonthlyReturns MonthlyReturnsTable
}

type BenchmarkComparison struct {
	Symbol           string
	Beta             *float64
	Alpha            *float64
	TrackingError    *float64
	InformationRatio *float64
	Correlation      *float64
	AnnualizedReturn *float64
}

type DrawdownPeriod struct {
	Peak     time.Time
	Trough   time.Time
	Recovery *time.Time
	Loss     float64
}

// MonthlyReturnsTable is year -> month -> percent return. YTD is the
// compounded product of the months present for that year
type MonthlyReturnsTable struct {
	Years   []int
	Returns map[int]map[time.Month]float64
	YTD     map[int]float64
}

func NewMonthlyReturnsTable() MonthlyReturnsTable {
	return MonthlyReturnsTable{
		Years:   []int{},
		Returns: map[int]map[time.Month]float64{},
		YTD:     map[int]float64{},
	}
}

func (t *MonthlyReturnsTable) Set(year int, month time.Month, pct float64) {
	if _, ok := t.Returns[year]; !ok {
		t.Returns[year] = map[time.Month]float64{}
		t.Years = append(t.Years, year)
		sort.Ints(t.Years)
	}
	t.Returns[year][month] = pct
}

func (t MonthlyReturnsTable) Get(year int, month time.Month) (float64, bool) {
	if months, ok := t.Returns[year]; ok {
		pct, ok := months[month]
		return pct, ok
	}
	return 0, false
}

// AsMap flattens the headline statistics into named values
func (m MetricsResult) AsMap() map[string]*float64 {
	out := map[string]*float64{
		"total_return":             m.TotalReturn,
		"annualized_return":        m.AnnualizedReturn,
		"annualized_volatility":    m.AnnualizedVolatility,
		"sharpe_ratio":             m.SharpeRatio,
		"sortino_ratio":            m.SortinoRatio,
		"max_drawdown":             m.MaxDrawdown,
		"var_95":                   m.ValueAtRisk95,
		"average_weight_deviation": m.AverageWeightDeviation,
	}
	if m.Benchmark != nil {
		out["beta"] = m.Benchmark.Beta
		out["alpha"] = m.Benchmark.Alpha
		out["tracking_error"] = m.Benchmark.TrackingError
		out["information_ratio"] = m.Benchmark.InformationRatio
		out["correlation"] = m.Benchmark.Correlation
	}
	return out
}

func FloatPointer(f float64) *float64 {
	return &f
}
