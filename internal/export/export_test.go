package export

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"portfoliobacktest/internal/domain"
	l2_service "portfoliobacktest/internal/service/l2"
	l3_service "portfoliobacktest/internal/service/l3"
	"portfoliobacktest/internal/util"
	"testing"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func newTestResult(t *testing.T) *l3_service.BacktestResult {
	dates := []time.Time{
		util.NewDate(2020, 1, 31),
		util.NewDate(2020, 2, 3),
		util.NewDate(2020, 3, 2),
	}
	panel, err := domain.NewPricePanel(dates, map[string][]float64{
		"A": {100, 110, 121},
		"B": {50, 49, 50.49},
	})
	require.NoError(t, err)

	allocation := domain.AllocationConfig{
		Weights:           map[string]float64{"A": 0.6, "B": 0.4},
		InitialInvestment: 10000,
		Frequency:         domain.RebalanceFrequency_Monthly,
		Start:             dates[0],
		End:               dates[2],
	}
	simulation, err := l2_service.Simulate(l2_service.SimulateInput{Panel: panel, Allocation: allocation})
	require.NoError(t, err)

	benchmark := l3_service.BenchmarkSeries{
		Symbol: "^GSPC",
		Values: []domain.ValuePoint{
			{Date: dates[0], Value: 10000},
			{Date: dates[1], Value: 10100},
			{Date: dates[2], Value: 9900},
		},
	}
	metrics, err := l3_service.CalculateMetrics(l3_service.CalculateMetricsInput{
		Records:         simulation.Records,
		Benchmark:       benchmark.Values,
		BenchmarkSymbol: benchmark.Symbol,
	})
	require.NoError(t, err)

	return &l3_service.BacktestResult{
		RunID:          uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8"),
		Allocation:     allocation,
		Records:        simulation.Records,
		RebalanceDates: simulation.RebalanceDates,
		Benchmarks:     []l3_service.BenchmarkSeries{benchmark},
		Metrics:        metrics,
	}
}

func TestWriteRecordsCSV(t *testing.T) {
	result := newTestResult(t)

	buf := &bytes.Buffer{}
	require.NoError(t, WriteRecordsCSV(buf, result.Records))

	rows := []*RecordRow{}
	require.NoError(t, gocsv.Unmarshal(bytes.NewReader(buf.Bytes()), &rows))
	require.Len(t, rows, 3)
	require.Equal(t, "2020-02-03", rows[1].Date)
	require.Equal(t, "10520.00", rows[1].TotalValue)
	require.Equal(t, "0.00", rows[1].Cash)
	require.True(t, rows[1].Rebalanced)
	require.False(t, rows[0].Rebalanced)
	require.InDelta(t, 0, rows[1].MaxWeightDeviation, 1e-12)
}

func TestWriteHoldingsCSV(t *testing.T) {
	result := newTestResult(t)

	buf := &bytes.Buffer{}
	require.NoError(t, WriteHoldingsCSV(buf, result.Records))

	rows := []*HoldingRow{}
	require.NoError(t, gocsv.Unmarshal(bytes.NewReader(buf.Bytes()), &rows))
	require.Len(t, rows, 6)
	require.Equal(t, "A", rows[0].Symbol)
	require.Equal(t, 60.0, rows[0].Shares)
	require.Equal(t, "6000.00", rows[0].Value)
	require.Equal(t, "B", rows[1].Symbol)
	require.Equal(t, "4000.00", rows[1].Value)
}

func TestWriteStaticSite(t *testing.T) {
	result := newTestResult(t)
	dir := filepath.Join(t.TempDir(), "site")

	err := WriteStaticSite(dir, result, time.Date(2024, 2, 1, 9, 30, 0, 0, time.UTC))
	require.NoError(t, err)

	for _, name := range StaticSiteFiles {
		_, err := os.Stat(filepath.Join(dir, name))
		require.NoError(t, err, name)
	}

	config := configJson{}
	readJson(t, filepath.Join(dir, "config.json"), &config)
	require.Equal(t, "", cmp.Diff(configJson{
		RunID:             "6ba7b810-9dad-11d1-80b4-00c04fd430c8",
		Tickers:           []string{"A", "B"},
		Weights:           map[string]float64{"A": 0.6, "B": 0.4},
		RebalancePeriod:   "monthly",
		InitialInvestment: 10000,
		StartDate:         "2020-01-31",
		EndDate:           "2020-03-02",
		LastUpdated:       "2024-02-01 09:30:00",
	}, config))

	benchmarks := []map[string]interface{}{}
	readJson(t, filepath.Join(dir, "benchmarks.json"), &benchmarks)
	require.Len(t, benchmarks, 3)
	require.Equal(t, "2020-02-03", benchmarks[1]["date"])
	require.Equal(t, 10100.0, benchmarks[1]["^GSPC"])

	metrics := metricsJson{}
	readJson(t, filepath.Join(dir, "metrics.json"), &metrics)
	require.Len(t, metrics.Returns["daily"], 2)
	require.Len(t, metrics.Returns["monthly"], 3)
	require.Len(t, metrics.Returns["annual"], 1)
	require.InDelta(t, *result.Metrics.TotalReturn, *metrics.Performance["total_return"], 1e-12)
	require.Contains(t, metrics.Comparison, "beta")

	monthly := []monthlyReturnsRow{}
	readJson(t, filepath.Join(dir, "monthly_returns.json"), &monthly)
	require.Len(t, monthly, 1)
	require.Equal(t, 2020, monthly[0].Year)
	require.Len(t, monthly[0].Months, 3)
	require.InDelta(t, 5.2, monthly[0].Months["2"], 1e-9)
}

func readJson(t *testing.T, path string, out interface{}) {
	bytes, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(bytes, out))
}

func TestRenderValueChart(t *testing.T) {
	result := newTestResult(t)
	buf, err := RenderValueChart(result)
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(buf, []byte("\x89PNG")))

	_, err = RenderValueChart(&l3_service.BacktestResult{Metrics: &domain.MetricsResult{}})
	require.Error(t, err)
}

func TestRenderSummary(t *testing.T) {
	result := newTestResult(t)
	result.Metrics.SortinoRatio = nil

	buf := &bytes.Buffer{}
	require.NoError(t, RenderSummary(buf, result))
	out := buf.String()
	require.Contains(t, out, "$10,000.00")
	require.Contains(t, out, "2020-01-31 to 2020-03-02")
	require.Contains(t, out, undefinedLabel)
	require.Contains(t, out, "^GSPC")
}

func TestRenderMonthlyTable(t *testing.T) {
	table := domain.NewMonthlyReturnsTable()
	table.Set(2021, time.March, 1.5)
	table.Set(2021, time.April, -0.25)
	table.YTD[2021] = 1.24625

	buf := &bytes.Buffer{}
	require.NoError(t, RenderMonthlyTable(buf, table))
	out := buf.String()
	require.Contains(t, out, "2021")
	require.Contains(t, out, "1.50")
	require.Contains(t, out, "-0.25")
	require.Contains(t, out, "1.25")
}

func TestFormatMoney(t *testing.T) {
	require.Equal(t, "$10,520.00", FormatMoney(10520))
	require.Equal(t, "$0.57", FormatMoney(0.565))
}
