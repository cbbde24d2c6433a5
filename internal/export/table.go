package export

import (
	"fmt"
	"io"
	"portfoliobacktest/internal/domain"
	l3_service "portfoliobacktest/internal/service/l3"
	"strconv"
	"time"

	"github.com/Rhymond/go-money"
	"github.com/olekukonko/tablewriter"
	"github.com/shopspring/decimal"
)

const undefinedLabel = "n/a"

// FormatMoney renders a dollar amount like $12,345.67
func FormatMoney(amount float64) string {
	cur := money.GetCurrency(money.USD)
	factor := decimal.New(1, int32(cur.Fraction))
	minor := decimal.NewFromFloat(amount).Mul(factor).Round(0)
	return money.New(minor.IntPart(), money.USD).Display()
}

func formatPercent(f *float64) string {
	if f == nil {
		return undefinedLabel
	}
	return fmt.Sprintf("%.2f%%", *f*100)
}

func formatRatio(f *float64) string {
	if f == nil {
		return undefinedLabel
	}
	return fmt.Sprintf("%.2f", *f)
}

// RenderSummary prints the headline statistics of a run
func RenderSummary(w io.Writer, result *l3_service.BacktestResult) error {
	records := result.Records
	if len(records) == 0 {
		return fmt.Errorf("cannot render summary without records")
	}
	m := result.Metrics

	table := tablewriter.NewWriter(w)
	table.Header("Metric", "Value")

	rows := [][2]string{
		{"Period", fmt.Sprintf("%s to %s", records[0].Date.Format(time.DateOnly), records[len(records)-1].Date.Format(time.DateOnly))},
		{"Rebalancing", result.Allocation.Frequency.String()},
		{"Initial value", FormatMoney(records[0].TotalValue)},
		{"Final value", FormatMoney(records[len(records)-1].TotalValue)},
		{"Total return", formatPercent(m.TotalReturn)},
		{"Annualized return", formatPercent(m.AnnualizedReturn)},
		{"Annualized volatility", formatPercent(m.AnnualizedVolatility)},
		{"Sharpe ratio", formatRatio(m.SharpeRatio)},
		{"Sortino ratio", formatRatio(m.SortinoRatio)},
		{"Max drawdown", formatPercent(m.MaxDrawdown)},
		{"VaR 95% (1 day)", formatPercent(m.ValueAtRisk95)},
		{"Avg weight deviation", formatPercent(m.AverageWeightDeviation)},
		{"Rebalances", strconv.Itoa(len(result.RebalanceDates))},
	}
	if b := m.Benchmark; b != nil {
		rows = append(rows,
			[2]string{"Benchmark", b.Symbol},
			[2]string{"Benchmark annualized return", formatPercent(b.AnnualizedReturn)},
			[2]string{"Beta", formatRatio(b.Beta)},
			[2]string{"Alpha", formatPercent(b.Alpha)},
			[2]string{"Tracking error", formatPercent(b.TrackingError)},
			[2]string{"Information ratio", formatRatio(b.InformationRatio)},
			[2]string{"Correlation", formatRatio(b.Correlation)},
		)
	}

	for _, row := range rows {
		if err := table.Append(row[0], row[1]); err != nil {
			return fmt.Errorf("failed to add summary row: %w", err)
		}
	}
	return table.Render()
}

// RenderMonthlyTable prints the year x month returns grid
func RenderMonthlyTable(w io.Writer, returns domain.MonthlyReturnsTable) error {
	table := tablewriter.NewWriter(w)
	header := []string{"Year"}
	for month := time.January; month <= time.December; month++ {
		header = append(header, month.String()[:3])
	}
	header = append(header, "YTD")
	table.Header(toCells(header)...)

	for _, year := range returns.Years {
		row := []string{strconv.Itoa(year)}
		for month := time.January; month <= time.December; month++ {
			pct, ok := returns.Get(year, month)
			if !ok {
				row = append(row, "")
				continue
			}
			row = append(row, fmt.Sprintf("%.2f", pct))
		}
		row = append(row, fmt.Sprintf("%.2f", returns.YTD[year]))
		if err := table.Append(toCells(row)...); err != nil {
			return fmt.Errorf("failed to add monthly row: %w", err)
		}
	}
	return table.Render()
}

func toCells(row []string) []any {
	out := make([]any, len(row))
	for i, cell := range row {
		out[i] = cell
	}
	return out
}
