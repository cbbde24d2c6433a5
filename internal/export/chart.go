package export

import (
	"fmt"
	"portfoliobacktest/internal/domain"
	l3_service "portfoliobacktest/internal/service/l3"
	"time"

	"github.com/vicanso/go-charts/v2"
)

// maxChartPoints keeps long backtests readable
const maxChartPoints = 500

// RenderValueChart draws the portfolio value against each benchmark
// and returns the PNG bytes
func RenderValueChart(result *l3_service.BacktestResult) ([]byte, error) {
	if len(result.Records) == 0 {
		return nil, fmt.Errorf("cannot render chart without records")
	}

	stride := 1
	if len(result.Records) > maxChartPoints {
		stride = (len(result.Records) + maxChartPoints - 1) / maxChartPoints
	}
	indexes := []int{}
	for i := 0; i < len(result.Records); i += stride {
		indexes = append(indexes, i)
	}
	if indexes[len(indexes)-1] != len(result.Records)-1 {
		indexes = append(indexes, len(result.Records)-1)
	}

	xLabels := []string{}
	portfolio := []float64{}
	for _, i := range indexes {
		xLabels = append(xLabels, result.Records[i].Date.Format(time.DateOnly))
		portfolio = append(portfolio, result.Records[i].TotalValue)
	}

	names := []string{"Portfolio"}
	values := [][]float64{portfolio}
	for _, b := range result.Benchmarks {
		names = append(names, b.Symbol)
		values = append(values, sampleSeries(b.Values, indexes))
	}

	splitNum := 6
	if len(xLabels) <= 30 {
		splitNum = len(xLabels) / 3
		if splitNum < 3 {
			splitNum = 3
		}
	}

	title := "Portfolio value"
	if tr := result.Metrics.TotalReturn; tr != nil {
		title = fmt.Sprintf("Portfolio value (total return %.2f%%)", *tr*100)
	}

	p, err := charts.LineRender(
		values,
		charts.TitleTextOptionFunc(title),
		charts.XAxisOptionFunc(charts.XAxisOption{
			Data:        xLabels,
			SplitNumber: splitNum,
			BoundaryGap: charts.FalseFlag(),
		}),
		charts.LegendOptionFunc(charts.LegendOption{
			Data: names,
			Top:  charts.PositionTop,
		}),
		charts.ThemeOptionFunc(charts.ThemeLight),
		charts.WidthOptionFunc(1000),
		charts.HeightOptionFunc(600),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to render chart: %w", err)
	}

	buf, err := p.Bytes()
	if err != nil {
		return nil, fmt.Errorf("failed to generate chart bytes: %w", err)
	}
	return buf, nil
}

func sampleSeries(points []domain.ValuePoint, indexes []int) []float64 {
	out := make([]float64, 0, len(indexes))
	for _, i := range indexes {
		if i < len(points) {
			out = append(out, points[i].Value)
		}
	}
	return out
}
