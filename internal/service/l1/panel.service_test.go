package l1_service

import (
	"errors"
	"math"
	"portfoliobacktest/internal/domain"
	"portfoliobacktest/internal/util"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func series(symbol string, points map[time.Time]float64) []domain.AssetPrice {
	out := []domain.AssetPrice{}
	for date, price := range points {
		out = append(out, domain.AssetPrice{Symbol: symbol, Date: date, Price: price})
	}
	return out
}

func TestNormalizePanel(t *testing.T) {
	d1 := util.NewDate(2020, 1, 2)
	d2 := util.NewDate(2020, 1, 3)
	d3 := util.NewDate(2020, 1, 6)
	d4 := util.NewDate(2020, 1, 7)

	t.Run("forward fills from the reference calendar", func(t *testing.T) {
		panel, err := NormalizePanel(NormalizePanelInput{
			Prices: map[string][]domain.AssetPrice{
				"VTI": series("VTI", map[time.Time]float64{d1: 100, d2: 101, d3: 102, d4: 103}),
				"BND": series("BND", map[time.Time]float64{d1: 80, d3: 81}),
			},
			Start: d1,
			End:   d4,
		})
		require.NoError(t, err)

		require.Equal(t, "", cmp.Diff([]time.Time{d1, d2, d3, d4}, panel.Dates()))
		require.Equal(t, []string{"BND", "VTI"}, panel.Tickers())
		require.Equal(t, []float64{80, 80, 81, 81}, panel.Column("BND"))
		require.Equal(t, []float64{100, 101, 102, 103}, panel.Column("VTI"))
	})

	t.Run("observations before start seed the first date", func(t *testing.T) {
		panel, err := NormalizePanel(NormalizePanelInput{
			Prices: map[string][]domain.AssetPrice{
				"VTI": series("VTI", map[time.Time]float64{d2: 101, d3: 102}),
				"BND": series("BND", map[time.Time]float64{d1: 80, d3: 81}),
			},
			Start: d2,
			End:   d3,
		})
		require.NoError(t, err)
		require.Equal(t, []float64{80, 81}, panel.Column("BND"))
	})

	t.Run("ticker starting late is a data gap", func(t *testing.T) {
		_, err := NormalizePanel(NormalizePanelInput{
			Prices: map[string][]domain.AssetPrice{
				"VTI": series("VTI", map[time.Time]float64{d1: 100, d2: 101, d3: 102}),
				"NEW": series("NEW", map[time.Time]float64{d2: 10, d3: 11}),
			},
			Start: d1,
			End:   d3,
		})
		gapErr := domain.DataGapError{}
		require.True(t, errors.As(err, &gapErr))
		require.Equal(t, "NEW", gapErr.Ticker)
		require.True(t, gapErr.Date.Equal(d1))
	})

	t.Run("intersection and union calendars", func(t *testing.T) {
		prices := map[string][]domain.AssetPrice{
			"A": series("A", map[time.Time]float64{d1: 1, d2: 2, d3: 3}),
			"B": series("B", map[time.Time]float64{d1: 10, d3: 30, d4: 40}),
		}
		intersection, err := NormalizePanel(NormalizePanelInput{Prices: prices, Policy: CalendarPolicy_Intersection})
		require.NoError(t, err)
		require.Equal(t, "", cmp.Diff([]time.Time{d1, d3}, intersection.Dates()))

		union, err := NormalizePanel(NormalizePanelInput{Prices: prices, Policy: CalendarPolicy_Union})
		require.NoError(t, err)
		require.Equal(t, "", cmp.Diff([]time.Time{d1, d2, d3, d4}, union.Dates()))
		require.Equal(t, []float64{1, 2, 3, 3}, union.Column("A"))
		require.Equal(t, []float64{10, 10, 30, 40}, union.Column("B"))
	})

	t.Run("explicit calendar", func(t *testing.T) {
		panel, err := NormalizePanel(NormalizePanelInput{
			Prices: map[string][]domain.AssetPrice{
				"^GSPC": series("^GSPC", map[time.Time]float64{d1: 3000, d3: 3100}),
			},
			Policy:   CalendarPolicy_Explicit,
			Calendar: []time.Time{d4, d2, d1, d2},
		})
		require.NoError(t, err)
		require.Equal(t, "", cmp.Diff([]time.Time{d1, d2, d4}, panel.Dates()))
		require.Equal(t, []float64{3000, 3000, 3100}, panel.Column("^GSPC"))
	})

	t.Run("duplicates keep the last observation and NaN is skipped", func(t *testing.T) {
		panel, err := NormalizePanel(NormalizePanelInput{
			Prices: map[string][]domain.AssetPrice{
				"VTI": {
					{Symbol: "VTI", Date: d1, Price: 100},
					{Symbol: "VTI", Date: d1.Add(16 * time.Hour), Price: 100.5},
					{Symbol: "VTI", Date: d2, Price: math.NaN()},
					{Symbol: "VTI", Date: d3, Price: 102},
				},
			},
		})
		require.NoError(t, err)
		require.Equal(t, "", cmp.Diff([]time.Time{d1, d3}, panel.Dates()))
		require.Equal(t, []float64{100.5, 102}, panel.Column("VTI"))
	})

	t.Run("empty range", func(t *testing.T) {
		_, err := NormalizePanel(NormalizePanelInput{
			Prices: map[string][]domain.AssetPrice{
				"VTI": series("VTI", map[time.Time]float64{d1: 100}),
			},
			Start: util.NewDate(2021, 1, 1),
		})
		require.True(t, errors.As(err, &domain.DataGapError{}))
	})
}
