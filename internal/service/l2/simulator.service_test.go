package l2_service

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

func newPanel(t *testing.T, dates []time.Time, columns map[string][]float64) *domain.PricePanel {
	panel, err := domain.NewPricePanel(dates, columns)
	require.NoError(t, err)
	return panel
}

func TestSimulate(t *testing.T) {
	t.Run("two asset monthly scenario", func(t *testing.T) {
		dates := []time.Time{
			util.NewDate(2020, 1, 31),
			util.NewDate(2020, 2, 3),
			util.NewDate(2020, 3, 2),
		}
		panel := newPanel(t, dates, map[string][]float64{
			"A": {100, 110, 121},
			"B": {50, 49, 50.49},
		})

		result, err := Simulate(SimulateInput{
			Panel: panel,
			Allocation: domain.AllocationConfig{
				Weights:           map[string]float64{"A": 0.6, "B": 0.4},
				InitialInvestment: 10000,
				Frequency:         domain.RebalanceFrequency_Monthly,
			},
		})
		require.NoError(t, err)
		require.Len(t, result.Records, 3)

		first := result.Records[0]
		require.InDelta(t, 60, first.Shares["A"], 1e-9)
		require.InDelta(t, 80, first.Shares["B"], 1e-9)
		require.InDelta(t, 10000, first.TotalValue, 1e-9)
		require.False(t, first.Rebalanced)

		second := result.Records[1]
		require.True(t, second.Rebalanced)
		require.InDelta(t, 10520, second.TotalValue, 1e-9)
		require.InDelta(t, 10520*0.6/110, second.Shares["A"], 1e-9)
		require.InDelta(t, 10520*0.4/49, second.Shares["B"], 1e-9)
		require.InDelta(t, 57.3818, second.Shares["A"], 1e-4)
		require.InDelta(t, 85.8776, second.Shares["B"], 1e-4)
		require.InDelta(t, 0.6, second.Weights["A"], 1e-12)
		require.InDelta(t, 0.0, second.MaxWeightDeviation, 1e-12)

		require.Equal(t, "", cmp.Diff([]time.Time{dates[1], dates[2]}, result.RebalanceDates))
	})

	t.Run("post rebalance values sum to total", func(t *testing.T) {
		dates := []time.Time{}
		a, b, c := []float64{}, []float64{}, []float64{}
		d := util.NewDate(2019, 11, 1)
		for i := 0; i < 120; i++ {
			dates = append(dates, d)
			a = append(a, 100+10*math.Sin(float64(i)/7))
			b = append(b, 40*math.Exp(float64(i)/300))
			c = append(c, 20+float64(i%13))
			d = d.AddDate(0, 0, 1)
		}
		panel := newPanel(t, dates, map[string][]float64{"A": a, "B": b, "C": c})

		result, err := Simulate(SimulateInput{
			Panel: panel,
			Allocation: domain.AllocationConfig{
				Weights:           map[string]float64{"A": 0.5, "B": 0.3, "C": 0.2},
				InitialInvestment: 25000,
				Frequency:         domain.RebalanceFrequency_Monthly,
			},
		})
		require.NoError(t, err)
		require.Len(t, result.RebalanceDates, 3)

		for _, r := range result.Records {
			sum := r.Cash
			for _, v := range r.Values {
				sum += v
			}
			require.InEpsilon(t, r.TotalValue, sum, 1e-9)
			if r.Rebalanced {
				require.Equal(t, 1, r.Date.Day())
				for ticker, target := range map[string]float64{"A": 0.5, "B": 0.3, "C": 0.2} {
					require.InDelta(t, target, r.Weights[ticker], 1e-9)
				}
			}
		}
	})

	t.Run("single asset rebalancing is a no-op", func(t *testing.T) {
		dates := []time.Time{}
		prices := []float64{}
		d := util.NewDate(2018, 12, 20)
		for i := 0; i < 400; i++ {
			dates = append(dates, d)
			prices = append(prices, 50+float64(i%37)*1.3+float64(i)/10)
			d = d.AddDate(0, 0, 1)
		}
		panel := newPanel(t, dates, map[string][]float64{"VTI": prices})

		for _, frequency := range []domain.RebalanceFrequency{
			domain.RebalanceFrequency_None,
			domain.RebalanceFrequency_Monthly,
			domain.RebalanceFrequency_Quarterly,
			domain.RebalanceFrequency_Annual,
		} {
			result, err := Simulate(SimulateInput{
				Panel: panel,
				Allocation: domain.AllocationConfig{
					Weights:           map[string]float64{"VTI": 1},
					InitialInvestment: 1000,
					Frequency:         frequency,
				},
			})
			require.NoError(t, err)
			for i, r := range result.Records {
				require.InEpsilon(t, 1000*prices[i]/prices[0], r.TotalValue, 1e-12, frequency.String())
			}
		}
	})

	t.Run("no rebalancing lets weights drift", func(t *testing.T) {
		dates := []time.Time{}
		a, b := []float64{}, []float64{}
		d := util.NewDate(2020, 1, 1)
		for i := 0; i < 200; i++ {
			dates = append(dates, d)
			a = append(a, 100*(1+0.004*float64(i)))
			b = append(b, 100*(1-0.001*float64(i)))
			d = d.AddDate(0, 0, 1)
		}
		panel := newPanel(t, dates, map[string][]float64{"A": a, "B": b})

		result, err := Simulate(SimulateInput{
			Panel: panel,
			Allocation: domain.AllocationConfig{
				Weights:           map[string]float64{"A": 0.5, "B": 0.5},
				InitialInvestment: 10000,
				Frequency:         domain.RebalanceFrequency_None,
			},
		})
		require.NoError(t, err)
		require.Empty(t, result.RebalanceDates)

		initialShares := result.Records[0].Shares
		for _, r := range result.Records {
			require.Equal(t, initialShares, r.Shares)
			require.False(t, r.Rebalanced)
		}
		last := result.Records[len(result.Records)-1]
		require.Greater(t, last.Weights["A"], 0.5)
		require.Less(t, last.Weights["B"], 0.5)
		require.Greater(t, last.MaxWeightDeviation, 0.0)
	})

	t.Run("single date emits one record", func(t *testing.T) {
		panel := newPanel(t, []time.Time{util.NewDate(2020, 5, 1)}, map[string][]float64{"A": {10}, "B": {20}})
		result, err := Simulate(SimulateInput{
			Panel: panel,
			Allocation: domain.AllocationConfig{
				Weights:           map[string]float64{"A": 0.5, "B": 0.5},
				InitialInvestment: 100,
				Frequency:         domain.RebalanceFrequency_Monthly,
			},
		})
		require.NoError(t, err)
		require.Len(t, result.Records, 1)
		require.Empty(t, result.RebalanceDates)
		require.InDelta(t, 100, result.Records[0].TotalValue, 1e-12)
	})

	t.Run("non-positive price aborts", func(t *testing.T) {
		dates := []time.Time{util.NewDate(2020, 1, 2), util.NewDate(2020, 1, 3), util.NewDate(2020, 1, 6)}
		panel := newPanel(t, dates, map[string][]float64{"A": {10, 0, 12}, "B": {5, 5, 5}})
		result, err := Simulate(SimulateInput{
			Panel: panel,
			Allocation: domain.AllocationConfig{
				Weights:           map[string]float64{"A": 0.5, "B": 0.5},
				InitialInvestment: 100,
				Frequency:         domain.RebalanceFrequency_None,
			},
		})
		require.Nil(t, result)
		priceErr := domain.InvalidPriceError{}
		require.True(t, errors.As(err, &priceErr))
		require.Equal(t, "A", priceErr.Ticker)
		require.True(t, priceErr.Date.Equal(dates[1]))
	})

	t.Run("ticker missing from panel", func(t *testing.T) {
		panel := newPanel(t, []time.Time{util.NewDate(2020, 1, 2)}, map[string][]float64{"A": {10}})
		_, err := Simulate(SimulateInput{
			Panel: panel,
			Allocation: domain.AllocationConfig{
				Weights:           map[string]float64{"A": 0.5, "B": 0.5},
				InitialInvestment: 100,
				Frequency:         domain.RebalanceFrequency_None,
			},
		})
		priceErr := domain.InvalidPriceError{}
		require.True(t, errors.As(err, &priceErr))
		require.Equal(t, "B", priceErr.Ticker)
		require.True(t, priceErr.Missing)
	})

	t.Run("bad weights are a config error", func(t *testing.T) {
		panel := newPanel(t, []time.Time{util.NewDate(2020, 1, 2)}, map[string][]float64{"A": {10}, "B": {5}})
		_, err := Simulate(SimulateInput{
			Panel: panel,
			Allocation: domain.AllocationConfig{
				Weights:           map[string]float64{"A": 0.5, "B": 0.4},
				InitialInvestment: 100,
				Frequency:         domain.RebalanceFrequency_None,
			},
		})
		require.True(t, errors.As(err, &domain.ConfigError{}))
	})

	t.Run("whole shares keep leftover cash", func(t *testing.T) {
		dates := []time.Time{util.NewDate(2020, 3, 31), util.NewDate(2020, 4, 1)}
		panel := newPanel(t, dates, map[string][]float64{"A": {30, 33}, "B": {70, 60}})
		result, err := Simulate(SimulateInput{
			Panel: panel,
			Allocation: domain.AllocationConfig{
				Weights:           map[string]float64{"A": 0.5, "B": 0.5},
				InitialInvestment: 1000,
				Frequency:         domain.RebalanceFrequency_Quarterly,
				WholeShares:       true,
			},
		})
		require.NoError(t, err)

		first := result.Records[0]
		require.Equal(t, 16.0, first.Shares["A"])
		require.Equal(t, 7.0, first.Shares["B"])
		require.InDelta(t, 1000-16*30-7*70, first.Cash, 1e-9)
		require.InDelta(t, 1000, first.TotalValue, 1e-9)

		// 16*33 + 7*60 + 30 = 978
		second := result.Records[1]
		require.True(t, second.Rebalanced)
		require.Equal(t, 14.0, second.Shares["A"])
		require.Equal(t, 8.0, second.Shares["B"])
		require.InDelta(t, 978-14*33-8*60, second.Cash, 1e-9)
		require.InDelta(t, 978, second.TotalValue, 1e-9)
	})

	t.Run("dates outside the allocation range are skipped", func(t *testing.T) {
		dates := []time.Time{util.NewDate(2020, 1, 2), util.NewDate(2020, 1, 3), util.NewDate(2020, 1, 6)}
		panel := newPanel(t, dates, map[string][]float64{"A": {10, 11, 12}})
		result, err := Simulate(SimulateInput{
			Panel: panel,
			Allocation: domain.AllocationConfig{
				Weights:           map[string]float64{"A": 1},
				InitialInvestment: 100,
				Frequency:         domain.RebalanceFrequency_None,
				Start:             dates[1],
			},
		})
		require.NoError(t, err)
		require.Len(t, result.Records, 2)
		require.InDelta(t, 100*12.0/11.0, result.Records[1].TotalValue, 1e-9)
	})
}

func TestPeriodKey(t *testing.T) {
	jan31 := util.NewDate(2021, 1, 31)
	feb1 := util.NewDate(2021, 2, 1)
	mar31 := util.NewDate(2021, 3, 31)
	apr1 := util.NewDate(2021, 4, 1)
	dec31 := util.NewDate(2021, 12, 31)
	nextJan := util.NewDate(2022, 1, 3)

	require.NotEqual(t, PeriodKey(jan31, domain.RebalanceFrequency_Monthly), PeriodKey(feb1, domain.RebalanceFrequency_Monthly))
	require.Equal(t, PeriodKey(jan31, domain.RebalanceFrequency_Quarterly), PeriodKey(mar31, domain.RebalanceFrequency_Quarterly))
	require.NotEqual(t, PeriodKey(mar31, domain.RebalanceFrequency_Quarterly), PeriodKey(apr1, domain.RebalanceFrequency_Quarterly))
	require.Equal(t, PeriodKey(jan31, domain.RebalanceFrequency_Annual), PeriodKey(dec31, domain.RebalanceFrequency_Annual))
	require.NotEqual(t, PeriodKey(dec31, domain.RebalanceFrequency_Annual), PeriodKey(nextJan, domain.RebalanceFrequency_Annual))
	require.Equal(t, PeriodKey(jan31, domain.RebalanceFrequency_None), PeriodKey(nextJan, domain.RebalanceFrequency_None))
	// same month in different years
	require.NotEqual(t, PeriodKey(jan31, domain.RebalanceFrequency_Monthly), PeriodKey(util.NewDate(2022, 1, 31), domain.RebalanceFrequency_Monthly))
}
