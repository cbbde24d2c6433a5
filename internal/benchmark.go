package internal

import (
	"context"
	"fmt"
	"portfoliobacktest/internal/domain"
	l1_service "portfoliobacktest/internal/service/l1"
	"portfoliobacktest/internal/util"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

type BenchmarkHandler struct {
	PriceService l1_service.PriceService
}

// GetIntraPeriodChange get historic prices for an asset
// and converts it to % change from start
func (h BenchmarkHandler) GetIntraPeriodChange(
	ctx context.Context,
	symbol string,
	start,
	end time.Time,
	granularity time.Duration,
) (map[time.Time]float64, error) {
	if granularity < 24*time.Hour {
		return nil, domain.ConfigError{Field: "granularity", Reason: "must be at least one day"}
	}
	pricesBySymbol, err := h.PriceService.LoadPrices(
		ctx,
		[]string{symbol},
		start,
		end,
	)
	if err != nil {
		return nil, err
	}
	prices := pricesBySymbol[symbol]
	if len(prices) == 0 {
		return nil, fmt.Errorf("no prices found for symbol %s between %v and %v", symbol, start, end)
	}
	return intraPeriodChangeIterator(prices, end, granularity), nil
}

func intraPeriodChangeIterator(
	prices []domain.AssetPrice,
	end time.Time,
	granularity time.Duration,
) map[time.Time]float64 {
	layout := time.DateOnly

	sorted := make([]domain.AssetPrice, len(prices))
	copy(sorted, prices)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Date.Before(sorted[j].Date)
	})

	first := decimal.NewFromFloat(sorted[0].Price)
	out := map[time.Time]float64{
		sorted[0].Date: 0,
	}
	if first.IsZero() {
		return out
	}

	i := 1
	nextTarget := sorted[0].Date.Add(granularity)
	for i < len(sorted) && util.DateLte(sorted[i].Date, end) {
		for nextTarget.Format(layout) < sorted[i].Date.Format(layout) {
			nextTarget = nextTarget.Add(24 * time.Hour)
		}
		if sorted[i].Date.Format(layout) == nextTarget.Format(layout) {
			price := decimal.NewFromFloat(sorted[i].Price)
			out[nextTarget] = decimal.NewFromInt(100).Mul(price.Sub(first)).Div(first).InexactFloat64()
			nextTarget = nextTarget.Add(granularity)
		}
		i++
	}

	return out
}
