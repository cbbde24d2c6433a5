package repository

import (
	"context"
	"fmt"
	"portfoliobacktest/internal/domain"
	"portfoliobacktest/internal/util"
	"time"

	"github.com/piquette/finance-go/chart"
	"github.com/piquette/finance-go/datetime"
)

type yahooPriceRepositoryHandler struct{}

// NewYahooPriceRepository pulls daily bars from the Yahoo chart API
func NewYahooPriceRepository() AdjustedPriceRepository {
	return yahooPriceRepositoryHandler{}
}

func (h yahooPriceRepositoryHandler) List(ctx context.Context, symbol string, start, end time.Time) ([]domain.AssetPrice, error) {
	// chart end is exclusive
	s := util.ToDate(start)
	e := util.ToDate(end).AddDate(0, 0, 1)
	params := &chart.Params{
		Start:    datetime.New(&s),
		End:      datetime.New(&e),
		Symbol:   symbol,
		Interval: datetime.OneDay,
	}
	iter := chart.Get(params)

	out := []domain.AssetPrice{}
	for iter.Next() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		bar := iter.Bar()
		// some symbols (indices) come back without an adjusted close
		price := bar.AdjClose
		if price.IsZero() {
			price = bar.Close
		}
		out = append(out, domain.AssetPrice{
			Symbol: symbol,
			Date:   util.ToDate(time.Unix(int64(bar.Timestamp), 0).UTC()),
			Price:  price.InexactFloat64(),
		})
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to get prices for %s: %w", symbol, err)
	}

	return out, nil
}
