package repository

import (
	"context"
	"database/sql"
	"fmt"
	"portfoliobacktest/internal/db/models/postgres/public/model"
	. "portfoliobacktest/internal/db/models/postgres/public/table"
	"portfoliobacktest/internal/domain"
	"portfoliobacktest/internal/util"
	"sync"
	"time"

	. "github.com/go-jet/jet/v2/postgres"
)

// AdjustedPriceRepository is any source of daily adjusted close prices
type AdjustedPriceRepository interface {
	List(ctx context.Context, symbol string, start, end time.Time) ([]domain.AssetPrice, error)
}

// AdjustedPriceStore is a source that can also persist prices
type AdjustedPriceStore interface {
	AdjustedPriceRepository
	Add(ctx context.Context, prices []domain.AssetPrice) error
}

type listKey struct {
	symbol string
	start  string
	end    string
}

type adjustedPriceRepositoryHandler struct {
	Db *sql.DB

	cache     map[listKey][]domain.AssetPrice
	readMutex *sync.RWMutex
}

// NewAdjustedPriceRepository reads and writes the adjusted_price table
// through jet. it expects a postgres connection (lib/pq)
func NewAdjustedPriceRepository(db *sql.DB) AdjustedPriceStore {
	return &adjustedPriceRepositoryHandler{
		Db:        db,
		cache:     map[listKey][]domain.AssetPrice{},
		readMutex: &sync.RWMutex{},
	}
}

func (h adjustedPriceRepositoryHandler) getFromCache(k listKey) ([]domain.AssetPrice, bool) {
	h.readMutex.RLock()
	defer h.readMutex.RUnlock()
	prices, ok := h.cache[k]
	return prices, ok
}

func (h adjustedPriceRepositoryHandler) addToCache(k listKey, prices []domain.AssetPrice) {
	h.readMutex.Lock()
	h.cache[k] = prices
	h.readMutex.Unlock()
}

func addPricesQuery(prices []domain.AssetPrice, now time.Time) InsertStatement {
	models := []model.AdjustedPrice{}
	for _, p := range prices {
		models = append(models, model.AdjustedPrice{
			Symbol:    p.Symbol,
			Date:      util.ToDate(p.Date),
			Price:     p.Price,
			CreatedAt: now,
		})
	}

	return AdjustedPrice.
		INSERT(AdjustedPrice.MutableColumns).
		MODELS(models).
		ON_CONFLICT(
			AdjustedPrice.Symbol, AdjustedPrice.Date,
		).DO_UPDATE(
		SET(
			AdjustedPrice.Price.SET(AdjustedPrice.EXCLUDED.Price),
		),
	)
}

func (h adjustedPriceRepositoryHandler) Add(ctx context.Context, prices []domain.AssetPrice) error {
	if len(prices) == 0 {
		return nil
	}

	_, err := addPricesQuery(prices, time.Now()).ExecContext(ctx, h.Db)
	if err != nil {
		return fmt.Errorf("failed to add adjusted prices to db: %w", err)
	}

	h.readMutex.Lock()
	h.cache = map[listKey][]domain.AssetPrice{}
	h.readMutex.Unlock()

	return nil
}

func listPricesQuery(symbol string, start, end time.Time) SelectStatement {
	return AdjustedPrice.
		SELECT(AdjustedPrice.AllColumns).
		WHERE(
			AND(
				AdjustedPrice.Symbol.EQ(String(symbol)),
				AdjustedPrice.Date.BETWEEN(DateT(util.ToDate(start)), DateT(util.ToDate(end))),
			),
		).
		ORDER_BY(AdjustedPrice.Date.ASC())
}

func (h adjustedPriceRepositoryHandler) List(ctx context.Context, symbol string, start, end time.Time) ([]domain.AssetPrice, error) {
	k := listKey{
		symbol: symbol,
		start:  start.Format(time.DateOnly),
		end:    end.Format(time.DateOnly),
	}
	if cached, ok := h.getFromCache(k); ok {
		return cached, nil
	}

	result := []model.AdjustedPrice{}
	err := listPricesQuery(symbol, start, end).QueryContext(ctx, h.Db, &result)
	if err != nil {
		return nil, fmt.Errorf("failed to list prices for %s: %w", symbol, err)
	}

	out := []domain.AssetPrice{}
	for _, p := range result {
		out = append(out, domain.AssetPrice{
			Symbol: p.Symbol,
			Date:   util.ToDate(p.Date),
			Price:  p.Price,
		})
	}

	h.addToCache(k, out)
	return out, nil
}
