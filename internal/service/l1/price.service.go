package l1_service

import (
	"context"
	"fmt"
	"portfoliobacktest/internal/domain"
	"portfoliobacktest/internal/logger"
	"portfoliobacktest/internal/repository"
	"portfoliobacktest/internal/util"
	"time"
)

/**

behavior - when i ask for prices, serve them from the disk cache if the
entry is fresh enough, otherwise fetch them again from the price source.
the backtest engine never sees any of this, it only gets the resolved series

*/

const (
	DefaultCacheMaxAge = 7 * 24 * time.Hour
	DefaultMaxAttempts = 3
	DefaultBackoff     = 500 * time.Millisecond
)

type PriceService interface {
	LoadPrices(ctx context.Context, symbols []string, start, end time.Time) (map[string][]domain.AssetPrice, error)
}

type PriceServiceOptions struct {
	CacheMaxAge time.Duration
	MaxAttempts int
	Backoff     time.Duration
	// Now is swapped in tests
	Now func() time.Time
}

type priceServiceHandler struct {
	PriceRepository repository.AdjustedPriceRepository
	CacheRepository repository.PriceCacheRepository
	opts            PriceServiceOptions
}

// NewPriceService wires a price source with an optional cache. a nil
// cacheRepository disables caching
func NewPriceService(priceRepository repository.AdjustedPriceRepository, cacheRepository repository.PriceCacheRepository, opts PriceServiceOptions) PriceService {
	if opts.CacheMaxAge <= 0 {
		opts.CacheMaxAge = DefaultCacheMaxAge
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = DefaultMaxAttempts
	}
	if opts.Backoff < 0 {
		opts.Backoff = 0
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return priceServiceHandler{
		PriceRepository: priceRepository,
		CacheRepository: cacheRepository,
		opts:            opts,
	}
}

func (h priceServiceHandler) LoadPrices(ctx context.Context, symbols []string, start, end time.Time) (map[string][]domain.AssetPrice, error) {
	start = util.ToDate(start)
	end = util.ToDate(end)
	out := map[string][]domain.AssetPrice{}
	for _, symbol := range symbols {
		if _, ok := out[symbol]; ok {
			continue
		}
		prices, err := h.loadSymbol(ctx, symbol, start, end)
		if err != nil {
			return nil, err
		}
		out[symbol] = prices
	}
	return out, nil
}

func (h priceServiceHandler) loadSymbol(ctx context.Context, symbol string, start, end time.Time) ([]domain.AssetPrice, error) {
	log := logger.FromContext(ctx)

	var cached *repository.PriceCacheEntry
	if h.CacheRepository != nil {
		entry, err := h.CacheRepository.Get(symbol, start, end)
		if err != nil {
			log.Warnw("ignoring unreadable price cache", "symbol", symbol, "error", err)
		} else if entry != nil {
			cached = entry
			if h.opts.Now().Sub(entry.FetchedAt) <= h.opts.CacheMaxAge {
				return entry.Prices, nil
			}
		}
	}

	prices, err := h.fetchWithRetry(ctx, symbol, start, end)
	if err != nil {
		if cached != nil {
			log.Warnw("price fetch failed, serving stale cache", "symbol", symbol, "fetchedAt", cached.FetchedAt, "error", err)
			return cached.Prices, nil
		}
		return nil, err
	}
	if len(prices) == 0 {
		return nil, fmt.Errorf("no prices found for symbol %s between %s and %s", symbol, start.Format(time.DateOnly), end.Format(time.DateOnly))
	}

	if h.CacheRepository != nil {
		err = h.CacheRepository.Put(repository.PriceCacheEntry{
			Symbol:    symbol,
			Start:     start,
			End:       end,
			FetchedAt: h.opts.Now(),
			Prices:    prices,
		})
		if err != nil {
			log.Warnw("failed to write price cache", "symbol", symbol, "error", err)
		}
	}

	return prices, nil
}

func (h priceServiceHandler) fetchWithRetry(ctx context.Context, symbol string, start, end time.Time) ([]domain.AssetPrice, error) {
	log := logger.FromContext(ctx)

	var lastErr error
	for attempt := 1; attempt <= h.opts.MaxAttempts; attempt++ {
		prices, err := h.PriceRepository.List(ctx, symbol, start, end)
		if err == nil {
			return prices, nil
		}
		lastErr = err
		log.Warnw("price fetch failed", "symbol", symbol, "attempt", attempt, "error", err)

		if attempt == h.opts.MaxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(time.Duration(attempt) * h.opts.Backoff):
		}
	}

	return nil, fmt.Errorf("failed to fetch prices for %s after %d attempts: %w", symbol, h.opts.MaxAttempts, lastErr)
}
