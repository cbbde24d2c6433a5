package repository

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"portfoliobacktest/internal/domain"
	"portfoliobacktest/internal/util"
	"strings"
	"time"
	"unicode"

	"github.com/gocarina/gocsv"
)

// PriceCacheEntry is one cached (symbol, start, end) series and the
// time it was fetched, which drives the freshness policy
type PriceCacheEntry struct {
	Symbol    string
	Start     time.Time
	End       time.Time
	FetchedAt time.Time
	Prices    []domain.AssetPrice
}

type PriceCacheRepository interface {
	// Get returns nil without error on a miss
	Get(symbol string, start, end time.Time) (*PriceCacheEntry, error)
	Put(entry PriceCacheEntry) error
}

type priceCacheRow struct {
	Date      string  `csv:"date"`
	Symbol    string  `csv:"symbol"`
	Price     float64 `csv:"price"`
	FetchedAt string  `csv:"fetched_at"`
}

type priceCacheRepositoryHandler struct {
	Dir string
}

// NewPriceCacheRepository stores one csv file per cache key under dir
func NewPriceCacheRepository(dir string) PriceCacheRepository {
	return priceCacheRepositoryHandler{
		Dir: dir,
	}
}

func cacheFileName(symbol string, start, end time.Time) string {
	clean := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '.' {
			return r
		}
		return '_'
	}, symbol)
	return fmt.Sprintf("prices_%s_%s_%s.csv", clean, start.Format(time.DateOnly), end.Format(time.DateOnly))
}

func (h priceCacheRepositoryHandler) Get(symbol string, start, end time.Time) (*PriceCacheEntry, error) {
	f, err := os.Open(filepath.Join(h.Dir, cacheFileName(symbol, start, end)))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open price cache for %s: %w", symbol, err)
	}
	defer f.Close()

	rows := []priceCacheRow{}
	if err := gocsv.UnmarshalFile(f, &rows); err != nil {
		return nil, fmt.Errorf("failed to read price cache for %s: %w", symbol, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	fetchedAt, err := time.Parse(time.RFC3339, rows[0].FetchedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse fetched_at in price cache for %s: %w", symbol, err)
	}

	prices := []domain.AssetPrice{}
	for _, row := range rows {
		date, err := util.ParseDate(row.Date)
		if err != nil {
			return nil, fmt.Errorf("failed to parse date in price cache for %s: %w", symbol, err)
		}
		prices = append(prices, domain.AssetPrice{
			Symbol: row.Symbol,
			Date:   date,
			Price:  row.Price,
		})
	}

	return &PriceCacheEntry{
		Symbol:    symbol,
		Start:     start,
		End:       end,
		FetchedAt: fetchedAt,
		Prices:    prices,
	}, nil
}

func (h priceCacheRepositoryHandler) Put(entry PriceCacheEntry) error {
	if err := os.MkdirAll(h.Dir, 0o755); err != nil {
		return fmt.Errorf("failed to create price cache dir: %w", err)
	}

	rows := []priceCacheRow{}
	for _, p := range entry.Prices {
		rows = append(rows, priceCacheRow{
			Date:      p.Date.Format(time.DateOnly),
			Symbol:    entry.Symbol,
			Price:     p.Price,
			FetchedAt: entry.FetchedAt.UTC().Format(time.RFC3339),
		})
	}

	// readers only ever see complete files
	path := filepath.Join(h.Dir, cacheFileName(entry.Symbol, entry.Start, entry.End))
	tmp, err := os.CreateTemp(h.Dir, "prices-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to write price cache for %s: %w", entry.Symbol, err)
	}
	if err := gocsv.MarshalFile(&rows, tmp); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write price cache for %s: %w", entry.Symbol, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}
