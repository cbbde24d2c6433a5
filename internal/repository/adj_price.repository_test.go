package repository

import (
	"portfoliobacktest/internal/domain"
	"portfoliobacktest/internal/util"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func Test_listPricesQuery(t *testing.T) {
	query, args := listPricesQuery("VTI", util.NewDate(2023, 1, 3), util.NewDate(2023, 6, 30)).Sql()

	require.Contains(t, query, "FROM public.adjusted_price")
	require.Contains(t, query, "adjusted_price.symbol = $1")
	require.Contains(t, query, "BETWEEN $2")
	require.Contains(t, query, "ORDER BY adjusted_price.date ASC")
	require.Len(t, args, 3)
	require.Equal(t, "VTI", args[0])
}

func Test_addPricesQuery(t *testing.T) {
	now := time.Date(2024, 2, 1, 9, 30, 0, 0, time.UTC)
	prices := []domain.AssetPrice{
		{Symbol: "VTI", Date: time.Date(2023, 1, 3, 16, 0, 0, 0, time.UTC), Price: 190.5},
		{Symbol: "BND", Date: util.NewDate(2023, 1, 3), Price: 71.2},
	}

	query, args := addPricesQuery(prices, now).Sql()

	require.Contains(t, query, "INSERT INTO public.adjusted_price")
	require.NotContains(t, query, "adjusted_price_id")
	require.Contains(t, query, "ON CONFLICT (symbol, date)")
	require.Contains(t, query, "price = excluded.price")
	// date, symbol, price, created_at per row
	require.Len(t, args, 8)
	require.Equal(t, []interface{}{util.NewDate(2023, 1, 3), "VTI", 190.5, now}, args[:4])
	require.Equal(t, "BND", args[5])
}
