package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"portfoliobacktest/internal"
	"portfoliobacktest/internal/domain"
	mock_l1_service "portfoliobacktest/internal/service/l1/mocks"
	l3_service "portfoliobacktest/internal/service/l3"
	"portfoliobacktest/internal/util"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func weekdayPrices(symbol string, start time.Time, n int, initial, step float64) []domain.AssetPrice {
	out := []domain.AssetPrice{}
	price := initial
	for d := start; len(out) < n; d = d.AddDate(0, 0, 1) {
		if d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
			continue
		}
		out = append(out, domain.AssetPrice{Symbol: symbol, Date: d, Price: price})
		price += step
	}
	return out
}

func newTestHandler(t *testing.T) ApiHandler {
	gin.SetMode(gin.TestMode)
	prices := map[string][]domain.AssetPrice{
		"VTI":   weekdayPrices("VTI", util.NewDate(2021, 12, 27), 80, 200, 0.5),
		"BND":   weekdayPrices("BND", util.NewDate(2021, 12, 27), 80, 85, -0.05),
		"^GSPC": weekdayPrices("^GSPC", util.NewDate(2021, 12, 27), 80, 4700, 2),
	}

	ctrl := gomock.NewController(t)
	priceService := mock_l1_service.NewMockPriceService(ctrl)
	priceService.EXPECT().
		LoadPrices(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, symbols []string, start, end time.Time) (map[string][]domain.AssetPrice, error) {
			out := map[string][]domain.AssetPrice{}
			for _, s := range symbols {
				series, ok := prices[s]
				if !ok {
					return nil, fmt.Errorf("no prices found for symbol %s", s)
				}
				out[s] = series
			}
			return out, nil
		}).
		AnyTimes()

	return ApiHandler{
		BacktestService:  l3_service.NewBacktestService(priceService, nil),
		BenchmarkHandler: internal.BenchmarkHandler{PriceService: priceService},
		Defaults: BacktestDefaults{
			InitialInvestment: 100000,
			Rebalance:         "quarterly",
			Benchmarks:        []string{"^GSPC", "BND"},
		},
	}
}

func doJson(t *testing.T, engine *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func TestBacktestResolver(t *testing.T) {
	engine := newTestHandler(t).InitializeRouterEngine()

	t.Run("runs a backtest", func(t *testing.T) {
		w := doJson(t, engine, http.MethodPost, "/backtest", BacktestRequest{
			Weights:   map[string]float64{"VTI": 0.6, "BND": 0.4},
			Start:     "2022-01-03",
			End:       "2022-03-31",
			Rebalance: "M",
		})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		response := BacktestResponse{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		_, err := uuid.Parse(response.RunID)
		require.NoError(t, err)
		require.Equal(t, []string{"2022-02-01", "2022-03-01"}, response.RebalanceDates)
		require.Equal(t, "2022-01-03", response.Records[0].Date)
		require.InDelta(t, 100000, response.Records[0].TotalValue, 1e-6)
		require.NotNil(t, response.Metrics["total_return"])
		require.NotNil(t, response.Benchmark)
		require.Equal(t, "^GSPC", *response.Benchmark)
		require.Contains(t, response.Benchmarks, "60/40")
		require.Len(t, response.Profile.Spans, 5)
	})

	t.Run("bad weights are a 400", func(t *testing.T) {
		w := doJson(t, engine, http.MethodPost, "/backtest", BacktestRequest{
			Weights: map[string]float64{"VTI": 0.6, "BND": 0.6},
			Start:   "2022-01-03",
		})
		require.Equal(t, http.StatusBadRequest, w.Code)
		require.Contains(t, w.Body.String(), "weights should sum to 1")
	})

	t.Run("unknown frequency is a 400", func(t *testing.T) {
		w := doJson(t, engine, http.MethodPost, "/backtest", BacktestRequest{
			Weights:   map[string]float64{"VTI": 1},
			Start:     "2022-01-03",
			Rebalance: "fortnightly",
		})
		require.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("price source failure is a 500", func(t *testing.T) {
		w := doJson(t, engine, http.MethodPost, "/backtest", BacktestRequest{
			Weights:    map[string]float64{"QQQ": 1},
			Start:      "2022-01-03",
			End:        "2022-02-01",
			Benchmarks: []string{},
		})
		require.Equal(t, http.StatusInternalServerError, w.Code)
	})
}

func TestBenchmarkResolver(t *testing.T) {
	engine := newTestHandler(t).InitializeRouterEngine()

	w := doJson(t, engine, http.MethodPost, "/benchmark", benchmarkRequest{
		Symbol: "^GSPC",
		Start:  "2021-12-27",
		End:    "2021-12-29",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	response := benchmarkResponse{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	require.Equal(t, 0.0, response["2021-12-27"])
	require.InDelta(t, 100*4.0/4700, response["2021-12-29"], 1e-9)

	w = doJson(t, engine, http.MethodPost, "/benchmark", benchmarkRequest{
		Symbol: "^GSPC",
		Start:  "2021-12-29",
		End:    "2021-12-27",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestWelcome(t *testing.T) {
	engine := newTestHandler(t).InitializeRouterEngine()
	w := doJson(t, engine, http.MethodGet, "/", nil)
	require.Equal(t, http.StatusOK, w.Code)
}
