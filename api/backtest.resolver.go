package api

import (
	"fmt"
	"net/http"
	"portfoliobacktest/internal/domain"
	l3_service "portfoliobacktest/internal/service/l3"
	"portfoliobacktest/internal/util"
	"time"

	"github.com/gin-gonic/gin"
)

type BacktestRequest struct {
	Weights           map[string]float64 `json:"weights"`
	Start             string             `json:"start"`
	End               string             `json:"end"`
	Rebalance         string             `json:"rebalance"`
	InitialInvestment float64            `json:"initialInvestment"`
	Benchmarks        []string           `json:"benchmarks"`
	RiskFreeRate      *float64           `json:"riskFreeRate"`
	WholeShares       bool               `json:"wholeShares"`
	NormalizeWeights  bool               `json:"normalizeWeights"`
}

type recordResponse struct {
	Date       string             `json:"date"`
	TotalValue float64            `json:"totalValue"`
	Cash       float64            `json:"cash"`
	Values     map[string]float64 `json:"values"`
	Weights    map[string]float64 `json:"weights"`
	Rebalanced bool               `json:"rebalanced"`
}

type drawdownResponse struct {
	Peak     string  `json:"peak"`
	Trough   string  `json:"trough"`
	Recovery *string `json:"recovery"`
	Loss     float64 `json:"loss"`
}

type BacktestResponse struct {
	RunID          string                         `json:"runID"`
	RiskFreeRate   float64                        `json:"riskFreeRate"`
	Metrics        map[string]*float64            `json:"metrics"`
	Benchmark      *string                        `json:"benchmark"`
	MonthlyReturns map[int]map[time.Month]float64 `json:"monthlyReturns"`
	YTD            map[int]float64                `json:"ytd"`
	Drawdowns      []drawdownResponse             `json:"drawdowns"`
	RebalanceDates []string                       `json:"rebalanceDates"`
	Records        []recordResponse               `json:"records"`
	Benchmarks     map[string]map[string]float64  `json:"benchmarks"`
	Profile        *domain.Profile                `json:"profile"`
}

func (h ApiHandler) backtest(c *gin.Context) {
	profile, endProfile := domain.NewProfile()
	ctx := domain.NewCtxWithProfile(c.Request.Context(), profile)

	var requestBody BacktestRequest
	if err := c.ShouldBindJSON(&requestBody); err != nil {
		returnErrorJsonCode(fmt.Errorf("failed to read request body: %w", err), c, http.StatusBadRequest)
		return
	}

	in, err := h.backtestInputFromRequest(requestBody)
	if err != nil {
		returnErrorJson(err, c)
		return
	}

	result, err := h.BacktestService.Run(ctx, *in)
	if err != nil {
		returnErrorJson(fmt.Errorf("failed to run backtest: %w", err), c)
		return
	}
	endProfile()

	c.JSON(200, newBacktestResponse(result, profile))
}

func (h ApiHandler) backtestInputFromRequest(req BacktestRequest) (*l3_service.BacktestInput, error) {
	start, err := util.ParseDate(req.Start)
	if err != nil {
		return nil, domain.ConfigError{Field: "start", Reason: err.Error()}
	}
	var end time.Time
	if req.End != "" {
		end, err = util.ParseDate(req.End)
		if err != nil {
			return nil, domain.ConfigError{Field: "end", Reason: err.Error()}
		}
	}

	rebalance := req.Rebalance
	if rebalance == "" {
		rebalance = h.Defaults.Rebalance
	}
	frequency, err := domain.NewRebalanceFrequency(rebalance)
	if err != nil {
		return nil, err
	}

	initialInvestment := req.InitialInvestment
	if initialInvestment == 0 {
		initialInvestment = h.Defaults.InitialInvestment
	}
	benchmarks := req.Benchmarks
	if benchmarks == nil {
		benchmarks = h.Defaults.Benchmarks
	}
	riskFreeRate := req.RiskFreeRate
	if riskFreeRate == nil {
		riskFreeRate = h.Defaults.RiskFreeRate
	}

	return &l3_service.BacktestInput{
		Allocation: domain.AllocationConfig{
			Weights:           req.Weights,
			InitialInvestment: initialInvestment,
			Frequency:         frequency,
			Start:             start,
			End:               end,
			NormalizeWeights:  req.NormalizeWeights,
			WholeShares:       req.WholeShares,
		},
		Benchmarks:   benchmarks,
		Blends:       l3_service.DefaultBenchmarkBlends(benchmarks),
		RiskFreeRate: riskFreeRate,
	}, nil
}

func newBacktestResponse(result *l3_service.BacktestResult, profile *domain.Profile) BacktestResponse {
	out := BacktestResponse{
		RunID:          result.RunID.String(),
		RiskFreeRate:   result.RiskFreeRate,
		Metrics:        result.Metrics.AsMap(),
		MonthlyReturns: result.Metrics.MonthlyReturns.Returns,
		YTD:            result.Metrics.MonthlyReturns.YTD,
		Drawdowns:      []drawdownResponse{},
		RebalanceDates: []string{},
		Records:        []recordResponse{},
		Benchmarks:     map[string]map[string]float64{},
		Profile:        profile,
	}
	if result.Metrics.Benchmark != nil {
		out.Benchmark = &result.Metrics.Benchmark.Symbol
	}

	for _, d := range result.Metrics.Drawdowns {
		row := drawdownResponse{
			Peak:   d.Peak.Format(time.DateOnly),
			Trough: d.Trough.Format(time.DateOnly),
			Loss:   d.Loss,
		}
		if d.Recovery != nil {
			recovery := d.Recovery.Format(time.DateOnly)
			row.Recovery = &recovery
		}
		out.Drawdowns = append(out.Drawdowns, row)
	}
	for _, d := range result.RebalanceDates {
		out.RebalanceDates = append(out.RebalanceDates, d.Format(time.DateOnly))
	}
	for _, r := range result.Records {
		out.Records = append(out.Records, recordResponse{
			Date:       r.Date.Format(time.DateOnly),
			TotalValue: r.TotalValue,
			Cash:       r.Cash,
			Values:     r.Values,
			Weights:    r.Weights,
			Rebalanced: r.Rebalanced,
		})
	}
	for _, b := range result.Benchmarks {
		values := map[string]float64{}
		for _, p := range b.Values {
			values[p.Date.Format(time.DateOnly)] = p.Value
		}
		out.Benchmarks[b.Symbol] = values
	}

	return out
}
