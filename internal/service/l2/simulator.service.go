package l2_service

import (
	"fmt"
	"math"
	"portfoliobacktest/internal/domain"
	"portfoliobacktest/internal/util"
	"time"
)

type SimulationStatus int

const (
	SimulationStatus_Uninitialized SimulationStatus = iota
	SimulationStatus_Running
	SimulationStatus_Completed
)

type SimulateInput struct {
	Panel      *domain.PricePanel
	Allocation domain.AllocationConfig
}

type SimulateResult struct {
	Records        []domain.DailyRecord
	RebalanceDates []time.Time
}

// PeriodKey maps a date to the rebalancing period it belongs to. a
// change of key between two consecutive dates marks a boundary
func PeriodKey(date time.Time, frequency domain.RebalanceFrequency) int {
	year, month, _ := date.Date()
	switch frequency {
	case domain.RebalanceFrequency_Monthly:
		return year*12 + int(month) - 1
	case domain.RebalanceFrequency_Quarterly:
		return year*4 + (int(month)-1)/3
	case domain.RebalanceFrequency_Annual:
		return year
	}
	return 0
}

// simulationState is owned by a single Simulate call
type simulationState struct {
	status    SimulationStatus
	portfolio *domain.Portfolio
	date      time.Time
	periodKey int
}

// Simulate folds over the panel's dates, carrying share counts forward
// and resetting them to the target weights at every period boundary.
// on error no records are returned
func Simulate(in SimulateInput) (*SimulateResult, error) {
	allocation, err := in.Allocation.Validate()
	if err != nil {
		return nil, err
	}
	if in.Panel == nil || in.Panel.Len() == 0 {
		return nil, domain.DataGapError{
			Ticker: "panel",
			Date:   allocation.Start,
			Reason: "price panel is empty",
		}
	}

	tickers := allocation.Tickers()
	for _, ticker := range tickers {
		if !in.Panel.HasTicker(ticker) {
			return nil, domain.InvalidPriceError{
				Ticker:  ticker,
				Date:    in.Panel.Date(0),
				Missing: true,
			}
		}
	}

	state := &simulationState{
		status: SimulationStatus_Uninitialized,
	}
	result := &SimulateResult{
		Records:        []domain.DailyRecord{},
		RebalanceDates: []time.Time{},
	}

	for i := 0; i < in.Panel.Len(); i++ {
		date := in.Panel.Date(i)
		if !util.InRange(date, allocation.Start, allocation.End) {
			continue
		}

		prices, err := pricesOnDate(in.Panel, tickers, i)
		if err != nil {
			return nil, err
		}

		record, err := state.step(date, prices, *allocation)
		if err != nil {
			return nil, fmt.Errorf("failed to simulate %s: %w", date.Format(time.DateOnly), err)
		}
		if record.Rebalanced {
			result.RebalanceDates = append(result.RebalanceDates, date)
		}
		result.Records = append(result.Records, record)
	}

	if state.status == SimulationStatus_Uninitialized {
		return nil, domain.DataGapError{
			Ticker: "panel",
			Date:   allocation.Start,
			Reason: "no panel dates inside the allocation range",
		}
	}
	state.status = SimulationStatus_Completed

	return result, nil
}

func pricesOnDate(panel *domain.PricePanel, tickers []string, i int) (map[string]float64, error) {
	out := map[string]float64{}
	for _, ticker := range tickers {
		price, ok := panel.Price(ticker, i)
		if !ok {
			return nil, domain.InvalidPriceError{Ticker: ticker, Date: panel.Date(i), Missing: true}
		}
		if math.IsNaN(price) || math.IsInf(price, 0) || price <= 0 {
			return nil, domain.InvalidPriceError{Ticker: ticker, Date: panel.Date(i), Price: price}
		}
		out[ticker] = price
	}
	return out, nil
}

func (s *simulationState) step(date time.Time, prices map[string]float64, allocation domain.AllocationConfig) (domain.DailyRecord, error) {
	key := PeriodKey(date, allocation.Frequency)
	rebalanced := false

	switch s.status {
	case SimulationStatus_Uninitialized:
		s.portfolio = allocate(allocation.InitialInvestment, prices, allocation)
		s.status = SimulationStatus_Running
	case SimulationStatus_Running:
		if key != s.periodKey {
			totalValue, err := s.portfolio.TotalValue(prices)
			if err != nil {
				return domain.DailyRecord{}, err
			}
			s.portfolio = allocate(totalValue, prices, allocation)
			rebalanced = true
		}
	default:
		return domain.DailyRecord{}, fmt.Errorf("simulation already completed")
	}

	s.date = date
	s.periodKey = key

	return snapshot(date, s.portfolio, prices, allocation.Weights, rebalanced)
}

// allocate splits totalValue across the target weights at the given
// prices. with whole shares the remainder stays in cash
func allocate(totalValue float64, prices map[string]float64, allocation domain.AllocationConfig) *domain.Portfolio {
	portfolio := domain.NewPortfolio()
	invested := 0.0
	for _, ticker := range allocation.Tickers() {
		weight := allocation.Weights[ticker]
		quantity := totalValue * weight / prices[ticker]
		if allocation.WholeShares {
			quantity = math.Floor(quantity)
			invested += quantity * prices[ticker]
		}
		portfolio.Shares[ticker] = quantity
	}
	if allocation.WholeShares {
		portfolio.Cash = totalValue - invested
	}
	return portfolio
}

func snapshot(date time.Time, portfolio *domain.Portfolio, prices map[string]float64, targetWeights map[string]float64, rebalanced bool) (domain.DailyRecord, error) {
	values, err := portfolio.Values(prices)
	if err != nil {
		return domain.DailyRecord{}, err
	}
	totalValue, err := portfolio.TotalValue(prices)
	if err != nil {
		return domain.DailyRecord{}, err
	}

	weights := map[string]float64{}
	maxDeviation := 0.0
	sumDeviation := 0.0
	for ticker, target := range targetWeights {
		w := 0.0
		if totalValue > 0 {
			w = values[ticker] / totalValue
		}
		weights[ticker] = w
		deviation := math.Abs(w - target)
		maxDeviation = math.Max(maxDeviation, deviation)
		sumDeviation += deviation
	}

	return domain.DailyRecord{
		Date:                date,
		Shares:              portfolio.DeepCopy().Shares,
		Values:              values,
		Cash:                portfolio.Cash,
		TotalValue:          totalValue,
		Weights:             weights,
		MaxWeightDeviation:  maxDeviation,
		MeanWeightDeviation: sumDeviation / float64(len(targetWeights)),
		Rebalanced:          rebalanced,
	}, nil
}
