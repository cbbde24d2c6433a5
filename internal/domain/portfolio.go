package domain

import (
	"fmt"
	"sort"
	"time"
)

// Portfolio is the simulator's holdings between two dates. share
// counts may be fractional
type Portfolio struct {
	Shares map[string]float64
	Cash   float64
}

func NewPortfolio() *Portfolio {
	return &Portfolio{
		Shares: map[string]float64{},
	}
}

// HeldSymbols is sorted so sums over positions are reproducible
func (p Portfolio) HeldSymbols() []string {
	symbols := []string{}
	for symbol := range p.Shares {
		symbols = append(symbols, symbol)
	}
	sort.Strings(symbols)
	return symbols
}

func (p Portfolio) DeepCopy() *Portfolio {
	newPortfolio := &Portfolio{
		Cash:   p.Cash,
		Shares: map[string]float64{},
	}
	for symbol, quantity := range p.Shares {
		newPortfolio.Shares[symbol] = quantity
	}
	return newPortfolio
}

// Values returns the dollar value of each position
func (p Portfolio) Values(priceMap map[string]float64) (map[string]float64, error) {
	out := map[string]float64{}
	for symbol, quantity := range p.Shares {
		price, ok := priceMap[symbol]
		if !ok {
			return nil, fmt.Errorf("cannot compute portfolio value: price map missing %s", symbol)
		}
		out[symbol] = quantity * price
	}
	return out, nil
}

func (p Portfolio) TotalValue(priceMap map[string]float64) (float64, error) {
	values, err := p.Values(priceMap)
	if err != nil {
		return 0, err
	}
	totalValue := p.Cash
	for _, symbol := range p.HeldSymbols() {
		totalValue += values[symbol]
	}
	return totalValue, nil
}

// DailyRecord is the snapshot the simulator emits for every date.
// values and weights are taken after any rebalance on that date
type DailyRecord struct {
	Date       time.Time
	Shares     map[string]float64
	Values     map[string]float64
	Cash       float64
	TotalValue float64
	Weights    map[string]float64

	MaxWeightDeviation  float64
	MeanWeightDeviation float64
	Rebalanced          bool
}

type ValuePoint struct {
	Date  time.Time
	Value float64
}

// TotalValueSeries projects records onto (date, total value) points
func TotalValueSeries(records []DailyRecord) []ValuePoint {
	out := make([]ValuePoint, 0, len(records))
	for _, r := range records {
		out = append(out, ValuePoint{
			Date:  r.Date,
			Value: r.TotalValue,
		})
	}
	return out
}
