package export

import (
	"fmt"
	"io"
	"portfoliobacktest/internal/domain"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/shopspring/decimal"
)

type RecordRow struct {
	Date                string  `csv:"date"`
	TotalValue          string  `csv:"total_value"`
	Cash                string  `csv:"cash"`
	MaxWeightDeviation  float64 `csv:"max_weight_deviation"`
	MeanWeightDeviation float64 `csv:"mean_weight_deviation"`
	Rebalanced          bool    `csv:"rebalanced"`
}

type HoldingRow struct {
	Date   string  `csv:"date"`
	Symbol string  `csv:"symbol"`
	Shares float64 `csv:"shares"`
	Value  string  `csv:"value"`
	Weight float64 `csv:"weight"`
}

func cents(f float64) string {
	return decimal.NewFromFloat(f).StringFixed(2)
}

// WriteRecordsCSV writes one row per simulated date
func WriteRecordsCSV(w io.Writer, records []domain.DailyRecord) error {
	rows := []*RecordRow{}
	for _, r := range records {
		rows = append(rows, &RecordRow{
			Date:                r.Date.Format(time.DateOnly),
			TotalValue:          cents(r.TotalValue),
			Cash:                cents(r.Cash),
			MaxWeightDeviation:  r.MaxWeightDeviation,
			MeanWeightDeviation: r.MeanWeightDeviation,
			Rebalanced:          r.Rebalanced,
		})
	}
	if err := gocsv.Marshal(rows, w); err != nil {
		return fmt.Errorf("failed to write records csv: %w", err)
	}
	return nil
}

// WriteHoldingsCSV writes one row per date and symbol
func WriteHoldingsCSV(w io.Writer, records []domain.DailyRecord) error {
	rows := []*HoldingRow{}
	for _, r := range records {
		portfolio := domain.Portfolio{Shares: r.Shares}
		for _, symbol := range portfolio.HeldSymbols() {
			rows = append(rows, &HoldingRow{
				Date:   r.Date.Format(time.DateOnly),
				Symbol: symbol,
				Shares: r.Shares[symbol],
				Value:  cents(r.Values[symbol]),
				Weight: r.Weights[symbol],
			})
		}
	}
	if err := gocsv.Marshal(rows, w); err != nil {
		return fmt.Errorf("failed to write holdings csv: %w", err)
	}
	return nil
}
