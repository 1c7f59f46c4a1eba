package summary

import (
	"encoding/json"

	"github.com/shopspring/decimal"

	"bybitdash/models"
)

type Position struct {
	Symbol        string  `json:"symbol"`
	Side          string  `json:"side"`
	Size          float64 `json:"size"`
	AvgPrice      float64 `json:"avgPrice"`
	MarkPrice     float64 `json:"markPrice"`
	UnrealisedPnl float64 `json:"unrealisedPnl"`
	Leverage      string  `json:"leverage"`
}

type PositionSummary struct {
	OpenCount          int        `json:"openCount"`
	TotalUnrealisedPnl float64    `json:"totalUnrealisedPnl"`
	OpenPositions      []Position `json:"openPositions"`
}

// Positions keeps rows with a strictly positive size and sums their
// unrealised PnL.
func Positions(raw json.RawMessage) PositionSummary {
	var res models.PositionListResult
	decode(raw, &res)

	summary := PositionSummary{OpenPositions: []Position{}}
	total := decimal.Zero
	for _, row := range res.List {
		size := Number(row.Size.String())
		if !size.IsPositive() {
			continue
		}
		pnl := Number(row.UnrealisedPnl.String())
		total = total.Add(pnl)
		summary.OpenPositions = append(summary.OpenPositions, Position{
			Symbol:        row.Symbol.String(),
			Side:          row.Side.String(),
			Size:          Float(size),
			AvgPrice:      Float(Number(row.AvgPrice.String())),
			MarkPrice:     Float(Number(row.MarkPrice.String())),
			UnrealisedPnl: Float(pnl),
			Leverage:      row.Leverage.String(),
		})
	}

	summary.OpenCount = len(summary.OpenPositions)
	summary.TotalUnrealisedPnl = Float(total)
	return summary
}
