package summary

import (
	"encoding/json"

	"bybitdash/models"
)

type Ticker struct {
	Symbol       string  `json:"symbol"`
	LastPrice    float64 `json:"lastPrice"`
	Price24hPcnt float64 `json:"price24hPcnt"`
	Turnover24h  float64 `json:"turnover24h"`
}

// Market keeps tickers whose symbol is tracked, in the order Bybit returned them.
func Market(raw json.RawMessage, tracked Set) []Ticker {
	var res models.TickersResult
	decode(raw, &res)

	out := []Ticker{}
	for _, row := range res.List {
		if !tracked.Has(row.Symbol.String()) {
			continue
		}
		out = append(out, Ticker{
			Symbol:       row.Symbol.String(),
			LastPrice:    Float(Number(row.LastPrice.String())),
			Price24hPcnt: Float(Number(row.Price24hPcnt.String())),
			Turnover24h:  Float(Number(row.Turnover24h.String())),
		})
	}
	return out
}
