package exchange

import (
	"context"
	"encoding/json"
	"time"

	"bybitdash/internal/summary"
	"bybitdash/logger"
	"bybitdash/models"
)

// Level is one price level of an order book side.
type Level struct {
	Price float64 `json:"price"`
	Size  float64 `json:"size"`
}

// OrderBook is the public linear depth snapshot for one symbol.
type OrderBook struct {
	Symbol    string  `json:"symbol"`
	Bids      []Level `json:"bids"`
	Asks      []Level `json:"asks"`
	Timestamp int64   `json:"ts"`
	UpdateID  int64   `json:"updateId"`
}

// OrderBook fetches the public order book of a linear symbol through the
// Bybit SDK. No credentials are required.
func (c *Client) OrderBook(ctx context.Context, symbol string, limit int) (OrderBook, error) {
	start := time.Now()
	book, err := c.orderBook(ctx, symbol, limit)
	c.observe(EndpointOrderBook, time.Since(start), err)
	return book, err
}

func (c *Client) orderBook(ctx context.Context, symbol string, limit int) (OrderBook, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return OrderBook{}, &Error{Kind: KindTransport, Endpoint: EndpointOrderBook, Message: "rate limiter wait failed", Err: err}
		}
	}

	params := map[string]interface{}{
		"category": "linear",
		"symbol":   symbol,
		"limit":    limit,
	}

	resp, err := c.public.NewUtaBybitServiceWithParams(params).GetOrderBookInfo(ctx)
	if err != nil {
		return OrderBook{}, &Error{Kind: KindTransport, Endpoint: EndpointOrderBook, Message: "Bybit request failed", Err: err}
	}
	if resp == nil {
		return OrderBook{}, &Error{Kind: KindProtocol, Endpoint: EndpointOrderBook, Message: "Bybit returned an empty response"}
	}
	if resp.RetCode != 0 {
		return OrderBook{}, remoteError(EndpointOrderBook, resp.RetMsg)
	}

	payload, err := json.Marshal(resp.Result)
	if err != nil {
		return OrderBook{}, &Error{Kind: KindProtocol, Endpoint: EndpointOrderBook, Message: "failed to marshal order book", Err: err}
	}

	var raw models.OrderBookResult
	if err := json.Unmarshal(payload, &raw); err != nil {
		return OrderBook{}, &Error{Kind: KindProtocol, Endpoint: EndpointOrderBook, Message: "unexpected order book shape", Err: err}
	}

	book := OrderBook{
		Symbol:    raw.Symbol.String(),
		Bids:      levels(raw.Bids),
		Asks:      levels(raw.Asks),
		Timestamp: raw.Timestamp,
		UpdateID:  raw.UpdateID,
	}
	if book.Symbol == "" {
		book.Symbol = symbol
	}

	c.log.WithComponent("bybit_client").WithFields(logger.Fields{
		"symbol": book.Symbol,
		"bids":   len(book.Bids),
		"asks":   len(book.Asks),
	}).Debug("order book fetched")

	return book, nil
}

func levels(rows [][]models.FlexString) []Level {
	out := make([]Level, 0, len(rows))
	for _, row := range rows {
		if len(row) < 2 {
			continue
		}
		out = append(out, Level{
			Price: summary.Float(summary.Number(row[0].String())),
			Size:  summary.Float(summary.Number(row[1].String())),
		})
	}
	return out
}
