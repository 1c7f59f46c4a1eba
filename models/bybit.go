package models

import (
	"bytes"
	"encoding/json"
)

/////////////////////////////////////////////////////////////////////////////
///////////////////////////////// GENERAL ///////////////////////////////////
/////////////////////////////////////////////////////////////////////////////

// FlexString holds a scalar that Bybit may send as a JSON string or number.
// null and non-scalar values decode to the empty string.
type FlexString string

func (f *FlexString) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		*f = ""
		return nil
	}

	switch c := trimmed[0]; {
	case c == '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		*f = FlexString(s)
	case c == '-' || (c >= '0' && c <= '9'):
		*f = FlexString(trimmed)
	default:
		*f = ""
	}
	return nil
}

func (f FlexString) String() string {
	return string(f)
}

// List decodes a JSON array leniently: anything that is not an array yields an
// empty list and elements that do not decode into T are skipped.
type List[T any] []T

func (l *List[T]) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		*l = nil
		return nil
	}

	out := make(List[T], 0, len(raw))
	for _, item := range raw {
		var v T
		if err := json.Unmarshal(item, &v); err != nil {
			continue
		}
		out = append(out, v)
	}
	*l = out
	return nil
}

// Envelope is the outer document of every Bybit v5 REST response.
type Envelope struct {
	RetCode json.RawMessage `json:"retCode"`
	RetMsg  FlexString      `json:"retMsg"`
	Result  json.RawMessage `json:"result"`
}

// Succeeded reports whether retCode is present and numerically zero.
func (e Envelope) Succeeded() bool {
	raw := bytes.TrimSpace(e.RetCode)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return false
	}
	var code float64
	if err := json.Unmarshal(raw, &code); err != nil {
		return false
	}
	return code == 0
}

/////////////////////////////////////////////////////////////////////////////
///////////////////////////////// ACCOUNT ///////////////////////////////////
/////////////////////////////////////////////////////////////////////////////

// WalletBalanceResult mirrors the result of /v5/account/wallet-balance.
type WalletBalanceResult struct {
	List List[WalletAccount] `json:"list"`
}

// WalletAccount is one account entry of the wallet balance response.
type WalletAccount struct {
	AccountType        FlexString       `json:"accountType"`
	TotalEquity        FlexString       `json:"totalEquity"`
	TotalWalletBalance FlexString       `json:"totalWalletBalance"`
	TotalMarginBalance FlexString       `json:"totalMarginBalance"`
	Coin               List[WalletCoin] `json:"coin"`
}

type WalletCoin struct {
	Coin                FlexString `json:"coin"`
	WalletBalance       FlexString `json:"walletBalance"`
	UsdValue            FlexString `json:"usdValue"`
	AvailableToWithdraw FlexString `json:"availableToWithdraw"`
}

/////////////////////////////////////////////////////////////////////////////
///////////////////////////////// POSITION //////////////////////////////////
/////////////////////////////////////////////////////////////////////////////

// PositionListResult mirrors the result of /v5/position/list.
type PositionListResult struct {
	Category FlexString          `json:"category"`
	List     List[PositionEntry] `json:"list"`
}

type PositionEntry struct {
	Symbol        FlexString `json:"symbol"`
	Side          FlexString `json:"side"`
	Size          FlexString `json:"size"`
	AvgPrice      FlexString `json:"avgPrice"`
	MarkPrice     FlexString `json:"markPrice"`
	UnrealisedPnl FlexString `json:"unrealisedPnl"`
	Leverage      FlexString `json:"leverage"`
}

/////////////////////////////////////////////////////////////////////////////
///////////////////////////////// MARKET ////////////////////////////////////
/////////////////////////////////////////////////////////////////////////////

// TickersResult mirrors the result of /v5/market/tickers.
type TickersResult struct {
	Category FlexString        `json:"category"`
	List     List[TickerEntry] `json:"list"`
}

type TickerEntry struct {
	Symbol       FlexString `json:"symbol"`
	LastPrice    FlexString `json:"lastPrice"`
	Price24hPcnt FlexString `json:"price24hPcnt"`
	Turnover24h  FlexString `json:"turnover24h"`
}

// OrderBookResult mirrors the result of /v5/market/orderbook. Levels are
// [price, size] pairs.
type OrderBookResult struct {
	Symbol    FlexString     `json:"s"`
	Bids      [][]FlexString `json:"b"`
	Asks      [][]FlexString `json:"a"`
	Timestamp int64          `json:"ts"`
	UpdateID  int64          `json:"u"`
	Seq       int64          `json:"seq"`
}
