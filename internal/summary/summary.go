// Package summary reduces raw Bybit results to the compact shapes rendered
// by the dashboard. Every function is total: malformed or missing input
// degrades to zero values and empty lists, never to an error.
package summary

import (
	"encoding/json"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// MaxBalances caps the number of coin balances in a wallet summary.
const MaxBalances = 10

var (
	DefaultImportantCoins = []string{"USDT", "BTC", "ETH", "USDC"}
	DefaultTrackedSymbols = []string{"BTCUSDT", "ETHUSDT", "SOLUSDT", "XRPUSDT"}
)

// Set is a membership set of upper-case identifiers such as coins or symbols.
type Set map[string]struct{}

func NewSet(values ...string) Set {
	s := make(Set, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		s[v] = struct{}{}
	}
	return s
}

func (s Set) Has(v string) bool {
	_, ok := s[v]
	return ok
}

// Number parses s as a decimal. Empty, unparsable or out of float64 range
// input yields zero.
func Number(s string) decimal.Decimal {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	if !inRange(d) {
		return decimal.Zero
	}
	return d
}

// Decimal magnitudes beyond these bounds overflow or underflow a float64.
const (
	maxMagnitude = 309
	minMagnitude = -330
)

// inRange reports whether d lies within float64 range, judged from its
// exponent and coefficient length so huge exponents are never expanded.
func inRange(d decimal.Decimal) bool {
	if d.IsZero() {
		return true
	}
	magnitude := int(d.Exponent()) + len(d.Abs().Coefficient().Text(10))
	return magnitude <= maxMagnitude && magnitude >= minMagnitude
}

// Float converts d for JSON rendering. Values that do not fit a finite
// float64 become zero.
func Float(d decimal.Decimal) float64 {
	f := d.InexactFloat64()
	if !finite(f) {
		return 0
	}
	return f
}

func finite(f float64) bool {
	return !math.IsInf(f, 0) && !math.IsNaN(f)
}

// decode unmarshals raw into v, leaving v at its zero value when raw is not
// a JSON object of the expected shape.
func decode(raw json.RawMessage, v interface{}) {
	if len(raw) == 0 {
		return
	}
	_ = json.Unmarshal(raw, v)
}
