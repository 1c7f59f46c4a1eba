package summary

import (
	"encoding/json"
	"sort"

	"github.com/shopspring/decimal"

	"bybitdash/models"
)

type Balance struct {
	Coin                string  `json:"coin"`
	WalletBalance       float64 `json:"walletBalance"`
	UsdValue            float64 `json:"usdValue"`
	AvailableToWithdraw float64 `json:"availableToWithdraw"`
}

type WalletSummary struct {
	TotalEquity        float64   `json:"totalEquity"`
	TotalWalletBalance float64   `json:"totalWalletBalance"`
	TotalMarginBalance float64   `json:"totalMarginBalance"`
	Balances           []Balance `json:"balances"`
}

// Wallet summarises the first account of a wallet balance result. Coins are
// kept when they are in important or hold a positive wallet balance, ordered
// by USD value descending and capped at MaxBalances.
func Wallet(raw json.RawMessage, important Set) WalletSummary {
	var res models.WalletBalanceResult
	decode(raw, &res)

	summary := WalletSummary{Balances: []Balance{}}
	if len(res.List) == 0 {
		return summary
	}

	account := res.List[0]
	summary.TotalEquity = Float(Number(account.TotalEquity.String()))
	summary.TotalWalletBalance = Float(Number(account.TotalWalletBalance.String()))
	summary.TotalMarginBalance = Float(Number(account.TotalMarginBalance.String()))

	type ranked struct {
		balance  Balance
		usdValue decimal.Decimal
	}

	kept := make([]ranked, 0, len(account.Coin))
	for _, coin := range account.Coin {
		walletBalance := Number(coin.WalletBalance.String())
		if !important.Has(coin.Coin.String()) && !walletBalance.IsPositive() {
			continue
		}
		usdValue := Number(coin.UsdValue.String())
		kept = append(kept, ranked{
			balance: Balance{
				Coin:                coin.Coin.String(),
				WalletBalance:       Float(walletBalance),
				UsdValue:            Float(usdValue),
				AvailableToWithdraw: Float(Number(coin.AvailableToWithdraw.String())),
			},
			usdValue: usdValue,
		})
	}

	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].usdValue.GreaterThan(kept[j].usdValue)
	})

	if len(kept) > MaxBalances {
		kept = kept[:MaxBalances]
	}
	for _, r := range kept {
		summary.Balances = append(summary.Balances, r.balance)
	}
	return summary
}
