package service

import (
	"math/big"
	"time"

	"wallet_tracker/internal/domain/entity"
	"wallet_tracker/internal/pkg/utils"

	"github.com/shopspring/decimal"
)

// Joiner merges a ledger with prices into the response shape.
type Joiner struct {
	decimals int32
	network  string
	symbol   string
	currency string
}

// NewJoiner creates a joiner for amounts with the given decimals, priced in currency.
func NewJoiner(decimals int32, network, symbol, currency string) *Joiner {
	if decimals <= 0 {
		decimals = 18
	}
	return &Joiner{decimals: decimals, network: network, symbol: symbol, currency: currency}
}

// Join is pure: identical inputs give identical output. Entries without a price
// keep nil ValueInFiat and UnitPrice.
func (j *Joiner) Join(
	address string,
	ledger []entity.BalanceLedgerEntry,
	prices map[int64]decimal.Decimal,
	currentBalance *big.Int,
	currentPrice decimal.Decimal,
) entity.EnrichedHistory {
	if currentBalance == nil {
		currentBalance = new(big.Int)
	}

	history := entity.EnrichedHistory{
		Address:            address,
		Network:            j.network,
		Symbol:             j.symbol,
		Currency:           j.currency,
		CurrentBalance:     utils.FormatUnits(currentBalance, j.decimals),
		CurrentPrice:       currentPrice.String(),
		CurrentValueInFiat: j.toUnits(currentBalance).Mul(currentPrice).String(),
		History:            make([]entity.HistoryPoint, 0, len(ledger)),
	}

	for _, entry := range ledger {
		point := entity.HistoryPoint{
			Date:      time.Unix(entry.Timestamp, 0).UTC().Format(time.RFC3339),
			Timestamp: entry.Timestamp,
			Balance:   entry.RunningBalance,
			Change:    entry.ChangeAmount,
			Direction: entry.Direction,
			TxHash:    entry.TxHash,
		}
		if price, ok := prices[entry.Timestamp]; ok {
			value := j.entryBalance(entry).Mul(price).String()
			unit := price.String()
			point.ValueInFiat = &value
			point.UnitPrice = &unit
		}
		history.History = append(history.History, point)
	}
	return history
}

func (j *Joiner) toUnits(wei *big.Int) decimal.Decimal {
	return decimal.NewFromBigInt(wei, -j.decimals)
}

// entryBalance is the displayed (clamped) balance as an exact decimal.
func (j *Joiner) entryBalance(entry entity.BalanceLedgerEntry) decimal.Decimal {
	if entry.RawBalance != nil {
		return j.toUnits(utils.ClampZero(entry.RawBalance))
	}
	d, err := decimal.NewFromString(entry.RunningBalance)
	if err != nil {
		return decimal.Zero
	}
	return d
}
