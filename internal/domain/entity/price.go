package entity

import "github.com/shopspring/decimal"

// PriceSample is a close price reported by the price API for a candle
// that closed at or before the requested timestamp.
type PriceSample struct {
	Timestamp int64           `json:"timestamp"`
	Close     decimal.Decimal `json:"close"`
}
