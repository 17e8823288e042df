package entity

import "math/big"

// TxCategory identifies which ledger listing a transaction came from.
type TxCategory string

const (
	TxCategoryNormal   TxCategory = "normal"
	TxCategoryInternal TxCategory = "internal"
)

// RawTransaction is a transaction as reported by the ledger API, already parsed
// into full-precision integers. Value, GasUsed and GasPrice are in wei.
// GasUsed/GasPrice are nil when the provider omitted them or sent garbage.
type RawTransaction struct {
	Hash      string     `json:"hash"`
	Timestamp int64      `json:"timestamp"`
	From      string     `json:"from"`
	To        string     `json:"to"`
	Value     *big.Int   `json:"value"`
	GasUsed   *big.Int   `json:"gasUsed,omitempty"`
	GasPrice  *big.Int   `json:"gasPrice,omitempty"`
	IsError   bool       `json:"isError"`
	Category  TxCategory `json:"category"`
}

// GasCost returns gasUsed*gasPrice, or zero if either is missing.
func (t RawTransaction) GasCost() *big.Int {
	if t.GasUsed == nil || t.GasPrice == nil {
		return new(big.Int)
	}
	return new(big.Int).Mul(t.GasUsed, t.GasPrice)
}
