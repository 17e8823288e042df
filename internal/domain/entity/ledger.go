package entity

import "math/big"

// Direction of a balance change relative to the tracked address.
type Direction string

const (
	DirectionIn  Direction = "IN"
	DirectionOut Direction = "OUT"
)

// BalanceLedgerEntry is one point of the reconstructed balance history.
// RunningBalance and ChangeAmount are display strings in whole currency units;
// RawBalance (unclamped) and RawChange keep the exact wei values.
type BalanceLedgerEntry struct {
	Timestamp      int64     `json:"timestamp"`
	RunningBalance string    `json:"balance"`
	TxHash         string    `json:"txHash"`
	ChangeAmount   string    `json:"change"`
	Direction      Direction `json:"type"`

	RawBalance *big.Int `json:"-"`
	RawChange  *big.Int `json:"-"`
}
