package port

import (
	"context"

	"wallet_tracker/internal/domain/entity"
)

// LedgerClient lists the transactions of an address from a block explorer.
type LedgerClient interface {
	// GetTransactions returns every transaction of the given category over the
	// full block range in ascending order. An empty history is not an error.
	GetTransactions(ctx context.Context, address string, category entity.TxCategory) ([]entity.RawTransaction, error)
}

// TransactionSource gathers all transactions of an address, absorbing partial failures.
type TransactionSource interface {
	FetchTransactions(ctx context.Context, address string) []entity.RawTransaction
}

// BalanceReconstructor turns raw transactions into a running-balance ledger.
type BalanceReconstructor interface {
	Reconstruct(address string, txs []entity.RawTransaction) []entity.BalanceLedgerEntry
}
