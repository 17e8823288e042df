package service

import (
	"context"

	"wallet_tracker/internal/app/port"
	"wallet_tracker/internal/domain/entity"

	"golang.org/x/sync/errgroup"
)

// transactionSourceImpl implements port.TransactionSource on top of a ledger client.
type transactionSourceImpl struct {
	ledger port.LedgerClient
	logger port.Logger
}

// NewTransactionSource creates a new transaction source.
func NewTransactionSource(ledger port.LedgerClient, l port.Logger) port.TransactionSource {
	return &transactionSourceImpl{ledger: ledger, logger: l}
}

// FetchTransactions queries normal and internal transactions concurrently.
// A failed query is logged and contributes an empty list. The result is the
// normal list followed by the internal one, unsorted.
func (s *transactionSourceImpl) FetchTransactions(ctx context.Context, address string) []entity.RawTransaction {
	categories := []entity.TxCategory{entity.TxCategoryNormal, entity.TxCategoryInternal}
	results := make([][]entity.RawTransaction, len(categories))

	g, gctx := errgroup.WithContext(ctx)
	for i, category := range categories {
		g.Go(func() error {
			txs, err := s.ledger.GetTransactions(gctx, address, category)
			if err != nil {
				s.logger.Warn("Transaction query failed, continuing without it",
					"address", address, "category", category, "error", err)
				return nil
			}
			results[i] = txs
			return nil
		})
	}
	_ = g.Wait() // горутины не возвращают ошибок

	total := 0
	for _, r := range results {
		total += len(r)
	}
	all := make([]entity.RawTransaction, 0, total)
	for _, r := range results {
		all = append(all, r...)
	}

	s.logger.Debug("Transactions fetched", "address", address,
		"normal", len(results[0]), "internal", len(results[1]))
	return all
}
