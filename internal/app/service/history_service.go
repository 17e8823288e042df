package service

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"wallet_tracker/internal/app/port"
	"wallet_tracker/internal/domain/entity"
	"wallet_tracker/internal/metrics"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

const defaultPipelineTimeout = 60 * time.Second

// HistoryDeps groups the collaborators of the history pipeline.
type HistoryDeps struct {
	Wallets       port.WalletStore
	Transactions  port.TransactionSource
	Reconstructor port.BalanceReconstructor
	Prices        port.PriceService
	Balances      port.BalanceClient
	Joiner        *Joiner
	Logger        port.Logger
}

// historyServiceImpl implements port.HistoryService.
// Concurrent requests for the same address share one pipeline run.
type historyServiceImpl struct {
	HistoryDeps
	pipelineTimeout time.Duration
	inflight        singleflight.Group
}

// NewHistoryService creates the balance history pipeline.
func NewHistoryService(deps HistoryDeps, pipelineTimeout time.Duration) port.HistoryService {
	if pipelineTimeout <= 0 {
		pipelineTimeout = defaultPipelineTimeout
	}
	return &historyServiceImpl{HistoryDeps: deps, pipelineTimeout: pipelineTimeout}
}

// GetBalanceHistory resolves the saved wallet of userID and builds its history.
// No external call is made when the user has no wallet.
func (s *historyServiceImpl) GetBalanceHistory(ctx context.Context, userID string) (entity.EnrichedHistory, error) {
	if strings.TrimSpace(userID) == "" {
		return entity.EnrichedHistory{}, entity.ErrInvalidUserID
	}

	record, err := s.Wallets.Get(ctx, userID)
	if errors.Is(err, entity.ErrWalletNotFound) || (err == nil && record.Address == "") {
		return entity.EnrichedHistory{}, entity.ErrWalletNotConfigured
	}
	if err != nil {
		return entity.EnrichedHistory{}, fmt.Errorf("failed to load wallet for user %s: %w", userID, err)
	}

	return s.BuildHistory(ctx, record.Address)
}

// BuildHistory runs the pipeline for address. A caller whose ctx ends stops
// waiting; the shared run continues under its own timeout for the other callers.
func (s *historyServiceImpl) BuildHistory(ctx context.Context, address string) (entity.EnrichedHistory, error) {
	address, err := NormalizeAddress(address)
	if err != nil {
		return entity.EnrichedHistory{}, err
	}

	ch := s.inflight.DoChan(address, func() (any, error) {
		runCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.pipelineTimeout)
		defer cancel()
		return s.build(runCtx, address)
	})

	select {
	case <-ctx.Done():
		return entity.EnrichedHistory{}, ctx.Err()
	case res := <-ch:
		if res.Shared {
			metrics.HistoryShared.Inc()
		}
		if res.Err != nil {
			return entity.EnrichedHistory{}, res.Err
		}
		return res.Val.(entity.EnrichedHistory), nil
	}
}

func (s *historyServiceImpl) build(ctx context.Context, address string) (history entity.EnrichedHistory, err error) {
	started := time.Now()
	defer func() {
		outcome := metrics.OutcomeSuccess
		if err != nil {
			outcome = metrics.OutcomeError
		}
		metrics.HistoryBuilds.WithLabelValues(outcome).Inc()
	}()

	var (
		txs            []entity.RawTransaction
		currentBalance *big.Int
		currentPrice   decimal.Decimal
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		txs = s.Transactions.FetchTransactions(gctx, address)
		return nil
	})
	g.Go(func() error {
		balance, err := s.Balances.GetNativeBalance(gctx, address)
		if err != nil {
			return fmt.Errorf("%w: current balance: %w", entity.ErrUpstreamUnavailable, err)
		}
		currentBalance = balance
		return nil
	})
	g.Go(func() error {
		price, err := s.Prices.FetchCurrentPrice(gctx)
		if err != nil {
			return fmt.Errorf("%w: %w", entity.ErrUpstreamUnavailable, err)
		}
		currentPrice = price
		return nil
	})
	if err = g.Wait(); err != nil {
		s.Logger.Error("Balance history aborted", "address", address, "error", err)
		return entity.EnrichedHistory{}, err
	}

	ledger := s.Reconstructor.Reconstruct(address, txs)
	metrics.LedgerEntries.Observe(float64(len(ledger)))

	timestamps := make([]int64, 0, len(ledger))
	for _, entry := range ledger {
		timestamps = append(timestamps, entry.Timestamp)
	}
	prices := s.Prices.FetchHistoricalPrices(ctx, timestamps)

	history = s.Joiner.Join(address, ledger, prices, currentBalance, currentPrice)
	s.Logger.Info("Balance history built",
		"address", address,
		"transactions", len(txs),
		"entries", len(ledger),
		"priced", len(prices),
		"duration", time.Since(started).String())
	return history, nil
}
