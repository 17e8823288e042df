package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"wallet_tracker/internal/app/port"
	"wallet_tracker/internal/metrics"
	"wallet_tracker/internal/pkg/retrier"
	"wallet_tracker/internal/pkg/utils"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

const (
	defaultPriceBatchSize      = 15
	defaultPriceBatchDelay     = 300 * time.Millisecond
	defaultPriceRequestTimeout = 10 * time.Second
)

// PriceServiceConfig holds the pacing parameters of historical price fetching.
type PriceServiceConfig struct {
	BatchSize           int
	BatchDelay          time.Duration
	RequestTimeout      time.Duration
	CurrentPriceRetries int
}

// SleepFunc pauses for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// PriceServiceOption customizes the price service.
type PriceServiceOption func(*priceServiceImpl)

// WithSleepFunc replaces the inter-batch pause.
func WithSleepFunc(fn SleepFunc) PriceServiceOption {
	return func(s *priceServiceImpl) { s.sleep = fn }
}

// WithRetrier replaces the retrier used for the current price.
func WithRetrier(r *retrier.Retrier) PriceServiceOption {
	return func(s *priceServiceImpl) { s.retrier = r }
}

type priceServiceImpl struct {
	client         port.PriceClient
	logger         port.Logger
	batchSize      int
	batchDelay     time.Duration
	requestTimeout time.Duration
	retrier        *retrier.Retrier
	sleep          SleepFunc
}

// NewPriceService creates a price service over a single price client.
func NewPriceService(client port.PriceClient, l port.Logger, cfg PriceServiceConfig, opts ...PriceServiceOption) port.PriceService {
	s := &priceServiceImpl{
		client:         client,
		logger:         l,
		batchSize:      cfg.BatchSize,
		batchDelay:     cfg.BatchDelay,
		requestTimeout: cfg.RequestTimeout,
		sleep:          sleepCtx,
	}
	if s.batchSize <= 0 {
		s.batchSize = defaultPriceBatchSize
	}
	if s.batchDelay < 0 {
		s.batchDelay = 0
	}
	if s.requestTimeout <= 0 {
		s.requestTimeout = defaultPriceRequestTimeout
	}
	s.retrier = retrier.New(
		retrier.WithMaxRetries(cfg.CurrentPriceRetries),
		retrier.WithOnRetry(func(attempt int, err error) {
			l.Warn("Retrying current price request", "provider", client.Name(), "attempt", attempt, "error", err)
		}),
	)
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// FetchHistoricalPrices deduplicates and sorts timestamps, then requests them in
// batches: concurrently inside a batch, with a fixed pause between batches.
// Failed, timed out or empty lookups are left out of the result.
func (s *priceServiceImpl) FetchHistoricalPrices(ctx context.Context, timestamps []int64) map[int64]decimal.Decimal {
	result := make(map[int64]decimal.Decimal)
	if len(timestamps) == 0 {
		return result
	}

	seen := make(map[int64]struct{}, len(timestamps))
	unique := make([]int64, 0, len(timestamps))
	for _, ts := range timestamps {
		if _, ok := seen[ts]; ok {
			continue
		}
		seen[ts] = struct{}{}
		unique = append(unique, ts)
	}
	sort.Slice(unique, func(i, j int) bool { return unique[i] < unique[j] })

	var mu sync.Mutex
	batches := utils.Batch(unique, s.batchSize)
	for i, batch := range batches {
		if i > 0 && s.batchDelay > 0 {
			if err := s.sleep(ctx, s.batchDelay); err != nil {
				s.logger.Warn("Historical price fetch interrupted", "batch", i, "batches", len(batches), "error", err)
				break
			}
		}
		if ctx.Err() != nil {
			s.logger.Warn("Historical price fetch interrupted", "batch", i, "batches", len(batches), "error", ctx.Err())
			break
		}

		var g errgroup.Group
		for _, ts := range batch {
			g.Go(func() error {
				callCtx, cancel := context.WithTimeout(ctx, s.requestTimeout)
				defer cancel()

				sample, err := s.client.GetHistoricalPrice(callCtx, ts)
				if err != nil {
					s.logger.Debug("Historical price unavailable", "provider", s.client.Name(), "ts", ts, "error", err)
					return nil
				}
				mu.Lock()
				result[ts] = sample.Close
				mu.Unlock()
				return nil
			})
		}
		_ = g.Wait()
	}

	if missing := len(unique) - len(result); missing > 0 {
		metrics.PricePointsMissing.Add(float64(missing))
		s.logger.Warn("Some historical prices are unavailable", "requested", len(unique), "missing", missing)
	}
	return result
}

// FetchCurrentPrice returns the latest spot price; the error of the last attempt propagates.
func (s *priceServiceImpl) FetchCurrentPrice(ctx context.Context) (decimal.Decimal, error) {
	price, err := retrier.DoWithData(s.retrier, ctx, func(ctx context.Context) (decimal.Decimal, error) {
		callCtx, cancel := context.WithTimeout(ctx, s.requestTimeout)
		defer cancel()
		return s.client.GetCurrentPrice(callCtx)
	})
	if err != nil {
		return decimal.Zero, fmt.Errorf("%s current price: %w", s.client.Name(), err)
	}
	return price, nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
