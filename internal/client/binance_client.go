package client

import (
	"context"
	"strings"
	"time"

	"wallet_tracker/internal/domain/entity"
	"wallet_tracker/internal/metrics"

	"github.com/adshao/go-binance/v2"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const upstreamBinance = "binance"

// BinanceClient prices a trading pair from Binance klines and the ticker.
type BinanceClient struct {
	client   *binance.Client
	symbol   string
	interval string
	limiter  *rate.Limiter
	logger   *zap.Logger
}

// NewBinanceClient creates a price client for symbol (e.g. ETHEUR). Keys may be empty:
// market data endpoints are public. baseURL overrides the API host when set.
func NewBinanceClient(apiKey, secretKey, baseURL, symbol, interval string, limiter *rate.Limiter, logger *zap.Logger) *BinanceClient {
	c := binance.NewClient(apiKey, secretKey)
	if baseURL != "" {
		c.BaseURL = strings.TrimRight(baseURL, "/")
	}
	return &BinanceClient{
		client:   c,
		symbol:   strings.ToUpper(symbol),
		interval: interval,
		limiter:  limiter,
		logger:   logger.Named("BinanceClient"),
	}
}

// Name implements port.PriceClient.
func (b *BinanceClient) Name() string { return upstreamBinance }

func (b *BinanceClient) wait(ctx context.Context) error {
	if b.limiter == nil {
		return nil
	}
	return errors.Wrap(b.limiter.Wait(ctx), "binance rate limiter")
}

// GetHistoricalPrice returns the close of the latest kline opened at or before ts.
func (b *BinanceClient) GetHistoricalPrice(ctx context.Context, ts int64) (sample entity.PriceSample, err error) {
	start := time.Now()
	defer func() { metrics.ObserveUpstream(upstreamBinance, "klines", start, err) }()

	if err = b.wait(ctx); err != nil {
		return entity.PriceSample{}, err
	}

	klines, err := b.client.NewKlinesService().
		Symbol(b.symbol).
		Interval(b.interval).
		EndTime(ts * 1000).
		Limit(1).
		Do(ctx)
	if err != nil {
		return entity.PriceSample{}, errors.Wrapf(err, "binance klines for %s at %d", b.symbol, ts)
	}

	for i := len(klines) - 1; i >= 0; i-- {
		k := klines[i]
		if k.OpenTime > ts*1000 {
			continue
		}
		closePrice, parseErr := decimal.NewFromString(k.Close)
		if parseErr != nil {
			b.logger.Warn("Unparseable kline close", zap.String("close", k.Close), zap.Error(parseErr))
			continue
		}
		return entity.PriceSample{Timestamp: k.OpenTime / 1000, Close: closePrice}, nil
	}
	return entity.PriceSample{}, errors.Wrapf(entity.ErrPriceUnavailable, "no %s kline at or before %d", b.symbol, ts)
}

// GetCurrentPrice returns the last ticker price of the symbol.
func (b *BinanceClient) GetCurrentPrice(ctx context.Context) (price decimal.Decimal, err error) {
	start := time.Now()
	defer func() { metrics.ObserveUpstream(upstreamBinance, "ticker", start, err) }()

	if err = b.wait(ctx); err != nil {
		return decimal.Zero, err
	}

	prices, err := b.client.NewListPricesService().Symbol(b.symbol).Do(ctx)
	if err != nil {
		return decimal.Zero, errors.Wrap(err, "failed to get price")
	}
	for _, p := range prices {
		if p.Symbol != b.symbol {
			continue
		}
		price, err = decimal.NewFromString(p.Price)
		if err != nil {
			return decimal.Zero, errors.Wrap(err, "failed to parse price")
		}
		return price, nil
	}
	return decimal.Zero, errors.Errorf("binance returned no price for %s", b.symbol)
}
