package service

import (
	"context"
	"fmt"
	"time"

	"wallet_tracker/internal/app/port"
	"wallet_tracker/internal/domain/entity"

	"github.com/patrickmn/go-cache"
	"github.com/shopspring/decimal"
)

// cachingPriceClient keeps historical samples between requests. Only samples whose candle
// has already closed are stored; the open candle and the current price always go to the provider.
type cachingPriceClient struct {
	port.PriceClient
	samples *cache.Cache // key: "provider_ts" -> entity.PriceSample
	candle  time.Duration
	now     func() time.Time
}

// NewCachingPriceClient wraps client with a historical price cache of the given TTL.
// candle is the provider's candle length.
func NewCachingPriceClient(client port.PriceClient, ttl, candle time.Duration) port.PriceClient {
	return newCachingPriceClient(client, ttl, candle, time.Now)
}

func newCachingPriceClient(client port.PriceClient, ttl, candle time.Duration, now func() time.Time) *cachingPriceClient {
	return &cachingPriceClient{
		PriceClient: client,
		samples:     cache.New(ttl, 10*time.Minute),
		candle:      candle,
		now:         now,
	}
}

func (c *cachingPriceClient) closed(sample entity.PriceSample) bool {
	closeAt := time.Unix(sample.Timestamp, 0).Add(c.candle)
	return !closeAt.After(c.now())
}

func (c *cachingPriceClient) GetHistoricalPrice(ctx context.Context, ts int64) (entity.PriceSample, error) {
	key := fmt.Sprintf("%s_%d", c.Name(), ts)
	if v, ok := c.samples.Get(key); ok {
		return v.(entity.PriceSample), nil
	}

	sample, err := c.PriceClient.GetHistoricalPrice(ctx, ts)
	if err != nil {
		return entity.PriceSample{}, err
	}
	if c.closed(sample) {
		c.samples.Set(key, sample, cache.DefaultExpiration)
	}
	return sample, nil
}

func (c *cachingPriceClient) GetCurrentPrice(ctx context.Context) (decimal.Decimal, error) {
	return c.PriceClient.GetCurrentPrice(ctx)
}
