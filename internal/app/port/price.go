package port

import (
	"context"

	"github.com/shopspring/decimal"

	"wallet_tracker/internal/domain/entity"
)

// PriceClient talks to one price API for a fixed symbol pair.
type PriceClient interface {
	// GetHistoricalPrice returns the close of the latest candle at or before ts (unix seconds).
	// entity.ErrPriceUnavailable is returned when the API has no such candle.
	GetHistoricalPrice(ctx context.Context, ts int64) (entity.PriceSample, error)
	// GetCurrentPrice returns the latest spot price.
	GetCurrentPrice(ctx context.Context) (decimal.Decimal, error)
	// Name identifies the provider in logs and metrics.
	Name() string
}

// PriceService fetches prices for the pipeline.
type PriceService interface {
	// FetchHistoricalPrices never fails: timestamps without a price are absent from the map.
	FetchHistoricalPrices(ctx context.Context, timestamps []int64) map[int64]decimal.Decimal
	FetchCurrentPrice(ctx context.Context) (decimal.Decimal, error)
}
