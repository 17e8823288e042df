package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"wallet_tracker/internal/domain/entity"
	"wallet_tracker/internal/pkg/retrier"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// fakePriceClient prices every timestamp at ts/100 unless listed in fail.
// Timestamps listed in hang block until the call context is done.
type fakePriceClient struct {
	mu    sync.Mutex
	calls []int64
	fail  map[int64]bool
	hang  map[int64]bool
}

func (f *fakePriceClient) GetHistoricalPrice(ctx context.Context, ts int64) (entity.PriceSample, error) {
	f.mu.Lock()
	f.calls = append(f.calls, ts)
	f.mu.Unlock()
	if f.hang[ts] {
		<-ctx.Done()
		return entity.PriceSample{}, ctx.Err()
	}
	if f.fail[ts] {
		return entity.PriceSample{}, entity.ErrPriceUnavailable
	}
	return entity.PriceSample{Timestamp: ts, Close: decimal.New(ts, -2)}, nil
}

func (f *fakePriceClient) GetCurrentPrice(context.Context) (decimal.Decimal, error) {
	return decimal.RequireFromString("2000"), nil
}

func (f *fakePriceClient) Name() string { return "fake" }

func (f *fakePriceClient) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type sleepRecorder struct {
	mu     sync.Mutex
	sleeps []time.Duration
	// callsAtSleep holds the number of client calls seen when each pause started
	callsAtSleep []int
	client       *fakePriceClient
	err          error
}

func (r *sleepRecorder) sleep(_ context.Context, d time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sleeps = append(r.sleeps, d)
	if r.client != nil {
		r.callsAtSleep = append(r.callsAtSleep, r.client.callCount())
	}
	return r.err
}

func timestamps(n int) []int64 {
	out := make([]int64, 0, n)
	for i := 1; i <= n; i++ {
		out = append(out, int64(i*3600))
	}
	return out
}

func TestFetchHistoricalPrices_Empty(t *testing.T) {
	client := &fakePriceClient{}
	rec := &sleepRecorder{}
	svc := NewPriceService(client, &recordingLogger{}, PriceServiceConfig{}, WithSleepFunc(rec.sleep))

	prices := svc.FetchHistoricalPrices(context.Background(), nil)

	assert.NotNil(t, prices)
	assert.Empty(t, prices)
	assert.Zero(t, client.callCount())
	assert.Empty(t, rec.sleeps)
}

func TestFetchHistoricalPrices_BatchesAndPauses(t *testing.T) {
	client := &fakePriceClient{}
	rec := &sleepRecorder{client: client}
	svc := NewPriceService(client, &recordingLogger{}, PriceServiceConfig{
		BatchSize:  15,
		BatchDelay: 300 * time.Millisecond,
	}, WithSleepFunc(rec.sleep))

	prices := svc.FetchHistoricalPrices(context.Background(), timestamps(31))

	require.Len(t, prices, 31)
	assert.Equal(t, 31, client.callCount())
	assert.Equal(t, []time.Duration{300 * time.Millisecond, 300 * time.Millisecond}, rec.sleeps)
	// 15, then 15, then 1
	assert.Equal(t, []int{15, 30}, rec.callsAtSleep)
	assert.True(t, decimal.New(3600, -2).Equal(prices[3600]))
}

func TestFetchHistoricalPrices_Deduplicates(t *testing.T) {
	client := &fakePriceClient{}
	svc := NewPriceService(client, &recordingLogger{}, PriceServiceConfig{BatchSize: 15})

	prices := svc.FetchHistoricalPrices(context.Background(), []int64{200, 100, 200, 100, 300})

	assert.Len(t, prices, 3)
	assert.ElementsMatch(t, []int64{100, 200, 300}, client.calls)
}

func TestFetchHistoricalPrices_FailuresAreAbsent(t *testing.T) {
	client := &fakePriceClient{fail: map[int64]bool{200: true}}
	log := &recordingLogger{}
	svc := NewPriceService(client, log, PriceServiceConfig{BatchSize: 2})

	prices := svc.FetchHistoricalPrices(context.Background(), []int64{100, 200, 300})

	assert.Len(t, prices, 2)
	_, ok := prices[200]
	assert.False(t, ok)
	assert.Equal(t, 1, log.warnCount())
}

func TestFetchHistoricalPrices_SlowLookupTimesOut(t *testing.T) {
	client := &fakePriceClient{hang: map[int64]bool{200: true}}
	log := &recordingLogger{}
	svc := NewPriceService(client, log, PriceServiceConfig{
		BatchSize:      15,
		RequestTimeout: 20 * time.Millisecond,
	})

	start := time.Now()
	prices := svc.FetchHistoricalPrices(context.Background(), []int64{100, 200, 300})

	assert.Less(t, time.Since(start), 5*time.Second)
	assert.Len(t, prices, 2)
	assert.Contains(t, prices, int64(100))
	assert.Contains(t, prices, int64(300))
	assert.NotContains(t, prices, int64(200))
	assert.Equal(t, 1, log.warnCount())
}

func TestFetchHistoricalPrices_StopsWhenPauseIsInterrupted(t *testing.T) {
	client := &fakePriceClient{}
	rec := &sleepRecorder{err: context.Canceled}
	svc := NewPriceService(client, &recordingLogger{}, PriceServiceConfig{
		BatchSize:  2,
		BatchDelay: time.Second,
	}, WithSleepFunc(rec.sleep))

	prices := svc.FetchHistoricalPrices(context.Background(), timestamps(5))

	assert.Len(t, prices, 2)
	assert.Equal(t, 2, client.callCount())
}

func TestFetchHistoricalPrices_CancelledContext(t *testing.T) {
	client := &fakePriceClient{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	svc := NewPriceService(client, &recordingLogger{}, PriceServiceConfig{BatchSize: 2})

	prices := svc.FetchHistoricalPrices(ctx, timestamps(4))

	assert.Empty(t, prices)
	assert.Zero(t, client.callCount())
}

func TestFetchCurrentPrice_RetriesThenSucceeds(t *testing.T) {
	client := new(mockPriceClient)
	client.On("GetCurrentPrice", mock.Anything).Return(decimal.Zero, errors.New("timeout")).Once()
	client.On("GetCurrentPrice", mock.Anything).Return(decimal.RequireFromString("2500.5"), nil).Once()

	svc := NewPriceService(client, &recordingLogger{}, PriceServiceConfig{},
		WithRetrier(retrier.New(retrier.WithMaxRetries(1), retrier.WithInitialInterval(time.Millisecond))))

	price, err := svc.FetchCurrentPrice(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "2500.5", price.String())
	client.AssertNumberOfCalls(t, "GetCurrentPrice", 2)
}

func TestFetchCurrentPrice_PropagatesLastError(t *testing.T) {
	client := new(mockPriceClient)
	client.On("GetCurrentPrice", mock.Anything).Return(decimal.Zero, entity.ErrPriceUnavailable)

	svc := NewPriceService(client, &recordingLogger{}, PriceServiceConfig{},
		WithRetrier(retrier.New(retrier.WithMaxRetries(2), retrier.WithInitialInterval(time.Millisecond))))

	_, err := svc.FetchCurrentPrice(context.Background())

	require.Error(t, err)
	assert.ErrorIs(t, err, entity.ErrPriceUnavailable)
	assert.Contains(t, err.Error(), "mock current price")
	client.AssertNumberOfCalls(t, "GetCurrentPrice", 3)
}
