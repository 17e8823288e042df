package service

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"wallet_tracker/internal/domain/entity"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type historyFixture struct {
	wallets *mockWalletStore
	ledger  *mockLedgerClient
	balance *mockBalanceClient
	prices  *mockPriceClient
	svc     *historyServiceImpl
}

func newHistoryFixture(t *testing.T) *historyFixture {
	t.Helper()
	f := &historyFixture{
		wallets: new(mockWalletStore),
		ledger:  new(mockLedgerClient),
		balance: new(mockBalanceClient),
		prices:  new(mockPriceClient),
	}
	log := &recordingLogger{}
	f.svc = NewHistoryService(HistoryDeps{
		Wallets:       f.wallets,
		Transactions:  NewTransactionSource(f.ledger, log),
		Reconstructor: NewBalanceReconstructor(ReconstructorConfig{}),
		Prices:        NewPriceService(f.prices, log, PriceServiceConfig{BatchSize: 15}),
		Balances:      f.balance,
		Joiner:        NewJoiner(18, "ethereum", "ETH", "EUR"),
		Logger:        log,
	}, time.Second).(*historyServiceImpl)
	return f
}

func TestGetBalanceHistory_NoWalletMakesNoExternalCalls(t *testing.T) {
	f := newHistoryFixture(t)
	f.wallets.On("Get", mock.Anything, "user-1").Return(entity.WalletRecord{}, entity.ErrWalletNotFound)

	_, err := f.svc.GetBalanceHistory(context.Background(), "user-1")

	assert.ErrorIs(t, err, entity.ErrWalletNotConfigured)
	f.ledger.AssertNotCalled(t, "GetTransactions", mock.Anything, mock.Anything, mock.Anything)
	f.balance.AssertNotCalled(t, "GetNativeBalance", mock.Anything, mock.Anything)
	f.prices.AssertNotCalled(t, "GetCurrentPrice", mock.Anything)
}

func TestGetBalanceHistory_EmptySavedAddress(t *testing.T) {
	f := newHistoryFixture(t)
	f.wallets.On("Get", mock.Anything, "user-1").Return(entity.WalletRecord{UserID: "user-1"}, nil)

	_, err := f.svc.GetBalanceHistory(context.Background(), "user-1")
	assert.ErrorIs(t, err, entity.ErrWalletNotConfigured)
}

func TestGetBalanceHistory_InvalidUser(t *testing.T) {
	f := newHistoryFixture(t)
	_, err := f.svc.GetBalanceHistory(context.Background(), "  ")
	assert.ErrorIs(t, err, entity.ErrInvalidUserID)
}

func TestGetBalanceHistory_StoreFailure(t *testing.T) {
	f := newHistoryFixture(t)
	f.wallets.On("Get", mock.Anything, "user-1").Return(entity.WalletRecord{}, errors.New("connection refused"))

	_, err := f.svc.GetBalanceHistory(context.Background(), "user-1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, entity.ErrWalletNotConfigured)
}

func TestGetBalanceHistory_EndToEnd(t *testing.T) {
	f := newHistoryFixture(t)
	checksum := common.HexToAddress(addr).Hex()

	f.wallets.On("Get", mock.Anything, "user-1").Return(entity.WalletRecord{UserID: "user-1", Address: addr}, nil)
	f.ledger.On("GetTransactions", mock.Anything, checksum, entity.TxCategoryNormal).Return([]entity.RawTransaction{
		{Hash: "0xb", Timestamp: 200, From: addr, To: other, Value: weiOf("500000000000000000"),
			GasUsed: big.NewInt(21000), GasPrice: big.NewInt(1000000000)},
	}, nil)
	f.ledger.On("GetTransactions", mock.Anything, checksum, entity.TxCategoryInternal).Return([]entity.RawTransaction{
		{Hash: "0xa", Timestamp: 100, From: other, To: addr, Value: weiOf("1000000000000000000")},
	}, nil)
	f.balance.On("GetNativeBalance", mock.Anything, checksum).Return(weiOf("499979000000000000"), nil)
	f.prices.On("GetCurrentPrice", mock.Anything).Return(decimal.RequireFromString("2000"), nil)
	f.prices.On("GetHistoricalPrice", mock.Anything, int64(100)).
		Return(entity.PriceSample{Timestamp: 100, Close: decimal.RequireFromString("1500")}, nil)
	f.prices.On("GetHistoricalPrice", mock.Anything, int64(200)).
		Return(entity.PriceSample{}, entity.ErrPriceUnavailable)

	h, err := f.svc.GetBalanceHistory(context.Background(), "user-1")
	require.NoError(t, err)

	assert.Equal(t, checksum, h.Address)
	assert.Equal(t, "0.499979", h.CurrentBalance)
	assert.Equal(t, "999.958", h.CurrentValueInFiat)
	require.Len(t, h.History, 2)
	assert.Equal(t, "0xa", h.History[0].TxHash)
	assert.Equal(t, "1.0", h.History[0].Balance)
	require.NotNil(t, h.History[0].ValueInFiat)
	assert.Equal(t, "1500", *h.History[0].ValueInFiat)
	assert.Equal(t, "0.499979", h.History[1].Balance)
	assert.Nil(t, h.History[1].ValueInFiat)

	f.prices.AssertNumberOfCalls(t, "GetHistoricalPrice", 2)
}

func TestBuildHistory_UpstreamFailures(t *testing.T) {
	tests := []struct {
		name    string
		balance error
		price   error
	}{
		{name: "balance", balance: errors.New("explorer down")},
		{name: "current price", price: errors.New("provider down")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newHistoryFixture(t)
			f.svc.Prices = NewPriceService(f.prices, &recordingLogger{}, PriceServiceConfig{CurrentPriceRetries: 0})
			f.ledger.On("GetTransactions", mock.Anything, mock.Anything, mock.Anything).Return([]entity.RawTransaction{}, nil)
			f.balance.On("GetNativeBalance", mock.Anything, mock.Anything).Return(big.NewInt(1), tt.balance)
			f.prices.On("GetCurrentPrice", mock.Anything).Return(decimal.RequireFromString("1"), tt.price)

			_, err := f.svc.BuildHistory(context.Background(), addr)

			require.Error(t, err)
			assert.ErrorIs(t, err, entity.ErrUpstreamUnavailable)
			f.prices.AssertNotCalled(t, "GetHistoricalPrice", mock.Anything, mock.Anything)
		})
	}
}

func TestBuildHistory_TransactionFailureYieldsEmptyHistory(t *testing.T) {
	f := newHistoryFixture(t)
	f.ledger.On("GetTransactions", mock.Anything, mock.Anything, mock.Anything).Return(nil, errors.New("rate limited"))
	f.balance.On("GetNativeBalance", mock.Anything, mock.Anything).Return(big.NewInt(0), nil)
	f.prices.On("GetCurrentPrice", mock.Anything).Return(decimal.RequireFromString("10"), nil)

	h, err := f.svc.BuildHistory(context.Background(), addr)

	require.NoError(t, err)
	assert.Empty(t, h.History)
	assert.Equal(t, "0", h.CurrentValueInFiat)
}

func TestBuildHistory_InvalidAddress(t *testing.T) {
	f := newHistoryFixture(t)
	for _, a := range []string{"", "742d35Cc6634C0532925a3b844Bc454e4438f44e", "0x123", "0xZZ2d35Cc6634C0532925a3b844Bc454e4438f44e"} {
		_, err := f.svc.BuildHistory(context.Background(), a)
		assert.ErrorIs(t, err, entity.ErrInvalidWalletAddress, a)
	}
	f.balance.AssertNotCalled(t, "GetNativeBalance", mock.Anything, mock.Anything)
}

// blockingBalanceClient holds every call until release is closed.
type blockingBalanceClient struct {
	calls   atomic.Int32
	started chan struct{}
	once    sync.Once
	release chan struct{}
}

func (b *blockingBalanceClient) GetNativeBalance(ctx context.Context, _ string) (*big.Int, error) {
	b.calls.Add(1)
	b.once.Do(func() { close(b.started) })
	select {
	case <-b.release:
		return big.NewInt(42), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func TestBuildHistory_ConcurrentCallersShareOneRun(t *testing.T) {
	f := newHistoryFixture(t)
	blocking := &blockingBalanceClient{started: make(chan struct{}), release: make(chan struct{})}
	f.svc.Balances = blocking
	f.ledger.On("GetTransactions", mock.Anything, mock.Anything, mock.Anything).Return([]entity.RawTransaction{}, nil)
	f.prices.On("GetCurrentPrice", mock.Anything).Return(decimal.RequireFromString("1"), nil)

	const callers = 5
	results := make(chan error, callers)

	go func() {
		_, err := f.svc.BuildHistory(context.Background(), addr)
		results <- err
	}()
	<-blocking.started

	// the same address in another case joins the running build
	for i := 1; i < callers; i++ {
		go func() {
			_, err := f.svc.BuildHistory(context.Background(), "0x742D35CC6634C0532925A3B844BC454E4438F44E")
			results <- err
		}()
	}
	time.Sleep(50 * time.Millisecond)
	close(blocking.release)

	for i := 0; i < callers; i++ {
		assert.NoError(t, <-results)
	}
	assert.Equal(t, int32(1), blocking.calls.Load())
}

func TestBuildHistory_CallerCancellationDoesNotAbortSharedRun(t *testing.T) {
	f := newHistoryFixture(t)
	blocking := &blockingBalanceClient{started: make(chan struct{}), release: make(chan struct{})}
	f.svc.Balances = blocking
	f.ledger.On("GetTransactions", mock.Anything, mock.Anything, mock.Anything).Return([]entity.RawTransaction{}, nil)
	f.prices.On("GetCurrentPrice", mock.Anything).Return(decimal.RequireFromString("1"), nil)

	ctx, cancel := context.WithCancel(context.Background())
	first := make(chan error, 1)
	go func() {
		_, err := f.svc.BuildHistory(ctx, addr)
		first <- err
	}()
	<-blocking.started

	second := make(chan error, 1)
	go func() {
		h, err := f.svc.BuildHistory(context.Background(), addr)
		if err == nil && h.CurrentBalance != "0.000000000000000042" {
			err = errors.New("unexpected balance " + h.CurrentBalance)
		}
		second <- err
	}()
	time.Sleep(50 * time.Millisecond)

	cancel()
	assert.ErrorIs(t, <-first, context.Canceled)

	close(blocking.release)
	assert.NoError(t, <-second)
	assert.Equal(t, int32(1), blocking.calls.Load())
}
