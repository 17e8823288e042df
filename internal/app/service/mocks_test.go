package service

import (
	"context"
	"math/big"
	"sync"

	"wallet_tracker/internal/domain/entity"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

type mockLedgerClient struct {
	mock.Mock
}

func (m *mockLedgerClient) GetTransactions(ctx context.Context, address string, category entity.TxCategory) ([]entity.RawTransaction, error) {
	args := m.Called(ctx, address, category)
	txs, _ := args.Get(0).([]entity.RawTransaction)
	return txs, args.Error(1)
}

type mockBalanceClient struct {
	mock.Mock
}

func (m *mockBalanceClient) GetNativeBalance(ctx context.Context, address string) (*big.Int, error) {
	args := m.Called(ctx, address)
	balance, _ := args.Get(0).(*big.Int)
	return balance, args.Error(1)
}

type mockPriceClient struct {
	mock.Mock
}

func (m *mockPriceClient) GetHistoricalPrice(ctx context.Context, ts int64) (entity.PriceSample, error) {
	args := m.Called(ctx, ts)
	return args.Get(0).(entity.PriceSample), args.Error(1)
}

func (m *mockPriceClient) GetCurrentPrice(ctx context.Context) (decimal.Decimal, error) {
	args := m.Called(ctx)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *mockPriceClient) Name() string { return "mock" }

type mockWalletStore struct {
	mock.Mock
}

func (m *mockWalletStore) Get(ctx context.Context, userID string) (entity.WalletRecord, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(entity.WalletRecord), args.Error(1)
}

func (m *mockWalletStore) Set(ctx context.Context, userID, address string) (entity.WalletRecord, error) {
	args := m.Called(ctx, userID, address)
	return args.Get(0).(entity.WalletRecord), args.Error(1)
}

func (m *mockWalletStore) Close() error { return nil }

// recordingLogger collects messages for assertions.
type recordingLogger struct {
	mu       sync.Mutex
	warnings []string
}

func (l *recordingLogger) Info(string, ...any)  {}
func (l *recordingLogger) Debug(string, ...any) {}
func (l *recordingLogger) Error(string, ...any) {}
func (l *recordingLogger) Warn(msg string, _ ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.warnings = append(l.warnings, msg)
}

func (l *recordingLogger) warnCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.warnings)
}

func weiOf(s string) *big.Int {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		panic("bad wei literal " + s)
	}
	return v
}
