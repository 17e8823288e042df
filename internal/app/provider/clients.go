package provider

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"wallet_tracker/internal/app/port"
	"wallet_tracker/internal/client"
	"wallet_tracker/internal/domain/entity"
	"wallet_tracker/internal/infrastructure/configloader"
	evmclient "wallet_tracker/internal/infrastructure/network/client"
	"wallet_tracker/internal/pkg/logger"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

func millis(ms int64) time.Duration {
	return time.Duration(ms) * time.Millisecond
}

// NewEtherscanClient creates the ledger client for the tracked network.
func NewEtherscanClient(cfg *configloader.Config, netDef entity.NetworkDefinition, zapLogger *zap.Logger) *client.EtherscanClient {
	limiter := rate.NewLimiter(rate.Limit(cfg.Etherscan.RequestsPerSecond), cfg.Etherscan.Burst)
	return client.NewEtherscanClient(
		cfg.Etherscan.BaseURL,
		cfg.Etherscan.APIKey,
		netDef.ChainID,
		millis(cfg.Etherscan.RequestTimeoutMillis),
		limiter,
		zapLogger,
	)
}

// NewBalanceClient returns the current balance source selected by historyService.balanceSource.
// The returned close func releases RPC connections and is never nil.
func NewBalanceClient(cfg *configloader.Config, netDef entity.NetworkDefinition, etherscan *client.EtherscanClient) (port.BalanceClient, func()) {
	if cfg.HistorySvc.BalanceSource == configloader.BalanceSourceRPC {
		rpc := evmclient.NewEVMClient(
			netDef,
			logger.NewSlogAdapter("component", "EVMClient"),
			time.Duration(cfg.RPC.ConnectionTimeoutSeconds)*time.Second,
			time.Duration(cfg.RPC.CallTimeoutSeconds)*time.Second,
		)
		return rpc, rpc.Close
	}
	return etherscan, func() {}
}

// NewPriceClient returns the price provider selected by priceService.provider.
func NewPriceClient(cfg *configloader.Config, netDef entity.NetworkDefinition, zapLogger *zap.Logger) (port.PriceClient, error) {
	switch cfg.PriceSvc.Provider {
	case configloader.PriceProviderCryptoCompare:
		limiter := rate.NewLimiter(rate.Limit(cfg.CryptoCompare.RequestsPerSecond), cfg.CryptoCompare.Burst)
		return client.NewCryptoCompareClient(
			cfg.CryptoCompare.BaseURL,
			cfg.CryptoCompare.APIKey,
			netDef.NativeSymbol,
			cfg.PriceSvc.Currency,
			millis(cfg.CryptoCompare.RequestTimeoutMillis),
			limiter,
			zapLogger,
		), nil
	case configloader.PriceProviderBinance:
		symbol := cfg.Binance.Symbol
		if symbol == "" {
			symbol = strings.ToUpper(netDef.NativeSymbol + cfg.PriceSvc.Currency)
		}
		// weight limit of the public market data API is 6000/min
		limiter := rate.NewLimiter(rate.Limit(20), cfg.PriceSvc.BatchSize)
		return client.NewBinanceClient(
			cfg.Binance.APIKey,
			cfg.Binance.SecretKey,
			cfg.Binance.BaseURL,
			symbol,
			cfg.Binance.Interval,
			limiter,
			zapLogger,
		), nil
	default:
		return nil, fmt.Errorf("unknown price provider %q", cfg.PriceSvc.Provider)
	}
}

// PriceCandle returns the candle length of the configured price provider.
// CryptoCompare is queried via histohour; Binance uses binance.interval (1m, 4h, 1d, 1w, 1M...).
func PriceCandle(cfg *configloader.Config) (time.Duration, error) {
	if cfg.PriceSvc.Provider != configloader.PriceProviderBinance {
		return time.Hour, nil
	}
	interval := cfg.Binance.Interval
	if len(interval) < 2 {
		return 0, fmt.Errorf("invalid binance interval %q", interval)
	}
	n, err := strconv.Atoi(interval[:len(interval)-1])
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid binance interval %q", interval)
	}
	var unit time.Duration
	switch interval[len(interval)-1] {
	case 's':
		unit = time.Second
	case 'm':
		unit = time.Minute
	case 'h':
		unit = time.Hour
	case 'd':
		unit = 24 * time.Hour
	case 'w':
		unit = 7 * 24 * time.Hour
	case 'M':
		// longest month
		unit = 31 * 24 * time.Hour
	default:
		return 0, fmt.Errorf("invalid binance interval %q", interval)
	}
	return time.Duration(n) * unit, nil
}
