// Package provider assembles the history pipeline from configuration.
package provider

import (
	"fmt"
	"math/big"
	"time"

	"wallet_tracker/internal/app/port"
	"wallet_tracker/internal/app/service"
	"wallet_tracker/internal/domain/entity"
	"wallet_tracker/internal/infrastructure/configloader"
	"wallet_tracker/internal/pkg/logger"

	"go.uber.org/zap"
)

// History is the assembled balance history pipeline.
type History struct {
	Service port.HistoryService
	closers []func()
}

// Close releases the connections opened for the pipeline.
func (h *History) Close() {
	for _, c := range h.closers {
		c()
	}
}

// ReconstructorConfig converts the ledger section into reconstructor settings.
func ReconstructorConfig(cfg *configloader.Config, netDef entity.NetworkDefinition) (service.ReconstructorConfig, error) {
	threshold, ok := new(big.Int).SetString(cfg.Ledger.DustThresholdWei, 10)
	if !ok {
		return service.ReconstructorConfig{}, fmt.Errorf("invalid ledger.dustThresholdWei %q", cfg.Ledger.DustThresholdWei)
	}
	policy := service.PolicyAll
	if cfg.Ledger.Policy == configloader.LedgerPolicyDust {
		policy = service.PolicyDust
	}
	return service.ReconstructorConfig{
		Policy:           policy,
		DustThresholdWei: threshold,
		Decimals:         netDef.Decimals,
	}, nil
}

// NewHistory wires clients and services for the tracked network.
func NewHistory(cfg *configloader.Config, netDef entity.NetworkDefinition, wallets port.WalletStore, zapLogger *zap.Logger) (*History, error) {
	etherscan := NewEtherscanClient(cfg, netDef, zapLogger)
	balances, closeBalances := NewBalanceClient(cfg, netDef, etherscan)

	priceClient, err := NewPriceClient(cfg, netDef, zapLogger)
	if err != nil {
		closeBalances()
		return nil, err
	}

	reconstructorCfg, err := ReconstructorConfig(cfg, netDef)
	if err != nil {
		closeBalances()
		return nil, err
	}

	if cfg.PriceSvc.CacheTTLMinutes > 0 {
		candle, err := PriceCandle(cfg)
		if err != nil {
			closeBalances()
			return nil, err
		}
		priceClient = service.NewCachingPriceClient(priceClient, time.Duration(cfg.PriceSvc.CacheTTLMinutes)*time.Minute, candle)
	}

	prices := service.NewPriceService(priceClient, logger.NewSlogAdapter("component", "PriceService"), service.PriceServiceConfig{
		BatchSize:           cfg.PriceSvc.BatchSize,
		BatchDelay:          millis(cfg.PriceSvc.BatchDelayMillis),
		RequestTimeout:      millis(cfg.PriceSvc.RequestTimeoutMillis),
		CurrentPriceRetries: cfg.PriceSvc.CurrentPriceRetries,
	})

	historyLogger := logger.NewSlogAdapter("component", "HistoryService")
	svc := service.NewHistoryService(service.HistoryDeps{
		Wallets:       wallets,
		Transactions:  service.NewTransactionSource(etherscan, historyLogger),
		Reconstructor: service.NewBalanceReconstructor(reconstructorCfg),
		Prices:        prices,
		Balances:      balances,
		Joiner:        service.NewJoiner(netDef.Decimals, netDef.Identifier, netDef.NativeSymbol, cfg.PriceSvc.Currency),
		Logger:        historyLogger,
	}, time.Duration(cfg.HistorySvc.PipelineTimeoutSeconds)*time.Second)

	zapLogger.Info("Balance history pipeline initialized",
		zap.String("network", netDef.Identifier),
		zap.String("balance_source", cfg.HistorySvc.BalanceSource),
		zap.String("price_provider", priceClient.Name()),
		zap.String("currency", cfg.PriceSvc.Currency),
		zap.String("ledger_policy", cfg.Ledger.Policy))

	return &History{Service: svc, closers: []func(){closeBalances}}, nil
}
