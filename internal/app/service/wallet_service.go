package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"wallet_tracker/internal/app/port"
	"wallet_tracker/internal/domain/entity"
	"wallet_tracker/internal/metrics"

	"github.com/ethereum/go-ethereum/common"
)

type walletServiceImpl struct {
	store  port.WalletStore
	logger port.Logger
}

// NewWalletService creates a new wallet service.
func NewWalletService(store port.WalletStore, l port.Logger) port.WalletService {
	return &walletServiceImpl{store: store, logger: l}
}

// NormalizeAddress validates a 0x-prefixed hex address and returns its EIP-55 form.
func NormalizeAddress(address string) (string, error) {
	address = strings.TrimSpace(address)
	if !strings.HasPrefix(address, "0x") && !strings.HasPrefix(address, "0X") {
		return "", fmt.Errorf("%w: %q", entity.ErrInvalidWalletAddress, address)
	}
	if !common.IsHexAddress(address) {
		return "", fmt.Errorf("%w: %q", entity.ErrInvalidWalletAddress, address)
	}
	return common.HexToAddress(address).Hex(), nil
}

// GetWallet returns the saved address, or "" when the user has not saved one yet.
func (s *walletServiceImpl) GetWallet(ctx context.Context, userID string) (string, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return "", entity.ErrInvalidUserID
	}

	record, err := s.store.Get(ctx, userID)
	if errors.Is(err, entity.ErrWalletNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get wallet for user %s: %w", userID, err)
	}
	return record.Address, nil
}

// UpdateWallet validates address locally and saves it in checksum form.
func (s *walletServiceImpl) UpdateWallet(ctx context.Context, userID, address string) (entity.WalletRecord, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		metrics.WalletUpdates.WithLabelValues(metrics.OutcomeInvalid).Inc()
		return entity.WalletRecord{}, entity.ErrInvalidUserID
	}
	normalized, err := NormalizeAddress(address)
	if err != nil {
		metrics.WalletUpdates.WithLabelValues(metrics.OutcomeInvalid).Inc()
		s.logger.Debug("Rejected wallet address", "user_id", userID, "address", address)
		return entity.WalletRecord{}, err
	}

	record, err := s.store.Set(ctx, userID, normalized)
	if err != nil {
		metrics.WalletUpdates.WithLabelValues(metrics.OutcomeError).Inc()
		return entity.WalletRecord{}, fmt.Errorf("failed to save wallet for user %s: %w", userID, err)
	}

	metrics.WalletUpdates.WithLabelValues(metrics.OutcomeSuccess).Inc()
	s.logger.Info("Wallet updated", "user_id", userID, "address", normalized)
	return record, nil
}
