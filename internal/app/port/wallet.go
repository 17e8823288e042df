package port

import (
	"context"

	"wallet_tracker/internal/domain/entity"
)

// WalletStore persists the wallet address saved by each user.
type WalletStore interface {
	// Get returns entity.ErrWalletNotFound when the user has no record.
	Get(ctx context.Context, userID string) (entity.WalletRecord, error)
	// Set creates or replaces the user's record.
	Set(ctx context.Context, userID, address string) (entity.WalletRecord, error)
	Close() error
}

// WalletService validates and stores wallet addresses.
type WalletService interface {
	// GetWallet returns the saved address or "" when none is saved.
	GetWallet(ctx context.Context, userID string) (string, error)
	UpdateWallet(ctx context.Context, userID, address string) (entity.WalletRecord, error)
}
