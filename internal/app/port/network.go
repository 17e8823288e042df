package port

import (
	"context"
	"math/big"

	"wallet_tracker/internal/domain/entity"
)

// BalanceClient reads the current native-currency balance of an address.
type BalanceClient interface {
	// GetNativeBalance returns the balance in the smallest unit (wei).
	GetNativeBalance(ctx context.Context, walletAddress string) (*big.Int, error)
}

// NetworkDefinitionProvider defines the interface for providing network definitions.
type NetworkDefinitionProvider interface {
	// GetAllNetworkDefinitions returns all available network definitions as a slice.
	GetAllNetworkDefinitions() []entity.NetworkDefinition

	// GetNetworkDefinitionByName returns a specific network definition by its name (or identifier).
	// Возвращает определение и true, если найдено, иначе false.
	GetNetworkDefinitionByName(nameOrIdentifier string) (entity.NetworkDefinition, bool)
}
