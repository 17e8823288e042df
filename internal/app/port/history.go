package port

import (
	"context"

	"wallet_tracker/internal/domain/entity"
)

// HistoryService builds enriched balance histories.
type HistoryService interface {
	// GetBalanceHistory resolves the user's saved wallet and builds its history.
	GetBalanceHistory(ctx context.Context, userID string) (entity.EnrichedHistory, error)
	// BuildHistory builds the history of an explicit address.
	BuildHistory(ctx context.Context, address string) (entity.EnrichedHistory, error)
}
