package walletstore

import (
	"context"
	"time"

	"wallet_tracker/internal/app/port"
	"wallet_tracker/internal/domain/entity"

	"github.com/patrickmn/go-cache"
)

// MemoryStore keeps wallet records in process memory. Records never expire.
type MemoryStore struct {
	records *cache.Cache
	now     func() time.Time
}

var _ port.WalletStore = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: cache.New(cache.NoExpiration, 0),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (s *MemoryStore) Get(ctx context.Context, userID string) (entity.WalletRecord, error) {
	if err := ctx.Err(); err != nil {
		return entity.WalletRecord{}, err
	}
	v, ok := s.records.Get(userID)
	if !ok {
		return entity.WalletRecord{}, entity.ErrWalletNotFound
	}
	return v.(entity.WalletRecord), nil
}

func (s *MemoryStore) Set(ctx context.Context, userID, address string) (entity.WalletRecord, error) {
	if err := ctx.Err(); err != nil {
		return entity.WalletRecord{}, err
	}
	record := entity.WalletRecord{UserID: userID, Address: address, UpdatedAt: s.now()}
	s.records.Set(userID, record, cache.NoExpiration)
	return record, nil
}

// Count returns the number of stored records.
func (s *MemoryStore) Count() int {
	return s.records.ItemCount()
}

func (s *MemoryStore) Close() error {
	s.records.Flush()
	return nil
}
