package walletstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"wallet_tracker/internal/app/port"
	"wallet_tracker/internal/domain/entity"

	jsoniter "github.com/json-iterator/go"
	"github.com/redis/go-redis/v9"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// RedisConfig holds redis connection settings.
type RedisConfig struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
}

// RedisStore keeps each wallet record as a JSON string under prefix+userID.
type RedisStore struct {
	client *redis.Client
	prefix string
	now    func() time.Time
}

var _ port.WalletStore = (*RedisStore)(nil)

// NewRedisStore connects to redis and checks the connection with PING.
func NewRedisStore(ctx context.Context, cfg RedisConfig) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis %s: %w", cfg.Addr, err)
	}
	return newRedisStore(client, cfg.KeyPrefix), nil
}

func newRedisStore(client *redis.Client, prefix string) *RedisStore {
	return &RedisStore{
		client: client,
		prefix: prefix,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (s *RedisStore) key(userID string) string {
	return s.prefix + userID
}

func (s *RedisStore) Get(ctx context.Context, userID string) (entity.WalletRecord, error) {
	data, err := s.client.Get(ctx, s.key(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return entity.WalletRecord{}, entity.ErrWalletNotFound
	}
	if err != nil {
		return entity.WalletRecord{}, fmt.Errorf("redis get %s: %w", s.key(userID), err)
	}

	var r entity.WalletRecord
	if err := json.Unmarshal(data, &r); err != nil {
		return entity.WalletRecord{}, fmt.Errorf("failed to unmarshal wallet record: %w", err)
	}
	return r, nil
}

func (s *RedisStore) Set(ctx context.Context, userID, address string) (entity.WalletRecord, error) {
	r := entity.WalletRecord{UserID: userID, Address: address, UpdatedAt: s.now()}
	data, err := json.Marshal(r)
	if err != nil {
		return entity.WalletRecord{}, fmt.Errorf("failed to marshal wallet record: %w", err)
	}
	if err := s.client.Set(ctx, s.key(userID), data, 0).Err(); err != nil {
		return entity.WalletRecord{}, fmt.Errorf("redis set %s: %w", s.key(userID), err)
	}
	return r, nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
