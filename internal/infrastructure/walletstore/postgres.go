package walletstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"wallet_tracker/internal/app/port"
	"wallet_tracker/internal/domain/entity"

	_ "github.com/lib/pq"
)

const defaultQueryTimeout = 5 * time.Second

const createWalletsTable = `
	CREATE TABLE IF NOT EXISTS wallets (
		user_id    TEXT PRIMARY KEY,
		address    TEXT NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`

// PostgresConfig holds connection pool settings.
type PostgresConfig struct {
	URL          string
	MaxOpenConns int
	MaxIdleConns int
	QueryTimeout time.Duration
}

// PostgresStore keeps wallet records in the wallets table.
type PostgresStore struct {
	db           *sql.DB
	queryTimeout time.Duration
}

var _ port.WalletStore = (*PostgresStore)(nil)

// withTimeout returns a child context that will be cancelled after d.
func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, d)
}

// NewPostgresStore opens the pool, pings the server and creates the table if needed.
func NewPostgresStore(ctx context.Context, cfg PostgresConfig) (*PostgresStore, error) {
	db, err := sql.Open("postgres", cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxIdleTime(2 * time.Minute)

	s := &PostgresStore{db: db, queryTimeout: cfg.QueryTimeout}
	if s.queryTimeout <= 0 {
		s.queryTimeout = defaultQueryTimeout
	}

	pingCtx, cancel := withTimeout(ctx, s.queryTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	if err := s.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// EnsureSchema creates the wallets table when it is missing.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	ctx, cancel := withTimeout(ctx, s.queryTimeout)
	defer cancel()
	if _, err := s.db.ExecContext(ctx, createWalletsTable); err != nil {
		return fmt.Errorf("create wallets table: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, userID string) (entity.WalletRecord, error) {
	ctx, cancel := withTimeout(ctx, s.queryTimeout)
	defer cancel()

	var r entity.WalletRecord
	err := s.db.QueryRowContext(ctx, `
		SELECT user_id, address, updated_at
		FROM wallets
		WHERE user_id = $1
	`, userID).Scan(&r.UserID, &r.Address, &r.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return entity.WalletRecord{}, entity.ErrWalletNotFound
	}
	if err != nil {
		return entity.WalletRecord{}, fmt.Errorf("find wallet: %w", err)
	}
	r.UpdatedAt = r.UpdatedAt.UTC()
	return r, nil
}

func (s *PostgresStore) Set(ctx context.Context, userID, address string) (entity.WalletRecord, error) {
	ctx, cancel := withTimeout(ctx, s.queryTimeout)
	defer cancel()

	var r entity.WalletRecord
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO wallets (user_id, address, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (user_id) DO UPDATE SET
			address = EXCLUDED.address,
			updated_at = EXCLUDED.updated_at
		RETURNING user_id, address, updated_at
	`, userID, address).Scan(&r.UserID, &r.Address, &r.UpdatedAt)
	if err != nil {
		return entity.WalletRecord{}, fmt.Errorf("upsert wallet: %w", err)
	}
	r.UpdatedAt = r.UpdatedAt.UTC()
	return r, nil
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}
