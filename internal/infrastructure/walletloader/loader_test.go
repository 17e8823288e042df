package walletloader

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"wallet_tracker/internal/app/service"
	"wallet_tracker/internal/infrastructure/walletstore"
	"wallet_tracker/internal/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSeed(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "wallets.txt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestReadEntries(t *testing.T) {
	path := writeSeed(t, "# user,address\n\nalice, 0x742d35cc6634c0532925a3b844bc454e4438f44e\nbroken-line\n,0xabc\nbob,0xnope\n")
	l := NewWalletFileLoader(path, logger.NewSlogAdapter())

	entries, err := l.ReadEntries()
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, SeedEntry{UserID: "alice", Address: "0x742d35cc6634c0532925a3b844bc454e4438f44e", Line: 3}, entries[0])
	assert.Equal(t, "bob", entries[1].UserID)
}

func TestSeed(t *testing.T) {
	path := writeSeed(t, "alice,0x742d35cc6634c0532925a3b844bc454e4438f44e\nbob,0xnope\n")
	log := logger.NewSlogAdapter()
	store := walletstore.NewMemoryStore()
	wallets := service.NewWalletService(store, log)

	saved, err := NewWalletFileLoader(path, log).Seed(context.Background(), wallets)
	require.NoError(t, err)
	assert.Equal(t, 1, saved)

	addr, err := wallets.GetWallet(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, "0x742d35Cc6634C0532925a3b844Bc454e4438f44e", addr)

	addr, err = wallets.GetWallet(context.Background(), "bob")
	require.NoError(t, err)
	assert.Empty(t, addr)
}

func TestSeed_MissingFile(t *testing.T) {
	_, err := NewWalletFileLoader(filepath.Join(t.TempDir(), "none.txt"), logger.NewSlogAdapter()).
		Seed(context.Background(), nil)
	assert.Error(t, err)
}
