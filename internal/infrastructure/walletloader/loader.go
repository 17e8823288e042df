package walletloader

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"wallet_tracker/internal/app/port"
	"wallet_tracker/internal/domain/entity"
)

const defaultSeedFilePath = "data/wallets.txt"

// SeedEntry is one "userID,address" line of the seed file.
type SeedEntry struct {
	UserID  string
	Address string
	Line    int
}

// WalletFileLoader reads user wallets from a text file and saves them through a WalletService.
type WalletFileLoader struct {
	filePath string
	logger   port.Logger
}

// NewWalletFileLoader creates a loader for filePath; empty means data/wallets.txt.
func NewWalletFileLoader(filePath string, l port.Logger) *WalletFileLoader {
	if filePath == "" {
		filePath = defaultSeedFilePath
	}
	return &WalletFileLoader{filePath: filePath, logger: l}
}

// ReadEntries parses the seed file. Empty lines and lines starting with # are ignored,
// lines without a comma are skipped with a warning.
func (l *WalletFileLoader) ReadEntries() ([]SeedEntry, error) {
	file, err := os.Open(l.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open wallet file %s: %w", l.filePath, err)
	}
	defer file.Close()

	var entries []SeedEntry
	scanner := bufio.NewScanner(file)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		userID, address, ok := strings.Cut(line, ",")
		if !ok || strings.TrimSpace(userID) == "" {
			l.logger.Warn("Skipping malformed seed line", "file", l.filePath, "line_number", lineNum)
			continue
		}
		entries = append(entries, SeedEntry{
			UserID:  strings.TrimSpace(userID),
			Address: strings.TrimSpace(address),
			Line:    lineNum,
		})
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error scanning wallet file %s: %w", l.filePath, err)
	}
	return entries, nil
}

// Seed saves every valid entry and returns how many were stored.
// Invalid addresses are logged and skipped; a store failure aborts.
func (l *WalletFileLoader) Seed(ctx context.Context, wallets port.WalletService) (int, error) {
	entries, err := l.ReadEntries()
	if err != nil {
		return 0, err
	}

	saved := 0
	for _, e := range entries {
		if _, err := wallets.UpdateWallet(ctx, e.UserID, e.Address); err != nil {
			if isValidationError(err) {
				l.logger.Warn("Skipping invalid seed wallet", "line_number", e.Line, "user_id", e.UserID, "error", err)
				continue
			}
			return saved, fmt.Errorf("seed line %d: %w", e.Line, err)
		}
		saved++
	}

	l.logger.Info("Wallets seeded from file", "count", saved, "path", l.filePath)
	return saved, nil
}

func isValidationError(err error) bool {
	return errors.Is(err, entity.ErrInvalidWalletAddress) || errors.Is(err, entity.ErrInvalidUserID)
}
