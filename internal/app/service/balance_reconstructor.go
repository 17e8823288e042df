package service

import (
	"math/big"
	"sort"
	"strings"

	"wallet_tracker/internal/app/port"
	"wallet_tracker/internal/domain/entity"
	"wallet_tracker/internal/pkg/utils"
)

// LedgerPolicy decides which transactions produce a visible ledger entry.
type LedgerPolicy int

const (
	// PolicyAll emits an entry for every transaction.
	PolicyAll LedgerPolicy = iota
	// PolicyDust emits the first entry and every entry whose |change| reaches the dust threshold.
	PolicyDust
)

// ReconstructorConfig configures the balance reconstructor.
type ReconstructorConfig struct {
	Policy           LedgerPolicy
	DustThresholdWei *big.Int
	Decimals         int32
}

type balanceReconstructorImpl struct {
	policy    LedgerPolicy
	threshold *big.Int
	decimals  int32
}

// NewBalanceReconstructor creates a reconstructor. Decimals <= 0 defaults to 18.
func NewBalanceReconstructor(cfg ReconstructorConfig) port.BalanceReconstructor {
	decimals := cfg.Decimals
	if decimals <= 0 {
		decimals = 18
	}
	threshold := new(big.Int)
	if cfg.DustThresholdWei != nil {
		threshold.Set(cfg.DustThresholdWei)
	}
	return &balanceReconstructorImpl{policy: cfg.Policy, threshold: threshold, decimals: decimals}
}

// Reconstruct replays txs in timestamp order and returns the running-balance ledger.
// Failed transactions are skipped. All arithmetic is done in wei; strings are
// produced only when an entry is emitted.
func (r *balanceReconstructorImpl) Reconstruct(address string, txs []entity.RawTransaction) []entity.BalanceLedgerEntry {
	ordered := make([]entity.RawTransaction, 0, len(txs))
	for _, tx := range txs {
		if tx.IsError {
			continue
		}
		ordered = append(ordered, tx)
	}
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Timestamp < ordered[j].Timestamp })

	running := new(big.Int)
	entries := make([]entity.BalanceLedgerEntry, 0, len(ordered))

	for i, tx := range ordered {
		change := balanceChange(address, tx)
		running.Add(running, change)

		if r.policy == PolicyDust && i > 0 && new(big.Int).Abs(change).Cmp(r.threshold) < 0 {
			continue
		}

		direction := entity.DirectionIn
		if change.Sign() < 0 {
			direction = entity.DirectionOut
		}
		entries = append(entries, entity.BalanceLedgerEntry{
			Timestamp:      tx.Timestamp,
			RunningBalance: utils.FormatUnits(utils.ClampZero(running), r.decimals),
			TxHash:         tx.Hash,
			ChangeAmount:   utils.FormatSignedUnits(change, r.decimals),
			Direction:      direction,
			RawBalance:     new(big.Int).Set(running),
			RawChange:      change,
		})
	}
	return entries
}

// balanceChange returns the signed effect of tx on address in wei.
// Inbound is checked first, so a self-transfer counts as +value.
func balanceChange(address string, tx entity.RawTransaction) *big.Int {
	value := tx.Value
	if value == nil {
		value = new(big.Int)
	}
	switch {
	case strings.EqualFold(tx.To, address):
		return new(big.Int).Set(value)
	case strings.EqualFold(tx.From, address):
		spent := new(big.Int).Add(value, tx.GasCost())
		return spent.Neg(spent)
	default:
		return new(big.Int)
	}
}
