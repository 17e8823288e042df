package entity

import "errors"

var (
	// ErrWalletNotFound is returned by a wallet store when the user has no record.
	ErrWalletNotFound = errors.New("wallet not found")

	// ErrWalletNotConfigured means a balance history was requested before a wallet was saved.
	ErrWalletNotConfigured = errors.New("wallet not configured")

	// ErrInvalidUserID is returned for an empty user id.
	ErrInvalidUserID = errors.New("invalid user id")

	// ErrInvalidWalletAddress is returned for an empty or malformed address.
	ErrInvalidWalletAddress = errors.New("invalid wallet address")

	// ErrUpstreamUnavailable wraps failures of calls that have no degraded fallback
	// (current balance, current price).
	ErrUpstreamUnavailable = errors.New("upstream unavailable")

	// ErrPriceUnavailable means the price API answered but had no sample for the timestamp.
	ErrPriceUnavailable = errors.New("price unavailable")
)
