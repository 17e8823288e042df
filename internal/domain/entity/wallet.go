package entity

import "time"

// WalletRecord links a user to the wallet address they saved.
type WalletRecord struct {
	UserID    string    `json:"userId" db:"user_id"`
	Address   string    `json:"address" db:"address"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}
