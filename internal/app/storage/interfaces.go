// Package storage defines the persistence boundary for user balances.
package storage

import "context"

// BalanceStore persists per-user token balances.
//
// GetBalance returns 0 for a user with no record and must never create one
// as a side effect of reading. AdjustBalance is an atomic read-modify-write
// with upsert-with-default-zero semantics: concurrent first writes for the
// same user must not clobber each other. It returns the resulting balance.
type BalanceStore interface {
	GetBalance(ctx context.Context, userID string) (int64, error)
	AdjustBalance(ctx context.Context, userID string, delta int64) (int64, error)
}
