// Package wallet orchestrates balance reads and writes with the
// best-effort adapter policy.
package wallet

import (
	"context"
	"errors"

	"github.com/greenloop/ecobot/internal/app/storage"
	"github.com/greenloop/ecobot/internal/logging"
)

// ErrInsufficientFunds reports a purchase larger than the current balance.
// The purchase is rejected, never clamped.
var ErrInsufficientFunds = errors.New("insufficient funds")

// Service wraps a BalanceStore. Read failures degrade to a zero balance
// and are only logged; write failures are logged and returned so callers
// that need exact accounting can detect them.
type Service struct {
	store storage.BalanceStore
	log   *logging.Logger
}

// New creates the wallet service.
func New(store storage.BalanceStore, log *logging.Logger) *Service {
	if log == nil {
		log = logging.New("wallet")
	}
	return &Service{store: store, log: log}
}

// Balance returns the user's token count, or 0 when the store fails.
func (s *Service) Balance(ctx context.Context, userID string) int64 {
	tokens, err := s.store.GetBalance(ctx, userID)
	if err != nil {
		s.log.WithContext(ctx).WithError(err).WithField("user_id", userID).Error("get balance failed")
		return 0
	}
	return tokens
}

// Credit adds tokens to the user's balance and returns the new balance.
func (s *Service) Credit(ctx context.Context, userID string, amount int64) (int64, error) {
	tokens, err := s.store.AdjustBalance(ctx, userID, amount)
	if err != nil {
		s.log.WithContext(ctx).WithError(err).WithFields(map[string]interface{}{
			"user_id": userID,
			"amount":  amount,
		}).Error("credit failed")
		return 0, err
	}
	return tokens, nil
}

// Spend withdraws price tokens for a purchase. The balance read strictly
// precedes the write; a balance below price rejects the purchase with
// ErrInsufficientFunds and leaves the record untouched.
func (s *Service) Spend(ctx context.Context, userID string, price int64) (int64, error) {
	current, err := s.store.GetBalance(ctx, userID)
	if err != nil {
		s.log.WithContext(ctx).WithError(err).WithField("user_id", userID).Error("get balance failed")
		return 0, err
	}
	if current < price {
		return current, ErrInsufficientFunds
	}

	tokens, err := s.store.AdjustBalance(ctx, userID, -price)
	if err != nil {
		s.log.WithContext(ctx).WithError(err).WithFields(map[string]interface{}{
			"user_id": userID,
			"price":   price,
		}).Error("spend failed")
		return 0, err
	}
	return tokens, nil
}
