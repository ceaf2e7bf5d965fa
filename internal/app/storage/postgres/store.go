// Package postgres implements the balance store backed by PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/lib/pq"

	"github.com/greenloop/ecobot/internal/app/storage"
)

// Store implements storage.BalanceStore on a PostgreSQL table.
type Store struct {
	db *sql.DB
}

var _ storage.BalanceStore = (*Store)(nil)

// New creates a Store using the provided database handle.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Open connects to PostgreSQL and ensures the balance table exists.
func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	store := New(db)
	if err := store.EnsureSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

// EnsureSchema creates the balance table when missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS wallet_balances (
			user_id    TEXT PRIMARY KEY,
			tokens     BIGINT NOT NULL DEFAULT 0,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)
	`)
	if err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

func (s *Store) GetBalance(ctx context.Context, userID string) (int64, error) {
	var tokens int64
	err := s.db.QueryRowContext(ctx, `
		SELECT tokens FROM wallet_balances WHERE user_id = $1
	`, userID).Scan(&tokens)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return tokens, nil
}

func (s *Store) AdjustBalance(ctx context.Context, userID string, delta int64) (int64, error) {
	var tokens int64
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO wallet_balances (user_id, tokens, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (user_id)
		DO UPDATE SET tokens = wallet_balances.tokens + EXCLUDED.tokens, updated_at = now()
		RETURNING tokens
	`, userID, delta).Scan(&tokens)
	if err != nil {
		return 0, err
	}
	return tokens, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}
