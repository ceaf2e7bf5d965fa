// Package redisstore implements the balance store backed by Redis.
// INCRBY gives the atomic increment contract natively.
package redisstore

import (
	"context"
	"errors"
	"strconv"

	"github.com/go-redis/redis/v8"

	"github.com/greenloop/ecobot/internal/app/storage"
)

const keyPrefix = "ecobot:balance:"

// Store implements storage.BalanceStore on a Redis instance.
type Store struct {
	client *redis.Client
}

var _ storage.BalanceStore = (*Store)(nil)

// New creates a Store and verifies connectivity.
func New(ctx context.Context, addr, password string, db int) (*Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, err
	}
	return &Store{client: client}, nil
}

// NewWithClient wraps an existing client. Test hook.
func NewWithClient(client *redis.Client) *Store {
	return &Store{client: client}
}

func (s *Store) GetBalance(ctx context.Context, userID string) (int64, error) {
	raw, err := s.client.Get(ctx, keyPrefix+userID).Result()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return strconv.ParseInt(raw, 10, 64)
}

func (s *Store) AdjustBalance(ctx context.Context, userID string, delta int64) (int64, error) {
	return s.client.IncrBy(ctx, keyPrefix+userID, delta).Result()
}

// Close releases the client.
func (s *Store) Close() error {
	return s.client.Close()
}
