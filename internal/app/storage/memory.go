package storage

import (
	"context"
	"sync"
)

// Memory is a thread-safe in-memory balance store. It is intended for
// tests and prototyping and deliberately keeps the implementation simple.
type Memory struct {
	mu       sync.RWMutex
	balances map[string]int64
}

var _ BalanceStore = (*Memory)(nil)

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{balances: make(map[string]int64)}
}

func (m *Memory) GetBalance(_ context.Context, userID string) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.balances[userID], nil
}

func (m *Memory) AdjustBalance(_ context.Context, userID string, delta int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.balances[userID] += delta
	return m.balances[userID], nil
}

// Len reports how many balance records exist. Test helper.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.balances)
}
