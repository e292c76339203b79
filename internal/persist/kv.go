package persist

import (
	"context"
	"sync"
)

// KV is a durable string key-value store. The adapter only ever touches two
// keys (the primary and backup slots), so the contract is deliberately small.
type KV interface {
	Get(ctx context.Context, key string) (string, bool)
	Set(ctx context.Context, key, val string) error
	Delete(ctx context.Context, key string) error
}

// MemoryKV is an in-process KV, used in tests and as a last-resort fallback.
type MemoryKV struct {
	mu   sync.RWMutex
	data map[string]string
}

func NewMemory() *MemoryKV { return &MemoryKV{data: make(map[string]string)} }

func (m *MemoryKV) Get(_ context.Context, key string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	return v, ok
}

func (m *MemoryKV) Set(_ context.Context, key, val string) error {
	m.mu.Lock()
	m.data[key] = val
	m.mu.Unlock()
	return nil
}

func (m *MemoryKV) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.data, key)
	m.mu.Unlock()
	return nil
}
