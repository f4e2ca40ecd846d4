package checkpoint

import (
	"context"
	"sync"
)

// MemoryKV is a process-local KV backend. Checkpoints stored here do not
// survive a restart; it serves tests and one-shot crawls.
type MemoryKV struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemoryKV builds an empty in-memory backend.
func NewMemoryKV() *MemoryKV {
	return &MemoryKV{data: map[string][]byte{}}
}

// Get implements KV.
func (m *MemoryKV) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	value, ok := m.data[key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), value...), nil
}

// Put implements KV.
func (m *MemoryKV) Put(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = append([]byte(nil), value...)
	return nil
}
