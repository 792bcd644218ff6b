package kv

import (
	"context"
	"sync"

	"posterstudio/internal/domain"
)

type memoryRepo struct {
	mu     sync.RWMutex
	values map[string][]byte
}

// NewMemory returns a process-local Repository.
func NewMemory() Repository {
	return &memoryRepo{values: make(map[string][]byte)}
}

func (r *memoryRepo) Load(_ context.Context, key string) ([]byte, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.values[key]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

func (r *memoryRepo) Save(_ context.Context, key string, value []byte) error {
	r.mu.Lock()
	r.values[key] = append([]byte(nil), value...)
	r.mu.Unlock()
	return nil
}

func (r *memoryRepo) Ping(context.Context) error { return nil }
