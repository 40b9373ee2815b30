package store

import (
	"context"
	"strconv"
	"sync"
)

// MemoryStore is a single-process Store used by tests and local runs without Redis.
type MemoryStore struct {
	mu      sync.Mutex
	strings map[string]string
	hashes  map[string]map[string]string
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		strings: map[string]string{},
		hashes:  map[string]map[string]string{},
	}
}

func (m *MemoryStore) GetString(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.strings[key]
	return v, ok, nil
}

func (m *MemoryStore) SetString(_ context.Context, key, value string) error {
	m.mu.Lock()
	m.strings[key] = value
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) SetStringNX(_ context.Context, key, value string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.strings[key]; ok {
		return false, nil
	}
	m.strings[key] = value
	return true, nil
}

func (m *MemoryStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.strings, key)
	delete(m.hashes, key)
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Increment(_ context.Context, key string, delta int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	if raw, ok := m.strings[key]; ok {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return 0, err
		}
		n = parsed
	}
	n += delta
	m.strings[key] = strconv.FormatInt(n, 10)
	return n, nil
}

func (m *MemoryStore) hash(key string) map[string]string {
	h, ok := m.hashes[key]
	if !ok {
		h = map[string]string{}
		m.hashes[key] = h
	}
	return h
}

func (m *MemoryStore) HashSet(_ context.Context, key, field, value string) error {
	m.mu.Lock()
	m.hash(key)[field] = value
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) HashSetNX(_ context.Context, key, field, value string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	h := m.hash(key)
	if _, ok := h[field]; ok {
		return false, nil
	}
	h[field] = value
	return true, nil
}

func (m *MemoryStore) HashGet(_ context.Context, key, field string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.hashes[key][field]
	return v, ok, nil
}

func (m *MemoryStore) HashGetAll(_ context.Context, key string) (map[string]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]string, len(m.hashes[key]))
	for f, v := range m.hashes[key] {
		out[f] = v
	}
	return out, nil
}

func (m *MemoryStore) HashDelete(_ context.Context, key, field string) error {
	m.mu.Lock()
	delete(m.hashes[key], field)
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) HashLen(_ context.Context, key string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.hashes[key])), nil
}
