// Package locks wraps shared maps in read-write locks.
package locks

import "sync"

// RWMap is a map guarded by a single read-write lock. The zero value is ready to use.
type RWMap[K comparable, V any] struct {
	mu    sync.RWMutex
	inner map[K]V
}

func (m *RWMap[K, V]) Get(key K) (V, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.inner[key]
	return v, ok
}

// Set stores value under key, replacing any previous value.
func (m *RWMap[K, V]) Set(key K, value V) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.inner == nil {
		m.inner = make(map[K]V)
	}
	m.inner[key] = value
}

func (m *RWMap[K, V]) Delete(key K) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.inner, key)
}

func (m *RWMap[K, V]) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.inner)
}
