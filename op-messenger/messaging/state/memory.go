package state

import (
	"errors"
	"slices"
	"sync"

	"github.com/mantlenetworkio/mantle-messaging/op-messenger/messaging/types"
)

var errClosed = errors.New("store closed")

// MemoryStore is an in-memory Store.
type MemoryStore struct {
	mu     sync.RWMutex
	kv     map[string][]byte
	closed bool
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{kv: make(map[string][]byte)}
}

func (s *MemoryStore) Get(key []byte) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, errClosed
	}
	v, ok := s.kv[string(key)]
	if !ok {
		return nil, types.ErrNotFound
	}
	return slices.Clone(v), nil
}

func (s *MemoryStore) Update(fn func(tx Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errClosed
	}
	tx := &memoryTx{base: s.kv, writes: make(map[string][]byte)}
	if err := fn(tx); err != nil {
		return err
	}
	for k, v := range tx.writes {
		s.kv[k] = v
	}
	return nil
}

func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// Len returns the number of stored keys.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.kv)
}

type memoryTx struct {
	base   map[string][]byte
	writes map[string][]byte
}

func (tx *memoryTx) Get(key []byte) ([]byte, error) {
	if v, ok := tx.writes[string(key)]; ok {
		return slices.Clone(v), nil
	}
	if v, ok := tx.base[string(key)]; ok {
		return slices.Clone(v), nil
	}
	return nil, types.ErrNotFound
}

func (tx *memoryTx) Put(key []byte, value []byte) error {
	tx.writes[string(key)] = slices.Clone(value)
	return nil
}
