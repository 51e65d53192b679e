package state

import (
	"errors"
	"fmt"
	"io"
	"slices"
	"sync"

	"github.com/cockroachdb/pebble"

	"github.com/ethereum/go-ethereum/log"

	"github.com/mantlenetworkio/mantle-messaging/op-messenger/messaging/types"
)

// PebbleStore is a durable Store. Every Update is one indexed pebble batch, synced on commit.
type PebbleStore struct {
	log log.Logger
	// mu serializes updates, so read-modify-write cycles of different batches never interleave.
	mu sync.Mutex
	db *pebble.DB
}

var _ Store = (*PebbleStore)(nil)

func OpenPebbleStore(logger log.Logger, dir string) (*PebbleStore, error) {
	db, err := pebble.Open(dir, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("failed to open pebble db at %q: %w", dir, err)
	}
	logger.Info("Opened state store", "dir", dir)
	return &PebbleStore{log: logger, db: db}, nil
}

func (s *PebbleStore) Get(key []byte) ([]byte, error) {
	return pebbleGet(s.db, key)
}

type pebbleReader interface {
	Get(key []byte) ([]byte, io.Closer, error)
}

func pebbleGet(r pebbleReader, key []byte) ([]byte, error) {
	v, closer, err := r.Get(key)
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, types.ErrNotFound
	} else if err != nil {
		return nil, err
	}
	out := slices.Clone(v)
	if err := closer.Close(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *PebbleStore) Update(fn func(tx Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	batch := s.db.NewIndexedBatch()
	defer batch.Close()
	if err := fn(&pebbleTx{batch: batch}); err != nil {
		return err
	}
	if err := batch.Commit(pebble.Sync); err != nil {
		return fmt.Errorf("failed to commit state batch: %w", err)
	}
	return nil
}

func (s *PebbleStore) Close() error {
	s.log.Info("Closing state store")
	return s.db.Close()
}

type pebbleTx struct {
	batch *pebble.Batch
}

func (tx *pebbleTx) Get(key []byte) ([]byte, error) {
	return pebbleGet(tx.batch, key)
}

func (tx *pebbleTx) Put(key []byte, value []byte) error {
	return tx.batch.Set(key, value, nil)
}
