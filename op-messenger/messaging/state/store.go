// Package state is the chain state accessor of the messenger: a transactional key-value store
// with typed accessors for every persisted record.
package state

import "io"

// Reader reads single keys. A missing key returns types.ErrNotFound.
type Reader interface {
	Get(key []byte) ([]byte, error)
}

// Tx is a read-write transaction. Reads observe the writes of the same transaction.
type Tx interface {
	Reader
	Put(key []byte, value []byte) error
}

// Store is a linearizable key-value store.
// Update runs fn in a transaction that is committed atomically if fn returns nil,
// and discarded entirely otherwise. Updates are serialized with respect to each other.
type Store interface {
	Reader
	Update(fn func(tx Tx) error) error
	io.Closer
}
