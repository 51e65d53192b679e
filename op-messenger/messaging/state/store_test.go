package state

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"

	"github.com/mantlenetworkio/mantle-messaging/op-messenger/messaging/types"
	"github.com/mantlenetworkio/mantle-messaging/op-service/eth"
	"github.com/mantlenetworkio/mantle-messaging/op-service/testlog"
)

func forEachStore(t *testing.T, fn func(t *testing.T, s Store)) {
	t.Run("memory", func(t *testing.T) {
		s := NewMemoryStore()
		t.Cleanup(func() { _ = s.Close() })
		fn(t, s)
	})
	t.Run("pebble", func(t *testing.T) {
		s, err := OpenPebbleStore(testlog.Logger(t, log.LevelInfo), t.TempDir())
		require.NoError(t, err)
		t.Cleanup(func() { require.NoError(t, s.Close()) })
		fn(t, s)
	})
}

func TestStoreUpdate(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		_, err := s.Get([]byte("a"))
		require.ErrorIs(t, err, types.ErrNotFound)

		require.NoError(t, s.Update(func(tx Tx) error {
			require.NoError(t, tx.Put([]byte("a"), []byte("1")))
			v, err := tx.Get([]byte("a"))
			require.NoError(t, err)
			require.Equal(t, []byte("1"), v, "reads observe writes of the same tx")
			return nil
		}))
		v, err := s.Get([]byte("a"))
		require.NoError(t, err)
		require.Equal(t, []byte("1"), v)
	})
}

func TestStoreDiscardsFailedUpdate(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		require.NoError(t, s.Update(func(tx Tx) error {
			return tx.Put([]byte("a"), []byte("1"))
		}))
		boom := errors.New("boom")
		err := s.Update(func(tx Tx) error {
			require.NoError(t, tx.Put([]byte("a"), []byte("2")))
			require.NoError(t, tx.Put([]byte("b"), []byte("3")))
			return boom
		})
		require.ErrorIs(t, err, boom)

		v, err := s.Get([]byte("a"))
		require.NoError(t, err)
		require.Equal(t, []byte("1"), v)
		_, err = s.Get([]byte("b"))
		require.ErrorIs(t, err, types.ErrNotFound)
	})
}

func TestPebbleStoreReopen(t *testing.T) {
	dir := t.TempDir()
	logger := testlog.Logger(t, log.LevelInfo)
	s, err := OpenPebbleStore(logger, dir)
	require.NoError(t, err)
	m := testMessage(t, types.L1ToL2, 1)
	require.NoError(t, s.Update(func(tx Tx) error {
		return WriteMessage(tx, m)
	}))
	require.NoError(t, s.Close())

	s, err = OpenPebbleStore(logger, dir)
	require.NoError(t, err)
	defer s.Close()
	got, err := ReadMessageByHash(s, types.L1ToL2, m.Hash)
	require.NoError(t, err)
	require.Equal(t, m, got)
}

func TestMemoryStoreClosed(t *testing.T) {
	s := NewMemoryStore()
	require.NoError(t, s.Close())
	_, err := s.Get([]byte("a"))
	require.Error(t, err)
	require.Error(t, s.Update(func(tx Tx) error { return nil }))
}

func testMessage(t *testing.T, dir types.Direction, num uint64) *types.Message {
	m := &types.Message{
		Direction:     dir,
		From:          common.Address{0x01},
		To:            common.Address{0x02},
		Fee:           eth.GWei(3),
		Value:         eth.Ether(1),
		MessageNumber: num,
		Calldata:      []byte{0xca, 0xfe},
		BlockNumber:   10 + num,
	}
	h, err := m.ComputeHash()
	require.NoError(t, err)
	m.Hash = h
	return m
}
