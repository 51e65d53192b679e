package claim

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"

	"github.com/mantlenetworkio/mantle-messaging/op-messenger/messaging/batcher"
	"github.com/mantlenetworkio/mantle-messaging/op-messenger/messaging/msglog"
	"github.com/mantlenetworkio/mantle-messaging/op-messenger/messaging/rollinghash"
	"github.com/mantlenetworkio/mantle-messaging/op-messenger/messaging/state"
	"github.com/mantlenetworkio/mantle-messaging/op-messenger/messaging/types"
	"github.com/mantlenetworkio/mantle-messaging/op-messenger/messaging/verifier"
	"github.com/mantlenetworkio/mantle-messaging/op-service/eth"
	"github.com/mantlenetworkio/mantle-messaging/op-service/testlog"
)

var (
	sender    = common.HexToAddress("0x5e4de00000000000000000000000000000000000")
	recipient = common.HexToAddress("0x7ec1000000000000000000000000000000000000")
	executor  = common.HexToAddress("0xe8ec000000000000000000000000000000000000")
	postman   = common.HexToAddress("0x9057000000000000000000000000000000000000")
)

type testLedger struct {
	machine *Machine
	store   *state.MemoryStore
	log     *msglog.Log
	acc     *rollinghash.Accumulator
	builder *batcher.Builder
}

func newTestLedger(t *testing.T) *testLedger {
	logger := testlog.Logger(t, log.LevelDebug)
	b, err := batcher.New(logger, batcher.DefaultConfig())
	require.NoError(t, err)
	return &testLedger{
		machine: New(logger, verifier.New(logger)),
		store:   state.NewMemoryStore(),
		log:     msglog.New(logger, msglog.DefaultConfig()),
		acc:     rollinghash.New(logger),
		builder: b,
	}
}

func (l *testLedger) send(t *testing.T, dir types.Direction, fee, value eth.ETH, calldata []byte) *types.Message {
	var out *types.Message
	require.NoError(t, l.store.Update(func(tx state.Tx) error {
		m, err := l.log.Append(tx, dir, sender, recipient, fee, value, calldata)
		if err != nil {
			return err
		}
		out = m
		if dir.Scheme() == types.SchemeRollingHash {
			_, err = l.acc.Fold(tx, m)
		}
		return err
	}))
	return out
}

func (l *testLedger) anchor(t *testing.T, m *types.Message, rolling common.Hash) {
	require.NoError(t, l.store.Update(func(tx state.Tx) error {
		if _, err := l.acc.Ingest(tx, m); err != nil {
			return err
		}
		_, err := l.acc.ReportAnchor(tx, m.Direction, m.MessageNumber, rolling)
		return err
	}))
}

func (l *testLedger) commit(t *testing.T) {
	require.NoError(t, l.store.Update(func(tx state.Tx) error {
		head, err := state.ReadHead(tx, types.L2)
		if err != nil {
			return err
		}
		if err := state.WriteHead(tx, types.L2, head+1); err != nil {
			return err
		}
		_, err = l.builder.Finalize(tx, types.L2ToL1, head+1)
		return err
	}))
}

func (l *testLedger) claim(m *types.Message, ev types.Evidence, feeRecipient common.Address) (*types.ClaimRecord, error) {
	var rec *types.ClaimRecord
	err := l.store.Update(func(tx state.Tx) error {
		_, r, err := l.machine.Claim(tx, m, ev, executor, feeRecipient)
		rec = r
		return err
	})
	return rec, err
}

func (l *testLedger) balance(t *testing.T, layer types.Layer, addr common.Address) eth.ETH {
	bal, err := state.ReadBalance(l.store, layer, addr)
	require.NoError(t, err)
	return bal
}

func TestClaimAnchoredMessage(t *testing.T) {
	l := newTestLedger(t)
	m1 := l.send(t, types.L1ToL2, eth.ZeroWei, eth.WeiU64(10), nil)
	l.anchor(t, m1, types.NextRollingHash(types.GenesisRollingHash, m1.Hash))

	rec, err := l.claim(m1, types.RollingHashEvidence(1), common.Address{})
	require.NoError(t, err)
	require.Equal(t, types.Claimed, rec.Status)
	require.Equal(t, executor, rec.ClaimedBy)
	require.Equal(t, executor, rec.FeeRecipient, "fee recipient defaults to the executor")

	stored, err := l.machine.Status(l.store, types.L1ToL2, m1.Hash)
	require.NoError(t, err)
	require.Equal(t, *rec, stored)
	require.Equal(t, eth.WeiU64(10), l.balance(t, types.L2, recipient))

	_, err = l.claim(m1, types.RollingHashEvidence(1), common.Address{})
	require.ErrorIs(t, err, types.ErrAlreadyClaimed)
	require.Equal(t, eth.WeiU64(10), l.balance(t, types.L2, recipient), "no second transfer")
}

func TestClaimProvenMessage(t *testing.T) {
	l := newTestLedger(t)
	m := l.send(t, types.L2ToL1, eth.WeiU64(3), eth.WeiU64(7), []byte{0xca, 0x11})
	l.commit(t)
	proof, _, err := l.builder.ProofFor(l.store, m.Hash)
	require.NoError(t, err)

	rec, err := l.claim(m, types.MerkleEvidence(*proof), postman)
	require.NoError(t, err)
	require.Equal(t, postman, rec.FeeRecipient)
	require.Equal(t, eth.WeiU64(7), l.balance(t, types.L1, recipient))
	require.Equal(t, eth.WeiU64(3), l.balance(t, types.L1, postman))
	require.True(t, l.balance(t, types.L1, executor).IsZero())
	require.True(t, l.balance(t, types.L2, recipient).IsZero(), "credited on the destination layer only")

	_, err = l.claim(m, types.MerkleEvidence(*proof), postman)
	require.ErrorIs(t, err, types.ErrAlreadyClaimed)
}

func TestClaimExecutedAtDestinationHead(t *testing.T) {
	l := newTestLedger(t)
	m := l.send(t, types.L1ToL2, eth.ZeroWei, eth.ZeroWei, nil)
	l.anchor(t, m, types.NextRollingHash(types.GenesisRollingHash, m.Hash))
	require.NoError(t, l.store.Update(func(tx state.Tx) error {
		return state.WriteHead(tx, types.L2, 42)
	}))
	rec, err := l.claim(m, types.RollingHashEvidence(1), common.Address{})
	require.NoError(t, err)
	require.Equal(t, uint64(42), rec.ExecutedAt)
}

func TestClaimRejections(t *testing.T) {
	l := newTestLedger(t)
	m1 := l.send(t, types.L1ToL2, eth.ZeroWei, eth.WeiU64(1), nil)
	m2 := l.send(t, types.L1ToL2, eth.ZeroWei, eth.WeiU64(2), nil)
	l.anchor(t, m1, types.NextRollingHash(types.GenesisRollingHash, m1.Hash))

	t.Run("not anchored", func(t *testing.T) {
		_, err := l.claim(m2, types.RollingHashEvidence(2), common.Address{})
		require.ErrorIs(t, err, types.ErrProofRejected)
		require.ErrorIs(t, err, types.ErrNotAnchored)
	})
	t.Run("wrong scheme", func(t *testing.T) {
		_, err := l.claim(m1, types.MerkleEvidence(types.MerkleProof{Root: m1.Hash}), common.Address{})
		require.ErrorIs(t, err, types.ErrProofRejected)
		require.ErrorIs(t, err, types.ErrSchemeMismatch)
	})
	t.Run("unknown message", func(t *testing.T) {
		unknown := *m1
		unknown.MessageNumber = 100
		unknown.Hash = common.Hash{}
		_, err := l.claim(&unknown, types.RollingHashEvidence(1), common.Address{})
		require.ErrorIs(t, err, types.ErrUnknownMessage)
	})
	t.Run("hash mismatch", func(t *testing.T) {
		tampered := *m1
		tampered.Value = eth.Ether(1)
		_, err := l.claim(&tampered, types.RollingHashEvidence(1), common.Address{})
		require.ErrorIs(t, err, types.ErrInvalidPayload)
		require.ErrorIs(t, err, types.ErrHashMismatch)
	})
	t.Run("wrong direction", func(t *testing.T) {
		other := *m1
		other.Direction = types.L2ToL1
		_, err := l.claim(&other, types.MerkleEvidence(types.MerkleProof{}), common.Address{})
		require.ErrorIs(t, err, types.ErrUnknownMessage)
	})
	t.Run("missing direction", func(t *testing.T) {
		other := *m1
		other.Direction = 0
		_, err := l.claim(&other, types.RollingHashEvidence(1), common.Address{})
		require.ErrorIs(t, err, types.ErrInvalidPayload)
		require.ErrorIs(t, err, types.ErrInvalidDirection)
	})

	for _, m := range []*types.Message{m1, m2} {
		rec, err := l.machine.Status(l.store, m.Direction, m.Hash)
		require.NoError(t, err)
		require.Equal(t, types.Unclaimed, rec.Status)
	}
	require.True(t, l.balance(t, types.L2, recipient).IsZero())
}

func TestClaimSameMessageBothDirections(t *testing.T) {
	l := newTestLedger(t)
	a := l.send(t, types.L1ToL2, eth.ZeroWei, eth.WeiU64(10), nil)
	b := l.send(t, types.L2ToL1, eth.ZeroWei, eth.WeiU64(10), nil)
	require.Equal(t, a.Hash, b.Hash)
	l.anchor(t, a, types.NextRollingHash(types.GenesisRollingHash, a.Hash))
	l.commit(t)

	_, err := l.claim(a, types.RollingHashEvidence(1), common.Address{})
	require.NoError(t, err)
	rec, err := l.machine.Status(l.store, types.L2ToL1, b.Hash)
	require.NoError(t, err)
	require.Equal(t, types.Unclaimed, rec.Status, "claiming one direction leaves the other unclaimed")

	proof, _, err := l.builder.ProofFor(l.store, b.Hash)
	require.NoError(t, err)
	_, err = l.claim(b, types.MerkleEvidence(*proof), common.Address{})
	require.NoError(t, err)
	require.Equal(t, eth.WeiU64(10), l.balance(t, types.L2, recipient))
	require.Equal(t, eth.WeiU64(10), l.balance(t, types.L1, recipient))

	for _, m := range []*types.Message{a, b} {
		ev := types.RollingHashEvidence(1)
		if m.Direction == types.L2ToL1 {
			ev = types.MerkleEvidence(*proof)
		}
		_, err = l.claim(m, ev, common.Address{})
		require.ErrorIs(t, err, types.ErrAlreadyClaimed)
	}
}

func TestClaimRevertIsAtomic(t *testing.T) {
	l := newTestLedger(t)
	m := l.send(t, types.L1ToL2, eth.WeiU64(5), eth.WeiU64(10), []byte{0x01})
	l.anchor(t, m, types.NextRollingHash(types.GenesisRollingHash, m.Hash))

	errRevert := errors.New("execution reverted")
	calls := 0
	l.machine.RegisterCallHandler(recipient, CallHandlerFunc(func(tx state.Tx, got *types.Message) error {
		calls++
		require.Equal(t, m.Hash, got.Hash)
		rec, err := state.ReadClaim(tx, got.Direction, got.Hash)
		require.NoError(t, err)
		require.Equal(t, types.Claimed, rec.Status, "claimed before the call runs")
		return errRevert
	}))

	_, err := l.claim(m, types.RollingHashEvidence(1), common.Address{})
	require.ErrorIs(t, err, errRevert)
	require.Equal(t, 1, calls)

	rec, err := l.machine.Status(l.store, m.Direction, m.Hash)
	require.NoError(t, err)
	require.Equal(t, types.Unclaimed, rec.Status)
	require.True(t, l.balance(t, types.L2, recipient).IsZero())
	require.True(t, l.balance(t, types.L2, executor).IsZero())

	// the message stays claimable once the call succeeds
	l.machine.RegisterCallHandler(recipient, CallHandlerFunc(func(tx state.Tx, got *types.Message) error {
		calls++
		return nil
	}))
	_, err = l.claim(m, types.RollingHashEvidence(1), common.Address{})
	require.NoError(t, err)
	require.Equal(t, 2, calls)
	require.Equal(t, eth.WeiU64(10), l.balance(t, types.L2, recipient))
	require.Equal(t, eth.WeiU64(5), l.balance(t, types.L2, executor))

	l.machine.RegisterCallHandler(recipient, nil)
	_, ok := l.machine.handlers.Get(recipient)
	require.False(t, ok)
}
