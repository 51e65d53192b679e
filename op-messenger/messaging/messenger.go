// Package messaging ties the message log, both commitment schemes and the claim state machine
// together over a single transactional ledger.
package messaging

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"

	"github.com/mantlenetworkio/mantle-messaging/op-messenger/messaging/batcher"
	"github.com/mantlenetworkio/mantle-messaging/op-messenger/messaging/claim"
	"github.com/mantlenetworkio/mantle-messaging/op-messenger/messaging/msglog"
	"github.com/mantlenetworkio/mantle-messaging/op-messenger/messaging/rollinghash"
	"github.com/mantlenetworkio/mantle-messaging/op-messenger/messaging/state"
	"github.com/mantlenetworkio/mantle-messaging/op-messenger/messaging/types"
	"github.com/mantlenetworkio/mantle-messaging/op-messenger/messaging/verifier"
	"github.com/mantlenetworkio/mantle-messaging/op-messenger/metrics"
	"github.com/mantlenetworkio/mantle-messaging/op-service/eth"
	"github.com/mantlenetworkio/mantle-messaging/op-service/event"
)

type Config struct {
	Log     msglog.Config
	Batcher batcher.Config
}

func DefaultConfig() Config {
	return Config{
		Log:     msglog.DefaultConfig(),
		Batcher: batcher.DefaultConfig(),
	}
}

func (c Config) Check() error {
	var result error
	if c.Log.MaxCalldataSize == 0 {
		result = errors.Join(result, errors.New("max calldata size must be positive"))
	}
	if err := c.Batcher.Check(); err != nil {
		result = errors.Join(result, err)
	}
	return result
}

// Messenger serializes every mutation of the ledger. Each mutating operation runs in one
// store transaction, and its events are emitted after the transaction committed,
// in commit order. Reads observe committed state only.
//
// Derivers of the emitter must not call mutating methods of the Messenger synchronously.
type Messenger struct {
	log     log.Logger
	metrics metrics.Metricer
	emitter event.Emitter
	store   state.Store

	// mu is held from the start of a transaction until its events are queued for emission.
	mu sync.Mutex
	// emitMu orders event emission by commit order.
	emitMu sync.Mutex

	msgs     *msglog.Log
	acc      *rollinghash.Accumulator
	builder  *batcher.Builder
	verifier *verifier.Verifier
	claims   *claim.Machine
}

func NewMessenger(logger log.Logger, cfg Config, store state.Store, emitter event.Emitter, m metrics.Metricer) (*Messenger, error) {
	if err := cfg.Check(); err != nil {
		return nil, fmt.Errorf("invalid messenger config: %w", err)
	}
	if emitter == nil {
		emitter = event.NoopEmitter{}
	}
	if m == nil {
		m = metrics.NoopMetrics{}
	}
	b, err := batcher.New(logger, cfg.Batcher)
	if err != nil {
		return nil, err
	}
	v := verifier.New(logger)
	return &Messenger{
		log:      logger,
		metrics:  m,
		emitter:  emitter,
		store:    store,
		msgs:     msglog.New(logger, cfg.Log),
		acc:      rollinghash.New(logger),
		builder:  b,
		verifier: v,
		claims:   claim.New(logger, v),
	}, nil
}

// update runs fn in a transaction and emits the events it returns once the transaction committed.
func (s *Messenger) update(ctx context.Context, fn func(tx state.Tx) ([]event.Event, error)) error {
	s.mu.Lock()
	var events []event.Event
	err := s.store.Update(func(tx state.Tx) error {
		evs, err := fn(tx)
		events = evs
		return err
	})
	if err != nil {
		s.mu.Unlock()
		return err
	}
	s.emitMu.Lock()
	s.mu.Unlock()
	defer s.emitMu.Unlock()
	for _, ev := range events {
		s.emitter.Emit(ctx, ev)
	}
	return nil
}

// Send appends a message to the source log of its direction, stamped with the pending source block.
// Messages of the rolling hash path are folded into the source rolling hash in the same transaction.
func (s *Messenger) Send(ctx context.Context, dir types.Direction, from, to common.Address, fee, value eth.ETH, calldata []byte) (*types.Message, error) {
	var out *types.Message
	err := s.update(ctx, func(tx state.Tx) ([]event.Event, error) {
		m, err := s.msgs.Append(tx, dir, from, to, fee, value, calldata)
		if err != nil {
			return nil, err
		}
		if dir.Scheme() == types.SchemeRollingHash {
			if _, err := s.acc.Fold(tx, m); err != nil {
				return nil, err
			}
		}
		out = m
		return []event.Event{types.MessageSentEvent{Message: *m}}, nil
	})
	if err != nil {
		s.log.Warn("Failed to send message", "direction", dir, "from", from, "to", to, "err", err)
		return nil, err
	}
	s.metrics.RecordMessageSent(dir)
	return out, nil
}

// Ingest mirrors a rolling hash path message on its destination. It returns the destination rolling hash.
func (s *Messenger) Ingest(ctx context.Context, m *types.Message) (common.Hash, error) {
	var (
		rolling  common.Hash
		ingested bool
	)
	err := s.update(ctx, func(tx state.Tx) ([]event.Event, error) {
		prev, err := state.ReadLastMirrored(tx, m.Direction)
		if err != nil {
			return nil, err
		}
		rolling, err = s.acc.Ingest(tx, m)
		if err != nil {
			return nil, err
		}
		if m.MessageNumber <= prev {
			return nil, nil
		}
		ingested = true
		return []event.Event{types.MessageIngestedEvent{
			Direction:     m.Direction,
			MessageNumber: m.MessageNumber,
			MessageHash:   m.Hash,
			RollingHash:   rolling,
		}}, nil
	})
	if err != nil {
		s.log.Warn("Failed to ingest message", "direction", m.Direction, "number", m.MessageNumber, "err", err)
		return common.Hash{}, err
	}
	if ingested {
		s.metrics.RecordMessageIngested(m.Direction)
	}
	return rolling, nil
}

// ReportAnchor submits the attested pair (n, rollingHash[n]) to the destination.
func (s *Messenger) ReportAnchor(ctx context.Context, dir types.Direction, n uint64, rolling common.Hash) (rollinghash.AnchorResult, error) {
	var res rollinghash.AnchorResult
	err := s.update(ctx, func(tx state.Tx) ([]event.Event, error) {
		var err error
		res, err = s.acc.ReportAnchor(tx, dir, n, rolling)
		if err != nil || !res.Advanced() {
			return nil, err
		}
		return []event.Event{types.AnchorUpdatedEvent{
			Direction:   dir,
			From:        res.Previous,
			To:          res.Anchored,
			RollingHash: rolling,
		}}, nil
	})
	if err != nil {
		s.log.Warn("Rejected anchor report", "direction", dir, "number", n, "rollingHash", rolling, "err", err)
		return rollinghash.AnchorResult{}, err
	}
	s.metrics.RecordAnchor(dir, res.Anchored)
	return res, nil
}

// AdvanceBlock seals the pending block of a layer, and the blocks-1 empty blocks after it.
// It returns the new head.
func (s *Messenger) AdvanceBlock(ctx context.Context, layer types.Layer, blocks uint64) (uint64, error) {
	if !layer.Valid() {
		return 0, fmt.Errorf("invalid layer %d", uint8(layer))
	}
	if blocks == 0 {
		return 0, errors.New("must advance at least one block")
	}
	var head uint64
	err := s.update(ctx, func(tx state.Tx) ([]event.Event, error) {
		prev, err := state.ReadHead(tx, layer)
		if err != nil {
			return nil, err
		}
		if prev+blocks < prev {
			return nil, fmt.Errorf("%s head overflows", layer)
		}
		head = prev + blocks
		return nil, state.WriteHead(tx, layer, head)
	})
	if err != nil {
		return 0, err
	}
	s.log.Debug("Advanced head", "layer", layer, "head", head)
	return head, nil
}

// Finalize commits the Merkle path messages of the source blocks up to toBlock.
func (s *Messenger) Finalize(ctx context.Context, dir types.Direction, toBlock uint64) ([]types.MerkleCommitment, error) {
	var out []types.MerkleCommitment
	err := s.update(ctx, func(tx state.Tx) ([]event.Event, error) {
		var err error
		out, err = s.builder.Finalize(tx, dir, toBlock)
		if err != nil {
			return nil, err
		}
		events := make([]event.Event, 0, len(out))
		for _, c := range out {
			events = append(events, types.BatchCommittedEvent{Direction: dir, Commitment: c})
		}
		return events, nil
	})
	if err != nil {
		s.log.Warn("Failed to finalize blocks", "direction", dir, "toBlock", toBlock, "err", err)
		return nil, err
	}
	for _, c := range out {
		s.metrics.RecordBatchCommitted(dir, c.LeafCount)
	}
	return out, nil
}

// Claim executes a sent message on its destination. The claim and all of its effects
// are committed together or not at all.
func (s *Messenger) Claim(ctx context.Context, m *types.Message, ev types.Evidence, executor, feeRecipient common.Address) (*types.ClaimRecord, error) {
	var (
		sent *types.Message
		rec  *types.ClaimRecord
	)
	err := s.update(ctx, func(tx state.Tx) ([]event.Event, error) {
		var err error
		sent, rec, err = s.claims.Claim(tx, m, ev, executor, feeRecipient)
		if err != nil {
			return nil, err
		}
		return []event.Event{types.MessageClaimedEvent{
			Direction:    sent.Direction,
			MessageHash:  sent.Hash,
			ClaimedBy:    rec.ClaimedBy,
			FeeRecipient: rec.FeeRecipient,
			Fee:          sent.Fee,
			Value:        sent.Value,
			ExecutedAt:   rec.ExecutedAt,
		}}, nil
	})
	if err != nil {
		s.metrics.RecordClaim(m.Direction, m.Value, err)
		return nil, err
	}
	s.metrics.RecordClaim(sent.Direction, sent.Value, nil)
	return rec, nil
}

// RegisterCallHandler sets the handler invoked with the calldata of messages claimed for addr.
// A nil handler removes it.
func (s *Messenger) RegisterCallHandler(addr common.Address, h claim.CallHandler) {
	s.claims.RegisterCallHandler(addr, h)
}

// Verify checks claim evidence for a sent message without claiming it.
func (s *Messenger) Verify(m *types.Message, ev types.Evidence) error {
	if !m.Direction.Valid() {
		return fmt.Errorf("%w: %w: %d", types.ErrInvalidPayload, types.ErrInvalidDirection, uint8(m.Direction))
	}
	hash, err := m.ComputeHash()
	if err != nil {
		return fmt.Errorf("%w: %w", types.ErrInvalidPayload, err)
	}
	sent, err := s.msgs.ByHash(s.store, m.Direction, hash)
	if err != nil {
		return err
	}
	if err := s.verifier.Verify(s.store, sent, ev); err != nil {
		return fmt.Errorf("%w: %w", types.ErrProofRejected, err)
	}
	return nil
}

// ProofFor returns the inclusion proof of a committed Merkle path message.
func (s *Messenger) ProofFor(hash common.Hash) (*types.MerkleProof, *types.MerkleCommitment, error) {
	return s.builder.ProofFor(s.store, hash)
}

// MessageStatus returns the lifecycle status of a message of the direction. An unknown hash is StatusUnknown.
func (s *Messenger) MessageStatus(dir types.Direction, hash common.Hash) (types.MessageStatus, error) {
	if !dir.Valid() {
		return types.StatusUnknown, fmt.Errorf("%w: %d", types.ErrInvalidDirection, uint8(dir))
	}
	m, err := state.ReadMessageByHash(s.store, dir, hash)
	if errors.Is(err, types.ErrNotFound) {
		return types.StatusUnknown, nil
	} else if err != nil {
		return types.StatusUnknown, err
	}
	rec, err := s.claims.Status(s.store, dir, hash)
	if err != nil {
		return types.StatusUnknown, err
	}
	if rec.Status == types.Claimed {
		return types.StatusClaimed, nil
	}
	switch m.Direction.Scheme() {
	case types.SchemeRollingHash:
		st, err := s.acc.AnchorStatus(s.store, m.Direction, m.MessageNumber)
		if err != nil {
			return types.StatusUnknown, err
		}
		if st == types.Anchored {
			return types.StatusAnchored, nil
		}
	case types.SchemeMerkle:
		committed, err := s.builder.IsCommitted(s.store, hash)
		if err != nil {
			return types.StatusUnknown, err
		}
		if committed {
			return types.StatusCommitted, nil
		}
	}
	return types.StatusSent, nil
}

func (s *Messenger) Message(dir types.Direction, hash common.Hash) (*types.Message, error) {
	return s.msgs.ByHash(s.store, dir, hash)
}

func (s *Messenger) Messages(dir types.Direction, from, to uint64) ([]*types.Message, error) {
	return s.msgs.Range(s.store, dir, from, to)
}

func (s *Messenger) LastMessageNumber(dir types.Direction) (uint64, error) {
	return s.msgs.Last(s.store, dir)
}

// ClaimRecord returns the claim state of a message of the direction.
func (s *Messenger) ClaimRecord(dir types.Direction, hash common.Hash) (types.ClaimRecord, error) {
	return s.claims.Status(s.store, dir, hash)
}

// RollingHash returns the source rolling hash after message n.
func (s *Messenger) RollingHash(dir types.Direction, n uint64) (common.Hash, error) {
	return s.acc.RollingHash(s.store, dir, n)
}

func (s *Messenger) LastAnchored(dir types.Direction) (uint64, error) {
	return s.acc.LastAnchored(s.store, dir)
}

func (s *Messenger) LastFinalized(dir types.Direction) (uint64, error) {
	return s.builder.LastFinalized(s.store, dir)
}

func (s *Messenger) Commitment(root common.Hash) (*types.MerkleCommitment, error) {
	return s.builder.Commitment(s.store, root)
}

func (s *Messenger) Commitments() ([]types.MerkleCommitment, error) {
	return s.builder.Commitments(s.store)
}

func (s *Messenger) Balance(layer types.Layer, addr common.Address) (eth.ETH, error) {
	return state.ReadBalance(s.store, layer, addr)
}

func (s *Messenger) Head(layer types.Layer) (uint64, error) {
	return state.ReadHead(s.store, layer)
}

// Audit replays the persisted rolling hash path log and checks it against stored state.
func (s *Messenger) Audit(dir types.Direction) error {
	return s.acc.Audit(s.store, dir)
}
