// Package claim executes sent messages on their destination layer, at most once per message.
package claim

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"

	"github.com/mantlenetworkio/mantle-messaging/op-messenger/messaging/state"
	"github.com/mantlenetworkio/mantle-messaging/op-messenger/messaging/types"
	"github.com/mantlenetworkio/mantle-messaging/op-service/locks"
)

// CallHandler executes the calldata of a claimed message on the account it is sent to.
// It runs inside the claim transaction: an error reverts the whole claim.
type CallHandler interface {
	HandleCall(tx state.Tx, m *types.Message) error
}

type CallHandlerFunc func(tx state.Tx, m *types.Message) error

func (fn CallHandlerFunc) HandleCall(tx state.Tx, m *types.Message) error {
	return fn(tx, m)
}

// Verifier decides whether claim evidence is accepted.
type Verifier interface {
	Verify(r state.Reader, m *types.Message, ev types.Evidence) error
}

type Machine struct {
	log      log.Logger
	verifier Verifier

	handlers locks.RWMap[common.Address, CallHandler]
}

func New(logger log.Logger, v Verifier) *Machine {
	return &Machine{log: logger, verifier: v}
}

// RegisterCallHandler sets the handler of messages sent to addr, replacing any previous one.
// A nil handler removes it.
func (c *Machine) RegisterCallHandler(addr common.Address, h CallHandler) {
	if h == nil {
		c.handlers.Delete(addr)
		return
	}
	c.handlers.Set(addr, h)
}

// Claim marks message m as claimed by executor and applies its effect on the destination layer:
// the value is credited to the recipient, the recipient call handler runs, and the fee is paid
// to feeRecipient, or to the executor if that is the zero address.
// All of it happens in tx: any failure leaves tx to be discarded as a whole.
func (c *Machine) Claim(tx state.Tx, m *types.Message, ev types.Evidence, executor, feeRecipient common.Address) (*types.Message, *types.ClaimRecord, error) {
	if !m.Direction.Valid() {
		return nil, nil, fmt.Errorf("%w: %w: %d", types.ErrInvalidPayload, types.ErrInvalidDirection, uint8(m.Direction))
	}
	hash, err := m.ComputeHash()
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", types.ErrInvalidPayload, err)
	}
	if m.Hash != (common.Hash{}) && m.Hash != hash {
		return nil, nil, fmt.Errorf("%w: %w: message encodes to %s, claimed %s", types.ErrInvalidPayload, types.ErrHashMismatch, hash, m.Hash)
	}
	dir := m.Direction
	sent, err := state.ReadMessageByHash(tx, dir, hash)
	if errors.Is(err, types.ErrNotFound) {
		return nil, nil, fmt.Errorf("%w: %s %s", types.ErrUnknownMessage, dir, hash)
	} else if err != nil {
		return nil, nil, fmt.Errorf("failed to read message %s: %w", hash, err)
	}

	rec, err := state.ReadClaim(tx, dir, hash)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read claim of %s: %w", hash, err)
	}
	if rec.Status == types.Claimed {
		return nil, nil, fmt.Errorf("%w: %s by %s", types.ErrAlreadyClaimed, hash, rec.ClaimedBy)
	}

	if err := c.verifier.Verify(tx, sent, ev); err != nil {
		c.log.Warn("Rejected claim", "message", sent.ID(), "executor", executor, "err", err)
		return nil, nil, fmt.Errorf("%w: %w", types.ErrProofRejected, err)
	}

	dest := sent.Direction.Destination()
	now, err := state.ReadHead(tx, dest)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read %s head: %w", dest, err)
	}
	if feeRecipient == (common.Address{}) {
		feeRecipient = executor
	}
	rec = types.ClaimRecord{
		Status:       types.Claimed,
		ClaimedBy:    executor,
		FeeRecipient: feeRecipient,
		ExecutedAt:   now,
	}
	if err := state.WriteClaim(tx, dir, hash, rec); err != nil {
		return nil, nil, fmt.Errorf("failed to write claim of %s: %w", hash, err)
	}
	if err := state.CreditBalance(tx, dest, sent.To, sent.Value); err != nil {
		return nil, nil, fmt.Errorf("failed to transfer value: %w", err)
	}
	if h, ok := c.handlers.Get(sent.To); ok {
		if err := h.HandleCall(tx, sent); err != nil {
			c.log.Warn("Message call reverted", "message", sent.ID(), "to", sent.To, "err", err)
			return nil, nil, fmt.Errorf("message call to %s reverted: %w", sent.To, err)
		}
	}
	if err := state.CreditBalance(tx, dest, feeRecipient, sent.Fee); err != nil {
		return nil, nil, fmt.Errorf("failed to pay fee: %w", err)
	}
	c.log.Info("Claimed message", "message", sent.ID(), "executor", executor, "feeRecipient", feeRecipient, "block", now)
	return sent, &rec, nil
}

// Status returns the claim record of a message of the direction.
func (c *Machine) Status(r state.Reader, dir types.Direction, hash common.Hash) (types.ClaimRecord, error) {
	return state.ReadClaim(r, dir, hash)
}
