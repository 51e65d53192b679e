// Package rollinghash implements the anchoring path of L1-to-L2 messages:
// the source folds every message hash into a rolling hash, the destination mirrors
// the messages, and accepts anchor reports it can recompute from its mirror.
package rollinghash

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"

	"github.com/mantlenetworkio/mantle-messaging/op-messenger/messaging/state"
	"github.com/mantlenetworkio/mantle-messaging/op-messenger/messaging/types"
)

type Accumulator struct {
	log log.Logger
}

func New(logger log.Logger) *Accumulator {
	return &Accumulator{log: logger}
}

func checkScheme(dir types.Direction) error {
	if !dir.Valid() {
		return fmt.Errorf("%w: %d", types.ErrInvalidDirection, uint8(dir))
	}
	if dir.Scheme() != types.SchemeRollingHash {
		return fmt.Errorf("%w: %s messages are not anchored by rolling hash", types.ErrSchemeMismatch, dir)
	}
	return nil
}

// Fold computes and persists the source rolling hash of a freshly appended message.
func (a *Accumulator) Fold(tx state.Tx, m *types.Message) (common.Hash, error) {
	if err := checkScheme(m.Direction); err != nil {
		return common.Hash{}, err
	}
	if m.MessageNumber == 0 {
		return common.Hash{}, fmt.Errorf("%w: message number 0", types.ErrInvalidPayload)
	}
	prev, err := state.ReadRollingHash(tx, m.Direction, m.MessageNumber-1)
	if errors.Is(err, types.ErrNotFound) {
		return common.Hash{}, fmt.Errorf("%w: no rolling hash for message %d", types.ErrDataCorruption, m.MessageNumber-1)
	} else if err != nil {
		return common.Hash{}, err
	}
	next := types.NextRollingHash(prev, m.Hash)
	if err := state.WriteRollingHash(tx, m.Direction, m.MessageNumber, next); err != nil {
		return common.Hash{}, fmt.Errorf("failed to write rolling hash: %w", err)
	}
	a.log.Debug("Folded rolling hash", "direction", m.Direction, "number", m.MessageNumber, "rollingHash", next)
	return next, nil
}

// RollingHash returns the source rolling hash after message n. Message 0 is the genesis value.
func (a *Accumulator) RollingHash(r state.Reader, dir types.Direction, n uint64) (common.Hash, error) {
	if err := checkScheme(dir); err != nil {
		return common.Hash{}, err
	}
	h, err := state.ReadRollingHash(r, dir, n)
	if errors.Is(err, types.ErrNotFound) {
		return common.Hash{}, fmt.Errorf("%w: %s message %d", types.ErrUnknownMessage, dir, n)
	}
	return h, err
}

// Ingest mirrors a sent message on the destination side, and folds it into the destination rolling hash.
// Messages must be ingested in order. Ingesting an already ingested message again is a no-op.
func (a *Accumulator) Ingest(tx state.Tx, m *types.Message) (common.Hash, error) {
	if err := checkScheme(m.Direction); err != nil {
		return common.Hash{}, err
	}
	if err := m.CheckHash(); err != nil {
		return common.Hash{}, fmt.Errorf("%w: %w", types.ErrInvalidPayload, err)
	}
	last, err := state.ReadLastMirrored(tx, m.Direction)
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to read last ingested message: %w", err)
	}
	if m.MessageNumber != 0 && m.MessageNumber <= last {
		existing, err := state.ReadMirroredMessage(tx, m.Direction, m.MessageNumber)
		if err != nil {
			return common.Hash{}, fmt.Errorf("failed to read ingested message %d: %w", m.MessageNumber, err)
		}
		if existing != m.Hash {
			return common.Hash{}, fmt.Errorf("%w: %w: message %d was ingested as %s, got %s",
				types.ErrInvalidPayload, types.ErrHashMismatch, m.MessageNumber, existing, m.Hash)
		}
		return state.ReadMirroredRollingHash(tx, m.Direction, m.MessageNumber)
	}
	if m.MessageNumber != last+1 {
		return common.Hash{}, fmt.Errorf("%w: %w: expected message %d, got %d",
			types.ErrInvalidPayload, types.ErrOutOfOrder, last+1, m.MessageNumber)
	}
	prev, err := state.ReadMirroredRollingHash(tx, m.Direction, last)
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to read ingested rolling hash %d: %w", last, err)
	}
	next := types.NextRollingHash(prev, m.Hash)
	if err := state.WriteMirroredMessage(tx, m.Direction, m.MessageNumber, m.Hash, next); err != nil {
		return common.Hash{}, fmt.Errorf("failed to write ingested message: %w", err)
	}
	if err := state.WriteLastMirrored(tx, m.Direction, m.MessageNumber); err != nil {
		return common.Hash{}, fmt.Errorf("failed to advance ingested message number: %w", err)
	}
	a.log.Debug("Ingested message", "direction", m.Direction, "number", m.MessageNumber, "rollingHash", next)
	return next, nil
}

// AnchorResult describes the outcome of an accepted anchor report.
type AnchorResult struct {
	// Previous is the anchored message number before the report.
	Previous uint64
	// Anchored is the anchored message number after the report.
	Anchored uint64
}

// Advanced reports whether the anchored prefix grew.
func (r AnchorResult) Advanced() bool {
	return r.Anchored > r.Previous
}

// ReportAnchor accepts the attested pair (n, rollingHash[n]) if the destination can recompute it
// from the messages it ingested. On success every message number up to n is anchored.
// Reporting the current anchor again is a no-op.
func (a *Accumulator) ReportAnchor(tx state.Tx, dir types.Direction, n uint64, rolling common.Hash) (AnchorResult, error) {
	if err := checkScheme(dir); err != nil {
		return AnchorResult{}, err
	}
	last, err := state.ReadLastAnchored(tx, dir)
	if err != nil {
		return AnchorResult{}, fmt.Errorf("failed to read last anchored message: %w", err)
	}
	if n < last || n == 0 {
		return AnchorResult{}, fmt.Errorf("%w: reported %d, already anchored up to %d", types.ErrNonContiguousAnchor, n, last)
	}
	ingested, err := state.ReadLastMirrored(tx, dir)
	if err != nil {
		return AnchorResult{}, fmt.Errorf("failed to read last ingested message: %w", err)
	}
	if n > ingested {
		return AnchorResult{}, fmt.Errorf("%w: reported %d, only %d messages ingested", types.ErrUnverifiableAnchor, n, ingested)
	}
	local, err := state.ReadMirroredRollingHash(tx, dir, n)
	if err != nil {
		return AnchorResult{}, fmt.Errorf("failed to read ingested rolling hash %d: %w", n, err)
	}
	if local != rolling {
		return AnchorResult{}, fmt.Errorf("%w: rolling hash %d is %s locally, reported %s", types.ErrUnverifiableAnchor, n, local, rolling)
	}
	if n == last {
		return AnchorResult{Previous: last, Anchored: last}, nil
	}
	if err := state.WriteLastAnchored(tx, dir, n); err != nil {
		return AnchorResult{}, fmt.Errorf("failed to advance anchor: %w", err)
	}
	a.log.Info("Anchored messages", "direction", dir, "from", last+1, "to", n, "rollingHash", rolling)
	return AnchorResult{Previous: last, Anchored: n}, nil
}

func (a *Accumulator) LastAnchored(r state.Reader, dir types.Direction) (uint64, error) {
	if err := checkScheme(dir); err != nil {
		return 0, err
	}
	return state.ReadLastAnchored(r, dir)
}

func (a *Accumulator) AnchorStatus(r state.Reader, dir types.Direction, n uint64) (types.AnchorStatus, error) {
	if err := checkScheme(dir); err != nil {
		return types.NotAnchored, err
	}
	return state.ReadAnchorStatus(r, dir, n)
}
