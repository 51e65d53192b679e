package rollinghash

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/mantlenetworkio/mantle-messaging/op-messenger/messaging/state"
	"github.com/mantlenetworkio/mantle-messaging/op-messenger/messaging/types"
)

type ReplayEntry struct {
	MessageNumber uint64      `json:"messageNumber"`
	MessageHash   common.Hash `json:"messageHash"`
	RollingHash   common.Hash `json:"rollingHash"`
}

// Replay recomputes the message hashes and rolling hashes of a message log dump.
// The messages must be numbered 1..n in order. A message that carries a hash
// must carry the hash of its contents; a zero hash is filled in.
// The entries computed before the first divergence are returned along with the error.
func Replay(msgs []*types.Message) ([]ReplayEntry, error) {
	out := make([]ReplayEntry, 0, len(msgs))
	rolling := types.GenesisRollingHash
	for i, m := range msgs {
		expected := uint64(i + 1)
		if m.MessageNumber != expected {
			return out, fmt.Errorf("%w: entry %d has message number %d, expected %d", types.ErrOutOfOrder, i, m.MessageNumber, expected)
		}
		h, err := m.ComputeHash()
		if err != nil {
			return out, fmt.Errorf("failed to hash message %d: %w", m.MessageNumber, err)
		}
		if m.Hash != (common.Hash{}) && m.Hash != h {
			return out, fmt.Errorf("%w: message %d claims %s, contents hash to %s", types.ErrHashMismatch, m.MessageNumber, m.Hash, h)
		}
		rolling = types.NextRollingHash(rolling, h)
		out = append(out, ReplayEntry{MessageNumber: m.MessageNumber, MessageHash: h, RollingHash: rolling})
	}
	return out, nil
}

// Audit replays the persisted source log of a direction and checks it against the stored rolling hashes,
// and against the destination mirror as far as it was ingested.
func (a *Accumulator) Audit(r state.Reader, dir types.Direction) error {
	if err := checkScheme(dir); err != nil {
		return err
	}
	last, err := state.ReadLastNumber(r, dir)
	if err != nil {
		return err
	}
	mirrored, err := state.ReadLastMirrored(r, dir)
	if err != nil {
		return err
	}
	if mirrored > last {
		return fmt.Errorf("%w: %d messages ingested, only %d sent", types.ErrDataCorruption, mirrored, last)
	}
	anchored, err := state.ReadLastAnchored(r, dir)
	if err != nil {
		return err
	}
	if anchored > mirrored {
		return fmt.Errorf("%w: anchored up to %d, only %d messages ingested", types.ErrDataCorruption, anchored, mirrored)
	}
	rolling := types.GenesisRollingHash
	for n := uint64(1); n <= last; n++ {
		m, err := state.ReadMessage(r, dir, n)
		if err != nil {
			return fmt.Errorf("failed to read message %d: %w", n, err)
		}
		if err := m.CheckHash(); err != nil {
			return fmt.Errorf("%w: %w", types.ErrDataCorruption, err)
		}
		rolling = types.NextRollingHash(rolling, m.Hash)
		stored, err := state.ReadRollingHash(r, dir, n)
		if err != nil {
			return fmt.Errorf("failed to read rolling hash %d: %w", n, err)
		}
		if stored != rolling {
			return fmt.Errorf("%w: rolling hash %d is stored as %s, replays to %s", types.ErrDataCorruption, n, stored, rolling)
		}
		if n > mirrored {
			continue
		}
		mirror, err := state.ReadMirroredRollingHash(r, dir, n)
		if err != nil {
			return fmt.Errorf("failed to read ingested rolling hash %d: %w", n, err)
		}
		if mirror != rolling {
			return fmt.Errorf("%w: ingested rolling hash %d is %s, source replays to %s", types.ErrDataCorruption, n, mirror, rolling)
		}
	}
	a.log.Info("Audited rolling hashes", "direction", dir, "messages", last, "ingested", mirrored, "anchored", anchored)
	return nil
}
