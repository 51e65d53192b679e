// Package verifier decides whether claim evidence is accepted, for both commitment schemes.
// Verification only reads persisted commitment state, and is safe for concurrent use.
package verifier

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/log"

	"github.com/mantlenetworkio/mantle-messaging/op-messenger/messaging/merkle"
	"github.com/mantlenetworkio/mantle-messaging/op-messenger/messaging/state"
	"github.com/mantlenetworkio/mantle-messaging/op-messenger/messaging/types"
)

type Verifier struct {
	log log.Logger
}

func New(logger log.Logger) *Verifier {
	return &Verifier{log: logger}
}

// Verify checks the evidence of a claim for message m, dispatching on the scheme of the message direction.
// The returned error is the rejection reason.
func (v *Verifier) Verify(r state.Reader, m *types.Message, ev types.Evidence) error {
	if !m.Direction.Valid() {
		return fmt.Errorf("%w: %d", types.ErrInvalidDirection, uint8(m.Direction))
	}
	if expected := m.Direction.Scheme(); ev.Scheme != expected {
		return fmt.Errorf("%w: %s message with %s evidence", types.ErrSchemeMismatch, m.Direction, ev.Scheme)
	}
	var err error
	switch ev.Scheme {
	case types.SchemeRollingHash:
		err = v.verifyAnchored(r, m, ev.Anchor)
	case types.SchemeMerkle:
		err = v.verifyMerkle(r, m, ev.Merkle)
	}
	if err != nil {
		v.log.Debug("Rejected claim evidence", "message", m.ID(), "scheme", ev.Scheme, "err", err)
	}
	return err
}

// verifyAnchored accepts a message within the anchored prefix of its direction,
// if the destination mirrored exactly this message under its number.
// An anchor proof is optional; when present it must cover the message and not exceed the anchor.
func (v *Verifier) verifyAnchored(r state.Reader, m *types.Message, proof *types.AnchorProof) error {
	last, err := state.ReadLastAnchored(r, m.Direction)
	if err != nil {
		return fmt.Errorf("failed to read last anchored message: %w", err)
	}
	if m.MessageNumber == 0 || m.MessageNumber > last {
		return fmt.Errorf("%w: message %d, anchored up to %d", types.ErrNotAnchored, m.MessageNumber, last)
	}
	if proof != nil {
		if proof.AnchoredMessageNumber > last {
			return fmt.Errorf("%w: evidence refers to anchor %d, anchored up to %d", types.ErrNotAnchored, proof.AnchoredMessageNumber, last)
		}
		if proof.AnchoredMessageNumber < m.MessageNumber {
			return fmt.Errorf("%w: anchor %d does not cover message %d", types.ErrProofMismatch, proof.AnchoredMessageNumber, m.MessageNumber)
		}
	}
	mirrored, err := state.ReadMirroredMessage(r, m.Direction, m.MessageNumber)
	if errors.Is(err, types.ErrNotFound) {
		return fmt.Errorf("%w: anchored message %d was never ingested", types.ErrDataCorruption, m.MessageNumber)
	} else if err != nil {
		return err
	}
	if mirrored != m.Hash {
		return fmt.Errorf("%w: anchored message %d is %s, claimed %s", types.ErrProofMismatch, m.MessageNumber, mirrored, m.Hash)
	}
	return nil
}

func (v *Verifier) verifyMerkle(r state.Reader, m *types.Message, proof *types.MerkleProof) error {
	if proof == nil {
		return fmt.Errorf("%w: missing merkle proof", types.ErrProofMismatch)
	}
	c, err := state.ReadCommitmentByRoot(r, proof.Root)
	if errors.Is(err, types.ErrNotFound) {
		return fmt.Errorf("%w: %s", types.ErrUnknownRoot, proof.Root)
	} else if err != nil {
		return err
	}
	if err := CheckMerkleProof(c, m, proof); err != nil {
		return err
	}
	return nil
}

// CheckMerkleProof checks a proof of message m against a published commitment.
func CheckMerkleProof(c *types.MerkleCommitment, m *types.Message, proof *types.MerkleProof) error {
	if proof.Root != c.Root {
		return fmt.Errorf("%w: proof for root %s checked against %s", types.ErrProofMismatch, proof.Root, c.Root)
	}
	if proof.LeafIndex >= c.LeafCount {
		return fmt.Errorf("%w: leaf index %d, tree has %d leaves", types.ErrProofMismatch, proof.LeafIndex, c.LeafCount)
	}
	if len(proof.SiblingPath) != int(c.Depth) {
		return fmt.Errorf("%w: sibling path of %d, tree depth %d", types.ErrProofMismatch, len(proof.SiblingPath), c.Depth)
	}
	if !merkle.Verify(m.Hash, proof.LeafIndex, proof.SiblingPath, c.Root) {
		got := merkle.ComputeRoot(m.Hash, proof.LeafIndex, proof.SiblingPath)
		return fmt.Errorf("%w: proof of %s computes root %s, expected %s", types.ErrProofMismatch, m.Hash, got, c.Root)
	}
	if !c.Range.Contains(m.BlockNumber) {
		return fmt.Errorf("%w: message of block %d, commitment covers %s", types.ErrProofMismatch, m.BlockNumber, c.Range)
	}
	return nil
}
