package types

import "errors"

var (
	// ErrInvalidPayload happens when a message cannot be accepted as sent, e.g. oversized calldata.
	ErrInvalidPayload = errors.New("invalid payload")
	// ErrNonContiguousAnchor happens when an anchor report is older than the current anchor.
	ErrNonContiguousAnchor = errors.New("non-contiguous anchor")
	// ErrUnverifiableAnchor happens when the reported rolling hash cannot be recomputed
	// from the messages the destination has ingested.
	ErrUnverifiableAnchor = errors.New("unverifiable anchor")
	// ErrNotYetCommitted happens when a proof is requested for a message whose batch is not finalized yet.
	ErrNotYetCommitted = errors.New("message not yet committed")
	// ErrUnknownMessage happens when no sent message matches the given hash.
	ErrUnknownMessage = errors.New("unknown message")
	// ErrUnknownRoot happens when a proof refers to a Merkle root that was never published.
	ErrUnknownRoot = errors.New("unknown merkle root")
	// ErrProofMismatch happens when a Merkle proof does not reproduce the root it claims.
	ErrProofMismatch = errors.New("proof mismatch")
	// ErrAlreadyClaimed happens when a message is claimed a second time.
	ErrAlreadyClaimed = errors.New("message already claimed")
	// ErrProofRejected wraps the verifier reason when a claim is refused.
	ErrProofRejected = errors.New("proof rejected")

	// ErrNotAnchored is the rolling-hash verifier reason for a message beyond the anchored prefix.
	ErrNotAnchored = errors.New("message not anchored")
	// ErrSchemeMismatch happens when claim evidence is of a different scheme than the message direction.
	ErrSchemeMismatch = errors.New("commitment scheme mismatch")
	// ErrOutOfOrder happens when a mirrored message does not directly follow the last ingested one.
	ErrOutOfOrder = errors.New("message out of order")
	// ErrHashMismatch happens when a message hash does not match its contents.
	ErrHashMismatch = errors.New("message hash mismatch")
	// ErrInvalidDirection happens on an unrecognized direction.
	ErrInvalidDirection = errors.New("invalid direction")
	// ErrInvalidRange happens when a finalization range is empty, stale or in the future.
	ErrInvalidRange = errors.New("invalid block range")
	// ErrDataCorruption happens when persisted state fails to decode or contradicts itself.
	ErrDataCorruption = errors.New("data corruption")
	// ErrNotFound is returned by the state accessor on a missing key.
	ErrNotFound = errors.New("not found")
)
