package types

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// BlockRange is an inclusive range of source block numbers.
type BlockRange struct {
	From uint64 `json:"from"`
	To   uint64 `json:"to"`
}

func (r BlockRange) Contains(n uint64) bool {
	return r.From <= n && n <= r.To
}

func (r BlockRange) String() string {
	return fmt.Sprintf("[%d, %d]", r.From, r.To)
}

// MerkleCommitment is a published Merkle root over the messages of a finalized block range.
// A block range with more messages than fit one tree is split into several consecutive commitments.
type MerkleCommitment struct {
	Root      common.Hash `json:"root"`
	Range     BlockRange  `json:"blockRange"`
	LeafCount uint64      `json:"leafCount"`
	Depth     uint8       `json:"depth"`
	// TreeIndex is the global sequence number of the tree, starting at 0.
	TreeIndex uint64 `json:"treeIndex"`
}

// MerkleProof is the inclusion evidence for path B claims.
type MerkleProof struct {
	LeafIndex   uint64        `json:"leafIndex"`
	SiblingPath []common.Hash `json:"siblingPath"`
	Root        common.Hash   `json:"root"`
}

// AnchorProof is the evidence for path A claims. It carries no cryptographic payload:
// acceptance is decided by the destination anchor status.
type AnchorProof struct {
	AnchoredMessageNumber uint64 `json:"anchoredMessageNumber"`
}

// Evidence is the tagged union of commitment-scheme evidence presented with a claim.
// Exactly one of Anchor and Merkle is set, matching Scheme.
type Evidence struct {
	Scheme Scheme       `json:"scheme"`
	Anchor *AnchorProof `json:"anchor,omitempty"`
	Merkle *MerkleProof `json:"merkle,omitempty"`
}

func RollingHashEvidence(anchoredMessageNumber uint64) Evidence {
	return Evidence{Scheme: SchemeRollingHash, Anchor: &AnchorProof{AnchoredMessageNumber: anchoredMessageNumber}}
}

func MerkleEvidence(proof MerkleProof) Evidence {
	return Evidence{Scheme: SchemeMerkle, Merkle: &proof}
}
