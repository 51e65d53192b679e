// Package merkle builds binary keccak256 Merkle trees over message hashes.
//
// Leaves are the message hashes. An inner node is keccak256(left ++ right).
// A layer with an odd number of nodes pairs its last node with itself.
// A tree with a single leaf has that leaf as root, and proofs with an empty sibling path.
package merkle

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// MaxDepth is the deepest tree supported, so leaf indices fit the proof bit pattern.
const MaxDepth = 63

var (
	ErrEmptyTree    = errors.New("merkle tree has no leaves")
	ErrLeafIndex    = errors.New("leaf index out of range")
	ErrTreeTooLarge = errors.New("merkle tree too large")
)

type Tree struct {
	// layers[0] are the leaves, the last layer holds only the root.
	layers [][]common.Hash
}

// HashPair returns the parent of two sibling nodes.
func HashPair(left, right common.Hash) common.Hash {
	return crypto.Keccak256Hash(left[:], right[:])
}

func NewTree(leaves []common.Hash) (*Tree, error) {
	if len(leaves) == 0 {
		return nil, ErrEmptyTree
	}
	if uint64(len(leaves)) > 1<<MaxDepth {
		return nil, fmt.Errorf("%w: %d leaves", ErrTreeTooLarge, len(leaves))
	}
	layer := make([]common.Hash, len(leaves))
	copy(layer, leaves)
	layers := [][]common.Hash{layer}
	for len(layer) > 1 {
		next := make([]common.Hash, 0, (len(layer)+1)/2)
		for i := 0; i < len(layer); i += 2 {
			left := layer[i]
			right := left
			if i+1 < len(layer) {
				right = layer[i+1]
			}
			next = append(next, HashPair(left, right))
		}
		layers = append(layers, next)
		layer = next
	}
	return &Tree{layers: layers}, nil
}

func (t *Tree) Root() common.Hash {
	return t.layers[len(t.layers)-1][0]
}

// Depth is the number of levels above the leaves, and the length of every proof.
func (t *Tree) Depth() uint8 {
	return uint8(len(t.layers) - 1)
}

func (t *Tree) LeafCount() uint64 {
	return uint64(len(t.layers[0]))
}

func (t *Tree) Leaf(index uint64) (common.Hash, error) {
	if index >= t.LeafCount() {
		return common.Hash{}, fmt.Errorf("%w: %d of %d", ErrLeafIndex, index, t.LeafCount())
	}
	return t.layers[0][index], nil
}

func (t *Tree) Leaves() []common.Hash {
	out := make([]common.Hash, len(t.layers[0]))
	copy(out, t.layers[0])
	return out
}

// Prove returns the sibling path of a leaf, bottom-up.
func (t *Tree) Prove(index uint64) ([]common.Hash, error) {
	if index >= t.LeafCount() {
		return nil, fmt.Errorf("%w: %d of %d", ErrLeafIndex, index, t.LeafCount())
	}
	path := make([]common.Hash, 0, t.Depth())
	idx := index
	for _, layer := range t.layers[:len(t.layers)-1] {
		sibling := idx ^ 1
		if sibling >= uint64(len(layer)) {
			// the odd last node was paired with itself
			sibling = idx
		}
		path = append(path, layer[sibling])
		idx >>= 1
	}
	return path, nil
}

// ComputeRoot walks up from a leaf. Bit i of index set means the node is the right child at level i.
func ComputeRoot(leaf common.Hash, index uint64, path []common.Hash) common.Hash {
	current := leaf
	idx := index
	for _, sibling := range path {
		if idx&1 == 0 {
			current = HashPair(current, sibling)
		} else {
			current = HashPair(sibling, current)
		}
		idx >>= 1
	}
	return current
}

// Verify checks an inclusion proof against a root.
// Index bits beyond the path length are rejected, so every (leaf, root) pair has at most one valid index per depth.
func Verify(leaf common.Hash, index uint64, path []common.Hash, root common.Hash) bool {
	if len(path) > MaxDepth || index>>uint(len(path)) != 0 {
		return false
	}
	return ComputeRoot(leaf, index, path) == root
}
