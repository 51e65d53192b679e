package state

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rlp"

	"github.com/mantlenetworkio/mantle-messaging/op-messenger/messaging/types"
)

type storedCommitment struct {
	Root      common.Hash
	From      uint64
	To        uint64
	LeafCount uint64
	Depth     uint8
	TreeIndex uint64
}

// ReadTreeCount returns the number of published Merkle trees.
func ReadTreeCount(r Reader) (uint64, error) {
	return readUint64(r, treeCountKey)
}

func WriteTreeCount(tx Tx, n uint64) error {
	return writeUint64(tx, treeCountKey, n)
}

// WriteCommitment publishes a Merkle commitment with its ordered leaves.
// It indexes the commitment by root, and every leaf by message hash.
func WriteCommitment(tx Tx, c *types.MerkleCommitment, leaves []common.Hash) error {
	if uint64(len(leaves)) != c.LeafCount {
		return fmt.Errorf("commitment %d has %d leaves, expected %d", c.TreeIndex, len(leaves), c.LeafCount)
	}
	data, err := rlp.EncodeToBytes(&storedCommitment{
		Root:      c.Root,
		From:      c.Range.From,
		To:        c.Range.To,
		LeafCount: c.LeafCount,
		Depth:     c.Depth,
		TreeIndex: c.TreeIndex,
	})
	if err != nil {
		return fmt.Errorf("failed to encode commitment: %w", err)
	}
	if err := tx.Put(treeKey(c.TreeIndex), data); err != nil {
		return err
	}
	joined := make([]byte, 0, len(leaves)*common.HashLength)
	for i, leaf := range leaves {
		joined = append(joined, leaf[:]...)
		pos := append(encodeNumber(c.TreeIndex), encodeNumber(uint64(i))...)
		if err := tx.Put(leafKey(leaf), pos); err != nil {
			return err
		}
	}
	if err := tx.Put(treeLeavesKey(c.TreeIndex), joined); err != nil {
		return err
	}
	return tx.Put(rootKey(c.Root), encodeNumber(c.TreeIndex))
}

// ReadCommitment retrieves a published commitment by tree index.
func ReadCommitment(r Reader, index uint64) (*types.MerkleCommitment, error) {
	data, err := r.Get(treeKey(index))
	if err != nil {
		return nil, err
	}
	var stored storedCommitment
	if err := rlp.DecodeBytes(data, &stored); err != nil {
		return nil, fmt.Errorf("%w: invalid commitment %d: %w", types.ErrDataCorruption, index, err)
	}
	return &types.MerkleCommitment{
		Root:      stored.Root,
		Range:     types.BlockRange{From: stored.From, To: stored.To},
		LeafCount: stored.LeafCount,
		Depth:     stored.Depth,
		TreeIndex: stored.TreeIndex,
	}, nil
}

// ReadCommitmentByRoot retrieves a published commitment by its root.
func ReadCommitmentByRoot(r Reader, root common.Hash) (*types.MerkleCommitment, error) {
	data, err := r.Get(rootKey(root))
	if err != nil {
		return nil, err
	}
	if len(data) != 8 {
		return nil, fmt.Errorf("%w: invalid root index for %s", types.ErrDataCorruption, root)
	}
	c, err := ReadCommitment(r, binary.BigEndian.Uint64(data))
	if errors.Is(err, types.ErrNotFound) {
		return nil, fmt.Errorf("%w: dangling root index for %s", types.ErrDataCorruption, root)
	}
	return c, err
}

// ReadTreeLeaves returns the ordered leaves of a published tree.
func ReadTreeLeaves(r Reader, index uint64) ([]common.Hash, error) {
	data, err := r.Get(treeLeavesKey(index))
	if err != nil {
		return nil, err
	}
	if len(data)%common.HashLength != 0 {
		return nil, fmt.Errorf("%w: tree %d leaves have %d bytes", types.ErrDataCorruption, index, len(data))
	}
	out := make([]common.Hash, 0, len(data)/common.HashLength)
	for i := 0; i < len(data); i += common.HashLength {
		out = append(out, common.BytesToHash(data[i:i+common.HashLength]))
	}
	return out, nil
}

// ReadLeafPosition returns the tree and leaf index a message hash was committed at.
func ReadLeafPosition(r Reader, hash common.Hash) (treeIndex uint64, leafIndex uint64, err error) {
	data, err := r.Get(leafKey(hash))
	if err != nil {
		return 0, 0, err
	}
	if len(data) != 16 {
		return 0, 0, fmt.Errorf("%w: invalid leaf position for %s", types.ErrDataCorruption, hash)
	}
	return binary.BigEndian.Uint64(data[:8]), binary.BigEndian.Uint64(data[8:]), nil
}

// ReadLastFinalized returns the last source block number whose messages are committed, 0 if none.
func ReadLastFinalized(r Reader, dir types.Direction) (uint64, error) {
	return readUint64(r, dirKey(lastFinalizedPrefix, dir))
}

func WriteLastFinalized(tx Tx, dir types.Direction, block uint64) error {
	return writeUint64(tx, dirKey(lastFinalizedPrefix, dir), block)
}

// ReadLastCommittedNumber returns the number of the last message included in a published tree.
func ReadLastCommittedNumber(r Reader, dir types.Direction) (uint64, error) {
	return readUint64(r, dirKey(lastCommittedNumPrefix, dir))
}

func WriteLastCommittedNumber(tx Tx, dir types.Direction, num uint64) error {
	return writeUint64(tx, dirKey(lastCommittedNumPrefix, dir), num)
}
