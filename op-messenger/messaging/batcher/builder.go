// Package batcher commits L2-to-L1 messages of finalized L2 block ranges into Merkle trees,
// and serves inclusion proofs for committed messages.
package batcher

import (
	"errors"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"

	"github.com/mantlenetworkio/mantle-messaging/op-messenger/messaging/merkle"
	"github.com/mantlenetworkio/mantle-messaging/op-messenger/messaging/state"
	"github.com/mantlenetworkio/mantle-messaging/op-messenger/messaging/types"
)

const (
	DefaultMaxLeavesPerTree = 1024
	DefaultTreeCacheSize    = 128
)

type Config struct {
	// MaxLeavesPerTree splits the messages of a finalized range into consecutive trees.
	MaxLeavesPerTree uint64
	// TreeCacheSize is the number of rebuilt trees kept for serving proofs.
	TreeCacheSize int
}

func DefaultConfig() Config {
	return Config{MaxLeavesPerTree: DefaultMaxLeavesPerTree, TreeCacheSize: DefaultTreeCacheSize}
}

func (c Config) Check() error {
	if c.MaxLeavesPerTree == 0 {
		return errors.New("max leaves per tree must be positive")
	}
	if c.MaxLeavesPerTree > 1<<merkle.MaxDepth {
		return fmt.Errorf("max leaves per tree %d exceeds the supported tree size", c.MaxLeavesPerTree)
	}
	if c.TreeCacheSize <= 0 {
		return errors.New("tree cache size must be positive")
	}
	return nil
}

type Builder struct {
	log log.Logger
	cfg Config

	// trees caches committed trees by tree index. Only trees read back from committed state are cached.
	trees *lru.Cache[uint64, *merkle.Tree]
}

func New(logger log.Logger, cfg Config) (*Builder, error) {
	if err := cfg.Check(); err != nil {
		return nil, err
	}
	trees, err := lru.New[uint64, *merkle.Tree](cfg.TreeCacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create tree cache: %w", err)
	}
	return &Builder{log: logger, cfg: cfg, trees: trees}, nil
}

func checkScheme(dir types.Direction) error {
	if !dir.Valid() {
		return fmt.Errorf("%w: %d", types.ErrInvalidDirection, uint8(dir))
	}
	if dir.Scheme() != types.SchemeMerkle {
		return fmt.Errorf("%w: %s messages are not committed in merkle trees", types.ErrSchemeMismatch, dir)
	}
	return nil
}

// Finalize closes the source block range (lastFinalized, toBlock] and commits every message sent in it.
// toBlock must not be past the sealed source head. The messages are split into consecutive trees of at
// most MaxLeavesPerTree leaves, every one recorded with the full finalized range.
// A range without messages only advances the finalized block.
func (b *Builder) Finalize(tx state.Tx, dir types.Direction, toBlock uint64) ([]types.MerkleCommitment, error) {
	if err := checkScheme(dir); err != nil {
		return nil, err
	}
	lastFinalized, err := state.ReadLastFinalized(tx, dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read last finalized block: %w", err)
	}
	head, err := state.ReadHead(tx, dir.Source())
	if err != nil {
		return nil, fmt.Errorf("failed to read %s head: %w", dir.Source(), err)
	}
	if toBlock <= lastFinalized {
		return nil, fmt.Errorf("%w: block %d already finalized, last finalized %d", types.ErrInvalidRange, toBlock, lastFinalized)
	}
	if toBlock > head {
		return nil, fmt.Errorf("%w: block %d is past the %s head %d", types.ErrInvalidRange, toBlock, dir.Source(), head)
	}
	blockRange := types.BlockRange{From: lastFinalized + 1, To: toBlock}

	committed, err := state.ReadLastCommittedNumber(tx, dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read last committed message: %w", err)
	}
	last, err := state.ReadLastNumber(tx, dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read last message number: %w", err)
	}
	var leaves []common.Hash
	num := committed + 1
	for ; num <= last; num++ {
		m, err := state.ReadMessage(tx, dir, num)
		if err != nil {
			return nil, fmt.Errorf("failed to read message %d: %w", num, err)
		}
		if m.BlockNumber > toBlock {
			break
		}
		if m.BlockNumber < blockRange.From {
			return nil, fmt.Errorf("%w: message %d of block %d was left out of an earlier range", types.ErrDataCorruption, num, m.BlockNumber)
		}
		leaves = append(leaves, m.Hash)
	}

	treeCount, err := state.ReadTreeCount(tx)
	if err != nil {
		return nil, fmt.Errorf("failed to read tree count: %w", err)
	}
	var out []types.MerkleCommitment
	for start := uint64(0); start < uint64(len(leaves)); start += b.cfg.MaxLeavesPerTree {
		end := min(start+b.cfg.MaxLeavesPerTree, uint64(len(leaves)))
		chunk := leaves[start:end]
		tree, err := merkle.NewTree(chunk)
		if err != nil {
			return nil, fmt.Errorf("failed to build tree: %w", err)
		}
		if _, err := state.ReadCommitmentByRoot(tx, tree.Root()); err == nil {
			return nil, fmt.Errorf("%w: root %s already published", types.ErrDataCorruption, tree.Root())
		} else if !errors.Is(err, types.ErrNotFound) {
			return nil, err
		}
		c := types.MerkleCommitment{
			Root:      tree.Root(),
			Range:     blockRange,
			LeafCount: tree.LeafCount(),
			Depth:     tree.Depth(),
			TreeIndex: treeCount,
		}
		if err := state.WriteCommitment(tx, &c, chunk); err != nil {
			return nil, fmt.Errorf("failed to write commitment: %w", err)
		}
		treeCount++
		out = append(out, c)
	}
	if err := state.WriteTreeCount(tx, treeCount); err != nil {
		return nil, err
	}
	if err := state.WriteLastCommittedNumber(tx, dir, committed+uint64(len(leaves))); err != nil {
		return nil, err
	}
	if err := state.WriteLastFinalized(tx, dir, toBlock); err != nil {
		return nil, err
	}
	b.log.Info("Finalized block range", "direction", dir, "range", blockRange, "messages", len(leaves), "trees", len(out))
	return out, nil
}

// ProofFor returns the inclusion proof of a committed message, with the commitment it proves against.
// The hash is looked up in the merkle-committed directions only. It must be used with committed state only.
func (b *Builder) ProofFor(r state.Reader, hash common.Hash) (*types.MerkleProof, *types.MerkleCommitment, error) {
	treeIndex, leafIndex, err := state.ReadLeafPosition(r, hash)
	if errors.Is(err, types.ErrNotFound) {
		for _, dir := range types.Directions {
			if dir.Scheme() != types.SchemeMerkle {
				continue
			}
			m, err := state.ReadMessageByHash(r, dir, hash)
			if errors.Is(err, types.ErrNotFound) {
				continue
			} else if err != nil {
				return nil, nil, err
			}
			return nil, nil, fmt.Errorf("%w: %s message %d of block %d", types.ErrNotYetCommitted, dir, m.MessageNumber, m.BlockNumber)
		}
		return nil, nil, fmt.Errorf("%w: no merkle-committed message %s", types.ErrUnknownMessage, hash)
	} else if err != nil {
		return nil, nil, err
	}
	c, err := state.ReadCommitment(r, treeIndex)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read commitment %d: %w", treeIndex, err)
	}
	tree, err := b.tree(r, c)
	if err != nil {
		return nil, nil, err
	}
	path, err := tree.Prove(leafIndex)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", types.ErrDataCorruption, err)
	}
	return &types.MerkleProof{LeafIndex: leafIndex, SiblingPath: path, Root: c.Root}, c, nil
}

func (b *Builder) tree(r state.Reader, c *types.MerkleCommitment) (*merkle.Tree, error) {
	if tree, ok := b.trees.Get(c.TreeIndex); ok && tree.Root() == c.Root {
		return tree, nil
	}
	leaves, err := state.ReadTreeLeaves(r, c.TreeIndex)
	if err != nil {
		return nil, fmt.Errorf("failed to read leaves of tree %d: %w", c.TreeIndex, err)
	}
	tree, err := merkle.NewTree(leaves)
	if err != nil {
		return nil, fmt.Errorf("%w: tree %d: %w", types.ErrDataCorruption, c.TreeIndex, err)
	}
	if tree.Root() != c.Root {
		return nil, fmt.Errorf("%w: tree %d rebuilds to %s, published %s", types.ErrDataCorruption, c.TreeIndex, tree.Root(), c.Root)
	}
	b.trees.Add(c.TreeIndex, tree)
	return tree, nil
}

// Commitment returns a published commitment by root.
func (b *Builder) Commitment(r state.Reader, root common.Hash) (*types.MerkleCommitment, error) {
	c, err := state.ReadCommitmentByRoot(r, root)
	if errors.Is(err, types.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", types.ErrUnknownRoot, root)
	}
	return c, err
}

// Commitments returns every published commitment, in publication order.
func (b *Builder) Commitments(r state.Reader) ([]types.MerkleCommitment, error) {
	count, err := state.ReadTreeCount(r)
	if err != nil {
		return nil, err
	}
	out := make([]types.MerkleCommitment, 0, count)
	for i := uint64(0); i < count; i++ {
		c, err := state.ReadCommitment(r, i)
		if err != nil {
			return nil, fmt.Errorf("failed to read commitment %d: %w", i, err)
		}
		out = append(out, *c)
	}
	return out, nil
}

func (b *Builder) LastFinalized(r state.Reader, dir types.Direction) (uint64, error) {
	if err := checkScheme(dir); err != nil {
		return 0, err
	}
	return state.ReadLastFinalized(r, dir)
}

// IsCommitted reports whether a message hash was committed in a published tree.
func (b *Builder) IsCommitted(r state.Reader, hash common.Hash) (bool, error) {
	_, _, err := state.ReadLeafPosition(r, hash)
	if errors.Is(err, types.ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}
