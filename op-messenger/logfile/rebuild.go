package logfile

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"

	"github.com/mantlenetworkio/mantle-messaging/op-messenger/messaging"
	"github.com/mantlenetworkio/mantle-messaging/op-messenger/messaging/state"
	"github.com/mantlenetworkio/mantle-messaging/op-messenger/messaging/types"
)

// Rebuild sends the messages of a dump through an in-memory messenger, in dump order,
// each in its recorded source block, and finalizes the Merkle path up to the last block.
// The messages of each direction must be numbered 1..n and their blocks must not decrease.
// A block number of zero puts the message in the pending block.
func Rebuild(ctx context.Context, logger log.Logger, cfg messaging.Config, f *File) (*messaging.Messenger, error) {
	m, err := messaging.NewMessenger(logger, cfg, state.NewMemoryStore(), nil, nil)
	if err != nil {
		return nil, err
	}
	for i := range f.Messages {
		e := &f.Messages[i]
		layer := e.Direction.Source()
		head, err := m.Head(layer)
		if err != nil {
			return nil, err
		}
		if e.BlockNumber != 0 {
			if e.BlockNumber <= head {
				return nil, fmt.Errorf("entry %d: block %d is before the pending %s block %d", i, e.BlockNumber, layer, head+1)
			}
			if gap := e.BlockNumber - 1 - head; gap > 0 {
				if _, err := m.AdvanceBlock(ctx, layer, gap); err != nil {
					return nil, err
				}
			}
		}
		sent, err := m.Send(ctx, e.Direction, e.From, e.To, e.Fee, e.Value, e.Calldata)
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		if e.MessageNumber != 0 && e.MessageNumber != sent.MessageNumber {
			return nil, fmt.Errorf("%w: entry %d has message number %d, rebuilt as %d", types.ErrOutOfOrder, i, e.MessageNumber, sent.MessageNumber)
		}
		if e.Hash != (common.Hash{}) && e.Hash != sent.Hash {
			return nil, fmt.Errorf("%w: entry %d claims %s, contents hash to %s", types.ErrHashMismatch, i, e.Hash, sent.Hash)
		}
	}

	last, err := m.LastMessageNumber(types.L2ToL1)
	if err != nil || last == 0 {
		return m, err
	}
	head, err := m.AdvanceBlock(ctx, types.L2ToL1.Source(), 1)
	if err != nil {
		return nil, err
	}
	if _, err := m.Finalize(ctx, types.L2ToL1, head); err != nil {
		return nil, err
	}
	return m, nil
}
