// Package msglog is the append-only per-direction log of sent messages.
package msglog

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"

	"github.com/mantlenetworkio/mantle-messaging/op-messenger/messaging/state"
	"github.com/mantlenetworkio/mantle-messaging/op-messenger/messaging/types"
	"github.com/mantlenetworkio/mantle-messaging/op-service/eth"
)

// DefaultMaxCalldataSize is the default limit on the calldata a destination accepts.
const DefaultMaxCalldataSize = 128 * 1024

type Config struct {
	// MaxCalldataSize is the largest accepted calldata, in bytes.
	MaxCalldataSize uint64
}

func DefaultConfig() Config {
	return Config{MaxCalldataSize: DefaultMaxCalldataSize}
}

type Log struct {
	log log.Logger
	cfg Config
}

func New(logger log.Logger, cfg Config) *Log {
	return &Log{log: logger, cfg: cfg}
}

// Append assigns the next message number of the direction, hashes and persists the message.
// The message is stamped with the pending block of the source layer, one past its sealed head.
// Zero fee and value are accepted, with or without calldata.
func (l *Log) Append(tx state.Tx, dir types.Direction, from, to common.Address, fee, value eth.ETH, calldata []byte) (*types.Message, error) {
	if !dir.Valid() {
		return nil, fmt.Errorf("%w: %d", types.ErrInvalidDirection, uint8(dir))
	}
	if uint64(len(calldata)) > l.cfg.MaxCalldataSize {
		return nil, fmt.Errorf("%w: calldata of %d bytes exceeds limit of %d", types.ErrInvalidPayload, len(calldata), l.cfg.MaxCalldataSize)
	}
	last, err := state.ReadLastNumber(tx, dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read last message number: %w", err)
	}
	num := last + 1
	hash, err := types.HashMessage(from, to, fee, value, num, calldata)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", types.ErrInvalidPayload, err)
	}
	// the hash covers the number, so it can only be taken if the counter fell behind the log
	if exists, err := state.HasMessage(tx, dir, hash); err != nil {
		return nil, err
	} else if exists {
		return nil, fmt.Errorf("%w: %s message %d already stored past last number %d", types.ErrDataCorruption, dir, num, last)
	}
	head, err := state.ReadHead(tx, dir.Source())
	if err != nil {
		return nil, fmt.Errorf("failed to read %s head: %w", dir.Source(), err)
	}
	block := head + 1
	m := &types.Message{
		Direction:     dir,
		From:          from,
		To:            to,
		Fee:           fee,
		Value:         value,
		MessageNumber: num,
		Hash:          hash,
		BlockNumber:   block,
	}
	if len(calldata) > 0 {
		m.Calldata = common.CopyBytes(calldata)
	}
	if err := state.WriteMessage(tx, m); err != nil {
		return nil, fmt.Errorf("failed to write message: %w", err)
	}
	if err := state.WriteLastNumber(tx, dir, num); err != nil {
		return nil, fmt.Errorf("failed to advance message number: %w", err)
	}
	l.log.Debug("Appended message", "direction", dir, "number", num, "hash", hash, "block", block)
	return m, nil
}

// Last returns the number of the last message appended in the direction.
func (l *Log) Last(r state.Reader, dir types.Direction) (uint64, error) {
	return state.ReadLastNumber(r, dir)
}

// Get returns a message by number, failing with ErrUnknownMessage if it was never sent.
func (l *Log) Get(r state.Reader, dir types.Direction, num uint64) (*types.Message, error) {
	m, err := state.ReadMessage(r, dir, num)
	if errors.Is(err, types.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s message %d", types.ErrUnknownMessage, dir, num)
	}
	return m, err
}

// ByHash returns a message of the direction by its hash, failing with ErrUnknownMessage if it was never sent.
func (l *Log) ByHash(r state.Reader, dir types.Direction, hash common.Hash) (*types.Message, error) {
	m, err := state.ReadMessageByHash(r, dir, hash)
	if errors.Is(err, types.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s %s", types.ErrUnknownMessage, dir, hash)
	}
	return m, err
}

// Range returns the messages numbered from..to, inclusive, in order.
func (l *Log) Range(r state.Reader, dir types.Direction, from, to uint64) ([]*types.Message, error) {
	if from == 0 || to < from {
		return nil, nil
	}
	out := make([]*types.Message, 0, to-from+1)
	for num := from; num <= to; num++ {
		m, err := l.Get(r, dir, num)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}
