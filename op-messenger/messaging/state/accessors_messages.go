package state

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/holiman/uint256"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rlp"

	"github.com/mantlenetworkio/mantle-messaging/op-messenger/messaging/types"
	"github.com/mantlenetworkio/mantle-messaging/op-service/eth"
)

type storedMessage struct {
	Direction     uint8
	From          common.Address
	To            common.Address
	Fee           *uint256.Int
	Value         *uint256.Int
	MessageNumber uint64
	Calldata      []byte
	Hash          common.Hash
	BlockNumber   uint64
}

// readUint64 reads a big endian counter. A missing counter reads as 0.
func readUint64(r Reader, k []byte) (uint64, error) {
	data, err := r.Get(k)
	if errors.Is(err, types.ErrNotFound) {
		return 0, nil
	} else if err != nil {
		return 0, err
	}
	if len(data) != 8 {
		return 0, fmt.Errorf("%w: counter %x has %d bytes", types.ErrDataCorruption, k, len(data))
	}
	return binary.BigEndian.Uint64(data), nil
}

func writeUint64(tx Tx, k []byte, v uint64) error {
	return tx.Put(k, encodeNumber(v))
}

func readHash(r Reader, k []byte) (common.Hash, error) {
	data, err := r.Get(k)
	if err != nil {
		return common.Hash{}, err
	}
	if len(data) != common.HashLength {
		return common.Hash{}, fmt.Errorf("%w: hash %x has %d bytes", types.ErrDataCorruption, k, len(data))
	}
	return common.BytesToHash(data), nil
}

// ReadLastNumber returns the number of the last message sent in the direction, 0 if none.
func ReadLastNumber(r Reader, dir types.Direction) (uint64, error) {
	return readUint64(r, dirKey(lastNumberPrefix, dir))
}

func WriteLastNumber(tx Tx, dir types.Direction, num uint64) error {
	return writeUint64(tx, dirKey(lastNumberPrefix, dir), num)
}

// ReadMessage retrieves a sent message by direction and number.
func ReadMessage(r Reader, dir types.Direction, num uint64) (*types.Message, error) {
	data, err := r.Get(messageKey(dir, num))
	if err != nil {
		return nil, err
	}
	var stored storedMessage
	if err := rlp.DecodeBytes(data, &stored); err != nil {
		return nil, fmt.Errorf("%w: invalid message %s:%d: %w", types.ErrDataCorruption, dir, num, err)
	}
	if len(stored.Calldata) == 0 {
		stored.Calldata = nil
	}
	return &types.Message{
		Direction:     types.Direction(stored.Direction),
		From:          stored.From,
		To:            stored.To,
		Fee:           eth.WeiU256(stored.Fee),
		Value:         eth.WeiU256(stored.Value),
		MessageNumber: stored.MessageNumber,
		Calldata:      stored.Calldata,
		Hash:          stored.Hash,
		BlockNumber:   stored.BlockNumber,
	}, nil
}

// WriteMessage stores a sent message and its hash lookup entry.
func WriteMessage(tx Tx, m *types.Message) error {
	data, err := rlp.EncodeToBytes(&storedMessage{
		Direction:     uint8(m.Direction),
		From:          m.From,
		To:            m.To,
		Fee:           m.Fee.ToU256(),
		Value:         m.Value.ToU256(),
		MessageNumber: m.MessageNumber,
		Calldata:      m.Calldata,
		Hash:          m.Hash,
		BlockNumber:   m.BlockNumber,
	})
	if err != nil {
		return fmt.Errorf("failed to encode message: %w", err)
	}
	if err := tx.Put(messageKey(m.Direction, m.MessageNumber), data); err != nil {
		return err
	}
	return tx.Put(messageHashKey(m.Direction, m.Hash), encodeNumber(m.MessageNumber))
}

// ReadMessageByHash retrieves a sent message of the direction by its hash.
// The hash does not cover the direction: identical messages may be sent both ways.
func ReadMessageByHash(r Reader, dir types.Direction, hash common.Hash) (*types.Message, error) {
	data, err := r.Get(messageHashKey(dir, hash))
	if err != nil {
		return nil, err
	}
	if len(data) != 8 {
		return nil, fmt.Errorf("%w: invalid message lookup for %s %s", types.ErrDataCorruption, dir, hash)
	}
	m, err := ReadMessage(r, dir, binary.BigEndian.Uint64(data))
	if errors.Is(err, types.ErrNotFound) {
		return nil, fmt.Errorf("%w: dangling message lookup for %s %s", types.ErrDataCorruption, dir, hash)
	}
	return m, err
}

// HasMessage reports whether a message with the given hash was sent in the direction.
func HasMessage(r Reader, dir types.Direction, hash common.Hash) (bool, error) {
	_, err := r.Get(messageHashKey(dir, hash))
	if errors.Is(err, types.ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

// ReadRollingHash returns the source-side rolling hash after message num. Number 0 is the genesis value.
func ReadRollingHash(r Reader, dir types.Direction, num uint64) (common.Hash, error) {
	if num == 0 {
		return types.GenesisRollingHash, nil
	}
	return readHash(r, rollingHashKey(dir, num))
}

func WriteRollingHash(tx Tx, dir types.Direction, num uint64, h common.Hash) error {
	return tx.Put(rollingHashKey(dir, num), h[:])
}

// ReadLastMirrored returns the number of the last message the destination ingested.
func ReadLastMirrored(r Reader, dir types.Direction) (uint64, error) {
	return readUint64(r, dirKey(lastMirroredPrefix, dir))
}

func WriteLastMirrored(tx Tx, dir types.Direction, num uint64) error {
	return writeUint64(tx, dirKey(lastMirroredPrefix, dir), num)
}

// ReadMirroredMessage returns the hash of an ingested message.
func ReadMirroredMessage(r Reader, dir types.Direction, num uint64) (common.Hash, error) {
	return readHash(r, mirrorKey(dir, num))
}

// WriteMirroredMessage stores an ingested message hash with the rolling hash the destination computed for it.
func WriteMirroredMessage(tx Tx, dir types.Direction, num uint64, msgHash common.Hash, rolling common.Hash) error {
	if err := tx.Put(mirrorKey(dir, num), msgHash[:]); err != nil {
		return err
	}
	return tx.Put(mirrorRollingKey(dir, num), rolling[:])
}

// ReadMirroredRollingHash returns the destination-side rolling hash after message num.
func ReadMirroredRollingHash(r Reader, dir types.Direction, num uint64) (common.Hash, error) {
	if num == 0 {
		return types.GenesisRollingHash, nil
	}
	return readHash(r, mirrorRollingKey(dir, num))
}

// ReadLastAnchored returns the highest anchored message number, 0 if none.
// Every message number up to and including it is anchored.
func ReadLastAnchored(r Reader, dir types.Direction) (uint64, error) {
	return readUint64(r, dirKey(lastAnchoredPrefix, dir))
}

func WriteLastAnchored(tx Tx, dir types.Direction, num uint64) error {
	return writeUint64(tx, dirKey(lastAnchoredPrefix, dir), num)
}

// ReadAnchorStatus derives the anchor status of a message number from the anchored prefix.
func ReadAnchorStatus(r Reader, dir types.Direction, num uint64) (types.AnchorStatus, error) {
	last, err := ReadLastAnchored(r, dir)
	if err != nil {
		return types.NotAnchored, err
	}
	if num != 0 && num <= last {
		return types.Anchored, nil
	}
	return types.NotAnchored, nil
}
