package state

import (
	"errors"
	"fmt"

	"github.com/holiman/uint256"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rlp"

	"github.com/mantlenetworkio/mantle-messaging/op-messenger/messaging/types"
	"github.com/mantlenetworkio/mantle-messaging/op-service/eth"
)

type storedClaim struct {
	Status       uint8
	ClaimedBy    common.Address
	FeeRecipient common.Address
	ExecutedAt   uint64
}

// ReadClaim returns the claim record of a message of the direction. A missing record is an unclaimed one.
func ReadClaim(r Reader, dir types.Direction, hash common.Hash) (types.ClaimRecord, error) {
	data, err := r.Get(claimKey(dir, hash))
	if errors.Is(err, types.ErrNotFound) {
		return types.ClaimRecord{Status: types.Unclaimed}, nil
	} else if err != nil {
		return types.ClaimRecord{}, err
	}
	var stored storedClaim
	if err := rlp.DecodeBytes(data, &stored); err != nil {
		return types.ClaimRecord{}, fmt.Errorf("%w: invalid claim record %s: %w", types.ErrDataCorruption, hash, err)
	}
	return types.ClaimRecord{
		Status:       types.ClaimStatus(stored.Status),
		ClaimedBy:    stored.ClaimedBy,
		FeeRecipient: stored.FeeRecipient,
		ExecutedAt:   stored.ExecutedAt,
	}, nil
}

func WriteClaim(tx Tx, dir types.Direction, hash common.Hash, rec types.ClaimRecord) error {
	data, err := rlp.EncodeToBytes(&storedClaim{
		Status:       uint8(rec.Status),
		ClaimedBy:    rec.ClaimedBy,
		FeeRecipient: rec.FeeRecipient,
		ExecutedAt:   rec.ExecutedAt,
	})
	if err != nil {
		return fmt.Errorf("failed to encode claim record: %w", err)
	}
	return tx.Put(claimKey(dir, hash), data)
}

// ReadBalance returns the balance of an account on a layer, zero if never credited.
func ReadBalance(r Reader, layer types.Layer, addr common.Address) (eth.ETH, error) {
	data, err := r.Get(balanceKey(layer, addr))
	if errors.Is(err, types.ErrNotFound) {
		return eth.ZeroWei, nil
	} else if err != nil {
		return eth.ZeroWei, err
	}
	if len(data) != 32 {
		return eth.ZeroWei, fmt.Errorf("%w: balance of %s on %s has %d bytes", types.ErrDataCorruption, addr, layer, len(data))
	}
	return eth.WeiU256(new(uint256.Int).SetBytes32(data)), nil
}

func WriteBalance(tx Tx, layer types.Layer, addr common.Address, v eth.ETH) error {
	b := v.Bytes32()
	return tx.Put(balanceKey(layer, addr), b[:])
}

// CreditBalance adds amount to the balance of addr. It fails on overflow.
func CreditBalance(tx Tx, layer types.Layer, addr common.Address, amount eth.ETH) error {
	if amount.IsZero() {
		return nil
	}
	bal, err := ReadBalance(tx, layer, addr)
	if err != nil {
		return err
	}
	next, overflow := bal.AddOverflow(amount)
	if overflow {
		return fmt.Errorf("balance of %s on %s overflows when adding %s", addr, layer, amount)
	}
	return WriteBalance(tx, layer, addr, next)
}

// ReadHead returns the current block number of a layer.
func ReadHead(r Reader, layer types.Layer) (uint64, error) {
	return readUint64(r, headKey(layer))
}

func WriteHead(tx Tx, layer types.Layer, block uint64) error {
	return writeUint64(tx, headKey(layer), block)
}
