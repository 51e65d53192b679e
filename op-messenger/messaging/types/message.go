package types

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/mantlenetworkio/mantle-messaging/op-service/eth"
)

var (
	uint256Type, _ = abi.NewType("uint256", "", nil)
	bytesType, _   = abi.NewType("bytes", "", nil)
	addressType, _ = abi.NewType("address", "", nil)

	// abi.encode(from, to, fee, value, messageNumber, calldata)
	messageArguments = abi.Arguments{
		{Name: "from", Type: addressType},
		{Name: "to", Type: addressType},
		{Name: "fee", Type: uint256Type},
		{Name: "value", Type: uint256Type},
		{Name: "messageNumber", Type: uint256Type},
		{Name: "calldata", Type: bytesType},
	}
)

// GenesisRollingHash is the rolling hash before any message of a direction.
var GenesisRollingHash = common.Hash{}

// Message is a sent cross-chain message. It is immutable once created.
type Message struct {
	Direction     Direction      `json:"direction"`
	From          common.Address `json:"from"`
	To            common.Address `json:"to"`
	Fee           eth.ETH        `json:"fee"`
	Value         eth.ETH        `json:"value"`
	MessageNumber uint64         `json:"messageNumber"`
	Calldata      hexutil.Bytes  `json:"calldata"`
	// Hash is the canonical identity of the message, see HashMessage.
	Hash common.Hash `json:"messageHash"`
	// BlockNumber is the source block the message was sent in.
	BlockNumber uint64 `json:"blockNumber"`
}

// EncodeMessage returns the ABI encoding of the hashed message fields.
func EncodeMessage(from, to common.Address, fee, value eth.ETH, messageNumber uint64, calldata []byte) ([]byte, error) {
	if calldata == nil {
		calldata = []byte{}
	}
	enc, err := messageArguments.Pack(from, to, fee.ToBig(), value.ToBig(), new(big.Int).SetUint64(messageNumber), calldata)
	if err != nil {
		return nil, fmt.Errorf("failed to pack message: %w", err)
	}
	return enc, nil
}

// HashMessage computes keccak256(abi.encode(from, to, fee, value, messageNumber, calldata)).
func HashMessage(from, to common.Address, fee, value eth.ETH, messageNumber uint64, calldata []byte) (common.Hash, error) {
	enc, err := EncodeMessage(from, to, fee, value, messageNumber, calldata)
	if err != nil {
		return common.Hash{}, err
	}
	return crypto.Keccak256Hash(enc), nil
}

// ComputeHash recomputes the hash of the message from its fields, ignoring the Hash field.
func (m *Message) ComputeHash() (common.Hash, error) {
	return HashMessage(m.From, m.To, m.Fee, m.Value, m.MessageNumber, m.Calldata)
}

// CheckHash verifies that the Hash field matches the message fields.
func (m *Message) CheckHash() error {
	h, err := m.ComputeHash()
	if err != nil {
		return err
	}
	if h != m.Hash {
		return fmt.Errorf("%w: message %d claims %s, contents hash to %s", ErrHashMismatch, m.MessageNumber, m.Hash, h)
	}
	return nil
}

// NextRollingHash folds a message hash into the previous rolling hash.
func NextRollingHash(prev common.Hash, messageHash common.Hash) common.Hash {
	return crypto.Keccak256Hash(prev[:], messageHash[:])
}

// ID is a short description of the message, for logging.
func (m *Message) ID() string {
	return fmt.Sprintf("%s:%d:%s", m.Direction, m.MessageNumber, m.Hash.TerminalString())
}
