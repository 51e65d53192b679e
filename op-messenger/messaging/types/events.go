package types

import (
	"github.com/ethereum/go-ethereum/common"

	"github.com/mantlenetworkio/mantle-messaging/op-service/event"
	"github.com/mantlenetworkio/mantle-messaging/op-service/eth"
)

// MessageSentEvent is emitted after a message is appended to the source log.
type MessageSentEvent struct {
	Message Message
}

func (ev MessageSentEvent) String() string {
	return "message-sent"
}

// MessageIngestedEvent is emitted after the destination mirrored an L1-to-L2 message.
type MessageIngestedEvent struct {
	Direction     Direction
	MessageNumber uint64
	MessageHash   common.Hash
	RollingHash   common.Hash
}

func (ev MessageIngestedEvent) String() string {
	return "message-ingested"
}

// AnchorUpdatedEvent is emitted when the anchored prefix advances from From (exclusive) to To (inclusive).
type AnchorUpdatedEvent struct {
	Direction   Direction
	From        uint64
	To          uint64
	RollingHash common.Hash
}

func (ev AnchorUpdatedEvent) String() string {
	return "anchor-updated"
}

// BatchCommittedEvent is emitted once per published Merkle tree.
type BatchCommittedEvent struct {
	Direction  Direction
	Commitment MerkleCommitment
}

func (ev BatchCommittedEvent) String() string {
	return "batch-committed"
}

// MessageClaimedEvent is emitted after a claim transaction committed.
type MessageClaimedEvent struct {
	Direction    Direction
	MessageHash  common.Hash
	ClaimedBy    common.Address
	FeeRecipient common.Address
	Fee          eth.ETH
	Value        eth.ETH
	ExecutedAt   uint64
}

func (ev MessageClaimedEvent) String() string {
	return "message-claimed"
}

var (
	_ event.Event = MessageSentEvent{}
	_ event.Event = MessageIngestedEvent{}
	_ event.Event = AnchorUpdatedEvent{}
	_ event.Event = BatchCommittedEvent{}
	_ event.Event = MessageClaimedEvent{}
)
