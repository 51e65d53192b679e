package types

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// Layer identifies one of the two ledgers a message travels between.
type Layer uint8

const (
	L1 Layer = 1
	L2 Layer = 2
)

func (l Layer) String() string {
	switch l {
	case L1:
		return "l1"
	case L2:
		return "l2"
	default:
		return fmt.Sprintf("layer(%d)", uint8(l))
	}
}

func (l Layer) Valid() bool {
	return l == L1 || l == L2
}

func (l Layer) MarshalText() ([]byte, error) {
	if !l.Valid() {
		return nil, fmt.Errorf("invalid layer %d", uint8(l))
	}
	return []byte(l.String()), nil
}

func (l *Layer) UnmarshalText(data []byte) error {
	switch string(data) {
	case "l1":
		*l = L1
	case "l2":
		*l = L2
	default:
		return fmt.Errorf("invalid layer %q", string(data))
	}
	return nil
}

// Direction identifies the path a message takes.
// Every direction has its own message numbering.
type Direction uint8

const (
	// L1ToL2 messages are anchored on L2 by reporting rolling hashes.
	L1ToL2 Direction = 1
	// L2ToL1 messages are committed in Merkle trees over finalized L2 block ranges,
	// and claimed on L1 with an inclusion proof.
	L2ToL1 Direction = 2
)

var Directions = []Direction{L1ToL2, L2ToL1}

func (d Direction) String() string {
	switch d {
	case L1ToL2:
		return "l1-to-l2"
	case L2ToL1:
		return "l2-to-l1"
	default:
		return fmt.Sprintf("direction(%d)", uint8(d))
	}
}

func (d Direction) Valid() bool {
	return d == L1ToL2 || d == L2ToL1
}

// Source is the layer messages of this direction are sent on.
func (d Direction) Source() Layer {
	if d == L2ToL1 {
		return L2
	}
	return L1
}

// Destination is the layer messages of this direction are claimed on.
func (d Direction) Destination() Layer {
	if d == L2ToL1 {
		return L1
	}
	return L2
}

// Scheme is the commitment scheme that makes messages of this direction claimable.
func (d Direction) Scheme() Scheme {
	if d == L2ToL1 {
		return SchemeMerkle
	}
	return SchemeRollingHash
}

func (d Direction) MarshalText() ([]byte, error) {
	if !d.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidDirection, uint8(d))
	}
	return []byte(d.String()), nil
}

func (d *Direction) UnmarshalText(data []byte) error {
	v, err := ParseDirection(string(data))
	if err != nil {
		return err
	}
	*d = v
	return nil
}

func ParseDirection(s string) (Direction, error) {
	switch s {
	case "l1-to-l2", "l1tol2", "a":
		return L1ToL2, nil
	case "l2-to-l1", "l2tol1", "b":
		return L2ToL1, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidDirection, s)
	}
}

// Scheme is the tag of the commitment-scheme union.
type Scheme uint8

const (
	SchemeRollingHash Scheme = 1
	SchemeMerkle      Scheme = 2
)

func (s Scheme) String() string {
	switch s {
	case SchemeRollingHash:
		return "rolling-hash"
	case SchemeMerkle:
		return "merkle"
	default:
		return fmt.Sprintf("scheme(%d)", uint8(s))
	}
}

func (s Scheme) MarshalText() ([]byte, error) {
	if s != SchemeRollingHash && s != SchemeMerkle {
		return nil, fmt.Errorf("invalid scheme %d", uint8(s))
	}
	return []byte(s.String()), nil
}

func (s *Scheme) UnmarshalText(data []byte) error {
	switch string(data) {
	case "rolling-hash":
		*s = SchemeRollingHash
	case "merkle":
		*s = SchemeMerkle
	default:
		return fmt.Errorf("invalid scheme %q", string(data))
	}
	return nil
}

type ClaimStatus uint8

const (
	Unclaimed ClaimStatus = 0
	Claimed   ClaimStatus = 1
)

func (s ClaimStatus) String() string {
	if s == Claimed {
		return "claimed"
	}
	return "unclaimed"
}

func (s ClaimStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *ClaimStatus) UnmarshalText(data []byte) error {
	switch string(data) {
	case "unclaimed":
		*s = Unclaimed
	case "claimed":
		*s = Claimed
	default:
		return fmt.Errorf("invalid claim status %q", string(data))
	}
	return nil
}

// ClaimRecord is the destination-side claim state of a message, keyed by message hash.
// The zero value is an unclaimed record.
type ClaimRecord struct {
	Status       ClaimStatus    `json:"status"`
	ClaimedBy    common.Address `json:"claimedBy"`
	FeeRecipient common.Address `json:"feeRecipient"`
	// ExecutedAt is the destination block number the claim was executed in.
	ExecutedAt uint64 `json:"executedAt"`
}

type AnchorStatus uint8

const (
	NotAnchored AnchorStatus = 0
	Anchored    AnchorStatus = 1
)

func (s AnchorStatus) String() string {
	if s == Anchored {
		return "anchored"
	}
	return "not-anchored"
}

// MessageStatus is the combined lifecycle view of a message.
type MessageStatus uint8

const (
	StatusUnknown MessageStatus = iota
	StatusSent
	StatusAnchored
	StatusCommitted
	StatusClaimed
)

func (s MessageStatus) String() string {
	switch s {
	case StatusSent:
		return "sent"
	case StatusAnchored:
		return "anchored"
	case StatusCommitted:
		return "committed"
	case StatusClaimed:
		return "claimed"
	default:
		return "unknown"
	}
}

func (s MessageStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *MessageStatus) UnmarshalText(data []byte) error {
	for v := StatusUnknown; v <= StatusClaimed; v++ {
		if v.String() == string(data) {
			*s = v
			return nil
		}
	}
	return fmt.Errorf("invalid message status %q", string(data))
}

// Claimable reports whether a claim can be admitted in this status.
func (s MessageStatus) Claimable() bool {
	return s == StatusAnchored || s == StatusCommitted
}
