package state

import (
	"encoding/binary"

	"github.com/ethereum/go-ethereum/common"

	"github.com/mantlenetworkio/mantle-messaging/op-messenger/messaging/types"
)

// The fields below define the low level database schema prefixing.
var (
	// source side
	messagePrefix     = []byte("m") // messagePrefix + direction + num (uint64 big endian) -> RLP(storedMessage)
	lastNumberPrefix  = []byte("n") // lastNumberPrefix + direction -> uint64
	messageHashPrefix = []byte("h") // messageHashPrefix + direction + hash -> num
	rollingHashPrefix = []byte("r") // rollingHashPrefix + direction + num -> rolling hash

	// destination side, rolling hash path
	mirrorPrefix        = []byte("i") // mirrorPrefix + direction + num -> message hash
	mirrorRollingPrefix = []byte("j") // mirrorRollingPrefix + direction + num -> rolling hash
	lastMirroredPrefix  = []byte("k") // lastMirroredPrefix + direction -> uint64
	lastAnchoredPrefix  = []byte("a") // lastAnchoredPrefix + direction -> uint64

	// merkle path
	treePrefix             = []byte("t") // treePrefix + tree index -> RLP(storedCommitment)
	treeLeavesPrefix       = []byte("l") // treeLeavesPrefix + tree index -> concatenated leaf hashes
	rootPrefix             = []byte("o") // rootPrefix + root -> tree index
	leafPrefix             = []byte("f") // leafPrefix + message hash -> tree index + leaf index
	lastFinalizedPrefix    = []byte("z") // lastFinalizedPrefix + direction -> uint64 block number
	lastCommittedNumPrefix = []byte("c") // lastCommittedNumPrefix + direction -> uint64 message number
	treeCountKey           = []byte("T") // treeCountKey -> uint64

	// claims and execution
	claimPrefix   = []byte("C") // claimPrefix + direction + message hash -> RLP(storedClaim)
	balancePrefix = []byte("b") // balancePrefix + layer + address -> 32 byte big endian amount
	headPrefix    = []byte("H") // headPrefix + layer -> uint64 block number
)

// encodeNumber encodes a number as big endian uint64
func encodeNumber(number uint64) []byte {
	enc := make([]byte, 8)
	binary.BigEndian.PutUint64(enc, number)
	return enc
}

func key(prefix []byte, parts ...[]byte) []byte {
	n := len(prefix)
	for _, p := range parts {
		n += len(p)
	}
	out := make([]byte, 0, n)
	out = append(out, prefix...)
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

func dirKey(prefix []byte, dir types.Direction) []byte {
	return key(prefix, []byte{byte(dir)})
}

func dirNumKey(prefix []byte, dir types.Direction, num uint64) []byte {
	return key(prefix, []byte{byte(dir)}, encodeNumber(num))
}

func messageKey(dir types.Direction, num uint64) []byte {
	return dirNumKey(messagePrefix, dir, num)
}

func messageHashKey(dir types.Direction, hash common.Hash) []byte {
	return key(messageHashPrefix, []byte{byte(dir)}, hash[:])
}

func rollingHashKey(dir types.Direction, num uint64) []byte {
	return dirNumKey(rollingHashPrefix, dir, num)
}

func mirrorKey(dir types.Direction, num uint64) []byte {
	return dirNumKey(mirrorPrefix, dir, num)
}

func mirrorRollingKey(dir types.Direction, num uint64) []byte {
	return dirNumKey(mirrorRollingPrefix, dir, num)
}

func treeKey(index uint64) []byte {
	return key(treePrefix, encodeNumber(index))
}

func treeLeavesKey(index uint64) []byte {
	return key(treeLeavesPrefix, encodeNumber(index))
}

func rootKey(root common.Hash) []byte {
	return key(rootPrefix, root[:])
}

func leafKey(hash common.Hash) []byte {
	return key(leafPrefix, hash[:])
}

func claimKey(dir types.Direction, hash common.Hash) []byte {
	return key(claimPrefix, []byte{byte(dir)}, hash[:])
}

func balanceKey(layer types.Layer, addr common.Address) []byte {
	return key(balancePrefix, []byte{byte(layer)}, addr[:])
}

func headKey(layer types.Layer) []byte {
	return key(headPrefix, []byte{byte(layer)})
}
