// Package logfile reads message log dumps, the offline input of the messenger CLI tools.
// Dumps are YAML documents; JSON dumps decode as well.
package logfile

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/mantlenetworkio/mantle-messaging/op-messenger/messaging/types"
	"github.com/mantlenetworkio/mantle-messaging/op-service/eth"
)

// Entry is one sent message of a dump.
type Entry struct {
	Direction     types.Direction `yaml:"direction"`
	From          common.Address  `yaml:"from"`
	To            common.Address  `yaml:"to"`
	Fee           eth.ETH         `yaml:"fee"`
	Value         eth.ETH         `yaml:"value"`
	MessageNumber uint64          `yaml:"messageNumber"`
	Calldata      hexutil.Bytes   `yaml:"calldata"`
	// Hash is optional. When set it is checked against the message contents.
	Hash        common.Hash `yaml:"messageHash"`
	BlockNumber uint64      `yaml:"blockNumber"`
}

func (e *Entry) Message() *types.Message {
	return &types.Message{
		Direction:     e.Direction,
		From:          e.From,
		To:            e.To,
		Fee:           e.Fee,
		Value:         e.Value,
		MessageNumber: e.MessageNumber,
		Calldata:      e.Calldata,
		Hash:          e.Hash,
		BlockNumber:   e.BlockNumber,
	}
}

type File struct {
	Messages []Entry `yaml:"messages"`
}

// Decode reads a dump. Unknown keys are rejected.
func Decode(r io.Reader) (*File, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var f File
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return &f, nil
		}
		return nil, fmt.Errorf("failed to decode message log: %w", err)
	}
	for i := range f.Messages {
		if !f.Messages[i].Direction.Valid() {
			return nil, fmt.Errorf("message log entry %d has no valid direction", i)
		}
	}
	return &f, nil
}

func Load(path string) (*File, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open message log: %w", err)
	}
	defer fh.Close()
	return Decode(fh)
}

// Direction returns the messages of one direction, in dump order.
// Entries without a message number are numbered by their position in the direction.
func (f *File) Direction(dir types.Direction) []*types.Message {
	var out []*types.Message
	for i := range f.Messages {
		if f.Messages[i].Direction != dir {
			continue
		}
		m := f.Messages[i].Message()
		if m.MessageNumber == 0 {
			m.MessageNumber = uint64(len(out) + 1)
		}
		out = append(out, m)
	}
	return out
}
