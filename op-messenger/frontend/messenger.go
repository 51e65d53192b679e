// Package frontend exposes the messenger over JSON-RPC.
package frontend

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/mantlenetworkio/mantle-messaging/op-messenger/messaging/rollinghash"
	"github.com/mantlenetworkio/mantle-messaging/op-messenger/messaging/types"
	"github.com/mantlenetworkio/mantle-messaging/op-service/eth"
)

type MessengerBackend interface {
	Send(ctx context.Context, dir types.Direction, from, to common.Address, fee, value eth.ETH, calldata []byte) (*types.Message, error)
	Ingest(ctx context.Context, m *types.Message) (common.Hash, error)
	ReportAnchor(ctx context.Context, dir types.Direction, n uint64, rolling common.Hash) (rollinghash.AnchorResult, error)
	Finalize(ctx context.Context, dir types.Direction, toBlock uint64) ([]types.MerkleCommitment, error)
	Claim(ctx context.Context, m *types.Message, ev types.Evidence, executor, feeRecipient common.Address) (*types.ClaimRecord, error)

	Message(dir types.Direction, hash common.Hash) (*types.Message, error)
	MessageStatus(dir types.Direction, hash common.Hash) (types.MessageStatus, error)
	ProofFor(hash common.Hash) (*types.MerkleProof, *types.MerkleCommitment, error)
	LastAnchored(dir types.Direction) (uint64, error)
	RollingHash(dir types.Direction, n uint64) (common.Hash, error)
	Balance(layer types.Layer, addr common.Address) (eth.ETH, error)
}

type SendArgs struct {
	Direction types.Direction `json:"direction"`
	From      common.Address  `json:"from"`
	To        common.Address  `json:"to"`
	Fee       eth.ETH         `json:"fee"`
	Value     eth.ETH         `json:"value"`
	Calldata  hexutil.Bytes   `json:"calldata"`
}

type ClaimArgs struct {
	Message      types.Message  `json:"message"`
	Evidence     types.Evidence `json:"evidence"`
	Executor     common.Address `json:"executor"`
	FeeRecipient common.Address `json:"feeRecipient"`
}

type AnchorResult struct {
	Previous hexutil.Uint64 `json:"previous"`
	Anchored hexutil.Uint64 `json:"anchored"`
}

type MessageProof struct {
	Proof      types.MerkleProof      `json:"proof"`
	Commitment types.MerkleCommitment `json:"commitment"`
}

type MessengerFrontend struct {
	b MessengerBackend
}

func NewMessengerFrontend(b MessengerBackend) *MessengerFrontend {
	return &MessengerFrontend{b: b}
}

func (f *MessengerFrontend) SendMessage(ctx context.Context, args SendArgs) (*types.Message, error) {
	return f.b.Send(ctx, args.Direction, args.From, args.To, args.Fee, args.Value, args.Calldata)
}

func (f *MessengerFrontend) IngestMessage(ctx context.Context, m types.Message) (common.Hash, error) {
	return f.b.Ingest(ctx, &m)
}

func (f *MessengerFrontend) ReportAnchor(ctx context.Context, dir types.Direction, n hexutil.Uint64, rolling common.Hash) (*AnchorResult, error) {
	res, err := f.b.ReportAnchor(ctx, dir, uint64(n), rolling)
	if err != nil {
		return nil, err
	}
	return &AnchorResult{Previous: hexutil.Uint64(res.Previous), Anchored: hexutil.Uint64(res.Anchored)}, nil
}

func (f *MessengerFrontend) FinalizeBlocks(ctx context.Context, dir types.Direction, toBlock hexutil.Uint64) ([]types.MerkleCommitment, error) {
	return f.b.Finalize(ctx, dir, uint64(toBlock))
}

func (f *MessengerFrontend) ClaimMessage(ctx context.Context, args ClaimArgs) (*types.ClaimRecord, error) {
	return f.b.Claim(ctx, &args.Message, args.Evidence, args.Executor, args.FeeRecipient)
}

func (f *MessengerFrontend) GetMessage(ctx context.Context, dir types.Direction, hash common.Hash) (*types.Message, error) {
	return f.b.Message(dir, hash)
}

func (f *MessengerFrontend) MessageStatus(ctx context.Context, dir types.Direction, hash common.Hash) (types.MessageStatus, error) {
	return f.b.MessageStatus(dir, hash)
}

func (f *MessengerFrontend) MessageProof(ctx context.Context, hash common.Hash) (*MessageProof, error) {
	proof, c, err := f.b.ProofFor(hash)
	if err != nil {
		return nil, err
	}
	return &MessageProof{Proof: *proof, Commitment: *c}, nil
}

func (f *MessengerFrontend) LastAnchored(ctx context.Context, dir types.Direction) (hexutil.Uint64, error) {
	n, err := f.b.LastAnchored(dir)
	return hexutil.Uint64(n), err
}

func (f *MessengerFrontend) RollingHash(ctx context.Context, dir types.Direction, n hexutil.Uint64) (common.Hash, error) {
	return f.b.RollingHash(dir, uint64(n))
}

func (f *MessengerFrontend) Balance(ctx context.Context, layer types.Layer, addr common.Address) (eth.ETH, error) {
	return f.b.Balance(layer, addr)
}
