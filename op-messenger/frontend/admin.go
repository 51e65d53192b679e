package frontend

import (
	"context"

	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/mantlenetworkio/mantle-messaging/op-messenger/messaging/types"
)

type AdminBackend interface {
	AdvanceBlock(ctx context.Context, layer types.Layer, blocks uint64) (uint64, error)
	Head(layer types.Layer) (uint64, error)
	Audit(dir types.Direction) error
}

type AdminFrontend struct {
	b AdminBackend
}

func NewAdminFrontend(b AdminBackend) *AdminFrontend {
	return &AdminFrontend{b: b}
}

// AdvanceBlock seals the pending block of a layer, and returns the new head.
func (a *AdminFrontend) AdvanceBlock(ctx context.Context, layer types.Layer, blocks hexutil.Uint64) (hexutil.Uint64, error) {
	head, err := a.b.AdvanceBlock(ctx, layer, uint64(blocks))
	return hexutil.Uint64(head), err
}

func (a *AdminFrontend) Head(ctx context.Context, layer types.Layer) (hexutil.Uint64, error) {
	head, err := a.b.Head(layer)
	return hexutil.Uint64(head), err
}

func (a *AdminFrontend) Audit(ctx context.Context, dir types.Direction) error {
	return a.b.Audit(dir)
}
