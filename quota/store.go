package quota

import (
	"context"

	"github.com/xraph/mint/id"
	"github.com/xraph/mint/types"
)

type Store interface {
	Get(ctx context.Context, collID id.CollectionID, address types.Address) (*Wallet, error)
	Put(ctx context.Context, w *Wallet) error
	List(ctx context.Context, collID id.CollectionID, opts ListOpts) ([]*Wallet, error)
}
