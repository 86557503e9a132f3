package treasury

import (
	"context"

	"github.com/xraph/mint/id"
)

type Store interface {
	Create(ctx context.Context, w *Withdrawal) error
	List(ctx context.Context, collID id.CollectionID, opts ListOpts) ([]*Withdrawal, error)
}
