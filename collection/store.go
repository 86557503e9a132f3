package collection

import (
	"context"

	"github.com/xraph/mint/id"
	"github.com/xraph/mint/types"
)

type Store interface {
	Create(ctx context.Context, c *Collection) error
	Get(ctx context.Context, collID id.CollectionID) (*Collection, error)
	GetBySlug(ctx context.Context, slug string) (*Collection, error)
	List(ctx context.Context, opts ListOpts) ([]*Collection, error)
	Update(ctx context.Context, c *Collection) error
	Delete(ctx context.Context, collID id.CollectionID) error
}

type ListOpts struct {
	Owner  types.Address
	Limit  int
	Offset int
}
