package journal

import (
	"context"
	"time"

	"github.com/xraph/mint/id"
)

type Store interface {
	IngestBatch(ctx context.Context, events []*Event) error
	Query(ctx context.Context, collID id.CollectionID, opts QueryOpts) ([]*Event, error)
	Purge(ctx context.Context, before time.Time) (int64, error)
}
