package store

import (
	"context"
	"time"

	"github.com/xraph/mint/collection"
	"github.com/xraph/mint/id"
	"github.com/xraph/mint/journal"
	"github.com/xraph/mint/quota"
	"github.com/xraph/mint/treasury"
	"github.com/xraph/mint/types"
)

// Store is the unified storage interface for all Mint entities.
// Instead of embedding the sub-interfaces, we explicitly declare all methods
// to avoid naming conflicts.
//
// Implementations must hand out copies of stored collections and wallets:
// the engine mutates what it reads and persists only after every check
// passed, so a shared pointer would leak uncommitted state.
type Store interface {
	// Collection methods
	CreateCollection(ctx context.Context, c *collection.Collection) error
	GetCollection(ctx context.Context, collID id.CollectionID) (*collection.Collection, error)
	GetCollectionBySlug(ctx context.Context, slug string) (*collection.Collection, error)
	ListCollections(ctx context.Context, opts collection.ListOpts) ([]*collection.Collection, error)
	UpdateCollection(ctx context.Context, c *collection.Collection) error
	DeleteCollection(ctx context.Context, collID id.CollectionID) error

	// Wallet quota methods
	GetWallet(ctx context.Context, collID id.CollectionID, address types.Address) (*quota.Wallet, error)
	PutWallet(ctx context.Context, w *quota.Wallet) error
	ListWallets(ctx context.Context, collID id.CollectionID, opts quota.ListOpts) ([]*quota.Wallet, error)

	// Journal methods
	IngestEvents(ctx context.Context, events []*journal.Event) error
	QueryEvents(ctx context.Context, collID id.CollectionID, opts journal.QueryOpts) ([]*journal.Event, error)
	PurgeEvents(ctx context.Context, before time.Time) (int64, error)

	// Withdrawal methods
	CreateWithdrawal(ctx context.Context, w *treasury.Withdrawal) error
	ListWithdrawals(ctx context.Context, collID id.CollectionID, opts treasury.ListOpts) ([]*treasury.Withdrawal, error)

	// Core methods
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}
