// Package plugin provides an extensible plugin system for Mint.
// Plugins can hook into various lifecycle events to extend functionality.
package plugin

import (
	"context"
	"time"
)

// Plugin is the base interface that all plugins must implement.
type Plugin interface {
	Name() string
}

// ──────────────────────────────────────────────────
// Lifecycle hooks
// ──────────────────────────────────────────────────

// OnInit is called when the plugin is initialized.
type OnInit interface {
	Plugin
	OnInit(ctx context.Context, m interface{}) error
}

// OnShutdown is called when the plugin is shutting down.
type OnShutdown interface {
	Plugin
	OnShutdown(ctx context.Context) error
}

// ──────────────────────────────────────────────────
// Collection lifecycle hooks
// ──────────────────────────────────────────────────

// OnCollectionCreated is called when a new collection is created.
type OnCollectionCreated interface {
	Plugin
	OnCollectionCreated(ctx context.Context, coll interface{}) error
}

// OnPolicyUpdated is called when a collection's issuance policy changes.
type OnPolicyUpdated interface {
	Plugin
	OnPolicyUpdated(ctx context.Context, coll interface{}, oldPolicy, newPolicy interface{}) error
}

// ──────────────────────────────────────────────────
// Issuance hooks
// ──────────────────────────────────────────────────

// OnClaimed is called when a paid claim succeeds.
type OnClaimed interface {
	Plugin
	OnClaimed(ctx context.Context, collectionID, wallet string, tokenIDs []uint64, paid interface{}) error
}

// OnGranted is called when the owner grants free tokens.
type OnGranted interface {
	Plugin
	OnGranted(ctx context.Context, collectionID, recipient string, tokenIDs []uint64) error
}

// OnClaimRejected is called when a claim fails validation.
type OnClaimRejected interface {
	Plugin
	OnClaimRejected(ctx context.Context, collectionID, wallet string, quantity uint64, reason error) error
}

// OnSupplyExhausted is called the first time a collection sells out.
type OnSupplyExhausted interface {
	Plugin
	OnSupplyExhausted(ctx context.Context, collectionID string, maxSupply uint64) error
}

// ──────────────────────────────────────────────────
// Treasury hooks
// ──────────────────────────────────────────────────

// OnWithdrawal is called when collected funds are withdrawn.
type OnWithdrawal interface {
	Plugin
	OnWithdrawal(ctx context.Context, collectionID, destination string, amount interface{}) error
}

// ──────────────────────────────────────────────────
// Journal hooks
// ──────────────────────────────────────────────────

// OnJournalFlushed is called when buffered journal events are flushed to the store.
type OnJournalFlushed interface {
	Plugin
	OnJournalFlushed(ctx context.Context, count int, elapsed time.Duration) error
}

// ──────────────────────────────────────────────────
// Metadata resolvers
// ──────────────────────────────────────────────────

// MetadataResolver provides custom token URI resolution, overriding the
// default base-plus-number scheme.
type MetadataResolver interface {
	Plugin
	ResolverName() string
	Resolve(ctx context.Context, collectionID string, tokenID uint64) (string, error)
}
