package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/xraph/mint"
	"github.com/xraph/mint/collection"
	"github.com/xraph/mint/id"
	"github.com/xraph/mint/journal"
	"github.com/xraph/mint/quota"
	"github.com/xraph/mint/treasury"
	"github.com/xraph/mint/types"
)

type walletKey struct {
	coll    string
	address types.Address
}

// Store is the in-process reference store. All entities live in maps
// guarded by a single RWMutex; reads hand out clones so that engine
// mutations stay invisible until persisted.
type Store struct {
	mu sync.RWMutex

	collections map[string]*collection.Collection
	slugs       map[string]string // slug -> collection id

	wallets map[walletKey]*quota.Wallet

	events []journal.Event

	withdrawals map[string][]*treasury.Withdrawal // collection id -> records
}

// New creates an empty memory store.
func New() *Store {
	return &Store{
		collections: make(map[string]*collection.Collection),
		slugs:       make(map[string]string),
		wallets:     make(map[walletKey]*quota.Wallet),
		events:      make([]journal.Event, 0),
		withdrawals: make(map[string][]*treasury.Withdrawal),
	}
}

// Collection methods

func (s *Store) CreateCollection(_ context.Context, c *collection.Collection) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.collections[c.ID.String()]; exists {
		return mint.ErrAlreadyExists
	}
	if c.Slug != "" {
		if _, taken := s.slugs[c.Slug]; taken {
			return mint.ErrAlreadyExists
		}
		s.slugs[c.Slug] = c.ID.String()
	}
	s.collections[c.ID.String()] = c.Clone()
	return nil
}

func (s *Store) GetCollection(_ context.Context, collID id.CollectionID) (*collection.Collection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if c, ok := s.collections[collID.String()]; ok {
		return c.Clone(), nil
	}
	return nil, mint.ErrCollectionNotFound
}

func (s *Store) GetCollectionBySlug(_ context.Context, slug string) (*collection.Collection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if cid, ok := s.slugs[slug]; ok {
		if c, ok := s.collections[cid]; ok {
			return c.Clone(), nil
		}
	}
	return nil, mint.ErrCollectionNotFound
}

func (s *Store) ListCollections(_ context.Context, opts collection.ListOpts) ([]*collection.Collection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*collection.Collection, 0)
	for _, c := range s.collections {
		if !opts.Owner.IsZero() && !c.Owner.Equal(opts.Owner) {
			continue
		}
		result = append(result, c.Clone())
	}

	// Map iteration order is random; present a stable listing.
	sort.Slice(result, func(i, j int) bool {
		return result[i].ID.String() < result[j].ID.String()
	})

	return paginate(result, opts.Offset, opts.Limit), nil
}

func (s *Store) UpdateCollection(_ context.Context, c *collection.Collection) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.collections[c.ID.String()]; !exists {
		return mint.ErrCollectionNotFound
	}
	s.collections[c.ID.String()] = c.Clone()
	return nil
}

func (s *Store) DeleteCollection(_ context.Context, collID id.CollectionID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, exists := s.collections[collID.String()]
	if !exists {
		return mint.ErrCollectionNotFound
	}
	delete(s.collections, collID.String())
	delete(s.slugs, c.Slug)
	return nil
}

// Wallet quota methods

func (s *Store) GetWallet(_ context.Context, collID id.CollectionID, address types.Address) (*quota.Wallet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if w, ok := s.wallets[walletKey{coll: collID.String(), address: address}]; ok {
		return w.Clone(), nil
	}
	return nil, mint.ErrNotFound
}

func (s *Store) PutWallet(_ context.Context, w *quota.Wallet) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.wallets[walletKey{coll: w.CollectionID.String(), address: w.Address}] = w.Clone()
	return nil
}

func (s *Store) ListWallets(_ context.Context, collID id.CollectionID, opts quota.ListOpts) ([]*quota.Wallet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*quota.Wallet, 0)
	for key, w := range s.wallets {
		if key.coll == collID.String() {
			result = append(result, w.Clone())
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Address < result[j].Address
	})

	return paginate(result, opts.Offset, opts.Limit), nil
}

// Journal methods

func (s *Store) IngestEvents(_ context.Context, events []*journal.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range events {
		s.events = append(s.events, *e)
	}
	return nil
}

func (s *Store) QueryEvents(_ context.Context, collID id.CollectionID, opts journal.QueryOpts) ([]*journal.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*journal.Event, 0)
	for i := range s.events {
		e := s.events[i]
		if e.CollectionID.String() != collID.String() {
			continue
		}
		if opts.Kind != "" && e.Kind != opts.Kind {
			continue
		}
		if !opts.Wallet.IsZero() && !e.Wallet.Equal(opts.Wallet) {
			continue
		}
		if !opts.Start.IsZero() && e.Timestamp.Before(opts.Start) {
			continue
		}
		if !opts.End.IsZero() && e.Timestamp.After(opts.End) {
			continue
		}
		dup := e
		result = append(result, &dup)
	}

	return paginate(result, opts.Offset, opts.Limit), nil
}

func (s *Store) PurgeEvents(_ context.Context, before time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := make([]journal.Event, 0, len(s.events))
	var purged int64
	for _, e := range s.events {
		if e.Timestamp.Before(before) {
			purged++
			continue
		}
		kept = append(kept, e)
	}
	s.events = kept
	return purged, nil
}

// Withdrawal methods

func (s *Store) CreateWithdrawal(_ context.Context, w *treasury.Withdrawal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	dup := *w
	key := w.CollectionID.String()
	s.withdrawals[key] = append(s.withdrawals[key], &dup)
	return nil
}

func (s *Store) ListWithdrawals(_ context.Context, collID id.CollectionID, opts treasury.ListOpts) ([]*treasury.Withdrawal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := s.withdrawals[collID.String()]
	result := make([]*treasury.Withdrawal, 0, len(records))
	for _, w := range records {
		dup := *w
		result = append(result, &dup)
	}

	return paginate(result, opts.Offset, opts.Limit), nil
}

// Core methods

func (s *Store) Migrate(_ context.Context) error { return nil }

func (s *Store) Ping(_ context.Context) error { return nil }

func (s *Store) Close() error { return nil }

// paginate applies offset/limit to a slice; limit 0 means no limit.
func paginate[T any](items []T, offset, limit int) []T {
	start := offset
	if start > len(items) {
		start = len(items)
	}
	end := start + limit
	if limit == 0 || end > len(items) {
		end = len(items)
	}
	return items[start:end]
}
