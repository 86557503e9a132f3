package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/xraph/mint"
	"github.com/xraph/mint/collection"
	"github.com/xraph/mint/id"
	"github.com/xraph/mint/journal"
	"github.com/xraph/mint/quota"
	"github.com/xraph/mint/treasury"
	"github.com/xraph/mint/types"
)

func newCollection(slug string) *collection.Collection {
	return &collection.Collection{
		Entity:    types.NewEntity(),
		ID:        id.NewCollectionID(),
		Slug:      slug,
		Name:      "Test Drop",
		Symbol:    "TST",
		Owner:     types.Addr("0xOwner"),
		MaxSupply: 100,
		NextID:    1,
		Policy: collection.Policy{
			UnitPrice: types.USD(10),
			WalletCap: 5,
			MintOpen:  true,
		},
		Balance: types.Zero("usd"),
	}
}

func TestCollectionCRUD(t *testing.T) {
	ctx := context.Background()
	s := New()

	c := newCollection("drop-one")
	if err := s.CreateCollection(ctx, c); err != nil {
		t.Fatalf("CreateCollection: %v", err)
	}

	t.Run("duplicate id rejected", func(t *testing.T) {
		if err := s.CreateCollection(ctx, c); !errors.Is(err, mint.ErrAlreadyExists) {
			t.Fatalf("err = %v, want ErrAlreadyExists", err)
		}
	})

	t.Run("duplicate slug rejected", func(t *testing.T) {
		other := newCollection("drop-one")
		if err := s.CreateCollection(ctx, other); !errors.Is(err, mint.ErrAlreadyExists) {
			t.Fatalf("err = %v, want ErrAlreadyExists", err)
		}
	})

	t.Run("get by id and slug", func(t *testing.T) {
		got, err := s.GetCollection(ctx, c.ID)
		if err != nil {
			t.Fatalf("GetCollection: %v", err)
		}
		if got.Slug != "drop-one" {
			t.Fatalf("slug = %q, want %q", got.Slug, "drop-one")
		}

		bySlug, err := s.GetCollectionBySlug(ctx, "drop-one")
		if err != nil {
			t.Fatalf("GetCollectionBySlug: %v", err)
		}
		if bySlug.ID != c.ID {
			t.Fatalf("id = %s, want %s", bySlug.ID, c.ID)
		}
	})

	t.Run("missing collection", func(t *testing.T) {
		if _, err := s.GetCollection(ctx, id.NewCollectionID()); !errors.Is(err, mint.ErrCollectionNotFound) {
			t.Fatalf("err = %v, want ErrCollectionNotFound", err)
		}
		if _, err := s.GetCollectionBySlug(ctx, "nope"); !errors.Is(err, mint.ErrCollectionNotFound) {
			t.Fatalf("err = %v, want ErrCollectionNotFound", err)
		}
	})

	t.Run("update round-trips", func(t *testing.T) {
		c.NextID = 7
		c.Balance = types.USD(60)
		if err := s.UpdateCollection(ctx, c); err != nil {
			t.Fatalf("UpdateCollection: %v", err)
		}
		got, _ := s.GetCollection(ctx, c.ID)
		if got.NextID != 7 || !got.Balance.Equal(types.USD(60)) {
			t.Fatalf("got NextID=%d Balance=%s", got.NextID, got.Balance)
		}
	})

	t.Run("update of unknown collection fails", func(t *testing.T) {
		ghost := newCollection("ghost")
		if err := s.UpdateCollection(ctx, ghost); !errors.Is(err, mint.ErrCollectionNotFound) {
			t.Fatalf("err = %v, want ErrCollectionNotFound", err)
		}
	})

	t.Run("delete frees the slug", func(t *testing.T) {
		if err := s.DeleteCollection(ctx, c.ID); err != nil {
			t.Fatalf("DeleteCollection: %v", err)
		}
		if _, err := s.GetCollection(ctx, c.ID); !errors.Is(err, mint.ErrCollectionNotFound) {
			t.Fatalf("err = %v, want ErrCollectionNotFound", err)
		}
		replacement := newCollection("drop-one")
		if err := s.CreateCollection(ctx, replacement); err != nil {
			t.Fatalf("slug not freed: %v", err)
		}
	})
}

func TestCloneIsolation(t *testing.T) {
	ctx := context.Background()
	s := New()

	c := newCollection("isolated")
	if err := s.CreateCollection(ctx, c); err != nil {
		t.Fatalf("CreateCollection: %v", err)
	}

	// Mutating a read snapshot must not leak into the store
	// until Update persists it.
	got, _ := s.GetCollection(ctx, c.ID)
	got.NextID = 99
	got.Policy.MintOpen = false

	fresh, _ := s.GetCollection(ctx, c.ID)
	if fresh.NextID != 1 || !fresh.Policy.MintOpen {
		t.Fatalf("snapshot mutation leaked: NextID=%d MintOpen=%v", fresh.NextID, fresh.Policy.MintOpen)
	}

	// The caller's struct is cloned on write too.
	c.Name = "Renamed After Create"
	fresh, _ = s.GetCollection(ctx, c.ID)
	if fresh.Name != "Test Drop" {
		t.Fatalf("caller mutation leaked: name = %q", fresh.Name)
	}
}

func TestListCollections(t *testing.T) {
	ctx := context.Background()
	s := New()

	ownerA := types.Addr("0xAAA")
	ownerB := types.Addr("0xBBB")
	for _, owner := range []types.Address{ownerA, ownerA, ownerB} {
		c := newCollection("")
		c.Owner = owner
		if err := s.CreateCollection(ctx, c); err != nil {
			t.Fatalf("CreateCollection: %v", err)
		}
	}

	all, err := s.ListCollections(ctx, collection.ListOpts{})
	if err != nil {
		t.Fatalf("ListCollections: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("got %d collections, want 3", len(all))
	}

	mine, err := s.ListCollections(ctx, collection.ListOpts{Owner: ownerA})
	if err != nil {
		t.Fatalf("ListCollections filtered: %v", err)
	}
	if len(mine) != 2 {
		t.Fatalf("got %d collections for owner, want 2", len(mine))
	}

	page, err := s.ListCollections(ctx, collection.ListOpts{Limit: 2, Offset: 2})
	if err != nil {
		t.Fatalf("ListCollections paged: %v", err)
	}
	if len(page) != 1 {
		t.Fatalf("got %d collections on page, want 1", len(page))
	}
}

func TestWallets(t *testing.T) {
	ctx := context.Background()
	s := New()

	collID := id.NewCollectionID()
	alice := types.Addr("0xAlice")

	if _, err := s.GetWallet(ctx, collID, alice); !errors.Is(err, mint.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}

	w := &quota.Wallet{
		Entity:       types.NewEntity(),
		CollectionID: collID,
		Address:      alice,
		Claimed:      2,
	}
	if err := s.PutWallet(ctx, w); err != nil {
		t.Fatalf("PutWallet: %v", err)
	}

	got, err := s.GetWallet(ctx, collID, alice)
	if err != nil {
		t.Fatalf("GetWallet: %v", err)
	}
	if got.Claimed != 2 {
		t.Fatalf("claimed = %d, want 2", got.Claimed)
	}

	// Put is an upsert.
	w.Claimed = 5
	if err := s.PutWallet(ctx, w); err != nil {
		t.Fatalf("PutWallet upsert: %v", err)
	}
	got, _ = s.GetWallet(ctx, collID, alice)
	if got.Claimed != 5 {
		t.Fatalf("claimed after upsert = %d, want 5", got.Claimed)
	}

	// Wallets are scoped per collection.
	otherColl := id.NewCollectionID()
	if _, err := s.GetWallet(ctx, otherColl, alice); !errors.Is(err, mint.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}

	bob := &quota.Wallet{Entity: types.NewEntity(), CollectionID: collID, Address: types.Addr("0xBob"), Claimed: 1}
	if err := s.PutWallet(ctx, bob); err != nil {
		t.Fatalf("PutWallet: %v", err)
	}
	list, err := s.ListWallets(ctx, collID, quota.ListOpts{})
	if err != nil {
		t.Fatalf("ListWallets: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("got %d wallets, want 2", len(list))
	}
}

func TestEvents(t *testing.T) {
	ctx := context.Background()
	s := New()

	collID := id.NewCollectionID()
	otherColl := id.NewCollectionID()
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	mkEvent := func(cid id.CollectionID, kind journal.Kind, wallet string, at time.Time) *journal.Event {
		return &journal.Event{
			ID:           id.NewMintEventID(),
			CollectionID: cid,
			Kind:         kind,
			Wallet:       types.Addr(wallet),
			Quantity:     1,
			Amount:       types.USD(10),
			Timestamp:    at,
		}
	}

	batch := []*journal.Event{
		mkEvent(collID, journal.KindClaim, "0xAlice", base),
		mkEvent(collID, journal.KindClaim, "0xBob", base.Add(time.Minute)),
		mkEvent(collID, journal.KindGrant, "0xBob", base.Add(2*time.Minute)),
		mkEvent(otherColl, journal.KindClaim, "0xAlice", base),
	}
	if err := s.IngestEvents(ctx, batch); err != nil {
		t.Fatalf("IngestEvents: %v", err)
	}

	t.Run("scoped to the collection", func(t *testing.T) {
		events, err := s.QueryEvents(ctx, collID, journal.QueryOpts{})
		if err != nil {
			t.Fatalf("QueryEvents: %v", err)
		}
		if len(events) != 3 {
			t.Fatalf("got %d events, want 3", len(events))
		}
	})

	t.Run("kind filter", func(t *testing.T) {
		events, err := s.QueryEvents(ctx, collID, journal.QueryOpts{Kind: journal.KindGrant})
		if err != nil {
			t.Fatalf("QueryEvents: %v", err)
		}
		if len(events) != 1 {
			t.Fatalf("got %d grants, want 1", len(events))
		}
	})

	t.Run("wallet filter", func(t *testing.T) {
		events, err := s.QueryEvents(ctx, collID, journal.QueryOpts{Wallet: types.Addr("0xBob")})
		if err != nil {
			t.Fatalf("QueryEvents: %v", err)
		}
		if len(events) != 2 {
			t.Fatalf("got %d events for wallet, want 2", len(events))
		}
	})

	t.Run("time window", func(t *testing.T) {
		events, err := s.QueryEvents(ctx, collID, journal.QueryOpts{
			Start: base.Add(30 * time.Second),
			End:   base.Add(90 * time.Second),
		})
		if err != nil {
			t.Fatalf("QueryEvents: %v", err)
		}
		if len(events) != 1 {
			t.Fatalf("got %d events in window, want 1", len(events))
		}
	})

	t.Run("pagination", func(t *testing.T) {
		events, err := s.QueryEvents(ctx, collID, journal.QueryOpts{Limit: 2, Offset: 2})
		if err != nil {
			t.Fatalf("QueryEvents: %v", err)
		}
		if len(events) != 1 {
			t.Fatalf("got %d events on page, want 1", len(events))
		}
	})

	t.Run("purge removes old events", func(t *testing.T) {
		purged, err := s.PurgeEvents(ctx, base.Add(time.Minute))
		if err != nil {
			t.Fatalf("PurgeEvents: %v", err)
		}
		if purged != 2 {
			t.Fatalf("purged = %d, want 2", purged)
		}
		events, _ := s.QueryEvents(ctx, collID, journal.QueryOpts{})
		if len(events) != 2 {
			t.Fatalf("got %d events after purge, want 2", len(events))
		}
	})
}

func TestWithdrawals(t *testing.T) {
	ctx := context.Background()
	s := New()

	collID := id.NewCollectionID()
	for i := 0; i < 3; i++ {
		w := &treasury.Withdrawal{
			Entity:       types.NewEntity(),
			ID:           id.NewWithdrawalID(),
			CollectionID: collID,
			Destination:  types.Addr("0xStash"),
			Amount:       types.USD(int64(100 * (i + 1))),
		}
		if err := s.CreateWithdrawal(ctx, w); err != nil {
			t.Fatalf("CreateWithdrawal: %v", err)
		}
	}

	list, err := s.ListWithdrawals(ctx, collID, treasury.ListOpts{})
	if err != nil {
		t.Fatalf("ListWithdrawals: %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("got %d withdrawals, want 3", len(list))
	}

	page, err := s.ListWithdrawals(ctx, collID, treasury.ListOpts{Limit: 2})
	if err != nil {
		t.Fatalf("ListWithdrawals paged: %v", err)
	}
	if len(page) != 2 {
		t.Fatalf("got %d withdrawals on page, want 2", len(page))
	}

	other, err := s.ListWithdrawals(ctx, id.NewCollectionID(), treasury.ListOpts{})
	if err != nil {
		t.Fatalf("ListWithdrawals other: %v", err)
	}
	if len(other) != 0 {
		t.Fatalf("got %d withdrawals for other collection, want 0", len(other))
	}
}
