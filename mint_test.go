package mint_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/xraph/mint"
	"github.com/xraph/mint/collection"
	"github.com/xraph/mint/journal"
	"github.com/xraph/mint/quota"
	"github.com/xraph/mint/store"
	"github.com/xraph/mint/store/memory"
	"github.com/xraph/mint/treasury"
	"github.com/xraph/mint/types"
)

var (
	owner  = mint.Addr("0xOwner")
	alice  = mint.Addr("0xAlice")
	bob    = mint.Addr("0xBob")
	stash  = mint.Addr("0xStash")
	outlaw = mint.Addr("0xOutlaw")
)

func newTestMint(t *testing.T, opts ...mint.Option) *mint.Mint {
	t.Helper()
	return mint.New(memory.New(), opts...)
}

func newTestCollection(maxSupply, walletCap uint64, price types.Money) *collection.Collection {
	return &collection.Collection{
		Name:      "Genesis",
		Symbol:    "GEN",
		Slug:      "genesis",
		Owner:     owner,
		MaxSupply: maxSupply,
		Policy: collection.Policy{
			UnitPrice:    price,
			WalletCap:    walletCap,
			MintOpen:     true,
			MetadataBase: "ipfs://meta/",
			Royalty:      collection.Royalty{Receiver: owner, RateBps: 500},
		},
	}
}

func mustCreate(t *testing.T, m *mint.Mint, c *collection.Collection) {
	t.Helper()
	if err := m.CreateCollection(context.Background(), c); err != nil {
		t.Fatalf("CreateCollection: %v", err)
	}
}

func TestCreateCollection(t *testing.T) {
	ctx := context.Background()
	m := newTestMint(t)

	t.Run("assigns id and starts numbering at 1", func(t *testing.T) {
		c := newTestCollection(100, 5, mint.USD(10))
		mustCreate(t, m, c)

		if c.ID.IsNil() {
			t.Fatal("expected collection id to be assigned")
		}
		if c.NextID != 1 {
			t.Fatalf("NextID = %d, want 1", c.NextID)
		}

		got, err := m.GetCollectionBySlug(ctx, "genesis")
		if err != nil {
			t.Fatalf("GetCollectionBySlug: %v", err)
		}
		if got.ID != c.ID {
			t.Fatalf("slug lookup returned %s, want %s", got.ID, c.ID)
		}
	})

	t.Run("rejects zero supply", func(t *testing.T) {
		c := newTestCollection(0, 5, mint.USD(10))
		c.Slug = "empty"
		if err := m.CreateCollection(ctx, c); !errors.Is(err, mint.ErrInvalidSupply) {
			t.Fatalf("err = %v, want ErrInvalidSupply", err)
		}
	})

	t.Run("rejects royalty above 10000 bps", func(t *testing.T) {
		c := newTestCollection(100, 5, mint.USD(10))
		c.Slug = "greedy"
		c.Policy.Royalty.RateBps = 10001
		if err := m.CreateCollection(ctx, c); !errors.Is(err, mint.ErrInvalidRoyalty) {
			t.Fatalf("err = %v, want ErrInvalidRoyalty", err)
		}
	})
}

func TestClaim(t *testing.T) {
	ctx := context.Background()

	t.Run("issues contiguous ids from 1", func(t *testing.T) {
		m := newTestMint(t)
		c := newTestCollection(100, 10, mint.USD(10))
		mustCreate(t, m, c)

		ids, err := m.Claim(ctx, c.ID, alice, 3, mint.USD(30))
		if err != nil {
			t.Fatalf("Claim: %v", err)
		}
		want := []uint64{1, 2, 3}
		if len(ids) != len(want) {
			t.Fatalf("got %d ids, want %d", len(ids), len(want))
		}
		for i, id := range ids {
			if id != want[i] {
				t.Fatalf("ids[%d] = %d, want %d", i, id, want[i])
			}
		}

		more, err := m.Claim(ctx, c.ID, bob, 2, mint.USD(20))
		if err != nil {
			t.Fatalf("Claim: %v", err)
		}
		if more[0] != 4 || more[1] != 5 {
			t.Fatalf("second claim ids = %v, want [4 5]", more)
		}
	})

	t.Run("tokens are owned by the claimer", func(t *testing.T) {
		m := newTestMint(t)
		c := newTestCollection(100, 10, mint.USD(10))
		mustCreate(t, m, c)

		if _, err := m.Claim(ctx, c.ID, alice, 2, mint.USD(20)); err != nil {
			t.Fatalf("Claim: %v", err)
		}

		got, err := m.Registry().OwnerOf(ctx, c.ID, 1)
		if err != nil {
			t.Fatalf("OwnerOf: %v", err)
		}
		if !got.Equal(alice) {
			t.Fatalf("owner = %s, want %s", got, alice)
		}
	})

	t.Run("rejects when mint is closed but grant still works", func(t *testing.T) {
		m := newTestMint(t)
		c := newTestCollection(100, 10, mint.USD(10))
		c.Policy.MintOpen = false
		mustCreate(t, m, c)

		if _, err := m.Claim(ctx, c.ID, alice, 1, mint.USD(10)); !errors.Is(err, mint.ErrMintClosed) {
			t.Fatalf("err = %v, want ErrMintClosed", err)
		}

		ids, err := m.Grant(ctx, c.ID, owner, bob, 1)
		if err != nil {
			t.Fatalf("Grant with closed gate: %v", err)
		}
		if ids[0] != 1 {
			t.Fatalf("granted id = %d, want 1", ids[0])
		}
	})

	t.Run("rejects zero and oversized quantities", func(t *testing.T) {
		m := newTestMint(t)
		c := newTestCollection(100, 50, mint.USD(10))
		mustCreate(t, m, c)

		if _, err := m.Claim(ctx, c.ID, alice, 0, mint.Zero("usd")); !errors.Is(err, mint.ErrInvalidQuantity) {
			t.Fatalf("quantity 0: err = %v, want ErrInvalidQuantity", err)
		}
		if _, err := m.Claim(ctx, c.ID, alice, 11, mint.USD(110)); !errors.Is(err, mint.ErrInvalidQuantity) {
			t.Fatalf("quantity 11: err = %v, want ErrInvalidQuantity", err)
		}
	})

	t.Run("rejects inexact payment", func(t *testing.T) {
		m := newTestMint(t)
		c := newTestCollection(100, 10, mint.USD(10))
		mustCreate(t, m, c)

		for _, paid := range []types.Money{mint.USD(19), mint.USD(21), mint.Zero("usd")} {
			if _, err := m.Claim(ctx, c.ID, alice, 2, paid); !errors.Is(err, mint.ErrWrongPayment) {
				t.Fatalf("payment %s: err = %v, want ErrWrongPayment", paid, err)
			}
		}

		// Exact payment succeeds.
		if _, err := m.Claim(ctx, c.ID, alice, 2, mint.USD(20)); err != nil {
			t.Fatalf("exact payment: %v", err)
		}
	})

	t.Run("free mint requires zero payment", func(t *testing.T) {
		m := newTestMint(t)
		c := newTestCollection(100, 10, mint.Zero("usd"))
		mustCreate(t, m, c)

		if _, err := m.Claim(ctx, c.ID, alice, 1, mint.USD(1)); !errors.Is(err, mint.ErrWrongPayment) {
			t.Fatalf("err = %v, want ErrWrongPayment", err)
		}
		if _, err := m.Claim(ctx, c.ID, alice, 1, mint.Zero("usd")); err != nil {
			t.Fatalf("free claim: %v", err)
		}
	})

	t.Run("enforces the supply cap across claims and grants", func(t *testing.T) {
		m := newTestMint(t)
		c := newTestCollection(3, 10, mint.USD(10))
		mustCreate(t, m, c)

		if _, err := m.Claim(ctx, c.ID, alice, 2, mint.USD(20)); err != nil {
			t.Fatalf("Claim: %v", err)
		}
		if _, err := m.Grant(ctx, c.ID, owner, bob, 1); err != nil {
			t.Fatalf("Grant: %v", err)
		}

		// Cap reached: both paths fail permanently.
		if _, err := m.Claim(ctx, c.ID, bob, 1, mint.USD(10)); !errors.Is(err, mint.ErrSupplyExhausted) {
			t.Fatalf("claim past cap: err = %v, want ErrSupplyExhausted", err)
		}
		if _, err := m.Grant(ctx, c.ID, owner, bob, 1); !errors.Is(err, mint.ErrSupplyExhausted) {
			t.Fatalf("grant past cap: err = %v, want ErrSupplyExhausted", err)
		}

		remaining, err := m.RemainingSupply(ctx, c.ID)
		if err != nil {
			t.Fatalf("RemainingSupply: %v", err)
		}
		if remaining != 0 {
			t.Fatalf("remaining = %d, want 0", remaining)
		}
	})

	t.Run("enforces the wallet cap", func(t *testing.T) {
		// totalCap=3, walletCap=2, price=10.
		m := newTestMint(t)
		c := newTestCollection(3, 2, mint.USD(10))
		mustCreate(t, m, c)

		if _, err := m.Claim(ctx, c.ID, alice, 2, mint.USD(20)); err != nil {
			t.Fatalf("A claims 2: %v", err)
		}
		if _, err := m.Claim(ctx, c.ID, alice, 1, mint.USD(10)); !errors.Is(err, mint.ErrWalletCapExceeded) {
			t.Fatalf("A claims 1 more: err = %v, want ErrWalletCapExceeded", err)
		}
		ids, err := m.Claim(ctx, c.ID, bob, 1, mint.USD(10))
		if err != nil {
			t.Fatalf("B claims 1: %v", err)
		}
		if ids[0] != 3 {
			t.Fatalf("B's id = %d, want 3", ids[0])
		}
		if _, err := m.Claim(ctx, c.ID, bob, 1, mint.USD(10)); !errors.Is(err, mint.ErrSupplyExhausted) {
			t.Fatalf("B claims past cap: err = %v, want ErrSupplyExhausted", err)
		}
	})

	t.Run("failed claim leaves no partial state", func(t *testing.T) {
		m := newTestMint(t)
		c := newTestCollection(100, 2, mint.USD(10))
		mustCreate(t, m, c)

		if _, err := m.Claim(ctx, c.ID, alice, 2, mint.USD(20)); err != nil {
			t.Fatalf("Claim: %v", err)
		}

		// Quota rejection: nothing moves.
		if _, err := m.Claim(ctx, c.ID, alice, 1, mint.USD(10)); !errors.Is(err, mint.ErrWalletCapExceeded) {
			t.Fatalf("err = %v, want ErrWalletCapExceeded", err)
		}

		issued, _ := m.Issued(ctx, c.ID)
		if issued != 2 {
			t.Fatalf("issued = %d, want 2", issued)
		}
		balance, _ := m.Balance(ctx, c.ID)
		if !balance.Equal(mint.USD(20)) {
			t.Fatalf("balance = %s, want $0.20", balance)
		}
		claimed, _ := m.WalletClaimed(ctx, c.ID, alice)
		if claimed != 2 {
			t.Fatalf("claimed = %d, want 2", claimed)
		}

		// Payment rejection next to it: ids stay contiguous afterwards.
		if _, err := m.Claim(ctx, c.ID, bob, 1, mint.USD(99)); !errors.Is(err, mint.ErrWrongPayment) {
			t.Fatalf("err = %v, want ErrWrongPayment", err)
		}
		ids, err := m.Claim(ctx, c.ID, bob, 1, mint.USD(10))
		if err != nil {
			t.Fatalf("Claim after rejection: %v", err)
		}
		if ids[0] != 3 {
			t.Fatalf("id after failed attempts = %d, want 3", ids[0])
		}
	})
}

func TestGrant(t *testing.T) {
	ctx := context.Background()

	t.Run("owner only", func(t *testing.T) {
		m := newTestMint(t)
		c := newTestCollection(100, 2, mint.USD(10))
		mustCreate(t, m, c)

		if _, err := m.Grant(ctx, c.ID, outlaw, bob, 1); !errors.Is(err, mint.ErrUnauthorized) {
			t.Fatalf("err = %v, want ErrUnauthorized", err)
		}
	})

	t.Run("bypasses the wallet quota", func(t *testing.T) {
		m := newTestMint(t)
		c := newTestCollection(100, 2, mint.USD(10))
		mustCreate(t, m, c)

		if _, err := m.Claim(ctx, c.ID, alice, 2, mint.USD(20)); err != nil {
			t.Fatalf("Claim: %v", err)
		}
		// Alice is at her cap, but a grant to her still succeeds and does
		// not count against the quota.
		if _, err := m.Grant(ctx, c.ID, owner, alice, 5); err != nil {
			t.Fatalf("Grant: %v", err)
		}
		claimed, err := m.WalletClaimed(ctx, c.ID, alice)
		if err != nil {
			t.Fatalf("WalletClaimed: %v", err)
		}
		if claimed != 2 {
			t.Fatalf("claimed = %d, want 2 (grants uncounted)", claimed)
		}
	})

	t.Run("rejects zero quantity", func(t *testing.T) {
		m := newTestMint(t)
		c := newTestCollection(100, 2, mint.USD(10))
		mustCreate(t, m, c)

		if _, err := m.Grant(ctx, c.ID, owner, bob, 0); !errors.Is(err, mint.ErrInvalidQuantity) {
			t.Fatalf("err = %v, want ErrInvalidQuantity", err)
		}
	})

	t.Run("collects no payment", func(t *testing.T) {
		m := newTestMint(t)
		c := newTestCollection(100, 2, mint.USD(10))
		mustCreate(t, m, c)

		if _, err := m.Grant(ctx, c.ID, owner, bob, 3); err != nil {
			t.Fatalf("Grant: %v", err)
		}
		balance, err := m.Balance(ctx, c.ID)
		if err != nil {
			t.Fatalf("Balance: %v", err)
		}
		if !balance.IsZero() {
			t.Fatalf("balance = %s, want zero", balance)
		}
	})
}

func TestWithdraw(t *testing.T) {
	ctx := context.Background()

	t.Run("transfers the whole balance", func(t *testing.T) {
		vault := treasury.NewVault()
		m := newTestMint(t, mint.WithReceiver(vault))
		c := newTestCollection(100, 10, mint.USD(10))
		mustCreate(t, m, c)

		if _, err := m.Claim(ctx, c.ID, alice, 4, mint.USD(40)); err != nil {
			t.Fatalf("Claim: %v", err)
		}

		w, err := m.Withdraw(ctx, c.ID, owner, stash)
		if err != nil {
			t.Fatalf("Withdraw: %v", err)
		}
		if !w.Amount.Equal(mint.USD(40)) {
			t.Fatalf("withdrawn = %s, want $0.40", w.Amount)
		}
		if got := vault.Balance(stash, "usd"); !got.Equal(mint.USD(40)) {
			t.Fatalf("vault balance = %s, want $0.40", got)
		}

		balance, _ := m.Balance(ctx, c.ID)
		if !balance.IsZero() {
			t.Fatalf("collection balance = %s, want zero", balance)
		}
	})

	t.Run("owner only", func(t *testing.T) {
		m := newTestMint(t)
		c := newTestCollection(100, 10, mint.USD(10))
		mustCreate(t, m, c)

		if _, err := m.Withdraw(ctx, c.ID, outlaw, stash); !errors.Is(err, mint.ErrUnauthorized) {
			t.Fatalf("err = %v, want ErrUnauthorized", err)
		}
	})

	t.Run("rejecting destination leaves the balance unchanged", func(t *testing.T) {
		reject := treasury.ReceiverFunc(func(context.Context, types.Address, types.Money) error {
			return errors.New("account frozen")
		})
		m := newTestMint(t, mint.WithReceiver(reject))
		c := newTestCollection(100, 10, mint.USD(10))
		mustCreate(t, m, c)

		if _, err := m.Claim(ctx, c.ID, alice, 2, mint.USD(20)); err != nil {
			t.Fatalf("Claim: %v", err)
		}
		if _, err := m.Withdraw(ctx, c.ID, owner, stash); !errors.Is(err, mint.ErrTransferFailed) {
			t.Fatalf("err = %v, want ErrTransferFailed", err)
		}

		balance, _ := m.Balance(ctx, c.ID)
		if !balance.Equal(mint.USD(20)) {
			t.Fatalf("balance after failed withdrawal = %s, want $0.20", balance)
		}
	})
}

func TestPolicyAdministration(t *testing.T) {
	ctx := context.Background()

	t.Run("setters are owner-gated", func(t *testing.T) {
		m := newTestMint(t)
		c := newTestCollection(100, 10, mint.USD(10))
		mustCreate(t, m, c)

		checks := map[string]error{
			"SetPrice":        m.SetPrice(ctx, c.ID, outlaw, mint.USD(20)),
			"SetWalletCap":    m.SetWalletCap(ctx, c.ID, outlaw, 1),
			"SetMintOpen":     m.SetMintOpen(ctx, c.ID, outlaw, false),
			"SetMetadataBase": m.SetMetadataBase(ctx, c.ID, outlaw, "ipfs://other/"),
			"SetRoyalty":      m.SetRoyalty(ctx, c.ID, outlaw, collection.Royalty{Receiver: outlaw, RateBps: 100}),
		}
		for name, err := range checks {
			if !errors.Is(err, mint.ErrUnauthorized) {
				t.Errorf("%s: err = %v, want ErrUnauthorized", name, err)
			}
		}
	})

	t.Run("price change applies to subsequent claims", func(t *testing.T) {
		m := newTestMint(t)
		c := newTestCollection(100, 10, mint.USD(10))
		mustCreate(t, m, c)

		if err := m.SetPrice(ctx, c.ID, owner, mint.USD(25)); err != nil {
			t.Fatalf("SetPrice: %v", err)
		}
		if _, err := m.Claim(ctx, c.ID, alice, 1, mint.USD(10)); !errors.Is(err, mint.ErrWrongPayment) {
			t.Fatalf("old price: err = %v, want ErrWrongPayment", err)
		}
		if _, err := m.Claim(ctx, c.ID, alice, 1, mint.USD(25)); err != nil {
			t.Fatalf("new price: %v", err)
		}
	})

	t.Run("lowering the cap below an existing count only blocks further claims", func(t *testing.T) {
		m := newTestMint(t)
		c := newTestCollection(100, 5, mint.USD(10))
		mustCreate(t, m, c)

		if _, err := m.Claim(ctx, c.ID, alice, 3, mint.USD(30)); err != nil {
			t.Fatalf("Claim: %v", err)
		}
		if err := m.SetWalletCap(ctx, c.ID, owner, 1); err != nil {
			t.Fatalf("SetWalletCap: %v", err)
		}

		// Existing tokens are kept.
		claimed, _ := m.WalletClaimed(ctx, c.ID, alice)
		if claimed != 3 {
			t.Fatalf("claimed = %d, want 3", claimed)
		}

		status, err := m.QuotaStatus(ctx, c.ID, alice)
		if err != nil {
			t.Fatalf("QuotaStatus: %v", err)
		}
		if status.Remaining != 0 {
			t.Fatalf("remaining = %d, want 0", status.Remaining)
		}

		if _, err := m.Claim(ctx, c.ID, alice, 1, mint.USD(10)); !errors.Is(err, mint.ErrWalletCapExceeded) {
			t.Fatalf("err = %v, want ErrWalletCapExceeded", err)
		}
	})

	t.Run("currency change requires an empty balance", func(t *testing.T) {
		m := newTestMint(t)
		c := newTestCollection(100, 10, mint.USD(10))
		mustCreate(t, m, c)

		if _, err := m.Claim(ctx, c.ID, alice, 1, mint.USD(10)); err != nil {
			t.Fatalf("Claim: %v", err)
		}

		// Balance holds usd, so a eur price is rejected outright.
		if err := m.SetPrice(ctx, c.ID, owner, mint.EUR(10)); !errors.Is(err, mint.ErrCurrencyMismatch) {
			t.Fatalf("err = %v, want ErrCurrencyMismatch", err)
		}
		if _, err := m.Claim(ctx, c.ID, bob, 1, mint.USD(10)); err != nil {
			t.Fatalf("claim at the unchanged price: %v", err)
		}

		// An emptied balance follows the new currency.
		if _, err := m.Withdraw(ctx, c.ID, owner, stash); err != nil {
			t.Fatalf("Withdraw: %v", err)
		}
		if err := m.SetPrice(ctx, c.ID, owner, mint.EUR(10)); err != nil {
			t.Fatalf("SetPrice after withdrawal: %v", err)
		}
		if _, err := m.Claim(ctx, c.ID, alice, 1, mint.EUR(10)); err != nil {
			t.Fatalf("claim at the eur price: %v", err)
		}
		balance, _ := m.Balance(ctx, c.ID)
		if !balance.Equal(mint.EUR(10)) {
			t.Fatalf("balance = %s, want €0.10", balance)
		}
	})

	t.Run("rejects royalty above 10000 bps", func(t *testing.T) {
		m := newTestMint(t)
		c := newTestCollection(100, 5, mint.USD(10))
		mustCreate(t, m, c)

		bad := collection.Royalty{Receiver: owner, RateBps: 10001}
		if err := m.SetRoyalty(ctx, c.ID, owner, bad); !errors.Is(err, mint.ErrInvalidRoyalty) {
			t.Fatalf("err = %v, want ErrInvalidRoyalty", err)
		}
		if err := m.SetPolicy(ctx, c.ID, owner, collection.Policy{Royalty: bad}); !errors.Is(err, mint.ErrInvalidRoyalty) {
			t.Fatalf("SetPolicy: err = %v, want ErrInvalidRoyalty", err)
		}
	})
}

func TestQueries(t *testing.T) {
	ctx := context.Background()

	t.Run("token uri for issued tokens only", func(t *testing.T) {
		m := newTestMint(t)
		c := newTestCollection(100, 10, mint.USD(10))
		mustCreate(t, m, c)

		if _, err := m.Claim(ctx, c.ID, alice, 2, mint.USD(20)); err != nil {
			t.Fatalf("Claim: %v", err)
		}

		uri, err := m.TokenURI(ctx, c.ID, 2)
		if err != nil {
			t.Fatalf("TokenURI: %v", err)
		}
		if uri != "ipfs://meta/2" {
			t.Fatalf("uri = %q, want %q", uri, "ipfs://meta/2")
		}

		if _, err := m.TokenURI(ctx, c.ID, 3); !errors.Is(err, mint.ErrNotFound) {
			t.Fatalf("unissued id: err = %v, want ErrNotFound", err)
		}
		if _, err := m.TokenURI(ctx, c.ID, 0); !errors.Is(err, mint.ErrNotFound) {
			t.Fatalf("id 0: err = %v, want ErrNotFound", err)
		}
	})

	t.Run("royalty info computes from policy", func(t *testing.T) {
		m := newTestMint(t)
		c := newTestCollection(100, 10, mint.USD(10))
		mustCreate(t, m, c)

		if _, err := m.Claim(ctx, c.ID, alice, 1, mint.USD(10)); err != nil {
			t.Fatalf("Claim: %v", err)
		}

		receiver, amount, err := m.RoyaltyInfo(ctx, c.ID, 1, mint.USD(10000))
		if err != nil {
			t.Fatalf("RoyaltyInfo: %v", err)
		}
		if !receiver.Equal(owner) {
			t.Fatalf("receiver = %s, want %s", receiver, owner)
		}
		// 500 bps of $100.00 = $5.00
		if !amount.Equal(mint.USD(500)) {
			t.Fatalf("amount = %s, want $5.00", amount)
		}
	})

	t.Run("wallet with no claims reports zero", func(t *testing.T) {
		m := newTestMint(t)
		c := newTestCollection(100, 10, mint.USD(10))
		mustCreate(t, m, c)

		claimed, err := m.WalletClaimed(ctx, c.ID, alice)
		if err != nil {
			t.Fatalf("WalletClaimed: %v", err)
		}
		if claimed != 0 {
			t.Fatalf("claimed = %d, want 0", claimed)
		}
	})
}

// faultStore wraps a Store and fails selected writes, standing in for a
// backend hitting I/O errors mid-claim.
type faultStore struct {
	store.Store
	failPutWallet bool
	failUpdate    bool
}

var errDiskFull = errors.New("disk full")

func (s *faultStore) PutWallet(ctx context.Context, w *quota.Wallet) error {
	if s.failPutWallet {
		return errDiskFull
	}
	return s.Store.PutWallet(ctx, w)
}

func (s *faultStore) UpdateCollection(ctx context.Context, c *collection.Collection) error {
	if s.failUpdate {
		return errDiskFull
	}
	return s.Store.UpdateCollection(ctx, c)
}

func TestClaimWriteFailures(t *testing.T) {
	ctx := context.Background()

	t.Run("wallet write failure persists nothing", func(t *testing.T) {
		fs := &faultStore{Store: memory.New()}
		m := mint.New(fs)
		c := newTestCollection(100, 10, mint.USD(10))
		mustCreate(t, m, c)

		fs.failPutWallet = true
		if _, err := m.Claim(ctx, c.ID, alice, 1, mint.USD(10)); !errors.Is(err, errDiskFull) {
			t.Fatalf("err = %v, want the store error", err)
		}

		issued, _ := m.Issued(ctx, c.ID)
		if issued != 0 {
			t.Fatalf("issued = %d, want 0", issued)
		}
		balance, _ := m.Balance(ctx, c.ID)
		if !balance.IsZero() {
			t.Fatalf("balance = %s, want zero", balance)
		}
		claimed, _ := m.WalletClaimed(ctx, c.ID, alice)
		if claimed != 0 {
			t.Fatalf("claimed = %d, want 0", claimed)
		}
	})

	t.Run("collection write failure restores the wallet count", func(t *testing.T) {
		fs := &faultStore{Store: memory.New()}
		m := mint.New(fs)
		c := newTestCollection(100, 10, mint.USD(10))
		mustCreate(t, m, c)

		fs.failUpdate = true
		if _, err := m.Claim(ctx, c.ID, alice, 2, mint.USD(20)); !errors.Is(err, errDiskFull) {
			t.Fatalf("err = %v, want the store error", err)
		}

		claimed, _ := m.WalletClaimed(ctx, c.ID, alice)
		if claimed != 0 {
			t.Fatalf("claimed = %d, want 0", claimed)
		}
		issued, _ := m.Issued(ctx, c.ID)
		if issued != 0 {
			t.Fatalf("issued = %d, want 0", issued)
		}

		// The store recovers: the next claim starts the run at 1.
		fs.failUpdate = false
		ids, err := m.Claim(ctx, c.ID, alice, 1, mint.USD(10))
		if err != nil {
			t.Fatalf("Claim after recovery: %v", err)
		}
		if ids[0] != 1 {
			t.Fatalf("id = %d, want 1", ids[0])
		}
	})
}

func TestJournal(t *testing.T) {
	ctx := context.Background()

	m := newTestMint(t, mint.WithJournalConfig(1, 10*time.Millisecond))
	if err := m.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}

	c := newTestCollection(100, 10, mint.USD(10))
	mustCreate(t, m, c)

	if _, err := m.Claim(ctx, c.ID, alice, 2, mint.USD(20)); err != nil {
		t.Fatalf("Claim: %v", err)
	}
	if _, err := m.Grant(ctx, c.ID, owner, bob, 1); err != nil {
		t.Fatalf("Grant: %v", err)
	}
	if _, err := m.Withdraw(ctx, c.ID, owner, stash); err != nil {
		t.Fatalf("Withdraw: %v", err)
	}

	// Stop drains and flushes the buffer.
	if err := m.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}

	events, err := m.Events(ctx, c.ID, journal.QueryOpts{})
	if err != nil {
		t.Fatalf("Events: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("got %d events, want 3", len(events))
	}

	byKind := make(map[journal.Kind]*journal.Event)
	for _, e := range events {
		byKind[e.Kind] = e
	}

	claim := byKind[journal.KindClaim]
	if claim == nil {
		t.Fatal("missing claim event")
	}
	if claim.Quantity != 2 || claim.FirstTokenID != 1 || !claim.Amount.Equal(mint.USD(20)) {
		t.Fatalf("claim event = %+v", claim)
	}

	grant := byKind[journal.KindGrant]
	if grant == nil {
		t.Fatal("missing grant event")
	}
	if grant.Quantity != 1 || grant.FirstTokenID != 3 || !grant.Wallet.Equal(bob) {
		t.Fatalf("grant event = %+v", grant)
	}

	withdrawal := byKind[journal.KindWithdrawal]
	if withdrawal == nil {
		t.Fatal("missing withdrawal event")
	}
	if !withdrawal.Amount.Equal(mint.USD(20)) || !withdrawal.Wallet.Equal(stash) {
		t.Fatalf("withdrawal event = %+v", withdrawal)
	}

	// Kind filter.
	claims, err := m.Events(ctx, c.ID, journal.QueryOpts{Kind: journal.KindClaim})
	if err != nil {
		t.Fatalf("Events filtered: %v", err)
	}
	if len(claims) != 1 {
		t.Fatalf("got %d claim events, want 1", len(claims))
	}
}
