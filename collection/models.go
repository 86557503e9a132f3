package collection

import (
	"math"
	"strconv"

	"github.com/xraph/mint/id"
	"github.com/xraph/mint/types"
)

// MaxRoyaltyBps is the upper bound for a royalty rate: 10000 basis points
// means the full sale price.
const MaxRoyaltyBps = 10000

// Royalty is the secondary-sale royalty policy advertised alongside every
// token in a collection.
type Royalty struct {
	Receiver types.Address `json:"receiver"`
	RateBps  uint32        `json:"rate_bps"`
}

// Valid reports whether the royalty rate is within the allowed range.
func (r Royalty) Valid() bool { return r.RateBps <= MaxRoyaltyBps }

// Amount computes the royalty owed on a sale price.
func (r Royalty) Amount(salePrice types.Money) types.Money {
	return salePrice.Share(int64(r.RateBps), MaxRoyaltyBps)
}

// Policy holds the owner-mutable issuance parameters of a collection.
// Every field may be changed after deployment, but only by the owner.
type Policy struct {
	// UnitPrice is the exact price per token. Claims must attach exactly
	// UnitPrice times quantity; overpayment is rejected, not refunded.
	UnitPrice types.Money `json:"unit_price"`

	// WalletCap limits how many tokens a single wallet may claim over the
	// collection's lifetime. Lowering it below a wallet's existing count
	// only blocks further claims; it never retroactively fails past ones.
	WalletCap uint64 `json:"wallet_cap"`

	// MintOpen gates self-service claims. Owner grants ignore it.
	MintOpen bool `json:"mint_open"`

	// MetadataBase is the URI prefix token metadata is served under.
	MetadataBase string `json:"metadata_base"`

	Royalty Royalty `json:"royalty"`
}

// Collection is one issuance state machine: an immutable deployment config
// (name, symbol, supply cap, owner) plus the mutable Policy, the supply
// cursor and the collected balance. NextID and Balance are only ever
// mutated by the engine inside its per-collection critical section.
type Collection struct {
	types.Entity
	ID     id.CollectionID `json:"id"`
	Slug   string          `json:"slug"`
	Name   string          `json:"name"`
	Symbol string          `json:"symbol"`

	// Owner is the only identity allowed to run administrative operations.
	Owner types.Address `json:"owner"`

	// MaxSupply is the immutable cap on tokens ever issued.
	MaxSupply uint64 `json:"max_supply"`

	// NextID is the next unissued token id. Starts at 1, increases
	// monotonically, never reused, even across failed attempts.
	NextID uint64 `json:"next_id"`

	Policy Policy `json:"policy"`

	// Balance is the sum of payments collected and not yet withdrawn.
	Balance types.Money `json:"balance"`

	Metadata map[string]string `json:"metadata,omitempty"`
}

// Issued returns the number of tokens issued so far.
func (c *Collection) Issued() uint64 { return c.NextID - 1 }

// Remaining returns how many tokens can still be issued.
func (c *Collection) Remaining() uint64 {
	if c.Issued() >= c.MaxSupply {
		return 0
	}
	return c.MaxSupply - c.Issued()
}

// SoldOut reports whether the supply cap has been reached. Once true it is
// permanent: NextID never decreases.
func (c *Collection) SoldOut() bool { return c.Issued() >= c.MaxSupply }

// CanIssue is the pure supply check: it reports whether quantity more tokens
// fit under the cap. It rejects uint64 overflow of the id range upfront and
// never mutates state; Advance performs the mutation after all checks pass.
func (c *Collection) CanIssue(quantity uint64) bool {
	if quantity == 0 {
		return false
	}
	if c.NextID > math.MaxUint64-(quantity-1) {
		return false
	}
	return c.NextID+quantity-1 <= c.MaxSupply
}

// Advance moves the supply cursor forward by quantity and returns the first
// id of the reserved run. Callers must have checked CanIssue under the same
// critical section; no other claim may interleave between check and advance.
func (c *Collection) Advance(quantity uint64) uint64 {
	first := c.NextID
	c.NextID += quantity
	return first
}

// TokenURI returns the metadata URI for a token id: MetadataBase + id.
func (c *Collection) TokenURI(tokenID uint64) string {
	return c.Policy.MetadataBase + strconv.FormatUint(tokenID, 10)
}

// RoyaltyInfo returns the royalty receiver and amount for a sale price,
// computed from the stored policy. The token id does not influence the
// result; every token in a collection shares one royalty policy.
func (c *Collection) RoyaltyInfo(salePrice types.Money) (types.Address, types.Money) {
	return c.Policy.Royalty.Receiver, c.Policy.Royalty.Amount(salePrice)
}

// Clone returns a deep copy. Stores hand out clones so that engine
// mutations stay invisible until persisted; a failed operation must leave
// the stored state byte-identical.
func (c *Collection) Clone() *Collection {
	dup := *c
	if c.Metadata != nil {
		dup.Metadata = make(map[string]string, len(c.Metadata))
		for k, v := range c.Metadata {
			dup.Metadata[k] = v
		}
	}
	return &dup
}
