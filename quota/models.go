// Package quota tracks how many tokens each wallet has claimed from a
// collection. Records are created lazily on a wallet's first claim and are
// never deleted. Owner grants bypass this ledger entirely: the wallet cap
// governs self-service claims only.
package quota

import (
	"github.com/xraph/mint/id"
	"github.com/xraph/mint/types"
)

// Wallet is one wallet's claim counter within a collection.
type Wallet struct {
	types.Entity
	CollectionID id.CollectionID `json:"collection_id"`
	Address      types.Address   `json:"address"`
	Claimed      uint64          `json:"claimed"`
}

// Clone returns a copy of the wallet record.
func (w *Wallet) Clone() *Wallet {
	dup := *w
	return &dup
}

// Status is the result of a quota check for a wallet.
type Status struct {
	Allowed   bool          `json:"allowed"`
	Address   types.Address `json:"address"`
	Claimed   uint64        `json:"claimed"`
	Cap       uint64        `json:"cap"`
	Remaining uint64        `json:"remaining"`
	Reason    string        `json:"reason,omitempty"`
}

// Check evaluates whether a wallet with claimed tokens may claim quantity
// more under walletCap. Remaining never reports a negative headroom: when
// the cap was lowered below an existing count, Remaining is 0 and only
// further claims are blocked.
func Check(address types.Address, claimed, quantity, walletCap uint64) Status {
	s := Status{
		Address: address,
		Claimed: claimed,
		Cap:     walletCap,
	}
	if claimed < walletCap {
		s.Remaining = walletCap - claimed
	}
	if quantity > s.Remaining {
		s.Reason = "wallet cap exceeded"
		return s
	}
	s.Allowed = true
	return s
}

// ListOpts filters wallet listings.
type ListOpts struct {
	Limit  int
	Offset int
}
