// Package mint provides an embeddable token-issuance engine for Go applications.
//
// Mint is designed as a library, not a service. Import it directly into your Go
// application and drive it from your own transport. It provides:
//
//   - Safe issuance of uniquely numbered tokens under a hard supply cap
//   - Per-wallet claim quotas with exact-payment validation
//   - Owner-gated policy administration (price, cap, gate, metadata, royalty)
//   - Fund custody with all-or-nothing withdrawals
//   - A batched issuance journal for activity queries
//   - Pluggable lifecycle hooks for metrics and audit trails
//
// # Quick Start
//
// Create a mint instance with your preferred store:
//
//	import (
//	    "github.com/xraph/mint"
//	    "github.com/xraph/mint/store/postgres"
//	)
//
//	// Initialize store
//	store, err := postgres.Open(databaseURL)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Create engine
//	m := mint.New(store)
//
//	// Start the engine (migrates and begins background workers)
//	if err := m.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer m.Stop()
//
// # Core Concepts
//
// Collections define an issuance state machine: an immutable supply cap and
// owner plus a mutable policy:
//
//	coll := &collection.Collection{
//	    Name:      "Genesis",
//	    Symbol:    "GEN",
//	    Owner:     mint.Addr("0xowner"),
//	    MaxSupply: 10000,
//	    Policy: collection.Policy{
//	        UnitPrice: mint.USD(500),
//	        WalletCap: 5,
//	        MintOpen:  true,
//	    },
//	}
//	err := m.CreateCollection(ctx, coll)
//
// Claims issue sequential token ids against exact payment:
//
//	tokenIDs, err := m.Claim(ctx, coll.ID, wallet, 2, mint.USD(1000))
//
// Grants are owner-trusted issuance that bypasses payment and quota:
//
//	tokenIDs, err := m.Grant(ctx, coll.ID, owner, recipient, 3)
//
// # Consistency
//
// Every mutating operation runs its whole read-check-write sequence under an
// exclusive per-collection lock, and nothing is persisted until every check
// has passed. A failed call leaves stored state untouched: no token ids are
// issued, no counters move, and the attached payment is never captured.
//
// Token ids within a collection are contiguous from 1 and never reused, even
// across failed attempts.
//
// All monetary calculations use integer arithmetic to avoid floating-point
// precision issues. The Money type represents amounts in the smallest currency
// unit (cents for USD, pence for GBP, etc).
//
// # TypeID
//
// Collections, journal events and withdrawals use TypeID for globally unique,
// type-safe identifiers:
//
//	col_01h2xcejqtf2nbrexx3vqjhp41  // Collection ID
//	evt_01h2xcejqtf2nbrexx3vqjhp41  // Journal event ID
//	wdr_01h455vb4pex5vsknk084sn02q  // Withdrawal ID
//
// Token ids themselves stay plain uint64 so the contiguous numbering the
// issuance contract promises is visible in the API.
package mint
