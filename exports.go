package mint

import "github.com/xraph/mint/types"

// Re-export common types for convenience so users don't have to import types package.

// Money is re-exported from types package.
type Money = types.Money

// Entity is re-exported from types package.
type Entity = types.Entity

// Address is re-exported from types package.
type Address = types.Address

// Re-export Money constructors
var (
	USD  = types.USD
	EUR  = types.EUR
	GBP  = types.GBP
	JPY  = types.JPY
	Zero = types.Zero
	Sum  = types.Sum
)

// Re-export Entity and Address constructors
var (
	NewEntity = types.NewEntity
	Addr      = types.Addr
)
