// Package journal records issuance activity. Every successful claim, grant
// and withdrawal produces an Event; events are buffered by the engine and
// flushed to the store in batches by a background worker.
package journal

import (
	"time"

	"github.com/xraph/mint/id"
	"github.com/xraph/mint/types"
)

// Kind classifies a journal event.
type Kind string

const (
	KindClaim      Kind = "claim"
	KindGrant      Kind = "grant"
	KindWithdrawal Kind = "withdrawal"
)

// Event is one issuance journal entry.
type Event struct {
	ID           id.MintEventID  `json:"id"`
	CollectionID id.CollectionID `json:"collection_id"`
	Kind         Kind            `json:"kind"`

	// Wallet is the claimer for claims, the grantee for grants and the
	// destination for withdrawals.
	Wallet types.Address `json:"wallet"`

	// Quantity is the number of tokens issued; zero for withdrawals.
	Quantity uint64 `json:"quantity"`

	// FirstTokenID is the first id of a contiguous issued run; zero for
	// withdrawals.
	FirstTokenID uint64 `json:"first_token_id,omitempty"`

	// Amount is the payment collected (claims) or funds moved (withdrawals).
	Amount types.Money `json:"amount"`

	Timestamp time.Time         `json:"timestamp"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// QueryOpts filters event queries.
type QueryOpts struct {
	Kind   Kind
	Wallet types.Address
	Start  time.Time
	End    time.Time
	Limit  int
	Offset int
}
