// Package treasury handles custody of collected funds. The engine
// accumulates claim payments on the collection's balance; a withdrawal
// moves the entire balance to a destination through a Receiver. A Receiver
// that rejects the transfer leaves the balance unchanged; there is no
// partial withdrawal.
package treasury

import (
	"context"

	"github.com/xraph/mint/id"
	"github.com/xraph/mint/types"
)

// Withdrawal is a persisted record of a completed withdrawal.
type Withdrawal struct {
	types.Entity
	ID           id.WithdrawalID `json:"id"`
	CollectionID id.CollectionID `json:"collection_id"`
	Destination  types.Address   `json:"destination"`
	Amount       types.Money     `json:"amount"`
}

// Receiver accepts outgoing funds. Implementations bridge to the host's
// payment rail; returning an error rejects the whole transfer.
type Receiver interface {
	Receive(ctx context.Context, destination types.Address, amount types.Money) error
}

// ReceiverFunc adapts a plain function to a Receiver.
type ReceiverFunc func(ctx context.Context, destination types.Address, amount types.Money) error

// Receive implements Receiver.
func (f ReceiverFunc) Receive(ctx context.Context, destination types.Address, amount types.Money) error {
	return f(ctx, destination, amount)
}

// ListOpts filters withdrawal listings.
type ListOpts struct {
	Limit  int
	Offset int
}
