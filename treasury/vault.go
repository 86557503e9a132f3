package treasury

import (
	"context"
	"sync"

	"github.com/xraph/mint/types"
)

type vaultKey struct {
	destination types.Address
	currency    string
}

// Vault is the reference in-process Receiver: it accumulates received funds
// per destination address and currency, so withdrawals from collections
// priced in different currencies land in separate buckets. Hosts talking to
// a real payment rail inject their own Receiver instead.
type Vault struct {
	mu       sync.RWMutex
	balances map[vaultKey]int64
}

// NewVault creates an empty Vault.
func NewVault() *Vault {
	return &Vault{balances: make(map[vaultKey]int64)}
}

// Receive implements Receiver by crediting the destination's balance in the
// amount's currency.
func (v *Vault) Receive(_ context.Context, destination types.Address, amount types.Money) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.balances[vaultKey{destination: destination, currency: amount.Currency}] += amount.Amount
	return nil
}

// Balance returns the funds held for a destination in the given currency.
func (v *Vault) Balance(destination types.Address, currency string) types.Money {
	v.mu.RLock()
	defer v.mu.RUnlock()

	return types.Money{
		Amount:   v.balances[vaultKey{destination: destination, currency: currency}],
		Currency: currency,
	}
}
