package treasury

import (
	"context"
	"testing"

	"github.com/xraph/mint/types"
)

func TestVault(t *testing.T) {
	ctx := context.Background()
	dest := types.Addr("0xStash")

	t.Run("accumulates per destination", func(t *testing.T) {
		v := NewVault()
		if err := v.Receive(ctx, dest, types.USD(100)); err != nil {
			t.Fatalf("Receive: %v", err)
		}
		if err := v.Receive(ctx, dest, types.USD(250)); err != nil {
			t.Fatalf("Receive: %v", err)
		}
		if got := v.Balance(dest, "usd"); !got.Equal(types.USD(350)) {
			t.Fatalf("balance = %s, want $3.50", got)
		}
	})

	t.Run("keeps currencies in separate buckets", func(t *testing.T) {
		v := NewVault()
		if err := v.Receive(ctx, dest, types.USD(100)); err != nil {
			t.Fatalf("Receive: %v", err)
		}
		if err := v.Receive(ctx, dest, types.EUR(200)); err != nil {
			t.Fatalf("Receive: %v", err)
		}
		if got := v.Balance(dest, "usd"); !got.Equal(types.USD(100)) {
			t.Fatalf("usd balance = %s, want $1.00", got)
		}
		if got := v.Balance(dest, "eur"); !got.Equal(types.EUR(200)) {
			t.Fatalf("eur balance = %s, want €2.00", got)
		}
	})

	t.Run("unknown destination is zero", func(t *testing.T) {
		v := NewVault()
		if got := v.Balance(types.Addr("0xNobody"), "usd"); !got.IsZero() {
			t.Fatalf("balance = %s, want zero", got)
		}
	})
}
