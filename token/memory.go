package token

import (
	"context"
	"sync"

	"github.com/xraph/mint/id"
	"github.com/xraph/mint/types"
)

// compile-time interface check
var _ Registry = (*MemoryRegistry)(nil)

type tokenKey struct {
	coll    string
	tokenID uint64
}

// MemoryRegistry is the reference in-process Registry. Ownership, balances
// and per-token approvals live in maps guarded by a single RWMutex.
type MemoryRegistry struct {
	mu       sync.RWMutex
	owners   map[tokenKey]types.Address
	approved map[tokenKey]types.Address
	balances map[string]map[types.Address]uint64
}

// NewMemoryRegistry creates an empty in-memory registry.
func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{
		owners:   make(map[tokenKey]types.Address),
		approved: make(map[tokenKey]types.Address),
		balances: make(map[string]map[types.Address]uint64),
	}
}

func (r *MemoryRegistry) CreateItem(_ context.Context, collID id.CollectionID, owner types.Address, tokenID uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := tokenKey{coll: collID.String(), tokenID: tokenID}
	if _, exists := r.owners[key]; exists {
		return ErrTokenExists
	}
	r.owners[key] = owner
	r.credit(collID, owner, 1)
	return nil
}

func (r *MemoryRegistry) OwnerOf(_ context.Context, collID id.CollectionID, tokenID uint64) (types.Address, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	owner, ok := r.owners[tokenKey{coll: collID.String(), tokenID: tokenID}]
	if !ok {
		return types.ZeroAddress, ErrTokenNotFound
	}
	return owner, nil
}

func (r *MemoryRegistry) BalanceOf(_ context.Context, collID id.CollectionID, owner types.Address) (uint64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if perOwner, ok := r.balances[collID.String()]; ok {
		return perOwner[owner], nil
	}
	return 0, nil
}

// Transfer moves a token from its owner to another address. The caller must
// be the owner or the token's approved address; a successful transfer
// clears the approval.
func (r *MemoryRegistry) Transfer(_ context.Context, collID id.CollectionID, caller, from, to types.Address, tokenID uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := tokenKey{coll: collID.String(), tokenID: tokenID}
	owner, ok := r.owners[key]
	if !ok {
		return ErrTokenNotFound
	}
	if !owner.Equal(from) {
		return ErrNotAuthorized
	}
	if !caller.Equal(owner) && !caller.Equal(r.approved[key]) {
		return ErrNotAuthorized
	}

	r.owners[key] = to
	delete(r.approved, key)
	r.debit(collID, from, 1)
	r.credit(collID, to, 1)
	return nil
}

// Approve designates an address allowed to transfer a token on the owner's
// behalf. Only the current owner may approve.
func (r *MemoryRegistry) Approve(_ context.Context, collID id.CollectionID, caller, approved types.Address, tokenID uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := tokenKey{coll: collID.String(), tokenID: tokenID}
	owner, ok := r.owners[key]
	if !ok {
		return ErrTokenNotFound
	}
	if !caller.Equal(owner) {
		return ErrNotAuthorized
	}

	r.approved[key] = approved
	return nil
}

func (r *MemoryRegistry) Approved(_ context.Context, collID id.CollectionID, tokenID uint64) (types.Address, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	key := tokenKey{coll: collID.String(), tokenID: tokenID}
	if _, ok := r.owners[key]; !ok {
		return types.ZeroAddress, ErrTokenNotFound
	}
	return r.approved[key], nil
}

func (r *MemoryRegistry) credit(collID id.CollectionID, owner types.Address, n uint64) {
	perOwner, ok := r.balances[collID.String()]
	if !ok {
		perOwner = make(map[types.Address]uint64)
		r.balances[collID.String()] = perOwner
	}
	perOwner[owner] += n
}

func (r *MemoryRegistry) debit(collID id.CollectionID, owner types.Address, n uint64) {
	if perOwner, ok := r.balances[collID.String()]; ok {
		if perOwner[owner] >= n {
			perOwner[owner] -= n
		} else {
			perOwner[owner] = 0
		}
	}
}
