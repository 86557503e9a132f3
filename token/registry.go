// Package token defines the ownership collaborator the issuance engine
// delegates to. The engine only ever requests creation of fresh ids;
// transfer, approval and lookup semantics live entirely behind the
// Registry interface and are not part of the issuance state machine.
package token

import (
	"context"
	"errors"

	"github.com/xraph/mint/id"
	"github.com/xraph/mint/types"
)

// Sentinel errors returned by Registry implementations.
var (
	ErrTokenExists   = errors.New("token: id already exists")
	ErrTokenNotFound = errors.New("token: id not found")
	ErrNotAuthorized = errors.New("token: caller may not move this token")
)

// Registry tracks token ownership for collections.
//
// CreateItem must fail with ErrTokenExists for an id that was already
// created. The engine guarantees it never reuses an id (NextID is
// monotonic), so a conforming Registry never sees that error in practice,
// and must not fail for any other reason on a fresh id.
type Registry interface {
	CreateItem(ctx context.Context, collID id.CollectionID, owner types.Address, tokenID uint64) error
	OwnerOf(ctx context.Context, collID id.CollectionID, tokenID uint64) (types.Address, error)
	BalanceOf(ctx context.Context, collID id.CollectionID, owner types.Address) (uint64, error)
	Transfer(ctx context.Context, collID id.CollectionID, caller, from, to types.Address, tokenID uint64) error
	Approve(ctx context.Context, collID id.CollectionID, caller, approved types.Address, tokenID uint64) error
	Approved(ctx context.Context, collID id.CollectionID, tokenID uint64) (types.Address, error)
}
