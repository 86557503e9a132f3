package types

import "time"

// Entity carries the created/updated timestamps shared by all persisted
// records (collections, wallets, withdrawals).
type Entity struct {
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewEntity stamps both timestamps with the current UTC time.
func NewEntity() Entity {
	now := time.Now().UTC()
	return Entity{CreatedAt: now, UpdatedAt: now}
}

// Touch bumps UpdatedAt. Called on every persisted mutation.
func (e *Entity) Touch() {
	e.UpdatedAt = time.Now().UTC()
}

// Age returns the time elapsed since creation.
func (e Entity) Age() time.Duration {
	return time.Since(e.CreatedAt)
}
