package sqlite

import (
	"context"
	"database/sql"
	"fmt"
)

// migration is one ordered schema step. Applied migrations are tracked in
// mint_schema_migrations by name; steps run inside a transaction.
type migration struct {
	name string
	up   string
}

var migrations = []migration{
	{
		name: "create_mint_collections",
		up: `
CREATE TABLE IF NOT EXISTS mint_collections (
    id                 TEXT PRIMARY KEY,
    slug               TEXT NOT NULL DEFAULT '',
    name               TEXT NOT NULL DEFAULT '',
    symbol             TEXT NOT NULL DEFAULT '',
    owner              TEXT NOT NULL DEFAULT '',
    max_supply         INTEGER NOT NULL DEFAULT 0,
    next_id            INTEGER NOT NULL DEFAULT 1,
    unit_price         INTEGER NOT NULL DEFAULT 0,
    currency           TEXT NOT NULL DEFAULT 'usd',
    wallet_cap         INTEGER NOT NULL DEFAULT 0,
    mint_open          INTEGER NOT NULL DEFAULT 0,
    metadata_base      TEXT NOT NULL DEFAULT '',
    royalty_receiver   TEXT NOT NULL DEFAULT '',
    royalty_rate_bps   INTEGER NOT NULL DEFAULT 0,
    balance            INTEGER NOT NULL DEFAULT 0,
    metadata           TEXT NOT NULL DEFAULT '{}',
    created_at         INTEGER NOT NULL DEFAULT 0,
    updated_at         INTEGER NOT NULL DEFAULT 0
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_mint_collections_slug ON mint_collections (slug) WHERE slug <> '';
CREATE INDEX IF NOT EXISTS idx_mint_collections_owner ON mint_collections (owner);
`,
	},
	{
		name: "create_mint_wallets",
		up: `
CREATE TABLE IF NOT EXISTS mint_wallets (
    collection_id TEXT NOT NULL,
    address       TEXT NOT NULL,
    claimed       INTEGER NOT NULL DEFAULT 0,
    created_at    INTEGER NOT NULL DEFAULT 0,
    updated_at    INTEGER NOT NULL DEFAULT 0,
    PRIMARY KEY (collection_id, address)
);
`,
	},
	{
		name: "create_mint_events",
		up: `
CREATE TABLE IF NOT EXISTS mint_events (
    id             TEXT PRIMARY KEY,
    collection_id  TEXT NOT NULL,
    kind           TEXT NOT NULL,
    wallet         TEXT NOT NULL DEFAULT '',
    quantity       INTEGER NOT NULL DEFAULT 0,
    first_token_id INTEGER NOT NULL DEFAULT 0,
    amount         INTEGER NOT NULL DEFAULT 0,
    currency       TEXT NOT NULL DEFAULT 'usd',
    ts             INTEGER NOT NULL DEFAULT 0,
    metadata       TEXT NOT NULL DEFAULT '{}'
);

CREATE INDEX IF NOT EXISTS idx_mint_events_coll_ts ON mint_events (collection_id, ts);
CREATE INDEX IF NOT EXISTS idx_mint_events_coll_wallet ON mint_events (collection_id, wallet);
`,
	},
	{
		name: "create_mint_withdrawals",
		up: `
CREATE TABLE IF NOT EXISTS mint_withdrawals (
    id            TEXT PRIMARY KEY,
    collection_id TEXT NOT NULL,
    destination   TEXT NOT NULL DEFAULT '',
    amount        INTEGER NOT NULL DEFAULT 0,
    currency      TEXT NOT NULL DEFAULT 'usd',
    created_at    INTEGER NOT NULL DEFAULT 0,
    updated_at    INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_mint_withdrawals_coll ON mint_withdrawals (collection_id, created_at);
`,
	},
}

// applyMigrations runs all unapplied migrations in order.
func applyMigrations(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS mint_schema_migrations (
    name       TEXT PRIMARY KEY,
    applied_at INTEGER NOT NULL
)`); err != nil {
		return fmt.Errorf("create migrations table: %w", err)
	}

	for _, m := range migrations {
		var applied int
		err := db.QueryRowContext(ctx,
			`SELECT COUNT(1) FROM mint_schema_migrations WHERE name = ?`, m.name).Scan(&applied)
		if err != nil {
			return fmt.Errorf("check migration %q: %w", m.name, err)
		}
		if applied > 0 {
			continue
		}

		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin migration %q: %w", m.name, err)
		}
		if _, err := tx.ExecContext(ctx, m.up); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("apply migration %q: %w", m.name, err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO mint_schema_migrations (name, applied_at) VALUES (?, ?)`,
			m.name, nowMillis()); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("record migration %q: %w", m.name, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %q: %w", m.name, err)
		}
	}

	return nil
}
