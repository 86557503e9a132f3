package postgres

import (
	"context"
	"database/sql"
	"fmt"
)

type migration struct {
	name string
	up   string
}

// migrations run in order; each applies inside its own transaction and is
// recorded in mint_schema_migrations so reruns are no-ops.
var migrations = []migration{
	{
		name: "001_create_collections",
		up: `
CREATE TABLE IF NOT EXISTS mint_collections (
    id               TEXT PRIMARY KEY,
    slug             TEXT NOT NULL DEFAULT '',
    name             TEXT NOT NULL,
    symbol           TEXT NOT NULL DEFAULT '',
    owner            TEXT NOT NULL,
    max_supply       BIGINT NOT NULL,
    next_id          BIGINT NOT NULL DEFAULT 1,
    unit_price       BIGINT NOT NULL DEFAULT 0,
    currency         TEXT NOT NULL DEFAULT 'usd',
    wallet_cap       BIGINT NOT NULL DEFAULT 0,
    mint_open        BOOLEAN NOT NULL DEFAULT FALSE,
    metadata_base    TEXT NOT NULL DEFAULT '',
    royalty_receiver TEXT NOT NULL DEFAULT '',
    royalty_rate_bps BIGINT NOT NULL DEFAULT 0,
    balance          BIGINT NOT NULL DEFAULT 0,
    metadata         JSONB NOT NULL DEFAULT '{}',
    created_at       TIMESTAMPTZ NOT NULL,
    updated_at       TIMESTAMPTZ NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_mint_collections_slug
    ON mint_collections (slug) WHERE slug <> '';
CREATE INDEX IF NOT EXISTS idx_mint_collections_owner
    ON mint_collections (owner);`,
	},
	{
		name: "002_create_wallets",
		up: `
CREATE TABLE IF NOT EXISTS mint_wallets (
    collection_id TEXT NOT NULL,
    address       TEXT NOT NULL,
    claimed       BIGINT NOT NULL DEFAULT 0,
    created_at    TIMESTAMPTZ NOT NULL,
    updated_at    TIMESTAMPTZ NOT NULL,
    PRIMARY KEY (collection_id, address)
);`,
	},
	{
		name: "003_create_events",
		up: `
CREATE TABLE IF NOT EXISTS mint_events (
    id             TEXT PRIMARY KEY,
    collection_id  TEXT NOT NULL,
    kind           TEXT NOT NULL,
    wallet         TEXT NOT NULL,
    quantity       BIGINT NOT NULL,
    first_token_id BIGINT NOT NULL,
    amount         BIGINT NOT NULL DEFAULT 0,
    currency       TEXT NOT NULL DEFAULT 'usd',
    ts             TIMESTAMPTZ NOT NULL,
    metadata       JSONB NOT NULL DEFAULT '{}'
);
CREATE INDEX IF NOT EXISTS idx_mint_events_collection_ts
    ON mint_events (collection_id, ts);
CREATE INDEX IF NOT EXISTS idx_mint_events_collection_wallet
    ON mint_events (collection_id, wallet);`,
	},
	{
		name: "004_create_withdrawals",
		up: `
CREATE TABLE IF NOT EXISTS mint_withdrawals (
    id            TEXT PRIMARY KEY,
    collection_id TEXT NOT NULL,
    destination   TEXT NOT NULL,
    amount        BIGINT NOT NULL,
    currency      TEXT NOT NULL DEFAULT 'usd',
    created_at    TIMESTAMPTZ NOT NULL,
    updated_at    TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_mint_withdrawals_collection
    ON mint_withdrawals (collection_id, created_at);`,
	},
}

func applyMigrations(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS mint_schema_migrations (
    name       TEXT PRIMARY KEY,
    applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`)
	if err != nil {
		return fmt.Errorf("create migration table: %w", err)
	}

	for _, m := range migrations {
		var applied bool
		err := db.QueryRowContext(ctx,
			`SELECT EXISTS(SELECT 1 FROM mint_schema_migrations WHERE name = $1)`,
			m.name).Scan(&applied)
		if err != nil {
			return fmt.Errorf("check migration %s: %w", m.name, err)
		}
		if applied {
			continue
		}

		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, m.up); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("apply migration %s: %w", m.name, err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO mint_schema_migrations (name) VALUES ($1)`, m.name); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("record migration %s: %w", m.name, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %s: %w", m.name, err)
		}
	}
	return nil
}
