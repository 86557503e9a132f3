// Package sqlite implements the Mint store on SQLite via database/sql and
// the modernc.org/sqlite driver (no cgo).
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/xraph/mint"
	"github.com/xraph/mint/collection"
	"github.com/xraph/mint/id"
	"github.com/xraph/mint/journal"
	"github.com/xraph/mint/quota"
	"github.com/xraph/mint/treasury"
	mintstore "github.com/xraph/mint/store"
	"github.com/xraph/mint/types"
)

// compile-time interface check
var _ mintstore.Store = (*Store)(nil)

// Store implements store.Store using SQLite.
type Store struct {
	db *sql.DB
}

// Open opens a SQLite store at path. Use ":memory:" for an in-memory
// database (tests).
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("mint/sqlite: storage path is required")
	}

	dsn := path
	if path != ":memory:" {
		dsn = filepath.Clean(path) + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000&_synchronous=NORMAL"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("mint/sqlite: open: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("mint/sqlite: ping: %w", err)
	}

	return &Store{db: db}, nil
}

// New wraps an existing *sql.DB using the sqlite driver.
func New(db *sql.DB) *Store { return &Store{db: db} }

// DB returns the underlying database handle for direct access.
func (s *Store) DB() *sql.DB { return s.db }

// Migrate creates the required tables and indexes.
func (s *Store) Migrate(ctx context.Context) error {
	if err := applyMigrations(ctx, s.db); err != nil {
		return fmt.Errorf("%w: %v", mint.ErrMigrationFailed, err)
	}
	return nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

// Close closes the database handle.
func (s *Store) Close() error { return s.db.Close() }

// Collection methods

const collectionColumns = `id, slug, name, symbol, owner, max_supply, next_id,
unit_price, currency, wallet_cap, mint_open, metadata_base,
royalty_receiver, royalty_rate_bps, balance, metadata, created_at, updated_at`

func (s *Store) CreateCollection(ctx context.Context, c *collection.Collection) error {
	meta, err := encodeMeta(c.Metadata)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
INSERT INTO mint_collections (`+collectionColumns+`)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID.String(), c.Slug, c.Name, c.Symbol, c.Owner.String(),
		int64(c.MaxSupply), int64(c.NextID),
		c.Policy.UnitPrice.Amount, c.Policy.UnitPrice.Currency,
		int64(c.Policy.WalletCap), boolToInt(c.Policy.MintOpen), c.Policy.MetadataBase,
		c.Policy.Royalty.Receiver.String(), int64(c.Policy.Royalty.RateBps),
		c.Balance.Amount, meta, toMillis(c.CreatedAt), toMillis(c.UpdatedAt))
	if err != nil {
		if isUniqueViolation(err) {
			return mint.ErrAlreadyExists
		}
		return err
	}
	return nil
}

func (s *Store) GetCollection(ctx context.Context, collID id.CollectionID) (*collection.Collection, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+collectionColumns+` FROM mint_collections WHERE id = ?`, collID.String())
	return scanCollection(row)
}

func (s *Store) GetCollectionBySlug(ctx context.Context, slug string) (*collection.Collection, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+collectionColumns+` FROM mint_collections WHERE slug = ?`, slug)
	return scanCollection(row)
}

func (s *Store) ListCollections(ctx context.Context, opts collection.ListOpts) ([]*collection.Collection, error) {
	q := `SELECT ` + collectionColumns + ` FROM mint_collections`
	args := make([]any, 0, 3)
	if !opts.Owner.IsZero() {
		q += ` WHERE owner = ?`
		args = append(args, opts.Owner.String())
	}
	q += ` ORDER BY created_at ASC`
	if opts.Limit > 0 {
		q += ` LIMIT ?`
		args = append(args, opts.Limit)
		if opts.Offset > 0 {
			q += ` OFFSET ?`
			args = append(args, opts.Offset)
		}
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]*collection.Collection, 0)
	for rows.Next() {
		c, err := scanCollection(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	return result, rows.Err()
}

func (s *Store) UpdateCollection(ctx context.Context, c *collection.Collection) error {
	meta, err := encodeMeta(c.Metadata)
	if err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, `
UPDATE mint_collections SET
    slug = ?, name = ?, symbol = ?, owner = ?, max_supply = ?, next_id = ?,
    unit_price = ?, currency = ?, wallet_cap = ?, mint_open = ?,
    metadata_base = ?, royalty_receiver = ?, royalty_rate_bps = ?,
    balance = ?, metadata = ?, updated_at = ?
WHERE id = ?`,
		c.Slug, c.Name, c.Symbol, c.Owner.String(), int64(c.MaxSupply), int64(c.NextID),
		c.Policy.UnitPrice.Amount, c.Policy.UnitPrice.Currency,
		int64(c.Policy.WalletCap), boolToInt(c.Policy.MintOpen),
		c.Policy.MetadataBase, c.Policy.Royalty.Receiver.String(), int64(c.Policy.Royalty.RateBps),
		c.Balance.Amount, meta, nowMillis(), c.ID.String())
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return mint.ErrCollectionNotFound
	}
	return nil
}

func (s *Store) DeleteCollection(ctx context.Context, collID id.CollectionID) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM mint_collections WHERE id = ?`, collID.String())
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return mint.ErrCollectionNotFound
	}
	return nil
}

// Wallet quota methods

func (s *Store) GetWallet(ctx context.Context, collID id.CollectionID, address types.Address) (*quota.Wallet, error) {
	w := &quota.Wallet{}
	var collStr string
	var addr string
	var claimed, createdAt, updatedAt int64

	err := s.db.QueryRowContext(ctx, `
SELECT collection_id, address, claimed, created_at, updated_at
FROM mint_wallets WHERE collection_id = ? AND address = ?`,
		collID.String(), address.String()).
		Scan(&collStr, &addr, &claimed, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, mint.ErrNotFound
		}
		return nil, err
	}

	cid, err := id.ParseCollectionID(collStr)
	if err != nil {
		return nil, err
	}
	w.CollectionID = cid
	w.Address = types.Address(addr)
	w.Claimed = uint64(claimed)
	w.CreatedAt = fromMillis(createdAt)
	w.UpdatedAt = fromMillis(updatedAt)
	return w, nil
}

func (s *Store) PutWallet(ctx context.Context, w *quota.Wallet) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO mint_wallets (collection_id, address, claimed, created_at, updated_at)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT (collection_id, address)
DO UPDATE SET claimed = excluded.claimed, updated_at = excluded.updated_at`,
		w.CollectionID.String(), w.Address.String(), int64(w.Claimed),
		toMillis(w.CreatedAt), nowMillis())
	return err
}

func (s *Store) ListWallets(ctx context.Context, collID id.CollectionID, opts quota.ListOpts) ([]*quota.Wallet, error) {
	q := `
SELECT collection_id, address, claimed, created_at, updated_at
FROM mint_wallets WHERE collection_id = ? ORDER BY address ASC`
	args := []any{collID.String()}
	if opts.Limit > 0 {
		q += ` LIMIT ?`
		args = append(args, opts.Limit)
		if opts.Offset > 0 {
			q += ` OFFSET ?`
			args = append(args, opts.Offset)
		}
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]*quota.Wallet, 0)
	for rows.Next() {
		var collStr, addr string
		var claimed, createdAt, updatedAt int64
		if err := rows.Scan(&collStr, &addr, &claimed, &createdAt, &updatedAt); err != nil {
			return nil, err
		}
		cid, err := id.ParseCollectionID(collStr)
		if err != nil {
			return nil, err
		}
		result = append(result, &quota.Wallet{
			Entity:       types.Entity{CreatedAt: fromMillis(createdAt), UpdatedAt: fromMillis(updatedAt)},
			CollectionID: cid,
			Address:      types.Address(addr),
			Claimed:      uint64(claimed),
		})
	}
	return result, rows.Err()
}

// Journal methods

func (s *Store) IngestEvents(ctx context.Context, events []*journal.Event) error {
	if len(events) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	stmt, err := tx.PrepareContext(ctx, `
INSERT INTO mint_events (id, collection_id, kind, wallet, quantity, first_token_id, amount, currency, ts, metadata)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	defer stmt.Close()

	for _, e := range events {
		meta, err := encodeMeta(e.Metadata)
		if err != nil {
			_ = tx.Rollback()
			return err
		}
		if _, err := stmt.ExecContext(ctx,
			e.ID.String(), e.CollectionID.String(), string(e.Kind), e.Wallet.String(),
			int64(e.Quantity), int64(e.FirstTokenID),
			e.Amount.Amount, e.Amount.Currency, toMillis(e.Timestamp), meta); err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

func (s *Store) QueryEvents(ctx context.Context, collID id.CollectionID, opts journal.QueryOpts) ([]*journal.Event, error) {
	q := `
SELECT id, collection_id, kind, wallet, quantity, first_token_id, amount, currency, ts, metadata
FROM mint_events WHERE collection_id = ?`
	args := []any{collID.String()}

	if opts.Kind != "" {
		q += ` AND kind = ?`
		args = append(args, string(opts.Kind))
	}
	if !opts.Wallet.IsZero() {
		q += ` AND wallet = ?`
		args = append(args, opts.Wallet.String())
	}
	if !opts.Start.IsZero() {
		q += ` AND ts >= ?`
		args = append(args, toMillis(opts.Start))
	}
	if !opts.End.IsZero() {
		q += ` AND ts <= ?`
		args = append(args, toMillis(opts.End))
	}
	q += ` ORDER BY ts ASC`
	if opts.Limit > 0 {
		q += ` LIMIT ?`
		args = append(args, opts.Limit)
		if opts.Offset > 0 {
			q += ` OFFSET ?`
			args = append(args, opts.Offset)
		}
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]*journal.Event, 0)
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, e)
	}
	return result, rows.Err()
}

func (s *Store) PurgeEvents(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM mint_events WHERE ts < ?`, toMillis(before))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Withdrawal methods

func (s *Store) CreateWithdrawal(ctx context.Context, w *treasury.Withdrawal) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO mint_withdrawals (id, collection_id, destination, amount, currency, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?)`,
		w.ID.String(), w.CollectionID.String(), w.Destination.String(),
		w.Amount.Amount, w.Amount.Currency, toMillis(w.CreatedAt), toMillis(w.UpdatedAt))
	if err != nil && isUniqueViolation(err) {
		return mint.ErrAlreadyExists
	}
	return err
}

func (s *Store) ListWithdrawals(ctx context.Context, collID id.CollectionID, opts treasury.ListOpts) ([]*treasury.Withdrawal, error) {
	q := `
SELECT id, collection_id, destination, amount, currency, created_at, updated_at
FROM mint_withdrawals WHERE collection_id = ? ORDER BY created_at ASC`
	args := []any{collID.String()}
	if opts.Limit > 0 {
		q += ` LIMIT ?`
		args = append(args, opts.Limit)
		if opts.Offset > 0 {
			q += ` OFFSET ?`
			args = append(args, opts.Offset)
		}
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]*treasury.Withdrawal, 0)
	for rows.Next() {
		var idStr, collStr, dest, currency string
		var amount, createdAt, updatedAt int64
		if err := rows.Scan(&idStr, &collStr, &dest, &amount, &currency, &createdAt, &updatedAt); err != nil {
			return nil, err
		}
		wid, err := id.ParseWithdrawalID(idStr)
		if err != nil {
			return nil, err
		}
		cid, err := id.ParseCollectionID(collStr)
		if err != nil {
			return nil, err
		}
		result = append(result, &treasury.Withdrawal{
			Entity:       types.Entity{CreatedAt: fromMillis(createdAt), UpdatedAt: fromMillis(updatedAt)},
			ID:           wid,
			CollectionID: cid,
			Destination:  types.Address(dest),
			Amount:       types.Money{Amount: amount, Currency: currency},
		})
	}
	return result, rows.Err()
}

// Helpers

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCollection(row rowScanner) (*collection.Collection, error) {
	var (
		idStr, slug, name, symbol, owner        string
		maxSupply, nextID                       int64
		unitPrice                               int64
		currency                                string
		walletCap, mintOpen                     int64
		metadataBase, royaltyReceiver           string
		royaltyRateBps, balance                 int64
		meta                                    string
		createdAt, updatedAt                    int64
	)

	err := row.Scan(&idStr, &slug, &name, &symbol, &owner, &maxSupply, &nextID,
		&unitPrice, &currency, &walletCap, &mintOpen, &metadataBase,
		&royaltyReceiver, &royaltyRateBps, &balance, &meta, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, mint.ErrCollectionNotFound
		}
		return nil, err
	}

	cid, err := id.ParseCollectionID(idStr)
	if err != nil {
		return nil, err
	}

	metadata, err := decodeMeta(meta)
	if err != nil {
		return nil, err
	}

	return &collection.Collection{
		Entity:    types.Entity{CreatedAt: fromMillis(createdAt), UpdatedAt: fromMillis(updatedAt)},
		ID:        cid,
		Slug:      slug,
		Name:      name,
		Symbol:    symbol,
		Owner:     types.Address(owner),
		MaxSupply: uint64(maxSupply),
		NextID:    uint64(nextID),
		Policy: collection.Policy{
			UnitPrice:    types.Money{Amount: unitPrice, Currency: currency},
			WalletCap:    uint64(walletCap),
			MintOpen:     mintOpen != 0,
			MetadataBase: metadataBase,
			Royalty: collection.Royalty{
				Receiver: types.Address(royaltyReceiver),
				RateBps:  uint32(royaltyRateBps),
			},
		},
		Balance:  types.Money{Amount: balance, Currency: currency},
		Metadata: metadata,
	}, nil
}

func scanEvent(row rowScanner) (*journal.Event, error) {
	var (
		idStr, collStr, kind, wallet, currency string
		quantity, firstTokenID, amount, ts     int64
		meta                                   string
	)

	if err := row.Scan(&idStr, &collStr, &kind, &wallet, &quantity, &firstTokenID,
		&amount, &currency, &ts, &meta); err != nil {
		return nil, err
	}

	eid, err := id.ParseMintEventID(idStr)
	if err != nil {
		return nil, err
	}
	cid, err := id.ParseCollectionID(collStr)
	if err != nil {
		return nil, err
	}
	metadata, err := decodeMeta(meta)
	if err != nil {
		return nil, err
	}

	return &journal.Event{
		ID:           eid,
		CollectionID: cid,
		Kind:         journal.Kind(kind),
		Wallet:       types.Address(wallet),
		Quantity:     uint64(quantity),
		FirstTokenID: uint64(firstTokenID),
		Amount:       types.Money{Amount: amount, Currency: currency},
		Timestamp:    fromMillis(ts),
		Metadata:     metadata,
	}, nil
}

func encodeMeta(m map[string]string) (string, error) {
	if len(m) == 0 {
		return "{}", nil
	}
	data, err := json.Marshal(m)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func decodeMeta(s string) (map[string]string, error) {
	if s == "" || s == "{}" {
		return nil, nil
	}
	var m map[string]string
	if err := json.Unmarshal([]byte(s), &m); err != nil {
		return nil, err
	}
	return m, nil
}

func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

func toMillis(value time.Time) int64 {
	if value.IsZero() {
		return 0
	}
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	if value == 0 {
		return time.Time{}
	}
	return time.UnixMilli(value).UTC()
}

func nowMillis() int64 { return time.Now().UTC().UnixMilli() }

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "constraint violation")
}
