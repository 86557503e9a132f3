// Package mongo implements the Mint store on MongoDB using the official
// driver.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/xraph/mint"
	"github.com/xraph/mint/collection"
	"github.com/xraph/mint/id"
	"github.com/xraph/mint/journal"
	"github.com/xraph/mint/quota"
	mintstore "github.com/xraph/mint/store"
	"github.com/xraph/mint/treasury"
	"github.com/xraph/mint/types"
)

// Collection name constants.
const (
	colCollections = "mint_collections"
	colWallets     = "mint_wallets"
	colEvents      = "mint_events"
	colWithdrawals = "mint_withdrawals"
)

// compile-time interface check
var _ mintstore.Store = (*Store)(nil)

// Store implements store.Store using MongoDB.
type Store struct {
	client *mongo.Client
	db     *mongo.Database
}

// Open connects to MongoDB at uri and uses the named database.
func Open(ctx context.Context, uri, database string) (*Store, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mint/mongo: connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("mint/mongo: ping: %w", err)
	}
	return &Store{client: client, db: client.Database(database)}, nil
}

// New wraps an existing database handle.
func New(db *mongo.Database) *Store {
	return &Store{client: db.Client(), db: db}
}

// DB returns the underlying database handle for direct access.
func (s *Store) DB() *mongo.Database { return s.db }

// Migrate creates indexes for all mint collections.
func (s *Store) Migrate(ctx context.Context) error {
	indexes := map[string][]mongo.IndexModel{
		colCollections: {
			{
				Keys: bson.D{{Key: "slug", Value: 1}},
				Options: options.Index().
					SetUnique(true).
					SetPartialFilterExpression(bson.M{"slug": bson.M{"$gt": ""}}),
			},
			{Keys: bson.D{{Key: "owner", Value: 1}}},
		},
		colWallets: {
			{Keys: bson.D{{Key: "collection_id", Value: 1}, {Key: "address", Value: 1}}},
		},
		colEvents: {
			{Keys: bson.D{{Key: "collection_id", Value: 1}, {Key: "ts", Value: 1}}},
			{Keys: bson.D{{Key: "collection_id", Value: 1}, {Key: "wallet", Value: 1}}},
		},
		colWithdrawals: {
			{Keys: bson.D{{Key: "collection_id", Value: 1}, {Key: "created_at", Value: 1}}},
		},
	}

	for col, models := range indexes {
		if _, err := s.db.Collection(col).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("%w: migrate %s indexes: %v", mint.ErrMigrationFailed, col, err)
		}
	}
	return nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

// Close disconnects from the server.
func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

// ==================== Collection Store ====================

func (s *Store) CreateCollection(ctx context.Context, c *collection.Collection) error {
	_, err := s.db.Collection(colCollections).InsertOne(ctx, toCollectionModel(c))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return mint.ErrAlreadyExists
		}
		return fmt.Errorf("mint/mongo: create collection: %w", err)
	}
	return nil
}

func (s *Store) GetCollection(ctx context.Context, collID id.CollectionID) (*collection.Collection, error) {
	var m collectionModel
	err := s.db.Collection(colCollections).
		FindOne(ctx, bson.M{"_id": collID.String()}).Decode(&m)
	if err != nil {
		if isNoDocuments(err) {
			return nil, mint.ErrCollectionNotFound
		}
		return nil, fmt.Errorf("mint/mongo: get collection: %w", err)
	}
	return fromCollectionModel(&m)
}

func (s *Store) GetCollectionBySlug(ctx context.Context, slug string) (*collection.Collection, error) {
	var m collectionModel
	err := s.db.Collection(colCollections).
		FindOne(ctx, bson.M{"slug": slug}).Decode(&m)
	if err != nil {
		if isNoDocuments(err) {
			return nil, mint.ErrCollectionNotFound
		}
		return nil, fmt.Errorf("mint/mongo: get collection by slug: %w", err)
	}
	return fromCollectionModel(&m)
}

func (s *Store) ListCollections(ctx context.Context, opts collection.ListOpts) ([]*collection.Collection, error) {
	filter := bson.M{}
	if !opts.Owner.IsZero() {
		filter["owner"] = opts.Owner.String()
	}

	findOpts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	if opts.Limit > 0 {
		findOpts.SetLimit(int64(opts.Limit))
		if opts.Offset > 0 {
			findOpts.SetSkip(int64(opts.Offset))
		}
	}

	cursor, err := s.db.Collection(colCollections).Find(ctx, filter, findOpts)
	if err != nil {
		return nil, fmt.Errorf("mint/mongo: list collections: %w", err)
	}
	defer cursor.Close(ctx)

	result := make([]*collection.Collection, 0)
	for cursor.Next(ctx) {
		var m collectionModel
		if err := cursor.Decode(&m); err != nil {
			return nil, err
		}
		c, err := fromCollectionModel(&m)
		if err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	return result, cursor.Err()
}

func (s *Store) UpdateCollection(ctx context.Context, c *collection.Collection) error {
	m := toCollectionModel(c)
	m.UpdatedAt = time.Now().UTC()

	res, err := s.db.Collection(colCollections).
		ReplaceOne(ctx, bson.M{"_id": m.ID}, m)
	if err != nil {
		return fmt.Errorf("mint/mongo: update collection: %w", err)
	}
	if res.MatchedCount == 0 {
		return mint.ErrCollectionNotFound
	}
	return nil
}

func (s *Store) DeleteCollection(ctx context.Context, collID id.CollectionID) error {
	res, err := s.db.Collection(colCollections).
		DeleteOne(ctx, bson.M{"_id": collID.String()})
	if err != nil {
		return fmt.Errorf("mint/mongo: delete collection: %w", err)
	}
	if res.DeletedCount == 0 {
		return mint.ErrCollectionNotFound
	}
	return nil
}

// ==================== Wallet Store ====================

func (s *Store) GetWallet(ctx context.Context, collID id.CollectionID, address types.Address) (*quota.Wallet, error) {
	var m walletModel
	err := s.db.Collection(colWallets).
		FindOne(ctx, bson.M{"_id": walletKey(collID, address)}).Decode(&m)
	if err != nil {
		if isNoDocuments(err) {
			return nil, mint.ErrNotFound
		}
		return nil, fmt.Errorf("mint/mongo: get wallet: %w", err)
	}
	return fromWalletModel(&m)
}

func (s *Store) PutWallet(ctx context.Context, w *quota.Wallet) error {
	m := toWalletModel(w)
	m.UpdatedAt = time.Now().UTC()

	_, err := s.db.Collection(colWallets).
		ReplaceOne(ctx, bson.M{"_id": m.ID}, m, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("mint/mongo: put wallet: %w", err)
	}
	return nil
}

func (s *Store) ListWallets(ctx context.Context, collID id.CollectionID, opts quota.ListOpts) ([]*quota.Wallet, error) {
	findOpts := options.Find().SetSort(bson.D{{Key: "address", Value: 1}})
	if opts.Limit > 0 {
		findOpts.SetLimit(int64(opts.Limit))
		if opts.Offset > 0 {
			findOpts.SetSkip(int64(opts.Offset))
		}
	}

	cursor, err := s.db.Collection(colWallets).
		Find(ctx, bson.M{"collection_id": collID.String()}, findOpts)
	if err != nil {
		return nil, fmt.Errorf("mint/mongo: list wallets: %w", err)
	}
	defer cursor.Close(ctx)

	result := make([]*quota.Wallet, 0)
	for cursor.Next(ctx) {
		var m walletModel
		if err := cursor.Decode(&m); err != nil {
			return nil, err
		}
		w, err := fromWalletModel(&m)
		if err != nil {
			return nil, err
		}
		result = append(result, w)
	}
	return result, cursor.Err()
}

// ==================== Journal Store ====================

func (s *Store) IngestEvents(ctx context.Context, events []*journal.Event) error {
	if len(events) == 0 {
		return nil
	}

	docs := make([]any, 0, len(events))
	for _, e := range events {
		docs = append(docs, toEventModel(e))
	}

	_, err := s.db.Collection(colEvents).InsertMany(ctx, docs)
	if err != nil {
		return fmt.Errorf("mint/mongo: ingest events: %w", err)
	}
	return nil
}

func (s *Store) QueryEvents(ctx context.Context, collID id.CollectionID, opts journal.QueryOpts) ([]*journal.Event, error) {
	filter := bson.M{"collection_id": collID.String()}
	if opts.Kind != "" {
		filter["kind"] = string(opts.Kind)
	}
	if !opts.Wallet.IsZero() {
		filter["wallet"] = opts.Wallet.String()
	}
	if !opts.Start.IsZero() || !opts.End.IsZero() {
		ts := bson.M{}
		if !opts.Start.IsZero() {
			ts["$gte"] = opts.Start
		}
		if !opts.End.IsZero() {
			ts["$lte"] = opts.End
		}
		filter["ts"] = ts
	}

	findOpts := options.Find().SetSort(bson.D{{Key: "ts", Value: 1}})
	if opts.Limit > 0 {
		findOpts.SetLimit(int64(opts.Limit))
		if opts.Offset > 0 {
			findOpts.SetSkip(int64(opts.Offset))
		}
	}

	cursor, err := s.db.Collection(colEvents).Find(ctx, filter, findOpts)
	if err != nil {
		return nil, fmt.Errorf("mint/mongo: query events: %w", err)
	}
	defer cursor.Close(ctx)

	result := make([]*journal.Event, 0)
	for cursor.Next(ctx) {
		var m eventModel
		if err := cursor.Decode(&m); err != nil {
			return nil, err
		}
		e, err := fromEventModel(&m)
		if err != nil {
			return nil, err
		}
		result = append(result, e)
	}
	return result, cursor.Err()
}

func (s *Store) PurgeEvents(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.db.Collection(colEvents).
		DeleteMany(ctx, bson.M{"ts": bson.M{"$lt": before}})
	if err != nil {
		return 0, fmt.Errorf("mint/mongo: purge events: %w", err)
	}
	return res.DeletedCount, nil
}

// ==================== Withdrawal Store ====================

func (s *Store) CreateWithdrawal(ctx context.Context, w *treasury.Withdrawal) error {
	_, err := s.db.Collection(colWithdrawals).InsertOne(ctx, toWithdrawalModel(w))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return mint.ErrAlreadyExists
		}
		return fmt.Errorf("mint/mongo: create withdrawal: %w", err)
	}
	return nil
}

func (s *Store) ListWithdrawals(ctx context.Context, collID id.CollectionID, opts treasury.ListOpts) ([]*treasury.Withdrawal, error) {
	findOpts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	if opts.Limit > 0 {
		findOpts.SetLimit(int64(opts.Limit))
		if opts.Offset > 0 {
			findOpts.SetSkip(int64(opts.Offset))
		}
	}

	cursor, err := s.db.Collection(colWithdrawals).
		Find(ctx, bson.M{"collection_id": collID.String()}, findOpts)
	if err != nil {
		return nil, fmt.Errorf("mint/mongo: list withdrawals: %w", err)
	}
	defer cursor.Close(ctx)

	result := make([]*treasury.Withdrawal, 0)
	for cursor.Next(ctx) {
		var m withdrawalModel
		if err := cursor.Decode(&m); err != nil {
			return nil, err
		}
		w, err := fromWithdrawalModel(&m)
		if err != nil {
			return nil, err
		}
		result = append(result, w)
	}
	return result, cursor.Err()
}

func isNoDocuments(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}
