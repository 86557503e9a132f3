package mongo

import (
	"time"

	"github.com/xraph/mint/collection"
	"github.com/xraph/mint/id"
	"github.com/xraph/mint/journal"
	"github.com/xraph/mint/quota"
	"github.com/xraph/mint/treasury"
	"github.com/xraph/mint/types"
)

// ==================== Collection models ====================

type collectionModel struct {
	ID              string            `bson:"_id"`
	Slug            string            `bson:"slug"`
	Name            string            `bson:"name"`
	Symbol          string            `bson:"symbol"`
	Owner           string            `bson:"owner"`
	MaxSupply       int64             `bson:"max_supply"`
	NextID          int64             `bson:"next_id"`
	UnitPriceCents  int64             `bson:"unit_price_cents"`
	Currency        string            `bson:"currency"`
	WalletCap       int64             `bson:"wallet_cap"`
	MintOpen        bool              `bson:"mint_open"`
	MetadataBase    string            `bson:"metadata_base"`
	RoyaltyReceiver string            `bson:"royalty_receiver"`
	RoyaltyRateBps  int64             `bson:"royalty_rate_bps"`
	BalanceCents    int64             `bson:"balance_cents"`
	Metadata        map[string]string `bson:"metadata,omitempty"`
	CreatedAt       time.Time         `bson:"created_at"`
	UpdatedAt       time.Time         `bson:"updated_at"`
}

func toCollectionModel(c *collection.Collection) *collectionModel {
	return &collectionModel{
		ID:              c.ID.String(),
		Slug:            c.Slug,
		Name:            c.Name,
		Symbol:          c.Symbol,
		Owner:           c.Owner.String(),
		MaxSupply:       int64(c.MaxSupply),
		NextID:          int64(c.NextID),
		UnitPriceCents:  c.Policy.UnitPrice.Amount,
		Currency:        c.Policy.UnitPrice.Currency,
		WalletCap:       int64(c.Policy.WalletCap),
		MintOpen:        c.Policy.MintOpen,
		MetadataBase:    c.Policy.MetadataBase,
		RoyaltyReceiver: c.Policy.Royalty.Receiver.String(),
		RoyaltyRateBps:  int64(c.Policy.Royalty.RateBps),
		BalanceCents:    c.Balance.Amount,
		Metadata:        c.Metadata,
		CreatedAt:       c.CreatedAt,
		UpdatedAt:       c.UpdatedAt,
	}
}

func fromCollectionModel(m *collectionModel) (*collection.Collection, error) {
	cid, err := id.ParseCollectionID(m.ID)
	if err != nil {
		return nil, err
	}
	return &collection.Collection{
		Entity:    types.Entity{CreatedAt: m.CreatedAt.UTC(), UpdatedAt: m.UpdatedAt.UTC()},
		ID:        cid,
		Slug:      m.Slug,
		Name:      m.Name,
		Symbol:    m.Symbol,
		Owner:     types.Address(m.Owner),
		MaxSupply: uint64(m.MaxSupply),
		NextID:    uint64(m.NextID),
		Policy: collection.Policy{
			UnitPrice:    types.Money{Amount: m.UnitPriceCents, Currency: m.Currency},
			WalletCap:    uint64(m.WalletCap),
			MintOpen:     m.MintOpen,
			MetadataBase: m.MetadataBase,
			Royalty: collection.Royalty{
				Receiver: types.Address(m.RoyaltyReceiver),
				RateBps:  uint32(m.RoyaltyRateBps),
			},
		},
		Balance:  types.Money{Amount: m.BalanceCents, Currency: m.Currency},
		Metadata: m.Metadata,
	}, nil
}

// ==================== Wallet models ====================

type walletModel struct {
	ID           string    `bson:"_id"` // "<collection_id>:<address>"
	CollectionID string    `bson:"collection_id"`
	Address      string    `bson:"address"`
	Claimed      int64     `bson:"claimed"`
	CreatedAt    time.Time `bson:"created_at"`
	UpdatedAt    time.Time `bson:"updated_at"`
}

func walletKey(collID id.CollectionID, address types.Address) string {
	return collID.String() + ":" + address.String()
}

func toWalletModel(w *quota.Wallet) *walletModel {
	return &walletModel{
		ID:           walletKey(w.CollectionID, w.Address),
		CollectionID: w.CollectionID.String(),
		Address:      w.Address.String(),
		Claimed:      int64(w.Claimed),
		CreatedAt:    w.CreatedAt,
		UpdatedAt:    w.UpdatedAt,
	}
}

func fromWalletModel(m *walletModel) (*quota.Wallet, error) {
	cid, err := id.ParseCollectionID(m.CollectionID)
	if err != nil {
		return nil, err
	}
	return &quota.Wallet{
		Entity:       types.Entity{CreatedAt: m.CreatedAt.UTC(), UpdatedAt: m.UpdatedAt.UTC()},
		CollectionID: cid,
		Address:      types.Address(m.Address),
		Claimed:      uint64(m.Claimed),
	}, nil
}

// ==================== Journal models ====================

type eventModel struct {
	ID           string            `bson:"_id"`
	CollectionID string            `bson:"collection_id"`
	Kind         string            `bson:"kind"`
	Wallet       string            `bson:"wallet"`
	Quantity     int64             `bson:"quantity"`
	FirstTokenID int64             `bson:"first_token_id"`
	AmountCents  int64             `bson:"amount_cents"`
	Currency     string            `bson:"currency"`
	Timestamp    time.Time         `bson:"ts"`
	Metadata     map[string]string `bson:"metadata,omitempty"`
}

func toEventModel(e *journal.Event) *eventModel {
	return &eventModel{
		ID:           e.ID.String(),
		CollectionID: e.CollectionID.String(),
		Kind:         string(e.Kind),
		Wallet:       e.Wallet.String(),
		Quantity:     int64(e.Quantity),
		FirstTokenID: int64(e.FirstTokenID),
		AmountCents:  e.Amount.Amount,
		Currency:     e.Amount.Currency,
		Timestamp:    e.Timestamp,
		Metadata:     e.Metadata,
	}
}

func fromEventModel(m *eventModel) (*journal.Event, error) {
	eid, err := id.ParseMintEventID(m.ID)
	if err != nil {
		return nil, err
	}
	cid, err := id.ParseCollectionID(m.CollectionID)
	if err != nil {
		return nil, err
	}
	return &journal.Event{
		ID:           eid,
		CollectionID: cid,
		Kind:         journal.Kind(m.Kind),
		Wallet:       types.Address(m.Wallet),
		Quantity:     uint64(m.Quantity),
		FirstTokenID: uint64(m.FirstTokenID),
		Amount:       types.Money{Amount: m.AmountCents, Currency: m.Currency},
		Timestamp:    m.Timestamp.UTC(),
		Metadata:     m.Metadata,
	}, nil
}

// ==================== Withdrawal models ====================

type withdrawalModel struct {
	ID           string    `bson:"_id"`
	CollectionID string    `bson:"collection_id"`
	Destination  string    `bson:"destination"`
	AmountCents  int64     `bson:"amount_cents"`
	Currency     string    `bson:"currency"`
	CreatedAt    time.Time `bson:"created_at"`
	UpdatedAt    time.Time `bson:"updated_at"`
}

func toWithdrawalModel(w *treasury.Withdrawal) *withdrawalModel {
	return &withdrawalModel{
		ID:           w.ID.String(),
		CollectionID: w.CollectionID.String(),
		Destination:  w.Destination.String(),
		AmountCents:  w.Amount.Amount,
		Currency:     w.Amount.Currency,
		CreatedAt:    w.CreatedAt,
		UpdatedAt:    w.UpdatedAt,
	}
}

func fromWithdrawalModel(m *withdrawalModel) (*treasury.Withdrawal, error) {
	wid, err := id.ParseWithdrawalID(m.ID)
	if err != nil {
		return nil, err
	}
	cid, err := id.ParseCollectionID(m.CollectionID)
	if err != nil {
		return nil, err
	}
	return &treasury.Withdrawal{
		Entity:       types.Entity{CreatedAt: m.CreatedAt.UTC(), UpdatedAt: m.UpdatedAt.UTC()},
		ID:           wid,
		CollectionID: cid,
		Destination:  types.Address(m.Destination),
		Amount:       types.Money{Amount: m.AmountCents, Currency: m.Currency},
	}, nil
}
