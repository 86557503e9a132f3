package mint

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/xraph/mint/collection"
	"github.com/xraph/mint/id"
	"github.com/xraph/mint/journal"
	"github.com/xraph/mint/plugin"
	"github.com/xraph/mint/quota"
	"github.com/xraph/mint/store"
	"github.com/xraph/mint/token"
	"github.com/xraph/mint/treasury"
	"github.com/xraph/mint/types"
)

// MaxClaimBatch is the fixed per-call batch ceiling for claims, independent
// of the per-wallet cap.
const MaxClaimBatch = 10

// Mint is the token-issuance engine. It manages any number of collections,
// each an independent issuance state machine with its own policy, supply
// cursor, quota map and balance.
type Mint struct {
	store    store.Store
	registry token.Registry
	receiver treasury.Receiver
	plugins  *plugin.Registry
	logger   *slog.Logger
	now      func() time.Time

	// Per-collection locks serialize every mutating operation's whole
	// read-check-write sequence.
	locksMu sync.Mutex
	locks   map[string]*sync.Mutex

	// Background journal worker
	eventBuffer chan *journal.Event
	stopChan    chan struct{}
	wg          sync.WaitGroup

	journalBatchSize     int
	journalFlushInterval time.Duration
	autoMigrate          bool
}

// New creates a new Mint instance.
func New(s store.Store, opts ...Option) *Mint {
	m := &Mint{
		store:                s,
		registry:             token.NewMemoryRegistry(),
		receiver:             treasury.NewVault(),
		plugins:              plugin.NewRegistry(),
		logger:               slog.Default(),
		now:                  time.Now,
		locks:                make(map[string]*sync.Mutex),
		eventBuffer:          make(chan *journal.Event, 10000),
		stopChan:             make(chan struct{}),
		journalBatchSize:     100,
		journalFlushInterval: 5 * time.Second,
		autoMigrate:          true,
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// Option configures a Mint instance.
type Option func(*Mint)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Mint) {
		m.logger = logger
		m.plugins.WithLogger(logger)
	}
}

// WithPlugin registers a plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(m *Mint) {
		_ = m.plugins.Register(p) //nolint:errcheck // best-effort plugin registration during init
	}
}

// WithRegistry sets the ownership registry collaborator.
func WithRegistry(r token.Registry) Option {
	return func(m *Mint) {
		m.registry = r
	}
}

// WithReceiver sets the fund receiver collaborator for withdrawals.
func WithReceiver(r treasury.Receiver) Option {
	return func(m *Mint) {
		m.receiver = r
	}
}

// WithJournalConfig configures journal batching parameters.
func WithJournalConfig(batchSize int, flushInterval time.Duration) Option {
	return func(m *Mint) {
		m.journalBatchSize = batchSize
		m.journalFlushInterval = flushInterval
	}
}

// WithAutoMigrate controls whether Start migrates the store. Enabled by
// default; hosts that run migrations out of band disable it.
func WithAutoMigrate(enabled bool) Option {
	return func(m *Mint) {
		m.autoMigrate = enabled
	}
}

// WithClock overrides the time source. Tests use this to pin timestamps.
func WithClock(now func() time.Time) Option {
	return func(m *Mint) {
		m.now = now
	}
}

// Start migrates the store and begins background workers.
func (m *Mint) Start(ctx context.Context) error {
	if m.autoMigrate {
		if err := m.store.Migrate(ctx); err != nil {
			return err
		}
	}

	m.plugins.EmitInit(ctx, m)

	m.wg.Add(1)
	go m.journalFlushWorker(ctx)

	m.logger.Info("mint started",
		"batch_size", m.journalBatchSize,
		"flush_interval", m.journalFlushInterval,
	)

	return nil
}

// Stop shuts down the engine, flushing any buffered journal events.
func (m *Mint) Stop() error {
	close(m.stopChan)
	m.wg.Wait()

	ctx := context.Background()
	m.plugins.EmitShutdown(ctx)

	return m.store.Close()
}

// Plugins returns the plugin registry.
func (m *Mint) Plugins() *plugin.Registry { return m.plugins }

// Registry returns the ownership registry collaborator.
func (m *Mint) Registry() token.Registry { return m.registry }

// lockFor returns the mutex serializing mutations for one collection.
func (m *Mint) lockFor(collID id.CollectionID) *sync.Mutex {
	m.locksMu.Lock()
	defer m.locksMu.Unlock()

	key := collID.String()
	mu, ok := m.locks[key]
	if !ok {
		mu = &sync.Mutex{}
		m.locks[key] = mu
	}
	return mu
}

// ──────────────────────────────────────────────────
// Collection Management
// ──────────────────────────────────────────────────

// CreateCollection registers a new collection. MaxSupply and Owner are
// immutable afterwards; everything in Policy stays owner-mutable.
func (m *Mint) CreateCollection(ctx context.Context, c *collection.Collection) error {
	if c.MaxSupply == 0 {
		return ErrInvalidSupply
	}
	if c.Owner.IsZero() {
		return &ValidationError{Field: "owner", Message: "owner is required"}
	}
	if !c.Policy.Royalty.Valid() {
		return ErrInvalidRoyalty
	}

	if c.ID.IsNil() {
		c.ID = id.NewCollectionID()
	}
	c.Entity = types.NewEntity()
	c.NextID = 1
	if c.Balance.Currency == "" {
		c.Balance = types.Zero(c.Policy.UnitPrice.Currency)
	}

	if err := m.store.CreateCollection(ctx, c); err != nil {
		return err
	}

	m.logger.Info("collection created",
		"collection_id", c.ID.String(),
		"slug", c.Slug,
		"max_supply", c.MaxSupply,
	)

	m.plugins.EmitCollectionCreated(ctx, c)
	return nil
}

// GetCollection retrieves a collection by ID.
func (m *Mint) GetCollection(ctx context.Context, collID id.CollectionID) (*collection.Collection, error) {
	return m.store.GetCollection(ctx, collID)
}

// GetCollectionBySlug retrieves a collection by slug.
func (m *Mint) GetCollectionBySlug(ctx context.Context, slug string) (*collection.Collection, error) {
	return m.store.GetCollectionBySlug(ctx, slug)
}

// ListCollections lists collections.
func (m *Mint) ListCollections(ctx context.Context, opts collection.ListOpts) ([]*collection.Collection, error) {
	return m.store.ListCollections(ctx, opts)
}

// ──────────────────────────────────────────────────
// Issuance
// ──────────────────────────────────────────────────

// Claim issues quantity sequential tokens to caller against exact payment.
// Checks run in a fixed order (gate, quantity bounds, payment, supply,
// quota) and nothing is mutated until every check has passed, so a failed
// claim leaves stored state untouched and the payment uncaptured.
func (m *Mint) Claim(ctx context.Context, collID id.CollectionID, caller types.Address, quantity uint64, payment types.Money) ([]uint64, error) {
	mu := m.lockFor(collID)
	mu.Lock()
	defer mu.Unlock()

	c, err := m.store.GetCollection(ctx, collID)
	if err != nil {
		return nil, err
	}

	if err := m.checkClaim(ctx, c, caller, quantity, payment); err != nil {
		m.plugins.EmitClaimRejected(ctx, collID.String(), caller.String(), quantity, err)
		return nil, err
	}

	w, err := m.store.GetWallet(ctx, collID, caller)
	if err != nil {
		if !IsNotFound(err) {
			return nil, err
		}
		w = &quota.Wallet{
			Entity:       types.NewEntity(),
			CollectionID: collID,
			Address:      caller,
		}
	}

	status := quota.Check(caller, w.Claimed, quantity, c.Policy.WalletCap)
	if !status.Allowed {
		m.plugins.EmitClaimRejected(ctx, collID.String(), caller.String(), quantity, ErrWalletCapExceeded)
		return nil, ErrWalletCapExceeded
	}

	// All checks passed: mutate the snapshot and persist.
	first := c.Advance(quantity)
	c.Balance = c.Balance.Add(payment)
	prevClaimed := w.Claimed
	w.Claimed += quantity
	w.Touch()

	// The collection write is the commit point. The wallet goes first so a
	// failure on either write leaves the supply cursor and balance
	// unpersisted; a stranded wallet increment is undone before returning.
	if err := m.store.PutWallet(ctx, w); err != nil {
		return nil, err
	}
	if err := m.store.UpdateCollection(ctx, c); err != nil {
		w.Claimed = prevClaimed
		if rerr := m.store.PutWallet(ctx, w); rerr != nil {
			m.logger.Error("failed to restore wallet after aborted claim",
				"collection_id", collID.String(),
				"wallet", caller.String(),
				"error", rerr,
			)
		}
		return nil, err
	}

	tokenIDs := m.createRun(ctx, collID, caller, first, quantity)

	m.recordEvent(&journal.Event{
		ID:           id.NewMintEventID(),
		CollectionID: collID,
		Kind:         journal.KindClaim,
		Wallet:       caller,
		Quantity:     quantity,
		FirstTokenID: first,
		Amount:       payment,
		Timestamp:    m.now(),
	})

	m.plugins.EmitClaimed(ctx, collID.String(), caller.String(), tokenIDs, payment)
	if c.SoldOut() {
		m.plugins.EmitSupplyExhausted(ctx, collID.String(), c.MaxSupply)
	}

	m.logger.Debug("claim accepted",
		"collection_id", collID.String(),
		"wallet", caller.String(),
		"quantity", quantity,
		"first_token_id", first,
	)

	return tokenIDs, nil
}

// checkClaim validates a claim request against the collection snapshot.
// Pure: no state is touched.
func (m *Mint) checkClaim(_ context.Context, c *collection.Collection, _ types.Address, quantity uint64, payment types.Money) error {
	if !c.Policy.MintOpen {
		return ErrMintClosed
	}
	if quantity == 0 || quantity > MaxClaimBatch {
		return ErrInvalidQuantity
	}
	expected := c.Policy.UnitPrice.Multiply(int64(quantity))
	if !payment.Equal(expected) {
		return ErrWrongPayment
	}
	if !c.CanIssue(quantity) {
		return ErrSupplyExhausted
	}
	return nil
}

// Grant issues quantity sequential tokens to recipient, owner-only.
// Grants skip the open gate, payment and the wallet quota entirely; only
// the supply cap applies.
func (m *Mint) Grant(ctx context.Context, collID id.CollectionID, caller, recipient types.Address, quantity uint64) ([]uint64, error) {
	mu := m.lockFor(collID)
	mu.Lock()
	defer mu.Unlock()

	c, err := m.store.GetCollection(ctx, collID)
	if err != nil {
		return nil, err
	}

	if !c.Owner.Equal(caller) {
		return nil, ErrUnauthorized
	}
	if quantity == 0 {
		return nil, ErrInvalidQuantity
	}
	if !c.CanIssue(quantity) {
		return nil, ErrSupplyExhausted
	}

	first := c.Advance(quantity)
	c.Touch()

	if err := m.store.UpdateCollection(ctx, c); err != nil {
		return nil, err
	}

	tokenIDs := m.createRun(ctx, collID, recipient, first, quantity)

	m.recordEvent(&journal.Event{
		ID:           id.NewMintEventID(),
		CollectionID: collID,
		Kind:         journal.KindGrant,
		Wallet:       recipient,
		Quantity:     quantity,
		FirstTokenID: first,
		Amount:       types.Zero(c.Policy.UnitPrice.Currency),
		Timestamp:    m.now(),
	})

	m.plugins.EmitGranted(ctx, collID.String(), recipient.String(), tokenIDs)
	if c.SoldOut() {
		m.plugins.EmitSupplyExhausted(ctx, collID.String(), c.MaxSupply)
	}

	m.logger.Debug("grant issued",
		"collection_id", collID.String(),
		"recipient", recipient.String(),
		"quantity", quantity,
		"first_token_id", first,
	)

	return tokenIDs, nil
}

// createRun creates quantity sequential tokens starting at first for owner.
// NextID is monotonic and already advanced, so the registry contract
// guarantees these creations succeed; a failure here means the registry
// violated it and is logged, never rolled back.
func (m *Mint) createRun(ctx context.Context, collID id.CollectionID, owner types.Address, first, quantity uint64) []uint64 {
	tokenIDs := make([]uint64, 0, quantity)
	for i := uint64(0); i < quantity; i++ {
		tokenID := first + i
		if err := m.registry.CreateItem(ctx, collID, owner, tokenID); err != nil {
			m.logger.Error("registry rejected fresh token id",
				"collection_id", collID.String(),
				"token_id", tokenID,
				"error", err,
			)
			continue
		}
		tokenIDs = append(tokenIDs, tokenID)
	}
	return tokenIDs
}

// ──────────────────────────────────────────────────
// Treasury
// ──────────────────────────────────────────────────

// Withdraw transfers the entire collected balance to destination,
// owner-only. If the destination rejects the transfer the balance stays
// unchanged and ErrTransferFailed is returned.
func (m *Mint) Withdraw(ctx context.Context, collID id.CollectionID, caller, destination types.Address) (*treasury.Withdrawal, error) {
	mu := m.lockFor(collID)
	mu.Lock()
	defer mu.Unlock()

	c, err := m.store.GetCollection(ctx, collID)
	if err != nil {
		return nil, err
	}

	if !c.Owner.Equal(caller) {
		return nil, ErrUnauthorized
	}

	amount := c.Balance

	if err := m.receiver.Receive(ctx, destination, amount); err != nil {
		m.logger.Warn("withdrawal rejected by destination",
			"collection_id", collID.String(),
			"destination", destination.String(),
			"error", err,
		)
		return nil, ErrTransferFailed
	}

	c.Balance = types.Zero(amount.Currency)
	c.Touch()

	if err := m.store.UpdateCollection(ctx, c); err != nil {
		return nil, err
	}

	w := &treasury.Withdrawal{
		Entity:       types.NewEntity(),
		ID:           id.NewWithdrawalID(),
		CollectionID: collID,
		Destination:  destination,
		Amount:       amount,
	}
	if err := m.store.CreateWithdrawal(ctx, w); err != nil {
		return nil, err
	}

	m.recordEvent(&journal.Event{
		ID:           id.NewMintEventID(),
		CollectionID: collID,
		Kind:         journal.KindWithdrawal,
		Wallet:       destination,
		Amount:       amount,
		Timestamp:    m.now(),
	})

	m.plugins.EmitWithdrawal(ctx, collID.String(), destination.String(), amount)

	m.logger.Info("funds withdrawn",
		"collection_id", collID.String(),
		"destination", destination.String(),
		"amount", amount.String(),
	)

	return w, nil
}

// ──────────────────────────────────────────────────
// Policy Administration
// ──────────────────────────────────────────────────

// SetPrice replaces the per-token price, owner-only.
func (m *Mint) SetPrice(ctx context.Context, collID id.CollectionID, caller types.Address, price types.Money) error {
	return m.updatePolicy(ctx, collID, caller, func(p *collection.Policy) error {
		p.UnitPrice = price
		return nil
	})
}

// SetWalletCap replaces the per-wallet cap, owner-only. The cap may be set
// below a wallet's existing count; that wallet keeps its tokens and is only
// blocked from further claims.
func (m *Mint) SetWalletCap(ctx context.Context, collID id.CollectionID, caller types.Address, walletCap uint64) error {
	return m.updatePolicy(ctx, collID, caller, func(p *collection.Policy) error {
		p.WalletCap = walletCap
		return nil
	})
}

// SetMintOpen toggles the issuance gate, owner-only.
func (m *Mint) SetMintOpen(ctx context.Context, collID id.CollectionID, caller types.Address, open bool) error {
	return m.updatePolicy(ctx, collID, caller, func(p *collection.Policy) error {
		p.MintOpen = open
		return nil
	})
}

// SetMetadataBase replaces the metadata base pointer, owner-only.
func (m *Mint) SetMetadataBase(ctx context.Context, collID id.CollectionID, caller types.Address, base string) error {
	return m.updatePolicy(ctx, collID, caller, func(p *collection.Policy) error {
		p.MetadataBase = base
		return nil
	})
}

// SetRoyalty replaces the royalty policy, owner-only. Rates above 10000
// basis points are rejected with ErrInvalidRoyalty.
func (m *Mint) SetRoyalty(ctx context.Context, collID id.CollectionID, caller types.Address, royalty collection.Royalty) error {
	return m.updatePolicy(ctx, collID, caller, func(p *collection.Policy) error {
		if !royalty.Valid() {
			return ErrInvalidRoyalty
		}
		p.Royalty = royalty
		return nil
	})
}

// SetPolicy replaces the whole policy in one call, owner-only.
func (m *Mint) SetPolicy(ctx context.Context, collID id.CollectionID, caller types.Address, policy collection.Policy) error {
	return m.updatePolicy(ctx, collID, caller, func(p *collection.Policy) error {
		if !policy.Royalty.Valid() {
			return ErrInvalidRoyalty
		}
		*p = policy
		return nil
	})
}

// updatePolicy runs one policy mutation under the collection lock.
func (m *Mint) updatePolicy(ctx context.Context, collID id.CollectionID, caller types.Address, mutate func(*collection.Policy) error) error {
	mu := m.lockFor(collID)
	mu.Lock()
	defer mu.Unlock()

	c, err := m.store.GetCollection(ctx, collID)
	if err != nil {
		return err
	}

	if !c.Owner.Equal(caller) {
		return ErrUnauthorized
	}

	oldPolicy := c.Policy
	if err := mutate(&c.Policy); err != nil {
		return err
	}

	// The balance and the unit price must stay in one currency: Claim adds
	// the payment straight onto the balance. An empty balance follows the
	// new currency; a held balance pins it until withdrawn.
	if c.Policy.UnitPrice.Currency != c.Balance.Currency {
		if !c.Balance.IsZero() {
			return ErrCurrencyMismatch
		}
		c.Balance = types.Zero(c.Policy.UnitPrice.Currency)
	}

	c.Touch()

	if err := m.store.UpdateCollection(ctx, c); err != nil {
		return err
	}

	m.plugins.EmitPolicyUpdated(ctx, c, oldPolicy, c.Policy)
	return nil
}

// ──────────────────────────────────────────────────
// Queries
// ──────────────────────────────────────────────────

// RemainingSupply returns how many tokens may still be issued.
func (m *Mint) RemainingSupply(ctx context.Context, collID id.CollectionID) (uint64, error) {
	c, err := m.store.GetCollection(ctx, collID)
	if err != nil {
		return 0, err
	}
	return c.Remaining(), nil
}

// Issued returns how many tokens have been issued so far.
func (m *Mint) Issued(ctx context.Context, collID id.CollectionID) (uint64, error) {
	c, err := m.store.GetCollection(ctx, collID)
	if err != nil {
		return 0, err
	}
	return c.Issued(), nil
}

// WalletClaimed returns how many tokens address has claimed. Wallets with
// no claims report zero.
func (m *Mint) WalletClaimed(ctx context.Context, collID id.CollectionID, address types.Address) (uint64, error) {
	w, err := m.store.GetWallet(ctx, collID, address)
	if err != nil {
		if IsNotFound(err) {
			return 0, nil
		}
		return 0, err
	}
	return w.Claimed, nil
}

// QuotaStatus reports a wallet's claim headroom under the current policy.
func (m *Mint) QuotaStatus(ctx context.Context, collID id.CollectionID, address types.Address) (quota.Status, error) {
	c, err := m.store.GetCollection(ctx, collID)
	if err != nil {
		return quota.Status{}, err
	}

	claimed, err := m.WalletClaimed(ctx, collID, address)
	if err != nil {
		return quota.Status{}, err
	}

	return quota.Check(address, claimed, 0, c.Policy.WalletCap), nil
}

// Balance returns the collected, not-yet-withdrawn balance.
func (m *Mint) Balance(ctx context.Context, collID id.CollectionID) (types.Money, error) {
	c, err := m.store.GetCollection(ctx, collID)
	if err != nil {
		return types.Money{}, err
	}
	return c.Balance, nil
}

// TokenURI returns the metadata URI for an issued token.
func (m *Mint) TokenURI(ctx context.Context, collID id.CollectionID, tokenID uint64) (string, error) {
	c, err := m.store.GetCollection(ctx, collID)
	if err != nil {
		return "", err
	}
	if tokenID == 0 || tokenID >= c.NextID {
		return "", ErrNotFound
	}
	return c.TokenURI(tokenID), nil
}

// RoyaltyInfo returns the royalty receiver and amount owed on a sale at
// salePrice, per the collection's current royalty policy.
func (m *Mint) RoyaltyInfo(ctx context.Context, collID id.CollectionID, tokenID uint64, salePrice types.Money) (types.Address, types.Money, error) {
	c, err := m.store.GetCollection(ctx, collID)
	if err != nil {
		return types.ZeroAddress, types.Money{}, err
	}
	if tokenID == 0 || tokenID >= c.NextID {
		return types.ZeroAddress, types.Money{}, ErrNotFound
	}
	receiver, amount := c.RoyaltyInfo(salePrice)
	return receiver, amount, nil
}

// Events queries the issuance journal for a collection.
func (m *Mint) Events(ctx context.Context, collID id.CollectionID, opts journal.QueryOpts) ([]*journal.Event, error) {
	return m.store.QueryEvents(ctx, collID, opts)
}

// Withdrawals lists the withdrawal records for a collection.
func (m *Mint) Withdrawals(ctx context.Context, collID id.CollectionID, opts treasury.ListOpts) ([]*treasury.Withdrawal, error) {
	return m.store.ListWithdrawals(ctx, collID, opts)
}

// ──────────────────────────────────────────────────
// Journal worker
// ──────────────────────────────────────────────────

// recordEvent buffers a journal event without blocking issuance. A full
// buffer drops the event with a warning; the journal is an activity log,
// not the source of truth.
func (m *Mint) recordEvent(e *journal.Event) {
	select {
	case m.eventBuffer <- e:
	default:
		m.logger.Warn("journal buffer full, dropping event",
			"collection_id", e.CollectionID.String(),
			"kind", string(e.Kind),
		)
	}
}

// journalFlushWorker flushes buffered events to the store.
func (m *Mint) journalFlushWorker(ctx context.Context) {
	defer m.wg.Done()

	batch := make([]*journal.Event, 0, m.journalBatchSize)
	ticker := time.NewTicker(m.journalFlushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-m.stopChan:
			// Drain anything still buffered, then final flush.
			for {
				select {
				case e := <-m.eventBuffer:
					batch = append(batch, e)
					continue
				default:
				}
				break
			}
			if len(batch) > 0 {
				m.flushJournalBatch(ctx, batch)
			}
			return

		case e := <-m.eventBuffer:
			batch = append(batch, e)
			if len(batch) >= m.journalBatchSize {
				m.flushJournalBatch(ctx, batch)
				batch = make([]*journal.Event, 0, m.journalBatchSize)
			}

		case <-ticker.C:
			if len(batch) > 0 {
				m.flushJournalBatch(ctx, batch)
				batch = make([]*journal.Event, 0, m.journalBatchSize)
			}
		}
	}
}

func (m *Mint) flushJournalBatch(ctx context.Context, batch []*journal.Event) {
	start := time.Now()

	if err := m.store.IngestEvents(ctx, batch); err != nil {
		m.logger.Error("failed to flush journal batch",
			"error", err,
			"batch_size", len(batch),
		)
		return
	}

	elapsed := time.Since(start)
	m.plugins.EmitJournalFlushed(ctx, len(batch), elapsed)

	m.logger.Debug("flushed journal batch",
		"batch_size", len(batch),
		"elapsed_ms", elapsed.Milliseconds(),
	)
}
