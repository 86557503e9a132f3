package plugin

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"sync"
	"time"
)

// Registry manages all registered plugins and provides efficient dispatch.
// It uses type-cached discovery for O(1) dispatch performance.
type Registry struct {
	mu      sync.RWMutex
	plugins []Plugin
	logger  *slog.Logger

	// Type-cached plugin lists for efficient dispatch
	onInit              []OnInit
	onShutdown          []OnShutdown
	onCollectionCreated []OnCollectionCreated
	onPolicyUpdated     []OnPolicyUpdated
	onClaimed           []OnClaimed
	onGranted           []OnGranted
	onClaimRejected     []OnClaimRejected
	onSupplyExhausted   []OnSupplyExhausted
	onWithdrawal        []OnWithdrawal
	onJournalFlushed    []OnJournalFlushed
	metadataResolvers   map[string]MetadataResolver
}

// NewRegistry creates a new plugin registry.
func NewRegistry() *Registry {
	return &Registry{
		logger:            slog.Default(),
		metadataResolvers: make(map[string]MetadataResolver),
	}
}

// WithLogger sets the logger for the registry.
func (r *Registry) WithLogger(logger *slog.Logger) *Registry {
	r.logger = logger
	return r
}

// Register adds a plugin to the registry and caches its interfaces.
func (r *Registry) Register(p Plugin) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Check for duplicate
	for _, existing := range r.plugins {
		if existing.Name() == p.Name() {
			return fmt.Errorf("plugin: duplicate registration: %s", p.Name())
		}
	}

	r.plugins = append(r.plugins, p)

	// Type-switch to cache interfaces
	if v, ok := p.(OnInit); ok {
		r.onInit = append(r.onInit, v)
	}
	if v, ok := p.(OnShutdown); ok {
		r.onShutdown = append(r.onShutdown, v)
	}
	if v, ok := p.(OnCollectionCreated); ok {
		r.onCollectionCreated = append(r.onCollectionCreated, v)
	}
	if v, ok := p.(OnPolicyUpdated); ok {
		r.onPolicyUpdated = append(r.onPolicyUpdated, v)
	}
	if v, ok := p.(OnClaimed); ok {
		r.onClaimed = append(r.onClaimed, v)
	}
	if v, ok := p.(OnGranted); ok {
		r.onGranted = append(r.onGranted, v)
	}
	if v, ok := p.(OnClaimRejected); ok {
		r.onClaimRejected = append(r.onClaimRejected, v)
	}
	if v, ok := p.(OnSupplyExhausted); ok {
		r.onSupplyExhausted = append(r.onSupplyExhausted, v)
	}
	if v, ok := p.(OnWithdrawal); ok {
		r.onWithdrawal = append(r.onWithdrawal, v)
	}
	if v, ok := p.(OnJournalFlushed); ok {
		r.onJournalFlushed = append(r.onJournalFlushed, v)
	}
	if v, ok := p.(MetadataResolver); ok {
		r.metadataResolvers[v.ResolverName()] = v
	}

	r.logger.Info("plugin registered",
		"name", p.Name(),
		"interfaces", r.getImplementedInterfaces(p),
	)

	return nil
}

// getImplementedInterfaces returns a list of interfaces implemented by the plugin.
func (r *Registry) getImplementedInterfaces(p Plugin) []string {
	var interfaces []string
	v := reflect.TypeOf(p)

	// Check each interface
	checkInterface := func(iface reflect.Type, name string) {
		if v.Implements(iface) {
			interfaces = append(interfaces, name)
		}
	}

	// List all interfaces to check
	checkInterface(reflect.TypeOf((*OnInit)(nil)).Elem(), "OnInit")
	checkInterface(reflect.TypeOf((*OnShutdown)(nil)).Elem(), "OnShutdown")
	checkInterface(reflect.TypeOf((*OnCollectionCreated)(nil)).Elem(), "OnCollectionCreated")
	checkInterface(reflect.TypeOf((*OnPolicyUpdated)(nil)).Elem(), "OnPolicyUpdated")
	checkInterface(reflect.TypeOf((*OnClaimed)(nil)).Elem(), "OnClaimed")
	checkInterface(reflect.TypeOf((*OnGranted)(nil)).Elem(), "OnGranted")
	checkInterface(reflect.TypeOf((*OnClaimRejected)(nil)).Elem(), "OnClaimRejected")
	checkInterface(reflect.TypeOf((*OnSupplyExhausted)(nil)).Elem(), "OnSupplyExhausted")
	checkInterface(reflect.TypeOf((*OnWithdrawal)(nil)).Elem(), "OnWithdrawal")
	checkInterface(reflect.TypeOf((*MetadataResolver)(nil)).Elem(), "MetadataResolver")

	return interfaces
}

// Get returns a plugin by name.
func (r *Registry) Get(name string) Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.plugins {
		if p.Name() == name {
			return p
		}
	}
	return nil
}

// List returns all registered plugins.
func (r *Registry) List() []Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Plugin, len(r.plugins))
	copy(result, r.plugins)
	return result
}

// Count returns the number of registered plugins.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.plugins)
}

// ──────────────────────────────────────────────────
// Event emission methods
// ──────────────────────────────────────────────────

// EmitInit calls OnInit for all plugins that implement it.
func (r *Registry) EmitInit(ctx context.Context, m interface{}) {
	r.mu.RLock()
	plugins := r.onInit
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnInit(ctx, m)
		}); err != nil {
			r.logger.Warn("plugin OnInit failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitShutdown calls OnShutdown for all plugins that implement it.
func (r *Registry) EmitShutdown(ctx context.Context) {
	r.mu.RLock()
	plugins := r.onShutdown
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnShutdown(ctx)
		}); err != nil {
			r.logger.Warn("plugin OnShutdown failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitCollectionCreated emits a collection created event.
func (r *Registry) EmitCollectionCreated(ctx context.Context, coll interface{}) {
	r.mu.RLock()
	plugins := r.onCollectionCreated
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnCollectionCreated(ctx, coll)
		}); err != nil {
			r.logger.Warn("plugin OnCollectionCreated failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitPolicyUpdated emits a policy updated event.
func (r *Registry) EmitPolicyUpdated(ctx context.Context, coll interface{}, oldPolicy, newPolicy interface{}) {
	r.mu.RLock()
	plugins := r.onPolicyUpdated
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnPolicyUpdated(ctx, coll, oldPolicy, newPolicy)
		}); err != nil {
			r.logger.Warn("plugin OnPolicyUpdated failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitClaimed emits a claim accepted event.
func (r *Registry) EmitClaimed(ctx context.Context, collectionID, wallet string, tokenIDs []uint64, paid interface{}) {
	r.mu.RLock()
	plugins := r.onClaimed
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnClaimed(ctx, collectionID, wallet, tokenIDs, paid)
		}); err != nil {
			r.logger.Warn("plugin OnClaimed failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitGranted emits a grant issued event.
func (r *Registry) EmitGranted(ctx context.Context, collectionID, recipient string, tokenIDs []uint64) {
	r.mu.RLock()
	plugins := r.onGranted
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnGranted(ctx, collectionID, recipient, tokenIDs)
		}); err != nil {
			r.logger.Warn("plugin OnGranted failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitClaimRejected emits a claim rejected event.
func (r *Registry) EmitClaimRejected(ctx context.Context, collectionID, wallet string, quantity uint64, reason error) {
	r.mu.RLock()
	plugins := r.onClaimRejected
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnClaimRejected(ctx, collectionID, wallet, quantity, reason)
		}); err != nil {
			r.logger.Warn("plugin OnClaimRejected failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitSupplyExhausted emits a supply exhausted event.
func (r *Registry) EmitSupplyExhausted(ctx context.Context, collectionID string, maxSupply uint64) {
	r.mu.RLock()
	plugins := r.onSupplyExhausted
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnSupplyExhausted(ctx, collectionID, maxSupply)
		}); err != nil {
			r.logger.Warn("plugin OnSupplyExhausted failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitWithdrawal emits a funds withdrawn event.
func (r *Registry) EmitWithdrawal(ctx context.Context, collectionID, destination string, amount interface{}) {
	r.mu.RLock()
	plugins := r.onWithdrawal
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnWithdrawal(ctx, collectionID, destination, amount)
		}); err != nil {
			r.logger.Warn("plugin OnWithdrawal failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitJournalFlushed emits a journal flushed event.
func (r *Registry) EmitJournalFlushed(ctx context.Context, count int, elapsed time.Duration) {
	r.mu.RLock()
	plugins := r.onJournalFlushed
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnJournalFlushed(ctx, count, elapsed)
		}); err != nil {
			r.logger.Warn("plugin OnJournalFlushed failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// GetMetadataResolver returns a metadata resolver by name.
func (r *Registry) GetMetadataResolver(name string) MetadataResolver {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.metadataResolvers[name]
}

// callWithTimeout calls a plugin function with a timeout.
// Plugins should never block the issuance pipeline.
func (r *Registry) callWithTimeout(ctx context.Context, pluginName string, fn func() error) error {
	done := make(chan error, 1)

	go func() {
		done <- fn()
	}()

	select {
	case err := <-done:
		return err
	case <-time.After(5 * time.Second):
		return fmt.Errorf("plugin timeout: %s", pluginName)
	case <-ctx.Done():
		return ctx.Err()
	}
}
