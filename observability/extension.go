// Package observability provides a metrics extension for Mint that records
// issuance lifecycle event counts via a MetricFactory.
package observability

import (
	"context"
	"time"

	"github.com/xraph/mint/plugin"
)

// Ensure MetricsExtension implements required interfaces.
var (
	_ plugin.Plugin              = (*MetricsExtension)(nil)
	_ plugin.OnInit              = (*MetricsExtension)(nil)
	_ plugin.OnCollectionCreated = (*MetricsExtension)(nil)
	_ plugin.OnPolicyUpdated     = (*MetricsExtension)(nil)
	_ plugin.OnClaimed           = (*MetricsExtension)(nil)
	_ plugin.OnGranted           = (*MetricsExtension)(nil)
	_ plugin.OnClaimRejected     = (*MetricsExtension)(nil)
	_ plugin.OnSupplyExhausted   = (*MetricsExtension)(nil)
	_ plugin.OnWithdrawal        = (*MetricsExtension)(nil)
	_ plugin.OnJournalFlushed    = (*MetricsExtension)(nil)
)

// Counter interface for metric counters.
type Counter interface {
	Inc()
	Add(float64)
}

// Histogram interface for metric histograms.
type Histogram interface {
	Observe(float64)
}

// MetricFactory creates metrics.
type MetricFactory interface {
	Counter(name string) Counter
	Histogram(name string) Histogram
}

// MetricsExtension records system-wide lifecycle metrics.
// Register it as a Mint plugin to automatically track issuance metrics.
type MetricsExtension struct {
	factory MetricFactory

	// Collection metrics
	CollectionCreated Counter
	PolicyUpdated     Counter

	// Issuance metrics
	TokensClaimed   Counter
	TokensGranted   Counter
	ClaimsAccepted  Counter
	ClaimsRejected  Counter
	ClaimBatchSize  Histogram
	SupplyExhausted Counter

	// Treasury metrics
	Withdrawals      Counter
	WithdrawalAmount Histogram

	// Journal metrics
	JournalFlushCount   Counter
	JournalFlushLatency Histogram

	// Error metrics
	StoreErrors  Counter
	PluginErrors Counter
}

// NewMetricsExtension creates a MetricsExtension with the provided MetricFactory.
// Use app.Metrics() in forge extensions.
func NewMetricsExtension(factory MetricFactory) *MetricsExtension {
	return &MetricsExtension{
		factory: factory,

		// Collection metrics
		CollectionCreated: factory.Counter("mint.collection.created"),
		PolicyUpdated:     factory.Counter("mint.policy.updated"),

		// Issuance metrics
		TokensClaimed:   factory.Counter("mint.tokens.claimed"),
		TokensGranted:   factory.Counter("mint.tokens.granted"),
		ClaimsAccepted:  factory.Counter("mint.claims.accepted"),
		ClaimsRejected:  factory.Counter("mint.claims.rejected"),
		ClaimBatchSize:  factory.Histogram("mint.claim.batch.size"),
		SupplyExhausted: factory.Counter("mint.supply.exhausted"),

		// Treasury metrics
		Withdrawals:      factory.Counter("mint.withdrawals"),
		WithdrawalAmount: factory.Histogram("mint.withdrawal.amount"),

		// Journal metrics
		JournalFlushCount:   factory.Counter("mint.journal.flushes"),
		JournalFlushLatency: factory.Histogram("mint.journal.flush.latency_ms"),

		// Error metrics
		StoreErrors:  factory.Counter("mint.store.errors"),
		PluginErrors: factory.Counter("mint.plugin.errors"),
	}
}

// Name implements plugin.Plugin.
func (m *MetricsExtension) Name() string { return "observability-metrics" }

// OnInit implements plugin.OnInit.
func (m *MetricsExtension) OnInit(_ context.Context, _ interface{}) error {
	// No initialization needed
	return nil
}

// ──────────────────────────────────────────────────
// Collection lifecycle hooks
// ──────────────────────────────────────────────────

// OnCollectionCreated implements plugin.OnCollectionCreated.
func (m *MetricsExtension) OnCollectionCreated(_ context.Context, _ interface{}) error {
	m.CollectionCreated.Inc()
	return nil
}

// OnPolicyUpdated implements plugin.OnPolicyUpdated.
func (m *MetricsExtension) OnPolicyUpdated(_ context.Context, _, _, _ interface{}) error {
	m.PolicyUpdated.Inc()
	return nil
}

// ──────────────────────────────────────────────────
// Issuance lifecycle hooks
// ──────────────────────────────────────────────────

// OnClaimed implements plugin.OnClaimed.
func (m *MetricsExtension) OnClaimed(_ context.Context, _, _ string, tokenIDs []uint64, _ interface{}) error {
	count := float64(len(tokenIDs))
	m.ClaimsAccepted.Inc()
	m.TokensClaimed.Add(count)
	m.ClaimBatchSize.Observe(count)
	return nil
}

// OnGranted implements plugin.OnGranted.
func (m *MetricsExtension) OnGranted(_ context.Context, _, _ string, tokenIDs []uint64) error {
	m.TokensGranted.Add(float64(len(tokenIDs)))
	return nil
}

// OnClaimRejected implements plugin.OnClaimRejected.
func (m *MetricsExtension) OnClaimRejected(_ context.Context, _, _ string, _ uint64, _ error) error {
	m.ClaimsRejected.Inc()
	return nil
}

// OnSupplyExhausted implements plugin.OnSupplyExhausted.
func (m *MetricsExtension) OnSupplyExhausted(_ context.Context, _ string, _ uint64) error {
	m.SupplyExhausted.Inc()
	return nil
}

// ──────────────────────────────────────────────────
// Treasury lifecycle hooks
// ──────────────────────────────────────────────────

// OnWithdrawal implements plugin.OnWithdrawal.
func (m *MetricsExtension) OnWithdrawal(_ context.Context, _, _ string, _ interface{}) error {
	m.Withdrawals.Inc()
	return nil
}

// ──────────────────────────────────────────────────
// Journal lifecycle hooks
// ──────────────────────────────────────────────────

// OnJournalFlushed implements plugin.OnJournalFlushed.
func (m *MetricsExtension) OnJournalFlushed(_ context.Context, count int, elapsed time.Duration) error {
	m.JournalFlushCount.Inc()
	m.JournalFlushLatency.Observe(float64(elapsed.Milliseconds()))
	return nil
}
