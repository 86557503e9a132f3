// Package audithook bridges Mint lifecycle events to an audit trail backend.
//
// It defines a local Recorder interface so the package does not import
// Chronicle directly. Callers inject a RecorderFunc adapter that bridges
// to Chronicle at wiring time.
package audithook

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/xraph/mint/plugin"
)

// Compile-time interface checks.
var (
	_ plugin.Plugin              = (*Extension)(nil)
	_ plugin.OnCollectionCreated = (*Extension)(nil)
	_ plugin.OnPolicyUpdated     = (*Extension)(nil)
	_ plugin.OnClaimed           = (*Extension)(nil)
	_ plugin.OnGranted           = (*Extension)(nil)
	_ plugin.OnClaimRejected     = (*Extension)(nil)
	_ plugin.OnSupplyExhausted   = (*Extension)(nil)
	_ plugin.OnWithdrawal        = (*Extension)(nil)
)

// Recorder is the interface that audit backends must implement.
// This matches chronicle.Emitter but is defined locally so that the
// audit_hook package does not import Chronicle directly; callers inject
// the concrete *chronicle.Chronicle at wiring time.
type Recorder interface {
	Record(ctx context.Context, event *AuditEvent) error
}

// AuditEvent is a local representation of an audit event.
// It mirrors chronicle/audit.Event but avoids a module dependency.
type AuditEvent struct {
	Action     string         `json:"action"`
	Resource   string         `json:"resource"`
	Category   string         `json:"category"`
	ResourceID string         `json:"resource_id,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Outcome    string         `json:"outcome"`
	Severity   string         `json:"severity"`
	Reason     string         `json:"reason,omitempty"`
}

// RecorderFunc is an adapter to use a plain function as a Recorder.
type RecorderFunc func(ctx context.Context, event *AuditEvent) error

// Record implements Recorder.
func (f RecorderFunc) Record(ctx context.Context, event *AuditEvent) error {
	return f(ctx, event)
}

// Extension bridges Mint lifecycle events to an audit trail backend.
type Extension struct {
	recorder Recorder
	enabled  map[string]bool // nil = all enabled
	logger   *slog.Logger
}

// New creates an Extension that emits audit events through the provided Recorder.
func New(r Recorder, opts ...Option) *Extension {
	e := &Extension{
		recorder: r,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name implements plugin.Plugin.
func (e *Extension) Name() string { return "audit-hook" }

// ──────────────────────────────────────────────────
// Collection lifecycle hooks
// ──────────────────────────────────────────────────

// OnCollectionCreated implements plugin.OnCollectionCreated.
func (e *Extension) OnCollectionCreated(ctx context.Context, _ interface{}) error {
	return e.record(ctx, ActionCollectionCreated, SeverityInfo, OutcomeSuccess,
		ResourceCollection, "", CategoryAdmin, nil,
		"event", "collection_created",
	)
}

// OnPolicyUpdated implements plugin.OnPolicyUpdated.
func (e *Extension) OnPolicyUpdated(ctx context.Context, _, _, _ interface{}) error {
	return e.record(ctx, ActionPolicyUpdated, SeverityInfo, OutcomeSuccess,
		ResourcePolicy, "", CategoryAdmin, nil,
		"event", "policy_updated",
	)
}

// ──────────────────────────────────────────────────
// Issuance lifecycle hooks
// ──────────────────────────────────────────────────

// OnClaimed implements plugin.OnClaimed.
func (e *Extension) OnClaimed(ctx context.Context, collectionID, wallet string, tokenIDs []uint64, _ interface{}) error {
	return e.record(ctx, ActionClaimAccepted, SeverityInfo, OutcomeSuccess,
		ResourceClaim, collectionID, CategoryIssuance, nil,
		"collection_id", collectionID,
		"wallet", wallet,
		"quantity", len(tokenIDs),
	)
}

// OnGranted implements plugin.OnGranted.
func (e *Extension) OnGranted(ctx context.Context, collectionID, recipient string, tokenIDs []uint64) error {
	return e.record(ctx, ActionGrantIssued, SeverityInfo, OutcomeSuccess,
		ResourceGrant, collectionID, CategoryIssuance, nil,
		"collection_id", collectionID,
		"recipient", recipient,
		"quantity", len(tokenIDs),
	)
}

// OnClaimRejected implements plugin.OnClaimRejected.
func (e *Extension) OnClaimRejected(ctx context.Context, collectionID, wallet string, quantity uint64, reason error) error {
	return e.record(ctx, ActionClaimRejected, SeverityWarning, OutcomeFailure,
		ResourceClaim, collectionID, CategoryIssuance, reason,
		"collection_id", collectionID,
		"wallet", wallet,
		"quantity", quantity,
	)
}

// OnSupplyExhausted implements plugin.OnSupplyExhausted.
func (e *Extension) OnSupplyExhausted(ctx context.Context, collectionID string, maxSupply uint64) error {
	return e.record(ctx, ActionSupplyExhausted, SeverityInfo, OutcomeSuccess,
		ResourceCollection, collectionID, CategoryIssuance, nil,
		"collection_id", collectionID,
		"max_supply", maxSupply,
	)
}

// ──────────────────────────────────────────────────
// Treasury lifecycle hooks
// ──────────────────────────────────────────────────

// OnWithdrawal implements plugin.OnWithdrawal.
func (e *Extension) OnWithdrawal(ctx context.Context, collectionID, destination string, _ interface{}) error {
	return e.record(ctx, ActionFundsWithdrawn, SeverityInfo, OutcomeSuccess,
		ResourceTreasury, collectionID, CategoryTreasury, nil,
		"collection_id", collectionID,
		"destination", destination,
	)
}

// ──────────────────────────────────────────────────
// Internal helpers
// ──────────────────────────────────────────────────

// record builds and sends an audit event if the action is enabled.
func (e *Extension) record(
	ctx context.Context,
	action, severity, outcome string,
	resource, resourceID, category string,
	err error,
	kvPairs ...any,
) error {
	if e.enabled != nil && !e.enabled[action] {
		return nil
	}

	meta := make(map[string]any, len(kvPairs)/2+1)
	for i := 0; i+1 < len(kvPairs); i += 2 {
		key, ok := kvPairs[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", kvPairs[i])
		}
		meta[key] = kvPairs[i+1]
	}

	var reason string
	if err != nil {
		reason = err.Error()
		meta["error"] = err.Error()
	}

	evt := &AuditEvent{
		Action:     action,
		Resource:   resource,
		Category:   category,
		ResourceID: resourceID,
		Metadata:   meta,
		Outcome:    outcome,
		Severity:   severity,
		Reason:     reason,
	}

	if recErr := e.recorder.Record(ctx, evt); recErr != nil {
		e.logger.Warn("audit_hook: failed to record audit event",
			"action", action,
			"resource_id", resourceID,
			"error", recErr,
		)
	}
	return nil
}
