// Package audithook bridges mintledger state transitions to an audit trail
// backend.
//
// It defines a local Recorder interface so the package does not depend on
// any particular audit store. Callers inject a RecorderFunc adapter at
// wiring time.
package audithook

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/xraph/mintledger/event"
	"github.com/xraph/mintledger/plugin"
	"github.com/xraph/mintledger/types"
)

// Compile-time interface checks.
var (
	_ plugin.Plugin             = (*Extension)(nil)
	_ plugin.OnTransfer         = (*Extension)(nil)
	_ plugin.OnMint             = (*Extension)(nil)
	_ plugin.OnMintRejected     = (*Extension)(nil)
	_ plugin.OnConfigChanged    = (*Extension)(nil)
	_ plugin.OnWithdrawal       = (*Extension)(nil)
	_ plugin.OnWithdrawalFailed = (*Extension)(nil)
)

// Recorder is the interface that audit backends must implement.
type Recorder interface {
	Record(ctx context.Context, event *AuditEvent) error
}

// AuditEvent is a local representation of an audit event.
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

// Extension bridges mintledger events to an audit trail backend.
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
// Token hooks
// ──────────────────────────────────────────────────

// OnTransfer implements plugin.OnTransfer.
func (e *Extension) OnTransfer(ctx context.Context, evt *event.Event) error {
	return e.record(ctx, ActionTokenTransferred, SeverityInfo, OutcomeSuccess,
		ResourceAccount, evt.From.Hex(), CategoryLedger, "",
		"event_id", evt.ID.String(),
		"seq", evt.Seq,
		"from", evt.From.Hex(),
		"to", evt.To.Hex(),
		"amount", evt.Amount.String(),
	)
}

// OnMint implements plugin.OnMint.
func (e *Extension) OnMint(ctx context.Context, evt *event.Event) error {
	return e.record(ctx, ActionTokenMinted, SeverityInfo, OutcomeSuccess,
		ResourceAccount, evt.To.Hex(), CategoryMint, "",
		"event_id", evt.ID.String(),
		"seq", evt.Seq,
		"payment", evt.Payment.String(),
		"units", evt.Amount.String(),
		"day", evt.Day,
	)
}

// OnMintRejected implements plugin.OnMintRejected.
func (e *Extension) OnMintRejected(ctx context.Context, caller types.Address, payment types.Amount, reason string) error {
	return e.record(ctx, ActionMintRejected, SeverityWarning, OutcomeFailure,
		ResourceAccount, caller.Hex(), CategoryMint, reason,
		"payment", payment.String(),
	)
}

// ──────────────────────────────────────────────────
// Configuration hooks
// ──────────────────────────────────────────────────

// OnConfigChanged implements plugin.OnConfigChanged.
func (e *Extension) OnConfigChanged(ctx context.Context, evt *event.Event) error {
	action := ActionRatioChanged
	if evt.Kind == event.KindLimitChanged {
		action = ActionLimitChanged
	}
	return e.record(ctx, action, SeverityInfo, OutcomeSuccess,
		ResourceConfig, string(evt.Kind), CategoryAdmin, "",
		"event_id", evt.ID.String(),
		"seq", evt.Seq,
		"caller", evt.Caller.Hex(),
		"value", evt.Amount.String(),
	)
}

// ──────────────────────────────────────────────────
// Treasury hooks
// ──────────────────────────────────────────────────

// OnWithdrawal implements plugin.OnWithdrawal.
func (e *Extension) OnWithdrawal(ctx context.Context, evt *event.Event) error {
	return e.record(ctx, ActionTreasuryWithdrawn, SeverityInfo, OutcomeSuccess,
		ResourceTreasury, evt.To.Hex(), CategoryTreasury, "",
		"event_id", evt.ID.String(),
		"seq", evt.Seq,
		"amount", evt.Amount.String(),
	)
}

// OnWithdrawalFailed implements plugin.OnWithdrawalFailed.
func (e *Extension) OnWithdrawalFailed(ctx context.Context, attempt *event.Event, err error) error {
	var reason string
	if err != nil {
		reason = err.Error()
	}
	return e.record(ctx, ActionTreasuryWithdrawFailed, SeverityCritical, OutcomeFailure,
		ResourceTreasury, attempt.To.Hex(), CategoryTreasury, reason,
		"event_id", attempt.ID.String(),
		"amount", attempt.Amount.String(),
	)
}

// ──────────────────────────────────────────────────
// Internal helpers
// ──────────────────────────────────────────────────

// record builds and sends an audit event if the action is enabled.
// Recorder failures are logged and never propagated to the engine.
func (e *Extension) record(
	ctx context.Context,
	action, severity, outcome string,
	resource, resourceID, category, reason string,
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
	if reason != "" {
		meta["reason"] = reason
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
