// Package plugin provides an extensible plugin system for mintledger.
// Plugins can hook into lifecycle events and committed state transitions.
package plugin

import (
	"context"

	"github.com/xraph/mintledger/event"
	"github.com/xraph/mintledger/types"
)

// Plugin is the base interface that all plugins must implement.
type Plugin interface {
	Name() string
}

// ──────────────────────────────────────────────────
// Lifecycle hooks
// ──────────────────────────────────────────────────

// OnInit is called once the engine has replayed its journal and started.
type OnInit interface {
	Plugin
	OnInit(ctx context.Context, engine interface{}) error
}

// OnShutdown is called when the engine is stopping.
type OnShutdown interface {
	Plugin
	OnShutdown(ctx context.Context) error
}

// ──────────────────────────────────────────────────
// Ledger hooks
// ──────────────────────────────────────────────────

// OnTransfer is called after a transfer is committed.
type OnTransfer interface {
	Plugin
	OnTransfer(ctx context.Context, e *event.Event) error
}

// ──────────────────────────────────────────────────
// Mint hooks
// ──────────────────────────────────────────────────

// OnMint is called after a mint is committed.
type OnMint interface {
	Plugin
	OnMint(ctx context.Context, e *event.Event) error
}

// OnMintRejected is called when a mint request is refused. reason is a
// stable code such as "AlreadyMintedToday".
type OnMintRejected interface {
	Plugin
	OnMintRejected(ctx context.Context, caller types.Address, payment types.Amount, reason string) error
}

// ──────────────────────────────────────────────────
// Configuration hooks
// ──────────────────────────────────────────────────

// OnConfigChanged is called after the owner changes the ratio or the
// daily ceiling.
type OnConfigChanged interface {
	Plugin
	OnConfigChanged(ctx context.Context, e *event.Event) error
}

// ──────────────────────────────────────────────────
// Treasury hooks
// ──────────────────────────────────────────────────

// OnWithdrawal is called after a treasury withdrawal is settled and committed.
type OnWithdrawal interface {
	Plugin
	OnWithdrawal(ctx context.Context, e *event.Event) error
}

// OnWithdrawalFailed is called when the payout for a withdrawal fails.
// attempt is the uncommitted withdrawal event.
type OnWithdrawalFailed interface {
	Plugin
	OnWithdrawalFailed(ctx context.Context, attempt *event.Event, err error) error
}
