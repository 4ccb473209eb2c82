// Package store defines the persistence contract for the event journal.
package store

import (
	"context"

	"github.com/xraph/mintledger/event"
)

// Store is the unified storage interface for mintledger. The journal is
// the only persisted entity; balances and configuration are rebuilt from
// it on start.
type Store interface {
	event.Store

	// Core methods
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}
