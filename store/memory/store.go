// Package memory provides an in-memory journal store for tests and
// single-process deployments that do not need durability.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/xraph/mintledger"
	"github.com/xraph/mintledger/event"
	"github.com/xraph/mintledger/store"
)

var _ store.Store = (*Store)(nil)

// Store keeps the journal in a slice ordered by sequence.
type Store struct {
	mu     sync.RWMutex
	events []*event.Event
	closed bool

	// failAppend makes AppendEvent fail; used to exercise store outages.
	failAppend error
}

// New creates an empty memory store.
func New() *Store {
	return &Store{
		events: make([]*event.Event, 0),
	}
}

// AppendEvent stores a copy of e. Sequences must be strictly increasing.
func (s *Store) AppendEvent(_ context.Context, e *event.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return mintledger.ErrStoreClosed
	}
	if s.failAppend != nil {
		return s.failAppend
	}
	if n := len(s.events); n > 0 && e.Seq <= s.events[n-1].Seq {
		return fmt.Errorf("%w: seq %d", mintledger.ErrSequenceConflict, e.Seq)
	}

	s.events = append(s.events, e.Clone())
	return nil
}

// ListEvents returns copies of the matching events in sequence order.
func (s *Store) ListEvents(_ context.Context, opts event.ListOpts) ([]*event.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, mintledger.ErrStoreClosed
	}

	result := make([]*event.Event, 0)
	for _, e := range s.events {
		if opts.Full(len(result)) {
			break
		}
		if opts.Match(e) {
			result = append(result, e.Clone())
		}
	}
	return result, nil
}

// LastSequence returns the highest stored sequence, zero when empty.
func (s *Store) LastSequence(_ context.Context) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return 0, mintledger.ErrStoreClosed
	}
	if len(s.events) == 0 {
		return 0, nil
	}
	return s.events[len(s.events)-1].Seq, nil
}

// FailAppends makes every subsequent AppendEvent return err. Pass nil to
// recover.
func (s *Store) FailAppends(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failAppend = err
}

// Len returns the number of stored events.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.events)
}

// Migrate is a no-op for the memory store.
func (s *Store) Migrate(_ context.Context) error {
	return nil
}

// Ping reports whether the store is open.
func (s *Store) Ping(_ context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return mintledger.ErrStoreClosed
	}
	return nil
}

// Close marks the store closed. Closing twice is a no-op.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
