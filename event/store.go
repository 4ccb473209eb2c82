package event

import (
	"context"

	"github.com/xraph/mintledger/types"
)

// Store persists the journal. Implementations must reject an event whose
// sequence number is already taken.
type Store interface {
	AppendEvent(ctx context.Context, e *Event) error
	ListEvents(ctx context.Context, opts ListOpts) ([]*Event, error)
	LastSequence(ctx context.Context) (uint64, error)
}

// ListOpts filters a journal read. Results are always in sequence order.
type ListOpts struct {
	// Kinds restricts results to the given kinds. Empty means all.
	Kinds []Kind
	// Account restricts results to events involving this address.
	// The zero address means no account filter.
	Account types.Address
	// AfterSeq returns only events with Seq > AfterSeq.
	AfterSeq uint64
	// Limit caps the number of results. Zero means no cap.
	Limit int
}

// Match reports whether e passes every filter in o except Limit.
func (o ListOpts) Match(e *Event) bool {
	if e.Seq <= o.AfterSeq {
		return false
	}
	if !types.IsZeroAddress(o.Account) && !e.Involves(o.Account) {
		return false
	}
	if len(o.Kinds) == 0 {
		return true
	}
	for _, k := range o.Kinds {
		if e.Kind == k {
			return true
		}
	}
	return false
}

// Full reports whether n results already satisfy the limit.
func (o ListOpts) Full(n int) bool {
	return o.Limit > 0 && n >= o.Limit
}

// KindStrings returns the kinds filter as plain strings.
func (o ListOpts) KindStrings() []string {
	out := make([]string, len(o.Kinds))
	for i, k := range o.Kinds {
		out[i] = string(k)
	}
	return out
}
