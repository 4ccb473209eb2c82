// Package event defines the append-only journal of committed state
// transitions. Every change to balances, configuration or the treasury is
// recorded as exactly one Event; replaying the journal in sequence order
// rebuilds the full engine state.
package event

import (
	"time"

	"github.com/xraph/mintledger/id"
	"github.com/xraph/mintledger/types"
)

// Kind identifies the state transition an event records.
type Kind string

const (
	// KindTransfer moves units between two accounts. The genesis grant is a
	// transfer from the zero address.
	KindTransfer Kind = "transfer"
	// KindMint credits freshly minted units against a payment.
	KindMint Kind = "mint"
	// KindRatioChanged replaces the payment-to-unit exchange ratio.
	KindRatioChanged Kind = "ratio_changed"
	// KindLimitChanged replaces the per-account daily mint ceiling.
	KindLimitChanged Kind = "limit_changed"
	// KindWithdrawal drains the treasury to the owner. It is journaled
	// before the payout runs.
	KindWithdrawal Kind = "withdrawal"
	// KindWithdrawalReverted returns a withdrawal to the treasury after its
	// payout failed. It always directly follows that withdrawal.
	KindWithdrawalReverted Kind = "withdrawal_reverted"
)

// Kinds lists every known event kind in declaration order.
var Kinds = []Kind{KindTransfer, KindMint, KindRatioChanged, KindLimitChanged, KindWithdrawal, KindWithdrawalReverted}

// Valid reports whether k is a known event kind.
func (k Kind) Valid() bool {
	for _, known := range Kinds {
		if k == known {
			return true
		}
	}
	return false
}

// ParseKind converts a string into a Kind.
func ParseKind(s string) (Kind, bool) {
	k := Kind(s)
	return k, k.Valid()
}

// Params carries the initial configuration on the genesis event.
type Params struct {
	EthToTokenRatio        types.Amount `json:"eth_to_token_ratio"`
	MaxDailyMintPerAccount types.Amount `json:"max_daily_mint_per_account"`
}

// Event is one committed state transition.
//
// Field usage by kind:
//
//	transfer        From, To, Amount
//	mint            To (minter), Payment, Amount (units), Day
//	ratio_changed   Amount (new ratio)
//	limit_changed   Amount (new ceiling)
//	withdrawal      To (owner), Amount (payment currency)
//	withdrawal_reverted  To (owner), Amount (payment currency returned)
//
// Caller is always the party that invoked the operation; for the genesis
// grant it is the owner.
type Event struct {
	ID        id.EventID    `json:"id"`
	Seq       uint64        `json:"seq"`
	Kind      Kind          `json:"kind"`
	Caller    types.Address `json:"caller"`
	From      types.Address `json:"from"`
	To        types.Address `json:"to"`
	Amount    types.Amount  `json:"amount"`
	Payment   types.Amount  `json:"payment"`
	Day       int64         `json:"day,omitempty"`
	Params    *Params       `json:"params,omitempty"`
	Timestamp time.Time     `json:"timestamp"`
}

// IsGenesis reports whether e is the genesis grant.
func (e *Event) IsGenesis() bool {
	return e.Kind == KindTransfer && e.Params != nil && types.IsZeroAddress(e.From)
}

// Involves reports whether addr appears as the caller, sender or
// recipient of e.
func (e *Event) Involves(addr types.Address) bool {
	return e.Caller == addr || e.From == addr || e.To == addr
}

// Clone returns a deep copy of e.
func (e *Event) Clone() *Event {
	if e == nil {
		return nil
	}
	c := *e
	if e.Params != nil {
		p := *e.Params
		c.Params = &p
	}
	return &c
}
