// Package treasury settles withdrawals of the accumulated payment currency.
//
// The engine never moves payment currency itself. It hands a Payment to a
// Payout and only zeroes its treasury once the payout reports success.
package treasury

import (
	"context"
	"errors"

	"github.com/xraph/mintledger/types"
)

// ErrPayoutRejected is returned by a Payout that refused the settlement.
var ErrPayoutRejected = errors.New("treasury: payout rejected")

// Payment is one settlement request.
type Payment struct {
	// Reference uniquely identifies the settlement so receivers can
	// deduplicate retries. The engine uses the withdrawal event ID.
	Reference string        `json:"reference"`
	To        types.Address `json:"to"`
	Amount    types.Amount  `json:"amount"`
}

// Payout delivers payment currency to an external party.
type Payout interface {
	Pay(ctx context.Context, p Payment) error
}

// PayoutFunc adapts a plain function to the Payout interface.
type PayoutFunc func(ctx context.Context, p Payment) error

// Pay implements Payout.
func (f PayoutFunc) Pay(ctx context.Context, p Payment) error {
	return f(ctx, p)
}
