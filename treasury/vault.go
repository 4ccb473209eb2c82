package treasury

import (
	"context"
	"fmt"
	"sync"

	"github.com/xraph/mintledger/id"
	"github.com/xraph/mintledger/types"
)

// Receipt records one settled payment.
type Receipt struct {
	ID      id.PayoutID `json:"id"`
	Payment Payment     `json:"payment"`
}

// Vault is an in-process Payout that credits settled payments to
// per-address balances. It is the default Payout and is what tests use to
// observe withdrawals.
type Vault struct {
	mu       sync.RWMutex
	balances map[types.Address]types.Amount
	seen     map[string]struct{}
	receipts []Receipt
	fail     error
}

// NewVault creates an empty vault.
func NewVault() *Vault {
	return &Vault{
		balances: make(map[types.Address]types.Amount),
		seen:     make(map[string]struct{}),
	}
}

// Pay credits p.Amount to p.To. A reference that was already settled is
// acknowledged without crediting twice.
func (v *Vault) Pay(_ context.Context, p Payment) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.fail != nil {
		return v.fail
	}
	if p.Reference != "" {
		if _, ok := v.seen[p.Reference]; ok {
			return nil
		}
	}

	next, ok := v.balances[p.To].Add(p.Amount)
	if !ok {
		return fmt.Errorf("%w: balance overflow for %s", ErrPayoutRejected, p.To.Hex())
	}
	v.balances[p.To] = next
	v.receipts = append(v.receipts, Receipt{ID: id.NewPayoutID(), Payment: p})
	if p.Reference != "" {
		v.seen[p.Reference] = struct{}{}
	}
	return nil
}

// BalanceOf returns the payment currency settled to addr.
func (v *Vault) BalanceOf(addr types.Address) types.Amount {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.balances[addr]
}

// Receipts returns every settled payment in settlement order.
func (v *Vault) Receipts() []Receipt {
	v.mu.RLock()
	defer v.mu.RUnlock()

	out := make([]Receipt, len(v.receipts))
	copy(out, v.receipts)
	return out
}

// FailWith makes every subsequent Pay return err. Pass nil to recover.
func (v *Vault) FailWith(err error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.fail = err
}
