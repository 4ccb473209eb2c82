package mintledger

import (
	"context"

	"github.com/xraph/mintledger/account"
	"github.com/xraph/mintledger/event"
	"github.com/xraph/mintledger/types"
)

// Mint converts payment into units at the current ratio and credits them
// to caller.
//
// Checks run in a fixed order and the first failure wins: the conversion
// must not overflow, the units must not exceed the daily ceiling, the
// caller must not have minted earlier on the same day, and the credit must
// not overflow. The day is the clock's Unix time divided by 86400, read
// once per call. The ceiling bounds each request, not the day's total;
// the cooldown is what caps an account to one mint per day.
func (e *Engine) Mint(ctx context.Context, caller types.Address, payment types.Amount) (*event.Event, error) {
	evt, err := e.mint(ctx, caller, payment)
	if err != nil {
		if IsRejection(err) {
			reason := Reason(err)
			e.logger.Warn("mint rejected",
				"account", caller.Hex(),
				"payment", payment.String(),
				"reason", reason,
			)
			e.plugins.EmitMintRejected(ctx, caller, payment, reason)
		}
		return nil, err
	}

	e.plugins.EmitMint(ctx, evt)
	return evt, nil
}

func (e *Engine) mint(ctx context.Context, caller types.Address, payment types.Amount) (*event.Event, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.started {
		return nil, ErrNotStarted
	}

	now := e.clock.Now()
	day := account.DayOf(now.Unix())

	units, err := e.st.admitMint(caller, payment, day)
	if err != nil {
		return nil, err
	}

	evt := e.newEvent(event.KindMint, caller, now)
	evt.To = caller
	evt.Payment = payment
	evt.Amount = units
	evt.Day = day

	if _, err := e.commit(ctx, evt); err != nil {
		return nil, err
	}

	e.logger.Debug("mint committed",
		"account", caller.Hex(),
		"payment", payment.String(),
		"units", units.String(),
		"day", day,
		"seq", evt.Seq,
	)
	return evt, nil
}

// QuoteMint evaluates a mint request against current state without
// committing it.
func (e *Engine) QuoteMint(caller types.Address, payment types.Amount) (*account.Admission, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if !e.started {
		return nil, ErrNotStarted
	}

	day := account.DayOf(e.clock.Now().Unix())
	units, err := e.st.admitMint(caller, payment, day)

	return &account.Admission{
		Allowed: err == nil,
		Caller:  caller,
		Payment: payment,
		Units:   units,
		Limit:   e.st.limit,
		Day:     day,
		Reason:  Reason(err),
	}, nil
}

// MintDay returns the current mint day according to the engine clock.
func (e *Engine) MintDay() int64 {
	return account.DayOf(e.clock.Now().Unix())
}
