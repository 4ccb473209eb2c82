package mintledger_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/mintledger"
	"github.com/xraph/mintledger/account"
	"github.com/xraph/mintledger/event"
	"github.com/xraph/mintledger/types"
)

func TestMintSuccess(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	evt, err := f.engine.Mint(ctx, alice, amt(10))
	require.NoError(t, err)

	assert.Equal(t, event.KindMint, evt.Kind)
	assert.Equal(t, alice, evt.To)
	assert.Equal(t, "10", evt.Payment.String())
	assert.Equal(t, "10", evt.Amount.String())
	assert.Equal(t, account.DayOf(startTime.Unix()), evt.Day)

	assert.Equal(t, "10", f.engine.BalanceOf(alice).String())
	assert.Equal(t, "1010", f.engine.TotalSupply().String())
	assert.Equal(t, "10", f.engine.TreasuryBalance().String())

	rec := f.engine.MintRecordOf(alice)
	assert.True(t, rec.MintedOn(evt.Day))
	assert.Equal(t, "10", rec.MintedToday.String())
	f.assertConserved(t, owner, alice)
}

func TestMintCeiling(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.engine.Mint(ctx, alice, amt(11))
	require.ErrorIs(t, err, mintledger.ErrExceedsDailyMintLimit)
	assert.True(t, mintledger.IsAdmissionError(err))
	assert.True(t, f.engine.BalanceOf(alice).IsZero())
	assert.True(t, f.engine.TreasuryBalance().IsZero())
	assert.False(t, f.engine.MintRecordOf(alice).Minted)

	// A rejected request does not consume the day.
	_, err = f.engine.Mint(ctx, alice, amt(10))
	require.NoError(t, err)
}

func TestMintCooldown(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.engine.Mint(ctx, alice, amt(5))
	require.NoError(t, err)

	_, err = f.engine.Mint(ctx, alice, amt(1))
	require.ErrorIs(t, err, mintledger.ErrAlreadyMintedToday)
	assert.Equal(t, mintledger.ReasonAlreadyMintedToday, mintledger.Reason(err))
	assert.Equal(t, "5", f.engine.BalanceOf(alice).String())

	// Another account is unaffected.
	_, err = f.engine.Mint(ctx, bob, amt(1))
	require.NoError(t, err)

	f.clock.Advance(24 * time.Hour)
	_, err = f.engine.Mint(ctx, alice, amt(1))
	require.NoError(t, err)
	assert.Equal(t, "6", f.engine.BalanceOf(alice).String())
	assert.Equal(t, "1", f.engine.MintRecordOf(alice).MintedToday.String())
}

func TestMintCeilingCheckedBeforeCooldown(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.engine.Mint(ctx, alice, amt(1))
	require.NoError(t, err)

	_, err = f.engine.Mint(ctx, alice, amt(11))
	assert.ErrorIs(t, err, mintledger.ErrExceedsDailyMintLimit)
	assert.NotErrorIs(t, err, mintledger.ErrAlreadyMintedToday)
}

func TestMintDayBoundary(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	// One second before midnight UTC.
	nextDay := (startTime.Unix()/account.SecondsPerDay + 1) * account.SecondsPerDay
	f.clock.Advance(time.Unix(nextDay-1, 0).Sub(f.clock.Now()))

	first, err := f.engine.Mint(ctx, alice, amt(3))
	require.NoError(t, err)

	// The day turns over after one second, not 24 hours.
	f.clock.Advance(time.Second)
	second, err := f.engine.Mint(ctx, alice, amt(3))
	require.NoError(t, err)
	assert.Equal(t, first.Day+1, second.Day)

	f.clock.Advance(23 * time.Hour)
	_, err = f.engine.Mint(ctx, alice, amt(3))
	assert.ErrorIs(t, err, mintledger.ErrAlreadyMintedToday)
}

func TestMintOverflow(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.engine.SetEthToTokenRatio(ctx, owner, types.MaxAmount)
	require.NoError(t, err)
	_, err = f.engine.SetDailyMintLimit(ctx, owner, types.MaxAmount)
	require.NoError(t, err)

	_, err = f.engine.Mint(ctx, alice, amt(2))
	require.ErrorIs(t, err, mintledger.ErrArithmeticOverflow)
	assert.Equal(t, mintledger.ReasonArithmeticOverflow, mintledger.Reason(err))

	// Ratio * 1 fits, but the supply credit overflows.
	_, err = f.engine.Mint(ctx, alice, amt(1))
	require.ErrorIs(t, err, mintledger.ErrArithmeticOverflow)
	assert.Equal(t, "1000", f.engine.TotalSupply().String())
	assert.False(t, f.engine.MintRecordOf(alice).Minted)
}

func TestMintZeroPaymentConsumesDay(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	evt, err := f.engine.Mint(ctx, alice, types.Zero)
	require.NoError(t, err)
	assert.True(t, evt.Amount.IsZero())

	_, err = f.engine.Mint(ctx, alice, amt(1))
	assert.ErrorIs(t, err, mintledger.ErrAlreadyMintedToday)
}

func TestMintZeroCaller(t *testing.T) {
	f := newFixture(t)
	_, err := f.engine.Mint(context.Background(), types.ZeroAddress, amt(1))
	assert.ErrorIs(t, err, mintledger.ErrInvalidRecipient)
}

func TestMintConcurrentSameAccount(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := f.engine.Mint(ctx, alice, amt(10)); err == nil {
				mu.Lock()
				successes++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.Equal(t, "10", f.engine.BalanceOf(alice).String())
	assert.Equal(t, "10", f.engine.TreasuryBalance().String())
}

func TestQuoteMint(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	q, err := f.engine.QuoteMint(alice, amt(4))
	require.NoError(t, err)
	assert.True(t, q.Allowed)
	assert.Equal(t, "4", q.Units.String())
	assert.Equal(t, "10", q.Limit.String())
	assert.Empty(t, q.Reason)
	assert.Equal(t, f.engine.MintDay(), q.Day)

	q, err = f.engine.QuoteMint(alice, amt(40))
	require.NoError(t, err)
	assert.False(t, q.Allowed)
	assert.Equal(t, mintledger.ReasonExceedsDailyMintLimit, q.Reason)

	// Quoting commits nothing.
	assert.Equal(t, uint64(1), f.engine.Sequence())

	_, err = f.engine.Mint(ctx, alice, amt(4))
	require.NoError(t, err)
	q, err = f.engine.QuoteMint(alice, amt(1))
	require.NoError(t, err)
	assert.Equal(t, mintledger.ReasonAlreadyMintedToday, q.Reason)
}
