// Package storetest holds a conformance suite that every journal backend
// must pass.
package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/mintledger"
	"github.com/xraph/mintledger/event"
	"github.com/xraph/mintledger/id"
	"github.com/xraph/mintledger/store"
	"github.com/xraph/mintledger/types"
)

var (
	Owner = types.MustParseAddress("0x00000000000000000000000000000000000000a1")
	Alice = types.MustParseAddress("0x00000000000000000000000000000000000000b2")
	Bob   = types.MustParseAddress("0x00000000000000000000000000000000000000c3")
)

// Journal returns a small valid journal: genesis, a transfer, a mint, a
// ratio change, a withdrawal and its reversal.
func Journal() []*event.Event {
	ts := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return []*event.Event{
		{
			ID: id.NewEventID(), Seq: 1, Kind: event.KindTransfer, Caller: Owner, To: Owner,
			Amount:    types.NewAmount(1000),
			Params:    &event.Params{EthToTokenRatio: types.NewAmount(1), MaxDailyMintPerAccount: types.NewAmount(10)},
			Timestamp: ts,
		},
		{
			ID: id.NewEventID(), Seq: 2, Kind: event.KindTransfer, Caller: Owner, From: Owner, To: Alice,
			Amount: types.NewAmount(100), Timestamp: ts.Add(time.Minute),
		},
		{
			ID: id.NewEventID(), Seq: 3, Kind: event.KindMint, Caller: Bob, To: Bob,
			Payment: types.NewAmount(10), Amount: types.NewAmount(10), Day: 20513,
			Timestamp: ts.Add(2 * time.Minute),
		},
		{
			ID: id.NewEventID(), Seq: 4, Kind: event.KindRatioChanged, Caller: Owner,
			Amount: types.NewAmount(2), Timestamp: ts.Add(3 * time.Minute),
		},
		{
			ID: id.NewEventID(), Seq: 5, Kind: event.KindWithdrawal, Caller: Owner, To: Owner,
			Amount: types.NewAmount(10), Timestamp: ts.Add(4 * time.Minute),
		},
		{
			ID: id.NewEventID(), Seq: 6, Kind: event.KindWithdrawalReverted, Caller: Owner, To: Owner,
			Amount: types.NewAmount(10), Timestamp: ts.Add(4*time.Minute + 1500*time.Millisecond),
		},
	}
}

// Run exercises s against the journal contract. s must be empty.
func Run(t *testing.T, s store.Store) {
	t.Helper()
	ctx := context.Background()

	require.NoError(t, s.Migrate(ctx))
	require.NoError(t, s.Ping(ctx))

	last, err := s.LastSequence(ctx)
	require.NoError(t, err)
	assert.Zero(t, last)

	empty, err := s.ListEvents(ctx, event.ListOpts{})
	require.NoError(t, err)
	assert.Empty(t, empty)

	journal := Journal()
	for _, e := range journal {
		require.NoError(t, s.AppendEvent(ctx, e), "append seq %d", e.Seq)
	}

	t.Run("LastSequence", func(t *testing.T) {
		last, err := s.LastSequence(ctx)
		require.NoError(t, err)
		assert.Equal(t, uint64(6), last)
	})

	t.Run("DuplicateSequence", func(t *testing.T) {
		dup := journal[1].Clone()
		dup.ID = id.NewEventID()
		err := s.AppendEvent(ctx, dup)
		assert.ErrorIs(t, err, mintledger.ErrSequenceConflict)
	})

	t.Run("RoundTrip", func(t *testing.T) {
		got, err := s.ListEvents(ctx, event.ListOpts{})
		require.NoError(t, err)
		require.Len(t, got, len(journal))
		for i, e := range got {
			want := journal[i]
			assert.Equal(t, want.ID.String(), e.ID.String())
			assert.Equal(t, want.Seq, e.Seq)
			assert.Equal(t, want.Kind, e.Kind)
			assert.Equal(t, want.Caller, e.Caller)
			assert.Equal(t, want.From, e.From)
			assert.Equal(t, want.To, e.To)
			assert.True(t, want.Amount.Equal(e.Amount), "amount seq %d", e.Seq)
			assert.True(t, want.Payment.Equal(e.Payment), "payment seq %d", e.Seq)
			assert.Equal(t, want.Day, e.Day)
			assert.True(t, want.Timestamp.Equal(e.Timestamp), "timestamp seq %d", e.Seq)
		}
		require.NotNil(t, got[0].Params)
		assert.Equal(t, "10", got[0].Params.MaxDailyMintPerAccount.String())
		assert.True(t, got[0].IsGenesis())
		assert.Nil(t, got[1].Params)
	})

	t.Run("Filters", func(t *testing.T) {
		tests := []struct {
			name string
			opts event.ListOpts
			want []uint64
		}{
			{"after", event.ListOpts{AfterSeq: 3}, []uint64{4, 5, 6}},
			{"limit", event.ListOpts{Limit: 2}, []uint64{1, 2}},
			{"after and limit", event.ListOpts{AfterSeq: 1, Limit: 2}, []uint64{2, 3}},
			{"kind", event.ListOpts{Kinds: []event.Kind{event.KindMint}}, []uint64{3}},
			{"kinds", event.ListOpts{Kinds: []event.Kind{event.KindRatioChanged, event.KindWithdrawal}}, []uint64{4, 5}},
			{"reversal", event.ListOpts{Kinds: []event.Kind{event.KindWithdrawalReverted}}, []uint64{6}},
			{"account", event.ListOpts{Account: Alice}, []uint64{2}},
			{"account minter", event.ListOpts{Account: Bob}, []uint64{3}},
			{"account and kind", event.ListOpts{Account: Owner, Kinds: []event.Kind{event.KindTransfer}}, []uint64{1, 2}},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				got, err := s.ListEvents(ctx, tt.opts)
				require.NoError(t, err)
				seqs := make([]uint64, len(got))
				for i, e := range got {
					seqs[i] = e.Seq
				}
				assert.Equal(t, tt.want, seqs)
			})
		}
	})

	t.Run("Close", func(t *testing.T) {
		require.NoError(t, s.Close())
		assert.Error(t, s.Ping(ctx))
	})
}
