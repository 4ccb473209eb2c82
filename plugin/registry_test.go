package plugin_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/mintledger/event"
	"github.com/xraph/mintledger/plugin"
	"github.com/xraph/mintledger/types"
)

type recorder struct {
	name string

	mu       sync.Mutex
	mints    []*event.Event
	rejected []string
	fail     error
	block    time.Duration
}

func (r *recorder) Name() string { return r.name }

func (r *recorder) OnMint(_ context.Context, e *event.Event) error {
	time.Sleep(r.block)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.mints = append(r.mints, e)
	return r.fail
}

func (r *recorder) OnMintRejected(_ context.Context, _ types.Address, _ types.Amount, reason string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rejected = append(r.rejected, reason)
	return nil
}

type named string

func (n named) Name() string { return string(n) }

func TestRegisterDuplicate(t *testing.T) {
	r := plugin.NewRegistry()
	require.NoError(t, r.Register(named("a")))
	assert.Error(t, r.Register(named("a")))
	assert.Equal(t, 1, r.Count())
	assert.NotNil(t, r.Get("a"))
	assert.Nil(t, r.Get("missing"))
	assert.Len(t, r.List(), 1)
}

func TestImplementedInterfaces(t *testing.T) {
	got := plugin.ImplementedInterfaces(&recorder{name: "rec"})
	assert.ElementsMatch(t, []string{"OnMint", "OnMintRejected"}, got)
	assert.Empty(t, plugin.ImplementedInterfaces(named("plain")))
}

func TestEmitDispatchesToImplementers(t *testing.T) {
	r := plugin.NewRegistry()
	rec := &recorder{name: "rec"}
	require.NoError(t, r.Register(rec))
	require.NoError(t, r.Register(named("plain")))

	ctx := context.Background()
	e := &event.Event{Seq: 2, Kind: event.KindMint}
	r.EmitMint(ctx, e)
	r.EmitMintRejected(ctx, types.ZeroAddress, types.Zero, "AlreadyMintedToday")
	r.EmitTransfer(ctx, &event.Event{Kind: event.KindTransfer})

	assert.Equal(t, []*event.Event{e}, rec.mints)
	assert.Equal(t, []string{"AlreadyMintedToday"}, rec.rejected)
}

func TestEmitSurvivesFailureAndTimeout(t *testing.T) {
	r := plugin.NewRegistry().WithTimeout(20 * time.Millisecond)
	failing := &recorder{name: "failing", fail: errors.New("boom")}
	slow := &recorder{name: "slow", block: 200 * time.Millisecond}
	require.NoError(t, r.Register(failing))
	require.NoError(t, r.Register(slow))

	start := time.Now()
	r.EmitMint(context.Background(), &event.Event{Kind: event.KindMint})
	assert.Less(t, time.Since(start), 150*time.Millisecond)
	assert.Len(t, failing.mints, 1)
}
