package memory_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/mintledger"
	"github.com/xraph/mintledger/event"
	"github.com/xraph/mintledger/store/memory"
	"github.com/xraph/mintledger/store/storetest"
)

func TestConformance(t *testing.T) {
	storetest.Run(t, memory.New())
}

func TestListReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	require.NoError(t, s.AppendEvent(ctx, storetest.Journal()[0]))

	got, err := s.ListEvents(ctx, event.ListOpts{})
	require.NoError(t, err)
	got[0].Seq = 99

	again, err := s.ListEvents(ctx, event.ListOpts{})
	require.NoError(t, err)
	assert.Equal(t, uint64(1), again[0].Seq)
}

func TestFailAppends(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	outage := errors.New("disk full")
	s.FailAppends(outage)

	err := s.AppendEvent(ctx, storetest.Journal()[0])
	assert.ErrorIs(t, err, outage)
	assert.Equal(t, 0, s.Len())

	s.FailAppends(nil)
	require.NoError(t, s.AppendEvent(ctx, storetest.Journal()[0]))
	assert.Equal(t, 1, s.Len())
}

func TestClosed(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())

	assert.ErrorIs(t, s.AppendEvent(ctx, storetest.Journal()[0]), mintledger.ErrStoreClosed)
	_, err := s.ListEvents(ctx, event.ListOpts{})
	assert.ErrorIs(t, err, mintledger.ErrStoreClosed)
	_, err = s.LastSequence(ctx)
	assert.ErrorIs(t, err, mintledger.ErrStoreClosed)
}
