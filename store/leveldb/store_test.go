package leveldb_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/mintledger/event"
	"github.com/xraph/mintledger/store/leveldb"
	"github.com/xraph/mintledger/store/storetest"
)

func TestConformance(t *testing.T) {
	s, err := leveldb.OpenInMemory()
	require.NoError(t, err)
	storetest.Run(t, s)
}

func TestReopenKeepsJournal(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "journal")

	s, err := leveldb.Open(path)
	require.NoError(t, err)
	for _, e := range storetest.Journal() {
		require.NoError(t, s.AppendEvent(ctx, e))
	}
	require.NoError(t, s.Close())

	reopened, err := leveldb.Open(path)
	require.NoError(t, err)
	defer reopened.Close()

	last, err := reopened.LastSequence(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(6), last)

	got, err := reopened.ListEvents(ctx, event.ListOpts{AfterSeq: 4})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, event.KindWithdrawal, got[0].Kind)
	assert.Equal(t, event.KindWithdrawalReverted, got[1].Kind)
}

func TestOpenRequiresPath(t *testing.T) {
	_, err := leveldb.Open("  ")
	assert.Error(t, err)
}
