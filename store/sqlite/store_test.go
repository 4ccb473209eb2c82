package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/sqlitedriver"

	"github.com/xraph/mintledger/store/sqlite"
	"github.com/xraph/mintledger/store/storetest"
)

func openTestStore(t *testing.T) *sqlite.Store {
	t.Helper()

	sdb := sqlitedriver.New()
	dsn := "file:" + filepath.Join(t.TempDir(), "journal.sqlite")
	require.NoError(t, sdb.Open(context.Background(), dsn))

	db, err := grove.Open(sdb)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	return sqlite.New(db)
}

func TestStoreConformance(t *testing.T) {
	storetest.Run(t, openTestStore(t))
}

func TestStoreMigrateIsIdempotent(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	require.NoError(t, s.Migrate(ctx))
	require.NoError(t, s.Migrate(ctx))
	last, err := s.LastSequence(ctx)
	require.NoError(t, err)
	require.Zero(t, last)
}
