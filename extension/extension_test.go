package extension

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/mintledger"
	"github.com/xraph/mintledger/store/leveldb"
	"github.com/xraph/mintledger/store/memory"
	"github.com/xraph/mintledger/store/sqlite"
	"github.com/xraph/mintledger/treasury"
	"github.com/xraph/mintledger/types"
)

const ownerHex = "0x00000000000000000000000000000000000000a1"

func TestMergeWithDefaults(t *testing.T) {
	cfg := mergeWithDefaults(Config{Owner: ownerHex, TotalSupply: "500"})

	assert.Equal(t, "/mintledger", cfg.BasePath)
	assert.Equal(t, "500", cfg.TotalSupply)
	assert.Equal(t, "10", cfg.MaxDailyMintPerAccount)
	assert.Equal(t, "1", cfg.EthToTokenRatio)
	assert.Equal(t, StoreMemory, cfg.Store)
	assert.Equal(t, 1000, cfg.ReplayPageSize)
	assert.Equal(t, 5*time.Second, cfg.PluginTimeout)
	assert.Equal(t, 3, cfg.Payout.MaxRetries)
	assert.Equal(t, 500, cfg.API.MaxEventsPage)
}

func TestMergeConfigurations(t *testing.T) {
	yaml := Config{Owner: ownerHex, TotalSupply: "42", Store: StoreLevelDB}
	prog := Config{
		DisableRoutes: true,
		TotalSupply:   "7",
		LevelDBPath:   "/var/lib/mintledger",
		PluginTimeout: time.Second,
	}

	cfg := mergeConfigurations(yaml, prog)
	assert.True(t, cfg.DisableRoutes)
	assert.Equal(t, "42", cfg.TotalSupply, "file config wins")
	assert.Equal(t, StoreLevelDB, cfg.Store)
	assert.Equal(t, "/var/lib/mintledger", cfg.LevelDBPath, "programmatic fills gaps")
	assert.Equal(t, time.Second, cfg.PluginTimeout)
	assert.Equal(t, "10", cfg.MaxDailyMintPerAccount, "defaults fill the rest")
}

func TestGenesisFromConfig(t *testing.T) {
	g, err := genesisFromConfig(mergeWithDefaults(Config{Owner: ownerHex}))
	require.NoError(t, err)
	assert.Equal(t, types.MustParseAddress(ownerHex), g.Owner)
	assert.True(t, strings.EqualFold(ownerHex, g.Owner.Hex()))
	assert.Equal(t, "10000", g.TotalSupply.String())

	_, err = genesisFromConfig(Config{Owner: "nope", TotalSupply: "x", MaxDailyMintPerAccount: "10", EthToTokenRatio: "1"})
	require.ErrorIs(t, err, mintledger.ErrInvalidGenesis)
	assert.ErrorIs(t, err, mintledger.ErrInvalidInput)

	var multi mintledger.MultiError
	require.ErrorAs(t, err, &multi)
	assert.Len(t, multi.Errors, 2)
}

func TestOpenStore(t *testing.T) {
	ctx := context.Background()

	s, err := openStore(ctx, Config{})
	require.NoError(t, err)
	assert.IsType(t, &memory.Store{}, s)

	s, err = openStore(ctx, Config{Store: StoreLevelDB, LevelDBPath: filepath.Join(t.TempDir(), "journal")})
	require.NoError(t, err)
	assert.IsType(t, &leveldb.Store{}, s)
	require.NoError(t, s.Close())

	s, err = openStore(ctx, Config{Store: StoreSQLite, DSN: "file:" + filepath.Join(t.TempDir(), "journal.sqlite")})
	require.NoError(t, err)
	assert.IsType(t, &sqlite.Store{}, s)
	require.NoError(t, s.Close())

	_, err = openStore(ctx, Config{Store: StorePostgres})
	assert.ErrorIs(t, err, mintledger.ErrInvalidInput)

	_, err = openStore(ctx, Config{Store: "cassandra"})
	assert.ErrorIs(t, err, mintledger.ErrInvalidInput)
}

func TestBuildReplaysSQLiteJournal(t *testing.T) {
	ctx := context.Background()
	dsn := "file:" + filepath.Join(t.TempDir(), "journal.sqlite")
	owner := types.MustParseAddress(ownerHex)
	alice := types.MustParseAddress("0x00000000000000000000000000000000000000b2")

	build := func() *Extension {
		e := New(
			WithConfig(mergeWithDefaults(Config{Owner: ownerHex})),
			WithGroveStore(StoreSQLite, dsn),
			WithPayout(treasury.NewVault()),
		)
		require.NoError(t, e.Build(ctx))
		require.NoError(t, e.Engine().Start(ctx))
		return e
	}

	first := build()
	_, err := first.Engine().Transfer(ctx, owner, alice, types.NewAmount(25))
	require.NoError(t, err)
	_, err = first.Engine().Mint(ctx, alice, types.NewAmount(3))
	require.NoError(t, err)
	require.NoError(t, first.Engine().Stop(ctx))

	second := build()
	defer second.Engine().Stop(ctx) //nolint:errcheck
	assert.Equal(t, uint64(3), second.Engine().Sequence())
	assert.Equal(t, "28", second.Engine().BalanceOf(alice).String())
	assert.Equal(t, "3", second.Engine().TreasuryBalance().String())
}

func TestBuildServesAPI(t *testing.T) {
	vault := treasury.NewVault()
	e := New(
		WithConfig(mergeWithDefaults(Config{Owner: ownerHex})),
		WithStore(memory.New()),
		WithPayout(vault),
	)
	require.NoError(t, e.Build(context.Background()))
	require.NotNil(t, e.Engine())
	require.NoError(t, e.Engine().Start(context.Background()))
	defer e.Engine().Stop(context.Background()) //nolint:errcheck

	require.NoError(t, e.Health(context.Background()))

	h := e.Handler()
	require.NotNil(t, h)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/mintledger/v1/token", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"total_supply":"10000"`)

	e.config.DisableRoutes = true
	assert.Nil(t, e.Handler())
}

func TestBuildRejectsBadPayoutEndpoint(t *testing.T) {
	cfg := mergeWithDefaults(Config{Owner: ownerHex})
	cfg.Payout.Endpoint = "://bad"
	e := New(WithConfig(cfg), WithStore(memory.New()))
	assert.Error(t, e.Build(context.Background()))
}
