package observability_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/mintledger"
	"github.com/xraph/mintledger/observability"
	"github.com/xraph/mintledger/store/memory"
	"github.com/xraph/mintledger/treasury"
	"github.com/xraph/mintledger/types"
)

var (
	owner = types.MustParseAddress("0x00000000000000000000000000000000000000a1")
	alice = types.MustParseAddress("0x00000000000000000000000000000000000000b2")
)

func TestMetricsExtensionCountsEngineActivity(t *testing.T) {
	ctx := context.Background()
	reg := prometheus.NewRegistry()
	factory := observability.NewPrometheusFactory(reg)
	metrics := observability.NewMetricsExtension(factory)
	vault := treasury.NewVault()

	eng, err := mintledger.New(memory.New(), mintledger.DefaultGenesis(owner),
		mintledger.WithPlugin(metrics),
		mintledger.WithPayout(vault),
		mintledger.WithClock(clockwork.NewFakeClockAt(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))),
	)
	require.NoError(t, err)
	require.NoError(t, eng.Start(ctx))

	_, err = eng.Transfer(ctx, owner, alice, types.NewAmount(50))
	require.NoError(t, err)
	_, err = eng.Mint(ctx, alice, types.NewAmount(5))
	require.NoError(t, err)
	_, err = eng.Mint(ctx, alice, types.NewAmount(5))
	require.Error(t, err)
	_, err = eng.Mint(ctx, owner, types.NewAmount(11))
	require.Error(t, err)
	_, err = eng.SetEthToTokenRatio(ctx, owner, types.NewAmount(3))
	require.NoError(t, err)
	_, err = eng.SetDailyMintLimit(ctx, owner, types.NewAmount(30))
	require.NoError(t, err)

	vault.FailWith(errors.New("offline"))
	_, err = eng.WithdrawETH(ctx, owner)
	require.Error(t, err)
	vault.FailWith(nil)
	_, err = eng.WithdrawETH(ctx, owner)
	require.NoError(t, err)

	assert.Equal(t, float64(1), value(metrics.Transfers))
	assert.Equal(t, float64(1), value(metrics.Mints))
	assert.Equal(t, float64(2), value(metrics.MintRejected))
	assert.Equal(t, float64(1), value(factory.Counter("mintledger.mint.rejected.alreadymintedtoday")))
	assert.Equal(t, float64(1), value(factory.Counter("mintledger.mint.rejected.exceedsdailymintlimit")))
	assert.Equal(t, float64(1), value(metrics.RatioChanges))
	assert.Equal(t, float64(1), value(metrics.LimitChanges))
	assert.Equal(t, float64(1), value(metrics.Withdrawals))
	assert.Equal(t, float64(1), value(metrics.WithdrawalFailures))
}

func TestPrometheusFactoryReusesMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	f := observability.NewPrometheusFactory(reg)

	c1 := f.Counter("mintledger.token.transfers")
	c2 := f.Counter("mintledger.token.transfers")
	c1.Inc()
	c2.Add(2)
	assert.Equal(t, float64(3), value(c1))

	h := f.Histogram("mintledger.mint.units")
	h.Observe(4)

	families, err := reg.Gather()
	require.NoError(t, err)
	names := make([]string, 0, len(families))
	for _, fam := range families {
		names = append(names, fam.GetName())
	}
	assert.ElementsMatch(t, []string{"mintledger_token_transfers_total", "mintledger_mint_units"}, names)
}

func value(c any) float64 {
	return testutil.ToFloat64(c.(prometheus.Collector))
}
