package treasury_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/mintledger/id"
	"github.com/xraph/mintledger/treasury"
	"github.com/xraph/mintledger/types"
)

var owner = types.MustParseAddress("0x00000000000000000000000000000000000000a1")

func TestVaultPay(t *testing.T) {
	v := treasury.NewVault()
	ctx := context.Background()

	require.NoError(t, v.Pay(ctx, treasury.Payment{Reference: "r1", To: owner, Amount: types.NewAmount(10)}))
	require.NoError(t, v.Pay(ctx, treasury.Payment{Reference: "r2", To: owner, Amount: types.NewAmount(5)}))
	assert.Equal(t, "15", v.BalanceOf(owner).String())

	// Same reference settles once.
	require.NoError(t, v.Pay(ctx, treasury.Payment{Reference: "r2", To: owner, Amount: types.NewAmount(5)}))
	assert.Equal(t, "15", v.BalanceOf(owner).String())

	receipts := v.Receipts()
	require.Len(t, receipts, 2)
	assert.Equal(t, id.PrefixPayout, receipts[0].ID.Prefix())
	assert.Equal(t, "r2", receipts[1].Payment.Reference)
}

func TestVaultFailWith(t *testing.T) {
	v := treasury.NewVault()
	boom := errors.New("boom")
	v.FailWith(boom)

	err := v.Pay(context.Background(), treasury.Payment{Reference: "r", To: owner, Amount: types.NewAmount(1)})
	assert.ErrorIs(t, err, boom)
	assert.True(t, v.BalanceOf(owner).IsZero())

	v.FailWith(nil)
	assert.NoError(t, v.Pay(context.Background(), treasury.Payment{Reference: "r", To: owner, Amount: types.NewAmount(1)}))
}

func TestVaultOverflow(t *testing.T) {
	v := treasury.NewVault()
	ctx := context.Background()
	require.NoError(t, v.Pay(ctx, treasury.Payment{To: owner, Amount: types.MaxAmount}))

	err := v.Pay(ctx, treasury.Payment{To: owner, Amount: types.NewAmount(1)})
	assert.ErrorIs(t, err, treasury.ErrPayoutRejected)
}

func TestPayoutFunc(t *testing.T) {
	var got treasury.Payment
	var p treasury.Payout = treasury.PayoutFunc(func(_ context.Context, pay treasury.Payment) error {
		got = pay
		return nil
	})
	require.NoError(t, p.Pay(context.Background(), treasury.Payment{Reference: "x", To: owner, Amount: types.NewAmount(3)}))
	assert.Equal(t, "x", got.Reference)
}

func testConfig(endpoint string) treasury.HTTPConfig {
	cfg := treasury.DefaultHTTPConfig()
	cfg.Endpoint = endpoint
	cfg.RetryDelay = time.Millisecond
	cfg.Token = "secret"
	return cfg
}

func TestHTTPPayoutSuccess(t *testing.T) {
	var received treasury.Payment
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.Equal(t, "ref-1", r.Header.Get("Idempotency-Key"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	p, err := treasury.NewHTTPPayout(testConfig(srv.URL))
	require.NoError(t, err)

	err = p.Pay(context.Background(), treasury.Payment{Reference: "ref-1", To: owner, Amount: types.NewAmount(42)})
	require.NoError(t, err)
	assert.Equal(t, owner, received.To)
	assert.Equal(t, "42", received.Amount.String())
}

func TestHTTPPayoutRetriesThenSucceeds(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	p, err := treasury.NewHTTPPayout(testConfig(srv.URL))
	require.NoError(t, err)

	require.NoError(t, p.Pay(context.Background(), treasury.Payment{Reference: "ref", To: owner}))
	assert.Equal(t, int32(3), calls.Load())
}

func TestHTTPPayoutRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "insufficient float", http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	p, err := treasury.NewHTTPPayout(testConfig(srv.URL))
	require.NoError(t, err)

	err = p.Pay(context.Background(), treasury.Payment{Reference: "ref", To: owner, Amount: types.NewAmount(1)})
	require.ErrorIs(t, err, treasury.ErrPayoutRejected)
	assert.Contains(t, err.Error(), "422")
}

func TestNewHTTPPayoutInvalidEndpoint(t *testing.T) {
	_, err := treasury.NewHTTPPayout(treasury.HTTPConfig{Endpoint: "not-a-url"})
	assert.Error(t, err)
}
