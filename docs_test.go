package mintledger_test

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/xraph/mintledger"
	"github.com/xraph/mintledger/store/memory"
)

// TestDocumentationExamples verifies that the examples in the package
// documentation behave as described.
func TestDocumentationExamples(t *testing.T) {
	t.Run("QuickStartExample", func(t *testing.T) {
		ctx := context.Background()
		owner := mintledger.MustParseAddress("0x5B38Da6a701c568545dCfcB03FcB875f56beddC4")
		caller := mintledger.MustParseAddress("0xAb8483F64d9C6d1EcF9b849Ae677dD3315835cb2")

		engine, err := mintledger.New(memory.New(), mintledger.DefaultGenesis(owner),
			mintledger.WithLogger(slog.Default()),
		)
		if err != nil {
			t.Fatal(err)
		}
		if err := engine.Start(ctx); err != nil {
			t.Fatal(err)
		}
		defer engine.Stop(ctx)

		if got := engine.TotalSupply().String(); got != "10000" {
			t.Errorf("expected default supply 10000, got %s", got)
		}

		if _, err := engine.Mint(ctx, caller, mintledger.NewAmount(10)); err != nil {
			t.Fatalf("first mint: %v", err)
		}

		_, err = engine.Mint(ctx, caller, mintledger.NewAmount(10))
		if !errors.Is(err, mintledger.ErrAlreadyMintedToday) {
			t.Errorf("expected ErrAlreadyMintedToday, got %v", err)
		}

		if _, err := engine.WithdrawETH(ctx, owner); err != nil {
			t.Fatalf("withdraw: %v", err)
		}
		if !engine.TreasuryBalance().IsZero() {
			t.Error("treasury should be empty after withdrawal")
		}
	})

	t.Run("AmountExamples", func(t *testing.T) {
		a := mintledger.MustParseAmount("115792089237316195423570985008687907853269984665640564039457584007913129639935")
		if _, ok := a.Add(mintledger.NewAmount(1)); ok {
			t.Error("adding to the maximum amount must report overflow")
		}

		b, err := mintledger.ParseAmount("42")
		if err != nil {
			t.Fatal(err)
		}
		if _, ok := b.Sub(mintledger.NewAmount(43)); ok {
			t.Error("subtracting past zero must report underflow")
		}
	})
}
