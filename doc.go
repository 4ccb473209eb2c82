// Package mintledger provides a single-asset token ledger with
// payment-backed minting for Go applications.
//
// Mintledger is designed as a library, not a service. Import it directly
// into your Go application, or run cmd/mintledgerd for an HTTP front end.
// It provides:
//
//   - Per-account balances with checked 256-bit arithmetic
//   - Direct transfers between accounts
//   - Payment-backed minting gated by a per-request ceiling and a strict
//     once-per-day cooldown
//   - An owner-only configuration surface and treasury withdrawal
//   - An append-only event journal that rebuilds state on start
//   - Pluggable journal stores (memory, LevelDB, SQLite, PostgreSQL, MongoDB)
//
// # Quick Start
//
// Create an engine with your preferred store:
//
//	import (
//	    "github.com/xraph/mintledger"
//	    "github.com/xraph/mintledger/store/memory"
//	)
//
//	owner := mintledger.MustParseAddress("0x5B38Da6a701c568545dCfcB03FcB875f56beddC4")
//	engine, err := mintledger.New(memory.New(), mintledger.DefaultGenesis(owner))
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	if err := engine.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer engine.Stop(ctx)
//
// # Minting
//
// A mint converts a payment into units at the current ratio. Each request
// is bounded by the daily ceiling and an account may mint at most once per
// calendar day, where a day is Unix time divided by 86400:
//
//	evt, err := engine.Mint(ctx, caller, mintledger.NewAmount(10))
//	switch {
//	case errors.Is(err, mintledger.ErrAlreadyMintedToday):
//	    // try again tomorrow
//	case err != nil:
//	    return err
//	}
//
// The payment is held in the treasury until the owner withdraws it with
// WithdrawETH, which settles through a treasury.Payout.
//
// # Journal
//
// Every committed operation appends exactly one event.Event. The engine
// validates an operation, appends its event and only then applies it, so a
// store failure never leaves state half-changed. On Start the journal is
// replayed through the same validation.
//
// # TypeID
//
// Journal events and payouts use TypeID identifiers:
//
//	evt_01h2xcejqtf2nbrexx3vqjhp41  // Event ID
//	pay_01h455vb4pex5vsknk084sn02q  // Payout ID
package mintledger
