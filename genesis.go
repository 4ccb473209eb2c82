package mintledger

import (
	"github.com/xraph/mintledger/event"
	"github.com/xraph/mintledger/types"
)

// Genesis holds the parameters fixed when the ledger is first created.
// They are only used when the journal is empty; an existing journal always
// wins.
type Genesis struct {
	// Owner receives the whole initial supply and is the only caller
	// allowed to reconfigure the ledger or withdraw the treasury.
	Owner types.Address `json:"owner"`
	// TotalSupply is credited to Owner at genesis.
	TotalSupply types.Amount `json:"total_supply"`
	// MaxDailyMintPerAccount is the per-request mint ceiling.
	MaxDailyMintPerAccount types.Amount `json:"max_daily_mint_per_account"`
	// EthToTokenRatio converts payment into units.
	EthToTokenRatio types.Amount `json:"eth_to_token_ratio"`
}

// DefaultGenesis returns a genesis for owner with a supply of 10000 units,
// a ceiling of 10 units per mint and a ratio of one unit per payment unit.
func DefaultGenesis(owner types.Address) Genesis {
	return Genesis{
		Owner:                  owner,
		TotalSupply:            types.NewAmount(10000),
		MaxDailyMintPerAccount: types.NewAmount(10),
		EthToTokenRatio:        types.NewAmount(1),
	}
}

// Validate checks that the genesis can seed a ledger.
func (g Genesis) Validate() error {
	var errs MultiError
	if types.IsZeroAddress(g.Owner) {
		errs.Add(ValidationError{Field: "owner", Message: "must not be the zero address"})
	}
	return errs.ErrOrNil()
}

// Params returns the configuration carried on the genesis event.
func (g Genesis) Params() *event.Params {
	return &event.Params{
		EthToTokenRatio:        g.EthToTokenRatio,
		MaxDailyMintPerAccount: g.MaxDailyMintPerAccount,
	}
}
