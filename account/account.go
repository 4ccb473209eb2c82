// Package account holds read-side snapshots of per-account ledger state.
package account

import (
	"github.com/xraph/mintledger/types"
)

// SecondsPerDay is the length of one mint day.
const SecondsPerDay int64 = 86400

// DayOf returns the mint day number for a Unix timestamp in seconds.
func DayOf(unix int64) int64 {
	return unix / SecondsPerDay
}

// MintRecord tracks an account's most recent mint. It rolls over lazily:
// a record whose LastMintDay is not the current day counts as nothing
// minted today.
type MintRecord struct {
	LastMintDay int64        `json:"last_mint_day"`
	MintedToday types.Amount `json:"minted_today"`
	Minted      bool         `json:"minted"`
}

// MintedOn reports whether the account minted on day.
func (r MintRecord) MintedOn(day int64) bool {
	return r.Minted && r.LastMintDay == day
}

// MintedAmountOn returns the units minted on day, zero if the record
// belongs to another day.
func (r MintRecord) MintedAmountOn(day int64) types.Amount {
	if !r.MintedOn(day) {
		return types.Zero
	}
	return r.MintedToday
}

// Account is a point-in-time view of one address.
type Account struct {
	types.Entity

	Address types.Address `json:"address"`
	Balance types.Amount  `json:"balance"`
	Mint    MintRecord    `json:"mint"`
}

// Known reports whether the account has ever been touched by a committed
// event.
func (a *Account) Known() bool {
	return !a.Entity.IsZero()
}
