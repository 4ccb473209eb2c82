package mintledger

import (
	"github.com/xraph/mintledger/account"
	"github.com/xraph/mintledger/event"
	"github.com/xraph/mintledger/types"
)

// Re-export common types for convenience so users don't have to import types package.

// Amount is re-exported from types package.
type Amount = types.Amount

// Address is re-exported from types package.
type Address = types.Address

// Entity is re-exported from types package.
type Entity = types.Entity

// Event is re-exported from event package.
type Event = event.Event

// Account is re-exported from account package.
type Account = account.Account

// Re-export constructors
var (
	NewAmount        = types.NewAmount
	ParseAmount      = types.ParseAmount
	MustParseAmount  = types.MustParseAmount
	ParseAddress     = types.ParseAddress
	MustParseAddress = types.MustParseAddress
	ZeroAddress      = types.ZeroAddress
)
