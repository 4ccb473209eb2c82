package account

import "github.com/xraph/mintledger/types"

// Admission is the outcome of evaluating a mint request against the
// current configuration and the caller's mint record.
type Admission struct {
	Allowed bool          `json:"allowed"`
	Caller  types.Address `json:"caller"`
	Payment types.Amount  `json:"payment"`
	Units   types.Amount  `json:"units"`
	Limit   types.Amount  `json:"limit"`
	Day     int64         `json:"day"`
	Reason  string        `json:"reason,omitempty"`
}
