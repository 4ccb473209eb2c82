// Package types provides common types used across mintledger.
package types

import (
	"database/sql/driver"
	"fmt"
	"math/big"
	"strings"

	"github.com/holiman/uint256"
)

// Amount is an unsigned 256-bit quantity of asset units or payment currency.
// All arithmetic is integer-only and checked: operations report overflow or
// underflow instead of wrapping.
//
// The zero value is a valid amount of zero.
//
//nolint:recvcheck // Value receivers for arithmetic, pointer receivers for UnmarshalText/Scan.
type Amount struct {
	v uint256.Int
}

// Zero is the zero amount.
var Zero Amount

// MaxAmount is the largest representable amount (2^256 - 1).
var MaxAmount = func() Amount {
	var a Amount
	a.v.SetAllOne()
	return a
}()

// NewAmount creates an Amount from a uint64.
func NewAmount(n uint64) Amount {
	var a Amount
	a.v.SetUint64(n)
	return a
}

// ParseAmount parses a base-10 string into an Amount.
func ParseAmount(s string) (Amount, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Zero, fmt.Errorf("amount: parse %q: empty string", s)
	}
	u, err := uint256.FromDecimal(s)
	if err != nil {
		return Zero, fmt.Errorf("amount: parse %q: %w", s, err)
	}
	return Amount{v: *u}, nil
}

// MustParseAmount is like ParseAmount but panics on error. Use for hardcoded values.
func MustParseAmount(s string) Amount {
	a, err := ParseAmount(s)
	if err != nil {
		panic(err)
	}
	return a
}

// AmountFromBig converts a non-negative big integer. The second return value
// is false if b is negative or does not fit in 256 bits.
func AmountFromBig(b *big.Int) (Amount, bool) {
	if b == nil || b.Sign() < 0 {
		return Zero, false
	}
	u, overflow := uint256.FromBig(b)
	if overflow {
		return Zero, false
	}
	return Amount{v: *u}, true
}

// Checked arithmetic

// Add returns a+b. The second return value is false if the sum overflowed.
func (a Amount) Add(b Amount) (Amount, bool) {
	var out Amount
	_, overflow := out.v.AddOverflow(&a.v, &b.v)
	return out, !overflow
}

// Sub returns a-b. The second return value is false if the subtraction
// underflowed.
func (a Amount) Sub(b Amount) (Amount, bool) {
	var out Amount
	_, underflow := out.v.SubOverflow(&a.v, &b.v)
	return out, !underflow
}

// Mul returns a*b. The second return value is false if the product overflowed.
func (a Amount) Mul(b Amount) (Amount, bool) {
	var out Amount
	_, overflow := out.v.MulOverflow(&a.v, &b.v)
	return out, !overflow
}

// Comparison methods

// Cmp compares a and b and returns -1, 0 or +1.
func (a Amount) Cmp(b Amount) int { return a.v.Cmp(&b.v) }

// IsZero returns true if the amount is zero.
func (a Amount) IsZero() bool { return a.v.IsZero() }

// Equal returns true if both amounts are equal.
func (a Amount) Equal(b Amount) bool { return a.v.Eq(&b.v) }

// LessThan returns true if a < b.
func (a Amount) LessThan(b Amount) bool { return a.v.Lt(&b.v) }

// GreaterThan returns true if a > b.
func (a Amount) GreaterThan(b Amount) bool { return a.v.Gt(&b.v) }

// Conversion

// Big returns the amount as a new big integer.
func (a Amount) Big() *big.Int { return a.v.ToBig() }

// Uint64 returns the low 64 bits and whether the amount fits in a uint64.
func (a Amount) Uint64() (uint64, bool) { return a.v.Uint64(), a.v.IsUint64() }

// String returns the base-10 representation.
func (a Amount) String() string { return a.v.Dec() }

// MarshalText implements encoding.TextMarshaler.
func (a Amount) MarshalText() ([]byte, error) {
	return []byte(a.v.Dec()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *Amount) UnmarshalText(data []byte) error {
	parsed, err := ParseAmount(string(data))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// MarshalJSON encodes the amount as a JSON string so values above 2^53
// survive JavaScript clients.
func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(`"` + a.v.Dec() + `"`), nil
}

// UnmarshalJSON accepts either a JSON string or a bare JSON number.
func (a *Amount) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" {
		*a = Zero
		return nil
	}
	return a.UnmarshalText([]byte(strings.Trim(s, `"`)))
}

// Value implements driver.Valuer. Amounts are stored as decimal text since
// they exceed every native SQL integer type.
func (a Amount) Value() (driver.Value, error) {
	return a.v.Dec(), nil
}

// Scan implements sql.Scanner.
func (a *Amount) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*a = Zero
		return nil
	case string:
		return a.UnmarshalText([]byte(v))
	case []byte:
		return a.UnmarshalText(v)
	case int64:
		if v < 0 {
			return fmt.Errorf("amount: cannot scan negative value %d", v)
		}
		*a = NewAmount(uint64(v))
		return nil
	default:
		return fmt.Errorf("amount: cannot scan %T into Amount", src)
	}
}
