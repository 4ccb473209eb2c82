package types

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// Address is a 20-byte account identity.
type Address = common.Address

// ZeroAddress is the null identity. It can never receive units.
var ZeroAddress Address

// ParseAddress parses a 0x-prefixed (or bare) 40 hex digit address.
func ParseAddress(s string) (Address, error) {
	s = strings.TrimSpace(s)
	if !common.IsHexAddress(s) {
		return ZeroAddress, fmt.Errorf("address: parse %q: not a hex address", s)
	}
	return common.HexToAddress(s), nil
}

// MustParseAddress is like ParseAddress but panics on error.
func MustParseAddress(s string) Address {
	a, err := ParseAddress(s)
	if err != nil {
		panic(err)
	}
	return a
}

// IsZeroAddress reports whether a is the null identity.
func IsZeroAddress(a Address) bool { return a == ZeroAddress }

// SortAddresses sorts addresses in ascending byte order.
func SortAddresses(addrs []Address) {
	sort.Slice(addrs, func(i, j int) bool {
		return bytes.Compare(addrs[i][:], addrs[j][:]) < 0
	})
}
