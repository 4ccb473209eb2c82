package types

import "testing"

func TestParseAddress(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		wantErr bool
	}{
		{"Checksummed", "0x5B38Da6a701c568545dCfcB03FcB875f56beddC4", false},
		{"Lowercase", "0xab8483f64d9c6d1ecf9b849ae677dd3315835cb2", false},
		{"Bare", "ab8483f64d9c6d1ecf9b849ae677dd3315835cb2", false},
		{"Short", "0x1234", true},
		{"Not hex", "0xzz8483f64d9c6d1ecf9b849ae677dd3315835cb2", true},
		{"Empty", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseAddress(tt.in)
			if (err != nil) != tt.wantErr {
				t.Errorf("ParseAddress(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
		})
	}
}

func TestZeroAddress(t *testing.T) {
	if !IsZeroAddress(ZeroAddress) {
		t.Error("expected ZeroAddress to be zero")
	}
	if IsZeroAddress(MustParseAddress("0x0000000000000000000000000000000000000001")) {
		t.Error("expected 0x..01 to be non-zero")
	}
}

func TestSortAddresses(t *testing.T) {
	a := MustParseAddress("0x0000000000000000000000000000000000000003")
	b := MustParseAddress("0x0000000000000000000000000000000000000001")
	c := MustParseAddress("0x0000000000000000000000000000000000000002")

	addrs := []Address{a, b, c}
	SortAddresses(addrs)

	if addrs[0] != b || addrs[1] != c || addrs[2] != a {
		t.Errorf("unexpected order: %v", addrs)
	}
}
