package account_test

import (
	"testing"
	"time"

	"github.com/xraph/mintledger/account"
	"github.com/xraph/mintledger/types"
)

func TestDayOf(t *testing.T) {
	tests := []struct {
		unix int64
		want int64
	}{
		{0, 0},
		{86399, 0},
		{86400, 1},
		{1_700_000_000, 19675},
	}
	for _, tt := range tests {
		if got := account.DayOf(tt.unix); got != tt.want {
			t.Errorf("DayOf(%d) = %d, want %d", tt.unix, got, tt.want)
		}
	}
}

func TestMintRecordRollover(t *testing.T) {
	r := account.MintRecord{LastMintDay: 10, MintedToday: types.NewAmount(7), Minted: true}

	if !r.MintedOn(10) {
		t.Error("expected record to count as minted on its own day")
	}
	if r.MintedOn(11) {
		t.Error("record must roll over on the next day")
	}
	if got := r.MintedAmountOn(10); got.String() != "7" {
		t.Errorf("MintedAmountOn(10) = %s, want 7", got)
	}
	if got := r.MintedAmountOn(11); !got.IsZero() {
		t.Errorf("MintedAmountOn(11) = %s, want 0", got)
	}
}

func TestZeroRecordNeverMinted(t *testing.T) {
	var r account.MintRecord
	if r.MintedOn(0) {
		t.Error("zero record must not count as a mint on day 0")
	}
}

func TestAccountKnown(t *testing.T) {
	var a account.Account
	if a.Known() {
		t.Error("zero account must not be known")
	}
	a.Entity = types.NewEntityAt(time.Unix(100, 0))
	if !a.Known() {
		t.Error("stamped account must be known")
	}
}
