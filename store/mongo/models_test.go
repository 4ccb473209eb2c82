package mongo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/mintledger/store/storetest"
)

func TestEventModelRoundTrip(t *testing.T) {
	for _, want := range storetest.Journal() {
		m := toEventModel(want)
		assert.Equal(t, int64(want.Seq), m.Seq)

		got, err := fromEventModel(m)
		require.NoError(t, err)
		assert.Equal(t, want.ID, got.ID)
		assert.Equal(t, want.Kind, got.Kind)
		assert.Equal(t, want.Caller, got.Caller)
		assert.Equal(t, want.From, got.From)
		assert.Equal(t, want.To, got.To)
		assert.True(t, want.Amount.Equal(got.Amount), "seq %d amount", want.Seq)
		assert.True(t, want.Payment.Equal(got.Payment), "seq %d payment", want.Seq)
		assert.Equal(t, want.Day, got.Day)
		assert.True(t, want.Timestamp.Equal(got.Timestamp))
		if want.Params == nil {
			assert.Nil(t, got.Params)
			continue
		}
		require.NotNil(t, got.Params)
		assert.True(t, want.Params.EthToTokenRatio.Equal(got.Params.EthToTokenRatio))
		assert.True(t, want.Params.MaxDailyMintPerAccount.Equal(got.Params.MaxDailyMintPerAccount))
	}
}

func TestEventModelRejectsBadAmount(t *testing.T) {
	m := toEventModel(storetest.Journal()[1])
	m.Amount = "not-a-number"

	_, err := fromEventModel(m)
	assert.Error(t, err)
}
