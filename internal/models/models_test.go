package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInvoiceStatus(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	payIndex := int64(7)

	tests := []struct {
		name string
		inv  Invoice
		want Status
	}{
		{
			name: "unpaid before expiry",
			inv:  Invoice{ExpiresAt: now.Add(time.Minute)},
			want: StatusUnpaid,
		},
		{
			name: "expired at the boundary",
			inv:  Invoice{ExpiresAt: now},
			want: StatusExpired,
		},
		{
			name: "expired in the past",
			inv:  Invoice{ExpiresAt: now.Add(-time.Second)},
			want: StatusExpired,
		},
		{
			name: "paid wins over expiry",
			inv:  Invoice{PayIndex: &payIndex, ExpiresAt: now.Add(-time.Hour)},
			want: StatusPaid,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.inv.Status(now))
		})
	}
}

func TestOfferStatus(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	payIndex := int64(3)
	past := now.Add(-time.Minute)
	future := now.Add(time.Minute)

	assert.Equal(t, StatusUnpaid, (&Offer{}).Status(now), "no expiry, no payment")
	assert.Equal(t, StatusUnpaid, (&Offer{AbsoluteExpiry: &future}).Status(now))
	assert.Equal(t, StatusExpired, (&Offer{AbsoluteExpiry: &past}).Status(now))
	assert.Equal(t, StatusPaid, (&Offer{PayIndex: &payIndex, AbsoluteExpiry: &past}).Status(now))
}

func TestParseMetadata(t *testing.T) {
	meta, err := ParseMetadata(`{"order":42}`)
	require.NoError(t, err)
	assert.JSONEq(t, `{"order":42}`, string(meta))

	meta, err = ParseMetadata("null")
	require.NoError(t, err)
	assert.Equal(t, "null", string(meta))

	meta, err = ParseMetadata("")
	require.NoError(t, err)
	assert.Equal(t, "null", string(meta))

	_, err = ParseMetadata(`{"order":`)
	assert.ErrorIs(t, err, ErrCorruptMetadata)
}

func TestMsatStates(t *testing.T) {
	var unset Msat
	assert.False(t, unset.IsSet())
	assert.False(t, unset.IsAny())

	anyAmt := MsatAny()
	assert.True(t, anyAmt.IsSet())
	assert.True(t, anyAmt.IsAny())
	_, ok := anyAmt.Amount()
	assert.False(t, ok)
	assert.Equal(t, "any", anyAmt.NodeAmount())

	zero := MsatValue(0)
	assert.True(t, zero.IsSet())
	assert.False(t, zero.IsAny(), "numeric zero is not the any-amount sentinel")
	v, ok := zero.Amount()
	assert.True(t, ok)
	assert.Equal(t, int64(0), v)
	assert.Equal(t, "0", zero.NodeAmount())

	exact := MsatValue(42000)
	assert.Equal(t, "42000", exact.NodeAmount())
}

func TestMsatJSON(t *testing.T) {
	b, err := json.Marshal(MsatValue(42000))
	require.NoError(t, err)
	assert.Equal(t, "42000", string(b))

	b, err = json.Marshal(MsatAny())
	require.NoError(t, err)
	assert.Equal(t, "null", string(b))
}

func TestMsatScan(t *testing.T) {
	var m Msat
	require.NoError(t, m.Scan(nil))
	assert.True(t, m.IsAny())

	require.NoError(t, m.Scan(int64(1500)))
	v, ok := m.Amount()
	assert.True(t, ok)
	assert.Equal(t, int64(1500), v)

	assert.Error(t, m.Scan("1500"))
}
