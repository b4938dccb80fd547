package node

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSettlement(t *testing.T) {
	msg := []byte(`{"label":"inv1","pay_index":7,"msatoshi_received":42000,"paid_at":1717243200}`)

	s, ok, err := ParseSettlement(msg)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "inv1", s.Label)
	assert.Equal(t, int64(7), s.PayIndex)
	assert.Equal(t, int64(42000), s.MsatoshiReceived)
	assert.Equal(t, time.Unix(1717243200, 0).UTC(), s.PaidAt)
	assert.Empty(t, s.LocalOfferID)
}

func TestParseSettlementOffer(t *testing.T) {
	msg := []byte(`{"label":"x","pay_index":3,"msatoshi_received":1000,"paid_at":1717243200,"local_offer_id":"off1"}`)

	s, ok, err := ParseSettlement(msg)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "off1", s.LocalOfferID)
}

func TestParseSettlementIgnoresNonEvents(t *testing.T) {
	_, ok, err := ParseSettlement([]byte(`{"result":"subscribed"}`))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestParseSettlementError(t *testing.T) {
	_, _, err := ParseSettlement([]byte(`{"error":{"code":1,"message":"bad subscription"}}`))
	assert.EqualError(t, err, "bad subscription")
}

func TestParseSettlementBadJSON(t *testing.T) {
	_, _, err := ParseSettlement([]byte(`{`))
	assert.Error(t, err)
}

func TestDefaultStreamEndpoint(t *testing.T) {
	assert.Equal(t, "ws://localhost:9737/v1/ws", DefaultStreamEndpoint("http://localhost:9737"))
	assert.Equal(t, "wss://node.example.com/v1/ws", DefaultStreamEndpoint("https://node.example.com/"))
	assert.Empty(t, DefaultStreamEndpoint("localhost:9737"))
}
