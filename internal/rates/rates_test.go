package rates

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToMsatBTC(t *testing.T) {
	table := Table{}

	msat, err := table.ToMsat(context.Background(), "BTC", "0.00002")
	require.NoError(t, err)
	assert.Equal(t, int64(2000000), msat) // 2000 sat

	msat, err = table.ToMsat(context.Background(), "btc", "1")
	require.NoError(t, err)
	assert.Equal(t, int64(100_000_000_000), msat)
}

func TestToMsatThroughRateTable(t *testing.T) {
	table := Table{Rates: map[string]float64{"USD": 0.00002}}

	msat, err := table.ToMsat(context.Background(), "USD", "2")
	require.NoError(t, err)
	assert.Equal(t, int64(4000000), msat)
}

func TestToMsatUnknownCurrency(t *testing.T) {
	table := Table{Rates: map[string]float64{"USD": 0.00002}}

	_, err := table.ToMsat(context.Background(), "XYZ", "1")
	assert.ErrorIs(t, err, ErrConversionUnavailable)
}

func TestToMsatBadAmount(t *testing.T) {
	table := Table{}

	_, err := table.ToMsat(context.Background(), "BTC", "lots")
	assert.ErrorIs(t, err, ErrConversionUnavailable)

	_, err = table.ToMsat(context.Background(), "BTC", "0")
	assert.ErrorIs(t, err, ErrConversionUnavailable)

	_, err = table.ToMsat(context.Background(), "BTC", "-1")
	assert.ErrorIs(t, err, ErrConversionUnavailable)
}
