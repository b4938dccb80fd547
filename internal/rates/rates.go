// Package rates is the currency-conversion collaborator boundary. The engine
// only needs "turn a fiat amount into millisatoshi"; where the rates come
// from is out of scope.
package rates

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/btcsuite/btcd/btcutil"
)

// ErrConversionUnavailable aborts invoice creation when the quoted currency
// cannot be converted.
var ErrConversionUnavailable = errors.New("currency conversion unavailable")

type Converter interface {
	// ToMsat converts an amount in the given currency to millisatoshi.
	ToMsat(ctx context.Context, currency, amount string) (int64, error)
}

// Table converts through a static BTC-per-unit rate table. BTC itself always
// converts.
type Table struct {
	// Rates maps an upper-case currency code to its price in BTC.
	Rates map[string]float64
}

func (t Table) ToMsat(ctx context.Context, currency, amount string) (int64, error) {
	value, err := strconv.ParseFloat(amount, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: bad amount %q", ErrConversionUnavailable, amount)
	}

	code := strings.ToUpper(currency)
	btc := value
	if code != "BTC" {
		rate, ok := t.Rates[code]
		if !ok || rate <= 0 {
			return 0, fmt.Errorf("%w: no rate for %s", ErrConversionUnavailable, code)
		}
		btc = value * rate
	}

	amt, err := btcutil.NewAmount(btc)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrConversionUnavailable, err)
	}
	if amt <= 0 {
		return 0, fmt.Errorf("%w: non-positive amount", ErrConversionUnavailable)
	}
	return int64(amt) * 1000, nil
}
