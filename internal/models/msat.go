package models

import (
	"database/sql/driver"
	"fmt"
	"strconv"
)

type msatState int

const (
	msatUnset msatState = iota
	msatAny
	msatExact
)

// Msat is an optional millisatoshi amount. It distinguishes three states:
// unset (no amount decided yet), any (the invoice accepts any amount) and an
// exact value. A numeric zero is an exact value, not "any".
type Msat struct {
	state msatState
	value int64
}

func MsatValue(v int64) Msat {
	return Msat{state: msatExact, value: v}
}

func MsatAny() Msat {
	return Msat{state: msatAny}
}

func (m Msat) IsAny() bool {
	return m.state == msatAny
}

func (m Msat) IsSet() bool {
	return m.state != msatUnset
}

// Amount returns the exact amount, if there is one.
func (m Msat) Amount() (int64, bool) {
	if m.state != msatExact {
		return 0, false
	}
	return m.value, true
}

// NodeAmount renders the amount the way the node expects it: the literal
// "any" for any-amount invoices, otherwise the millisatoshi value in decimal.
func (m Msat) NodeAmount() string {
	if m.state == msatExact {
		return strconv.FormatInt(m.value, 10)
	}
	return "any"
}

func (m Msat) MarshalJSON() ([]byte, error) {
	if m.state != msatExact {
		return []byte("null"), nil
	}
	return []byte(strconv.FormatInt(m.value, 10)), nil
}

// Scan reads the nullable BIGINT column: NULL means any-amount.
func (m *Msat) Scan(src any) error {
	if src == nil {
		*m = MsatAny()
		return nil
	}
	switch v := src.(type) {
	case int64:
		*m = MsatValue(v)
	default:
		return fmt.Errorf("msat: cannot scan %T", src)
	}
	return nil
}

// Value implements driver.Valuer; any-amount persists as NULL.
func (m Msat) Value() (driver.Value, error) {
	if m.state != msatExact {
		return nil, nil
	}
	return m.value, nil
}
