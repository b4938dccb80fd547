package models

import (
	"encoding/json"
	"errors"
	"time"
)

type Status string

const (
	StatusUnpaid  Status = "unpaid"
	StatusPaid    Status = "paid"
	StatusExpired Status = "expired"
)

// ErrCorruptMetadata is returned when a stored metadata blob fails to parse.
// Metadata is only ever written by this process as valid JSON, so a parse
// failure indicates a write-path bug, not a recoverable condition.
var ErrCorruptMetadata = errors.New("stored metadata is not valid JSON")

type Invoice struct {
	ID               string
	Msatoshi         Msat
	Description      string
	QuotedCurrency   *string
	QuotedAmount     *string
	PaymentHash      string
	PaymentRequest   string
	ExpiresAt        time.Time
	CreatedAt        time.Time
	PayIndex         *int64
	PaidAt           *time.Time
	MsatoshiReceived *int64
	Metadata         string
}

// Status derives the lifecycle state from the persisted fields. It is never
// stored: expires_at comparisons are time-relative, so the derivation must
// run on every read.
func (inv *Invoice) Status(now time.Time) Status {
	if inv.PayIndex != nil {
		return StatusPaid
	}
	if !inv.ExpiresAt.After(now) {
		return StatusExpired
	}
	return StatusUnpaid
}

// ParsedMetadata validates and returns the stored metadata blob.
func (inv *Invoice) ParsedMetadata() (json.RawMessage, error) {
	return ParseMetadata(inv.Metadata)
}

type Offer struct {
	ID                  string
	OfferID             string
	Bolt12              string
	Description         string
	Vendor              *string
	Label               *string
	SingleUse           bool
	AbsoluteExpiry      *time.Time
	Recurrence          *string
	RecurrenceBase      *string
	RecurrencePaywindow *string
	RecurrenceLimit     *int64
	QuotedCurrency      *string
	QuotedAmount        *string
	CreatedAt           time.Time
	PayIndex            *int64
	PaidAt              *time.Time
	MsatoshiReceived    *int64
	Metadata            string
}

// Status mirrors the invoice derivation. An offer is reusable, so "paid"
// means at least one settlement has been observed; the last-settlement
// columns track the most recent one.
func (o *Offer) Status(now time.Time) Status {
	if o.PayIndex != nil {
		return StatusPaid
	}
	if o.AbsoluteExpiry != nil && !o.AbsoluteExpiry.After(now) {
		return StatusExpired
	}
	return StatusUnpaid
}

func (o *Offer) ParsedMetadata() (json.RawMessage, error) {
	return ParseMetadata(o.Metadata)
}

// ParseMetadata validates a stored metadata blob. Empty columns from rows
// predating the metadata field read as JSON null.
func ParseMetadata(s string) (json.RawMessage, error) {
	if s == "" {
		return json.RawMessage("null"), nil
	}
	if !json.Valid([]byte(s)) {
		return nil, ErrCorruptMetadata
	}
	return json.RawMessage(s), nil
}

type Webhook struct {
	ID        int64
	RefID     string
	URL       string
	CreatedAt time.Time
}

// WebhookAttempt is the outcome of a single delivery attempt. It overwrites
// any previous outcome for the registration: only the latest attempt is kept.
type WebhookAttempt struct {
	RequestedAt time.Time
	Success     bool
	RespCode    *int
	RespError   *string
}
