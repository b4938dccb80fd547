// Package node talks to the external Lightning node daemon. The engine never
// implements Lightning itself; it consumes the node's invoice, offer and
// settlement-stream primitives.
package node

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrUnavailable covers transport failures and node-side 5xx responses.
	ErrUnavailable = errors.New("node unavailable")
	// ErrRejected means the node refused the request, e.g. a delete with a
	// mismatched status.
	ErrRejected = errors.New("node rejected request")
)

type Client interface {
	CreateInvoice(ctx context.Context, req InvoiceRequest) (*CreatedInvoice, error)
	DeleteInvoice(ctx context.Context, label, status string) error
	ListInvoices(ctx context.Context, label string) ([]InvoiceInfo, error)
	CreateOffer(ctx context.Context, req OfferRequest) (*CreatedOffer, error)
}

type InvoiceRequest struct {
	Amount      string `json:"amount"` // millisatoshi in decimal, or "any"
	Label       string `json:"label"`
	Description string `json:"description"`
	Expiry      int64  `json:"expiry"` // seconds
}

type CreatedInvoice struct {
	PaymentHash string
	Bolt11      string
	ExpiresAt   time.Time
}

type InvoiceInfo struct {
	Label       string
	PaymentHash string
	Status      string
}

type OfferRequest struct {
	Amount              string  `json:"amount"`
	Description         string  `json:"description"`
	Vendor              *string `json:"vendor,omitempty"`
	Label               *string `json:"label,omitempty"`
	QuantityMin         *int64  `json:"quantity_min,omitempty"`
	QuantityMax         *int64  `json:"quantity_max,omitempty"`
	AbsoluteExpiry      *int64  `json:"absolute_expiry,omitempty"` // unix seconds
	Recurrence          *string `json:"recurrence,omitempty"`
	RecurrenceBase      *string `json:"recurrence_base,omitempty"`
	RecurrencePaywindow *string `json:"recurrence_paywindow,omitempty"`
	RecurrenceLimit     *int64  `json:"recurrence_limit,omitempty"`
	SingleUse           bool    `json:"single_use,omitempty"`
}

type CreatedOffer struct {
	OfferID string
	Bolt12  string
}

// Settlement is one payment event from the node stream. pay_index is the
// node's monotonic settlement counter; LocalOfferID is set when the payment
// fulfilled an offer rather than a plain invoice.
type Settlement struct {
	Label            string
	PayIndex         int64
	MsatoshiReceived int64
	PaidAt           time.Time
	LocalOfferID     string
}
