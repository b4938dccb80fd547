package webhooks

import (
	"encoding/json"
	"time"

	"lncharge/internal/models"
)

// InvoiceEvent is the JSON body posted to invoice webhooks: the invoice
// snapshot with its derived status and parsed metadata.
type InvoiceEvent struct {
	ID               string          `json:"id"`
	Msatoshi         models.Msat     `json:"msatoshi"`
	Description      string          `json:"description"`
	QuotedCurrency   *string         `json:"quoted_currency,omitempty"`
	QuotedAmount     *string         `json:"quoted_amount,omitempty"`
	PaymentHash      string          `json:"rhash"`
	PaymentRequest   string          `json:"payreq"`
	ExpiresAt        int64           `json:"expires_at"`
	CreatedAt        int64           `json:"created_at"`
	PayIndex         *int64          `json:"pay_index,omitempty"`
	PaidAt           *int64          `json:"paid_at,omitempty"`
	MsatoshiReceived *int64          `json:"msatoshi_received,omitempty"`
	Status           models.Status   `json:"status"`
	Metadata         json.RawMessage `json:"metadata"`
}

func NewInvoiceEvent(inv *models.Invoice, now time.Time) (*InvoiceEvent, error) {
	metadata, err := inv.ParsedMetadata()
	if err != nil {
		return nil, err
	}
	return &InvoiceEvent{
		ID:               inv.ID,
		Msatoshi:         inv.Msatoshi,
		Description:      inv.Description,
		QuotedCurrency:   inv.QuotedCurrency,
		QuotedAmount:     inv.QuotedAmount,
		PaymentHash:      inv.PaymentHash,
		PaymentRequest:   inv.PaymentRequest,
		ExpiresAt:        inv.ExpiresAt.Unix(),
		CreatedAt:        inv.CreatedAt.Unix(),
		PayIndex:         inv.PayIndex,
		PaidAt:           unixPtr(inv.PaidAt),
		MsatoshiReceived: inv.MsatoshiReceived,
		Status:           inv.Status(now),
		Metadata:         metadata,
	}, nil
}

// OfferEvent is posted to offer webhooks once per settlement; a recurring
// offer produces one event per payment.
type OfferEvent struct {
	ID               string          `json:"id"`
	OfferID          string          `json:"offer_id"`
	Bolt12           string          `json:"bolt12"`
	Description      string          `json:"description"`
	Vendor           *string         `json:"vendor,omitempty"`
	Label            *string         `json:"label,omitempty"`
	QuotedCurrency   *string         `json:"quoted_currency,omitempty"`
	QuotedAmount     *string         `json:"quoted_amount,omitempty"`
	CreatedAt        int64           `json:"created_at"`
	PayIndex         *int64          `json:"pay_index,omitempty"`
	PaidAt           *int64          `json:"paid_at,omitempty"`
	MsatoshiReceived *int64          `json:"msatoshi_received,omitempty"`
	Status           models.Status   `json:"status"`
	Metadata         json.RawMessage `json:"metadata"`
}

func NewOfferEvent(o *models.Offer, now time.Time) (*OfferEvent, error) {
	metadata, err := o.ParsedMetadata()
	if err != nil {
		return nil, err
	}
	return &OfferEvent{
		ID:               o.ID,
		OfferID:          o.OfferID,
		Bolt12:           o.Bolt12,
		Description:      o.Description,
		Vendor:           o.Vendor,
		Label:            o.Label,
		QuotedCurrency:   o.QuotedCurrency,
		QuotedAmount:     o.QuotedAmount,
		CreatedAt:        o.CreatedAt.Unix(),
		PayIndex:         o.PayIndex,
		PaidAt:           unixPtr(o.PaidAt),
		MsatoshiReceived: o.MsatoshiReceived,
		Status:           o.Status(now),
		Metadata:         metadata,
	}, nil
}

func unixPtr(t *time.Time) *int64 {
	if t == nil {
		return nil
	}
	u := t.Unix()
	return &u
}
