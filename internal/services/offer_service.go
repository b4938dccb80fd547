package services

import (
	"context"
	"encoding/json"
	"time"

	"lncharge/internal/models"
	"lncharge/internal/node"
	"lncharge/internal/waitreg"

	"github.com/google/uuid"
)

const DefaultOfferDescription = "Lightning Charge Offer"

type OfferStore interface {
	CreateOffer(ctx context.Context, o *models.Offer) error
	GetOffer(ctx context.Context, id string) (*models.Offer, error)
	ListOffers(ctx context.Context) ([]*models.Offer, error)
	DeleteOffer(ctx context.Context, id string) error
	AddWebhook(ctx context.Context, refID, url string, createdAt time.Time) error
}

// OfferService is the reusable-request half of the boundary surface. Offers
// mirror the invoice lifecycle but may settle repeatedly over their lifetime.
type OfferService struct {
	Store    OfferStore
	Node     node.Client
	Registry *waitreg.Registry[*models.Offer]

	NewID   func() string
	Now     func() time.Time
	MaxWait time.Duration
}

type CreateOfferRequest struct {
	// Amount precedence follows the node's offer semantics: an explicit
	// msatoshi value, else a currency-denominated amount passed through to
	// the node verbatim (e.g. "1.5USD"), else any.
	Msatoshi            *int64
	Currency            string
	Amount              string
	Description         string
	Vendor              string
	Label               string
	QuantityMin         *int64
	QuantityMax         *int64
	AbsoluteExpiry      *time.Time
	Recurrence          string
	RecurrenceBase      string
	RecurrencePaywindow string
	RecurrenceLimit     *int64
	SingleUse           bool
	Metadata            json.RawMessage
	WebhookURL          string
}

func (s *OfferService) Create(ctx context.Context, req CreateOfferRequest) (*models.Offer, error) {
	desc := req.Description
	if desc == "" {
		desc = DefaultOfferDescription
	}

	amount := "any"
	var quotedCurrency, quotedAmount *string
	switch {
	case req.Currency != "" && req.Amount != "":
		amount = req.Amount + req.Currency
		quotedCurrency = &req.Currency
		quotedAmount = &req.Amount
	case req.Amount != "":
		amount = req.Amount
	case req.Msatoshi != nil:
		amount = models.MsatValue(*req.Msatoshi).NodeAmount()
	}

	metadata, err := encodeMetadata(req.Metadata)
	if err != nil {
		return nil, err
	}

	nodeReq := node.OfferRequest{
		Amount:      amount,
		Description: desc,
		QuantityMin: req.QuantityMin,
		QuantityMax: req.QuantityMax,
		SingleUse:   req.SingleUse,
	}
	if req.Vendor != "" {
		nodeReq.Vendor = &req.Vendor
	}
	if req.Label != "" {
		nodeReq.Label = &req.Label
	}
	if req.AbsoluteExpiry != nil {
		expiry := req.AbsoluteExpiry.Unix()
		nodeReq.AbsoluteExpiry = &expiry
	}
	if req.Recurrence != "" {
		nodeReq.Recurrence = &req.Recurrence
	}
	if req.RecurrenceBase != "" {
		nodeReq.RecurrenceBase = &req.RecurrenceBase
	}
	if req.RecurrencePaywindow != "" {
		nodeReq.RecurrencePaywindow = &req.RecurrencePaywindow
	}
	nodeReq.RecurrenceLimit = req.RecurrenceLimit

	created, err := s.Node.CreateOffer(ctx, nodeReq)
	if err != nil {
		return nil, err
	}

	o := &models.Offer{
		ID:             s.newID(),
		OfferID:        created.OfferID,
		Bolt12:         created.Bolt12,
		Description:    desc,
		SingleUse:      req.SingleUse,
		AbsoluteExpiry: req.AbsoluteExpiry,
		QuotedCurrency: quotedCurrency,
		QuotedAmount:   quotedAmount,
		CreatedAt:      s.now(),
		Metadata:       metadata,
	}
	if req.Vendor != "" {
		o.Vendor = &req.Vendor
	}
	if req.Label != "" {
		o.Label = &req.Label
	}
	if req.Recurrence != "" {
		o.Recurrence = &req.Recurrence
	}
	if req.RecurrenceBase != "" {
		o.RecurrenceBase = &req.RecurrenceBase
	}
	if req.RecurrencePaywindow != "" {
		o.RecurrencePaywindow = &req.RecurrencePaywindow
	}
	o.RecurrenceLimit = req.RecurrenceLimit

	if err := s.Store.CreateOffer(ctx, o); err != nil {
		return nil, err
	}
	if req.WebhookURL != "" {
		if err := s.Store.AddWebhook(ctx, o.ID, req.WebhookURL, s.now()); err != nil {
			return nil, err
		}
	}
	return o, nil
}

func (s *OfferService) Get(ctx context.Context, id string) (*models.Offer, error) {
	return s.Store.GetOffer(ctx, id)
}

func (s *OfferService) List(ctx context.Context) ([]*models.Offer, error) {
	return s.Store.ListOffers(ctx)
}

func (s *OfferService) Delete(ctx context.Context, id string) error {
	o, err := s.Store.GetOffer(ctx, id)
	if err != nil {
		return err
	}
	if o == nil {
		return ErrNotFound
	}
	if err := s.Store.DeleteOffer(ctx, o.ID); err != nil {
		return err
	}
	s.Registry.Forget(o.OfferID)
	return nil
}

// Wait blocks until the offer has settled at least once, keyed by the node
// offer id; an already-settled offer resolves immediately with the latest
// settlement snapshot. Offers without an absolute expiry are bounded only by
// the caller's timeout and the process ceiling.
func (s *OfferService) Wait(ctx context.Context, id string, timeout time.Duration) (*models.Offer, WaitOutcome, error) {
	o, err := s.Store.GetOffer(ctx, id)
	if err != nil {
		return nil, 0, err
	}
	if o == nil {
		return nil, 0, ErrNotFound
	}

	now := s.now()
	switch o.Status(now) {
	case models.StatusPaid:
		return o, WaitPaid, nil
	case models.StatusExpired:
		return nil, WaitExpired, nil
	}

	if timeout <= 0 {
		timeout = DefaultWaitTimeout
	}
	maxWait := s.MaxWait
	if maxWait <= 0 {
		maxWait = DefaultMaxWait
	}

	effective := timeout
	expiryBound := false
	if o.AbsoluteExpiry != nil {
		if expiresIn := o.AbsoluteExpiry.Sub(now); expiresIn < effective {
			effective = expiresIn
			expiryBound = true
		}
	}
	if maxWait < effective {
		effective = maxWait
		expiryBound = false
	}

	paid, ok, err := s.Registry.Register(ctx, o.OfferID, effective)
	if err != nil {
		return nil, 0, err
	}
	if ok {
		return paid, WaitPaid, nil
	}
	if expiryBound {
		return nil, WaitExpired, nil
	}
	return nil, WaitTimeout, nil
}

func (s *OfferService) newID() string {
	if s.NewID != nil {
		return s.NewID()
	}
	return uuid.NewString()
}

func (s *OfferService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}
