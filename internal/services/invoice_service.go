package services

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"lncharge/internal/models"
	"lncharge/internal/node"
	"lncharge/internal/rates"
	"lncharge/internal/waitreg"

	"github.com/google/uuid"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrInvalidMetadata = errors.New("metadata is not valid JSON")
)

const (
	DefaultInvoiceDescription = "Lightning Charge Invoice"
	DefaultInvoiceExpiry      = time.Hour
	DefaultWaitTimeout        = 5 * time.Minute
	DefaultMaxWait            = 10 * time.Minute
)

type InvoiceStore interface {
	CreateInvoice(ctx context.Context, inv *models.Invoice) error
	GetInvoice(ctx context.Context, id string) (*models.Invoice, error)
	ListInvoices(ctx context.Context) ([]*models.Invoice, error)
	DeleteInvoice(ctx context.Context, id string) error
	AddWebhook(ctx context.Context, refID, url string, createdAt time.Time) error
}

// InvoiceService is the invoice half of the boundary surface: create, fetch,
// list, delete and the long-poll wait. All time fields flow from the single
// Now source so created_at/expires_at comparisons stay consistent.
type InvoiceService struct {
	Store    InvoiceStore
	Node     node.Client
	Rates    rates.Converter
	Registry *waitreg.Registry[*models.Invoice]

	NewID              func() string
	Now                func() time.Time
	DefaultDescription string
	DefaultExpiry      time.Duration
	MaxWait            time.Duration
}

type CreateInvoiceRequest struct {
	Msatoshi    *int64
	Currency    string
	Amount      string
	Description string
	Expiry      time.Duration
	Metadata    json.RawMessage
	WebhookURL  string
}

func (s *InvoiceService) Create(ctx context.Context, req CreateInvoiceRequest) (*models.Invoice, error) {
	var msat models.Msat
	switch {
	case req.Msatoshi != nil:
		msat = models.MsatValue(*req.Msatoshi)
	case req.Currency != "":
		v, err := s.Rates.ToMsat(ctx, req.Currency, req.Amount)
		if err != nil {
			return nil, err
		}
		msat = models.MsatValue(v)
	default:
		msat = models.MsatAny()
	}

	desc := req.Description
	if desc == "" {
		desc = s.defaultDescription()
	}
	expiry := req.Expiry
	if expiry <= 0 {
		expiry = s.defaultExpiry()
	}

	metadata, err := encodeMetadata(req.Metadata)
	if err != nil {
		return nil, err
	}

	id := s.newID()
	lninv, err := s.Node.CreateInvoice(ctx, node.InvoiceRequest{
		Amount:      msat.NodeAmount(),
		Label:       id,
		Description: desc,
		Expiry:      int64(expiry / time.Second),
	})
	if err != nil {
		return nil, err
	}

	inv := &models.Invoice{
		ID:             id,
		Msatoshi:       msat,
		Description:    desc,
		PaymentHash:    lninv.PaymentHash,
		PaymentRequest: lninv.Bolt11,
		ExpiresAt:      lninv.ExpiresAt,
		CreatedAt:      s.now(),
		Metadata:       metadata,
	}
	if req.Currency != "" {
		inv.QuotedCurrency = &req.Currency
		inv.QuotedAmount = &req.Amount
	}

	if err := s.Store.CreateInvoice(ctx, inv); err != nil {
		return nil, err
	}
	if req.WebhookURL != "" {
		if err := s.Store.AddWebhook(ctx, id, req.WebhookURL, s.now()); err != nil {
			return nil, err
		}
	}
	return inv, nil
}

func (s *InvoiceService) Get(ctx context.Context, id string) (*models.Invoice, error) {
	return s.Store.GetInvoice(ctx, id)
}

func (s *InvoiceService) List(ctx context.Context) ([]*models.Invoice, error) {
	return s.Store.ListInvoices(ctx)
}

// Delete asks the node to cancel the invoice first; if the node refuses, the
// local row stays intact.
func (s *InvoiceService) Delete(ctx context.Context, id string) error {
	inv, err := s.Store.GetInvoice(ctx, id)
	if err != nil {
		return err
	}
	if inv == nil {
		return ErrNotFound
	}

	if err := s.Node.DeleteInvoice(ctx, id, string(inv.Status(s.now()))); err != nil {
		return err
	}
	if err := s.Store.DeleteInvoice(ctx, id); err != nil {
		return err
	}
	s.Registry.Forget(id)
	return nil
}

type WaitOutcome int

const (
	// WaitPaid: the invoice settled; the snapshot is returned.
	WaitPaid WaitOutcome = iota
	// WaitTimeout: the caller's own bound fired while the invoice can still
	// be paid; retrying is meaningful.
	WaitTimeout
	// WaitExpired: the invoice's expiry is the bound that fired (or had
	// already passed); no payment can arrive anymore.
	WaitExpired
)

// Wait blocks until the invoice is paid or the effective timeout elapses.
// The effective wait is the minimum of the caller's timeout, the time left
// until expiry, and the process-wide ceiling.
func (s *InvoiceService) Wait(ctx context.Context, id string, timeout time.Duration) (*models.Invoice, WaitOutcome, error) {
	inv, err := s.Store.GetInvoice(ctx, id)
	if err != nil {
		return nil, 0, err
	}
	if inv == nil {
		return nil, 0, ErrNotFound
	}

	now := s.now()
	switch inv.Status(now) {
	case models.StatusPaid:
		return inv, WaitPaid, nil
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

	expiresIn := inv.ExpiresAt.Sub(now)
	effective := timeout
	expiryBound := false
	if expiresIn < effective {
		effective = expiresIn
		expiryBound = true
	}
	if maxWait < effective {
		effective = maxWait
		expiryBound = false
	}

	paid, ok, err := s.Registry.Register(ctx, id, effective)
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

func (s *InvoiceService) newID() string {
	if s.NewID != nil {
		return s.NewID()
	}
	return uuid.NewString()
}

func (s *InvoiceService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

func (s *InvoiceService) defaultDescription() string {
	if s.DefaultDescription != "" {
		return s.DefaultDescription
	}
	return DefaultInvoiceDescription
}

func (s *InvoiceService) defaultExpiry() time.Duration {
	if s.DefaultExpiry > 0 {
		return s.DefaultExpiry
	}
	return DefaultInvoiceExpiry
}

// encodeMetadata normalizes caller metadata for storage: absent metadata is
// stored as JSON null, anything else must already be valid JSON.
func encodeMetadata(raw json.RawMessage) (string, error) {
	if len(raw) == 0 {
		return "null", nil
	}
	if !json.Valid(raw) {
		return "", ErrInvalidMetadata
	}
	return string(raw), nil
}
