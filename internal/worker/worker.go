package worker

import (
	"context"
	"log"
	"time"

	"lncharge/internal/models"
	"lncharge/internal/node"
	"lncharge/internal/waitreg"
)

type Store interface {
	MarkPaid(ctx context.Context, id string, payIndex int64, paidAt time.Time, msatReceived int64) (int64, error)
	MarkOfferPaid(ctx context.Context, offerID string, payIndex int64, paidAt time.Time, msatReceived int64) (int64, error)
	MaxPayIndex(ctx context.Context) (int64, error)
	GetInvoice(ctx context.Context, id string) (*models.Invoice, error)
	GetOffer(ctx context.Context, id string) (*models.Offer, error)
	ListExpiredUnpaid(ctx context.Context, cutoff time.Time) ([]string, error)
	DeleteInvoices(ctx context.Context, ids []string) error
}

type NodeLister interface {
	ListInvoices(ctx context.Context, label string) ([]node.InvoiceInfo, error)
}

type Dispatcher interface {
	Dispatch(ctx context.Context, refID string, payload any)
}

// Worker runs the two background halves of the engine: the settlement
// watcher feeding the wait registries and webhook dispatcher, and the
// periodic expiration reconciler.
type Worker struct {
	Store    Store
	Node     NodeLister
	Invoices *waitreg.Registry[*models.Invoice]
	Offers   *waitreg.Registry[*models.Offer]
	Hooks    Dispatcher

	StreamEndpoint    string
	ReconcileTTL      time.Duration
	ReconcileInterval time.Duration
	Now               func() time.Time
}

func (w *Worker) Run(ctx context.Context) {
	go w.RunStream(ctx)

	interval := w.ReconcileInterval
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if err := w.SweepOnce(ctx); err != nil {
			log.Printf("reconcile error: %v", err)
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (w *Worker) now() time.Time {
	if w.Now != nil {
		return w.Now()
	}
	return time.Now().UTC()
}
