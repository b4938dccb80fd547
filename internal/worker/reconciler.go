package worker

import (
	"context"
	"log"
)

// SweepOnce deletes locally-expired, unpaid invoices once the node confirms
// it no longer knows them. A node failure on one candidate never aborts the
// sweep for the others.
func (w *Worker) SweepOnce(ctx context.Context) error {
	cutoff := w.now().Add(-w.ReconcileTTL)
	candidates, err := w.Store.ListExpiredUnpaid(ctx, cutoff)
	if err != nil {
		return err
	}

	var gone []string
	for _, id := range candidates {
		invs, err := w.Node.ListInvoices(ctx, id)
		if err != nil {
			log.Printf("reconcile %s: node query failed: %v", id, err)
			continue
		}
		if len(invs) > 0 {
			// The node still considers it live; keep the row.
			continue
		}
		gone = append(gone, id)
	}

	if len(gone) == 0 {
		return nil
	}
	if err := w.Store.DeleteInvoices(ctx, gone); err != nil {
		return err
	}
	for _, id := range gone {
		w.Invoices.Forget(id)
	}
	log.Printf("reconciled %d expired invoices", len(gone))
	return nil
}
