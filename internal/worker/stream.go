package worker

import (
	"context"
	"log"
	"time"

	"lncharge/internal/node"
	"lncharge/internal/webhooks"
)

// RunStream consumes the node settlement stream, reconnecting on failure.
// Every (re)connect resumes from the store's max pay_index, so settlements
// observed while disconnected are replayed; the conditional mark-paid
// absorbs any duplicates.
func (w *Worker) RunStream(ctx context.Context) {
	if w.StreamEndpoint == "" {
		log.Printf("stream disabled: endpoint is empty")
		return
	}

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		lastIndex, err := w.Store.MaxPayIndex(ctx)
		if err != nil {
			log.Printf("stream resume index failed: %v", err)
			time.Sleep(3 * time.Second)
			continue
		}

		client := node.NewStreamClient(w.StreamEndpoint)
		if err := client.Connect(ctx); err != nil {
			log.Printf("stream connect failed: %v", err)
			time.Sleep(3 * time.Second)
			continue
		}
		log.Printf("stream connected %s (lastpay_index=%d)", w.StreamEndpoint, lastIndex)

		if err := client.Subscribe(ctx, lastIndex); err != nil {
			log.Printf("stream subscribe failed: %v", err)
			client.Close()
			time.Sleep(3 * time.Second)
			continue
		}

		for {
			msg, err := client.Read(ctx)
			if err != nil {
				log.Printf("stream read failed: %v", err)
				client.Close()
				break
			}

			settlement, ok, err := node.ParseSettlement(msg)
			if err != nil {
				log.Printf("stream parse failed: %v", err)
				continue
			}
			if !ok {
				continue
			}
			if err := w.ApplySettlement(ctx, settlement); err != nil {
				log.Printf("apply settlement failed pay_index=%d: %v", settlement.PayIndex, err)
			}
		}

		time.Sleep(2 * time.Second)
	}
}

// ApplySettlement records one payment event: the conditional store update is
// the only duplicate guard, and only the first success signals waiters and
// fires webhooks. Webhook dispatch runs detached so a slow endpoint never
// blocks the stream.
func (w *Worker) ApplySettlement(ctx context.Context, s *node.Settlement) error {
	if s.LocalOfferID != "" {
		return w.applyOfferSettlement(ctx, s)
	}

	updated, err := w.Store.MarkPaid(ctx, s.Label, s.PayIndex, s.PaidAt, s.MsatoshiReceived)
	if err != nil {
		return err
	}
	if updated == 0 {
		return nil
	}

	inv, err := w.Store.GetInvoice(ctx, s.Label)
	if err != nil {
		return err
	}
	if inv == nil {
		return nil
	}
	log.Printf("invoice %s paid pay_index=%d msatoshi=%d", inv.ID, s.PayIndex, s.MsatoshiReceived)

	w.Invoices.Signal(inv.ID, inv)

	event, err := webhooks.NewInvoiceEvent(inv, w.now())
	if err != nil {
		return err
	}
	go w.Hooks.Dispatch(context.WithoutCancel(ctx), inv.ID, event)
	return nil
}

func (w *Worker) applyOfferSettlement(ctx context.Context, s *node.Settlement) error {
	updated, err := w.Store.MarkOfferPaid(ctx, s.LocalOfferID, s.PayIndex, s.PaidAt, s.MsatoshiReceived)
	if err != nil {
		return err
	}
	if updated == 0 {
		return nil
	}

	o, err := w.Store.GetOffer(ctx, s.LocalOfferID)
	if err != nil {
		return err
	}
	if o == nil {
		return nil
	}
	log.Printf("offer %s paid pay_index=%d msatoshi=%d", o.ID, s.PayIndex, s.MsatoshiReceived)

	w.Offers.Signal(o.OfferID, o)

	event, err := webhooks.NewOfferEvent(o, w.now())
	if err != nil {
		return err
	}
	go w.Hooks.Dispatch(context.WithoutCancel(ctx), o.ID, event)
	return nil
}
