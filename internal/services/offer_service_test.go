package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"lncharge/internal/models"
	"lncharge/internal/node"
	"lncharge/internal/waitreg"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeOfferStore struct {
	mu       sync.Mutex
	offers   map[string]*models.Offer
	webhooks map[string][]string
}

func newFakeOfferStore() *fakeOfferStore {
	return &fakeOfferStore{
		offers:   make(map[string]*models.Offer),
		webhooks: make(map[string][]string),
	}
}

func (s *fakeOfferStore) CreateOffer(ctx context.Context, o *models.Offer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.offers[o.ID] = o
	return nil
}

func (s *fakeOfferStore) GetOffer(ctx context.Context, id string) (*models.Offer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, o := range s.offers {
		if o.ID == id || o.OfferID == id {
			return o, nil
		}
	}
	return nil, nil
}

func (s *fakeOfferStore) ListOffers(ctx context.Context) ([]*models.Offer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.Offer
	for _, o := range s.offers {
		out = append(out, o)
	}
	return out, nil
}

func (s *fakeOfferStore) DeleteOffer(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.offers, id)
	return nil
}

func (s *fakeOfferStore) AddWebhook(ctx context.Context, refID, url string, createdAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.webhooks[refID] = append(s.webhooks[refID], url)
	return nil
}

type fakeOfferNode struct {
	fakeNodeClient
	offerErr error
	requests []node.OfferRequest
}

func (n *fakeOfferNode) CreateOffer(ctx context.Context, req node.OfferRequest) (*node.CreatedOffer, error) {
	if n.offerErr != nil {
		return nil, n.offerErr
	}
	n.requests = append(n.requests, req)
	return &node.CreatedOffer{OfferID: "nodeoffer-1", Bolt12: "lno1abc"}, nil
}

func newOfferService(st *fakeOfferStore, nc *fakeOfferNode) *OfferService {
	return &OfferService{
		Store:    st,
		Node:     nc,
		Registry: waitreg.New[*models.Offer](),
	}
}

func TestCreateOfferMapsFields(t *testing.T) {
	st := newFakeOfferStore()
	nc := &fakeOfferNode{}
	s := newOfferService(st, nc)

	limit := int64(12)
	o, err := s.Create(context.Background(), CreateOfferRequest{
		Currency:        "USD",
		Amount:          "1.5",
		Vendor:          "acme",
		Label:           "subscription",
		Recurrence:      "1month",
		RecurrenceLimit: &limit,
		SingleUse:       false,
	})
	require.NoError(t, err)

	require.Len(t, nc.requests, 1)
	req := nc.requests[0]
	assert.Equal(t, "1.5USD", req.Amount, "currency quotes pass through to the node")
	assert.Equal(t, DefaultOfferDescription, req.Description)
	require.NotNil(t, req.Vendor)
	assert.Equal(t, "acme", *req.Vendor)
	require.NotNil(t, req.Recurrence)
	assert.Equal(t, "1month", *req.Recurrence)

	assert.Equal(t, "nodeoffer-1", o.OfferID)
	assert.Equal(t, "lno1abc", o.Bolt12)
	require.NotNil(t, o.QuotedCurrency)
	assert.Equal(t, "USD", *o.QuotedCurrency)
	require.NotNil(t, o.RecurrenceLimit)
	assert.Equal(t, int64(12), *o.RecurrenceLimit)
}

func TestCreateOfferMsatoshiAmount(t *testing.T) {
	nc := &fakeOfferNode{}
	s := newOfferService(newFakeOfferStore(), nc)

	_, err := s.Create(context.Background(), CreateOfferRequest{Msatoshi: ptr(int64(5000))})
	require.NoError(t, err)
	assert.Equal(t, "5000", nc.requests[0].Amount)
}

func TestCreateOfferNodeRejectionAborts(t *testing.T) {
	st := newFakeOfferStore()
	nc := &fakeOfferNode{offerErr: node.ErrRejected}
	s := newOfferService(st, nc)

	_, err := s.Create(context.Background(), CreateOfferRequest{})
	assert.ErrorIs(t, err, node.ErrRejected)
	assert.Empty(t, st.offers)
}

func TestCreateOfferRegistersWebhook(t *testing.T) {
	st := newFakeOfferStore()
	s := newOfferService(st, &fakeOfferNode{})

	o, err := s.Create(context.Background(), CreateOfferRequest{WebhookURL: "https://example.com/hook"})
	require.NoError(t, err)
	assert.Equal(t, []string{"https://example.com/hook"}, st.webhooks[o.ID])
}

func TestGetOfferByEitherID(t *testing.T) {
	st := newFakeOfferStore()
	s := newOfferService(st, &fakeOfferNode{})

	o, err := s.Create(context.Background(), CreateOfferRequest{})
	require.NoError(t, err)

	byLocal, err := s.Get(context.Background(), o.ID)
	require.NoError(t, err)
	require.NotNil(t, byLocal)

	byNode, err := s.Get(context.Background(), o.OfferID)
	require.NoError(t, err)
	require.NotNil(t, byNode)
	assert.Equal(t, byLocal.ID, byNode.ID)
}

func TestOfferWaitKeyedByNodeOfferID(t *testing.T) {
	st := newFakeOfferStore()
	s := newOfferService(st, &fakeOfferNode{})

	o, err := s.Create(context.Background(), CreateOfferRequest{})
	require.NoError(t, err)

	done := make(chan WaitOutcome, 1)
	go func() {
		_, outcome, err := s.Wait(context.Background(), o.ID, 5*time.Second)
		if err != nil {
			done <- -1
			return
		}
		done <- outcome
	}()
	time.Sleep(20 * time.Millisecond)

	payIndex := int64(2)
	s.Registry.Signal(o.OfferID, &models.Offer{ID: o.ID, OfferID: o.OfferID, PayIndex: &payIndex})

	select {
	case outcome := <-done:
		assert.Equal(t, WaitPaid, outcome)
	case <-time.After(2 * time.Second):
		t.Fatal("offer wait did not resolve")
	}
}

func TestOfferWaitTimeoutWithoutExpiry(t *testing.T) {
	st := newFakeOfferStore()
	s := newOfferService(st, &fakeOfferNode{})

	o, err := s.Create(context.Background(), CreateOfferRequest{})
	require.NoError(t, err)

	_, outcome, err := s.Wait(context.Background(), o.ID, 50*time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, WaitTimeout, outcome)
}

func TestOfferWaitExpiryBound(t *testing.T) {
	st := newFakeOfferStore()
	s := newOfferService(st, &fakeOfferNode{})

	expiry := time.Now().Add(60 * time.Millisecond)
	o, err := s.Create(context.Background(), CreateOfferRequest{AbsoluteExpiry: &expiry})
	require.NoError(t, err)

	_, outcome, err := s.Wait(context.Background(), o.ID, 10*time.Second)
	require.NoError(t, err)
	assert.Equal(t, WaitExpired, outcome)
}

func TestDeleteOfferForgetsRegistry(t *testing.T) {
	st := newFakeOfferStore()
	s := newOfferService(st, &fakeOfferNode{})

	o, err := s.Create(context.Background(), CreateOfferRequest{})
	require.NoError(t, err)

	s.Registry.Signal(o.OfferID, o)
	require.NoError(t, s.Delete(context.Background(), o.ID))

	_, ok, err := s.Registry.Register(context.Background(), o.OfferID, 20*time.Millisecond)
	require.NoError(t, err)
	assert.False(t, ok, "deleted offers must not retain sticky results")

	assert.ErrorIs(t, s.Delete(context.Background(), o.ID), ErrNotFound)
}
