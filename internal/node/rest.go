package node

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

type RESTClient struct {
	baseURL string
	client  *http.Client
}

func NewRESTClient(baseURL string, timeout time.Duration) *RESTClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &RESTClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

func (c *RESTClient) CreateInvoice(ctx context.Context, req InvoiceRequest) (*CreatedInvoice, error) {
	var resp struct {
		PaymentHash string `json:"payment_hash"`
		Bolt11      string `json:"bolt11"`
		ExpiresAt   int64  `json:"expires_at"`
	}
	if err := c.postJSON(ctx, c.baseURL+"/v1/invoice", req, &resp); err != nil {
		return nil, err
	}
	return &CreatedInvoice{
		PaymentHash: resp.PaymentHash,
		Bolt11:      resp.Bolt11,
		ExpiresAt:   time.Unix(resp.ExpiresAt, 0).UTC(),
	}, nil
}

func (c *RESTClient) DeleteInvoice(ctx context.Context, label, status string) error {
	endpoint := c.baseURL + "/v1/invoice/" + url.PathEscape(label) + "?status=" + url.QueryEscape(status)
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, endpoint, nil)
	if err != nil {
		return err
	}
	return c.do(req, nil)
}

func (c *RESTClient) ListInvoices(ctx context.Context, label string) ([]InvoiceInfo, error) {
	endpoint := c.baseURL + "/v1/invoices?label=" + url.QueryEscape(label)
	var resp struct {
		Invoices []struct {
			Label       string `json:"label"`
			PaymentHash string `json:"payment_hash"`
			Status      string `json:"status"`
		} `json:"invoices"`
	}
	if err := c.getJSON(ctx, endpoint, &resp); err != nil {
		return nil, err
	}
	out := make([]InvoiceInfo, 0, len(resp.Invoices))
	for _, inv := range resp.Invoices {
		out = append(out, InvoiceInfo{
			Label:       inv.Label,
			PaymentHash: inv.PaymentHash,
			Status:      inv.Status,
		})
	}
	return out, nil
}

func (c *RESTClient) CreateOffer(ctx context.Context, req OfferRequest) (*CreatedOffer, error) {
	var resp struct {
		OfferID string `json:"offer_id"`
		Bolt12  string `json:"bolt12"`
	}
	if err := c.postJSON(ctx, c.baseURL+"/v1/offer", req, &resp); err != nil {
		return nil, err
	}
	if resp.OfferID == "" {
		return nil, fmt.Errorf("%w: offer creation returned no offer_id", ErrRejected)
	}
	return &CreatedOffer{OfferID: resp.OfferID, Bolt12: resp.Bolt12}, nil
}

func (c *RESTClient) getJSON(ctx context.Context, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *RESTClient) postJSON(ctx context.Context, endpoint string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *RESTClient) do(req *http.Request, out any) error {
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		msg := strings.TrimSpace(string(body))
		kind := ErrRejected
		if resp.StatusCode >= 500 {
			kind = ErrUnavailable
		}
		if msg != "" {
			return fmt.Errorf("%w: http status %d: %s", kind, resp.StatusCode, msg)
		}
		return fmt.Errorf("%w: http status %d", kind, resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
