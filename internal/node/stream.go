package node

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

// StreamClient consumes the node's settlement stream over a websocket. The
// subscribe request carries the last processed pay_index so the node replays
// anything settled while this process was down.
type StreamClient struct {
	Endpoint string
	Conn     *websocket.Conn
}

func NewStreamClient(endpoint string) *StreamClient {
	return &StreamClient{Endpoint: endpoint}
}

func (c *StreamClient) Connect(ctx context.Context) error {
	dialer := websocket.Dialer{}
	conn, _, err := dialer.DialContext(ctx, c.Endpoint, nil)
	if err != nil {
		return err
	}
	c.Conn = conn
	return nil
}

func (c *StreamClient) Close() {
	if c.Conn != nil {
		_ = c.Conn.Close()
	}
}

func (c *StreamClient) Subscribe(ctx context.Context, lastPayIndex int64) error {
	payload := map[string]any{
		"method":        "waitanyinvoice",
		"lastpay_index": lastPayIndex,
	}
	return c.Conn.WriteJSON(payload)
}

func (c *StreamClient) Read(ctx context.Context) ([]byte, error) {
	_, msg, err := c.Conn.ReadMessage()
	return msg, err
}

// ParseSettlement decodes one stream message. The second return is false for
// messages that are not settlement events (keepalives, acks).
func ParseSettlement(msg []byte) (*Settlement, bool, error) {
	var env struct {
		Error *struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
		Label            string `json:"label"`
		PayIndex         int64  `json:"pay_index"`
		MsatoshiReceived int64  `json:"msatoshi_received"`
		PaidAt           int64  `json:"paid_at"`
		LocalOfferID     string `json:"local_offer_id"`
	}
	if err := json.Unmarshal(msg, &env); err != nil {
		return nil, false, err
	}
	if env.Error != nil {
		return nil, false, errors.New(env.Error.Message)
	}
	if env.PayIndex == 0 {
		return nil, false, nil
	}

	paidAt := time.Unix(env.PaidAt, 0).UTC()
	if env.PaidAt == 0 {
		paidAt = time.Now().UTC()
	}
	return &Settlement{
		Label:            env.Label,
		PayIndex:         env.PayIndex,
		MsatoshiReceived: env.MsatoshiReceived,
		PaidAt:           paidAt,
		LocalOfferID:     env.LocalOfferID,
	}, true, nil
}

// DefaultStreamEndpoint derives the websocket endpoint from the REST URL
// when none is configured.
func DefaultStreamEndpoint(restURL string) string {
	restURL = strings.TrimRight(restURL, "/")
	switch {
	case strings.HasPrefix(restURL, "https://"):
		return "wss://" + strings.TrimPrefix(restURL, "https://") + "/v1/ws"
	case strings.HasPrefix(restURL, "http://"):
		return "ws://" + strings.TrimPrefix(restURL, "http://") + "/v1/ws"
	}
	return ""
}
