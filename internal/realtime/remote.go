package realtime

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// InternalSecretHeader carries the shared secret on internal broadcast calls.
const InternalSecretHeader = "X-Internal-Secret"

// BroadcastRequest is the body of POST /api/v1/internal/broadcast.
type BroadcastRequest struct {
	ListID  uint            `json:"listId" binding:"required"`
	Message json.RawMessage `json:"message" binding:"required" swaggertype:"object"`
}

// HTTPPublisher forwards events to a remote realtime server through its
// internal broadcast endpoint. Used when the API and the streaming server run
// as separate processes.
type HTTPPublisher struct {
	endpoint string
	secret   string
	client   *http.Client
}

func NewHTTPPublisher(baseURL, secret string, client *http.Client) *HTTPPublisher {
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Second}
	}
	return &HTTPPublisher{
		endpoint: strings.TrimRight(baseURL, "/") + "/api/v1/internal/broadcast",
		secret:   secret,
		client:   client,
	}
}

func (p *HTTPPublisher) Publish(ctx context.Context, listID uint, event Event) error {
	if event == nil {
		return fmt.Errorf("nil event for list %d", listID)
	}
	message, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode %s event: %w", event.EventType(), err)
	}
	body, err := json.Marshal(BroadcastRequest{ListID: listID, Message: message})
	if err != nil {
		return fmt.Errorf("failed to encode broadcast request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build broadcast request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(InternalSecretHeader, p.secret)

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("broadcast request failed: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("broadcast request for list %d returned %s", listID, resp.Status)
	}
	return nil
}
