// Package sms relays validated send requests to the Semaphore SMS gateway.
package sms

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/goccy/go-json"
)

// DefaultGatewayURL is the Semaphore message endpoint.
const DefaultGatewayURL = "https://api.semaphore.co/api/v4/messages"

var ErrGatewayRejected = errors.New("sms gateway rejected the request")

// Message is one outbound SMS. Number may hold multiple comma-separated
// recipients.
type Message struct {
	Number     string `json:"number"`
	Message    string `json:"message"`
	SenderName string `json:"sendername"`
}

type gatewayPayload struct {
	APIKey string `json:"apikey"`
	Message
}

// Client posts messages to the gateway using a server-held credential. The
// credential never comes from the inbound request.
type Client struct {
	url    string
	apiKey string
	client *http.Client
}

// NewClient creates a gateway client. An empty url falls back to the
// Semaphore production endpoint.
func NewClient(url, apiKey string) *Client {
	if url == "" {
		url = DefaultGatewayURL
	}
	return &Client{
		url:    url,
		apiKey: apiKey,
		client: &http.Client{Timeout: 15 * time.Second},
	}
}

// Send relays one message to the gateway.
func (c *Client) Send(ctx context.Context, msg Message) error {
	body, err := json.Marshal(gatewayPayload{APIKey: c.apiKey, Message: msg})
	if err != nil {
		return fmt.Errorf("unable to encode gateway payload, %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("unable to build gateway request, %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("unable to reach sms gateway, %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("status %d: %s, %w", resp.StatusCode, detail, ErrGatewayRejected)
	}
	return nil
}
