// Package gateway is the thin client for the upstream messaging gateway.
// Every user-visible reply leaves the system through SendText.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// Sender is what the engine needs from the gateway.
type Sender interface {
	SendText(ctx context.Context, instance, recipient, text string) error
}

// Client talks to an Evolution-style gateway over HTTP.
type Client struct {
	BaseURL string
	APIKey  string

	// HTTPClient is optional; a default with a bounded timeout is used when nil.
	HTTPClient *http.Client
}

const defaultTimeout = 15 * time.Second

type sendTextRequest struct {
	Number string `json:"number"`
	Text   string `json:"text"`
}

// SendText delivers a plain-text message to recipient on behalf of instance.
func (c *Client) SendText(ctx context.Context, instance, recipient, text string) error {
	body, err := json.Marshal(sendTextRequest{Number: recipient, Text: text})
	if err != nil {
		return fmt.Errorf("gateway: encode request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/message/sendText/%s", c.BaseURL, url.PathEscape(instance))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("gateway: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.APIKey != "" {
		req.Header.Set("apikey", c.APIKey)
	}

	hc := c.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: defaultTimeout}
	}
	resp, err := hc.Do(req)
	if err != nil {
		return fmt.Errorf("gateway: %w", err)
	}
	defer resp.Body.Close()
	// Drain so the connection can be reused.
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<16))

	if resp.StatusCode >= 300 {
		return fmt.Errorf("gateway: sendText status %d", resp.StatusCode)
	}
	return nil
}
