// Package whatsapp sends outbound messages through the per-workspace
// messaging provider API.
package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"wacrm_backend/platform/logger"
	"wacrm_backend/platform/phone"
)

// Credentials identify one workspace's messaging provider endpoint.
type Credentials struct {
	BaseURL string
	APIKey  string
}

// Valid reports whether the credentials are usable for sending.
func (c Credentials) Valid() bool {
	return c.BaseURL != "" && c.APIKey != ""
}

// Client posts text messages to the provider's send endpoint. One client is
// shared across workspaces; credentials are passed per call.
type Client struct {
	http    *http.Client
	limiter *rate.Limiter
	log     *logger.Logger
}

type sendRequest struct {
	Phone   string `json:"phone"`
	Message string `json:"message"`
}

// NewClient creates a messaging provider client. The rate limiter caps the
// global outbound send rate across all workspaces.
func NewClient(sendRate float64, burst int, log *logger.Logger) *Client {
	if sendRate <= 0 {
		sendRate = 10
	}
	if burst <= 0 {
		burst = 20
	}
	return &Client{
		http:    &http.Client{Timeout: 10 * time.Second},
		limiter: rate.NewLimiter(rate.Limit(sendRate), burst),
		log:     log,
	}
}

// Send delivers a text message to a phone number using the workspace
// credentials. Blocks until the rate limiter admits the send.
func (c *Client) Send(ctx context.Context, creds Credentials, phoneNumber, message string) error {
	if !creds.Valid() {
		return fmt.Errorf("whatsapp send: missing workspace credentials")
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("whatsapp send rate wait: %w", err)
	}

	normalized := phone.Digits(phoneNumber)

	body, err := json.Marshal(sendRequest{Phone: normalized, Message: message})
	if err != nil {
		return fmt.Errorf("marshal whatsapp payload: %w", err)
	}

	url := strings.TrimRight(creds.BaseURL, "/") + "/send/message"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+creds.APIKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("whatsapp request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= http.StatusBadRequest {
		data, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("whatsapp service returned %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	c.log.Debug("whatsapp message sent", "phone", normalized)
	return nil
}
