// Package crm is the HTTP client for the CRM backend. It satisfies the
// collaborator interfaces the actions call through.
package crm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/salesdeck/automation/pkg/protocol"
)

const defaultTimeout = 10 * time.Second

type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *slog.Logger
}

var (
	_ protocol.RecordRepository = (*Client)(nil)
	_ protocol.MessageSender    = (*Client)(nil)
)

func NewClient(baseURL, apiKey string, logger *slog.Logger) *Client {
	return &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: defaultTimeout},
		logger:     logger.With("module", "crm_client"),
	}
}

func (c *Client) CreateRecord(ctx context.Context, domain string, fields map[string]any) (map[string]any, error) {
	var record map[string]any

	err := c.do(ctx, http.MethodPost, fmt.Sprintf("/api/%s", domain), fields, &record)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s record: %w", domain, err)
	}

	return record, nil
}

func (c *Client) UpdateRecordField(ctx context.Context, domain, recordID, field string, value any) error {
	body := map[string]any{field: value}

	err := c.do(ctx, http.MethodPatch, fmt.Sprintf("/api/%s/%s", domain, recordID), body, nil)
	if err != nil {
		return fmt.Errorf("failed to update %s.%s on %s record %s: %w", domain, field, domain, recordID, err)
	}

	return nil
}

func (c *Client) SendMessage(ctx context.Context, channel, recipient, body string) error {
	payload := map[string]any{
		"channel":   channel,
		"recipient": recipient,
		"body":      body,
	}

	err := c.do(ctx, http.MethodPost, "/api/messages", payload, nil)
	if err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}

	return nil
}

func (c *Client) SendNotification(ctx context.Context, userID, title, body string) error {
	payload := map[string]any{
		"user_id": userID,
		"title":   title,
		"body":    body,
	}

	err := c.do(ctx, http.MethodPost, "/api/notifications", payload, nil)
	if err != nil {
		return fmt.Errorf("failed to send notification: %w", err)
	}

	return nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	encoded, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(encoded))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}

	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.logger.Error("Failed to close response body", "error", err)
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))

		return fmt.Errorf("CRM returned status %d: %s", resp.StatusCode, string(snippet))
	}

	if out == nil {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}
