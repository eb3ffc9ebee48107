// Package sheets pushes reconciled rows to the spreadsheet webhook sink.
package sheets

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

	"crmhub_backend/internal/reconcile"
	"crmhub_backend/platform/config"
	"crmhub_backend/platform/logger"
)

type Client struct {
	webhookURL string
	token      string
	http       *http.Client
	log        *logger.Logger
}

func NewClient(cfg config.SheetsConfig, log *logger.Logger) *Client {
	if cfg.GetSheetsWebhookURL() == "" {
		return nil
	}

	return &Client{
		webhookURL: strings.TrimRight(cfg.GetSheetsWebhookURL(), "/"),
		token:      cfg.GetSheetsToken(),
		http:       &http.Client{Timeout: 30 * time.Second},
		log:        log,
	}
}

// Push delivers one batch of rows. requestID lets the sink dedupe retried
// deliveries of the same batch.
func (c *Client) Push(ctx context.Context, requestID string, rows []reconcile.Row) error {
	if c == nil {
		return nil
	}

	body, err := json.Marshal(rows)
	if err != nil {
		return fmt.Errorf("marshal sheet rows: %w", err)
	}

	query := url.Values{}
	query.Set("token", c.token)
	query.Set("request_id", requestID)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.webhookURL+"?"+query.Encode(), bytes.NewBuffer(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("sheet webhook request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= http.StatusBadRequest {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("sheet webhook returned %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	c.log.Info("sheet rows delivered", "request_id", requestID, "rows", len(rows))
	return nil
}
