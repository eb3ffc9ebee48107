// Package amocrm is the HTTP client for the AmoCRM v4 API. It decodes the
// CRM's dict-shaped records into typed structures at this boundary; nothing
// above it sees raw JSON.
package amocrm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"crmhub_backend/platform/apperr"
	"crmhub_backend/platform/config"
	"crmhub_backend/platform/logger"

	"golang.org/x/time/rate"
)

const apiPrefix = "/api/v4"

// Client talks to the CRM with a shared minimum-interval gate, a per-call
// timeout and bounded retries on transient failures.
type Client struct {
	baseURL    string
	http       *http.Client
	tokens     *TokenSource
	limiter    *rate.Limiter
	maxRetries int
	pageLimit  int
	fields     config.FieldsConfig
	log        *logger.Logger
}

// New creates a CRM client from configuration.
func New(cfg config.AmoConfig, fields config.FieldsConfig, log *logger.Logger) *Client {
	baseURL := fmt.Sprintf("https://%s.amocrm.ru", cfg.GetAmoSubdomain())
	httpClient := &http.Client{Timeout: cfg.GetAmoTimeout()}

	return &Client{
		baseURL:    baseURL,
		http:       httpClient,
		tokens:     NewTokenSource(cfg, baseURL+"/oauth2/access_token", httpClient, log),
		limiter:    rate.NewLimiter(rate.Every(cfg.GetAmoMinInterval()), 1),
		maxRetries: cfg.GetAmoMaxRetries(),
		pageLimit:  cfg.GetAmoPageLimit(),
		fields:     fields,
		log:        log,
	}
}

// BaseURL returns the CRM web base, used to build links in operator messages.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Tokens exposes the token source for the one-shot auth exchange binary.
func (c *Client) Tokens() *TokenSource {
	return c.tokens
}

// request performs one throttled, authorized API call with bounded retries
// on 429/5xx and connection-level errors. The caller owns the response body.
func (c *Client) request(ctx context.Context, method, path string, query url.Values, body any) (*http.Response, error) {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, err
	}

	var payload []byte
	if body != nil {
		payload, err = json.Marshal(body)
		if err != nil {
			return nil, err
		}
	}

	fullURL := c.baseURL + path
	if len(query) > 0 {
		fullURL += "?" + query.Encode()
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		var reader io.Reader
		if payload != nil {
			reader = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, fullURL, reader)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+token)
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.http.Do(req)
		if err != nil {
			lastErr = err
			if attempt < c.maxRetries {
				if err := sleepCtx(ctx, backoff(attempt)); err != nil {
					return nil, err
				}
				continue
			}
			return nil, apperr.Wrap(apperr.KindTransient, method+" "+path+" failed", err)
		}

		if isRetryable(resp.StatusCode) && attempt < c.maxRetries {
			delay := retryAfter(resp, backoff(attempt))
			_, _ = io.Copy(io.Discard, resp.Body)
			_ = resp.Body.Close()
			c.log.Warn("retrying CRM request", "path", path, "status", resp.StatusCode, "attempt", attempt+1)
			if err := sleepCtx(ctx, delay); err != nil {
				return nil, err
			}
			continue
		}

		return resp, nil
	}

	return nil, apperr.Wrap(apperr.KindTransient, method+" "+path+" failed", lastErr)
}

// getJSON runs a GET and decodes a 200 body into out.
// 204 maps to a NotFound tagged error, not an exception path.
func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	resp, err := c.request(ctx, http.MethodGet, path, query, nil)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	switch resp.StatusCode {
	case http.StatusOK:
		return json.NewDecoder(resp.Body).Decode(out)
	case http.StatusNoContent:
		return apperr.NotFound("empty result").WithOp(path)
	case http.StatusUnauthorized, http.StatusForbidden:
		c.log.CRMError(path, resp.StatusCode, nil)
		return apperr.Unauthorized("CRM rejected credentials").WithOp(path)
	default:
		return c.unexpectedStatus(path, resp)
	}
}

// sendJSON runs a POST or PATCH with a JSON body and decodes the response
// into out when out is non-nil.
func (c *Client) sendJSON(ctx context.Context, method, path string, body, out any) error {
	resp, err := c.request(ctx, method, path, nil, body)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return c.unexpectedStatus(path, resp)
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *Client) unexpectedStatus(path string, resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
	c.log.CRMError(path, resp.StatusCode, nil)
	return apperr.Transient(fmt.Sprintf("CRM returned %d: %s", resp.StatusCode, string(data))).WithOp(path)
}

func isNotFound(err error) bool {
	return apperr.GetKind(err) == apperr.KindNotFound
}

func isRetryable(status int) bool {
	switch status {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}

func backoff(attempt int) time.Duration {
	return time.Duration(attempt+1) * 500 * time.Millisecond
}

func retryAfter(resp *http.Response, fallback time.Duration) time.Duration {
	raw := resp.Header.Get("Retry-After")
	if raw == "" {
		return fallback
	}
	seconds, err := strconv.Atoi(raw)
	if err != nil || seconds < 0 {
		return fallback
	}
	return time.Duration(seconds) * time.Second
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
