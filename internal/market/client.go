// Package market reads orders from the Yandex Market partner API.
package market

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"crmhub_backend/platform/config"
	"crmhub_backend/platform/logger"
)

type Client struct {
	baseURL    string
	apiKey     string
	campaignID string
	http       *http.Client
	log        *logger.Logger
}

// Order is the slice of a marketplace order this service acts on.
type Order struct {
	ID    int64       `json:"id"`
	Items []OrderItem `json:"items"`
	Buyer Buyer       `json:"buyer"`
}

type OrderItem struct {
	OfferName string  `json:"offerName"`
	ShopSKU   string  `json:"shopSku"`
	Count     int     `json:"count"`
	Price     float64 `json:"price"`
}

type Buyer struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Phone     string `json:"phone"`
}

func NewClient(cfg config.MarketConfig, log *logger.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimRight(cfg.GetMarketBaseURL(), "/"),
		apiKey:     cfg.GetMarketAPIKey(),
		campaignID: cfg.GetMarketCampaignID(),
		http:       &http.Client{Timeout: 30 * time.Second},
		log:        log,
	}
}

// GetOrder fetches one order of the configured campaign.
func (c *Client) GetOrder(ctx context.Context, orderID int64) (*Order, error) {
	var result struct {
		Order Order `json:"order"`
	}
	path := fmt.Sprintf("/campaigns/%s/orders/%d", c.campaignID, orderID)
	if err := c.getJSON(ctx, path, &result); err != nil {
		return nil, err
	}
	return &result.Order, nil
}

// GetBuyer fetches the buyer block of an order, which carries the real
// phone number only on this dedicated endpoint.
func (c *Client) GetBuyer(ctx context.Context, orderID int64) (*Buyer, error) {
	var result struct {
		Result Buyer `json:"result"`
	}
	path := fmt.Sprintf("/campaigns/%s/orders/%d/buyer", c.campaignID, orderID)
	if err := c.getJSON(ctx, path, &result); err != nil {
		return nil, err
	}
	return &result.Result, nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Api-Key", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("market request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		c.log.CRMError(path, resp.StatusCode, nil)
		return fmt.Errorf("market returned %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	return json.NewDecoder(resp.Body).Decode(out)
}
