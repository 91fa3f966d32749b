// Package kalshi implements the Kalshi trade API v2 venue adapter. Requests
// are authenticated with RSA-PSS signatures over the timestamp, HTTP method,
// and full request path including the API base path prefix.
package kalshi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"time"

	"github.com/okaybet/crossarb/internal/crypto"
	"github.com/okaybet/crossarb/internal/domain"
	"github.com/okaybet/crossarb/internal/venue"
)

const (
	defaultAPIHost = "https://api.elections.kalshi.com"

	// basePath is part of the signed message. Signing the path without this
	// prefix produces a signature the API rejects with 401.
	basePath = "/trade-api/v2"
)

// Client is an authenticated Kalshi API client. It satisfies venue.Adapter.
type Client struct {
	apiHost   string
	signer    *crypto.RSASigner
	transport *venue.Transport
	logger    *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithAPIHost overrides the API host, e.g. for the demo environment.
func WithAPIHost(host string) Option {
	return func(c *Client) { c.apiHost = host }
}

// WithTransport overrides the HTTP transport.
func WithTransport(t *venue.Transport) Option {
	return func(c *Client) { c.transport = t }
}

// NewClient creates a Kalshi client signing with the given RSA key.
func NewClient(signer *crypto.RSASigner, logger *slog.Logger, opts ...Option) *Client {
	c := &Client{
		apiHost: defaultAPIHost,
		signer:  signer,
		logger:  logger.With(slog.String("component", "kalshi")),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.transport == nil {
		c.transport = venue.NewTransport(venue.TransportConfig{
			Name:           "kalshi",
			Timeout:        15 * time.Second,
			RequestsPerSec: 10,
			Burst:          10,
		})
	}
	return c
}

// Venue implements venue.Adapter.
func (c *Client) Venue() domain.Venue { return domain.VenueKalshi }

// GetMarket fetches a single market by ticker and normalizes it.
func (c *Client) GetMarket(ctx context.Context, marketID string) (domain.NormalizedMarket, error) {
	if marketID == "" {
		return domain.NormalizedMarket{}, fmt.Errorf("kalshi: %w: empty market ticker", domain.ErrLocalValidation)
	}

	var resp struct {
		Market Market `json:"market"`
	}
	if err := c.do(ctx, http.MethodGet, "/markets/"+marketID, nil, &resp); err != nil {
		return domain.NormalizedMarket{}, err
	}
	return resp.Market.Normalize()
}

// GetBalance returns the available account balance in dollars.
func (c *Client) GetBalance(ctx context.Context) (float64, error) {
	var bal Balance
	if err := c.do(ctx, http.MethodGet, "/portfolio/balance", nil, &bal); err != nil {
		return 0, err
	}
	return float64(bal.Balance) / 100.0, nil
}

// PlaceOrder submits an order. Limit prices arrive as probabilities and are
// converted to integer cents on the side the order is for.
func (c *Client) PlaceOrder(ctx context.Context, intent domain.OrderIntent) (domain.OrderResult, error) {
	if err := intent.Validate(); err != nil {
		return domain.OrderResult{}, err
	}
	if intent.Venue != domain.VenueKalshi {
		return domain.OrderResult{}, fmt.Errorf("kalshi: %w: intent is for venue %s", domain.ErrLocalValidation, intent.Venue)
	}

	body := Order{
		Ticker:        intent.MarketID,
		Action:        string(intent.Action),
		Side:          string(intent.Side),
		Type:          string(intent.Type),
		Count:         intent.Quantity,
		ClientOrderID: intent.ClientOrderID,
	}
	if intent.Type == domain.OrderTypeLimit {
		cents := int64(math.Round(intent.Price * 100))
		if cents < 1 || cents > 99 {
			return domain.OrderResult{}, fmt.Errorf("kalshi: %w: limit price %.4f outside 1-99 cents", domain.ErrLocalValidation, intent.Price)
		}
		switch intent.Side {
		case domain.SideYes:
			body.YesPrice = &cents
		case domain.SideNo:
			body.NoPrice = &cents
		}
	}

	var resp OrderResponse
	if err := c.do(ctx, http.MethodPost, "/portfolio/orders", body, &resp); err != nil {
		return domain.OrderResult{}, err
	}

	c.logger.Info("order placed",
		slog.String("ticker", resp.Order.Ticker),
		slog.String("order_id", resp.Order.OrderID),
		slog.String("status", resp.Order.Status))

	return domain.OrderResult{
		Venue:       domain.VenueKalshi,
		OrderID:     resp.Order.OrderID,
		Status:      mapOrderStatus(resp.Order.Status),
		SubmittedAt: time.Now().UTC(),
	}, nil
}

func mapOrderStatus(s string) domain.OrderStatus {
	switch s {
	case "executed":
		return domain.OrderStatusExecuted
	case "resting":
		return domain.OrderStatusResting
	case "canceled":
		return domain.OrderStatusCanceled
	case "pending":
		return domain.OrderStatusPending
	default:
		return domain.OrderStatus(s)
	}
}

// ---- Internal helpers ----

// do signs and executes a request against path (relative to the API base
// path) and decodes the JSON response into out.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	fullPath := basePath + path

	var reqBody io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("kalshi: marshal request: %w", err)
		}
		reqBody = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.apiHost+fullPath, reqBody)
	if err != nil {
		return fmt.Errorf("kalshi: build request: %w", err)
	}

	headers, err := c.signer.Headers(method, fullPath)
	if err != nil {
		return fmt.Errorf("kalshi: %w", err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.transport.Do(req)
	if err != nil {
		return fmt.Errorf("kalshi: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("kalshi: read response: %w: %v", domain.ErrTransientNetwork, err)
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		var apiErr ErrorResponse
		if json.Unmarshal(raw, &apiErr) == nil && apiErr.Message != "" {
			return venue.CheckStatus(domain.VenueKalshi, resp.StatusCode, []byte(apiErr.Message))
		}
		return venue.CheckStatus(domain.VenueKalshi, resp.StatusCode, raw)
	}

	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("kalshi: %w: decode response: %v", domain.ErrSchema, err)
		}
	}
	return nil
}
