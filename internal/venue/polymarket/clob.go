// Package polymarket implements the Polymarket CLOB venue adapter. Session
// setup derives an HMAC API credential from an EIP-712 wallet signature (L1
// auth); every subsequent request is HMAC-signed with that credential (L2
// auth). Orders themselves carry a second EIP-712 signature against the CTF
// Exchange contract.
package polymarket

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/okaybet/crossarb/internal/crypto"
	"github.com/okaybet/crossarb/internal/domain"
	"github.com/okaybet/crossarb/internal/venue"
)

const defaultBaseURL = "https://clob.polymarket.com"

// ClobClient is an authenticated CLOB REST client. It satisfies venue.Adapter.
type ClobClient struct {
	baseURL   string
	signer    *crypto.WalletSigner
	builder   *OrderBuilder
	transport *venue.Transport
	logger    *slog.Logger

	mu   sync.RWMutex
	cred *crypto.APICredential
}

// Option configures a ClobClient.
type Option func(*ClobClient)

// WithBaseURL overrides the CLOB API root.
func WithBaseURL(u string) Option {
	return func(c *ClobClient) { c.baseURL = u }
}

// WithTransport overrides the HTTP transport.
func WithTransport(t *venue.Transport) Option {
	return func(c *ClobClient) { c.transport = t }
}

// WithCredential seeds an existing API credential, skipping DeriveAPIKey.
func WithCredential(cred crypto.APICredential) Option {
	return func(c *ClobClient) { c.cred = &cred }
}

// NewClobClient creates a CLOB client signing with the given wallet.
func NewClobClient(signer *crypto.WalletSigner, logger *slog.Logger, opts ...Option) *ClobClient {
	c := &ClobClient{
		baseURL: defaultBaseURL,
		signer:  signer,
		builder: NewOrderBuilder(signer),
		logger:  logger.With(slog.String("component", "polymarket")),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.transport == nil {
		c.transport = venue.NewTransport(venue.TransportConfig{
			Name:           "polymarket",
			Timeout:        15 * time.Second,
			RequestsPerSec: 10,
			Burst:          10,
		})
	}
	return c
}

// Venue implements venue.Adapter.
func (c *ClobClient) Venue() domain.Venue { return domain.VenuePolymarket }

// DeriveAPIKey performs the L1 auth flow, signing a ClobAuth message and
// exchanging it for an HMAC credential used on all later requests.
func (c *ClobClient) DeriveAPIKey(ctx context.Context) error {
	address := c.signer.Address().Hex()
	timestamp := time.Now().Unix()
	nonce := int64(0)

	sig, err := c.signer.SignAuthMessage(timestamp, nonce)
	if err != nil {
		return fmt.Errorf("polymarket: sign auth message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/auth/derive-api-key", nil)
	if err != nil {
		return fmt.Errorf("polymarket: build auth request: %w", err)
	}
	req.Header.Set("POLY_ADDRESS", address)
	req.Header.Set("POLY_SIGNATURE", sig)
	req.Header.Set("POLY_TIMESTAMP", strconv.FormatInt(timestamp, 10))
	req.Header.Set("POLY_NONCE", strconv.FormatInt(nonce, 10))

	resp, err := c.transport.Do(req)
	if err != nil {
		return fmt.Errorf("polymarket: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("polymarket: read auth response: %w: %v", domain.ErrTransientNetwork, err)
	}
	if resp.StatusCode != http.StatusOK {
		return venue.CheckStatus(domain.VenuePolymarket, resp.StatusCode, raw)
	}

	var keyResp APIKeyResponse
	if err := json.Unmarshal(raw, &keyResp); err != nil {
		return fmt.Errorf("polymarket: %w: decode auth response: %v", domain.ErrSchema, err)
	}
	if keyResp.APIKey == "" || keyResp.Secret == "" {
		return fmt.Errorf("polymarket: %w: auth response missing credential fields", domain.ErrSchema)
	}

	c.mu.Lock()
	c.cred = &crypto.APICredential{
		Key:        keyResp.APIKey,
		Secret:     keyResp.Secret,
		Passphrase: keyResp.Passphrase,
	}
	c.mu.Unlock()

	c.logger.Info("api credential derived", slog.String("address", address))
	return nil
}

// GetMarket fetches a market by condition ID and normalizes it.
func (c *ClobClient) GetMarket(ctx context.Context, marketID string) (domain.NormalizedMarket, error) {
	if marketID == "" {
		return domain.NormalizedMarket{}, fmt.Errorf("polymarket: %w: empty condition ID", domain.ErrLocalValidation)
	}

	raw, err := c.do(ctx, http.MethodGet, "/markets/"+marketID, nil)
	if err != nil {
		return domain.NormalizedMarket{}, err
	}

	var m Market
	if err := json.Unmarshal(raw, &m); err != nil {
		return domain.NormalizedMarket{}, fmt.Errorf("polymarket: %w: decode market: %v", domain.ErrSchema, err)
	}
	return m.Normalize()
}

// GetBalance returns the available USDC collateral balance in dollars.
func (c *ClobClient) GetBalance(ctx context.Context) (float64, error) {
	raw, err := c.do(ctx, http.MethodGet, "/balance-allowance?asset_type=COLLATERAL", nil)
	if err != nil {
		return 0, err
	}

	var bal BalanceResponse
	if err := json.Unmarshal(raw, &bal); err != nil {
		return 0, fmt.Errorf("polymarket: %w: decode balance: %v", domain.ErrSchema, err)
	}
	return bal.Dollars()
}

// PlaceOrder builds, signs, and submits an order for the token named by the
// intent. Market intents become fill-or-kill; limit intents rest as GTC.
func (c *ClobClient) PlaceOrder(ctx context.Context, intent domain.OrderIntent) (domain.OrderResult, error) {
	if err := intent.Validate(); err != nil {
		return domain.OrderResult{}, err
	}
	if intent.Venue != domain.VenuePolymarket {
		return domain.OrderResult{}, fmt.Errorf("polymarket: %w: intent is for venue %s", domain.ErrLocalValidation, intent.Venue)
	}
	if intent.TokenID == "" {
		return domain.OrderResult{}, fmt.Errorf("polymarket: %w: intent missing outcome token ID", domain.ErrLocalValidation)
	}

	signed, err := c.builder.Build(intent.TokenID, intent.Action, intent.Price, intent.Quantity)
	if err != nil {
		return domain.OrderResult{}, err
	}

	orderType := "GTC"
	if intent.Type == domain.OrderTypeMarket {
		orderType = "FOK"
	}
	body := map[string]any{
		"order":     signed,
		"owner":     c.signer.Address().Hex(),
		"orderType": orderType,
	}

	raw, err := c.do(ctx, http.MethodPost, "/order", body)
	if err != nil {
		return domain.OrderResult{}, err
	}

	var resp OrderResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return domain.OrderResult{}, fmt.Errorf("polymarket: %w: decode order response: %v", domain.ErrSchema, err)
	}
	if !resp.Success {
		return domain.OrderResult{
			Venue:   domain.VenuePolymarket,
			OrderID: resp.OrderID,
			Status:  domain.OrderStatusFailed,
			Message: resp.ErrorMsg,
		}, fmt.Errorf("polymarket: order rejected: %s", resp.ErrorMsg)
	}

	c.logger.Info("order placed",
		slog.String("token_id", intent.TokenID),
		slog.String("order_id", resp.OrderID),
		slog.String("status", resp.Status))

	return domain.OrderResult{
		Venue:       domain.VenuePolymarket,
		OrderID:     resp.OrderID,
		Status:      mapOrderStatus(resp.Status),
		Message:     resp.ErrorMsg,
		SubmittedAt: time.Now().UTC(),
	}, nil
}

func mapOrderStatus(s string) domain.OrderStatus {
	switch s {
	case "matched":
		return domain.OrderStatusExecuted
	case "live", "delayed":
		return domain.OrderStatusResting
	case "unmatched":
		return domain.OrderStatusCanceled
	default:
		return domain.OrderStatus(s)
	}
}

// ---- Internal helpers ----

// do executes an HMAC-authenticated request and returns the raw body of a
// successful response.
func (c *ClobClient) do(ctx context.Context, method, path string, body any) ([]byte, error) {
	var bodyReader io.Reader
	var bodyStr string
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("polymarket: marshal request: %w", err)
		}
		bodyStr = string(raw)
		bodyReader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("polymarket: build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.mu.RLock()
	cred := c.cred
	c.mu.RUnlock()
	if cred != nil {
		for k, v := range cred.L2Headers(c.signer.Address().Hex(), method, path, bodyStr) {
			req.Header.Set(k, v)
		}
	}

	resp, err := c.transport.Do(req)
	if err != nil {
		return nil, fmt.Errorf("polymarket: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("polymarket: read response: %w: %v", domain.ErrTransientNetwork, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, venue.CheckStatus(domain.VenuePolymarket, resp.StatusCode, raw)
	}
	return raw, nil
}
