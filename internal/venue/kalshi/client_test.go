package kalshi

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/okaybet/crossarb/internal/crypto"
	"github.com/okaybet/crossarb/internal/domain"
	"github.com/okaybet/crossarb/internal/venue"
)

func testClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	signer := crypto.NewRSASignerFromKey("test-key-id", key)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	c := NewClient(signer, logger,
		WithAPIHost(srv.URL),
		WithTransport(venue.NewTransport(venue.TransportConfig{
			Name:           "kalshi-test",
			Timeout:        5 * time.Second,
			RequestsPerSec: 1000,
			Burst:          1000,
		})))
	return c, srv
}

func TestGetMarketNormalizesCents(t *testing.T) {
	c, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/trade-api/v2/markets/PREZ-2028", r.URL.Path)
		assert.Equal(t, "test-key-id", r.Header.Get("KALSHI-ACCESS-KEY"))
		assert.NotEmpty(t, r.Header.Get("KALSHI-ACCESS-SIGNATURE"))
		assert.NotEmpty(t, r.Header.Get("KALSHI-ACCESS-TIMESTAMP"))

		json.NewEncoder(w).Encode(map[string]any{
			"market": map[string]any{
				"ticker":          "PREZ-2028",
				"title":           "Presidential winner 2028",
				"status":          "open",
				"yes_ask":         42,
				"no_ask":          61,
				"expiration_time": "2028-11-08T00:00:00Z",
			},
		})
	})

	m, err := c.GetMarket(context.Background(), "PREZ-2028")
	require.NoError(t, err)
	assert.Equal(t, domain.VenueKalshi, m.Venue)
	assert.Equal(t, "PREZ-2028", m.MarketID)
	assert.InDelta(t, 0.42, m.YesPrice, 1e-9)
	assert.InDelta(t, 0.61, m.NoPrice, 1e-9)
	assert.True(t, m.Priced())
	assert.Equal(t, 2028, m.ResolutionTime.Year())
}

func TestGetMarketNotFound(t *testing.T) {
	c, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]any{"code": "not_found", "message": "market not found"})
	})

	_, err := c.GetMarket(context.Background(), "NOPE")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestGetMarketAuthFailure(t *testing.T) {
	c, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]any{"code": "unauthorized", "message": "invalid signature"})
	})

	_, err := c.GetMarket(context.Background(), "X")
	assert.ErrorIs(t, err, domain.ErrAuthFailure)
}

func TestPlaceOrderRejectsPricelessLimitLocally(t *testing.T) {
	var calls atomic.Int64
	c, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusOK)
	})

	_, err := c.PlaceOrder(context.Background(), domain.OrderIntent{
		Venue:         domain.VenueKalshi,
		MarketID:      "PREZ-2028",
		Side:          domain.SideYes,
		Action:        domain.ActionBuy,
		Quantity:      10,
		Type:          domain.OrderTypeLimit,
		Price:         0, // missing limit price
		ClientOrderID: "11111111-1111-1111-1111-111111111111",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrLocalValidation)
	assert.Equal(t, int64(0), calls.Load(), "invalid order must not reach the wire")
}

func TestPlaceOrderSendsCents(t *testing.T) {
	c, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/trade-api/v2/portfolio/orders", r.URL.Path)

		var body Order
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "PREZ-2028", body.Ticker)
		assert.Equal(t, "buy", body.Action)
		assert.Equal(t, "yes", body.Side)
		assert.Equal(t, int64(10), body.Count)
		require.NotNil(t, body.YesPrice)
		assert.Equal(t, int64(42), *body.YesPrice)
		assert.Nil(t, body.NoPrice)

		json.NewEncoder(w).Encode(map[string]any{
			"order": map[string]any{
				"order_id": "ord-1",
				"ticker":   "PREZ-2028",
				"status":   "executed",
			},
		})
	})

	res, err := c.PlaceOrder(context.Background(), domain.OrderIntent{
		Venue:         domain.VenueKalshi,
		MarketID:      "PREZ-2028",
		Side:          domain.SideYes,
		Action:        domain.ActionBuy,
		Quantity:      10,
		Type:          domain.OrderTypeLimit,
		Price:         0.42,
		ClientOrderID: "11111111-1111-1111-1111-111111111111",
	})
	require.NoError(t, err)
	assert.Equal(t, "ord-1", res.OrderID)
	assert.Equal(t, domain.OrderStatusExecuted, res.Status)
}

func TestGetBalance(t *testing.T) {
	c, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/trade-api/v2/portfolio/balance", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]any{"balance": 12345})
	})

	bal, err := c.GetBalance(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, 123.45, bal, 1e-9)
}
