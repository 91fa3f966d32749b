package kalshi

import (
	"fmt"
	"time"

	"github.com/okaybet/crossarb/internal/domain"
)

// Market is a market as returned by the Kalshi REST API. Quote fields arrive
// in cents (1-99).
type Market struct {
	Ticker         string  `json:"ticker"`
	EventTicker    string  `json:"event_ticker"`
	Title          string  `json:"title"`
	Status         string  `json:"status"` // "open", "closed", "settled"
	YesBid         float64 `json:"yes_bid"`
	YesAsk         float64 `json:"yes_ask"`
	NoBid          float64 `json:"no_bid"`
	NoAsk          float64 `json:"no_ask"`
	LastPrice      float64 `json:"last_price"`
	Volume         int64   `json:"volume"`
	OpenInterest   int64   `json:"open_interest"`
	OpenTime       string  `json:"open_time"`
	CloseTime      string  `json:"close_time"`
	ExpirationTime string  `json:"expiration_time"`
	Result         string  `json:"result"` // "yes", "no", "" (unsettled)
}

// Normalize maps the raw market into the cross-venue shape. Kalshi asks are
// cents; the pipeline-wide convention is probability on [0,1], so cents are
// divided by 100 here at the adapter boundary and nowhere else.
func (m Market) Normalize() (domain.NormalizedMarket, error) {
	if m.Ticker == "" {
		return domain.NormalizedMarket{}, fmt.Errorf("kalshi: %w: market payload missing ticker", domain.ErrSchema)
	}

	out := domain.NormalizedMarket{
		Venue:    domain.VenueKalshi,
		MarketID: m.Ticker,
		Title:    m.Title,
		YesPrice: centsToProb(m.YesAsk),
		NoPrice:  centsToProb(m.NoAsk),
	}
	if m.ExpirationTime != "" {
		t, err := time.Parse(time.RFC3339, m.ExpirationTime)
		if err != nil {
			return domain.NormalizedMarket{}, fmt.Errorf("kalshi: %w: bad expiration_time %q: %v", domain.ErrSchema, m.ExpirationTime, err)
		}
		out.ResolutionTime = t
	}
	return out, nil
}

// centsToProb converts a Kalshi cent quote to a probability. Quotes are
// always cents, so a 1-cent ask is 0.01, never 1.0.
func centsToProb(v float64) float64 {
	if v <= 0 {
		return 0
	}
	return v / 100.0
}

// Order is the POST /portfolio/orders request body.
type Order struct {
	Ticker        string `json:"ticker"`
	Action        string `json:"action"` // "buy" or "sell"
	Side          string `json:"side"`   // "yes" or "no"
	Type          string `json:"type"`   // "market" or "limit"
	Count         int64  `json:"count"`
	ClientOrderID string `json:"client_order_id,omitempty"`
	YesPrice      *int64 `json:"yes_price,omitempty"` // limit price in cents (1-99)
	NoPrice       *int64 `json:"no_price,omitempty"`
}

// OrderResponse is the API response after placing an order.
type OrderResponse struct {
	Order struct {
		OrderID        string `json:"order_id"`
		Ticker         string `json:"ticker"`
		Status         string `json:"status"` // "resting", "canceled", "executed", "pending"
		Action         string `json:"action"`
		Side           string `json:"side"`
		Type           string `json:"type"`
		YesPrice       int64  `json:"yes_price"`
		NoPrice        int64  `json:"no_price"`
		PlacedTime     string `json:"placed_time"`
		RemainingCount int64  `json:"remaining_count"`
	} `json:"order"`
}

// Balance is the GET /portfolio/balance response. Values are cents.
type Balance struct {
	Balance int64 `json:"balance"`
	Payout  int64 `json:"payout"`
}

// ErrorResponse is a Kalshi API error body.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
