package domain

import (
	"fmt"
	"time"
)

// Side is the market outcome an order targets.
type Side string

const (
	SideYes Side = "yes"
	SideNo  Side = "no"
)

// Action indicates whether the order opens or closes exposure.
type Action string

const (
	ActionBuy  Action = "buy"
	ActionSell Action = "sell"
)

// OrderType indicates the pricing policy.
type OrderType string

const (
	OrderTypeMarket OrderType = "market"
	OrderTypeLimit  OrderType = "limit"
)

// OrderStatus tracks the venue-reported order state.
type OrderStatus string

const (
	OrderStatusResting  OrderStatus = "resting"
	OrderStatusExecuted OrderStatus = "executed"
	OrderStatusCanceled OrderStatus = "canceled"
	OrderStatusPending  OrderStatus = "pending"
	OrderStatusFailed   OrderStatus = "failed"
)

// OrderIntent is one authenticated order submission. It is created by the
// dispatcher, passed by value to the venue adapter, and never retained after
// submission. ClientOrderID is the idempotency key and must be unique per
// attempt; a submitted-but-unacknowledged order must never be resent under
// the same key.
type OrderIntent struct {
	Venue         Venue
	MarketID      string // Kalshi ticker or Polymarket condition ID
	TokenID       string // Polymarket outcome token ID
	Side          Side
	Action        Action
	Quantity      int64
	Type          OrderType
	Price         float64 // probability on (0,1), required iff Type == limit
	ClientOrderID string
}

// Validate checks the intent locally. Violations are ErrLocalValidation and
// must be rejected before any network call.
func (i OrderIntent) Validate() error {
	if i.Venue != VenueKalshi && i.Venue != VenuePolymarket {
		return fmt.Errorf("%w: unknown venue %q", ErrLocalValidation, i.Venue)
	}
	if i.MarketID == "" {
		return fmt.Errorf("%w: market id is required", ErrLocalValidation)
	}
	if i.Side != SideYes && i.Side != SideNo {
		return fmt.Errorf("%w: side must be yes or no, got %q", ErrLocalValidation, i.Side)
	}
	if i.Action != ActionBuy && i.Action != ActionSell {
		return fmt.Errorf("%w: action must be buy or sell, got %q", ErrLocalValidation, i.Action)
	}
	if i.Quantity <= 0 {
		return fmt.Errorf("%w: quantity must be positive, got %d", ErrLocalValidation, i.Quantity)
	}
	switch i.Type {
	case OrderTypeMarket:
	case OrderTypeLimit:
		if i.Price <= 0 || i.Price >= 1 {
			return fmt.Errorf("%w: limit order requires price in (0,1), got %v", ErrLocalValidation, i.Price)
		}
	default:
		return fmt.Errorf("%w: order type must be market or limit, got %q", ErrLocalValidation, i.Type)
	}
	if i.ClientOrderID == "" {
		return fmt.Errorf("%w: client order id is required", ErrLocalValidation)
	}
	return nil
}

// OrderResult wraps the venue response after order submission.
type OrderResult struct {
	Venue       Venue
	OrderID     string
	Status      OrderStatus
	Message     string
	SubmittedAt time.Time
}
