// Package venue defines the uniform capability set every trading venue
// exposes to the detection and dispatch pipeline, plus the shared hardened
// HTTP transport the per-venue clients are built on. The pipeline depends
// only on this interface, never on a venue SDK type.
package venue

import (
	"context"

	"github.com/okaybet/crossarb/internal/domain"
)

// Adapter is the per-venue client contract. Both variants authenticate
// differently (RSA header signing for Kalshi, wallet-signed order payloads
// for Polymarket) behind an identical external contract.
//
// GetMarket returns domain.ErrNotFound when the venue reports no such market
// and domain.ErrTransientNetwork on timeout or connection failure; transient
// failures are retryable by the caller with backoff, never retried inside
// the adapter. PlaceOrder validates the intent locally before any network
// call and must not resubmit an unacknowledged order without a fresh
// idempotency key.
type Adapter interface {
	Venue() domain.Venue
	GetMarket(ctx context.Context, marketID string) (domain.NormalizedMarket, error)
	PlaceOrder(ctx context.Context, intent domain.OrderIntent) (domain.OrderResult, error)
}
