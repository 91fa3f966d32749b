package domain

import (
	"context"
	"time"
)

// OpportunityStore journals detected opportunities and their dispatch
// outcomes for later audit. It is an audit log of detections, not a price
// history store.
type OpportunityStore interface {
	Create(ctx context.Context, opp Opportunity) error
	RecordDispatch(ctx context.Context, oppID string, status DispatchStatus, detail string) error
	ListRecent(ctx context.Context, limit int) ([]Opportunity, error)
}

// QuoteCache holds freshly normalized markets for a short TTL so repeated
// evaluations within one refresh window do not re-hit the venue.
type QuoteCache interface {
	Get(ctx context.Context, venue Venue, marketID string) (NormalizedMarket, bool, error)
	Set(ctx context.Context, m NormalizedMarket, ttl time.Duration) error
}

// Cooldown rate-limits repeated reporting of the same discrepancy. Active
// reports whether a key is currently on cooldown without arming it; TrySet
// returns true when the key was not on cooldown and is now armed for ttl.
// Arming happens only on an actual detection, so a quiet pair stays eligible
// for every cycle.
type Cooldown interface {
	Active(ctx context.Context, key string) (bool, error)
	TrySet(ctx context.Context, key string, ttl time.Duration) (bool, error)
}
