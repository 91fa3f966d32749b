package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/okaybet/crossarb/internal/domain"
)

// QuoteCache implements domain.QuoteCache with JSON-serialized quotes.
//
// Key schema:
//
//	quote:{venue}:{market_id} - JSON NormalizedMarket
type QuoteCache struct {
	rdb *redis.Client
}

// NewQuoteCache creates a QuoteCache backed by the given Client.
func NewQuoteCache(c *Client) *QuoteCache {
	return &QuoteCache{rdb: c.Underlying()}
}

func quoteKey(venue domain.Venue, marketID string) string {
	return fmt.Sprintf("quote:%s:%s", venue, marketID)
}

// Get retrieves a cached quote. A missing key is not an error; the second
// return reports whether the quote was present.
func (qc *QuoteCache) Get(ctx context.Context, venue domain.Venue, marketID string) (domain.NormalizedMarket, bool, error) {
	data, err := qc.rdb.Get(ctx, quoteKey(venue, marketID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.NormalizedMarket{}, false, nil
		}
		return domain.NormalizedMarket{}, false, fmt.Errorf("redis: get quote %s/%s: %w", venue, marketID, err)
	}

	var m domain.NormalizedMarket
	if err := json.Unmarshal(data, &m); err != nil {
		return domain.NormalizedMarket{}, false, fmt.Errorf("redis: unmarshal quote %s/%s: %w", venue, marketID, err)
	}
	return m, true, nil
}

// Set stores a quote with the given TTL.
func (qc *QuoteCache) Set(ctx context.Context, m domain.NormalizedMarket, ttl time.Duration) error {
	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("redis: marshal quote %s/%s: %w", m.Venue, m.MarketID, err)
	}
	if err := qc.rdb.Set(ctx, quoteKey(m.Venue, m.MarketID), data, ttl).Err(); err != nil {
		return fmt.Errorf("redis: set quote %s/%s: %w", m.Venue, m.MarketID, err)
	}
	return nil
}

// Compile-time interface check.
var _ domain.QuoteCache = (*QuoteCache)(nil)
