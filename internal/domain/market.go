package domain

import "time"

// Venue identifies a trading platform.
type Venue string

const (
	VenueKalshi     Venue = "KALSHI"
	VenuePolymarket Venue = "POLYMARKET"
)

// NormalizedMarket is the common shape both venue payloads are mapped into at
// the adapter boundary. Prices are probabilities on [0,1]; both venues must be
// normalized to the same unit before any cross-venue comparison. Instances
// are constructed fresh per query, never mutated, and discarded after one
// detection cycle.
type NormalizedMarket struct {
	Venue          Venue
	MarketID       string // Kalshi ticker or Polymarket condition ID
	Title          string
	YesPrice       float64
	NoPrice        float64
	YesTokenID     string // Polymarket outcome token, empty for Kalshi
	NoTokenID      string
	ResolutionTime time.Time
}

// Priced reports whether both sides carry a usable quote. A market with a
// missing or out-of-range price must never be treated as pricing at zero.
func (m NormalizedMarket) Priced() bool {
	return m.YesPrice > 0 && m.YesPrice <= 1 && m.NoPrice > 0 && m.NoPrice <= 1
}
