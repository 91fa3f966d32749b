package domain

import "time"

// OpportunityLeg is one side of a risk-free bundle: the venue quoting the
// cheapest price for that outcome.
type OpportunityLeg struct {
	Venue    Venue
	MarketID string
	TokenID  string // Polymarket only
	Side     Side
	Price    float64
}

// Opportunity is a detected cross-venue arbitrage: buying the cheapest Yes
// and the cheapest No costs less than the guaranteed payout of 1 at
// resolution. Profit is always 1 - BundleCost and strictly positive net of
// the configured margin; opportunities are never materialized otherwise.
type Opportunity struct {
	ID         string
	GroupTitle string
	YesLeg     OpportunityLeg
	NoLeg      OpportunityLeg
	BundleCost float64
	Profit     float64
	DetectedAt time.Time
}

// Legs returns the two legs in execution order: cheapest Yes first.
func (o Opportunity) Legs() [2]OpportunityLeg {
	return [2]OpportunityLeg{o.YesLeg, o.NoLeg}
}

// DispatchStatus records the outcome of executing an opportunity.
type DispatchStatus string

const (
	DispatchSkipped  DispatchStatus = "skipped"  // detect-only mode
	DispatchFilled   DispatchStatus = "filled"   // both legs accepted
	DispatchPartial  DispatchStatus = "partial"  // one leg filled, one failed
	DispatchRejected DispatchStatus = "rejected" // first leg already failed
)
