// Package arb contains the cross-venue arbitrage detector and the order
// dispatcher that acts on its findings.
package arb

import (
	"time"

	"github.com/google/uuid"

	"github.com/okaybet/crossarb/internal/domain"
)

// defaultMinProfit is the profit margin below which an opportunity is not
// worth the execution and settlement risk.
const defaultMinProfit = 0.01

// Detector finds guaranteed-profit bundles across two quotes of the same
// underlying event.
type Detector struct {
	minProfit float64
}

// NewDetector creates a detector. Non-positive thresholds fall back to the
// default margin.
func NewDetector(minProfit float64) *Detector {
	if minProfit <= 0 {
		minProfit = defaultMinProfit
	}
	return &Detector{minProfit: minProfit}
}

// MinProfit returns the configured profit threshold.
func (d *Detector) MinProfit() float64 { return d.minProfit }

// Detect compares two quotes of one event and reports whether buying the
// cheapest Yes and the cheapest No together costs less than the guaranteed
// one-dollar payout. Quotes missing either price never produce an
// opportunity. When both venues quote the same price for a side, the first
// argument's venue is selected.
func (d *Detector) Detect(a, b domain.NormalizedMarket) (domain.Opportunity, bool) {
	if !a.Priced() || !b.Priced() {
		return domain.Opportunity{}, false
	}

	yes := cheaperLeg(a, b, domain.SideYes)
	no := cheaperLeg(a, b, domain.SideNo)

	bundle := yes.Price + no.Price
	profit := 1.0 - bundle
	if profit <= d.minProfit {
		return domain.Opportunity{}, false
	}

	title := a.Title
	if title == "" {
		title = b.Title
	}
	return domain.Opportunity{
		ID:         uuid.NewString(),
		GroupTitle: title,
		YesLeg:     yes,
		NoLeg:      no,
		BundleCost: bundle,
		Profit:     profit,
		DetectedAt: time.Now().UTC(),
	}, true
}

// cheaperLeg picks the venue quoting the lower price for side. Ties go to a.
func cheaperLeg(a, b domain.NormalizedMarket, side domain.Side) domain.OpportunityLeg {
	priceOf := func(m domain.NormalizedMarket) (float64, string) {
		if side == domain.SideYes {
			return m.YesPrice, m.YesTokenID
		}
		return m.NoPrice, m.NoTokenID
	}

	pa, ta := priceOf(a)
	pb, tb := priceOf(b)
	if pb < pa {
		return domain.OpportunityLeg{
			Venue:    b.Venue,
			MarketID: b.MarketID,
			TokenID:  tb,
			Side:     side,
			Price:    pb,
		}
	}
	return domain.OpportunityLeg{
		Venue:    a.Venue,
		MarketID: a.MarketID,
		TokenID:  ta,
		Side:     side,
		Price:    pa,
	}
}
