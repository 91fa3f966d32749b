package arb

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/okaybet/crossarb/internal/domain"
)

func kalshiQuote(yes, no float64) domain.NormalizedMarket {
	return domain.NormalizedMarket{
		Venue:    domain.VenueKalshi,
		MarketID: "TICKER",
		Title:    "Test event",
		YesPrice: yes,
		NoPrice:  no,
	}
}

func polyQuote(yes, no float64) domain.NormalizedMarket {
	return domain.NormalizedMarket{
		Venue:      domain.VenuePolymarket,
		MarketID:   "0xcond",
		Title:      "Test event",
		YesPrice:   yes,
		NoPrice:    no,
		YesTokenID: "yes-token",
		NoTokenID:  "no-token",
	}
}

func TestDetectCrossVenueBundle(t *testing.T) {
	d := NewDetector(0.01)

	opp, ok := d.Detect(kalshiQuote(0.40, 0.55), polyQuote(0.45, 0.50))
	require.True(t, ok)

	assert.Equal(t, domain.VenueKalshi, opp.YesLeg.Venue)
	assert.InDelta(t, 0.40, opp.YesLeg.Price, 1e-9)
	assert.Equal(t, domain.VenuePolymarket, opp.NoLeg.Venue)
	assert.InDelta(t, 0.50, opp.NoLeg.Price, 1e-9)
	assert.Equal(t, "no-token", opp.NoLeg.TokenID)

	assert.InDelta(t, 0.90, opp.BundleCost, 1e-9)
	assert.InDelta(t, 0.10, opp.Profit, 1e-9)
	assert.NotEmpty(t, opp.ID)
	assert.False(t, opp.DetectedAt.IsZero())
}

func TestDetectNoOpportunityWhenBundleAboveDollar(t *testing.T) {
	d := NewDetector(0.01)

	// Cheapest bundle is 0.52 + 0.50 = 1.02.
	_, ok := d.Detect(kalshiQuote(0.52, 0.50), polyQuote(0.55, 0.52))
	assert.False(t, ok)
}

func TestDetectRespectsThreshold(t *testing.T) {
	d := NewDetector(0.05)

	// Profit 0.04 is positive but below the 5% margin.
	_, ok := d.Detect(kalshiQuote(0.48, 0.50), polyQuote(0.48, 0.48))
	assert.False(t, ok)

	opp, ok := d.Detect(kalshiQuote(0.44, 0.50), polyQuote(0.48, 0.48))
	require.True(t, ok)
	assert.InDelta(t, 0.08, opp.Profit, 1e-9)
}

func TestDetectMissingPricesShortCircuit(t *testing.T) {
	d := NewDetector(0.01)

	cases := []struct {
		name string
		a, b domain.NormalizedMarket
	}{
		{"zero yes on a", kalshiQuote(0, 0.30), polyQuote(0.30, 0.30)},
		{"zero no on b", kalshiQuote(0.30, 0.30), polyQuote(0.30, 0)},
		{"both unpriced", kalshiQuote(0, 0), polyQuote(0, 0)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, ok := d.Detect(tc.a, tc.b)
			assert.False(t, ok)
		})
	}
}

func TestDetectTieBreakPrefersFirstArgument(t *testing.T) {
	d := NewDetector(0.01)

	opp, ok := d.Detect(kalshiQuote(0.40, 0.40), polyQuote(0.40, 0.40))
	require.True(t, ok)
	assert.Equal(t, domain.VenueKalshi, opp.YesLeg.Venue)
	assert.Equal(t, domain.VenueKalshi, opp.NoLeg.Venue)
}

func TestDetectSameVenueBothLegs(t *testing.T) {
	d := NewDetector(0.01)

	// One venue can quote both cheapest legs; the bundle is still valid.
	opp, ok := d.Detect(kalshiQuote(0.30, 0.40), polyQuote(0.50, 0.60))
	require.True(t, ok)
	assert.Equal(t, domain.VenueKalshi, opp.YesLeg.Venue)
	assert.Equal(t, domain.VenueKalshi, opp.NoLeg.Venue)
	assert.InDelta(t, 0.30, opp.Profit, 1e-9)
}

func TestNewDetectorClampsThreshold(t *testing.T) {
	assert.InDelta(t, defaultMinProfit, NewDetector(0).MinProfit(), 1e-9)
	assert.InDelta(t, defaultMinProfit, NewDetector(-1).MinProfit(), 1e-9)
	assert.InDelta(t, 0.02, NewDetector(0.02).MinProfit(), 1e-9)
}

func TestLegsOrderYesFirst(t *testing.T) {
	d := NewDetector(0.01)
	opp, ok := d.Detect(kalshiQuote(0.40, 0.55), polyQuote(0.45, 0.50))
	require.True(t, ok)

	legs := opp.Legs()
	assert.Equal(t, domain.SideYes, legs[0].Side)
	assert.Equal(t, domain.SideNo, legs[1].Side)
}
