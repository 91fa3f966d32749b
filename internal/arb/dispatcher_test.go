package arb

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/okaybet/crossarb/internal/domain"
	"github.com/okaybet/crossarb/internal/venue"
)

// fakeAdapter records placed orders and fails on demand.
type fakeAdapter struct {
	venue   domain.Venue
	failErr error
	placed  []domain.OrderIntent
}

func (f *fakeAdapter) Venue() domain.Venue { return f.venue }

func (f *fakeAdapter) GetMarket(ctx context.Context, marketID string) (domain.NormalizedMarket, error) {
	return domain.NormalizedMarket{}, domain.ErrNotFound
}

func (f *fakeAdapter) PlaceOrder(ctx context.Context, intent domain.OrderIntent) (domain.OrderResult, error) {
	if f.failErr != nil {
		return domain.OrderResult{}, f.failErr
	}
	f.placed = append(f.placed, intent)
	return domain.OrderResult{
		Venue:   f.venue,
		OrderID: fmt.Sprintf("%s-order-%d", f.venue, len(f.placed)),
		Status:  domain.OrderStatusExecuted,
	}, nil
}

func testOpportunity() domain.Opportunity {
	return domain.Opportunity{
		ID:         "opp-1",
		GroupTitle: "Test event",
		YesLeg: domain.OpportunityLeg{
			Venue:    domain.VenueKalshi,
			MarketID: "TICKER",
			Side:     domain.SideYes,
			Price:    0.40,
		},
		NoLeg: domain.OpportunityLeg{
			Venue:    domain.VenuePolymarket,
			MarketID: "0xcond",
			TokenID:  "no-token",
			Side:     domain.SideNo,
			Price:    0.50,
		},
		BundleCost: 0.90,
		Profit:     0.10,
	}
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestDispatchBothLegs(t *testing.T) {
	kalshi := &fakeAdapter{venue: domain.VenueKalshi}
	poly := &fakeAdapter{venue: domain.VenuePolymarket}
	d, err := NewDispatcher([]venue.Adapter{kalshi, poly}, 10, testLogger())
	require.NoError(t, err)

	results, err := d.Dispatch(context.Background(), testOpportunity())
	require.NoError(t, err)
	require.Len(t, results, 2)

	// Yes leg goes out first, at the quoted prices, as limit buys.
	require.Len(t, kalshi.placed, 1)
	assert.Equal(t, domain.SideYes, kalshi.placed[0].Side)
	assert.Equal(t, domain.ActionBuy, kalshi.placed[0].Action)
	assert.Equal(t, domain.OrderTypeLimit, kalshi.placed[0].Type)
	assert.InDelta(t, 0.40, kalshi.placed[0].Price, 1e-9)
	assert.Equal(t, int64(10), kalshi.placed[0].Quantity)

	require.Len(t, poly.placed, 1)
	assert.Equal(t, domain.SideNo, poly.placed[0].Side)
	assert.Equal(t, "no-token", poly.placed[0].TokenID)
	assert.InDelta(t, 0.50, poly.placed[0].Price, 1e-9)
}

func TestDispatchFreshIdempotencyKeyPerLeg(t *testing.T) {
	kalshi := &fakeAdapter{venue: domain.VenueKalshi}
	poly := &fakeAdapter{venue: domain.VenuePolymarket}
	d, err := NewDispatcher([]venue.Adapter{kalshi, poly}, 10, testLogger())
	require.NoError(t, err)

	_, err = d.Dispatch(context.Background(), testOpportunity())
	require.NoError(t, err)
	_, err = d.Dispatch(context.Background(), testOpportunity())
	require.NoError(t, err)

	seen := map[string]bool{}
	for _, intent := range append(kalshi.placed, poly.placed...) {
		require.NotEmpty(t, intent.ClientOrderID)
		assert.False(t, seen[intent.ClientOrderID], "idempotency key reused: %s", intent.ClientOrderID)
		seen[intent.ClientOrderID] = true
	}
}

func TestDispatchSecondLegFailureIsPartial(t *testing.T) {
	kalshi := &fakeAdapter{venue: domain.VenueKalshi}
	poly := &fakeAdapter{venue: domain.VenuePolymarket, failErr: domain.ErrTransientNetwork}
	d, err := NewDispatcher([]venue.Adapter{kalshi, poly}, 10, testLogger())
	require.NoError(t, err)

	results, err := d.Dispatch(context.Background(), testOpportunity())
	require.Error(t, err)

	var partial *domain.PartialExecutionError
	require.ErrorAs(t, err, &partial)
	assert.Equal(t, "opp-1", partial.OpportunityID)
	require.Len(t, partial.Filled, 1)
	assert.Equal(t, domain.VenueKalshi, partial.Filled[0].Venue)
	assert.Equal(t, domain.VenuePolymarket, partial.FailedLeg.Venue)
	assert.ErrorIs(t, partial, domain.ErrTransientNetwork)

	// The filled leg is reported back so the caller can unwind it.
	require.Len(t, results, 1)
	assert.Equal(t, domain.VenueKalshi, results[0].Venue)

	// No automatic retry of the failed leg.
	assert.Empty(t, poly.placed)
	assert.Len(t, kalshi.placed, 1)
}

func TestDispatchFirstLegFailureIsNotPartial(t *testing.T) {
	kalshi := &fakeAdapter{venue: domain.VenueKalshi, failErr: errors.New("exchange down")}
	poly := &fakeAdapter{venue: domain.VenuePolymarket}
	d, err := NewDispatcher([]venue.Adapter{kalshi, poly}, 10, testLogger())
	require.NoError(t, err)

	results, err := d.Dispatch(context.Background(), testOpportunity())
	require.Error(t, err)
	assert.Empty(t, results)

	var partial *domain.PartialExecutionError
	assert.False(t, errors.As(err, &partial), "no fills means no partial execution")

	// The second leg never goes out after the first fails.
	assert.Empty(t, poly.placed)
}

func TestDispatchMissingAdapter(t *testing.T) {
	kalshi := &fakeAdapter{venue: domain.VenueKalshi}
	d, err := NewDispatcher([]venue.Adapter{kalshi}, 10, testLogger())
	require.NoError(t, err)

	_, err = d.Dispatch(context.Background(), testOpportunity())
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrLocalValidation)
	assert.Empty(t, kalshi.placed, "no leg may be placed when a venue has no adapter")
}

func TestNewDispatcherRejectsBadInput(t *testing.T) {
	_, err := NewDispatcher([]venue.Adapter{&fakeAdapter{venue: domain.VenueKalshi}}, 0, testLogger())
	assert.Error(t, err)

	_, err = NewDispatcher([]venue.Adapter{
		&fakeAdapter{venue: domain.VenueKalshi},
		&fakeAdapter{venue: domain.VenueKalshi},
	}, 10, testLogger())
	assert.Error(t, err)
}
