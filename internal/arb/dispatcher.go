package arb

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/okaybet/crossarb/internal/domain"
	"github.com/okaybet/crossarb/internal/venue"
)

// Dispatcher turns detected opportunities into orders on both venues. Legs
// are submitted sequentially, Yes first, and a failed leg aborts the rest so
// the caller sees exactly which side is exposed.
type Dispatcher struct {
	adapters map[domain.Venue]venue.Adapter
	quantity int64
	logger   *slog.Logger
}

// NewDispatcher creates a dispatcher trading quantity contracts per leg.
func NewDispatcher(adapters []venue.Adapter, quantity int64, logger *slog.Logger) (*Dispatcher, error) {
	if quantity <= 0 {
		return nil, fmt.Errorf("arb: dispatch quantity must be positive, got %d", quantity)
	}

	byVenue := make(map[domain.Venue]venue.Adapter, len(adapters))
	for _, a := range adapters {
		if _, dup := byVenue[a.Venue()]; dup {
			return nil, fmt.Errorf("arb: duplicate adapter for venue %s", a.Venue())
		}
		byVenue[a.Venue()] = a
	}

	return &Dispatcher{
		adapters: byVenue,
		quantity: quantity,
		logger:   logger.With(slog.String("component", "dispatcher")),
	}, nil
}

// Dispatch places both legs of the opportunity as limit buys at the quoted
// prices. Each leg carries a fresh idempotency key. On a leg failure it
// returns a PartialExecutionError naming the filled legs; it never retries a
// leg on its own, since a blind resubmit after an ambiguous failure could
// double-fill.
func (d *Dispatcher) Dispatch(ctx context.Context, opp domain.Opportunity) ([]domain.OrderResult, error) {
	legs := opp.Legs()
	intents := make([]domain.OrderIntent, 0, len(legs))
	for _, leg := range legs {
		if _, ok := d.adapters[leg.Venue]; !ok {
			return nil, fmt.Errorf("arb: %w: no adapter for venue %s", domain.ErrLocalValidation, leg.Venue)
		}
		intents = append(intents, domain.OrderIntent{
			Venue:         leg.Venue,
			MarketID:      leg.MarketID,
			TokenID:       leg.TokenID,
			Side:          leg.Side,
			Action:        domain.ActionBuy,
			Quantity:      d.quantity,
			Type:          domain.OrderTypeLimit,
			Price:         leg.Price,
			ClientOrderID: uuid.NewString(),
		})
	}

	// Validate every leg before any order leaves the process. One bad leg
	// must not strand the other side filled.
	for _, intent := range intents {
		if err := intent.Validate(); err != nil {
			return nil, err
		}
	}

	results := make([]domain.OrderResult, 0, len(intents))
	for i, intent := range intents {
		res, err := d.adapters[intent.Venue].PlaceOrder(ctx, intent)
		if err != nil {
			if len(results) == 0 {
				return nil, fmt.Errorf("arb: first leg (%s %s) failed: %w", intent.Venue, intent.Side, err)
			}
			return results, &domain.PartialExecutionError{
				OpportunityID: opp.ID,
				Filled:        results,
				FailedLeg:     intent,
				Cause:         err,
			}
		}

		d.logger.Info("leg placed",
			slog.String("opportunity_id", opp.ID),
			slog.Int("leg", i+1),
			slog.String("venue", string(intent.Venue)),
			slog.String("side", string(intent.Side)),
			slog.Float64("price", intent.Price),
			slog.String("order_id", res.OrderID))
		results = append(results, res)
	}
	return results, nil
}
