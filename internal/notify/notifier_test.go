package notify

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/okaybet/crossarb/internal/domain"
)

type fakeSender struct {
	name   string
	err    error
	titles []string
}

func (f *fakeSender) Send(ctx context.Context, title, message string) error {
	if f.err != nil {
		return f.err
	}
	f.titles = append(f.titles, title)
	return nil
}

func (f *fakeSender) Name() string { return f.name }

func TestNotifyReachesEverySenderDespiteFailure(t *testing.T) {
	broken := &fakeSender{name: "broken", err: errors.New("webhook down")}
	healthy := &fakeSender{name: "healthy"}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	n := NewNotifier([]Sender{broken, healthy}, logger)
	err := n.Notify(context.Background(), "title", "body")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken")
	assert.Equal(t, []string{"title"}, healthy.titles)
}

func TestNotifyWithoutSendersOnlyLogs(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	n := NewNotifier(nil, logger)
	assert.NoError(t, n.Notify(context.Background(), "title", "body"))
}

func TestFormatOpportunity(t *testing.T) {
	msg := FormatOpportunity(domain.Opportunity{
		GroupTitle: "Fed cuts in March",
		YesLeg: domain.OpportunityLeg{
			Venue: domain.VenueKalshi, MarketID: "FED-MAR", Side: domain.SideYes, Price: 0.40,
		},
		NoLeg: domain.OpportunityLeg{
			Venue: domain.VenuePolymarket, MarketID: "0xaaa", Side: domain.SideNo, Price: 0.50,
		},
		BundleCost: 0.90,
		Profit:     0.10,
		DetectedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	})

	assert.Contains(t, msg, "Fed cuts in March")
	assert.Contains(t, msg, "0.400 on KALSHI")
	assert.Contains(t, msg, "0.500 on POLYMARKET")
	assert.Contains(t, msg, "profit 0.100")
}
