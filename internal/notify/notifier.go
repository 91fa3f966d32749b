// Package notify fans out opportunity alerts to the configured channels.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/okaybet/crossarb/internal/domain"
)

// Sender is one delivery channel for alerts.
type Sender interface {
	// Send delivers a notification with the given title and message body.
	Send(ctx context.Context, title, message string) error
	// Name returns a short channel identifier, e.g. "telegram".
	Name() string
}

// Notifier dispatches alerts to every registered sender. One failing channel
// does not block delivery to the others.
type Notifier struct {
	senders []Sender
	logger  *slog.Logger
}

// NewNotifier creates a Notifier delivering to the given senders. A nil or
// empty sender list yields a notifier that only logs.
func NewNotifier(senders []Sender, logger *slog.Logger) *Notifier {
	return &Notifier{
		senders: senders,
		logger:  logger.With(slog.String("component", "notifier")),
	}
}

// NotifyOpportunity formats and delivers an opportunity alert.
func (n *Notifier) NotifyOpportunity(ctx context.Context, opp domain.Opportunity) error {
	return n.Notify(ctx, "Arbitrage opportunity", FormatOpportunity(opp))
}

// Notify delivers a message to all senders. Per-sender errors are collected
// into one combined error after every channel has been tried.
func (n *Notifier) Notify(ctx context.Context, title, message string) error {
	if len(n.senders) == 0 {
		n.logger.Info("alert", slog.String("title", title), slog.String("message", message))
		return nil
	}

	var errs []string
	for _, s := range n.senders {
		if err := s.Send(ctx, title, message); err != nil {
			n.logger.ErrorContext(ctx, "sender failed",
				slog.String("sender", s.Name()),
				slog.String("error", err.Error()),
			)
			errs = append(errs, fmt.Sprintf("%s: %v", s.Name(), err))
			continue
		}
		n.logger.DebugContext(ctx, "notification sent",
			slog.String("sender", s.Name()),
			slog.String("title", title),
		)
	}

	if len(errs) > 0 {
		return fmt.Errorf("notify: %d sender(s) failed: %s", len(errs), strings.Join(errs, "; "))
	}
	return nil
}

// FormatOpportunity renders an opportunity as a short multi-line alert.
func FormatOpportunity(opp domain.Opportunity) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", opp.GroupTitle)
	fmt.Fprintf(&b, "Yes @ %.3f on %s (%s)\n", opp.YesLeg.Price, opp.YesLeg.Venue, opp.YesLeg.MarketID)
	fmt.Fprintf(&b, "No  @ %.3f on %s (%s)\n", opp.NoLeg.Price, opp.NoLeg.Venue, opp.NoLeg.MarketID)
	fmt.Fprintf(&b, "Bundle %.3f, profit %.3f per contract\n", opp.BundleCost, opp.Profit)
	fmt.Fprintf(&b, "Detected %s", opp.DetectedAt.Format(time.RFC3339))
	return b.String()
}
