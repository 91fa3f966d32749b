package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/okaybet/crossarb/internal/arb"
	"github.com/okaybet/crossarb/internal/scanner"
	"github.com/okaybet/crossarb/internal/venue/polymarket"
)

// ScanMode runs detection cycles and reports opportunities without trading.
func (a *App) ScanMode(ctx context.Context, deps *Dependencies) error {
	s, err := a.buildScanner(deps, nil)
	if err != nil {
		return err
	}
	a.logRecentDetections(ctx, deps)
	a.logger.Info("scan mode: detect and report only")
	return s.Run(ctx)
}

// TradeMode runs detection cycles and dispatches both legs of every finding.
// It refuses to start without a readable balance on both venues.
func (a *App) TradeMode(ctx context.Context, deps *Dependencies) error {
	if err := a.checkBalances(ctx, deps); err != nil {
		return err
	}

	dispatcher, err := arb.NewDispatcher(deps.Adapters, a.cfg.Scan.OrderQuantity, a.logger)
	if err != nil {
		return fmt.Errorf("app: %w", err)
	}

	s, err := a.buildScanner(deps, dispatcher)
	if err != nil {
		return err
	}
	a.logRecentDetections(ctx, deps)
	a.logger.Warn("trade mode: detected opportunities will be executed",
		slog.Int64("order_quantity", a.cfg.Scan.OrderQuantity))
	return s.Run(ctx)
}

// MonitorMode watches the Polymarket market stream for the tokens of every
// feed group and logs price observations. No REST polling, no trading.
func (a *App) MonitorMode(ctx context.Context, deps *Dependencies) error {
	ws := polymarket.NewWSClient(a.cfg.Polymarket.WsHost, a.logger)
	ws.OnPrice(func(u polymarket.PriceUpdate) {
		a.logger.Info("price update",
			slog.String("asset_id", u.AssetID),
			slog.Float64("best_bid", u.BestBid),
			slog.Float64("best_ask", u.BestAsk))
	})

	if err := ws.Connect(ctx); err != nil {
		return fmt.Errorf("app: %w", err)
	}
	defer ws.Close()

	assetIDs, err := a.monitorAssets(ctx, deps)
	if err != nil {
		return err
	}
	if len(assetIDs) > 0 {
		if err := ws.Subscribe(assetIDs); err != nil {
			return fmt.Errorf("app: %w", err)
		}
	}
	a.logger.Info("monitor mode: streaming", slog.Int("assets", len(assetIDs)))

	<-ctx.Done()
	return ctx.Err()
}

// ---- Internal helpers ----

// logRecentDetections surfaces the tail of the journal at startup so an
// operator restarting the process sees what the previous session found.
func (a *App) logRecentDetections(ctx context.Context, deps *Dependencies) {
	if deps.Store == nil {
		return
	}
	recent, err := deps.Store.ListRecent(ctx, 5)
	if err != nil {
		a.logger.Warn("could not read journal", slog.String("error", err.Error()))
		return
	}
	for _, opp := range recent {
		a.logger.Info("journaled opportunity",
			slog.String("id", opp.ID),
			slog.String("title", opp.GroupTitle),
			slog.Float64("profit", opp.Profit),
			slog.Time("detected_at", opp.DetectedAt))
	}
}

// checkBalances queries both venues before any order can be placed and logs
// the available funds. A venue that cannot report a balance blocks trade
// mode; an empty one only warns, since funding can land mid-session.
func (a *App) checkBalances(ctx context.Context, deps *Dependencies) error {
	kalshiBal, err := deps.Kalshi.GetBalance(ctx)
	if err != nil {
		return fmt.Errorf("app: kalshi balance: %w", err)
	}
	polyBal, err := deps.Polymarket.GetBalance(ctx)
	if err != nil {
		return fmt.Errorf("app: polymarket balance: %w", err)
	}

	a.logger.Info("venue balances",
		slog.Float64("kalshi_usd", kalshiBal),
		slog.Float64("polymarket_usdc", polyBal))
	if kalshiBal <= 0 || polyBal <= 0 {
		a.logger.Warn("at least one venue has no available balance")
	}
	return nil
}

func (a *App) buildScanner(deps *Dependencies, dispatcher *arb.Dispatcher) (*scanner.Scanner, error) {
	var opts []scanner.Option
	if dispatcher != nil {
		opts = append(opts, scanner.WithDispatcher(dispatcher))
	}
	if deps.Store != nil {
		opts = append(opts, scanner.WithStore(deps.Store))
	}
	if deps.Cache != nil {
		opts = append(opts, scanner.WithQuoteCache(deps.Cache))
	}
	if deps.Cooldown != nil {
		opts = append(opts, scanner.WithCooldown(deps.Cooldown))
	}

	s, err := scanner.New(
		scanner.Config{
			Interval:       a.cfg.Scan.Interval.Duration,
			Concurrency:    a.cfg.Scan.Concurrency,
			QuoteTTL:       a.cfg.Scan.QuoteTTL.Duration,
			CooldownPeriod: a.cfg.Scan.CooldownPeriod.Duration,
		},
		deps.Feed,
		deps.Adapters,
		deps.Detector,
		deps.Notifier,
		a.logger,
		opts...,
	)
	if err != nil {
		return nil, fmt.Errorf("app: %w", err)
	}
	return s, nil
}

// monitorAssets resolves the outcome token IDs of every Polymarket market the
// feed knows about. Markets that fail to resolve are skipped.
func (a *App) monitorAssets(ctx context.Context, deps *Dependencies) ([]string, error) {
	feedClient := deps.Feed
	if feedClient == nil {
		a.logger.Info("no feed configured; monitoring without subscriptions")
		return nil, nil
	}

	groups, err := feedClient.GetGroups(ctx)
	if err != nil {
		return nil, fmt.Errorf("app: %w", err)
	}

	var assetIDs []string
	seen := map[string]bool{}
	for _, g := range groups {
		for _, id := range g.PolymarketIDs {
			m, err := deps.Polymarket.GetMarket(ctx, id)
			if err != nil {
				a.logger.Warn("skipping market",
					slog.String("condition_id", id),
					slog.String("error", err.Error()))
				continue
			}
			for _, tok := range []string{m.YesTokenID, m.NoTokenID} {
				if tok != "" && !seen[tok] {
					seen[tok] = true
					assetIDs = append(assetIDs, tok)
				}
			}
		}
	}
	return assetIDs, nil
}
