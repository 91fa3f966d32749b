// Package scanner drives detection cycles: it pulls market groups from the
// feed, fetches both venues' quotes for each pair, runs the detector, and
// hands findings to the notifier and, in trade mode, the dispatcher.
package scanner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/okaybet/crossarb/internal/arb"
	"github.com/okaybet/crossarb/internal/domain"
	"github.com/okaybet/crossarb/internal/feed"
	"github.com/okaybet/crossarb/internal/notify"
	"github.com/okaybet/crossarb/internal/venue"
)

const (
	// maxFetchAttempts bounds retries of quote fetches. Only transient
	// network failures are retried; schema and auth errors are not.
	maxFetchAttempts = 3

	retryBackoff = 500 * time.Millisecond
)

// Config tunes one Scanner.
type Config struct {
	Interval       time.Duration // delay between scan cycles
	Concurrency    int           // parallel pair evaluations per cycle
	QuoteTTL       time.Duration // quote cache lifetime; zero disables caching
	CooldownPeriod time.Duration // per-pair alert suppression window
}

// Scanner evaluates cross-venue pairs against the detector. The store,
// cache, cooldown, and dispatcher collaborators are all optional; a scanner
// with none of them just detects and reports.
type Scanner struct {
	cfg        Config
	groups     *feed.Client
	adapters   map[domain.Venue]venue.Adapter
	detector   *arb.Detector
	notifier   *notify.Notifier
	dispatcher *arb.Dispatcher
	store      domain.OpportunityStore
	cache      domain.QuoteCache
	cooldown   domain.Cooldown
	logger     *slog.Logger
}

// Option configures optional collaborators.
type Option func(*Scanner)

// WithDispatcher enables trade mode: detected opportunities are executed.
func WithDispatcher(d *arb.Dispatcher) Option {
	return func(s *Scanner) { s.dispatcher = d }
}

// WithStore journals detections and dispatch outcomes.
func WithStore(st domain.OpportunityStore) Option {
	return func(s *Scanner) { s.store = st }
}

// WithQuoteCache serves repeat quote lookups within the TTL from cache.
func WithQuoteCache(c domain.QuoteCache) Option {
	return func(s *Scanner) { s.cache = c }
}

// WithCooldown suppresses repeated alerts for the same pair.
func WithCooldown(c domain.Cooldown) Option {
	return func(s *Scanner) { s.cooldown = c }
}

// New creates a Scanner over the given adapters.
func New(
	cfg Config,
	groups *feed.Client,
	adapters []venue.Adapter,
	detector *arb.Detector,
	notifier *notify.Notifier,
	logger *slog.Logger,
	opts ...Option,
) (*Scanner, error) {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Minute
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}

	byVenue := make(map[domain.Venue]venue.Adapter, len(adapters))
	for _, a := range adapters {
		byVenue[a.Venue()] = a
	}
	for _, v := range []domain.Venue{domain.VenueKalshi, domain.VenuePolymarket} {
		if _, ok := byVenue[v]; !ok {
			return nil, fmt.Errorf("scanner: missing adapter for venue %s", v)
		}
	}

	s := &Scanner{
		cfg:      cfg,
		groups:   groups,
		adapters: byVenue,
		detector: detector,
		notifier: notifier,
		logger:   logger.With(slog.String("component", "scanner")),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Run executes scan cycles at the configured interval until ctx is canceled.
// A failed cycle is logged and the loop continues; only ctx cancellation
// stops it.
func (s *Scanner) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		if found, err := s.ScanOnce(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			s.logger.Error("scan cycle failed", slog.String("error", err.Error()))
		} else {
			s.logger.Info("scan cycle complete", slog.Int("opportunities", found))
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// ScanOnce runs a single cycle over all feed groups and returns the number
// of opportunities found.
func (s *Scanner) ScanOnce(ctx context.Context) (int, error) {
	groups, err := s.groups.GetGroups(ctx)
	if err != nil {
		return 0, fmt.Errorf("scanner: %w", err)
	}

	var pairs []feed.Pair
	for _, g := range groups {
		pairs = append(pairs, g.Pairs()...)
	}
	if len(pairs) == 0 {
		return 0, nil
	}

	found := make(chan domain.Opportunity, len(pairs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Concurrency)

	for _, pair := range pairs {
		g.Go(func() error {
			opp, ok, err := s.evaluate(gctx, pair)
			if err != nil {
				// One broken pair must not kill the cycle.
				s.logger.Warn("pair evaluation failed",
					slog.String("title", pair.Title),
					slog.String("error", err.Error()))
				return nil
			}
			if ok {
				found <- opp
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, fmt.Errorf("scanner: %w", err)
	}
	close(found)

	count := 0
	for opp := range found {
		count++
		s.handle(ctx, opp)
	}
	return count, nil
}

// ---- Internal methods ----

// evaluate fetches both quotes of a pair and runs the detector. Pairs on
// cooldown are skipped before any venue call; the cooldown is armed only
// when a discrepancy is actually found, so a quiet pair is re-evaluated
// every cycle.
func (s *Scanner) evaluate(ctx context.Context, pair feed.Pair) (domain.Opportunity, bool, error) {
	key := pair.KalshiTicker + ":" + pair.PolymarketID
	if s.cooldown != nil {
		active, err := s.cooldown.Active(ctx, key)
		if err != nil {
			s.logger.Warn("cooldown check failed", slog.String("error", err.Error()))
		} else if active {
			return domain.Opportunity{}, false, nil
		}
	}

	var kalshiQuote, polyQuote domain.NormalizedMarket
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		kalshiQuote, err = s.fetchQuote(gctx, domain.VenueKalshi, pair.KalshiTicker)
		return err
	})
	g.Go(func() error {
		var err error
		polyQuote, err = s.fetchQuote(gctx, domain.VenuePolymarket, pair.PolymarketID)
		return err
	})
	if err := g.Wait(); err != nil {
		return domain.Opportunity{}, false, err
	}

	opp, ok := s.detector.Detect(kalshiQuote, polyQuote)
	if !ok {
		return domain.Opportunity{}, false, nil
	}
	if opp.GroupTitle == "" {
		opp.GroupTitle = pair.Title
	}

	if s.cooldown != nil {
		claimed, err := s.cooldown.TrySet(ctx, key, s.cfg.CooldownPeriod)
		if err != nil {
			s.logger.Warn("cooldown arm failed", slog.String("error", err.Error()))
		} else if !claimed {
			// Another evaluation of the same pair won the claim this cycle.
			return domain.Opportunity{}, false, nil
		}
	}
	return opp, true, nil
}

// fetchQuote returns a normalized quote, consulting the cache first and
// retrying transient failures with a flat backoff.
func (s *Scanner) fetchQuote(ctx context.Context, v domain.Venue, marketID string) (domain.NormalizedMarket, error) {
	if s.cache != nil {
		if m, hit, err := s.cache.Get(ctx, v, marketID); err != nil {
			s.logger.Warn("quote cache read failed", slog.String("error", err.Error()))
		} else if hit {
			return m, nil
		}
	}

	var lastErr error
	for attempt := 1; attempt <= maxFetchAttempts; attempt++ {
		m, err := s.adapters[v].GetMarket(ctx, marketID)
		if err == nil {
			if s.cache != nil && s.cfg.QuoteTTL > 0 {
				if cerr := s.cache.Set(ctx, m, s.cfg.QuoteTTL); cerr != nil {
					s.logger.Warn("quote cache write failed", slog.String("error", cerr.Error()))
				}
			}
			return m, nil
		}
		lastErr = err
		if !errors.Is(err, domain.ErrTransientNetwork) && !errors.Is(err, domain.ErrRateLimited) {
			return domain.NormalizedMarket{}, err
		}

		select {
		case <-ctx.Done():
			return domain.NormalizedMarket{}, ctx.Err()
		case <-time.After(retryBackoff * time.Duration(attempt)):
		}
	}
	return domain.NormalizedMarket{}, fmt.Errorf("scanner: %s/%s after %d attempts: %w", v, marketID, maxFetchAttempts, lastErr)
}

// handle reports a detection and, in trade mode, dispatches it. Journal
// failures never block reporting or execution.
func (s *Scanner) handle(ctx context.Context, opp domain.Opportunity) {
	s.logger.Info("opportunity detected",
		slog.String("id", opp.ID),
		slog.String("title", opp.GroupTitle),
		slog.Float64("bundle", opp.BundleCost),
		slog.Float64("profit", opp.Profit))

	if s.store != nil {
		if err := s.store.Create(ctx, opp); err != nil {
			s.logger.Error("journal write failed", slog.String("error", err.Error()))
		}
	}
	if err := s.notifier.NotifyOpportunity(ctx, opp); err != nil {
		s.logger.Error("notification failed", slog.String("error", err.Error()))
	}

	if s.dispatcher == nil {
		s.recordDispatch(ctx, opp.ID, domain.DispatchSkipped, "scan mode")
		return
	}

	_, err := s.dispatcher.Dispatch(ctx, opp)
	switch {
	case err == nil:
		s.recordDispatch(ctx, opp.ID, domain.DispatchFilled, "")
	default:
		var partial *domain.PartialExecutionError
		if errors.As(err, &partial) {
			s.logger.Error("partial execution", slog.String("error", partial.Error()))
			s.recordDispatch(ctx, opp.ID, domain.DispatchPartial, partial.Error())
			s.alertPartial(ctx, partial)
			return
		}
		s.logger.Error("dispatch failed", slog.String("error", err.Error()))
		s.recordDispatch(ctx, opp.ID, domain.DispatchRejected, err.Error())
	}
}

func (s *Scanner) recordDispatch(ctx context.Context, oppID string, status domain.DispatchStatus, detail string) {
	if s.store == nil {
		return
	}
	if err := s.store.RecordDispatch(ctx, oppID, status, detail); err != nil {
		s.logger.Error("journal update failed", slog.String("error", err.Error()))
	}
}

// alertPartial pages the operator: a one-sided position needs a manual
// unwind decision.
func (s *Scanner) alertPartial(ctx context.Context, partial *domain.PartialExecutionError) {
	if err := s.notifier.Notify(ctx, "PARTIAL EXECUTION", partial.Error()); err != nil {
		s.logger.Error("partial execution alert failed", slog.String("error", err.Error()))
	}
}
