package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/okaybet/crossarb/internal/arb"
	"github.com/okaybet/crossarb/internal/cache/redis"
	"github.com/okaybet/crossarb/internal/config"
	"github.com/okaybet/crossarb/internal/crypto"
	"github.com/okaybet/crossarb/internal/domain"
	"github.com/okaybet/crossarb/internal/feed"
	"github.com/okaybet/crossarb/internal/notify"
	"github.com/okaybet/crossarb/internal/store/postgres"
	"github.com/okaybet/crossarb/internal/venue"
	"github.com/okaybet/crossarb/internal/venue/kalshi"
	"github.com/okaybet/crossarb/internal/venue/polymarket"
)

// Dependencies bundles everything the application modes need. It is
// constructed by Wire and torn down by the returned cleanup function.
type Dependencies struct {
	Kalshi     *kalshi.Client
	Polymarket *polymarket.ClobClient
	Adapters   []venue.Adapter
	Feed       *feed.Client
	Detector   *arb.Detector
	Notifier   *notify.Notifier

	// Optional collaborators; nil when not configured.
	Store    domain.OpportunityStore
	Cache    domain.QuoteCache
	Cooldown domain.Cooldown
}

// Wire constructs all concrete dependencies from the configuration and
// returns them with a cleanup function to call on shutdown.
func Wire(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{}

	// --- Signers ---
	walletKey, err := crypto.LoadWalletKey(crypto.KeyConfig{
		RawPrivateKey:    cfg.Wallet.PrivateKey,
		EncryptedKeyPath: cfg.Wallet.EncryptedKeyPath,
		KeyPassword:      cfg.Wallet.KeyPassword,
	})
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("wire: wallet key: %w", err)
	}
	walletSigner, err := crypto.NewWalletSigner(walletKey, cfg.Polymarket.ChainID)
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("wire: wallet signer: %w", err)
	}

	// --- Venue clients ---
	deps.Polymarket = polymarket.NewClobClient(walletSigner, logger,
		polymarket.WithBaseURL(cfg.Polymarket.ClobHost))

	if cfg.Mode == "scan" || cfg.Mode == "trade" {
		rsaSigner, err := crypto.LoadRSASigner(cfg.Kalshi.ApiKeyID, cfg.Kalshi.RsaPrivateKeyPath)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: kalshi signer: %w", err)
		}
		deps.Kalshi = kalshi.NewClient(rsaSigner, logger,
			kalshi.WithAPIHost(cfg.Kalshi.ApiHost))
		deps.Adapters = []venue.Adapter{deps.Kalshi, deps.Polymarket}

		if err := deps.Polymarket.DeriveAPIKey(ctx); err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: polymarket auth: %w", err)
		}
	}

	if cfg.Feed.BaseURL != "" {
		deps.Feed = feed.NewClient(cfg.Feed.BaseURL, logger)
	}

	deps.Detector = arb.NewDetector(cfg.Scan.MinProfit)

	// --- Notifications ---
	var senders []notify.Sender
	if cfg.Notify.TelegramToken != "" {
		senders = append(senders, notify.NewTelegramSender(cfg.Notify.TelegramToken, cfg.Notify.TelegramChatID))
	}
	if cfg.Notify.DiscordWebhookURL != "" {
		senders = append(senders, notify.NewDiscordSender(cfg.Notify.DiscordWebhookURL))
	}
	deps.Notifier = notify.NewNotifier(senders, logger)

	// --- Redis (quote cache + cooldown) ---
	if cfg.Redis.Enabled {
		redisClient, err := redis.New(ctx, redis.ClientConfig{
			Addr:       cfg.Redis.Addr,
			Password:   cfg.Redis.Password,
			DB:         cfg.Redis.DB,
			PoolSize:   cfg.Redis.PoolSize,
			TLSEnabled: cfg.Redis.TLSEnabled,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: redis: %w", err)
		}
		closers = append(closers, func() { _ = redisClient.Close() })

		deps.Cache = redis.NewQuoteCache(redisClient)
		deps.Cooldown = redis.NewCooldown(redisClient)
	}

	// --- PostgreSQL (opportunity journal) ---
	if cfg.Postgres.Enabled {
		pgClient, err := postgres.New(ctx, postgres.ClientConfig{
			DSN:      cfg.Postgres.DSN,
			Host:     cfg.Postgres.Host,
			Port:     cfg.Postgres.Port,
			Database: cfg.Postgres.Database,
			User:     cfg.Postgres.User,
			Password: cfg.Postgres.Password,
			SSLMode:  cfg.Postgres.SSLMode,
			MaxConns: cfg.Postgres.PoolMaxConns,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: postgres: %w", err)
		}
		closers = append(closers, pgClient.Close)

		if cfg.Postgres.RunMigrations {
			if err := pgClient.RunMigrations(ctx); err != nil {
				cleanup()
				return nil, nil, fmt.Errorf("wire: postgres migrations: %w", err)
			}
		}
		deps.Store = postgres.NewOpportunityStore(pgClient.Pool())
	}

	return deps, cleanup, nil
}
