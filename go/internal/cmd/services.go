package main

import (
	"context"
	"errors"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
	"go.uber.org/fx"
	"golang.org/x/sync/errgroup"

	"github.com/mcdev12/scoreboard/go/internal/auth"
	"github.com/mcdev12/scoreboard/go/internal/cas"
	"github.com/mcdev12/scoreboard/go/internal/match"
	"github.com/mcdev12/scoreboard/go/internal/outbox"
	"github.com/mcdev12/scoreboard/go/internal/realtime"
)

// Stores is the storage layer selected by STORE. Listener is nil in memory
// mode, where the match store publishes directly.
type Stores struct {
	Matches  match.Repository
	Users    auth.UserRepository
	Listener *outbox.Listener
}

func provideConfig() (*Config, error) {
	return loadConfig(getEnv("CONFIG_PATH", ""))
}

func provideClock() clockwork.Clock {
	return clockwork.NewRealClock()
}

func provideFeed(lc fx.Lifecycle, cfg *Config, ready *Readiness) (realtime.Feed, error) {
	if cfg.NatsURL == "" {
		log.Info().Msg("using in-process realtime hub")
		return realtime.NewHub(), nil
	}

	jsCfg := realtime.DefaultJetStreamConfig()
	jsCfg.URL = cfg.NatsURL
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	feed, err := realtime.NewJetStreamFeed(ctx, jsCfg)
	if err != nil {
		return nil, err
	}
	ready.Add("nats", feed.Ping)
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error { return feed.Close() },
	})
	return feed, nil
}

func provideStores(lc fx.Lifecycle, cfg *Config, feed realtime.Feed, clock clockwork.Clock, ready *Readiness) (*Stores, error) {
	if cfg.Store == StoreMemory {
		log.Warn().Msg("using in-memory store; state is lost on restart")
		return &Stores{
			Matches: match.NewMemoryRepository(feed),
			Users:   auth.NewMemoryRepository(),
		}, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	sqlDB, pool, err := setupDatabase(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}

	relay := outbox.NewRelay(outbox.NewRepository(sqlDB), feed, clock, outbox.DefaultRelayConfig())
	listenerCfg := outbox.DefaultListenerConfig()
	listenerCfg.DatabaseURL = cfg.Database.DSN()
	listener, err := outbox.NewListener(relay, listenerCfg)
	if err != nil {
		pool.Close()
		sqlDB.Close()
		return nil, err
	}

	ready.Add("postgres", pool.Ping)
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			pool.Close()
			return sqlDB.Close()
		},
	})

	return &Stores{
		Matches:  match.NewPostgresRepository(pool),
		Users:    auth.NewRepository(pool),
		Listener: listener,
	}, nil
}

func provideMatchApp(stores *Stores, feed realtime.Feed, clock clockwork.Clock, cfg *Config) *match.App {
	policy := cas.DefaultPolicy()
	policy.MaxAttempts = cfg.CASMaxAttempts
	return match.NewApp(stores.Matches, feed, clock, policy)
}

func provideAuthApp(stores *Stores, clock clockwork.Clock, cfg *Config) *auth.App {
	return auth.NewApp(stores.Users, clock, cfg.SessionTTL)
}

func provideConnectionManager(app *match.App) *realtime.ConnectionManager {
	return realtime.NewConnectionManager(app, realtime.DefaultConnectionConfig())
}

// bootstrapUser creates the configured operator account on first start.
func bootstrapUser(lc fx.Lifecycle, cfg *Config, app *auth.App) {
	if cfg.Bootstrap.Email == "" {
		return
	}
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			user, err := app.EnsureUser(ctx, cfg.Bootstrap.Email, cfg.Bootstrap.Password)
			if err != nil {
				return err
			}
			log.Info().Str("user_id", user.ID.String()).Msg("bootstrap user ready")
			return nil
		},
	})
}

// runBackground starts the outbox listener and the session sweeper under one
// errgroup. Stopping closes websocket clients and waits for both loops.
func runBackground(lc fx.Lifecycle, shutdowner fx.Shutdowner, cfg *Config, stores *Stores, app *auth.App, clock clockwork.Clock, cm *realtime.ConnectionManager) {
	ctx, cancel := context.WithCancel(context.Background())
	g, gctx := errgroup.WithContext(ctx)

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			if stores.Listener != nil {
				g.Go(func() error { return stores.Listener.Start(gctx) })
			}
			sweeper := auth.NewSweeper(app, clock, cfg.SweepInterval)
			g.Go(func() error { return sweeper.Start(gctx) })

			go func() {
				<-gctx.Done()
				if ctx.Err() == nil {
					log.Error().Msg("background worker stopped; shutting down")
					_ = shutdowner.Shutdown(fx.ExitCode(1))
				}
			}()
			return nil
		},
		OnStop: func(context.Context) error {
			cm.CloseAll()
			cancel()
			if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		},
	})
}
