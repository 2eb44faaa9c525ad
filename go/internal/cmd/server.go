package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"connectrpc.com/connect"
	"github.com/go-chi/chi/v5"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.uber.org/fx"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	scoreboardv1 "github.com/mcdev12/scoreboard/go/internal/api/scoreboardv1"
	"github.com/mcdev12/scoreboard/go/internal/auth"
	"github.com/mcdev12/scoreboard/go/internal/match"
	"github.com/mcdev12/scoreboard/go/internal/middleware"
	"github.com/mcdev12/scoreboard/go/internal/realtime"
)

const shutdownTimeout = 10 * time.Second

func newRouter(logger zerolog.Logger, cfg *Config, ready *Readiness, matchApp *match.App, authApp *auth.App, cm *realtime.ConnectionManager) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID(logger))

	// Setup CORS middleware
	c := cors.New(cors.Options{
		AllowedMethods: []string{
			http.MethodHead,
			http.MethodGet,
			http.MethodPost,
		},
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedHeaders: []string{"*"},
		ExposedHeaders: []string{middleware.RequestIDHeader},
	})
	r.Use(c.Handler)

	registerServices(r, matchApp, authApp)
	realtime.NewWebSocketHandler(cm).RegisterRoutes(r)
	setupHealthCheck(r)
	r.Method(http.MethodGet, "/ready", ready)

	return h2c.NewHandler(r, &http2.Server{})
}

func registerServices(r chi.Router, matchApp *match.App, authApp *auth.App) {
	interceptors := connect.WithInterceptors(auth.NewInterceptor(authApp))

	// Register match service
	matchServicePath, matchServiceHandler := scoreboardv1.NewMatchServiceHandler(match.NewService(matchApp), interceptors)
	r.Mount(matchServicePath, matchServiceHandler)

	// Register auth service
	authServicePath, authServiceHandler := scoreboardv1.NewAuthServiceHandler(auth.NewService(authApp), interceptors)
	r.Mount(authServicePath, authServiceHandler)
}

func setupHealthCheck(r chi.Router) {
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			log.Error().Err(err).Msg("failed to write health check response")
		}
	})
}

func runServer(lc fx.Lifecycle, shutdowner fx.Shutdowner, cfg *Config, handler http.Handler) {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			ln, err := net.Listen("tcp", srv.Addr)
			if err != nil {
				return fmt.Errorf("failed to listen on %s: %w", srv.Addr, err)
			}
			go func() {
				log.Info().Str("addr", srv.Addr).Str("store", cfg.Store).Msg("server starting")
				if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Error().Err(err).Msg("server failed")
					_ = shutdowner.Shutdown(fx.ExitCode(1))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info().Msg("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}
