package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	server "venue_reputation/internal/adapters/http_server"
	"venue_reputation/internal/adapters/identity"
	"venue_reputation/internal/adapters/observability"
	"venue_reputation/internal/app"
	"venue_reputation/internal/shared"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := shared.Load()

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv)

	reg := observability.InitRegistry()
	observability.Serve(cfg.MetricsAddr, reg)

	deps, err := shared.Open(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("startup failed")
	}
	defer deps.Close()

	verifier, err := identity.NewVerifier(cfg.JWTSecret)
	if err != nil {
		log.Warn().Err(err).Msg("token verification disabled")
		verifier = nil
	}

	guard := app.NewOwnershipGuard(deps.Store)
	h := &server.Handlers{
		Queries:    app.NewQueryService(deps.Store, deps.Cache, cfg.CacheTTL),
		Reviews:    app.NewReviewService(deps.Store, deps.Store, deps.Cache),
		Dashboard:  app.NewDashboardService(deps.Store, deps.Store, guard, deps.Cache, cfg.CacheTTL),
		Content:    app.NewContentService(deps.Store, guard, deps.Cache, cfg.CacheTTL),
		Insights:   app.NewInsightService(deps.Store, deps.Generator, guard, deps.Cache, cfg.CacheTTL),
		Guard:      guard,
		BatchDelay: cfg.BatchDelay,
	}

	// http
	srv := server.New()
	srv.MountHandlers(h, server.Routes{Verifier: verifier, InsightsPerMinute: cfg.InsightsPerMinute})

	httpSrv := &http.Server{Addr: cfg.HTTPAddr, Handler: srv.Mux(), ReadHeaderTimeout: 5 * time.Second}
	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("API listening")
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}
