package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"consentmgr/internal/consent/client"
	"consentmgr/internal/consent/handler"
	"consentmgr/internal/consent/session"
	"consentmgr/internal/identity"
	"consentmgr/internal/platform/config"
	"consentmgr/internal/platform/httpserver"
	"consentmgr/internal/platform/logger"
	"consentmgr/internal/platform/metrics"
	"consentmgr/internal/platform/otel"
	id "consentmgr/pkg/domain"
	"consentmgr/pkg/platform/httputil"
)

const sweepInterval = time.Minute

// main wires the backend client, the per-visitor session registry and the
// HTTP surface, then serves until interrupted.
func main() {
	cfg, err := config.Load()
	if err != nil {
		config.Exitf("config: %v", err)
	}
	log := logger.New(cfg.Log)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := otel.Setup(ctx, cfg.Telemetry)
	if err != nil {
		log.Warn("tracing disabled", "error", err)
	}

	met := metrics.New()
	backend := client.New(cfg.API.BaseURL,
		client.WithTimeout(cfg.API.Timeout),
		client.WithLogger(log),
		client.WithMetrics(met),
	)

	registry := session.NewRegistry(func(v id.VisitorID) *session.Controller {
		return session.New(backend, identity.Fixed(v),
			session.WithLogger(log.With("visitor_id", v.String())),
			session.WithMetrics(met),
		)
	}, cfg.Server.SessionIdleTTL, met)

	router := chi.NewRouter()
	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	router.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if _, err := backend.Health(r.Context()); err != nil {
			httputil.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "backend unavailable"})
			return
		}
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	})
	router.Handle("/metrics", promhttp.Handler())

	handler.New(registry, handler.Config{
		SecureCookies: cfg.Server.SecureCookies,
		IdentityOptions: []identity.Option{
			identity.WithKey(cfg.Identity.Key),
			identity.WithLegacyKeys(cfg.Identity.LegacyKeys...),
			identity.WithTTL(cfg.Identity.TTL),
		},
	}, log, met).Register(router)

	go func() {
		ticker := time.NewTicker(sweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				if n := registry.Sweep(now); n > 0 {
					log.Debug("evicted idle sessions", "count", n)
				}
			}
		}
	}()

	srv := httpserver.New(cfg.Server.Addr, router)
	go func() {
		log.Info("starting consent server", "addr", cfg.Server.Addr, "backend", backend.BaseURL())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
	}
	registry.Wait()
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Warn("flush traces", "error", err)
	}
}
