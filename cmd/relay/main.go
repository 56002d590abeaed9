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
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"

	_ "github.com/ghuser/voyagewatch/docs/swagger"
	"github.com/ghuser/voyagewatch/pkg/app"
	"github.com/ghuser/voyagewatch/pkg/cache"
	"github.com/ghuser/voyagewatch/pkg/config"
	"github.com/ghuser/voyagewatch/pkg/database"
	"github.com/ghuser/voyagewatch/pkg/events"
	"github.com/ghuser/voyagewatch/pkg/httpx"
	"github.com/ghuser/voyagewatch/pkg/logger"
	"github.com/ghuser/voyagewatch/pkg/telemetry"
	eventApi "github.com/ghuser/voyagewatch/services/event/application/api"
	eventSvcs "github.com/ghuser/voyagewatch/services/event/application/services"
	"github.com/ghuser/voyagewatch/services/event/infrastructure/relay"
)

// @title					VoyageWatch Relay API
// @version				1.0
// @description			Reports map events and fans them out to connected trackers.
// @termsOfService			http://swagger.io/terms/
// @contact.name			API Support
// @license.name			MIT
// @license.url			https://opensource.org/licenses/MIT
// @host					localhost:8080
// @BasePath				/api
// @schemes				http https
func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	if err := config.ValidateForProduction(cfg); err != nil {
		slog.Error("production config validation failed", "error", err)
		os.Exit(1)
	}

	log := logger.New(cfg)

	// Telemetry: OTel tracing + metrics
	ctx, stop := context.WithCancel(context.Background())
	defer stop()
	otelShutdown, metricsHandler, err := telemetry.Setup(ctx, cfg)
	if err != nil {
		log.Error("failed to setup otel", "error", err)
		os.Exit(1)
	}
	defer otelShutdown(context.Background()) //nolint:errcheck

	// Crash reporting: Sentry (optional; log and continue on failure)
	group := events.InstanceGroup(cfg.ServiceName, cfg.RelayInstanceID)
	if err := telemetry.SetupSentry(cfg, group); err != nil {
		log.Warn("failed to setup sentry, continuing without crash reporting", "error", err)
	}
	defer telemetry.SentryFlush()

	pool, err := database.NewPool(ctx, cfg.DatabaseURL, log)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		os.Exit(1) //nolint:gocritic // intentional: startup failure, deferred flushes are best-effort
	}
	defer pool.Close()
	log.Info("database pool connected")

	eventBus, err := events.NewEventBus(pool.DB(), log, events.Options{ConsumerGroup: group, Forwarder: true})
	if err != nil {
		log.Error("failed to setup event bus", "error", err)
		os.Exit(1) //nolint:gocritic
	}
	defer eventBus.Close() //nolint:errcheck

	if err := eventBus.StartForwarder(ctx); err != nil {
		log.Error("failed to start event forwarder", "error", err)
		os.Exit(1) //nolint:gocritic
	}

	var redisClient *cache.RedisClient
	switch rc, err := cache.NewRedisClient(cfg); {
	case errors.Is(err, cache.ErrDisabled):
		log.Info("redis disabled, duplicate reports are caught by the database only")
	case err != nil:
		log.Error("failed to connect to redis", "error", err)
		os.Exit(1) //nolint:gocritic // intentional: startup failure
	default:
		redisClient = rc
		defer redisClient.Close() //nolint:errcheck
		log.Info("redis connected")
	}

	metrics, err := telemetry.NewRelayMetrics(otel.GetMeterProvider())
	if err != nil {
		log.Error("failed to create relay metrics", "error", err)
		os.Exit(1) //nolint:gocritic
	}

	appConfig := &app.Application{
		Db:       pool,
		Logger:   log,
		EventBus: eventBus,
		Redis:    redisClient,
		Metrics:  metrics,
	}

	svcs := eventSvcs.New(appConfig)
	hub := relay.NewHub(svcs.Report, log,
		relay.WithMetrics(metrics),
		relay.WithAllowedOrigins(cfg.CORSAllowedOrigins),
	)
	if err := eventApi.RegisterSubscribers(ctx, appConfig, hub); err != nil {
		log.Error("failed to register subscribers", "error", err)
		os.Exit(1) //nolint:gocritic
	}

	r := httpx.NewRouter(
		httpx.ServerConfig{
			ServiceName:        cfg.ServiceName,
			IsDevelopment:      cfg.Environment == config.EnvDevelopment,
			CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		},
		logger.Middleware(log),
		logger.Recovery(log),
		telemetry.SentryMiddleware(),
		otelhttp.NewMiddleware(cfg.ServiceName),
	)

	health := httpx.HealthChecks{Database: pool, EventBus: eventBus}
	if redisClient != nil {
		health.Redis = redisClient
	}
	r.Get("/health", httpx.HealthHandler(health))
	r.Get("/metrics", metricsHandler.ServeHTTP)
	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))
	r.Route("/api", func(r chi.Router) {
		registerRoutes(r, svcs)
	})

	root := httpx.WithStreams(r, logger.Recovery(log), map[string]http.HandlerFunc{
		"/ws": hub.ServeWS,
	})
	srv := httpx.NewServer(cfg.RelayAddr, root)

	go func() {
		log.Info("relay listening", "addr", srv.Addr, "env", cfg.Environment, "consumer_group", group)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	hub.Close()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("forced shutdown", "error", err)
		os.Exit(1)
	}
	stop()
	// EventBus.Close() (via defer) waits up to 30s for in-flight handlers.
	log.Info("relay stopped")
}

// registerRoutes mounts all service routes under /api.
func registerRoutes(r chi.Router, svcs *eventSvcs.Services) {
	eventApi.EventRoutes(r, svcs)
}
