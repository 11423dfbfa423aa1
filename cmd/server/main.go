// InsurX portal server.
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
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/insurx/insurx-web/internal/api"
	"github.com/insurx/insurx-web/internal/backend"
	"github.com/insurx/insurx-web/internal/config"
	"github.com/insurx/insurx-web/internal/conversations"
	"github.com/insurx/insurx-web/internal/generator"
	"github.com/insurx/insurx-web/internal/middleware"
	"github.com/insurx/insurx-web/internal/observability"
	"github.com/insurx/insurx-web/internal/payment"
	"github.com/insurx/insurx-web/internal/session"
	"github.com/insurx/insurx-web/internal/store"
	"github.com/insurx/insurx-web/web"
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(os.Stdout, cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)

	slog.Info("Starting server",
		"port", cfg.Port,
		"dev", cfg.IsDevelopment(),
		"session_store", cfg.Session.Store,
		"generative", cfg.GenerativeEnabled(),
		"payments", cfg.PaymentsEnabled(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize dependencies.
	repo, err := store.NewSQLite(cfg.DBPath)
	if err != nil {
		slog.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer func() {
		if closeErr := repo.Close(); closeErr != nil {
			slog.Error("Failed to close repository", "error", closeErr)
		}
	}()

	if err := repo.Ping(ctx); err != nil {
		slog.Error("Database health check failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Database connected", "path", cfg.DBPath)

	metrics := observability.NewMetrics()
	clock := clockwork.NewRealClock()
	checks := map[string]api.Pinger{"database": repo}

	var sessionStore session.Store
	switch cfg.Session.Store {
	case config.SessionStoreRedis:
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			cancel()
			slog.Error("Redis ping failed", "addr", cfg.Redis.Addr, "error", err)
			os.Exit(1)
		}
		cancel()
		defer func() {
			if err := rdb.Close(); err != nil {
				slog.Error("Failed to close redis client", "error", err)
			}
		}()
		sessionStore = session.NewRedisStore(rdb, clock, logger)
		checks["redis"] = api.PingFunc(func(ctx context.Context) error { return rdb.Ping(ctx).Err() })
		slog.Info("Session store ready", "type", "redis", "addr", cfg.Redis.Addr)
	default:
		sessionStore = session.NewSQLiteStore(repo, clock, logger)
		slog.Info("Session store ready", "type", "sqlite")
	}

	sessions := session.NewManager(sessionStore, cfg.Session.TTL, !cfg.IsDevelopment(), clock, logger)
	gen := generator.New(cfg.Gemini, logger)
	backendClient := backend.NewClient(cfg.Backend, metrics, logger)
	convs := conversations.NewService(repo, clock)

	var processor payment.Processor
	if cfg.PaymentsEnabled() {
		processor = payment.NewStripeProcessor(cfg.Stripe.SecretKey, cfg.Stripe.Currency, logger)
	} else {
		slog.Info("Payments disabled (STRIPE_SECRET_KEY not set or not a secret key)")
	}

	// Initialize handlers.
	base := api.NewHandler(sessions, metrics, logger)
	healthHandler := api.NewHealthHandler(checks, cfg, logger)
	assistantHandler := api.NewAssistantHandler(base, gen)
	checkoutHandler := api.NewCheckoutHandler(base, processor, cfg.AppURL)
	authHandler := api.NewAuthHandler(base, backendClient)
	monitoringHandler := api.NewMonitoringHandler(base, backendClient)
	conversationHandler := api.NewConversationHandler(base, convs)

	// Setup router.
	r := chi.NewRouter()

	// Global middleware.
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/ping"))
	r.Use(middleware.CORS(cfg.AllowedOrigins))
	r.Use(session.Middleware(sessions, logger))

	// Public routes.
	healthHandler.RegisterHealth(r)
	r.Handle("/metrics", promhttp.Handler())
	assistantHandler.RegisterRoutes(r)
	checkoutHandler.RegisterRoutes(r)
	authHandler.RegisterRoutes(r)

	// Session and subscription gated routes.
	monitoringHandler.RegisterRoutes(r)
	conversationHandler.RegisterRoutes(r)

	// Serve embedded frontend (SPA catch-all); dashboard pages are guarded.
	web.Register(r, session.RequireActive(api.LoginPath, api.InactivePath, metrics))

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      cfg.Gemini.Timeout + 15*time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// Expired sessions are pruned from SQLite; Redis expires keys itself.
	var pruneDone <-chan struct{}
	if cfg.Session.Store == config.SessionStoreSQLite {
		pruneDone = session.StartPruneWorker(ctx, repo, clock, cfg.Session.PruneInterval, metrics, logger)
	}

	// Start server.
	go func() {
		slog.Info("Server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal.
	<-ctx.Done()
	stop()

	slog.Info("Shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}
	if pruneDone != nil {
		<-pruneDone
	}

	slog.Info("Server stopped successfully")
}
