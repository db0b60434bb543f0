package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"staybook/internal/accommodations"
	accrepo "staybook/internal/accommodations/repository"
	"staybook/internal/adapters"
	"staybook/internal/auth"
	apphttp "staybook/internal/http"
	"staybook/internal/http/router"
	"staybook/internal/users"
	userrepo "staybook/internal/users/repository"
	"staybook/platform/config"
	"staybook/platform/db"
	"staybook/platform/logger"
	"staybook/platform/metrics"
	"staybook/platform/password"
	"staybook/platform/token"
	"staybook/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)
	if cfg.UsesDefaultJWTSecret() {
		log.SecurityWarning("JWT_SECRET", "using the built-in development secret; tokens are forgeable")
	}
	if cfg.AllowAdminRegistration && cfg.IsProduction() {
		log.SecurityWarning("ALLOW_ADMIN_REGISTRATION", "anyone can register an admin account")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	if err := withRetry(ctx, log, "database migrations", 5, 2*time.Second, func() error {
		return db.RunMigrations(ctx, cfg, log)
	}); err != nil {
		log.Error("failed to run migrations", "error", err)
		panic("failed to run migrations: " + err.Error())
	}

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		var connectErr error
		pool, connectErr = db.NewPool(ctx, cfg)
		return connectErr
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()
	log.Info("database connection established")

	val := validator.New()

	hasher, err := password.NewHasher(cfg.GetBcryptCost())
	if err != nil {
		panic("failed to initialize password hasher: " + err.Error())
	}

	tokens := token.NewManager(cfg, token.WithDebugHook(func(reason error) {
		log.Debug("token rejected", "reason", reason)
	}))

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	accommodationsModule := accommodations.NewModule(accrepo.New(pool), val, log)

	// Anti-Corruption Layer: users only sees accommodations through its own port
	accommodationsAdapter := adapters.NewAccommodationsAdapter(accommodationsModule.Service())

	usersRepo := userrepo.New(pool)
	usersModule := users.NewModule(usersRepo, accommodationsAdapter, val, log)
	authModule := auth.NewModule(usersRepo, hasher, tokens, val, cfg, log)

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config:     cfg,
		Logger:     log,
		Health:     db.NewPoolAdapter(pool),
		Inventory:  accommodationsModule.Service(),
		Metrics:    metrics.NewHTTP(registry),
		Gatherer:   registry,
		Tokens:     tokens,
		Identities: authModule.Identities(),
		Modules: []apphttp.Module{
			authModule,
			accommodationsModule,
			usersModule,
		},
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router.New(app),
		ReadHeaderTimeout: 10 * time.Second,
	}

	srvErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		srvErr <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, gracefully shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("graceful shutdown failed", "error", err)
		}
	case err := <-srvErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			panic("server error: " + err.Error())
		}
	}
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return fmt.Errorf("%s: invalid retry attempts", name)
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err
		log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return fmt.Errorf("%s: %w", name, lastErr)
}
