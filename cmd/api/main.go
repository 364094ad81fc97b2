package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/MarlinZapp/wishes-server/internal/auth"
	"github.com/MarlinZapp/wishes-server/internal/config"
	"github.com/MarlinZapp/wishes-server/internal/db"
	httpx "github.com/MarlinZapp/wishes-server/internal/http"
	"github.com/MarlinZapp/wishes-server/internal/http/middlewares"
	"github.com/MarlinZapp/wishes-server/internal/identity"
	"github.com/MarlinZapp/wishes-server/internal/observability"
	"github.com/MarlinZapp/wishes-server/internal/session"
	"github.com/MarlinZapp/wishes-server/internal/store/memory"
	"github.com/MarlinZapp/wishes-server/internal/store/postgres"

	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	cfg := config.Load()

	log := observability.NewLogger(cfg.Env, cfg.TracingEnabled)

	if cfg.TracingEnabled {
		shutdownTracer, err := observability.InitTracer(context.Background(), "wishes-server", cfg.OtelEndpoint)

		if err != nil {
			log.Error("tracer init failed", "err", err)
			os.Exit(1)
		}

		defer func() {
			ctx, cancel := config.WithTimeout(5 * time.Second)
			defer cancel()
			_ = shutdownTracer(ctx)
		}()
	}

	prom := observability.NewProm(prometheus.DefaultRegisterer)

	tokens := auth.NewManager(cfg.JWTSecret, cfg.TokenTTL())

	deps, cleanup, err := buildBackend(cfg, log, tokens, prom)

	if err != nil {
		log.Error("backend setup failed", "err", err)
		os.Exit(1)
	}

	defer cleanup()

	deps.AuthLimiter = httpx.DefaultAuthLimiter(cfg, newCounterStore(cfg, log), log)

	router := httpx.NewRouter(log, cfg, deps)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("server starting", "port", cfg.Port, "env", cfg.Env, "backend", cfg.Backend)
		err := srv.ListenAndServe()

		if err != nil && err != http.ErrServerClosed {
			log.Error("server failed", "err", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	log.Info("server shutting down")

	shutdownCh := make(chan struct{})

	go func() {
		defer close(shutdownCh)

		ctx, cancel := config.WithTimeout(10 * time.Second)

		defer cancel()

		err := srv.Shutdown(ctx)

		if err != nil {
			log.Error("graceful shutdown failed", "err", err)

			return
		}
	}()

	select {
	case <-shutdownCh:
		log.Info("shutdown complete")

	case <-time.After(12 * time.Second):
		log.Error("shutdown timed out")
	}
}

// buildBackend wires the guard, stores and identity service for the
// configured backend. The returned cleanup closes whatever was opened.
func buildBackend(cfg config.Config, log *slog.Logger, tokens *auth.Manager, prom *observability.Prom) (httpx.Deps, func(), error) {
	if cfg.Backend == "memory" {
		store := memory.NewStore()
		// single shared connection, serialized by the guard's backend
		backend := session.NewExclusive(store.NewConn())
		guard := session.NewGuard(tokens, backend, log, prom)
		users := memory.NewUsersRepo(store)

		return httpx.Deps{
			Guard:    guard,
			Wishes:   memory.NewWishStore(),
			Identity: identity.NewService(users, users, tokens, guard),
			Prom:     prom,
		}, func() {}, nil
	}

	pool, err := db.NewPool(cfg.DBURL)

	if err != nil {
		return httpx.Deps{}, nil, fmt.Errorf("create pool: %w", err)
	}

	ctx, cancel := config.WithTimeout(30 * time.Second)
	defer cancel()

	if err := db.Migrate(ctx, cfg.DBURL); err != nil {
		pool.Close()
		return httpx.Deps{}, nil, fmt.Errorf("run migrations: %w", err)
	}

	if err := db.EnsureAdminUser(ctx, pool, cfg); err != nil {
		pool.Close()
		return httpx.Deps{}, nil, fmt.Errorf("ensure admin user: %w", err)
	}

	guard := session.NewGuard(tokens, postgres.NewBackend(pool), log, prom)
	users := postgres.NewUsersRepo(pool)

	ping := func(ctx context.Context) error {
		return pool.Ping(ctx)
	}

	return httpx.Deps{
		Guard:    guard,
		Wishes:   postgres.NewWishesRepo(),
		Identity: identity.NewService(users, users, tokens, guard),
		Prom:     prom,
		Ping:     ping,
	}, pool.Close, nil
}

func newCounterStore(cfg config.Config, log *slog.Logger) middlewares.CounterStore {
	if cfg.RedisAddr == "" {
		return middlewares.NewMemoryCounters()
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.RedisAddr,
		Password:     cfg.RedisPassword,
		DB:           cfg.RedisDB,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})

	log.Info("rate limiter using redis", "addr", cfg.RedisAddr)

	return middlewares.NewRedisCounters(rdb, "ratelimit:auth:")
}
