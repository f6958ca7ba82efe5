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

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/bifrost-travel/bifrost-api/internal/api"
	"github.com/bifrost-travel/bifrost-api/internal/cache"
	"github.com/bifrost-travel/bifrost-api/internal/provider"
	"github.com/bifrost-travel/bifrost-api/internal/storage"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	if err := run(log); err != nil {
		log.Error("server exited with error", "err", err)
		os.Exit(1)
	}
}

func run(log *slog.Logger) error {
	if err := godotenv.Load(); err != nil {
		log.Info("no .env file found, using environment variables")
	}

	databaseURL := os.Getenv("DATABASE_URL")
	redisURL := os.Getenv("REDIS_URL")
	routesKey := os.Getenv("GOOGLE_ROUTES_API_KEY")
	placesKey := os.Getenv("GOOGLE_PLACES_API_KEY")
	plannerURL := os.Getenv("PLANNER_BASE_URL")
	plannerKey := os.Getenv("PLANNER_API_KEY")
	port := getEnv("PORT", "8080")

	ctx := context.Background()

	// Plan store: PostgreSQL when configured, in-memory otherwise.
	var planStore api.PlanStore
	var dbPing api.Pinger
	if databaseURL != "" {
		pool, err := storage.Connect(ctx, databaseURL)
		if err != nil {
			return fmt.Errorf("connecting to database: %w", err)
		}
		defer pool.Close()

		if err := storage.RunMigrations(ctx, pool, "migrations"); err != nil {
			return fmt.Errorf("running migrations: %w", err)
		}
		log.Info("migrations applied")

		planStore = storage.NewPlanRepository(pool)
		dbPing = &pgxPoolPinger{pool: pool}
	} else {
		log.Info("DATABASE_URL not set, using in-memory plan store")
		planStore = storage.NewMemoryPlanRepository()
	}

	// Response cache: Redis when configured and reachable, noop otherwise.
	var responseCache api.ResponseCache = cache.Noop{}
	var redisPing api.Pinger
	if redisURL != "" {
		client, err := cache.Connect(ctx, redisURL)
		if err != nil {
			log.Warn("redis unavailable, response caching disabled", "err", err)
		} else {
			defer func() { _ = client.Close() }()
			responseCache = cache.NewCache(client)
			redisPing = &redisPingerAdapter{client: client}
		}
	} else {
		log.Info("REDIS_URL not set, response caching disabled")
	}

	// Wire the capability adapters. Unconfigured credentials mean the
	// adapter serves its deterministic fallback.
	handlers := api.NewHandlers(
		provider.NewRoutesAdapter(routesKey),
		provider.NewPlacesAdapter(placesKey),
		provider.NewPlannerAdapter(plannerURL, plannerKey),
		planStore,
		responseCache,
		log,
	)

	router := api.NewRouter(handlers, dbPing, redisPing, log)

	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown on SIGINT / SIGTERM.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		log.Info("server starting", "port", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("listening: %w", err)
		}
	}()

	select {
	case sig := <-quit:
		log.Info("shutdown signal received", "signal", sig)
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}

	log.Info("server shut down cleanly")
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// pgxPoolPinger adapts pgxpool.Pool to the api.Pinger interface.
type pgxPoolPinger struct {
	pool interface {
		Ping(ctx context.Context) error
	}
}

func (p *pgxPoolPinger) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

// redisPingerAdapter adapts redis.Client to the api.Pinger interface.
type redisPingerAdapter struct {
	client *redis.Client
}

func (r *redisPingerAdapter) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
