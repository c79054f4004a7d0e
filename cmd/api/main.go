package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ambulance-list/internal/config"
	"ambulance-list/internal/logger"
	"ambulance-list/internal/provider"
	"ambulance-list/internal/store"
	"ambulance-list/internal/view"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.ValidateView(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	zl, err := logger.NewLogger(cfg.Log.Level, cfg.Log.Format, "ambulance-list-api")
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer zl.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	b, err := buildBackend(ctx, cfg, zl)
	if err != nil {
		zl.Fatal("Failed to set up transport provider", zap.Error(err))
	}
	defer b.cleanup()

	v, err := view.NewTransportListView(view.Config{
		DepartmentID: cfg.DepartmentID,
		APIBase:      cfg.APIBase,
	}, b.fetcher, zl)
	if err != nil {
		zl.Fatal("Invalid transport list configuration", zap.Error(err))
	}
	defer v.Close()

	// A failed first load is shown in the page; it is not fatal.
	refreshCtx, cancel := context.WithTimeout(ctx, refreshTimeout)
	if err := v.Refresh(refreshCtx); err != nil {
		zl.Warn("Initial transport load failed", zap.Error(err))
	}
	cancel()

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           (&server{view: v, store: b.store, cache: b.cache, logger: zl}).routes(),
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	zl.Info("API/UI server started",
		zap.String("port", cfg.Port),
		zap.String("department_id", cfg.DepartmentID),
		zap.String("provider", cfg.Provider),
	)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		zl.Fatal("Server failed", zap.Error(err))
	}
}

// backend is the transport source the server reads and writes. store and
// cache stay nil unless Postgres and Redis are configured.
type backend struct {
	fetcher view.TransportFetcher
	store   TransportStore
	cache   CacheInvalidator
	cleanup func()
}

// buildBackend wires the configured transport source, wrapped in the Redis
// cache when REDIS_ADDR is set and CACHE_TTL_SECONDS is positive.
func buildBackend(ctx context.Context, cfg *config.Config, zl *zap.Logger) (*backend, error) {
	var closers []func()
	b := &backend{cleanup: func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}}

	var upstream provider.Fetcher
	switch cfg.Provider {
	case "postgres":
		conn, err := store.Open(ctx, &cfg.Database)
		if err != nil {
			return nil, err
		}
		closers = append(closers, func() { conn.Close() })
		pg := store.NewPostgresStore(conn, zl)
		upstream = pg
		b.store = pg
	default:
		upstream = provider.NewHTTPProvider(cfg.APIBase, zl)
	}
	b.fetcher = upstream

	if cfg.Redis.Addr == "" {
		return b, nil
	}
	if cfg.Redis.TTL <= 0 {
		zl.Info("Transport cache disabled", zap.Duration("ttl", cfg.Redis.TTL))
		return b, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	closers = append(closers, func() { client.Close() })
	if err := client.Ping(ctx).Err(); err != nil {
		zl.Warn("Redis unreachable, serving without cache", zap.Error(err))
		return b, nil
	}
	cache := provider.NewCachingProvider(upstream, provider.NewRedisKVStore(client), cfg.Redis.TTL, zl)
	b.fetcher = cache
	b.cache = cache
	return b, nil
}
