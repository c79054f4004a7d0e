package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"ambulance-list/internal/config"
	"ambulance-list/internal/logger"
	"ambulance-list/internal/provider"
	"ambulance-list/internal/store"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zl, err := logger.NewLogger(cfg.Log.Level, cfg.Log.Format, "ambulance-list-refresher")
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer zl.Sync()

	if cfg.Redis.Addr == "" {
		zl.Fatal("REDIS_ADDR is required for the refresher")
	}
	if cfg.Redis.TTL <= 0 {
		zl.Fatal("CACHE_TTL_SECONDS must be positive for the refresher")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var upstream provider.Fetcher
	switch cfg.Provider {
	case "postgres":
		conn, err := store.Open(ctx, &cfg.Database)
		if err != nil {
			zl.Fatal("Failed to connect to database", zap.Error(err))
		}
		defer conn.Close()
		upstream = store.NewPostgresStore(conn, zl)
	default:
		upstream = provider.NewHTTPProvider(cfg.APIBase, zl)
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer client.Close()
	if err := client.Ping(ctx).Err(); err != nil {
		zl.Fatal("Failed to connect to Redis", zap.Error(err))
	}

	cache := provider.NewCachingProvider(upstream, provider.NewRedisKVStore(client), cfg.Redis.TTL, zl)

	zl.Info("Transport refresher started",
		zap.Strings("departments", cfg.Refresh.Departments),
		zap.Duration("interval", cfg.Refresh.Interval),
	)
	run(ctx, cache, cfg.Refresh.Departments, cfg.Refresh.Interval, zl)
	zl.Info("Transport refresher stopped")
}
