package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/blaze-wallet/blaze_wallet/internal/config"
	"github.com/blaze-wallet/blaze_wallet/internal/identstore"
	"github.com/blaze-wallet/blaze_wallet/internal/infra"
	"github.com/blaze-wallet/blaze_wallet/internal/journal"
	"github.com/blaze-wallet/blaze_wallet/internal/logging"
	"github.com/blaze-wallet/blaze_wallet/internal/routes"
	"github.com/blaze-wallet/blaze_wallet/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.LogLevel)

	ctx := context.Background()

	var store identstore.Store
	if cfg.QdrantURL != "" {
		qdrant := identstore.NewQdrantStore(cfg.QdrantURL, cfg.QdrantAPIKey, cfg.QdrantCollection, cfg.StoreTimeout)
		if err := qdrant.EnsureCollection(ctx); err != nil {
			logger.Error("ensure qdrant collection", "error", err)
			os.Exit(1)
		}
		store = qdrant
	} else {
		logger.Warn("QDRANT_URL empty, using in-memory identity store")
		store = identstore.NewMemoryStore()
	}

	var db *pgxpool.Pool
	if cfg.DatabaseURL != "" {
		db, err = infra.NewPostgresPool(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Error("connect postgres", "error", err)
			os.Exit(1)
		}
		defer db.Close()

		if err := journal.NewPostgresJournal(db).EnsureSchema(ctx); err != nil {
			logger.Error("ensure journal schema", "error", err)
			os.Exit(1)
		}
	} else {
		logger.Warn("DATABASE_URL empty, transfer journal is in-memory")
	}

	var cache *redis.Client
	if cfg.RedisURL != "" {
		cache, err = infra.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			logger.Error("connect redis", "error", err)
			os.Exit(1)
		}
		defer func() {
			if err := cache.Close(); err != nil {
				logger.Warn("close redis", "error", err)
			}
		}()
	}

	srv, err := server.New(routes.Deps{Cfg: cfg, Store: store, DB: db, Cache: cache, Logger: logger})
	if err != nil {
		logger.Error("build server", "error", err)
		os.Exit(1)
	}

	srvErrCh := make(chan error, 1)
	go func() {
		srvErrCh <- srv.Listen()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("shutdown signal received", "signal", sig.String())
	case err := <-srvErrCh:
		if err != nil {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
		return
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownPeriod)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
		os.Exit(1)
	}

	logger.Info("server exited cleanly")
}
