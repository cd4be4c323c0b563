// cmd/server/main.go
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jason-s-yu/mau/internal/auth"
	"github.com/jason-s-yu/mau/internal/cache"
	"github.com/jason-s-yu/mau/internal/config"
	"github.com/jason-s-yu/mau/internal/database"
	"github.com/jason-s-yu/mau/internal/handlers"
	"github.com/sirupsen/logrus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("failed to load config: %v", err)
	}
	logger := cfg.NewLogger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore := openStore(ctx, cfg, logger)
	defer closeStore()

	rules, journal := cache.RuleStore(cache.NewMemoryRules()), cache.Journal(cache.NopJournal{})
	if cfg.RedisAddr != "" {
		rdb, err := cache.Connect(ctx, cfg.RedisAddr, cfg.RedisDB)
		if err != nil {
			logger.Fatalf("failed to connect to redis: %v", err)
		}
		defer rdb.Close()
		rules = cache.NewRedisRules(rdb)
		journal = cache.NewRedisJournal(rdb, cfg.QueueName)
		logger.Infof("using redis at %s", cfg.RedisAddr)
	} else {
		logger.Warn("REDIS_ADDR not set, keeping rules in memory and discarding the game journal")
	}

	var tokens *auth.TokenManager
	if cfg.PrivateKeyPath != "" && cfg.PublicKeyPath != "" {
		tokens, err = auth.NewTokenManagerFromPath(cfg.PrivateKeyPath, cfg.PublicKeyPath, cfg.TokenTTL)
	} else {
		logger.Warn("no JWT key paths set, generating an ephemeral key pair")
		tokens, err = auth.NewTokenManager(cfg.TokenTTL)
	}
	if err != nil {
		logger.Fatalf("failed to initialize tokens: %v", err)
	}

	gs := handlers.NewGameServer(store, rules, journal, tokens, logger)
	gs.TurnTimeout = cfg.TurnTimeout
	defer gs.Close()

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handlers.NewRouter(gs, cfg.CORSOrigins),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.WithError(err).Warn("graceful shutdown failed")
		}
	}()

	logger.Infof("Running on %s", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatalf("server exited: %v", err)
	}
	logger.Info("server stopped")
}

// openStore connects to Postgres when a database is configured and falls back to the
// in-memory store otherwise.
func openStore(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (database.Store, func()) {
	if cfg.DatabaseURL == "" {
		logger.Warn("no database configured, using the in-memory store")
		mem := database.NewMemory()
		return mem, mem.Close
	}
	pg, err := database.ConnectDB(ctx, cfg.DatabaseURL, logger)
	if err != nil {
		logger.Fatalf("failed to connect to database: %v", err)
	}
	if err := pg.Migrate(ctx); err != nil {
		logger.Fatalf("failed to migrate database: %v", err)
	}
	return pg, pg.Close
}
