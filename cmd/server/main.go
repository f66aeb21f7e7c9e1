package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/wishlist/account-service/internal/api"
	"github.com/wishlist/account-service/internal/api/handler"
	"github.com/wishlist/account-service/internal/core/ports"
	"github.com/wishlist/account-service/internal/core/service"
	"github.com/wishlist/account-service/internal/infrastructure/config"
	"github.com/wishlist/account-service/internal/infrastructure/db/memory"
	"github.com/wishlist/account-service/internal/infrastructure/db/mongo"
	"github.com/wishlist/account-service/internal/infrastructure/db/redis"
	"github.com/wishlist/account-service/internal/infrastructure/queue"
	"github.com/wishlist/account-service/internal/infrastructure/security"
	"github.com/wishlist/account-service/pkg/logger"
)

const (
	serviceName     = "account-service"
	shutdownTimeout = 10 * time.Second
)

// @title                       Wishlist Account Service API
// @version                     1.0
// @description                 User accounts, token sessions and role-gated administration.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Optional .env for local development.
	_ = godotenv.Load()

	cfg, err := config.Load(ctx)
	if err != nil {
		logger.Init(logger.Options{Service: serviceName}).Fatal().Err(err).Msg("load config")
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: serviceName,
	})

	if err := run(ctx, cfg, log); err != nil {
		log.Error().Err(err).Msg("server stopped with error")
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	mongoClient, db, err := mongo.Connect(ctx, mongo.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
		AppName:  serviceName,
	})
	if err != nil {
		return err
	}
	defer func() {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := mongoClient.Disconnect(disconnectCtx); err != nil {
			log.Error().Err(err).Msg("mongo disconnect")
		}
	}()

	users := mongo.NewUserDirectory(db)
	if err := users.EnsureIndexes(ctx); err != nil {
		return err
	}
	events := mongo.NewEventRepository(db)
	if err := events.EnsureIndexes(ctx); err != nil {
		return err
	}

	var (
		rdb   *goredis.Client
		store ports.SessionStore
	)
	if cfg.UsesRedis() {
		rdb, err = redis.Connect(ctx, redis.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return err
		}
		defer rdb.Close()
		store = redis.NewSessionStore(rdb)
	} else {
		mem := memory.NewSessionStore(cfg.Session.Shards)
		if cfg.Session.TTL > 0 {
			mem.StartSweeper(ctx, cfg.Session.SweepInterval, log)
		}
		store = mem
	}

	minter, err := newMinter(cfg.Session)
	if err != nil {
		return err
	}

	hasher := security.NewBcryptHasher(cfg.BcryptCost)
	tokens := service.NewTokenManager(store, minter, cfg.Session.TTL)
	gate := service.NewGate(tokens)

	// The dispatcher outlives ctx so that events queued during shutdown are
	// still drained into Mongo.
	dispatchCtx, cancelDispatch := context.WithCancel(context.Background())
	dispatcher := queue.NewAuditDispatcher(cfg.AuditWorkers, events, log)
	dispatcher.Start(dispatchCtx)
	defer func() {
		cancelDispatch()
		dispatcher.Wait()
	}()

	authService, err := service.NewAuthService(users, hasher, tokens, gate, dispatcher, log)
	if err != nil {
		return err
	}
	adminService := service.NewAdminService(users, hasher, tokens, gate, dispatcher, events, log, service.AdminOptions{
		RevokeOnRoleChange: cfg.Session.RevokeOnRoleChange,
	})

	if cfg.Bootstrap.AdminUsername != "" {
		if _, err := service.EnsureAdmin(ctx, users, hasher, cfg.Bootstrap.AdminUsername, cfg.Bootstrap.AdminPassword, log); err != nil {
			return err
		}
	}

	e := api.NewRouter(api.Dependencies{
		Auth:        authService,
		Admin:       adminService,
		Gate:        gate,
		Health:      handler.NewHealthHandler(db, rdb),
		Log:         log,
		TokenHeader: cfg.Session.TokenHeader,
	})

	errCh := make(chan error, 1)
	go func() {
		log.Info().
			Str("port", cfg.Port).
			Str("session_backend", cfg.Session.Backend).
			Str("token_format", cfg.Session.TokenFormat).
			Dur("session_ttl", cfg.Session.TTL).
			Msg("starting http server")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		return err
	}
	log.Info().Msg("http server stopped")
	return nil
}

func newMinter(cfg config.SessionConfig) (ports.TokenMinter, error) {
	if cfg.TokenFormat == config.TokenFormatSigned {
		return security.NewSignedMinter(cfg.TokenSigningKey)
	}
	return security.NewRandomMinter(), nil
}
