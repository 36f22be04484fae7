package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/agrodash/agrodash/internal/accounts"
	"github.com/agrodash/agrodash/internal/app"
	"github.com/agrodash/agrodash/internal/identity"
	"github.com/agrodash/agrodash/internal/observability"
	"github.com/agrodash/agrodash/internal/platform/cache"
	"github.com/agrodash/agrodash/internal/platform/db"
	"github.com/agrodash/agrodash/internal/platform/dynamo"
	"github.com/agrodash/agrodash/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)
	if err := run(ctx, stop, cfg, logger); err != nil {
		logger.Error("agrodash", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(ctx context.Context, stop context.CancelFunc, cfg *app.Config, logger *slog.Logger) error {
	metrics := observability.NewMetrics()

	store, closeStore, err := buildStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	verifier, err := buildVerifier(ctx, cfg)
	if err != nil {
		return err
	}

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis unavailable, account cache and events disabled", slog.Any("error", err))
		redisClient = nil
	}
	defer func() {
		if redisClient == nil {
			return
		}
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	var (
		publisher  accounts.Publisher
		jobHandler *jobs.Handler
	)
	if redisClient != nil {
		redisOpt := asynq.RedisClientOpt{Addr: cfg.RedisAddr}
		queueClient := asynq.NewClient(redisOpt)
		defer func() {
			if err := queueClient.Close(); err != nil {
				logger.Warn("queue client close", slog.Any("error", err))
			}
		}()
		inspector := asynq.NewInspector(redisOpt)
		defer func() {
			if err := inspector.Close(); err != nil {
				logger.Warn("inspector close", slog.Any("error", err))
			}
		}()
		publisher = jobs.NewAccountEvents(queueClient)
		jobHandler = jobs.NewHandler(inspector, logger)
	}

	accountCache := accounts.NewCache(redisClient, cfg.AccountCacheTTL, logger)
	accountService := accounts.NewService(store, accountCache, publisher, logger)
	gate := identity.Gate{Verifier: verifier, Logger: logger, Recorder: metrics}
	accountHandler := accounts.NewHandler(logger, accountService, gate.Require, metrics)

	router := app.NewRouter(app.RouterParams{
		Logger:          logger,
		Config:          cfg,
		AccountsHandler: accountHandler,
		JobHandler:      jobHandler,
		Metrics:         metrics,
		RequestLogging:  true,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server",
			slog.String("addr", cfg.AppAddr),
			slog.String("store", cfg.StoreDriver),
			slog.String("identity", cfg.IdentityProvider),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	return nil
}

func buildStore(ctx context.Context, cfg *app.Config, logger *slog.Logger) (accounts.Store, func(), error) {
	switch cfg.StoreDriver {
	case app.StorePostgres:
		pool, err := db.New(ctx, cfg.PGDSN, cfg.PGMaxConns)
		if err != nil {
			return nil, nil, err
		}
		store := accounts.NewPostgresStore(pool)
		if err := store.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, nil, err
		}
		return store, pool.Close, nil
	default:
		client, err := dynamo.New(ctx, dynamo.Options{
			Region:          cfg.DBRegion,
			AccessKeyID:     cfg.DBAccessKeyID,
			SecretAccessKey: cfg.DBSecretKey,
			Endpoint:        cfg.DynamoEndpoint,
		})
		if err != nil {
			return nil, nil, err
		}
		logger.Debug("dynamodb tables",
			slog.String("users", cfg.UserTableName),
			slog.String("profiles", cfg.ProfileTableName),
		)
		store := accounts.NewDynamoStore(client, accounts.DynamoTables{
			Users:    cfg.UserTableName,
			Profiles: cfg.ProfileTableName,
		})
		return store, func() {}, nil
	}
}

func buildVerifier(ctx context.Context, cfg *app.Config) (identity.Verifier, error) {
	switch cfg.IdentityProvider {
	case app.IdentityLocal:
		return identity.NewLocalVerifier(cfg.LocalTokenSecret)
	default:
		return identity.NewFirebaseVerifier(ctx, identity.FirebaseConfig{
			ProjectID: cfg.FirebaseProjectID,
			JWKSURL:   cfg.FirebaseJWKSURL,
		})
	}
}
