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

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/odyssey-erp/coopfinance/internal/app"
	"github.com/odyssey-erp/coopfinance/internal/auth"
	"github.com/odyssey-erp/coopfinance/internal/observability"
	"github.com/odyssey-erp/coopfinance/internal/platform/cache"
	"github.com/odyssey-erp/coopfinance/internal/platform/db"
	reportinghttp "github.com/odyssey-erp/coopfinance/internal/reporting/http"
	"github.com/odyssey-erp/coopfinance/jobs"
	"github.com/odyssey-erp/coopfinance/migrations"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping server startup")
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

	dbpool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	applied, err := db.Migrate(ctx, dbpool, migrations.FS)
	if err != nil {
		logger.Error("apply migrations", slog.Any("error", err))
		os.Exit(1)
	}
	if len(applied) > 0 {
		logger.Info("migrations applied", slog.Any("files", applied))
	}

	var redisClient *redis.Client
	if client, err := cache.New(ctx, cfg.RedisAddr); err != nil {
		logger.Warn("redis unavailable, erp invalidations stay local", slog.Any("error", err))
	} else {
		redisClient = client
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		}()
	}

	metrics := observability.NewMetrics()

	stack, err := app.BuildERP(app.ERPDeps{
		Config:     cfg,
		Logger:     logger,
		Pool:       dbpool,
		Redis:      redisClient,
		Registerer: metrics.Registerer(),
	})
	if err != nil {
		logger.Error("build erp stack", slog.Any("error", err))
		os.Exit(1)
	}
	if err := stack.Sessions.Listen(ctx, stack.Broadcaster); err != nil {
		logger.Warn("erp invalidation subscribe", slog.Any("error", err))
	}

	redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr}
	jobsClient, err := jobs.NewClient(redisOpts)
	if err != nil {
		logger.Error("init jobs client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobsClient.Close(); err != nil {
			logger.Warn("jobs client close", slog.Any("error", err))
		}
	}()

	inspector := asynq.NewInspector(redisOpts)
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	erpHandler := reportinghttp.NewHandler(logger, stack.Ledger, stack.Ratios, stack.Sessions, stack.Gateway, jobsClient)

	router := app.NewRouter(app.RouterParams{
		Logger:     logger,
		Config:     cfg,
		Auth:       auth.NewMiddleware([]byte(cfg.JWTSecret), logger),
		ERPHandler: erpHandler,
		JobHandler: jobHandler,
		Metrics:    metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
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
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
