package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
	"github.com/riverqueue/river/rivermigrate"
	"github.com/rs/cors"

	"github.com/worklane/backend/internal/auth"
	"github.com/worklane/backend/internal/config"
	"github.com/worklane/backend/internal/notify"
	"github.com/worklane/backend/internal/repository"
	"github.com/worklane/backend/internal/services"
)

func main() {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := newLogger(cfg.Log)
	slog.SetDefault(logger)

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, cfg.Database.URL)
	if err != nil {
		slog.Error("unable to create database pool", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		slog.Error("cannot reach PostgreSQL, ensure it is running (e.g. docker-compose up -d)", "error", err)
		os.Exit(1)
	}
	slog.Info("connected to PostgreSQL")

	if err := repository.EnsureSchema(ctx, pool); err != nil {
		slog.Error("schema setup failed", "error", err)
		os.Exit(1)
	}

	// River migrations
	migrator, err := rivermigrate.New(riverpgxv5.New(pool), nil)
	if err != nil {
		slog.Error("failed to create River migrator", "error", err)
		os.Exit(1)
	}
	if _, err := migrator.Migrate(ctx, rivermigrate.DirectionUp, nil); err != nil {
		slog.Error("River migrate up failed", "error", err)
		os.Exit(1)
	}

	// Repositories
	jobRepo := repository.NewJobRepo(pool)
	proposalRepo := repository.NewProposalRepo(pool)
	contractRepo := repository.NewContractRepo(pool)
	paymentRepo := repository.NewPaymentRepo(pool)
	notificationRepo := repository.NewNotificationRepo(pool)

	// Notification enqueue funcs are set after the River client exists
	// (breaks the init cycle between services and the worker pool).
	var insertMu sync.Mutex
	var insertTxFn services.EnqueueNotifyTxFunc
	var insertFn services.EnqueueNotifyFunc
	enqueueNotifyTx := func(ctx context.Context, tx pgx.Tx, args notify.Args) error {
		insertMu.Lock()
		fn := insertTxFn
		insertMu.Unlock()
		if fn == nil {
			panic("river insert not wired")
		}
		return fn(ctx, tx, args)
	}
	enqueueNotify := func(ctx context.Context, args notify.Args) error {
		insertMu.Lock()
		fn := insertFn
		insertMu.Unlock()
		if fn == nil {
			panic("river insert not wired")
		}
		return fn(ctx, args)
	}

	workers := river.NewWorkers()
	river.AddWorker(workers, notify.NewWorker(notificationRepo, logger))

	riverClient, err := river.NewClient(riverpgxv5.New(pool), &river.Config{
		Queues: map[string]river.QueueConfig{
			river.QueueDefault: {MaxWorkers: 10},
		},
		Workers: workers,
	})
	if err != nil {
		slog.Error("failed to create River client", "error", err)
		os.Exit(1)
	}

	insertMu.Lock()
	insertTxFn = func(ctx context.Context, tx pgx.Tx, args notify.Args) error {
		_, err := riverClient.InsertTx(ctx, tx, args, nil)
		return err
	}
	insertFn = func(ctx context.Context, args notify.Args) error {
		_, err := riverClient.Insert(ctx, args, nil)
		return err
	}
	insertMu.Unlock()

	// Auth
	authRepo := auth.NewRepository(pool)
	authSvc := auth.NewService(authRepo, cfg.Auth.JWTSecret, time.Duration(cfg.Auth.TokenExpireHours)*time.Hour)
	authHandler := auth.NewHandler(authSvc, logger)

	// Core services
	gateway := services.NewMockGateway(time.Duration(cfg.Gateway.LatencyMS)*time.Millisecond, cfg.Gateway.SuccessPercent)
	jobSvc := services.NewJobService(jobRepo)
	proposalSvc := services.NewProposalService(pool, proposalRepo, jobRepo)
	hiringSvc := services.NewHiringService(pool, jobRepo, proposalRepo, contractRepo, enqueueNotifyTx, logger)
	contractSvc := services.NewContractService(pool, contractRepo, jobRepo)
	escrowSvc := services.NewEscrowService(paymentRepo, contractRepo, gateway, time.Duration(cfg.Gateway.TimeoutSeconds)*time.Second, enqueueNotify, logger)

	mux := http.NewServeMux()
	RegisterRoutes(mux, authHandler, authSvc, jobSvc, proposalSvc, hiringSvc, contractSvc, escrowSvc, notificationRepo, logger)

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.Server.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}).Handler(mux)

	// Start River client (processes notification jobs)
	riverCtx, stopRiver := context.WithCancel(ctx)
	defer stopRiver()
	go func() {
		if err := riverClient.Start(riverCtx); err != nil && riverCtx.Err() == nil {
			slog.Error("River client stopped", "error", err)
		}
	}()

	addr := fmt.Sprintf("0.0.0.0:%d", cfg.Server.Port)
	slog.Info("starting HTTP server", "addr", addr)
	if err := http.ListenAndServe(addr, corsHandler); err != nil {
		slog.Error("HTTP server failed", "error", err)
		os.Exit(1)
	}
}

func newLogger(cfg config.LogConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "text" {
		return slog.New(slog.NewTextHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}
