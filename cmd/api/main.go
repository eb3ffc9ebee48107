package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"crmhub_backend/internal/amocrm"
	"crmhub_backend/internal/balance"
	"crmhub_backend/internal/export"
	apphttp "crmhub_backend/internal/http"
	"crmhub_backend/internal/market"
	"crmhub_backend/internal/orders"
	"crmhub_backend/internal/reconcile"
	"crmhub_backend/internal/scheduler"
	"crmhub_backend/internal/sheets"
	"crmhub_backend/internal/telegram"
	"crmhub_backend/internal/visits"
	"crmhub_backend/internal/webhook"
	"crmhub_backend/platform/config"
	"crmhub_backend/platform/db"
	"crmhub_backend/platform/logger"
	"crmhub_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// Initialize structured logger
	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	var pool *pgxpool.Pool
	var health apphttp.HealthChecker
	if cfg.IsDatabaseEnabled() {
		if err := withRetry(ctx, log, "database migrations", 5, 2*time.Second, func() error {
			return db.RunMigrations(ctx, cfg)
		}); err != nil {
			log.Error("failed to run database migrations", "error", err)
			panic("failed to run database migrations: " + err.Error())
		}
		log.Info("database migrations complete")

		if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
			p, err := db.NewPool(ctx, cfg)
			if err != nil {
				return err
			}
			pool = p
			return nil
		}); err != nil {
			log.Error("failed to connect to database", "error", err)
			panic("failed to connect to database: " + err.Error())
		}
		defer pool.Close()
		health = db.NewPoolAdapter(pool)
		log.Info("database connection established")
	} else {
		log.Warn("DATABASE_URL not configured; visit tracking disabled")
	}

	notifier, err := telegram.NewClient(cfg, log)
	if err != nil {
		log.Error("failed to initialize telegram client", "error", err)
		panic("failed to initialize telegram client: " + err.Error())
	}

	crm := amocrm.New(cfg, cfg, log)

	// Background work goes through Redis when available, or runs in-process
	// goroutines otherwise.
	var dispatcher scheduler.Dispatcher
	if cfg.IsSchedulerEnabled() {
		dispatchClient, err := scheduler.NewClient(cfg)
		if err != nil {
			log.Error("failed to initialize scheduler client", "error", err)
			panic("failed to initialize scheduler client: " + err.Error())
		}
		defer func() { _ = dispatchClient.Close() }()
		dispatcher = dispatchClient
	} else {
		log.Warn("REDIS_URL not configured; background tasks run in-process")
		engine := reconcile.NewEngine(log)
		sink := sheets.NewClient(cfg, log)
		exportSvc := export.NewService(crm, sink, notifier, engine, log)
		marketClient := market.NewClient(cfg, log)
		orderSvc := orders.NewService(marketClient, crm, notifier, orders.SKUMap(cfg.GetMarketSKUMap()), log)
		dispatcher = scheduler.NewInlineDispatcher(exportSvc, orderSvc, log)
	}

	val := validator.New()

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	balanceSvc := balance.NewService(crm, notifier, balance.Fields{
		CleanPrice:   cfg.GetFieldCleanPrice(),
		BonusBalance: cfg.GetFieldBonusBalance(),
	}, crm.BaseURL(), log)

	var visitStore webhook.VisitStore
	if pool != nil {
		visitStore = visits.NewRepository(pool, log)
	}

	webhookModule := webhook.NewModule(balanceSvc, dispatcher, visitStore, val, log)

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config: cfg,
		Logger: log,
		Health: health,
		Modules: []apphttp.Module{
			webhookModule,
		},
	}

	engine := apphttp.NewRouter(app)

	srvErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		srvErr <- engine.Run(cfg.HTTPAddr)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, gracefully shutting down")
	case err := <-srvErr:
		if err != nil {
			log.Error("server error", "error", err)
			panic("server error: " + err.Error())
		}
	}
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return fmt.Errorf("%s: invalid retry attempts", name)
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}
