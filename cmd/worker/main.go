package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"crmhub_backend/internal/amocrm"
	"crmhub_backend/internal/export"
	"crmhub_backend/internal/market"
	"crmhub_backend/internal/orders"
	"crmhub_backend/internal/reconcile"
	"crmhub_backend/internal/scheduler"
	"crmhub_backend/internal/sheets"
	"crmhub_backend/internal/telegram"
	"crmhub_backend/platform/config"
	"crmhub_backend/platform/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting worker", "env", cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	notifier, err := telegram.NewClient(cfg, log)
	if err != nil {
		log.Error("failed to initialize telegram client", "error", err)
		panic("failed to initialize telegram client: " + err.Error())
	}

	crm := amocrm.New(cfg, cfg, log)
	engine := reconcile.NewEngine(log)
	sink := sheets.NewClient(cfg, log)
	if sink == nil {
		log.Warn("SHEETS_WEBHOOK_URL not configured; export delivery disabled")
	}

	exportSvc := export.NewService(crm, sink, notifier, engine, log)

	marketClient := market.NewClient(cfg, log)
	orderSvc := orders.NewService(marketClient, crm, notifier, orders.SKUMap(cfg.GetMarketSKUMap()), log)

	worker, err := scheduler.NewWorker(cfg, exportSvc, orderSvc, log)
	if err != nil {
		log.Error("failed to initialize worker", "error", err)
		panic("failed to initialize worker: " + err.Error())
	}

	worker.Run(ctx)
	log.Info("worker stopped")
}
