package scheduler

import (
	"context"
	"fmt"

	"crmhub_backend/platform/config"
	"crmhub_backend/platform/logger"

	"github.com/hibiken/asynq"
)

// ExportRunner runs one reconciliation export end to end.
type ExportRunner interface {
	Run(ctx context.Context) error
}

// OrderProcessor turns one marketplace order into CRM entities.
type OrderProcessor interface {
	HandleOrder(ctx context.Context, orderID int64) error
}

type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	export ExportRunner
	orders OrderProcessor
	log    *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, export ExportRunner, orders OrderProcessor, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL)
	if err != nil {
		return nil, err
	}

	queue := cfg.GetAsynqQueueName()
	if queue == "" {
		queue = "default"
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queue: 1,
		},
	})

	mux := asynq.NewServeMux()
	w := &Worker{
		server: server,
		mux:    mux,
		export: export,
		orders: orders,
		log:    log,
	}

	mux.HandleFunc(TaskExportReconcile, w.handleExportReconcile)
	mux.HandleFunc(TaskMarketOrder, w.handleMarketOrder)

	return w, nil
}

func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}

func (w *Worker) handleExportReconcile(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseExportReconcilePayload(task)
	if err != nil {
		return err
	}

	w.log.Info("export task picked up", "requested_by", payload.RequestedBy)
	return w.export.Run(ctx)
}

func (w *Worker) handleMarketOrder(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseMarketOrderPayload(task)
	if err != nil {
		return err
	}

	if payload.OrderID == 0 {
		w.log.Warn("market order task without order id")
		return nil
	}

	return w.orders.HandleOrder(ctx, payload.OrderID)
}
