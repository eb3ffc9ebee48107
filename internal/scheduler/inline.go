package scheduler

import (
	"context"

	"crmhub_backend/platform/logger"
)

// InlineDispatcher runs tasks in-process instead of enqueueing them. It is
// the fallback when Redis is not configured: webhook handlers still return
// immediately and the work runs in a goroutine.
type InlineDispatcher struct {
	export ExportRunner
	orders OrderProcessor
	log    *logger.Logger
}

func NewInlineDispatcher(export ExportRunner, orders OrderProcessor, log *logger.Logger) *InlineDispatcher {
	return &InlineDispatcher{export: export, orders: orders, log: log}
}

func (d *InlineDispatcher) DispatchExport(_ context.Context, payload ExportReconcilePayload) error {
	go func() {
		d.log.Info("running export inline", "requested_by", payload.RequestedBy)
		if err := d.export.Run(context.Background()); err != nil {
			d.log.Error("inline export failed", "error", err)
		}
	}()
	return nil
}

func (d *InlineDispatcher) DispatchMarketOrder(_ context.Context, payload MarketOrderPayload) error {
	go func() {
		if err := d.orders.HandleOrder(context.Background(), payload.OrderID); err != nil {
			d.log.Error("inline order processing failed", "order_id", payload.OrderID, "error", err)
		}
	}()
	return nil
}

var _ Dispatcher = (*InlineDispatcher)(nil)
var _ Dispatcher = (*Client)(nil)
