// Package export runs the full reconciliation export: pull leads and
// contacts from the CRM, join and enrich them, push the rows to the sheet.
package export

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"crmhub_backend/internal/reconcile"
	"crmhub_backend/platform/logger"
)

type CRMSource interface {
	FetchShippedLeads(ctx context.Context) ([]reconcile.Lead, error)
	FetchContacts(ctx context.Context) ([]reconcile.Contact, error)
}

type RowSink interface {
	Push(ctx context.Context, requestID string, rows []reconcile.Row) error
}

type Notifier interface {
	Notify(ctx context.Context, text string) error
}

type Service struct {
	crm      CRMSource
	sink     RowSink
	notifier Notifier
	engine   *reconcile.Engine
	log      *logger.Logger
}

func NewService(crm CRMSource, sink RowSink, notifier Notifier, engine *reconcile.Engine, log *logger.Logger) *Service {
	return &Service{
		crm:      crm,
		sink:     sink,
		notifier: notifier,
		engine:   engine,
		log:      log,
	}
}

// Run executes one export end to end. Leads and contacts are fetched
// concurrently since the CRM client serializes requests anyway and the
// two listings are independent.
func (s *Service) Run(ctx context.Context) error {
	requestID := uuid.NewString()
	s.log.Info("export started", "request_id", requestID)

	var (
		leads    []reconcile.Lead
		contacts []reconcile.Contact
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		leads, err = s.crm.FetchShippedLeads(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		contacts, err = s.crm.FetchContacts(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return s.report(ctx, requestID, fmt.Errorf("fetch CRM data: %w", err))
	}

	records := reconcile.Join(leads, contacts)
	records = s.engine.Reconcile(records)
	rows := reconcile.Rows(records)

	if err := s.sink.Push(ctx, requestID, rows); err != nil {
		return s.report(ctx, requestID, fmt.Errorf("deliver rows: %w", err))
	}

	s.log.Info("export finished", "request_id", requestID, "rows", len(rows))
	return nil
}

// report logs the failure and tells the operator, then returns the cause.
func (s *Service) report(ctx context.Context, requestID string, cause error) error {
	s.log.Error("export failed", "request_id", requestID, "error", cause)

	text := fmt.Sprintf(
		"❌ <b>Выгрузка в таблицу не выполнена</b>\nЗапрос: <code>%s</code>\nОшибка: %v",
		requestID, cause,
	)
	if s.notifier != nil {
		if err := s.notifier.Notify(ctx, text); err != nil {
			s.log.Error("failed to notify operator", "error", err)
		}
	}
	return cause
}
