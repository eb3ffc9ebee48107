package webhook

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"crmhub_backend/internal/balance"
	apphttp "crmhub_backend/internal/http"
	"crmhub_backend/internal/scheduler"
	"crmhub_backend/internal/visits"
	"crmhub_backend/platform/logger"
	"crmhub_backend/platform/validator"
)

type fakeApplier struct {
	applied []balance.LedgerEntry
	err     error
}

func (f *fakeApplier) Apply(_ context.Context, entry balance.LedgerEntry) error {
	f.applied = append(f.applied, entry)
	return f.err
}

type fakeDispatcher struct {
	exports []scheduler.ExportReconcilePayload
	orders  []scheduler.MarketOrderPayload
	err     error
}

func (f *fakeDispatcher) DispatchExport(_ context.Context, p scheduler.ExportReconcilePayload) error {
	if f.err != nil {
		return f.err
	}
	f.exports = append(f.exports, p)
	return nil
}

func (f *fakeDispatcher) DispatchMarketOrder(_ context.Context, p scheduler.MarketOrderPayload) error {
	if f.err != nil {
		return f.err
	}
	f.orders = append(f.orders, p)
	return nil
}

type fakeVisitStore struct {
	inserted []visits.Visit
}

func (f *fakeVisitStore) Insert(_ context.Context, v visits.Visit) error {
	f.inserted = append(f.inserted, v)
	return nil
}

func newTestRouter(applier BalanceApplier, dispatcher scheduler.Dispatcher, store VisitStore) *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	module := NewModule(applier, dispatcher, store, validator.New(), logger.New("development"))
	module.RegisterRoutes(&apphttp.RouterContext{Engine: engine, Root: engine.Group("/")})
	return engine
}

func TestHandleBonusLedger(t *testing.T) {
	applier := &fakeApplier{}
	router := newTestRouter(applier, &fakeDispatcher{}, nil)

	body := ledgerForm().Encode()
	req := httptest.NewRequest(http.MethodPost, "/webhooks/bonus-ledger", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(applier.applied) != 1 {
		t.Fatalf("expected 1 applied entry, got %d", len(applier.applied))
	}
	if applier.applied[0].CustomerID != 7 {
		t.Fatalf("unexpected entry: %+v", applier.applied[0])
	}
}

func TestHandleBonusLedgerProcessingFailureStill200(t *testing.T) {
	applier := &fakeApplier{err: context.DeadlineExceeded}
	router := newTestRouter(applier, &fakeDispatcher{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/webhooks/bonus-ledger", strings.NewReader(ledgerForm().Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("processing failures must not leak into the response, got %d", rec.Code)
	}
}

func TestHandleBonusLedgerBadForm(t *testing.T) {
	router := newTestRouter(&fakeApplier{}, &fakeDispatcher{}, nil)

	form := ledgerForm()
	form.Set(ledgerFieldKey(0), "not-a-number")
	req := httptest.NewRequest(http.MethodPost, "/webhooks/bonus-ledger", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed event, got %d", rec.Code)
	}
}

func TestHandleExportQueues(t *testing.T) {
	dispatcher := &fakeDispatcher{}
	router := newTestRouter(&fakeApplier{}, dispatcher, nil)

	req := httptest.NewRequest(http.MethodPost, "/webhooks/export", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", rec.Code)
	}
	if len(dispatcher.exports) != 1 {
		t.Fatalf("expected 1 dispatched export, got %d", len(dispatcher.exports))
	}
}

func TestHandleExportQueueDown(t *testing.T) {
	dispatcher := &fakeDispatcher{err: context.DeadlineExceeded}
	router := newTestRouter(&fakeApplier{}, dispatcher, nil)

	req := httptest.NewRequest(http.MethodPost, "/webhooks/export", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 when queue is down, got %d", rec.Code)
	}
}

func TestHandleMarketOrder(t *testing.T) {
	dispatcher := &fakeDispatcher{}
	router := newTestRouter(&fakeApplier{}, dispatcher, nil)

	req := httptest.NewRequest(http.MethodPost, "/webhooks/market/order", strings.NewReader(`{"order":{"id":12345}}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(dispatcher.orders) != 1 || dispatcher.orders[0].OrderID != 12345 {
		t.Fatalf("expected dispatched order 12345, got %+v", dispatcher.orders)
	}
}

func TestHandleMarketOrderMissingID(t *testing.T) {
	router := newTestRouter(&fakeApplier{}, &fakeDispatcher{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/webhooks/market/order", strings.NewReader(`{"order":{}}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing order id, got %d", rec.Code)
	}
}

func TestHandleTrackVisit(t *testing.T) {
	store := &fakeVisitStore{}
	router := newTestRouter(&fakeApplier{}, &fakeDispatcher{}, store)

	req := httptest.NewRequest(http.MethodPost, "/track/visit?utm_source=yandex&utm_campaign=spring&block=hero", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(store.inserted) != 1 {
		t.Fatalf("expected 1 stored visit, got %d", len(store.inserted))
	}
	v := store.inserted[0]
	if v.UTMSource != "yandex" || v.UTMCampaign != "spring" || v.Block != "hero" {
		t.Fatalf("attribution not carried: %+v", v)
	}
}

func TestHandleTrackVisitDisabled(t *testing.T) {
	router := newTestRouter(&fakeApplier{}, &fakeDispatcher{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/track/visit", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 when tracking is disabled, got %d", rec.Code)
	}
}
