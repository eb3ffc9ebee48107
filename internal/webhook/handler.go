package webhook

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"crmhub_backend/internal/balance"
	"crmhub_backend/internal/scheduler"
	"crmhub_backend/internal/visits"
	"crmhub_backend/platform/httpkit"
	"crmhub_backend/platform/logger"
	"crmhub_backend/platform/validator"
)

// BalanceApplier folds one ledger entry into the customer balance.
type BalanceApplier interface {
	Apply(ctx context.Context, entry balance.LedgerEntry) error
}

// VisitStore persists landing-page visits.
type VisitStore interface {
	Insert(ctx context.Context, v visits.Visit) error
}

// Handler handles inbound webhook HTTP requests.
type Handler struct {
	balances   BalanceApplier
	dispatcher scheduler.Dispatcher
	visits     VisitStore
	val        *validator.Validator
	log        *logger.Logger
}

func NewHandler(balances BalanceApplier, dispatcher scheduler.Dispatcher, visitStore VisitStore, val *validator.Validator, log *logger.Logger) *Handler {
	return &Handler{
		balances:   balances,
		dispatcher: dispatcher,
		visits:     visitStore,
		val:        val,
		log:        log,
	}
}

// HandleBonusLedger processes one CRM bonus-ledger event.
// POST /webhooks/bonus-ledger
//
// The CRM retries on non-200 responses, so once the event parses the
// response is 200 regardless of the processing outcome; failures reach the
// operator through the notification channel instead.
func (h *Handler) HandleBonusLedger(c *gin.Context) {
	if err := c.Request.ParseForm(); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "malformed form body", nil)
		return
	}

	entry, err := parseLedgerForm(c.Request.PostForm)
	if httpkit.HandleError(c, err) {
		return
	}

	_ = h.balances.Apply(c.Request.Context(), entry)
	httpkit.OK(c, gin.H{"status": "processed"})
}

// HandleExport queues one reconciliation export run.
// POST /webhooks/export
func (h *Handler) HandleExport(c *gin.Context) {
	payload := scheduler.ExportReconcilePayload{RequestedBy: c.ClientIP()}
	if err := h.dispatcher.DispatchExport(c.Request.Context(), payload); err != nil {
		h.log.Error("failed to dispatch export", "error", err)
		httpkit.Error(c, http.StatusServiceUnavailable, "export queue unavailable", nil)
		return
	}

	httpkit.Accepted(c, gin.H{"status": "queued"})
}

// HandleMarketOrder queues processing of one new marketplace order.
// POST /webhooks/market/order
func (h *Handler) HandleMarketOrder(c *gin.Context) {
	var req marketOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "validation error", err.Error())
		return
	}

	payload := scheduler.MarketOrderPayload{OrderID: req.Order.ID}
	if err := h.dispatcher.DispatchMarketOrder(c.Request.Context(), payload); err != nil {
		h.log.Error("failed to dispatch market order", "order_id", req.Order.ID, "error", err)
		httpkit.Error(c, http.StatusServiceUnavailable, "order queue unavailable", nil)
		return
	}

	httpkit.Accepted(c, gin.H{"status": "queued"})
}

// HandleTrackVisit stores one landing-page visit with its attribution.
// POST /track/visit
func (h *Handler) HandleTrackVisit(c *gin.Context) {
	if h.visits == nil {
		httpkit.Error(c, http.StatusServiceUnavailable, "visit tracking disabled", nil)
		return
	}

	var req visitRequest
	if err := c.ShouldBind(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "validation error", err.Error())
		return
	}

	visit := visits.Visit{
		UTMSource:   req.UTMSource,
		UTMMedium:   req.UTMMedium,
		UTMCampaign: req.UTMCampaign,
		UTMContent:  req.UTMContent,
		UTMTerm:     req.UTMTerm,
		YclID:       req.YclID,
		CmID:        req.CmID,
		Block:       req.Block,
	}
	if err := h.visits.Insert(c.Request.Context(), visit); httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, gin.H{"status": "recorded"})
}
