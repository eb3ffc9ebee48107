// Package webhook provides the inbound webhook bounded context module.
// This file defines the module that encapsulates route registration.
package webhook

import (
	apphttp "crmhub_backend/internal/http"
	"crmhub_backend/internal/scheduler"
	"crmhub_backend/platform/logger"
	"crmhub_backend/platform/validator"
)

// Module is the webhook bounded context module implementing http.Module.
type Module struct {
	handler *Handler
}

// NewModule creates and initializes the webhook module with its dependencies.
func NewModule(balances BalanceApplier, dispatcher scheduler.Dispatcher, visitStore VisitStore, val *validator.Validator, log *logger.Logger) *Module {
	return &Module{
		handler: NewHandler(balances, dispatcher, visitStore, val, log),
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "webhook"
}

// RegisterRoutes mounts webhook routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	hooks := ctx.Root.Group("/webhooks")
	hooks.POST("/bonus-ledger", m.handler.HandleBonusLedger)
	hooks.POST("/export", m.handler.HandleExport)
	hooks.POST("/market/order", m.handler.HandleMarketOrder)

	ctx.Root.POST("/track/visit", m.handler.HandleTrackVisit)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
