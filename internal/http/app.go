package http

import (
	"context"

	"crmhub_backend/platform/config"
	"crmhub_backend/platform/logger"
)

// HealthChecker exposes minimal functionality for readiness checks.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// App holds the fully initialized application dependencies.
// This is populated by main.go (the composition root) and passed to the router.
type App struct {
	// Config holds the HTTP server configuration.
	Config config.HTTPConfig
	// Logger is the structured logger.
	Logger *logger.Logger
	// Health is used for readiness checks (nil when the database is disabled).
	Health HealthChecker
	// Modules contains all HTTP-facing domain modules.
	Modules []Module
}
