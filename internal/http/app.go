// Package http provides HTTP server infrastructure including module registration.
package http

import (
	"context"

	"staybook/platform/config"
	"staybook/platform/httpkit"
	"staybook/platform/logger"
	"staybook/platform/metrics"

	"github.com/prometheus/client_golang/prometheus"
)

// RouterConfig combines the config interfaces needed by the HTTP router.
type RouterConfig interface {
	config.HTTPConfig
	config.RateLimitConfig
}

// HealthChecker exposes minimal functionality for readiness checks.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// InventoryCounter reports how many accommodations are listed.
type InventoryCounter interface {
	Count(ctx context.Context) (int64, error)
}

// App holds the fully initialized application dependencies.
// This is populated by main.go (the composition root) and passed to the router.
type App struct {
	// Config holds the router configuration (HTTP and rate limit settings only).
	Config RouterConfig
	// Logger is the structured logger.
	Logger *logger.Logger
	// Health is used for readiness/health checks (e.g., DB ping).
	Health HealthChecker
	// Inventory feeds the accommodation count of the health report.
	Inventory InventoryCounter
	// Metrics records HTTP traffic; Gatherer serves it on /metrics.
	Metrics  *metrics.HTTP
	Gatherer prometheus.Gatherer
	// Tokens verifies bearer tokens for the auth middleware.
	Tokens httpkit.TokenVerifier
	// Identities resolves token subjects to current users.
	Identities httpkit.IdentityLookup
	// Modules contains all HTTP-facing domain modules.
	Modules []Module
}
