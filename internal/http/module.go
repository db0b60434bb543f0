// Package http provides HTTP server infrastructure including the Module interface
// that all domain modules must implement for route registration.
package http

import (
	"staybook/platform/logger"
	"staybook/platform/routing"
)

// Named middlewares defined by the router for modules to reference.
const (
	// MiddlewareAuth resolves the bearer token to the current user.
	MiddlewareAuth = "auth"
	// MiddlewareAdmin admits admins only.
	MiddlewareAdmin = "admin"
	// MiddlewareUser admits the user role (and admins).
	MiddlewareUser = "user"
	// MiddlewareAuthenticated admits any authenticated caller.
	MiddlewareAuthenticated = "authenticated"
	// MiddlewareAuthRateLimit throttles credential endpoints per client IP.
	MiddlewareAuthRateLimit = "auth_rate_limit"
)

// Module represents a bounded context that can register its HTTP routes.
// Each domain module implements this interface to encapsulate its own
// route setup, keeping the main router decoupled from specific endpoints.
type Module interface {
	// Name returns the module's identifier for logging purposes.
	Name() string
	// RegisterRoutes mounts the module's routes on the provided router.
	RegisterRoutes(ctx *RouterContext)
}

// RouterContext provides shared dependencies for module route registration.
type RouterContext struct {
	// Router dispatches every API request through the middleware pipeline.
	Router *routing.Router
	// Logger is the structured logger.
	Logger *logger.Logger
}

// Protected lists the middleware names for an authenticated route gated by role.
func Protected(gate string) []string {
	return []string{MiddlewareAuth, gate}
}
