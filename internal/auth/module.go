// Package auth provides the authentication bounded context module.
// This file defines the module that encapsulates all auth setup and route registration.
package auth

import (
	"staybook/internal/auth/adapter"
	"staybook/internal/auth/handler"
	"staybook/internal/auth/service"
	apphttp "staybook/internal/http"
	"staybook/platform/config"
	"staybook/platform/httpkit"
	"staybook/platform/logger"
	"staybook/platform/validator"
)

// Module is the auth bounded context module implementing http.Module.
type Module struct {
	handler    *handler.Handler
	service    *service.Service
	identities *adapter.IdentityLookupAdapter
}

// NewModule creates and initializes the auth module with all its dependencies.
func NewModule(users service.UserStore, hasher service.Hasher, tokens service.Tokens, val *validator.Validator, cfg config.AuthConfig, log *logger.Logger) *Module {
	svc := service.New(users, hasher, tokens, val, cfg, log)
	return &Module{
		handler:    handler.New(svc, val),
		service:    svc,
		identities: adapter.NewIdentityLookupAdapter(users),
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "auth"
}

// Service returns the auth service.
func (m *Module) Service() *service.Service {
	return m.service
}

// Identities resolves token subjects for the auth middleware.
func (m *Module) Identities() httpkit.IdentityLookup {
	return m.identities
}

// RegisterRoutes mounts auth routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	r := ctx.Router

	// Credential endpoints with stricter rate limiting
	r.POST("/api/auth/login", m.handler.Login, apphttp.MiddlewareAuthRateLimit)
	r.POST("/api/auth/register", m.handler.Register, apphttp.MiddlewareAuthRateLimit)

	// The token is read by the handler so these answer with their own messages
	r.POST("/api/auth/refresh", m.handler.Refresh)
	r.POST("/api/auth/validate", m.handler.Validate)

	r.POST("/api/auth/change-password", m.handler.ChangePassword, apphttp.Protected(apphttp.MiddlewareAuthenticated)...)
	r.POST("/api/admin/users/{id}/reset-password", m.handler.ResetPassword, apphttp.Protected(apphttp.MiddlewareAdmin)...)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
