// Package users provides the user bounded context module: profiles, admin
// user management and the saved accommodation list.
package users

import (
	apphttp "staybook/internal/http"
	"staybook/internal/users/handler"
	"staybook/internal/users/repository"
	"staybook/internal/users/service"
	"staybook/platform/logger"
	"staybook/platform/validator"
)

// Module is the user bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule wires the user context. accommodations answers existence checks
// for the saved list.
func NewModule(repo repository.UserRepository, accommodations service.AccommodationChecker, val *validator.Validator, log *logger.Logger) *Module {
	svc := service.New(repo, accommodations, val, log)
	return &Module{
		handler: handler.New(svc, val),
		service: svc,
	}
}

func (m *Module) Name() string {
	return "users"
}

// Service returns the user service for use by adapters.
func (m *Module) Service() *service.Service {
	return m.service
}

func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	r := ctx.Router
	authenticated := apphttp.Protected(apphttp.MiddlewareAuthenticated)
	user := apphttp.Protected(apphttp.MiddlewareUser)
	admin := apphttp.Protected(apphttp.MiddlewareAdmin)

	r.GET("/api/users/me", m.handler.Me, authenticated...)
	r.PUT("/api/users/me", m.handler.UpdateMe, authenticated...)

	// Saved accommodations
	r.GET("/api/users/accommodations", m.handler.ListAccommodations, user...)
	r.POST("/api/users/accommodations", m.handler.AddAccommodation, user...)
	r.DELETE("/api/users/accommodations/{accommodation_id}", m.handler.RemoveAccommodation, user...)

	// Admin user management
	r.GET("/api/admin/users", m.handler.List, admin...)
	r.DELETE("/api/admin/users/{id}", m.handler.Delete, admin...)
	r.PUT("/api/admin/users/{id}/role", m.handler.ChangeRole, admin...)
}

var _ apphttp.Module = (*Module)(nil)
