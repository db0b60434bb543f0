// Package accommodations provides the accommodation bounded context module.
// This file defines the module that encapsulates all accommodation setup and route registration.
package accommodations

import (
	"staybook/internal/accommodations/handler"
	"staybook/internal/accommodations/repository"
	"staybook/internal/accommodations/service"
	apphttp "staybook/internal/http"
	"staybook/platform/logger"
	"staybook/platform/validator"
)

// Module is the accommodation bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates and initializes the accommodation module with all its dependencies.
func NewModule(repo repository.AccommodationRepository, val *validator.Validator, log *logger.Logger) *Module {
	svc := service.New(repo, val, log)
	return &Module{
		handler: handler.New(svc, val),
		service: svc,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "accommodations"
}

// Service returns the accommodation service for use by adapters.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts accommodation routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	r := ctx.Router
	admin := apphttp.Protected(apphttp.MiddlewareAdmin)

	// Public catalogue
	r.GET("/api/accommodations", m.handler.List)
	r.GET("/api/accommodations/{id}", m.handler.Get)

	// Admin management
	r.POST("/api/admin/accommodations", m.handler.Create, admin...)
	r.PUT("/api/admin/accommodations/{id}", m.handler.Update, admin...)
	r.DELETE("/api/admin/accommodations/{id}", m.handler.Delete, admin...)
	r.POST("/api/admin/accommodations/{id}/amenities", m.handler.AddAmenity, admin...)
	r.DELETE("/api/admin/accommodations/{id}/amenities/{amenity}", m.handler.RemoveAmenity, admin...)
	r.GET("/api/admin/accommodations/{id}/users", m.handler.ListUsers, admin...)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
