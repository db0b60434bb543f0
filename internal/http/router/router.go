package router

import (
	"context"
	"net/http"
	"time"

	apphttp "staybook/internal/http"
	"staybook/platform/httpkit"
	"staybook/platform/routing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const healthTimeout = 2 * time.Second

// New builds the gin engine. Every API request is served by the routing
// pipeline mounted as the engine's NoRoute handler.
func New(app *apphttp.App) *gin.Engine {
	cfg := app.Config
	log := app.Logger

	engine := gin.New()
	engine.RedirectTrailingSlash = false
	engine.RedirectFixedPath = false
	engine.Use(httpkit.Recovery(log))
	engine.Use(httpkit.RequestID())
	engine.Use(httpkit.RequestLogger(log))
	engine.Use(httpkit.SecurityHeaders())
	if app.Metrics != nil {
		engine.Use(httpkit.Metrics(app.Metrics))
	}

	r := routing.New(log, routing.WithPrefixes(cfg.GetRoutePrefixes()...))
	r.Use(httpkit.CORS(cfg))
	r.Use(httpkit.Preflight())

	r.Define(apphttp.MiddlewareAuth, httpkit.Authenticate(app.Tokens, app.Identities, log))
	r.Define(apphttp.MiddlewareAdmin, httpkit.RequireRole(httpkit.RoleAdmin))
	r.Define(apphttp.MiddlewareUser, httpkit.RequireRole(httpkit.RoleUser))
	r.Define(apphttp.MiddlewareAuthenticated, httpkit.RequireAuth())
	r.Define(apphttp.MiddlewareAuthRateLimit, httpkit.NewAuthRateLimiter(cfg.GetAuthRateLimitPerMinute(), log).Middleware())

	r.GET("/api/health", health(app))

	routerCtx := &apphttp.RouterContext{Router: r, Logger: log}
	for _, module := range app.Modules {
		module.RegisterRoutes(routerCtx)
		log.Info("module registered", "module", module.Name())
	}

	if app.Gatherer != nil {
		engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(app.Gatherer, promhttp.HandlerOpts{})))
	}
	engine.NoRoute(r.Dispatch)

	return engine
}

func health(app *apphttp.App) routing.HandlerFunc {
	return func(c *gin.Context, _ routing.Params) (any, error) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
		defer cancel()

		report := gin.H{
			"status":    "ok",
			"database":  "connected",
			"timestamp": httpkit.FormatTimestamp(time.Now()),
		}

		if app.Health != nil {
			if err := app.Health.Ping(ctx); err != nil {
				app.Logger.WithContext(ctx).Error("health check failed", "error", err)
				report["status"] = "degraded"
				report["database"] = "unreachable"
				return httpkit.Respond(http.StatusServiceUnavailable, report), nil
			}
		}

		if app.Inventory != nil {
			count, err := app.Inventory.Count(ctx)
			if err != nil {
				app.Logger.WithContext(ctx).Error("health inventory count failed", "error", err)
				report["status"] = "degraded"
				return httpkit.Respond(http.StatusServiceUnavailable, report), nil
			}
			report["accommodations"] = count
		}

		return report, nil
	}
}
