package httpkit

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"staybook/platform/apperr"
	"staybook/platform/config"
	"staybook/platform/logger"
	"staybook/platform/metrics"
	"staybook/platform/token"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

const (
	// ContextRouteKey is the gin context key for the matched route pattern.
	ContextRouteKey = "route"
	// RequestIDHeader carries the request id in and out.
	RequestIDHeader = "X-Request-ID"
)

// Messages returned by the authentication gates.
const (
	MsgTokenRequired    = "Authentication token required"
	MsgInvalidToken     = "Invalid or expired token"
	MsgUserNotFound     = "User not found"
	MsgAuthRequired     = "Authentication required"
	MsgInsufficientRole = "Insufficient permissions"
)

// Middleware runs before a routed handler. A non-nil Result short-circuits
// the chain and is sent as the response.
type Middleware func(c *gin.Context) *Result

// TokenVerifier verifies bearer tokens.
type TokenVerifier interface {
	Verify(raw string) (*token.Claims, error)
}

// IdentityLookup resolves a token subject to a current user record. It
// returns an apperr NotFound error when the user no longer exists.
type IdentityLookup interface {
	LookupIdentity(ctx context.Context, userID int64) (*Identity, error)
}

// =============================================================================
// Engine-level (gin) middleware
// =============================================================================

// RequestID assigns every request an id, honouring an inbound X-Request-ID.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(RequestIDHeader))
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		c.Header(RequestIDHeader, id)
		c.Request = c.Request.WithContext(context.WithValue(c.Request.Context(), logger.RequestIDKey, id))
		c.Next()
	}
}

// RequestLogger logs HTTP requests with timing.
func RequestLogger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		latency := time.Since(start)
		log.WithContext(c.Request.Context()).
			HTTPRequest(c.Request.Method, path, c.Writer.Status(), float64(latency.Milliseconds()), c.ClientIP())
	}
}

// Metrics records request counts and latency labelled by matched route.
func Metrics(m *metrics.HTTP) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.GetString(ContextRouteKey)
		if route == "" {
			route = c.FullPath()
		}
		if route == "" {
			route = "unmatched"
		}
		m.Observe(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}

// SecurityHeaders adds security headers to responses.
func SecurityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Header("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")

		if c.Request.TLS != nil {
			c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}

		c.Next()
	}
}

// Recovery converts panics that escape everything else into the generic 500 body.
func Recovery(log *logger.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		log.WithContext(c.Request.Context()).Error("panic recovered", "panic", recovered, "path", c.Request.URL.Path)
		WriteError(c, errors.New("panic"))
	})
}

// =============================================================================
// Pipeline middleware
// =============================================================================

// FromGin adapts a gin handler into a pipeline Middleware. The handler
// short-circuits the pipeline by aborting the gin context. A status set while
// aborting is held back so the pipeline still answers with a JSON body.
func FromGin(h gin.HandlerFunc) Middleware {
	return func(c *gin.Context) *Result {
		held := &heldStatusWriter{ResponseWriter: c.Writer}
		c.Writer = held
		h(c)
		c.Writer = held.ResponseWriter
		if !c.IsAborted() {
			return nil
		}
		if c.Writer.Written() {
			return Respond(c.Writer.Status(), nil)
		}
		return Respond(held.Status(), gin.H{})
	}
}

// heldStatusWriter records WriteHeader calls until a body is written.
type heldStatusWriter struct {
	gin.ResponseWriter
	status int
}

func (w *heldStatusWriter) WriteHeader(code int) { w.status = code }

func (w *heldStatusWriter) WriteHeaderNow() {}

func (w *heldStatusWriter) Status() int {
	if w.status != 0 {
		return w.status
	}
	return w.ResponseWriter.Status()
}

func (w *heldStatusWriter) Write(b []byte) (int, error) {
	w.release()
	return w.ResponseWriter.Write(b)
}

func (w *heldStatusWriter) WriteString(s string) (int, error) {
	w.release()
	return w.ResponseWriter.WriteString(s)
}

func (w *heldStatusWriter) release() {
	if w.status != 0 {
		w.ResponseWriter.WriteHeader(w.status)
		w.status = 0
	}
}

// CORS answers preflight requests and decorates cross-origin responses.
func CORS(cfg config.HTTPConfig) Middleware {
	corsCfg := cors.Config{
		AllowMethods: []string{
			http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions, http.MethodPatch,
		},
		AllowHeaders: []string{
			"Content-Type", "Authorization", "X-Requested-With", "Accept", "Origin", "Cache-Control", "X-File-Name",
		},
		ExposeHeaders:             []string{"Content-Length", "X-JSON", RequestIDHeader},
		AllowCredentials:          cfg.GetCORSAllowCreds(),
		MaxAge:                    time.Hour,
		OptionsResponseStatusCode: http.StatusOK,
	}
	if cfg.GetCORSAllowAll() {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = cfg.GetCORSOrigins()
	}
	return FromGin(cors.New(corsCfg))
}

// Preflight answers any OPTIONS request that CORS did not, so preflights
// never depend on a route being registered for OPTIONS.
func Preflight() Middleware {
	return func(c *gin.Context) *Result {
		if c.Request.Method != http.MethodOptions {
			return nil
		}
		return Respond(http.StatusOK, gin.H{})
	}
}

// IPRateLimiter manages per-IP rate limiters.
type IPRateLimiter struct {
	limiters sync.Map
	rate     rate.Limit
	burst    int
	log      *logger.Logger
}

// NewIPRateLimiter creates a new IP-based rate limiter.
func NewIPRateLimiter(r rate.Limit, burst int, log *logger.Logger) *IPRateLimiter {
	return &IPRateLimiter{
		rate:  r,
		burst: burst,
		log:   log,
	}
}

// NewAuthRateLimiter allows perMinute login or registration attempts per IP.
func NewAuthRateLimiter(perMinute int, log *logger.Logger) *IPRateLimiter {
	return NewIPRateLimiter(rate.Limit(float64(perMinute)/60.0), perMinute, log)
}

func (i *IPRateLimiter) getLimiter(ip string) *rate.Limiter {
	limiter, _ := i.limiters.LoadOrStore(ip, rate.NewLimiter(i.rate, i.burst))
	return limiter.(*rate.Limiter)
}

// Middleware rejects requests beyond the caller's budget with 429.
func (i *IPRateLimiter) Middleware() Middleware {
	return func(c *gin.Context) *Result {
		ip := c.ClientIP()
		if i.getLimiter(ip).Allow() {
			return nil
		}
		if i.log != nil {
			i.log.RateLimitExceeded(ip, c.Request.URL.Path)
		}
		return ErrorResult(apperr.RateLimited("Too many requests, please try again later"))
	}
}

// Authenticate resolves the bearer token to a current user and publishes the
// identity for the rest of the request.
func Authenticate(verifier TokenVerifier, users IdentityLookup, log *logger.Logger) Middleware {
	return func(c *gin.Context) *Result {
		raw, ok := BearerToken(c)
		if !ok {
			return ErrorResult(apperr.Unauthorized(MsgTokenRequired))
		}

		claims, err := verifier.Verify(raw)
		if err != nil {
			return ErrorResult(apperr.Unauthorized(MsgInvalidToken))
		}
		userID, err := claims.UserID()
		if err != nil {
			return ErrorResult(apperr.Unauthorized(MsgInvalidToken))
		}

		id, err := users.LookupIdentity(c.Request.Context(), userID)
		if err != nil {
			if apperr.Is(err, apperr.KindNotFound) {
				return ErrorResult(apperr.Unauthorized(MsgUserNotFound))
			}
			log.WithContext(c.Request.Context()).Error("identity lookup failed", "user_id", userID, "error", err)
			return ErrorResult(err)
		}
		if id == nil {
			return ErrorResult(apperr.Unauthorized(MsgUserNotFound))
		}

		id.Claims = claims
		SetIdentity(c, id)
		return nil
	}
}

// RequireRole passes callers whose role equals role. Admins pass every gate.
func RequireRole(role string) Middleware {
	return func(c *gin.Context) *Result {
		id := CurrentIdentity(c)
		if id == nil {
			return ErrorResult(apperr.Unauthorized(MsgAuthRequired))
		}
		if !id.HasRole(role) {
			return ErrorResult(apperr.Forbidden(MsgInsufficientRole))
		}
		return nil
	}
}

// RequireAuth passes any authenticated caller.
func RequireAuth() Middleware {
	return func(c *gin.Context) *Result {
		if CurrentIdentity(c) == nil {
			return ErrorResult(apperr.Unauthorized(MsgAuthRequired))
		}
		return nil
	}
}

// BearerToken reads the token from the Authorization header, falling back
// to the token query parameter.
func BearerToken(c *gin.Context) (string, bool) {
	if raw, ok := extractBearerToken(c.GetHeader("Authorization")); ok {
		return raw, true
	}
	raw := strings.TrimSpace(c.Query("token"))
	return raw, raw != ""
}

func extractBearerToken(authHeader string) (string, bool) {
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return "", false
	}

	rawToken := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	if rawToken == "" {
		return "", false
	}

	return rawToken, true
}
