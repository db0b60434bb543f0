// Package routing dispatches requests to handlers through a middleware
// pipeline. Routes are matched in registration order and the first match
// wins, so overlapping patterns resolve deterministically.
package routing

import (
	"fmt"
	"net/http"
	"regexp"
	"runtime/debug"
	"strings"

	"staybook/platform/apperr"
	"staybook/platform/httpkit"
	"staybook/platform/logger"

	"github.com/gin-gonic/gin"
)

var placeholder = regexp.MustCompile(`\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// Params holds the values captured by {name} placeholders.
type Params map[string]string

// Get returns the named parameter or "".
func (p Params) Get(name string) string {
	return p[name]
}

// HandlerFunc handles a routed request. It returns either a raw value, sent
// with 200, or a *httpkit.Result carrying an explicit status.
type HandlerFunc func(c *gin.Context, params Params) (any, error)

type route struct {
	method     string
	pattern    string
	regex      *regexp.Regexp
	names      []string
	handler    HandlerFunc
	middleware []httpkit.Middleware
}

// Router matches method and path to a handler and runs the middleware chain.
type Router struct {
	routes   map[string][]*route
	global   []httpkit.Middleware
	named    map[string]httpkit.Middleware
	prefixes []string
	log      *logger.Logger
}

// Option customizes a Router.
type Option func(*Router)

// WithPrefixes sets the front-controller prefixes stripped from request paths.
func WithPrefixes(prefixes ...string) Option {
	return func(r *Router) { r.prefixes = prefixes }
}

// New creates an empty Router.
func New(log *logger.Logger, opts ...Option) *Router {
	r := &Router{
		routes: make(map[string][]*route),
		named:  make(map[string]httpkit.Middleware),
		log:    log,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Use appends a middleware that runs before every matched route and before
// the not-found response of OPTIONS requests.
func (r *Router) Use(mw httpkit.Middleware) {
	r.global = append(r.global, mw)
}

// Define registers a named middleware for routes to reference.
func (r *Router) Define(name string, mw httpkit.Middleware) {
	r.named[name] = mw
}

// Handle registers a route. Middleware names must already be defined.
func (r *Router) Handle(method, pattern string, h HandlerFunc, middleware ...string) {
	rt := &route{
		method:  strings.ToUpper(method),
		pattern: pattern,
		handler: h,
	}
	rt.regex, rt.names = compile(pattern)

	for _, name := range middleware {
		mw, ok := r.named[name]
		if !ok {
			panic(fmt.Sprintf("routing: middleware %q is not defined (route %s %s)", name, rt.method, pattern))
		}
		rt.middleware = append(rt.middleware, mw)
	}

	r.routes[rt.method] = append(r.routes[rt.method], rt)
}

func (r *Router) GET(pattern string, h HandlerFunc, middleware ...string) {
	r.Handle(http.MethodGet, pattern, h, middleware...)
}

func (r *Router) POST(pattern string, h HandlerFunc, middleware ...string) {
	r.Handle(http.MethodPost, pattern, h, middleware...)
}

func (r *Router) PUT(pattern string, h HandlerFunc, middleware ...string) {
	r.Handle(http.MethodPut, pattern, h, middleware...)
}

func (r *Router) PATCH(pattern string, h HandlerFunc, middleware ...string) {
	r.Handle(http.MethodPatch, pattern, h, middleware...)
}

func (r *Router) DELETE(pattern string, h HandlerFunc, middleware ...string) {
	r.Handle(http.MethodDelete, pattern, h, middleware...)
}

// Routes lists the registered patterns for method in registration order.
func (r *Router) Routes(method string) []string {
	routes := r.routes[strings.ToUpper(method)]
	patterns := make([]string, 0, len(routes))
	for _, rt := range routes {
		patterns = append(patterns, rt.pattern)
	}
	return patterns
}

// Dispatch is the gin handler that serves every request through the router.
func (r *Router) Dispatch(c *gin.Context) {
	defer func() {
		if recovered := recover(); recovered != nil {
			r.log.WithContext(c.Request.Context()).Error("panic in request pipeline",
				"panic", recovered,
				"method", c.Request.Method,
				"path", c.Request.URL.Path,
				"stack", string(debug.Stack()),
			)
			httpkit.Write(c, httpkit.ErrorResult(apperr.Internal("panic")))
		}
	}()

	method := c.Request.Method
	path := NormalizePath(c.Request.URL.Path, r.prefixes)

	rt, params := r.match(method, path)
	if rt == nil {
		if method == http.MethodOptions {
			if res := run(c, r.global); res != nil {
				httpkit.Write(c, res)
				return
			}
		}
		httpkit.Write(c, httpkit.ErrorResult(apperr.NotFound("Route not found").WithDetails(gin.H{
			"method":           method,
			"path":             path,
			"available_routes": r.Routes(method),
		})))
		return
	}
	c.Set(httpkit.ContextRouteKey, rt.pattern)

	if res := run(c, r.global); res != nil {
		httpkit.Write(c, res)
		return
	}
	if res := run(c, rt.middleware); res != nil {
		httpkit.Write(c, res)
		return
	}

	value, err := rt.handler(c, params)
	if err != nil {
		if httpkit.IsServerError(err) {
			log := r.log.WithContext(c.Request.Context())
			if appErr, ok := apperr.As(err); ok && appErr.Op != "" {
				log.DatabaseError(appErr.Op, err)
			}
			log.HTTPError(method, path, http.StatusInternalServerError, err, c.ClientIP())
		}
		httpkit.Write(c, httpkit.ErrorResult(err))
		return
	}

	if res, ok := value.(*httpkit.Result); ok {
		httpkit.Write(c, res)
		return
	}
	httpkit.Write(c, httpkit.Respond(http.StatusOK, value))
}

func run(c *gin.Context, chain []httpkit.Middleware) *httpkit.Result {
	for _, mw := range chain {
		if res := mw(c); res != nil {
			return res
		}
	}
	return nil
}

// match finds the route for method and path: an exact pattern match first,
// then the first placeholder pattern that matches in registration order.
func (r *Router) match(method, path string) (*route, Params) {
	routes := r.routes[method]
	for _, rt := range routes {
		if rt.pattern == path {
			return rt, Params{}
		}
	}

	for _, rt := range routes {
		if len(rt.names) == 0 {
			continue
		}
		groups := rt.regex.FindStringSubmatch(path)
		if groups == nil {
			continue
		}
		params := make(Params, len(rt.names))
		for i, name := range rt.names {
			params[name] = groups[i+1]
		}
		return rt, params
	}
	return nil, nil
}

// compile turns "/a/{id}/b" into an anchored regexp where every placeholder
// matches exactly one path segment.
func compile(pattern string) (*regexp.Regexp, []string) {
	var (
		b     strings.Builder
		names []string
		last  int
	)
	b.WriteString("^")
	for _, loc := range placeholder.FindAllStringSubmatchIndex(pattern, -1) {
		b.WriteString(regexp.QuoteMeta(pattern[last:loc[0]]))
		b.WriteString("([^/]+)")
		names = append(names, pattern[loc[2]:loc[3]])
		last = loc[1]
	}
	b.WriteString(regexp.QuoteMeta(pattern[last:]))
	b.WriteString("$")
	return regexp.MustCompile(b.String()), names
}

// NormalizePath strips the query string, the first matching prefix and any
// trailing slash except on the root path.
func NormalizePath(raw string, prefixes []string) string {
	if i := strings.IndexByte(raw, '?'); i >= 0 {
		raw = raw[:i]
	}
	for _, prefix := range prefixes {
		if raw == prefix || strings.HasPrefix(raw, prefix+"/") {
			raw = strings.TrimPrefix(raw, prefix)
			break
		}
	}
	if len(raw) > 1 {
		raw = strings.TrimRight(raw, "/")
	}
	if raw == "" {
		raw = "/"
	}
	return raw
}
