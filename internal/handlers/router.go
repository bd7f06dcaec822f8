// Package handlers exposes named menus over HTTP: rendered HTML fragments,
// the JSON template context and the token protected administration API.
package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/hanko-field/namedmenus/internal/platform/httpx"
)

// RouteRegistrar registers a set of routes against the provided router.
type RouteRegistrar func(r chi.Router)

const (
	apiPrefix         = "/api/v1"
	requestTimeout    = 30 * time.Second
	errorNotFoundCode = "route_not_found"
)

type routerConfig struct {
	middlewares []func(http.Handler) http.Handler
	health      *HealthHandlers
	pages       RouteRegistrar
	public      RouteRegistrar
	admin       RouteRegistrar
}

// Option customises the router configuration before construction.
type Option func(*routerConfig)

// NewRouter builds the service router:
//
//	GET /healthz, GET /readyz
//	/menus/*          HTML pages (WithPageRoutes)
//	/api/v1/menus/*   JSON menu context (WithPublicRoutes)
//	/api/v1/admin/*   administration (WithAdminRoutes)
//
// Groups without a registrar answer 501.
func NewRouter(opts ...Option) chi.Router {
	cfg := routerConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.health == nil {
		cfg.health = NewHealthHandlers()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Timeout(requestTimeout))
	for _, mw := range cfg.middlewares {
		if mw != nil {
			r.Use(mw)
		}
	}

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		httpx.WriteError(req.Context(), w, httpx.NewError(errorNotFoundCode, fmt.Sprintf("no route for %s", req.URL.Path), http.StatusNotFound))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		httpx.WriteError(req.Context(), w, httpx.NewError("method_not_allowed", fmt.Sprintf("method %s not allowed on %s", req.Method, req.URL.Path), http.StatusMethodNotAllowed))
	})

	r.Get("/healthz", cfg.health.Healthz)
	r.Get("/readyz", cfg.health.Readyz)

	groups := []struct {
		path     string
		name     string
		register RouteRegistrar
	}{
		{path: "/menus", name: "menu pages", register: cfg.pages},
		{path: apiPrefix + "/menus", name: "menu", register: cfg.public},
		{path: apiPrefix + "/admin", name: "admin", register: cfg.admin},
	}
	for _, g := range groups {
		register := g.register
		if register == nil {
			register = notImplemented(g.name)
		}
		r.Route(g.path, func(sub chi.Router) { register(sub) })
	}
	return r
}

// WithMiddlewares appends global middleware after the request id, real ip and timeout middleware.
func WithMiddlewares(mw ...func(http.Handler) http.Handler) Option {
	return func(cfg *routerConfig) {
		cfg.middlewares = append(cfg.middlewares, mw...)
	}
}

// WithHealthHandlers overrides the handlers used for /healthz and /readyz.
func WithHealthHandlers(h *HealthHandlers) Option {
	return func(cfg *routerConfig) { cfg.health = h }
}

// WithPageRoutes configures the HTML menu pages under /menus.
func WithPageRoutes(reg RouteRegistrar) Option {
	return func(cfg *routerConfig) { cfg.pages = reg }
}

// WithPublicRoutes configures the JSON menu endpoints.
func WithPublicRoutes(reg RouteRegistrar) Option {
	return func(cfg *routerConfig) { cfg.public = reg }
}

// WithAdminRoutes configures the administration endpoints.
func WithAdminRoutes(reg RouteRegistrar) Option {
	return func(cfg *routerConfig) { cfg.admin = reg }
}

func notImplemented(group string) RouteRegistrar {
	return func(r chi.Router) {
		handler := func(w http.ResponseWriter, req *http.Request) {
			httpx.WriteError(req.Context(), w, httpx.NewError("not_implemented", fmt.Sprintf("%s endpoints are not configured", group), http.StatusNotImplemented))
		}
		r.HandleFunc("/", handler)
		r.HandleFunc("/*", handler)
	}
}
