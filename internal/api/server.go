// Package api serves location resolution and proximity lookups over HTTP.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/sells-group/locality/internal/config"
	"github.com/sells-group/locality/internal/location"
	"github.com/sells-group/locality/internal/metrics"
	"github.com/sells-group/locality/internal/nearby"
	"github.com/sells-group/locality/internal/render"
	"github.com/sells-group/locality/internal/resolve"
	"github.com/sells-group/locality/internal/respcache"
)

// Deps are the collaborators the handlers call.
type Deps struct {
	Store     location.Store
	Matcher   *resolve.Matcher
	Searcher  *nearby.Searcher
	Cache     respcache.Cache
	Templates render.Set
}

// Server is the HTTP API.
type Server struct {
	deps   Deps
	log    *zap.Logger
	router *chi.Mux
	server *http.Server
}

// NewServer wires routes and middleware. A nil Cache disables response
// caching.
func NewServer(cfg config.ServerConfig, deps Deps) *Server {
	if deps.Cache == nil {
		deps.Cache = respcache.Nop{}
	}
	s := &Server{
		deps: deps,
		log:  zap.L().With(zap.String("component", "api")),
	}

	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(middleware.RealIP)
	r.Use(s.accessLog)
	r.Use(middleware.Recoverer)
	r.Use(observe)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", requestIDHeader},
		ExposedHeaders: []string{requestIDHeader},
		MaxAge:         300,
	}))

	r.Get("/health", s.health)
	r.Handle("/metrics", metrics.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Use(rateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst))

		r.Get("/resolve/{slug}", s.resolve)
		r.Get("/nearby", s.nearby)
		r.Get("/nearest", s.nearest)
		r.Route("/regions/{kind}/{id}", func(r chi.Router) {
			r.Get("/center", s.center)
			r.Get("/pincode", s.pincode)
		})
		r.Post("/render", s.render)
	})
	s.router = r

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.ReadTimeoutSecs) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeoutSecs) * time.Second,
	}
	return s
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Addr is the listen address.
func (s *Server) Addr() string {
	return s.server.Addr
}

// ListenAndServe blocks until the server stops. It returns
// http.ErrServerClosed after Shutdown.
func (s *Server) ListenAndServe() error {
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
