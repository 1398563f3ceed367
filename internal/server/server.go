// Package server assembles the shopping list HTTP server.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/vyrodovalexey/shoplist-api/internal/auth"
	"github.com/vyrodovalexey/shoplist-api/internal/config"
	"github.com/vyrodovalexey/shoplist-api/internal/handler"
	"github.com/vyrodovalexey/shoplist-api/internal/middleware"
	"github.com/vyrodovalexey/shoplist-api/internal/store"
	"github.com/vyrodovalexey/shoplist-api/internal/validation"
)

// Server represents the HTTP server.
type Server struct {
	httpServer *http.Server
	router     *mux.Router
	config     *config.Config
	logger     *zap.Logger
	feed       *handler.FeedHandler
}

// New wires the REST API and change feed around s. A nil authenticator
// admits every request anonymously.
func New(
	cfg *config.Config,
	logger *zap.Logger,
	s store.Store,
	v *validation.Validator,
	authenticator auth.Authenticator,
) *Server {
	if authenticator == nil {
		authenticator = auth.Anonymous{}
	}

	srv := &Server{
		router: mux.NewRouter(),
		config: cfg,
		logger: logger,
	}

	srv.setupMiddleware(authenticator)
	srv.setupRoutes(s, v)
	srv.setupHTTPServer()

	return srv
}

func (s *Server) setupMiddleware(authenticator auth.Authenticator) {
	s.router.Use(mux.MiddlewareFunc(middleware.Recovery(s.logger)))
	s.router.Use(mux.MiddlewareFunc(middleware.RequestID()))

	if s.config.MetricsEnabled {
		s.router.Use(mux.MiddlewareFunc(middleware.Metrics()))
	}

	s.router.Use(mux.MiddlewareFunc(middleware.Logging(s.logger)))
	s.router.Use(mux.MiddlewareFunc(middleware.Auth(authenticator, s.logger)))
}

func (s *Server) setupRoutes(st store.Store, v *validation.Validator) {
	s.feed = handler.NewFeedHandler(s.logger)
	s.feed.RegisterRoutes(s.router)

	rest := handler.NewRESTHandler(st, v, s.feed, s.logger)
	rest.RegisterRoutes(s.router)

	if s.config.MetricsEnabled {
		s.router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	}
}

// setupHTTPServer puts CORS outside the router so that preflight
// requests are answered before route matching.
func (s *Server) setupHTTPServer() {
	s.httpServer = &http.Server{
		Addr:              s.config.Address(),
		Handler:           middleware.CORS(s.config.CORSOrigins)(s.router),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}
}

// Start listens on the configured address and serves until Shutdown.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("server listen: %w", err)
	}
	return s.Serve(ln)
}

// Serve accepts connections on ln until Shutdown.
func (s *Server) Serve(ln net.Listener) error {
	s.logger.Info("starting server",
		zap.String("address", ln.Addr().String()),
		zap.Bool("metrics_enabled", s.config.MetricsEnabled),
		zap.String("store", s.config.StoreDriver),
		zap.String("auth_mode", s.config.AuthMode),
	)

	if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server serve: %w", err)
	}

	return nil
}

// Shutdown closes the change feed, then drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down server")

	s.feed.CloseAllConnections()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	s.logger.Info("server shutdown complete")
	return nil
}

// Handler returns the full HTTP handler, CORS included.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Feed returns the change feed hub.
func (s *Server) Feed() *handler.FeedHandler {
	return s.feed
}
