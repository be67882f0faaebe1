// Package httpserver serves the REST API and hosts the GraphQL endpoint on echo.
package httpserver

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/and161185/devfolio/internal/authz"
	"github.com/and161185/devfolio/internal/service"
	"github.com/and161185/devfolio/internal/validate"
)

// Options tunes the HTTP server.
type Options struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	BodyLimit    string
	CORSOrigins  []string
	RateLimit    float64
	RateBurst    int
	// GraphQL, when set, is mounted at POST /graphql behind the same middleware.
	GraphQL echo.HandlerFunc
}

// Server owns the echo instance.
type Server struct {
	e    *echo.Echo
	addr string
	log  *zap.Logger
}

// New assembles middleware and routes.
func New(opts Options, svc service.Services, gate *authz.Gate, health Pinger, log *zap.Logger) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = validate.New()
	e.HTTPErrorHandler = ErrorHandler(log)
	e.Server.ReadTimeout = opts.ReadTimeout
	e.Server.WriteTimeout = opts.WriteTimeout

	e.Use(middleware.Recover())
	e.Use(AccessLog(log))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: opts.CORSOrigins,
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))
	if opts.BodyLimit != "" {
		e.Use(middleware.BodyLimit(opts.BodyLimit))
	}
	e.Use(RateLimit(opts.RateLimit, opts.RateBurst))
	e.Use(Identify(svc.Identity, log))

	RegisterRoutes(e, NewHandler(svc, health, log), gate)
	if opts.GraphQL != nil {
		e.POST("/graphql", opts.GraphQL)
	}

	return &Server{e: e, addr: opts.Addr, log: log}
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler { return s.e }

// Start blocks serving until Shutdown.
func (s *Server) Start() error {
	s.log.Info("http listening", zap.String("addr", s.addr))
	if err := s.e.Start(s.addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error { return s.e.Shutdown(ctx) }
