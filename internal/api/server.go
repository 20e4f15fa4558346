// Package api exposes the plate catalog and the equivalency engine over
// HTTP with echo.
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Veraticus/flexoplate-iq/internal/config"
	"github.com/Veraticus/flexoplate-iq/internal/engine"
	"github.com/Veraticus/flexoplate-iq/internal/service"
)

const shutdownTimeout = 10 * time.Second

// Options configures a Server.
type Options struct {
	Version string
	Server  config.Server
}

// Server serves the HTTP API.
type Server struct {
	started time.Time
	echo    *echo.Echo
	store   service.Storage
	engine  *engine.Service
	opts    Options
}

// NewServer wires routes and middleware around the given storage and engine.
func NewServer(store service.Storage, eng *engine.Service, opts Options) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = HTTPErrorHandler

	s := &Server{
		echo:    e,
		store:   store,
		engine:  eng,
		opts:    opts,
		started: time.Now(),
	}

	e.Use(middleware.RequestID())
	e.Use(requestLogger())
	e.Use(metricsMiddleware())
	e.Use(middleware.Recover())

	s.routes()
	return s
}

func (s *Server) routes() {
	s.echo.GET("/health", s.health)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	api := s.echo.Group("/api")

	eq := api.Group("/equivalency")
	eq.POST("/find", s.findEquivalents)
	eq.GET("/quick", s.quickEquivalents)

	api.GET("/plates", s.listPlates)
	api.GET("/plates/:id", s.getPlate)
	api.GET("/suppliers", s.listSuppliers)
	api.GET("/families", s.listFamilies)
	api.GET("/equipment/models", s.listEquipment)

	api.GET("/profiles", s.listProfiles)
	api.POST("/profiles", s.createProfile)

	api.GET("/overrides", s.listOverrides)
	api.POST("/overrides", s.createOverride)
	api.DELETE("/overrides/:id", s.deleteOverride)

	api.POST("/exposure/calculate", s.calculateExposure)
	api.GET("/exposure/scale", s.scaleExposure)
}

// Handler returns the root handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start listens on the configured address until ctx is cancelled, then
// shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.opts.Server.Addr,
		Handler:      s.echo,
		ReadTimeout:  s.opts.Server.ReadTimeout,
		WriteTimeout: s.opts.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("http server listening", "addr", srv.Addr)
		if err := s.echo.StartServer(srv); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.echo.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}
	return nil
}

// HealthResponse reports service and database health.
type HealthResponse struct {
	Checks  map[string]string `json:"checks"`
	Status  string            `json:"status"`
	Version string            `json:"version,omitempty"`
	Uptime  string            `json:"uptime"`
}

type pinger interface {
	Ping(ctx context.Context) error
}

func (s *Server) health(c echo.Context) error {
	resp := HealthResponse{
		Status:  "healthy",
		Version: s.opts.Version,
		Uptime:  time.Since(s.started).Round(time.Second).String(),
		Checks:  map[string]string{},
	}
	code := http.StatusOK

	if p, ok := s.store.(pinger); ok {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
		defer cancel()
		if err := p.Ping(ctx); err != nil {
			slog.Warn("database health check failed", "error", err)
			resp.Status = "unhealthy"
			resp.Checks["database"] = err.Error()
			code = http.StatusServiceUnavailable
		} else {
			resp.Checks["database"] = "ok"
		}
	}
	return c.JSON(code, resp)
}
