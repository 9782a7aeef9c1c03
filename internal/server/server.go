package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/vzahanych/weather-snapshot/internal/config"
	"github.com/vzahanych/weather-snapshot/internal/refresh"
	"github.com/vzahanych/weather-snapshot/internal/server/handlers"
	"github.com/vzahanych/weather-snapshot/internal/server/middlewares"
	"github.com/vzahanych/weather-snapshot/internal/state"
	"github.com/vzahanych/weather-snapshot/pkg/telemetry"
	"go.uber.org/zap"
)

type Server struct {
	cfg        config.ServerConfig
	engine     *gin.Engine
	server     *http.Server
	refresher  *refresh.Refresher
	store      *state.Store
	appMetrics *handlers.AppMetrics
	logger     *zap.Logger
	tele       *telemetry.Telemetry
}

func NewServer(cfg config.ServerConfig, refresher *refresh.Refresher, store *state.Store, appMetrics *handlers.AppMetrics, logger *zap.Logger, tele *telemetry.Telemetry) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	httpMetrics := middlewares.NewMetricsMiddleware(logger)

	engine.Use(middlewares.RequestIDMiddleware())
	engine.Use(middlewares.LoggingMiddleware(logger))
	engine.Use(middlewares.RecoveryMiddleware(logger, true))
	engine.Use(middlewares.TelemetryMiddleware(logger, tele))
	engine.Use(httpMetrics.Handler())

	s := &Server{
		cfg:        cfg,
		engine:     engine,
		refresher:  refresher,
		store:      store,
		appMetrics: appMetrics,
		logger:     logger,
		tele:       tele,
	}

	s.setupRoutes()

	return s
}

func (s *Server) setupRoutes() {
	weather := handlers.NewWeatherHandler(s.refresher, s.store, s.logger)
	s.engine.GET("/weather", weather.GetWeather)
	s.engine.GET("/weather/current", weather.GetCurrent)

	// Health endpoints (Kubernetes friendly)
	health := handlers.NewHealthHandler(s.store, s.logger)
	s.engine.GET("/health", health.Health)
	s.engine.GET("/health/live", health.Liveness)
	s.engine.GET("/health/ready", health.Readiness)

	metrics := handlers.NewMetricsHandler(s.appMetrics, handlers.Gauges{
		InFlightRefreshes: s.refresher.InFlight,
		Loading:           s.store.Loading,
	}, s.logger)
	s.engine.GET("/metrics", metrics.ServeMetrics)
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:      s.engine,
		ReadTimeout:  time.Duration(s.cfg.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(s.cfg.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(s.cfg.IdleTimeout) * time.Second,
	}

	s.logger.Info("Starting server", zap.String("addr", s.server.Addr))
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}

	return s.server.Shutdown(ctx)
}
