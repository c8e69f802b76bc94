package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/ParfinovichOlga/spimex-trading-microservice/spimex/config"
)

// Server is the HTTP front of the service.
type Server struct {
	echo   *echo.Echo
	cfg    config.HTTPConfig
	logger zerolog.Logger
}

// NewServer wires routes and middleware. metrics may be nil.
func NewServer(cfg config.HTTPConfig, h *Handlers, metrics *Metrics, logger zerolog.Logger) *Server {
	logger = logger.With().Str("component", "http").Logger()

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = errorHandler(logger)
	// Client keys for rate limiting and logs come from RealIP
	if cfg.TrustProxyHeaders {
		e.IPExtractor = echo.ExtractIPFromXFFHeader()
	} else {
		e.IPExtractor = echo.ExtractIPDirect()
	}

	e.Use(RequestLogger(logger))
	if metrics != nil {
		e.Use(metrics.Middleware())
	}
	if cfg.RateLimitEnabled {
		e.Use(NewTokenBucket(cfg.RateLimitCapacity, cfg.RateLimitRefillRate, nil).Middleware())
	}

	e.GET("/", h.Root)
	e.GET("/healthy", h.Healthy)

	results := e.Group("/results")
	results.GET("/latest_trading_dates", h.LatestTradingDates)
	results.GET("/trading_period", h.TradingPeriod)
	results.GET("/latest_trade", h.LatestTrade)

	if metrics != nil {
		e.GET("/metrics", echo.WrapHandler(metrics.Handler()))
	}

	return &Server{echo: e, cfg: cfg, logger: logger}
}

// Handler returns the root handler, e.g. for httptest.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start serves until Shutdown is called. A clean shutdown returns nil.
func (s *Server) Start() error {
	s.echo.Server.ReadTimeout = s.cfg.ReadTimeout
	s.echo.Server.WriteTimeout = s.cfg.WriteTimeout
	s.logger.Info().Str("addr", s.cfg.Addr).Msg("HTTP server listening")
	if err := s.echo.Start(s.cfg.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting connections and waits for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info().Msg("shutting down HTTP server")
	return s.echo.Shutdown(ctx)
}
