package api

import (
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// requestLoggerKey is where the request-scoped logger lives in the echo context.
const requestLoggerKey = "request_logger"

// RequestLogger tags each request with an ID and logs it when it finishes.
// An incoming X-Request-ID is kept, otherwise a UUID is generated.
func RequestLogger(logger zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			id := req.Header.Get(echo.HeaderXRequestID)
			if id == "" {
				id = uuid.NewString()
			}
			c.Response().Header().Set(echo.HeaderXRequestID, id)

			reqLogger := logger.With().Str("request_id", id).Logger()
			c.Set(requestLoggerKey, reqLogger)

			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}

			status := c.Response().Status
			event := reqLogger.Info()
			switch {
			case status >= 500:
				event = reqLogger.Error().Err(err)
			case status >= 400:
				event = reqLogger.Warn()
			}
			event.
				Str("method", req.Method).
				Str("uri", req.RequestURI).
				Str("remote_ip", c.RealIP()).
				Int("status", status).
				Int64("bytes_out", c.Response().Size).
				Dur("duration", time.Since(start)).
				Msg("request handled")
			return nil
		}
	}
}

// loggerFrom returns the request-scoped logger set by RequestLogger, or fallback.
func loggerFrom(c echo.Context, fallback zerolog.Logger) zerolog.Logger {
	if l, ok := c.Get(requestLoggerKey).(zerolog.Logger); ok {
		return l
	}
	return fallback
}
