package api

import (
	"log/slog"
	"time"

	"github.com/google/uuid"
	echo "github.com/labstack/echo/v5"
)

// requestIDHeader carries the per-request correlation id in responses.
const requestIDHeader = "X-Request-ID"

// securityHeaders returns middleware that sets standard security response headers.
func securityHeaders() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c *echo.Context) error {
			h := c.Response().Header()
			h.Set("X-Frame-Options", "DENY")
			h.Set("X-Content-Type-Options", "nosniff")
			h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
			return next(c)
		}
	}
}

// requestLogger returns middleware that assigns a correlation id to each
// request and logs method, path, status, and duration on completion.
func requestLogger() echo.MiddlewareFunc {
	logger := slog.Default().With("component", "http")
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c *echo.Context) error {
			requestID := c.Request().Header.Get(requestIDHeader)
			if requestID == "" {
				requestID = uuid.New().String()
			}
			c.Response().Header().Set(requestIDHeader, requestID)

			start := time.Now()
			err := next(c)

			attrs := []any{
				"request_id", requestID,
				"method", c.Request().Method,
				"path", c.Request().URL.Path,
				"status", c.Response().(*echo.Response).Status,
				"duration", time.Since(start),
			}
			if err != nil {
				logger.Warn("Request failed", append(attrs, "error", err)...)
			} else {
				logger.Info("Request completed", attrs...)
			}
			return err
		}
	}
}
