package api

import (
	"log/slog"
	"time"

	"github.com/labstack/echo/v4"
)

// requestLogger logs one line per request through slog. Errors are handed
// to the error handler first so the logged status is the one sent.
func requestLogger() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			res := c.Response()
			start := time.Now()

			if err := next(c); err != nil {
				c.Error(err)
			}

			level := slog.LevelInfo
			switch {
			case res.Status >= 500:
				level = slog.LevelError
			case res.Status >= 400:
				level = slog.LevelWarn
			}

			slog.Log(req.Context(), level, "request",
				"request_id", res.Header().Get(echo.HeaderXRequestID),
				"method", req.Method,
				"uri", req.RequestURI,
				"route", c.Path(),
				"status", res.Status,
				"remote_ip", c.RealIP(),
				"duration", time.Since(start),
				"response_size", res.Size)
			return nil
		}
	}
}
