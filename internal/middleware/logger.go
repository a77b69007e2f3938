package middleware

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/simp-lee/shopbase/internal/domain"
	"github.com/simp-lee/shopbase/internal/metrics"
)

// Logger writes one access log entry per request: method, path, route
// template, status, latency, response size, client address and, once auth has
// run, the tenant and subject. Entries from a request-id aware context carry
// request_id through the logger's context middleware.
//
// Level follows the status: 5xx error (with the cause recorded in c.Errors),
// 4xx warn, everything else info. Health checks and metric scrapes are logged
// at debug so they do not drown catalog traffic.
func Logger(logger *slog.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = slog.Default()
	}

	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		attrs := []slog.Attr{
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
			slog.Int("status", status),
			slog.Duration("latency", time.Since(start)),
			slog.Int("bytes", max(c.Writer.Size(), 0)),
			slog.String("client_ip", c.ClientIP()),
		}
		if route := c.FullPath(); route != "" {
			attrs = append(attrs, slog.String("route", route))
		}

		ctx := c.Request.Context()
		if p, ok := domain.PrincipalFrom(ctx); ok {
			attrs = append(attrs,
				slog.String("tenant", p.TenantID),
				slog.String("subject", p.Subject),
			)
		}

		level := slog.LevelInfo
		switch {
		case status >= 500:
			level = slog.LevelError
			if last := c.Errors.Last(); last != nil {
				attrs = append(attrs, slog.String("error", last.Error()))
			}
		case status >= 400:
			level = slog.LevelWarn
		case metrics.ShouldSkipEndpoint(c.Request.URL.Path):
			level = slog.LevelDebug
		}
		logger.LogAttrs(ctx, level, "request", attrs...)
	}
}
