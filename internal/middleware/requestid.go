package middleware

import (
	"log/slog"
	"regexp"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/simp-lee/logger"

	"github.com/simp-lee/shopbase/internal/pkg"
)

const requestIDHeader = "X-Request-ID"

// Storefronts behind a proxy often forward a correlation id instead.
const correlationIDHeader = "X-Correlation-ID"

var requestIDPattern = regexp.MustCompile(`^[A-Za-z0-9._-]{1,64}$`)

// RequestIDConfig controls request-id reuse behavior.
type RequestIDConfig struct {
	// TrustUpstream reuses a well-formed X-Request-ID or X-Correlation-ID
	// sent by the caller instead of generating one.
	TrustUpstream bool
}

// RequestID assigns a fresh id to every request. See RequestIDWithConfig.
func RequestID() gin.HandlerFunc {
	return RequestIDWithConfig(RequestIDConfig{})
}

// RequestIDWithConfig assigns each request an id. The id is echoed in the
// X-Request-ID response header, stored under pkg.RequestIDKey where problem
// responses read it as their traceId, and attached to the request context as
// the request_id log attribute.
func RequestIDWithConfig(cfg RequestIDConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := ""
		if cfg.TrustUpstream {
			id = upstreamRequestID(c)
		}
		if id == "" {
			id = uuid.NewString()
		}

		c.Set(pkg.RequestIDKey, id)
		c.Header(requestIDHeader, id)
		c.Request = c.Request.WithContext(
			logger.WithContextAttrs(c.Request.Context(), slog.String("request_id", id)))

		c.Next()
	}
}

func upstreamRequestID(c *gin.Context) string {
	for _, h := range []string{requestIDHeader, correlationIDHeader} {
		if v := c.GetHeader(h); requestIDPattern.MatchString(v) {
			return v
		}
	}
	return ""
}

// GetRequestID returns the id assigned by RequestID, or "" outside it.
func GetRequestID(c *gin.Context) string {
	return c.GetString(pkg.RequestIDKey)
}
