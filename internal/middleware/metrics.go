package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/simp-lee/shopbase/internal/metrics"
)

// HTTPRecorder records one finished request.
type HTTPRecorder interface {
	RecordHTTPRequest(method, endpoint string, statusCode int, duration time.Duration)
}

// Metrics returns a middleware that records request count and latency per
// route template. Unmatched requests are grouped under "unmatched" so
// arbitrary paths cannot blow up label cardinality.
func Metrics(rec HTTPRecorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		if metrics.ShouldSkipEndpoint(c.Request.URL.Path) {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unmatched"
		}
		rec.RecordHTTPRequest(c.Request.Method, endpoint, c.Writer.Status(), time.Since(start))
	}
}
