package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/simp-lee/ginx"

	"github.com/simp-lee/shopbase/internal/pkg"
)

const defaultLimiterIdleTTL = 10 * time.Minute

// RateLimitConfig holds token bucket settings applied per client.
type RateLimitConfig struct {
	// RequestsPerSecond is the sustained rate. Zero or less disables limiting.
	RequestsPerSecond int
	// Burst is the bucket size. Zero means RequestsPerSecond.
	Burst int
	// IdleTTL drops buckets of clients not seen for this long.
	IdleTTL time.Duration
}

// RateLimitByIP limits every request by client address. It runs in front of
// Auth so rejected credentials are throttled like any other request.
func RateLimitByIP(cfg RateLimitConfig) gin.HandlerFunc {
	return rateLimit(cfg, ginx.WithIP())
}

// RateLimit limits requests by the principal Auth established, keyed as
// tenant/subject, and falls back to the client address without one.
func RateLimit(cfg RateLimitConfig) gin.HandlerFunc {
	return rateLimit(cfg, ginx.WithUser())
}

func rateLimit(cfg RateLimitConfig, key ginx.RateOption) gin.HandlerFunc {
	if cfg.RequestsPerSecond <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = cfg.RequestsPerSecond
	}
	idle := cfg.IdleTTL
	if idle <= 0 {
		idle = defaultLimiterIdleTTL
	}

	return ginx.NewChain().
		Use(problemErrors).
		Use(ginx.RateLimit(cfg.RequestsPerSecond, burst,
			key,
			ginx.WithStore(ginx.NewMemoryLimiterStore(idle)),
		)).
		Build()
}

// problemErrors makes ginx middleware reject with the API's problem body.
func problemErrors(next gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		ginx.SetErrorFormatter(c, func(status int, message string) any {
			c.Header("Content-Type", pkg.ProblemContentType)
			return pkg.StatusProblem(c, status, message)
		})
		next(c)
	}
}
