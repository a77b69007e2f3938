package app

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const defaultCheckTimeout = time.Second

// HealthCheck tests one dependency. A failing required check makes the
// service unready (503); a failing optional one only marks it degraded.
type HealthCheck struct {
	Name     string
	Required bool
	Check    func(ctx context.Context) error
}

// DatabaseCheck pings the catalog database. It is always required.
func DatabaseCheck(db *gorm.DB) HealthCheck {
	return HealthCheck{
		Name:     "database",
		Required: true,
		Check: func(ctx context.Context) error {
			if db == nil {
				return errors.New("database not configured")
			}
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	}
}

// RedisCheck pings the revalidation broker. Publishing is best effort, so
// the check is optional.
func RedisCheck(client redis.UniversalClient) HealthCheck {
	return HealthCheck{
		Name: "redis",
		Check: func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		},
	}
}

type healthReport struct {
	Status     string            `json:"status"`
	Components map[string]string `json:"components"`
}

// readinessHandler runs every check concurrently, each bounded by timeout
// and by the request context.
func readinessHandler(checks []HealthCheck, timeout time.Duration) gin.HandlerFunc {
	if timeout <= 0 {
		timeout = defaultCheckTimeout
	}
	return func(c *gin.Context) {
		results := make([]error, len(checks))
		var wg sync.WaitGroup
		for i, hc := range checks {
			wg.Add(1)
			go func(i int, hc HealthCheck) {
				defer wg.Done()
				ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
				defer cancel()
				results[i] = hc.Check(ctx)
			}(i, hc)
		}
		wg.Wait()

		report := healthReport{Status: "ok", Components: make(map[string]string, len(checks))}
		code := http.StatusOK
		for i, hc := range checks {
			if results[i] == nil {
				report.Components[hc.Name] = "ok"
				continue
			}
			report.Components[hc.Name] = "error"
			if hc.Required {
				report.Status = "down"
				code = http.StatusServiceUnavailable
			} else if report.Status == "ok" {
				report.Status = "degraded"
			}
		}
		c.JSON(code, report)
	}
}

func livenessHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
