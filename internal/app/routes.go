package app

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/simp-lee/shopbase/internal/pkg"
)

// RouteDeps holds all dependencies needed to register routes.
type RouteDeps struct {
	Modules []Module
	// Checks back GET /health. GET /health/live only reports that the
	// process is serving.
	Checks       []HealthCheck
	CheckTimeout time.Duration
	// APIMiddleware runs for every /api/v1 route, after the global chain.
	APIMiddleware []gin.HandlerFunc
	// Metrics, when set, is served at MetricsPath outside the API group.
	Metrics     http.Handler
	MetricsPath string
}

// RegisterRoutes registers all application routes on the given gin.Engine.
func RegisterRoutes(r *gin.Engine, deps *RouteDeps) error {
	if r == nil {
		return errors.New("router is nil")
	}
	if deps == nil {
		return errors.New("route dependencies are nil")
	}
	if len(deps.Modules) == 0 {
		return errors.New("at least one module is required")
	}

	r.GET("/health", readinessHandler(deps.Checks, deps.CheckTimeout))
	r.GET("/health/live", livenessHandler)

	if deps.Metrics != nil {
		path := deps.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		r.GET(path, gin.WrapH(deps.Metrics))
	}

	api := r.Group("/api/v1")
	api.Use(deps.APIMiddleware...)

	for i, m := range deps.Modules {
		if m == nil {
			return fmt.Errorf("module at index %d is nil", i)
		}
		m.RegisterRoutes(api)
	}

	r.NoRoute(noRouteHandler())
	r.NoMethod(noMethodHandler())

	return nil
}

// noRouteHandler answers unknown paths with a problem document.
func noRouteHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		pkg.ErrorStatus(c, http.StatusNotFound, "no route for "+c.Request.Method+" "+c.Request.URL.Path)
	}
}

func noMethodHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		pkg.ErrorStatus(c, http.StatusMethodNotAllowed, "method "+c.Request.Method+" is not allowed here")
	}
}
