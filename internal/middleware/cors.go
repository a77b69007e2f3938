package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/simp-lee/ginx"
)

// CORSConfig holds the configuration for the CORS middleware.
type CORSConfig struct {
	// AllowOrigins lists the origins allowed to call the API. "*" allows any
	// origin; "https://*.shop.example" allows every subdomain of
	// shop.example, which is how tenant storefronts are usually hosted.
	AllowOrigins []string

	// AllowMethods is a list of HTTP methods allowed for cross-origin requests.
	AllowMethods []string

	// AllowHeaders is a list of headers allowed in cross-origin requests.
	AllowHeaders []string

	// ExposeHeaders lists response headers readable by browser scripts.
	// The API exposes ETag so clients can echo it back in If-Match.
	ExposeHeaders []string

	// AllowCredentials lets browsers send cookies and auth headers.
	AllowCredentials bool

	// MaxAge is how long browsers may cache a preflight answer.
	MaxAge time.Duration
}

// DefaultCORSConfig returns a permissive CORS configuration suitable for development.
func DefaultCORSConfig() CORSConfig {
	return CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{
			http.MethodGet, http.MethodPost, http.MethodPut,
			http.MethodPatch, http.MethodDelete, http.MethodOptions,
		},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "If-Match", "X-Request-ID"},
		ExposeHeaders:    []string{"ETag", "X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           24 * time.Hour,
	}
}

// CORS handles cross-origin requests with DefaultCORSConfig.
func CORS() gin.HandlerFunc {
	return CORSWithConfig(DefaultCORSConfig())
}

// CORSWithConfig handles cross-origin requests with ginx.CORS. Actual
// requests from origins that are not allowed pass through without CORS
// headers; their preflights are refused with 403. An allowed preflight is
// answered with 204 and never reaches the routes.
//
// ginx compares origins literally, so an origin accepted by a wildcard or
// case-insensitive match, or any origin when credentials are on, gets a
// ginx.CORS built for exactly that origin.
func CORSWithConfig(cfg CORSConfig) gin.HandlerFunc {
	match := newOriginMatcher(cfg.AllowOrigins)
	base := []ginx.Option[ginx.CORSConfig]{
		ginx.WithAllowMethods(cfg.AllowMethods...),
		ginx.WithAllowHeaders(cfg.AllowHeaders...),
		ginx.WithExposeHeaders(cfg.ExposeHeaders...),
		ginx.WithAllowCredentials(cfg.AllowCredentials),
		ginx.WithMaxAge(cfg.MaxAge),
	}
	build := func(origins ...string) gin.HandlerFunc {
		opts := append([]ginx.Option[ginx.CORSConfig]{ginx.WithAllowOrigins(origins...)}, base...)
		return ginx.NewChain().Use(ginx.CORS(opts...)).Build()
	}

	// Origins not allowed fall through to a ginx.CORS with an empty allowlist.
	anyOrigin := match.any && !cfg.AllowCredentials
	fixed := build()
	if anyOrigin {
		fixed = build("*")
	}

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		switch {
		case origin == "":
			c.Next()
		case !anyOrigin && match.allowed(origin):
			build(origin)(c)
		default:
			fixed(c)
		}
	}
}

type originMatcher struct {
	any      bool
	exact    map[string]struct{}
	suffixes []wildcardOrigin
}

// wildcardOrigin is "scheme://*.domain" split into its parts.
type wildcardOrigin struct {
	scheme string
	suffix string // ".domain"
}

func newOriginMatcher(origins []string) originMatcher {
	m := originMatcher{exact: make(map[string]struct{}, len(origins))}
	for _, o := range origins {
		o = strings.TrimRight(strings.TrimSpace(o), "/")
		switch {
		case o == "*":
			m.any = true
		case strings.Contains(o, "://*."):
			scheme, host, _ := strings.Cut(o, "://")
			m.suffixes = append(m.suffixes, wildcardOrigin{
				scheme: strings.ToLower(scheme),
				suffix: strings.ToLower(strings.TrimPrefix(host, "*")),
			})
		case o != "":
			m.exact[strings.ToLower(o)] = struct{}{}
		}
	}
	return m
}

func (m originMatcher) allowed(origin string) bool {
	if m.any {
		return true
	}
	origin = strings.ToLower(origin)
	if _, ok := m.exact[origin]; ok {
		return true
	}
	scheme, host, ok := strings.Cut(origin, "://")
	if !ok {
		return false
	}
	for _, w := range m.suffixes {
		if scheme == w.scheme && len(host) > len(w.suffix) && strings.HasSuffix(host, w.suffix) {
			return true
		}
	}
	return false
}
