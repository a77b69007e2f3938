package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/simp-lee/ginx"

	"github.com/simp-lee/shopbase/internal/domain"
	"github.com/simp-lee/shopbase/internal/pkg"
)

// AuthConfig controls how the caller's principal is established.
type AuthConfig struct {
	// Enabled requires a bearer token on every request. When false every
	// request runs as DefaultPrincipal.
	Enabled bool
	// Secret is the HS256 signing key.
	Secret string
	// Issuer, when set, must match the iss claim.
	Issuer string
	// DefaultPrincipal is used when auth is disabled.
	DefaultPrincipal domain.Principal
}

// Claims is the token payload understood by the API.
type Claims struct {
	TenantID string   `json:"tid"`
	Roles    []string `json:"roles"`
	jwt.RegisteredClaims
}

// Auth returns a middleware that turns the Authorization header into a
// domain.Principal stored on the request context. Services read the
// principal from there; nothing downstream looks at headers.
func Auth(cfg AuthConfig) gin.HandlerFunc {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}
	parser := jwt.NewParser(opts...)
	key := []byte(cfg.Secret)

	return func(c *gin.Context) {
		if !cfg.Enabled {
			setPrincipal(c, cfg.DefaultPrincipal)
			c.Next()
			return
		}

		raw, err := bearerToken(c.GetHeader("Authorization"))
		if err != nil {
			unauthorized(c, err.Error())
			return
		}

		var claims Claims
		if _, err := parser.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
			return key, nil
		}); err != nil {
			unauthorized(c, "invalid or expired token")
			return
		}
		if claims.Subject == "" || claims.TenantID == "" {
			unauthorized(c, "token must carry sub and tid claims")
			return
		}

		setPrincipal(c, domain.Principal{
			Subject:  claims.Subject,
			TenantID: claims.TenantID,
			Roles:    claims.Roles,
		})
		c.Next()
	}
}

// IssueToken signs an HS256 token for p. It is used by the admin CLI and tests;
// token issuance for end users lives outside this service.
func IssueToken(secret string, p domain.Principal, claims jwt.RegisteredClaims) (string, error) {
	claims.Subject = p.Subject
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		TenantID:         p.TenantID,
		Roles:            p.Roles,
		RegisteredClaims: claims,
	})
	return tok.SignedString([]byte(secret))
}

func bearerToken(header string) (string, error) {
	if header == "" {
		return "", errors.New("authorization header is required")
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return "", errors.New("invalid authorization header format")
	}
	return strings.TrimSpace(token), nil
}

// setPrincipal stores p on the request context and registers tenant/subject
// as the ginx user id, which RateLimit keys its buckets by.
func setPrincipal(c *gin.Context, p domain.Principal) {
	c.Request = c.Request.WithContext(domain.WithPrincipal(c.Request.Context(), p))
	ginx.SetUserID(c, p.TenantID+"/"+p.Subject)
}

func unauthorized(c *gin.Context, detail string) {
	c.Header("WWW-Authenticate", `Bearer realm="shopbase"`)
	pkg.ErrorStatus(c, http.StatusUnauthorized, detail)
}
