package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/simp-lee/ginx"

	"github.com/simp-lee/shopbase/internal/pkg"
)

func serveLimited(r *gin.Engine, header http.Header) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.RemoteAddr = "192.0.2.10:4000"
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRateLimitByIP_AllowsBurstThenRejects(t *testing.T) {
	r := gin.New()
	r.Use(RateLimitByIP(RateLimitConfig{RequestsPerSecond: 1, Burst: 2}))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	for i := 0; i < 2; i++ {
		if w := serveLimited(r, nil); w.Code != http.StatusNoContent {
			t.Fatalf("request %d: expected 204, got %d", i, w.Code)
		}
	}

	w := serveLimited(r, nil)
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("third request: expected 429, got %d", w.Code)
	}
	if got := w.Header().Get("Retry-After"); got != "1" {
		t.Errorf("expected Retry-After 1, got %q", got)
	}
	if got := w.Header().Get("Content-Type"); got != pkg.ProblemContentType {
		t.Errorf("expected %s, got %q", pkg.ProblemContentType, got)
	}

	var body pkg.Problem
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Status != http.StatusTooManyRequests {
		t.Errorf("expected problem status 429, got %d", body.Status)
	}
}

func TestRateLimit_KeysOnPrincipal(t *testing.T) {
	r := gin.New()
	r.Use(func(c *gin.Context) {
		if id := c.GetHeader("X-User"); id != "" {
			ginx.SetUserID(c, id)
		}
		c.Next()
	})
	r.Use(RateLimit(RateLimitConfig{RequestsPerSecond: 1, Burst: 1}))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	alice := http.Header{"X-User": []string{"acme/alice"}}
	if w := serveLimited(r, alice); w.Code != http.StatusNoContent {
		t.Fatalf("alice first call: expected 204, got %d", w.Code)
	}
	if w := serveLimited(r, alice); w.Code != http.StatusTooManyRequests {
		t.Fatalf("alice second call: expected 429, got %d", w.Code)
	}

	// Same address, different principal.
	bob := http.Header{"X-User": []string{"acme/bob"}}
	if w := serveLimited(r, bob); w.Code != http.StatusNoContent {
		t.Fatalf("bob has his own bucket, got %d", w.Code)
	}
	if w := serveLimited(r, nil); w.Code != http.StatusNoContent {
		t.Fatalf("anonymous caller falls back to the address bucket, got %d", w.Code)
	}
}

func TestRateLimitByIP_RunsBeforeAuth(t *testing.T) {
	r := gin.New()
	r.Use(RateLimitByIP(RateLimitConfig{RequestsPerSecond: 1, Burst: 1}))
	r.Use(Auth(AuthConfig{Enabled: true, Secret: testSecret}))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	bad := http.Header{"Authorization": []string{"Bearer garbage"}}
	if w := serveLimited(r, bad); w.Code != http.StatusUnauthorized {
		t.Fatalf("first bad token: expected 401, got %d", w.Code)
	}
	if w := serveLimited(r, bad); w.Code != http.StatusTooManyRequests {
		t.Fatalf("second bad token: expected 429, got %d", w.Code)
	}
}

func TestRateLimit_DisabledPassesThrough(t *testing.T) {
	r := gin.New()
	r.Use(RateLimitByIP(RateLimitConfig{}))
	r.Use(RateLimit(RateLimitConfig{RequestsPerSecond: -1}))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	for i := 0; i < 50; i++ {
		if w := serveLimited(r, nil); w.Code != http.StatusNoContent {
			t.Fatalf("request %d: expected 204, got %d", i, w.Code)
		}
	}
}
