package resource

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simp-lee/shopbase/internal/domain"
	"github.com/simp-lee/shopbase/internal/pkg"
)

// setupAPIRouter mounts the widget API behind a middleware that installs
// an admin principal for tenant "acme" unless the test overrides the role
// with the X-Role header.
func setupAPIRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	svc := NewService(newWidgetRepo(t), widgetDef, Options{})
	h := NewHandler(svc, summarizeWidget)

	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(pkg.RequestIDKey, "req-1")
		role := c.GetHeader("X-Role")
		if role == "" {
			role = domain.RoleAdmin
		}
		if role != "anonymous" {
			ctx := domain.WithPrincipal(c.Request.Context(), domain.Principal{
				Subject: "tester", TenantID: "acme", Roles: []string{role},
			})
			c.Request = c.Request.WithContext(ctx)
		}
		c.Next()
	})
	h.RegisterRoutes(r.Group("/api/v1"))
	return r
}

func do(r http.Handler, method, path, body string, headers ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// envelope decodes a success response whose data is D.
func envelope[D any](t *testing.T, w *httptest.ResponseRecorder) D {
	t.Helper()
	var resp struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Data    D      `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), "body: %s", w.Body.String())
	return resp.Data
}

func problem(t *testing.T, w *httptest.ResponseRecorder) pkg.Problem {
	t.Helper()
	assert.True(t, strings.HasPrefix(w.Header().Get("Content-Type"), pkg.ProblemContentType),
		"content type %q", w.Header().Get("Content-Type"))
	var p pkg.Problem
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &p), "body: %s", w.Body.String())
	return p
}

func createWidget(t *testing.T, r http.Handler, name, slug string) widget {
	t.Helper()
	w := do(r, http.MethodPost, "/api/v1/widgets", `{"name":"`+name+`","slug":"`+slug+`"}`)
	require.Equal(t, http.StatusCreated, w.Code, "create %s: %s", name, w.Body.String())
	return envelope[widget](t, w)
}

func TestHandler_Create(t *testing.T) {
	r := setupAPIRouter(t)

	w := do(r, http.MethodPost, "/api/v1/widgets",
		`{"name":"Anvil","slug":"anvil","id":"00000000-0000-0000-0000-000000000001"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	got := envelope[widget](t, w)
	assert.NotEqual(t, uuid.Nil, got.ID)
	assert.NotEqual(t, "00000000-0000-0000-0000-000000000001", got.ID.String(), "id is assigned by the server")
	assert.Equal(t, "acme", got.TenantID)
	assert.Equal(t, `"`+got.RowVersion+`"`, w.Header().Get("ETag"))
}

func TestHandler_Create_ValidationError(t *testing.T) {
	r := setupAPIRouter(t)

	w := do(r, http.MethodPost, "/api/v1/widgets", `{"name":"","slug":"Bad Slug"}`)
	require.Equal(t, http.StatusBadRequest, w.Code)

	p := problem(t, w)
	assert.Equal(t, "/problems/validation", p.Type)
	assert.Equal(t, "req-1", p.TraceID)
	assert.Equal(t, "/api/v1/widgets", p.Instance)
	for _, field := range []string{"name", "slug"} {
		assert.NotEmpty(t, p.Errors[field], "errors for %q", field)
	}
}

func TestHandler_Create_MalformedBody(t *testing.T) {
	r := setupAPIRouter(t)

	w := do(r, http.MethodPost, "/api/v1/widgets", `{"name":`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, []string{"malformed JSON"}, problem(t, w).Errors["body"])
}

func TestHandler_List(t *testing.T) {
	r := setupAPIRouter(t)
	createWidget(t, r, "Red Shoes", "red-shoes")
	createWidget(t, r, "Blue Hat", "blue-hat")

	w := do(r, http.MethodGet, "/api/v1/widgets?page=1&pageSize=10&q=red", "")
	require.Equal(t, http.StatusOK, w.Code)

	var raw struct {
		Data map[string]json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &raw))
	for _, key := range []string{"items", "page", "pageSize", "totalCount", "total", "totalPages"} {
		assert.Contains(t, raw.Data, key)
	}

	page := envelope[domain.Page[widgetSummary]](t, w)
	require.Equal(t, int64(1), page.TotalCount)
	assert.Equal(t, int64(1), page.Total)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "Red Shoes", page.Items[0].Name)

	// Summary projection only.
	var items struct {
		Data struct {
			Items []map[string]any `json:"items"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &items))
	require.Len(t, items.Data.Items, 1)
	assert.NotContains(t, items.Data.Items[0], "slug", "list items use the summary projection")
}

func TestHandler_List_HugePageIsEmpty(t *testing.T) {
	r := setupAPIRouter(t)
	createWidget(t, r, "Anvil", "anvil")
	createWidget(t, r, "Bolt", "bolt")
	createWidget(t, r, "Cog", "cog")

	w := do(r, http.MethodGet, "/api/v1/widgets?page=922337203685477581&pageSize=100", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	page := envelope[domain.Page[widgetSummary]](t, w)
	assert.Empty(t, page.Items, "no items past the last page")
	assert.Equal(t, 922337203685477581, page.Page)
	assert.Equal(t, int64(3), page.TotalCount)
	assert.Equal(t, 1, page.TotalPages)
}

func TestHandler_Get(t *testing.T) {
	r := setupAPIRouter(t)
	created := createWidget(t, r, "Anvil", "anvil")

	w := do(r, http.MethodGet, "/api/v1/widgets/"+created.ID.String(), "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "anvil", envelope[widget](t, w).Slug, "detail uses the full projection")

	w = do(r, http.MethodGet, "/api/v1/widgets/"+uuid.NewString(), "")
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "widget not found", problem(t, w).Detail)
}

func TestHandler_InvalidID(t *testing.T) {
	r := setupAPIRouter(t)

	w := do(r, http.MethodGet, "/api/v1/widgets/not-a-uuid", "")
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.NotEmpty(t, problem(t, w).Errors["id"])
}

func TestHandler_Update(t *testing.T) {
	r := setupAPIRouter(t)
	created := createWidget(t, r, "Anvil", "anvil")
	path := "/api/v1/widgets/" + created.ID.String()

	t.Run("body row version", func(t *testing.T) {
		w := do(r, http.MethodPut, path, `{"name":"Anvil 2","slug":"anvil","rowVersion":"`+created.RowVersion+`"}`)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		got := envelope[widget](t, w)
		assert.NotEqual(t, created.RowVersion, got.RowVersion, "row version must change")
		assert.Equal(t, `"`+got.RowVersion+`"`, w.Header().Get("ETag"))
	})

	t.Run("stale version conflicts", func(t *testing.T) {
		w := do(r, http.MethodPut, path, `{"name":"Anvil 3","slug":"anvil","rowVersion":"`+created.RowVersion+`"}`)
		require.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, "/problems/conflict", problem(t, w).Type)
	})

	t.Run("if-match header", func(t *testing.T) {
		current := envelope[widget](t, do(r, http.MethodGet, path, ""))
		w := do(r, http.MethodPut, path, `{"name":"Anvil 4","slug":"anvil","rowVersion":"ignored"}`,
			"If-Match", `W/"`+current.RowVersion+`"`)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	})

	t.Run("missing version", func(t *testing.T) {
		w := do(r, http.MethodPut, path, `{"name":"Anvil 5","slug":"anvil"}`)
		require.Equal(t, http.StatusBadRequest, w.Code)
		assert.NotEmpty(t, problem(t, w).Errors["rowVersion"])
	})
}

func TestHandler_SetStatus(t *testing.T) {
	r := setupAPIRouter(t)
	created := createWidget(t, r, "Anvil", "anvil")
	path := "/api/v1/widgets/" + created.ID.String() + "/status"

	w := do(r, http.MethodPatch, path, `{"rowVersion":"`+created.RowVersion+`"}`)
	require.Equal(t, http.StatusBadRequest, w.Code, "status is required")

	w = do(r, http.MethodPatch, path, `{"status":false,"rowVersion":"`+created.RowVersion+`"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	got := envelope[widget](t, w)
	assert.False(t, got.Status)
	assert.False(t, got.IsDeleted, "inactive is not trashed")

	list := envelope[domain.Page[widgetSummary]](t, do(r, http.MethodGet, "/api/v1/widgets?status=inactive", ""))
	assert.Equal(t, int64(1), list.TotalCount)
}

func TestHandler_Lifecycle(t *testing.T) {
	r := setupAPIRouter(t)
	created := createWidget(t, r, "Anvil", "anvil")
	id := created.ID.String()

	require.Equal(t, http.StatusPreconditionFailed, do(r, http.MethodDelete, "/api/v1/widgets/"+id+"/hard", "").Code,
		"hard delete of an active row")

	for i := 0; i < 2; i++ {
		require.Equal(t, http.StatusOK, do(r, http.MethodDelete, "/api/v1/widgets/"+id, "").Code, "delete #%d", i+1)
	}

	trash := envelope[domain.Page[widgetSummary]](t, do(r, http.MethodGet, "/api/v1/widgets/trash", ""))
	require.Equal(t, int64(1), trash.TotalCount)
	require.Equal(t, http.StatusOK, do(r, http.MethodGet, "/api/v1/widgets/trash/"+id, "").Code, "trash detail")
	require.Equal(t, http.StatusNotFound, do(r, http.MethodGet, "/api/v1/widgets/"+id, "").Code,
		"active detail of a trashed row")

	w := do(r, http.MethodPost, "/api/v1/widgets/"+id+"/restore", "")
	require.Equal(t, http.StatusOK, w.Code, "restore")
	got := envelope[widget](t, w)
	assert.False(t, got.IsDeleted)
	assert.Nil(t, got.DeletedAtUTC)
	require.Equal(t, http.StatusNotFound, do(r, http.MethodPost, "/api/v1/widgets/"+id+"/restore", "").Code,
		"restore of an active row")

	do(r, http.MethodDelete, "/api/v1/widgets/"+id, "")
	require.Equal(t, http.StatusOK, do(r, http.MethodDelete, "/api/v1/widgets/"+id+"/hard", "").Code, "hard delete from trash")
	assert.Equal(t, http.StatusNotFound, do(r, http.MethodGet, "/api/v1/widgets/trash/"+id, "").Code, "purged row")
}

func TestHandler_Authorization(t *testing.T) {
	r := setupAPIRouter(t)

	assert.Equal(t, http.StatusUnauthorized, do(r, http.MethodGet, "/api/v1/widgets", "", "X-Role", "anonymous").Code)
	assert.Equal(t, http.StatusForbidden,
		do(r, http.MethodPost, "/api/v1/widgets", `{"name":"x","slug":"x"}`, "X-Role", domain.RoleViewer).Code)
	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/api/v1/widgets", "", "X-Role", domain.RoleViewer).Code,
		"viewers may read")
}

func TestNewHandler_NilSummarizePanics(t *testing.T) {
	assert.Panics(t, func() {
		NewHandler[widget, *widget, widgetInput, widgetSummary](nil, nil)
	})
}
