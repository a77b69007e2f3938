package resource

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/simp-lee/shopbase/internal/domain"
	"github.com/simp-lee/shopbase/internal/pkg"
)

// Handler serves the REST API of one resource.
// List endpoints return summary projections S; every other endpoint returns the full entity.
type Handler[T any, P EntityPtr[T], I any, S any] struct {
	svc       Service[T, P, I]
	summarize func(P) S
}

// NewHandler creates a Handler for svc. Panics if summarize is nil.
func NewHandler[T any, P EntityPtr[T], I any, S any](svc Service[T, P, I], summarize func(P) S) *Handler[T, P, I, S] {
	if summarize == nil {
		panic("resource.NewHandler: summarize must not be nil")
	}
	return &Handler[T, P, I, S]{svc: svc, summarize: summarize}
}

// RegisterRoutes mounts the resource under api, e.g. /api/v1/categories.
func (h *Handler[T, P, I, S]) RegisterRoutes(api *gin.RouterGroup) {
	g := api.Group("/" + h.svc.Name())
	g.GET("", h.List)
	g.POST("", h.Create)
	g.GET("/trash", h.ListTrash)
	g.GET("/trash/:id", h.GetTrashed)
	g.GET("/:id", h.Get)
	g.PUT("/:id", h.Update)
	g.PATCH("/:id/status", h.SetStatus)
	g.DELETE("/:id", h.Delete)
	g.POST("/:id/restore", h.Restore)
	g.DELETE("/:id/hard", h.Purge)
}

// List handles GET /{resource}.
func (h *Handler[T, P, I, S]) List(c *gin.Context) {
	h.list(c, domain.ScopeActive)
}

// ListTrash handles GET /{resource}/trash.
func (h *Handler[T, P, I, S]) ListTrash(c *gin.Context) {
	h.list(c, domain.ScopeTrash)
}

func (h *Handler[T, P, I, S]) list(c *gin.Context, scope domain.Scope) {
	q := pkg.ParseListQuery(c, scope)

	page, err := h.svc.List(c.Request.Context(), q)
	if err != nil {
		pkg.Error(c, err)
		return
	}

	pkg.List(c, domain.MapPage(page, func(item T) S { return h.summarize(P(&item)) }))
}

// Get handles GET /{resource}/:id.
func (h *Handler[T, P, I, S]) Get(c *gin.Context) {
	h.get(c, domain.ScopeActive)
}

// GetTrashed handles GET /{resource}/trash/:id.
func (h *Handler[T, P, I, S]) GetTrashed(c *gin.Context) {
	h.get(c, domain.ScopeTrash)
}

func (h *Handler[T, P, I, S]) get(c *gin.Context, scope domain.Scope) {
	id, err := parseID(c)
	if err != nil {
		pkg.Error(c, err)
		return
	}

	e, err := h.svc.Get(c.Request.Context(), id, scope)
	if err != nil {
		pkg.Error(c, err)
		return
	}

	detail(c, e.Base())
	pkg.Success(c, e)
}

// Create handles POST /{resource}.
func (h *Handler[T, P, I, S]) Create(c *gin.Context) {
	in := new(I)
	if err := pkg.BindJSON(c, in); err != nil {
		pkg.Error(c, err)
		return
	}

	e, err := h.svc.Create(c.Request.Context(), in)
	if err != nil {
		pkg.Error(c, err)
		return
	}

	detail(c, e.Base())
	pkg.Created(c, e)
}

// versionBody picks the concurrency token out of a request body.
type versionBody struct {
	RowVersion string `json:"rowVersion"`
}

// Update handles PUT /{resource}/:id. The current row version comes from
// the If-Match header or the rowVersion body field.
func (h *Handler[T, P, I, S]) Update(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		pkg.Error(c, err)
		return
	}

	in := new(I)
	if err := pkg.BindJSON(c, in); err != nil {
		pkg.Error(c, err)
		return
	}
	var ver versionBody
	if err := pkg.BindJSON(c, &ver); err != nil {
		pkg.Error(c, err)
		return
	}

	e, err := h.svc.Update(c.Request.Context(), id, rowVersion(c, ver.RowVersion), in)
	if err != nil {
		pkg.Error(c, err)
		return
	}

	detail(c, e.Base())
	pkg.Success(c, e)
}

type statusBody struct {
	Status     *bool  `json:"status"`
	RowVersion string `json:"rowVersion"`
}

// SetStatus handles PATCH /{resource}/:id/status.
func (h *Handler[T, P, I, S]) SetStatus(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		pkg.Error(c, err)
		return
	}

	var body statusBody
	if err := pkg.BindJSON(c, &body); err != nil {
		pkg.Error(c, err)
		return
	}
	if body.Status == nil {
		pkg.Error(c, domain.NewValidationError(domain.FieldErrors{"status": {"is required"}}))
		return
	}

	e, err := h.svc.SetStatus(c.Request.Context(), id, rowVersion(c, body.RowVersion), *body.Status)
	if err != nil {
		pkg.Error(c, err)
		return
	}

	detail(c, e.Base())
	pkg.Success(c, e)
}

// Delete handles DELETE /{resource}/:id.
func (h *Handler[T, P, I, S]) Delete(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		pkg.Error(c, err)
		return
	}

	if err := h.svc.Delete(c.Request.Context(), id); err != nil {
		pkg.Error(c, err)
		return
	}

	pkg.Success(c, nil)
}

// Restore handles POST /{resource}/:id/restore.
func (h *Handler[T, P, I, S]) Restore(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		pkg.Error(c, err)
		return
	}

	e, err := h.svc.Restore(c.Request.Context(), id)
	if err != nil {
		pkg.Error(c, err)
		return
	}

	detail(c, e.Base())
	pkg.Success(c, e)
}

// Purge handles DELETE /{resource}/:id/hard.
func (h *Handler[T, P, I, S]) Purge(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		pkg.Error(c, err)
		return
	}

	if err := h.svc.Purge(c.Request.Context(), id); err != nil {
		pkg.Error(c, err)
		return
	}

	pkg.Success(c, nil)
}

// parseID extracts and validates the :id path parameter.
func parseID(c *gin.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, domain.NewValidationError(domain.FieldErrors{"id": {"must be a valid UUID"}})
	}
	return id, nil
}

// rowVersion prefers an If-Match header over the body value.
func rowVersion(c *gin.Context, fromBody string) string {
	if h := strings.TrimSpace(c.GetHeader("If-Match")); h != "" {
		return strings.Trim(strings.TrimPrefix(h, "W/"), `"`)
	}
	return fromBody
}

// detail sets the ETag of a single-entity response.
func detail(c *gin.Context, b *domain.BaseEntity) {
	c.Header("ETag", `"`+b.RowVersion+`"`)
}
