package client

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/google/uuid"

	"github.com/simp-lee/shopbase/internal/domain"
)

// ListParams are the query parameters of a list call. Zero values are
// omitted and the server defaults apply.
type ListParams struct {
	Page     int
	PageSize int
	Q        string
	// Status is "active", "inactive" or empty for all.
	Status string
	// Sort is "field:asc" or "field:desc".
	Sort string
}

func (p ListParams) values() url.Values {
	v := url.Values{}
	if p.Page > 0 {
		v.Set("page", strconv.Itoa(p.Page))
	}
	if p.PageSize > 0 {
		v.Set("pageSize", strconv.Itoa(p.PageSize))
	}
	if p.Q != "" {
		v.Set("q", p.Q)
	}
	if p.Status != "" {
		v.Set("status", p.Status)
	}
	if p.Sort != "" {
		v.Set("sort", p.Sort)
	}
	return v
}

// Resource is the client side of one catalog resource. T is the detail type
// returned by single-item calls and S the summary type of list rows.
type Resource[T any, S any] struct {
	c    *Client
	name string
}

// NewResource binds the resource at /api/v1/{name}.
func NewResource[T any, S any](c *Client, name string) *Resource[T, S] {
	return &Resource[T, S]{c: c, name: name}
}

// Name returns the resource path segment, e.g. "categories".
func (r *Resource[T, S]) Name() string {
	return r.name
}

// List returns one page of active rows.
func (r *Resource[T, S]) List(ctx context.Context, p ListParams) (*domain.Page[S], error) {
	return r.list(ctx, r.name, p)
}

// Trash returns one page of trashed rows.
func (r *Resource[T, S]) Trash(ctx context.Context, p ListParams) (*domain.Page[S], error) {
	return r.list(ctx, r.name+"/trash", p)
}

func (r *Resource[T, S]) list(ctx context.Context, path string, p ListParams) (*domain.Page[S], error) {
	var page domain.Page[S]
	if _, err := r.c.do(ctx, request{method: http.MethodGet, path: path, query: p.values()}, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// Get returns an active row.
func (r *Resource[T, S]) Get(ctx context.Context, id uuid.UUID) (*T, error) {
	return r.one(ctx, request{method: http.MethodGet, path: r.item(id)})
}

// GetTrashed returns a trashed row.
func (r *Resource[T, S]) GetTrashed(ctx context.Context, id uuid.UUID) (*T, error) {
	return r.one(ctx, request{method: http.MethodGet, path: r.name + "/trash/" + id.String()})
}

// Create posts in and returns the created row.
func (r *Resource[T, S]) Create(ctx context.Context, in any) (*T, error) {
	return r.one(ctx, request{method: http.MethodPost, path: r.name, body: in})
}

// Update replaces the editable fields of id. rowVersion is the token the
// caller last read; a stale token fails with a conflict.
func (r *Resource[T, S]) Update(ctx context.Context, id uuid.UUID, rowVersion string, in any) (*T, error) {
	return r.one(ctx, request{method: http.MethodPut, path: r.item(id), body: in, ifMatch: rowVersion})
}

// SetStatus flips the active flag of id.
func (r *Resource[T, S]) SetStatus(ctx context.Context, id uuid.UUID, rowVersion string, status bool) (*T, error) {
	body := struct {
		Status bool `json:"status"`
	}{status}
	return r.one(ctx, request{method: http.MethodPatch, path: r.item(id) + "/status", body: body, ifMatch: rowVersion})
}

// Delete moves id to the trash. Deleting a trashed row succeeds.
func (r *Resource[T, S]) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.c.do(ctx, request{method: http.MethodDelete, path: r.item(id)}, nil)
	return err
}

// Restore brings a trashed row back.
func (r *Resource[T, S]) Restore(ctx context.Context, id uuid.UUID) (*T, error) {
	return r.one(ctx, request{method: http.MethodPost, path: r.item(id) + "/restore"})
}

// Purge permanently removes a trashed row.
func (r *Resource[T, S]) Purge(ctx context.Context, id uuid.UUID) error {
	_, err := r.c.do(ctx, request{method: http.MethodDelete, path: r.item(id) + "/hard"}, nil)
	return err
}

func (r *Resource[T, S]) one(ctx context.Context, req request) (*T, error) {
	out := new(T)
	if _, err := r.c.do(ctx, req, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Resource[T, S]) item(id uuid.UUID) string {
	return r.name + "/" + id.String()
}
