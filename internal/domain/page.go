package domain

import (
	"encoding/json"

	"github.com/simp-lee/pagination"
)

// Page is the envelope returned by every list endpoint.
//
// TotalCount is the canonical total. Total is kept as a compatibility alias for
// callers that still read the old field name: it is always encoded with the
// same value and either name is accepted when decoding.
type Page[T any] struct {
	Items      []T   `json:"items"`
	Page       int   `json:"page"`
	PageSize   int   `json:"pageSize"`
	TotalCount int64 `json:"totalCount"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"totalPages"`
}

// FromPagination converts a paginator result into the list envelope. A nil
// items slice is replaced with an empty one so it encodes as [].
func FromPagination[T any](p *pagination.Pagination[T]) *Page[T] {
	items := p.Items
	if items == nil {
		items = []T{}
	}
	return &Page[T]{
		Items:      items,
		Page:       p.CurrentPage,
		PageSize:   p.ItemsPerPage,
		TotalCount: p.TotalItems,
		Total:      p.TotalItems,
		TotalPages: p.TotalPages,
	}
}

// MapPage projects every item of p with fn, keeping the paging metadata.
func MapPage[T, S any](p *Page[T], fn func(T) S) *Page[S] {
	items := make([]S, 0, len(p.Items))
	for _, it := range p.Items {
		items = append(items, fn(it))
	}
	return &Page[S]{
		Items:      items,
		Page:       p.Page,
		PageSize:   p.PageSize,
		TotalCount: p.TotalCount,
		Total:      p.TotalCount,
		TotalPages: p.TotalPages,
	}
}

// UnmarshalJSON accepts either totalCount or total and keeps both in sync.
func (p *Page[T]) UnmarshalJSON(data []byte) error {
	type raw struct {
		Items      []T    `json:"items"`
		Page       int    `json:"page"`
		PageSize   int    `json:"pageSize"`
		TotalCount *int64 `json:"totalCount"`
		Total      *int64 `json:"total"`
		TotalPages int    `json:"totalPages"`
	}
	var r raw
	if err := json.Unmarshal(data, &r); err != nil {
		return err
	}

	var total int64
	switch {
	case r.TotalCount != nil:
		total = *r.TotalCount
	case r.Total != nil:
		total = *r.Total
	}

	p.Items = r.Items
	p.Page = r.Page
	p.PageSize = r.PageSize
	p.TotalCount = total
	p.Total = total
	p.TotalPages = r.TotalPages
	return nil
}
