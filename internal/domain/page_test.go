package domain

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/simp-lee/pagination"
)

func TestFromPagination_TotalPagesAndAlias(t *testing.T) {
	result, err := pagination.NewPaginator[string](
		pagination.WithItemsPerPage[string](20),
		pagination.WithKnownTotal[string](45),
		pagination.WithSliceCallback(func(_ context.Context, offset, limit int) ([]string, error) {
			if offset != 20 || limit != 20 {
				t.Errorf("slice offset/limit = %d/%d; want 20/20", offset, limit)
			}
			return []string{"a", "b"}, nil
		}),
	).Paginate(context.Background(), 2)
	if err != nil {
		t.Fatalf("paginate: %v", err)
	}

	p := FromPagination(result)
	if p.Page != 2 || p.PageSize != 20 || p.TotalPages != 3 {
		t.Errorf("page/pageSize/totalPages = %d/%d/%d; want 2/20/3", p.Page, p.PageSize, p.TotalPages)
	}
	if p.TotalCount != 45 || p.Total != 45 {
		t.Errorf("TotalCount/Total = %d/%d; want 45/45", p.TotalCount, p.Total)
	}
}

func TestFromPagination_NilItemsEncodeAsEmptyArray(t *testing.T) {
	p := FromPagination(&pagination.Pagination[int]{CurrentPage: 1, ItemsPerPage: 20, TotalPages: 1})

	raw, err := json.Marshal(p)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(raw), `"items":[]`) {
		t.Errorf("expected empty items array, got %s", raw)
	}
	if !strings.Contains(string(raw), `"totalCount":0`) || !strings.Contains(string(raw), `"total":0`) {
		t.Errorf("expected both total fields, got %s", raw)
	}
}

func TestPage_UnmarshalAcceptsEitherTotalName(t *testing.T) {
	tests := []struct {
		name string
		body string
		want int64
	}{
		{"canonical", `{"items":[1],"page":1,"pageSize":10,"totalCount":7}`, 7},
		{"alias", `{"items":[1],"page":1,"pageSize":10,"total":9}`, 9},
		{"both prefers canonical", `{"items":[],"page":1,"pageSize":10,"totalCount":3,"total":4}`, 3},
		{"neither", `{"items":[],"page":1,"pageSize":10}`, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var p Page[int]
			if err := json.Unmarshal([]byte(tt.body), &p); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if p.TotalCount != tt.want || p.Total != tt.want {
				t.Errorf("TotalCount/Total = %d/%d; want %d", p.TotalCount, p.Total, tt.want)
			}
		})
	}
}

func TestMapPage(t *testing.T) {
	p := &Page[int]{Items: []int{1, 2, 3}, Page: 2, PageSize: 3, TotalCount: 13, Total: 13, TotalPages: 5}
	mapped := MapPage(p, func(v int) string { return strings.Repeat("x", v) })

	if len(mapped.Items) != 3 || mapped.Items[2] != "xxx" {
		t.Errorf("unexpected items %v", mapped.Items)
	}
	if mapped.Page != 2 || mapped.PageSize != 3 || mapped.TotalCount != 13 || mapped.TotalPages != 5 {
		t.Errorf("metadata not preserved: %+v", mapped)
	}
}
