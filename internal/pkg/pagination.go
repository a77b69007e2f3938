package pkg

import (
	"context"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/simp-lee/pagination"
	"gorm.io/gorm"

	"github.com/simp-lee/shopbase/internal/domain"
)

const (
	defaultPage     = 1
	defaultPageSize = 20
	maxPageSize     = 100
)

// likeEscaper escapes LIKE metacharacters so user input only ever matches literally.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// ParseListQuery extracts paging, search, status and sort parameters from the
// query string. Bad paging values fall back to defaults instead of failing.
// Both pageSize and page_size are accepted; pageSize wins when both are set.
func ParseListQuery(c *gin.Context, scope domain.Scope) domain.ListQuery {
	page := positiveInt(c.Query("page"), defaultPage)

	rawSize := c.Query("pageSize")
	if rawSize == "" {
		rawSize = c.Query("page_size")
	}
	pageSize := positiveInt(rawSize, defaultPageSize)
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	return domain.ListQuery{
		Page:     page,
		PageSize: pageSize,
		Q:        strings.TrimSpace(c.Query("q")),
		Status:   domain.ParseStatusFilter(strings.ToLower(strings.TrimSpace(c.Query("status")))),
		Sort:     strings.TrimSpace(c.Query("sort")),
		Scope:    scope,
	}
}

// NormalizeListQuery applies the same defaults as ParseListQuery to a query
// built in code.
func NormalizeListQuery(q domain.ListQuery) domain.ListQuery {
	if q.Page < 1 {
		q.Page = defaultPage
	}
	if q.PageSize < 1 {
		q.PageSize = defaultPageSize
	}
	if q.PageSize > maxPageSize {
		q.PageSize = maxPageSize
	}
	return q
}

func positiveInt(raw string, def int) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 1 {
		return def
	}
	return n
}

// Paginate counts the rows matching q and fetches the requested page through
// a paginator. A page past the last one comes back empty with the requested
// page number instead of repeating the last page.
func Paginate[T any](
	ctx context.Context,
	q domain.ListQuery,
	count func(ctx context.Context) (int64, error),
	fetch func(ctx context.Context, offset, limit int) ([]T, error),
) (*domain.Page[T], error) {
	q = NormalizeListQuery(q)

	pastEnd := false
	result, err := pagination.NewPaginator[T](
		pagination.WithItemsPerPage[T](q.PageSize),
		pagination.WithItemTotalCallback[T](count),
		pagination.WithSliceCallback(func(ctx context.Context, offset, limit int) ([]T, error) {
			// The paginator clamps to the last page.
			if offset/limit+1 != q.Page {
				pastEnd = true
				return nil, nil
			}
			return fetch(ctx, offset, limit)
		}),
	).Paginate(ctx, q.Page)
	if err != nil {
		return nil, err
	}

	page := domain.FromPagination(result)
	if pastEnd {
		page.Page = q.Page
		page.Items = []T{}
	}
	return page, nil
}

// Order returns a GORM scope that applies ORDER BY.
//
// q.Sort has the form "field:dir" where field is an API name looked up in
// allowed (API name to column). Unknown fields or directions fall back to the
// scope default: created_at_utc DESC for active rows, deleted_at_utc DESC for
// trash. "id ASC" is always appended so equal sort keys page deterministically.
func Order(q domain.ListQuery, allowed map[string]string) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if col, dir, ok := parseSort(q.Sort, allowed); ok {
			db = db.Order(col + " " + dir)
		} else if q.Scope == domain.ScopeTrash {
			db = db.Order("deleted_at_utc DESC")
		} else {
			db = db.Order("created_at_utc DESC")
		}
		return db.Order("id ASC")
	}
}

func parseSort(sort string, allowed map[string]string) (string, string, bool) {
	field, dir, found := strings.Cut(sort, ":")
	if !found {
		return "", "", false
	}
	field = strings.TrimSpace(field)
	dir = strings.ToUpper(strings.TrimSpace(dir))
	if dir != "ASC" && dir != "DESC" {
		return "", "", false
	}
	col, ok := allowed[field]
	if !ok || col == "" {
		return "", "", false
	}
	return col, dir, true
}

// Search returns a GORM scope matching term case-insensitively as a substring
// of any of columns. An empty term or column list leaves the query untouched.
// SQLite's LOWER only folds ASCII, so on SQLite the column goes through
// CaseFoldFunc, which folds exactly like the term.
func Search(term string, columns []string) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		term = strings.TrimSpace(term)
		if term == "" || len(columns) == 0 {
			return db
		}

		fold := "LOWER"
		if db.Dialector != nil && db.Dialector.Name() == "sqlite" {
			fold = CaseFoldFunc
		}

		pattern := "%" + EscapeLike(strings.ToLower(term)) + "%"
		conds := make([]string, 0, len(columns))
		args := make([]any, 0, len(columns))
		for _, col := range columns {
			conds = append(conds, fold+"("+col+") LIKE ? ESCAPE '\\'")
			args = append(args, pattern)
		}
		return db.Where("("+strings.Join(conds, " OR ")+")", args...)
	}
}

// EscapeLike escapes %, _ and the escape character itself.
func EscapeLike(s string) string {
	return likeEscaper.Replace(s)
}

// StatusFilter returns a GORM scope narrowing rows by the status flag.
func StatusFilter(f domain.StatusFilter) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		switch f {
		case domain.StatusEnabled:
			return db.Where("status = ?", true)
		case domain.StatusDisabled:
			return db.Where("status = ?", false)
		default:
			return db
		}
	}
}

// Lifecycle returns a GORM scope selecting active or trashed rows.
func Lifecycle(s domain.Scope) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("is_deleted = ?", s == domain.ScopeTrash)
	}
}

// Tenant returns a GORM scope restricting rows to one tenant.
func Tenant(tenantID string) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("tenant_id = ?", tenantID)
	}
}
