package resource

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/simp-lee/shopbase/internal/domain"
	"github.com/simp-lee/shopbase/internal/pkg"
)

// store implements Repository using GORM.
type store[T any, P EntityPtr[T]] struct {
	db       *gorm.DB
	singular string
	search   []string
	sort     map[string]string
}

// NewRepository creates a Repository for entity T backed by the given GORM database.
func NewRepository[T any, P EntityPtr[T], I any](db *gorm.DB, def Definition[T, P, I]) Repository[T, P] {
	return &store[T, P]{
		db:       db,
		singular: def.Singular,
		search:   def.SearchColumns,
		sort:     def.SortColumns,
	}
}

// filtered builds a fresh chain for one list statement. Count and Find each
// get their own chain so neither inherits clauses from the other.
func (s *store[T, P]) filtered(ctx context.Context, tenantID string, q domain.ListQuery) *gorm.DB {
	return pkg.Conn(ctx, s.db).Model(P(new(T))).Scopes(
		pkg.Tenant(tenantID),
		pkg.Lifecycle(q.Scope),
		pkg.StatusFilter(q.Status),
		pkg.Search(q.Q, s.search),
	)
}

// List returns one page of rows in the scope of q, ordered deterministically.
func (s *store[T, P]) List(ctx context.Context, tenantID string, q domain.ListQuery) (*domain.Page[T], error) {
	q = pkg.NormalizeListQuery(q)

	page, err := pkg.Paginate(ctx, q,
		func(ctx context.Context) (int64, error) {
			var total int64
			err := s.filtered(ctx, tenantID, q).Count(&total).Error
			return total, err
		},
		func(ctx context.Context, offset, limit int) ([]T, error) {
			var items []T
			err := s.filtered(ctx, tenantID, q).
				Scopes(pkg.Order(q, s.sort)).
				Offset(offset).Limit(limit).
				Find(&items).Error
			return items, err
		},
	)
	if err != nil {
		return nil, s.mapError(err)
	}
	return page, nil
}

// Get retrieves one row in the given lifecycle scope.
func (s *store[T, P]) Get(ctx context.Context, tenantID string, id uuid.UUID, scope domain.Scope) (P, error) {
	var e T
	err := pkg.Conn(ctx, s.db).
		Scopes(pkg.Tenant(tenantID), pkg.Lifecycle(scope)).
		Where("id = ?", id).
		Take(&e).Error
	if err != nil {
		return nil, s.mapError(err)
	}
	return P(&e), nil
}

// Create inserts a new row.
func (s *store[T, P]) Create(ctx context.Context, e P) error {
	if err := pkg.Conn(ctx, s.db).Create(e).Error; err != nil {
		return s.mapError(err)
	}
	return nil
}

// Update overwrites every mutable column of e in a single guarded UPDATE.
// Identity, tenant, creation time and trash state are never rewritten here.
func (s *store[T, P]) Update(ctx context.Context, e P, expected string) error {
	b := e.Base()
	err := pkg.WithTx(ctx, s.db, func(_ context.Context, tx *gorm.DB) error {
		res := tx.Model(e).
			Where("tenant_id = ? AND row_version = ? AND is_deleted = ?", b.TenantID, expected, false).
			Select("*").
			Omit("id", "tenant_id", "created_at_utc", "is_deleted", "deleted_at_utc").
			Updates(e)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 1 {
			return nil
		}
		return s.missOrConflict(tx, b.TenantID, b.ID)
	})
	return s.mapError(err)
}

// missOrConflict explains why a guarded write touched no row.
func (s *store[T, P]) missOrConflict(tx *gorm.DB, tenantID string, id uuid.UUID) error {
	var n int64
	if err := tx.Model(P(new(T))).
		Scopes(pkg.Tenant(tenantID), pkg.Lifecycle(domain.ScopeActive)).
		Where("id = ?", id).
		Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return s.notFound()
	}
	return domain.ErrConflict
}

// SoftDelete moves an active row to the trash. The guarded UPDATE runs first
// so the transaction takes the write lock before reading anything.
func (s *store[T, P]) SoftDelete(ctx context.Context, tenantID string, id uuid.UUID, at time.Time) (bool, error) {
	changed := false
	err := pkg.WithTx(ctx, s.db, func(_ context.Context, tx *gorm.DB) error {
		res := tx.Model(P(new(T))).
			Scopes(pkg.Tenant(tenantID), pkg.Lifecycle(domain.ScopeActive)).
			Where("id = ?", id).
			UpdateColumns(map[string]any{
				"is_deleted":     true,
				"deleted_at_utc": at,
				"updated_at_utc": at,
				"row_version":    domain.NewRowVersion(),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			changed = true
			return nil
		}

		// Nothing active matched: already trashed is a no-op, anything else is missing.
		var trashed int64
		if err := tx.Model(P(new(T))).
			Scopes(pkg.Tenant(tenantID), pkg.Lifecycle(domain.ScopeTrash)).
			Where("id = ?", id).
			Count(&trashed).Error; err != nil {
			return err
		}
		if trashed == 0 {
			return s.notFound()
		}
		return nil
	})
	return changed, s.mapError(err)
}

// Restore brings a trashed row back. Rows that are not in the trash are NotFound.
func (s *store[T, P]) Restore(ctx context.Context, tenantID string, id uuid.UUID, at time.Time) error {
	res := pkg.Conn(ctx, s.db).Model(P(new(T))).
		Scopes(pkg.Tenant(tenantID), pkg.Lifecycle(domain.ScopeTrash)).
		Where("id = ?", id).
		UpdateColumns(map[string]any{
			"is_deleted":     false,
			"deleted_at_utc": nil,
			"updated_at_utc": at,
			"row_version":    domain.NewRowVersion(),
		})
	if res.Error != nil {
		return s.mapError(res.Error)
	}
	if res.RowsAffected == 0 {
		return s.notFound()
	}
	return nil
}

// Purge removes a trashed row for good. Active rows are refused.
func (s *store[T, P]) Purge(ctx context.Context, tenantID string, id uuid.UUID) error {
	err := pkg.WithTx(ctx, s.db, func(_ context.Context, tx *gorm.DB) error {
		res := tx.Scopes(pkg.Tenant(tenantID), pkg.Lifecycle(domain.ScopeTrash)).
			Where("id = ?", id).
			Delete(P(new(T)))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			return nil
		}

		var active int64
		if err := tx.Model(P(new(T))).
			Scopes(pkg.Tenant(tenantID), pkg.Lifecycle(domain.ScopeActive)).
			Where("id = ?", id).
			Count(&active).Error; err != nil {
			return err
		}
		if active > 0 {
			return domain.NewAppError(domain.CodePrecondition, s.singular+" must be moved to trash before it can be deleted permanently", nil)
		}
		return s.notFound()
	})
	return s.mapError(err)
}

// PurgeTrashedBefore removes rows of every tenant trashed before cutoff.
func (s *store[T, P]) PurgeTrashedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res := pkg.Conn(ctx, s.db).
		Scopes(pkg.Lifecycle(domain.ScopeTrash)).
		Where("deleted_at_utc < ?", cutoff).
		Delete(P(new(T)))
	if res.Error != nil {
		return 0, s.mapError(res.Error)
	}
	return res.RowsAffected, nil
}

func (s *store[T, P]) notFound() error {
	return domain.NewAppError(domain.CodeNotFound, s.singular+" not found", nil)
}

// mapError converts GORM errors to domain errors.
func (s *store[T, P]) mapError(err error) error {
	if err == nil {
		return nil
	}
	var appErr *domain.AppError
	if errors.As(err, &appErr) {
		return err
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return s.notFound()
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) || isDuplicateKeyError(err) {
		return domain.NewAppError(domain.CodeAlreadyExists, s.singular+" already exists", err)
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return domain.NewAppError(domain.CodeInternal, "request canceled", err)
	}
	return domain.NewAppError(domain.CodeInternal, "database error", err)
}

// isDuplicateKeyError detects unique constraint violations by examining the
// error message. This is needed because not all GORM dialectors translate
// driver-level errors to gorm.ErrDuplicatedKey (e.g. the pure-Go SQLite driver).
func isDuplicateKeyError(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "duplicate entry")
}
