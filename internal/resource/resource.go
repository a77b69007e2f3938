// Package resource implements the catalog CRUD contract shared by every admin
// entity: paged listing of active and trashed rows, detail fetch, validated
// create and compare-and-swap update, status toggling, and the
// Active -> Trashed -> Purged lifecycle.
package resource

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/simp-lee/shopbase/internal/domain"
)

// EntityPtr constrains P to be a pointer to T that exposes its BaseEntity.
type EntityPtr[T any] interface {
	*T
	domain.Entity
}

// Definition describes one catalog resource.
//
// I is the input DTO accepted by create and update. It is validated with
// `validate` struct tags before Apply copies it onto the entity.
type Definition[T any, P EntityPtr[T], I any] struct {
	// Name is the plural resource name used in routes, cache tags and metrics.
	Name string
	// Singular is used in error messages ("category not found").
	Singular string
	// SearchColumns are matched by the free-text q parameter.
	SearchColumns []string
	// SortColumns maps API sort names to columns.
	SortColumns map[string]string
	// UniqueKeys maps index names to column lists that must be unique.
	// They are created by AutoMigrate; goose migrations declare the same
	// indexes for postgres.
	UniqueKeys map[string][]string
	// Apply copies input fields onto e. Base fields are never touched.
	Apply func(e P, in *I)
	// Check reports cross-field problems that struct tags cannot express.
	// It runs after Apply, so e already carries its id.
	Check func(e P) domain.FieldErrors
}

// Repository is the persistence contract of a resource. All methods are
// scoped to one tenant except PurgeTrashedBefore, which is a maintenance
// operation.
type Repository[T any, P EntityPtr[T]] interface {
	List(ctx context.Context, tenantID string, q domain.ListQuery) (*domain.Page[T], error)
	Get(ctx context.Context, tenantID string, id uuid.UUID, scope domain.Scope) (P, error)
	Create(ctx context.Context, e P) error
	// Update writes e if the stored row version still equals expected.
	Update(ctx context.Context, e P, expected string) error
	// SoftDelete trashes an active row. It reports false when the row was
	// already trashed.
	SoftDelete(ctx context.Context, tenantID string, id uuid.UUID, at time.Time) (bool, error)
	Restore(ctx context.Context, tenantID string, id uuid.UUID, at time.Time) error
	Purge(ctx context.Context, tenantID string, id uuid.UUID) error
	PurgeTrashedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// Service is the business contract of a resource. The caller's principal is
// taken from ctx.
type Service[T any, P EntityPtr[T], I any] interface {
	Name() string
	List(ctx context.Context, q domain.ListQuery) (*domain.Page[T], error)
	Get(ctx context.Context, id uuid.UUID, scope domain.Scope) (P, error)
	Create(ctx context.Context, in *I) (P, error)
	Update(ctx context.Context, id uuid.UUID, rowVersion string, in *I) (P, error)
	SetStatus(ctx context.Context, id uuid.UUID, rowVersion string, status bool) (P, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Restore(ctx context.Context, id uuid.UUID) (P, error)
	Purge(ctx context.Context, id uuid.UUID) error
	PurgeTrashedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// Purger is the maintenance side of a Service, used by the trash
// retention job.
type Purger interface {
	Name() string
	PurgeTrashedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// Observer receives one call per attempted mutation.
type Observer interface {
	ObserveMutation(resource, operation, outcome string)
	ObserveRevalidateFailure()
}

type noopObserver struct{}

func (noopObserver) ObserveMutation(string, string, string) {}
func (noopObserver) ObserveRevalidateFailure()              {}
