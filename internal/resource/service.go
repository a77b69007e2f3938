package resource

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/simp-lee/shopbase/internal/domain"
	"github.com/simp-lee/shopbase/internal/pkg"
	"github.com/simp-lee/shopbase/internal/revalidate"
)

// Options carries the optional collaborators of a service. Zero values are
// replaced with no-op implementations.
type Options struct {
	Validator *validator.Validate
	Publisher revalidate.Publisher
	Observer  Observer
	Logger    *slog.Logger
	Now       func() time.Time
}

// service implements Service.
type service[T any, P EntityPtr[T], I any] struct {
	repo      Repository[T, P]
	def       Definition[T, P, I]
	validate  *validator.Validate
	publisher revalidate.Publisher
	observer  Observer
	log       *slog.Logger
	now       func() time.Time
}

// NewService creates a Service for def on top of repo.
func NewService[T any, P EntityPtr[T], I any](repo Repository[T, P], def Definition[T, P, I], opts Options) Service[T, P, I] {
	s := &service[T, P, I]{
		repo:      repo,
		def:       def,
		validate:  opts.Validator,
		publisher: opts.Publisher,
		observer:  opts.Observer,
		log:       opts.Logger,
		now:       opts.Now,
	}
	if s.validate == nil {
		s.validate = pkg.NewValidator()
	}
	if s.publisher == nil {
		s.publisher = revalidate.Noop{}
	}
	if s.observer == nil {
		s.observer = noopObserver{}
	}
	if s.log == nil {
		s.log = slog.Default()
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

func (s *service[T, P, I]) Name() string {
	return s.def.Name
}

// List returns one page of active or trashed rows for the caller's tenant.
func (s *service[T, P, I]) List(ctx context.Context, q domain.ListQuery) (*domain.Page[T], error) {
	p, err := s.principal(ctx, false)
	if err != nil {
		return nil, err
	}
	return s.repo.List(ctx, p.TenantID, pkg.NormalizeListQuery(q))
}

// Get retrieves one row in the given lifecycle scope.
func (s *service[T, P, I]) Get(ctx context.Context, id uuid.UUID, scope domain.Scope) (P, error) {
	p, err := s.principal(ctx, false)
	if err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, p.TenantID, id, scope)
}

// Create validates in and persists a new entity. Identity, tenant, timestamps
// and row version are always assigned here.
func (s *service[T, P, I]) Create(ctx context.Context, in *I) (P, error) {
	e, err := s.create(ctx, in)
	s.done(ctx, "create", e, err)
	return e, err
}

func (s *service[T, P, I]) create(ctx context.Context, in *I) (P, error) {
	p, err := s.principal(ctx, true)
	if err != nil {
		return nil, err
	}

	e := P(new(T))
	b := e.Base()
	b.ID = uuid.New()
	b.TenantID = p.TenantID
	b.CreatedAtUTC = s.timestamp()
	b.RowVersion = domain.NewRowVersion()
	b.Status = true

	if err := s.validateInput(e, in, nil); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

// Update applies in to the active row id if rowVersion is still current.
func (s *service[T, P, I]) Update(ctx context.Context, id uuid.UUID, rowVersion string, in *I) (P, error) {
	e, err := s.update(ctx, id, rowVersion, in)
	s.done(ctx, "update", e, err)
	return e, err
}

func (s *service[T, P, I]) update(ctx context.Context, id uuid.UUID, rowVersion string, in *I) (P, error) {
	p, err := s.principal(ctx, true)
	if err != nil {
		return nil, err
	}

	fields := domain.FieldErrors{}
	rowVersion = strings.TrimSpace(rowVersion)
	if rowVersion == "" {
		fields.Add("rowVersion", "is required")
	}

	e, err := s.repo.Get(ctx, p.TenantID, id, domain.ScopeActive)
	if err != nil {
		return nil, err
	}

	if err := s.validateInput(e, in, fields); err != nil {
		return nil, err
	}

	if err := s.write(ctx, e, rowVersion); err != nil {
		return nil, err
	}
	return e, nil
}

// SetStatus flips the active/inactive flag of an active row. It is
// independent of the trash state.
func (s *service[T, P, I]) SetStatus(ctx context.Context, id uuid.UUID, rowVersion string, status bool) (P, error) {
	e, err := s.setStatus(ctx, id, rowVersion, status)
	s.done(ctx, "status", e, err)
	return e, err
}

func (s *service[T, P, I]) setStatus(ctx context.Context, id uuid.UUID, rowVersion string, status bool) (P, error) {
	p, err := s.principal(ctx, true)
	if err != nil {
		return nil, err
	}

	rowVersion = strings.TrimSpace(rowVersion)
	if rowVersion == "" {
		return nil, domain.NewValidationError(domain.FieldErrors{"rowVersion": {"is required"}})
	}

	e, err := s.repo.Get(ctx, p.TenantID, id, domain.ScopeActive)
	if err != nil {
		return nil, err
	}
	e.Base().Status = status
	if err := s.write(ctx, e, rowVersion); err != nil {
		return nil, err
	}
	return e, nil
}

// write stamps e with a new version and stores it with compare-and-swap on expected.
func (s *service[T, P, I]) write(ctx context.Context, e P, expected string) error {
	b := e.Base()
	now := s.timestamp()
	b.UpdatedAtUTC = &now
	b.RowVersion = domain.NewRowVersion()
	return s.repo.Update(ctx, e, expected)
}

// Delete moves an active row to the trash. Deleting a trashed row succeeds
// without changing it.
func (s *service[T, P, I]) Delete(ctx context.Context, id uuid.UUID) error {
	changed, err := s.softDelete(ctx, id)
	if changed || err != nil {
		s.doneID(ctx, "delete", id, err)
	}
	return err
}

func (s *service[T, P, I]) softDelete(ctx context.Context, id uuid.UUID) (bool, error) {
	p, err := s.principal(ctx, true)
	if err != nil {
		return false, err
	}
	return s.repo.SoftDelete(ctx, p.TenantID, id, s.timestamp())
}

// Restore moves a trashed row back to active and returns it.
func (s *service[T, P, I]) Restore(ctx context.Context, id uuid.UUID) (P, error) {
	e, err := s.restore(ctx, id)
	s.doneID(ctx, "restore", id, err)
	return e, err
}

func (s *service[T, P, I]) restore(ctx context.Context, id uuid.UUID) (P, error) {
	p, err := s.principal(ctx, true)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Restore(ctx, p.TenantID, id, s.timestamp()); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, p.TenantID, id, domain.ScopeActive)
}

// Purge permanently removes a trashed row.
func (s *service[T, P, I]) Purge(ctx context.Context, id uuid.UUID) error {
	err := s.purge(ctx, id)
	s.doneID(ctx, "purge", id, err)
	return err
}

func (s *service[T, P, I]) purge(ctx context.Context, id uuid.UUID) error {
	p, err := s.principal(ctx, true)
	if err != nil {
		return err
	}
	return s.repo.Purge(ctx, p.TenantID, id)
}

// PurgeTrashedBefore removes rows trashed before cutoff in every tenant. It is
// meant for the retention job and does not require a principal.
func (s *service[T, P, I]) PurgeTrashedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	n, err := s.repo.PurgeTrashedBefore(ctx, cutoff.UTC())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.invalidate(ctx, s.def.Name)
	}
	return n, nil
}

// validateInput collects struct tag failures, extra (pre-collected) failures
// and the definition's cross-field checks into one validation error.
func (s *service[T, P, I]) validateInput(e P, in *I, extra domain.FieldErrors) error {
	fields := domain.FieldErrors{}
	fields.Merge(extra)

	if in == nil {
		fields.Add("body", "request body is required")
		return domain.NewValidationError(fields)
	}
	if err := s.validate.Struct(in); err != nil {
		vf := pkg.ValidationFields(err)
		if vf == nil {
			return domain.NewAppError(domain.CodeInternal, "validate input", err)
		}
		fields.Merge(vf)
	}

	if len(fields) == 0 {
		s.def.Apply(e, in)
		if s.def.Check != nil {
			fields.Merge(s.def.Check(e))
		}
	}

	if len(fields) > 0 {
		return domain.NewValidationError(fields)
	}
	return nil
}

func (s *service[T, P, I]) principal(ctx context.Context, write bool) (domain.Principal, error) {
	p, ok := domain.PrincipalFrom(ctx)
	if !ok {
		return domain.Principal{}, domain.ErrUnauthorized
	}
	if write && !p.CanWrite() {
		return domain.Principal{}, domain.NewAppError(domain.CodeForbidden, "role admin or editor required", nil)
	}
	return p, nil
}

func (s *service[T, P, I]) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Microsecond)
}

func (s *service[T, P, I]) done(ctx context.Context, op string, e P, err error) {
	id := uuid.Nil
	if err == nil && e != nil {
		id = e.Base().ID
	}
	s.doneID(ctx, op, id, err)
}

// doneID records the outcome of a mutation and, on success, emits cache tags.
func (s *service[T, P, I]) doneID(ctx context.Context, op string, id uuid.UUID, err error) {
	s.observer.ObserveMutation(s.def.Name, op, domain.Kind(err))
	if err != nil {
		if domain.Kind(err) == "internal" {
			s.log.ErrorContext(ctx, "catalog mutation failed",
				slog.String("resource", s.def.Name),
				slog.String("operation", op),
				slog.Any("error", err),
			)
		}
		return
	}

	s.log.InfoContext(ctx, "catalog mutation",
		slog.String("resource", s.def.Name),
		slog.String("operation", op),
		slog.String("id", id.String()),
	)
	s.invalidate(ctx, revalidate.Tags(s.def.Name, id.String())...)
}

// invalidate publishes cache tags. Failures are logged and never reach the caller.
func (s *service[T, P, I]) invalidate(ctx context.Context, tags ...string) {
	if err := s.publisher.Publish(ctx, tags...); err != nil {
		s.observer.ObserveRevalidateFailure()
		s.log.WarnContext(ctx, "cache revalidation failed",
			slog.Any("tags", tags),
			slog.Any("error", err),
		)
	}
}
