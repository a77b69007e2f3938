package tag

import (
	"context"
	"slices"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"github.com/simp-lee/shopbase/internal/domain"
	"github.com/simp-lee/shopbase/internal/resource"
)

type publishedTags struct{ tags [][]string }

func (p *publishedTags) Publish(_ context.Context, tags ...string) error {
	p.tags = append(p.tags, tags)
	return nil
}

func newModule(t *testing.T, pub *publishedTags) *Module {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	m := NewModule(db, resource.Options{Publisher: pub})
	if err := m.AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return m
}

func editor(tenant string) context.Context {
	return domain.WithPrincipal(context.Background(), domain.Principal{
		Subject: "ed", TenantID: tenant, Roles: []string{domain.RoleEditor},
	})
}

func TestTag_CRUDAndRevalidation(t *testing.T) {
	pub := &publishedTags{}
	svc := newModule(t, pub).Service()
	ctx := editor("acme")

	tg, err := svc.Create(ctx, &Input{Name: "Summer", Slug: "summer"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if want := []string{"tags", "tags:" + tg.ID.String()}; len(pub.tags) == 0 || !slices.Equal(pub.tags[0], want) {
		t.Errorf("published %v, want first batch %v", pub.tags, want)
	}

	updated, err := svc.Update(ctx, tg.ID, tg.RowVersion, &Input{Name: "Summer Sale", Slug: "summer-sale"})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Slug != "summer-sale" {
		t.Errorf("expected slug summer-sale, got %q", updated.Slug)
	}

	page, err := svc.List(ctx, domain.ListQuery{Q: "SALE"})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(page.Items) != 1 || page.Items[0].ID != tg.ID {
		t.Fatalf("expected the renamed tag, got %+v", page.Items)
	}
}

func TestTag_Validation(t *testing.T) {
	svc := newModule(t, &publishedTags{}).Service()

	long := make([]rune, 61)
	for i := range long {
		long[i] = 'x'
	}
	_, err := svc.Create(editor("acme"), &Input{Name: string(long), Slug: "-bad-"})
	if !domain.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if got := domain.FieldErrorsOf(err).Fields(); !slices.Equal(got, []string{"name", "slug"}) {
		t.Errorf("unexpected fields %v", got)
	}
}

func TestTag_DuplicateSlug(t *testing.T) {
	svc := newModule(t, &publishedTags{}).Service()
	ctx := editor("acme")

	if _, err := svc.Create(ctx, &Input{Name: "A", Slug: "a"}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := svc.Create(ctx, &Input{Name: "A again", Slug: "a"}); !domain.IsAlreadyExists(err) {
		t.Errorf("expected already exists, got %v", err)
	}
}

func TestTag_RetentionPurge(t *testing.T) {
	pub := &publishedTags{}
	m := newModule(t, pub)
	ctx := editor("acme")

	tg, err := m.Service().Create(ctx, &Input{Name: "Old", Slug: "old"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := m.Service().Delete(ctx, tg.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	p := m.Purger()
	if p.Name() != "tags" {
		t.Errorf("expected purger name tags, got %q", p.Name())
	}
	n, err := p.PurgeTrashedBefore(context.Background(), time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("PurgeTrashedBefore: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 purged row, got %d", n)
	}

	if _, err := m.Service().Get(ctx, tg.ID, domain.ScopeTrash); !domain.IsNotFound(err) {
		t.Errorf("expected not found after purge, got %v", err)
	}
}

func TestSummarize(t *testing.T) {
	tg := &Tag{Name: "Summer", Slug: "summer"}
	tg.RowVersion = "v1"
	s := Summarize(tg)
	if s.Name != "Summer" || s.Slug != "summer" || s.RowVersion != "v1" {
		t.Errorf("unexpected summary %+v", s)
	}
}
