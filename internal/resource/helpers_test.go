package resource

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/simp-lee/shopbase/internal/domain"
)

// widget is a minimal catalog entity used to exercise the generic contract.
type widget struct {
	domain.BaseEntity
	Name     string             `gorm:"size:100;not null" json:"name"`
	Slug     string             `gorm:"size:120;not null;uniqueIndex" json:"slug"`
	ParentID *uuid.UUID         `gorm:"type:uuid" json:"parentId"`
	Seo      domain.SeoMetadata `gorm:"embedded;embeddedPrefix:seo_" json:"seo"`
}

type widgetInput struct {
	Name     string     `json:"name" validate:"required,max=20"`
	Slug     string     `json:"slug" validate:"required,max=30,slug"`
	ParentID *uuid.UUID `json:"parentId"`
	Seo      struct {
		MetaTitle string `json:"metaTitle" validate:"max=70"`
	} `json:"seo"`
}

type widgetSummary struct {
	ID     uuid.UUID `json:"id"`
	Name   string    `json:"name"`
	Status bool      `json:"status"`
}

func summarizeWidget(w *widget) widgetSummary {
	return widgetSummary{ID: w.ID, Name: w.Name, Status: w.Status}
}

var widgetDef = Definition[widget, *widget, widgetInput]{
	Name:          "widgets",
	Singular:      "widget",
	SearchColumns: []string{"name", "slug"},
	SortColumns:   map[string]string{"name": "name", "createdAtUtc": "created_at_utc"},
	Apply: func(w *widget, in *widgetInput) {
		w.Name = in.Name
		w.Slug = in.Slug
		w.ParentID = in.ParentID
		w.Seo = domain.DefaultSeoMetadata()
		w.Seo.MetaTitle = in.Seo.MetaTitle
	},
	Check: func(w *widget) domain.FieldErrors {
		if w.ParentID != nil && *w.ParentID == w.ID {
			return domain.FieldErrors{"parentId": {"must not reference itself"}}
		}
		return nil
	},
}

// setupTestDB creates an in-memory SQLite database with the widget table.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := db.AutoMigrate(&widget{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func asRole(tenant, role string) context.Context {
	return domain.WithPrincipal(context.Background(), domain.Principal{
		Subject:  role + "@" + tenant,
		TenantID: tenant,
		Roles:    []string{role},
	})
}

func adminCtx(tenant string) context.Context {
	return asRole(tenant, domain.RoleAdmin)
}

// seedWidget inserts a widget directly through the repository.
func seedWidget(t *testing.T, repo Repository[widget, *widget], tenant, name string, created time.Time) *widget {
	t.Helper()
	w := &widget{Name: name, Slug: uuid.NewString()}
	w.ID = uuid.New()
	w.TenantID = tenant
	w.CreatedAtUTC = created.UTC().Truncate(time.Microsecond)
	w.RowVersion = domain.NewRowVersion()
	w.Status = true
	w.Seo = domain.DefaultSeoMetadata()
	if err := repo.Create(context.Background(), w); err != nil {
		t.Fatalf("seed %s: %v", name, err)
	}
	return w
}

// recordingPublisher remembers every published tag set.
type recordingPublisher struct {
	mu   sync.Mutex
	tags [][]string
	err  error
}

func (p *recordingPublisher) Publish(_ context.Context, tags ...string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.tags = append(p.tags, tags)
	return p.err
}

func (p *recordingPublisher) calls() [][]string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([][]string(nil), p.tags...)
}

// countingObserver counts mutations by operation and outcome.
type countingObserver struct {
	mu        sync.Mutex
	mutations map[string]int
	failures  int
}

func newCountingObserver() *countingObserver {
	return &countingObserver{mutations: map[string]int{}}
}

func (o *countingObserver) ObserveMutation(_, op, outcome string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.mutations[op+"/"+outcome]++
}

func (o *countingObserver) ObserveRevalidateFailure() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.failures++
}

var errPublish = errors.New("redis down")
