package tag

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/simp-lee/shopbase/internal/resource"
)

var Definition = resource.Definition[Tag, *Tag, Input]{
	Name:          "tags",
	Singular:      "tag",
	SearchColumns: []string{"name", "slug"},
	SortColumns: map[string]string{
		"name":         "name",
		"slug":         "slug",
		"createdAtUtc": "created_at_utc",
	},
	UniqueKeys: map[string][]string{
		"idx_tags_tenant_slug": {"tenant_id", "slug"},
	},
	Apply: func(t *Tag, in *Input) {
		t.Name = in.Name
		t.Slug = in.Slug
		t.Seo = in.Seo.Metadata()
	},
}

// Service is the tag service type.
type Service = resource.Service[Tag, *Tag, Input]

// Module implements the app.Module interface for tags.
type Module struct {
	svc     Service
	handler *resource.Handler[Tag, *Tag, Input, Summary]
}

// NewModule wires the tag repository, service and handler.
// Panics if db is nil.
func NewModule(db *gorm.DB, opts resource.Options) *Module {
	if db == nil {
		panic("tag.NewModule: db must not be nil")
	}
	svc := resource.NewService(resource.NewRepository(db, Definition), Definition, opts)
	return &Module{svc: svc, handler: resource.NewHandler(svc, Summarize)}
}

func (m *Module) RegisterRoutes(api *gin.RouterGroup) {
	m.handler.RegisterRoutes(api)
}

func (m *Module) AutoMigrate(db *gorm.DB) error {
	return resource.AutoMigrate(db, Definition)
}

func (m *Module) Purger() resource.Purger {
	return m.svc
}

// Service returns the tag service.
func (m *Module) Service() Service {
	return m.svc
}
