package category

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/simp-lee/shopbase/internal/domain"
	"github.com/simp-lee/shopbase/internal/resource"
)

// Definition describes categories to the generic resource layer.
var Definition = resource.Definition[Category, *Category, Input]{
	Name:          "categories",
	Singular:      "category",
	SearchColumns: []string{"name", "slug"},
	SortColumns: map[string]string{
		"name":         "name",
		"slug":         "slug",
		"sortOrder":    "sort_order",
		"createdAtUtc": "created_at_utc",
		"updatedAtUtc": "updated_at_utc",
	},
	UniqueKeys: map[string][]string{
		"idx_categories_tenant_slug": {"tenant_id", "slug"},
	},
	Apply: func(c *Category, in *Input) {
		c.Name = in.Name
		c.Slug = in.Slug
		c.Description = in.Description
		c.ParentID = in.ParentID
		c.SortOrder = in.SortOrder
		c.Seo = in.Seo.Metadata()
	},
	Check: func(c *Category) domain.FieldErrors {
		if c.ParentID != nil && *c.ParentID == c.ID {
			return domain.FieldErrors{"parentId": {"must not reference the category itself"}}
		}
		return nil
	},
}

// Service is the category service type.
type Service = resource.Service[Category, *Category, Input]

// Module implements the app.Module interface for categories.
type Module struct {
	svc     Service
	handler *resource.Handler[Category, *Category, Input, Summary]
}

// NewModule wires the category repository, service and handler.
// Panics if db is nil.
func NewModule(db *gorm.DB, opts resource.Options) *Module {
	if db == nil {
		panic("category.NewModule: db must not be nil")
	}
	svc := resource.NewService(resource.NewRepository(db, Definition), Definition, opts)
	return &Module{svc: svc, handler: resource.NewHandler(svc, Summarize)}
}

// RegisterRoutes registers the category API under api.
func (m *Module) RegisterRoutes(api *gin.RouterGroup) {
	m.handler.RegisterRoutes(api)
}

// AutoMigrate creates the categories table and its indexes.
func (m *Module) AutoMigrate(db *gorm.DB) error {
	return resource.AutoMigrate(db, Definition)
}

// Purger exposes the retention side of the service.
func (m *Module) Purger() resource.Purger {
	return m.svc
}

// Service returns the category service.
func (m *Module) Service() Service {
	return m.svc
}
