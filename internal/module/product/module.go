package product

import (
	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/simp-lee/shopbase/internal/resource"
)

// Definition describes products to the generic resource layer.
var Definition = resource.Definition[Product, *Product, Input]{
	Name:          "products",
	Singular:      "product",
	SearchColumns: []string{"name", "sku"},
	SortColumns: map[string]string{
		"name":         "name",
		"sku":          "sku",
		"priceMinor":   "price_minor",
		"stock":        "stock",
		"createdAtUtc": "created_at_utc",
		"updatedAtUtc": "updated_at_utc",
	},
	UniqueKeys: map[string][]string{
		"idx_products_tenant_sku": {"tenant_id", "sku"},
	},
	Apply: apply,
}

func apply(p *Product, in *Input) {
	p.Name = in.Name
	p.SKU = in.SKU
	p.Description = in.Description
	p.PriceMinor = in.PriceMinor
	p.Currency = in.Currency
	p.Stock = in.Stock
	p.Visibility = in.Visibility
	if p.Visibility == "" {
		p.Visibility = VisibilityVisible
	}
	p.CategoryID = in.CategoryID
	p.Attributes = datatypes.JSONMap(in.Attributes)
	if p.Attributes == nil {
		p.Attributes = datatypes.JSONMap{}
	}
	p.Seo = in.Seo.Metadata()
}

// Service is the product service type.
type Service = resource.Service[Product, *Product, Input]

// Module implements the app.Module interface for products.
type Module struct {
	svc     Service
	handler *resource.Handler[Product, *Product, Input, Summary]
}

// NewModule wires the product repository, service and handler.
// Panics if db is nil.
func NewModule(db *gorm.DB, opts resource.Options) *Module {
	if db == nil {
		panic("product.NewModule: db must not be nil")
	}
	svc := resource.NewService(resource.NewRepository(db, Definition), Definition, opts)
	return &Module{svc: svc, handler: resource.NewHandler(svc, Summarize)}
}

// RegisterRoutes registers the product API under api.
func (m *Module) RegisterRoutes(api *gin.RouterGroup) {
	m.handler.RegisterRoutes(api)
}

// AutoMigrate creates the products table and its indexes.
func (m *Module) AutoMigrate(db *gorm.DB) error {
	return resource.AutoMigrate(db, Definition)
}

// Purger exposes the retention side of the service.
func (m *Module) Purger() resource.Purger {
	return m.svc
}

// Service returns the product service.
func (m *Module) Service() Service {
	return m.svc
}
