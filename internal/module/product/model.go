package product

import (
	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/simp-lee/shopbase/internal/domain"
)

// Visibility values control where a product is listed on the storefront.
const (
	VisibilityVisible = "visible"
	VisibilityCatalog = "catalog"
	VisibilitySearch  = "search"
	VisibilityHidden  = "hidden"
)

// Product is a sellable catalog item. Prices are kept in minor currency
// units to avoid floating point rounding.
type Product struct {
	domain.BaseEntity
	Name        string             `gorm:"size:200;not null" json:"name"`
	SKU         string             `gorm:"column:sku;size:64;not null" json:"sku"`
	Description string             `gorm:"size:5000" json:"description"`
	PriceMinor  int64              `gorm:"not null;default:0" json:"priceMinor"`
	Currency    string             `gorm:"size:3;not null" json:"currency"`
	Stock       int                `gorm:"not null;default:0" json:"stock"`
	Visibility  string             `gorm:"size:16;not null" json:"visibility"`
	CategoryID  *uuid.UUID         `gorm:"type:uuid;index" json:"categoryId"`
	Attributes  datatypes.JSONMap  `json:"attributes"`
	Seo         domain.SeoMetadata `gorm:"embedded;embeddedPrefix:seo_" json:"seo"`
}
