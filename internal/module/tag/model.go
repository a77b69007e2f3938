package tag

import "github.com/simp-lee/shopbase/internal/domain"

// Tag is a flat label attached to products.
type Tag struct {
	domain.BaseEntity
	Name string             `gorm:"size:60;not null" json:"name"`
	Slug string             `gorm:"size:80;not null" json:"slug"`
	Seo  domain.SeoMetadata `gorm:"embedded;embeddedPrefix:seo_" json:"seo"`
}
