package category

import (
	"github.com/google/uuid"

	"github.com/simp-lee/shopbase/internal/domain"
)

// Category groups products into a tree. Tree integrity beyond "not its own
// parent" is not enforced.
type Category struct {
	domain.BaseEntity
	Name        string             `gorm:"size:100;not null" json:"name"`
	Slug        string             `gorm:"size:120;not null" json:"slug"`
	Description string             `gorm:"size:2000" json:"description"`
	ParentID    *uuid.UUID         `gorm:"type:uuid;index" json:"parentId"`
	SortOrder   int                `gorm:"not null;default:0" json:"sortOrder"`
	Seo         domain.SeoMetadata `gorm:"embedded;embeddedPrefix:seo_" json:"seo"`
}
