package domain

import (
	"time"

	"github.com/google/uuid"
)

// BaseEntity is the common base struct for all persisted catalog records.
// It replaces gorm.Model: soft delete is an explicit flag plus timestamp, and
// every write regenerates RowVersion so updates can compare-and-swap on it.
type BaseEntity struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	TenantID     string     `gorm:"size:64;not null;index" json:"tenantId"`
	CreatedAtUTC time.Time  `gorm:"not null;index" json:"createdAtUtc"`
	UpdatedAtUTC *time.Time `json:"updatedAtUtc"`
	IsDeleted    bool       `gorm:"not null;index" json:"isDeleted"`
	DeletedAtUTC *time.Time `json:"deletedAtUtc"`
	RowVersion   string     `gorm:"size:36;not null" json:"rowVersion"`
	Status       bool       `gorm:"not null" json:"status"`
}

// Base returns the embedded base so generic code can reach it through any entity pointer.
func (b *BaseEntity) Base() *BaseEntity {
	return b
}

// Entity is implemented by every pointer to a struct embedding BaseEntity.
type Entity interface {
	Base() *BaseEntity
}

// State reports the lifecycle state of the record.
func (b *BaseEntity) State() State {
	if b.IsDeleted {
		return StateTrashed
	}
	return StateActive
}

// State is a lifecycle state. Purged rows no longer exist, so they have no value here.
type State string

const (
	StateActive  State = "active"
	StateTrashed State = "trashed"
)

// NewRowVersion returns a fresh opaque concurrency token.
func NewRowVersion() string {
	return uuid.NewString()
}

// SeoMetadata is a value object owned by content entities. It is stored as
// seo_* columns of its owner and has no identity of its own.
type SeoMetadata struct {
	MetaTitle            string `gorm:"size:70" json:"metaTitle"`
	MetaDescription      string `gorm:"size:160" json:"metaDescription"`
	Keywords             string `gorm:"size:255" json:"keywords"`
	CanonicalURL         string `gorm:"size:2048" json:"canonicalUrl"`
	Robots               string `gorm:"size:64" json:"seoMetaRobots"`
	SchemaJSON           string `gorm:"type:text" json:"seoSchemaJson"`
	AutoGenerateSnippet  bool   `gorm:"not null" json:"autoGenerateSnippet"`
	AutoGenerateHeadTags bool   `gorm:"not null" json:"autoGenerateHeadTags"`
	IncludeInSitemap     bool   `gorm:"not null" json:"includeInSitemap"`
}

// DefaultSeoMetadata returns metadata with every rendering flag enabled.
func DefaultSeoMetadata() SeoMetadata {
	return SeoMetadata{
		AutoGenerateSnippet:  true,
		AutoGenerateHeadTags: true,
		IncludeInSitemap:     true,
	}
}

// Scope selects which lifecycle state a query operates on.
type Scope int

const (
	ScopeActive Scope = iota
	ScopeTrash
)

func (s Scope) String() string {
	if s == ScopeTrash {
		return "trash"
	}
	return "active"
}

// StatusFilter narrows a list by the active/inactive flag.
type StatusFilter int

const (
	StatusAll StatusFilter = iota
	StatusEnabled
	StatusDisabled
)

// ParseStatusFilter maps a query value to a StatusFilter.
// Unknown values mean "all".
func ParseStatusFilter(s string) StatusFilter {
	switch s {
	case "active", "true", "1", "enabled":
		return StatusEnabled
	case "inactive", "false", "0", "disabled":
		return StatusDisabled
	default:
		return StatusAll
	}
}

// ListQuery holds pagination, search, status and sort parameters for a list call.
type ListQuery struct {
	Page     int
	PageSize int
	Q        string
	Status   StatusFilter
	Sort     string
	Scope    Scope
}
