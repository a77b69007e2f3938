package category

import (
	"time"

	"github.com/google/uuid"

	"github.com/simp-lee/shopbase/internal/resource"
)

// Input is the body of create and update requests.
type Input struct {
	Name        string            `json:"name" validate:"required,max=100"`
	Slug        string            `json:"slug" validate:"required,max=120,slug"`
	Description string            `json:"description" validate:"max=2000"`
	ParentID    *uuid.UUID        `json:"parentId"`
	SortOrder   int               `json:"sortOrder" validate:"gte=0"`
	Seo         resource.SeoInput `json:"seo"`
}

// Summary is the list row projection.
type Summary struct {
	ID           uuid.UUID  `json:"id"`
	Name         string     `json:"name"`
	Slug         string     `json:"slug"`
	ParentID     *uuid.UUID `json:"parentId"`
	SortOrder    int        `json:"sortOrder"`
	Status       bool       `json:"status"`
	CreatedAtUTC time.Time  `json:"createdAtUtc"`
	DeletedAtUTC *time.Time `json:"deletedAtUtc,omitempty"`
	RowVersion   string     `json:"rowVersion"`
}

// Summarize projects c onto its list row.
func Summarize(c *Category) Summary {
	return Summary{
		ID:           c.ID,
		Name:         c.Name,
		Slug:         c.Slug,
		ParentID:     c.ParentID,
		SortOrder:    c.SortOrder,
		Status:       c.Status,
		CreatedAtUTC: c.CreatedAtUTC,
		DeletedAtUTC: c.DeletedAtUTC,
		RowVersion:   c.RowVersion,
	}
}
