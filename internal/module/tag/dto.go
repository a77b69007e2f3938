package tag

import (
	"time"

	"github.com/google/uuid"

	"github.com/simp-lee/shopbase/internal/resource"
)

// Input is the body of create and update requests.
type Input struct {
	Name string            `json:"name" validate:"required,max=60"`
	Slug string            `json:"slug" validate:"required,max=80,slug"`
	Seo  resource.SeoInput `json:"seo"`
}

// Summary is the list row projection.
type Summary struct {
	ID           uuid.UUID  `json:"id"`
	Name         string     `json:"name"`
	Slug         string     `json:"slug"`
	Status       bool       `json:"status"`
	CreatedAtUTC time.Time  `json:"createdAtUtc"`
	DeletedAtUTC *time.Time `json:"deletedAtUtc,omitempty"`
	RowVersion   string     `json:"rowVersion"`
}

func Summarize(t *Tag) Summary {
	return Summary{
		ID:           t.ID,
		Name:         t.Name,
		Slug:         t.Slug,
		Status:       t.Status,
		CreatedAtUTC: t.CreatedAtUTC,
		DeletedAtUTC: t.DeletedAtUTC,
		RowVersion:   t.RowVersion,
	}
}
