package product

import (
	"time"

	"github.com/google/uuid"

	"github.com/simp-lee/shopbase/internal/resource"
)

// Input is the body of create and update requests. Visibility defaults to
// "visible" when omitted.
type Input struct {
	Name        string            `json:"name" validate:"required,max=200"`
	SKU         string            `json:"sku" validate:"required,max=64"`
	Description string            `json:"description" validate:"max=5000"`
	PriceMinor  int64             `json:"priceMinor" validate:"gte=0"`
	Currency    string            `json:"currency" validate:"required,iso4217"`
	Stock       int               `json:"stock" validate:"gte=0"`
	Visibility  string            `json:"visibility" validate:"omitempty,oneof=visible catalog search hidden"`
	CategoryID  *uuid.UUID        `json:"categoryId"`
	Attributes  map[string]any    `json:"attributes"`
	Seo         resource.SeoInput `json:"seo"`
}

// Summary is the list row projection.
type Summary struct {
	ID           uuid.UUID  `json:"id"`
	Name         string     `json:"name"`
	SKU          string     `json:"sku"`
	PriceMinor   int64      `json:"priceMinor"`
	Currency     string     `json:"currency"`
	Stock        int        `json:"stock"`
	Visibility   string     `json:"visibility"`
	Status       bool       `json:"status"`
	CreatedAtUTC time.Time  `json:"createdAtUtc"`
	DeletedAtUTC *time.Time `json:"deletedAtUtc,omitempty"`
	RowVersion   string     `json:"rowVersion"`
}

// Summarize projects p onto its list row.
func Summarize(p *Product) Summary {
	return Summary{
		ID:           p.ID,
		Name:         p.Name,
		SKU:          p.SKU,
		PriceMinor:   p.PriceMinor,
		Currency:     p.Currency,
		Stock:        p.Stock,
		Visibility:   p.Visibility,
		Status:       p.Status,
		CreatedAtUTC: p.CreatedAtUTC,
		DeletedAtUTC: p.DeletedAtUTC,
		RowVersion:   p.RowVersion,
	}
}
