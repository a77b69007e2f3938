package cli

import (
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/simp-lee/shopbase/internal/admin"
	"github.com/simp-lee/shopbase/internal/module/category"
	"github.com/simp-lee/shopbase/internal/module/product"
	"github.com/simp-lee/shopbase/internal/module/tag"
)

// resourceSpec describes how shopctl shows one catalog resource.
type resourceSpec[T any, S any] struct {
	name      string
	aliases   []string
	columns   []admin.Column[S]
	summarize func(*T) S
	id        func(S) uuid.UUID
	label     func(S) string
	version   func(S) string
}

var categories = resourceSpec[category.Category, category.Summary]{
	name:    "categories",
	aliases: []string{"category", "cat"},
	columns: []admin.Column[category.Summary]{
		{Header: "id", Cell: func(s category.Summary) string { return s.ID.String() }},
		{Header: "name", Cell: func(s category.Summary) string { return s.Name }},
		{Header: "slug", Cell: func(s category.Summary) string { return s.Slug }},
		{Header: "parent", Cell: func(s category.Summary) string { return optionalID(s.ParentID) }},
		{Header: "order", Cell: func(s category.Summary) string { return strconv.Itoa(s.SortOrder) }},
		{Header: "status", Cell: func(s category.Summary) string { return statusText(s.Status) }},
		{Header: "created", Cell: func(s category.Summary) string { return timeText(s.CreatedAtUTC) }},
	},
	summarize: category.Summarize,
	id:        func(s category.Summary) uuid.UUID { return s.ID },
	label:     func(s category.Summary) string { return s.Name },
	version:   func(s category.Summary) string { return s.RowVersion },
}

var tags = resourceSpec[tag.Tag, tag.Summary]{
	name:    "tags",
	aliases: []string{"tag"},
	columns: []admin.Column[tag.Summary]{
		{Header: "id", Cell: func(s tag.Summary) string { return s.ID.String() }},
		{Header: "name", Cell: func(s tag.Summary) string { return s.Name }},
		{Header: "slug", Cell: func(s tag.Summary) string { return s.Slug }},
		{Header: "status", Cell: func(s tag.Summary) string { return statusText(s.Status) }},
		{Header: "created", Cell: func(s tag.Summary) string { return timeText(s.CreatedAtUTC) }},
	},
	summarize: tag.Summarize,
	id:        func(s tag.Summary) uuid.UUID { return s.ID },
	label:     func(s tag.Summary) string { return s.Name },
	version:   func(s tag.Summary) string { return s.RowVersion },
}

var products = resourceSpec[product.Product, product.Summary]{
	name:    "products",
	aliases: []string{"product", "prod"},
	columns: []admin.Column[product.Summary]{
		{Header: "id", Cell: func(s product.Summary) string { return s.ID.String() }},
		{Header: "sku", Cell: func(s product.Summary) string { return s.SKU }},
		{Header: "name", Cell: func(s product.Summary) string { return s.Name }},
		{Header: "price", Cell: func(s product.Summary) string { return priceText(s.PriceMinor, s.Currency) }},
		{Header: "stock", Cell: func(s product.Summary) string { return strconv.Itoa(s.Stock) }},
		{Header: "visibility", Cell: func(s product.Summary) string { return s.Visibility }},
		{Header: "status", Cell: func(s product.Summary) string { return statusText(s.Status) }},
	},
	summarize: product.Summarize,
	id:        func(s product.Summary) uuid.UUID { return s.ID },
	label:     func(s product.Summary) string { return s.SKU },
	version:   func(s product.Summary) string { return s.RowVersion },
}

func statusText(active bool) string {
	if active {
		return "active"
	}
	return "inactive"
}

func optionalID(id *uuid.UUID) string {
	if id == nil {
		return "-"
	}
	return id.String()
}

func timeText(t time.Time) string {
	return t.UTC().Format(time.DateTime)
}

// priceText formats minor units with two decimals. Currencies with other
// exponents are shown the same way.
func priceText(minor int64, currency string) string {
	sign := ""
	if minor < 0 {
		sign = "-"
		minor = -minor
	}
	return sign + strconv.FormatInt(minor/100, 10) + "." + twoDigits(minor%100) + " " + currency
}

func twoDigits(n int64) string {
	if n < 10 {
		return "0" + strconv.FormatInt(n, 10)
	}
	return strconv.FormatInt(n, 10)
}
