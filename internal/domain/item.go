package domain

import (
	"math"
	"time"
)

type ItemKind string

func (k ItemKind) String() string {
	return string(k)
}

const (
	ItemKindProduct ItemKind = "product"
	ItemKindService ItemKind = "service"
)

// Category is either a bare slug or a {name, slug} pair on the wire
type Category struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// Label returns the display name, falling back to the slug
func (c Category) Label() string {
	if c.Name != "" {
		return c.Name
	}
	return c.Slug
}

// CatalogItem is the canonical shape of a product or service regardless of
// how the backend spelled its fields.
type CatalogItem struct {
	ID            string    `json:"id"`
	Kind          ItemKind  `json:"kind,omitempty"`
	Name          string    `json:"name"`
	Description   string    `json:"description"`
	Category      Category  `json:"category"`
	Brand         string    `json:"brand,omitempty"`
	Address       string    `json:"address,omitempty"`
	Phone         string    `json:"phone,omitempty"`
	Price         float64   `json:"price"`
	OriginalPrice float64   `json:"originalPrice"`
	Image         string    `json:"image"`
	Gallery       []string  `json:"gallery"`
	Stock         int       `json:"stock"`
	InStock       bool      `json:"inStock"`
	IsNew         bool      `json:"isNew"`
	Rating        float64   `json:"rating"`
	Reviews       int       `json:"reviews"`
	OwnerID       string    `json:"ownerId,omitempty"`
	CreatedAt     time.Time `json:"created_at,omitempty"`
}

// Discount returns the rounded percentage off the original price, or 0 when
// the original price is not above the current one.
func Discount(price, originalPrice float64) int {
	if originalPrice <= price || originalPrice <= 0 {
		return 0
	}
	return int(math.Round((originalPrice - price) / originalPrice * 100))
}

// Discount is a convenience wrapper over the package-level formula
func (i CatalogItem) Discount() int {
	return Discount(i.Price, i.OriginalPrice)
}
