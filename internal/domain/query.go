package domain

import "fmt"

// Criteria holds independent predicates combined with logical AND.
// A nil field means "no constraint".
type Criteria struct {
	Category  *string  `json:"category,omitempty"`
	MinPrice  *float64 `json:"min_price,omitempty"`
	MaxPrice  *float64 `json:"max_price,omitempty"`
	MinRating *float64 `json:"min_rating,omitempty"`
	OwnerID   *string  `json:"owner_id,omitempty"`
}

// Matches reports whether the item satisfies every supplied predicate
func (c Criteria) Matches(item CatalogItem) bool {
	if c.Category != nil && *c.Category != "" {
		if item.Category.Slug != *c.Category && item.Category.Name != *c.Category {
			return false
		}
	}
	if c.MinPrice != nil && item.Price < *c.MinPrice {
		return false
	}
	if c.MaxPrice != nil && item.Price > *c.MaxPrice {
		return false
	}
	if c.MinRating != nil && item.Rating < *c.MinRating {
		return false
	}
	if c.OwnerID != nil && *c.OwnerID != "" && item.OwnerID != *c.OwnerID {
		return false
	}
	return true
}

type SortKey string

const (
	SortDefault   SortKey = ""
	SortPriceAsc  SortKey = "price-asc"
	SortPriceDesc SortKey = "price-desc"
	SortRating    SortKey = "rating"
	SortNewest    SortKey = "newest"
	SortNameAsc   SortKey = "name-asc"
	SortNameDesc  SortKey = "name-desc"
)

var SortKeys = []SortKey{
	SortPriceAsc,
	SortPriceDesc,
	SortRating,
	SortNewest,
	SortNameAsc,
	SortNameDesc,
}

func ParseSortKey(s string) (SortKey, error) {
	if s == "" {
		return SortDefault, nil
	}
	for _, k := range SortKeys {
		if string(k) == s {
			return k, nil
		}
	}
	return SortDefault, fmt.Errorf("unknown sort key %q", s)
}
