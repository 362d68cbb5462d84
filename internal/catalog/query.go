package catalog

import (
	"sort"
	"strings"

	"marketplace/storefront/internal/domain"

	"golang.org/x/text/cases"
)

func fold(s string) string {
	return cases.Fold().String(s)
}

// matchesTerm is a case-insensitive substring match over name, description,
// brand and address. A blank term matches everything.
func matchesTerm(item domain.CatalogItem, term string) bool {
	term = strings.TrimSpace(term)
	if term == "" {
		return true
	}
	needle := fold(term)
	for _, field := range []string{item.Name, item.Description, item.Brand, item.Address} {
		if field != "" && strings.Contains(fold(field), needle) {
			return true
		}
	}
	return false
}

// sortItems sorts in place; ties keep their original order
func sortItems(items []domain.CatalogItem, key domain.SortKey) {
	var less func(a, b domain.CatalogItem) bool
	switch key {
	case domain.SortPriceAsc:
		less = func(a, b domain.CatalogItem) bool { return a.Price < b.Price }
	case domain.SortPriceDesc:
		less = func(a, b domain.CatalogItem) bool { return a.Price > b.Price }
	case domain.SortRating:
		less = func(a, b domain.CatalogItem) bool { return a.Rating > b.Rating }
	case domain.SortNewest:
		less = func(a, b domain.CatalogItem) bool { return a.CreatedAt.After(b.CreatedAt) }
	case domain.SortNameAsc:
		less = func(a, b domain.CatalogItem) bool { return fold(a.Name) < fold(b.Name) }
	case domain.SortNameDesc:
		less = func(a, b domain.CatalogItem) bool { return fold(a.Name) > fold(b.Name) }
	default:
		return
	}
	sort.SliceStable(items, func(i, j int) bool { return less(items[i], items[j]) })
}
