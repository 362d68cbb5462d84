package mutation

import (
	"math"
	"strconv"
	"strings"

	"marketplace/storefront/internal/client"
	"marketplace/storefront/internal/domain"
	"marketplace/storefront/internal/normalize"
)

// field ties a submitted form value to the canonical item field it should
// end up in. matches runs during verification; apply patches the visible
// item provisionally.
type field struct {
	label   string
	aliases []string
	matches func(want string, got domain.CatalogItem, raw map[string]any) bool
	apply   func(item *domain.CatalogItem, value string)
}

var categoryIDAliases = []string{"category_id", "categoria_id", "category.id", "categoria.id"}

var verifiedFields = []field{
	{
		label:   "name",
		aliases: normalize.NameAliases,
		matches: text(func(i domain.CatalogItem) string { return i.Name }),
		apply:   func(i *domain.CatalogItem, v string) { i.Name = v },
	},
	{
		label:   "description",
		aliases: normalize.DescriptionAliases,
		matches: text(func(i domain.CatalogItem) string { return i.Description }),
		apply:   func(i *domain.CatalogItem, v string) { i.Description = v },
	},
	{
		label:   "category",
		aliases: normalize.CategoryAliases,
		matches: func(want string, got domain.CatalogItem, raw map[string]any) bool {
			return strings.EqualFold(want, got.Category.Name) ||
				strings.EqualFold(want, got.Category.Slug) ||
				normalize.Slugify(want) == got.Category.Slug ||
				want == normalize.FirstString(raw, categoryIDAliases)
		},
		apply: func(i *domain.CatalogItem, v string) {
			if _, err := strconv.Atoi(v); err == nil {
				return // an id; the label is unknown until re-fetched
			}
			i.Category = domain.Category{Name: v, Slug: normalize.Slugify(v)}
		},
	},
	{
		label:   "price",
		aliases: normalize.PriceAliases,
		matches: number(func(i domain.CatalogItem) float64 { return i.Price }),
		apply: func(i *domain.CatalogItem, v string) {
			if p, err := strconv.ParseFloat(v, 64); err == nil {
				i.Price = p
			}
		},
	},
	{
		label:   "originalPrice",
		aliases: normalize.OriginalPriceAliases,
		matches: number(func(i domain.CatalogItem) float64 { return i.OriginalPrice }),
		apply: func(i *domain.CatalogItem, v string) {
			if p, err := strconv.ParseFloat(v, 64); err == nil {
				i.OriginalPrice = p
			}
		},
	},
	{
		label:   "phone",
		aliases: normalize.PhoneAliases,
		matches: func(want string, got domain.CatalogItem, _ map[string]any) bool {
			return PhoneDigits(want) == PhoneDigits(got.Phone)
		},
		apply: func(i *domain.CatalogItem, v string) { i.Phone = v },
	},
	{
		label:   "address",
		aliases: normalize.AddressAliases,
		matches: text(func(i domain.CatalogItem) string { return i.Address }),
		apply:   func(i *domain.CatalogItem, v string) { i.Address = v },
	},
	{
		label:   "brand",
		aliases: normalize.BrandAliases,
		matches: text(func(i domain.CatalogItem) string { return i.Brand }),
		apply:   func(i *domain.CatalogItem, v string) { i.Brand = v },
	},
	{
		label:   "stock",
		aliases: normalize.StockAliases,
		matches: number(func(i domain.CatalogItem) float64 { return float64(i.Stock) }),
		apply: func(i *domain.CatalogItem, v string) {
			if n, err := strconv.Atoi(v); err == nil {
				i.Stock = max(0, n)
				i.InStock = i.Stock > 0
			}
		},
	},
}

// mismatches lists the submitted fields the re-fetched record does not
// reflect. Fields absent from the form are not checked.
func mismatches(form *client.Form, got domain.CatalogItem, raw map[string]any) []string {
	var bad []string
	for _, f := range verifiedFields {
		want := formValue(form, f.aliases)
		if want == "" {
			continue
		}
		if !f.matches(want, got, raw) {
			bad = append(bad, f.label)
		}
	}
	return bad
}

// provisional patches item with every submitted field
func provisional(form *client.Form) func(*domain.CatalogItem) {
	return func(item *domain.CatalogItem) {
		for _, f := range verifiedFields {
			if want := formValue(form, f.aliases); want != "" {
				f.apply(item, want)
			}
		}
	}
}

func text(get func(domain.CatalogItem) string) func(string, domain.CatalogItem, map[string]any) bool {
	return func(want string, got domain.CatalogItem, _ map[string]any) bool {
		return strings.TrimSpace(get(got)) == want
	}
}

func number(get func(domain.CatalogItem) float64) func(string, domain.CatalogItem, map[string]any) bool {
	return func(want string, got domain.CatalogItem, _ map[string]any) bool {
		w, err := strconv.ParseFloat(want, 64)
		if err != nil {
			return false
		}
		return math.Abs(w-get(got)) < 0.005
	}
}
