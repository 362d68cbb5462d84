package normalize

import (
	"regexp"
	"strings"
	"time"

	"marketplace/storefront/internal/domain"

	"github.com/spf13/cast"
)

const (
	DefaultRating = 4.5
	NewItemWindow = 30 * 24 * time.Hour
)

var slugInvalid = regexp.MustCompile(`[^a-z0-9]+`)

// Normalizer maps raw backend records onto domain.CatalogItem
type Normalizer struct {
	apiHost string
	kind    domain.ItemKind
	now     func() time.Time
}

func NewNormalizer(apiHost string, kind domain.ItemKind) *Normalizer {
	return &Normalizer{
		apiHost: apiHost,
		kind:    kind,
		now:     time.Now,
	}
}

// WithClock pins the notion of "now" used for the isNew derivation
func (n *Normalizer) WithClock(now func() time.Time) *Normalizer {
	n.now = now
	return n
}

// Item resolves every canonical field from its alias list. Feeding the
// output (as a JSON map) back in yields the same item.
func (n *Normalizer) Item(raw map[string]any) domain.CatalogItem {
	item := domain.CatalogItem{
		ID:          FirstString(raw, IDAliases),
		Kind:        n.kind,
		Name:        FirstString(raw, NameAliases),
		Description: FirstString(raw, DescriptionAliases),
		Category:    category(raw),
		Brand:       FirstString(raw, BrandAliases),
		Address:     FirstString(raw, AddressAliases),
		Phone:       FirstString(raw, PhoneAliases),
		Image:       ImageURL(n.apiHost, FirstString(raw, ImageAliases)),
		Gallery:     n.gallery(raw),
		Stock:       max(0, FirstInt(raw, StockAliases, 0)),
		Reviews:     max(0, FirstInt(raw, ReviewsAliases, 0)),
		OwnerID:     OwnerID(raw),
	}

	if kind := FirstString(raw, KindAliases); kind != "" {
		item.Kind = domain.ItemKind(kind)
	}

	item.Price, _ = FirstFloat(raw, PriceAliases, 0)
	if original, ok := FirstFloat(raw, OriginalPriceAliases, 0); ok {
		item.OriginalPrice = original
	} else {
		item.OriginalPrice = item.Price
	}

	item.Rating, _ = FirstFloat(raw, RatingAliases, DefaultRating)
	item.Rating = min(max(item.Rating, 0), 5)

	item.InStock = item.Stock > 0
	item.CreatedAt = createdAt(raw)
	if !item.CreatedAt.IsZero() {
		item.IsNew = n.now().Sub(item.CreatedAt) <= NewItemWindow
	}

	return item
}

// Items normalizes a list and drops duplicate ids, keeping the first
// occurrence and the input order.
func (n *Normalizer) Items(raws []map[string]any) []domain.CatalogItem {
	items := make([]domain.CatalogItem, 0, len(raws))
	seen := make(map[string]struct{}, len(raws))
	for _, raw := range raws {
		item := n.Item(raw)
		if item.ID != "" {
			if _, dup := seen[item.ID]; dup {
				continue
			}
			seen[item.ID] = struct{}{}
		}
		items = append(items, item)
	}
	return items
}

func (n *Normalizer) gallery(raw map[string]any) []string {
	v, ok := First(raw, GalleryAliases)
	if !ok {
		return []string{}
	}
	list, ok := v.([]any)
	if !ok {
		if s, isStr := v.(string); isStr {
			list = []any{s}
		}
	}
	gallery := make([]string, 0, len(list))
	for _, entry := range list {
		if url := ImageURL(n.apiHost, galleryRef(entry)); url != "" {
			gallery = append(gallery, url)
		}
	}
	return gallery
}

func category(raw map[string]any) domain.Category {
	v, ok := First(raw, CategoryAliases)
	if !ok {
		return domain.Category{}
	}
	switch c := v.(type) {
	case map[string]any:
		cat := domain.Category{
			Name: FirstString(c, []string{"name", "nombre"}),
			Slug: FirstString(c, []string{"slug"}),
		}
		if cat.Slug == "" {
			cat.Slug = Slugify(cat.Name)
		}
		return cat
	default:
		s := cast.ToString(c)
		return domain.Category{Name: s, Slug: s}
	}
}

func createdAt(raw map[string]any) time.Time {
	v, ok := First(raw, CreatedAtAliases)
	if !ok {
		return time.Time{}
	}
	if s, isStr := v.(string); isStr {
		if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
			return t
		}
	}
	t, err := cast.ToTimeE(v)
	if err != nil {
		return time.Time{}
	}
	return t
}

// Slugify lowercases and collapses non-alphanumerics into dashes
func Slugify(s string) string {
	s = slugInvalid.ReplaceAllString(strings.ToLower(strings.TrimSpace(s)), "-")
	return strings.Trim(s, "-")
}
