package catalog

import "marketplace/storefront/internal/domain"

const emptyMessage = "No items match your search"

// Card is one rendered item with its client-side annotations
type Card struct {
	domain.CatalogItem
	InCart    int
	Favorited bool
	Discount  int
	Pending   bool // provisional change awaiting verification
}

// View is the render output: one page of cards plus pagination and status
type View struct {
	Cards        []Card
	Page         int
	TotalPages   int
	PageSize     int
	Total        int
	Empty        bool
	EmptyMessage string
	Degraded     bool
	Error        string
	CartCount    int
}

// Render produces the current page. A page past the end is clamped to the
// last page; an empty result set yields an explicit empty view.
func (m *Manager) Render() View {
	m.mu.Lock()
	defer m.mu.Unlock()

	visible := m.visibleLocked()
	view := View{
		PageSize: m.pageSize,
		Total:    len(visible),
		Degraded: m.degraded,
		Cards:    []Card{},
	}
	if m.loadErr != nil {
		view.Error = m.loadErr.Error()
	}
	if m.cart != nil {
		view.CartCount = m.cart.Count()
	}

	if len(visible) == 0 {
		m.page = 1
		view.Page = 1
		view.Empty = true
		view.EmptyMessage = emptyMessage
		return view
	}

	view.TotalPages = (len(visible) + m.pageSize - 1) / m.pageSize
	m.page = min(max(m.page, 1), view.TotalPages)
	view.Page = m.page

	start := (m.page - 1) * m.pageSize
	end := min(start+m.pageSize, len(visible))
	for _, item := range visible[start:end] {
		view.Cards = append(view.Cards, m.card(item))
	}
	return view
}

func (m *Manager) card(item domain.CatalogItem) Card {
	c := Card{
		CatalogItem: item,
		Discount:    item.Discount(),
		Pending:     m.pending[item.ID] > 0,
	}
	if m.cart != nil {
		c.InCart = m.cart.Quantity(item.ID)
	}
	if m.wishlist != nil {
		c.Favorited = m.wishlist.Has(item.ID)
	}
	return c
}
