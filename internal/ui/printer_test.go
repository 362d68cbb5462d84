package ui

import (
	"bytes"
	"strings"
	"testing"

	"marketplace/storefront/internal/catalog"
	"marketplace/storefront/internal/domain"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPrinter(t *testing.T) (*Printer, *bytes.Buffer) {
	t.Helper()
	noColor := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = noColor })

	var buf bytes.Buffer
	return NewPrinter(&buf), &buf
}

func TestPrice(t *testing.T) {
	p, _ := newTestPrinter(t)
	assert.Equal(t, "$150,000", p.Price(150000))
	assert.Equal(t, "$1,234.50", p.Price(1234.5))
	assert.Equal(t, "$0", p.Price(0))
}

func TestCatalog_RendersCards(t *testing.T) {
	p, buf := newTestPrinter(t)
	view := catalog.View{
		Cards: []catalog.Card{{
			CatalogItem: domain.CatalogItem{
				ID:       "P1",
				Name:     "Pizza Deluxe",
				Category: domain.Category{Name: "Comida", Slug: "comida"},
				Price:    30000,
				Rating:   4.5,
				Stock:    3,
				InStock:  true,
			},
			InCart:    2,
			Favorited: true,
			Discount:  25,
		}},
		Page:       1,
		TotalPages: 1,
		Total:      1,
		CartCount:  2,
	}

	require.NoError(t, p.Catalog(view))
	out := buf.String()
	assert.Contains(t, out, "Pizza Deluxe")
	assert.Contains(t, out, "$30,000")
	assert.Contains(t, out, "-25%")
	assert.Contains(t, out, "×2")
	assert.Contains(t, out, "♥")
	assert.Contains(t, out, "Page 1/1 · 1 items · 2 in cart")

	upper := strings.ToUpper(out)
	assert.Equal(t, 1, strings.Count(upper, "CATEGORY"))
	assert.Less(t, strings.Index(upper, "CATEGORY"), strings.Index(upper, "PIZZA DELUXE"))
}

func TestCatalog_EmptyAndDegraded(t *testing.T) {
	p, buf := newTestPrinter(t)
	require.NoError(t, p.Catalog(catalog.View{
		Empty:        true,
		EmptyMessage: "No items match your search",
		Degraded:     true,
		Error:        "Error 503: Service Unavailable",
	}))

	out := buf.String()
	assert.Contains(t, out, "Error 503: Service Unavailable")
	assert.Contains(t, out, "retry")
	assert.Contains(t, out, "No items match your search")
}

func TestCart(t *testing.T) {
	p, buf := newTestPrinter(t)
	require.NoError(t, p.Cart([]domain.CartLine{
		{CatalogItem: domain.CatalogItem{ID: "P1", Name: "Pizza", Price: 10}, Quantity: 2},
		{CatalogItem: domain.CatalogItem{ID: "P2", Name: "Soda", Price: 2.5}, Quantity: 1},
	}))
	out := buf.String()
	assert.Contains(t, out, "Total: $22.50 (3 items)")
	upper := strings.ToUpper(out)
	assert.Equal(t, 1, strings.Count(upper, "SUBTOTAL"))
	assert.Less(t, strings.Index(upper, "SUBTOTAL"), strings.Index(upper, "PIZZA"))

	buf.Reset()
	require.NoError(t, p.Cart(nil))
	assert.Equal(t, "Your cart is empty\n", buf.String())
}

func TestResult(t *testing.T) {
	p, buf := newTestPrinter(t)
	p.Result(domain.Ok("item created", nil))
	p.Result(domain.Fail("please correct the highlighted fields", "Name is required"))

	assert.Equal(t, "✔ item created\n✖ please correct the highlighted fields\n  - Name is required\n", buf.String())
}
