package ui

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"marketplace/storefront/internal/catalog"
	"marketplace/storefront/internal/domain"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var (
	successColor = color.New(color.FgHiGreen, color.Bold)
	errorColor   = color.New(color.FgHiRed, color.Bold)
	warnColor    = color.New(color.FgHiYellow)
	mutedColor   = color.New(color.FgHiBlack)
	pendingColor = color.New(color.FgHiMagenta)
)

// Printer renders catalog views, carts and toasts to a terminal
type Printer struct {
	out     io.Writer
	numbers *message.Printer
}

func NewPrinter(out io.Writer) *Printer {
	return &Printer{
		out:     out,
		numbers: message.NewPrinter(language.English),
	}
}

// Catalog prints one page of cards, or the empty or degraded state
func (p *Printer) Catalog(view catalog.View) error {
	if view.Degraded {
		warnColor.Fprintf(p.out, "⚠️  Showing saved items, the catalog could not be loaded: %s\n", view.Error)
		mutedColor.Fprintln(p.out, "   Run the command again to retry.")
	}
	if view.Empty {
		mutedColor.Fprintln(p.out, view.EmptyMessage)
		return nil
	}

	table := tablewriter.NewWriter(p.out)
	table.Header("ID", "Name", "Category", "Price", "Off", "Rating", "Stock", "Cart", "♥")
	for _, c := range view.Cards {
		name := c.Name
		if c.IsNew {
			name += " (new)"
		}
		if c.Pending {
			name = pendingColor.Sprint(name + " …")
		}
		row := []string{
			c.ID,
			name,
			c.Category.Label(),
			p.Price(c.Price),
			percent(c.Discount),
			strconv.FormatFloat(c.Rating, 'f', 1, 64),
			stock(c.CatalogItem),
			quantity(c.InCart),
			heart(c.Favorited),
		}
		if err := table.Append(row); err != nil {
			return fmt.Errorf("failed to render catalog: %w", err)
		}
	}
	if err := table.Render(); err != nil {
		return fmt.Errorf("failed to render catalog: %w", err)
	}

	mutedColor.Fprintf(p.out, "Page %d/%d · %d items · %d in cart\n", view.Page, view.TotalPages, view.Total, view.CartCount)
	return nil
}

// Item prints every field of a single item
func (p *Printer) Item(item domain.CatalogItem) error {
	rows := [][]string{
		{"ID", item.ID},
		{"Kind", item.Kind.String()},
		{"Name", item.Name},
		{"Category", item.Category.Label()},
		{"Price", p.Price(item.Price)},
	}
	if d := item.Discount(); d > 0 {
		rows = append(rows, []string{"Before", p.Price(item.OriginalPrice) + " (" + percent(d) + " off)"})
	}
	rows = append(rows,
		[]string{"Rating", fmt.Sprintf("%.1f (%d reviews)", item.Rating, item.Reviews)},
		[]string{"Stock", stock(item)},
	)
	for _, opt := range [][2]string{
		{"Brand", item.Brand},
		{"Address", item.Address},
		{"Phone", item.Phone},
		{"Owner", item.OwnerID},
		{"Image", item.Image},
	} {
		if opt[1] != "" {
			rows = append(rows, []string{opt[0], opt[1]})
		}
	}
	if len(item.Gallery) > 0 {
		rows = append(rows, []string{"Gallery", strings.Join(item.Gallery, "\n")})
	}

	table := tablewriter.NewWriter(p.out)
	for _, row := range rows {
		if err := table.Append(row); err != nil {
			return fmt.Errorf("failed to render item: %w", err)
		}
	}
	if err := table.Render(); err != nil {
		return fmt.Errorf("failed to render item: %w", err)
	}

	if item.Description != "" {
		fmt.Fprintln(p.out, item.Description)
	}
	return nil
}

// Cart prints the cart lines and their total
func (p *Printer) Cart(lines []domain.CartLine) error {
	if len(lines) == 0 {
		mutedColor.Fprintln(p.out, "Your cart is empty")
		return nil
	}

	table := tablewriter.NewWriter(p.out)
	table.Header("ID", "Name", "Qty", "Price", "Subtotal")
	var total float64
	var count int
	for _, line := range lines {
		total += line.Subtotal()
		count += line.Quantity
		row := []string{line.ID, line.Name, strconv.Itoa(line.Quantity), p.Price(line.Price), p.Price(line.Subtotal())}
		if err := table.Append(row); err != nil {
			return fmt.Errorf("failed to render cart: %w", err)
		}
	}
	if err := table.Render(); err != nil {
		return fmt.Errorf("failed to render cart: %w", err)
	}

	successColor.Fprintf(p.out, "Total: %s (%d items)\n", p.Price(total), count)
	return nil
}

// IDs prints a plain list, e.g. the wishlist
func (p *Printer) IDs(title string, ids []string) {
	if len(ids) == 0 {
		mutedColor.Fprintf(p.out, "%s is empty\n", title)
		return
	}
	fmt.Fprintf(p.out, "%s (%d):\n", title, len(ids))
	for _, id := range ids {
		fmt.Fprintf(p.out, "  • %s\n", id)
	}
}

// Price formats an amount with thousands separators, dropping zero cents
func (p *Printer) Price(v float64) string {
	if v == math.Trunc(v) {
		return p.numbers.Sprintf("$%.0f", v)
	}
	return p.numbers.Sprintf("$%.2f", v)
}

func percent(d int) string {
	if d <= 0 {
		return ""
	}
	return fmt.Sprintf("-%d%%", d)
}

func stock(item domain.CatalogItem) string {
	if !item.InStock {
		return "out"
	}
	return strconv.Itoa(item.Stock)
}

func quantity(n int) string {
	if n == 0 {
		return ""
	}
	return "×" + strconv.Itoa(n)
}

func heart(favorited bool) string {
	if favorited {
		return "♥"
	}
	return ""
}
