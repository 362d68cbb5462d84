package domain

// CartLine is a catalog item snapshot plus the quantity held in the cart
type CartLine struct {
	CatalogItem
	Quantity int `json:"quantity"` // always >= 1
}

// Subtotal is price times quantity
func (l CartLine) Subtotal() float64 {
	return l.Price * float64(l.Quantity)
}
