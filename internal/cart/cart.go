package cart

import (
	"context"
	"sync"

	"marketplace/storefront/internal/domain"
	"marketplace/storefront/internal/state"

	log "github.com/sirupsen/logrus"
)

// Cart is an ordered list of line items, unique by item id, persisted in
// full after every mutation.
type Cart struct {
	store state.Store

	mu    sync.RWMutex
	lines []domain.CartLine
}

func NewCart(store state.Store) *Cart {
	return &Cart{store: store, lines: []domain.CartLine{}}
}

// Load reads the cart from storage. Absent or corrupt data resets it to empty.
func (c *Cart) Load(ctx context.Context) error {
	var lines []domain.CartLine
	_, err := state.LoadJSON(ctx, c.store, state.KeyCart, &lines)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil || lines == nil {
		if err != nil {
			log.Warnf("⚠️ Cart storage unreadable, resetting: %v", err)
		}
		c.lines = []domain.CartLine{}
		return nil
	}
	c.lines = lines
	return nil
}

// Add increments the quantity of an existing line or appends a new one.
// Memory changes only once the new state is persisted.
func (c *Cart) Add(ctx context.Context, item domain.CatalogItem) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	next := make([]domain.CartLine, len(c.lines), len(c.lines)+1)
	copy(next, c.lines)
	found := false
	for i := range next {
		if next[i].ID == item.ID {
			next[i].Quantity++
			found = true
			break
		}
	}
	if !found {
		next = append(next, domain.CartLine{CatalogItem: item, Quantity: 1})
	}
	return c.commit(ctx, next)
}

func (c *Cart) Remove(ctx context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	next := make([]domain.CartLine, 0, len(c.lines))
	for _, line := range c.lines {
		if line.ID != id {
			next = append(next, line)
		}
	}
	return c.commit(ctx, next)
}

func (c *Cart) Clear(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.commit(ctx, []domain.CartLine{})
}

func (c *Cart) Lines() []domain.CartLine {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]domain.CartLine, len(c.lines))
	copy(out, c.lines)
	return out
}

// Quantity returns how many units of id are in the cart
func (c *Cart) Quantity(id string) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, line := range c.lines {
		if line.ID == id {
			return line.Quantity
		}
	}
	return 0
}

// Count is the badge value: the sum of quantities, recomputed on each call
func (c *Cart) Count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	total := 0
	for _, line := range c.lines {
		total += line.Quantity
	}
	return total
}

func (c *Cart) Total() float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	total := 0.0
	for _, line := range c.lines {
		total += line.Subtotal()
	}
	return total
}

// commit persists next and adopts it; on failure the cart is unchanged
func (c *Cart) commit(ctx context.Context, next []domain.CartLine) error {
	if err := state.SaveJSON(ctx, c.store, state.KeyCart, next); err != nil {
		log.Errorf("❌ Failed to persist cart: %v", err)
		return err
	}
	c.lines = next
	return nil
}
