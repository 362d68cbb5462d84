package cart

import (
	"context"
	"slices"
	"sync"

	"marketplace/storefront/internal/state"

	log "github.com/sirupsen/logrus"
)

// FavoriteListener is notified for every representation of an item when
// its favorite state flips. Listeners look the item up by id on each call.
type FavoriteListener func(id string, favorited bool)

type Wishlist struct {
	store state.Store

	mu        sync.RWMutex
	ids       []string
	listeners []FavoriteListener
}

func NewWishlist(store state.Store) *Wishlist {
	return &Wishlist{store: store, ids: []string{}}
}

func (w *Wishlist) Load(ctx context.Context) error {
	var ids []string
	_, err := state.LoadJSON(ctx, w.store, state.KeyWishlist, &ids)

	w.mu.Lock()
	defer w.mu.Unlock()
	if err != nil || ids == nil {
		if err != nil {
			log.Warnf("⚠️ Wishlist storage unreadable, resetting: %v", err)
		}
		w.ids = []string{}
		return nil
	}
	w.ids = ids
	return nil
}

// Subscribe registers a listener for favorite changes
func (w *Wishlist) Subscribe(l FavoriteListener) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.listeners = append(w.listeners, l)
}

// Toggle adds id when absent and removes it when present, persists, and
// notifies every listener. It returns the new favorite state.
func (w *Wishlist) Toggle(ctx context.Context, id string) (bool, error) {
	w.mu.Lock()
	idx := slices.Index(w.ids, id)
	favorited := idx < 0
	if favorited {
		w.ids = append(w.ids, id)
	} else {
		w.ids = slices.Delete(w.ids, idx, idx+1)
	}
	err := state.SaveJSON(ctx, w.store, state.KeyWishlist, w.ids)
	listeners := slices.Clone(w.listeners)
	w.mu.Unlock()

	if err != nil {
		log.Errorf("❌ Failed to persist wishlist: %v", err)
	}
	for _, l := range listeners {
		l(id, favorited)
	}
	return favorited, err
}

func (w *Wishlist) Has(id string) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return slices.Contains(w.ids, id)
}

func (w *Wishlist) IDs() []string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return slices.Clone(w.ids)
}
