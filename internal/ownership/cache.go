package ownership

import (
	"context"
	"slices"
	"sync"

	"marketplace/storefront/internal/state"

	log "github.com/sirupsen/logrus"
)

// Cache remembers which item ids an owner has submitted, for backends that
// do not filter listings by owner. Entries are pruned when deletes are
// confirmed or ids stop resolving.
type Cache struct {
	store state.Store
	scope string
	mu    sync.Mutex
}

func NewCache(store state.Store) *Cache {
	return &Cache{store: store}
}

// Scoped returns a cache over the same store whose keys do not collide
// with c, e.g. one per item kind.
func (c *Cache) Scoped(scope string) *Cache {
	return &Cache{store: c.store, scope: scope}
}

func (c *Cache) key(ownerID string) string {
	if c.scope == "" {
		return state.OwnerItemsKey(ownerID)
	}
	return state.OwnerItemsKey(c.scope + ":" + ownerID)
}

// IDs returns the cached item ids for ownerID; corrupt entries read as empty
func (c *Cache) IDs(ctx context.Context, ownerID string) []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.load(ctx, ownerID)
}

func (c *Cache) Add(ctx context.Context, ownerID, itemID string) error {
	if ownerID == "" || itemID == "" {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	ids := c.load(ctx, ownerID)
	if slices.Contains(ids, itemID) {
		return nil
	}
	return state.SaveJSON(ctx, c.store, c.key(ownerID), append(ids, itemID))
}

func (c *Cache) Remove(ctx context.Context, ownerID string, itemIDs ...string) error {
	if ownerID == "" || len(itemIDs) == 0 {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	ids := c.load(ctx, ownerID)
	kept := slices.DeleteFunc(ids, func(id string) bool {
		return slices.Contains(itemIDs, id)
	})
	log.Debugf("Ownership cache for %s now holds %d ids", ownerID, len(kept))
	return state.SaveJSON(ctx, c.store, c.key(ownerID), kept)
}

func (c *Cache) load(ctx context.Context, ownerID string) []string {
	var ids []string
	if _, err := state.LoadJSON(ctx, c.store, c.key(ownerID), &ids); err != nil {
		log.Warnf("⚠️ Ownership cache for %s unreadable, ignoring: %v", ownerID, err)
		return []string{}
	}
	if ids == nil {
		return []string{}
	}
	return ids
}
