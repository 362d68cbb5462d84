package catalog

import (
	"context"
	"fmt"
	"sync"
	"time"

	"marketplace/storefront/internal/cart"
	"marketplace/storefront/internal/client"
	"marketplace/storefront/internal/debounce"
	"marketplace/storefront/internal/domain"
	"marketplace/storefront/internal/normalize"

	log "github.com/sirupsen/logrus"
)

// Lister fetches the raw listing of a resource
type Lister interface {
	List(ctx context.Context, res client.Resource) ([]map[string]any, error)
}

// SnapshotStore keeps the last successfully loaded catalog for outages
type SnapshotStore interface {
	Save(ctx context.Context, kind domain.ItemKind, items []domain.CatalogItem) error
	Load(ctx context.Context, kind domain.ItemKind) ([]domain.CatalogItem, error)
}

type Options struct {
	Lister         Lister
	Resource       client.Resource
	Normalizer     *normalize.Normalizer
	Kind           domain.ItemKind
	Cart           *cart.Cart
	Wishlist       *cart.Wishlist
	Snapshots      SnapshotStore // optional
	PageSize       int
	SearchDebounce time.Duration
}

// Manager holds the fetched catalog and the current filter, search, sort
// and page. It owns all of its state; nothing is shared between instances.
type Manager struct {
	lister     Lister
	resource   client.Resource
	normalizer *normalize.Normalizer
	kind       domain.ItemKind
	cart       *cart.Cart
	wishlist   *cart.Wishlist
	snapshots  SnapshotStore
	pageSize   int
	search     *debounce.Debouncer

	mu         sync.RWMutex
	allItems   []domain.CatalogItem
	criteria   domain.Criteria
	term       string
	sortKey    domain.SortKey
	page       int
	generation uint64
	degraded   bool
	loadErr    error
	pending    map[string]int
}

func NewManager(opts Options) *Manager {
	if opts.PageSize <= 0 {
		opts.PageSize = 12
	}
	if opts.SearchDebounce <= 0 {
		opts.SearchDebounce = 300 * time.Millisecond
	}
	return &Manager{
		lister:     opts.Lister,
		resource:   opts.Resource,
		normalizer: opts.Normalizer,
		kind:       opts.Kind,
		cart:       opts.Cart,
		wishlist:   opts.Wishlist,
		snapshots:  opts.Snapshots,
		pageSize:   opts.PageSize,
		search:     debounce.New(opts.SearchDebounce),
		allItems:   []domain.CatalogItem{},
		page:       1,
		pending:    make(map[string]int),
	}
}

// Load fetches the listing, normalizes and dedupes it, and replaces
// allItems. When the backend is unavailable the last snapshot or the
// built-in items are used instead and the returned error explains why.
// A response that arrives after a newer Load started is discarded.
func (m *Manager) Load(ctx context.Context) error {
	gen := m.nextGeneration()

	raws, err := m.lister.List(ctx, m.resource)
	if err == nil {
		items := m.normalizer.Items(raws)
		if !m.apply(gen, items, nil) {
			return nil
		}
		log.Infof("✅ Loaded %d %s items", len(items), m.kind)
		m.saveSnapshot(ctx, items)
		return nil
	}

	log.Errorf("❌ Failed to load %s catalog: %v", m.kind, err)
	items := m.fallbackItems(ctx)
	m.apply(gen, items, err)
	return fmt.Errorf("catalog unavailable, showing %d fallback items: %w", len(items), err)
}

// Replace installs an already-fetched item list, deduplicated by id
func (m *Manager) Replace(items []domain.CatalogItem) {
	gen := m.nextGeneration()
	m.apply(gen, dedupe(items), nil)
}

func (m *Manager) nextGeneration() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.generation++
	return m.generation
}

func (m *Manager) apply(gen uint64, items []domain.CatalogItem, loadErr error) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if gen != m.generation {
		log.Debugf("Discarding stale %s response (generation %d, current %d)", m.kind, gen, m.generation)
		return false
	}
	m.allItems = items
	m.degraded = loadErr != nil
	m.loadErr = loadErr
	return true
}

func (m *Manager) saveSnapshot(ctx context.Context, items []domain.CatalogItem) {
	if m.snapshots == nil || len(items) == 0 {
		return
	}
	if err := m.snapshots.Save(ctx, m.kind, items); err != nil {
		log.Warnf("⚠️ Failed to save %s snapshot: %v", m.kind, err)
	}
}

func (m *Manager) fallbackItems(ctx context.Context) []domain.CatalogItem {
	if m.snapshots != nil {
		items, err := m.snapshots.Load(ctx, m.kind)
		if err != nil {
			log.Warnf("⚠️ Snapshot unavailable: %v", err)
		} else if len(items) > 0 {
			log.Warnf("⚠️ Serving %d %s items from last snapshot", len(items), m.kind)
			return items
		}
	}
	log.Warnf("⚠️ Serving built-in %s items", m.kind)
	return StaticItems(m.kind)
}

// Items returns a copy of allItems
func (m *Manager) Items() []domain.CatalogItem {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.CatalogItem, len(m.allItems))
	copy(out, m.allItems)
	return out
}

func (m *Manager) Find(id string) (domain.CatalogItem, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, item := range m.allItems {
		if item.ID == id {
			return item, true
		}
	}
	return domain.CatalogItem{}, false
}

// Filter replaces the active criteria and returns to the first page
func (m *Manager) Filter(criteria domain.Criteria) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.criteria = criteria
	m.page = 1
}

func (m *Manager) Sort(key domain.SortKey) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sortKey = key
	m.page = 1
}

// Search sets the search term; blank terms clear it
func (m *Manager) Search(term string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.term = term
	m.page = 1
}

// SearchDebounced applies term after the quiet period and hands the
// resulting view to onResult. Earlier pending terms are dropped.
func (m *Manager) SearchDebounced(term string, onResult func(View)) {
	m.search.Trigger(func() {
		m.Search(term)
		if onResult != nil {
			onResult(m.Render())
		}
	})
}

// Visible is allItems after filter, search and sort, before pagination
func (m *Manager) Visible() []domain.CatalogItem {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.visibleLocked()
}

func (m *Manager) visibleLocked() []domain.CatalogItem {
	out := make([]domain.CatalogItem, 0, len(m.allItems))
	for _, item := range m.allItems {
		if m.criteria.Matches(item) && matchesTerm(item, m.term) {
			out = append(out, item)
		}
	}
	sortItems(out, m.sortKey)
	return out
}

// Paginate moves to page, clamped to the valid range, and renders it
func (m *Manager) Paginate(page int) View {
	m.mu.Lock()
	m.page = page
	m.mu.Unlock()
	return m.Render()
}

// Remove drops an item from the catalog, e.g. after a confirmed delete
func (m *Manager) Remove(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, item := range m.allItems {
		if item.ID == id {
			m.allItems = append(m.allItems[:i:i], m.allItems[i+1:]...)
			return true
		}
	}
	return false
}

// Tentative applies a provisional change to item id and marks it pending.
// commit keeps the change; rollback restores the prior item.
func (m *Manager) Tentative(id string, change func(*domain.CatalogItem)) (commit func(), rollback func()) {
	m.mu.Lock()
	defer m.mu.Unlock()

	idx := -1
	for i := range m.allItems {
		if m.allItems[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return func() {}, func() {}
	}

	prior := m.allItems[idx]
	prior.Gallery = append([]string(nil), prior.Gallery...)
	change(&m.allItems[idx])
	m.pending[id]++

	settle := func(restore bool) {
		m.mu.Lock()
		defer m.mu.Unlock()
		if m.pending[id] > 0 {
			m.pending[id]--
			if m.pending[id] == 0 {
				delete(m.pending, id)
			}
		}
		if !restore {
			return
		}
		for i := range m.allItems {
			if m.allItems[i].ID == id {
				m.allItems[i] = prior
				return
			}
		}
	}

	var once sync.Once
	commit = func() { once.Do(func() { settle(false) }) }
	rollback = func() { once.Do(func() { settle(true) }) }
	return commit, rollback
}

func dedupe(items []domain.CatalogItem) []domain.CatalogItem {
	out := make([]domain.CatalogItem, 0, len(items))
	seen := make(map[string]struct{}, len(items))
	for _, item := range items {
		if item.ID != "" {
			if _, dup := seen[item.ID]; dup {
				continue
			}
			seen[item.ID] = struct{}{}
		}
		out = append(out, item)
	}
	return out
}
