package owner

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"marketplace/storefront/internal/client"
	"marketplace/storefront/internal/domain"
	"marketplace/storefront/internal/normalize"
	"marketplace/storefront/internal/ownership"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// API is the subset of the REST client the owner view needs
type API interface {
	Me(ctx context.Context) (string, error)
	List(ctx context.Context, res client.Resource) ([]map[string]any, error)
	Get(ctx context.Context, res client.Resource, id string) (map[string]any, error)
	Do(ctx context.Context, method, endpoint string, form *client.Form) (json.RawMessage, error)
}

// Publisher receives the owner's items, typically a catalog.Manager
type Publisher interface {
	Replace(items []domain.CatalogItem)
}

type Options struct {
	API             API
	Resource        client.Resource
	MyItemsEndpoint string // optional dedicated endpoint
	Normalizer      *normalize.Normalizer
	Ownership       *ownership.Cache
	View            Publisher // optional
	MinInterval     time.Duration
	FetchWorkers    int
}

// Manager loads the items that belong to the current actor
type Manager struct {
	api         API
	resource    client.Resource
	myItems     string
	normalizer  *normalize.Normalizer
	ownership   *ownership.Cache
	view        Publisher
	minInterval time.Duration
	workers     int
	now         func() time.Time

	mu       sync.Mutex
	loading  bool
	lastDone time.Time
}

func NewManager(opts Options) *Manager {
	if opts.MinInterval <= 0 {
		opts.MinInterval = 600 * time.Millisecond
	}
	if opts.FetchWorkers <= 0 {
		opts.FetchWorkers = 4
	}
	return &Manager{
		api:         opts.API,
		resource:    opts.Resource,
		myItems:     opts.MyItemsEndpoint,
		normalizer:  opts.Normalizer,
		ownership:   opts.Ownership,
		view:        opts.View,
		minInterval: opts.MinInterval,
		workers:     opts.FetchWorkers,
		now:         time.Now,
	}
}

// Load returns the actor's items. A call made while another is running, or
// within the minimum interval after the last one finished, is dropped:
// accepted is false and there is neither a result nor an error.
func (m *Manager) Load(ctx context.Context) (items []domain.CatalogItem, accepted bool, err error) {
	if !m.begin() {
		log.Debugf("Owner load dropped: already loading or too soon")
		return nil, false, nil
	}
	defer m.end()

	actor, err := m.api.Me(ctx)
	if err != nil {
		return nil, true, fmt.Errorf("failed to resolve current owner: %w", err)
	}

	items, listErr := m.fromListing(ctx, actor)
	if len(items) == 0 {
		if cached := m.ownership.IDs(ctx, actor); len(cached) > 0 {
			log.Infof("🔄 Listing has no items for owner %s, using %d cached ids", actor, len(cached))
			items = m.fromCache(ctx, actor, cached)
			listErr = nil
		}
	}

	if m.view != nil {
		m.view.Replace(items)
	}
	if items == nil {
		items = []domain.CatalogItem{}
	}
	return items, true, listErr
}

func (m *Manager) begin() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loading {
		return false
	}
	if !m.lastDone.IsZero() && m.now().Sub(m.lastDone) < m.minInterval {
		return false
	}
	m.loading = true
	return true
}

func (m *Manager) end() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loading = false
	m.lastDone = m.now()
}

// fromListing filters the general listing by resolved owner id
func (m *Manager) fromListing(ctx context.Context, actor string) ([]domain.CatalogItem, error) {
	raws, err := m.api.List(ctx, m.resource)
	if err != nil {
		log.Warnf("⚠️ Failed to load listing for owner %s: %v", actor, err)
		return nil, err
	}

	mine := make([]domain.CatalogItem, 0)
	for _, item := range m.normalizer.Items(raws) {
		if item.OwnerID == actor {
			mine = append(mine, item)
		}
	}
	return mine, nil
}

// fromCache tries the dedicated endpoint first, then each cached id
func (m *Manager) fromCache(ctx context.Context, actor string, ids []string) []domain.CatalogItem {
	if m.myItems != "" {
		raw, err := m.api.Do(ctx, http.MethodGet, m.myItems, nil)
		if err == nil {
			if raws, nerr := client.Normalize(raw); nerr == nil && len(raws) > 0 {
				return m.claim(actor, m.normalizer.Items(raws))
			}
		} else {
			log.Debugf("Dedicated owner endpoint %s unavailable: %v", m.myItems, err)
		}
	}
	return m.fetchEach(ctx, actor, ids)
}

// fetchEach loads every cached id individually, keeping cache order. Ids
// that 404 twice are pruned from the ownership cache.
func (m *Manager) fetchEach(ctx context.Context, actor string, ids []string) []domain.CatalogItem {
	found := make([]*domain.CatalogItem, len(ids))
	gone := make([]bool, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.workers)
	for i, id := range ids {
		g.Go(func() error {
			raw, err := m.getTwice(gctx, id)
			switch {
			case err == nil:
				item := m.normalizer.Item(raw)
				found[i] = &item
			case client.IsNotFound(err):
				gone[i] = true
			default:
				log.Warnf("⚠️ Failed to fetch cached item %s: %v", id, err)
			}
			return nil
		})
	}
	_ = g.Wait()

	items := make([]domain.CatalogItem, 0, len(ids))
	var stale []string
	for i, id := range ids {
		if gone[i] {
			stale = append(stale, id)
			continue
		}
		if found[i] != nil {
			items = append(items, *found[i])
		}
	}

	if len(stale) > 0 {
		log.Warnf("🗑️ Pruning %d stale ids from ownership cache of %s", len(stale), actor)
		if err := m.ownership.Remove(ctx, actor, stale...); err != nil {
			log.Errorf("❌ Failed to prune ownership cache: %v", err)
		}
	}

	return m.claim(actor, items)
}

func (m *Manager) getTwice(ctx context.Context, id string) (map[string]any, error) {
	raw, err := m.api.Get(ctx, m.resource, id)
	if err == nil || !client.IsNotFound(err) {
		return raw, err
	}
	return m.api.Get(ctx, m.resource, id)
}

// claim fills in the owner on items the backend returned without one
func (m *Manager) claim(actor string, items []domain.CatalogItem) []domain.CatalogItem {
	for i := range items {
		if items[i].OwnerID == "" {
			items[i].OwnerID = actor
		}
	}
	return items
}
