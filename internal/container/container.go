package container

import (
	"context"
	"fmt"
	"time"

	"marketplace/storefront/internal/cart"
	"marketplace/storefront/internal/catalog"
	"marketplace/storefront/internal/client"
	"marketplace/storefront/internal/config"
	"marketplace/storefront/internal/domain"
	"marketplace/storefront/internal/mutation"
	"marketplace/storefront/internal/normalize"
	"marketplace/storefront/internal/owner"
	"marketplace/storefront/internal/ownership"
	"marketplace/storefront/internal/repository"
	"marketplace/storefront/internal/state"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"
)

// Storefront is everything wired for one item kind
type Storefront struct {
	Kind       domain.ItemKind
	Resource   client.Resource
	Normalizer *normalize.Normalizer
	Catalog    *catalog.Manager
	Mine       *catalog.Manager
	Owner      *owner.Manager
	Mutations  *mutation.Service
}

// Container holds all initialized components
type Container struct {
	Config    *config.Config
	Store     state.Store
	API       *client.API
	Cart      *cart.Cart
	Wishlist  *cart.Wishlist
	Snapshots repository.SnapshotRepository

	Products *Storefront
	Services *Storefront

	db    *pgxpool.Pool
	redis *redis.Client
}

// New creates a new container with all dependencies initialized
func New(ctx context.Context, cfg *config.Config, confirmer mutation.Confirmer) (*Container, error) {
	setupLogging(cfg.Log)

	container := &Container{
		Config: cfg,
	}

	store, err := container.openStore(ctx)
	if err != nil {
		return nil, err
	}
	container.Store = store

	if cfg.Database.Enabled {
		db, err := pgxpool.New(ctx,
			fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
				cfg.Database.Host,
				cfg.Database.Port,
				cfg.Database.User,
				cfg.Database.Password,
				cfg.Database.Name,
			))
		if err != nil {
			container.Close()
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		container.db = db

		snapshots := repository.NewSnapshotRepository(db)
		if err := snapshots.EnsureSchema(ctx); err != nil {
			container.Close()
			return nil, err
		}
		container.Snapshots = snapshots
		log.Info("✅ Catalog snapshots enabled")
	}

	container.API = client.New(cfg.API, cfg.Auth, store)
	container.Cart = cart.NewCart(store)
	container.Wishlist = cart.NewWishlist(store)

	services := ownership.NewCache(store)
	container.Services = container.storefront(domain.ItemKindService,
		client.Resource{Primary: cfg.API.ServicesPrimary, Fallback: cfg.API.ServicesFallback},
		cfg.API.MyServices, services, confirmer)
	container.Products = container.storefront(domain.ItemKindProduct,
		client.Resource{Primary: cfg.API.ProductsPrimary, Fallback: cfg.API.ProductsFallback},
		"", services.Scoped(string(domain.ItemKindProduct)), confirmer)

	return container, nil
}

func (c *Container) openStore(ctx context.Context) (state.Store, error) {
	cfg := c.Config
	switch cfg.Storage.Backend {
	case "memory":
		return state.NewMemoryStore(), nil
	case "redis":
		rdb := redis.NewClient(&redis.Options{
			Addr:     fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.Database,
		})

		// Test connection
		if _, err := rdb.Ping(ctx).Result(); err != nil {
			rdb.Close()
			return nil, fmt.Errorf("failed to connect to Redis: %w", err)
		}
		log.Info("✅ Connected to Redis successfully")

		c.redis = rdb
		return state.NewRedisStore(rdb, cfg.Redis.KeyPrefix), nil
	default:
		return state.NewFileStore(afero.NewOsFs(), cfg.Storage.Path)
	}
}

func (c *Container) storefront(kind domain.ItemKind, res client.Resource, myItems string, cache *ownership.Cache, confirmer mutation.Confirmer) *Storefront {
	cfg := c.Config.Catalog
	normalizer := normalize.NewNormalizer(c.Config.API.Host, kind)

	var snapshots catalog.SnapshotStore
	if c.Snapshots != nil {
		snapshots = c.Snapshots
	}

	newCatalog := func(snapshots catalog.SnapshotStore) *catalog.Manager {
		return catalog.NewManager(catalog.Options{
			Lister:         c.API,
			Resource:       res,
			Normalizer:     normalizer,
			Kind:           kind,
			Cart:           c.Cart,
			Wishlist:       c.Wishlist,
			Snapshots:      snapshots,
			PageSize:       cfg.PageSize,
			SearchDebounce: millis(cfg.SearchDebounceMs),
		})
	}

	sf := &Storefront{
		Kind:       kind,
		Resource:   res,
		Normalizer: normalizer,
		Catalog:    newCatalog(snapshots),
		Mine:       newCatalog(nil),
	}

	sf.Owner = owner.NewManager(owner.Options{
		API:             c.API,
		Resource:        res,
		MyItemsEndpoint: myItems,
		Normalizer:      normalizer,
		Ownership:       cache,
		View:            sf.Mine,
		MinInterval:     millis(cfg.OwnerMinIntervalMs),
	})

	sf.Mutations = mutation.NewService(mutation.Options{
		API:        c.API,
		Resource:   res,
		Kind:       kind,
		Normalizer: normalizer,
		Ownership:  cache,
		Store:      c.Store,
		Limits:     mutation.LimitsFrom(cfg),
		Views:      []mutation.View{sf.Catalog, sf.Mine},
		Confirmer:  confirmer,
		Reload: []func(context.Context){
			func(ctx context.Context) {
				if err := sf.Catalog.Load(ctx); err != nil {
					log.Warnf("⚠️ Background reload of %s catalog failed: %v", kind, err)
				}
			},
			func(ctx context.Context) {
				if _, _, err := sf.Owner.Load(ctx); err != nil {
					log.Warnf("⚠️ Background reload of own %s items failed: %v", kind, err)
				}
			},
		},
		ReloadDebounce: millis(cfg.ReloadDebounceMs),
	})

	return sf
}

// Find looks an item up in the loaded catalog, then on the backend
func (sf *Storefront) Find(ctx context.Context, api *client.API, id string) (domain.CatalogItem, error) {
	if item, ok := sf.Catalog.Find(id); ok {
		return item, nil
	}
	raw, err := api.Get(ctx, sf.Resource, id)
	if err != nil {
		return domain.CatalogItem{}, fmt.Errorf("failed to fetch %s %s: %w", sf.Kind, id, err)
	}
	return sf.Normalizer.Item(raw), nil
}

// Storefront returns the components for kind
func (c *Container) Storefront(kind domain.ItemKind) (*Storefront, error) {
	switch kind {
	case domain.ItemKindProduct:
		return c.Products, nil
	case domain.ItemKindService:
		return c.Services, nil
	default:
		return nil, fmt.Errorf("unknown item kind %q", kind)
	}
}

// LoadState restores the cart and wishlist from the store
func (c *Container) LoadState(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return c.Cart.Load(ctx)
	})
	g.Go(func() error {
		return c.Wishlist.Load(ctx)
	})
	return g.Wait()
}

// Close performs cleanup when shutting down
func (c *Container) Close() error {
	log.Debug("Shutting down container...")

	for _, sf := range []*Storefront{c.Products, c.Services} {
		if sf != nil {
			sf.Mutations.Close()
		}
	}
	if c.API != nil {
		if err := c.API.Close(); err != nil {
			log.Warnf("⚠️ Failed to close API client: %v", err)
		}
	}
	if c.db != nil {
		c.db.Close()
	}
	if c.redis != nil {
		c.redis.Close()
	}

	log.Debug("Container shut down successfully")
	return nil
}

func setupLogging(cfg config.LogConfig) {
	level, err := log.ParseLevel(cfg.Level)
	if err != nil {
		log.Warnf("⚠️ Unknown log level %q, using info", cfg.Level)
		level = log.InfoLevel
	}
	log.SetLevel(level)
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
}

func millis(ms int) time.Duration {
	return time.Duration(ms) * time.Millisecond
}
