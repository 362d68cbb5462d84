package container

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"marketplace/storefront/internal/config"
	"marketplace/storefront/internal/domain"
	"marketplace/storefront/internal/mutation"
	"marketplace/storefront/internal/state"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(host string) *config.Config {
	return &config.Config{
		API: config.APIConfig{
			Host:             host,
			Prefix:           "/api/v1",
			Timeout:          5,
			ProductsPrimary:  "/productos",
			ProductsFallback: "/products",
			ServicesPrimary:  "/servicios",
			ServicesFallback: "/services",
			MeEndpoints:      []string{"/me"},
		},
		Auth:    config.AuthConfig{Mode: config.AuthModeBearer},
		Catalog: config.CatalogConfig{PageSize: 10, MaxPrice: 1000, PhoneDigits: 10, MinDescription: 5},
		Storage: config.StorageConfig{Backend: "memory"},
		Log:     config.LogConfig{Level: "warn"},
	}
}

var declineAll = mutation.ConfirmFunc(func(context.Context, string) bool { return false })

func TestNew_WiresBothKinds(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/productos":
			w.Write([]byte(`{"data":[{"id":1,"nombre":"Café","precio":"28000"},{"id":1,"nombre":"Dup"}]}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	ctx := context.Background()
	c, err := New(ctx, testConfig(srv.URL), declineAll)
	require.NoError(t, err)
	defer c.Close()
	require.NoError(t, c.LoadState(ctx))

	products, err := c.Storefront(domain.ItemKindProduct)
	require.NoError(t, err)
	require.NoError(t, products.Catalog.Load(ctx))
	assert.Len(t, products.Catalog.Items(), 1)

	item, err := products.Find(ctx, c.API, "1")
	require.NoError(t, err)
	assert.Equal(t, "Café", item.Name)

	_, err = c.Storefront("gadget")
	assert.Error(t, err)

	result := products.Mutations.Delete(ctx, "1")
	assert.Equal(t, mutation.MsgCancelled, result.Message)
}

func TestNew_RedisBackend(t *testing.T) {
	mr := miniredis.RunT(t)
	port, err := strconv.Atoi(mr.Port())
	require.NoError(t, err)

	cfg := testConfig("http://127.0.0.1:1")
	cfg.Storage.Backend = "redis"
	cfg.Redis = config.RedisConfig{Host: mr.Host(), Port: port, KeyPrefix: "test:"}

	ctx := context.Background()
	c, err := New(ctx, cfg, declineAll)
	require.NoError(t, err)
	defer c.Close()

	require.NoError(t, c.Cart.Add(ctx, domain.CatalogItem{ID: "P1", Price: 10}))
	raw, err := mr.Get("test:" + state.KeyCart)
	require.NoError(t, err)
	assert.Contains(t, raw, `"P1"`)
}

func TestNew_RedisUnavailable(t *testing.T) {
	cfg := testConfig("http://127.0.0.1:1")
	cfg.Storage.Backend = "redis"
	cfg.Redis = config.RedisConfig{Host: "127.0.0.1", Port: 1}

	_, err := New(context.Background(), cfg, declineAll)
	assert.Error(t, err)
}
