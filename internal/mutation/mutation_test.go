package mutation

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"marketplace/storefront/internal/catalog"
	"marketplace/storefront/internal/client"
	"marketplace/storefront/internal/config"
	"marketplace/storefront/internal/domain"
	"marketplace/storefront/internal/normalize"
	"marketplace/storefront/internal/ownership"
	"marketplace/storefront/internal/state"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var limits = Limits{MaxPrice: 1_000_000, PhoneDigits: 10, MinDescription: 20}

func validForm() *client.Form {
	form := client.NewForm()
	form.Add("nombre_servicio", "Plomería a domicilio")
	form.Add("descripcion", "Reparaciones de plomería en toda la ciudad")
	form.Add("categoria", "hogar")
	form.Add("precio_base", "150000")
	form.Add("telefono", "300 123 4567")
	return form
}

type backend struct {
	mu      sync.Mutex
	hits    int32
	persist bool
	allow   map[string]bool
	record  map[string]any
	methods []string
	created map[string][]string
	deleted []string
}

func newBackend(t *testing.T, b *backend) *httptest.Server {
	t.Helper()
	if b.record == nil {
		b.record = map[string]any{
			"id":          5,
			"name":        "Old name",
			"descripcion": "Old description that is long enough",
			"categoria":   "hogar",
			"precio":      100000,
			"telefono":    "3001234567",
		}
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&b.hits, 1)
		b.mu.Lock()
		defer b.mu.Unlock()

		switch {
		case r.URL.Path == "/api/v1/me":
			w.Write([]byte(`{"user":{"id":7}}`))
		case r.URL.Path == "/api/v1/services" && r.Method == http.MethodPost:
			assert.NoError(t, r.ParseMultipartForm(1<<20))
			b.created = r.MultipartForm.Value
			w.WriteHeader(http.StatusCreated)
			w.Write([]byte(`{"data":{"id":77,"nombre_servicio":"Plomería a domicilio"}}`))
		case r.URL.Path == "/api/v1/services/5" && r.Method == http.MethodGet:
			json.NewEncoder(w).Encode(map[string]any{"data": b.record})
		case strings.HasPrefix(r.URL.Path, "/api/v1/services/") && r.Method == http.MethodDelete:
			b.deleted = append(b.deleted, strings.TrimPrefix(r.URL.Path, "/api/v1/services/"))
			w.Write([]byte(`{"success":true}`))
		case r.URL.Path == "/api/v1/services/5":
			b.methods = append(b.methods, r.Method)
			if b.allow != nil && !b.allow[r.Method] {
				w.WriteHeader(http.StatusMethodNotAllowed)
				return
			}
			assert.NoError(t, r.ParseMultipartForm(1<<20))
			if b.persist {
				for name, values := range r.MultipartForm.Value {
					if name != "_method" {
						b.record[name] = values[0]
					}
				}
			}
			w.Write([]byte(`{"success":true,"message":"Updated"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

type fixture struct {
	service *Service
	view    *catalog.Manager
	cache   *ownership.Cache
	store   *state.MemoryStore
	reloads *int32
}

func newFixture(t *testing.T, srv *httptest.Server, confirm bool, overrides ...func(*Options)) fixture {
	t.Helper()
	store := state.NewMemoryStore()
	api := client.New(config.APIConfig{
		Host:        srv.URL,
		Prefix:      "/api/v1",
		Timeout:     5,
		MeEndpoints: []string{"/me"},
	}, config.AuthConfig{Mode: config.AuthModeBearer}, store)
	t.Cleanup(func() { _ = api.Close() })

	normalizer := normalize.NewNormalizer(srv.URL, domain.ItemKindService)
	view := catalog.NewManager(catalog.Options{Kind: domain.ItemKindService, Normalizer: normalizer})
	view.Replace([]domain.CatalogItem{{ID: "5", Name: "Old name", Price: 100000}})

	cache := ownership.NewCache(store)
	var reloads int32
	opts := Options{
		API:        api,
		Resource:   client.Resource{Primary: "/services", Fallback: "/services"},
		Kind:       domain.ItemKindService,
		Normalizer: normalizer,
		Ownership:  cache,
		Store:      store,
		Limits:     limits,
		Views:      []View{view},
		Confirmer: ConfirmFunc(func(context.Context, string) bool {
			return confirm
		}),
		Reload: []func(context.Context){
			func(context.Context) { atomic.AddInt32(&reloads, 1) },
		},
		ReloadDebounce: 20 * time.Millisecond,
	}
	for _, override := range overrides {
		override(&opts)
	}
	svc := NewService(opts)
	t.Cleanup(svc.Close)

	return fixture{service: svc, view: view, cache: cache, store: store, reloads: &reloads}
}

func TestValidate(t *testing.T) {
	assert.Empty(t, Validate(domain.ItemKindService, validForm(), limits))

	cases := []struct {
		name  string
		field string
		value string
		want  string
	}{
		{"missing name", "nombre_servicio", "", "Name is required"},
		{"missing category", "categoria", "  ", "Category is required"},
		{"missing description", "descripcion", "", "Description is required"},
		{"short description", "descripcion", "Too short", "Description must be at least 20 characters"},
		{"non numeric price", "precio_base", "abc", "Price must be a number"},
		{"NaN price", "precio_base", "NaN", "Price must be a number"},
		{"lowercase nan price", "precio_base", "nan", "Price must be a number"},
		{"infinite price", "precio_base", "Inf", "Price must be a number"},
		{"negative infinite price", "precio_base", "-Inf", "Price must be a number"},
		{"negative price", "precio_base", "-1", "Price cannot be negative"},
		{"price over ceiling", "precio_base", "1000001", "Price cannot exceed 1000000"},
		{"phone too short", "telefono", "12345", "Phone must have exactly 10 digits"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			form := validForm()
			form.Set(tc.field, tc.value)
			assert.Equal(t, []string{tc.want}, Validate(domain.ItemKindService, form, limits))
		})
	}
}

func TestValidate_NonFinitePriceWithoutCeiling(t *testing.T) {
	unbounded := Limits{PhoneDigits: 10, MinDescription: 20}
	for _, price := range []string{"Inf", "+Inf", "infinity", "NaN"} {
		form := validForm()
		form.Set("precio_base", price)
		assert.Equal(t, []string{"Price must be a number"}, Validate(domain.ItemKindService, form, unbounded), price)
	}
}

func TestValidate_ProductsSkipServiceRules(t *testing.T) {
	form := validForm()
	form.Del("telefono")
	form.Set("descripcion", "Short")
	assert.Empty(t, Validate(domain.ItemKindProduct, form, limits))
}

func TestFieldMap_Augment(t *testing.T) {
	form := client.NewForm()
	form.Add("nombre_servicio", "Clases de guitarra")
	form.Add("precio_base", "50000")
	form.Add("name", "Keep me")

	out := DefaultFieldMap.Augment(form)
	assert.Equal(t, "Clases de guitarra", out.Get("nombre"))
	assert.Equal(t, "Keep me", out.Get("name"))
	assert.Equal(t, "50000", out.Get("price"))
	assert.Equal(t, "50000", out.Get("precio"))
	assert.False(t, form.Has("precio"), "input form is not modified")
}

func TestLoadFieldMap_Overrides(t *testing.T) {
	ctx := context.Background()
	store := state.NewMemoryStore()
	require.NoError(t, store.Set(ctx, state.KeyFieldMapOverrides, `{"precio_base":["cost"]}`))

	fm := LoadFieldMap(ctx, store)
	assert.Equal(t, []string{"cost"}, fm["precio_base"])
	assert.Equal(t, DefaultFieldMap["nombre_servicio"], fm["nombre_servicio"])

	require.NoError(t, store.Set(ctx, state.KeyFieldMapOverrides, `{not json`))
	assert.Equal(t, DefaultFieldMap["precio_base"], LoadFieldMap(ctx, store)["precio_base"])
}

func TestCreate_InvalidFormMakesNoRequest(t *testing.T) {
	b := &backend{}
	f := newFixture(t, newBackend(t, b), true)

	form := validForm()
	form.Set("precio_base", "free")
	result := f.service.Create(context.Background(), nil, form)

	assert.False(t, result.Success)
	assert.Equal(t, []string{"Price must be a number"}, result.Errors)
	assert.Equal(t, int32(0), atomic.LoadInt32(&b.hits))
}

func TestCreate_SendsOwnerAndRecordsOwnership(t *testing.T) {
	b := &backend{}
	f := newFixture(t, newBackend(t, b), true)
	session := NewSession()
	ctx := context.Background()

	result := f.service.Create(ctx, session, validForm())
	require.True(t, result.Success, result.Message)
	require.NotNil(t, result.Data)
	assert.Equal(t, "77", result.Data.ID)
	assert.True(t, session.Closed())

	assert.Equal(t, []string{"7"}, b.created["entrepreneur_id"])
	assert.Equal(t, []string{"7"}, b.created["emprendedor_id"])
	assert.Equal(t, []string{"77"}, f.cache.IDs(ctx, "7"))
}

func TestUpdate_VerifiedChangesCloseSession(t *testing.T) {
	b := &backend{persist: true}
	f := newFixture(t, newBackend(t, b), true)
	session := NewSession()

	result := f.service.Update(context.Background(), session, "5", validForm())
	require.True(t, result.Success, result.Message)
	assert.True(t, session.Closed())

	item, ok := f.view.Find("5")
	require.True(t, ok)
	assert.Equal(t, "Plomería a domicilio", item.Name)
	assert.Equal(t, 150000.0, item.Price)
	assert.Equal(t, []string{http.MethodPost}, b.methods)
	assert.False(t, f.view.Paginate(1).Cards[0].Pending)
}

func TestUpdate_UnpersistedChangesKeepSessionOpen(t *testing.T) {
	b := &backend{persist: false}
	f := newFixture(t, newBackend(t, b), true)
	session := NewSession()

	result := f.service.Update(context.Background(), session, "5", validForm())
	assert.False(t, result.Success)
	assert.Equal(t, MsgNotApplied, result.Message)
	assert.Contains(t, result.Errors, "name")
	assert.Contains(t, result.Errors, "price")
	assert.False(t, session.Closed())
	assert.False(t, session.Submitting())

	item, ok := f.view.Find("5")
	require.True(t, ok)
	assert.Equal(t, "Old name", item.Name, "provisional patch rolled back")
	assert.False(t, f.view.Paginate(1).Cards[0].Pending)
}

func TestUpdate_WalksMethodChain(t *testing.T) {
	b := &backend{persist: true, allow: map[string]bool{http.MethodPatch: true}}
	f := newFixture(t, newBackend(t, b), true)

	result := f.service.Update(context.Background(), nil, "5", validForm())
	require.True(t, result.Success, result.Message)
	assert.Equal(t, []string{http.MethodPost, http.MethodPut, http.MethodPatch}, b.methods)
}

func TestUpdate_RejectsDoubleSubmit(t *testing.T) {
	b := &backend{persist: true}
	f := newFixture(t, newBackend(t, b), true)
	session := NewSession()
	require.True(t, session.begin())

	result := f.service.Update(context.Background(), session, "5", validForm())
	assert.False(t, result.Success)
	assert.Equal(t, MsgInProgress, result.Message)
	assert.Equal(t, int32(0), atomic.LoadInt32(&b.hits))
}

func TestDelete_CancelledMakesNoRequest(t *testing.T) {
	b := &backend{}
	f := newFixture(t, newBackend(t, b), false)

	result := f.service.Delete(context.Background(), "5")
	assert.False(t, result.Success)
	assert.Equal(t, MsgCancelled, result.Message)
	assert.Equal(t, int32(0), atomic.LoadInt32(&b.hits))
	_, ok := f.view.Find("5")
	assert.True(t, ok)
}

func TestDelete_RemovesEverywhereAndReloads(t *testing.T) {
	b := &backend{}
	f := newFixture(t, newBackend(t, b), true)
	ctx := context.Background()
	require.NoError(t, f.cache.Add(ctx, "7", "5"))
	require.NoError(t, f.cache.Add(ctx, "7", "6"))

	result := f.service.Delete(ctx, "5")
	require.True(t, result.Success, result.Message)
	assert.Equal(t, []string{"5"}, b.deleted)

	_, ok := f.view.Find("5")
	assert.False(t, ok)
	assert.Equal(t, []string{"6"}, f.cache.IDs(ctx, "7"))

	assert.Eventually(t, func() bool {
		return atomic.LoadInt32(f.reloads) == 1
	}, time.Second, 5*time.Millisecond)
}

func TestDelete_QuickSuccessionReloadsOnce(t *testing.T) {
	b := &backend{}
	f := newFixture(t, newBackend(t, b), true, func(o *Options) {
		o.ReloadDebounce = 300 * time.Millisecond
	})
	ctx := context.Background()
	f.view.Replace([]domain.CatalogItem{{ID: "5"}, {ID: "6"}})

	require.True(t, f.service.Delete(ctx, "5").Success)
	require.True(t, f.service.Delete(ctx, "6").Success)
	assert.Equal(t, []string{"5", "6"}, b.deleted)
	assert.Empty(t, f.view.Items())

	assert.Eventually(t, func() bool {
		return atomic.LoadInt32(f.reloads) == 1
	}, 2*time.Second, 10*time.Millisecond)
	time.Sleep(400 * time.Millisecond)
	assert.Equal(t, int32(1), atomic.LoadInt32(f.reloads))
}
