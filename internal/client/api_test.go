package client

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"marketplace/storefront/internal/config"
	"marketplace/storefront/internal/state"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAPI(t *testing.T, srv *httptest.Server, auth config.AuthConfig, store state.Store) *API {
	t.Helper()
	if auth.Mode == "" {
		auth.Mode = config.AuthModeBearer
	}
	cfg := config.APIConfig{
		Host:        srv.URL + "/",
		Prefix:      "/api/v1/",
		Timeout:     5,
		MeEndpoints: []string{"/user/me", "/me"},
	}
	api := New(cfg, auth, store)
	t.Cleanup(func() { _ = api.Close() })
	return api
}

func TestDo_BearerTokenAndCacheBusting(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/services", r.URL.Path)
		assert.Equal(t, "Bearer tok-123", r.Header.Get("Authorization"))
		assert.NotEmpty(t, r.URL.Query().Get("_t"))
		assert.NotEmpty(t, r.Header.Get("X-Request-ID"))
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	api := newTestAPI(t, srv, config.AuthConfig{Token: "tok-123"}, state.NewMemoryStore())
	_, err := api.Do(context.Background(), http.MethodGet, "services", nil)
	require.NoError(t, err)
}

func TestDo_BearerTokenFromStorage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer stored", r.Header.Get("Authorization"))
		assert.Empty(t, r.URL.Query().Get("_t"), "only GETs are cache-busted")
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	store := state.NewMemoryStore()
	require.NoError(t, store.Set(context.Background(), state.KeyAuthToken, "stored"))
	api := newTestAPI(t, srv, config.AuthConfig{}, store)

	_, err := api.Do(context.Background(), http.MethodDelete, "/services/1", nil)
	require.NoError(t, err)
}

func TestDo_ErrorMessageFromBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/with-message":
			w.WriteHeader(http.StatusUnprocessableEntity)
			w.Write([]byte(`{"message":"The name field is required.","errors":{"name":["The name field is required."]}}`))
		default:
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte(`<html>oops</html>`))
		}
	}))
	defer srv.Close()

	api := newTestAPI(t, srv, config.AuthConfig{}, state.NewMemoryStore())

	_, err := api.Do(context.Background(), http.MethodPost, "/with-message", NewForm())
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 422, apiErr.Status)
	assert.Equal(t, "The name field is required.", apiErr.Message)
	assert.Equal(t, []string{"The name field is required."}, apiErr.Errors)

	_, err = api.Do(context.Background(), http.MethodGet, "/broken", nil)
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "Error 500: Internal Server Error", apiErr.Message)
	assert.False(t, IsNotFound(err))
}

func TestDo_MultipartBody(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.True(t, strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data"))
		assert.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, []string{"Corte de cabello"}, r.MultipartForm.Value["nombre_servicio"])
		assert.Equal(t, []string{"PUT"}, r.MultipartForm.Value["_method"])

		gallery := r.MultipartForm.File["galeria[]"]
		if assert.Len(t, gallery, 2) {
			assert.Equal(t, "a.jpg", gallery[0].Filename)
			f, err := gallery[1].Open()
			if assert.NoError(t, err) {
				data, _ := io.ReadAll(f)
				f.Close()
				assert.Equal(t, "bb", string(data))
			}
		}
		w.Write([]byte(`{"success":true,"data":{"id":9}}`))
	}))
	defer srv.Close()

	api := newTestAPI(t, srv, config.AuthConfig{}, state.NewMemoryStore())
	form := NewForm()
	form.Add("nombre_servicio", "Corte de cabello")
	form.Add("_method", "PUT")
	form.AddFile("galeria[]", "a.jpg", []byte("a"))
	form.AddFile("galeria[]", "b.jpg", []byte("bb"))

	// the same form is sent again along the update fallback chain
	for _, method := range []string{http.MethodPost, http.MethodPatch} {
		raw, err := api.Do(context.Background(), method, "/servicios/9", form)
		require.NoError(t, err)
		rec, err := NormalizeOne(raw)
		require.NoError(t, err)
		assert.EqualValues(t, 9, rec["id"])
	}
	assert.Equal(t, int32(2), calls.Load())
}

func TestForm_CloneIsIndependent(t *testing.T) {
	form := NewForm()
	form.Add("nombre", "Original")
	form.AddFile("imagen", "x.png", []byte("x"))

	clone := form.Clone()
	clone.Set("nombre", "Changed")
	clone.Add("precio", "10")

	assert.Equal(t, "Original", form.Get("nombre"))
	assert.False(t, form.Has("precio"))
	assert.Equal(t, []Field{{Name: "nombre", Value: "Changed"}, {Name: "precio", Value: "10"}}, clone.Fields())
	assert.True(t, clone.HasFiles())
}

func TestWithFallback_StickyAfterFirst404(t *testing.T) {
	var primaryCalls, fallbackCalls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasPrefix(r.URL.Path, "/api/v1/servicios"):
			primaryCalls.Add(1)
			w.WriteHeader(http.StatusNotFound)
		case strings.HasPrefix(r.URL.Path, "/api/v1/services"):
			fallbackCalls.Add(1)
			w.Write([]byte(`{"data":[{"id":1}]}`))
		}
	}))
	defer srv.Close()

	store := state.NewMemoryStore()
	api := newTestAPI(t, srv, config.AuthConfig{}, store)
	res := Resource{Primary: "/servicios", Fallback: "/services"}

	for i := 0; i < 5; i++ {
		items, err := api.List(context.Background(), res)
		require.NoError(t, err)
		assert.Len(t, items, 1)
	}

	assert.EqualValues(t, 1, primaryCalls.Load())
	assert.EqualValues(t, 5, fallbackCalls.Load())

	raw, found, _ := store.Get(context.Background(), state.KeyPrimaryEndpointBroken)
	require.True(t, found)
	assert.JSONEq(t, `["/servicios"]`, raw)

	// a fresh client in the same session reads the persisted flag
	again := newTestAPI(t, srv, config.AuthConfig{}, store)
	_, err := again.List(context.Background(), res)
	require.NoError(t, err)
	assert.EqualValues(t, 1, primaryCalls.Load())
}

func TestWithFallback_NonNotFoundErrorIsFinal(t *testing.T) {
	var fallbackCalls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/api/v1/services") {
			fallbackCalls.Add(1)
		}
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"message":"forbidden"}`))
	}))
	defer srv.Close()

	api := newTestAPI(t, srv, config.AuthConfig{}, state.NewMemoryStore())
	_, err := api.List(context.Background(), Resource{Primary: "/servicios", Fallback: "/services"})
	require.Error(t, err)
	assert.Equal(t, "forbidden", err.Error())
	assert.EqualValues(t, 0, fallbackCalls.Load())
}

func TestWithFallback_IdenticalPathsCalledOnce(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	api := newTestAPI(t, srv, config.AuthConfig{}, state.NewMemoryStore())
	_, err := api.List(context.Background(), Resource{Primary: "/products", Fallback: "/products"})
	assert.True(t, IsNotFound(err))
	assert.EqualValues(t, 1, calls.Load())
}

func TestCSRFMode_PrimesCookieAndSendsMetaToken(t *testing.T) {
	var primed atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/":
			w.Header().Set("Content-Type", "text/html")
			w.Write([]byte(`<html><head><meta name="csrf-token" content="csrf-abc"></head></html>`))
		case "/sanctum/csrf-cookie":
			primed.Add(1)
			http.SetCookie(w, &http.Cookie{Name: "XSRF-TOKEN", Value: "x", Path: "/"})
			w.WriteHeader(http.StatusNoContent)
		default:
			assert.Equal(t, "csrf-abc", r.Header.Get("X-CSRF-TOKEN"))
			assert.Empty(t, r.Header.Get("Authorization"))
			w.Write([]byte(`{"success":true}`))
		}
	}))
	defer srv.Close()

	auth := config.AuthConfig{
		Mode:           config.AuthModeCSRF,
		CSRFPage:       "/",
		CookieEndpoint: "/sanctum/csrf-cookie",
		Credentials:    "include",
	}
	api := newTestAPI(t, srv, auth, state.NewMemoryStore())

	_, err := api.Do(context.Background(), http.MethodGet, "/services", nil)
	require.NoError(t, err)
	assert.EqualValues(t, 0, primed.Load(), "GET does not prime")

	for i := 0; i < 2; i++ {
		_, err = api.Do(context.Background(), http.MethodPost, "/services", NewForm())
		require.NoError(t, err)
	}
	assert.EqualValues(t, 1, primed.Load())
}

func TestParseCSRFToken_Missing(t *testing.T) {
	_, err := ParseCSRFToken(`<html><head></head></html>`)
	assert.Error(t, err)
}

func TestMe_ResolvesAndCaches(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if r.URL.Path == "/api/v1/user/me" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"data": map[string]any{"user": map[string]any{"id": 42}}})
	}))
	defer srv.Close()

	store := state.NewMemoryStore()
	api := newTestAPI(t, srv, config.AuthConfig{}, store)

	id, err := api.Me(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "42", id)

	id, err = api.Me(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "42", id)
	assert.EqualValues(t, 2, calls.Load())

	stored, found, _ := store.Get(context.Background(), state.KeyActorID)
	assert.True(t, found)
	assert.Equal(t, "42", stored)
}
