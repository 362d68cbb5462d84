package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"marketplace/storefront/internal/config"
	"marketplace/storefront/internal/state"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"go.uber.org/ratelimit"
	"resty.dev/v3"
)

// API is the resilient REST client shared by every storefront component
type API struct {
	rl         ratelimit.Limiter
	config     config.APIConfig
	auth       config.AuthConfig
	baseURL    string
	httpClient *resty.Client
	store      state.Store
	timeout    time.Duration
	now        func() time.Time

	mu            sync.Mutex
	token         string
	csrfToken     string
	cookiePrimed  bool
	brokenLoaded  bool
	brokenPrimary map[string]bool
	actorID       string
}

func New(cfg config.APIConfig, auth config.AuthConfig, store state.Store) *API {
	timeout := time.Duration(cfg.Timeout) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	client := resty.New().
		SetTimeout(timeout).
		SetRetryCount(cfg.MaxRetries).
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", "storefront-client/1.0")

	rl := ratelimit.NewUnlimited()
	if cfg.MaxRequestsPerSecond > 0 {
		rl = ratelimit.New(cfg.MaxRequestsPerSecond)
	}

	return &API{
		rl:            rl,
		config:        cfg,
		auth:          auth,
		baseURL:       cfg.BaseURL(),
		httpClient:    client,
		store:         store,
		timeout:       timeout,
		now:           time.Now,
		token:         auth.Token,
		brokenPrimary: make(map[string]bool),
	}
}

func (c *API) BaseURL() string {
	return c.baseURL
}

// Host is the API host without the versioned prefix, used for storage URLs
func (c *API) Host() string {
	return strings.TrimRight(c.config.Host, "/")
}

func (c *API) Close() error {
	return c.httpClient.Close()
}

// Do sends one request to base + endpoint and returns the raw JSON body.
// GETs always carry a cache-busting timestamp.
func (c *API) Do(ctx context.Context, method, endpoint string, form *Form) (json.RawMessage, error) {
	url := c.baseURL + "/" + strings.TrimLeft(endpoint, "/")

	c.rl.Take()

	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	requestID := uuid.NewString()
	req := c.httpClient.R().
		SetContext(reqCtx).
		SetHeader("X-Request-ID", requestID)

	if err := c.attachAuth(reqCtx, req, method); err != nil {
		return nil, err
	}

	if method == http.MethodGet {
		req.SetQueryParam("_t", strconv.FormatInt(c.now().UnixMilli(), 10))
	}

	if form != nil {
		req.SetMultipartFields(form.multipartFields()...)
	}

	log.Debugf("→ %s %s [%s]", method, url, requestID)

	resp, err := req.Execute(method, url)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("request cancelled: %w", ctx.Err())
		}
		return nil, fmt.Errorf("failed to %s %s: %w", method, url, err)
	}

	body := []byte(resp.String())
	if resp.IsError() {
		apiErr := newAPIError(resp.StatusCode(), body)
		log.Debugf("← %d %s [%s]: %s", resp.StatusCode(), url, requestID, apiErr.Message)
		return nil, apiErr
	}

	log.Debugf("← %d %s [%s]", resp.StatusCode(), url, requestID)
	return json.RawMessage(body), nil
}

// Resource is a logical collection reachable under a primary and a
// fallback route name, e.g. /servicios and /services.
type Resource struct {
	Primary  string
	Fallback string
}

func (r Resource) candidates() []string {
	if r.Fallback == "" || r.Fallback == r.Primary {
		return []string{r.Primary}
	}
	return []string{r.Primary, r.Fallback}
}

// Paths returns every distinct route for id, primary first
func (r Resource) Paths(id string) []string {
	bases := r.candidates()
	paths := make([]string, 0, len(bases))
	for _, base := range bases {
		paths = append(paths, Path(base, id))
	}
	return paths
}

// Path joins the resource base and optional id
func Path(base string, id string) string {
	base = "/" + strings.Trim(base, "/")
	if id == "" {
		return base
	}
	return base + "/" + id
}

// WithFallback calls fn with the primary route and, on 404 or transport
// failure, with the fallback. A 404 on the primary is remembered for the
// rest of the session so the primary is not tried again.
func (c *API) WithFallback(ctx context.Context, res Resource, fn func(base string) (json.RawMessage, error)) (json.RawMessage, error) {
	candidates := res.candidates()
	if len(candidates) == 1 {
		return fn(candidates[0])
	}

	if !c.isPrimaryBroken(ctx, res.Primary) {
		raw, err := fn(res.Primary)
		if err == nil || !shouldFallback(err) {
			return raw, err
		}
		if IsNotFound(err) {
			c.markPrimaryBroken(ctx, res.Primary)
		}
		log.Warnf("⚠️ Primary endpoint %s failed (%v), trying %s", res.Primary, err, res.Fallback)
	}

	return fn(res.Fallback)
}

// List fetches the collection and flattens its envelope
func (c *API) List(ctx context.Context, res Resource) ([]map[string]any, error) {
	raw, err := c.WithFallback(ctx, res, func(base string) (json.RawMessage, error) {
		return c.Do(ctx, http.MethodGet, Path(base, ""), nil)
	})
	if err != nil {
		return nil, err
	}
	return Normalize(raw)
}

// Get fetches a single record by id
func (c *API) Get(ctx context.Context, res Resource, id string) (map[string]any, error) {
	raw, err := c.WithFallback(ctx, res, func(base string) (json.RawMessage, error) {
		return c.Do(ctx, http.MethodGet, Path(base, id), nil)
	})
	if err != nil {
		return nil, err
	}
	return NormalizeOne(raw)
}

func (c *API) isPrimaryBroken(ctx context.Context, primary string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.brokenLoaded {
		c.brokenLoaded = true
		var broken []string
		if _, err := state.LoadJSON(ctx, c.store, state.KeyPrimaryEndpointBroken, &broken); err != nil {
			log.Warnf("⚠️ Ignoring unreadable endpoint flag: %v", err)
		}
		for _, p := range broken {
			c.brokenPrimary[p] = true
		}
	}
	return c.brokenPrimary[primary]
}

func (c *API) markPrimaryBroken(ctx context.Context, primary string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.brokenPrimary[primary] {
		return
	}
	c.brokenPrimary[primary] = true

	broken := make([]string, 0, len(c.brokenPrimary))
	for p := range c.brokenPrimary {
		broken = append(broken, p)
	}
	if err := state.SaveJSON(ctx, c.store, state.KeyPrimaryEndpointBroken, broken); err != nil {
		log.Warnf("⚠️ Failed to persist endpoint flag: %v", err)
	}
	log.Warnf("🚫 Primary endpoint %s marked broken for this session", primary)
}
