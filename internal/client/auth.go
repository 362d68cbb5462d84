package client

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"marketplace/storefront/internal/config"
	"marketplace/storefront/internal/state"

	"github.com/PuerkitoBio/goquery"
	log "github.com/sirupsen/logrus"
	"resty.dev/v3"
)

// SetToken replaces the in-memory bearer token
func (c *API) SetToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
}

func (c *API) attachAuth(ctx context.Context, req *resty.Request, method string) error {
	switch c.auth.Mode {
	case config.AuthModeCSRF:
		return c.attachCSRF(ctx, req, method)
	default:
		if token := c.bearerToken(ctx); token != "" {
			req.SetHeader("Authorization", "Bearer "+token)
		}
		return nil
	}
}

// bearerToken prefers the in-memory token and falls back to storage
func (c *API) bearerToken(ctx context.Context) string {
	c.mu.Lock()
	token := c.token
	c.mu.Unlock()
	if token != "" {
		return token
	}

	stored, found, err := c.store.Get(ctx, state.KeyAuthToken)
	if err != nil || !found {
		return ""
	}
	return strings.Trim(stored, `"`)
}

func isStateChanging(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

func (c *API) attachCSRF(ctx context.Context, req *resty.Request, method string) error {
	if isStateChanging(method) && c.auth.Credentials == "include" {
		if err := c.primeCookie(ctx); err != nil {
			return err
		}
	}

	token, err := c.csrf(ctx)
	if err != nil {
		log.Warnf("⚠️ No CSRF token available: %v", err)
	}
	req.SetHeader("X-Requested-With", "XMLHttpRequest")
	if token != "" {
		req.SetHeader("X-CSRF-TOKEN", token)
	}
	return nil
}

// primeCookie hits the auth cookie endpoint once per session so the cookie
// jar holds the session and XSRF cookies before the first mutation.
func (c *API) primeCookie(ctx context.Context) error {
	c.mu.Lock()
	primed := c.cookiePrimed
	c.mu.Unlock()
	if primed {
		return nil
	}

	url := c.Host() + "/" + strings.TrimLeft(c.auth.CookieEndpoint, "/")
	resp, err := c.httpClient.R().SetContext(ctx).Get(url)
	if err != nil {
		return fmt.Errorf("failed to prime auth cookie: %w", err)
	}
	if resp.IsError() {
		return newAPIError(resp.StatusCode(), []byte(resp.String()))
	}

	c.mu.Lock()
	c.cookiePrimed = true
	c.mu.Unlock()
	log.Debugf("Auth cookie primed via %s", url)
	return nil
}

// csrf reads <meta name="csrf-token" content="..."> from the host page and
// caches it for the session.
func (c *API) csrf(ctx context.Context) (string, error) {
	c.mu.Lock()
	cached := c.csrfToken
	c.mu.Unlock()
	if cached != "" {
		return cached, nil
	}

	url := c.Host() + "/" + strings.TrimLeft(c.auth.CSRFPage, "/")
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetHeader("Accept", "text/html").
		Get(url)
	if err != nil {
		return "", fmt.Errorf("failed to fetch csrf page: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("csrf page returned %d", resp.StatusCode())
	}

	token, err := ParseCSRFToken(resp.String())
	if err != nil {
		return "", err
	}

	c.mu.Lock()
	c.csrfToken = token
	c.mu.Unlock()
	return token, nil
}

// ParseCSRFToken extracts the csrf-token meta tag from an HTML page
func ParseCSRFToken(html string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}
	token, exists := doc.Find(`meta[name="csrf-token"]`).First().Attr("content")
	if !exists || strings.TrimSpace(token) == "" {
		return "", fmt.Errorf("csrf-token meta tag not found")
	}
	return strings.TrimSpace(token), nil
}
