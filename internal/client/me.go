package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"marketplace/storefront/internal/normalize"
	"marketplace/storefront/internal/state"

	log "github.com/sirupsen/logrus"
)

var ErrNoActor = errors.New("current actor could not be resolved")

// Me resolves the current actor id: memory, then storage, then each
// configured /me endpoint in order. Once resolved it is cached in both.
func (c *API) Me(ctx context.Context) (string, error) {
	c.mu.Lock()
	cached := c.actorID
	c.mu.Unlock()
	if cached != "" {
		return cached, nil
	}

	if stored, found, err := c.store.Get(ctx, state.KeyActorID); err == nil && found {
		if id := strings.Trim(stored, `"`); id != "" {
			c.setActor(id)
			return id, nil
		}
	}

	var lastErr error = ErrNoActor
	for _, endpoint := range c.config.MeEndpoints {
		raw, err := c.Do(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			lastErr = err
			log.Debugf("Actor lookup %s failed: %v", endpoint, err)
			continue
		}

		var body map[string]any
		if err := json.Unmarshal(raw, &body); err != nil {
			lastErr = fmt.Errorf("failed to decode %s: %w", endpoint, err)
			continue
		}

		if id := normalize.ActorID(body); id != "" {
			c.setActor(id)
			if err := c.store.Set(ctx, state.KeyActorID, id); err != nil {
				log.Warnf("⚠️ Failed to persist actor id: %v", err)
			}
			return id, nil
		}
	}

	return "", fmt.Errorf("%w: %v", ErrNoActor, lastErr)
}

// ForgetActor drops the cached actor id, e.g. after logout
func (c *API) ForgetActor(ctx context.Context) error {
	c.setActor("")
	return c.store.Delete(ctx, state.KeyActorID)
}

func (c *API) setActor(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.actorID = id
}
