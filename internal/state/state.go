package state

import (
	"context"
	"encoding/json"
	"fmt"
)

// Well-known keys of the persisted client state
const (
	KeyCart                  = "cart"
	KeyWishlist              = "wishlist"
	KeyActorID               = "actor_id"
	KeyAuthToken             = "auth_token"
	KeyPrimaryEndpointBroken = "primary_endpoint_broken"
	KeyFieldMapOverrides     = "field_map_overrides"
	ownerItemsPrefix         = "owner_items:"
)

// OwnerItemsKey scopes the ownership cache by owner id
func OwnerItemsKey(ownerID string) string {
	return ownerItemsPrefix + ownerID
}

// Store is the persistent key/value surface the client state lives in.
// Get reports found=false for absent keys rather than an error.
type Store interface {
	Get(ctx context.Context, key string) (value string, found bool, err error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// LoadJSON decodes the value under key into v. Absent keys leave v untouched
// and return false; corrupt values return an error so callers can reset.
func LoadJSON(ctx context.Context, s Store, key string, v any) (bool, error) {
	raw, found, err := s.Get(ctx, key)
	if err != nil {
		return false, err
	}
	if !found {
		return false, nil
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return true, fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return true, nil
}

// SaveJSON encodes v and writes it under key as a whole document
func SaveJSON(ctx context.Context, s Store, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	return s.Set(ctx, key, string(data))
}
