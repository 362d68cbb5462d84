package client

import (
	"bytes"
	"encoding/json"
	"fmt"
)

var (
	listKeys     = []string{"data", "results", "items", "services", "servicios", "products", "productos"}
	singularKeys = []string{"service", "servicio", "product", "producto", "item", "data"}
)

// Normalize flattens any supported response envelope into a list of raw
// records. Precedence: array shapes, then nested paginated data, then a
// singular object wrapped as a one-element list.
func Normalize(raw json.RawMessage) ([]map[string]any, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return []map[string]any{}, nil
	}

	var body any
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, fmt.Errorf("failed to decode response body: %w", err)
	}

	switch v := body.(type) {
	case []any:
		return records(v), nil
	case map[string]any:
		for _, key := range listKeys {
			if list, ok := v[key].([]any); ok {
				return records(list), nil
			}
		}
		if data, ok := v["data"].(map[string]any); ok {
			if list, ok := data["data"].([]any); ok {
				return records(list), nil
			}
		}
		for _, key := range singularKeys {
			if obj, ok := v[key].(map[string]any); ok {
				return []map[string]any{obj}, nil
			}
		}
		if _, hasID := v["id"]; hasID {
			return []map[string]any{v}, nil
		}
		return []map[string]any{}, nil
	default:
		return nil, fmt.Errorf("unexpected response shape %T", body)
	}
}

// NormalizeOne returns the single record of a detail response
func NormalizeOne(raw json.RawMessage) (map[string]any, error) {
	list, err := Normalize(raw)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, fmt.Errorf("empty response body: %w", ErrNotFound)
	}
	return list[0], nil
}

func records(list []any) []map[string]any {
	out := make([]map[string]any, 0, len(list))
	for _, entry := range list {
		if m, ok := entry.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out
}
