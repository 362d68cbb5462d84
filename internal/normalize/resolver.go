package normalize

import (
	"strings"

	"github.com/spf13/cast"
)

// Lookup walks a dotted path through nested maps
func Lookup(raw map[string]any, path string) (any, bool) {
	var cur any = raw
	for _, part := range strings.Split(path, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = m[part]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// First returns the value of the first alias that is present, non-nil and
// not a blank string.
func First(raw map[string]any, aliases []string) (any, bool) {
	for _, alias := range aliases {
		v, ok := Lookup(raw, alias)
		if !ok || v == nil {
			continue
		}
		if s, isStr := v.(string); isStr && strings.TrimSpace(s) == "" {
			continue
		}
		return v, true
	}
	return nil, false
}

// FirstString resolves an alias list to a string, "" when nothing matches
func FirstString(raw map[string]any, aliases []string) string {
	v, ok := First(raw, aliases)
	if !ok {
		return ""
	}
	switch v.(type) {
	case map[string]any, []any:
		return ""
	}
	s, err := cast.ToStringE(v)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(s)
}

// FirstFloat resolves an alias list to a number; unparseable values fall
// back to def.
func FirstFloat(raw map[string]any, aliases []string, def float64) (float64, bool) {
	v, ok := First(raw, aliases)
	if !ok {
		return def, false
	}
	f, err := cast.ToFloat64E(v)
	if err != nil {
		return def, false
	}
	return f, true
}

func FirstInt(raw map[string]any, aliases []string, def int) int {
	v, ok := First(raw, aliases)
	if !ok {
		return def
	}
	if list, isList := v.([]any); isList {
		return len(list)
	}
	i, err := cast.ToIntE(v)
	if err != nil {
		f, ferr := cast.ToFloat64E(v)
		if ferr != nil {
			return def
		}
		return int(f)
	}
	return i
}

// OwnerID resolves the owner of a raw record using the fixed priority list
func OwnerID(raw map[string]any) string {
	return FirstString(raw, OwnerIDAliases)
}

// ActorID extracts the current actor's id from a /me response body
func ActorID(raw map[string]any) string {
	return FirstString(raw, ActorIDAliases)
}
