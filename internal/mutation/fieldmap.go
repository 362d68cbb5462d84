package mutation

import (
	"context"
	"slices"

	"marketplace/storefront/internal/client"
	"marketplace/storefront/internal/state"

	log "github.com/sirupsen/logrus"
)

// OwnerFields carry the actor id on create, for backends expecting either
// English or Spanish naming.
var OwnerFields = []string{"entrepreneur_id", "emprendedor_id"}

// FieldMap maps a canonical form field to the alias names it is also sent
// under on update.
type FieldMap map[string][]string

// DefaultFieldMap is the alias table used when no override is stored
var DefaultFieldMap = FieldMap{
	"nombre_servicio": {"nombre", "name"},
	"nombre_producto": {"nombre", "name"},
	"nombre":          {"name"},
	"precio_base":     {"price", "precio"},
	"precio":          {"price"},
	"precio_original": {"original_price"},
	"descripcion":     {"description"},
	"categoria":       {"category"},
	"telefono":        {"phone"},
	"direccion":       {"address"},
	"marca":           {"brand"},
	"cantidad":        {"stock"},
}

// LoadFieldMap merges the stored override table over the defaults. An
// unreadable override is ignored.
func LoadFieldMap(ctx context.Context, store state.Store) FieldMap {
	merged := make(FieldMap, len(DefaultFieldMap))
	for canonical, aliases := range DefaultFieldMap {
		merged[canonical] = slices.Clone(aliases)
	}

	var overrides FieldMap
	found, err := state.LoadJSON(ctx, store, state.KeyFieldMapOverrides, &overrides)
	if err != nil {
		log.Warnf("⚠️ Ignoring unreadable field map override: %v", err)
		return merged
	}
	if found {
		log.Infof("🔧 Applying %d field map overrides", len(overrides))
		for canonical, aliases := range overrides {
			merged[canonical] = aliases
		}
	}
	return merged
}

// Augment returns a copy of form where every mapped field is also present
// under each of its aliases. Fields already set are left alone.
func (m FieldMap) Augment(form *client.Form) *client.Form {
	out := form.Clone()
	for _, field := range form.Fields() {
		for _, alias := range m[field.Name] {
			if !out.Has(alias) {
				out.Add(alias, field.Value)
			}
		}
	}
	return out
}
