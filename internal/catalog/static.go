package catalog

import "marketplace/storefront/internal/domain"

func staticItem(kind domain.ItemKind, id, name, description, category, slug string, price, original float64, stock int) domain.CatalogItem {
	return domain.CatalogItem{
		ID:            id,
		Kind:          kind,
		Name:          name,
		Description:   description,
		Category:      domain.Category{Name: category, Slug: slug},
		Price:         price,
		OriginalPrice: original,
		Stock:         stock,
		InStock:       stock > 0,
		Rating:        4.5,
		Gallery:       []string{},
	}
}

// StaticItems is the small built-in catalog shown when the backend is down
func StaticItems(kind domain.ItemKind) []domain.CatalogItem {
	if kind == domain.ItemKindService {
		return []domain.CatalogItem{
			staticItem(kind, "static-s1", "Asesoría contable", "Declaraciones y contabilidad para pequeños negocios", "Profesionales", "profesionales", 80000, 80000, 0),
			staticItem(kind, "static-s2", "Reparación de computadores", "Diagnóstico, mantenimiento y reparación a domicilio", "Tecnología", "tecnologia", 50000, 60000, 0),
		}
	}
	return []domain.CatalogItem{
		staticItem(kind, "static-p1", "Café de origen 500g", "Café tostado artesanal", "Alimentos", "alimentos", 28000, 32000, 10),
		staticItem(kind, "static-p2", "Bolso tejido a mano", "Bolso en fibra natural", "Artesanías", "artesanias", 95000, 95000, 3),
		staticItem(kind, "static-p3", "Miel de abejas 250ml", "Miel pura sin aditivos", "Alimentos", "alimentos", 18000, 18000, 0),
	}
}
