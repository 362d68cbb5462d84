package normalize

import "strings"

// ImageURL turns a backend image reference into an absolute URL. Absolute
// http(s) and data: URIs pass through unchanged.
func ImageURL(apiHost, ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return ""
	}
	lower := strings.ToLower(ref)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") || strings.HasPrefix(lower, "data:") {
		return ref
	}

	path := strings.TrimLeft(ref, "/")
	path = strings.TrimPrefix(path, "public/")
	if !strings.HasPrefix(path, "storage/") {
		path = "storage/" + path
	}

	return strings.TrimRight(apiHost, "/") + "/" + path
}

// galleryRef pulls the path out of a gallery entry, which may be a bare
// string or an object such as {"url": ...} or {"ruta": ...}.
func galleryRef(entry any) string {
	switch v := entry.(type) {
	case string:
		return v
	case map[string]any:
		return FirstString(v, []string{"url", "path", "image", "imagen", "ruta", "src"})
	default:
		return ""
	}
}
