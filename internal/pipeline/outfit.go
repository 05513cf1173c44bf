package pipeline

import (
	"strings"

	"tryon/internal/catalog"
	"tryon/internal/domain"
)

// Outfit is the catalog-resolved form of a top/bottom selection.
type Outfit struct {
	Apparel    string
	References []domain.Reference
}

// ResolveOutfit maps the outfit names through cat. Only values that are
// image URLs or data URIs become references; free-text names such as
// "Formal Dress" still shape the apparel description.
func ResolveOutfit(cat *catalog.Catalog, top, bottom string) Outfit {
	out := Outfit{Apparel: ApparelDescription(top, bottom)}
	for _, name := range []string{top, bottom} {
		if strings.TrimSpace(name) == "" {
			continue
		}
		if v := cat.Lookup(name); catalog.IsAsset(v) {
			out.References = append(out.References, domain.ParseReference(v))
		}
	}
	return out
}

// Setting maps a background name to its catalog description.
func Setting(cat *catalog.Catalog, background string) string {
	if strings.TrimSpace(background) == "" {
		return ""
	}
	return cat.Lookup(background)
}
