package handlers

import (
	"net/http"

	"tryon/internal/catalog"
)

func (a *App) Outfits(w http.ResponseWriter, r *http.Request) {
	entries := a.Catalog.Entries()
	grouped := map[catalog.Kind][]string{}
	for _, e := range entries {
		grouped[e.Kind] = append(grouped[e.Kind], e.Name)
	}
	a.json(w, http.StatusOK, map[string]any{
		"tops":        grouped[catalog.KindTop],
		"bottoms":     grouped[catalog.KindBottom],
		"backgrounds": grouped[catalog.KindBackground],
		"items":       entries,
	})
}
