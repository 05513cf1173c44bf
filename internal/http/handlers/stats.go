package handlers

import (
	"net/http"

	"tryon/internal/domain"
)

func (a *App) LatencyStats(w http.ResponseWriter, r *http.Request) {
	items, err := a.Stats.LatencyStats(r.Context())
	if err != nil {
		a.fail(w, r, err)
		return
	}
	if items == nil {
		items = []domain.LatencyStat{}
	}
	a.json(w, http.StatusOK, map[string]any{
		"source":    a.StatsSource,
		"items":     items,
		"jobs_seen": a.Jobs.Len(),
	})
}
