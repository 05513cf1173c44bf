// Package stats reports per-model generation latency.
package stats

import (
	"context"
	"encoding/json"
	"math"
	"sort"

	"tryon/internal/domain"
	"tryon/internal/infra"
	"tryon/internal/storage"
)

// Source yields latency aggregates. *repo.GenerationRepo implements it.
type Source interface {
	LatencyStats(ctx context.Context) ([]domain.LatencyStat, error)
}

// MetadataScan aggregates the metadata documents under a file store. It is
// the fallback when no database archive is configured.
type MetadataScan struct {
	store  *storage.FileStore
	logger *infra.Logger
}

func NewMetadataScan(store *storage.FileStore, logger *infra.Logger) *MetadataScan {
	return &MetadataScan{store: store, logger: infra.OrDiscard(logger)}
}

func (m *MetadataScan) LatencyStats(ctx context.Context) ([]domain.LatencyStat, error) {
	type key struct{ provider, model string }
	agg := map[key]*domain.LatencyStat{}
	sums := map[key]float64{}

	err := m.store.WalkMetadata(ctx, "", func(name string, data []byte) error {
		var rec domain.MetadataRecord
		if err := json.Unmarshal(data, &rec); err != nil {
			m.logger.Warn().Err(err).Str("key", name).Msg("skipping unreadable metadata")
			return nil
		}
		provider := rec.Provider
		if provider == "" {
			provider = storage.ProviderOfKey(name)
		}
		k := key{provider, rec.Model}
		s, ok := agg[k]
		if !ok {
			s = &domain.LatencyStat{Provider: provider, Model: rec.Model, MinSec: math.Inf(1)}
			agg[k] = s
		}
		s.Count++
		sums[k] += rec.LatencySec
		s.MinSec = math.Min(s.MinSec, rec.LatencySec)
		s.MaxSec = math.Max(s.MaxSec, rec.LatencySec)
		return nil
	})
	if err != nil {
		return nil, err
	}

	out := make([]domain.LatencyStat, 0, len(agg))
	for k, s := range agg {
		s.AvgSec = sums[k] / float64(s.Count)
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Provider != out[j].Provider {
			return out[i].Provider < out[j].Provider
		}
		return out[i].Model < out[j].Model
	})
	return out, nil
}
