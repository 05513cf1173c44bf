package repo

import (
	"context"
	"encoding/json"
	"fmt"

	"tryon/internal/domain"
	"tryon/internal/infra"
	"tryon/internal/sqlinline"
)

// GenerationRepo archives metadata records in Postgres.
type GenerationRepo struct {
	db infra.SQLExecutor
}

func NewGenerationRepo(db infra.SQLExecutor) *GenerationRepo {
	return &GenerationRepo{db: db}
}

// EnsureSchema creates the archive table when it does not exist.
func (r *GenerationRepo) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, sqlinline.QGenerationsSchema); err != nil {
		return fmt.Errorf("repo: ensure schema: %w", err)
	}
	return nil
}

// Record inserts one metadata record.
func (r *GenerationRepo) Record(ctx context.Context, rec domain.MetadataRecord) error {
	files, err := json.Marshal(nonNil(rec.Files))
	if err != nil {
		return fmt.Errorf("repo: encode files: %w", err)
	}
	doc, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("repo: encode metadata: %w", err)
	}
	_, err = r.db.Exec(ctx, sqlinline.QGenerationInsert,
		rec.Provider,
		rec.Model,
		rec.Prompt,
		rec.LatencySec,
		rec.DurationSec,
		files,
		doc,
		rec.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("repo: insert generation: %w", err)
	}
	return nil
}

// LatencyStats aggregates latency per provider and model.
func (r *GenerationRepo) LatencyStats(ctx context.Context) ([]domain.LatencyStat, error) {
	rows, err := r.db.Query(ctx, sqlinline.QGenerationLatencyStats)
	if err != nil {
		return nil, fmt.Errorf("repo: latency stats: %w", err)
	}
	defer rows.Close()

	var out []domain.LatencyStat
	for rows.Next() {
		var s domain.LatencyStat
		if err := rows.Scan(&s.Provider, &s.Model, &s.Count, &s.AvgSec, &s.MinSec, &s.MaxSec); err != nil {
			return nil, fmt.Errorf("repo: scan latency stats: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo: latency stats: %w", err)
	}
	return out, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
