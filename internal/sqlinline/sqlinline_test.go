package sqlinline

import (
	"testing"

	"tryon/internal/infra"
)

func TestQueriesCarryMarkers(t *testing.T) {
	queries := map[string]string{
		"QGenerationsSchema":      QGenerationsSchema,
		"QGenerationInsert":       QGenerationInsert,
		"QGenerationLatencyStats": QGenerationLatencyStats,
	}
	seen := map[string]string{}
	for name, q := range queries {
		marker, _, err := infra.SplitMarker(q)
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if other, dup := seen[marker]; dup {
			t.Fatalf("%s reuses marker of %s", name, other)
		}
		seen[marker] = name
	}
}
