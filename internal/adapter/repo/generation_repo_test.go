package repo

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"tryon/internal/domain"
	"tryon/internal/infra"
)

type execCall struct {
	query string
	args  []any
}

type stubExecutor struct {
	execs   []execCall
	execErr error
	rows    [][]any
	rowsErr error
}

func (s *stubExecutor) Exec(_ context.Context, query string, args ...any) (pgconn.CommandTag, error) {
	if _, _, err := infra.SplitMarker(query); err != nil {
		return pgconn.CommandTag{}, err
	}
	s.execs = append(s.execs, execCall{query: query, args: args})
	return pgconn.NewCommandTag("INSERT 0 1"), s.execErr
}

func (s *stubExecutor) QueryRow(context.Context, string, ...any) pgx.Row {
	panic("not used")
}

func (s *stubExecutor) Query(_ context.Context, query string, _ ...any) (pgx.Rows, error) {
	if _, _, err := infra.SplitMarker(query); err != nil {
		return nil, err
	}
	if s.rowsErr != nil {
		return nil, s.rowsErr
	}
	return &stubRows{rows: s.rows, idx: -1}, nil
}

type stubRows struct {
	rows [][]any
	idx  int
}

func (r *stubRows) Close()                                       {}
func (r *stubRows) Err() error                                   { return nil }
func (r *stubRows) CommandTag() pgconn.CommandTag                { return pgconn.CommandTag{} }
func (r *stubRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *stubRows) Values() ([]any, error)                       { return r.rows[r.idx], nil }
func (r *stubRows) RawValues() [][]byte                          { return nil }
func (r *stubRows) Conn() *pgx.Conn                              { return nil }

func (r *stubRows) Next() bool {
	r.idx++
	return r.idx < len(r.rows)
}

func (r *stubRows) Scan(dest ...any) error {
	row := r.rows[r.idx]
	if len(dest) != len(row) {
		return errors.New("column count mismatch")
	}
	for i, d := range dest {
		switch p := d.(type) {
		case *string:
			*p = row[i].(string)
		case *int64:
			*p = row[i].(int64)
		case *float64:
			*p = row[i].(float64)
		default:
			return errors.New("unexpected destination")
		}
	}
	return nil
}

func TestRecordInsertsMetadata(t *testing.T) {
	db := &stubExecutor{}
	repo := NewGenerationRepo(db)
	ts := time.Date(2026, 10, 17, 9, 30, 0, 0, time.UTC)

	err := repo.Record(context.Background(), domain.MetadataRecord{
		Prompt:      "full body portrait",
		Model:       "fal-ai/nano-banana/edit",
		Provider:    "nano-banana-edit",
		LatencySec:  12.5,
		Timestamp:   ts,
		Files:       []string{"outputs/images/2026_10_17/nano_banana_edit/img_1_0.png"},
		RawResponse: map[string]any{"images": []any{}},
	})
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if len(db.execs) != 1 {
		t.Fatalf("expected one exec, got %d", len(db.execs))
	}
	call := db.execs[0]
	if !strings.Contains(call.query, "insert into generation_records") {
		t.Fatalf("unexpected query: %s", call.query)
	}
	if call.args[0] != "nano-banana-edit" || call.args[1] != "fal-ai/nano-banana/edit" {
		t.Fatalf("unexpected provider/model args: %v", call.args[:2])
	}
	if call.args[7] != ts {
		t.Fatalf("timestamp arg = %v", call.args[7])
	}
	var files []string
	if err := json.Unmarshal(call.args[5].([]byte), &files); err != nil || len(files) != 1 {
		t.Fatalf("files arg = %s (%v)", call.args[5], err)
	}
	var doc map[string]any
	if err := json.Unmarshal(call.args[6].([]byte), &doc); err != nil {
		t.Fatalf("metadata arg: %v", err)
	}
	if doc["provider"] != "nano-banana-edit" {
		t.Fatalf("metadata provider = %v", doc["provider"])
	}
}

func TestRecordWrapsErrors(t *testing.T) {
	db := &stubExecutor{execErr: errors.New("connection reset")}
	err := NewGenerationRepo(db).Record(context.Background(), domain.MetadataRecord{})
	if err == nil || !strings.Contains(err.Error(), "connection reset") {
		t.Fatalf("expected wrapped error, got %v", err)
	}
}

func TestEnsureSchema(t *testing.T) {
	db := &stubExecutor{}
	if err := NewGenerationRepo(db).EnsureSchema(context.Background()); err != nil {
		t.Fatalf("EnsureSchema: %v", err)
	}
	if len(db.execs) != 1 || !strings.Contains(db.execs[0].query, "create table if not exists generation_records") {
		t.Fatalf("unexpected execs: %+v", db.execs)
	}
}

func TestLatencyStats(t *testing.T) {
	db := &stubExecutor{rows: [][]any{
		{"grok", "xai/grok-imagine-video/image-to-video", int64(3), 40.0, 31.5, 52.0},
		{"nano-banana-edit", "fal-ai/nano-banana/edit", int64(10), 9.2, 6.1, 14.8},
	}}
	stats, err := NewGenerationRepo(db).LatencyStats(context.Background())
	if err != nil {
		t.Fatalf("LatencyStats: %v", err)
	}
	if len(stats) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(stats))
	}
	if stats[1].Provider != "nano-banana-edit" || stats[1].Count != 10 || stats[1].MaxSec != 14.8 {
		t.Fatalf("unexpected row: %+v", stats[1])
	}

	db = &stubExecutor{rowsErr: errors.New("boom")}
	if _, err := NewGenerationRepo(db).LatencyStats(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}
