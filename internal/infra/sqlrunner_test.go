package infra

import (
	"errors"
	"testing"
)

func TestSplitMarker(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		wantMarker string
		wantBody   string
		wantErr    error
	}{
		{
			name:       "valid",
			query:      "--sql 0b9c7a52-3d4e-4f7a-9c1d-2e6f8a0b1c3d\nselect 1;",
			wantMarker: "0b9c7a52-3d4e-4f7a-9c1d-2e6f8a0b1c3d",
			wantBody:   "select 1;",
		},
		{
			name:       "leading whitespace",
			query:      "\n   --sql 0b9c7a52-3d4e-4f7a-9c1d-2e6f8a0b1c3d\n  select 1;\n",
			wantMarker: "0b9c7a52-3d4e-4f7a-9c1d-2e6f8a0b1c3d",
			wantBody:   "select 1;",
		},
		{
			name:    "missing marker",
			query:   "select 1;",
			wantErr: ErrInvalidMarker,
		},
		{
			name:    "uppercase uuid rejected",
			query:   "--sql 0B9C7A52-3D4E-4F7A-9C1D-2E6F8A0B1C3D\nselect 1;",
			wantErr: ErrInvalidMarker,
		},
		{
			name:    "marker without body",
			query:   "--sql 0b9c7a52-3d4e-4f7a-9c1d-2e6f8a0b1c3d",
			wantErr: ErrEmptyQuery,
		},
		{
			name:    "empty",
			query:   "   ",
			wantErr: ErrEmptyQuery,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			marker, body, err := SplitMarker(tc.query)
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("err = %v, want %v", err, tc.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if marker != tc.wantMarker {
				t.Fatalf("marker = %q, want %q", marker, tc.wantMarker)
			}
			if body != tc.wantBody {
				t.Fatalf("body = %q, want %q", body, tc.wantBody)
			}
		})
	}
}
