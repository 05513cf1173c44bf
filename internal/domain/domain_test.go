package domain

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestParseReference(t *testing.T) {
	tests := []struct {
		raw  string
		kind ReferenceKind
	}{
		{raw: "https://cdn.example.com/a.png", kind: ReferenceURL},
		{raw: "HTTP://cdn.example.com/a.png", kind: ReferenceURL},
		{raw: "data:image/png;base64,AAAA", kind: ReferenceInline},
		{raw: "assets/person.png", kind: ReferencePath},
		{raw: "  /tmp/x.jpg  ", kind: ReferencePath},
	}
	for _, tc := range tests {
		t.Run(tc.raw, func(t *testing.T) {
			ref := ParseReference(tc.raw)
			if ref.Kind != tc.kind {
				t.Fatalf("kind = %s, want %s", ref.Kind, tc.kind)
			}
			if ref.Value != strings.TrimSpace(tc.raw) {
				t.Fatalf("value = %q, want trimmed input", ref.Value)
			}
		})
	}
}

func TestParseReferencesSkipsBlank(t *testing.T) {
	refs := ParseReferences([]string{"a.png", "", "  ", "https://x/y.png"})
	if len(refs) != 2 {
		t.Fatalf("len = %d, want 2", len(refs))
	}
	if refs[1].Kind != ReferenceURL {
		t.Fatalf("second kind = %s, want url", refs[1].Kind)
	}
}

func TestTypedErrorsMatchSentinels(t *testing.T) {
	cause := errors.New("boom")
	cases := []struct {
		name   string
		err    error
		target error
	}{
		{"validation", NewValidationError("duration_sec", "unsupported"), ErrValidation},
		{"unknown model", &UnknownModelError{Key: "nope"}, ErrUnknownModel},
		{"response shape", &ResponseShapeError{Model: "m"}, ErrResponseShape},
		{"provider call", &ProviderCallError{Model: "m", Attempts: 5, Err: cause}, ErrProviderCall},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			wrapped := fmt.Errorf("stage: %w", tc.err)
			if !errors.Is(wrapped, tc.target) {
				t.Fatalf("errors.Is(%v, %v) = false", wrapped, tc.target)
			}
		})
	}
	if !errors.Is(&ProviderCallError{Err: cause}, cause) {
		t.Fatalf("provider call error should unwrap to cause")
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate("short", 10); got != "short" {
		t.Fatalf("Truncate short = %q", got)
	}
	got := Truncate(strings.Repeat("a", 20), 8)
	if got != strings.Repeat("a", 8)+"…" {
		t.Fatalf("Truncate long = %q", got)
	}
	// "é" is two bytes; cutting inside it must back off to the rune start.
	got = Truncate("aé", 2)
	if got != "a…" {
		t.Fatalf("Truncate rune = %q", got)
	}
}

func TestJobStatusTerminal(t *testing.T) {
	if JobStatusProcessing.IsTerminal() {
		t.Fatalf("processing must not be terminal")
	}
	if !JobStatusCompleted.IsTerminal() || !JobStatusFailed.IsTerminal() {
		t.Fatalf("completed and failed must be terminal")
	}
}
