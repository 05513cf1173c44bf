package domain

import (
	"fmt"
	"strings"
)

// ReferenceKind tags the source of a reference media input.
type ReferenceKind int

const (
	ReferencePath ReferenceKind = iota
	ReferenceURL
	ReferenceInline
)

func (k ReferenceKind) String() string {
	switch k {
	case ReferenceURL:
		return "url"
	case ReferenceInline:
		return "inline"
	default:
		return "path"
	}
}

// Reference is one reference image or video handed to a provider: a local
// file path, a remote URL, or an inline data URI.
type Reference struct {
	Kind  ReferenceKind
	Value string
}

// ParseReference classifies raw by prefix.
func ParseReference(raw string) Reference {
	v := strings.TrimSpace(raw)
	lower := strings.ToLower(v)
	switch {
	case strings.HasPrefix(lower, "http://"), strings.HasPrefix(lower, "https://"):
		return Reference{Kind: ReferenceURL, Value: v}
	case strings.HasPrefix(lower, "data:"):
		return Reference{Kind: ReferenceInline, Value: v}
	default:
		return Reference{Kind: ReferencePath, Value: v}
	}
}

// ParseReferences maps ParseReference over raw, skipping blank entries.
func ParseReferences(raw []string) []Reference {
	out := make([]Reference, 0, len(raw))
	for _, r := range raw {
		if strings.TrimSpace(r) == "" {
			continue
		}
		out = append(out, ParseReference(r))
	}
	return out
}

// IsRemote reports whether the reference can be sent to a provider as-is.
func (r Reference) IsRemote() bool {
	return r.Kind == ReferenceURL || r.Kind == ReferenceInline
}

func (r Reference) String() string { return r.Value }

// Describe renders the reference for logs and metadata. Inline payloads are
// summarized by size instead of copied.
func (r Reference) Describe() string {
	if r.Kind != ReferenceInline {
		return r.Value
	}
	head, payload, _ := strings.Cut(r.Value, ",")
	return fmt.Sprintf("%s,<%d bytes>", head, len(payload))
}
