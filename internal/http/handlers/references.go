package handlers

import (
	"strings"

	"tryon/internal/domain"
	"tryon/internal/media"
)

// parseUpload accepts a URL, a data URI or a bare base64 payload. Server-side
// paths are never read on behalf of an HTTP client.
func parseUpload(field, raw string) (domain.Reference, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return domain.Reference{}, domain.NewValidationError(field, field+" is required")
	}
	ref := domain.ParseReference(raw)
	if ref.IsRemote() {
		return ref, nil
	}
	uri, err := media.InlineBase64(raw)
	if err != nil {
		return domain.Reference{}, domain.NewValidationError(field, "must be a URL, a data URI or base64 image data")
	}
	return domain.ParseReference(uri), nil
}
