// Package media turns reference inputs into values a provider accepts and
// streams generated assets back to local storage.
package media

import (
	"encoding/base64"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"tryon/internal/domain"
)

const fallbackMIME = "image/png"

// ResolveReference returns the string sent to the provider for ref. Remote
// URLs and data URIs pass through untouched; local paths are read and
// inlined as base64 data URIs.
func ResolveReference(ref domain.Reference) (string, error) {
	if ref.IsRemote() {
		return ref.Value, nil
	}
	if strings.TrimSpace(ref.Value) == "" {
		return "", domain.NewValidationError("reference", "empty reference path")
	}
	data, err := os.ReadFile(ref.Value)
	if err != nil {
		if os.IsNotExist(err) {
			return "", domain.NewValidationError("reference", fmt.Sprintf("file %q does not exist", ref.Value))
		}
		return "", fmt.Errorf("media: read reference %q: %w", ref.Value, err)
	}
	return DataURI(DetectMIME(data, ref.Value), data), nil
}

// ResolveReferences resolves every reference, preserving count and order.
func ResolveReferences(refs []domain.Reference) ([]string, error) {
	out := make([]string, 0, len(refs))
	for i, ref := range refs {
		resolved, err := ResolveReference(ref)
		if err != nil {
			return nil, fmt.Errorf("reference %d: %w", i+1, err)
		}
		out = append(out, resolved)
	}
	return out, nil
}

// DetectMIME sniffs data and falls back to the file extension of name, then
// to image/png, when the content is not recognizably an image or video.
func DetectMIME(data []byte, name string) string {
	if len(data) > 0 {
		detected := mimetype.Detect(data)
		if isMedia(detected.String()) {
			return baseType(detected.String())
		}
	}
	if ext := filepath.Ext(name); ext != "" {
		if byExt := mime.TypeByExtension(strings.ToLower(ext)); isMedia(byExt) {
			return baseType(byExt)
		}
	}
	return fallbackMIME
}

// DataURI encodes data as a base64 data URI.
func DataURI(mimeType string, data []byte) string {
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// InlineBase64 wraps a bare base64 payload (as posted by browser clients) in a
// data URI, sniffing the media type from the decoded bytes.
func InlineBase64(payload string) (string, error) {
	payload = strings.TrimSpace(payload)
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		data, err = base64.RawStdEncoding.DecodeString(payload)
		if err != nil {
			return "", domain.NewValidationError("image", "not a url, data uri or base64 payload")
		}
	}
	if len(data) == 0 {
		return "", domain.NewValidationError("image", "empty base64 payload")
	}
	detected := mimetype.Detect(data).String()
	if !isMedia(detected) {
		return "", domain.NewValidationError("image", "base64 payload is not an image or video")
	}
	return DataURI(baseType(detected), data), nil
}

// ExtensionForMIME maps a media type to a file extension, including the dot.
func ExtensionForMIME(mimeType string) string {
	switch baseType(mimeType) {
	case "image/jpeg", "image/jpg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	case "image/gif":
		return ".gif"
	case "video/mp4":
		return ".mp4"
	case "video/webm":
		return ".webm"
	case "video/quicktime":
		return ".mov"
	case "image/png":
		return ".png"
	}
	if m := mimetype.Lookup(baseType(mimeType)); m != nil && m.Extension() != "" {
		return m.Extension()
	}
	return ".bin"
}

func isMedia(mimeType string) bool {
	return strings.HasPrefix(mimeType, "image/") || strings.HasPrefix(mimeType, "video/")
}

func baseType(mimeType string) string {
	if idx := strings.Index(mimeType, ";"); idx >= 0 {
		mimeType = mimeType[:idx]
	}
	return strings.ToLower(strings.TrimSpace(mimeType))
}
