package generation

import (
	"fmt"
	"sort"
	"strings"

	"tryon/internal/domain"
)

// Strategy names where a provider puts its asset URLs.
type Strategy string

const (
	StrategyImages        Strategy = "images"
	StrategyImage         Strategy = "image"
	StrategyImageOrImages Strategy = "image_or_images"
	StrategyVideo         Strategy = "video"
	StrategyVideoOrVideos Strategy = "video_or_videos"
)

// Extractor pulls every asset URL out of a provider response, in order.
type Extractor func(resp map[string]any) []string

var extractors = map[Strategy]Extractor{
	StrategyImages:        listAt("images"),
	StrategyImage:         singleAt("image"),
	StrategyImageOrImages: firstOf(singleAt("image"), listAt("images")),
	StrategyVideo:         singleAt("video"),
	StrategyVideoOrVideos: firstOf(singleAt("video"), listAt("videos")),
}

// Extract applies strategy to resp. A response without any URL is a
// *domain.ResponseShapeError.
func Extract(model string, strategy Strategy, resp map[string]any) ([]string, error) {
	fn, ok := extractors[strategy]
	if !ok {
		return nil, fmt.Errorf("generation: unknown extraction strategy %q", strategy)
	}
	urls := fn(resp)
	if len(urls) == 0 {
		return nil, &domain.ResponseShapeError{Model: model, Keys: sortedKeys(resp)}
	}
	return urls, nil
}

// singleAt reads resp[key] as one asset: {"url": ...} or a bare string.
func singleAt(key string) Extractor {
	return func(resp map[string]any) []string {
		if u := assetURL(resp[key]); u != "" {
			return []string{u}
		}
		return nil
	}
}

// listAt reads resp[key] as an array of assets, skipping entries without a URL.
func listAt(key string) Extractor {
	return func(resp map[string]any) []string {
		items, ok := resp[key].([]any)
		if !ok {
			return nil
		}
		var urls []string
		for _, item := range items {
			if u := assetURL(item); u != "" {
				urls = append(urls, u)
			}
		}
		return urls
	}
}

func firstOf(fns ...Extractor) Extractor {
	return func(resp map[string]any) []string {
		for _, fn := range fns {
			if urls := fn(resp); len(urls) > 0 {
				return urls
			}
		}
		return nil
	}
}

func assetURL(v any) string {
	switch item := v.(type) {
	case string:
		return strings.TrimSpace(item)
	case map[string]any:
		if u, ok := item["url"].(string); ok {
			return strings.TrimSpace(u)
		}
	}
	return ""
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
