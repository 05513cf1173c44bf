package image

import (
	"math"
	"strconv"
	"strings"

	"tryon/internal/generation"
)

const KeyFluxProEdit = "flux-pro-edit"

func init() {
	register(definition{
		spec: generation.Spec{
			Key:      KeyFluxProEdit,
			Model:    "fal-ai/flux-2-pro/edit",
			Dir:      "flux_pro_edit",
			Strategy: generation.StrategyImageOrImages,
		},
		needsRefs: true,
		args: func(req Request, refs []string) map[string]any {
			return map[string]any{
				"prompt":                req.Prompt,
				"image_urls":            refs,
				"image_size":            imageSize(req.AspectRatio, req.Resolution),
				"safety_tolerance":      "2",
				"enable_safety_checker": false,
				"output_format":         "png",
			}
		},
	})
}

// imageSize maps an aspect ratio ("w:h") or a resolution ("WxH") onto one of
// the preset sizes flux accepts.
func imageSize(aspect, resolution string) string {
	ratio, ok := parseRatio(aspect, ":")
	if !ok {
		ratio, ok = parseRatio(strings.ToLower(resolution), "x")
	}
	if !ok {
		return "auto"
	}

	const (
		squareTolerance = 0.05
		presetTolerance = 0.15
	)
	switch {
	case relDiff(ratio, 1) < squareTolerance:
		return "square_hd"
	case relDiff(ratio, 16.0/9.0) < presetTolerance:
		return "landscape_16_9"
	case relDiff(ratio, 9.0/16.0) < presetTolerance:
		return "portrait_16_9"
	case relDiff(ratio, 4.0/3.0) < presetTolerance:
		return "landscape_4_3"
	case relDiff(ratio, 3.0/4.0) < presetTolerance:
		return "portrait_4_3"
	default:
		return "auto"
	}
}

func parseRatio(s, sep string) (float64, bool) {
	w, h, found := strings.Cut(strings.TrimSpace(s), sep)
	if !found {
		return 0, false
	}
	wf, err := strconv.ParseFloat(strings.TrimSpace(w), 64)
	if err != nil || wf <= 0 {
		return 0, false
	}
	hf, err := strconv.ParseFloat(strings.TrimSpace(h), 64)
	if err != nil || hf <= 0 {
		return 0, false
	}
	return wf / hf, true
}

func relDiff(got, want float64) float64 {
	return math.Abs(got-want) / want
}
