package video

import (
	"strconv"

	"tryon/internal/generation"
)

func init() {
	register(ModelSeedance, "fal-ai/bytedance/seedance/v1/pro/image-to-video", generation.StrategyVideo, func(req Request, ref string) map[string]any {
		return map[string]any{
			"prompt":     req.Prompt,
			"image_url":  ref,
			"duration":   strconv.Itoa(req.DurationSec),
			"resolution": "1080p",
		}
	})
}
