package video

import (
	"fmt"

	"tryon/internal/generation"
)

func init() {
	register(ModelLuma, "fal-ai/luma-dream-machine/ray-2-flash/image-to-video", generation.StrategyVideo, func(req Request, ref string) map[string]any {
		return map[string]any{
			"prompt":       req.Prompt,
			"image_url":    ref,
			"duration":     fmt.Sprintf("%ds", nearest(req.DurationSec, 5, 9)),
			"aspect_ratio": "9:16",
		}
	})
}
