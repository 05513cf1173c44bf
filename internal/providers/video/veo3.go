package video

import (
	"fmt"

	"tryon/internal/generation"
)

func init() {
	register(ModelVeo3, "fal-ai/veo3/image-to-video", generation.StrategyVideo, func(req Request, ref string) map[string]any {
		return map[string]any{
			"prompt":         req.Prompt,
			"image_url":      ref,
			"duration":       fmt.Sprintf("%ds", nearest(req.DurationSec, 4, 6, 8)),
			"aspect_ratio":   "auto",
			"generate_audio": false,
		}
	})
}
