package video

import "tryon/internal/generation"

func init() {
	register(ModelPika, "fal-ai/pika/v2.2/image-to-video", generation.StrategyVideo, func(req Request, ref string) map[string]any {
		return map[string]any{
			"prompt":     req.Prompt,
			"image_url":  ref,
			"duration":   nearest(req.DurationSec, 5, 10),
			"resolution": "720p",
		}
	})
}
