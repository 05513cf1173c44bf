package video

import "tryon/internal/generation"

func init() {
	register(ModelLTX, "fal-ai/ltx-2/image-to-video/fast", generation.StrategyVideoOrVideos, func(req Request, ref string) map[string]any {
		return map[string]any{
			"prompt":       req.Prompt,
			"image_url":    ref,
			"duration":     req.DurationSec,
			"aspect_ratio": "9:16",
			"num_videos":   req.NumVideos,
		}
	})
}
