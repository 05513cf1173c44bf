package video

import "tryon/internal/generation"

func init() {
	register(ModelGrok, "xai/grok-imagine-video/image-to-video", generation.StrategyVideoOrVideos, func(req Request, ref string) map[string]any {
		return map[string]any{
			"prompt":       req.Prompt,
			"image_url":    ref,
			"num_videos":   req.NumVideos,
			"aspect_ratio": "1:1",
		}
	})
}
