package video

import "tryon/internal/generation"

// Hunyuan renders a fixed clip length and takes no duration argument.
func init() {
	register(ModelHunyuan, "fal-ai/hunyuan-video-image-to-video", generation.StrategyVideo, func(req Request, ref string) map[string]any {
		return map[string]any{
			"prompt":       req.Prompt,
			"image_url":    ref,
			"aspect_ratio": "16:9",
			"resolution":   "720p",
		}
	})
}
