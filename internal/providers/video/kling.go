package video

import (
	"strconv"

	"tryon/internal/generation"
)

const klingNegativePrompt = "blur, distort, and low quality"

func init() {
	register(ModelKling, "fal-ai/kling-video/v2.1/standard/image-to-video", generation.StrategyVideo, func(req Request, ref string) map[string]any {
		return map[string]any{
			"prompt":          req.Prompt,
			"image_url":       ref,
			"duration":        strconv.Itoa(nearest(req.DurationSec, 5, 10)),
			"negative_prompt": klingNegativePrompt,
		}
	})
}
