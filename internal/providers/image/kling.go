package image

import "tryon/internal/generation"

const KeyKlingImage = "kling-image"

func init() {
	register(definition{
		spec: generation.Spec{
			Key:      KeyKlingImage,
			Model:    "fal-ai/kling-image/o3/image-to-image",
			Dir:      "kling_image",
			Strategy: generation.StrategyImages,
		},
		needsRefs: true,
		args: func(req Request, refs []string) map[string]any {
			return map[string]any{
				"prompt":        req.Prompt,
				"image_urls":    refs,
				"resolution":    "1K",
				"aspect_ratio":  "auto",
				"result_type":   "single",
				"num_images":    1,
				"output_format": "png",
			}
		},
	})
}
