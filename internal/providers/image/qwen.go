package image

import "tryon/internal/generation"

const (
	KeyQwenEdit = "qwen-edit"

	qwenNegativePrompt = "low resolution, blurry, distorted, identity loss, unnatural blending"
)

func init() {
	register(definition{
		spec: generation.Spec{
			Key:      KeyQwenEdit,
			Model:    "fal-ai/qwen-image-max/edit",
			Dir:      "qwen_edit",
			Strategy: generation.StrategyImageOrImages,
		},
		needsRefs: true,
		args: func(req Request, refs []string) map[string]any {
			return map[string]any{
				"prompt":                  req.Prompt,
				"image_urls":              refs,
				"negative_prompt":         qwenNegativePrompt,
				"enable_prompt_expansion": false,
				"enable_safety_checker":   false,
				"num_images":              1,
				"output_format":           "png",
			}
		},
	})
}
