package image

import "tryon/internal/generation"

const (
	KeyNanoBanana     = "nano-banana"
	KeyNanoBananaEdit = "nano-banana-edit"
)

func init() {
	register(definition{
		spec: generation.Spec{
			Key:      KeyNanoBanana,
			Model:    "fal-ai/nano-banana",
			Dir:      "nano_banana",
			Strategy: generation.StrategyImages,
		},
		args: func(req Request, refs []string) map[string]any {
			args := map[string]any{
				"prompt":       req.Prompt,
				"resolution":   req.Resolution,
				"aspect_ratio": req.AspectRatio,
				"num_images":   req.NumImages,
			}
			// text-to-image accepts one optional guide image
			if len(refs) > 0 {
				args["image_urls"] = refs[:1]
			}
			return args
		},
	})

	register(definition{
		spec: generation.Spec{
			Key:      KeyNanoBananaEdit,
			Model:    "fal-ai/nano-banana/edit",
			Dir:      "nano_banana_edit",
			Strategy: generation.StrategyImages,
		},
		needsRefs: true,
		args: func(req Request, refs []string) map[string]any {
			return map[string]any{
				"prompt":       req.Prompt,
				"image_urls":   refs,
				"resolution":   req.Resolution,
				"aspect_ratio": req.AspectRatio,
				"num_images":   req.NumImages,
			}
		},
	})
}
