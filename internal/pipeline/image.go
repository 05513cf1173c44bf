// Package pipeline composes prompts and references and drives the image and
// video adapters.
package pipeline

import (
	"context"
	"fmt"
	"strings"

	"tryon/internal/domain"
	"tryon/internal/infra"
	"tryon/internal/providers/image"
)

// ImageInput is one try-on request.
type ImageInput struct {
	Person       PersonAttributes
	Environment  EnvironmentAttributes
	Description  string
	PersonImage  domain.Reference
	FaceImage    *domain.Reference
	OutfitImages []domain.Reference
	// Model is an image adapter key; empty selects the pipeline default.
	Model string
}

// ImageLookup resolves image adapter keys. *image.Registry implements it.
type ImageLookup interface {
	Lookup(key string) (image.Generator, error)
}

type ImagePipeline struct {
	adapters     ImageLookup
	defaultModel string
	logger       *infra.Logger
}

func NewImagePipeline(adapters ImageLookup, defaultModel string, logger *infra.Logger) *ImagePipeline {
	if strings.TrimSpace(defaultModel) == "" {
		defaultModel = image.KeyNanoBananaEdit
	}
	return &ImagePipeline{adapters: adapters, defaultModel: defaultModel, logger: infra.OrDiscard(logger)}
}

// DefaultModel reports the adapter used when ImageInput.Model is empty.
func (p *ImagePipeline) DefaultModel() string { return p.defaultModel }

// Run performs the single-stage try-on and tags the result "combined".
func (p *ImagePipeline) Run(ctx context.Context, in ImageInput, persist bool) (*domain.Result, error) {
	if strings.TrimSpace(in.PersonImage.Value) == "" {
		return nil, domain.NewValidationError("person_image", "person_image is required")
	}
	gen, err := p.adapter(in.Model)
	if err != nil {
		return nil, err
	}
	env := in.Environment.withDefaults()

	refs := []domain.Reference{in.PersonImage}
	if in.FaceImage != nil && strings.TrimSpace(in.FaceImage.Value) != "" {
		refs = append(refs, *in.FaceImage)
	}
	refs = append(refs, in.OutfitImages...)

	req := image.Request{
		Prompt:     CombinedPrompt(in.Description, env, len(in.OutfitImages) > 0),
		Resolution: image.DefaultResolution,
		NumImages:  1,
		References: refs,
	}
	p.logger.Info().Str("model", gen.Key()).Int("references", len(refs)).Str("apparel", env.ApparelType).Msg("image pipeline")

	res, err := gen.Generate(ctx, req, persist)
	if err != nil {
		return nil, fmt.Errorf("%s stage: %w", domain.StageCombined, err)
	}
	res.Stage = domain.StageCombined
	return res, nil
}

// TwoStageResult carries both results of RunTwoStage.
type TwoStageResult struct {
	Identity *domain.Result
	Outfit   *domain.Result
}

// RunTwoStage first renders the identity with nano-banana, then applies the
// outfit references with nano-banana-edit over the identity image.
func (p *ImagePipeline) RunTwoStage(ctx context.Context, in ImageInput, persist bool) (*TwoStageResult, error) {
	if strings.TrimSpace(in.PersonImage.Value) == "" {
		return nil, domain.NewValidationError("person_image", "person_image is required")
	}
	identityGen, err := p.adapters.Lookup(image.KeyNanoBanana)
	if err != nil {
		return nil, err
	}
	editGen, err := p.adapters.Lookup(image.KeyNanoBananaEdit)
	if err != nil {
		return nil, err
	}
	person := in.Person.withDefaults()
	env := in.Environment.withDefaults()

	refs := []domain.Reference{in.PersonImage}
	if in.FaceImage != nil && strings.TrimSpace(in.FaceImage.Value) != "" {
		refs = append(refs, *in.FaceImage)
	}
	identity, err := identityGen.Generate(ctx, image.Request{
		Prompt:     IdentityPrompt(person, env, in.Description),
		NumImages:  1,
		References: refs,
	}, persist)
	if err != nil {
		return nil, fmt.Errorf("%s stage: %w", domain.StageIdentity, err)
	}
	identity.Stage = domain.StageIdentity

	base := domain.ParseReference(identity.PrimaryAsset())
	outfit, err := editGen.Generate(ctx, image.Request{
		Prompt:     OutfitEditPrompt(len(in.OutfitImages)),
		NumImages:  1,
		References: append([]domain.Reference{base}, in.OutfitImages...),
	}, persist)
	if err != nil {
		return nil, fmt.Errorf("%s stage: %w", domain.StageOutfit, err)
	}
	outfit.Stage = domain.StageOutfit
	return &TwoStageResult{Identity: identity, Outfit: outfit}, nil
}

func (p *ImagePipeline) adapter(key string) (image.Generator, error) {
	if strings.TrimSpace(key) == "" {
		key = p.defaultModel
	}
	return p.adapters.Lookup(key)
}

// CheckModel reports whether key names a known image adapter. Empty is the
// default and always valid.
func (p *ImagePipeline) CheckModel(key string) error {
	_, err := p.adapter(key)
	return err
}
