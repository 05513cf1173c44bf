package pipeline

import (
	"context"
	"fmt"
	"strings"

	"tryon/internal/domain"
	"tryon/internal/infra"
	"tryon/internal/providers/video"
)

// VideoInput is one image-to-video request.
type VideoInput struct {
	Reference   domain.Reference
	Apparel     string
	Motion      string
	Model       string
	DurationSec int
}

// VideoLookup resolves video model keys. *video.Registry implements it.
type VideoLookup interface {
	Lookup(key string) (video.Generator, error)
}

type VideoPipeline struct {
	adapters     VideoLookup
	defaultModel string
	logger       *infra.Logger
}

func NewVideoPipeline(adapters VideoLookup, defaultModel string, logger *infra.Logger) *VideoPipeline {
	if strings.TrimSpace(defaultModel) == "" {
		defaultModel = string(video.ModelGrok)
	}
	return &VideoPipeline{adapters: adapters, defaultModel: defaultModel, logger: infra.OrDiscard(logger)}
}

func (p *VideoPipeline) DefaultModel() string { return p.defaultModel }

// Prepare resolves the adapter and validates the request without calling
// the provider, so bad input can be rejected before a job is created.
func (p *VideoPipeline) Prepare(in VideoInput) (video.Generator, video.Request, error) {
	key := in.Model
	if strings.TrimSpace(key) == "" {
		key = p.defaultModel
	}
	gen, err := p.adapters.Lookup(key)
	if err != nil {
		return nil, video.Request{}, err
	}
	req := video.Request{
		Prompt:      VideoPrompt(in.Apparel, in.Motion),
		Reference:   in.Reference,
		DurationSec: in.DurationSec,
		NumVideos:   1,
	}.WithDefaults()
	if err := req.Validate(); err != nil {
		return nil, video.Request{}, err
	}
	return gen, req, nil
}

// Run generates the clip and tags the result "video" with the model key.
func (p *VideoPipeline) Run(ctx context.Context, in VideoInput, persist bool) (*domain.Result, error) {
	gen, req, err := p.Prepare(in)
	if err != nil {
		return nil, err
	}
	p.logger.Info().Str("video_model", string(gen.Model())).Int("duration_sec", req.DurationSec).Msg("video pipeline")

	res, err := gen.Generate(ctx, req, persist)
	if err != nil {
		return nil, fmt.Errorf("%s stage: %w", domain.StageVideo, err)
	}
	res.Stage = domain.StageVideo
	res.VideoModel = string(gen.Model())
	return res, nil
}
