// Package video holds the image-to-video adapters. Every adapter turns one
// reference image and a prompt into a short clip through the fal queue.
package video

import (
	"context"
	"fmt"
	"strings"

	"tryon/internal/domain"
	"tryon/internal/generation"
	"tryon/internal/storage"
)

// Model is the closed set of video adapter keys.
type Model string

const (
	ModelVeo3     Model = "veo3"
	ModelLTX      Model = "ltx"
	ModelKling    Model = "kling"
	ModelGrok     Model = "grok"
	ModelLuma     Model = "luma"
	ModelPika     Model = "pika"
	ModelSeedance Model = "seedance"
	ModelHunyuan  Model = "hunyuan"
)

// Models lists every model in declaration order.
func Models() []Model {
	return []Model{ModelVeo3, ModelLTX, ModelKling, ModelGrok, ModelLuma, ModelPika, ModelSeedance, ModelHunyuan}
}

// ParseModel maps key onto the closed set.
func ParseModel(key string) (Model, error) {
	m := Model(strings.ToLower(strings.TrimSpace(key)))
	if _, ok := definitions[m]; ok {
		return m, nil
	}
	known := make([]string, 0, len(definitions))
	for _, k := range Models() {
		known = append(known, string(k))
	}
	return "", &domain.UnknownModelError{Key: key, Known: known}
}

const DefaultDurationSec = 4

var supportedDurations = map[int]struct{}{4: {}, 5: {}, 6: {}, 8: {}, 9: {}}

// Request is the normalized video request shared by every adapter.
type Request struct {
	Prompt      string
	Reference   domain.Reference
	DurationSec int
	NumVideos   int
}

// WithDefaults fills unset fields.
func (r Request) WithDefaults() Request {
	r.Prompt = strings.TrimSpace(r.Prompt)
	if r.DurationSec == 0 {
		r.DurationSec = DefaultDurationSec
	}
	if r.NumVideos == 0 {
		r.NumVideos = 1
	}
	return r
}

// Validate checks the request before anything leaves the process.
func (r Request) Validate() error {
	if _, ok := supportedDurations[r.DurationSec]; !ok {
		return domain.NewValidationError("duration_sec", fmt.Sprintf("unsupported duration %d; use 4, 5, 6, 8 or 9", r.DurationSec))
	}
	if r.Prompt == "" {
		return domain.NewValidationError("prompt", "prompt is required")
	}
	if strings.TrimSpace(r.Reference.Value) == "" {
		return domain.NewValidationError("image_file", "a reference image is required")
	}
	if r.NumVideos < 1 {
		return domain.NewValidationError("num_videos", "must be at least 1")
	}
	return nil
}

// Generator is implemented by every video adapter.
type Generator interface {
	Model() Model
	Endpoint() string
	Generate(ctx context.Context, req Request, persist bool) (*domain.Result, error)
}

type definition struct {
	spec generation.Spec
	args func(req Request, ref string) map[string]any
}

var definitions = map[Model]definition{}

func register(m Model, endpoint string, strategy generation.Strategy, args func(Request, string) map[string]any) {
	if _, dup := definitions[m]; dup {
		panic("video: duplicate adapter " + string(m))
	}
	definitions[m] = definition{
		spec: generation.Spec{
			Key:        string(m),
			Model:      endpoint,
			Dir:        string(m),
			Family:     storage.FamilyVideos,
			Strategy:   strategy,
			DefaultExt: ".mp4",
		},
		args: args,
	}
}

// Adapter binds one model to the shared executor.
type Adapter struct {
	model Model
	def   definition
	exec  *generation.Executor
}

func (a *Adapter) Model() Model     { return a.model }
func (a *Adapter) Endpoint() string { return a.def.spec.Model }

// Generate validates req and runs it against the model endpoint.
func (a *Adapter) Generate(ctx context.Context, req Request, persist bool) (*domain.Result, error) {
	req = req.WithDefaults()
	if err := req.Validate(); err != nil {
		return nil, err
	}
	inv := generation.Invocation{
		Prompt:     req.Prompt,
		References: []domain.Reference{req.Reference},
		Build: func(resolved []string) map[string]any {
			return a.def.args(req, resolved[0])
		},
		Annotate: func(rec *domain.MetadataRecord) {
			rec.ReferenceImage = req.Reference.Describe()
			rec.DurationSec = req.DurationSec
		},
	}
	return a.exec.Run(ctx, a.def.spec, inv, persist)
}

// Registry holds one adapter per model.
type Registry struct {
	adapters map[Model]*Adapter
}

func NewRegistry(exec *generation.Executor) *Registry {
	r := &Registry{adapters: make(map[Model]*Adapter, len(definitions))}
	for m, def := range definitions {
		r.adapters[m] = &Adapter{model: m, def: def, exec: exec}
	}
	return r
}

// Lookup parses key and returns its adapter.
func (r *Registry) Lookup(key string) (Generator, error) {
	m, err := ParseModel(key)
	if err != nil {
		return nil, err
	}
	return r.adapters[m], nil
}

// nearest picks the option closest to n; ties go to the shorter clip.
func nearest(n int, options ...int) int {
	best := options[0]
	for _, o := range options[1:] {
		if abs(o-n) < abs(best-n) {
			best = o
		}
	}
	return best
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

var _ Generator = (*Adapter)(nil)
