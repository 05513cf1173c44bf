package image

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"tryon/internal/domain"
	"tryon/internal/generation"
	"tryon/internal/storage"
)

const (
	DefaultResolution  = "1024x1024"
	DefaultAspectRatio = "1:1"
	maxImages          = 4
)

// Request is the normalized image generation request shared by every adapter.
type Request struct {
	Prompt      string
	Resolution  string
	AspectRatio string
	NumImages   int
	References  []domain.Reference
}

// WithDefaults fills unset fields.
func (r Request) WithDefaults() Request {
	r.Prompt = strings.TrimSpace(r.Prompt)
	if strings.TrimSpace(r.Resolution) == "" {
		r.Resolution = DefaultResolution
	}
	if strings.TrimSpace(r.AspectRatio) == "" {
		r.AspectRatio = DefaultAspectRatio
	}
	if r.NumImages == 0 {
		r.NumImages = 1
	}
	return r
}

// Generator is implemented by every image adapter.
type Generator interface {
	Key() string
	Model() string
	Generate(ctx context.Context, req Request, persist bool) (*domain.Result, error)
}

// definition is the per-provider table entry: the binding plus the argument
// mapping. Each adapter file registers exactly one.
type definition struct {
	spec      generation.Spec
	needsRefs bool
	args      func(req Request, refs []string) map[string]any
}

var definitions = map[string]definition{}

func register(def definition) {
	if _, dup := definitions[def.spec.Key]; dup {
		panic("image: duplicate adapter " + def.spec.Key)
	}
	def.spec.Family = storage.FamilyImages
	if def.spec.DefaultExt == "" {
		def.spec.DefaultExt = ".png"
	}
	definitions[def.spec.Key] = def
}

// Keys lists the registered adapter keys in sorted order.
func Keys() []string {
	keys := make([]string, 0, len(definitions))
	for k := range definitions {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Adapter binds one definition to the shared executor.
type Adapter struct {
	def  definition
	exec *generation.Executor
}

func (a *Adapter) Key() string   { return a.def.spec.Key }
func (a *Adapter) Model() string { return a.def.spec.Model }

// Generate validates req, maps it to the provider arguments and runs it.
func (a *Adapter) Generate(ctx context.Context, req Request, persist bool) (*domain.Result, error) {
	req = req.WithDefaults()
	if err := a.validate(req); err != nil {
		return nil, err
	}
	inv := generation.Invocation{
		Prompt:     req.Prompt,
		References: req.References,
		Build: func(resolved []string) map[string]any {
			return a.def.args(req, resolved)
		},
		Annotate: func(rec *domain.MetadataRecord) {
			rec.Resolution = req.Resolution
			rec.ReferenceImages = describeReferences(req.References)
		},
	}
	return a.exec.Run(ctx, a.def.spec, inv, persist)
}

func (a *Adapter) validate(req Request) error {
	if req.Prompt == "" {
		return domain.NewValidationError("prompt", "prompt is required")
	}
	if req.NumImages < 1 || req.NumImages > maxImages {
		return domain.NewValidationError("num_images", fmt.Sprintf("must be between 1 and %d", maxImages))
	}
	if a.def.needsRefs && len(req.References) == 0 {
		return domain.NewValidationError("reference_images", a.def.spec.Key+" needs at least one reference image")
	}
	return nil
}

// Registry is the closed set of image adapters sharing one executor.
type Registry struct {
	adapters map[string]*Adapter
}

// NewRegistry instantiates every registered adapter over exec.
func NewRegistry(exec *generation.Executor) *Registry {
	r := &Registry{adapters: make(map[string]*Adapter, len(definitions))}
	for key, def := range definitions {
		r.adapters[key] = &Adapter{def: def, exec: exec}
	}
	return r
}

// Lookup returns the adapter for key or a *domain.UnknownModelError.
func (r *Registry) Lookup(key string) (Generator, error) {
	a, ok := r.adapters[strings.TrimSpace(key)]
	if !ok {
		return nil, &domain.UnknownModelError{Key: key, Known: Keys()}
	}
	return a, nil
}

func describeReferences(refs []domain.Reference) []string {
	if len(refs) == 0 {
		return nil
	}
	out := make([]string, len(refs))
	for i, ref := range refs {
		out[i] = ref.Describe()
	}
	return out
}

var _ Generator = (*Adapter)(nil)
