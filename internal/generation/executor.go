// Package generation holds the machinery shared by every provider adapter:
// reference resolution, the provider call, asset extraction and persistence.
package generation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"path"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"tryon/internal/domain"
	"tryon/internal/infra"
	"tryon/internal/media"
	"tryon/internal/metrics"
	"tryon/internal/storage"
)

// Caller performs one provider RPC. *fal.Client implements it.
type Caller interface {
	Call(ctx context.Context, model string, args map[string]any) (map[string]any, error)
}

// MetadataSink receives every metadata record after it is written to disk.
type MetadataSink interface {
	Record(ctx context.Context, rec domain.MetadataRecord) error
}

// Spec is the immutable binding of an adapter to one provider model.
type Spec struct {
	Key        string
	Model      string
	Dir        string
	Family     storage.Family
	Strategy   Strategy
	DefaultExt string
}

// Invocation is one request to run against a Spec. Build receives the
// resolved references in input order and returns the provider arguments.
type Invocation struct {
	Prompt     string
	References []domain.Reference
	Build      func(resolved []string) map[string]any
	Annotate   func(rec *domain.MetadataRecord)
}

// Options wires an Executor.
type Options struct {
	Caller     Caller
	Store      *storage.FileStore
	Downloader *media.Downloader
	Stamper    *storage.Stamper
	Sink       MetadataSink
	Logger     *infra.Logger
	Now        func() time.Time
}

// Executor runs invocations. It keeps no per-request state.
type Executor struct {
	caller     Caller
	store      *storage.FileStore
	downloader *media.Downloader
	stamper    *storage.Stamper
	sink       MetadataSink
	logger     *infra.Logger
	now        func() time.Time
}

// NewExecutor validates opts and fills defaults.
func NewExecutor(opts Options) (*Executor, error) {
	if opts.Caller == nil {
		return nil, errors.New("generation: caller is required")
	}
	downloader := opts.Downloader
	if downloader == nil {
		downloader = media.NewDownloader(nil, 0)
	}
	stamper := opts.Stamper
	if stamper == nil {
		stamper = storage.NewStamper()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Executor{
		caller:     opts.Caller,
		store:      opts.Store,
		downloader: downloader,
		stamper:    stamper,
		sink:       opts.Sink,
		logger:     infra.OrDiscard(opts.Logger),
		now:        now,
	}, nil
}

// Run resolves references, calls the provider and normalizes the response.
// With persist set, every asset is downloaded and a metadata document is
// written; otherwise the remote URLs are returned as the file references.
func (e *Executor) Run(ctx context.Context, spec Spec, inv Invocation, persist bool) (*domain.Result, error) {
	if persist && e.store == nil {
		return nil, errors.New("generation: persistence requested without a store")
	}

	start := time.Now()
	resolved, err := media.ResolveReferences(inv.References)
	if err != nil {
		return nil, err
	}
	args := map[string]any{}
	if inv.Build != nil {
		args = inv.Build(resolved)
	}

	e.logger.Info().Str("provider", spec.Key).Int("references", len(resolved)).Msg("generating")
	raw, err := e.caller.Call(ctx, spec.Model, args)
	if err != nil {
		return nil, err
	}
	latency := time.Since(start)

	urls, err := Extract(spec.Model, spec.Strategy, raw)
	if err != nil {
		e.logger.Error().Err(err).Str("provider", spec.Key).Msg("no assets in response")
		return nil, err
	}
	metrics.ObserveGeneration(spec.Key, latency)

	result := &domain.Result{
		Raw:        raw,
		AssetURLs:  urls,
		LatencySec: latency.Seconds(),
		Provider:   spec.Key,
		Model:      spec.Model,
	}
	if !persist {
		result.LocalFiles = append([]string(nil), urls...)
		return result, nil
	}

	if err := e.persist(ctx, spec, inv, result); err != nil {
		return nil, err
	}
	e.logger.Info().
		Str("provider", spec.Key).
		Int("assets", len(result.LocalFiles)).
		Float64("latency_sec", result.LatencySec).
		Str("metadata", result.MetadataFile).
		Msg("generation saved")
	return result, nil
}

// persist downloads every asset and writes the metadata document. On any
// failure the files written so far are removed.
func (e *Executor) persist(ctx context.Context, spec Spec, inv Invocation, result *domain.Result) error {
	now := e.now()
	stamp := e.stamper.Next()
	part := storage.Partition{Family: spec.Family, Date: now, Provider: spec.Dir}

	keys := make([]string, len(result.AssetURLs))
	g, gctx := errgroup.WithContext(ctx)
	for i, assetURL := range result.AssetURLs {
		i, assetURL := i, assetURL
		key := part.AssetKey(stamp, i, extensionFor(assetURL, spec.DefaultExt))
		g.Go(func() error {
			if err := e.download(gctx, key, assetURL); err != nil {
				return err
			}
			keys[i] = key
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		e.cleanup(keys)
		return err
	}

	files := make([]string, len(keys))
	for i, key := range keys {
		p, err := e.store.Path(key)
		if err != nil {
			e.cleanup(keys)
			return err
		}
		files[i] = p
	}

	record := domain.MetadataRecord{
		Prompt:      inv.Prompt,
		Model:       spec.Model,
		Provider:    spec.Key,
		LatencySec:  result.LatencySec,
		Timestamp:   now.UTC(),
		Files:       files,
		RawResponse: result.Raw,
	}
	if seed, ok := result.Raw["seed"].(float64); ok {
		v := int64(seed)
		record.Seed = &v
	}
	if inv.Annotate != nil {
		inv.Annotate(&record)
	}
	doc, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		e.cleanup(keys)
		return fmt.Errorf("generation: encode metadata: %w", err)
	}
	metaKey, err := e.store.Write(ctx, part.MetadataKey(stamp), doc)
	if err != nil {
		e.cleanup(keys)
		return err
	}
	metaPath, _ := e.store.Path(metaKey)

	if e.sink != nil {
		if err := e.sink.Record(ctx, record); err != nil {
			e.logger.Warn().Err(err).Str("provider", spec.Key).Msg("archive metadata failed")
		}
	}

	result.LocalFiles = files
	result.MetadataFile = metaPath
	return nil
}

func (e *Executor) download(ctx context.Context, key, assetURL string) error {
	w, _, err := e.store.Create(ctx, key)
	if err != nil {
		return err
	}
	_, _, fetchErr := e.downloader.Fetch(ctx, assetURL, w)
	closeErr := w.Close()
	if fetchErr != nil {
		_ = e.store.Remove(key)
		return fetchErr
	}
	if closeErr != nil {
		_ = e.store.Remove(key)
		return fmt.Errorf("generation: close %s: %w", key, closeErr)
	}
	return nil
}

func (e *Executor) cleanup(keys []string) {
	for _, key := range keys {
		if key == "" {
			continue
		}
		if err := e.store.Remove(key); err != nil {
			e.logger.Warn().Err(err).Str("key", key).Msg("cleanup failed")
		}
	}
}

var knownExtensions = map[string]struct{}{
	".png": {}, ".jpg": {}, ".jpeg": {}, ".webp": {}, ".gif": {},
	".mp4": {}, ".webm": {}, ".mov": {},
}

// extensionFor picks the asset file extension from the URL path, falling
// back to def.
func extensionFor(assetURL, def string) string {
	if u, err := url.Parse(assetURL); err == nil {
		ext := strings.ToLower(path.Ext(u.Path))
		if _, ok := knownExtensions[ext]; ok {
			return ext
		}
	}
	if def == "" {
		return ".bin"
	}
	return def
}
