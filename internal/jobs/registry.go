// Package jobs runs generation tasks in the background and tracks their
// status for polling clients.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"

	"tryon/internal/domain"
	"tryon/internal/infra"
	"tryon/internal/metrics"
)

const (
	DefaultWorkers  = 4
	maxErrorMessage = 512
)

// ErrClosed is returned by Submit after Shutdown.
var ErrClosed = errors.New("jobs: registry is shut down")

// Task produces the result of one job.
type Task func(ctx context.Context) (*domain.Result, error)

type Options struct {
	Workers int
	// TaskTimeout bounds a single task; zero means no limit.
	TaskTimeout time.Duration
	Logger      *infra.Logger
	Now         func() time.Time
}

// Registry owns every job. Jobs start as processing and make exactly one
// transition to completed or failed, written only by the worker that ran
// the task.
type Registry struct {
	store   *Store
	sem     chan struct{}
	timeout time.Duration
	logger  *infra.Logger
	now     func() time.Time

	mu      sync.Mutex
	waiters map[string]chan struct{}
	closed  bool
	wg      sync.WaitGroup
}

func NewRegistry(opts Options) *Registry {
	workers := opts.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Registry{
		store:   NewStore(),
		sem:     make(chan struct{}, workers),
		timeout: opts.TaskTimeout,
		logger:  infra.OrDiscard(opts.Logger),
		now:     now,
		waiters: make(map[string]chan struct{}),
	}
}

// SubmitOption decorates a job before it is stored.
type SubmitOption func(*domain.Job)

// WithCountry records the client country on the job.
func WithCountry(code string) SubmitOption {
	return func(j *domain.Job) { j.Country = code }
}

// Submit stores a processing job and runs task in the background. The task
// context keeps ctx's values but not its cancellation, so the job outlives
// the request that created it.
func (r *Registry) Submit(ctx context.Context, kind domain.JobKind, payload any, task Task, opts ...SubmitOption) (domain.Job, error) {
	if task == nil {
		return domain.Job{}, errors.New("jobs: nil task")
	}
	now := r.now().UTC()
	job := domain.Job{
		ID:        uuid.NewString(),
		Kind:      kind,
		Status:    domain.JobStatusProcessing,
		Payload:   payload,
		CreatedAt: now,
		UpdatedAt: now,
	}
	for _, opt := range opts {
		opt(&job)
	}

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return domain.Job{}, ErrClosed
	}
	r.store.Put(job)
	r.waiters[job.ID] = make(chan struct{})
	r.wg.Add(1)
	r.mu.Unlock()

	metrics.JobStarted(string(kind))
	r.logger.Info().Str("job_id", job.ID).Str("kind", string(kind)).Msg("job submitted")

	go r.run(context.WithoutCancel(ctx), job.ID, kind, task)
	return job.Clone(), nil
}

func (r *Registry) run(ctx context.Context, id string, kind domain.JobKind, task Task) {
	defer r.wg.Done()

	r.sem <- struct{}{}
	defer func() { <-r.sem }()

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	res, err := r.execute(ctx, id, task)
	r.finish(id, kind, res, err)
}

func (r *Registry) execute(ctx context.Context, id string, task Task) (res *domain.Result, err error) {
	defer func() {
		if p := recover(); p != nil {
			r.logger.Error().
				Str("job_id", id).
				Interface("panic", p).
				Bytes("stack", debug.Stack()).
				Msg("job panicked")
			res, err = nil, fmt.Errorf("internal error: %v", p)
		}
	}()
	res, err = task(ctx)
	if err == nil && res == nil {
		err = errors.New("task returned no result")
	}
	return res, err
}

func (r *Registry) finish(id string, kind domain.JobKind, res *domain.Result, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	job, ok := r.store.Get(id)
	if !ok || job.Status.IsTerminal() {
		r.logger.Warn().Str("job_id", id).Msg("ignoring second transition")
		return
	}
	job.UpdatedAt = r.now().UTC()
	if err != nil {
		job.Status = domain.JobStatusFailed
		job.Error = domain.Truncate(err.Error(), maxErrorMessage)
		r.logger.Error().Err(err).Str("job_id", id).Msg("job failed")
	} else {
		job.Status = domain.JobStatusCompleted
		job.Asset = res.PrimaryAsset()
		job.Files = res.LocalFiles
		job.MetadataFile = res.MetadataFile
		job.LatencySec = res.LatencySec
		job.Model = res.Provider
		if res.VideoModel != "" {
			job.Model = res.VideoModel
		}
		r.logger.Info().Str("job_id", id).Float64("latency_sec", res.LatencySec).Msg("job completed")
	}
	r.store.Put(job)
	metrics.JobFinished(string(kind), string(job.Status))

	if ch, ok := r.waiters[id]; ok {
		close(ch)
		delete(r.waiters, id)
	}
}

// Get returns a snapshot of the job.
func (r *Registry) Get(id string) (domain.Job, error) {
	job, ok := r.store.Get(id)
	if !ok {
		return domain.Job{}, fmt.Errorf("job %s: %w", id, domain.ErrNotFound)
	}
	return job, nil
}

// Wait blocks until the job is terminal or ctx is done.
func (r *Registry) Wait(ctx context.Context, id string) (domain.Job, error) {
	r.mu.Lock()
	ch, pending := r.waiters[id]
	r.mu.Unlock()

	if pending {
		select {
		case <-ch:
		case <-ctx.Done():
			return domain.Job{}, ctx.Err()
		}
	}
	return r.Get(id)
}

// Len reports how many jobs are tracked.
func (r *Registry) Len() int { return r.store.Len() }

// Shutdown rejects new submissions and waits for running jobs.
func (r *Registry) Shutdown(ctx context.Context) error {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("jobs: shutdown: %w", ctx.Err())
	}
}
