package fal

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/time/rate"

	"tryon/internal/domain"
	"tryon/internal/infra"
	"tryon/internal/metrics"
)

// ErrMissingAPIKey indicates that the client was configured without credentials.
var ErrMissingAPIKey = errors.New("fal: api key is required")

const (
	defaultQueueURL       = "https://queue.fal.run"
	defaultPollInterval   = time.Second
	defaultAttemptTimeout = 10 * time.Minute
	maxTraceBytes         = 2048
	maxErrorBody          = 512
)

// Queue states reported by the status endpoint.
const (
	StatusInQueue    = "IN_QUEUE"
	StatusInProgress = "IN_PROGRESS"
	StatusCompleted  = "COMPLETED"
)

// ProgressFunc receives every log line the queue reports for an in-flight
// request. It is an observability hook only.
type ProgressFunc func(model, message string)

// Options configures the fal queue client.
type Options struct {
	APIKey         string
	QueueURL       string
	HTTPClient     *http.Client
	Logger         *infra.Logger
	PollInterval   time.Duration
	AttemptTimeout time.Duration
	Retry          RetryPolicy
	Limiter        *rate.Limiter
	OnProgress     ProgressFunc
}

// Client submits generation requests to the fal queue, polls them to
// completion and retries failed attempts with exponential backoff.
type Client struct {
	apiKey         string
	queueURL       string
	httpClient     *http.Client
	logger         *infra.Logger
	pollInterval   time.Duration
	attemptTimeout time.Duration
	retry          RetryPolicy
	limiter        *rate.Limiter
	onProgress     ProgressFunc
}

type submitResponse struct {
	RequestID   string `json:"request_id"`
	StatusURL   string `json:"status_url"`
	ResponseURL string `json:"response_url"`
}

type statusResponse struct {
	Status        string     `json:"status"`
	QueuePosition *int       `json:"queue_position,omitempty"`
	Logs          []logEntry `json:"logs"`
	Error         string     `json:"error,omitempty"`
	ResponseURL   string     `json:"response_url,omitempty"`
}

type logEntry struct {
	Message   string `json:"message"`
	Level     string `json:"level,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
}

// NewClient constructs a client with sane defaults and injected dependencies.
func NewClient(opts Options) (*Client, error) {
	apiKey := strings.TrimSpace(opts.APIKey)
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	queueURL := strings.TrimRight(strings.TrimSpace(opts.QueueURL), "/")
	if queueURL == "" {
		queueURL = defaultQueueURL
	}
	poll := opts.PollInterval
	if poll <= 0 {
		poll = defaultPollInterval
	}
	attemptTimeout := opts.AttemptTimeout
	if attemptTimeout <= 0 {
		attemptTimeout = defaultAttemptTimeout
	}
	return &Client{
		apiKey:         apiKey,
		queueURL:       queueURL,
		httpClient:     httpClient,
		logger:         infra.OrDiscard(opts.Logger),
		pollInterval:   poll,
		attemptTimeout: attemptTimeout,
		retry:          opts.Retry.normalized(),
		limiter:        opts.Limiter,
		onProgress:     opts.OnProgress,
	}, nil
}

// Call runs model with args and returns the decoded result document. After
// the retry budget is spent it returns a *domain.ProviderCallError wrapping
// the last failure.
func (c *Client) Call(ctx context.Context, model string, args map[string]any) (map[string]any, error) {
	model = strings.Trim(strings.TrimSpace(model), "/")
	if model == "" {
		return nil, domain.NewValidationError("model", "model identifier is required")
	}

	log := c.logger.With().Str("model", model).Logger()
	log.Info().Msg("calling fal model")
	start := time.Now()

	var (
		attempts int
		result   map[string]any
	)
	operation := func() error {
		attempts++
		metrics.ObserveAttempt(model)
		res, err := c.attempt(ctx, model, args)
		if err == nil {
			result = res
			return nil
		}
		if ctx.Err() != nil || !retryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}
	notify := func(err error, wait time.Duration) {
		log.Warn().Err(err).Int("attempt", attempts).Dur("retry_in", wait).Msg("fal call failed, retrying")
	}

	err := backoff.RetryNotify(operation, c.retry.backOff(ctx), notify)
	metrics.ObserveCall(model, err)
	if err != nil {
		callErr := &domain.ProviderCallError{
			Model:    model,
			Attempts: attempts,
			Err:      err,
			Trace:    domain.Truncate(string(debug.Stack()), maxTraceBytes),
		}
		log.Error().Err(err).Int("attempts", attempts).Str("trace", callErr.Trace).Msg("fal call exhausted retries")
		return nil, callErr
	}

	log.Info().Int("attempts", attempts).Dur("took", time.Since(start)).Msg("fal call complete")
	return result, nil
}

func (c *Client) attempt(ctx context.Context, model string, args map[string]any) (map[string]any, error) {
	ctx, cancel := context.WithTimeout(ctx, c.attemptTimeout)
	defer cancel()

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("fal: rate limit wait: %w", err)
		}
	}

	sub, err := c.submit(ctx, model, args)
	if err != nil {
		return nil, err
	}
	responseURL, err := c.waitForCompletion(ctx, model, sub)
	if err != nil {
		return nil, err
	}
	var result map[string]any
	if err := c.doJSON(ctx, http.MethodGet, responseURL, nil, &result); err != nil {
		return nil, fmt.Errorf("fal: fetch result: %w", err)
	}
	if result == nil {
		return nil, fmt.Errorf("fal: empty result for request %s", sub.RequestID)
	}
	return result, nil
}

func (c *Client) submit(ctx context.Context, model string, args map[string]any) (*submitResponse, error) {
	if args == nil {
		args = map[string]any{}
	}
	body, err := json.Marshal(args)
	if err != nil {
		return nil, fmt.Errorf("fal: encode arguments: %w", err)
	}
	var sub submitResponse
	if err := c.doJSON(ctx, http.MethodPost, c.queueURL+"/"+model, body, &sub); err != nil {
		return nil, fmt.Errorf("fal: submit: %w", err)
	}
	if sub.RequestID == "" {
		return nil, errors.New("fal: submit: response missing request_id")
	}
	base := c.queueURL + "/" + model + "/requests/" + sub.RequestID
	if sub.StatusURL == "" {
		sub.StatusURL = base + "/status"
	}
	if sub.ResponseURL == "" {
		sub.ResponseURL = base
	}
	return &sub, nil
}

// waitForCompletion polls the status endpoint until the request completes
// and returns the URL the result can be fetched from.
func (c *Client) waitForCompletion(ctx context.Context, model string, sub *submitResponse) (string, error) {
	statusURL := withQuery(sub.StatusURL, "logs=1")
	seen := 0
	for {
		var st statusResponse
		if err := c.doJSON(ctx, http.MethodGet, statusURL, nil, &st); err != nil {
			return "", fmt.Errorf("fal: poll status: %w", err)
		}
		if len(st.Logs) > seen {
			for _, entry := range st.Logs[seen:] {
				c.progress(model, entry.Message)
			}
			seen = len(st.Logs)
		}
		if st.Error != "" {
			return "", &RemoteError{RequestID: sub.RequestID, Message: st.Error}
		}
		switch st.Status {
		case StatusCompleted:
			if st.ResponseURL != "" {
				return st.ResponseURL, nil
			}
			return sub.ResponseURL, nil
		case StatusInQueue:
			if st.QueuePosition != nil {
				c.logger.Debug().Str("model", model).Int("queue_position", *st.QueuePosition).Msg("queued")
			}
		case StatusInProgress:
		default:
			return "", fmt.Errorf("fal: unexpected queue status %q", st.Status)
		}

		timer := time.NewTimer(c.pollInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return "", ctx.Err()
		case <-timer.C:
		}
	}
}

func (c *Client) progress(model, message string) {
	message = strings.TrimSpace(message)
	if message == "" {
		return
	}
	c.logger.Debug().Str("model", model).Msg(message)
	if c.onProgress == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			c.logger.Warn().Interface("panic", r).Msg("progress hook panicked")
		}
	}()
	c.onProgress(model, message)
}

func (c *Client) doJSON(ctx context.Context, method, url string, body []byte, out any) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Key "+c.apiKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &HTTPError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(snippet))}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func withQuery(rawURL, query string) string {
	if strings.Contains(rawURL, "?") {
		return rawURL + "&" + query
	}
	return rawURL + "?" + query
}
