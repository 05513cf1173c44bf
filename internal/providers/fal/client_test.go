package fal

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"tryon/internal/domain"
)

type fakeQueue struct {
	mu         sync.Mutex
	failFirst  int
	failStatus int
	submits    int
	polls      map[string]int
	lastPath   string
	lastAuth   string
	lastArgs   map[string]any
	result     map[string]any
	statusErr  string
	srv        *httptest.Server
}

func newFakeQueue(t *testing.T, result map[string]any) *fakeQueue {
	t.Helper()
	q := &fakeQueue{result: result, polls: map[string]int{}}
	q.srv = httptest.NewServer(http.HandlerFunc(q.serve))
	t.Cleanup(q.srv.Close)
	return q
}

func (q *fakeQueue) serve(w http.ResponseWriter, r *http.Request) {
	q.mu.Lock()
	defer q.mu.Unlock()

	switch {
	case r.Method == http.MethodPost:
		q.submits++
		q.lastPath = r.URL.Path
		q.lastAuth = r.Header.Get("Authorization")
		q.lastArgs = nil
		_ = json.NewDecoder(r.Body).Decode(&q.lastArgs)
		if q.submits <= q.failFirst {
			http.Error(w, `{"detail":"unavailable"}`, q.failStatus)
			return
		}
		id := "req-" + strings.Repeat("x", q.submits)
		writeJSON(w, map[string]any{
			"request_id":   id,
			"status_url":   q.srv.URL + "/status/" + id,
			"response_url": q.srv.URL + "/result/" + id,
		})
	case strings.HasPrefix(r.URL.Path, "/status/"):
		id := strings.TrimPrefix(r.URL.Path, "/status/")
		q.polls[id]++
		if q.statusErr != "" {
			writeJSON(w, map[string]any{"status": StatusCompleted, "error": q.statusErr})
			return
		}
		if q.polls[id] == 1 {
			writeJSON(w, map[string]any{
				"status": StatusInProgress,
				"logs":   []any{map[string]any{"message": "step 1"}},
			})
			return
		}
		writeJSON(w, map[string]any{
			"status": StatusCompleted,
			"logs":   []any{map[string]any{"message": "step 1"}, map[string]any{"message": "step 2"}},
		})
	case strings.HasPrefix(r.URL.Path, "/result/"):
		writeJSON(w, q.result)
	default:
		http.NotFound(w, r)
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func fastRetry() RetryPolicy {
	return RetryPolicy{MaxAttempts: 5, MinDelay: time.Millisecond, MaxDelay: 4 * time.Millisecond}
}

func newTestClient(t *testing.T, q *fakeQueue, progress ProgressFunc) *Client {
	t.Helper()
	client, err := NewClient(Options{
		APIKey:       "secret",
		QueueURL:     q.srv.URL,
		PollInterval: time.Millisecond,
		Retry:        fastRetry(),
		OnProgress:   progress,
	})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return client
}

func TestNewClientRequiresAPIKey(t *testing.T) {
	if _, err := NewClient(Options{APIKey: "  "}); !errors.Is(err, ErrMissingAPIKey) {
		t.Fatalf("err = %v, want ErrMissingAPIKey", err)
	}
}

func TestCallSubmitsPollsAndFetches(t *testing.T) {
	want := map[string]any{"images": []any{map[string]any{"url": "https://cdn.example.com/out.png"}}}
	q := newFakeQueue(t, want)

	var (
		mu       sync.Mutex
		messages []string
	)
	client := newTestClient(t, q, func(model, message string) {
		mu.Lock()
		defer mu.Unlock()
		messages = append(messages, model+":"+message)
	})

	got, err := client.Call(context.Background(), "fal-ai/nano-banana/edit", map[string]any{"prompt": "hello"})
	if err != nil {
		t.Fatalf("call: %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("result = %#v, want %#v", got, want)
	}
	if q.lastPath != "/fal-ai/nano-banana/edit" {
		t.Fatalf("submit path = %q", q.lastPath)
	}
	if q.lastAuth != "Key secret" {
		t.Fatalf("authorization = %q, want %q", q.lastAuth, "Key secret")
	}
	if q.lastArgs["prompt"] != "hello" {
		t.Fatalf("args = %#v", q.lastArgs)
	}
	wantMessages := []string{"fal-ai/nano-banana/edit:step 1", "fal-ai/nano-banana/edit:step 2"}
	if !reflect.DeepEqual(messages, wantMessages) {
		t.Fatalf("progress = %#v, want %#v", messages, wantMessages)
	}
}

func TestCallRetriesTransientFailures(t *testing.T) {
	result := map[string]any{"video": map[string]any{"url": "https://cdn.example.com/v.mp4"}}

	flaky := newFakeQueue(t, result)
	flaky.failFirst = 2
	flaky.failStatus = http.StatusServiceUnavailable
	steady := newFakeQueue(t, result)

	gotFlaky, err := newTestClient(t, flaky, nil).Call(context.Background(), "xai/grok", nil)
	if err != nil {
		t.Fatalf("flaky call: %v", err)
	}
	gotSteady, err := newTestClient(t, steady, nil).Call(context.Background(), "xai/grok", nil)
	if err != nil {
		t.Fatalf("steady call: %v", err)
	}
	if flaky.submits != 3 {
		t.Fatalf("flaky submits = %d, want 3", flaky.submits)
	}
	if steady.submits != 1 {
		t.Fatalf("steady submits = %d, want 1", steady.submits)
	}
	if !reflect.DeepEqual(gotFlaky, gotSteady) {
		t.Fatalf("retried result %#v differs from first-try result %#v", gotFlaky, gotSteady)
	}
}

func TestCallExhaustsRetryBudget(t *testing.T) {
	q := newFakeQueue(t, nil)
	q.failFirst = 100
	q.failStatus = http.StatusBadGateway

	_, err := newTestClient(t, q, nil).Call(context.Background(), "fal-ai/ltx", nil)
	var callErr *domain.ProviderCallError
	if !errors.As(err, &callErr) {
		t.Fatalf("err = %v, want *domain.ProviderCallError", err)
	}
	if callErr.Attempts != 5 {
		t.Fatalf("attempts = %d, want 5", callErr.Attempts)
	}
	if q.submits != 5 {
		t.Fatalf("submits = %d, want 5", q.submits)
	}
	if callErr.Trace == "" {
		t.Fatalf("expected a captured trace")
	}
	var httpErr *HTTPError
	if !errors.As(err, &httpErr) || httpErr.StatusCode != http.StatusBadGateway {
		t.Fatalf("last error = %v, want http 502", callErr.Err)
	}
}

func TestCallDoesNotRetryClientErrors(t *testing.T) {
	q := newFakeQueue(t, nil)
	q.failFirst = 100
	q.failStatus = http.StatusUnprocessableEntity

	_, err := newTestClient(t, q, nil).Call(context.Background(), "fal-ai/flux", nil)
	if !errors.Is(err, domain.ErrProviderCall) {
		t.Fatalf("err = %v, want ErrProviderCall", err)
	}
	if q.submits != 1 {
		t.Fatalf("submits = %d, want 1", q.submits)
	}
}

func TestCallRetriesThrottling(t *testing.T) {
	q := newFakeQueue(t, map[string]any{"ok": true})
	q.failFirst = 1
	q.failStatus = http.StatusTooManyRequests

	if _, err := newTestClient(t, q, nil).Call(context.Background(), "fal-ai/flux", nil); err != nil {
		t.Fatalf("call: %v", err)
	}
	if q.submits != 2 {
		t.Fatalf("submits = %d, want 2", q.submits)
	}
}

func TestCallSurfacesRemoteError(t *testing.T) {
	q := newFakeQueue(t, nil)
	q.statusErr = "nsfw content detected"

	_, err := newTestClient(t, q, nil).Call(context.Background(), "fal-ai/qwen", nil)
	var remote *RemoteError
	if !errors.As(err, &remote) {
		t.Fatalf("err = %v, want *RemoteError", err)
	}
	if !strings.Contains(remote.Message, "nsfw") {
		t.Fatalf("message = %q", remote.Message)
	}
}

func TestCallStopsOnCancelledContext(t *testing.T) {
	q := newFakeQueue(t, nil)
	q.failFirst = 100
	q.failStatus = http.StatusServiceUnavailable

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := newTestClient(t, q, nil).Call(ctx, "fal-ai/ltx", nil)
	if err == nil {
		t.Fatalf("expected error for cancelled context")
	}
	if q.submits > 1 {
		t.Fatalf("submits = %d, want at most 1", q.submits)
	}
}

func TestRetryableClassification(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"network", errors.New("connection reset"), true},
		{"server", &HTTPError{StatusCode: 500}, true},
		{"timeout", &HTTPError{StatusCode: 408}, true},
		{"throttled", &HTTPError{StatusCode: 429}, true},
		{"bad request", &HTTPError{StatusCode: 400}, false},
		{"unauthorized", &HTTPError{StatusCode: 401}, false},
		{"unprocessable", &HTTPError{StatusCode: 422}, false},
		{"remote", &RemoteError{Message: "worker crashed"}, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := retryable(tc.err); got != tc.want {
				t.Fatalf("retryable(%v) = %v, want %v", tc.err, got, tc.want)
			}
		})
	}
}

func TestDefaultRetryPolicySchedule(t *testing.T) {
	b := DefaultRetryPolicy().backOff(context.Background())
	b.Reset()
	want := []time.Duration{2 * time.Second, 4 * time.Second, 8 * time.Second, 16 * time.Second}
	for i, w := range want {
		if got := b.NextBackOff(); got != w {
			t.Fatalf("wait %d = %s, want %s", i, got, w)
		}
	}
	if got := b.NextBackOff(); got != -1 {
		t.Fatalf("after 4 waits NextBackOff = %s, want Stop", got)
	}
}
