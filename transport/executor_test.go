package transport_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/seayoo-io/combo-sdk-go/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastPolicy(maxRetry int, resolve transport.Resolve) transport.RetryPolicy {
	return transport.RetryPolicy{MaxRetry: maxRetry, Interval: time.Millisecond, Resolve: resolve}
}

func TestExecute_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "combo-test", r.UserAgent())
		assert.Equal(t, "yes", r.Header.Get("X-Custom"))
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"1"}`))
	}))
	defer srv.Close()

	e := transport.NewExecutor(transport.WithUserAgent("combo-test"))
	resp := e.Execute(context.Background(), transport.Request{
		Method: http.MethodPost,
		URL:    srv.URL,
		Header: http.Header{"X-Custom": {"yes"}},
		Body:   []byte(`{}`),
	})

	require.True(t, resp.OK())
	assert.Equal(t, http.StatusCreated, resp.Status)
	assert.Equal(t, 1, resp.Attempts)
	assert.NoError(t, resp.Err())

	v, err := transport.DecodeJSON[struct {
		ID string `json:"id"`
	}](resp)
	require.NoError(t, err)
	assert.Equal(t, "1", v.ID)
}

func TestExecute_RetryOnStatus(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	e := transport.NewExecutor(transport.WithRetryPolicy(fastPolicy(5, transport.ResolveStatus)))
	resp := e.Execute(context.Background(), transport.Request{Method: http.MethodPost, URL: srv.URL})

	assert.True(t, resp.OK())
	assert.Equal(t, 3, resp.Attempts)
	assert.Equal(t, int32(3), hits.Load())
}

func TestExecute_NetworkResolveKeepsStatusErrors(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	e := transport.NewExecutor(transport.WithRetryPolicy(fastPolicy(5, transport.ResolveNetwork)))
	resp := e.Execute(context.Background(), transport.Request{Method: http.MethodPost, URL: srv.URL})

	assert.Equal(t, http.StatusInternalServerError, resp.Status)
	assert.Equal(t, int32(1), hits.Load())
}

func TestExecute_NetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	var results []string
	e := transport.NewExecutor(
		transport.WithRetryPolicy(fastPolicy(2, transport.ResolveNetwork)),
		transport.WithObserver(func(r string) { results = append(results, r) }),
	)
	resp := e.Execute(context.Background(), transport.Request{Method: http.MethodPost, URL: url})

	assert.Equal(t, transport.StatusNetworkError, resp.Status)
	assert.Equal(t, 3, resp.Attempts)
	assert.Error(t, resp.Cause)
	assert.Equal(t, []string{"network_error", "network_error", "network_error"}, results)

	apiErr, ok := transport.IsAPIError(resp.Err())
	require.True(t, ok)
	assert.True(t, apiErr.IsRetryable())
}

func TestExecute_RetryCap(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	var intervals []int
	policy := transport.RetryPolicy{
		MaxRetry: 50,
		Resolve:  transport.ResolveStatus,
		IntervalFunc: func(retry int) time.Duration {
			intervals = append(intervals, retry)
			return 0
		},
	}
	e := transport.NewExecutor()
	start := time.Now()
	resp := e.Execute(context.Background(), transport.Request{Method: http.MethodPut, URL: srv.URL, Retry: &policy})

	assert.Equal(t, transport.MaxRetryLimit+1, resp.Attempts)
	assert.Equal(t, int32(transport.MaxRetryLimit+1), hits.Load())
	assert.Equal(t, []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, intervals)
	// Every wait is raised to the floor.
	assert.GreaterOrEqual(t, time.Since(start), transport.MaxRetryLimit*transport.MinRetryInterval)
}

func TestExecute_CancelStopsRetrying(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
	defer cancel()
	e := transport.NewExecutor(transport.WithRetryPolicy(transport.RetryPolicy{
		MaxRetry: 10, Interval: time.Second, Resolve: transport.ResolveStatus,
	}))
	resp := e.Execute(ctx, transport.Request{Method: http.MethodPost, URL: srv.URL})

	assert.Equal(t, http.StatusServiceUnavailable, resp.Status)
	assert.Equal(t, 1, resp.Attempts)
}

func TestExecute_HookRunsPerAttempt(t *testing.T) {
	var seen []string
	var mu sync.Mutex
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		seen = append(seen, r.Header.Get("X-Attempt"))
		mu.Unlock()
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	e := transport.NewExecutor(
		transport.WithRetryPolicy(fastPolicy(2, transport.ResolveStatus)),
		transport.WithRequestHook(func(req *http.Request, body []byte, attempt int) error {
			req.Header.Set("X-Attempt", string(rune('a'+attempt)))
			return nil
		}),
	)
	e.Execute(context.Background(), transport.Request{Method: http.MethodPost, URL: srv.URL})

	assert.Equal(t, []string{"a", "b", "c"}, seen)
}

func TestExecute_HookError(t *testing.T) {
	e := transport.NewExecutor(transport.WithRequestHook(func(*http.Request, []byte, int) error {
		return errors.New("no key")
	}))
	resp := e.Execute(context.Background(), transport.Request{Method: http.MethodPost, URL: "http://127.0.0.1:1"})

	assert.Equal(t, transport.StatusRequestError, resp.Status)
	assert.Equal(t, "RequestHookError", resp.StatusText)
}

func TestExecute_RelativeURL(t *testing.T) {
	resp := transport.NewExecutor().Execute(context.Background(), transport.Request{URL: "/v1/server"})

	assert.Equal(t, transport.StatusRequestError, resp.Status)
	assert.Equal(t, "URLFormatError", resp.StatusText)
}

func TestExecute_GetCoalescing(t *testing.T) {
	var hits atomic.Int32
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		<-release
		_, _ = w.Write([]byte(`ok`))
	}))
	defer srv.Close()

	e := transport.NewExecutor(transport.WithCacheTTL(time.Minute))
	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp := e.Execute(context.Background(), transport.Request{URL: srv.URL + "/items"})
			assert.Equal(t, "ok", string(resp.Body))
		}()
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	// Served from the cache.
	e.Execute(context.Background(), transport.Request{URL: srv.URL + "/items"})
	assert.Equal(t, int32(1), hits.Load())

	// Other urls and other methods are not shared.
	e.Execute(context.Background(), transport.Request{URL: srv.URL + "/other"})
	e.Execute(context.Background(), transport.Request{Method: http.MethodPost, URL: srv.URL + "/items"})
	assert.Equal(t, int32(3), hits.Load())
}

func TestExecute_CacheExpires(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer srv.Close()

	e := transport.NewExecutor(transport.WithCacheTTL(20 * time.Millisecond))
	e.Execute(context.Background(), transport.Request{URL: srv.URL})
	time.Sleep(60 * time.Millisecond)
	e.Execute(context.Background(), transport.Request{URL: srv.URL})

	assert.Equal(t, int32(2), hits.Load())
}
