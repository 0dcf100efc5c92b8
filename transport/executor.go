// Package transport sends outbound HTTP calls with bounded retries.
//
// Execute never returns an error: local and network failures come back as a
// Response with a negative Status. Concurrent identical GET calls share one
// round trip and the result is reused for a short time.
package transport

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// DefaultCacheTTL is how long a GET result is reused.
const DefaultCacheTTL = 500 * time.Millisecond

// Request is one logical call.
type Request struct {
	Method string
	// URL must be absolute.
	URL    string
	Header http.Header
	Body   []byte
	// Retry overrides the executor policy for this call.
	Retry *RetryPolicy
}

// RequestHook runs before every physical attempt, numbered from 0. It is
// where per-attempt headers such as signatures are set.
type RequestHook func(req *http.Request, body []byte, attempt int) error

// Executor sends Requests. It is safe for concurrent use.
type Executor struct {
	client    *http.Client
	policy    RetryPolicy
	hooks     []RequestHook
	userAgent string
	logger    *zap.Logger
	observer  func(result string)
	cacheTTL  time.Duration
	cache     *cache.Cache
	group     singleflight.Group
}

type Option func(*Executor)

func WithHTTPClient(c *http.Client) Option {
	return func(e *Executor) { e.client = c }
}

func WithRetryPolicy(p RetryPolicy) Option {
	return func(e *Executor) { e.policy = p }
}

func WithRequestHook(h RequestHook) Option {
	return func(e *Executor) { e.hooks = append(e.hooks, h) }
}

func WithUserAgent(ua string) Option {
	return func(e *Executor) { e.userAgent = ua }
}

func WithLogger(logger *zap.Logger) Option {
	return func(e *Executor) { e.logger = logger }
}

// WithObserver is called after every attempt with "ok", "status_error" or
// "network_error".
func WithObserver(fn func(result string)) Option {
	return func(e *Executor) { e.observer = fn }
}

// WithCacheTTL sets how long GET results are reused; zero disables reuse
// but keeps coalescing of concurrent calls.
func WithCacheTTL(ttl time.Duration) Option {
	return func(e *Executor) { e.cacheTTL = max(ttl, 0) }
}

func NewExecutor(opts ...Option) *Executor {
	e := &Executor{
		client:   &http.Client{Timeout: 10 * time.Second},
		policy:   DefaultRetryPolicy,
		logger:   zap.NewNop(),
		cacheTTL: DefaultCacheTTL,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.cacheTTL > 0 {
		e.cache = cache.New(e.cacheTTL, 2*e.cacheTTL)
	}
	return e
}

// Execute sends req, retrying according to the policy.
func (e *Executor) Execute(ctx context.Context, req Request) *Response {
	if req.Method == "" {
		req.Method = http.MethodGet
	}
	if req.Method != http.MethodGet {
		return e.retry(ctx, req)
	}

	key := req.Method + " " + req.URL
	if e.cache != nil {
		if cached, ok := e.cache.Get(key); ok {
			return cached.(*Response)
		}
	}
	v, _, _ := e.group.Do(key, func() (any, error) {
		resp := e.retry(ctx, req)
		if e.cache != nil {
			e.cache.SetDefault(key, resp)
		}
		return resp, nil
	})
	return v.(*Response)
}

func (e *Executor) retry(ctx context.Context, req Request) *Response {
	policy := e.policy
	if req.Retry != nil {
		policy = *req.Retry
	}
	logger := e.logger.With(zap.String("method", req.Method), zap.String("url", req.URL))

	for attempt := 0; ; attempt++ {
		logger.Debug("prepare", zap.Int("retry", attempt), zap.Int("max_retry", policy.maxRetry()))
		start := time.Now()
		resp := e.send(ctx, req, attempt)
		resp.Attempts = attempt + 1
		logger.Debug("finished",
			zap.Int("retry", attempt),
			zap.Int("status", resp.Status),
			zap.Duration("cost", time.Since(start)),
			zap.Error(resp.Cause),
		)
		e.observe(resp)

		if policy.done(resp, attempt) {
			return resp
		}
		if err := sleep(ctx, policy.delay(attempt+1)); err != nil {
			return resp
		}
	}
}

func (e *Executor) send(ctx context.Context, req Request, attempt int) *Response {
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, bytes.NewReader(req.Body))
	if err != nil {
		return &Response{Status: StatusRequestError, StatusText: "URLFormatError", Cause: err}
	}
	if httpReq.URL.Scheme != "http" && httpReq.URL.Scheme != "https" {
		return &Response{Status: StatusRequestError, StatusText: "URLFormatError", Cause: errors.New("url must be absolute")}
	}
	for k, vs := range req.Header {
		httpReq.Header[k] = append([]string(nil), vs...)
	}
	if e.userAgent != "" {
		httpReq.Header.Set("User-Agent", e.userAgent)
	}
	for _, hook := range e.hooks {
		if err := hook(httpReq, req.Body, attempt); err != nil {
			return &Response{Status: StatusRequestError, StatusText: "RequestHookError", Cause: err}
		}
	}

	resp, err := e.client.Do(httpReq)
	if err != nil {
		text := "NetworkError"
		var netErr net.Error
		if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
			text = "Timeout"
		}
		return &Response{Status: StatusNetworkError, StatusText: text, Cause: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &Response{Status: StatusNetworkError, StatusText: "ReadError", Header: resp.Header, Cause: err}
	}
	return &Response{
		Status:     resp.StatusCode,
		StatusText: http.StatusText(resp.StatusCode),
		Header:     resp.Header,
		Body:       body,
	}
}

func (e *Executor) observe(resp *Response) {
	if e.observer == nil {
		return
	}
	switch {
	case resp.Status < 0:
		e.observer("network_error")
	case resp.OK():
		e.observer("ok")
	default:
		e.observer("status_error")
	}
}
