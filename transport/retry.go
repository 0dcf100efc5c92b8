package transport

import (
	"context"
	"time"
)

const (
	// MaxRetryLimit caps RetryPolicy.MaxRetry.
	MaxRetryLimit = 10
	// MinRetryInterval is the shortest wait between attempts.
	MinRetryInterval = 100 * time.Millisecond
)

// Resolve selects which results are retried.
type Resolve string

const (
	// ResolveNetwork retries local and network failures only.
	ResolveNetwork Resolve = "network"
	// ResolveStatus also retries responses outside 200-399.
	ResolveStatus Resolve = "status"
)

// RetryPolicy controls retries of one logical call.
type RetryPolicy struct {
	// MaxRetry is the number of retries after the first attempt.
	MaxRetry int
	// Interval is the wait before each retry.
	Interval time.Duration
	// IntervalFunc, when set, overrides Interval. It receives the retry
	// number starting at 1.
	IntervalFunc func(retry int) time.Duration
	Resolve      Resolve
}

// DefaultRetryPolicy retries network failures once.
var DefaultRetryPolicy = RetryPolicy{
	MaxRetry: 1,
	Interval: time.Second,
	Resolve:  ResolveNetwork,
}

func (p RetryPolicy) maxRetry() int {
	return max(0, min(p.MaxRetry, MaxRetryLimit))
}

func (p RetryPolicy) delay(retry int) time.Duration {
	d := p.Interval
	if p.IntervalFunc != nil {
		d = p.IntervalFunc(retry)
	}
	return max(d, MinRetryInterval)
}

// done reports whether resp ends the call.
func (p RetryPolicy) done(resp *Response, attempt int) bool {
	limit := p.maxRetry()
	switch {
	case limit == 0 || attempt >= limit:
		return true
	case resp.Status == StatusRequestError:
		// The same request would fail the same way.
		return true
	case p.Resolve == ResolveStatus:
		return resp.OK()
	default:
		return resp.Status > 0
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
