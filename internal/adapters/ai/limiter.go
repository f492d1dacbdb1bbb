package ai

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"
)

// RateLimited wraps a Completer with a shared request budget and a per-call
// deadline.
type RateLimited struct {
	next    Completer
	limiter *rate.Limiter
	timeout time.Duration
}

// NewRateLimited allows requestsPerMinute calls per minute (unlimited when
// not positive). Every call is bounded by timeout when it is positive.
func NewRateLimited(next Completer, requestsPerMinute int, timeout time.Duration) *RateLimited {
	limiter := rate.NewLimiter(rate.Inf, 0)
	if requestsPerMinute > 0 {
		burst := requestsPerMinute / 10
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(requestsPerMinute)), burst)
	}

	return &RateLimited{
		next:    next,
		limiter: limiter,
		timeout: timeout,
	}
}

func (r *RateLimited) Name() string {
	return r.next.Name()
}

func (r *RateLimited) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	if err := r.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limiter: %w", err)
	}

	return r.next.Complete(ctx, req)
}
