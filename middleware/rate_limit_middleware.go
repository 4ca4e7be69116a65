package middleware

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/time/rate"
)

var ErrRateLimited = errors.New("rate limit exceeded")

// RateLimiter keeps a token bucket per controller id: r frames per second
// with the given burst. Buckets live until Forget is called for the id.
type RateLimiter struct {
	limit rate.Limit
	burst int

	mu       sync.Mutex
	limiters map[uint16]*rate.Limiter
}

func NewRateLimiter(r float64, burst int) *RateLimiter {
	return &RateLimiter{
		limit:    rate.Limit(r),
		burst:    burst,
		limiters: make(map[uint16]*rate.Limiter),
	}
}

func (rl *RateLimiter) limiter(id uint16) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	l, ok := rl.limiters[id]
	if !ok {
		l = rate.NewLimiter(rl.limit, rl.burst)
		rl.limiters[id] = l
	}
	return l
}

// Forget drops the bucket of a controller that left. A later controller
// under the same id starts with a full bucket.
func (rl *RateLimiter) Forget(id uint16) {
	rl.mu.Lock()
	delete(rl.limiters, id)
	rl.mu.Unlock()
}

// Len returns the number of buckets held.
func (rl *RateLimiter) Len() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.limiters)
}

// Middleware rejects frames over the limit with ErrRateLimited before they
// are decoded.
func (rl *RateLimiter) Middleware() Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, req *Request) ([]byte, error) {
			if !rl.limiter(req.ControllerID).Allow() {
				return nil, ErrRateLimited
			}
			return next(ctx, req)
		}
	}
}

// RateLimitMiddleware is a rate limit whose buckets are never forgotten.
// Use NewRateLimiter when controller ids are reused.
func RateLimitMiddleware(r float64, burst int) Middleware {
	return NewRateLimiter(r, burst).Middleware()
}
