package cache

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// Memoize wraps an expensive function with read-through caching.
// keyFn derives the cache key from the argument. Concurrent callers
// for the same key are coalesced so fn runs at most once per miss.
// Errors are never cached; a failed call clears its in-flight slot
// so a later call can retry.
func Memoize[A any, V any](c *Cache[V], keyFn func(A) string, fn func(context.Context, A) (V, error)) func(context.Context, A) (V, error) {
	var group singleflight.Group

	return func(ctx context.Context, arg A) (V, error) {
		key := keyFn(arg)
		if v, ok := c.Get(key); ok {
			return v, nil
		}

		res, err, _ := group.Do(key, func() (any, error) {
			// Re-check: another caller may have populated the cache
			// between our miss and winning the flight.
			if v, ok := c.Get(key); ok {
				return v, nil
			}
			v, err := fn(ctx, arg)
			if err != nil {
				return nil, err
			}
			c.Set(key, v)
			return v, nil
		})
		if err != nil {
			var zero V
			return zero, err
		}
		return res.(V), nil
	}
}

// pendingCall is one in-flight debounced execution shared by every
// caller that arrives before it completes.
type pendingCall[V any] struct {
	done chan struct{}
	val  V
	err  error
}

// MemoizeDebounced is like Memoize but delays execution by delay after
// the first call for a key, coalescing rapid repeated calls. All
// callers inside the window (and while the call is in flight) wait on
// the same single pending call; there is exactly one result-delivery
// path per key.
func MemoizeDebounced[A any, V any](c *Cache[V], keyFn func(A) string, fn func(context.Context, A) (V, error), delay time.Duration) func(context.Context, A) (V, error) {
	var (
		mu      sync.Mutex
		pending = make(map[string]*pendingCall[V])
	)

	return func(ctx context.Context, arg A) (V, error) {
		key := keyFn(arg)
		if v, ok := c.Get(key); ok {
			return v, nil
		}

		mu.Lock()
		call, ok := pending[key]
		if !ok {
			call = &pendingCall[V]{done: make(chan struct{})}
			pending[key] = call

			// The execution outlives any single caller, so detach it
			// from the first caller's cancellation.
			execCtx := context.WithoutCancel(ctx)
			go func() {
				timer := time.NewTimer(delay)
				<-timer.C

				v, err := fn(execCtx, arg)
				if err == nil {
					c.Set(key, v)
				}
				call.val, call.err = v, err

				mu.Lock()
				delete(pending, key)
				mu.Unlock()
				close(call.done)
			}()
		}
		mu.Unlock()

		select {
		case <-call.done:
			return call.val, call.err
		case <-ctx.Done():
			var zero V
			return zero, ctx.Err()
		}
	}
}
