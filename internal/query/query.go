// Package query provides a keyed cache around remote fetches with freshness
// windows, request deduplication and retries.
package query

import (
	"context"
	"fmt"
	"log"
	"math"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// FetchFunc loads the value for a key.
type FetchFunc[K comparable, V any] func(ctx context.Context, key K) (V, error)

// Policy decides what happens when a cached value is past its freshness window.
type Policy int

const (
	// PolicyBlocking refetches before answering.
	PolicyBlocking Policy = iota
	// PolicyStaleWhileRevalidate answers with the stale value and refetches in the background.
	PolicyStaleWhileRevalidate
)

// Options configures a Client.
type Options struct {
	Name string

	// StaleTime is how long a successful result is served without refetching.
	StaleTime time.Duration

	// Retry is the number of additional attempts after a failed fetch.
	Retry         int
	RetryDelay    time.Duration
	MaxRetryDelay time.Duration
	// Retryable filters which errors are retried. Nil retries every error.
	Retryable func(error) bool

	// Timeout bounds a whole flight including retries.
	Timeout time.Duration
}

const (
	defaultRetryDelay    = time.Second
	defaultMaxRetryDelay = 30 * time.Second
)

type entry[V any] struct {
	value     V
	fetchedAt time.Time
}

// Client caches the results of a FetchFunc by key.
type Client[K comparable, V any] struct {
	opts  Options
	fetch FetchFunc[K, V]
	group singleflight.Group

	mu      sync.RWMutex
	entries map[K]entry[V]

	now func() time.Time
}

// New creates a Client.
func New[K comparable, V any](opts Options, fetch FetchFunc[K, V]) *Client[K, V] {
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = defaultRetryDelay
	}
	if opts.MaxRetryDelay <= 0 {
		opts.MaxRetryDelay = defaultMaxRetryDelay
	}
	return &Client[K, V]{
		opts:    opts,
		fetch:   fetch,
		entries: make(map[K]entry[V]),
		now:     time.Now,
	}
}

// Name returns the client name used in logs.
func (c *Client[K, V]) Name() string {
	return c.opts.Name
}

// Query returns the state for key. A disabled query never fetches and reports
// StatusIdle. Concurrent callers for the same key share one in-flight fetch.
func (c *Client[K, V]) Query(ctx context.Context, key K, enabled bool, policy Policy) State[V] {
	if !enabled {
		return idle[V]()
	}

	if e, ok := c.lookup(key); ok {
		if c.fresh(e) {
			return succeeded(e, false)
		}
		if policy == PolicyStaleWhileRevalidate {
			c.revalidate(ctx, key)
			return succeeded(e, true)
		}
	}

	return c.load(ctx, key)
}

// Peek returns the cached state for key without fetching.
func (c *Client[K, V]) Peek(key K) (State[V], bool) {
	e, ok := c.lookup(key)
	if !ok {
		return State[V]{}, false
	}
	return succeeded(e, !c.fresh(e)), true
}

// Invalidate drops the cached value for key.
func (c *Client[K, V]) Invalidate(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// Sweep removes entries fetched more than maxAge ago and returns how many were dropped.
func (c *Client[K, V]) Sweep(maxAge time.Duration) int {
	cutoff := c.now().Add(-maxAge)

	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for k, e := range c.entries {
		if e.fetchedAt.Before(cutoff) {
			delete(c.entries, k)
			removed++
		}
	}
	return removed
}

// Len returns the number of cached entries.
func (c *Client[K, V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *Client[K, V]) lookup(key K) (entry[V], bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[key]
	return e, ok
}

func (c *Client[K, V]) fresh(e entry[V]) bool {
	return c.now().Sub(e.fetchedAt) < c.opts.StaleTime
}

func (c *Client[K, V]) load(ctx context.Context, key K) State[V] {
	ch := c.group.DoChan(flightKey(key), func() (interface{}, error) {
		return c.run(ctx, key)
	})

	select {
	case <-ctx.Done():
		return failed[V](ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return failed[V](res.Err)
		}
		e, ok := res.Val.(entry[V])
		if !ok {
			return failed[V](fmt.Errorf("query %s: unexpected result type %T", c.opts.Name, res.Val))
		}
		return succeeded(e, false)
	}
}

func (c *Client[K, V]) revalidate(ctx context.Context, key K) {
	ctx = context.WithoutCancel(ctx)
	go func() {
		_, err, _ := c.group.Do(flightKey(key), func() (interface{}, error) {
			return c.run(ctx, key)
		})
		if err != nil {
			log.Printf("ERROR: query %s: background refetch for %v failed: %v", c.opts.Name, key, err)
		}
	}()
}

// run executes one flight. The flight is detached from the caller's cancellation
// because other callers may be waiting on it.
func (c *Client[K, V]) run(ctx context.Context, key K) (entry[V], error) {
	ctx = context.WithoutCancel(ctx)
	if c.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.opts.Timeout)
		defer cancel()
	}

	v, err := c.fetchWithRetry(ctx, key)
	if err != nil {
		return entry[V]{}, err
	}

	e := entry[V]{value: v, fetchedAt: c.now()}

	c.mu.Lock()
	c.entries[key] = e
	c.mu.Unlock()

	return e, nil
}

func (c *Client[K, V]) fetchWithRetry(ctx context.Context, key K) (V, error) {
	var attempt int

	for {
		v, err := c.fetch(ctx, key)
		if err == nil {
			return v, nil
		}

		if attempt >= c.opts.Retry || !c.retryable(err) {
			return v, err
		}

		// Backoff with exponential delay.
		delay := c.opts.RetryDelay * time.Duration(math.Pow(2, float64(attempt)))
		if delay > c.opts.MaxRetryDelay {
			delay = c.opts.MaxRetryDelay
		}
		log.Printf("DEBUG: query %s: attempt %d for %v failed: %v; retrying in %s", c.opts.Name, attempt+1, key, err, delay)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			var zero V
			return zero, ctx.Err()
		case <-timer.C:
		}

		attempt++
	}
}

// flightKey renders key for deduplication. It must be the same value the
// entries map is keyed by, so two keys share a flight only when they share an entry.
func flightKey[K comparable](key K) string {
	return fmt.Sprintf("%#v", key)
}

func (c *Client[K, V]) retryable(err error) bool {
	if c.opts.Retryable == nil {
		return true
	}
	return c.opts.Retryable(err)
}
