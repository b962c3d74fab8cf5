package query

import (
	"context"
	"log"
	"sync"
)

// Observer follows a single, changing key of a Client, the way a UI component
// follows its current arguments. Results for a key that has since been
// replaced are discarded and never published.
type Observer[K comparable, V any] struct {
	client *Client[K, V]
	policy Policy

	mu      sync.Mutex
	key     K
	enabled bool
	gen     uint64
	state   State[V]
	done    chan struct{}
	settled bool
}

// NewObserver creates an idle observer.
func NewObserver[K comparable, V any](client *Client[K, V], policy Policy) *Observer[K, V] {
	done := make(chan struct{})
	close(done)
	return &Observer[K, V]{
		client:  client,
		policy:  policy,
		state:   idle[V](),
		done:    done,
		settled: true,
	}
}

// Set switches the observed key and starts fetching it. A disabled key settles
// immediately as idle.
func (o *Observer[K, V]) Set(key K, enabled bool) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.gen++
	gen := o.gen
	o.key = key
	o.enabled = enabled

	// Wake waiters of the superseded generation so they move on to this one.
	if !o.settled {
		close(o.done)
	}
	done := make(chan struct{})
	o.done = done

	if !enabled {
		o.state = idle[V]()
		o.settled = true
		close(done)
		return
	}

	if st, ok := o.client.Peek(key); ok && !st.Stale {
		o.state = st
		o.settled = true
		close(done)
		return
	}

	o.state = State[V]{Status: StatusLoading}
	o.settled = false

	go func() {
		st := o.client.Query(context.Background(), key, true, o.policy)

		o.mu.Lock()
		defer o.mu.Unlock()

		if gen != o.gen {
			log.Printf("DEBUG: query %s: discarding result for superseded key %v", o.client.Name(), key)
			return
		}
		o.state = st
		o.settled = true
		close(done)
	}()
}

// Ensure observes key without disturbing a matching observation: the key is
// only refetched when it changed, or when its cached value is missing or stale
// and no fetch is pending.
func (o *Observer[K, V]) Ensure(key K, enabled bool) {
	o.mu.Lock()
	same := o.key == key && o.enabled == enabled
	if same && (!enabled || !o.settled) {
		o.mu.Unlock()
		return
	}
	if same {
		if st, ok := o.client.Peek(key); ok && !st.Stale {
			o.state = st
			o.mu.Unlock()
			return
		}
	}
	o.mu.Unlock()

	o.Set(key, enabled)
}

// Refresh drops the cached value of the current key and fetches it again.
func (o *Observer[K, V]) Refresh() {
	o.mu.Lock()
	key, enabled := o.key, o.enabled
	o.mu.Unlock()

	if enabled {
		o.client.Invalidate(key)
	}
	o.Set(key, enabled)
}

// Snapshot returns the observed key together with its state, read atomically.
func (o *Observer[K, V]) Snapshot() (K, bool, State[V]) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.key, o.enabled, o.state
}

// Current returns the state of the observed key.
func (o *Observer[K, V]) Current() State[V] {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Wait blocks until the latest generation settles or ctx is done.
func (o *Observer[K, V]) Wait(ctx context.Context) State[V] {
	for {
		o.mu.Lock()
		done := o.done
		o.mu.Unlock()

		select {
		case <-ctx.Done():
			return o.Current()
		case <-done:
		}

		o.mu.Lock()
		if o.done == done {
			st := o.state
			o.mu.Unlock()
			return st
		}
		o.mu.Unlock()
	}
}
