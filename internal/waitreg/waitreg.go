// Package waitreg is the in-memory synchronization primitive behind the
// long-poll wait: callers block until a specific id is paid or their timeout
// fires. It holds no durable state and is rebuilt empty on restart; paid
// state lives in the store.
package waitreg

import (
	"context"
	"sync"
	"time"
)

type Registry[T any] struct {
	mu       sync.Mutex
	waiters  map[string]map[chan T]struct{}
	resolved map[string]T
}

func New[T any]() *Registry[T] {
	return &Registry[T]{
		waiters:  make(map[string]map[chan T]struct{}),
		resolved: make(map[string]T),
	}
}

// Register blocks until the id is signaled, the timeout fires, or ctx is
// canceled. It returns (snapshot, true, nil) when the payment arrived and
// (zero, false, nil) on timeout. An id already signaled resolves immediately.
// The waiter is always removed on the way out, so timed-out and disconnected
// callers leave nothing behind.
func (r *Registry[T]) Register(ctx context.Context, id string, timeout time.Duration) (T, bool, error) {
	var zero T

	r.mu.Lock()
	if v, ok := r.resolved[id]; ok {
		r.mu.Unlock()
		return v, true, nil
	}
	ch := make(chan T, 1)
	set, ok := r.waiters[id]
	if !ok {
		set = make(map[chan T]struct{})
		r.waiters[id] = set
	}
	set[ch] = struct{}{}
	r.mu.Unlock()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case v := <-ch:
		return v, true, nil
	case <-timer.C:
		r.remove(id, ch)
		// A signal may have landed between the timer firing and removal.
		select {
		case v := <-ch:
			return v, true, nil
		default:
		}
		return zero, false, nil
	case <-ctx.Done():
		r.remove(id, ch)
		select {
		case v := <-ch:
			return v, true, nil
		default:
		}
		return zero, false, ctx.Err()
	}
}

// Signal fulfills every waiter currently registered for id and caches the
// snapshot so late registrations resolve immediately. Signaling again (a
// recurring offer) replaces the cached snapshot.
func (r *Registry[T]) Signal(id string, snapshot T) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.resolved[id] = snapshot
	for ch := range r.waiters[id] {
		ch <- snapshot
	}
	delete(r.waiters, id)
}

// Forget clears the cached result and any pending waiters for id, on invoice
// deletion or expiry sweep. Pending waiters will time out on their own.
func (r *Registry[T]) Forget(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.resolved, id)
	delete(r.waiters, id)
}

func (r *Registry[T]) remove(id string, ch chan T) {
	r.mu.Lock()
	defer r.mu.Unlock()

	set, ok := r.waiters[id]
	if !ok {
		return
	}
	delete(set, ch)
	if len(set) == 0 {
		delete(r.waiters, id)
	}
}
