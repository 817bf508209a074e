// Package registry holds process-wide values keyed by network name. Each
// key is built at most once and never evicted.
package registry

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Factory builds the value for one key.
type Factory[T any] func(ctx context.Context, key string) (T, error)

type Registry[T any] struct {
	factory Factory[T]

	mu     sync.RWMutex
	values map[string]T
	group  singleflight.Group
}

func New[T any](factory Factory[T]) *Registry[T] {
	return &Registry[T]{factory: factory, values: make(map[string]T)}
}

// Get returns the value for key, building it on first use. Concurrent
// first calls share one build. A failed build is not cached. The build
// outlives the caller's cancellation so one impatient caller cannot fail
// the others waiting on it.
func (r *Registry[T]) Get(ctx context.Context, key string) (T, error) {
	if v, ok := r.lookup(key); ok {
		return v, nil
	}

	ch := r.group.DoChan(key, func() (interface{}, error) {
		if v, ok := r.lookup(key); ok {
			return v, nil
		}
		v, err := r.factory(context.WithoutCancel(ctx), key)
		if err != nil {
			return nil, err
		}
		r.mu.Lock()
		r.values[key] = v
		r.mu.Unlock()
		return v, nil
	})

	var zero T
	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return zero, fmt.Errorf("init %s: %w", key, res.Err)
		}
		return res.Val.(T), nil
	}
}

func (r *Registry[T]) lookup(key string) (T, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.values[key]
	return v, ok
}

// Loaded returns the keys built so far.
func (r *Registry[T]) Loaded() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	keys := make([]string, 0, len(r.values))
	for k := range r.values {
		keys = append(keys, k)
	}
	return keys
}

// Each calls fn for every built value, e.g. to close connections on
// shutdown.
func (r *Registry[T]) Each(fn func(key string, v T)) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for k, v := range r.values {
		fn(k, v)
	}
}
