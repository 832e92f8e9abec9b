package cache

import (
	"context"
	"sync"
	"time"
)

// State describes where a Lookup value came from.
type State int

const (
	// Unavailable means no value could be produced.
	Unavailable State = iota
	// Fresh means the value is within its TTL, either cached or just fetched.
	Fresh
	// Stale means the refresh failed and a previously fetched value was returned.
	Stale
)

func (s State) String() string {
	switch s {
	case Fresh:
		return "fresh"
	case Stale:
		return "stale"
	default:
		return "unavailable"
	}
}

// Lookup is the result of TTLCache.Get. Err is set whenever a refresh was
// attempted and failed, including the Stale case.
type Lookup[T any] struct {
	Value     T
	State     State
	FetchedAt time.Time
	Err       error
}

// FetchFunc produces a new value for a TTLCache.
type FetchFunc[T any] func(ctx context.Context) (T, error)

// TTLCache holds a single value that is refreshed once it is older than ttl.
// It is safe for concurrent use; concurrent refreshes are serialized.
type TTLCache[T any] struct {
	mu        sync.Mutex
	fetch     FetchFunc[T]
	ttl       time.Duration
	value     T
	fetchedAt time.Time
	has       bool
	now       func() time.Time
}

// NewTTLCache creates a cache that refreshes through fetch
func NewTTLCache[T any](ttl time.Duration, fetch FetchFunc[T]) *TTLCache[T] {
	return &TTLCache[T]{
		fetch: fetch,
		ttl:   ttl,
		now:   time.Now,
	}
}

// Get returns the cached value while fresh, otherwise refreshes it. A failed
// refresh falls back to the previous value as Stale, or Unavailable if there
// never was one.
func (c *TTLCache[T]) Get(ctx context.Context) Lookup[T] {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.has && c.now().Sub(c.fetchedAt) < c.ttl {
		return Lookup[T]{Value: c.value, State: Fresh, FetchedAt: c.fetchedAt}
	}

	v, err := c.fetch(ctx)
	if err != nil {
		if c.has {
			return Lookup[T]{Value: c.value, State: Stale, FetchedAt: c.fetchedAt, Err: err}
		}
		var zero T
		return Lookup[T]{Value: zero, State: Unavailable, Err: err}
	}

	c.value = v
	c.fetchedAt = c.now()
	c.has = true
	return Lookup[T]{Value: v, State: Fresh, FetchedAt: c.fetchedAt}
}

// Invalidate drops the cached value so the next Get refreshes.
func (c *TTLCache[T]) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero T
	c.value = zero
	c.has = false
	c.fetchedAt = time.Time{}
}
